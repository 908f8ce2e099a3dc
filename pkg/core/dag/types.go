package dag

// Node 依赖图中的单个Task节点（对外导出）
// InDegree记录尚未满足的前置数量，OutEdges列出以本节点为前置的下游Task
type Node struct {
	ID       string
	Name     string
	InDegree int
	OutEdges []string
}

// DAG Task依赖关系图（对外导出），节点按Task ID索引
type DAG struct {
	Nodes map[string]*Node
}

// NewDAG 创建空依赖图（对外导出）
func NewDAG() *DAG {
	return &DAG{Nodes: make(map[string]*Node)}
}

// TopologicalOrder 分层拓扑排序结果（对外导出）
// Levels按执行先后分层，同一层内的Task互不依赖、可并行准入
type TopologicalOrder struct {
	Levels [][]string
}
