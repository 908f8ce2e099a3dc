package dag

import (
	"fmt"
	"sort"
	"strings"
)

// BuildDAG 从Task集合构建DAG（对外导出）
// tasks: Task ID -> Task名称的映射
// dependencies: 后置Task ID -> 前置Task ID列表的映射
// 依赖引用不存在的Task ID或自引用时返回错误
func BuildDAG(tasks map[string]string, dependencies map[string][]string) (*DAG, error) {
	d := NewDAG()

	// 创建所有节点
	for id, name := range tasks {
		d.Nodes[id] = &Node{
			ID:       id,
			Name:     name,
			OutEdges: make([]string, 0),
		}
	}

	// 构建边：前置Task -> 后置Task
	for taskID, deps := range dependencies {
		node, exists := d.Nodes[taskID]
		if !exists {
			return nil, fmt.Errorf("依赖关系引用了不存在的Task: %s", taskID)
		}
		for _, depID := range deps {
			if depID == taskID {
				return nil, fmt.Errorf("Task %s 不能依赖自身", taskID)
			}
			depNode, exists := d.Nodes[depID]
			if !exists {
				return nil, fmt.Errorf("Task %s 依赖了不存在的Task: %s", taskID, depID)
			}
			depNode.OutEdges = append(depNode.OutEdges, taskID)
			node.InDegree++
		}
	}

	return d, nil
}

// DetectCycle 检测DAG中是否存在循环依赖（对外导出）
// 使用三色标记法DFS：0=白色（未访问），1=灰色（正在访问），2=黑色（已访问）
func (d *DAG) DetectCycle() error {
	color := make(map[string]int)
	parent := make(map[string]string)

	// 保证遍历顺序稳定，便于测试与错误信息复现
	nodeIDs := make([]string, 0, len(d.Nodes))
	for id := range d.Nodes {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)

	var cyclePath []string
	var dfs func(nodeID string) bool
	dfs = func(nodeID string) bool {
		color[nodeID] = 1

		for _, childID := range d.Nodes[nodeID].OutEdges {
			if color[childID] == 0 {
				parent[childID] = nodeID
				if dfs(childID) {
					return true
				}
			} else if color[childID] == 1 {
				// 灰色节点出现后向边，检测到循环，回溯构建循环路径
				cyclePath = append(cyclePath, childID)
				cur := nodeID
				for cur != childID && cur != "" {
					cyclePath = append(cyclePath, cur)
					cur = parent[cur]
				}
				cyclePath = append(cyclePath, childID)
				return true
			}
		}

		color[nodeID] = 2
		return false
	}

	for _, nodeID := range nodeIDs {
		if color[nodeID] == 0 {
			if dfs(nodeID) {
				// 反转路径使其按依赖方向呈现
				for i, j := 0, len(cyclePath)-1; i < j; i, j = i+1, j-1 {
					cyclePath[i], cyclePath[j] = cyclePath[j], cyclePath[i]
				}
				return fmt.Errorf("检测到循环依赖: %s", strings.Join(cyclePath, " -> "))
			}
		}
	}

	return nil
}

// TopologicalSort 按层输出拓扑排序结果（对外导出）
// 同层节点之间无依赖关系，可并行执行
func (d *DAG) TopologicalSort() (*TopologicalOrder, error) {
	inDegree := make(map[string]int, len(d.Nodes))
	for id, node := range d.Nodes {
		inDegree[id] = node.InDegree
	}

	order := &TopologicalOrder{Levels: make([][]string, 0)}
	remaining := len(d.Nodes)

	for remaining > 0 {
		level := make([]string, 0)
		for id, deg := range inDegree {
			if deg == 0 {
				level = append(level, id)
			}
		}
		if len(level) == 0 {
			return nil, fmt.Errorf("拓扑排序失败：图中存在循环依赖")
		}
		sort.Strings(level)

		for _, id := range level {
			delete(inDegree, id)
			remaining--
			for _, childID := range d.Nodes[id].OutEdges {
				if _, ok := inDegree[childID]; ok {
					inDegree[childID]--
				}
			}
		}
		order.Levels = append(order.Levels, level)
	}

	return order, nil
}

// ValidateDependencies 校验新增Task的依赖合法性（对外导出）
// existing: 已有Task ID -> Task名称；newTaskID/newTaskName: 新Task；deps: 新Task的依赖
// 校验内容：依赖ID必须已存在、不允许自引用、加入后不形成环
func ValidateDependencies(existing map[string]string, existingDeps map[string][]string, newTaskID, newTaskName string, deps []string) error {
	for _, depID := range deps {
		if depID == newTaskID {
			return fmt.Errorf("无效依赖: Task %s 不能依赖自身", newTaskID)
		}
		if _, ok := existing[depID]; !ok {
			return fmt.Errorf("无效依赖: 依赖的Task %s 不存在于同一Workflow", depID)
		}
	}

	// 将新Task加入图后整体检测循环
	tasks := make(map[string]string, len(existing)+1)
	for id, name := range existing {
		tasks[id] = name
	}
	tasks[newTaskID] = newTaskName

	dependencies := make(map[string][]string, len(existingDeps)+1)
	for id, d := range existingDeps {
		dependencies[id] = d
	}
	dependencies[newTaskID] = deps

	d, err := BuildDAG(tasks, dependencies)
	if err != nil {
		return fmt.Errorf("无效依赖: %w", err)
	}
	if err := d.DetectCycle(); err != nil {
		return fmt.Errorf("无效依赖: %w", err)
	}
	return nil
}
