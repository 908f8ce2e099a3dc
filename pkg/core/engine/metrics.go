package engine

import "sync"

// MetricsSnapshot 引擎级指标快照（对外导出）
type MetricsSnapshot struct {
	WorkflowsCreated   int64   `json:"workflows_created"`
	WorkflowsCompleted int64   `json:"workflows_completed"`
	WorkflowsFailed    int64   `json:"workflows_failed"`
	TasksExecuted      int64   `json:"tasks_executed"`
	TasksFailed        int64   `json:"tasks_failed"`
	TotalExecutionTime float64 `json:"total_execution_time"` // 累计执行耗时（秒）
}

// metrics 引擎级计数器（内部结构，随事件同步更新）
type metrics struct {
	mu                 sync.Mutex
	workflowsCreated   int64
	workflowsCompleted int64
	workflowsFailed    int64
	tasksExecuted      int64
	tasksFailed        int64
	totalExecutionTime float64
}

func (m *metrics) workflowCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workflowsCreated++
}

func (m *metrics) workflowCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workflowsCompleted++
}

func (m *metrics) workflowFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workflowsFailed++
}

func (m *metrics) taskExecuted(executionTime float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasksExecuted++
	m.totalExecutionTime += executionTime
}

func (m *metrics) taskFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasksFailed++
}

// snapshot 读取指标快照（内部方法）
func (m *metrics) snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		WorkflowsCreated:   m.workflowsCreated,
		WorkflowsCompleted: m.workflowsCompleted,
		WorkflowsFailed:    m.workflowsFailed,
		TasksExecuted:      m.tasksExecuted,
		TasksFailed:        m.tasksFailed,
		TotalExecutionTime: m.totalExecutionTime,
	}
}
