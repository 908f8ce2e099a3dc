package workflow

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LENAX/orchestration-engine/pkg/core/task"
)

// Workflow状态常量（对外导出）
const (
	WorkflowStatusCreated   = "CREATED"
	WorkflowStatusRunning   = "RUNNING"
	WorkflowStatusCompleted = "COMPLETED"
	WorkflowStatusFailed    = "FAILED"
	WorkflowStatusCancelled = "CANCELLED"
	WorkflowStatusPaused    = "PAUSED"
)

// 失败策略常量（对外导出）
const (
	// FailureStrategyStop 单个Task失败时取消所有运行中Task并终止Workflow
	FailureStrategyStop = "stop"
	// FailureStrategyContinue 单个Task失败时兄弟分支继续执行
	FailureStrategyContinue = "continue"
	// FailureStrategyRetry 预留值：Workflow级重试尚未实现，行为等同continue
	FailureStrategyRetry = "retry"
)

// Workflow 带并发上限与失败策略的Task集合（对外导出）
// 所有Workflow与Task对象由Engine独占持有，调用方只通过ID与Engine交互
type Workflow struct {
	ID               string
	Name             string
	Description      string
	Tasks            []*task.Task // 按添加顺序排列
	MaxParallelTasks int
	FailureStrategy  string
	CreateTime       time.Time
	StartTime        *time.Time
	EndTime          *time.Time
	Metadata         map[string]interface{}

	status string
	mu     sync.RWMutex
}

// NewWorkflow 创建Workflow实例（对外导出）
func NewWorkflow(name, description string, maxParallelTasks int, failureStrategy string, metadata map[string]interface{}) *Workflow {
	if maxParallelTasks <= 0 {
		maxParallelTasks = 5
	}
	if failureStrategy == "" {
		failureStrategy = FailureStrategyStop
	}
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	return &Workflow{
		ID:               uuid.NewString(),
		Name:             name,
		Description:      description,
		MaxParallelTasks: maxParallelTasks,
		FailureStrategy:  failureStrategy,
		Metadata:         metadata,
		status:           WorkflowStatusCreated,
		CreateTime:       time.Now(),
	}
}

// GetStatus 读取Workflow状态（并发安全）
func (w *Workflow) GetStatus() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

// SetStatus 更新Workflow状态（并发安全）
func (w *Workflow) SetStatus(status string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
}

// CompareAndSetStatus 仅当前状态等于expect时更新状态（并发安全）
// 用于Pause/Resume这类有前置状态要求的转换
func (w *Workflow) CompareAndSetStatus(expect, status string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status != expect {
		return false
	}
	w.status = status
	return true
}

// AddTask 向Workflow追加Task（对外导出，供Engine调用）
func (w *Workflow) AddTask(t *task.Task) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Tasks = append(w.Tasks, t)
}

// GetTasks 返回Task列表快照（并发安全）
func (w *Workflow) GetTasks() []*task.Task {
	w.mu.RLock()
	defer w.mu.RUnlock()
	tasks := make([]*task.Task, len(w.Tasks))
	copy(tasks, w.Tasks)
	return tasks
}

// GetTaskByID 根据ID查找Task（并发安全）
// 不存在时返回nil
func (w *Workflow) GetTaskByID(id string) *task.Task {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, t := range w.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// TaskCount 返回Task数量（并发安全）
func (w *Workflow) TaskCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.Tasks)
}

// MarkStarted 置RUNNING并记录开始时间（对外导出，供Engine调用）
func (w *Workflow) MarkStarted() {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	w.status = WorkflowStatusRunning
	w.StartTime = &now
}

// MarkFinished 置终态并记录结束时间（对外导出，供Engine调用）
func (w *Workflow) MarkFinished(status string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	w.status = status
	w.EndTime = &now
}

// ElapsedSeconds 返回从开始到结束的耗时（秒）
// 未开始或未结束时返回0
func (w *Workflow) ElapsedSeconds() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.StartTime == nil || w.EndTime == nil {
		return 0
	}
	return w.EndTime.Sub(*w.StartTime).Seconds()
}
