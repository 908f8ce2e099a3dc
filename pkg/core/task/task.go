package task

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Task状态常量（对外导出）
const (
	TaskStatusPending   = "PENDING"
	TaskStatusRunning   = "RUNNING"
	TaskStatusCompleted = "COMPLETED"
	TaskStatusFailed    = "FAILED"
	TaskStatusCancelled = "CANCELLED"
	TaskStatusRetrying  = "RETRYING"
	TaskStatusPaused    = "PAUSED"
)

// IsTerminalStatus 判断Task状态是否为终态（对外导出）
// 终态：COMPLETED/FAILED/CANCELLED，进入终态后状态不再变更
func IsTerminalStatus(status string) bool {
	switch status {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return true
	}
	return false
}

// Priority Task优先级（对外导出）
// 数值越大优先级越高，调度时按优先级降序准入
type Priority int

const (
	PriorityLow      Priority = 1
	PriorityNormal   Priority = 2
	PriorityHigh     Priority = 3
	PriorityCritical Priority = 4
)

// String 返回优先级的可读名称
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "LOW"
	case PriorityNormal:
		return "NORMAL"
	case PriorityHigh:
		return "HIGH"
	case PriorityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// JobFunc 调度用统一函数签名（对外导出）
// 用户逻辑通过TaskContext获取任务身份、参数与取消信号
type JobFunc func(ctx *TaskContext) (interface{}, error)

// Task 一次可调度的工作单元（对外导出）
type Task struct {
	ID           string                 // 系统生成的UUID
	Name         string                 // 人类可读名称
	JobFunc      JobFunc                // 任务函数
	Args         []interface{}          // 位置参数
	Params       map[string]interface{} // 关键字参数
	Dependencies []string               // 前置Task ID列表
	Priority     Priority               // 优先级
	MaxRetries   int                    // 最大重试次数
	RetryDelay   float64                // 重试退避基数（秒），退避为线性：RetryDelay * 第N次
	Timeout      float64                // 单次调用超时（秒），0表示不限时；每次重试独立计时
	Blocking     bool                   // 阻塞型函数标记：无法感知ctx的函数走受限Worker池执行
	ScheduledAt  *time.Time             // 最早可执行时间（可选）
	CreateTime   time.Time              // 创建时间
	Metadata     map[string]interface{} // 任意元数据

	status string  // 状态（见上方常量）
	result *Result // 最终一次尝试的结果
	mu     sync.RWMutex
}

// NewTask 创建Task实例（对外导出）
// 仅由Engine的AddTask调用；状态初始为PENDING
func NewTask(name string, fn JobFunc) *Task {
	return &Task{
		ID:         uuid.NewString(),
		Name:       name,
		JobFunc:    fn,
		Params:     make(map[string]interface{}),
		Metadata:   make(map[string]interface{}),
		Priority:   PriorityNormal,
		RetryDelay: 1.0,
		status:     TaskStatusPending,
		CreateTime: time.Now(),
	}
}

// GetStatus 读取Task状态（并发安全）
func (t *Task) GetStatus() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// SetStatus 更新Task状态（并发安全）
// 终态不可覆盖：COMPLETED/FAILED/CANCELLED之后的状态变更会被忽略
func (t *Task) SetStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if IsTerminalStatus(t.status) {
		return
	}
	t.status = status
}

// GetResult 读取Task结果（并发安全）
func (t *Task) GetResult() *Result {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.result
}

// setResultAndStatus 原子地写入结果并置状态（内部方法，供Engine使用）
// 结果只写一次：已有结果时忽略后续写入
func (t *Task) setResultAndStatus(result *Result, status string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.result != nil || IsTerminalStatus(t.status) {
		return false
	}
	t.result = result
	t.status = status
	return true
}

// Complete 记录成功结果并置终态（对外导出，供Engine调用）
func (t *Task) Complete(result *Result) bool {
	return t.setResultAndStatus(result, TaskStatusCompleted)
}

// Fail 记录失败结果并置终态（对外导出，供Engine调用）
func (t *Task) Fail(result *Result) bool {
	return t.setResultAndStatus(result, TaskStatusFailed)
}

// IsReadyAt 判断调度时间是否已到达（对外导出）
func (t *Task) IsReadyAt(now time.Time) bool {
	return t.ScheduledAt == nil || !t.ScheduledAt.After(now)
}
