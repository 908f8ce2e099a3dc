package task

import "time"

// Result Task单次执行的最终结果（对外导出）
// 每个Task只产生一个Result：最后一次尝试的结果，而非每次重试
// 构造后不可变
type Result struct {
	TaskID        string                 `json:"task_id"`
	Status        string                 `json:"status"`         // COMPLETED或FAILED
	Result        interface{}            `json:"result"`         // 返回值（成功时）
	Error         string                 `json:"error"`          // 错误信息（失败时）
	ExecutionTime float64                `json:"execution_time"` // 执行耗时（秒，含全部重试）
	CreatedAt     time.Time              `json:"created_at"`
	CompletedAt   time.Time              `json:"completed_at"`
	Metadata      map[string]interface{} `json:"metadata"`
}

// NewResult 创建Result实例（对外导出）
func NewResult(taskID, status string, value interface{}, errMsg string, executionTime float64) *Result {
	now := time.Now()
	return &Result{
		TaskID:        taskID,
		Status:        status,
		Result:        value,
		Error:         errMsg,
		ExecutionTime: executionTime,
		CreatedAt:     now,
		CompletedAt:   now,
		Metadata:      make(map[string]interface{}),
	}
}
