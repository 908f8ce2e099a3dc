package storage

import (
	"context"
	"time"
)

// TaskRecord Task持久化记录（对外导出）
type TaskRecord struct {
	ID            string     // Task ID（系统生成的UUID）
	WorkflowID    string     // 所属Workflow ID
	Name          string     // Task名称
	Status        string     // 状态
	CreatedAt     time.Time  // 创建时间
	CompletedAt   *time.Time // 完成时间
	ExecutionTime float64    // 执行耗时（秒）
	ResultData    string     // 结果序列化（JSON格式）
	ErrorMessage  string     // 错误信息
	Metadata      string     // 元数据（JSON格式）
}

// TaskRepository Task存储接口（对外导出）
type TaskRepository interface {
	// Save 保存或更新Task记录
	Save(ctx context.Context, record *TaskRecord) error
	// GetByID 根据ID查询Task记录，不存在时返回nil
	GetByID(ctx context.Context, id string) (*TaskRecord, error)
	// GetByWorkflowID 根据Workflow ID查询所有Task记录
	GetByWorkflowID(ctx context.Context, workflowID string) ([]*TaskRecord, error)
	// UpdateStatus 更新Task状态
	UpdateStatus(ctx context.Context, id string, status string) error
}
