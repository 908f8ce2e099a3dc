package storage

import (
	"context"
	"time"
)

// WorkflowRecord Workflow持久化记录（对外导出）
// 仅作为崩溃后排查用的内部缓存，不是外部系统应解析的契约
type WorkflowRecord struct {
	ID           string     // Workflow ID（系统生成的UUID）
	Name         string     // Workflow名称
	Description  string     // 描述
	Status       string     // 状态
	CreatedAt    time.Time  // 创建时间
	StartedAt    *time.Time // 开始时间
	CompletedAt  *time.Time // 完成时间
	Metadata     string     // 元数据（JSON格式）
	WorkflowData string     // 完整对象序列化（JSON格式）
}

// WorkflowRepository Workflow存储接口（对外导出）
type WorkflowRepository interface {
	// Save 保存或更新Workflow记录
	Save(ctx context.Context, record *WorkflowRecord) error
	// GetByID 根据ID查询Workflow记录，不存在时返回nil
	GetByID(ctx context.Context, id string) (*WorkflowRecord, error)
	// ListByStatus 根据状态查询Workflow记录
	ListByStatus(ctx context.Context, status string) ([]*WorkflowRecord, error)
	// UpdateStatus 更新Workflow状态
	UpdateStatus(ctx context.Context, id string, status string) error
}
