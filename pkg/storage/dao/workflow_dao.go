package dao

import (
	"database/sql"
	"time"
)

// WorkflowDAO workflows表的数据访问对象（内部使用）
type WorkflowDAO struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Description  sql.NullString `db:"description"`
	Status       string         `db:"status"`
	CreatedAt    time.Time      `db:"created_at"`
	StartedAt    sql.NullTime   `db:"started_at"`
	CompletedAt  sql.NullTime   `db:"completed_at"`
	Metadata     sql.NullString `db:"metadata"`      // JSON格式存储
	WorkflowData sql.NullString `db:"workflow_data"` // 完整对象JSON序列化
}
