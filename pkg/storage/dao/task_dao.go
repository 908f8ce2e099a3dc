package dao

import (
	"database/sql"
	"time"
)

// TaskDAO tasks表的数据访问对象（内部使用）
type TaskDAO struct {
	ID            string          `db:"id"`
	WorkflowID    string          `db:"workflow_id"`
	Name          string          `db:"name"`
	Status        string          `db:"status"`
	CreatedAt     time.Time       `db:"created_at"`
	CompletedAt   sql.NullTime    `db:"completed_at"`
	ExecutionTime sql.NullFloat64 `db:"execution_time"`
	ResultData    sql.NullString  `db:"result_data"` // JSON格式存储
	ErrorMessage  sql.NullString  `db:"error_msg"`
	Metadata      sql.NullString  `db:"metadata"` // JSON格式存储
}
