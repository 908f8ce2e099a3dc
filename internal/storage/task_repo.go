package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/LENAX/orchestration-engine/pkg/storage"
	"github.com/LENAX/orchestration-engine/pkg/storage/dao"
)

// taskColumns tasks表列名（内部使用，与UpsertSQL共用）
var taskColumns = []string{
	"id", "workflow_id", "name", "status",
	"created_at", "completed_at", "execution_time",
	"result_data", "error_msg", "metadata",
}

// taskRepo 基于sqlx的TaskRepository实现（小写，不导出）
type taskRepo struct {
	db      *sqlx.DB
	dialect storage.Dialect
}

// NewTaskRepo 创建Task存储实例（内部工厂方法）
func NewTaskRepo(db *sqlx.DB, dialect storage.Dialect) (storage.TaskRepository, error) {
	repo := &taskRepo{db: db, dialect: dialect}
	if err := repo.initSchema(); err != nil {
		return nil, fmt.Errorf("初始化tasks表结构失败: %w", err)
	}
	return repo, nil
}

// initSchema 初始化数据库表结构（内部方法）
func (r *taskRepo) initSchema() error {
	createTableSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS tasks (
		id VARCHAR(36) PRIMARY KEY,
		workflow_id VARCHAR(36) NOT NULL,
		name TEXT NOT NULL,
		status VARCHAR(32) NOT NULL,
		created_at %[1]s NOT NULL,
		completed_at %[1]s,
		execution_time %[2]s,
		result_data TEXT,
		error_msg TEXT,
		metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_workflow_id ON tasks(workflow_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	`, r.dialect.TimestampType(), r.dialect.FloatType())
	_, err := r.db.Exec(createTableSQL)
	return err
}

// Save 保存或更新Task记录
func (r *taskRepo) Save(ctx context.Context, record *storage.TaskRecord) error {
	d := toTaskDAO(record)
	query := r.dialect.UpsertSQL("tasks", taskColumns, "id",
		[]string{"workflow_id", "name", "status", "completed_at", "execution_time", "result_data", "error_msg", "metadata"})
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("保存Task失败: %w", err)
	}
	return nil
}

// GetByID 根据ID查询Task记录
func (r *taskRepo) GetByID(ctx context.Context, id string) (*storage.TaskRecord, error) {
	var d dao.TaskDAO
	query := r.db.Rebind(`SELECT id, workflow_id, name, status, created_at, completed_at, execution_time, result_data, error_msg, metadata
	FROM tasks WHERE id = ?`)
	if err := r.db.GetContext(ctx, &d, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询Task失败: %w", err)
	}
	return fromTaskDAO(&d), nil
}

// GetByWorkflowID 根据Workflow ID查询所有Task记录
func (r *taskRepo) GetByWorkflowID(ctx context.Context, workflowID string) ([]*storage.TaskRecord, error) {
	var daos []dao.TaskDAO
	query := r.db.Rebind(`SELECT id, workflow_id, name, status, created_at, completed_at, execution_time, result_data, error_msg, metadata
	FROM tasks WHERE workflow_id = ? ORDER BY created_at`)
	if err := r.db.SelectContext(ctx, &daos, query, workflowID); err != nil {
		return nil, fmt.Errorf("查询Task列表失败: %w", err)
	}
	records := make([]*storage.TaskRecord, 0, len(daos))
	for i := range daos {
		records = append(records, fromTaskDAO(&daos[i]))
	}
	return records, nil
}

// UpdateStatus 更新Task状态
func (r *taskRepo) UpdateStatus(ctx context.Context, id string, status string) error {
	query := r.db.Rebind(`UPDATE tasks SET status = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, status, id); err != nil {
		return fmt.Errorf("更新Task状态失败: %w", err)
	}
	return nil
}

// toTaskDAO 业务实体转DAO（内部方法）
func toTaskDAO(record *storage.TaskRecord) *dao.TaskDAO {
	d := &dao.TaskDAO{
		ID:         record.ID,
		WorkflowID: record.WorkflowID,
		Name:       record.Name,
		Status:     record.Status,
		CreatedAt:  record.CreatedAt,
	}
	if record.CompletedAt != nil {
		d.CompletedAt = sql.NullTime{Time: *record.CompletedAt, Valid: true}
	}
	if record.ExecutionTime > 0 {
		d.ExecutionTime = sql.NullFloat64{Float64: record.ExecutionTime, Valid: true}
	}
	if record.ResultData != "" {
		d.ResultData = sql.NullString{String: record.ResultData, Valid: true}
	}
	if record.ErrorMessage != "" {
		d.ErrorMessage = sql.NullString{String: record.ErrorMessage, Valid: true}
	}
	if record.Metadata != "" {
		d.Metadata = sql.NullString{String: record.Metadata, Valid: true}
	}
	return d
}

// fromTaskDAO DAO转业务实体（内部方法）
func fromTaskDAO(d *dao.TaskDAO) *storage.TaskRecord {
	record := &storage.TaskRecord{
		ID:         d.ID,
		WorkflowID: d.WorkflowID,
		Name:       d.Name,
		Status:     d.Status,
		CreatedAt:  d.CreatedAt,
	}
	if d.CompletedAt.Valid {
		t := d.CompletedAt.Time
		record.CompletedAt = &t
	}
	if d.ExecutionTime.Valid {
		record.ExecutionTime = d.ExecutionTime.Float64
	}
	if d.ResultData.Valid {
		record.ResultData = d.ResultData.String
	}
	if d.ErrorMessage.Valid {
		record.ErrorMessage = d.ErrorMessage.String
	}
	if d.Metadata.Valid {
		record.Metadata = d.Metadata.String
	}
	return record
}
