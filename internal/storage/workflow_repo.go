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

// workflowColumns workflows表列名（内部使用，与UpsertSQL共用）
var workflowColumns = []string{
	"id", "name", "description", "status",
	"created_at", "started_at", "completed_at",
	"metadata", "workflow_data",
}

// workflowRepo 基于sqlx的WorkflowRepository实现（小写，不导出）
type workflowRepo struct {
	db      *sqlx.DB
	dialect storage.Dialect
}

// NewWorkflowRepo 创建Workflow存储实例（内部工厂方法）
func NewWorkflowRepo(db *sqlx.DB, dialect storage.Dialect) (storage.WorkflowRepository, error) {
	repo := &workflowRepo{db: db, dialect: dialect}
	if err := repo.initSchema(); err != nil {
		return nil, fmt.Errorf("初始化workflows表结构失败: %w", err)
	}
	return repo, nil
}

// initSchema 初始化数据库表结构（内部方法）
func (r *workflowRepo) initSchema() error {
	createTableSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS workflows (
		id VARCHAR(36) PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		status VARCHAR(32) NOT NULL,
		created_at %[1]s NOT NULL,
		started_at %[1]s,
		completed_at %[1]s,
		metadata TEXT,
		workflow_data TEXT
	);`, r.dialect.TimestampType())
	_, err := r.db.Exec(createTableSQL)
	return err
}

// Save 保存或更新Workflow记录
func (r *workflowRepo) Save(ctx context.Context, record *storage.WorkflowRecord) error {
	d := toWorkflowDAO(record)
	query := r.dialect.UpsertSQL("workflows", workflowColumns, "id",
		[]string{"name", "description", "status", "started_at", "completed_at", "metadata", "workflow_data"})
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("保存Workflow失败: %w", err)
	}
	return nil
}

// GetByID 根据ID查询Workflow记录
func (r *workflowRepo) GetByID(ctx context.Context, id string) (*storage.WorkflowRecord, error) {
	var d dao.WorkflowDAO
	query := r.db.Rebind(`SELECT id, name, description, status, created_at, started_at, completed_at, metadata, workflow_data
	FROM workflows WHERE id = ?`)
	if err := r.db.GetContext(ctx, &d, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询Workflow失败: %w", err)
	}
	return fromWorkflowDAO(&d), nil
}

// ListByStatus 根据状态查询Workflow记录
func (r *workflowRepo) ListByStatus(ctx context.Context, status string) ([]*storage.WorkflowRecord, error) {
	var daos []dao.WorkflowDAO
	query := r.db.Rebind(`SELECT id, name, description, status, created_at, started_at, completed_at, metadata, workflow_data
	FROM workflows WHERE status = ? ORDER BY created_at`)
	if err := r.db.SelectContext(ctx, &daos, query, status); err != nil {
		return nil, fmt.Errorf("查询Workflow列表失败: %w", err)
	}
	records := make([]*storage.WorkflowRecord, 0, len(daos))
	for i := range daos {
		records = append(records, fromWorkflowDAO(&daos[i]))
	}
	return records, nil
}

// UpdateStatus 更新Workflow状态
func (r *workflowRepo) UpdateStatus(ctx context.Context, id string, status string) error {
	query := r.db.Rebind(`UPDATE workflows SET status = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, status, id); err != nil {
		return fmt.Errorf("更新Workflow状态失败: %w", err)
	}
	return nil
}

// toWorkflowDAO 业务实体转DAO（内部方法）
func toWorkflowDAO(record *storage.WorkflowRecord) *dao.WorkflowDAO {
	d := &dao.WorkflowDAO{
		ID:        record.ID,
		Name:      record.Name,
		Status:    record.Status,
		CreatedAt: record.CreatedAt,
	}
	if record.Description != "" {
		d.Description = sql.NullString{String: record.Description, Valid: true}
	}
	if record.StartedAt != nil {
		d.StartedAt = sql.NullTime{Time: *record.StartedAt, Valid: true}
	}
	if record.CompletedAt != nil {
		d.CompletedAt = sql.NullTime{Time: *record.CompletedAt, Valid: true}
	}
	if record.Metadata != "" {
		d.Metadata = sql.NullString{String: record.Metadata, Valid: true}
	}
	if record.WorkflowData != "" {
		d.WorkflowData = sql.NullString{String: record.WorkflowData, Valid: true}
	}
	return d
}

// fromWorkflowDAO DAO转业务实体（内部方法）
func fromWorkflowDAO(d *dao.WorkflowDAO) *storage.WorkflowRecord {
	record := &storage.WorkflowRecord{
		ID:        d.ID,
		Name:      d.Name,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
	}
	if d.Description.Valid {
		record.Description = d.Description.String
	}
	if d.StartedAt.Valid {
		t := d.StartedAt.Time
		record.StartedAt = &t
	}
	if d.CompletedAt.Valid {
		t := d.CompletedAt.Time
		record.CompletedAt = &t
	}
	if d.Metadata.Valid {
		record.Metadata = d.Metadata.String
	}
	if d.WorkflowData.Valid {
		record.WorkflowData = d.WorkflowData.String
	}
	return record
}
