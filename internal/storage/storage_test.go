package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/LENAX/orchestration-engine/pkg/storage"
)

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()
	repos, err := NewRepositories("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "初始化SQLite存储失败")
	t.Cleanup(func() { repos.Close() })
	return repos
}

// TestWorkflowRepo_SaveAndGet 测试Workflow记录的保存与读取
func TestWorkflowRepo_SaveAndGet(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	started := time.Now().Truncate(time.Second)
	record := &storage.WorkflowRecord{
		ID:           "wf-001",
		Name:         "测试流程",
		Description:  "描述",
		Status:       "RUNNING",
		CreatedAt:    started,
		StartedAt:    &started,
		Metadata:     `{"env":"test"}`,
		WorkflowData: `{"id":"wf-001"}`,
	}
	require.NoError(t, repos.Workflow.Save(ctx, record), "保存Workflow失败")

	got, err := repos.Workflow.GetByID(ctx, "wf-001")
	require.NoError(t, err)
	require.NotNil(t, got, "应查到刚保存的记录")
	require.Equal(t, "测试流程", got.Name)
	require.Equal(t, "RUNNING", got.Status)
	require.NotNil(t, got.StartedAt, "开始时间应被持久化")
	require.Nil(t, got.CompletedAt, "未结束时CompletedAt应为空")
	require.Equal(t, `{"env":"test"}`, got.Metadata)
}

// TestWorkflowRepo_Upsert 测试重复保存走更新路径
func TestWorkflowRepo_Upsert(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	record := &storage.WorkflowRecord{
		ID:        "wf-002",
		Name:      "测试流程",
		Status:    "CREATED",
		CreatedAt: time.Now(),
	}
	require.NoError(t, repos.Workflow.Save(ctx, record))

	completed := time.Now().Truncate(time.Second)
	record.Status = "COMPLETED"
	record.CompletedAt = &completed
	require.NoError(t, repos.Workflow.Save(ctx, record), "二次保存应走更新")

	got, err := repos.Workflow.GetByID(ctx, "wf-002")
	require.NoError(t, err)
	require.Equal(t, "COMPLETED", got.Status)
	require.NotNil(t, got.CompletedAt)

	records, err := repos.Workflow.ListByStatus(ctx, "COMPLETED")
	require.NoError(t, err)
	require.Len(t, records, 1, "按状态查询应只有一条记录")
}

// TestWorkflowRepo_GetByID_Missing 测试查询不存在的记录
func TestWorkflowRepo_GetByID_Missing(t *testing.T) {
	repos := newTestRepos(t)

	got, err := repos.Workflow.GetByID(context.Background(), "missing")
	require.NoError(t, err, "记录不存在不应报错")
	require.Nil(t, got, "记录不存在应返回nil")
}

// TestWorkflowRepo_UpdateStatus 测试状态更新
func TestWorkflowRepo_UpdateStatus(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Workflow.Save(ctx, &storage.WorkflowRecord{
		ID: "wf-003", Name: "x", Status: "CREATED", CreatedAt: time.Now(),
	}))
	require.NoError(t, repos.Workflow.UpdateStatus(ctx, "wf-003", "CANCELLED"))

	got, err := repos.Workflow.GetByID(ctx, "wf-003")
	require.NoError(t, err)
	require.Equal(t, "CANCELLED", got.Status)
}

// TestTaskRepo_SaveAndQuery 测试Task记录的保存与按Workflow查询
func TestTaskRepo_SaveAndQuery(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	completed := time.Now().Truncate(time.Second)
	records := []*storage.TaskRecord{
		{
			ID: "task-1", WorkflowID: "wf-010", Name: "任务A", Status: "COMPLETED",
			CreatedAt: time.Now().Add(-time.Minute), CompletedAt: &completed,
			ExecutionTime: 1.25, ResultData: `{"count":42}`, Metadata: `{"stage":"extract"}`,
		},
		{
			ID: "task-2", WorkflowID: "wf-010", Name: "任务B", Status: "FAILED",
			CreatedAt: time.Now(), CompletedAt: &completed,
			ExecutionTime: 0.5, ErrorMessage: "连接超时",
		},
	}
	for _, rec := range records {
		require.NoError(t, repos.Task.Save(ctx, rec), "保存Task失败")
	}

	got, err := repos.Task.GetByWorkflowID(ctx, "wf-010")
	require.NoError(t, err)
	require.Len(t, got, 2, "应查到2条Task记录")
	require.Equal(t, "任务A", got[0].Name, "应按创建时间排序")
	require.Equal(t, 1.25, got[0].ExecutionTime)
	require.Equal(t, `{"count":42}`, got[0].ResultData)
	require.Equal(t, "连接超时", got[1].ErrorMessage)

	single, err := repos.Task.GetByID(ctx, "task-2")
	require.NoError(t, err)
	require.Equal(t, "FAILED", single.Status)

	missing, err := repos.Task.GetByID(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, missing)
}

// TestDialectFor 测试方言工厂
func TestDialectFor(t *testing.T) {
	for dbType, want := range map[string]string{
		"sqlite":   "sqlite3",
		"mysql":    "mysql",
		"postgres": "postgres",
		"":         "sqlite3",
	} {
		d, err := DialectFor(dbType)
		require.NoError(t, err)
		require.Equal(t, want, d.DriverName(), "类型%s的驱动名不符", dbType)
	}
	_, err := DialectFor("oracle")
	require.Error(t, err, "不支持的数据库类型应报错")
}
