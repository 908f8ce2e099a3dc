package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/LENAX/orchestration-engine/pkg/core/engine"
	"github.com/LENAX/orchestration-engine/pkg/core/task"
	"github.com/LENAX/orchestration-engine/pkg/core/workflow"
)

// TestEnginePersistence_EndToEnd 测试引擎执行后Workflow与Task落库
func TestEnginePersistence_EndToEnd(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	eng, err := engine.NewEngine(engine.Options{
		MaxWorkers:   2,
		WorkflowRepo: repos.Workflow,
		TaskRepo:     repos.Task,
	})
	require.NoError(t, err, "创建Engine失败")
	t.Cleanup(func() { eng.Cleanup(ctx) })

	workflowID := eng.CreateWorkflow(ctx, "持久化流程", "端到端验证", 2, workflow.FailureStrategyContinue,
		map[string]interface{}{"env": "test"})

	okTask, err := eng.AddTask(ctx, workflowID, engine.TaskSpec{
		Name: "成功任务",
		Function: func(tc *task.TaskContext) (interface{}, error) {
			return map[string]interface{}{"count": 7}, nil
		},
	})
	require.NoError(t, err)
	failTask, err := eng.AddTask(ctx, workflowID, engine.TaskSpec{
		Name: "失败任务",
		Function: func(tc *task.TaskContext) (interface{}, error) {
			return nil, context.DeadlineExceeded
		},
	})
	require.NoError(t, err)

	_, err = eng.StartWorkflow(ctx, workflowID)
	require.NoError(t, err)

	// 轮询等待Workflow收敛（continue策略下整体COMPLETED）
	deadline := time.Now().Add(5 * time.Second)
	for {
		status, err := eng.GetWorkflowStatus(workflowID)
		require.NoError(t, err)
		if status.Status == workflow.WorkflowStatusCompleted {
			break
		}
		require.True(t, time.Now().Before(deadline), "等待Workflow完成超时，状态: %s", status.Status)
		time.Sleep(10 * time.Millisecond)
	}

	// Workflow记录：终态与时间戳已落库
	wfRecord, err := repos.Workflow.GetByID(ctx, workflowID)
	require.NoError(t, err)
	require.NotNil(t, wfRecord, "Workflow应已落库")
	require.Equal(t, workflow.WorkflowStatusCompleted, wfRecord.Status)
	require.NotNil(t, wfRecord.CompletedAt, "结束时间应已落库")
	require.Contains(t, wfRecord.Metadata, "env", "元数据应以JSON落库")
	require.Contains(t, wfRecord.WorkflowData, workflowID, "完整对象快照应以JSON落库")

	// Task记录：两个任务的终态与结果已落库
	taskRecords, err := repos.Task.GetByWorkflowID(ctx, workflowID)
	require.NoError(t, err)
	require.Len(t, taskRecords, 2)

	byID := make(map[string]string)
	for _, rec := range taskRecords {
		byID[rec.ID] = rec.Status
	}
	require.Equal(t, task.TaskStatusCompleted, byID[okTask])
	require.Equal(t, task.TaskStatusFailed, byID[failTask])
}
