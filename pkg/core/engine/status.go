package engine

import (
	"fmt"
	"time"

	"github.com/LENAX/orchestration-engine/pkg/core/task"
)

// TaskStatusSnapshot 单个Task的状态快照（对外导出）
type TaskStatusSnapshot struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Status        string    `json:"status"`
	Priority      string    `json:"priority"`
	Dependencies  []string  `json:"dependencies"`
	CreatedAt     time.Time `json:"created_at"`
	ExecutionTime float64   `json:"execution_time"`
	Error         string    `json:"error,omitempty"`
}

// WorkflowStatusSnapshot Workflow的只读状态快照（对外导出）
// 快照是调用时刻的值拷贝，不随后续执行变化
type WorkflowStatusSnapshot struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Description    string               `json:"description"`
	Status         string               `json:"status"`
	TotalTasks     int                  `json:"total_tasks"`
	CompletedTasks int                  `json:"completed_tasks"`
	FailedTasks    int                  `json:"failed_tasks"`
	RunningTasks   int                  `json:"running_tasks"`
	CreatedAt      time.Time            `json:"created_at"`
	StartedAt      *time.Time           `json:"started_at,omitempty"`
	CompletedAt    *time.Time           `json:"completed_at,omitempty"`
	ExecutionTime  float64              `json:"execution_time"`
	Tasks          []TaskStatusSnapshot `json:"tasks"`
}

// GetWorkflowStatus 获取Workflow状态快照（对外导出）
// Workflow不存在时返回错误
func (e *Engine) GetWorkflowStatus(workflowID string) (*WorkflowStatusSnapshot, error) {
	e.mu.RLock()
	wf, exists := e.workflows[workflowID]
	e.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("Workflow %s 不存在", workflowID)
	}

	tasks := wf.GetTasks()
	snapshot := &WorkflowStatusSnapshot{
		ID:            wf.ID,
		Name:          wf.Name,
		Description:   wf.Description,
		Status:        wf.GetStatus(),
		TotalTasks:    len(tasks),
		CreatedAt:     wf.CreateTime,
		StartedAt:     wf.StartTime,
		CompletedAt:   wf.EndTime,
		ExecutionTime: wf.ElapsedSeconds(),
		Tasks:         make([]TaskStatusSnapshot, 0, len(tasks)),
	}

	for _, t := range tasks {
		status := t.GetStatus()
		ts := TaskStatusSnapshot{
			ID:           t.ID,
			Name:         t.Name,
			Status:       status,
			Priority:     t.Priority.String(),
			Dependencies: append([]string(nil), t.Dependencies...),
			CreatedAt:    t.CreateTime,
		}
		if result := t.GetResult(); result != nil {
			ts.ExecutionTime = result.ExecutionTime
			ts.Error = result.Error
		}
		switch status {
		case task.TaskStatusCompleted:
			snapshot.CompletedTasks++
		case task.TaskStatusFailed:
			snapshot.FailedTasks++
		case task.TaskStatusRunning, task.TaskStatusRetrying:
			snapshot.RunningTasks++
		}
		snapshot.Tasks = append(snapshot.Tasks, ts)
	}
	return snapshot, nil
}
