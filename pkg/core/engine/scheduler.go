package engine

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/LENAX/orchestration-engine/pkg/core/task"
	"github.com/LENAX/orchestration-engine/pkg/core/workflow"
)

// idleInterval 调度循环空转间隔：无可准入Task且无在途Task时的等待时长
const idleInterval = 100 * time.Millisecond

// executeWorkflow Workflow执行主循环（内部方法，独立协程中运行）
// 每轮重新计算就绪集合，按优先级降序准入至并发上限，
// 等待至少一个在途Task完成后进入下一轮；
// 全部Task处理完毕（任意终态）后Workflow收敛到终态
func (e *Engine) executeWorkflow(runCtx context.Context, wf *workflow.Workflow) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Workflow执行循环panic: %s, %v", wf.Name, r)
			wf.MarkFinished(workflow.WorkflowStatusFailed)
			e.metrics.workflowFailed()
			e.persistWorkflow(context.Background(), wf)
			e.publishEvent(EventWorkflowFailed, map[string]interface{}{
				"workflow_id": wf.ID,
				"name":        wf.Name,
				"error":       "执行循环内部异常",
			})
		}
	}()

	// 本轮执行基于启动时刻的Task快照，启动后新增的Task由下一次调度生效
	tasks := wf.GetTasks()

	// 已处理集合：进入任意终态的Task
	// Resume后重新进入循环时从Task状态重建，天然跳过已完成部分
	processed := make(map[string]bool)
	for _, t := range tasks {
		if task.IsTerminalStatus(t.GetStatus()) {
			processed[t.ID] = true
		}
	}

	running := make(map[string]bool)
	resultCh := make(chan *task.Result, len(tasks))

	for len(processed) < len(tasks) {
		switch wf.GetStatus() {
		case workflow.WorkflowStatusCancelled:
			// 取消后在途Task由ctx协作退出，这里直接收尾
			e.persistWorkflow(context.Background(), wf)
			return
		case workflow.WorkflowStatusPaused:
			// 暂停：不再准入，等待在途Task自然完成后退出循环
			if len(running) == 0 {
				log.Printf("⏸️  Workflow %s 已暂停，在途任务全部结束", wf.Name)
				e.persistWorkflow(context.Background(), wf)
				return
			}
			if stop := e.collectResult(runCtx, wf, resultCh, processed, running); stop {
				return
			}
			continue
		}

		// 计算就绪集合：未处理、未运行、所有依赖COMPLETED、调度时间已到
		now := time.Now()
		var ready []*task.Task
		for _, t := range tasks {
			if processed[t.ID] || running[t.ID] {
				continue
			}
			if !t.IsReadyAt(now) {
				continue
			}
			if e.dependenciesSatisfied(wf, t) {
				ready = append(ready, t)
			}
		}

		// 按优先级降序准入，数值相同时保持添加顺序
		sort.SliceStable(ready, func(i, j int) bool {
			return ready[i].Priority > ready[j].Priority
		})
		for _, t := range ready {
			if len(running) >= wf.MaxParallelTasks {
				break
			}
			running[t.ID] = true
			go e.executeTask(runCtx, wf, t, resultCh)
		}

		if len(running) == 0 {
			// 无在途也无可准入：依赖尚未就绪（或依赖失败后永远阻塞）
			// 空转等待ScheduledAt到期或外部状态变化
			select {
			case <-runCtx.Done():
				e.persistWorkflow(context.Background(), wf)
				return
			case <-time.After(idleInterval):
			}
			continue
		}

		// 等待至少一个Task完成（FIRST_COMPLETED语义）
		if stop := e.collectResult(runCtx, wf, resultCh, processed, running); stop {
			return
		}
		// 非阻塞收割其余已完成Task，让本轮准入尽量反映最新状态
		for {
			select {
			case result := <-resultCh:
				if stop := e.handleTaskResult(wf, result, processed, running); stop {
					return
				}
				continue
			default:
			}
			break
		}
	}

	// 全部Task处理完毕：Workflow收敛到COMPLETED
	// 注意包含FAILED/CANCELLED的Task——continue策略下的部分失败仍视为整体完成
	if wf.GetStatus() == workflow.WorkflowStatusRunning {
		wf.MarkFinished(workflow.WorkflowStatusCompleted)
		e.metrics.workflowCompleted()
		e.persistWorkflow(context.Background(), wf)
		e.publishEvent(EventWorkflowCompleted, map[string]interface{}{
			"workflow_id":    wf.ID,
			"name":           wf.Name,
			"execution_time": wf.ElapsedSeconds(),
		})
		log.Printf("✅ Workflow执行完成: %s，耗时%.2f秒", wf.Name, wf.ElapsedSeconds())
	}

	e.mu.Lock()
	delete(e.runCancels, wf.ID)
	e.mu.Unlock()
}

// collectResult 阻塞等待一个Task结果并处理（内部方法）
// 返回true表示循环应立即退出（stop策略触发或执行被取消）
func (e *Engine) collectResult(runCtx context.Context, wf *workflow.Workflow, resultCh <-chan *task.Result, processed, running map[string]bool) bool {
	select {
	case result := <-resultCh:
		return e.handleTaskResult(wf, result, processed, running)
	case <-runCtx.Done():
		e.persistWorkflow(context.Background(), wf)
		return true
	}
}

// handleTaskResult 处理单个Task的最终结果（内部方法）
// FAILED且策略为stop时：取消在途执行、Workflow置FAILED并退出循环
func (e *Engine) handleTaskResult(wf *workflow.Workflow, result *task.Result, processed, running map[string]bool) bool {
	delete(running, result.TaskID)
	processed[result.TaskID] = true
	e.persistTaskByID(wf, result.TaskID)

	if result.Status != task.TaskStatusFailed {
		return false
	}
	if wf.FailureStrategy != workflow.FailureStrategyStop {
		// continue/retry策略：兄弟分支继续，仅失败子树因依赖不满足而停滞
		return false
	}

	// stop策略：级联终止
	wf.MarkFinished(workflow.WorkflowStatusFailed)
	e.metrics.workflowFailed()

	e.mu.Lock()
	if cancel, ok := e.runCancels[wf.ID]; ok {
		cancel()
		delete(e.runCancels, wf.ID)
	}
	e.mu.Unlock()

	e.persistWorkflow(context.Background(), wf)

	failedName := ""
	if t := wf.GetTaskByID(result.TaskID); t != nil {
		failedName = t.Name
	}
	e.publishEvent(EventWorkflowFailed, map[string]interface{}{
		"workflow_id": wf.ID,
		"name":        wf.Name,
		"failed_task": failedName,
		"error":       result.Error,
	})
	log.Printf("❌ Workflow执行失败: %s，失败任务: %s", wf.Name, failedName)
	return true
}

// dependenciesSatisfied 判断Task依赖是否全部满足（内部方法）
// 依赖必须处于COMPLETED：FAILED/CANCELLED的依赖使下游永远不就绪
func (e *Engine) dependenciesSatisfied(wf *workflow.Workflow, t *task.Task) bool {
	for _, depID := range t.Dependencies {
		dep := wf.GetTaskByID(depID)
		if dep == nil || dep.GetStatus() != task.TaskStatusCompleted {
			return false
		}
	}
	return true
}

// persistTaskByID 按ID持久化Task终态（内部方法，尽力而为）
func (e *Engine) persistTaskByID(wf *workflow.Workflow, taskID string) {
	if t := wf.GetTaskByID(taskID); t != nil {
		e.persistTask(context.Background(), wf, t)
	}
}
