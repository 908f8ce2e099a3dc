package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/LENAX/orchestration-engine/pkg/core/task"
	"github.com/LENAX/orchestration-engine/pkg/core/workflow"
)

// executeTask 执行单个Task的完整重试生命周期（内部方法，独立协程中运行）
// 成功/重试耗尽/取消都恰好向resultCh发送一个最终Result
func (e *Engine) executeTask(runCtx context.Context, wf *workflow.Workflow, t *task.Task, resultCh chan<- *task.Result) {
	t.SetStatus(task.TaskStatusRunning)
	e.publishEvent(EventTaskStarted, map[string]interface{}{
		"task_id":     t.ID,
		"workflow_id": wf.ID,
		"task_name":   t.Name,
	})
	log.Printf("🚀 开始执行Task: %s (%s)", t.Name, t.ID)

	start := time.Now()
	retries := 0
	maxRetries := t.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	var lastErr error

	for retries <= maxRetries {
		value, err := e.invokeTask(runCtx, wf, t)
		if err == nil {
			executionTime := time.Since(start).Seconds()
			result := task.NewResult(t.ID, task.TaskStatusCompleted, value, "", executionTime)
			t.Complete(result)
			e.metrics.taskExecuted(executionTime)
			e.persistTask(context.Background(), wf, t)
			e.publishEvent(EventTaskCompleted, map[string]interface{}{
				"task_id":        t.ID,
				"workflow_id":    wf.ID,
				"task_name":      t.Name,
				"execution_time": executionTime,
			})
			log.Printf("✅ Task执行成功: %s，耗时%.2f秒", t.Name, executionTime)
			resultCh <- result
			return
		}

		// Workflow被取消：不计入失败，置CANCELLED后退出
		if errors.Is(err, context.Canceled) || runCtx.Err() != nil {
			executionTime := time.Since(start).Seconds()
			t.SetStatus(task.TaskStatusCancelled)
			result := task.NewResult(t.ID, task.TaskStatusCancelled, nil, "任务被取消", executionTime)
			e.persistTask(context.Background(), wf, t)
			log.Printf("⏹️  Task已取消: %s", t.Name)
			resultCh <- result
			return
		}

		lastErr = err
		retries++
		if retries > maxRetries {
			break
		}

		// 线性退避：RetryDelay * 第N次重试
		t.SetStatus(task.TaskStatusRetrying)
		delay := time.Duration(t.RetryDelay * float64(retries) * float64(time.Second))
		log.Printf("🔄 Task执行失败，%.1f秒后第%d次重试: %s，错误: %v",
			delay.Seconds(), retries, t.Name, err)
		select {
		case <-time.After(delay):
		case <-runCtx.Done():
			t.SetStatus(task.TaskStatusCancelled)
			result := task.NewResult(t.ID, task.TaskStatusCancelled, nil, "任务被取消", time.Since(start).Seconds())
			e.persistTask(context.Background(), wf, t)
			resultCh <- result
			return
		}
	}

	// 重试耗尽：置FAILED
	executionTime := time.Since(start).Seconds()
	result := task.NewResult(t.ID, task.TaskStatusFailed, nil, lastErr.Error(), executionTime)
	t.Fail(result)
	e.metrics.taskFailed()
	e.persistTask(context.Background(), wf, t)
	e.publishEvent(EventTaskFailed, map[string]interface{}{
		"task_id":     t.ID,
		"workflow_id": wf.ID,
		"task_name":   t.Name,
		"error":       lastErr.Error(),
		"retries":     retries - 1,
	})
	log.Printf("❌ Task执行失败（重试%d次后放弃）: %s，错误: %v", retries-1, t.Name, lastErr)
	resultCh <- result
}

// invokeTask 执行任务函数的单次尝试（内部方法）
// 每次尝试独立应用Timeout；Blocking函数走受限Worker池，
// 非阻塞函数在独立协程中执行并select等待结果或取消
func (e *Engine) invokeTask(runCtx context.Context, wf *workflow.Workflow, t *task.Task) (value interface{}, err error) {
	attemptCtx := runCtx
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(runCtx, time.Duration(t.Timeout*float64(time.Second)))
		defer cancel()
	}

	taskCtx := task.NewTaskContext(attemptCtx, t.ID, t.Name, wf.ID, t.Args, t.Params)

	if t.Blocking {
		return e.executor.Run(attemptCtx, func() (interface{}, error) {
			return t.JobFunc(taskCtx)
		})
	}

	type invokeResult struct {
		value interface{}
		err   error
	}
	ch := make(chan invokeResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- invokeResult{err: fmt.Errorf("任务函数panic: %v", r)}
			}
		}()
		v, fnErr := t.JobFunc(taskCtx)
		ch <- invokeResult{value: v, err: fnErr}
	}()

	select {
	case r := <-ch:
		return r.value, r.err
	case <-attemptCtx.Done():
		// 超时返回DeadlineExceeded走重试路径，取消返回Canceled走取消路径
		return nil, attemptCtx.Err()
	}
}
