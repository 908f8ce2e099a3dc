package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/LENAX/orchestration-engine/pkg/core/dag"
	"github.com/LENAX/orchestration-engine/pkg/core/executor"
	"github.com/LENAX/orchestration-engine/pkg/core/task"
	"github.com/LENAX/orchestration-engine/pkg/core/workflow"
	"github.com/LENAX/orchestration-engine/pkg/storage"
)

// Options Engine构建选项（对外导出）
type Options struct {
	MaxWorkers   int                         // 阻塞任务执行池并发上限
	WorkflowRepo storage.WorkflowRepository  // 为nil时关闭持久化
	TaskRepo     storage.TaskRepository      // 为nil时关闭Task持久化
	Publisher    message.Publisher           // 外部Pub/Sub发布端，为nil时仅本地事件
	EventTopic   string                      // 外部事件通道名，默认orchestration_events
}

// Engine 调度引擎核心结构体（对外导出）
// 独占持有所有Workflow与Task对象；调用方只持有返回的ID，
// 通过Engine的API查询与控制状态
type Engine struct {
	mu            sync.RWMutex
	workflows     map[string]*workflow.Workflow
	runCancels    map[string]context.CancelFunc // Workflow ID -> 在途执行的取消函数
	eventHandlers map[string][]EventHandler
	publisher     message.Publisher
	eventTopic    string
	executor      *executor.Executor
	workflowRepo  storage.WorkflowRepository
	taskRepo      storage.TaskRepository
	metrics       *metrics
}

// NewEngine 创建Engine实例（对外导出的工厂方法）
func NewEngine(opts Options) (*Engine, error) {
	exec, err := executor.NewExecutor(opts.MaxWorkers)
	if err != nil {
		return nil, err
	}
	exec.Start()

	topic := opts.EventTopic
	if topic == "" {
		topic = DefaultEventTopic
	}

	eng := &Engine{
		workflows:     make(map[string]*workflow.Workflow),
		runCancels:    make(map[string]context.CancelFunc),
		eventHandlers: make(map[string][]EventHandler),
		publisher:     opts.Publisher,
		eventTopic:    topic,
		executor:      exec,
		workflowRepo:  opts.WorkflowRepo,
		taskRepo:      opts.TaskRepo,
		metrics:       &metrics{},
	}

	log.Printf("✅ 调度引擎已初始化，阻塞池并发上限=%d", exec.MaxWorkers())
	return eng, nil
}

// CreateWorkflow 创建Workflow（对外导出）
// 无校验失败场景，总是成功；状态置CREATED，按配置持久化并发布workflow_created事件
func (e *Engine) CreateWorkflow(ctx context.Context, name, description string, maxParallelTasks int, failureStrategy string, metadata map[string]interface{}) string {
	wf := workflow.NewWorkflow(name, description, maxParallelTasks, failureStrategy, metadata)

	e.mu.Lock()
	e.workflows[wf.ID] = wf
	e.mu.Unlock()

	e.metrics.workflowCreated()
	e.persistWorkflow(ctx, wf)

	e.publishEvent(EventWorkflowCreated, map[string]interface{}{
		"workflow_id": wf.ID,
		"name":        name,
		"description": description,
	})

	log.Printf("✅ 创建Workflow: %s (%s)", name, wf.ID)
	return wf.ID
}

// TaskSpec AddTask的任务定义（对外导出）
// MaxRetries为字面值（0表示不重试）；RetryDelay为0时采用1秒默认退避基数
type TaskSpec struct {
	Name         string
	Function     task.JobFunc
	Args         []interface{}
	Params       map[string]interface{}
	Dependencies []string
	Priority     task.Priority
	MaxRetries   int
	RetryDelay   float64    // 重试退避基数（秒）
	Timeout      float64    // 单次调用超时（秒），0表示不限时
	Blocking     bool       // 阻塞型函数走受限Worker池执行
	ScheduledAt  *time.Time // 最早可执行时间
	Metadata     map[string]interface{}
}

// AddTask 向Workflow添加Task（对外导出）
// Workflow不存在时返回错误；依赖在添加时校验：
// 引用不存在的Task ID、自引用或形成环都会被拒绝
func (e *Engine) AddTask(ctx context.Context, workflowID string, spec TaskSpec) (string, error) {
	e.mu.RLock()
	wf, exists := e.workflows[workflowID]
	e.mu.RUnlock()
	if !exists {
		return "", fmt.Errorf("Workflow %s 不存在", workflowID)
	}
	if spec.Function == nil {
		return "", fmt.Errorf("任务函数不能为空")
	}

	t := task.NewTask(spec.Name, spec.Function)
	t.Args = spec.Args
	if spec.Params != nil {
		t.Params = spec.Params
	}
	t.Dependencies = spec.Dependencies
	if spec.Priority != 0 {
		t.Priority = spec.Priority
	}
	// 负数重试次数按0处理：至少执行1次，不额外重试
	if spec.MaxRetries > 0 {
		t.MaxRetries = spec.MaxRetries
	}
	if spec.RetryDelay > 0 {
		t.RetryDelay = spec.RetryDelay
	}
	t.Timeout = spec.Timeout
	t.Blocking = spec.Blocking
	t.ScheduledAt = spec.ScheduledAt
	if spec.Metadata != nil {
		t.Metadata = spec.Metadata
	}

	// 依赖校验：在加入前以现有Task集合+新Task整体构图检测
	existing := make(map[string]string)
	existingDeps := make(map[string][]string)
	for _, et := range wf.GetTasks() {
		existing[et.ID] = et.Name
		existingDeps[et.ID] = et.Dependencies
	}
	if err := dag.ValidateDependencies(existing, existingDeps, t.ID, t.Name, t.Dependencies); err != nil {
		return "", err
	}

	wf.AddTask(t)

	log.Printf("✅ 向Workflow %s 添加Task: %s (%s)", workflowID, spec.Name, t.ID)
	return t.ID, nil
}

// StartWorkflow 启动Workflow执行（对外导出）
// Workflow不存在或不处于CREATED状态时返回错误
func (e *Engine) StartWorkflow(ctx context.Context, workflowID string) (bool, error) {
	e.mu.RLock()
	wf, exists := e.workflows[workflowID]
	e.mu.RUnlock()
	if !exists {
		return false, fmt.Errorf("Workflow %s 不存在", workflowID)
	}
	if wf.GetStatus() != workflow.WorkflowStatusCreated {
		return false, fmt.Errorf("Workflow %s 不处于CREATED状态", workflowID)
	}

	wf.MarkStarted()
	e.persistWorkflow(ctx, wf)
	e.scheduleExecution(wf)

	e.publishEvent(EventWorkflowStarted, map[string]interface{}{
		"workflow_id": workflowID,
		"name":        wf.Name,
	})

	log.Printf("🚀 启动Workflow: %s (%s)", wf.Name, workflowID)
	return true, nil
}

// scheduleExecution 调度一次executeWorkflow循环（内部方法）
// 为本轮执行创建可取消的上下文，供CancelWorkflow与stop策略取消在途任务
func (e *Engine) scheduleExecution(wf *workflow.Workflow) {
	runCtx, cancel := context.WithCancel(context.Background())

	e.mu.Lock()
	if old, ok := e.runCancels[wf.ID]; ok {
		old()
	}
	e.runCancels[wf.ID] = cancel
	e.mu.Unlock()

	go e.executeWorkflow(runCtx, wf)
}

// CancelWorkflow 取消Workflow（对外导出）
// 置CANCELLED并协作式取消所有运行中Task（不回滚已产生的副作用）
// Workflow不存在时返回false
func (e *Engine) CancelWorkflow(ctx context.Context, workflowID string) bool {
	e.mu.RLock()
	wf, exists := e.workflows[workflowID]
	e.mu.RUnlock()
	if !exists {
		return false
	}

	wf.SetStatus(workflow.WorkflowStatusCancelled)

	// 标记运行中Task为CANCELLED（协作式，不强制打断在途调用）
	for _, t := range wf.GetTasks() {
		if t.GetStatus() == task.TaskStatusRunning || t.GetStatus() == task.TaskStatusRetrying {
			t.SetStatus(task.TaskStatusCancelled)
		}
	}

	// 取消在途执行上下文
	e.mu.Lock()
	if cancel, ok := e.runCancels[workflowID]; ok {
		cancel()
		delete(e.runCancels, workflowID)
	}
	e.mu.Unlock()

	e.persistWorkflow(ctx, wf)
	e.publishEvent(EventWorkflowCancelled, map[string]interface{}{
		"workflow_id": workflowID,
		"name":        wf.Name,
	})

	log.Printf("✅ 取消Workflow: %s", wf.Name)
	return true
}

// PauseWorkflow 暂停Workflow（对外导出）
// 协作式暂停：调度循环在每个准入批次前检查状态，
// 暂停后不再准入新Task，已准入的Task执行到完成
// 仅RUNNING状态可暂停；不存在或状态不符返回false
func (e *Engine) PauseWorkflow(ctx context.Context, workflowID string) bool {
	e.mu.RLock()
	wf, exists := e.workflows[workflowID]
	e.mu.RUnlock()
	if !exists {
		return false
	}

	if !wf.CompareAndSetStatus(workflow.WorkflowStatusRunning, workflow.WorkflowStatusPaused) {
		return false
	}

	e.persistWorkflow(ctx, wf)
	e.publishEvent(EventWorkflowPaused, map[string]interface{}{
		"workflow_id": workflowID,
		"name":        wf.Name,
	})

	log.Printf("⏸️  暂停Workflow: %s", wf.Name)
	return true
}

// ResumeWorkflow 恢复Workflow（对外导出）
// 仅PAUSED状态可恢复：置RUNNING并重新调度执行循环
// （循环启动时根据Task终态重建已完成集合）
func (e *Engine) ResumeWorkflow(ctx context.Context, workflowID string) bool {
	e.mu.RLock()
	wf, exists := e.workflows[workflowID]
	e.mu.RUnlock()
	if !exists {
		return false
	}

	if !wf.CompareAndSetStatus(workflow.WorkflowStatusPaused, workflow.WorkflowStatusRunning) {
		return false
	}

	e.persistWorkflow(ctx, wf)
	e.scheduleExecution(wf)

	e.publishEvent(EventWorkflowResumed, map[string]interface{}{
		"workflow_id": workflowID,
		"name":        wf.Name,
	})

	log.Printf("▶️  恢复Workflow: %s", wf.Name)
	return true
}

// GetMetrics 获取引擎级指标快照（对外导出）
func (e *Engine) GetMetrics() MetricsSnapshot {
	return e.metrics.snapshot()
}

// Cleanup 清理引擎资源（对外导出）
// 取消所有运行中Workflow并关闭阻塞执行池与外部发布端
func (e *Engine) Cleanup(ctx context.Context) {
	e.mu.RLock()
	ids := make([]string, 0, len(e.workflows))
	for id, wf := range e.workflows {
		if wf.GetStatus() == workflow.WorkflowStatusRunning {
			ids = append(ids, id)
		}
	}
	e.mu.RUnlock()

	for _, id := range ids {
		e.CancelWorkflow(ctx, id)
	}

	if err := e.executor.Shutdown(); err != nil {
		log.Printf("关闭执行池失败: %v", err)
	}
	if e.publisher != nil {
		if err := e.publisher.Close(); err != nil {
			log.Printf("关闭外部发布端失败: %v", err)
		}
	}
	log.Println("✅ 调度引擎已清理")
}

// persistWorkflow 持久化Workflow（内部方法，尽力而为）
// 持久化失败只记日志，绝不阻塞调度
func (e *Engine) persistWorkflow(ctx context.Context, wf *workflow.Workflow) {
	if e.workflowRepo == nil {
		return
	}

	metadataJSON, err := json.Marshal(wf.Metadata)
	if err != nil {
		log.Printf("序列化Workflow元数据失败: %v", err)
		metadataJSON = []byte("{}")
	}
	workflowData, err := json.Marshal(workflowSnapshotForPersistence(wf))
	if err != nil {
		log.Printf("序列化Workflow对象失败: %v", err)
		workflowData = []byte("{}")
	}

	record := &storage.WorkflowRecord{
		ID:           wf.ID,
		Name:         wf.Name,
		Description:  wf.Description,
		Status:       wf.GetStatus(),
		CreatedAt:    wf.CreateTime,
		StartedAt:    wf.StartTime,
		CompletedAt:  wf.EndTime,
		Metadata:     string(metadataJSON),
		WorkflowData: string(workflowData),
	}
	if err := e.workflowRepo.Save(ctx, record); err != nil {
		log.Printf("持久化Workflow失败: %v", err)
	}
}

// persistTask 持久化Task终态（内部方法，尽力而为）
func (e *Engine) persistTask(ctx context.Context, wf *workflow.Workflow, t *task.Task) {
	if e.taskRepo == nil {
		return
	}

	metadataJSON, err := json.Marshal(t.Metadata)
	if err != nil {
		metadataJSON = []byte("{}")
	}

	record := &storage.TaskRecord{
		ID:         t.ID,
		WorkflowID: wf.ID,
		Name:       t.Name,
		Status:     t.GetStatus(),
		CreatedAt:  t.CreateTime,
		Metadata:   string(metadataJSON),
	}
	if result := t.GetResult(); result != nil {
		completedAt := result.CompletedAt
		record.CompletedAt = &completedAt
		record.ExecutionTime = result.ExecutionTime
		record.ErrorMessage = result.Error
		if resultJSON, err := json.Marshal(result.Result); err == nil {
			record.ResultData = string(resultJSON)
		}
	}
	if err := e.taskRepo.Save(ctx, record); err != nil {
		log.Printf("持久化Task失败: %v", err)
	}
}

// workflowSnapshotForPersistence 构建用于持久化的完整对象快照（内部方法）
// 任务函数不可序列化，只保留可检视字段
func workflowSnapshotForPersistence(wf *workflow.Workflow) map[string]interface{} {
	tasks := make([]map[string]interface{}, 0, wf.TaskCount())
	for _, t := range wf.GetTasks() {
		entry := map[string]interface{}{
			"id":           t.ID,
			"name":         t.Name,
			"status":       t.GetStatus(),
			"dependencies": t.Dependencies,
			"priority":     t.Priority.String(),
			"max_retries":  t.MaxRetries,
			"timeout":      t.Timeout,
			"metadata":     t.Metadata,
		}
		if result := t.GetResult(); result != nil {
			entry["result"] = result
		}
		tasks = append(tasks, entry)
	}
	return map[string]interface{}{
		"id":                 wf.ID,
		"name":               wf.Name,
		"description":        wf.Description,
		"status":             wf.GetStatus(),
		"max_parallel_tasks": wf.MaxParallelTasks,
		"failure_strategy":   wf.FailureStrategy,
		"metadata":           wf.Metadata,
		"tasks":              tasks,
	}
}
