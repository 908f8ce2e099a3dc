package engine

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// WorkflowFactory 定时调度的Workflow构建函数（对外导出）
// 每次触发时调用，在Engine中创建一个全新的Workflow并返回其ID；
// Workflow对象不可复用执行，因此按工厂方式每轮新建
type WorkflowFactory func(ctx context.Context, eng *Engine) (string, error)

// CronScheduler 定时调度器（对外导出）
// 基于Cron表达式（秒级精度）周期性地构建并启动Workflow
type CronScheduler struct {
	cron    *cron.Cron
	engine  *Engine
	entries map[string]cron.EntryID // 调度名 -> cron.EntryID映射
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewCronScheduler 创建定时调度器（对外导出）
func NewCronScheduler(eng *Engine) *CronScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &CronScheduler{
		cron:    cron.New(cron.WithSeconds()), // 支持秒级精度
		engine:  eng,
		entries: make(map[string]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// RegisterSchedule 注册定时调度（对外导出）
// name为调度的唯一标识；cronExpr为秒级精度的Cron表达式
func (cs *CronScheduler) RegisterSchedule(name, cronExpr string, factory WorkflowFactory) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if _, exists := cs.entries[name]; exists {
		return fmt.Errorf("调度 %s 已注册", name)
	}
	if factory == nil {
		return fmt.Errorf("调度 %s 的Workflow工厂不能为空", name)
	}

	// 验证Cron表达式（使用Parser支持秒级精度）
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(cronExpr); err != nil {
		return fmt.Errorf("调度 %s 的Cron表达式无效: %w", name, err)
	}

	entryID, err := cs.cron.AddFunc(cronExpr, func() {
		cs.triggerWorkflow(name, factory)
	})
	if err != nil {
		return fmt.Errorf("添加Cron任务失败: %w", err)
	}
	cs.entries[name] = entryID

	log.Printf("✅ [Cron调度器] 已注册调度: Name=%s, CronExpr=%s", name, cronExpr)
	return nil
}

// UnregisterSchedule 取消定时调度（对外导出）
func (cs *CronScheduler) UnregisterSchedule(name string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	entryID, exists := cs.entries[name]
	if !exists {
		return fmt.Errorf("调度 %s 未注册", name)
	}
	cs.cron.Remove(entryID)
	delete(cs.entries, name)

	log.Printf("✅ [Cron调度器] 已取消调度: Name=%s", name)
	return nil
}

// triggerWorkflow 触发一次调度（内部方法）
// 通过工厂新建Workflow并启动执行；失败只记日志，不影响后续触发
func (cs *CronScheduler) triggerWorkflow(name string, factory WorkflowFactory) {
	log.Printf("🕐 [Cron调度器] 触发调度: Name=%s", name)

	workflowID, err := factory(cs.ctx, cs.engine)
	if err != nil {
		log.Printf("❌ [Cron调度器] 构建Workflow失败: Name=%s, Error=%v", name, err)
		return
	}
	if _, err := cs.engine.StartWorkflow(cs.ctx, workflowID); err != nil {
		log.Printf("❌ [Cron调度器] 启动Workflow失败: Name=%s, WorkflowID=%s, Error=%v", name, workflowID, err)
		return
	}
	log.Printf("✅ [Cron调度器] Workflow已启动: Name=%s, WorkflowID=%s", name, workflowID)
}

// Start 启动定时调度器（对外导出）
func (cs *CronScheduler) Start() {
	cs.cron.Start()
	log.Println("✅ [Cron调度器] 已启动")
}

// Stop 停止定时调度器（对外导出）
func (cs *CronScheduler) Stop() {
	cs.cron.Stop()
	cs.cancel()
	log.Println("✅ [Cron调度器] 已停止")
}

// RegisteredSchedules 返回已注册的调度名列表（对外导出）
func (cs *CronScheduler) RegisteredSchedules() []string {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	names := make([]string, 0, len(cs.entries))
	for name := range cs.entries {
		names = append(names, name)
	}
	return names
}
