package executor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

const (
	maxGlobalWorkers = 1000 // 全局最大并发数上限
)

// Executor 阻塞型函数执行池（对外导出）
// 为无法感知ctx的阻塞型任务函数提供受限并发执行，
// 避免阻塞函数占满调度协程
type Executor struct {
	mu         sync.RWMutex
	maxWorkers int           // 全局最大并发数
	workerPool chan struct{} // 全局Worker池（token桶）
	wg         sync.WaitGroup
	running    bool
	shutdown   chan struct{}
}

// NewExecutor 创建执行器实例（对外导出的工厂方法，engine包会调用）
func NewExecutor(maxWorkers int) (*Executor, error) {
	if maxWorkers <= 0 {
		maxWorkers = 10 // 默认值
	}
	if maxWorkers > maxGlobalWorkers {
		return nil, fmt.Errorf("最大并发数不能超过 %d", maxGlobalWorkers)
	}

	return &Executor{
		maxWorkers: maxWorkers,
		workerPool: make(chan struct{}, maxWorkers),
		running:    false,
		shutdown:   make(chan struct{}),
	}, nil
}

// Start 启动执行器（对外导出）
func (e *Executor) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true
	log.Println("✅ 阻塞任务执行池已启动")
}

// Shutdown 关闭执行器（对外导出）
// 等待所有在途任务完成，最多等待30秒
func (e *Executor) Shutdown() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	close(e.shutdown)
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Executor: 所有任务已完成")
	case <-time.After(30 * time.Second):
		log.Println("Executor: 关闭超时，强制终止")
	}

	log.Println("✅ 阻塞任务执行池已关闭")
	return nil
}

// MaxWorkers 返回全局最大并发数（对外导出）
func (e *Executor) MaxWorkers() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.maxWorkers
}

// invokeResult 阻塞函数执行结果（内部结构）
type invokeResult struct {
	value interface{}
	err   error
}

// Run 在Worker池中执行阻塞函数（对外导出）
// 先获取Worker token再执行；ctx取消/超时后调用立即返回，
// 但底层函数无法被打断，会继续占用token直到自然返回
func (e *Executor) Run(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	e.mu.RLock()
	running := e.running
	e.mu.RUnlock()
	if !running {
		return nil, fmt.Errorf("Executor未运行")
	}

	// 获取Worker token
	select {
	case e.workerPool <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.shutdown:
		return nil, fmt.Errorf("Executor已关闭")
	}

	resultCh := make(chan invokeResult, 1)
	e.wg.Add(1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- invokeResult{err: fmt.Errorf("任务函数panic: %v", r)}
			}
			<-e.workerPool
			e.wg.Done()
		}()
		value, err := fn()
		resultCh <- invokeResult{value: value, err: err}
	}()

	select {
	case r := <-resultCh:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
