package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestExecutor_Run 测试基本执行
func TestExecutor_Run(t *testing.T) {
	exec, err := NewExecutor(2)
	if err != nil {
		t.Fatalf("创建Executor失败: %v", err)
	}
	exec.Start()
	defer exec.Shutdown()

	value, err := exec.Run(context.Background(), func() (interface{}, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("执行失败: %v", err)
	}
	if value != 42 {
		t.Errorf("返回值应为42，实际: %v", value)
	}
}

// TestExecutor_NotRunning 测试未启动时执行
func TestExecutor_NotRunning(t *testing.T) {
	exec, _ := NewExecutor(2)

	if _, err := exec.Run(context.Background(), func() (interface{}, error) {
		return nil, nil
	}); err == nil {
		t.Error("未启动的Executor执行应失败")
	}
}

// TestExecutor_MaxWorkersExceeded 测试并发上限校验
func TestExecutor_MaxWorkersExceeded(t *testing.T) {
	if _, err := NewExecutor(maxGlobalWorkers + 1); err == nil {
		t.Error("超过全局上限的并发数应被拒绝")
	}
	exec, err := NewExecutor(0)
	if err != nil {
		t.Fatalf("并发数为0应回退默认值: %v", err)
	}
	if exec.MaxWorkers() != 10 {
		t.Errorf("默认并发数应为10，实际: %d", exec.MaxWorkers())
	}
}

// TestExecutor_ConcurrencyBound 测试并发数不超过上限
func TestExecutor_ConcurrencyBound(t *testing.T) {
	exec, _ := NewExecutor(2)
	exec.Start()
	defer exec.Shutdown()

	var current, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			exec.Run(context.Background(), func() (interface{}, error) {
				n := atomic.AddInt32(&current, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(50 * time.Millisecond)
				atomic.AddInt32(&current, -1)
				return nil, nil
			})
		}()
	}
	wg.Wait()

	if atomic.LoadInt32(&peak) > 2 {
		t.Errorf("并发峰值不应超过2，实际: %d", peak)
	}
}

// TestExecutor_PanicRecovery 测试任务函数panic恢复
func TestExecutor_PanicRecovery(t *testing.T) {
	exec, _ := NewExecutor(2)
	exec.Start()
	defer exec.Shutdown()

	_, err := exec.Run(context.Background(), func() (interface{}, error) {
		panic("炸了")
	})
	if err == nil {
		t.Fatal("panic应转化为error返回")
	}
}

// TestExecutor_ContextCancel 测试上下文取消
func TestExecutor_ContextCancel(t *testing.T) {
	exec, _ := NewExecutor(1)
	exec.Start()
	defer exec.Shutdown()

	// 占住唯一的Worker token
	blocker := make(chan struct{})
	go exec.Run(context.Background(), func() (interface{}, error) {
		<-blocker
		return nil, nil
	})
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := exec.Run(ctx, func() (interface{}, error) {
		return nil, fmt.Errorf("不应被执行")
	})
	if err != context.DeadlineExceeded {
		t.Errorf("等待token超时应返回DeadlineExceeded，实际: %v", err)
	}
	close(blocker)
}
