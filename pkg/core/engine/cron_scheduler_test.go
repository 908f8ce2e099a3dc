package engine

import (
	"context"
	"testing"
	"time"
)

// TestCronScheduler_Register 测试注册调度
func TestCronScheduler_Register(t *testing.T) {
	eng := newTestEngine(t)
	scheduler := NewCronScheduler(eng)

	factory := func(ctx context.Context, e *Engine) (string, error) {
		workflowID := e.CreateWorkflow(ctx, "定时流程", "", 1, "", nil)
		_, err := e.AddTask(ctx, workflowID, TaskSpec{Name: "任务", Function: okJob})
		return workflowID, err
	}

	if err := scheduler.RegisterSchedule("每5秒", "*/5 * * * * *", factory); err != nil {
		t.Fatalf("注册调度失败: %v", err)
	}
	if names := scheduler.RegisteredSchedules(); len(names) != 1 || names[0] != "每5秒" {
		t.Errorf("已注册调度列表不符: %v", names)
	}

	// 重复注册应失败
	if err := scheduler.RegisterSchedule("每5秒", "*/5 * * * * *", factory); err == nil {
		t.Error("重复注册同名调度应失败")
	}
}

// TestCronScheduler_InvalidExpr 测试无效Cron表达式
func TestCronScheduler_InvalidExpr(t *testing.T) {
	eng := newTestEngine(t)
	scheduler := NewCronScheduler(eng)

	factory := func(ctx context.Context, e *Engine) (string, error) {
		return e.CreateWorkflow(ctx, "x", "", 1, "", nil), nil
	}
	if err := scheduler.RegisterSchedule("坏表达式", "not a cron expr", factory); err == nil {
		t.Error("无效Cron表达式应被拒绝")
	}
	if err := scheduler.RegisterSchedule("空工厂", "*/5 * * * * *", nil); err == nil {
		t.Error("空工厂应被拒绝")
	}
}

// TestCronScheduler_Unregister 测试取消调度
func TestCronScheduler_Unregister(t *testing.T) {
	eng := newTestEngine(t)
	scheduler := NewCronScheduler(eng)

	factory := func(ctx context.Context, e *Engine) (string, error) {
		return e.CreateWorkflow(ctx, "x", "", 1, "", nil), nil
	}
	if err := scheduler.RegisterSchedule("s1", "*/5 * * * * *", factory); err != nil {
		t.Fatalf("注册调度失败: %v", err)
	}
	if err := scheduler.UnregisterSchedule("s1"); err != nil {
		t.Fatalf("取消调度失败: %v", err)
	}
	if err := scheduler.UnregisterSchedule("s1"); err == nil {
		t.Error("重复取消应失败")
	}
	if len(scheduler.RegisteredSchedules()) != 0 {
		t.Error("取消后调度列表应为空")
	}
}

// TestCronScheduler_Trigger 测试每秒触发一次调度
func TestCronScheduler_Trigger(t *testing.T) {
	eng := newTestEngine(t)
	scheduler := NewCronScheduler(eng)

	triggered := make(chan string, 4)
	factory := func(ctx context.Context, e *Engine) (string, error) {
		workflowID := e.CreateWorkflow(ctx, "秒级流程", "", 1, "", nil)
		if _, err := e.AddTask(ctx, workflowID, TaskSpec{Name: "任务", Function: okJob}); err != nil {
			return "", err
		}
		triggered <- workflowID
		return workflowID, nil
	}

	if err := scheduler.RegisterSchedule("每秒", "* * * * * *", factory); err != nil {
		t.Fatalf("注册调度失败: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	select {
	case workflowID := <-triggered:
		// 被触发的Workflow应最终执行完成
		waitForWorkflowStatus(t, eng, workflowID, "COMPLETED", 3*time.Second)
	case <-time.After(3 * time.Second):
		t.Fatal("等待Cron触发超时")
	}
}
