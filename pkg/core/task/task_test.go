package task

import (
	"testing"
	"time"
)

func noopJob(ctx *TaskContext) (interface{}, error) {
	return nil, nil
}

// TestNewTask_Defaults 测试Task默认值
func TestNewTask_Defaults(t *testing.T) {
	tk := NewTask("测试任务", noopJob)

	if tk.ID == "" {
		t.Error("Task应自动生成ID")
	}
	if tk.GetStatus() != TaskStatusPending {
		t.Errorf("初始状态应为PENDING，实际: %s", tk.GetStatus())
	}
	if tk.Priority != PriorityNormal {
		t.Errorf("默认优先级应为NORMAL，实际: %s", tk.Priority)
	}
	if tk.RetryDelay != 1.0 {
		t.Errorf("默认重试退避基数应为1.0，实际: %f", tk.RetryDelay)
	}
}

// TestTask_TerminalStatusImmutable 测试终态不可覆盖
func TestTask_TerminalStatusImmutable(t *testing.T) {
	tk := NewTask("测试任务", noopJob)
	tk.SetStatus(TaskStatusRunning)

	if !tk.Complete(NewResult(tk.ID, TaskStatusCompleted, "ok", "", 0.1)) {
		t.Fatal("首次写入结果应成功")
	}
	tk.SetStatus(TaskStatusRunning)
	if tk.GetStatus() != TaskStatusCompleted {
		t.Errorf("终态后状态不应被覆盖，实际: %s", tk.GetStatus())
	}
}

// TestTask_ResultWriteOnce 测试结果只写一次
func TestTask_ResultWriteOnce(t *testing.T) {
	tk := NewTask("测试任务", noopJob)

	if !tk.Fail(NewResult(tk.ID, TaskStatusFailed, nil, "第一次失败", 0.1)) {
		t.Fatal("首次写入结果应成功")
	}
	if tk.Complete(NewResult(tk.ID, TaskStatusCompleted, "ok", "", 0.1)) {
		t.Error("二次写入结果应被拒绝")
	}
	if tk.GetResult().Error != "第一次失败" {
		t.Errorf("结果不应被覆盖，实际: %s", tk.GetResult().Error)
	}
	if tk.GetStatus() != TaskStatusFailed {
		t.Errorf("状态应保持FAILED，实际: %s", tk.GetStatus())
	}
}

// TestTask_IsReadyAt 测试调度时间判断
func TestTask_IsReadyAt(t *testing.T) {
	tk := NewTask("测试任务", noopJob)
	now := time.Now()

	if !tk.IsReadyAt(now) {
		t.Error("未设置ScheduledAt时应立即就绪")
	}

	future := now.Add(time.Hour)
	tk.ScheduledAt = &future
	if tk.IsReadyAt(now) {
		t.Error("ScheduledAt在未来时不应就绪")
	}
	if !tk.IsReadyAt(future.Add(time.Second)) {
		t.Error("到达ScheduledAt后应就绪")
	}
}

// TestIsTerminalStatus 测试终态判断
func TestIsTerminalStatus(t *testing.T) {
	for _, s := range []string{TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled} {
		if !IsTerminalStatus(s) {
			t.Errorf("%s 应为终态", s)
		}
	}
	for _, s := range []string{TaskStatusPending, TaskStatusRunning, TaskStatusRetrying, TaskStatusPaused} {
		if IsTerminalStatus(s) {
			t.Errorf("%s 不应为终态", s)
		}
	}
}

// TestTaskContext_Params 测试上下文参数读取
func TestTaskContext_Params(t *testing.T) {
	ctx := NewTaskContext(nil, "tid", "tname", "wid",
		[]interface{}{1, "two"}, map[string]interface{}{"region": "uk"})

	if ctx.Arg(0) != 1 {
		t.Errorf("Arg(0)应为1，实际: %v", ctx.Arg(0))
	}
	if ctx.Arg(5) != nil {
		t.Error("越界Arg应返回nil")
	}
	if v, ok := ctx.Param("region"); !ok || v != "uk" {
		t.Errorf("Param(region)应为uk，实际: %v", v)
	}
	if _, ok := ctx.Param("missing"); ok {
		t.Error("不存在的Param应返回false")
	}
}
