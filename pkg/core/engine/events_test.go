package engine

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/LENAX/orchestration-engine/pkg/core/workflow"
)

// TestEvents_HandlerDelivery 测试本地事件处理器收到事件
func TestEvents_HandlerDelivery(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	var mu sync.Mutex
	var received []Event
	eng.AddEventHandler(EventTaskCompleted, func(event Event) {
		mu.Lock()
		received = append(received, event)
		mu.Unlock()
	})

	workflowID := eng.CreateWorkflow(ctx, "事件流程", "", 1, "", nil)
	if _, err := eng.AddTask(ctx, workflowID, TaskSpec{Name: "任务A", Function: okJob}); err != nil {
		t.Fatalf("添加Task失败: %v", err)
	}
	if _, err := eng.StartWorkflow(ctx, workflowID); err != nil {
		t.Fatalf("启动失败: %v", err)
	}
	waitForWorkflowStatus(t, eng, workflowID, workflow.WorkflowStatusCompleted, 3*time.Second)

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("应收到1个task_completed事件，实际: %d", len(received))
	}
	event := received[0]
	if event.Type != EventTaskCompleted {
		t.Errorf("事件类型不符: %s", event.Type)
	}
	if event.Data["workflow_id"] != workflowID {
		t.Errorf("事件应携带workflow_id，实际: %v", event.Data)
	}
	if event.Timestamp.IsZero() {
		t.Error("事件应携带时间戳")
	}
}

// TestEvents_PanickingHandler 测试处理器panic不影响其他处理器与调度
func TestEvents_PanickingHandler(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	var mu sync.Mutex
	got := false
	eng.AddEventHandler(EventWorkflowCompleted, func(event Event) {
		panic("处理器崩溃")
	})
	eng.AddEventHandler(EventWorkflowCompleted, func(event Event) {
		mu.Lock()
		got = true
		mu.Unlock()
	})

	workflowID := eng.CreateWorkflow(ctx, "事件流程", "", 1, "", nil)
	if _, err := eng.AddTask(ctx, workflowID, TaskSpec{Name: "任务A", Function: okJob}); err != nil {
		t.Fatalf("添加Task失败: %v", err)
	}
	if _, err := eng.StartWorkflow(ctx, workflowID); err != nil {
		t.Fatalf("启动失败: %v", err)
	}
	waitForWorkflowStatus(t, eng, workflowID, workflow.WorkflowStatusCompleted, 3*time.Second)

	mu.Lock()
	defer mu.Unlock()
	if !got {
		t.Error("第一个处理器panic后，第二个处理器仍应收到事件")
	}
}

// TestEvents_ExternalPublish 测试事件以JSON信封发布到外部Pub/Sub通道
func TestEvents_ExternalPublish(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))

	// 先订阅再触发，避免丢失消息
	messages, err := pubSub.Subscribe(context.Background(), DefaultEventTopic)
	if err != nil {
		t.Fatalf("订阅失败: %v", err)
	}

	eng, err := NewEngine(Options{MaxWorkers: 2, Publisher: pubSub})
	if err != nil {
		t.Fatalf("创建Engine失败: %v", err)
	}
	t.Cleanup(func() { eng.Cleanup(context.Background()) })

	workflowID := eng.CreateWorkflow(context.Background(), "外发流程", "", 1, "", nil)

	select {
	case msg := <-messages:
		var event Event
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			t.Fatalf("事件信封应为合法JSON: %v", err)
		}
		if event.Type != EventWorkflowCreated {
			t.Errorf("事件类型应为workflow_created，实际: %s", event.Type)
		}
		if event.Data["workflow_id"] != workflowID {
			t.Errorf("事件应携带workflow_id，实际: %v", event.Data)
		}
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("等待外部事件超时")
	}
}
