package engine

import (
	"encoding/json"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// 生命周期事件类型（对外导出）
const (
	EventWorkflowCreated   = "workflow_created"
	EventWorkflowStarted   = "workflow_started"
	EventWorkflowCompleted = "workflow_completed"
	EventWorkflowFailed    = "workflow_failed"
	EventWorkflowCancelled = "workflow_cancelled"
	EventWorkflowPaused    = "workflow_paused"
	EventWorkflowResumed   = "workflow_resumed"
	EventTaskStarted       = "task_started"
	EventTaskCompleted     = "task_completed"
	EventTaskFailed        = "task_failed"
)

// DefaultEventTopic 外部Pub/Sub事件通道名（对外导出）
const DefaultEventTopic = "orchestration_events"

// Event 事件信封（对外导出）
type Event struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// EventHandler 本地事件处理函数（对外导出）
// 处理函数内的panic会被捕获并记录，不影响调度
type EventHandler func(event Event)

// AddEventHandler 注册本地事件处理器（对外导出）
func (e *Engine) AddEventHandler(eventType string, handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.eventHandlers[eventType] = append(e.eventHandlers[eventType], handler)
}

// publishEvent 发布生命周期事件（内部方法）
// 先调用本地处理器（单个处理器异常不影响其他处理器与调度），
// 再以JSON信封尽力发布到外部Pub/Sub通道；发布失败只记日志，不阻塞调度
func (e *Engine) publishEvent(eventType string, data map[string]interface{}) {
	event := Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	}

	e.mu.RLock()
	handlers := make([]EventHandler, len(e.eventHandlers[eventType]))
	copy(handlers, e.eventHandlers[eventType])
	publisher := e.publisher
	topic := e.eventTopic
	e.mu.RUnlock()

	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("事件处理器异常: event=%s, panic=%v", eventType, r)
				}
			}()
			handler(event)
		}()
	}

	if publisher == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("事件序列化失败: event=%s, 错误=%v", eventType, err)
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := e.publisher.Publish(topic, msg); err != nil {
		log.Printf("外部事件发布失败: event=%s, 错误=%v", eventType, err)
	}
}
