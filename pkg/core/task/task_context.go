package task

import "context"

// TaskContext Task执行上下文（对外导出）
// 内嵌context.Context，任务函数通过它感知超时与取消
// 只携带任务自身的身份与参数，不传递上游Task的结果
type TaskContext struct {
	context.Context
	TaskID     string
	TaskName   string
	WorkflowID string
	Args       []interface{}
	Params     map[string]interface{}
}

// NewTaskContext 创建TaskContext实例（对外导出）
func NewTaskContext(ctx context.Context, taskID, taskName, workflowID string, args []interface{}, params map[string]interface{}) *TaskContext {
	if params == nil {
		params = make(map[string]interface{})
	}
	return &TaskContext{
		Context:    ctx,
		TaskID:     taskID,
		TaskName:   taskName,
		WorkflowID: workflowID,
		Args:       args,
		Params:     params,
	}
}

// Arg 按位置读取参数（对外导出）
// 越界返回nil
func (c *TaskContext) Arg(i int) interface{} {
	if i < 0 || i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

// Param 按名称读取参数（对外导出）
func (c *TaskContext) Param(key string) (interface{}, bool) {
	v, ok := c.Params[key]
	return v, ok
}
