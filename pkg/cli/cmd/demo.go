package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/spf13/cobra"

	istorage "github.com/LENAX/orchestration-engine/internal/storage"
	"github.com/LENAX/orchestration-engine/pkg/cli/output"
	"github.com/LENAX/orchestration-engine/pkg/config"
	"github.com/LENAX/orchestration-engine/pkg/core/engine"
	"github.com/LENAX/orchestration-engine/pkg/core/task"
	"github.com/LENAX/orchestration-engine/pkg/workflows"
)

// demoCmd 运行内置演示ETL流水线
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "运行演示ETL流水线",
	Long:  `构建一个Extract -> Transform -> Load的演示Workflow并运行至结束，实时打印任务状态。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := config.Load(configPath)
		if err != nil {
			output.Error("加载配置失败: %v", err)
			return err
		}

		opts := engine.Options{MaxWorkers: cfg.Engine.MaxWorkers}

		if cfg.Engine.EnablePersistence {
			repos, err := istorage.NewRepositories(cfg.Database.Type, cfg.Database.DSN)
			if err != nil {
				output.Error("初始化存储失败: %v", err)
				return err
			}
			defer repos.Close()
			opts.WorkflowRepo = repos.Workflow
			opts.TaskRepo = repos.Task
		}

		var pubSub *gochannel.GoChannel
		if cfg.PubSub.Enabled {
			pubSub = gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
			opts.Publisher = pubSub
			opts.EventTopic = cfg.PubSub.Topic
		}

		eng, err := engine.NewEngine(opts)
		if err != nil {
			output.Error("初始化引擎失败: %v", err)
			return err
		}
		defer eng.Cleanup(ctx)

		// 订阅事件通道并打印（演示外部Pub/Sub集成）
		if pubSub != nil {
			messages, err := pubSub.Subscribe(ctx, cfg.PubSub.Topic)
			if err != nil {
				output.Warning("订阅事件通道失败: %v", err)
			} else {
				go func() {
					for msg := range messages {
						printEventMessage(msg)
						msg.Ack()
					}
				}()
			}
		}

		workflowID, err := buildDemoPipeline(ctx, eng)
		if err != nil {
			output.Error("构建演示流水线失败: %v", err)
			return err
		}
		if _, err := eng.StartWorkflow(ctx, workflowID); err != nil {
			output.Error("启动演示流水线失败: %v", err)
			return err
		}

		// 轮询至终态
		for {
			status, err := eng.GetWorkflowStatus(workflowID)
			if err != nil {
				return err
			}
			if status.Status == "COMPLETED" || status.Status == "FAILED" || status.Status == "CANCELLED" {
				renderWorkflowStatus(status)
				metrics := eng.GetMetrics()
				output.Info("任务执行: %d 成功, %d 失败, 累计耗时 %.2f 秒",
					metrics.TasksExecuted, metrics.TasksFailed, metrics.TotalExecutionTime)
				if status.Status == "COMPLETED" {
					output.Success("演示流水线执行完成")
					return nil
				}
				output.Error("演示流水线以 %s 结束", status.Status)
				return fmt.Errorf("演示流水线以 %s 结束", status.Status)
			}
			time.Sleep(200 * time.Millisecond)
		}
	},
}

// buildDemoPipeline 构建演示ETL Workflow（内部方法）
func buildDemoPipeline(ctx context.Context, eng *engine.Engine) (string, error) {
	templates := workflows.NewTemplates(eng)

	stage := func(name string, delay time.Duration) task.JobFunc {
		return func(tc *task.TaskContext) (interface{}, error) {
			select {
			case <-time.After(delay):
			case <-tc.Done():
				return nil, tc.Err()
			}
			return map[string]interface{}{"stage": name, "records": 100}, nil
		}
	}

	return templates.CreateDataPipelineWorkflow(ctx,
		[]workflows.PipelineStage{
			{Name: "orders-db", Function: stage("extract-orders", 200*time.Millisecond)},
			{Name: "users-db", Function: stage("extract-users", 200*time.Millisecond)},
		},
		[]workflows.PipelineStage{
			{Name: "normalize", Function: stage("transform-normalize", 300*time.Millisecond)},
		},
		[]workflows.PipelineStage{
			{Name: "warehouse", Function: stage("load-warehouse", 200*time.Millisecond)},
		},
	)
}

// renderWorkflowStatus 以表格形式打印Workflow状态（内部方法）
func renderWorkflowStatus(status *engine.WorkflowStatusSnapshot) {
	if outputJSON {
		if err := output.PrintJSON(status); err != nil {
			output.Error("JSON输出失败: %v", err)
		}
		return
	}

	output.Info("Workflow: %s (%s)，耗时 %.2f 秒", status.Name, output.ColorStatus(status.Status), status.ExecutionTime)
	table := output.NewTable([]string{"TASK", "STATUS", "PRIORITY", "DURATION", "ERROR"})
	for _, t := range status.Tasks {
		errMsg := "-"
		if t.Error != "" {
			errMsg = t.Error
		}
		table.AddRow([]string{
			t.Name,
			output.ColorStatus(t.Status),
			t.Priority,
			fmt.Sprintf("%.2fs", t.ExecutionTime),
			errMsg,
		})
	}
	table.Render()
}

// printEventMessage 打印一条外部事件消息（内部方法）
func printEventMessage(msg *message.Message) {
	output.Info("事件: %s", string(msg.Payload))
}
