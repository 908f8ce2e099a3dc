package cmd

import (
	"context"

	"github.com/spf13/cobra"

	istorage "github.com/LENAX/orchestration-engine/internal/storage"
	"github.com/LENAX/orchestration-engine/pkg/cli/output"
	"github.com/LENAX/orchestration-engine/pkg/config"
)

var historyStatus string

// historyCmd 查询持久化的Workflow历史
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "查询持久化的Workflow历史",
	Long:  `按状态查询数据库中持久化的Workflow记录及其Task明细。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := config.Load(configPath)
		if err != nil {
			output.Error("加载配置失败: %v", err)
			return err
		}

		repos, err := istorage.NewRepositories(cfg.Database.Type, cfg.Database.DSN)
		if err != nil {
			output.Error("初始化存储失败: %v", err)
			return err
		}
		defer repos.Close()

		records, err := repos.Workflow.ListByStatus(ctx, historyStatus)
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(records)
		}
		if len(records) == 0 {
			output.Info("暂无状态为 %s 的Workflow", historyStatus)
			return nil
		}

		table := output.NewTable([]string{"WORKFLOW_ID", "NAME", "STATUS", "CREATED", "COMPLETED"})
		for _, rec := range records {
			completed := "-"
			if rec.CompletedAt != nil {
				completed = rec.CompletedAt.Format("2006-01-02 15:04:05")
			}
			table.AddRow([]string{
				rec.ID,
				rec.Name,
				output.ColorStatus(rec.Status),
				rec.CreatedAt.Format("2006-01-02 15:04:05"),
				completed,
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVarP(&historyStatus, "status", "t", "COMPLETED", "按状态筛选（CREATED/RUNNING/COMPLETED/FAILED/CANCELLED）")
}
