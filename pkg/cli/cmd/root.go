package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// 全局变量
	configPath string
	outputJSON bool
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "orchestrator",
	Short: "Orchestration Engine CLI - 任务编排引擎命令行工具",
	Long: `Orchestration Engine CLI 是一个用于运行和观察编排Workflow的命令行工具。

支持的功能：
  - 运行内置演示流水线（ETL示例）
  - 查询持久化的Workflow与Task历史
  - 查看引擎版本

使用示例：
  # 运行演示ETL流水线
  orchestrator demo

  # 查询历史Workflow
  orchestrator history --status COMPLETED

  # 查看版本
  orchestrator version`,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/engine.yaml", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "使用JSON格式输出")

	// 添加子命令
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
