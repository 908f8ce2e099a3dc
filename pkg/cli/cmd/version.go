package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version 引擎版本号
const Version = "0.3.0"

// versionCmd 查看版本
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "查看版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Orchestration Engine CLI v%s\n", Version)
	},
}
