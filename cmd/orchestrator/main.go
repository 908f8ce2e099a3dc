package main

import (
	"github.com/LENAX/orchestration-engine/pkg/cli/cmd"
)

// CLI入口：运行演示流水线、查询历史、查看版本
func main() {
	cmd.Execute()
}
