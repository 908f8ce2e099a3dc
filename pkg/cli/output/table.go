package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Table 简单表格输出
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable 创建表格
func NewTable(headers []string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		widths:  widths,
	}
}

// AddRow 添加行
func (t *Table) AddRow(row []string) {
	// 更新列宽
	for i, cell := range row {
		if i < len(t.widths) && len(cell) > t.widths[i] {
			t.widths[i] = len(cell)
		}
	}
	t.rows = append(t.rows, row)
}

// Render 渲染表格
func (t *Table) Render() {
	headerColor := color.New(color.FgCyan, color.Bold)
	for i, h := range t.headers {
		headerColor.Printf("%-*s  ", t.widths[i], h)
	}
	fmt.Println()

	for i := range t.headers {
		fmt.Print(strings.Repeat("-", t.widths[i]))
		fmt.Print("  ")
	}
	fmt.Println()

	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(t.widths) {
				fmt.Printf("%-*s  ", t.widths[i], cell)
			}
		}
		fmt.Println()
	}
}

var (
	successLine = color.New(color.FgGreen, color.Bold)
	errorLine   = color.New(color.FgRed, color.Bold)
	infoLine    = color.New(color.FgCyan)
	warningLine = color.New(color.FgYellow)
)

// PrintJSON 以缩进JSON形式输出到标准输出，供--json模式使用
func PrintJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Success 打印成功提示行
func Success(format string, args ...interface{}) {
	successLine.Printf("✅ "+format+"\n", args...)
}

// Error 打印错误提示行
func Error(format string, args ...interface{}) {
	errorLine.Printf("❌ "+format+"\n", args...)
}

// Info 打印普通信息行
func Info(format string, args ...interface{}) {
	infoLine.Printf("ℹ️  "+format+"\n", args...)
}

// Warning 打印警告行
func Warning(format string, args ...interface{}) {
	warningLine.Printf("⚠️  "+format+"\n", args...)
}

// ColorStatus 按状态着色（COMPLETED绿/FAILED红/RUNNING黄/CANCELLED灰）
func ColorStatus(status string) string {
	switch status {
	case "COMPLETED":
		return color.GreenString(status)
	case "FAILED":
		return color.RedString(status)
	case "RUNNING", "RETRYING":
		return color.YellowString(status)
	case "CANCELLED":
		return color.HiBlackString(status)
	default:
		return status
	}
}
