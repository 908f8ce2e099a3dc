package mysql

import (
	"fmt"
	"strings"
)

// Dialect MySQL方言实现（对外导出）
type Dialect struct{}

// Name 返回方言名称
func (d Dialect) Name() string { return "mysql" }

// DriverName 返回驱动名称
func (d Dialect) DriverName() string { return "mysql" }

// UpsertSQL MySQL使用INSERT ... ON DUPLICATE KEY UPDATE
func (d Dialect) UpsertSQL(tableName string, columns []string, conflictColumn string, updateColumns []string) string {
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		placeholders[i] = ":" + col
	}
	updates := make([]string, len(updateColumns))
	for i, col := range updateColumns {
		updates[i] = fmt.Sprintf("%s=VALUES(%s)", col, col)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
		tableName, strings.Join(columns, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", "))
}

// ConfigureDB MySQL无额外连接配置
func (d Dialect) ConfigureDB() []string { return nil }

// TimestampType 时间戳类型
func (d Dialect) TimestampType() string { return "DATETIME" }

// FloatType 浮点类型
func (d Dialect) FloatType() string { return "DOUBLE" }
