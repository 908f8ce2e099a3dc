package postgres

import (
	"fmt"
	"strings"
)

// Dialect PostgreSQL方言实现（对外导出）
type Dialect struct{}

// Name 返回方言名称
func (d Dialect) Name() string { return "postgres" }

// DriverName 返回驱动名称
func (d Dialect) DriverName() string { return "postgres" }

// UpsertSQL PostgreSQL使用INSERT ... ON CONFLICT DO UPDATE
func (d Dialect) UpsertSQL(tableName string, columns []string, conflictColumn string, updateColumns []string) string {
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		placeholders[i] = ":" + col
	}
	updates := make([]string, len(updateColumns))
	for i, col := range updateColumns {
		updates[i] = fmt.Sprintf("%s=EXCLUDED.%s", col, col)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		tableName, strings.Join(columns, ", "), strings.Join(placeholders, ", "), conflictColumn, strings.Join(updates, ", "))
}

// ConfigureDB PostgreSQL无额外连接配置
func (d Dialect) ConfigureDB() []string { return nil }

// TimestampType 时间戳类型
func (d Dialect) TimestampType() string { return "TIMESTAMP" }

// FloatType 浮点类型
func (d Dialect) FloatType() string { return "DOUBLE PRECISION" }
