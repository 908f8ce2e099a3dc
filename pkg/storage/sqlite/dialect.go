package sqlite

import (
	"fmt"
	"strings"
)

// Dialect SQLite方言实现（对外导出）
type Dialect struct{}

// Name 返回方言名称
func (d Dialect) Name() string { return "sqlite" }

// DriverName 返回驱动名称
func (d Dialect) DriverName() string { return "sqlite3" }

// UpsertSQL SQLite使用INSERT OR REPLACE
func (d Dialect) UpsertSQL(tableName string, columns []string, conflictColumn string, updateColumns []string) string {
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		placeholders[i] = ":" + col
	}
	return fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		tableName, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
}

// ConfigureDB SQLite连接配置
func (d Dialect) ConfigureDB() []string {
	return []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
	}
}

// TimestampType 时间戳类型
func (d Dialect) TimestampType() string { return "DATETIME" }

// FloatType 浮点类型
func (d Dialect) FloatType() string { return "REAL" }
