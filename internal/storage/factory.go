package storage

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	// 注册三种数据库驱动
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/LENAX/orchestration-engine/pkg/storage"
	"github.com/LENAX/orchestration-engine/pkg/storage/mysql"
	"github.com/LENAX/orchestration-engine/pkg/storage/postgres"
	"github.com/LENAX/orchestration-engine/pkg/storage/sqlite"
)

// Repositories 存储Repository集合（内部使用）
type Repositories struct {
	Workflow storage.WorkflowRepository
	Task     storage.TaskRepository
	db       *sqlx.DB
}

// DialectFor 根据数据库类型返回方言（内部工厂方法）
func DialectFor(dbType string) (storage.Dialect, error) {
	switch dbType {
	case "sqlite", "sqlite3", "":
		return sqlite.Dialect{}, nil
	case "mysql":
		return mysql.Dialect{}, nil
	case "postgres", "postgresql":
		return postgres.Dialect{}, nil
	default:
		return nil, fmt.Errorf("不支持的数据库类型: %s", dbType)
	}
}

// NewRepositories 创建所有Repository实例（内部工厂方法）
// dbType: 数据库类型（sqlite/mysql/postgres）
// dsn: 数据库连接字符串（如"./orchestration.db"）
func NewRepositories(dbType, dsn string) (*Repositories, error) {
	dialect, err := DialectFor(dbType)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	// 测试连接
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	// 应用方言级连接配置（如SQLite PRAGMA）
	for _, stmt := range dialect.ConfigureDB() {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("配置数据库连接失败: %w", err)
		}
	}

	workflowRepo, err := NewWorkflowRepo(db, dialect)
	if err != nil {
		return nil, err
	}
	taskRepo, err := NewTaskRepo(db, dialect)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Workflow: workflowRepo,
		Task:     taskRepo,
		db:       db,
	}, nil
}

// Close 关闭数据库连接（内部方法）
func (r *Repositories) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
