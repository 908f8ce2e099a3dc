package config

// Config 引擎运行配置（对外导出）
type Config struct {
	Mode string `yaml:"mode"` // dev/prod

	Database struct {
		Type string `yaml:"type"` // sqlite/mysql/postgres
		DSN  string `yaml:"dsn"`
	} `yaml:"database"`

	Engine struct {
		MaxWorkers        int  `yaml:"max_workers"`        // 阻塞任务执行池并发上限
		EnablePersistence bool `yaml:"enable_persistence"` // 是否持久化Workflow/Task状态
	} `yaml:"engine"`

	PubSub struct {
		Enabled bool   `yaml:"enabled"` // 是否发布事件到外部通道
		Topic   string `yaml:"topic"`   // 事件通道名
	} `yaml:"pubsub"`
}

// ApplyDefaults 应用默认值
func (c *Config) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = "dev"
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "./orchestration.db"
	}
	if c.Engine.MaxWorkers <= 0 {
		c.Engine.MaxWorkers = 10
	}
	if c.PubSub.Topic == "" {
		c.PubSub.Topic = "orchestration_events"
	}
}
