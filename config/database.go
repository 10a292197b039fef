package config

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"vestigas"`
	Password string `env:"PASSWORD" envDefault:"vestigas"`
	Name     string `env:"NAME"     envDefault:"vestigas"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// Enabled selects PostgreSQL persistence. When false the service runs on
	// in-memory stores, which is only useful for development and tests.
	Enabled bool `env:"ENABLED" envDefault:"true"`
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration for the finished-result cache.
type RedisConfig struct {
	// URI is the Redis endpoint. Leave empty to fall back to an in-process
	// cache.
	URI      string `env:"URI"      envDefault:""`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}
