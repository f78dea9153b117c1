package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
)

// Load resolves configuration in ascending precedence: built-in defaults, an
// optional yaml file named by RECEPTIONIST_CONFIG, then environment
// variables (dots replaced by underscores, e.g. DATABASE_HOST).
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if path := strings.TrimSpace(os.Getenv("RECEPTIONIST_CONFIG")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "receptionist")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "receptionist")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("rate_limit.limit", 120)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("rollup.interval", "15m")

	v.SetDefault("sweep.interval", "1h")
	v.SetDefault("sweep.concurrency", 4)

	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.exporter_endpoint", "")
	v.SetDefault("observability.tracing.exporter_protocol", "grpc")
	v.SetDefault("observability.tracing.sampling_ratio", 0.1)

	v.SetDefault("bootstrap.ensure_default_tenant", true)
}
