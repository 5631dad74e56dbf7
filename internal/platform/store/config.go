package store

import "indexcrawler/internal/platform/config"

// Config aggregates per backend configuration
type Config struct {
	PG PGConfig
	CH CHConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled bool
	URL     string
	// Role is reported to the server in the client info, e.g. "crawler"
	Role string
}

// PGFromConfig reads SERVICE_PGSQL_* under cfg. The backend is enabled when DBURL is set
func PGFromConfig(cfg config.Conf) PGConfig {
	pg := cfg.Prefix("SERVICE_PGSQL_")
	return PGConfig{
		Enabled:     pg.Has("DBURL"),
		URL:         pg.MayString("DBURL", ""),
		MaxConns:    int32(pg.MayInt("MAX_CONNS", 4)),
		SlowQueryMs: pg.MayInt("SLOW_MS", 500),
		LogSQL:      pg.MayBool("LOG_SQL", false),
	}
}

// CHFromConfig reads SERVICE_CLICKHOUSE_* under cfg. The backend is enabled when DBURL is set
func CHFromConfig(cfg config.Conf, role string) CHConfig {
	ch := cfg.Prefix("SERVICE_CLICKHOUSE_")
	return CHConfig{
		Enabled: ch.Has("DBURL"),
		URL:     ch.MayString("DBURL", ""),
		Role:    role,
	}
}
