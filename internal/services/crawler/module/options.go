package module

import (
	"time"

	"indexcrawler/internal/adapters/ingest/mavenindex"
	"indexcrawler/internal/adapters/sink"
	chsink "indexcrawler/internal/adapters/sink/clickhouse"
	"indexcrawler/internal/adapters/sink/queue"
	"indexcrawler/internal/core/artifact"
	"indexcrawler/internal/platform/config"
	perr "indexcrawler/internal/platform/errors"
	"indexcrawler/internal/platform/validate"
	"indexcrawler/internal/services/crawler/service"
)

// Options holds configuration for the crawler module
type Options struct {
	StartIndex int64         `json:"start_index" validate:"gte=0"`
	BatchSize  int           `json:"batch_size" validate:"gte=1"`
	Interval   time.Duration `json:"interval" validate:"gt=0"`

	// Checkpoint is a directory, s3://bucket/prefix or pg:namespace; "" disables checkpointing
	Checkpoint string `json:"checkpoint_dir"`
	TempDir    string `json:"temp_dir"`

	BaseURL    string `json:"base_url" validate:"required,url"`
	Repository string `json:"repository" validate:"required,url"`

	// Postgres extras, ignored without SERVICE_PGSQL_DBURL
	Leases bool `json:"leases"`
	Ledger bool `json:"ledger"`

	CycleTimeout      time.Duration `json:"cycle_timeout" validate:"gte=0"`
	ProbeTimeout      time.Duration `json:"probe_timeout" validate:"gte=0"`
	FetchTimeout      time.Duration `json:"fetch_timeout" validate:"gte=0"`
	CheckpointTimeout time.Duration `json:"checkpoint_timeout" validate:"gte=0"`

	Sink SinkOptions `json:"sink"`
}

// SinkOptions selects and configures the artifact destination
type SinkOptions struct {
	Mode sink.Mode `json:"output" validate:"oneof=console queue http clickhouse"`

	Topic    string        `json:"kafka_topic" validate:"required_if=Mode queue"`
	Brokers  []string      `json:"kafka_brokers" validate:"required_if=Mode queue"`
	ClientID string        `json:"kafka_client_id"`
	Linger   time.Duration `json:"kafka_linger" validate:"gte=0"`

	Endpoint    string        `json:"rest_endpoint" validate:"required_if=Mode http"`
	HTTPTimeout time.Duration `json:"rest_timeout" validate:"gte=0"`

	Table       string `json:"clickhouse_table"`
	EnsureTable bool   `json:"clickhouse_ensure_table"`
}

// FromConfig reads CORE_CRAWLER_* and CORE_SINK_* under cfg
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CORE_CRAWLER_")
	s := cfg.Prefix("CORE_SINK_")
	return Options{
		StartIndex:        c.MayInt64("START_INDEX", 0),
		BatchSize:         c.MayInt("BATCH_SIZE", service.DefaultBatchSize),
		Interval:          c.MayDuration("INTERVAL", time.Hour),
		Checkpoint:        c.MayString("CHECKPOINT_DIR", ""),
		TempDir:           c.MayString("TEMP_DIR", ""),
		BaseURL:           c.MayString("BASE_URL", mavenindex.DefaultBaseURL),
		Repository:        c.MayString("REPOSITORY", artifact.CentralRepository),
		Leases:            c.MayBool("LEASES", true),
		Ledger:            c.MayBool("LEDGER", true),
		CycleTimeout:      c.MayDuration("CYCLE_TIMEOUT", 0),
		ProbeTimeout:      c.MayDuration("PROBE_TIMEOUT", 30*time.Second),
		FetchTimeout:      c.MayDuration("FETCH_TIMEOUT", 10*time.Minute),
		CheckpointTimeout: c.MayDuration("CHECKPOINT_TIMEOUT", 30*time.Second),
		Sink: SinkOptions{
			Mode:        sink.Mode(s.MayString("OUTPUT", string(sink.ModeConsole))),
			Topic:       s.MayString("KAFKA_TOPIC", ""),
			Brokers:     s.MayCSV("KAFKA_BROKERS", nil),
			ClientID:    s.MayString("KAFKA_CLIENT_ID", queue.DefaultClientID),
			Linger:      s.MayDuration("KAFKA_LINGER", queue.DefaultLinger),
			Endpoint:    s.MayString("REST_ENDPOINT", ""),
			HTTPTimeout: s.MayDuration("REST_TIMEOUT", 30*time.Second),
			Table:       s.MayString("CLICKHOUSE_TABLE", chsink.DefaultTable),
			EnsureTable: s.MayBool("CLICKHOUSE_ENSURE_TABLE", true),
		},
	}
}

// Validate resolves the sink mode alias and checks every field.
// The returned error carries perr.ErrorCodeConfig
func (o *Options) Validate() error {
	m, err := sink.ParseMode(string(o.Sink.Mode))
	if err != nil {
		return err
	}
	o.Sink.Mode = m
	if err := validate.Struct(o); err != nil {
		return err
	}
	if o.Sink.Mode == sink.ModeClickhouse && o.Sink.Table != "" && !chsink.ValidTable(o.Sink.Table) {
		return perr.Configf("invalid configuration: clickhouse_table %q is not a plain identifier", o.Sink.Table)
	}
	return nil
}
