// Package modkit provides module wiring and the shared dependency bundle
package modkit

import (
	"indexcrawler/internal/modkit/repokit"
	"indexcrawler/internal/platform/config"
	"indexcrawler/internal/platform/logger"
	"indexcrawler/internal/platform/store"
)

// Deps holds the core dependencies passed to modules.
// PG and CH are nil when the backend is not configured
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
}

// FromStore builds Deps over an opened store
func FromStore(cfg config.Conf, log logger.Logger, st *store.Store) Deps {
	d := Deps{Log: log, Cfg: cfg}
	if st != nil {
		d.PG = st.PG
		d.CH = st.CH
	}
	return d
}
