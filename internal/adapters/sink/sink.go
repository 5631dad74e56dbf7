// Package sink defines the dispatch contract every artifact destination implements
package sink

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"indexcrawler/internal/core/artifact"
	perr "indexcrawler/internal/platform/errors"
	"indexcrawler/internal/platform/logger"
)

// Sink receives deduplicated artifacts in batches.
// Open is called once per cycle before any Send; Flush and Close run at the end of every cycle.
// Send reports delivery of the whole batch; ordinary failures return false and are logged by the sink
type Sink interface {
	Open(ctx context.Context) error
	Flush(ctx context.Context) error
	Close() error
	Send(ctx context.Context, batch []artifact.Artifact) bool
}

// Mode selects a sink implementation
type Mode string

// Supported modes
const (
	ModeConsole    Mode = "console"
	ModeQueue      Mode = "queue"
	ModeHTTP       Mode = "http"
	ModeClickhouse Mode = "clickhouse"
)

var modeAliases = map[string]Mode{
	"console":    ModeConsole,
	"std":        ModeConsole,
	"stdout":     ModeConsole,
	"queue":      ModeQueue,
	"kafka":      ModeQueue,
	"http":       ModeHTTP,
	"rest":       ModeHTTP,
	"clickhouse": ModeClickhouse,
	"ch":         ModeClickhouse,
}

// ModeNames lists every accepted spelling, for flag help and validation
func ModeNames() []string {
	return []string{"console", "std", "queue", "kafka", "http", "rest", "clickhouse"}
}

// ParseMode resolves a mode or one of its aliases, case-insensitively
func ParseMode(s string) (Mode, error) {
	if m, ok := modeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return "", perr.Configf("sink: unknown output %q (want one of %s)", s, strings.Join(ModeNames(), ", "))
}

// String implements fmt.Stringer
func (m Mode) String() string { return string(m) }

// SendOne delivers a single artifact as a one-element batch
func SendOne(ctx context.Context, s Sink, a artifact.Artifact) bool {
	return SafeSend(ctx, s, []artifact.Artifact{a})
}

// SafeSend calls s.Send and turns a panic into a failed delivery
func SafeSend(ctx context.Context, s Sink, batch []artifact.Artifact) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.C(ctx).Error().
				Err(perr.PanicErrf("sink: send panicked: %v", r)).
				Str("stack", string(debug.Stack())).
				Int("batch", len(batch)).
				Msg("sink send recovered")
			ok = false
		}
	}()
	return s.Send(ctx, batch)
}

// Guard runs fn and turns a panic into an error; used around Open/Flush/Close
func Guard(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = perr.PanicErrf("sink: %s panicked: %v", op, r)
		}
	}()
	if err = fn(); err != nil {
		return perr.WithOp(err, op)
	}
	return nil
}

// DispatchError describes a failed batch for logs and the cycle result
func DispatchError(index, total int) error {
	return perr.New(perr.ErrorCodeDispatch, fmt.Sprintf("sink: batch %d of %d not delivered", index+1, total))
}
