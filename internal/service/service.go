// Package service contains the business logic of the tag ledger.
// Services validate inputs, apply the transition table, and orchestrate repo
// calls. No SQL lives here: services depend on repo interfaces, not
// implementations.
//
// No service retries a failed ledger operation. Every typed error from
// internal/domain reaches the caller unchanged (wrapped, never replaced),
// because each one is either an operator mistake or a fraud signal.
package service

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkordes/tagledger/internal/domain"
)

// now returns the ledger timestamp for a write, truncated to the precision
// Postgres stores.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

func requireActor(actor string) error {
	if strings.TrimSpace(actor) == "" {
		return fmt.Errorf("%w: actor is required", domain.ErrValidation)
	}
	return nil
}

// canonicalTagID normalizes scanned input. Input that cannot be a tag id is
// reported the same way as an id with no record.
func canonicalTagID(raw string) (string, error) {
	id, err := domain.NormalizeTagID(raw)
	if err != nil {
		return "", &domain.TagNotFoundError{TagID: strings.TrimSpace(raw)}
	}
	return id, nil
}

// dedupe keeps the first occurrence of every id.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
