package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkordes/tagledger/internal/domain"
	"github.com/pkordes/tagledger/internal/repo"
)

// AuditTrail is the read side of the append-only transition log. Entries are
// written only by the store, in the same unit as the transition they record.
type AuditTrail struct {
	audit repo.AuditRepo
}

// NewAuditTrail constructs an AuditTrail backed by the provided AuditRepo.
func NewAuditTrail(audit repo.AuditRepo) *AuditTrail {
	return &AuditTrail{audit: audit}
}

// List returns one page of entries, newest first, and the total match count.
// A malformed tag id filter is rejected with domain.ErrValidation.
func (a *AuditTrail) List(ctx context.Context, filter domain.AuditFilter, p domain.PaginationParams) ([]domain.AuditEntry, int64, error) {
	filter.Actor = strings.TrimSpace(filter.Actor)
	filter.RiderID = strings.TrimSpace(filter.RiderID)
	if filter.TagID != "" {
		id, err := domain.NormalizeTagID(filter.TagID)
		if err != nil {
			return nil, 0, fmt.Errorf("service.AuditTrail.List: %w", err)
		}
		filter.TagID = id
	}

	entries, total, err := a.audit.List(ctx, filter, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.AuditTrail.List: %w", err)
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	return entries, total, nil
}
