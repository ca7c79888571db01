package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkordes/tagledger/internal/domain"
	"github.com/pkordes/tagledger/internal/repo"
)

// ReconciliationEngine compares a rider's ledger against a physical count.
// It detects discrepancies; it never resolves them.
type ReconciliationEngine struct {
	tags repo.TagRepo
	log  *slog.Logger
}

// NewReconciliationEngine constructs a ReconciliationEngine backed by the provided TagRepo.
func NewReconciliationEngine(tags repo.TagRepo, log *slog.Logger) *ReconciliationEngine {
	return &ReconciliationEngine{tags: tags, log: loggerOrDefault(log)}
}

// Reconcile reads the rider's tags from the store and evaluates
// domain.Reconcile against physicalCount. It performs no writes, so repeated
// calls over an unchanged ledger return identical results.
func (e *ReconciliationEngine) Reconcile(ctx context.Context, riderID string, physicalCount int) (domain.ReconciliationResult, error) {
	riderID = strings.TrimSpace(riderID)
	if riderID == "" {
		return domain.ReconciliationResult{}, fmt.Errorf("service.ReconciliationEngine.Reconcile: %w: rider_id is required", domain.ErrValidation)
	}
	if physicalCount < 0 {
		return domain.ReconciliationResult{}, fmt.Errorf("service.ReconciliationEngine.Reconcile: %w: physical_count must not be negative", domain.ErrValidation)
	}

	tags, err := e.tags.ListByRider(ctx, riderID)
	if err != nil {
		return domain.ReconciliationResult{}, fmt.Errorf("service.ReconciliationEngine.Reconcile: %w", err)
	}

	res := domain.Reconcile(riderID, tags, physicalCount)
	if res.Mismatch {
		e.log.WarnContext(ctx, "reconciliation mismatch",
			"rider_id", riderID,
			"remaining", res.Remaining,
			"physical_count", physicalCount,
			"lost_suspect", res.LostSuspect,
		)
	}
	return res, nil
}
