package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/tagledger/internal/domain"
	"github.com/pkordes/tagledger/internal/repo"
)

// BatchIssuer hands out contiguous numbered ranges of tags to riders.
type BatchIssuer struct {
	tags    repo.TagRepo
	batches repo.BatchRepo
	maxSize int
	log     *slog.Logger
}

// NewBatchIssuer constructs a BatchIssuer. maxSize caps the number of tags in
// one batch; zero or less means no cap.
func NewBatchIssuer(tags repo.TagRepo, batches repo.BatchRepo, maxSize int, log *slog.Logger) *BatchIssuer {
	return &BatchIssuer{tags: tags, batches: batches, maxSize: maxSize, log: loggerOrDefault(log)}
}

// IssueBatch creates tags fromID..toID for riderID as one atomic batch.
// Returns domain.ErrValidation for bad input and *domain.DuplicateTagError if
// any id in the range already exists, in which case nothing is created and
// the caller must choose a disjoint range.
func (s *BatchIssuer) IssueBatch(ctx context.Context, actor, riderID string, fromID, toID int) (domain.Batch, error) {
	riderID = strings.TrimSpace(riderID)
	if err := requireActor(actor); err != nil {
		return domain.Batch{}, fmt.Errorf("service.BatchIssuer.IssueBatch: %w", err)
	}
	if err := domain.ValidateRange(riderID, fromID, toID, s.maxSize); err != nil {
		return domain.Batch{}, fmt.Errorf("service.BatchIssuer.IssueBatch: %w", err)
	}

	batch := domain.Batch{
		ID:        uuid.New(),
		RiderID:   riderID,
		FromID:    fromID,
		ToID:      toID,
		IssuedBy:  actor,
		IssueDate: now(),
	}
	created, err := s.tags.CreateBatch(ctx, batch)
	if err != nil {
		return domain.Batch{}, fmt.Errorf("service.BatchIssuer.IssueBatch: %w", err)
	}

	s.log.InfoContext(ctx, "batch issued",
		"batch_id", created.ID,
		"rider_id", created.RiderID,
		"from", domain.FormatTagID(created.FromID),
		"to", domain.FormatTagID(created.ToID),
		"actor", actor,
	)
	return created, nil
}

// GetBatch returns a batch together with the current state of its tags.
// Returns domain.ErrNotFound if the batch does not exist.
func (s *BatchIssuer) GetBatch(ctx context.Context, id uuid.UUID) (domain.Batch, []domain.Tag, error) {
	batch, err := s.batches.GetByID(ctx, id)
	if err != nil {
		return domain.Batch{}, nil, fmt.Errorf("service.BatchIssuer.GetBatch: %w", err)
	}
	tags, err := s.tags.ListByBatch(ctx, id)
	if err != nil {
		return domain.Batch{}, nil, fmt.Errorf("service.BatchIssuer.GetBatch: %w", err)
	}
	return batch, tags, nil
}

// ListBatches returns the batches issued to a rider, most recent first.
// Always returns a non-nil slice.
func (s *BatchIssuer) ListBatches(ctx context.Context, riderID string) ([]domain.Batch, error) {
	batches, err := s.batches.ListByRider(ctx, strings.TrimSpace(riderID))
	if err != nil {
		return nil, fmt.Errorf("service.BatchIssuer.ListBatches: %w", err)
	}
	if batches == nil {
		return []domain.Batch{}, nil
	}
	return batches, nil
}
