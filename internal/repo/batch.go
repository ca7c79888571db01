package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/tagledger/internal/domain"
)

// pgBatchRepo is the Postgres implementation of BatchRepo.
type pgBatchRepo struct {
	db db
}

// NewBatchRepo constructs a BatchRepo backed by the provided db connection.
func NewBatchRepo(db db) BatchRepo {
	return &pgBatchRepo{db: db}
}

// GetByID retrieves a batch by primary key.
func (r *pgBatchRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Batch, error) {
	const q = `
		SELECT id, rider_id, from_no, to_no, issued_by, issue_date
		FROM batches
		WHERE id = @id`

	b, err := scanBatch(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Batch{}, fmt.Errorf("repo.BatchRepo.GetByID: %w", err)
	}
	return b, nil
}

// ListByRider returns a rider's batches, most recently issued first.
func (r *pgBatchRepo) ListByRider(ctx context.Context, riderID string) ([]domain.Batch, error) {
	const q = `
		SELECT id, rider_id, from_no, to_no, issued_by, issue_date
		FROM batches
		WHERE rider_id = @rider_id
		ORDER BY issue_date DESC, from_no DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"rider_id": riderID})
	if err != nil {
		return nil, fmt.Errorf("repo.BatchRepo.ListByRider: %w", err)
	}
	defer rows.Close()

	batches := []domain.Batch{}
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.BatchRepo.ListByRider: scan: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.BatchRepo.ListByRider: rows: %w", err)
	}
	return batches, nil
}

// scanBatch maps a single database row into a domain.Batch.
func scanBatch(s scanner) (domain.Batch, error) {
	var (
		b  domain.Batch
		id pgtype.UUID
	)
	err := s.Scan(&id, &b.RiderID, &b.FromID, &b.ToID, &b.IssuedBy, &b.IssueDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Batch{}, domain.ErrNotFound
		}
		return domain.Batch{}, err
	}
	b.ID = uuid.UUID(id.Bytes)
	return b, nil
}
