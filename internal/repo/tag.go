package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/tagledger/internal/domain"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

const tagColumns = `id, status, batch_id, issued_to, issue_date, void_reason, void_photo, updated_at`

// pgTagRepo is the Postgres implementation of TagRepo.
type pgTagRepo struct {
	db db
}

// NewTagRepo constructs a TagRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTagRepo(db db) TagRepo {
	return &pgTagRepo{db: db}
}

// CreateBatch writes the batch and its tags in one transaction. The tag rows
// come from a single INSERT ... SELECT over generate_series, so the primary
// key on tags.id is what rejects overlapping ranges, including ones issued
// concurrently by another service instance.
func (r *pgTagRepo) CreateBatch(ctx context.Context, batch domain.Batch) (domain.Batch, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Batch{}, fmt.Errorf("repo.TagRepo.CreateBatch: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	args := pgx.NamedArgs{
		"id":         batch.ID,
		"rider_id":   batch.RiderID,
		"from_no":    batch.FromID,
		"to_no":      batch.ToID,
		"issued_by":  batch.IssuedBy,
		"issue_date": batch.IssueDate,
	}

	const insertBatch = `
		INSERT INTO batches (id, rider_id, from_no, to_no, issued_by, issue_date)
		VALUES (@id, @rider_id, @from_no, @to_no, @issued_by, @issue_date)
		RETURNING id, rider_id, from_no, to_no, issued_by, issue_date`

	created, err := scanBatch(tx.QueryRow(ctx, insertBatch, args))
	if err != nil {
		return domain.Batch{}, fmt.Errorf("repo.TagRepo.CreateBatch: insert batch: %w", err)
	}

	const insertTags = `
		INSERT INTO tags (id, tag_no, status, batch_id, issued_to, issue_date, updated_at)
		SELECT 'TT-' || lpad(n::text, 6, '0'), n, 'ISSUED_TO_RIDER', @id, @rider_id, @issue_date, @issue_date
		FROM generate_series(@from_no::int, @to_no::int) AS n`

	if _, err := tx.Exec(ctx, insertTags, args); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			_ = tx.Rollback(ctx)
			return domain.Batch{}, fmt.Errorf("repo.TagRepo.CreateBatch: %w", r.duplicateError(ctx, batch))
		}
		return domain.Batch{}, fmt.Errorf("repo.TagRepo.CreateBatch: insert tags: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Batch{}, fmt.Errorf("repo.TagRepo.CreateBatch: commit: %w", err)
	}
	return created, nil
}

// duplicateError lists the ids inside the rejected range that already exist.
// The lookup is best effort: the error is returned even if it fails.
func (r *pgTagRepo) duplicateError(ctx context.Context, batch domain.Batch) error {
	dup := &domain.DuplicateTagError{FromID: batch.FromID, ToID: batch.ToID}

	const q = `
		SELECT id FROM tags
		WHERE tag_no BETWEEN @from_no AND @to_no
		ORDER BY tag_no`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"from_no": batch.FromID, "to_no": batch.ToID})
	if err != nil {
		return dup
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err == nil {
		dup.Existing = ids
	}
	return dup
}

// GetByID retrieves a tag by primary key.
func (r *pgTagRepo) GetByID(ctx context.Context, id string) (domain.Tag, error) {
	q := `SELECT ` + tagColumns + ` FROM tags WHERE id = @id`

	tag, err := scanTag(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Tag{}, fmt.Errorf("repo.TagRepo.GetByID: %w", &domain.TagNotFoundError{TagID: id})
		}
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.GetByID: %w", err)
	}
	return tag, nil
}

// ListByRider returns every tag issued to a rider, ordered by tag number.
func (r *pgTagRepo) ListByRider(ctx context.Context, riderID string) ([]domain.Tag, error) {
	q := `SELECT ` + tagColumns + ` FROM tags WHERE issued_to = @rider_id ORDER BY tag_no`

	tags, err := r.listTags(ctx, q, pgx.NamedArgs{"rider_id": riderID})
	if err != nil {
		return nil, fmt.Errorf("repo.TagRepo.ListByRider: %w", err)
	}
	return tags, nil
}

// ListByBatch returns every tag in a batch, ordered by tag number.
func (r *pgTagRepo) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]domain.Tag, error) {
	q := `SELECT ` + tagColumns + ` FROM tags WHERE batch_id = @batch_id ORDER BY tag_no`

	tags, err := r.listTags(ctx, q, pgx.NamedArgs{"batch_id": batchID})
	if err != nil {
		return nil, fmt.Errorf("repo.TagRepo.ListByBatch: %w", err)
	}
	return tags, nil
}

func (r *pgTagRepo) listTags(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Tag, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []domain.Tag{}
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return tags, nil
}

// Transition performs the compare-and-set on status. The WHERE status = @from_status
// precondition means that of two concurrent transitions on the same tag the
// second UPDATE matches zero rows once the first commits.
func (r *pgTagRepo) Transition(ctx context.Context, req domain.TransitionRequest) (domain.Tag, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.Transition: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var voidReason, voidPhoto *string
	if req.To == domain.StatusVoid {
		voidReason = &req.Reason
		if req.Photo != "" {
			voidPhoto = &req.Photo
		}
	}

	q := `
		UPDATE tags
		SET status      = @to_status,
		    void_reason = COALESCE(@void_reason::text, void_reason),
		    void_photo  = COALESCE(@void_photo::text, void_photo),
		    updated_at  = @at
		WHERE id = @id AND status = @from_status
		RETURNING ` + tagColumns

	tag, err := scanTag(tx.QueryRow(ctx, q, pgx.NamedArgs{
		"id":          req.TagID,
		"from_status": string(req.From),
		"to_status":   string(req.To),
		"void_reason": voidReason,
		"void_photo":  voidPhoto,
		"at":          req.At,
	}))
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.Transition: %w", r.explainMiss(ctx, tx, req))
	}
	if err != nil {
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.Transition: update: %w", err)
	}

	if err := insertAudit(ctx, tx, []string{req.TagID}, req.From, req.To, req.Actor, req.Reason, req.At); err != nil {
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.Transition: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.Transition: commit: %w", err)
	}
	return tag, nil
}

// explainMiss turns a zero-row compare-and-set into the right typed error.
func (r *pgTagRepo) explainMiss(ctx context.Context, tx pgx.Tx, req domain.TransitionRequest) error {
	var status string
	err := tx.QueryRow(ctx, `SELECT status FROM tags WHERE id = @id`, pgx.NamedArgs{"id": req.TagID}).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.TagNotFoundError{TagID: req.TagID}
	}
	if err != nil {
		return fmt.Errorf("read status: %w", err)
	}
	return &domain.InvalidTransitionError{TagID: req.TagID, From: domain.Status(status), Op: req.Op}
}

// MarkLost flips every eligible tag in one statement and records the audit
// entries in the same transaction.
func (r *pgTagRepo) MarkLost(ctx context.Context, ids []string, actor, reason string, at time.Time) (domain.SweepResult, error) {
	res := domain.SweepResult{Marked: []string{}, Skipped: []string{}, NotFound: []string{}}
	if len(ids) == 0 {
		return res, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("repo.TagRepo.MarkLost: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const update = `
		UPDATE tags
		SET status = 'LOST_SUSPECT', updated_at = @at
		WHERE id = ANY(@ids) AND status = 'ISSUED_TO_RIDER'
		RETURNING id`

	rows, err := tx.Query(ctx, update, pgx.NamedArgs{"ids": ids, "at": at})
	if err != nil {
		return res, fmt.Errorf("repo.TagRepo.MarkLost: update: %w", err)
	}
	marked, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return res, fmt.Errorf("repo.TagRepo.MarkLost: update: %w", err)
	}

	if len(marked) > 0 {
		if err := insertAudit(ctx, tx, marked, domain.StatusIssued, domain.StatusLostSuspect, actor, reason, at); err != nil {
			return res, fmt.Errorf("repo.TagRepo.MarkLost: %w", err)
		}
	}

	rows, err = tx.Query(ctx, `SELECT id FROM tags WHERE id = ANY(@ids)`, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return res, fmt.Errorf("repo.TagRepo.MarkLost: lookup: %w", err)
	}
	existing, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return res, fmt.Errorf("repo.TagRepo.MarkLost: lookup: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return res, fmt.Errorf("repo.TagRepo.MarkLost: commit: %w", err)
	}

	markedSet := toSet(marked)
	existingSet := toSet(existing)
	for _, id := range ids {
		if _, ok := markedSet[id]; ok {
			res.Marked = append(res.Marked, id)
			continue
		}
		if _, ok := existingSet[id]; ok {
			res.Skipped = append(res.Skipped, id)
		} else {
			res.NotFound = append(res.NotFound, id)
		}
	}
	return res, nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// scanTag maps a single database row into a domain.Tag.
// It returns domain.ErrNotFound for pgx.ErrNoRows.
func scanTag(s scanner) (domain.Tag, error) {
	var (
		t          domain.Tag
		status     string
		batchID    pgtype.UUID
		voidReason pgtype.Text
		voidPhoto  pgtype.Text
	)
	err := s.Scan(&t.ID, &status, &batchID, &t.IssuedTo, &t.IssueDate, &voidReason, &voidPhoto, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Tag{}, domain.ErrNotFound
		}
		return domain.Tag{}, err
	}
	// A row that fails to parse is corrupt storage, not bad input, so the
	// validation sentinel is not propagated.
	t.Status, err = domain.ParseStatus(status)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("repo.scanTag: tag %s: %v", t.ID, err)
	}
	t.BatchID = uuid.UUID(batchID.Bytes)
	t.VoidReason = voidReason.String
	t.VoidPhoto = voidPhoto.String
	return t, nil
}
