package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkordes/tagledger/internal/domain"
	"github.com/pkordes/tagledger/internal/repo"
)

// TagStateMachine applies status transitions to individual tags.
// Legality comes from domain.Next; atomicity and the per-tag race come from
// the store's compare-and-set, so several instances may run side by side.
type TagStateMachine struct {
	tags     repo.TagRepo
	maxSweep int
	log      *slog.Logger
}

// NewTagStateMachine constructs a TagStateMachine backed by the provided TagRepo.
// maxSweep caps the number of ids one MarkLost call may carry; <= 0 means
// unbounded.
func NewTagStateMachine(tags repo.TagRepo, maxSweep int, log *slog.Logger) *TagStateMachine {
	return &TagStateMachine{tags: tags, maxSweep: maxSweep, log: loggerOrDefault(log)}
}

// GetTag returns a single tag by id.
func (s *TagStateMachine) GetTag(ctx context.Context, tagID string) (domain.Tag, error) {
	id, err := canonicalTagID(tagID)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("service.TagStateMachine.GetTag: %w", err)
	}
	tag, err := s.tags.GetByID(ctx, id)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("service.TagStateMachine.GetTag: %w", err)
	}
	return tag, nil
}

// ListByRider returns the rider's whole tag ledger ordered by id.
func (s *TagStateMachine) ListByRider(ctx context.Context, riderID string) ([]domain.Tag, error) {
	tags, err := s.tags.ListByRider(ctx, strings.TrimSpace(riderID))
	if err != nil {
		return nil, fmt.Errorf("service.TagStateMachine.ListByRider: %w", err)
	}
	if tags == nil {
		return []domain.Tag{}, nil
	}
	return tags, nil
}

// UseTag marks a tag as attached to a parcel. A tag that is already terminal
// yields *domain.InvalidTransitionError: that is a possible double use and is
// never swallowed.
func (s *TagStateMachine) UseTag(ctx context.Context, actor, tagID string) (domain.Tag, error) {
	if err := requireActor(actor); err != nil {
		return domain.Tag{}, fmt.Errorf("service.TagStateMachine.UseTag: %w", err)
	}
	tag, err := s.apply(ctx, domain.OpUse, actor, tagID, "", "")
	if err != nil {
		return domain.Tag{}, fmt.Errorf("service.TagStateMachine.UseTag: %w", err)
	}
	return tag, nil
}

// VoidTag retires a damaged or compromised tag. reason is required; photo is
// an optional reference to evidence held elsewhere.
func (s *TagStateMachine) VoidTag(ctx context.Context, actor, tagID, reason, photo string) (domain.Tag, error) {
	if err := requireActor(actor); err != nil {
		return domain.Tag{}, fmt.Errorf("service.TagStateMachine.VoidTag: %w", err)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.Tag{}, fmt.Errorf("service.TagStateMachine.VoidTag: %w: reason is required", domain.ErrValidation)
	}
	tag, err := s.apply(ctx, domain.OpVoid, actor, tagID, reason, strings.TrimSpace(photo))
	if err != nil {
		return domain.Tag{}, fmt.Errorf("service.TagStateMachine.VoidTag: %w", err)
	}
	return tag, nil
}

// MarkLost is the supervisory sweep: every listed tag still ISSUED_TO_RIDER
// becomes LOST_SUSPECT. Terminal and unknown ids are reported in the result,
// not returned as errors, so repeating a sweep is harmless.
func (s *TagStateMachine) MarkLost(ctx context.Context, actor string, tagIDs []string, reason string) (domain.SweepResult, error) {
	if err := requireActor(actor); err != nil {
		return domain.SweepResult{}, fmt.Errorf("service.TagStateMachine.MarkLost: %w", err)
	}
	if len(tagIDs) == 0 {
		return domain.SweepResult{}, fmt.Errorf("service.TagStateMachine.MarkLost: %w: tag_ids must not be empty", domain.ErrValidation)
	}
	if s.maxSweep > 0 && len(tagIDs) > s.maxSweep {
		return domain.SweepResult{}, fmt.Errorf("service.TagStateMachine.MarkLost: %w: sweep of %d ids exceeds limit of %d",
			domain.ErrValidation, len(tagIDs), s.maxSweep)
	}

	var malformed []string
	ids := make([]string, 0, len(tagIDs))
	for _, raw := range tagIDs {
		id, err := domain.NormalizeTagID(raw)
		if err != nil {
			malformed = append(malformed, strings.TrimSpace(raw))
			continue
		}
		ids = append(ids, id)
	}

	res, err := s.tags.MarkLost(ctx, dedupe(ids), actor, strings.TrimSpace(reason), now())
	if err != nil {
		return domain.SweepResult{}, fmt.Errorf("service.TagStateMachine.MarkLost: %w", err)
	}
	res.NotFound = append(res.NotFound, dedupe(malformed)...)

	s.log.InfoContext(ctx, "lost sweep",
		"actor", actor,
		"marked", len(res.Marked),
		"skipped", len(res.Skipped),
		"not_found", len(res.NotFound),
	)
	return res, nil
}

// apply reads the tag, asks the transition table for the target status, and
// submits a compare-and-set from the status it read.
func (s *TagStateMachine) apply(ctx context.Context, op domain.Op, actor, rawID, reason, photo string) (domain.Tag, error) {
	id, err := canonicalTagID(rawID)
	if err != nil {
		return domain.Tag{}, err
	}
	current, err := s.tags.GetByID(ctx, id)
	if err != nil {
		return domain.Tag{}, err
	}

	to, err := domain.Next(current.Status, op)
	if err != nil {
		s.warnRejected(ctx, op, actor, current)
		return domain.Tag{}, &domain.InvalidTransitionError{TagID: id, From: current.Status, Op: op}
	}

	tag, err := s.tags.Transition(ctx, domain.TransitionRequest{
		TagID:  id,
		Op:     op,
		From:   current.Status,
		To:     to,
		Actor:  actor,
		Reason: reason,
		Photo:  photo,
		At:     now(),
	})
	if err != nil {
		var ite *domain.InvalidTransitionError
		if errors.As(err, &ite) {
			s.warnRejected(ctx, op, actor, domain.Tag{ID: id, Status: ite.From, IssuedTo: current.IssuedTo})
		}
		return domain.Tag{}, err
	}

	s.log.InfoContext(ctx, "tag transition",
		"tag_id", id,
		"from", current.Status,
		"to", to,
		"actor", actor,
	)
	return tag, nil
}

// warnRejected logs a refused transition. Refusals on a terminal tag are the
// fraud signal this ledger exists to raise.
func (s *TagStateMachine) warnRejected(ctx context.Context, op domain.Op, actor string, tag domain.Tag) {
	s.log.WarnContext(ctx, "tag transition rejected",
		"tag_id", tag.ID,
		"op", op,
		"status", tag.Status,
		"rider_id", tag.IssuedTo,
		"actor", actor,
	)
}
