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

// PickupValidator is the read-only gate a rider's tag passes before it is
// attached to a parcel. It never writes to the ledger.
type PickupValidator struct {
	tags repo.TagRepo
	log  *slog.Logger
}

// NewPickupValidator constructs a PickupValidator backed by the provided TagRepo.
func NewPickupValidator(tags repo.TagRepo, log *slog.Logger) *PickupValidator {
	return &PickupValidator{tags: tags, log: loggerOrDefault(log)}
}

// ValidateForPickup checks, in order, that the tag exists, that it is still
// ISSUED_TO_RIDER, and (when presentingRider is non-empty) that it was issued
// to that rider. Rejections are reported in the result; the error return is
// reserved for store failures.
func (v *PickupValidator) ValidateForPickup(ctx context.Context, tagID, presentingRider string) (domain.PickupResult, error) {
	presentingRider = strings.TrimSpace(presentingRider)

	id, err := canonicalTagID(tagID)
	if err != nil {
		return domain.PickupResult{TagID: strings.TrimSpace(tagID), Err: err}, nil
	}

	tag, err := v.tags.GetByID(ctx, id)
	if err != nil {
		var nf *domain.TagNotFoundError
		if errors.As(err, &nf) {
			return domain.PickupResult{TagID: id, Err: nf}, nil
		}
		return domain.PickupResult{}, fmt.Errorf("service.PickupValidator.ValidateForPickup: %w", err)
	}

	res := domain.CheckPickup(tag, presentingRider)
	if !res.Valid {
		v.log.WarnContext(ctx, "pickup rejected",
			"tag_id", id,
			"status", tag.Status,
			"issued_to", tag.IssuedTo,
			"presenting_rider", presentingRider,
			"error", res.Err,
		)
	}
	return res, nil
}
