package repo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tagledger/internal/domain"
	"github.com/pkordes/tagledger/internal/repo"
)

// stores bundles the three repo views over one backing ledger.
type stores struct {
	tags    repo.TagRepo
	batches repo.BatchRepo
	audit   repo.AuditRepo
}

// issuedAt is truncated to microseconds so it survives a Postgres round trip.
var issuedAt = time.Date(2025, 3, 14, 8, 30, 0, 0, time.UTC)

func batchFixture(rider string, from, to int) domain.Batch {
	return domain.Batch{
		ID:        uuid.New(),
		RiderID:   rider,
		FromID:    from,
		ToID:      to,
		IssuedBy:  "supervisor-1",
		IssueDate: issuedAt,
	}
}

func useReq(tagID string) domain.TransitionRequest {
	return domain.TransitionRequest{
		TagID: tagID, Op: domain.OpUse,
		From: domain.StatusIssued, To: domain.StatusUsed,
		Actor: "rider-7", At: issuedAt.Add(time.Hour),
	}
}

func voidReq(tagID, reason, photo string) domain.TransitionRequest {
	return domain.TransitionRequest{
		TagID: tagID, Op: domain.OpVoid,
		From: domain.StatusIssued, To: domain.StatusVoid,
		Actor: "rider-7", Reason: reason, Photo: photo, At: issuedAt.Add(time.Hour),
	}
}

// runStoreContract pins the behaviour every TagRepo implementation must share.
// open must return stores over an empty ledger.
func runStoreContract(t *testing.T, open func(t *testing.T) stores) {
	ctx := context.Background()

	t.Run("CreateBatch_createsWholeRange", func(t *testing.T) {
		s := open(t)
		b := batchFixture("rider-7", 1001, 1005)

		created, err := s.tags.CreateBatch(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, b.ID, created.ID)

		tags, err := s.tags.ListByBatch(ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, tags, 5)
		assert.Equal(t, "TT-001001", tags[0].ID)
		assert.Equal(t, "TT-001005", tags[4].ID)
		for _, tag := range tags {
			assert.Equal(t, domain.StatusIssued, tag.Status)
			assert.Equal(t, "rider-7", tag.IssuedTo)
			assert.True(t, tag.IssueDate.Equal(issuedAt))
		}

		got, err := s.batches.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, 1001, got.FromID)
		assert.Equal(t, 1005, got.ToID)
	})

	t.Run("CreateBatch_overlapCreatesNothing", func(t *testing.T) {
		s := open(t)
		_, err := s.tags.CreateBatch(ctx, batchFixture("rider-7", 1001, 1005))
		require.NoError(t, err)

		second := batchFixture("rider-8", 1001, 1010)
		_, err = s.tags.CreateBatch(ctx, second)

		var dup *domain.DuplicateTagError
		require.True(t, errors.As(err, &dup), "want DuplicateTagError, got %v", err)
		assert.Equal(t, []string{"TT-001001", "TT-001002", "TT-001003", "TT-001004", "TT-001005"}, dup.Existing)

		_, err = s.tags.GetByID(ctx, "TT-001006")
		assert.ErrorIs(t, err, domain.ErrNotFound, "no tag beyond the overlap may be created")
		_, err = s.batches.GetByID(ctx, second.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound, "the failed batch row must not exist")
		rider8, err := s.tags.ListByRider(ctx, "rider-8")
		require.NoError(t, err)
		assert.Empty(t, rider8)
	})

	t.Run("GetByID_notFound", func(t *testing.T) {
		s := open(t)
		_, err := s.tags.GetByID(ctx, "TT-123456")

		var nf *domain.TagNotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "TT-123456", nf.TagID)
	})

	t.Run("Transition_useThenVoidRejected", func(t *testing.T) {
		s := open(t)
		_, err := s.tags.CreateBatch(ctx, batchFixture("rider-7", 1, 3))
		require.NoError(t, err)

		used, err := s.tags.Transition(ctx, useReq("TT-000001"))
		require.NoError(t, err)
		assert.Equal(t, domain.StatusUsed, used.Status)

		_, err = s.tags.Transition(ctx, voidReq("TT-000001", "damaged", ""))
		var ite *domain.InvalidTransitionError
		require.True(t, errors.As(err, &ite), "want InvalidTransitionError, got %v", err)
		assert.Equal(t, domain.StatusUsed, ite.From)

		got, err := s.tags.GetByID(ctx, "TT-000001")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusUsed, got.Status)
		assert.Empty(t, got.VoidReason)
	})

	t.Run("Transition_voidRecordsEvidence", func(t *testing.T) {
		s := open(t)
		_, err := s.tags.CreateBatch(ctx, batchFixture("rider-7", 1, 1))
		require.NoError(t, err)

		voided, err := s.tags.Transition(ctx, voidReq("TT-000001", "seal torn", "photos/abc.jpg"))

		require.NoError(t, err)
		assert.Equal(t, domain.StatusVoid, voided.Status)
		assert.Equal(t, "seal torn", voided.VoidReason)
		assert.Equal(t, "photos/abc.jpg", voided.VoidPhoto)
	})

	t.Run("Transition_missingTag", func(t *testing.T) {
		s := open(t)
		_, err := s.tags.Transition(ctx, useReq("TT-000404"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Transition_appendsAudit", func(t *testing.T) {
		s := open(t)
		_, err := s.tags.CreateBatch(ctx, batchFixture("rider-7", 1, 2))
		require.NoError(t, err)
		_, err = s.tags.Transition(ctx, useReq("TT-000001"))
		require.NoError(t, err)
		_, err = s.tags.Transition(ctx, voidReq("TT-000002", "damaged", ""))
		require.NoError(t, err)
		// A rejected transition must not leave an audit entry.
		_, err = s.tags.Transition(ctx, useReq("TT-000002"))
		require.Error(t, err)

		entries, total, err := s.audit.List(ctx, domain.AuditFilter{}, domain.NewPaginationParams(nil, nil))
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, entries, 2)
		assert.Equal(t, "TT-000002", entries[0].TagID, "newest first")
		assert.Equal(t, domain.StatusIssued, entries[0].From)
		assert.Equal(t, domain.StatusVoid, entries[0].To)
		assert.Equal(t, "damaged", entries[0].Reason)
		assert.Equal(t, "rider-7", entries[0].Actor)
		assert.Equal(t, "TT-000001", entries[1].TagID)

		byTag, total, err := s.audit.List(ctx, domain.AuditFilter{TagID: "TT-000001"}, domain.NewPaginationParams(nil, nil))
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, domain.StatusUsed, byTag[0].To)
	})

	t.Run("MarkLost_bestEffortAndIdempotent", func(t *testing.T) {
		s := open(t)
		_, err := s.tags.CreateBatch(ctx, batchFixture("rider-7", 1, 3))
		require.NoError(t, err)
		_, err = s.tags.Transition(ctx, useReq("TT-000002"))
		require.NoError(t, err)

		ids := []string{"TT-000001", "TT-000002", "TT-000003", "TT-000999"}
		first, err := s.tags.MarkLost(ctx, ids, "supervisor-1", "shift close", issuedAt.Add(2*time.Hour))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"TT-000001", "TT-000003"}, first.Marked)
		assert.Equal(t, []string{"TT-000002"}, first.Skipped)
		assert.Equal(t, []string{"TT-000999"}, first.NotFound)

		second, err := s.tags.MarkLost(ctx, ids, "supervisor-1", "shift close", issuedAt.Add(3*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, second.Marked)
		assert.ElementsMatch(t, []string{"TT-000001", "TT-000002", "TT-000003"}, second.Skipped)

		tags, err := s.tags.ListByRider(ctx, "rider-7")
		require.NoError(t, err)
		statuses := map[string]domain.Status{}
		for _, tag := range tags {
			statuses[tag.ID] = tag.Status
		}
		assert.Equal(t, map[string]domain.Status{
			"TT-000001": domain.StatusLostSuspect,
			"TT-000002": domain.StatusUsed,
			"TT-000003": domain.StatusLostSuspect,
		}, statuses)

		_, total, err := s.audit.List(ctx, domain.AuditFilter{Actor: "supervisor-1"}, domain.NewPaginationParams(nil, nil))
		require.NoError(t, err)
		assert.EqualValues(t, 2, total, "second sweep must not add audit entries")
	})

	t.Run("ListBatchesByRider", func(t *testing.T) {
		s := open(t)
		older := batchFixture("rider-7", 1, 2)
		newer := batchFixture("rider-7", 10, 12)
		newer.IssueDate = issuedAt.Add(24 * time.Hour)
		_, err := s.tags.CreateBatch(ctx, older)
		require.NoError(t, err)
		_, err = s.tags.CreateBatch(ctx, newer)
		require.NoError(t, err)
		_, err = s.tags.CreateBatch(ctx, batchFixture("rider-9", 20, 20))
		require.NoError(t, err)

		got, err := s.batches.ListByRider(ctx, "rider-7")

		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, newer.ID, got[0].ID)
		assert.Equal(t, older.ID, got[1].ID)
	})

	t.Run("AuditList_filtersByRiderAndPages", func(t *testing.T) {
		s := open(t)
		_, err := s.tags.CreateBatch(ctx, batchFixture("rider-7", 1, 5))
		require.NoError(t, err)
		_, err = s.tags.CreateBatch(ctx, batchFixture("rider-9", 6, 6))
		require.NoError(t, err)
		for _, id := range []string{"TT-000001", "TT-000002", "TT-000003", "TT-000006"} {
			_, err := s.tags.Transition(ctx, useReq(id))
			require.NoError(t, err)
		}

		page, limit := 2, 2
		got, total, err := s.audit.List(ctx, domain.AuditFilter{RiderID: "rider-7"}, domain.NewPaginationParams(&page, &limit))

		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, got, 1)
		assert.Equal(t, "TT-000001", got[0].TagID)
	})
}
