package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tagledger/internal/domain"
)

func TestAuditTrail_List_filters(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	l.issue(t, "rider-7", 1, 3)
	l.issue(t, "rider-9", 4, 4)
	_, err := l.machine.UseTag(ctx, "rider-7", "TT-000001")
	require.NoError(t, err)
	_, err = l.machine.VoidTag(ctx, "auditor-2", "TT-000002", "cut", "")
	require.NoError(t, err)
	_, err = l.machine.UseTag(ctx, "rider-9", "TT-000004")
	require.NoError(t, err)

	byTag, total, err := l.audit.List(ctx, domain.AuditFilter{TagID: "tt-000002"}, domain.NewPaginationParams(nil, nil))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "auditor-2", byTag[0].Actor)

	byRider, total, err := l.audit.List(ctx, domain.AuditFilter{RiderID: "rider-7"}, domain.NewPaginationParams(nil, nil))
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, "TT-000002", byRider[0].TagID)

	byActor, _, err := l.audit.List(ctx, domain.AuditFilter{Actor: "rider-9"}, domain.NewPaginationParams(nil, nil))
	require.NoError(t, err)
	require.Len(t, byActor, 1)
	assert.Equal(t, "TT-000004", byActor[0].TagID)
}

func TestAuditTrail_List_emptyIsNonNil(t *testing.T) {
	l := newLedger(t)

	got, total, err := l.audit.List(context.Background(), domain.AuditFilter{}, domain.NewPaginationParams(nil, nil))

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Zero(t, total)
}

func TestAuditTrail_List_badTagFilter(t *testing.T) {
	l := newLedger(t)

	_, _, err := l.audit.List(context.Background(), domain.AuditFilter{TagID: "nope"}, domain.NewPaginationParams(nil, nil))

	assert.ErrorIs(t, err, domain.ErrValidation)
}
