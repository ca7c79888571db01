package repo

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tagledger/internal/domain"
)

// rowStub fills the scanTag destinations from fixed column values.
type rowStub struct {
	status string
	err    error
}

func (r rowStub) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	*dest[0].(*string) = "TT-001001"
	*dest[1].(*string) = r.status
	*dest[2].(*pgtype.UUID) = pgtype.UUID{Bytes: uuid.MustParse("7b0c3c2e-2f57-4c1e-9b43-0f7d9d1f6a10"), Valid: true}
	*dest[3].(*string) = "rider-7"
	*dest[4].(*time.Time) = now
	*dest[5].(*pgtype.Text) = pgtype.Text{}
	*dest[6].(*pgtype.Text) = pgtype.Text{}
	*dest[7].(*time.Time) = now
	return nil
}

func TestScanTag_knownStatus(t *testing.T) {
	tag, err := scanTag(rowStub{status: "USED"})
	require.NoError(t, err)
	assert.Equal(t, "TT-001001", tag.ID)
	assert.Equal(t, domain.StatusUsed, tag.Status)
	assert.Equal(t, "7b0c3c2e-2f57-4c1e-9b43-0f7d9d1f6a10", tag.BatchID.String())
	assert.Empty(t, tag.VoidReason)
}

func TestScanTag_unknownStatusIsInternal(t *testing.T) {
	_, err := scanTag(rowStub{status: "SHREDDED"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown status "SHREDDED"`)
	assert.NotErrorIs(t, err, domain.ErrValidation)
}

func TestScanTag_noRows(t *testing.T) {
	_, err := scanTag(rowStub{err: pgx.ErrNoRows})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	boom := errors.New("conn reset")
	_, err = scanTag(rowStub{err: boom})
	assert.ErrorIs(t, err, boom)
}
