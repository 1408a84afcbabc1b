package repository

import (
	"testing"
	"time"

	"github.com/playgoban/goban-backend/internal/entity"
	"github.com/playgoban/goban-backend/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveRepository_Save(t *testing.T) {
	ctx, st := suite.New(t)

	archiveRepo := NewArchiveRepository(st.Storage)

	// Given: a terminal record for an expired session
	record := &entity.GameRecord{
		ID:        "g1",
		BlackID:   "1",
		BlackName: "test",
		WhiteID:   "2",
		WhiteName: "test2",
		Stones:    4,
		Reason:    entity.CloseReasonGraceExpiry,
		ClosedAt:  time.Now(),
	}

	// When: Save is called
	err := archiveRepo.Save(ctx, record)

	// Then: no error should be returned
	require.NoError(t, err)
}

func TestArchiveRepository_GetByID(t *testing.T) {
	t.Run("GetByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		archiveRepo := NewArchiveRepository(st.Storage)

		record := &entity.GameRecord{
			ID:        "g7",
			BlackID:   "1",
			BlackName: "test",
			Reason:    entity.CloseReasonCreatorLeft,
			ClosedAt:  time.Now(),
		}

		err := archiveRepo.Save(ctx, record)
		require.NoError(t, err)

		// When: GetByID is called with an existing ID
		retrieved, err := archiveRepo.GetByID(ctx, "g7")

		// Then: the retrieved record matches the saved one
		require.NoError(t, err)
		assert.Equal(t, record.ID, retrieved.ID)
		assert.Equal(t, record.BlackName, retrieved.BlackName)
		assert.Equal(t, record.Reason, retrieved.Reason)
		assert.Empty(t, retrieved.WhiteID)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		archiveRepo := NewArchiveRepository(st.Storage)

		// When: GetByID is called with a non-existent ID
		retrieved, err := archiveRepo.GetByID(ctx, "g9999")

		// Then: an ErrRecordNotFound error should be returned
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRecordNotFound)
		assert.Nil(t, retrieved)
	})
}
