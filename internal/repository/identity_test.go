package repository

import (
	"testing"

	"github.com/playgoban/goban-backend/internal/entity"
	"github.com/playgoban/goban-backend/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityRepository_GetByToken(t *testing.T) {
	t.Run("GetByToken_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		identityRepo := NewIdentityRepository(st.Storage)

		// Given: an identity stored under a token
		identity := &entity.Identity{
			UserID:      "1",
			DisplayName: "test",
		}

		err := identityRepo.CreateOrUpdate(ctx, "token-abc", identity)
		require.NoError(t, err)

		// When: GetByToken is called with that token
		resolved, err := identityRepo.GetByToken(ctx, "token-abc")

		// Then: the resolved identity matches the stored one
		require.NoError(t, err)
		assert.Equal(t, identity.UserID, resolved.UserID)
		assert.Equal(t, identity.DisplayName, resolved.DisplayName)
	})

	t.Run("GetByToken_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		identityRepo := NewIdentityRepository(st.Storage)

		// When: GetByToken is called with an unknown token
		resolved, err := identityRepo.GetByToken(ctx, "no-such-token")

		// Then: an ErrIdentityNotFound error should be returned
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrIdentityNotFound)
		assert.Nil(t, resolved)
	})
}
