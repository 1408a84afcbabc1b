package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/playgoban/goban-backend/internal/entity"
	"github.com/redis/go-redis/v9"
)

var ErrIdentityNotFound = errors.New("identity not found")

// IdentityRepository resolves connection tokens to authenticated
// identities. The auth service (out of scope here) writes these keys
// at login time; this engine only ever reads them.
type IdentityRepository interface {
	GetByToken(ctx context.Context, token string) (*entity.Identity, error)
	CreateOrUpdate(ctx context.Context, token string, identity *entity.Identity) error
}

type dbIdentity struct {
	client *redis.Client
}

func NewIdentityRepository(client *redis.Client) IdentityRepository {
	return &dbIdentity{
		client: client,
	}
}

func (that *dbIdentity) GetByToken(ctx context.Context, token string) (*entity.Identity, error) {
	identityKey := "identity:" + token

	response, err := that.client.Get(ctx, identityKey).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrIdentityNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	var identity entity.Identity
	if err = json.Unmarshal([]byte(response), &identity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal identity: %w", err)
	}

	return &identity, nil
}

func (that *dbIdentity) CreateOrUpdate(ctx context.Context, token string, identity *entity.Identity) error {
	identityJSON, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("could not marshal identity: %w", err)
	}

	identityKey := "identity:" + token
	if err = that.client.Set(ctx, identityKey, identityJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set identity: %w", err)
	}

	return nil
}
