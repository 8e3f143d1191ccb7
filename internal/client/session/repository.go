package session

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/dmitrijs2005/splitfair/internal/client/models"
	"github.com/dmitrijs2005/splitfair/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/splitfair/internal/dbx"
)

const (
	identityPrefix = "identity."
	keyID          = identityPrefix + "id"
	keyUsername    = identityPrefix + "username"
	keyEmail       = identityPrefix + "email"
)

// MetadataIdentityRepository keeps the identity as identity.* keys of the
// metadata table. Writes replace all keys in a single transaction.
type MetadataIdentityRepository struct {
	db *sql.DB
}

var _ IdentityRepository = (*MetadataIdentityRepository)(nil)

func NewMetadataIdentityRepository(db *sql.DB) *MetadataIdentityRepository {
	return &MetadataIdentityRepository{db: db}
}

func (r *MetadataIdentityRepository) Load(ctx context.Context) (*models.Identity, error) {
	values, err := metadata.NewSQLiteRepository(r.db).List(ctx, identityPrefix)
	if err != nil {
		return nil, err
	}
	username, ok := values[keyUsername]
	if !ok || len(username) == 0 {
		return nil, nil
	}

	id := &models.Identity{Username: string(username), Email: string(values[keyEmail])}
	if raw := values[keyID]; len(raw) > 0 {
		if n, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			id.ID = n
		}
	}
	return id, nil
}

func (r *MetadataIdentityRepository) Save(ctx context.Context, id models.Identity) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.DeletePrefix(ctx, identityPrefix); err != nil {
			return err
		}
		if err := repo.Set(ctx, keyUsername, []byte(id.Username)); err != nil {
			return err
		}
		if id.ID != 0 {
			if err := repo.Set(ctx, keyID, []byte(strconv.FormatInt(id.ID, 10))); err != nil {
				return err
			}
		}
		if id.Email != "" {
			if err := repo.Set(ctx, keyEmail, []byte(id.Email)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *MetadataIdentityRepository) Delete(ctx context.Context) error {
	return metadata.NewSQLiteRepository(r.db).DeletePrefix(ctx, identityPrefix)
}
