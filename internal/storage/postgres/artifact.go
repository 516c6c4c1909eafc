package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shiptrack/internal/artifact"
)

const (
	putArtifactSQL = `INSERT INTO artifacts (key, content_type, data) VALUES ($1, $2, $3)
	ON CONFLICT (key) DO UPDATE SET content_type = EXCLUDED.content_type, data = EXCLUDED.data`
	getArtifactSQL = `SELECT content_type, data FROM artifacts WHERE key = $1`
)

var _ artifact.Store = (*ArtifactStore)(nil)

// ArtifactStore keeps rendered files in the artifacts table as an object
// store would, keyed by "<prefix>/<name>". Retrieval URLs are signed.
type ArtifactStore struct {
	pool   *pgxpool.Pool
	signer *artifact.Signer
}

// NewArtifactStore returns an ArtifactStore issuing URLs through signer.
func NewArtifactStore(pool *pgxpool.Pool, signer *artifact.Signer) *ArtifactStore {
	return &ArtifactStore{pool: pool, signer: signer}
}

// Put stores the object and returns a signed retrieval URL.
func (s *ArtifactStore) Put(ctx context.Context, obj artifact.Object) (string, error) {
	key, err := artifact.CleanKey(obj.Key())
	if err != nil {
		return "", err
	}
	if _, err := s.pool.Exec(ctx, putArtifactSQL, key, obj.ContentType, obj.Data); err != nil {
		return "", errors.Wrapf(err, "put artifact %q", key)
	}
	return s.signer.URL(key), nil
}

// Get loads the object stored under key.
func (s *ArtifactStore) Get(ctx context.Context, key string) (*artifact.Object, error) {
	obj := artifact.Object{}
	err := s.pool.QueryRow(ctx, getArtifactSQL, key).Scan(&obj.ContentType, &obj.Data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, artifact.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get artifact %q", key)
	}
	obj.Prefix, obj.Name = artifact.SplitKey(key)
	return &obj, nil
}

// Verify checks a signed URL's query parameters for key.
func (s *ArtifactStore) Verify(key, expires, sig string) error {
	return s.signer.Verify(key, expires, sig)
}
