package artifact

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
)

var _ Store = (*DiskStore)(nil)

// DiskStore writes objects below a local directory and returns plain,
// unsigned URLs.
type DiskStore struct {
	root    string
	baseURL string
}

// NewDiskStore returns a DiskStore rooted at dir, creating it if needed.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create artifact dir %q", dir)
	}
	return &DiskStore{
		root:    dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Put writes the object and returns its URL.
func (s *DiskStore) Put(_ context.Context, obj Object) (string, error) {
	key, err := CleanKey(obj.Key())
	if err != nil {
		return "", err
	}
	p := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", errors.Wrap(err, "create artifact prefix")
	}
	if err := os.WriteFile(p, obj.Data, 0o644); err != nil {
		return "", errors.Wrapf(err, "write artifact %q", key)
	}
	return s.baseURL + "/files/" + key, nil
}

// Get reads the object stored under key.
func (s *DiskStore) Get(_ context.Context, key string) (*Object, error) {
	key, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "read artifact %q", key)
	}

	prefix, name := SplitKey(key)
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Object{Prefix: prefix, Name: name, ContentType: contentType, Data: data}, nil
}

// Verify accepts everything; disk URLs are not signed.
func (s *DiskStore) Verify(string, string, string) error {
	return nil
}
