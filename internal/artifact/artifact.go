// Package artifact stores rendered files (invoice PDFs, delivery photos) and
// issues retrieval URLs for them.
package artifact

import (
	"context"
	"path"
	"strings"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when no object exists under a key.
	ErrNotFound = errors.New("artifact not found")
	// ErrBadSignature is returned when a signed URL fails verification.
	ErrBadSignature = errors.New("invalid artifact signature")
	// ErrInvalidKey is returned for keys that could escape the store root.
	ErrInvalidKey = errors.New("invalid artifact key")
)

// Object is a stored file. Its key is "<Prefix>/<Name>".
type Object struct {
	Prefix      string
	Name        string
	ContentType string
	Data        []byte
}

// Key returns the object's storage key.
func (o Object) Key() string {
	return path.Join(o.Prefix, o.Name)
}

// SplitKey separates a key into prefix and name.
func SplitKey(key string) (prefix, name string) {
	i := strings.LastIndexByte(key, '/')
	if i < 0 {
		return "", key
	}
	return key[:i], key[i+1:]
}

// SafeName makes s usable as a single key segment by replacing separators
// and dots.
func SafeName(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '.' {
			return '_'
		}
		return r
	}, s)
}

// CleanKey rejects keys that are absolute or contain parent references.
func CleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", ErrInvalidKey
		}
	}
	return key, nil
}

// Store persists objects and hands out URLs under which they can be fetched.
type Store interface {
	Put(ctx context.Context, obj Object) (url string, err error)
	Get(ctx context.Context, key string) (*Object, error)
	// Verify checks signed-URL parameters. Stores issuing unsigned URLs accept
	// any parameters.
	Verify(key, expires, sig string) error
}
