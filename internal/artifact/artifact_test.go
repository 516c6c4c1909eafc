package artifact

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanKey(t *testing.T) {
	for _, key := range []string{"invoices/a.pdf", "/invoices/a.pdf", "verifications/x/y.jpg"} {
		_, err := CleanKey(key)
		require.NoError(t, err, key)
	}
	for _, key := range []string{"", "/", "../etc/passwd", "invoices/../../x", "invoices//a.pdf", `invoices\a.pdf`, "./a"} {
		_, err := CleanKey(key)
		require.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestSafeName(t *testing.T) {
	for in, want := range map[string]string{
		"ORD-123":       "ORD-123",
		"x/../y":        "x____y",
		`a\b`:          "a_b",
		"../../etc":     "______etc",
		"plain.id.2026": "plain_id_2026",
	} {
		got := SafeName(in)
		assert.Equal(t, want, got, in)
		_, err := CleanKey(Object{Prefix: "invoices", Name: got}.Key())
		require.NoError(t, err, in)
		prefix, _ := SplitKey(Object{Prefix: "invoices", Name: got}.Key())
		assert.Equal(t, "invoices", prefix, in)
	}
}

func TestSplitKey(t *testing.T) {
	prefix, name := SplitKey("invoices/invoice-1.pdf")
	assert.Equal(t, "invoices", prefix)
	assert.Equal(t, "invoice-1.pdf", name)

	prefix, name = SplitKey("bare.pdf")
	assert.Empty(t, prefix)
	assert.Equal(t, "bare.pdf", name)
}

func signedParams(t *testing.T, raw string) (key, expires, sig string) {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return strings.TrimPrefix(u.Path, "/files/"), u.Query().Get("expires"), u.Query().Get("sig")
}

func TestSigner(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := NewSigner("https://files.example.com/", []byte("secret"), time.Hour)
	s.now = func() time.Time { return now }

	raw := s.URL("invoices/a.pdf")
	assert.True(t, strings.HasPrefix(raw, "https://files.example.com/files/invoices/a.pdf?"))

	key, expires, sig := signedParams(t, raw)
	require.NoError(t, s.Verify(key, expires, sig))

	t.Run("OtherKey", func(t *testing.T) {
		require.ErrorIs(t, s.Verify("invoices/b.pdf", expires, sig), ErrBadSignature)
	})
	t.Run("TamperedExpiry", func(t *testing.T) {
		require.ErrorIs(t, s.Verify(key, "9999999999", sig), ErrBadSignature)
	})
	t.Run("OtherSecret", func(t *testing.T) {
		other := NewSigner("https://files.example.com", []byte("other"), time.Hour)
		other.now = s.now
		require.ErrorIs(t, other.Verify(key, expires, sig), ErrBadSignature)
	})
	t.Run("Malformed", func(t *testing.T) {
		require.ErrorIs(t, s.Verify(key, "soon", sig), ErrBadSignature)
		require.ErrorIs(t, s.Verify(key, expires, "zz"), ErrBadSignature)
	})
	t.Run("Expired", func(t *testing.T) {
		s.now = func() time.Time { return now.Add(2 * time.Hour) }
		require.ErrorIs(t, s.Verify(key, expires, sig), ErrBadSignature)
	})
}

func TestDiskStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewDiskStore(t.TempDir(), "http://localhost:3001/")
	require.NoError(t, err)

	url, err := s.Put(ctx, Object{Prefix: "invoices", Name: "invoice-1.pdf", Data: []byte("%PDF-1.3")})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3001/files/invoices/invoice-1.pdf", url)

	obj, err := s.Get(ctx, "invoices/invoice-1.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.3"), obj.Data)
	assert.Equal(t, "application/pdf", obj.ContentType)
	assert.Equal(t, "invoices", obj.Prefix)
	assert.Equal(t, "invoice-1.pdf", obj.Name)

	_, err = s.Get(ctx, "invoices/missing.pdf")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(ctx, "../secret")
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = s.Put(ctx, Object{Prefix: "..", Name: "x"})
	require.ErrorIs(t, err, ErrInvalidKey)

	require.NoError(t, s.Verify("invoices/invoice-1.pdf", "", ""))
}
