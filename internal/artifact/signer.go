package artifact

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// Signer issues and verifies expiring HMAC-SHA256 signed URLs of the form
// <base>/files/<key>?expires=<unix>&sig=<hex>.
type Signer struct {
	baseURL string
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
}

// NewSigner returns a Signer for URLs rooted at baseURL.
func NewSigner(baseURL string, secret []byte, ttl time.Duration) *Signer {
	return &Signer{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		secret:  secret,
		ttl:     ttl,
		now:     time.Now,
	}
}

// URL returns a signed URL for key valid for the signer's TTL.
func (s *Signer) URL(key string) string {
	expires := s.now().Add(s.ttl).Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("sig", hex.EncodeToString(s.mac(key, expires)))
	return fmt.Sprintf("%s/files/%s?%s", s.baseURL, key, q.Encode())
}

// Verify checks that sig was issued for key and expires has not passed.
func (s *Signer) Verify(key, expires, sig string) error {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return errors.Wrap(ErrBadSignature, "malformed expiry")
	}
	if s.now().Unix() > exp {
		return errors.Wrap(ErrBadSignature, "url expired")
	}

	given, err := hex.DecodeString(sig)
	if err != nil {
		return errors.Wrap(ErrBadSignature, "malformed signature")
	}
	if subtle.ConstantTimeCompare(given, s.mac(key, exp)) != 1 {
		return ErrBadSignature
	}
	return nil
}

func (s *Signer) mac(key string, expires int64) []byte {
	m := hmac.New(sha256.New, s.secret)
	m.Write([]byte(key))
	m.Write([]byte{0})
	m.Write([]byte(strconv.FormatInt(expires, 10)))
	return m.Sum(nil)
}
