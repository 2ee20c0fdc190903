package storage

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

const (
	// MaxCookieSize is the per-cookie limit browsers are required to honour.
	MaxCookieSize = 4096

	MinSecretLen = 32

	keyInfoPrefix = "storefront cookie "
)

var ErrWeakSecret = errors.New("cookie secret too short")

type payloadClaims struct {
	Data json.RawMessage `json:"data"`
	jwt.RegisteredClaims
}

// CookieCodec signs and verifies cookie payloads. Every cookie name gets its
// own HS256 key derived from the master secret, and the name is also bound
// as the token subject, so a value cannot be replayed under another name.
type CookieCodec struct {
	secret []byte
	keys   sync.Map
}

func NewCookieCodec(secret string) (*CookieCodec, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("%w: need at least %d bytes", ErrWeakSecret, MinSecretLen)
	}
	return &CookieCodec{secret: []byte(secret)}, nil
}

func (c *CookieCodec) key(name string) []byte {
	if k, ok := c.keys.Load(name); ok {
		return k.([]byte)
	}

	k := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, c.secret, nil, []byte(keyInfoPrefix+name)), k); err != nil {
		panic(fmt.Sprintf("hkdf: %v", err))
	}
	actual, _ := c.keys.LoadOrStore(name, k)
	return actual.([]byte)
}

func (c *CookieCodec) Encode(name string, value []byte, now time.Time, ttl time.Duration) (string, error) {
	if !json.Valid(value) {
		return "", fmt.Errorf("%w: cookie %q payload is not JSON", ErrCorrupt, name)
	}

	claims := payloadClaims{
		Data: value,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key(name))
}

// Decode returns the payload of a token issued for name. ok is false when
// the token has expired.
func (c *CookieCodec) Decode(name, token string, now time.Time) (value []byte, ok bool, err error) {
	var claims payloadClaims

	_, err = jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return c.key(name), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(name),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("%w: cookie %q: %v", ErrCorrupt, name, err)
	}
	return claims.Data, true, nil
}

// CookieBackend persists values in the browser's cookie jar. It lives for
// one request: reads come from the request, writes go out as Set-Cookie
// headers and are visible to later reads through the same backend.
type CookieBackend struct {
	codec   *CookieCodec
	w       http.ResponseWriter
	r       *http.Request
	pending map[string][]byte
	failed  map[string]error
	now     func() time.Time

	// Secure marks cookies for HTTPS only.
	Secure bool
}

func NewCookieBackend(w http.ResponseWriter, r *http.Request, codec *CookieCodec) *CookieBackend {
	return &CookieBackend{
		codec:   codec,
		w:       w,
		r:       r,
		pending: make(map[string][]byte),
		failed:  make(map[string]error),
		now:     time.Now,
	}
}

func (b *CookieBackend) Get(key string) ([]byte, bool, error) {
	if v, ok := b.pending[key]; ok {
		return v, v != nil, nil
	}

	c, err := b.r.Cookie(key)
	if errors.Is(err, http.ErrNoCookie) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b.codec.Decode(key, c.Value, b.now())
}

func (b *CookieBackend) Set(key string, value []byte, ttl time.Duration) error {
	err := b.set(key, value, ttl)
	if err != nil {
		b.failed[key] = err
	} else {
		delete(b.failed, key)
	}
	return err
}

// Err reports why the last write of key in this request failed, or nil if
// it succeeded. A failed write leaves the client's previous cookie in place.
func (b *CookieBackend) Err(key string) error {
	return b.failed[key]
}

func (b *CookieBackend) set(key string, value []byte, ttl time.Duration) error {
	now := b.now()

	token, err := b.codec.Encode(key, value, now, ttl)
	if err != nil {
		return err
	}

	c := &http.Cookie{
		Name:     key,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(ttl),
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   b.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if line := c.String(); len(line) > MaxCookieSize {
		return fmt.Errorf("%w: cookie %q is %d bytes", ErrValueTooLarge, key, len(line))
	}

	b.setCookie(c)
	b.pending[key] = append([]byte(nil), value...)
	return nil
}

func (b *CookieBackend) Delete(key string) error {
	b.setCookie(&http.Cookie{
		Name:     key,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   b.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	b.pending[key] = nil
	delete(b.failed, key)
	return nil
}

// setCookie replaces any Set-Cookie already queued for the same name, so
// only the last write of a request reaches the client.
func (b *CookieBackend) setCookie(c *http.Cookie) {
	h := b.w.Header()
	prefix := c.Name + "="

	kept := make([]string, 0, len(h["Set-Cookie"])+1)
	for _, v := range h["Set-Cookie"] {
		if !strings.HasPrefix(v, prefix) {
			kept = append(kept, v)
		}
	}
	h["Set-Cookie"] = append(kept, c.String())
}
