// Package session implements the stateless admin session credential:
// an HMAC-signed timestamp with a fixed time-to-live, verified from
// the shared secret on every request. Nothing is stored server-side;
// rotating the secret is the only way to revoke outstanding tokens.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nordkredit/wallboard/pkg/config"
)

// CookieName is the session cookie set on successful login.
const CookieName = "wallboard_admin_session"

// Codec issues and verifies session tokens and checks the admin
// password. All failure modes return false; no method panics on
// malformed input.
type Codec struct {
	secret         []byte
	password       string
	passwordBcrypt string
	ttl            time.Duration
	now            func() time.Time
}

// New creates a Codec from the auth configuration.
func New(cfg *config.AuthConfig) *Codec {
	return &Codec{
		secret:         []byte(cfg.SessionSecret),
		password:       cfg.AdminPassword,
		passwordBcrypt: cfg.AdminPasswordBcrypt,
		ttl:            cfg.SessionTTL,
		now:            time.Now,
	}
}

// TTL returns the token time-to-live, which is also the cookie max-age.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// CreateToken returns a new token of the form
// "<unix millis>.<hex hmac-sha256(secret, millis)>".
func (c *Codec) CreateToken() string {
	payload := strconv.FormatInt(c.now().UnixMilli(), 10)

	return payload + "." + c.sign(payload)
}

// VerifyToken reports whether token carries a valid signature and is
// within the TTL window. Timestamps in the future are rejected: clock
// skew is not expected between issuer and verifier, and accepting them
// would extend the effective lifetime.
func (c *Codec) VerifyToken(token string) bool {
	payload, sig, ok := strings.Cut(token, ".")
	if !ok || payload == "" || sig == "" {
		return false
	}

	if strings.Contains(sig, ".") {
		return false
	}

	if !hmac.Equal([]byte(c.sign(payload)), []byte(sig)) {
		return false
	}

	issuedAt, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return false
	}

	age := c.now().UnixMilli() - issuedAt
	if age < 0 {
		return false
	}

	return age <= c.ttl.Milliseconds()
}

// VerifyPassword checks the login password. With a bcrypt hash
// configured it delegates to bcrypt; otherwise it does a length check
// followed by a constant-time compare against the shared password.
func (c *Codec) VerifyPassword(candidate string) bool {
	if c.passwordBcrypt != "" {
		return bcrypt.CompareHashAndPassword(
			[]byte(c.passwordBcrypt), []byte(candidate),
		) == nil
	}

	// ConstantTimeCompare requires equal-length inputs.
	if len(candidate) != len(c.password) {
		return false
	}

	return subtle.ConstantTimeCompare(
		[]byte(candidate), []byte(c.password),
	) == 1
}

func (c *Codec) sign(payload string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(payload))

	return hex.EncodeToString(mac.Sum(nil))
}
