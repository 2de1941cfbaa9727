// Package identity derives the canonical identity fields from an email
// address. Nothing here touches storage; callers normalize before every write.
package identity

import (
	"strings"
	"unicode/utf8"

	"userauth/internal/domain"
)

const DefaultMaxFieldLength = 100

type Config struct {
	// MaxFieldLength bounds username and full_name, in runes.
	MaxFieldLength int
}

// Fields are the identity columns the normalizer owns.
type Fields struct {
	Email    string
	Username string
	FullName string
}

type Normalizer struct {
	cfg Config
}

func NewNormalizer(cfg Config) *Normalizer {
	if cfg.MaxFieldLength <= 0 {
		cfg.MaxFieldLength = DefaultMaxFieldLength
	}
	return &Normalizer{cfg: cfg}
}

// Normalize fills blank Username and FullName with the email local part.
// Non-blank values are returned untouched, so running it on every save is
// idempotent.
func (n *Normalizer) Normalize(in Fields) (Fields, error) {
	email, err := NormalizeEmail(in.Email)
	if err != nil {
		return Fields{}, err
	}
	local := LocalPart(email)

	out := Fields{Email: email, Username: in.Username, FullName: in.FullName}
	if isBlank(out.FullName) {
		out.FullName = local
	}
	if isBlank(out.Username) {
		out.Username = local
	}

	for _, f := range []struct{ name, value string }{
		{"username", out.Username},
		{"full_name", out.FullName},
	} {
		if utf8.RuneCountInString(f.value) > n.cfg.MaxFieldLength {
			return Fields{}, &domain.FieldTooLongError{Field: f.name, Max: n.cfg.MaxFieldLength}
		}
	}
	return out, nil
}

// NormalizeEmail trims the address and lower-cases its domain. The address
// must hold exactly one '@' with something on both sides.
func NormalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	local, host, ok := strings.Cut(email, "@")
	if !ok || local == "" || host == "" || strings.Contains(host, "@") {
		return "", domain.ErrInvalidEmailFormat
	}
	return local + "@" + strings.ToLower(host), nil
}

// LocalPart returns the substring before '@', or "" when there is none.
func LocalPart(email string) string {
	local, _, ok := strings.Cut(email, "@")
	if !ok {
		return ""
	}
	return local
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
