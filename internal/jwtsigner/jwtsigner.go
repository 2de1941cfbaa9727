// Package jwtsigner signs and verifies the service's JWTs. Callers pass a
// subject and whatever extra claims they need; the signer owns the standard
// claims (iss, aud, sub, iat, exp, jti, token_type).
package jwtsigner

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"

	ClaimTokenType = "token_type"
)

var (
	ErrInvalid   = errors.New("jwtsigner: invalid token")
	ErrExpired   = errors.New("jwtsigner: token expired")
	ErrWrongType = errors.New("jwtsigner: unexpected token type")
)

// Signer holds the key material for one signing algorithm.
type Signer struct {
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	public    ed25519.PublicKey

	KeyID    string
	Issuer   string
	Audience string

	now func() time.Time
}

type Option func(*Signer)

// WithClock replaces time.Now for iat/exp and for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) { s.now = now }
}

func NewHS256(secret []byte, kid, iss, aud string, opts ...Option) (*Signer, error) {
	if len(secret) < 32 {
		return nil, errors.New("hs256 secret must be at least 32 bytes")
	}
	s := &Signer{
		method:    jwt.SigningMethodHS256,
		signKey:   secret,
		verifyKey: secret,
		KeyID:     kid,
		Issuer:    iss,
		Audience:  aud,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// NewFromBase64 creates an EdDSA signer from base64-encoded ed25519 private key
// bytes. If privB64 is empty, it generates an ephemeral key (good for local dev).
func NewFromBase64(privB64, kid, iss, aud string, opts ...Option) (*Signer, error) {
	var priv ed25519.PrivateKey
	if privB64 == "" {
		_, p, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		priv = p
	} else {
		raw, err := base64.StdEncoding.DecodeString(privB64)
		if err != nil {
			return nil, err
		}
		if len(raw) != ed25519.PrivateKeySize {
			return nil, errors.New("invalid ed25519 private key size")
		}
		priv = ed25519.PrivateKey(raw)
	}
	pub := priv.Public().(ed25519.PublicKey)
	s := &Signer{
		method:    jwt.SigningMethodEdDSA,
		signKey:   priv,
		verifyKey: pub,
		public:    pub,
		KeyID:     kid,
		Issuer:    iss,
		Audience:  aud,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func (s *Signer) Now() time.Time { return s.now().UTC() }

// Issued describes a freshly signed token.
type Issued struct {
	Token     string
	JTI       uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Sign issues a JWT of tokenType for subject sub. jti may be uuid.Nil, in which
// case a random one is generated. Extra claims cannot override the standard ones.
func (s *Signer) Sign(sub, tokenType string, jti uuid.UUID, ttl time.Duration, claims map[string]any) (Issued, error) {
	if jti == uuid.Nil {
		jti = uuid.New()
	}
	now := s.Now().Truncate(time.Second)
	exp := now.Add(ttl)

	m := jwt.MapClaims{}
	for k, v := range claims {
		m[k] = v
	}
	m["iss"] = s.Issuer
	m["aud"] = s.Audience
	m["sub"] = sub
	m["iat"] = now.Unix()
	m["exp"] = exp.Unix()
	m["jti"] = jti.String()
	m[ClaimTokenType] = tokenType

	t := jwt.NewWithClaims(s.method, m)
	if s.KeyID != "" {
		t.Header["kid"] = s.KeyID
	}
	signed, err := t.SignedString(s.signKey)
	if err != nil {
		return Issued{}, fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return Issued{Token: signed, JTI: jti, IssuedAt: now, ExpiresAt: exp}, nil
}

// Parse verifies signature, issuer, audience, expiry and token type and
// returns the claims.
func (s *Signer) Parse(tokenStr, wantType string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithIssuer(s.Issuer),
		jwt.WithAudience(s.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return s.verifyKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if typ, _ := claims[ClaimTokenType].(string); typ != wantType {
		return nil, ErrWrongType
	}
	return claims, nil
}

// JTI extracts the token id claim.
func JTI(claims jwt.MapClaims) (uuid.UUID, error) {
	raw, _ := claims["jti"].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad jti", ErrInvalid)
	}
	return id, nil
}

// PublicJWK renders the public part as JWK for the JWKS endpoint. HMAC
// signers have nothing to publish and return nil.
func (s *Signer) PublicJWK() map[string]any {
	if s.public == nil {
		return nil
	}
	return map[string]any{
		"kty": "OKP",
		"crv": "Ed25519",
		"alg": "EdDSA",
		"use": "sig",
		"kid": s.KeyID,
		"x":   base64.RawURLEncoding.EncodeToString(s.public),
	}
}
