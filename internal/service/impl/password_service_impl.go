package impl

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"userauth/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

const (
	AlgoArgon2id     = "argon2id"
	AlgoPBKDF2SHA256 = "pbkdf2_sha256"
)

type Argon2Params struct {
	// Stored alongside the hash so verification uses the original cost.
	Time    uint32 `json:"t"` // iterations
	Memory  uint32 `json:"m"` // KiB
	Threads uint8  `json:"p"`
	KeyLen  uint32 `json:"k"`
	SaltLen uint32 `json:"s"`
}

// PBKDF2Params describes hashes imported in the Django
// "pbkdf2_sha256$<iterations>$<salt>$<b64 hash>" format.
type PBKDF2Params struct {
	Iterations int `json:"i"`
}

type PasswordServiceImpl struct {
	currentVer int
	cur        Argon2Params
}

func NewPasswordServiceArgon2id() *PasswordServiceImpl {
	return NewPasswordServiceWithParams(Argon2Params{
		Time:    3,
		Memory:  64 * 1024,
		Threads: 1,
		KeyLen:  32,
		SaltLen: 16,
	})
}

// NewPasswordServiceWithParams is used by tests to keep hashing cheap.
func NewPasswordServiceWithParams(p Argon2Params) *PasswordServiceImpl {
	return &PasswordServiceImpl{currentVer: 1, cur: p}
}

func (p *PasswordServiceImpl) Hash(password string) (hash, salt, paramsJSON []byte, algo string, ver int, err error) {
	if password == "" {
		return nil, nil, nil, "", 0, ErrEmptyPassword
	}
	salt = make([]byte, p.cur.SaltLen)
	if _, err = rand.Read(salt); err != nil {
		return nil, nil, nil, "", 0, err
	}
	hash = argon2.IDKey([]byte(password), salt, p.cur.Time, p.cur.Memory, p.cur.Threads, p.cur.KeyLen)
	paramsJSON, err = json.Marshal(p.cur)
	if err != nil {
		return nil, nil, nil, "", 0, err
	}
	return hash, salt, paramsJSON, AlgoArgon2id, p.currentVer, nil
}

func (p *PasswordServiceImpl) Verify(password string, cred interface {
	GetAlgo() string
	GetHash() []byte
	GetSalt() []byte
	GetParamsJSON() []byte
	GetPasswordVer() int
}) (rehashNeeded bool, ok bool) {
	switch cred.GetAlgo() {
	case AlgoArgon2id:
	case AlgoPBKDF2SHA256:
		// legacy hashes are always upgraded after a successful login
		ok = verifyPBKDF2(password, cred.GetSalt(), cred.GetHash(), cred.GetParamsJSON())
		return ok, ok
	default:
		return false, false
	}

	var stored Argon2Params
	if err := json.Unmarshal(cred.GetParamsJSON(), &stored); err != nil {
		return false, false
	}
	calculated := argon2.IDKey([]byte(password), cred.GetSalt(), stored.Time, stored.Memory, stored.Threads, stored.KeyLen)
	ok = subtle.ConstantTimeCompare(calculated, cred.GetHash()) == 1

	rehashNeeded = ok && (cred.GetPasswordVer() != p.currentVer || stored != p.cur)
	return rehashNeeded, ok
}

func verifyPBKDF2(password string, salt, want, paramsJSON []byte) bool {
	var params PBKDF2Params
	if err := json.Unmarshal(paramsJSON, &params); err != nil || params.Iterations <= 0 {
		return false
	}
	got := pbkdf2.Key([]byte(password), salt, params.Iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// ImportDjangoHash turns an encoded Django pbkdf2_sha256 password into a
// credential row for userID.
func ImportDjangoHash(userID domain.UserID, encoded string, now time.Time) (*domain.PasswordCredential, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 4 {
		return nil, ErrMalformedHash
	}
	if parts[0] != AlgoPBKDF2SHA256 {
		return nil, ErrUnsupportedHash
	}
	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return nil, ErrMalformedHash
	}
	if parts[2] == "" {
		return nil, ErrMalformedHash
	}
	hash, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil || len(hash) == 0 {
		return nil, ErrMalformedHash
	}
	params, err := json.Marshal(PBKDF2Params{Iterations: iterations})
	if err != nil {
		return nil, err
	}
	return &domain.PasswordCredential{
		ID:          uuid.New(),
		UserID:      userID,
		Algo:        AlgoPBKDF2SHA256,
		Hash:        hash,
		Salt:        []byte(parts[2]),
		ParamsJSON:  params,
		PasswordVer: 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
