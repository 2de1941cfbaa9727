package impl

import (
	"errors"
	"testing"
	"time"

	"userauth/internal/domain"

	"github.com/google/uuid"
)

var cheapArgon2 = Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestPasswordServiceHashAndVerify(t *testing.T) {
	ps := NewPasswordServiceWithParams(cheapArgon2)

	hash, salt, params, algo, ver, err := ps.Hash("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	cred := &domain.PasswordCredential{Algo: algo, Hash: hash, Salt: salt, ParamsJSON: params, PasswordVer: ver}

	if rehash, ok := ps.Verify("correct horse", cred); !ok || rehash {
		t.Fatalf("expected ok without rehash, got ok=%v rehash=%v", ok, rehash)
	}
	if _, ok := ps.Verify("wrong horse", cred); ok {
		t.Fatalf("wrong password must not verify")
	}

	stronger := cheapArgon2
	stronger.Time = 2
	if rehash, ok := NewPasswordServiceWithParams(stronger).Verify("correct horse", cred); !ok || !rehash {
		t.Fatalf("policy change should request rehash, got ok=%v rehash=%v", ok, rehash)
	}
}

func TestPasswordServiceRejectsEmptyAndUnknown(t *testing.T) {
	ps := NewPasswordServiceWithParams(cheapArgon2)
	if _, _, _, _, _, err := ps.Hash(""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
	if _, ok := ps.Verify("x", &domain.PasswordCredential{Algo: "md5", Hash: []byte("x")}); ok {
		t.Fatalf("unknown algorithm must not verify")
	}
}

func TestImportDjangoHash(t *testing.T) {
	ps := NewPasswordServiceWithParams(cheapArgon2)
	userID := uuid.New()

	cred, err := ImportDjangoHash(userID, legacyAliceHash, time.Now())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if cred.UserID != userID || cred.Algo != AlgoPBKDF2SHA256 || string(cred.Salt) != "seasalt" {
		t.Fatalf("unexpected credential: %+v", cred)
	}
	if rehash, ok := ps.Verify("Str0ng!Pass", cred); !ok || !rehash {
		t.Fatalf("legacy hash should verify and ask for rehash, got ok=%v rehash=%v", ok, rehash)
	}
	if _, ok := ps.Verify("str0ng!pass", cred); ok {
		t.Fatalf("wrong password must not verify")
	}

	for _, bad := range []string{
		"",
		"pbkdf2_sha256$abc$salt$aGFzaA==",
		"pbkdf2_sha256$1000$$aGFzaA==",
		"pbkdf2_sha256$1000$salt$!!!",
		"pbkdf2_sha256$1000$salt",
	} {
		if _, err := ImportDjangoHash(userID, bad, time.Now()); !errors.Is(err, ErrMalformedHash) {
			t.Fatalf("%q: expected ErrMalformedHash, got %v", bad, err)
		}
	}
	if _, err := ImportDjangoHash(userID, "bcrypt_sha256$x$y$z", time.Now()); !errors.Is(err, ErrUnsupportedHash) {
		t.Fatalf("expected ErrUnsupportedHash, got %v", err)
	}
}
