package impl

import (
	"context"
	"errors"
	"testing"
	"time"

	"userauth/internal/domain"
	"userauth/internal/dto"
	"userauth/internal/events"
	"userauth/internal/identity"

	"github.com/google/uuid"
)

type stubPasswordService struct {
	hashFunc   func(password string) (hash, salt, paramsJSON []byte, algo string, ver int, err error)
	verifyFunc func(password string, cred interface {
		GetAlgo() string
		GetHash() []byte
		GetSalt() []byte
		GetParamsJSON() []byte
		GetPasswordVer() int
	}) (rehashNeeded bool, ok bool)

	hashCalls   []string
	verifyCalls []string
}

func (s *stubPasswordService) Hash(password string) (hash, salt, paramsJSON []byte, algo string, ver int, err error) {
	s.hashCalls = append(s.hashCalls, password)
	if s.hashFunc != nil {
		return s.hashFunc(password)
	}
	return []byte("hash"), []byte("salt"), []byte("params"), AlgoArgon2id, 1, nil
}

func (s *stubPasswordService) Verify(password string, cred interface {
	GetAlgo() string
	GetHash() []byte
	GetSalt() []byte
	GetParamsJSON() []byte
	GetPasswordVer() int
},
) (rehashNeeded bool, ok bool) {
	s.verifyCalls = append(s.verifyCalls, password)
	if s.verifyFunc != nil {
		return s.verifyFunc(password, cred)
	}
	return false, false
}

type stubTokenService struct {
	issueResponse *dto.TokenResponse
	issueErr      error

	issueCalls []struct {
		userID uuid.UUID
		ip     string
		ua     string
	}
	blacklisted []string
}

func (s *stubTokenService) Issue(ctx context.Context, user *domain.User, ip, ua string) (*dto.TokenResponse, error) {
	s.issueCalls = append(s.issueCalls, struct {
		userID uuid.UUID
		ip     string
		ua     string
	}{userID: user.ID, ip: ip, ua: ua})
	if s.issueErr != nil {
		return nil, s.issueErr
	}
	return s.issueResponse, nil
}

func (s *stubTokenService) Refresh(ctx context.Context, refreshToken string, ip, ua string) (*dto.TokenResponse, error) {
	return nil, errors.New("not implemented")
}

func (s *stubTokenService) Blacklist(ctx context.Context, refreshToken string) error {
	s.blacklisted = append(s.blacklisted, refreshToken)
	return nil
}

func (s *stubTokenService) RevokeSession(ctx context.Context, sessionID domain.SessionID) error {
	return errors.New("not implemented")
}

func (s *stubTokenService) VerifyAccess(ctx context.Context, req dto.VerifyRequest) (dto.VerifyResponse, error) {
	return dto.VerifyResponse{Valid: false}, errors.New("not implemented")
}

func newTestAuthService(st *memoryStore, ps *stubPasswordService, ts *stubTokenService) (*AuthServiceImpl, *events.Recorder) {
	rec := &events.Recorder{}
	identities := &IdentityServiceImpl{
		Store:      st,
		Normalizer: identity.NewNormalizer(identity.Config{}),
		Sync:       NewProfileSync(ProfileConfig{}),
		Events:     rec,
	}
	return NewAuthServiceImpl(identities, ps, NewPasswordPolicy(), ts), rec
}

func TestAuthServiceRegisterCreatesUserCredentialAndProfile(t *testing.T) {
	st := newMemoryStore()
	ps := &stubPasswordService{}
	svc, rec := newTestAuthService(st, ps, &stubTokenService{})

	ctx := context.Background()
	req := dto.RegisterRequest{Email: "alice@example.com", Password: "Str0ng!Pass", Password2: "Str0ng!Pass"}
	resp, err := svc.Register(ctx, req)
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if resp.User.Username != "alice" || resp.User.FullName != "alice" {
		t.Fatalf("expected derived identity fields, got %+v", resp.User)
	}
	if resp.Profile.DisplayName != "alice" || resp.Profile.Avatar != domain.DefaultAvatar {
		t.Fatalf("unexpected profile: %+v", resp.Profile)
	}
	if resp.Profile.Country != nil || resp.Profile.Bio != nil {
		t.Fatalf("optional profile fields should start empty: %+v", resp.Profile)
	}
	if len(ps.hashCalls) != 1 || ps.hashCalls[0] != req.Password {
		t.Fatalf("expected password hash to be invoked once with provided password")
	}

	user, ok := st.userByEmail("alice@example.com")
	if !ok {
		t.Fatalf("user was not persisted")
	}
	cred, ok := st.credentialByUserID(user.ID)
	if !ok {
		t.Fatalf("password credential was not stored")
	}
	if string(cred.Hash) != "hash" || cred.Algo != AlgoArgon2id {
		t.Fatalf("unexpected credential data: %+v", cred)
	}

	evs := rec.Events()
	if len(evs) != 2 {
		t.Fatalf("expected registered and synced events, got %d", len(evs))
	}
	if _, ok := evs[0].(events.UserRegistered); !ok {
		t.Fatalf("first event should be UserRegistered, got %T", evs[0])
	}
	if synced, ok := evs[1].(events.ProfileSynced); !ok || !synced.Created {
		t.Fatalf("second event should be a created ProfileSynced, got %#v", evs[1])
	}
}

func TestAuthServiceRegisterStoresSuppliedUsernameAsFullName(t *testing.T) {
	st := newMemoryStore()
	svc, _ := newTestAuthService(st, &stubPasswordService{}, &stubTokenService{})

	resp, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email:     "bob.smith@Example.COM",
		Username:  "Bobby Tables",
		Password:  "Str0ng!Pass",
		Password2: "Str0ng!Pass",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if resp.User.Email != "bob.smith@example.com" {
		t.Fatalf("email domain should be lower-cased, got %q", resp.User.Email)
	}
	if resp.User.Username != "bob.smith" {
		t.Fatalf("username should come from the email, got %q", resp.User.Username)
	}
	if resp.User.FullName != "Bobby Tables" || resp.Profile.DisplayName != "Bobby Tables" {
		t.Fatalf("full name should be the submitted username: %+v %+v", resp.User, resp.Profile)
	}
}

func TestAuthServiceRegisterValidationWritesNothing(t *testing.T) {
	cases := []struct {
		name string
		req  dto.RegisterRequest
		want error
	}{
		{
			name: "missing fields",
			req:  dto.RegisterRequest{Email: "alice@example.com"},
			want: domain.ErrInvalidRequest,
		},
		{
			name: "no at sign",
			req:  dto.RegisterRequest{Email: "aliceexample.com", Password: "Str0ng!Pass", Password2: "Str0ng!Pass"},
			want: domain.ErrInvalidEmailFormat,
		},
		{
			name: "mismatch",
			req:  dto.RegisterRequest{Email: "alice@example.com", Password: "Str0ng!Pass", Password2: "Str0ng!Pas"},
			want: domain.ErrPasswordMismatch,
		},
		{
			name: "weak password",
			req:  dto.RegisterRequest{Email: "alice@example.com", Password: "12345678", Password2: "12345678"},
			want: domain.ErrWeakPassword,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := newMemoryStore()
			ps := &stubPasswordService{}
			svc, rec := newTestAuthService(st, ps, &stubTokenService{})

			if _, err := svc.Register(context.Background(), tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if u, p, c := st.counts(); u+p+c != 0 {
				t.Fatalf("nothing should be written, got users=%d profiles=%d credentials=%d", u, p, c)
			}
			if len(ps.hashCalls) != 0 {
				t.Fatalf("password must not be hashed on validation failure")
			}
			if len(rec.Events()) != 0 {
				t.Fatalf("no events expected, got %v", rec.Events())
			}
		})
	}
}

func TestAuthServiceRegisterRollsBackWhenProfileFails(t *testing.T) {
	st := newMemoryStore()
	st.failProfileCreate = errors.New("disk full")
	svc, rec := newTestAuthService(st, &stubPasswordService{}, &stubTokenService{})

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email: "alice@example.com", Password: "Str0ng!Pass", Password2: "Str0ng!Pass",
	})
	if !errors.Is(err, domain.ErrOrphanedIdentity) {
		t.Fatalf("expected ErrOrphanedIdentity, got %v", err)
	}
	if u, p, c := st.counts(); u+p+c != 0 {
		t.Fatalf("identity must not outlive a failed profile, got users=%d profiles=%d credentials=%d", u, p, c)
	}
	if len(rec.Events()) != 0 {
		t.Fatalf("no events expected after rollback")
	}
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	st := newMemoryStore()
	svc, _ := newTestAuthService(st, &stubPasswordService{}, &stubTokenService{})
	ctx := context.Background()

	req := dto.RegisterRequest{Email: "alice@example.com", Password: "Str0ng!Pass", Password2: "Str0ng!Pass"}
	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, req)
	var dup *domain.DuplicateIdentityError
	if !errors.As(err, &dup) || dup.Field != "email" {
		t.Fatalf("expected duplicate email, got %v", err)
	}
	if u, _, _ := st.counts(); u != 1 {
		t.Fatalf("expected exactly one user, got %d", u)
	}
}

func seedLoginUser(t *testing.T, st *memoryStore, email string, disabled bool) *domain.User {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	user := &domain.User{ID: uuid.New(), Email: email, Username: "bob", FullName: "bob", IsDisabled: disabled}
	cred := &domain.PasswordCredential{
		ID:          uuid.New(),
		UserID:      user.ID,
		Algo:        AlgoArgon2id,
		Hash:        []byte("stored-hash"),
		Salt:        []byte("stored-salt"),
		ParamsJSON:  []byte("stored-params"),
		PasswordVer: 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := st.WithTx(ctx, func(tx storeTx) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		return tx.Credentials().UpsertPassword(ctx, cred)
	}); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
	return user
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	st := newMemoryStore()
	user := seedLoginUser(t, st, "bob@example.com", false)

	ps := &stubPasswordService{
		verifyFunc: func(password string, cred interface {
			GetAlgo() string
			GetHash() []byte
			GetSalt() []byte
			GetParamsJSON() []byte
			GetPasswordVer() int
		},
		) (bool, bool) {
			return false, password == "super-secret"
		},
	}
	ts := &stubTokenService{issueResponse: &dto.TokenResponse{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900}}
	svc, _ := newTestAuthService(st, ps, ts)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Email: " bob@EXAMPLE.com ", Password: "super-secret"}, "10.0.0.1", "unit-test")
	if err != nil {
		t.Fatalf("login returned error: %v", err)
	}
	if resp.AccessToken != "access" || resp.RefreshToken != "refresh" {
		t.Fatalf("unexpected login response: %+v", resp)
	}
	if len(ps.hashCalls) != 0 {
		t.Fatalf("expected no rehash, got %d hash calls", len(ps.hashCalls))
	}
	if len(ts.issueCalls) != 1 || ts.issueCalls[0].userID != user.ID || ts.issueCalls[0].ip != "10.0.0.1" {
		t.Fatalf("token service issue not invoked correctly: %+v", ts.issueCalls)
	}
}

func TestAuthServiceLoginRehashesWhenNeeded(t *testing.T) {
	st := newMemoryStore()
	user := seedLoginUser(t, st, "carol@example.com", false)

	ps := &stubPasswordService{
		hashFunc: func(password string) (hash, salt, paramsJSON []byte, algo string, ver int, err error) {
			return []byte("new-hash"), []byte("new-salt"), []byte("new-params"), AlgoArgon2id, 2, nil
		},
		verifyFunc: func(password string, cred interface {
			GetAlgo() string
			GetHash() []byte
			GetSalt() []byte
			GetParamsJSON() []byte
			GetPasswordVer() int
		},
		) (bool, bool) {
			return true, true
		},
	}
	ts := &stubTokenService{issueResponse: &dto.TokenResponse{AccessToken: "a", RefreshToken: "r"}}
	svc, _ := newTestAuthService(st, ps, ts)

	if _, err := svc.Login(context.Background(), dto.LoginRequest{Email: user.Email, Password: "pw"}, "", ""); err != nil {
		t.Fatalf("login returned error: %v", err)
	}
	cred, _ := st.credentialByUserID(user.ID)
	if string(cred.Hash) != "new-hash" || cred.PasswordVer != 2 {
		t.Fatalf("credential was not rehashed: %+v", cred)
	}
}

func TestAuthServiceLoginFailures(t *testing.T) {
	st := newMemoryStore()
	seedLoginUser(t, st, "bob@example.com", false)
	seedDisabled := &domain.User{ID: uuid.New(), Email: "dora@example.com", Username: "dora", FullName: "dora", IsDisabled: true}
	ctx := context.Background()
	if err := st.WithTx(ctx, func(tx storeTx) error { return tx.Users().Create(ctx, seedDisabled) }); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ps := &stubPasswordService{
		verifyFunc: func(password string, cred interface {
			GetAlgo() string
			GetHash() []byte
			GetSalt() []byte
			GetParamsJSON() []byte
			GetPasswordVer() int
		},
		) (bool, bool) {
			return false, password == "right"
		},
	}
	ts := &stubTokenService{issueResponse: &dto.TokenResponse{}}
	svc, _ := newTestAuthService(st, ps, ts)

	cases := []struct {
		name string
		req  dto.LoginRequest
		want error
	}{
		{"wrong password", dto.LoginRequest{Email: "bob@example.com", Password: "wrong"}, domain.ErrInvalidCredentials},
		{"unknown email", dto.LoginRequest{Email: "nobody@example.com", Password: "right"}, domain.ErrInvalidCredentials},
		{"malformed email", dto.LoginRequest{Email: "bob", Password: "right"}, domain.ErrInvalidCredentials},
		{"disabled", dto.LoginRequest{Email: "dora@example.com", Password: "right"}, domain.ErrUserDisabled},
		{"missing password", dto.LoginRequest{Email: "bob@example.com"}, domain.ErrInvalidRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Login(ctx, tc.req, "", ""); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if len(ts.issueCalls) != 0 {
		t.Fatalf("no tokens should be issued, got %d", len(ts.issueCalls))
	}
}

func TestAuthServiceLogoutBlacklists(t *testing.T) {
	ts := &stubTokenService{}
	svc, _ := newTestAuthService(newMemoryStore(), &stubPasswordService{}, ts)
	if err := svc.Logout(context.Background(), "refresh-token"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(ts.blacklisted) != 1 || ts.blacklisted[0] != "refresh-token" {
		t.Fatalf("expected refresh token to be blacklisted, got %v", ts.blacklisted)
	}
}

func TestAuthServiceImportLegacyUser(t *testing.T) {
	st := newMemoryStore()
	svc, rec := newTestAuthService(st, &stubPasswordService{}, &stubTokenService{})

	user, err := svc.ImportLegacyUser(context.Background(), "Alice@Example.COM", "", legacyAliceHash)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if user.Email != "Alice@example.com" || user.Username != "Alice" || user.FullName != "Alice" {
		t.Fatalf("unexpected identity: %+v", user)
	}
	cred, ok := st.credentialByUserID(user.ID)
	if !ok || cred.Algo != AlgoPBKDF2SHA256 {
		t.Fatalf("expected imported pbkdf2 credential, got %+v", cred)
	}
	if _, profiles, _ := st.counts(); profiles != 1 {
		t.Fatalf("expected a profile, got %d", profiles)
	}
	if len(rec.Events()) == 0 {
		t.Fatalf("expected events after import")
	}

	if _, err := svc.ImportLegacyUser(context.Background(), "bob@example.com", "", "md5$x$y"); !errors.Is(err, ErrMalformedHash) {
		t.Fatalf("expected ErrMalformedHash, got %v", err)
	}
	if users, _, _ := st.counts(); users != 1 {
		t.Fatalf("bad hash must not create a user, got %d users", users)
	}
}
