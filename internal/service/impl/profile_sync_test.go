package impl

import (
	"context"
	"errors"
	"testing"

	"userauth/internal/domain"

	"github.com/google/uuid"
)

func TestDeriveProfile(t *testing.T) {
	sync := NewProfileSync(ProfileConfig{DefaultAvatar: "avatar.png"})
	owner := &domain.User{ID: uuid.New(), FullName: "Alice"}

	prof := &domain.Profile{DisplayName: "   "}
	sync.DeriveProfile(prof, owner)
	if prof.UserID != owner.ID || prof.DisplayName != "Alice" || prof.Avatar != "avatar.png" {
		t.Fatalf("unexpected derived profile: %+v", prof)
	}

	prof = &domain.Profile{DisplayName: "Al", Avatar: "me.png"}
	sync.DeriveProfile(prof, owner)
	if prof.DisplayName != "Al" || prof.Avatar != "me.png" {
		t.Fatalf("set fields must be kept: %+v", prof)
	}
}

func TestProfileSyncIdentityUpdatedRecreatesMissingProfile(t *testing.T) {
	st := newMemoryStore()
	sync := NewProfileSync(ProfileConfig{})
	user := &domain.User{ID: uuid.New(), Email: "alice@example.com", Username: "alice", FullName: "alice"}
	ctx := context.Background()

	var created bool
	err := st.WithTx(ctx, func(tx storeTx) error {
		var err error
		_, created, err = sync.IdentityUpdated(ctx, tx, user)
		return err
	})
	if err != nil || !created {
		t.Fatalf("expected profile to be created, created=%v err=%v", created, err)
	}

	user.FullName = "Alice L"
	var prof *domain.Profile
	err = st.WithTx(ctx, func(tx storeTx) error {
		var err error
		prof, created, err = sync.IdentityUpdated(ctx, tx, user)
		return err
	})
	if err != nil || created {
		t.Fatalf("second sync should update, created=%v err=%v", created, err)
	}
	if prof.DisplayName != "alice" || prof.Label() != "alice" {
		t.Fatalf("non-blank display name must not follow the full name: %+v", prof)
	}
}

func TestProfileSyncFailureIsOrphaned(t *testing.T) {
	st := newMemoryStore()
	st.failProfileCreate = errors.New("boom")
	sync := NewProfileSync(ProfileConfig{})
	user := &domain.User{ID: uuid.New(), FullName: "alice"}

	err := st.WithTx(context.Background(), func(tx storeTx) error {
		_, err := sync.IdentityCreated(context.Background(), tx, user)
		return err
	})
	if !errors.Is(err, domain.ErrOrphanedIdentity) {
		t.Fatalf("expected ErrOrphanedIdentity, got %v", err)
	}
}
