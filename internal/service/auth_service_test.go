package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"action_items/internal/domain"
	"action_items/internal/testutil"

	"golang.org/x/crypto/bcrypt"
)

func newAuthService() (*AuthService, *testutil.UserStore, *testutil.AuditStore) {
	users := testutil.NewUserStore()
	audit := &testutil.AuditStore{}
	svc := NewAuthService(users, NewTokenIssuer("test-secret", time.Hour), NewTokenRevoker(nil), NewAuditService(audit))
	svc.HashCost = bcrypt.MinCost
	return svc, users, audit
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, audit := newAuthService()
	ctx := context.Background()

	u, token, err := svc.Register(ctx, domain.Registration{Name: " Ada ", Email: "Ada@Example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "ada@example.com" || u.Name != "Ada" || token == "" {
		t.Fatalf("unexpected user %+v", u)
	}
	if u.PasswordHash == "secret1" {
		t.Fatal("password stored in clear")
	}

	claims, err := svc.Authenticate(ctx, token)
	if err != nil || claims.UserID != u.ID {
		t.Fatalf("authenticate: %+v %v", claims, err)
	}

	if _, _, err := svc.Register(ctx, domain.Registration{Name: "Other", Email: "ADA@example.com", Password: "secret2"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	logged, _, err := svc.Login(ctx, domain.Credentials{Email: "ada@example.com", Password: "secret1"})
	if err != nil || logged.ID != u.ID {
		t.Fatalf("login: %v", err)
	}
	if _, _, err := svc.Login(ctx, domain.Credentials{Email: "ada@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, _, err := svc.Login(ctx, domain.Credentials{Email: "nobody@example.com", Password: "secret1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: %v", err)
	}

	want := []string{domain.AuditActionRegister, domain.AuditActionLogin}
	got := audit.Actions()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("audit %v", got)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newAuthService()

	_, _, err := svc.Register(context.Background(), domain.Registration{Name: "", Email: "not-an-email", Password: "123"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, f := range []string{"name", "email", "password"} {
		if _, ok := verr.Fields[f]; !ok {
			t.Errorf("no error for %s", f)
		}
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	_, token, err := svc.Register(ctx, domain.Registration{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	claims, err := svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Logout(ctx, claims); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Authenticate(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("revoked token accepted: %v", err)
	}
}

func TestMeAndUpdateProfile(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	u, _, err := svc.Register(ctx, domain.Registration{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}

	name := "  Ada L. "
	updated, err := svc.UpdateProfile(ctx, u.ID, domain.ProfileUpdate{Name: &name})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Ada L." {
		t.Fatalf("name %q", updated.Name)
	}

	me, err := svc.Me(ctx, u.ID)
	if err != nil || me.Name != "Ada L." {
		t.Fatalf("me: %+v %v", me, err)
	}
	if _, err := svc.Me(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	bad := "not a url"
	if _, err := svc.UpdateProfile(ctx, u.ID, domain.ProfileUpdate{AvatarURL: &bad}); err == nil {
		t.Fatal("expected validation error for avatar url")
	}
}
