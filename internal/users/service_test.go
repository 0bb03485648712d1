package users

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sopatech/backstage/internal/identity"
	"github.com/sopatech/backstage/internal/validate"
)

type fakeUserStore struct {
	users     map[string]*User // by id
	hashes    map[string]string
	artists   map[string]bool // user ids that got an artists row
	profiles  map[string]bool // user ids that got a user_profiles row
	nextID    int
	passwords map[string]string // user id -> last stored hash
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:     map[string]*User{},
		hashes:    map[string]string{},
		artists:   map[string]bool{},
		profiles:  map[string]bool{},
		passwords: map[string]string{},
	}
}

func (f *fakeUserStore) EmailTaken(_ context.Context, email string) (bool, error) {
	for _, u := range f.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserStore) CreateWithProfile(_ context.Context, u *User, passwordHash string, _ RegisterInput) error {
	f.nextID++
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	u.CreatedAt = time.Now().UTC()
	stored := *u
	f.users[u.ID] = &stored
	f.hashes[u.ID] = passwordHash
	switch u.Role {
	case identity.RoleArtist:
		f.artists[u.ID] = true
	case identity.RoleManager:
		f.profiles[u.ID] = true
	}
	return nil
}

func (f *fakeUserStore) ByEmail(_ context.Context, email string) (*User, string, error) {
	for id, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, f.hashes[id], nil
		}
	}
	return nil, "", ErrUserNotFound
}

func (f *fakeUserStore) Active(_ context.Context, userID string) (bool, error) {
	u, ok := f.users[userID]
	return ok && u.IsActive, nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	if _, ok := f.users[userID]; !ok {
		return ErrUserNotFound
	}
	f.hashes[userID] = passwordHash
	f.passwords[userID] = passwordHash
	return nil
}

type fakeMAU struct {
	recorded []string
}

func (f *fakeMAU) RecordActiveMonth(_ context.Context, userID string) error {
	f.recorded = append(f.recorded, userID)
	return nil
}

type fakeMailer struct {
	to   []string
	urls []string
}

func (f *fakeMailer) SendPasswordReset(to, resetURL string) error {
	f.to = append(f.to, to)
	f.urls = append(f.urls, resetURL)
	return nil
}

type testEnv struct {
	store  *fakeUserStore
	mau    *fakeMAU
	mailer *fakeMailer
	resets *ResetTokens
	svc    Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:  newFakeUserStore(),
		mau:    &fakeMAU{},
		mailer: &fakeMailer{},
		resets: NewResetTokens(15 * time.Minute),
	}
	codec := identity.NewCodec("test-secret", time.Minute, time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env.svc = NewService(env.store, codec, env.mau, env.mailer, env.resets,
		"http://localhost:3000/reset-password", logger)
	return env
}

func register(t *testing.T, env *testEnv, email string, role identity.Role) *User {
	t.Helper()
	u, err := env.svc.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: "password123",
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func TestRegister_CreatesRoleRow(t *testing.T) {
	env := newTestEnv(t)

	artist := register(t, env, "artist@example.com", identity.RoleArtist)
	require.True(t, env.store.artists[artist.ID], "artist signup creates an artists row")

	mgr := register(t, env, "manager@example.com", identity.RoleManager)
	require.True(t, env.store.profiles[mgr.ID], "manager signup creates a user_profiles row")

	adminUser := register(t, env, "admin@example.com", identity.RoleSuperAdmin)
	require.False(t, env.store.artists[adminUser.ID])
	require.False(t, env.store.profiles[adminUser.ID])
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Register(context.Background(), RegisterInput{
		Email:    "not-an-email",
		Password: "short",
		Role:     identity.Role("DJ"),
	})
	var fields validate.FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Contains(t, fields, "email")
	require.Contains(t, fields, "password")
	require.Contains(t, fields, "role")
}

func TestRegister_EmailTaken(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "dupe@example.com", identity.RoleArtist)

	_, err := env.svc.Register(context.Background(), RegisterInput{
		Email: "DUPE@example.com", Password: "password123", Role: identity.RoleArtist,
	})
	require.ErrorIs(t, err, ErrEmailTaken, "email comparison is case-insensitive")
}

func TestRegister_HashesPassword(t *testing.T) {
	env := newTestEnv(t)
	u := register(t, env, "hash@example.com", identity.RoleArtist)

	hash := env.store.hashes[u.ID]
	require.NotEqual(t, "password123", hash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("password123")))
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)
	u := register(t, env, "login@example.com", identity.RoleManager)

	pair, err := env.svc.Login(context.Background(), "Login@Example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)
	require.Equal(t, []string{u.ID}, env.mau.recorded, "login records monthly activity")
}

func TestLogin_Failures(t *testing.T) {
	env := newTestEnv(t)
	u := register(t, env, "login@example.com", identity.RoleArtist)

	_, err := env.svc.Login(context.Background(), "login@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.svc.Login(context.Background(), "nobody@example.com", "password123")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	env.store.users[u.ID].IsActive = false
	_, err = env.svc.Login(context.Background(), "login@example.com", "password123")
	require.ErrorIs(t, err, ErrInvalidCredentials, "deactivated account is indistinguishable from bad credentials")

	require.Empty(t, env.mau.recorded)
}

func TestRefresh_Success(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "refresh@example.com", identity.RoleArtist)

	pair, err := env.svc.Login(context.Background(), "refresh@example.com", "password123")
	require.NoError(t, err)

	fresh, err := env.svc.Refresh(context.Background(), pair.Refresh)
	require.NoError(t, err)
	require.NotEmpty(t, fresh.Access)
	require.Len(t, env.mau.recorded, 2, "refresh also records activity")
}

func TestRefresh_Failures(t *testing.T) {
	env := newTestEnv(t)
	u := register(t, env, "refresh@example.com", identity.RoleArtist)

	_, err := env.svc.Refresh(context.Background(), "garbage")
	require.ErrorIs(t, err, ErrInvalidToken)

	pair, err := env.svc.Login(context.Background(), "refresh@example.com", "password123")
	require.NoError(t, err)

	env.store.users[u.ID].IsActive = false
	_, err = env.svc.Refresh(context.Background(), pair.Refresh)
	require.ErrorIs(t, err, ErrInvalidToken, "deactivated users cannot mint new tokens")
}

func TestForgotPassword_SendsSingleUseLink(t *testing.T) {
	env := newTestEnv(t)
	u := register(t, env, "forgot@example.com", identity.RoleManager)

	require.NoError(t, env.svc.ForgotPassword(context.Background(), "forgot@example.com"))
	require.Equal(t, []string{"forgot@example.com"}, env.mailer.to)
	require.Contains(t, env.mailer.urls[0], "http://localhost:3000/reset-password?token=")

	// Unknown address: same success, no email.
	require.NoError(t, env.svc.ForgotPassword(context.Background(), "ghost@example.com"))
	require.Len(t, env.mailer.to, 1)

	// Deactivated account: same success, no email.
	env.store.users[u.ID].IsActive = false
	require.NoError(t, env.svc.ForgotPassword(context.Background(), "forgot@example.com"))
	require.Len(t, env.mailer.to, 1)
}

func TestResetPassword_Roundtrip(t *testing.T) {
	env := newTestEnv(t)
	u := register(t, env, "reset@example.com", identity.RoleArtist)

	token, err := env.resets.Issue(u.ID)
	require.NoError(t, err)

	require.NoError(t, env.svc.ResetPassword(context.Background(), token, "new-password-1"))
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(env.store.hashes[u.ID]), []byte("new-password-1")))

	// Burned on first use.
	err = env.svc.ResetPassword(context.Background(), token, "new-password-2")
	require.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestResetPassword_Validation(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.ResetPassword(context.Background(), "whatever", "short")
	var fields validate.FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Contains(t, fields, "password")

	require.ErrorIs(t,
		env.svc.ResetPassword(context.Background(), "never-issued", "long-enough-pw"),
		ErrResetTokenInvalid)
}
