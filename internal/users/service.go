package users

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sopatech/backstage/internal/email"
	"github.com/sopatech/backstage/internal/identity"
	"github.com/sopatech/backstage/internal/validate"
)

const bcryptCost = 12

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid refresh token")
	ErrResetTokenInvalid  = errors.New("reset token invalid or expired")
)

// User is the public view of an account. The password hash never leaves the
// store layer.
type User struct {
	ID        string        `json:"id"`
	Email     string        `json:"email"`
	Role      identity.Role `json:"role"`
	IsActive  bool          `json:"is_active"`
	CreatedAt time.Time     `json:"created_at"`
}

// RegisterInput carries the signup form. The profile fields seed the
// role-specific row: an artist gets an artists row, a manager a
// user_profiles row.
type RegisterInput struct {
	Email     string        `json:"email"`
	Password  string        `json:"password"`
	Role      identity.Role `json:"role"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Phone     string        `json:"phone"`
	DOB       string        `json:"dob"`
	Gender    string        `json:"gender"`
	Address   string        `json:"address"`
}

type Service interface {
	Register(ctx context.Context, in RegisterInput) (*User, error)
	Login(ctx context.Context, email, password string) (*identity.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*identity.TokenPair, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type UserStore interface {
	EmailTaken(ctx context.Context, email string) (bool, error)
	CreateWithProfile(ctx context.Context, u *User, passwordHash string, in RegisterInput) error
	ByEmail(ctx context.Context, email string) (*User, string, error)
	Active(ctx context.Context, userID string) (bool, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// ActiveMonthRecorder marks a user as active this month. Implemented by
// metrics.MAURecorder.
type ActiveMonthRecorder interface {
	RecordActiveMonth(ctx context.Context, userID string) error
}

type service struct {
	store  UserStore
	codec  *identity.Codec
	mau    ActiveMonthRecorder
	mailer email.Mailer
	resets *ResetTokens

	resetBaseURL string
	logger       *slog.Logger
}

func NewService(
	store UserStore,
	codec *identity.Codec,
	mau ActiveMonthRecorder,
	mailer email.Mailer,
	resets *ResetTokens,
	resetBaseURL string,
	logger *slog.Logger,
) Service {
	return &service{
		store:        store,
		codec:        codec,
		mau:          mau,
		mailer:       mailer,
		resets:       resets,
		resetBaseURL: resetBaseURL,
		logger:       logger,
	}
}

// Register creates the account and, in the same transaction, the empty
// role-specific row the rest of the system expects to exist.
func (s *service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	fields := validate.FieldErrors{}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		fields.Add("email", "must be a valid email address")
	}
	if len(in.Password) < 8 {
		fields.Add("password", "must be at least 8 characters")
	}
	if !identity.ValidRole(in.Role) {
		fields.Add("role", "unknown role")
	}
	if err := fields.OrNil(); err != nil {
		return nil, err
	}

	taken, err := s.store.EmailTaken(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, err
	}

	u := &User{Email: in.Email, Role: in.Role, IsActive: true}
	if err := s.store.CreateWithProfile(ctx, u, string(hash), in); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks the password against the stored hash. Unknown email, bad
// password and deactivated account are indistinguishable to the caller.
func (s *service) Login(ctx context.Context, loginEmail, password string) (*identity.TokenPair, error) {
	loginEmail = strings.ToLower(strings.TrimSpace(loginEmail))

	u, hash, err := s.store.ByEmail(ctx, loginEmail)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.codec.IssuePair(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	s.recordActive(ctx, u.ID)
	return pair, nil
}

// Refresh trades a live refresh token for a fresh pair. The user must still
// exist and be active; a deactivated account cannot mint new tokens.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*identity.TokenPair, error) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	active, err := s.store.Active(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrInvalidToken
	}

	pair, err := s.codec.IssuePair(claims.UserID, claims.Role)
	if err != nil {
		return nil, err
	}
	s.recordActive(ctx, claims.UserID)
	return pair, nil
}

// ForgotPassword emails a single-use reset link. It returns success for
// unknown addresses too, so the endpoint does not reveal which emails exist.
func (s *service) ForgotPassword(ctx context.Context, userEmail string) error {
	userEmail = strings.ToLower(strings.TrimSpace(userEmail))
	if userEmail == "" {
		return nil
	}

	u, _, err := s.store.ByEmail(ctx, userEmail)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return err
	}
	if !u.IsActive {
		return nil
	}

	token, err := s.resets.Issue(u.ID)
	if err != nil {
		return err
	}
	return s.mailer.SendPasswordReset(u.Email, s.resetURL(token))
}

func (s *service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		fields := validate.FieldErrors{}
		fields.Add("password", "must be at least 8 characters")
		return fields
	}

	userID, ok := s.resets.Consume(token)
	if !ok {
		return ErrResetTokenInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, userID, string(hash))
}

func (s *service) resetURL(token string) string {
	return s.resetBaseURL + "?token=" + url.QueryEscape(token)
}

// recordActive is best effort. A metrics write failure must never block a
// login.
func (s *service) recordActive(ctx context.Context, userID string) {
	if err := s.mau.RecordActiveMonth(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "failed to record active user", "error", err)
	}
}
