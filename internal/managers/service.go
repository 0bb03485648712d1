package managers

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sopatech/backstage/internal/identity"
	"github.com/sopatech/backstage/internal/pagination"
	"github.com/sopatech/backstage/internal/validate"
)

const bcryptCost = 12

var (
	ErrManagerNotFound = errors.New("manager not found")
	ErrForbidden       = errors.New("not allowed to manage this profile")
	ErrEmailTaken      = errors.New("email already registered")
)

// Manager is a user profile backing an ARTIST_MANAGER account.
type Manager struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone,omitempty"`
	DOB       string    `json:"dob,omitempty"` // YYYY-MM-DD
	Gender    string    `json:"gender,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	DOB       string `json:"dob"`
	Gender    string `json:"gender"`
	Address   string `json:"address"`
}

type UpdateInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	DOB       *string `json:"dob"`
	Gender    *string `json:"gender"`
	Address   *string `json:"address"`
}

type Service interface {
	Create(ctx context.Context, actor identity.Identity, in CreateInput) (*Manager, error)
	Get(ctx context.Context, actor identity.Identity, id string) (*Manager, error)
	List(ctx context.Context, actor identity.Identity, page pagination.Page) (*pagination.Result[Manager], error)
	Update(ctx context.Context, actor identity.Identity, id string, in UpdateInput) (*Manager, error)
	Delete(ctx context.Context, actor identity.Identity, id string) error
}

// ManagerStore is the persistence surface. CreateWithUser and DeleteWithUser
// span users and user_profiles and must be atomic.
type ManagerStore interface {
	Get(ctx context.Context, id string) (*Manager, error)
	List(ctx context.Context, page pagination.Page) ([]Manager, int, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	CreateWithUser(ctx context.Context, email, passwordHash string, m *Manager) error
	Update(ctx context.Context, m *Manager) error
	DeleteWithUser(ctx context.Context, managerID string) error
}

type service struct {
	store ManagerStore
}

func NewService(store ManagerStore) Service {
	return &service{store: store}
}

// Create registers a manager: backing user (role ARTIST_MANAGER) plus
// profile, inserted in one transaction. Admin only.
func (s *service) Create(ctx context.Context, actor identity.Identity, in CreateInput) (*Manager, error) {
	if actor.Kind != identity.KindAdmin {
		return nil, ErrForbidden
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	fields := validate.FieldErrors{}
	if email == "" {
		fields.Add("email", "required")
	}
	if len(in.Password) < 8 {
		fields.Add("password", "must be at least 8 characters")
	}
	if strings.TrimSpace(in.FirstName) == "" {
		fields.Add("first_name", "required")
	}
	validateProfileFields(fields, in.DOB, in.Gender)
	if err := fields.OrNil(); err != nil {
		return nil, err
	}

	taken, err := s.store.EmailTaken(ctx, email)
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

	m := &Manager{
		Email:     email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Phone:     strings.TrimSpace(in.Phone),
		DOB:       in.DOB,
		Gender:    in.Gender,
		Address:   strings.TrimSpace(in.Address),
	}
	if err := s.store.CreateWithUser(ctx, email, string(hash), m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) Get(ctx context.Context, actor identity.Identity, id string) (*Manager, error) {
	if !canAccess(actor, id) {
		// Indistinguishable from an absent profile: no scope probing.
		return nil, ErrManagerNotFound
	}
	return s.store.Get(ctx, id)
}

func (s *service) List(ctx context.Context, actor identity.Identity, page pagination.Page) (*pagination.Result[Manager], error) {
	if actor.Kind != identity.KindAdmin {
		return nil, ErrForbidden
	}
	items, total, err := s.store.List(ctx, page)
	if err != nil {
		return nil, err
	}
	return pagination.NewResult(items, total, page), nil
}

func (s *service) Update(ctx context.Context, actor identity.Identity, id string, in UpdateInput) (*Manager, error) {
	if !canAccess(actor, id) {
		return nil, ErrManagerNotFound
	}
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		m.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		m.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		m.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.DOB != nil {
		m.DOB = *in.DOB
	}
	if in.Gender != nil {
		m.Gender = *in.Gender
	}
	if in.Address != nil {
		m.Address = strings.TrimSpace(*in.Address)
	}

	fields := validate.FieldErrors{}
	if m.FirstName == "" {
		fields.Add("first_name", "required")
	}
	validateProfileFields(fields, m.DOB, m.Gender)
	if err := fields.OrNil(); err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes the profile and its backing user atomically. Admin only:
// a manager deleting their own account would strand their roster.
func (s *service) Delete(ctx context.Context, actor identity.Identity, id string) error {
	if actor.Kind != identity.KindAdmin {
		return ErrForbidden
	}
	return s.store.DeleteWithUser(ctx, id)
}

// canAccess allows the admin, or the manager acting on their own profile.
func canAccess(actor identity.Identity, managerID string) bool {
	if actor.Kind == identity.KindAdmin {
		return true
	}
	return actor.Kind == identity.KindManager && actor.ManagerID == managerID
}

func validateProfileFields(fields validate.FieldErrors, dob, gender string) {
	switch gender {
	case "", "MALE", "FEMALE", "OTHER":
	default:
		fields.Add("gender", "must be MALE, FEMALE or OTHER")
	}
	if dob != "" {
		if _, err := time.Parse("2006-01-02", dob); err != nil {
			fields.Add("dob", "must be YYYY-MM-DD")
		}
	}
}
