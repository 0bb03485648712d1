package artists

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sopatech/backstage/internal/identity"
	"github.com/sopatech/backstage/internal/pagination"
	"github.com/sopatech/backstage/internal/scope"
	"github.com/sopatech/backstage/internal/validate"
)

const bcryptCost = 12

var (
	ErrArtistNotFound  = errors.New("artist not found")
	ErrManagerNotFound = errors.New("manager not found")
	ErrForbidden       = errors.New("not allowed to manage this artist")
	ErrEmailTaken      = errors.New("email already registered")
)

// Artist is the domain record. AlbumsReleased is derived from the albums
// table and recomputed on album mutations, never set by callers.
type Artist struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Name              string    `json:"name"`
	DOB               string    `json:"dob,omitempty"` // YYYY-MM-DD
	Gender            string    `json:"gender,omitempty"`
	Address           string    `json:"address,omitempty"`
	FirstReleasedYear int       `json:"first_released_year,omitempty"`
	AlbumsReleased    int       `json:"no_of_album_released"`
	ManagerID         string    `json:"manager_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// CreateInput carries the registration payload: a new backing user account
// plus the artist profile fields.
type CreateInput struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	Name              string `json:"name"`
	DOB               string `json:"dob"`
	Gender            string `json:"gender"`
	Address           string `json:"address"`
	FirstReleasedYear int    `json:"first_released_year"`
	ManagerID         string `json:"manager_id"`
}

// UpdateInput updates profile fields; nil pointers leave the field as-is.
type UpdateInput struct {
	Name              *string `json:"name"`
	DOB               *string `json:"dob"`
	Gender            *string `json:"gender"`
	Address           *string `json:"address"`
	FirstReleasedYear *int    `json:"first_released_year"`
	ManagerID         *string `json:"manager_id"`
}

type Service interface {
	Create(ctx context.Context, actor identity.Identity, in CreateInput) (*Artist, error)
	Get(ctx context.Context, actor identity.Identity, id string) (*Artist, error)
	List(ctx context.Context, actor identity.Identity, page pagination.Page) (*pagination.Result[Artist], error)
	Update(ctx context.Context, actor identity.Identity, id string, in UpdateInput) (*Artist, error)
	Delete(ctx context.Context, actor identity.Identity, id string) error
}

// ArtistStore is the persistence surface the service needs. CreateWithUser
// and DeleteWithUser span the users and artists tables and must be atomic.
type ArtistStore interface {
	GetInScope(ctx context.Context, id string, sc scope.Scope) (*Artist, error)
	List(ctx context.Context, sc scope.Scope, page pagination.Page) ([]Artist, int, error)
	ManagerExists(ctx context.Context, managerID string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	CreateWithUser(ctx context.Context, email, passwordHash string, a *Artist) error
	Update(ctx context.Context, a *Artist) error
	DeleteWithUser(ctx context.Context, artistID string) error
}

type Scopes interface {
	For(ctx context.Context, id identity.Identity, kind scope.Kind) (scope.Scope, error)
}

type service struct {
	store  ArtistStore
	scopes Scopes
}

func NewService(store ArtistStore, scopes Scopes) Service {
	return &service{store: store, scopes: scopes}
}

// Create registers an artist: one transaction inserts the backing user
// (role ARTIST) and the artist row. A manager actor always becomes the
// artist's manager — any caller-supplied manager_id is ignored, so a manager
// cannot plant artists under someone else's roster. An admin actor may set
// manager_id freely, checked for existence first.
func (s *service) Create(ctx context.Context, actor identity.Identity, in CreateInput) (*Artist, error) {
	if actor.Kind == identity.KindArtist {
		return nil, ErrForbidden
	}
	if err := validateArtistFields(in.Name, in.DOB, in.Gender, in.FirstReleasedYear, true); err != nil {
		return nil, err
	}
	email := normalizeEmail(in.Email)
	fields := validate.FieldErrors{}
	if email == "" {
		fields.Add("email", "required")
	}
	if len(in.Password) < 8 {
		fields.Add("password", "must be at least 8 characters")
	}
	if err := fields.OrNil(); err != nil {
		return nil, err
	}

	managerID := strings.TrimSpace(in.ManagerID)
	if actor.Kind == identity.KindManager {
		managerID = actor.ManagerID
	}
	if managerID != "" {
		ok, err := s.store.ManagerExists(ctx, managerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrManagerNotFound
		}
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

	artist := &Artist{
		Name:              strings.TrimSpace(in.Name),
		DOB:               in.DOB,
		Gender:            in.Gender,
		Address:           strings.TrimSpace(in.Address),
		FirstReleasedYear: in.FirstReleasedYear,
		ManagerID:         managerID,
	}
	if err := s.store.CreateWithUser(ctx, email, string(hash), artist); err != nil {
		return nil, err
	}
	return artist, nil
}

func (s *service) Get(ctx context.Context, actor identity.Identity, id string) (*Artist, error) {
	sc, err := s.scopes.For(ctx, actor, scope.Artists)
	if err != nil {
		return nil, err
	}
	artist, err := s.store.GetInScope(ctx, id, sc)
	if err != nil {
		return nil, err
	}
	return artist, nil
}

func (s *service) List(ctx context.Context, actor identity.Identity, page pagination.Page) (*pagination.Result[Artist], error) {
	sc, err := s.scopes.For(ctx, actor, scope.Artists)
	if err != nil {
		return nil, err
	}
	items, total, err := s.store.List(ctx, sc, page)
	if err != nil {
		return nil, err
	}
	return pagination.NewResult(items, total, page), nil
}

// Update edits an artist in the actor's scope. Reassigning manager_id is an
// admin-only move; a manager actor keeps the artist on their own roster.
func (s *service) Update(ctx context.Context, actor identity.Identity, id string, in UpdateInput) (*Artist, error) {
	sc, err := s.scopes.For(ctx, actor, scope.Artists)
	if err != nil {
		return nil, err
	}
	artist, err := s.store.GetInScope(ctx, id, sc)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		artist.Name = strings.TrimSpace(*in.Name)
	}
	if in.DOB != nil {
		artist.DOB = *in.DOB
	}
	if in.Gender != nil {
		artist.Gender = *in.Gender
	}
	if in.Address != nil {
		artist.Address = strings.TrimSpace(*in.Address)
	}
	if in.FirstReleasedYear != nil {
		artist.FirstReleasedYear = *in.FirstReleasedYear
	}
	if in.ManagerID != nil && actor.Kind == identity.KindAdmin {
		managerID := strings.TrimSpace(*in.ManagerID)
		if managerID != "" {
			ok, err := s.store.ManagerExists(ctx, managerID)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, ErrManagerNotFound
			}
		}
		artist.ManagerID = managerID
	}

	if err := validateArtistFields(artist.Name, artist.DOB, artist.Gender, artist.FirstReleasedYear, true); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, artist); err != nil {
		return nil, err
	}
	return artist, nil
}

// Delete removes the artist and its backing user in one transaction.
func (s *service) Delete(ctx context.Context, actor identity.Identity, id string) error {
	sc, err := s.scopes.For(ctx, actor, scope.Artists)
	if err != nil {
		return err
	}
	if _, err := s.store.GetInScope(ctx, id, sc); err != nil {
		return err
	}
	return s.store.DeleteWithUser(ctx, id)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validGender(g string) bool {
	switch g {
	case "", "MALE", "FEMALE", "OTHER":
		return true
	}
	return false
}

// validateArtistFields checks the profile fields shared by create and
// update, including the cross-field rule that the artist cannot have
// released music before being born.
func validateArtistFields(name, dob, gender string, firstReleasedYear int, nameRequired bool) error {
	fields := validate.FieldErrors{}
	if nameRequired && strings.TrimSpace(name) == "" {
		fields.Add("name", "required")
	}
	if !validGender(gender) {
		fields.Add("gender", "must be MALE, FEMALE or OTHER")
	}
	var born time.Time
	if dob != "" {
		var err error
		born, err = time.Parse("2006-01-02", dob)
		if err != nil {
			fields.Add("dob", "must be YYYY-MM-DD")
		}
	}
	if firstReleasedYear != 0 {
		currentYear := time.Now().Year()
		if firstReleasedYear < 1900 || firstReleasedYear > currentYear {
			fields.Add("first_released_year", "must be between 1900 and the current year")
		} else if !born.IsZero() && born.Year() > firstReleasedYear {
			fields.Add("dob", "cannot be later than first_released_year")
		}
	}
	return fields.OrNil()
}
