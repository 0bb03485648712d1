package albums

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sopatech/backstage/internal/counters"
	"github.com/sopatech/backstage/internal/identity"
	"github.com/sopatech/backstage/internal/pagination"
	"github.com/sopatech/backstage/internal/scope"
	"github.com/sopatech/backstage/internal/validate"
)

var (
	ErrAlbumNotFound  = errors.New("album not found")
	ErrArtistNotFound = errors.New("artist not found")
	ErrForbidden      = errors.New("not allowed to manage this album")
)

// Album is the domain record. Tracks is derived from the musics table and
// recomputed inside every music mutation, never set by callers.
type Album struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ImagePath string    `json:"image_path,omitempty"`
	Tracks    int       `json:"no_of_tracks"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateInput struct {
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"` // ignored for artist actors: always self
}

type UpdateInput struct {
	Name    *string `json:"name"`
	OwnerID *string `json:"owner_id"`
}

type Service interface {
	Create(ctx context.Context, actor identity.Identity, in CreateInput) (*Album, error)
	Get(ctx context.Context, actor identity.Identity, id string) (*Album, error)
	List(ctx context.Context, actor identity.Identity, page pagination.Page) (*pagination.Result[Album], error)
	Update(ctx context.Context, actor identity.Identity, id string, in UpdateInput) (*Album, error)
	Delete(ctx context.Context, actor identity.Identity, id string) error
	SetImagePath(ctx context.Context, actor identity.Identity, id, imagePath string) (*Album, error)
}

// Tx is one album transaction; the counter recompute runs inside it.
type Tx interface {
	Insert(ctx context.Context, a *Album) error
	Update(ctx context.Context, a *Album) error
	Delete(ctx context.Context, id string) error
	// ReassignTracks moves every track filed under the album to the given
	// artist. Runs when the album changes owner so its tracks follow it.
	ReassignTracks(ctx context.Context, albumID, artistID string) error
	counters.Tx
}

type AlbumStore interface {
	GetInScope(ctx context.Context, id string, sc scope.Scope) (*Album, error)
	List(ctx context.Context, sc scope.Scope, page pagination.Page) ([]Album, int, error)
	ArtistExists(ctx context.Context, artistID string) (bool, error)
	InTx(ctx context.Context, fn func(Tx) error) error
}

type Scopes interface {
	For(ctx context.Context, id identity.Identity, kind scope.Kind) (scope.Scope, error)
}

type service struct {
	store  AlbumStore
	scopes Scopes
}

func NewService(store AlbumStore, scopes Scopes) Service {
	return &service{store: store, scopes: scopes}
}

// Create adds an album. An artist always creates under their own name; a
// manager or admin names the owning artist explicitly and must have it in
// scope. The owner's album count is recomputed in the same transaction.
func (s *service) Create(ctx context.Context, actor identity.Identity, in CreateInput) (*Album, error) {
	fields := validate.FieldErrors{}
	if strings.TrimSpace(in.Name) == "" {
		fields.Add("name", "required")
	}

	ownerID := strings.TrimSpace(in.OwnerID)
	if actor.Kind == identity.KindArtist {
		ownerID = actor.ArtistID
	} else if ownerID == "" {
		fields.Add("owner_id", "required")
	}
	if err := fields.OrNil(); err != nil {
		return nil, err
	}

	sc, err := s.scopes.For(ctx, actor, scope.Albums)
	if err != nil {
		return nil, err
	}
	if !sc.Contains(ownerID) {
		return nil, ErrArtistNotFound
	}
	ok, err := s.store.ArtistExists(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrArtistNotFound
	}

	album := &Album{Name: strings.TrimSpace(in.Name), OwnerID: ownerID}
	err = s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.Insert(ctx, album); err != nil {
			return err
		}
		return counters.RecountArtistAlbums(ctx, tx, ownerID)
	})
	if err != nil {
		return nil, err
	}
	return album, nil
}

func (s *service) Get(ctx context.Context, actor identity.Identity, id string) (*Album, error) {
	sc, err := s.scopes.For(ctx, actor, scope.Albums)
	if err != nil {
		return nil, err
	}
	return s.store.GetInScope(ctx, id, sc)
}

func (s *service) List(ctx context.Context, actor identity.Identity, page pagination.Page) (*pagination.Result[Album], error) {
	sc, err := s.scopes.For(ctx, actor, scope.Albums)
	if err != nil {
		return nil, err
	}
	items, total, err := s.store.List(ctx, sc, page)
	if err != nil {
		return nil, err
	}
	return pagination.NewResult(items, total, page), nil
}

// Update edits an album in scope. Moving the album to another artist carries
// its tracks along and recomputes the album count on both the old and new
// owner, all in one transaction.
func (s *service) Update(ctx context.Context, actor identity.Identity, id string, in UpdateInput) (*Album, error) {
	sc, err := s.scopes.For(ctx, actor, scope.Albums)
	if err != nil {
		return nil, err
	}
	album, err := s.store.GetInScope(ctx, id, sc)
	if err != nil {
		return nil, err
	}
	previousOwner := album.OwnerID

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, validate.FieldErrors{"name": "required"}
		}
		album.Name = name
	}
	if in.OwnerID != nil && *in.OwnerID != previousOwner {
		newOwner := strings.TrimSpace(*in.OwnerID)
		if !sc.Contains(newOwner) {
			return nil, ErrArtistNotFound
		}
		ok, err := s.store.ArtistExists(ctx, newOwner)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrArtistNotFound
		}
		album.OwnerID = newOwner
	}

	err = s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.Update(ctx, album); err != nil {
			return err
		}
		if album.OwnerID != previousOwner {
			if err := tx.ReassignTracks(ctx, album.ID, album.OwnerID); err != nil {
				return err
			}
		}
		if err := counters.RecountArtistAlbums(ctx, tx, previousOwner); err != nil {
			return err
		}
		if album.OwnerID != previousOwner {
			return counters.RecountArtistAlbums(ctx, tx, album.OwnerID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return album, nil
}

// Delete removes the album and recomputes the owner's album count in the
// same transaction. Tracks on the album survive with album_id cleared.
func (s *service) Delete(ctx context.Context, actor identity.Identity, id string) error {
	sc, err := s.scopes.For(ctx, actor, scope.Albums)
	if err != nil {
		return err
	}
	album, err := s.store.GetInScope(ctx, id, sc)
	if err != nil {
		return err
	}
	return s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.Delete(ctx, id); err != nil {
			return err
		}
		return counters.RecountArtistAlbums(ctx, tx, album.OwnerID)
	})
}

// SetImagePath records the stored cover-image path for an album in scope.
func (s *service) SetImagePath(ctx context.Context, actor identity.Identity, id, imagePath string) (*Album, error) {
	sc, err := s.scopes.For(ctx, actor, scope.Albums)
	if err != nil {
		return nil, err
	}
	album, err := s.store.GetInScope(ctx, id, sc)
	if err != nil {
		return nil, err
	}
	album.ImagePath = imagePath
	err = s.store.InTx(ctx, func(tx Tx) error {
		return tx.Update(ctx, album)
	})
	if err != nil {
		return nil, err
	}
	return album, nil
}
