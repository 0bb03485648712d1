package musics

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
	ErrMusicNotFound  = errors.New("music not found")
	ErrAlbumNotFound  = errors.New("album not found")
	ErrArtistNotFound = errors.New("artist not found")
	ErrForbidden      = errors.New("not allowed to manage this music")
)

// Music is a single track, optionally filed under an album.
type Music struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Genre     Genre     `json:"genre"`
	AlbumID   string    `json:"album_id,omitempty"`
	ArtistID  string    `json:"artist_id"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateInput struct {
	Title    string `json:"title"`
	Genre    string `json:"genre"`
	AlbumID  string `json:"album_id"`
	ArtistID string `json:"artist_id"` // ignored for artist actors: always self
}

type UpdateInput struct {
	Title    *string `json:"title"`
	Genre    *string `json:"genre"`
	AlbumID  *string `json:"album_id"`  // empty string detaches from the album
	ArtistID *string `json:"artist_id"` // moves the track to another artist in scope
}

type Service interface {
	Create(ctx context.Context, actor identity.Identity, in CreateInput) (*Music, error)
	Get(ctx context.Context, actor identity.Identity, id string) (*Music, error)
	List(ctx context.Context, actor identity.Identity, page pagination.Page) (*pagination.Result[Music], error)
	Update(ctx context.Context, actor identity.Identity, id string, in UpdateInput) (*Music, error)
	Delete(ctx context.Context, actor identity.Identity, id string) error
}

// Tx is one music transaction; track and album counters are recomputed
// inside it so a failure rolls the row and the counters back together.
type Tx interface {
	Insert(ctx context.Context, m *Music) error
	Update(ctx context.Context, m *Music) error
	Delete(ctx context.Context, id string) error
	counters.Tx
}

type MusicStore interface {
	GetInScope(ctx context.Context, id string, sc scope.Scope) (*Music, error)
	List(ctx context.Context, sc scope.Scope, page pagination.Page) ([]Music, int, error)
	AlbumOwner(ctx context.Context, albumID string) (string, error)
	ArtistExists(ctx context.Context, artistID string) (bool, error)
	InTx(ctx context.Context, fn func(Tx) error) error
}

type Scopes interface {
	For(ctx context.Context, id identity.Identity, kind scope.Kind) (scope.Scope, error)
}

type service struct {
	store  MusicStore
	scopes Scopes
}

func NewService(store MusicStore, scopes Scopes) Service {
	return &service{store: store, scopes: scopes}
}

// Create inserts a track. An artist actor always creates under their own
// name; a manager or admin must name an artist inside their scope. The
// album, when given, must belong to that same artist. Track and album-count
// recomputation runs inside the insert's transaction.
func (s *service) Create(ctx context.Context, actor identity.Identity, in CreateInput) (*Music, error) {
	fields := validate.FieldErrors{}
	if strings.TrimSpace(in.Title) == "" {
		fields.Add("title", "required")
	}
	if !ValidGenre(Genre(in.Genre)) {
		fields.Add("genre", "must be one of ROCK, POP, COUNTRY, CLASSICAL, JAZZ")
	}

	artistID := strings.TrimSpace(in.ArtistID)
	if actor.Kind == identity.KindArtist {
		artistID = actor.ArtistID
	} else if artistID == "" {
		fields.Add("artist_id", "required")
	}
	if err := fields.OrNil(); err != nil {
		return nil, err
	}

	sc, err := s.scopes.For(ctx, actor, scope.Musics)
	if err != nil {
		return nil, err
	}
	if !sc.Contains(artistID) {
		return nil, ErrArtistNotFound
	}
	ok, err := s.store.ArtistExists(ctx, artistID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrArtistNotFound
	}

	albumID := strings.TrimSpace(in.AlbumID)
	if albumID != "" {
		if err := s.checkAlbumOwnership(ctx, albumID, artistID); err != nil {
			return nil, err
		}
	}

	music := &Music{
		Title:    strings.TrimSpace(in.Title),
		Genre:    Genre(in.Genre),
		AlbumID:  albumID,
		ArtistID: artistID,
	}
	err = s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.Insert(ctx, music); err != nil {
			return err
		}
		if err := counters.RecountAlbumTracks(ctx, tx, albumID); err != nil {
			return err
		}
		return counters.RecountArtistAlbums(ctx, tx, artistID)
	})
	if err != nil {
		return nil, err
	}
	return music, nil
}

func (s *service) Get(ctx context.Context, actor identity.Identity, id string) (*Music, error) {
	sc, err := s.scopes.For(ctx, actor, scope.Musics)
	if err != nil {
		return nil, err
	}
	return s.store.GetInScope(ctx, id, sc)
}

func (s *service) List(ctx context.Context, actor identity.Identity, page pagination.Page) (*pagination.Result[Music], error) {
	sc, err := s.scopes.For(ctx, actor, scope.Musics)
	if err != nil {
		return nil, err
	}
	items, total, err := s.store.List(ctx, sc, page)
	if err != nil {
		return nil, err
	}
	return pagination.NewResult(items, total, page), nil
}

// Update edits a track in scope. Reparenting to a different album or artist
// recomputes the counters on both the old and new side, inside one
// transaction, so applying the same payload twice lands on identical row
// state and counters.
func (s *service) Update(ctx context.Context, actor identity.Identity, id string, in UpdateInput) (*Music, error) {
	sc, err := s.scopes.For(ctx, actor, scope.Musics)
	if err != nil {
		return nil, err
	}
	music, err := s.store.GetInScope(ctx, id, sc)
	if err != nil {
		return nil, err
	}
	previousAlbum := music.AlbumID
	previousArtist := music.ArtistID

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, validate.FieldErrors{"title": "required"}
		}
		music.Title = title
	}
	if in.Genre != nil {
		if !ValidGenre(Genre(*in.Genre)) {
			return nil, validate.FieldErrors{"genre": "must be one of ROCK, POP, COUNTRY, CLASSICAL, JAZZ"}
		}
		music.Genre = Genre(*in.Genre)
	}
	if in.ArtistID != nil {
		artistID := strings.TrimSpace(*in.ArtistID)
		if artistID == "" {
			return nil, validate.FieldErrors{"artist_id": "required"}
		}
		if artistID != music.ArtistID {
			if !sc.Contains(artistID) {
				return nil, ErrArtistNotFound
			}
			ok, err := s.store.ArtistExists(ctx, artistID)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, ErrArtistNotFound
			}
			music.ArtistID = artistID
		}
	}
	if in.AlbumID != nil {
		music.AlbumID = strings.TrimSpace(*in.AlbumID)
	}
	// The album, kept or newly set, must belong to whoever owns the track now.
	if music.AlbumID != "" && (music.AlbumID != previousAlbum || music.ArtistID != previousArtist) {
		if err := s.checkAlbumOwnership(ctx, music.AlbumID, music.ArtistID); err != nil {
			return nil, err
		}
	}

	err = s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.Update(ctx, music); err != nil {
			return err
		}
		if err := counters.RecountAlbumTracks(ctx, tx, previousAlbum); err != nil {
			return err
		}
		if music.AlbumID != previousAlbum {
			if err := counters.RecountAlbumTracks(ctx, tx, music.AlbumID); err != nil {
				return err
			}
		}
		if err := counters.RecountArtistAlbums(ctx, tx, previousArtist); err != nil {
			return err
		}
		if music.ArtistID != previousArtist {
			return counters.RecountArtistAlbums(ctx, tx, music.ArtistID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return music, nil
}

// Delete removes a track and recomputes its album's track count in the same
// transaction.
func (s *service) Delete(ctx context.Context, actor identity.Identity, id string) error {
	sc, err := s.scopes.For(ctx, actor, scope.Musics)
	if err != nil {
		return err
	}
	music, err := s.store.GetInScope(ctx, id, sc)
	if err != nil {
		return err
	}
	return s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.Delete(ctx, id); err != nil {
			return err
		}
		if err := counters.RecountAlbumTracks(ctx, tx, music.AlbumID); err != nil {
			return err
		}
		return counters.RecountArtistAlbums(ctx, tx, music.ArtistID)
	})
}

// checkAlbumOwnership verifies the album exists and belongs to the artist
// the track is filed under.
func (s *service) checkAlbumOwnership(ctx context.Context, albumID, artistID string) error {
	owner, err := s.store.AlbumOwner(ctx, albumID)
	if err != nil {
		return err
	}
	if owner != artistID {
		return validate.FieldErrors{"album_id": "album does not belong to the artist"}
	}
	return nil
}
