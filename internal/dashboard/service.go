package dashboard

import (
	"context"
	"time"

	"github.com/sopatech/backstage/internal/identity"
	"github.com/sopatech/backstage/internal/scope"
)

// Counts is a total plus how many rows were created inside the recency
// window. A kind with zero matches reports {0, 0}, never null.
type Counts struct {
	Total  int `json:"total"`
	Recent int `json:"recent"`
}

// Overview is the role-conditioned dashboard summary. Sections the role
// cannot see are omitted: only the admin sees manager counts, and an artist
// has no artist section of their own.
type Overview struct {
	Managers *Counts `json:"managers,omitempty"`
	Artists  *Counts `json:"artists,omitempty"`
	Albums   Counts  `json:"albums"`
	Musics   Counts  `json:"musics"`
}

// ArtistActivity is one row of the top-artists list.
type ArtistActivity struct {
	ArtistID string `json:"artist_id"`
	Name     string `json:"name"`
	Albums   int    `json:"albums"`
	Musics   int    `json:"musics"`
}

// GenreCount is one genre's share of the scoped musics. Genres with no
// tracks in scope are omitted from the breakdown.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

type Service interface {
	Overview(ctx context.Context, actor identity.Identity) (*Overview, error)
	TopArtists(ctx context.Context, actor identity.Identity, limit int) ([]ArtistActivity, error)
	GenreBreakdown(ctx context.Context, actor identity.Identity) ([]GenreCount, error)
}

// Tx is one consistent read snapshot: every count in an overview comes from
// the same snapshot so total and recent never disagree.
type Tx interface {
	ManagerCounts(ctx context.Context, since time.Time) (Counts, error)
	ArtistCounts(ctx context.Context, sc scope.Scope, since time.Time) (Counts, error)
	AlbumCounts(ctx context.Context, sc scope.Scope, since time.Time) (Counts, error)
	MusicCounts(ctx context.Context, sc scope.Scope, since time.Time) (Counts, error)
}

type StatsStore interface {
	Snapshot(ctx context.Context, fn func(Tx) error) error
	TopArtists(ctx context.Context, sc scope.Scope, limit int) ([]ArtistActivity, error)
	GenreCounts(ctx context.Context, sc scope.Scope) ([]GenreCount, error)
}

type Scopes interface {
	For(ctx context.Context, id identity.Identity, kind scope.Kind) (scope.Scope, error)
}

// Config tunes the aggregations; the list lengths were presentation choices
// in earlier versions of this system and stay configurable here.
type Config struct {
	RecentWindow      time.Duration
	TopArtistsAdmin   int
	TopArtistsManager int
}

const defaultRecentWindow = 15 * time.Minute

type service struct {
	store  StatsStore
	scopes Scopes
	cfg    Config
}

func NewService(store StatsStore, scopes Scopes, cfg Config) Service {
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = defaultRecentWindow
	}
	if cfg.TopArtistsAdmin <= 0 {
		cfg.TopArtistsAdmin = 5
	}
	if cfg.TopArtistsManager <= 0 {
		cfg.TopArtistsManager = 4
	}
	return &service{store: store, scopes: scopes, cfg: cfg}
}

// Overview returns totals and recency counts for everything in the actor's
// scope, all read from a single snapshot.
func (s *service) Overview(ctx context.Context, actor identity.Identity) (*Overview, error) {
	sc, err := s.scopes.For(ctx, actor, scope.Artists)
	if err != nil {
		return nil, err
	}
	since := time.Now().UTC().Add(-s.cfg.RecentWindow)

	var out Overview
	err = s.store.Snapshot(ctx, func(tx Tx) error {
		if actor.Kind == identity.KindAdmin {
			managers, err := tx.ManagerCounts(ctx, since)
			if err != nil {
				return err
			}
			out.Managers = &managers
		}
		if actor.Kind != identity.KindArtist {
			artists, err := tx.ArtistCounts(ctx, sc, since)
			if err != nil {
				return err
			}
			out.Artists = &artists
		}
		if out.Albums, err = tx.AlbumCounts(ctx, sc, since); err != nil {
			return err
		}
		out.Musics, err = tx.MusicCounts(ctx, sc, since)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// TopArtists lists the scoped artists with the most released albums. A
// non-positive limit falls back to the configured per-role default.
func (s *service) TopArtists(ctx context.Context, actor identity.Identity, limit int) ([]ArtistActivity, error) {
	sc, err := s.scopes.For(ctx, actor, scope.Artists)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		if actor.Kind == identity.KindManager {
			limit = s.cfg.TopArtistsManager
		} else {
			limit = s.cfg.TopArtistsAdmin
		}
	}
	return s.store.TopArtists(ctx, sc, limit)
}

// GenreBreakdown counts scoped musics per genre. Genres without any tracks
// in scope do not appear.
func (s *service) GenreBreakdown(ctx context.Context, actor identity.Identity) ([]GenreCount, error) {
	sc, err := s.scopes.For(ctx, actor, scope.Musics)
	if err != nil {
		return nil, err
	}
	return s.store.GenreCounts(ctx, sc)
}
