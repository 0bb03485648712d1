// Package scope derives the set of records an identity may read or write.
// Every list, read, count, and mutation path goes through the same resolver;
// a bug here is a data leak, so the package stays free of HTTP concerns and
// is tested on its own.
package scope

import (
	"context"
	"errors"

	"github.com/sopatech/backstage/internal/identity"
)

var ErrForbidden = errors.New("no scope for this identity")

// Kind names the resource being scoped.
type Kind string

const (
	Artists Kind = "artists"
	Albums  Kind = "albums"
	Musics  Kind = "musics"
)

func validKind(k Kind) bool {
	return k == Artists || k == Albums || k == Musics
}

// Scope is either unrestricted (admin) or an explicit set of artist ids.
// Albums and musics are scoped through their owning artist, so the one set
// covers every resource kind in the ownership chain.
type Scope struct {
	Unrestricted bool
	ArtistIDs    []string
}

// All is the admin scope: no filter applied.
var All = Scope{Unrestricted: true}

// Of returns a scope restricted to the given artist ids.
func Of(artistIDs ...string) Scope {
	return Scope{ArtistIDs: artistIDs}
}

// Contains reports whether records owned by artistID are in scope.
func (s Scope) Contains(artistID string) bool {
	if s.Unrestricted {
		return true
	}
	for _, id := range s.ArtistIDs {
		if id == artistID {
			return true
		}
	}
	return false
}

// Empty reports whether the scope matches nothing.
func (s Scope) Empty() bool {
	return !s.Unrestricted && len(s.ArtistIDs) == 0
}

// ManagedArtists lists the artist ids assigned to a manager profile.
type ManagedArtists interface {
	ArtistIDsByManager(ctx context.Context, managerID string) ([]string, error)
}

type Resolver struct {
	store ManagedArtists
}

func NewResolver(store ManagedArtists) *Resolver {
	return &Resolver{store: store}
}

// For computes the visible-record scope for the identity and resource kind.
// Admin sees everything; a manager sees artists with manager_id equal to
// their profile id (and, one hop down, those artists' albums and musics); an
// artist sees exactly their own records.
func (r *Resolver) For(ctx context.Context, id identity.Identity, kind Kind) (Scope, error) {
	if !validKind(kind) {
		return Scope{}, ErrForbidden
	}
	switch id.Kind {
	case identity.KindAdmin:
		return All, nil
	case identity.KindManager:
		ids, err := r.store.ArtistIDsByManager(ctx, id.ManagerID)
		if err != nil {
			return Scope{}, err
		}
		return Of(ids...), nil
	case identity.KindArtist:
		return Of(id.ArtistID), nil
	default:
		return Scope{}, ErrForbidden
	}
}
