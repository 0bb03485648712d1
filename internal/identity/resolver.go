package identity

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("identity not found")
	ErrForbidden = errors.New("role not permitted")
)

// Kind tags the resolved identity variant.
type Kind int

const (
	KindAdmin Kind = iota
	KindManager
	KindArtist
)

// Identity is the concrete domain record behind an authenticated session.
// Exactly one of ManagerID/ArtistID is set for the non-admin kinds. It is
// passed explicitly to services; nothing below the auth middleware reads it
// from ambient state.
type Identity struct {
	Kind      Kind
	UserID    string
	ManagerID string // profile id, set when Kind == KindManager
	ArtistID  string // artist id, set when Kind == KindArtist
}

// Directory is the minimal lookup surface the resolver needs. Implementations
// return ErrNotFound when the row is absent.
type Directory interface {
	ActiveUserExists(ctx context.Context, userID string) (bool, error)
	ArtistIDByUser(ctx context.Context, userID string) (string, error)
	ProfileIDByUser(ctx context.Context, userID string) (string, error)
}

type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve maps decoded token claims to a concrete identity by cross-checking
// the role-specific table. A token whose role has no backing row resolves to
// ErrNotFound; an unknown role resolves to ErrForbidden. Pure read.
func (r *Resolver) Resolve(ctx context.Context, c Claims) (Identity, error) {
	ok, err := r.dir.ActiveUserExists(ctx, c.UserID)
	if err != nil {
		return Identity{}, err
	}
	if !ok {
		return Identity{}, ErrNotFound
	}

	switch c.Role {
	case RoleSuperAdmin:
		return Identity{Kind: KindAdmin, UserID: c.UserID}, nil
	case RoleManager:
		profileID, err := r.dir.ProfileIDByUser(ctx, c.UserID)
		if err != nil {
			return Identity{}, err
		}
		return Identity{Kind: KindManager, UserID: c.UserID, ManagerID: profileID}, nil
	case RoleArtist:
		artistID, err := r.dir.ArtistIDByUser(ctx, c.UserID)
		if err != nil {
			return Identity{}, err
		}
		return Identity{Kind: KindArtist, UserID: c.UserID, ArtistID: artistID}, nil
	default:
		return Identity{}, ErrForbidden
	}
}
