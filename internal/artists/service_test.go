package artists

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sopatech/backstage/internal/identity"
	"github.com/sopatech/backstage/internal/pagination"
	"github.com/sopatech/backstage/internal/scope"
	"github.com/sopatech/backstage/internal/validate"
)

type fakeStore struct {
	artists  map[string]*Artist
	managers map[string]bool
	emails   map[string]bool
	nextID   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		artists:  map[string]*Artist{},
		managers: map[string]bool{},
		emails:   map[string]bool{},
	}
}

func (f *fakeStore) GetInScope(_ context.Context, id string, sc scope.Scope) (*Artist, error) {
	a, ok := f.artists[id]
	if !ok || !sc.Contains(id) {
		return nil, ErrArtistNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeStore) List(_ context.Context, sc scope.Scope, _ pagination.Page) ([]Artist, int, error) {
	var out []Artist
	for id, a := range f.artists {
		if sc.Contains(id) {
			out = append(out, *a)
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) ManagerExists(_ context.Context, managerID string) (bool, error) {
	return f.managers[managerID], nil
}

func (f *fakeStore) EmailTaken(_ context.Context, email string) (bool, error) {
	return f.emails[email], nil
}

func (f *fakeStore) CreateWithUser(_ context.Context, email, _ string, a *Artist) error {
	f.nextID++
	a.ID = fmt.Sprintf("artist-%d", f.nextID)
	a.UserID = fmt.Sprintf("user-%d", f.nextID)
	f.emails[email] = true
	stored := *a
	f.artists[a.ID] = &stored
	return nil
}

func (f *fakeStore) Update(_ context.Context, a *Artist) error {
	if _, ok := f.artists[a.ID]; !ok {
		return ErrArtistNotFound
	}
	stored := *a
	f.artists[a.ID] = &stored
	return nil
}

func (f *fakeStore) DeleteWithUser(_ context.Context, artistID string) error {
	if _, ok := f.artists[artistID]; !ok {
		return ErrArtistNotFound
	}
	delete(f.artists, artistID)
	return nil
}

// fakeScopes mirrors the production resolver against the fake store's data.
type fakeScopes struct {
	rosters map[string][]string
}

func (f *fakeScopes) For(_ context.Context, id identity.Identity, _ scope.Kind) (scope.Scope, error) {
	switch id.Kind {
	case identity.KindAdmin:
		return scope.All, nil
	case identity.KindManager:
		return scope.Of(f.rosters[id.ManagerID]...), nil
	case identity.KindArtist:
		return scope.Of(id.ArtistID), nil
	}
	return scope.Scope{}, scope.ErrForbidden
}

var (
	admin   = identity.Identity{Kind: identity.KindAdmin, UserID: "admin-u"}
	manager = identity.Identity{Kind: identity.KindManager, UserID: "mgr-u", ManagerID: "mgr-1"}
)

func artistActor(artistID string) identity.Identity {
	return identity.Identity{Kind: identity.KindArtist, UserID: "art-u", ArtistID: artistID}
}

func newTestService(store *fakeStore, scopes *fakeScopes) Service {
	if scopes == nil {
		scopes = &fakeScopes{rosters: map[string][]string{}}
	}
	return NewService(store, scopes)
}

func validCreate() CreateInput {
	return CreateInput{
		Email:    "new@example.com",
		Password: "password123",
		Name:     "New Artist",
	}
}

func TestArtistsCreate_ArtistActorForbidden(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)

	_, err := svc.Create(context.Background(), artistActor("a1"), validCreate())
	require.ErrorIs(t, err, ErrForbidden)
}

func TestArtistsCreate_ManagerForcesOwnRoster(t *testing.T) {
	store := newFakeStore()
	store.managers["mgr-1"] = true
	store.managers["mgr-2"] = true
	svc := newTestService(store, nil)

	in := validCreate()
	in.ManagerID = "mgr-2" // must be ignored for a manager actor

	artist, err := svc.Create(context.Background(), manager, in)
	require.NoError(t, err)
	require.Equal(t, "mgr-1", artist.ManagerID)
}

func TestArtistsCreate_AdminSetsManager(t *testing.T) {
	store := newFakeStore()
	store.managers["mgr-2"] = true
	svc := newTestService(store, nil)

	in := validCreate()
	in.ManagerID = "mgr-2"
	artist, err := svc.Create(context.Background(), admin, in)
	require.NoError(t, err)
	require.Equal(t, "mgr-2", artist.ManagerID)

	// Unassigned is also fine for an admin.
	in = validCreate()
	in.Email = "other@example.com"
	artist, err = svc.Create(context.Background(), admin, in)
	require.NoError(t, err)
	require.Empty(t, artist.ManagerID)
}

func TestArtistsCreate_UnknownManager(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)

	in := validCreate()
	in.ManagerID = "ghost"
	_, err := svc.Create(context.Background(), admin, in)
	require.ErrorIs(t, err, ErrManagerNotFound)
}

func TestArtistsCreate_EmailTaken(t *testing.T) {
	store := newFakeStore()
	store.emails["new@example.com"] = true
	svc := newTestService(store, nil)

	_, err := svc.Create(context.Background(), admin, validCreate())
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestArtistsCreate_Validation(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)

	in := CreateInput{
		Email:             "bad@example.com",
		Password:          "short",
		Name:              "",
		Gender:            "YES",
		DOB:               "1990-13-40",
		FirstReleasedYear: 1800,
	}
	_, err := svc.Create(context.Background(), admin, in)

	var fields validate.FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Contains(t, fields, "name")
	require.Contains(t, fields, "gender")
	require.Contains(t, fields, "dob")
	require.Contains(t, fields, "first_released_year")
}

func TestArtistsCreate_DOBAfterFirstRelease(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)

	in := validCreate()
	in.DOB = "2000-06-01"
	in.FirstReleasedYear = 1995
	_, err := svc.Create(context.Background(), admin, in)

	var fields validate.FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Contains(t, fields, "dob")
}

func TestArtistsGet_ScopeMasksExistence(t *testing.T) {
	store := newFakeStore()
	store.managers["mgr-1"] = true
	scopes := &fakeScopes{rosters: map[string][]string{}}
	svc := newTestService(store, scopes)

	in := validCreate()
	created, err := svc.Create(context.Background(), admin, in)
	require.NoError(t, err)

	// Admin reads it.
	got, err := svc.Get(context.Background(), admin, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	// Manager with an empty roster gets the same error as for a missing id.
	_, errOutOfScope := svc.Get(context.Background(), manager, created.ID)
	_, errMissing := svc.Get(context.Background(), admin, "no-such-artist")
	require.ErrorIs(t, errOutOfScope, ErrArtistNotFound)
	require.Equal(t, errMissing, errOutOfScope)
}

func TestArtistsList_ScopedToRoster(t *testing.T) {
	store := newFakeStore()
	store.managers["mgr-1"] = true
	scopes := &fakeScopes{rosters: map[string][]string{}}
	svc := newTestService(store, scopes)

	mine, err := svc.Create(context.Background(), manager, validCreate())
	require.NoError(t, err)
	scopes.rosters["mgr-1"] = []string{mine.ID}

	other := validCreate()
	other.Email = "other@example.com"
	_, err = svc.Create(context.Background(), admin, other)
	require.NoError(t, err)

	result, err := svc.List(context.Background(), manager, pagination.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	require.Equal(t, mine.ID, result.Items[0].ID)

	all, err := svc.List(context.Background(), admin, pagination.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	require.Equal(t, 2, all.Total)
}

func TestArtistsUpdate_ManagerCannotReassign(t *testing.T) {
	store := newFakeStore()
	store.managers["mgr-1"] = true
	store.managers["mgr-2"] = true
	scopes := &fakeScopes{rosters: map[string][]string{}}
	svc := newTestService(store, scopes)

	artist, err := svc.Create(context.Background(), manager, validCreate())
	require.NoError(t, err)
	scopes.rosters["mgr-1"] = []string{artist.ID}

	newManager := "mgr-2"
	updated, err := svc.Update(context.Background(), manager, artist.ID, UpdateInput{ManagerID: &newManager})
	require.NoError(t, err)
	require.Equal(t, "mgr-1", updated.ManagerID, "manager actors cannot move artists off their roster")

	updated, err = svc.Update(context.Background(), admin, artist.ID, UpdateInput{ManagerID: &newManager})
	require.NoError(t, err)
	require.Equal(t, "mgr-2", updated.ManagerID)
}

func TestArtistsUpdate_AdminClearsManager(t *testing.T) {
	store := newFakeStore()
	store.managers["mgr-1"] = true
	svc := newTestService(store, nil)

	in := validCreate()
	in.ManagerID = "mgr-1"
	artist, err := svc.Create(context.Background(), admin, in)
	require.NoError(t, err)

	empty := ""
	updated, err := svc.Update(context.Background(), admin, artist.ID, UpdateInput{ManagerID: &empty})
	require.NoError(t, err)
	require.Empty(t, updated.ManagerID)
}

func TestArtistsDelete(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeScopes{rosters: map[string][]string{}})

	artist, err := svc.Create(context.Background(), admin, validCreate())
	require.NoError(t, err)

	// Out of scope first: the artist survives.
	require.ErrorIs(t, svc.Delete(context.Background(), manager, artist.ID), ErrArtistNotFound)
	require.Contains(t, store.artists, artist.ID)

	require.NoError(t, svc.Delete(context.Background(), admin, artist.ID))
	require.NotContains(t, store.artists, artist.ID)
}
