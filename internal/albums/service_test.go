package albums

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

// fakeTrack is the slice of a music row the album service touches.
type fakeTrack struct {
	AlbumID  string
	ArtistID string
}

// fakeStore keeps albums in memory and implements the counter queries over
// that state, so the recount logic in the service runs against real data.
type fakeStore struct {
	albums      map[string]*Album
	tracks      map[string]*fakeTrack // music id -> placement
	artists     map[string]bool
	albumCounts map[string]int // artist id -> stored no_of_album_released
	nextID      int
}

func newFakeStore(artistIDs ...string) *fakeStore {
	f := &fakeStore{
		albums:      map[string]*Album{},
		tracks:      map[string]*fakeTrack{},
		artists:     map[string]bool{},
		albumCounts: map[string]int{},
	}
	for _, id := range artistIDs {
		f.artists[id] = true
	}
	return f
}

func (f *fakeStore) GetInScope(_ context.Context, id string, sc scope.Scope) (*Album, error) {
	a, ok := f.albums[id]
	if !ok || !sc.Contains(a.OwnerID) {
		return nil, ErrAlbumNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeStore) List(_ context.Context, sc scope.Scope, _ pagination.Page) ([]Album, int, error) {
	var out []Album
	for _, a := range f.albums {
		if sc.Contains(a.OwnerID) {
			out = append(out, *a)
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) ArtistExists(_ context.Context, artistID string) (bool, error) {
	return f.artists[artistID], nil
}

func (f *fakeStore) InTx(_ context.Context, fn func(Tx) error) error {
	return fn(&fakeTx{store: f})
}

type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) Insert(_ context.Context, a *Album) error {
	t.store.nextID++
	a.ID = fmt.Sprintf("album-%d", t.store.nextID)
	stored := *a
	t.store.albums[a.ID] = &stored
	return nil
}

func (t *fakeTx) Update(_ context.Context, a *Album) error {
	if _, ok := t.store.albums[a.ID]; !ok {
		return ErrAlbumNotFound
	}
	stored := *a
	t.store.albums[a.ID] = &stored
	return nil
}

func (t *fakeTx) Delete(_ context.Context, id string) error {
	delete(t.store.albums, id)
	return nil
}

func (t *fakeTx) ReassignTracks(_ context.Context, albumID, artistID string) error {
	for _, track := range t.store.tracks {
		if track.AlbumID == albumID {
			track.ArtistID = artistID
		}
	}
	return nil
}

func (t *fakeTx) CountTracks(_ context.Context, albumID string) (int, error) {
	n := 0
	for _, track := range t.store.tracks {
		if track.AlbumID == albumID {
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) SetAlbumTrackCount(_ context.Context, _ string, _ int) error { return nil }

func (t *fakeTx) CountAlbums(_ context.Context, artistID string) (int, error) {
	n := 0
	for _, a := range t.store.albums {
		if a.OwnerID == artistID {
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) SetArtistAlbumCount(_ context.Context, artistID string, n int) error {
	t.store.albumCounts[artistID] = n
	return nil
}

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

var admin = identity.Identity{Kind: identity.KindAdmin, UserID: "admin-u"}

func managerOf(artistIDs ...string) (identity.Identity, *fakeScopes) {
	actor := identity.Identity{Kind: identity.KindManager, UserID: "mgr-u", ManagerID: "mgr-1"}
	return actor, &fakeScopes{rosters: map[string][]string{"mgr-1": artistIDs}}
}

func artistActor(artistID string) identity.Identity {
	return identity.Identity{Kind: identity.KindArtist, UserID: "art-u", ArtistID: artistID}
}

func TestAlbumsCreate_ArtistAlwaysOwnsOwn(t *testing.T) {
	store := newFakeStore("a1", "a2")
	svc := NewService(store, &fakeScopes{})

	album, err := svc.Create(context.Background(), artistActor("a1"), CreateInput{Name: "Debut", OwnerID: "a2"})
	require.NoError(t, err)
	require.Equal(t, "a1", album.OwnerID, "artist actors create under their own name")
	require.Equal(t, 1, store.albumCounts["a1"], "owner album count recomputed on create")
}

func TestAlbumsCreate_ManagerNeedsOwnerInScope(t *testing.T) {
	store := newFakeStore("a1", "a2")
	actor, scopes := managerOf("a1")
	svc := NewService(store, scopes)

	album, err := svc.Create(context.Background(), actor, CreateInput{Name: "Rostered", OwnerID: "a1"})
	require.NoError(t, err)
	require.Equal(t, "a1", album.OwnerID)

	// a2 exists but is not on the roster: indistinguishable from absent.
	_, err = svc.Create(context.Background(), actor, CreateInput{Name: "Stolen", OwnerID: "a2"})
	require.ErrorIs(t, err, ErrArtistNotFound)
}

func TestAlbumsCreate_Validation(t *testing.T) {
	svc := NewService(newFakeStore("a1"), &fakeScopes{})

	_, err := svc.Create(context.Background(), admin, CreateInput{Name: "  "})
	var fields validate.FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Contains(t, fields, "name")
	require.Contains(t, fields, "owner_id")
}

func TestAlbumsCreate_UnknownOwner(t *testing.T) {
	svc := NewService(newFakeStore("a1"), &fakeScopes{})

	_, err := svc.Create(context.Background(), admin, CreateInput{Name: "Orphan", OwnerID: "ghost"})
	require.ErrorIs(t, err, ErrArtistNotFound)
}

func TestAlbumsUpdate_ReparentRecountsBothOwners(t *testing.T) {
	store := newFakeStore("a1", "a2")
	svc := NewService(store, &fakeScopes{})

	album, err := svc.Create(context.Background(), admin, CreateInput{Name: "Touring", OwnerID: "a1"})
	require.NoError(t, err)
	require.Equal(t, 1, store.albumCounts["a1"])

	newOwner := "a2"
	updated, err := svc.Update(context.Background(), admin, album.ID, UpdateInput{OwnerID: &newOwner})
	require.NoError(t, err)
	require.Equal(t, "a2", updated.OwnerID)
	require.Equal(t, 0, store.albumCounts["a1"], "old owner recounted")
	require.Equal(t, 1, store.albumCounts["a2"], "new owner recounted")
}

func TestAlbumsUpdate_ReparentCarriesTracksAlong(t *testing.T) {
	store := newFakeStore("a1", "a2")
	svc := NewService(store, &fakeScopes{})

	album, err := svc.Create(context.Background(), admin, CreateInput{Name: "Boxed Set", OwnerID: "a1"})
	require.NoError(t, err)
	store.tracks["m1"] = &fakeTrack{AlbumID: album.ID, ArtistID: "a1"}
	store.tracks["m2"] = &fakeTrack{AlbumID: album.ID, ArtistID: "a1"}
	store.tracks["m3"] = &fakeTrack{AlbumID: "other-album", ArtistID: "a1"}

	newOwner := "a2"
	_, err = svc.Update(context.Background(), admin, album.ID, UpdateInput{OwnerID: &newOwner})
	require.NoError(t, err)

	require.Equal(t, "a2", store.tracks["m1"].ArtistID, "track follows the album")
	require.Equal(t, "a2", store.tracks["m2"].ArtistID, "track follows the album")
	require.Equal(t, "a1", store.tracks["m3"].ArtistID, "tracks on other albums stay put")
}

func TestAlbumsUpdate_OutOfScope(t *testing.T) {
	store := newFakeStore("a1", "a2")
	svc := NewService(store, &fakeScopes{})

	album, err := svc.Create(context.Background(), admin, CreateInput{Name: "Private", OwnerID: "a2"})
	require.NoError(t, err)

	name := "Renamed"
	_, err = svc.Update(context.Background(), artistActor("a1"), album.ID, UpdateInput{Name: &name})
	require.ErrorIs(t, err, ErrAlbumNotFound)
}

func TestAlbumsDelete_RecountsOwner(t *testing.T) {
	store := newFakeStore("a1")
	svc := NewService(store, &fakeScopes{})

	first, err := svc.Create(context.Background(), admin, CreateInput{Name: "One", OwnerID: "a1"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), admin, CreateInput{Name: "Two", OwnerID: "a1"})
	require.NoError(t, err)
	require.Equal(t, 2, store.albumCounts["a1"])

	require.NoError(t, svc.Delete(context.Background(), admin, first.ID))
	require.Equal(t, 1, store.albumCounts["a1"])
	require.NotContains(t, store.albums, first.ID)
}

func TestAlbumsList_Scoped(t *testing.T) {
	store := newFakeStore("a1", "a2")
	actor, scopes := managerOf("a1")
	svc := NewService(store, scopes)

	_, err := svc.Create(context.Background(), admin, CreateInput{Name: "Mine", OwnerID: "a1"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), admin, CreateInput{Name: "Other", OwnerID: "a2"})
	require.NoError(t, err)

	result, err := svc.List(context.Background(), actor, pagination.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	require.Equal(t, "a1", result.Items[0].OwnerID)
}

func TestAlbumsSetImagePath(t *testing.T) {
	store := newFakeStore("a1")
	svc := NewService(store, &fakeScopes{})

	album, err := svc.Create(context.Background(), admin, CreateInput{Name: "Covered", OwnerID: "a1"})
	require.NoError(t, err)

	updated, err := svc.SetImagePath(context.Background(), admin, album.ID, "albums/cover.png")
	require.NoError(t, err)
	require.Equal(t, "albums/cover.png", updated.ImagePath)
	require.Equal(t, "albums/cover.png", store.albums[album.ID].ImagePath)
}
