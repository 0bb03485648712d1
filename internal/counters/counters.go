// Package counters keeps the derived counters on albums and artists in step
// with the underlying rows. Counts are recomputed with a fresh aggregate
// query rather than incremented, so any prior drift heals on the next
// mutation instead of compounding. Every mutation path — single create,
// update, delete, reparent — calls the same two routines inside its
// transaction.
package counters

import "context"

// Tx is the slice of a resource transaction the recount routines need. The
// albums and musics stores both satisfy it.
type Tx interface {
	CountTracks(ctx context.Context, albumID string) (int, error)
	SetAlbumTrackCount(ctx context.Context, albumID string, n int) error
	CountAlbums(ctx context.Context, artistID string) (int, error)
	SetArtistAlbumCount(ctx context.Context, artistID string, n int) error
}

// RecountAlbumTracks recomputes no_of_tracks for the album. No-op for an
// empty album id (a music row may have no album).
func RecountAlbumTracks(ctx context.Context, tx Tx, albumID string) error {
	if albumID == "" {
		return nil
	}
	n, err := tx.CountTracks(ctx, albumID)
	if err != nil {
		return err
	}
	return tx.SetAlbumTrackCount(ctx, albumID, n)
}

// RecountArtistAlbums recomputes no_of_album_released for the artist.
func RecountArtistAlbums(ctx context.Context, tx Tx, artistID string) error {
	if artistID == "" {
		return nil
	}
	n, err := tx.CountAlbums(ctx, artistID)
	if err != nil {
		return err
	}
	return tx.SetArtistAlbumCount(ctx, artistID, n)
}
