package musics

// Genre is the fixed music genre enum.
type Genre string

const (
	GenreRock      Genre = "ROCK"
	GenrePop       Genre = "POP"
	GenreCountry   Genre = "COUNTRY"
	GenreClassical Genre = "CLASSICAL"
	GenreJazz      Genre = "JAZZ"
)

// AllGenres returns every accepted genre.
func AllGenres() []Genre {
	return []Genre{GenreRock, GenrePop, GenreCountry, GenreClassical, GenreJazz}
}

// ValidGenre returns true if g is one of the known genres.
func ValidGenre(g Genre) bool {
	for _, known := range AllGenres() {
		if g == known {
			return true
		}
	}
	return false
}
