package model

// Movie is a film record as stored in the `movies` table.  Create and
// update responses return this shape, including the raw poster bytes.
// Genre is never loaded and always serialises as null; read endpoints
// return MovieDetails with the genre name instead.
type Movie struct {
	ID        int     `json:"id"`        // movies.id
	Title     string  `json:"title"`     // movies.title
	Year      int     `json:"year"`      // movies.year
	Rate      float64 `json:"rate"`      // movies.rate
	Storeline string  `json:"storeline"` // movies.storeline
	Poster    []byte  `json:"poster"`    // movies.poster (MEDIUMBLOB)
	GenreID   uint8   `json:"genreId"`   // movies.genre_id -> genres.id
	Genre     *Genre  `json:"genre"`     // always nil
}

// MovieDetails is the read projection returned by the list and get
// endpoints.  GenreName is denormalized from the joined genre.
type MovieDetails struct {
	ID        int     `json:"id"`
	Title     string  `json:"title"`
	Year      int     `json:"year"`
	Rate      float64 `json:"rate"`
	Storeline string  `json:"storeline"`
	Poster    []byte  `json:"poster"`
	GenreID   uint8   `json:"genreId"`
	GenreName string  `json:"genreName"`
}
