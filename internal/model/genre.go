package model

// Genre is a named category a movie belongs to.  It corresponds to a row
// in the `genres` table.
//
// Fields:
//
//	ID   – primary key, a small unsigned integer (genres.id TINYINT UNSIGNED).
//	Name – display name, unique names are not enforced.
type Genre struct {
	ID   uint8  `json:"id"`   // genres.id
	Name string `json:"name"` // genres.name
}
