package service

// ValidationError is a client error whose message is returned verbatim in
// the 400 response body.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validation failures surfaced by MovieService.
var (
	ErrPosterRequired  = &ValidationError{Message: "Poster is Required"}
	ErrPosterExtension = &ValidationError{Message: "Only .Png and .Jpg images are allowed!"}
	ErrPosterTooLarge  = &ValidationError{Message: "Max allowed size for Poster is 1MB!"}
	ErrInvalidGenre    = &ValidationError{Message: "Invalid genre ID!"}
)
