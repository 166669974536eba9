package service

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
)

// DefaultPosterMaxBytes is the largest poster accepted (1 MiB).
const DefaultPosterMaxBytes int64 = 1 << 20

// DefaultPosterExtensions are the accepted poster file extensions.
var DefaultPosterExtensions = []string{".jpg", ".png"}

// Upload is a poster file received with a movie form.  Open is called at
// most once, after validation succeeded.
type Upload struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// PosterPolicy restricts poster type and size.  Extensions are compared
// case-sensitively, so "poster.JPG" is rejected.
type PosterPolicy struct {
	AllowedExtensions []string
	MaxBytes          int64
}

// DefaultPosterPolicy accepts .jpg and .png files up to 1 MiB.
func DefaultPosterPolicy() PosterPolicy {
	return PosterPolicy{AllowedExtensions: DefaultPosterExtensions, MaxBytes: DefaultPosterMaxBytes}
}

// Validate checks the extension first and the size second.
func (p PosterPolicy) Validate(u *Upload) error {
	if !slices.Contains(p.AllowedExtensions, filepath.Ext(u.Filename)) {
		return ErrPosterExtension
	}
	if u.Size > p.MaxBytes {
		return ErrPosterTooLarge
	}
	return nil
}

// readPoster loads the whole upload into memory.  The reader is capped one
// byte past the limit so a size header that lied is still caught.
func (p PosterPolicy) readPoster(u *Upload) ([]byte, error) {
	f, err := u.Open()
	if err != nil {
		return nil, fmt.Errorf("open poster: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, p.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read poster: %w", err)
	}
	if int64(len(data)) > p.MaxBytes {
		return nil, ErrPosterTooLarge
	}
	return data, nil
}
