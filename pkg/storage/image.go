package storage

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageBytes is the upper bound for course images (2048 KB).
const MaxImageBytes = 2048 * 1024

var (
	ErrImageTooLarge   = errors.New("image may not be greater than 2048 kilobytes")
	ErrImageType       = errors.New("image must be a file of type: jpeg, png, jpg, gif")
	ErrImageUnreadable = errors.New("image could not be read")
)

// allowedImageTypes maps sniffed MIME types to stored extensions.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// ValidateImage checks the size and actual content of an uploaded image and
// returns the extension to store it under.
func ValidateImage(header *multipart.FileHeader) (string, error) {
	if header.Size > MaxImageBytes {
		return "", ErrImageTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageUnreadable, err)
	}
	defer file.Close()

	return validateImageReader(file)
}

func validateImageReader(r io.ReadSeeker) (string, error) {
	detected, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageUnreadable, err)
	}

	ext, ok := allowedImageTypes[detected.String()]
	if !ok {
		return "", ErrImageType
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageUnreadable, err)
	}
	if _, _, err := image.DecodeConfig(r); err != nil {
		return "", ErrImageType
	}

	return ext, nil
}

// SaveImage validates and stores an uploaded image under dir, returning the
// relative path.
func (s *Local) SaveImage(dir string, header *multipart.FileHeader) (string, error) {
	ext, err := ValidateImage(header)
	if err != nil {
		return "", err
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageUnreadable, err)
	}
	defer file.Close()

	return s.Save(dir, ext, file)
}
