package utils

import (
	"crypto/rand"
	"errors"
	"math"
	"mime/multipart"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ErrFrameTooLarge        = errors.New("frame exceeds maximum size")
	ErrUnsupportedImageType = errors.New("unsupported image type")
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateFrameFile(file *multipart.FileHeader) error
}

type utils struct {
	maxFrameSize int64
}

func New() IUtils {
	return &utils{
		maxFrameSize: 2 * 1024 * 1024,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// ValidateFrameFile enforces the camera-frame upload contract: JPEG or PNG
// only, at most 2MB.
func (u *utils) ValidateFrameFile(file *multipart.FileHeader) error {
	if file == nil {
		return errors.New("no file uploaded")
	}

	if file.Size > u.maxFrameSize {
		return ErrFrameTooLarge
	}

	switch file.Header.Get("Content-Type") {
	case "image/jpeg", "image/jpg", "image/png":
		return nil
	default:
		return ErrUnsupportedImageType
	}
}

// RoundTo rounds v to the given number of decimal places. Analysis results
// report rounded metrics so serialized values are reproducible.
func RoundTo(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
