// Package upload reads user-submitted image files and hands them to the
// normalizer, producing session-ready artifacts.
package upload

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"server/internal/domain"
	"server/internal/imaging"
)

// Normalizer is the letterboxing contract consumed by the intake.
type Normalizer interface {
	Normalize(src []byte, mediaType string) (*domain.Artifact, error)
}

// Intake validates and normalizes uploaded files.
type Intake struct {
	normalizer Normalizer
	maxBytes   int64
}

// NewIntake constructs an Intake with the given upload size cap.
func NewIntake(n Normalizer, maxBytes int64) (*Intake, error) {
	if n == nil {
		return nil, errors.New("upload: normalizer is required")
	}
	if maxBytes <= 0 {
		return nil, errors.New("upload: max bytes must be positive")
	}
	return &Intake{normalizer: n, maxBytes: maxBytes}, nil
}

// HandleUpload reads the file, sniffs its content type, and returns the
// normalized artifact. Failures leave any previously accepted artifact for the
// slot untouched because nothing is written until the caller stores the
// returned value.
func (in *Intake) HandleUpload(r io.Reader) (*domain.Artifact, error) {
	data, err := io.ReadAll(io.LimitReader(r, in.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrReadFailed, err)
	}
	if int64(len(data)) > in.maxBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrReadFailed, in.maxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", domain.ErrReadFailed)
	}

	mediaType := http.DetectContentType(data)
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, fmt.Errorf("%w: unsupported content type %s", domain.ErrDecodeFailed, mediaType)
	}

	return in.normalizer.Normalize(data, mediaType)
}

// DefaultNormalizer wires the intake to the standard letterbox normalizer.
func DefaultNormalizer() Normalizer {
	return imaging.NewNormalizer()
}
