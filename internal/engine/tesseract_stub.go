//go:build !tesseract

package engine

import "fmt"

func newTesseractBackend(_ Config) (Backend, error) {
	return nil, fmt.Errorf("%w: rebuild with -tags tesseract to enable the tesseract backend", ErrNoBackend)
}
