// Package output turns rendered frames into files: PNG or TIFF encoding,
// an optional caption with the render parameters, and a Presenter that
// saves every completed frame.
package output

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"
)

// Supported formats.
const (
	PNG  = "png"
	TIFF = "tiff"
)

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case PNG, "":
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("png.Encode: %w", err)
		}
	case TIFF, "tif":
		if err := tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true}); err != nil {
			return fmt.Errorf("tiff.Encode: %w", err)
		}
	default:
		return fmt.Errorf("unsupported image format %q", format)
	}
	return nil
}

// FormatFromPath picks the format from a file extension, PNG by default.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return TIFF
	default:
		return PNG
	}
}

// ContentType of an encoded format, for HTTP responses.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case TIFF, "tif":
		return "image/tiff"
	default:
		return "image/png"
	}
}
