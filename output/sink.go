package output

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	fractal "github.com/marben/dist_fractal"
)

// FileSink saves every completed frame to Path, replacing the previous one.
type FileSink struct {
	Path   string
	Format string // empty means FormatFromPath(Path)
	Logger *slog.Logger

	// Caption, if set, returns a caption to draw on a copy of the frame.
	Caption      func(generation uint64) string
	CaptionColor color.Color

	mu      sync.Mutex
	lastErr error
}

var _ fractal.Presenter = (*FileSink)(nil)

func (s *FileSink) PresentFrame(generation uint64, img *image.RGBA) {
	err := s.save(generation, img)

	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	if s.Logger == nil {
		return
	}
	if err != nil {
		s.Logger.Error("saving frame failed", "generation", generation, "path", s.Path, "err", err)
		return
	}
	s.Logger.Info("frame saved", "generation", generation, "path", s.Path)
}

// Err returns the result of the last save.
func (s *FileSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *FileSink) save(generation uint64, img *image.RGBA) error {
	var out image.Image = img
	if s.Caption != nil {
		fg := s.CaptionColor
		if fg == nil {
			fg = color.White
		}
		out = Captioned(img, s.Caption(generation), fg)
	}

	format := s.Format
	if format == "" {
		format = FormatFromPath(s.Path)
	}

	// write next to the target and rename, so readers never see half a file
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".frame-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, out, format); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
