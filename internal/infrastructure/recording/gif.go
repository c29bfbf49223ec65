// Package recording turns the screenshots of a run into an animated GIF.
package recording

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/JovaniPink/mcp-browser-use/internal/application/port/output"
	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"

	"github.com/disintegration/imaging"
)

var ErrNoScreenshots = errors.New("history has no screenshots")

var _ output.HistoryRecorder = (*GIFRecorder)(nil)

type GIFRecorder struct {
	// MaxWidth bounds frame width; taller frames are scaled to fit MaxHeight.
	MaxWidth  int
	MaxHeight int
	// FrameDelay is in hundredths of a second.
	FrameDelay int
	logger     output.LoggerPort
}

func NewGIFRecorder(logger output.LoggerPort) *GIFRecorder {
	return &GIFRecorder{MaxWidth: 800, MaxHeight: 600, FrameDelay: 100, logger: logger}
}

func (r *GIFRecorder) WriteGIF(path string, history *entity.AgentHistory) error {
	anim, err := r.Encode(history.Screenshots())
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create gif directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gif: %w", err)
	}
	if err := gif.EncodeAll(f, anim); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode gif: %w", err)
	}
	return f.Close()
}

// Encode builds the animation from base64 screenshots. Undecodable frames
// are skipped.
func (r *GIFRecorder) Encode(screenshots []string) (*gif.GIF, error) {
	anim := &gif.GIF{}
	for i, shot := range screenshots {
		img, err := decode(shot)
		if err != nil {
			if r.logger != nil {
				r.logger.Warn("Skipping undecodable screenshot", "frame", i, "error", err)
			}
			continue
		}
		img = imaging.Fit(img, r.MaxWidth, r.MaxHeight, imaging.Lanczos)

		frame := image.NewPaletted(img.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(frame, img.Bounds(), img, image.Point{})

		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, r.FrameDelay)
	}
	if len(anim.Image) == 0 {
		return nil, ErrNoScreenshots
	}
	return anim, nil
}

func decode(b64 string) (image.Image, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
