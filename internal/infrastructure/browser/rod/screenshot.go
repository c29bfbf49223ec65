package rod

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
)

const (
	maxScreenshotWidth = 1024
	screenshotQuality  = 75
)

// encodeScreenshot downsizes a captured frame to maxScreenshotWidth and
// returns it as base64 JPEG.
func encodeScreenshot(raw []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > maxScreenshotWidth {
		img = imaging.Resize(img, maxScreenshotWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: screenshotQuality}); err != nil {
		return "", fmt.Errorf("jpeg encode failed: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
