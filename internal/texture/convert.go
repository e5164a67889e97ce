package texture

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/HugoSmits86/nativewebp"
)

// Converter re-encodes textures, shrinking any larger than MaxSize.
// MaxSize <= 0 keeps the original dimensions.
type Converter struct {
	MaxSize int
}

// WebP decodes a texture and encodes it as lossless WebP.
func (c Converter) WebP(name string, raw []byte) ([]byte, error) {
	img, err := Load(name, raw)
	if err != nil {
		return nil, err
	}
	img = Downsample(img, c.MaxSize)

	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, img, nil); err != nil {
		return nil, fmt.Errorf("texture: webp encode %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// PNG decodes a texture and encodes it as PNG.
func (c Converter) PNG(name string, raw []byte) ([]byte, error) {
	img, err := Load(name, raw)
	if err != nil {
		return nil, err
	}
	img = Downsample(img, c.MaxSize)

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("texture: png encode %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
