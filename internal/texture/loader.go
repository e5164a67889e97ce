package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/h2non/filetype"
)

// ErrNotImage is returned for sources that are not a supported image.
var ErrNotImage = errors.New("texture: not a supported image")

// Format identifies the encoding of a texture source by content. TGA has no
// signature, so it is recognised by extension only.
func Format(name string, raw []byte) (string, error) {
	kind, err := filetype.Match(raw)
	if err == nil && kind != filetype.Unknown {
		switch kind.Extension {
		case "png", "jpg":
			return kind.Extension, nil
		}
		return "", fmt.Errorf("%w: %s is %s", ErrNotImage, name, kind.MIME.Value)
	}
	if strings.EqualFold(filepath.Ext(name), ".tga") {
		return "tga", nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotImage, name)
}

// Load decodes a PNG, JPEG or TGA texture into NRGBA.
func Load(name string, raw []byte) (*image.NRGBA, error) {
	format, err := Format(name, raw)
	if err != nil {
		return nil, err
	}
	img, err := decoders[format].decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", name, err)
	}
	return toNRGBA(img), nil
}

// DecodeConfig returns the dimensions of a PNG, JPEG or TGA texture and
// its format.
func DecodeConfig(name string, raw []byte) (image.Config, string, error) {
	format, err := Format(name, raw)
	if err != nil {
		return image.Config{}, "", err
	}
	cfg, err := decoders[format].config(bytes.NewReader(raw))
	if err != nil {
		return image.Config{}, "", fmt.Errorf("texture: header %s: %w", name, err)
	}
	return cfg, format, nil
}

// The image package registry is not used: tga registers an empty magic
// that matches every input.
var decoders = map[string]struct {
	decode func(io.Reader) (image.Image, error)
	config func(io.Reader) (image.Config, error)
}{
	"png": {png.Decode, png.DecodeConfig},
	"jpg": {jpeg.Decode, jpeg.DecodeConfig},
	"tga": {tga.Decode, tga.DecodeConfig},
}

// toNRGBA converts any image to NRGBA format.
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	switch src.(type) {
	case *image.YCbCr, *image.Gray:
		// No alpha
		draw.Draw(dst, b, src, b.Min, draw.Src)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				dst.Pix[dst.PixOffset(x, y)+3] = 255
			}
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
				i := dst.PixOffset(x, y)
				dst.Pix[i] = c.R
				dst.Pix[i+1] = c.G
				dst.Pix[i+2] = c.B
				dst.Pix[i+3] = c.A
			}
		}
	}
	return dst
}
