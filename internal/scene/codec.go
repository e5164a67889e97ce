package scene

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/qmuntal/gltf"
)

// Generator is written into the asset block of documents created here.
const Generator = "asset-pipeline"

// glbMagic is the first four bytes of every binary glTF container.
const glbMagic = "glTF"

var supportedVersions = mustConstraint(">= 2.0, < 3.0")

// New returns an empty document: no scenes, nodes, buffers or materials.
func New() *gltf.Document {
	return &gltf.Document{
		Asset: gltf.Asset{Version: "2.0", Generator: Generator},
	}
}

// Decode parses a binary glTF container. Buffers that reference external
// files cannot be resolved and fail the decode.
func Decode(raw []byte) (*gltf.Document, error) {
	if len(raw) < 12 || string(raw[:4]) != glbMagic {
		return nil, &DecodeError{Err: errors.New("missing binary glTF header")}
	}

	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(raw)).Decode(doc); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if err := checkVersion(doc.Asset); err != nil {
		return nil, &DecodeError{Err: err}
	}

	// The BIN chunk is padded to four bytes; keep Data and ByteLength equal.
	for i, b := range doc.Buffers {
		switch {
		case len(b.Data) < b.ByteLength:
			return nil, &DecodeError{Err: fmt.Errorf("buffer %d truncated: %d of %d bytes", i, len(b.Data), b.ByteLength)}
		case len(b.Data) > b.ByteLength:
			b.Data = b.Data[:b.ByteLength:b.ByteLength]
		}
	}
	return doc, nil
}

// Encode writes doc as a binary glTF container. Only the first buffer can
// live in the BIN chunk; any other buffer must carry its own URI.
func Encode(doc *gltf.Document) ([]byte, error) {
	for i, b := range doc.Buffers {
		if i > 0 && b.URI == "" {
			return nil, fmt.Errorf("%w: buffer %d", ErrDetachedBuffer, i)
		}
	}

	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("scene: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func checkVersion(a gltf.Asset) error {
	v, err := semver.NewVersion(a.Version)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, a.Version)
	}
	if !supportedVersions.Check(v) {
		return fmt.Errorf("%w: %s", ErrUnsupportedVersion, a.Version)
	}
	if a.MinVersion == "" {
		return nil
	}
	mv, err := semver.NewVersion(a.MinVersion)
	if err != nil || !supportedVersions.Check(mv) {
		return fmt.Errorf("%w: minVersion %q", ErrUnsupportedVersion, a.MinVersion)
	}
	return nil
}

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}
