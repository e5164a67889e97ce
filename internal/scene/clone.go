package scene

import (
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/qmuntal/gltf"
)

// Clone returns a deep copy of doc, buffer data included.
func Clone(doc *gltf.Document) (*gltf.Document, error) {
	out := new(gltf.Document)
	if err := copier.CopyWithOption(out, doc, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("scene: clone: %w", err)
	}
	return out, nil
}
