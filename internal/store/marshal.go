package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/stepviz/internal/ir"
)

// marshalObjects converts a scene to canonical JSON TEXT for storage.
// Canonical keys match the Object json tags, so json.Unmarshal reads it back.
func marshalObjects(objs []ir.Object) (string, error) {
	if objs == nil {
		objs = []ir.Object{}
	}
	data, err := ir.MarshalCanonical(objs)
	if err != nil {
		return "", fmt.Errorf("marshal objects: %w", err)
	}
	return string(data), nil
}

// unmarshalObjects parses JSON TEXT from the database into a scene.
func unmarshalObjects(s string) ([]ir.Object, error) {
	var objs []ir.Object
	if err := json.Unmarshal([]byte(s), &objs); err != nil {
		return nil, fmt.Errorf("unmarshal objects: %w", err)
	}
	if objs == nil {
		objs = []ir.Object{}
	}
	return objs, nil
}
