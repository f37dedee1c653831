package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes.
// Version suffix enables future algorithm migration.
const (
	DomainScene = "stepviz/scene/v1"
	DomainLog   = "stepviz/log/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SceneHash computes a content hash of an ordered object list. Two scenes
// hash equal iff every object matches field for field, in the same order.
func SceneHash(objects []Object) (string, error) {
	canonical, err := MarshalCanonical(objects)
	if err != nil {
		return "", fmt.Errorf("SceneHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainScene, canonical), nil
}

// LogHash computes a content hash of a command log via its encoded form.
func LogHash(cmds []Command) (string, error) {
	canonical, err := MarshalCanonical(EncodeAll(cmds))
	if err != nil {
		return "", fmt.Errorf("LogHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainLog, canonical), nil
}

// MustSceneHash is like SceneHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSceneHash(objects []Object) string {
	h, err := SceneHash(objects)
	if err != nil {
		panic(err)
	}
	return h
}
