// Package id generates prefixed, URL-safe identifiers.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for stored entities.
const (
	PrefixUser      = "user"
	PrefixSession   = "session"
	PrefixChallenge = "challenge"
	PrefixPost      = "post"
	PrefixToken     = "token"
	PrefixReset     = "reset"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "challenge-V1StGXR8_Z5jdHi6B-myT").
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// fileAlphabet keeps generated file names lowercase and free of separators.
const fileAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Short returns an n-character lowercase alphanumeric NanoID for file names.
func Short(n int) (string, error) {
	id, err := gonanoid.Generate(fileAlphabet, n)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// HasPrefix reports whether id was generated with prefix.
func HasPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"-") && len(id) > len(prefix)+1
}
