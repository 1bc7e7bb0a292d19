// SPDX-License-Identifier: MPL-2.0

// Package checksum computes file digests for artifact verification.
//
// MD5 is the default for compatibility with existing artifact manifests;
// SHA-256 and BLAKE3 are available where collision resistance or speed
// matters more. Files are streamed through the digest, never loaded whole.
package checksum

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Algorithm selects the digest function.
type Algorithm string

const (
	// MD5 is the default algorithm.
	MD5 Algorithm = "md5"
	// SHA256 selects SHA-256.
	SHA256 Algorithm = "sha256"
	// BLAKE3 selects BLAKE3 with a 256-bit output.
	BLAKE3 Algorithm = "blake3"
)

// ParseAlgorithm maps a user-supplied name to an Algorithm. The empty
// string means the default (md5).
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case "":
		return MD5, nil
	case MD5, SHA256, BLAKE3:
		return Algorithm(name), nil
	default:
		return "", fmt.Errorf("unknown checksum algorithm %q (valid: md5, sha256, blake3)", name)
	}
}

// newHasher returns a fresh hash.Hash for the algorithm.
func newHasher(algo Algorithm) (hash.Hash, error) {
	switch algo {
	case MD5:
		return md5.New(), nil
	case SHA256:
		return sha256.New(), nil
	case BLAKE3:
		return blake3.New(), nil
	default:
		return nil, fmt.Errorf("unknown checksum algorithm %q", algo)
	}
}

// File streams the file at path through the selected digest and returns the
// lowercase hex string.
func File(path string, algo Algorithm) (string, error) {
	h, err := newHasher(algo)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// MD5File returns the md5 hex digest of the file at path.
func MD5File(path string) (string, error) {
	return File(path, MD5)
}
