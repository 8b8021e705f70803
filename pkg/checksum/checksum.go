// Package checksum computes content digests of produced files.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrMismatch indicates content that does not match an expected digest.
var ErrMismatch = errors.New("checksum mismatch")

// Bytes returns the hex SHA-256 digest of data.
func Bytes(data []byte) string {
	hash := sha256.Sum256(data)

	return hex.EncodeToString(hash[:])
}

// Reader returns the hex SHA-256 digest of everything read from r.
func Reader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to hash content: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// File returns the hex SHA-256 digest of the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Reader(f)
}

// Verify checks the file at path against an expected digest.
func Verify(path, expected string) error {
	got, err := File(path)
	if err != nil {
		return err
	}

	if got != expected {
		return fmt.Errorf("%w: expected %s, got %s", ErrMismatch, expected, got)
	}

	return nil
}
