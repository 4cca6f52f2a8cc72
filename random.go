// random.go: Cryptographically secure random filling for secure buffers.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package secmem

import (
	"crypto/rand"
	"io"

	goerrors "github.com/agilira/go-errors"
)

// FillRandom overwrites the buffer's entire contents with bytes from the
// operating system CSPRNG. A write guard is taken and released internally,
// so the buffer must be in the NoAccess state and returns to it before
// FillRandom returns.
//
// Parameters:
//   - s: The buffer to fill
//
// Returns:
//   - An error if the random source fails
func FillRandom(s *SecBuf) error {
	lock := s.WriteLock()
	defer lock.Unlock()

	if _, err := io.ReadFull(rand.Reader, lock.MutableBytes()); err != nil {
		return goerrors.Wrap(err, "SECMEM_RANDOM_FILL", "failed to fill buffer with random bytes")
	}
	return nil
}

// NewSecureRandom creates a secure SecBuf of the given size filled with
// cryptographically secure random bytes, suitable for fresh private key
// material. Panics on a size outside SecureSizes, like NewSecure.
func NewSecureRandom(size int) (*SecBuf, error) {
	buf := NewSecure(size)
	if err := FillRandom(buf); err != nil {
		buf.Destroy()
		return nil, err
	}
	return buf, nil
}

// NewInsecureRandom creates an insecure SecBuf of the given size filled
// with cryptographically secure random bytes.
func NewInsecureRandom(size int) (*SecBuf, error) {
	buf := NewInsecure(size)
	if err := FillRandom(buf); err != nil {
		buf.Destroy()
		return nil, err
	}
	return buf, nil
}
