// bufutils.go: Byte hygiene and comparison helpers for secure buffers.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package secmem

import (
	"crypto/subtle"
	"fmt"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/blake2b"
)

// Zeroize securely wipes a byte slice by overwriting its contents.
//
// Use this on any transient copy of secret material the moment it is no
// longer needed: staging slices handed to Load, decoded identities, key
// bytes copied out of a read guard. SecBuf memory itself is wiped
// automatically by Destroy.
//
// Example:
//
//	seed := []byte{ ... }
//	buf := secmem.NewSecureFromBytes(seed)
//	secmem.Zeroize(seed)
func Zeroize(b []byte) {
	memguard.WipeBytes(b)
}

// Equal reports whether two buffers hold identical bytes, comparing in
// constant time so the comparison itself leaks nothing about where the
// contents diverge.
//
// The caller must already hold read or write guards on both buffers;
// comparing a NoAccess buffer panics. Buffers of different lengths are
// never equal.
func (s *SecBuf) Equal(other *SecBuf) bool {
	if s.Len() != other.Len() {
		return false
	}
	return subtle.ConstantTimeCompare(s.Bytes(), other.Bytes()) == 1
}

// Fingerprint generates a short, human-readable identifier for the
// buffer's contents (non-cryptographic use).
//
// The fingerprint is the first 8 bytes of the BLAKE2b-256 digest, hex
// encoded. It is useful for logging, debugging, and telling buffers apart
// without exposing the material itself.
//
// The caller must already hold a read or write guard on the buffer.
// An empty buffer fingerprints as the empty string.
//
// Example:
//
//	lock := buf.ReadLock()
//	fmt.Println("key fingerprint:", buf.Fingerprint()) // e.g., "a1b2c3d4e5f67890"
//	lock.Unlock()
func (s *SecBuf) Fingerprint() string {
	b := s.Bytes()
	if len(b) == 0 {
		return ""
	}
	sum := blake2b.Sum256(b)
	return fmt.Sprintf("%016x", sum[:8])
}
