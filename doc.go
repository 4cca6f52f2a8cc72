// Package secmem provides protected in-memory containers for cryptographic
// secrets and an error-tolerant codec for human-typable identity strings.
//
// This package offers a small, sharp set of primitives:
//   - SecBuf, a fixed-size byte buffer whose memory is inaccessible except
//     during explicit, scoped read/write windows
//   - Two backing variants: insecure heap memory for public material, and
//     page-locked secure memory with hardware protection toggling for
//     private material
//   - Scoped access guards (Locker) that restore the no-access state on
//     every exit path
//   - An identity codec that renders buffer contents as URL-safe strings
//     with Reed-Solomon parity, so a bounded number of transcription
//     mistakes can be repaired instead of rejected
//   - Cryptographically secure random filling, constant-time comparison,
//     fingerprinting, and secure zeroization
//
// The package is designed for long-lived key material in production
// systems: secure buffers are locked against swapping, excluded from core
// dumps, kept no-access outside guarded windows, and zeroed before their
// memory is released.
//
// # Quick Start
//
// Holding a private key in secure memory:
//
//	// Allocate a 32-byte secure buffer (sizes 8, 16, 32, 64)
//	key := secmem.NewSecure(32)
//	defer key.Destroy()
//
//	// Fill it with fresh random material
//	if err := secmem.FillRandom(key); err != nil {
//		log.Fatal(err)
//	}
//
//	// Read it through a scoped guard
//	lock := key.ReadLock()
//	sign(lock.Bytes())
//	lock.Unlock()
//
// Outside the guarded window the buffer's memory is physically
// inaccessible: any read or write faults the process rather than leaking
// the secret.
//
// # Identity Strings
//
// Public identities are meant to be read aloud, typed, or copied by hand.
// Render appends five Reed-Solomon parity bytes and encodes the result as
// URL-safe base64; the corrected constructors reverse the pipeline and
// silently repair up to two corrupted bytes, which covers any single
// mistyped character:
//
//	pub := secmem.NewInsecureFromBytes(publicKey)
//	lock := pub.ReadLock()
//	identity := pub.Render()
//	lock.Unlock()
//
//	// Later, possibly from user input with a typo in it
//	restored, err := secmem.InsecurelyCorrected(identity)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer restored.Destroy()
//
// # The Protection State Machine
//
// Every SecBuf is in exactly one of three states: NoAccess, ReadOnly, or
// ReadWrite. Buffers are created NoAccess and may only move between
// NoAccess and one of the accessible states; requesting a guard while one
// is already held is a programming error and panics. Misuse panics are
// deliberate: they fire on caller bugs, never on data, and carry messages
// prefixed with "secmem:".
//
// # Error Handling
//
// Data-validity failures are ordinary errors, kept strictly apart from
// misuse panics. The identity codec returns two sentinel errors, enriched
// with structured details via github.com/agilira/go-errors:
//
//	buf, err := secmem.SecurelyCorrected(typed)
//	if err != nil {
//		if errors.Is(err, secmem.ErrIdentityDecode) {
//			// Not a well-formed identity: bad base64 or impossible length
//		} else if errors.Is(err, secmem.ErrIdentityCorrect) {
//			// Valid shape, but damaged beyond the repair bound
//		}
//	}
//
// # Security Considerations
//
// Secure buffers are built on hardened memory primitives:
//   - Page-locked allocations (mlock) so secrets never reach swap
//   - Hardware protection toggling (mprotect) between access windows
//   - Core dumps disabled before the first secure allocation
//   - Guaranteed zeroization before memory is unmapped
//   - Constant-time comparison for secret equality checks
//   - Scratch pools that wipe buffers before reuse
//
// Secure allocation sizes are restricted to 8, 16, 32, and 64 bytes to
// keep allocations page-aligned; other sizes are refused outright.
//
// # Performance
//
// The identity codec caches Reed-Solomon coder instances per payload
// length, and stages codewords in pooled scratch buffers that are wiped
// on return, so steady-state rendering allocates only the output string.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package secmem
