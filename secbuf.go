// secbuf.go: SecBuf secure memory buffer and its protection state machine.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package secmem

import (
	"fmt"
)

// ProtectState is the memory protection state of a SecBuf. It always reflects
// the true access permission of the backing store: every call that changes
// the store's accessibility updates this state in the same step, and nothing
// else touches either.
type ProtectState uint8

const (
	// NoAccess means the bytes can be neither read nor written. This is the
	// construction state and the only state with no guard outstanding.
	NoAccess ProtectState = iota

	// ReadOnly means the bytes can be read but not written.
	ReadOnly

	// ReadWrite means the bytes can be read and written.
	ReadWrite
)

// String returns the state name for diagnostics and panic messages.
func (p ProtectState) String() string {
	switch p {
	case NoAccess:
		return "NoAccess"
	case ReadOnly:
		return "ReadOnly"
	case ReadWrite:
		return "ReadWrite"
	default:
		return fmt.Sprintf("ProtectState(%d)", uint8(p))
	}
}

// SecBuf is a memory buffer for holding cryptographic material. It can be
// backed by insecure heap memory for data like public keys, or by secure
// page-locked, mprotect-guarded memory for data like private keys.
//
// A SecBuf starts out, and spends most of its life, in the NoAccess state.
// Bytes are reachable only inside an explicit window opened with ReadLock or
// WriteLock. Misuse outside such a window (reading while NoAccess, locking
// twice, and so on) panics immediately rather than returning an error,
// because a secret that is silently readable outside a guarded window is a
// security defect, not a recoverable condition.
//
// A SecBuf must be confined to a single goroutine. At most one Locker may be
// alive for a buffer at any time; opening a second one panics.
type SecBuf struct {
	b store
	p ProtectState
}

// NewInsecure creates a SecBuf backed by ordinary heap memory, suitable for
// data that does not need secrecy guarantees, such as public keys. Any
// non-negative size is accepted. The buffer is zero-filled and starts in the
// NoAccess state.
//
// Example:
//
//	pub := secmem.NewInsecure(32)
//	defer pub.Destroy()
func NewInsecure(size int) *SecBuf {
	return &SecBuf{b: newHeapStore(size), p: NoAccess}
}

// NewSecure creates a SecBuf backed by page-locked memory whose protection is
// enforced by the kernel, suitable for data like private keys. The size must
// be one of SecureSizes (8, 16, 32 or 64 bytes); any other size panics, as
// does a failed allocation. The buffer is zero-filled and starts in the
// NoAccess state.
//
// Example:
//
//	priv := secmem.NewSecure(32)
//	defer priv.Destroy()
func NewSecure(size int) *SecBuf {
	return &SecBuf{b: newPageStore(size), p: NoAccess}
}

// NewInsecureFromBytes creates an insecure SecBuf sized and filled from data.
// The source slice is not wiped; call Zeroize on it if it held secrets.
func NewInsecureFromBytes(data []byte) *SecBuf {
	s := NewInsecure(len(data))
	s.Load(data)
	return s
}

// NewSecureFromBytes creates a secure SecBuf sized and filled from data. The
// length of data must be one of SecureSizes or the allocation panics. The
// source slice is not wiped; call Zeroize on it if it held secrets.
func NewSecureFromBytes(data []byte) *SecBuf {
	s := NewSecure(len(data))
	s.Load(data)
	return s
}

// live returns the backing store, panicking if the buffer was destroyed.
func (s *SecBuf) live() store {
	if s.b == nil {
		panic("secmem: use of destroyed SecBuf")
	}
	return s.b
}

// Len reports the byte length of the buffer. Safe to call in any protection
// state; length never changes after construction.
func (s *SecBuf) Len() int {
	return s.live().length()
}

// ProtectState reports the current protection state. Safe to call in any
// state.
func (s *SecBuf) ProtectState() ProtectState {
	s.live()
	return s.p
}

// Readable transitions the buffer from NoAccess to ReadOnly. Calling it while
// the buffer is already readable or writable is a double lock and panics.
// Most callers should use ReadLock instead, which pairs the transition with a
// guaranteed release.
func (s *SecBuf) Readable() {
	st := s.live()
	if s.p != NoAccess {
		panic(fmt.Sprintf("secmem: double lock on SecBuf, current state: %s", s.p))
	}
	s.p = ReadOnly
	st.readable()
}

// Writable transitions the buffer from NoAccess to ReadWrite. Calling it
// while the buffer is already readable or writable is a double lock and
// panics. Most callers should use WriteLock instead.
func (s *SecBuf) Writable() {
	st := s.live()
	if s.p != NoAccess {
		panic(fmt.Sprintf("secmem: double lock on SecBuf, current state: %s", s.p))
	}
	s.p = ReadWrite
	st.writable()
}

// NoAccess returns the buffer to the NoAccess state. It succeeds from any
// state, so a release path never needs to know which lock it is undoing.
func (s *SecBuf) NoAccess() {
	st := s.live()
	s.p = NoAccess
	st.noaccess()
}

// Bytes returns a read view of the buffer's contents. The buffer must be in
// the ReadOnly or ReadWrite state, normally established by a ReadLock held
// by the caller; otherwise Bytes panics. The view aliases the buffer's
// memory and must not be retained past the enclosing lock.
func (s *SecBuf) Bytes() []byte {
	st := s.live()
	if s.p == NoAccess {
		panic("secmem: byte read on SecBuf, but state is NoAccess")
	}
	return st.bytes()
}

// MutableBytes returns a write view of the buffer's contents. The buffer
// must be in the ReadWrite state, normally established by a WriteLock held
// by the caller; otherwise MutableBytes panics. The view aliases the
// buffer's memory and must not be retained past the enclosing lock.
func (s *SecBuf) MutableBytes() []byte {
	st := s.live()
	if s.p != ReadWrite {
		panic(fmt.Sprintf("secmem: byte write on SecBuf, but state is %s", s.p))
	}
	return st.bytes()
}

// Load copies data into the front of the buffer under an internal write
// lock. The buffer must be unlocked (NoAccess) when Load is called and is
// returned to NoAccess before Load returns. data must not be longer than the
// buffer. The source slice is left intact; call Zeroize on it afterwards if
// it held secret material.
func (s *SecBuf) Load(data []byte) {
	if len(data) > s.Len() {
		panic(fmt.Sprintf("secmem: Load of %d bytes into SecBuf of length %d", len(data), s.Len()))
	}
	lock := s.WriteLock()
	defer lock.Unlock()
	copy(lock.MutableBytes(), data)
}

// Destroy zeroes the buffer's memory and releases it back to its allocator,
// synchronously. Secure buffers are wiped before their pages return to the
// kernel so plaintext cannot linger in reusable memory. Destroy is
// idempotent; every other operation on a destroyed buffer panics.
func (s *SecBuf) Destroy() {
	if s.b == nil {
		return
	}
	s.p = NoAccess
	s.b.release()
	s.b = nil
}
