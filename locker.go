// locker.go: Scoped access guards that always re-secure a SecBuf on release.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package secmem

// Locker is a short-lived guard over a SecBuf access window. Creating one
// through ReadLock or WriteLock drives the buffer into the requested state;
// Unlock unconditionally drives it back to NoAccess. Pairing the two with
// defer guarantees the buffer is re-secured on every exit path, including
// early returns and panics, so a secret can never be left readable by a
// forgotten cleanup step:
//
//	lock := buf.WriteLock()
//	defer lock.Unlock()
//	copy(lock.MutableBytes(), key)
//
// A Locker is created only by its buffer's lock entry points, holds that
// buffer exclusively until Unlock, and must stay on the goroutine that
// created it.
type Locker struct {
	buf      *SecBuf
	writable bool
}

func newLocker(b *SecBuf, writable bool) *Locker {
	if writable {
		b.Writable()
	} else {
		b.Readable()
	}
	return &Locker{buf: b, writable: writable}
}

// ReadLock makes the buffer readable and returns the guard that will secure
// it again. Panics if the buffer is already locked.
func (s *SecBuf) ReadLock() *Locker {
	return newLocker(s, false)
}

// WriteLock makes the buffer writable and returns the guard that will secure
// it again. Panics if the buffer is already locked.
func (s *SecBuf) WriteLock() *Locker {
	return newLocker(s, true)
}

// Unlock returns the guarded buffer to NoAccess. It always succeeds and is
// safe to invoke more than once, so it can sit in a defer regardless of what
// the guarded code does in between.
func (l *Locker) Unlock() {
	l.buf.NoAccess()
}

// Bytes exposes the guarded buffer's read view, exactly as SecBuf.Bytes
// would. Panics if the guard was already unlocked.
func (l *Locker) Bytes() []byte {
	return l.buf.Bytes()
}

// MutableBytes exposes the guarded buffer's write view. Panics unless the
// guard was created by WriteLock and is still held.
func (l *Locker) MutableBytes() []byte {
	return l.buf.MutableBytes()
}

// Len reports the guarded buffer's length.
func (l *Locker) Len() int {
	return l.buf.Len()
}

// ProtectState reports the guarded buffer's current protection state.
func (l *Locker) ProtectState() ProtectState {
	return l.buf.ProtectState()
}

// Buffer returns the underlying SecBuf for operations, like Render, that are
// defined on the buffer but only legal while a lock is held.
func (l *Locker) Buffer() *SecBuf {
	return l.buf
}
