// store.go: Backing stores for SecBuf, insecure heap and protected page memory.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package secmem

import (
	"fmt"
	"sync"

	"github.com/awnumar/memcall"
	"github.com/awnumar/memguard"
)

// SecureSizes lists the allocation sizes permitted for secure buffers, in
// bytes. The secure allocator hands out page-backed regions whose protection
// is toggled with mprotect; restricting requests to these word-aligned sizes
// keeps a misbehaving caller from carving allocations that straddle guard
// boundaries. Insecure buffers accept any size.
var SecureSizes = []int{8, 16, 32, 64}

// store is the capability set a SecBuf needs from its backing memory.
// Exactly two implementations exist: heapStore and pageStore. Access-mode
// calls are trusted blindly here; SecBuf's state machine is the single
// authority deciding when they are legal.
type store interface {
	// length reports the byte length fixed at allocation, available in any
	// access mode.
	length() int

	// readable, writable and noaccess switch the real protection of the
	// region. They must only be called by SecBuf's state transitions.
	readable()
	writable()
	noaccess()

	// bytes yields the raw view of the region. The caller must have already
	// established an access mode that makes touching it legal.
	bytes() []byte

	// release zeroes (secure variant) and frees the region. The store is
	// unusable afterwards.
	release()
}

// allocInit guards the one-time hardening of the process before the first
// secure allocation, mirroring libsodium's lazy sodium_init. Safe to race:
// sync.Once serializes callers.
var allocInit sync.Once

func ensureAllocInit() {
	allocInit.Do(func() {
		if err := memcall.DisableCoreDumps(); err != nil {
			panic("secmem: cannot disable core dumps: " + err.Error())
		}
	})
}

func secureSizeAllowed(size int) bool {
	for _, s := range SecureSizes {
		if size == s {
			return true
		}
	}
	return false
}

// heapStore is the insecure variant: ordinary garbage-collected memory for
// data that is sensitive to tampering but not secret, such as public keys.
// Protection calls are advisory no-ops because the memory is not actually
// protectable.
type heapStore struct {
	b []byte
}

func newHeapStore(size int) *heapStore {
	if size < 0 {
		panic(fmt.Sprintf("secmem: negative buffer size: %d", size))
	}
	return &heapStore{b: make([]byte, size)}
}

func (h *heapStore) length() int   { return len(h.b) }
func (h *heapStore) readable()     {}
func (h *heapStore) writable()     {}
func (h *heapStore) noaccess()     {}
func (h *heapStore) bytes() []byte { return h.b }

func (h *heapStore) release() {
	memguard.WipeBytes(h.b)
	h.b = nil
}

// pageStore is the secure variant: page-backed memory obtained from the
// kernel through memcall, locked against swapping, with real mprotect
// transitions. Allocation failures and protection failures are fatal; a
// buffer whose protection cannot be trusted must not be handed to callers.
type pageStore struct {
	b []byte
}

func newPageStore(size int) *pageStore {
	if !secureSizeAllowed(size) {
		panic(fmt.Sprintf("secmem: bad secure buffer size: %d, disallowing this for safety", size))
	}
	ensureAllocInit()
	b, err := memcall.Alloc(size)
	if err != nil {
		panic("secmem: cannot allocate secure memory: " + err.Error())
	}
	if err := memcall.Lock(b); err != nil {
		panic("secmem: cannot lock secure memory: " + err.Error())
	}
	if err := memcall.Protect(b, memcall.NoAccess()); err != nil {
		panic("secmem: cannot protect secure memory: " + err.Error())
	}
	return &pageStore{b: b}
}

func (p *pageStore) length() int { return len(p.b) }

func (p *pageStore) readable() {
	if err := memcall.Protect(p.b, memcall.ReadOnly()); err != nil {
		panic("secmem: mprotect readonly failed: " + err.Error())
	}
}

func (p *pageStore) writable() {
	if err := memcall.Protect(p.b, memcall.ReadWrite()); err != nil {
		panic("secmem: mprotect readwrite failed: " + err.Error())
	}
}

func (p *pageStore) noaccess() {
	if err := memcall.Protect(p.b, memcall.NoAccess()); err != nil {
		panic("secmem: mprotect noaccess failed: " + err.Error())
	}
}

func (p *pageStore) bytes() []byte { return p.b }

// release unprotects, zeroes, unlocks and unmaps the region, in that order.
// The wipe happens before the pages go back to the kernel so plaintext never
// survives into reused memory, even though memcall.Free wipes once more.
func (p *pageStore) release() {
	if err := memcall.Protect(p.b, memcall.ReadWrite()); err != nil {
		panic("secmem: mprotect for release failed: " + err.Error())
	}
	memguard.WipeBytes(p.b)
	if err := memcall.Unlock(p.b); err != nil {
		panic("secmem: cannot unlock secure memory: " + err.Error())
	}
	if err := memcall.Free(p.b); err != nil {
		panic("secmem: cannot free secure memory: " + err.Error())
	}
	p.b = nil
}
