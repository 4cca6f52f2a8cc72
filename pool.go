// pool.go: Scratch buffer pooling for identity codec staging.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package secmem

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Scratch sizes tuned to the codec's two staging shapes: payloads (at most
// the largest secure buffer) and full parity codewords (at most the
// 255-byte Reed-Solomon bound).
const (
	smallScratchSize    = 64
	codewordScratchSize = 256
)

var (
	smallScratchPool = sync.Pool{
		New: func() interface{} {
			buf := make([]byte, smallScratchSize)
			return &buf // Pointer avoids an allocation per Put (SA6002)
		},
	}

	codewordScratchPool = sync.Pool{
		New: func() interface{} {
			buf := make([]byte, codewordScratchSize)
			return &buf
		},
	}
)

// Pre-warm the pools so the first render after startup does not pay the
// allocation cost.
func init() {
	warmupScratch(4)
}

// getScratch retrieves a scratch buffer of the requested size from the
// appropriate pool. Oversized requests fall through to a direct allocation
// and are not pooled on return.
func getScratch(size int) *[]byte {
	switch {
	case size <= smallScratchSize:
		buf := smallScratchPool.Get().(*[]byte)
		*buf = (*buf)[:size]
		return buf
	case size <= codewordScratchSize:
		buf := codewordScratchPool.Get().(*[]byte)
		*buf = (*buf)[:size]
		return buf
	default:
		buf := make([]byte, size)
		return &buf
	}
}

// putScratch wipes a scratch buffer and returns it to its pool. The wipe
// runs before the buffer becomes reusable: scratch space carries secret
// bytes between the codec's staging steps, and pooled memory must never
// hand those to the next caller.
func putScratch(buf *[]byte) {
	if buf == nil {
		return
	}

	if len(*buf) > 0 {
		memguard.WipeBytes(*buf)
	}

	switch cap(*buf) {
	case smallScratchSize:
		smallScratchPool.Put(buf)
	case codewordScratchSize:
		codewordScratchPool.Put(buf)
		// Other capacities came from direct allocation and are dropped
		// after the wipe.
	}
}

// warmupScratch pre-allocates buffers in both pools to shave cold-start
// latency off the first codec calls.
func warmupScratch(count int) {
	small := make([]*[]byte, count)
	codeword := make([]*[]byte, count)

	for i := 0; i < count; i++ {
		small[i] = getScratch(smallScratchSize)
		codeword[i] = getScratch(codewordScratchSize)
	}

	for i := 0; i < count; i++ {
		putScratch(small[i])
		putScratch(codeword[i])
	}
}
