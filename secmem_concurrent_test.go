// secmem_concurrent_test.go: Concurrency tests over independent buffers.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package secmem_test

import (
	"bytes"
	"sync"
	"testing"

	"github.com/agilira/mnemosyne"
)

// A SecBuf itself is single-goroutine, but the package-level machinery
// behind it is shared: the coder cache, the scratch pools, the one-time
// allocator hardening. These tests hammer that machinery from many
// goroutines, each owning its private buffers.

func TestConcurrent_IdentityCodec(t *testing.T) {
	const numGoroutines = 32
	const numOpsPerGoroutine = 25

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	errs := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()

			// Vary the payload size per goroutine so the coder cache sees
			// concurrent misses on different keys.
			size := secmem.SecureSizes[id%len(secmem.SecureSizes)]
			for j := 0; j < numOpsPerGoroutine; j++ {
				buf := secmem.NewSecure(size)
				fillPattern(buf, byte(id*numOpsPerGoroutine+j))
				original := bytesOf(buf)

				encoded := renderOf(buf)
				restored, err := secmem.SecurelyCorrected(encoded)
				if err != nil {
					buf.Destroy()
					errs <- err
					return
				}
				if !bytes.Equal(bytesOf(restored), original) {
					restored.Destroy()
					buf.Destroy()
					t.Errorf("goroutine %d op %d: round trip mismatch", id, j)
					return
				}
				restored.Destroy()
				buf.Destroy()
			}
		}(i)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Unexpected codec error under concurrency: %v", err)
	}
}

func TestConcurrent_SecureAllocation(t *testing.T) {
	const numGoroutines = 50
	const numOpsPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()

			for j := 0; j < numOpsPerGoroutine; j++ {
				buf := secmem.NewSecure(secmem.SecureSizes[j%len(secmem.SecureSizes)])
				lock := buf.WriteLock()
				lock.MutableBytes()[0] = byte(id)
				lock.Unlock()
				buf.Destroy()
			}
		}(i)
	}

	wg.Wait()
}

func TestConcurrent_FillRandom(t *testing.T) {
	const numGoroutines = 16

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	errs := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()

			buf := secmem.NewSecure(32)
			defer buf.Destroy()
			if err := secmem.FillRandom(buf); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Unexpected random fill error under concurrency: %v", err)
	}
}
