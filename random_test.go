// random_test.go: Test cases for random buffer filling.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package secmem_test

import (
	"bytes"
	"testing"

	"github.com/agilira/mnemosyne"
	"github.com/stretchr/testify/assert"
)

func TestFillRandom_FillsBuffer(t *testing.T) {
	buf := secmem.NewSecure(32)
	defer buf.Destroy()

	if err := secmem.FillRandom(buf); err != nil {
		t.Fatalf("Failed to fill buffer: %v", err)
	}
	if buf.ProtectState() != secmem.NoAccess {
		t.Errorf("Expected NoAccess after fill, got %s", buf.ProtectState())
	}

	// A 32-byte output of a CSPRNG is never all zero in practice.
	if bytes.Equal(bytesOf(buf), make([]byte, 32)) {
		t.Error("Buffer still all zero after FillRandom")
	}
}

func TestFillRandom_IndependentFills(t *testing.T) {
	a := secmem.NewSecure(32)
	defer a.Destroy()
	b := secmem.NewSecure(32)
	defer b.Destroy()

	if err := secmem.FillRandom(a); err != nil {
		t.Fatalf("Failed to fill first buffer: %v", err)
	}
	if err := secmem.FillRandom(b); err != nil {
		t.Fatalf("Failed to fill second buffer: %v", err)
	}

	if bytes.Equal(bytesOf(a), bytesOf(b)) {
		t.Error("Two independent random fills produced identical bytes")
	}
}

func TestFillRandom_RequiresUnlockedBuffer(t *testing.T) {
	buf := secmem.NewInsecure(8)
	defer buf.Destroy()

	lock := buf.ReadLock()
	defer lock.Unlock()

	// FillRandom opens its own write guard, so a held lock is misuse.
	assert.PanicsWithValue(t,
		"secmem: double lock on SecBuf, current state: ReadOnly",
		func() { _ = secmem.FillRandom(buf) })
}

func TestNewSecureRandom(t *testing.T) {
	buf, err := secmem.NewSecureRandom(64)
	if err != nil {
		t.Fatalf("Failed to create random secure buffer: %v", err)
	}
	defer buf.Destroy()

	if buf.Len() != 64 {
		t.Errorf("Expected length 64, got %d", buf.Len())
	}
	if buf.ProtectState() != secmem.NoAccess {
		t.Errorf("Expected NoAccess, got %s", buf.ProtectState())
	}
	if bytes.Equal(bytesOf(buf), make([]byte, 64)) {
		t.Error("Random secure buffer is all zero")
	}
}

func TestNewSecureRandom_DisallowedSize(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = secmem.NewSecureRandom(24)
	}, "random construction keeps the secure size gate")
}

func TestNewInsecureRandom(t *testing.T) {
	buf, err := secmem.NewInsecureRandom(24)
	if err != nil {
		t.Fatalf("Failed to create random insecure buffer: %v", err)
	}
	defer buf.Destroy()

	if buf.Len() != 24 {
		t.Errorf("Expected length 24, got %d", buf.Len())
	}
	if bytes.Equal(bytesOf(buf), make([]byte, 24)) {
		t.Error("Random insecure buffer is all zero")
	}
}
