// identity.go: Error-tolerant identity string codec with Reed-Solomon parity.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package secmem

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	goerrors "github.com/agilira/go-errors"
	"github.com/awnumar/memguard"
	"github.com/vivint/infectious"
)

// ParityLen is the number of Reed-Solomon parity bytes appended to a
// rendered identity. Five parity bytes repair up to two corrupted bytes
// at unknown positions, which covers any single mistyped base64 character
// (one character straddles at most two decoded bytes).
const ParityLen = 5

// MaxRenderPayload is the largest buffer length Render accepts. Payload
// plus parity must stay within the Reed-Solomon symbol bound of a single
// GF(2^8) codeword.
const MaxRenderPayload = 250

// Identity codec errors. The two sentinels separate the recoverable
// data-validity failures from each other: decode errors mean the text
// never was a well-formed identity, correction errors mean it was but is
// damaged beyond repair.
var (
	// ErrIdentityDecode is returned when an identity string cannot be
	// decoded into a candidate codeword: malformed base64, an impossible
	// length, or a payload size the requested backing store cannot hold.
	ErrIdentityDecode = errors.New("secmem: identity decode error")

	// ErrIdentityCorrect is returned when Reed-Solomon correction
	// determines the corruption exceeds the repair bound.
	ErrIdentityCorrect = errors.New("secmem: identity correction error")
)

// Error codes for structured error handling
const (
	ErrCodeIdentityBase64  = "SECMEM_IDENTITY_BASE64"
	ErrCodeIdentityLength  = "SECMEM_IDENTITY_LENGTH"
	ErrCodeIdentityCorrect = "SECMEM_IDENTITY_CORRECT"
)

// Rendered identities swap the two URL-hostile base64 characters; decode
// accepts either alphabet by normalizing first.
var (
	renderEscaper   = strings.NewReplacer("+", "-", "/", "_")
	renderUnescaper = strings.NewReplacer("-", "+", "_", "/")
)

// Global coder cache per performance ottimale - evita infectious.NewFEC
// matrix setup on every render/correct
var (
	fecCacheMu sync.RWMutex
	fecCache   = make(map[int]*infectious.FEC)
)

// cachedFEC ritorna a Reed-Solomon coder cached for the payload length,
// or creates one if needed
func cachedFEC(payloadLen int) (*infectious.FEC, error) {
	// Try read-only first per performance
	fecCacheMu.RLock()
	if fec, exists := fecCache[payloadLen]; exists {
		fecCacheMu.RUnlock()
		return fec, nil
	}
	fecCacheMu.RUnlock()

	fec, err := infectious.NewFEC(payloadLen, payloadLen+ParityLen)
	if err != nil {
		return nil, fmt.Errorf("failed to create Reed-Solomon coder: %w", err)
	}

	// Cache it
	fecCacheMu.Lock()
	fecCache[payloadLen] = fec
	fecCacheMu.Unlock()

	return fec, nil
}

// Render encodes the buffer's bytes as a human-typable identity string:
// ParityLen Reed-Solomon parity bytes are appended to the payload, the
// codeword is base64-encoded, and the URL-hostile characters '+' and '/'
// are substituted with '-' and '_'.
//
// The caller must already hold a read or write guard on the buffer;
// calling Render while the buffer is NoAccess is a programming error and
// panics. Rendering is deterministic: the same bytes always produce the
// same string.
//
// Returns:
//   - string: The URL-safe identity representation
//
// Example:
//
//	buf := secmem.NewInsecureFromBytes(publicKey)
//	lock := buf.ReadLock()
//	identity := buf.Render()
//	lock.Unlock()
func (s *SecBuf) Render() string {
	payload := s.Bytes()
	if len(payload) == 0 {
		panic("secmem: cannot render an empty SecBuf")
	}
	if len(payload) > MaxRenderPayload {
		panic(fmt.Sprintf("secmem: render payload too large: %d bytes, max is %d", len(payload), MaxRenderPayload))
	}

	fec, err := cachedFEC(len(payload))
	if err != nil {
		panic(fmt.Sprintf("secmem: reed-solomon coder init failed: %v", err))
	}

	scratch := getScratch(len(payload) + ParityLen)
	defer putScratch(scratch)
	codeword := *scratch

	// Systematic encoding: the first len(payload) shares are the payload
	// itself, the rest are parity. Each share carries one codeword byte.
	err = fec.Encode(payload, func(sh infectious.Share) {
		codeword[sh.Number] = sh.Data[0]
	})
	if err != nil {
		panic(fmt.Sprintf("secmem: reed-solomon encode failed: %v", err))
	}

	return renderEscaper.Replace(base64.StdEncoding.EncodeToString(codeword))
}

// SecurelyCorrected parses a potentially user-entered identity string,
// repairs transcription errors within the Reed-Solomon bound, and
// materializes the corrected payload into a brand-new secure SecBuf.
//
// The payload length must be one of SecureSizes; identities carrying any
// other payload size are rejected with ErrIdentityDecode rather than
// allocated insecurely.
//
// Parameters:
//   - encoded: The identity string, in either the '+/' or '-_' alphabet
//
// Returns:
//   - *SecBuf: A new secure buffer holding the corrected payload, in the
//     NoAccess state
//   - error: ErrIdentityDecode or ErrIdentityCorrect on failure
//
// Example:
//
//	buf, err := secmem.SecurelyCorrected(typedIdentity)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer buf.Destroy()
func SecurelyCorrected(encoded string) (*SecBuf, error) {
	return corrected(encoded, true)
}

// InsecurelyCorrected parses a potentially user-entered identity string,
// repairs transcription errors within the Reed-Solomon bound, and
// materializes the corrected payload into a brand-new insecure SecBuf.
// Suitable for public identifiers that do not warrant page-locked memory.
//
// Parameters:
//   - encoded: The identity string, in either the '+/' or '-_' alphabet
//
// Returns:
//   - *SecBuf: A new insecure buffer holding the corrected payload, in
//     the NoAccess state
//   - error: ErrIdentityDecode or ErrIdentityCorrect on failure
func InsecurelyCorrected(encoded string) (*SecBuf, error) {
	return corrected(encoded, false)
}

// corrected runs the shared decode pipeline: normalize the alphabet,
// base64-decode, validate the codeword shape, Reed-Solomon correct, then
// copy the repaired payload into a fresh buffer of the requested variant.
// The parity suffix is discarded after correction.
func corrected(encoded string, secure bool) (*SecBuf, error) {
	raw, err := base64.StdEncoding.DecodeString(renderUnescaper.Replace(encoded))
	if err != nil {
		richErr := goerrors.Wrap(err, ErrCodeIdentityBase64, "failed to decode base64 identity")
		return nil, fmt.Errorf("%w: %w", ErrIdentityDecode, richErr)
	}
	defer memguard.WipeBytes(raw)

	// Validate the codeword shape before touching the allocator so hostile
	// input can only ever produce an error, never an abort.
	payloadLen := len(raw) - ParityLen
	if payloadLen < 1 {
		richErr := goerrors.New(ErrCodeIdentityLength, fmt.Sprintf("identity too short: %d bytes, need payload plus %d parity bytes", len(raw), ParityLen))
		return nil, fmt.Errorf("%w: %w", ErrIdentityDecode, richErr)
	}
	if payloadLen > MaxRenderPayload {
		richErr := goerrors.New(ErrCodeIdentityLength, fmt.Sprintf("identity too long: %d byte payload, max is %d", payloadLen, MaxRenderPayload))
		return nil, fmt.Errorf("%w: %w", ErrIdentityDecode, richErr)
	}
	if secure && !secureSizeAllowed(payloadLen) {
		richErr := goerrors.New(ErrCodeIdentityLength, fmt.Sprintf("identity payload size %d cannot back a secure buffer, allowed sizes are %v", payloadLen, SecureSizes))
		return nil, fmt.Errorf("%w: %w", ErrIdentityDecode, richErr)
	}

	fec, err := cachedFEC(payloadLen)
	if err != nil {
		richErr := goerrors.Wrap(err, ErrCodeIdentityCorrect, "failed to initialize correction coder")
		return nil, fmt.Errorf("%w: %w", ErrIdentityCorrect, richErr)
	}

	// One single-byte share per codeword position; correction mutates the
	// share data in place.
	shares := make([]infectious.Share, len(raw))
	for i := range shares {
		shares[i] = infectious.Share{Number: i, Data: raw[i : i+1]}
	}
	if err := fec.Correct(shares); err != nil {
		richErr := goerrors.Wrap(err, ErrCodeIdentityCorrect, "corruption exceeds the repair bound")
		return nil, fmt.Errorf("%w: %w", ErrIdentityCorrect, richErr)
	}

	scratch := getScratch(payloadLen)
	defer putScratch(scratch)
	payload := *scratch

	// Correct may reorder the share slice, so gather the payload by share
	// number and drop the parity suffix.
	for _, sh := range shares {
		if sh.Number < payloadLen {
			payload[sh.Number] = sh.Data[0]
		}
	}

	var buf *SecBuf
	if secure {
		buf = NewSecure(payloadLen)
	} else {
		buf = NewInsecure(payloadLen)
	}
	buf.Load(payload)

	return buf, nil
}
