// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package hom defines the homomorphic operation provider consumed by the
// confidential ledger. Arithmetic and comparison are performed on opaque
// ciphertext handles; no operation reveals a plaintext to the caller.
package hom

import (
	"github.com/pkg/errors"

	"github.com/openveil/veil/veil"
)

// ErrInvalidProof is returned by FromExternalInput when the input proof
// does not verify. The operation has no side effects in that case.
var ErrInvalidProof = errors.New("invalid proof")

// Provider supplies encrypted-value primitives.
//
// The results of Add, Sub, LessOrEqual and Select are fresh handles;
// operands are never mutated. Sub has unsigned clamp-at-zero semantics,
// so no handle ever references a negative value.
type Provider interface {
	// AsEncrypted encrypts a plain value known to the engine itself
	// (e.g. the claim amount) and returns its handle.
	AsEncrypted(plain uint64) (veil.Handle, error)

	// FromExternalInput materializes an externally encrypted input into
	// an internal handle. Fails with ErrInvalidProof if proof verification
	// fails.
	FromExternalInput(ct, proof []byte) (veil.Handle, error)

	Add(a, b veil.Handle) (veil.Handle, error)
	Sub(a, b veil.Handle) (veil.Handle, error)

	// LessOrEqual returns an encrypted boolean handle for a <= b.
	// The host must never branch on it; feed it to Select instead.
	LessOrEqual(a, b veil.Handle) (veil.Handle, error)

	// Select returns a if cond holds, b otherwise, without revealing cond.
	// Both operands are evaluated regardless of the outcome.
	Select(cond, a, b veil.Handle) (veil.Handle, error)

	// IsInitialized reports whether the handle references a ciphertext.
	// This is an initialization-state check only; it says nothing about
	// the hidden value.
	IsInitialized(h veil.Handle) bool

	// GrantAccess records that principal may later decrypt h.
	GrantAccess(h veil.Handle, principal veil.Address) error
}
