// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package veil

// Constants of the confidential ledger.
const (
	// ClaimAmount the fixed one-time entitlement minted by Claim.
	// The value is public protocol knowledge; only balances are hidden.
	ClaimAmount uint64 = 100
)

// Well-known engine addresses. The ledger and the vault act as principals
// when granting access to handles they persist, so that later homomorphic
// operations on stored handles stay possible.
var (
	LedgerAddress = BytesToAddress([]byte("veil-ledger"))
	VaultAddress  = BytesToAddress([]byte("veil-vault"))
)
