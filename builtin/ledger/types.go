// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/openveil/veil/state"
	"github.com/openveil/veil/veil"
)

type (
	// Account is the per-account record. Handles are opaque; a zero
	// handle means the field was never initialized, which is distinct
	// from an encrypted zero.
	Account struct {
		Balance veil.Handle
		Staked  veil.Handle
		Claimed bool

		// Minted references the encrypted total ever minted to this
		// account; balance and staked never exceed it combined.
		Minted veil.Handle
	}
)

var (
	_ state.StorageEncoder = (*Account)(nil)
	_ state.StorageDecoder = (*Account)(nil)
)

// IsEmpty returns whether the record was never touched.
func (a *Account) IsEmpty() bool {
	return a.Balance.IsZero() && a.Staked.IsZero() && !a.Claimed && a.Minted.IsZero()
}

func (a *Account) Encode() ([]byte, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	return rlp.EncodeToBytes(a)
}

func (a *Account) Decode(data []byte) error {
	if len(data) == 0 {
		*a = Account{}
		return nil
	}
	return rlp.DecodeBytes(data, a)
}
