// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/openveil/veil/veil"
)

// Account summary view. Handles are opaque references; reading the
// values behind them requires a decryption grant on the provider side.
type Account struct {
	Balance veil.Handle `json:"balance"`
	Staked  veil.Handle `json:"staked"`
	Claimed bool        `json:"claimed"`
}

// AmountRequest carries an externally sealed amount with its binding proof.
type AmountRequest struct {
	Ciphertext hexutil.Bytes `json:"ciphertext"`
	Proof      hexutil.Bytes `json:"proof"`
}

// OpResult references the encrypted amount an operation actually moved.
type OpResult struct {
	Handle veil.Handle `json:"handle"`
}
