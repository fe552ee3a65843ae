// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vault implements stake and withdraw on top of the ledger.
//
// Withdrawal never branches on the hidden staked amount: an over-limit
// request is clamped to an encrypted zero through the provider's select
// primitive, so the host execution path, cost and error behavior are the
// same whether the request fits or not. Anything else would let an
// adversary binary-search the staked balance.
package vault

import (
	"github.com/pkg/errors"

	"github.com/openveil/veil/builtin/ledger"
	"github.com/openveil/veil/hom"
	"github.com/openveil/veil/log"
	"github.com/openveil/veil/metrics"
	"github.com/openveil/veil/veil"
)

var (
	logger = log.WithContext("pkg", "vault")

	metricOpCount = metrics.LazyLoadCounterVec("vault_op_count", []string{"op"})
)

// ErrNothingStaked returned by Withdraw when the account has no staking
// history. The check is on initialization state only; it reveals nothing
// about magnitudes.
var ErrNothingStaked = errors.New("nothing staked")

// Vault composes ledger transfers with branchless bounded arithmetic.
type Vault struct {
	addr   veil.Address
	ledger *ledger.Ledger
	hom    hom.Provider
}

// New create a new instance. addr is the vault pseudo-account holding
// all staked funds.
func New(addr veil.Address, ledger *ledger.Ledger, provider hom.Provider) *Vault {
	return &Vault{addr, ledger, provider}
}

// Address returns the vault pseudo-account address.
func (v *Vault) Address() veil.Address {
	return v.addr
}

// Stake materializes the external input, moves that amount from the
// account into the vault and folds it into the account's staked total.
// The returned handle references the amount actually moved, which may be
// clamped below the request by the transfer.
func (v *Vault) Stake(account veil.Address, ct, proof []byte) (veil.Handle, error) {
	logger.Debug("staking", "account", account)
	metricOpCount().AddWithLabel(1, map[string]string{"op": "stake"})

	amount, err := v.hom.FromExternalInput(ct, proof)
	if err != nil {
		logger.Info("stake failed", "account", account, "error", err)
		return veil.Handle{}, err
	}

	transferred, err := v.ledger.Transfer(account, v.addr, amount)
	if err != nil {
		logger.Info("stake failed", "account", account, "error", err)
		return veil.Handle{}, err
	}

	staked, err := v.ledger.StakedBalanceOf(account)
	if err != nil {
		return veil.Handle{}, err
	}
	if staked.IsZero() {
		// never staked before, start from encrypted zero
		if staked, err = v.hom.AsEncrypted(0); err != nil {
			return veil.Handle{}, err
		}
	}
	updated, err := v.hom.Add(staked, transferred)
	if err != nil {
		return veil.Handle{}, err
	}
	if err := v.setStaked(account, updated); err != nil {
		return veil.Handle{}, err
	}

	logger.Info("staked", "account", account, "handle", transferred)
	return transferred, nil
}

// Withdraw materializes the requested amount, clamps it to the staked
// total through the select primitive and moves the allowed amount back
// from the vault. An over-limit request is not an error; it degrades to
// a zero-amount movement with the same observable behavior.
func (v *Vault) Withdraw(account veil.Address, ct, proof []byte) (veil.Handle, error) {
	logger.Debug("withdrawing", "account", account)
	metricOpCount().AddWithLabel(1, map[string]string{"op": "withdraw"})

	staked, err := v.ledger.StakedBalanceOf(account)
	if err != nil {
		return veil.Handle{}, err
	}
	if !v.hom.IsInitialized(staked) {
		logger.Info("withdraw failed", "account", account, "error", ErrNothingStaked)
		return veil.Handle{}, ErrNothingStaked
	}

	requested, err := v.hom.FromExternalInput(ct, proof)
	if err != nil {
		logger.Info("withdraw failed", "account", account, "error", err)
		return veil.Handle{}, err
	}

	can, err := v.hom.LessOrEqual(requested, staked)
	if err != nil {
		return veil.Handle{}, err
	}
	zero, err := v.hom.AsEncrypted(0)
	if err != nil {
		return veil.Handle{}, err
	}
	allowed, err := v.hom.Select(can, requested, zero)
	if err != nil {
		return veil.Handle{}, err
	}

	reduced, err := v.hom.Sub(staked, allowed)
	if err != nil {
		return veil.Handle{}, err
	}
	if err := v.setStaked(account, reduced); err != nil {
		return veil.Handle{}, err
	}

	sent, err := v.ledger.Transfer(v.addr, account, allowed)
	if err != nil {
		return veil.Handle{}, err
	}

	logger.Info("withdrew", "account", account, "handle", sent)
	return sent, nil
}

// setStaked persists the new staked handle with grants for the account
// and the vault.
func (v *Vault) setStaked(account veil.Address, staked veil.Handle) error {
	if err := v.ledger.SetStaked(account, staked); err != nil {
		return err
	}
	return v.hom.GrantAccess(staked, v.addr)
}
