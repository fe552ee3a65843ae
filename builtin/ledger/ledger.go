// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger owns the per-account balance handles and the one-time
// claim gate. It never inspects a plaintext value; every arithmetic step
// goes through the homomorphic provider and every persisted handle is
// granted to both the owning account and the ledger itself.
package ledger

import (
	"github.com/pkg/errors"

	"github.com/openveil/veil/hom"
	"github.com/openveil/veil/log"
	"github.com/openveil/veil/metrics"
	"github.com/openveil/veil/state"
	"github.com/openveil/veil/veil"
)

var (
	logger = log.WithContext("pkg", "ledger")

	metricOpCount = metrics.LazyLoadCounterVec("ledger_op_count", []string{"op"})
)

var (
	// ErrAlreadyClaimed returned by Claim when the one-time entitlement
	// was already taken. Permanent per account.
	ErrAlreadyClaimed = errors.New("already claimed")

	// ErrInsufficientBalance returned by Transfer when the source balance
	// was never initialized, so there is nothing to move. It reveals
	// initialization state only, never a magnitude.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

func accountKey(addr veil.Address) []byte {
	return append([]byte{'a'}, addr.Bytes()...)
}

// Ledger implements the confidential balance ledger.
type Ledger struct {
	addr  veil.Address
	state *state.State
	hom   hom.Provider
}

// New create a new instance.
func New(addr veil.Address, state *state.State, provider hom.Provider) *Ledger {
	return &Ledger{addr, state, provider}
}

func (l *Ledger) getAccount(addr veil.Address) (*Account, error) {
	var acc Account
	if err := l.state.GetStructured(accountKey(addr), &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (l *Ledger) setAccount(addr veil.Address, acc *Account) error {
	return l.state.SetStructured(accountKey(addr), acc)
}

// grant registers the standing grants for a handle persisted into an
// account record: the owning account and the ledger itself.
func (l *Ledger) grant(h veil.Handle, owner veil.Address) error {
	if err := l.hom.GrantAccess(h, owner); err != nil {
		return err
	}
	return l.hom.GrantAccess(h, l.addr)
}

// BalanceOf returns the current balance handle. It never creates a
// record; a zero handle means the account was never minted to.
func (l *Ledger) BalanceOf(addr veil.Address) (veil.Handle, error) {
	acc, err := l.getAccount(addr)
	if err != nil {
		return veil.Handle{}, err
	}
	return acc.Balance, nil
}

// StakedBalanceOf returns the current staked handle, zero if the account
// never staked.
func (l *Ledger) StakedBalanceOf(addr veil.Address) (veil.Handle, error) {
	acc, err := l.getAccount(addr)
	if err != nil {
		return veil.Handle{}, err
	}
	return acc.Staked, nil
}

// SetStaked replaces the staked handle of an account and registers the
// standing grants on it. The vault composes this with its arithmetic.
func (l *Ledger) SetStaked(addr veil.Address, staked veil.Handle) error {
	acc, err := l.getAccount(addr)
	if err != nil {
		return err
	}
	acc.Staked = staked
	if err := l.setAccount(addr, acc); err != nil {
		return err
	}
	return l.grant(staked, addr)
}

// HasClaimed reports whether the one-time entitlement was taken.
func (l *Ledger) HasClaimed(addr veil.Address) (bool, error) {
	acc, err := l.getAccount(addr)
	if err != nil {
		return false, err
	}
	return acc.Claimed, nil
}

// MintedOf returns the encrypted total ever minted to the account.
func (l *Ledger) MintedOf(addr veil.Address) (veil.Handle, error) {
	acc, err := l.getAccount(addr)
	if err != nil {
		return veil.Handle{}, err
	}
	return acc.Minted, nil
}

// Mint encrypts the given amount and adds it to the account balance,
// creating the record if absent. Returns the minted handle.
func (l *Ledger) Mint(addr veil.Address, plainAmount uint64) (veil.Handle, error) {
	logger.Debug("minting", "account", addr)
	metricOpCount().AddWithLabel(1, map[string]string{"op": "mint"})

	acc, err := l.getAccount(addr)
	if err != nil {
		return veil.Handle{}, err
	}
	minted, err := l.hom.AsEncrypted(plainAmount)
	if err != nil {
		return veil.Handle{}, err
	}
	if err := l.mintInto(addr, acc, minted); err != nil {
		return veil.Handle{}, err
	}
	if err := l.setAccount(addr, acc); err != nil {
		return veil.Handle{}, err
	}
	logger.Info("minted", "account", addr, "handle", minted)
	return minted, nil
}

// mintInto folds the minted handle into the record's balance and minted
// totals and registers grants. The record is not persisted here.
func (l *Ledger) mintInto(addr veil.Address, acc *Account, minted veil.Handle) error {
	balance, err := l.addTo(acc.Balance, minted)
	if err != nil {
		return err
	}
	total, err := l.addTo(acc.Minted, minted)
	if err != nil {
		return err
	}
	acc.Balance = balance
	acc.Minted = total

	if err := l.grant(minted, addr); err != nil {
		return err
	}
	if err := l.grant(balance, addr); err != nil {
		return err
	}
	return l.grant(total, addr)
}

// addTo adds amount to a possibly uninitialized handle, treating absence
// as encrypted zero. The result is always a fresh handle.
func (l *Ledger) addTo(h, amount veil.Handle) (veil.Handle, error) {
	if h.IsZero() {
		zero, err := l.hom.AsEncrypted(0)
		if err != nil {
			return veil.Handle{}, err
		}
		h = zero
	}
	return l.hom.Add(h, amount)
}

// Transfer moves the amount referenced by the handle from one account to
// another, clamped to the source balance. The returned handle references
// the quantity actually moved; downstream bookkeeping must use it, not
// the requested amount.
func (l *Ledger) Transfer(from, to veil.Address, amount veil.Handle) (veil.Handle, error) {
	logger.Debug("transferring", "from", from, "to", to, "amount", amount)
	metricOpCount().AddWithLabel(1, map[string]string{"op": "transfer"})

	fromAcc, err := l.getAccount(from)
	if err != nil {
		return veil.Handle{}, err
	}
	if fromAcc.Balance.IsZero() {
		logger.Info("transfer failed", "from", from, "error", ErrInsufficientBalance)
		return veil.Handle{}, ErrInsufficientBalance
	}

	// clamp to the available balance without branching on it
	can, err := l.hom.LessOrEqual(amount, fromAcc.Balance)
	if err != nil {
		return veil.Handle{}, err
	}
	zero, err := l.hom.AsEncrypted(0)
	if err != nil {
		return veil.Handle{}, err
	}
	transferred, err := l.hom.Select(can, amount, zero)
	if err != nil {
		return veil.Handle{}, err
	}

	fromBalance, err := l.hom.Sub(fromAcc.Balance, transferred)
	if err != nil {
		return veil.Handle{}, err
	}
	fromAcc.Balance = fromBalance
	if err := l.setAccount(from, fromAcc); err != nil {
		return veil.Handle{}, err
	}

	toAcc, err := l.getAccount(to)
	if err != nil {
		return veil.Handle{}, err
	}
	toBalance, err := l.addTo(toAcc.Balance, transferred)
	if err != nil {
		return veil.Handle{}, err
	}
	toAcc.Balance = toBalance
	if err := l.setAccount(to, toAcc); err != nil {
		return veil.Handle{}, err
	}

	if err := l.grant(fromBalance, from); err != nil {
		return veil.Handle{}, err
	}
	if err := l.grant(toBalance, to); err != nil {
		return veil.Handle{}, err
	}
	// both parties may inspect what was actually moved
	if err := l.grant(transferred, from); err != nil {
		return veil.Handle{}, err
	}
	if err := l.hom.GrantAccess(transferred, to); err != nil {
		return veil.Handle{}, err
	}

	logger.Info("transferred", "from", from, "to", to, "handle", transferred)
	return transferred, nil
}

// Claim mints the fixed one-time entitlement into the account. The flag
// check and set land in the same staged write, so no intermediate state
// is ever observable.
func (l *Ledger) Claim(addr veil.Address) (veil.Handle, error) {
	logger.Debug("claiming", "account", addr)
	metricOpCount().AddWithLabel(1, map[string]string{"op": "claim"})

	acc, err := l.getAccount(addr)
	if err != nil {
		return veil.Handle{}, err
	}
	if acc.Claimed {
		logger.Info("claim failed", "account", addr, "error", ErrAlreadyClaimed)
		return veil.Handle{}, ErrAlreadyClaimed
	}

	minted, err := l.hom.AsEncrypted(veil.ClaimAmount)
	if err != nil {
		return veil.Handle{}, err
	}
	if err := l.mintInto(addr, acc, minted); err != nil {
		return veil.Handle{}, err
	}
	acc.Claimed = true
	if err := l.setAccount(addr, acc); err != nil {
		return veil.Handle{}, err
	}

	logger.Info("claimed", "account", addr, "handle", minted)
	return minted, nil
}
