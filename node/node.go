// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node drives the confidential ledger as a single-writer engine.
//
// Every mutating operation runs against a fresh state overlay and is
// serialized behind one mutex, so concurrent submissions observe
// sequential semantics. The overlay is committed only when the operation
// succeeds; a failed operation leaves the store untouched.
package node

import (
	"context"
	"sync"
	"time"

	"github.com/openveil/veil/builtin/ledger"
	"github.com/openveil/veil/builtin/vault"
	"github.com/openveil/veil/eventdb"
	"github.com/openveil/veil/hom"
	"github.com/openveil/veil/kv"
	"github.com/openveil/veil/log"
	"github.com/openveil/veil/metrics"
	"github.com/openveil/veil/state"
	"github.com/openveil/veil/veil"
)

var (
	logger = log.WithContext("pkg", "node")

	metricOpDuration = metrics.LazyLoadHistogramVec("node_op_duration_ms", []string{"op", "outcome"}, []int64{1, 5, 10, 25, 50, 100, 250, 500})
)

// Node serializes claim/stake/withdraw against a single backing store.
type Node struct {
	mu     sync.Mutex
	store  kv.GetPutter
	hom    hom.Provider
	events *eventdb.EventDB

	now func() uint64
}

// New create a node over the given store and crypto provider. events may
// be nil, in which case no operation log is kept.
func New(store kv.GetPutter, provider hom.Provider, events *eventdb.EventDB) *Node {
	return &Node{
		store:  store,
		hom:    provider,
		events: events,
		now:    func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// run executes fn against a fresh overlay under the writer lock and
// commits the overlay iff fn succeeds.
func (n *Node) run(op string, fn func(l *ledger.Ledger, v *vault.Vault) (veil.Handle, error)) (veil.Handle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	startTime := time.Now()
	st := state.New(n.store)
	l := ledger.New(veil.LedgerAddress, st, n.hom)
	v := vault.New(veil.VaultAddress, l, n.hom)

	h, err := fn(l, v)
	if err != nil {
		metricOpDuration().ObserveWithLabels(time.Since(startTime).Milliseconds(), map[string]string{"op": op, "outcome": "failed"})
		return veil.Handle{}, err
	}
	if err := st.Stage().Commit(); err != nil {
		metricOpDuration().ObserveWithLabels(time.Since(startTime).Milliseconds(), map[string]string{"op": op, "outcome": "failed"})
		return veil.Handle{}, err
	}
	metricOpDuration().ObserveWithLabels(time.Since(startTime).Milliseconds(), map[string]string{"op": op, "outcome": "succeeded"})
	return h, nil
}

// append records an operation in the event log. The state commit has
// already happened; a logging failure is reported but does not fail the
// operation.
func (n *Node) append(kind eventdb.Kind, account veil.Address, h veil.Handle) {
	if n.events == nil {
		return
	}
	if _, err := n.events.Append(n.now(), kind, account, h); err != nil {
		logger.Info("failed to append event", "kind", kind, "account", account, "err", err)
	}
}

// Claim mints the one-time grant for account. Returns
// ledger.ErrAlreadyClaimed if the account has claimed before.
func (n *Node) Claim(account veil.Address) (veil.Handle, error) {
	h, err := n.run("claim", func(l *ledger.Ledger, _ *vault.Vault) (veil.Handle, error) {
		return l.Claim(account)
	})
	if err != nil {
		return veil.Handle{}, err
	}
	n.append(eventdb.KindClaimed, account, h)
	return h, nil
}

// Stake moves the externally sealed amount from account into the vault.
func (n *Node) Stake(account veil.Address, ct, proof []byte) (veil.Handle, error) {
	h, err := n.run("stake", func(_ *ledger.Ledger, v *vault.Vault) (veil.Handle, error) {
		return v.Stake(account, ct, proof)
	})
	if err != nil {
		return veil.Handle{}, err
	}
	n.append(eventdb.KindStaked, account, h)
	return h, nil
}

// Withdraw moves the requested amount, clamped to the staked balance,
// back from the vault into account.
func (n *Node) Withdraw(account veil.Address, ct, proof []byte) (veil.Handle, error) {
	h, err := n.run("withdraw", func(_ *ledger.Ledger, v *vault.Vault) (veil.Handle, error) {
		return v.Withdraw(account, ct, proof)
	})
	if err != nil {
		return veil.Handle{}, err
	}
	n.append(eventdb.KindWithdrawn, account, h)
	return h, nil
}

// readLedger builds a read-only ledger view. Reads share the writer lock
// so they never observe a half-applied overlay (overlays are private to
// run, but the provider store is shared).
func (n *Node) readLedger() *ledger.Ledger {
	return ledger.New(veil.LedgerAddress, state.New(n.store), n.hom)
}

// BalanceOf returns the account's balance handle, zero if the account
// has no balance yet.
func (n *Node) BalanceOf(account veil.Address) (veil.Handle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.readLedger().BalanceOf(account)
}

// StakedBalanceOf returns the account's staked handle, zero if the
// account never staked.
func (n *Node) StakedBalanceOf(account veil.Address) (veil.Handle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.readLedger().StakedBalanceOf(account)
}

// HasClaimed reports whether the account has used its one-time claim.
func (n *Node) HasClaimed(account veil.Address) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.readLedger().HasClaimed(account)
}

// FilterEvents queries the operation log. Returns nil when the node runs
// without one.
func (n *Node) FilterEvents(ctx context.Context, filter *eventdb.Filter) ([]*eventdb.Event, error) {
	if n.events == nil {
		return nil, nil
	}
	return n.events.Filter(ctx, filter)
}
