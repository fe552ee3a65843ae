// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openveil/veil/acm"
	"github.com/openveil/veil/builtin/ledger"
	"github.com/openveil/veil/builtin/vault"
	"github.com/openveil/veil/eventdb"
	"github.com/openveil/veil/hom/localhom"
	"github.com/openveil/veil/lvldb"
	"github.com/openveil/veil/veil"
)

type testEnv struct {
	node *Node
	hom  *localhom.Provider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	events, err := eventdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(events.Close)

	grants := acm.New(db)
	provider, err := localhom.NewRandom(db, grants)
	require.NoError(t, err)

	n := New(db, provider, events)
	n.now = func() uint64 { return 1000 }
	return &testEnv{node: n, hom: provider}
}

func (env *testEnv) decrypt(t *testing.T, h veil.Handle, principal veil.Address) uint64 {
	t.Helper()
	v, err := env.hom.Decrypt(h, principal)
	require.NoError(t, err)
	return v
}

func (env *testEnv) sealInput(t *testing.T, value uint64) (ct, proof []byte) {
	t.Helper()
	ct, proof, err := env.hom.SealInput(value)
	require.NoError(t, err)
	return ct, proof
}

func TestClaimStakeWithdraw(t *testing.T) {
	env := newTestEnv(t)
	alice := veil.BytesToAddress([]byte("alice"))

	minted, err := env.node.Claim(alice)
	require.NoError(t, err)
	assert.Equal(t, veil.ClaimAmount, env.decrypt(t, minted, alice))

	claimed, err := env.node.HasClaimed(alice)
	require.NoError(t, err)
	assert.True(t, claimed)

	ct, proof := env.sealInput(t, 25)
	staked, err := env.node.Stake(alice, ct, proof)
	require.NoError(t, err)
	assert.Equal(t, uint64(25), env.decrypt(t, staked, alice))

	ct, proof = env.sealInput(t, 10)
	withdrawn, err := env.node.Withdraw(alice, ct, proof)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), env.decrypt(t, withdrawn, alice))

	balance, err := env.node.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, veil.ClaimAmount-15, env.decrypt(t, balance, alice))

	stakedBal, err := env.node.StakedBalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(15), env.decrypt(t, stakedBal, alice))
}

func TestFailedOpLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t)
	alice := veil.BytesToAddress([]byte("alice"))

	_, err := env.node.Claim(alice)
	require.NoError(t, err)
	_, err = env.node.Claim(alice)
	assert.ErrorIs(t, err, ledger.ErrAlreadyClaimed)

	// the failed second claim must not have touched state or the event log
	balance, err := env.node.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, veil.ClaimAmount, env.decrypt(t, balance, alice))

	events, err := env.node.FilterEvents(context.Background(), &eventdb.Filter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, eventdb.KindClaimed, events[0].Kind)
}

func TestWithdrawWithoutStake(t *testing.T) {
	env := newTestEnv(t)
	alice := veil.BytesToAddress([]byte("alice"))

	_, err := env.node.Claim(alice)
	require.NoError(t, err)

	ct, proof := env.sealInput(t, 5)
	_, err = env.node.Withdraw(alice, ct, proof)
	assert.ErrorIs(t, err, vault.ErrNothingStaked)

	kind := eventdb.KindWithdrawn
	events, err := env.node.FilterEvents(context.Background(), &eventdb.Filter{Kind: &kind})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEventLog(t *testing.T) {
	env := newTestEnv(t)
	alice := veil.BytesToAddress([]byte("alice"))

	_, err := env.node.Claim(alice)
	require.NoError(t, err)

	ct, proof := env.sealInput(t, 40)
	_, err = env.node.Stake(alice, ct, proof)
	require.NoError(t, err)

	ct, proof = env.sealInput(t, 7)
	_, err = env.node.Withdraw(alice, ct, proof)
	require.NoError(t, err)

	events, err := env.node.FilterEvents(context.Background(), &eventdb.Filter{Account: &alice})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, eventdb.KindClaimed, events[0].Kind)
	assert.Equal(t, eventdb.KindStaked, events[1].Kind)
	assert.Equal(t, eventdb.KindWithdrawn, events[2].Kind)
	for _, ev := range events {
		assert.Equal(t, alice, ev.Account)
		assert.Equal(t, uint64(1000), ev.Time)
	}
}

func TestConcurrentOps(t *testing.T) {
	env := newTestEnv(t)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			addr := veil.BytesToAddress([]byte{byte(i) + 1})
			_, err := env.node.Claim(addr)
			assert.NoError(t, err)

			ct, proof, err := env.hom.SealInput(30)
			assert.NoError(t, err)
			_, err = env.node.Stake(addr, ct, proof)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	for i := range 8 {
		addr := veil.BytesToAddress([]byte{byte(i) + 1})
		h, err := env.node.StakedBalanceOf(addr)
		require.NoError(t, err)
		assert.Equal(t, uint64(30), env.decrypt(t, h, addr))
	}
}

func TestNodeWithoutEventLog(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	provider, err := localhom.NewRandom(db, acm.New(db))
	require.NoError(t, err)

	n := New(db, provider, nil)
	alice := veil.BytesToAddress([]byte("alice"))

	_, err = n.Claim(alice)
	require.NoError(t, err)

	events, err := n.FilterEvents(context.Background(), &eventdb.Filter{})
	require.NoError(t, err)
	assert.Nil(t, events)
}
