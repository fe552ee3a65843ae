// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openveil/veil/acm"
	"github.com/openveil/veil/hom/localhom"
	"github.com/openveil/veil/lvldb"
	"github.com/openveil/veil/state"
	"github.com/openveil/veil/veil"
)

type testEnv struct {
	ledger *Ledger
	hom    *localhom.Provider
	grants *acm.Manager
	state  *state.State
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	grants := acm.New(db)
	provider, err := localhom.NewRandom(db, grants)
	require.NoError(t, err)

	st := state.New(db)
	return &testEnv{
		ledger: New(veil.LedgerAddress, st, provider),
		hom:    provider,
		grants: grants,
		state:  st,
	}
}

// decrypt reaches through the provider as the owning principal.
func (env *testEnv) decrypt(t *testing.T, h veil.Handle, owner veil.Address) uint64 {
	t.Helper()
	v, err := env.hom.Decrypt(h, owner)
	require.NoError(t, err)
	return v
}

func (env *testEnv) balance(t *testing.T, addr veil.Address) uint64 {
	t.Helper()
	h, err := env.ledger.BalanceOf(addr)
	require.NoError(t, err)
	if h.IsZero() {
		return 0
	}
	return env.decrypt(t, h, addr)
}

func TestMint(t *testing.T) {
	env := newTestEnv(t)
	alice := veil.BytesToAddress([]byte("alice"))

	minted, err := env.ledger.Mint(alice, 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), env.decrypt(t, minted, alice))
	assert.Equal(t, uint64(50), env.balance(t, alice))

	// minting again accumulates
	_, err = env.ledger.Mint(alice, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(57), env.balance(t, alice))

	total, err := env.ledger.MintedOf(alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(57), env.decrypt(t, total, alice))
}

func TestMintGrants(t *testing.T) {
	env := newTestEnv(t)
	alice := veil.BytesToAddress([]byte("alice"))

	minted, err := env.ledger.Mint(alice, 5)
	require.NoError(t, err)

	balance, err := env.ledger.BalanceOf(alice)
	require.NoError(t, err)

	// every persisted handle carries grants for the owner and the ledger
	for _, h := range []veil.Handle{minted, balance} {
		for _, principal := range []veil.Address{alice, veil.LedgerAddress} {
			granted, err := env.grants.IsGranted(h, principal)
			require.NoError(t, err)
			assert.True(t, granted)
		}
	}
}

func TestBalanceOfNeverCreates(t *testing.T) {
	env := newTestEnv(t)
	ghost := veil.BytesToAddress([]byte("ghost"))

	h, err := env.ledger.BalanceOf(ghost)
	require.NoError(t, err)
	assert.True(t, h.IsZero())

	claimed, err := env.ledger.HasClaimed(ghost)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestTransfer(t *testing.T) {
	env := newTestEnv(t)
	alice := veil.BytesToAddress([]byte("alice"))
	bob := veil.BytesToAddress([]byte("bob"))

	_, err := env.ledger.Mint(alice, 30)
	require.NoError(t, err)

	amount, err := env.hom.AsEncrypted(20)
	require.NoError(t, err)

	transferred, err := env.ledger.Transfer(alice, bob, amount)
	require.NoError(t, err)

	assert.Equal(t, uint64(20), env.decrypt(t, transferred, alice))
	assert.Equal(t, uint64(20), env.decrypt(t, transferred, bob))
	assert.Equal(t, uint64(10), env.balance(t, alice))
	assert.Equal(t, uint64(20), env.balance(t, bob))
}

func TestTransferClampsToBalance(t *testing.T) {
	env := newTestEnv(t)
	alice := veil.BytesToAddress([]byte("alice"))
	bob := veil.BytesToAddress([]byte("bob"))

	_, err := env.ledger.Mint(alice, 30)
	require.NoError(t, err)

	amount, err := env.hom.AsEncrypted(100)
	require.NoError(t, err)

	// over-limit transfer succeeds and moves nothing
	transferred, err := env.ledger.Transfer(alice, bob, amount)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), env.decrypt(t, transferred, alice))
	assert.Equal(t, uint64(30), env.balance(t, alice))
	assert.Equal(t, uint64(0), env.balance(t, bob))
}

func TestTransferFromUninitialized(t *testing.T) {
	env := newTestEnv(t)
	ghost := veil.BytesToAddress([]byte("ghost"))
	bob := veil.BytesToAddress([]byte("bob"))

	amount, err := env.hom.AsEncrypted(1)
	require.NoError(t, err)

	_, err = env.ledger.Transfer(ghost, bob, amount)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestClaim(t *testing.T) {
	env := newTestEnv(t)
	alice := veil.BytesToAddress([]byte("alice"))

	minted, err := env.ledger.Claim(alice)
	require.NoError(t, err)
	assert.Equal(t, veil.ClaimAmount, env.decrypt(t, minted, alice))
	assert.Equal(t, veil.ClaimAmount, env.balance(t, alice))

	claimed, err := env.ledger.HasClaimed(alice)
	require.NoError(t, err)
	assert.True(t, claimed)

	// terminal once reached
	_, err = env.ledger.Claim(alice)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
	assert.Equal(t, veil.ClaimAmount, env.balance(t, alice))
}

func TestClaimPerAccount(t *testing.T) {
	env := newTestEnv(t)
	alice := veil.BytesToAddress([]byte("alice"))
	bob := veil.BytesToAddress([]byte("bob"))

	_, err := env.ledger.Claim(alice)
	require.NoError(t, err)
	_, err = env.ledger.Claim(bob)
	require.NoError(t, err)

	assert.Equal(t, veil.ClaimAmount, env.balance(t, alice))
	assert.Equal(t, veil.ClaimAmount, env.balance(t, bob))
}

func TestStagedCommitRoundTrip(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	grants := acm.New(db)
	provider, err := localhom.NewRandom(db, grants)
	require.NoError(t, err)

	st := state.New(db)
	l := New(veil.LedgerAddress, st, provider)
	alice := veil.BytesToAddress([]byte("alice"))

	_, err = l.Claim(alice)
	require.NoError(t, err)
	require.NoError(t, st.Stage().Commit())

	// a fresh overlay sees the committed record
	l2 := New(veil.LedgerAddress, state.New(db), provider)
	claimed, err := l2.HasClaimed(alice)
	require.NoError(t, err)
	assert.True(t, claimed)

	h, err := l2.BalanceOf(alice)
	require.NoError(t, err)
	v, err := provider.Decrypt(h, alice)
	require.NoError(t, err)
	assert.Equal(t, veil.ClaimAmount, v)
}
