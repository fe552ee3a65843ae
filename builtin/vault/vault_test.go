// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openveil/veil/acm"
	"github.com/openveil/veil/builtin/ledger"
	"github.com/openveil/veil/hom"
	"github.com/openveil/veil/hom/localhom"
	"github.com/openveil/veil/lvldb"
	"github.com/openveil/veil/state"
	"github.com/openveil/veil/veil"
)

type testEnv struct {
	vault  *Vault
	ledger *ledger.Ledger
	hom    *localhom.Provider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	grants := acm.New(db)
	provider, err := localhom.NewRandom(db, grants)
	require.NoError(t, err)

	ldg := ledger.New(veil.LedgerAddress, state.New(db), provider)
	return &testEnv{
		vault:  New(veil.VaultAddress, ldg, provider),
		ledger: ldg,
		hom:    provider,
	}
}

func (env *testEnv) balance(t *testing.T, addr veil.Address) uint64 {
	t.Helper()
	h, err := env.ledger.BalanceOf(addr)
	require.NoError(t, err)
	if h.IsZero() {
		return 0
	}
	v, err := env.hom.Decrypt(h, addr)
	require.NoError(t, err)
	return v
}

func (env *testEnv) staked(t *testing.T, addr veil.Address) uint64 {
	t.Helper()
	h, err := env.ledger.StakedBalanceOf(addr)
	require.NoError(t, err)
	if h.IsZero() {
		return 0
	}
	v, err := env.hom.Decrypt(h, addr)
	require.NoError(t, err)
	return v
}

func (env *testEnv) sealInput(t *testing.T, value uint64) (ct, proof []byte) {
	t.Helper()
	ct, proof, err := env.hom.SealInput(value)
	require.NoError(t, err)
	return ct, proof
}

func TestStake(t *testing.T) {
	env := newTestEnv(t)
	alice := veil.BytesToAddress([]byte("alice"))

	_, err := env.ledger.Claim(alice)
	require.NoError(t, err)

	ct, proof := env.sealInput(t, 25)
	transferred, err := env.vault.Stake(alice, ct, proof)
	require.NoError(t, err)

	sent, err := env.hom.Decrypt(transferred, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(25), sent)

	assert.Equal(t, veil.ClaimAmount-25, env.balance(t, alice))
	assert.Equal(t, uint64(25), env.staked(t, alice))
	assert.Equal(t, uint64(25), env.balance(t, veil.VaultAddress))
}

func TestStakeAccumulates(t *testing.T) {
	env := newTestEnv(t)
	alice := veil.BytesToAddress([]byte("alice"))

	_, err := env.ledger.Claim(alice)
	require.NoError(t, err)

	ct, proof := env.sealInput(t, 10)
	_, err = env.vault.Stake(alice, ct, proof)
	require.NoError(t, err)

	ct, proof = env.sealInput(t, 15)
	_, err = env.vault.Stake(alice, ct, proof)
	require.NoError(t, err)

	assert.Equal(t, uint64(25), env.staked(t, alice))
	assert.Equal(t, veil.ClaimAmount-25, env.balance(t, alice))
}

func TestStakeInvalidProof(t *testing.T) {
	env := newTestEnv(t)
	alice := veil.BytesToAddress([]byte("alice"))

	_, err := env.ledger.Claim(alice)
	require.NoError(t, err)

	ct, proof := env.sealInput(t, 10)
	proof[0] ^= 0xff
	_, err = env.vault.Stake(alice, ct, proof)
	assert.ErrorIs(t, err, hom.ErrInvalidProof)

	// nothing moved
	assert.Equal(t, veil.ClaimAmount, env.balance(t, alice))
	assert.Equal(t, uint64(0), env.staked(t, alice))
}

func TestStakeBeforeClaim(t *testing.T) {
	env := newTestEnv(t)
	alice := veil.BytesToAddress([]byte("alice"))

	ct, proof := env.sealInput(t, 10)
	_, err := env.vault.Stake(alice, ct, proof)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
}

func TestStakeOverBalanceClamps(t *testing.T) {
	env := newTestEnv(t)
	alice := veil.BytesToAddress([]byte("alice"))

	_, err := env.ledger.Claim(alice)
	require.NoError(t, err)

	ct, proof := env.sealInput(t, veil.ClaimAmount+50)
	transferred, err := env.vault.Stake(alice, ct, proof)
	require.NoError(t, err)

	// stake bookkeeping reflects the true transferred quantity, zero here
	sent, err := env.hom.Decrypt(transferred, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), sent)
	assert.Equal(t, veil.ClaimAmount, env.balance(t, alice))
	assert.Equal(t, uint64(0), env.staked(t, alice))
}

func TestWithdrawBeforeStake(t *testing.T) {
	env := newTestEnv(t)
	alice := veil.BytesToAddress([]byte("alice"))

	_, err := env.ledger.Claim(alice)
	require.NoError(t, err)

	ct, proof := env.sealInput(t, 1)
	_, err = env.vault.Withdraw(alice, ct, proof)
	assert.ErrorIs(t, err, ErrNothingStaked)
}

func TestWithdraw(t *testing.T) {
	env := newTestEnv(t)
	alice := veil.BytesToAddress([]byte("alice"))

	_, err := env.ledger.Claim(alice)
	require.NoError(t, err)
	ct, proof := env.sealInput(t, 40)
	_, err = env.vault.Stake(alice, ct, proof)
	require.NoError(t, err)

	ct, proof = env.sealInput(t, 15)
	sent, err := env.vault.Withdraw(alice, ct, proof)
	require.NoError(t, err)

	v, err := env.hom.Decrypt(sent, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(15), v)
	assert.Equal(t, veil.ClaimAmount-40+15, env.balance(t, alice))
	assert.Equal(t, uint64(25), env.staked(t, alice))
}

func TestWithdrawOverLimitIsSilentNoop(t *testing.T) {
	env := newTestEnv(t)
	alice := veil.BytesToAddress([]byte("alice"))

	_, err := env.ledger.Claim(alice)
	require.NoError(t, err)
	ct, proof := env.sealInput(t, 40)
	_, err = env.vault.Stake(alice, ct, proof)
	require.NoError(t, err)

	// over-limit: succeeds, moves nothing, raises nothing
	ct, proof = env.sealInput(t, 1000)
	sent, err := env.vault.Withdraw(alice, ct, proof)
	require.NoError(t, err)

	v, err := env.hom.Decrypt(sent, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
	assert.Equal(t, veil.ClaimAmount-40, env.balance(t, alice))
	assert.Equal(t, uint64(40), env.staked(t, alice))
}

func TestWithdrawAfterZeroStake(t *testing.T) {
	env := newTestEnv(t)
	alice := veil.BytesToAddress([]byte("alice"))

	_, err := env.ledger.Claim(alice)
	require.NoError(t, err)

	// a zero-amount stake initializes the staked field
	ct, proof := env.sealInput(t, 0)
	_, err = env.vault.Stake(alice, ct, proof)
	require.NoError(t, err)

	// withdrawal now succeeds and clamps to zero movement
	ct, proof = env.sealInput(t, 5)
	sent, err := env.vault.Withdraw(alice, ct, proof)
	require.NoError(t, err)

	v, err := env.hom.Decrypt(sent, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
	assert.Equal(t, veil.ClaimAmount, env.balance(t, alice))
	assert.Equal(t, uint64(0), env.staked(t, alice))
}

func TestConservation(t *testing.T) {
	env := newTestEnv(t)
	alice := veil.BytesToAddress([]byte("alice"))

	check := func() {
		minted, err := env.ledger.MintedOf(alice)
		require.NoError(t, err)
		total, err := env.hom.Decrypt(minted, alice)
		require.NoError(t, err)
		assert.Equal(t, total, env.balance(t, alice)+env.staked(t, alice))
	}

	_, err := env.ledger.Claim(alice)
	require.NoError(t, err)
	check()

	ct, proof := env.sealInput(t, 33)
	_, err = env.vault.Stake(alice, ct, proof)
	require.NoError(t, err)
	check()

	ct, proof = env.sealInput(t, 12)
	_, err = env.vault.Withdraw(alice, ct, proof)
	require.NoError(t, err)
	check()

	ct, proof = env.sealInput(t, 9999)
	_, err = env.vault.Withdraw(alice, ct, proof)
	require.NoError(t, err)
	check()
}

func TestEndToEndScenario(t *testing.T) {
	env := newTestEnv(t)
	alice := veil.BytesToAddress([]byte("alice"))

	_, err := env.ledger.Claim(alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), env.balance(t, alice))

	ct, proof := env.sealInput(t, 25)
	_, err = env.vault.Stake(alice, ct, proof)
	require.NoError(t, err)
	assert.Equal(t, uint64(75), env.balance(t, alice))
	assert.Equal(t, uint64(25), env.staked(t, alice))

	ct, proof = env.sealInput(t, 10)
	_, err = env.vault.Withdraw(alice, ct, proof)
	require.NoError(t, err)
	assert.Equal(t, uint64(85), env.balance(t, alice))
	assert.Equal(t, uint64(15), env.staked(t, alice))

	ct, proof = env.sealInput(t, 1000)
	_, err = env.vault.Withdraw(alice, ct, proof)
	require.NoError(t, err)
	assert.Equal(t, uint64(85), env.balance(t, alice))
	assert.Equal(t, uint64(15), env.staked(t, alice))
}
