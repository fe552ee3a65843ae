// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openveil/veil/veil"
)

func TestAppendAndFilter(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	alice := veil.BytesToAddress([]byte("alice"))
	bob := veil.BytesToAddress([]byte("bob"))
	h1 := veil.BytesToHandle([]byte("h1"))
	h2 := veil.BytesToHandle([]byte("h2"))
	h3 := veil.BytesToHandle([]byte("h3"))

	seq1, err := db.Append(1000, KindClaimed, alice, h1)
	require.NoError(t, err)
	seq2, err := db.Append(1001, KindStaked, alice, h2)
	require.NoError(t, err)
	_, err = db.Append(1002, KindClaimed, bob, h3)
	require.NoError(t, err)
	assert.Less(t, seq1, seq2)

	ctx := context.Background()

	all, err := db.Filter(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, KindClaimed, all[0].Kind)
	assert.Equal(t, alice, all[0].Account)
	assert.Equal(t, h1, all[0].Handle)
	assert.Equal(t, uint64(1000), all[0].Time)

	// by account
	got, err := db.Filter(ctx, &Filter{Account: &alice})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// by kind
	kind := KindClaimed
	got, err = db.Filter(ctx, &Filter{Kind: &kind})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// by kind and account
	got, err = db.Filter(ctx, &Filter{Kind: &kind, Account: &bob})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, h3, got[0].Handle)
}

func TestFilterOrderAndPaging(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	alice := veil.BytesToAddress([]byte("alice"))
	for i := range 10 {
		_, err := db.Append(uint64(i), KindStaked, alice, veil.BytesToHandle([]byte{byte(i)}))
		require.NoError(t, err)
	}

	ctx := context.Background()

	got, err := db.Filter(ctx, &Filter{Order: DESC, Options: &Options{Offset: 0, Limit: 3}})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, uint64(9), got[0].Time)

	got, err = db.Filter(ctx, &Filter{Range: &Range{From: 2, To: 4}})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
