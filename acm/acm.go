// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package acm tracks which principals may later decrypt a given ciphertext
// handle. It performs no cryptographic work; the decryption flow consuming
// the grants lives outside this module.
package acm

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/openveil/veil/kv"
	"github.com/openveil/veil/veil"
)

func grantKey(handle veil.Handle, principal veil.Address) []byte {
	key := make([]byte, 0, 1+32+veil.AddressLength)
	key = append(key, 'g')
	key = append(key, handle.Bytes()...)
	return append(key, principal.Bytes()...)
}

// Manager owns the (handle, principal) grant relation.
// The relation is append-only; grants are never revoked when a handle is
// superseded by a new one for the same logical field.
type Manager struct {
	store kv.GetPutter
	mu    sync.Mutex
}

// New create a manager above the given store.
func New(store kv.GetPutter) *Manager {
	return &Manager{store: store}
}

// Grant adds (handle, principal) to the relation. Idempotent, and safe
// for concurrent use.
func (m *Manager) Grant(handle veil.Handle, principal veil.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Put(grantKey(handle, principal), []byte{1}); err != nil {
		return errors.Wrap(err, "store grant")
	}
	return nil
}

// IsGranted reports whether principal may decrypt handle.
func (m *Manager) IsGranted(handle veil.Handle, principal veil.Address) (bool, error) {
	has, err := m.store.Has(grantKey(handle, principal))
	if err != nil {
		return false, errors.Wrap(err, "load grant")
	}
	return has, nil
}
