// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/pkg/errors"

	"github.com/openveil/veil/kv"
)

// StorageEncoder storage data types which can encode themselves
// should implement this. An empty encoding means "default value" and
// erases the slot.
type StorageEncoder interface {
	Encode() ([]byte, error)
}

// StorageDecoder storage data types which can decode themselves
// should implement this. Decode is called with nil data for empty slots.
type StorageDecoder interface {
	Decode([]byte) error
}

// State is a mutable overlay above a key/value store. Reads fall through
// to the underlying store; writes are buffered until Stage().Commit(),
// so a failed operation leaves the store untouched.
type State struct {
	store kv.GetPutter
	dirty map[string][]byte
}

// New create a state overlay above the given store.
func New(store kv.GetPutter) *State {
	return &State{
		store: store,
		dirty: make(map[string][]byte),
	}
}

// GetRaw returns the raw storage value for the given key, or nil if absent.
func (s *State) GetRaw(key []byte) ([]byte, error) {
	if raw, ok := s.dirty[string(key)]; ok {
		return raw, nil
	}
	raw, err := s.store.Get(key)
	if err != nil {
		if s.store.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get storage")
	}
	return raw, nil
}

// SetRaw buffers the raw storage value for the given key. A nil value
// erases the slot.
func (s *State) SetRaw(key, raw []byte) {
	s.dirty[string(key)] = raw
}

// GetStructured decodes the storage value at key into val.
func (s *State) GetStructured(key []byte, val StorageDecoder) error {
	raw, err := s.GetRaw(key)
	if err != nil {
		return err
	}
	return val.Decode(raw)
}

// SetStructured encodes val and buffers it at key.
func (s *State) SetStructured(key []byte, val StorageEncoder) error {
	raw, err := val.Encode()
	if err != nil {
		return errors.Wrap(err, "encode storage")
	}
	s.SetRaw(key, raw)
	return nil
}

// Stage seals the buffered writes into a commitable stage.
// The state remains usable afterwards; committing the stage flushes
// everything buffered up to this point.
type Stage struct {
	store kv.GetPutter
	dirty map[string][]byte
}

// Stage create a commitable stage from buffered writes.
func (s *State) Stage() *Stage {
	dirty := make(map[string][]byte, len(s.dirty))
	for k, v := range s.dirty {
		dirty[k] = v
	}
	return &Stage{store: s.store, dirty: dirty}
}

// Commit writes all staged values to the underlying store in one batch.
func (stg *Stage) Commit() error {
	batch := stg.store.NewBatch()
	for k, v := range stg.dirty {
		if len(v) == 0 {
			if err := batch.Delete([]byte(k)); err != nil {
				return errors.Wrap(err, "commit state")
			}
			continue
		}
		if err := batch.Put([]byte(k), v); err != nil {
			return errors.Wrap(err, "commit state")
		}
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "commit state")
	}
	return nil
}
