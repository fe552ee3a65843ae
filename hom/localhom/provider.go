// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package localhom is a deterministic, single-node provider of homomorphic
// primitives. Ciphertext material is sealed with AES-GCM under a node key
// and stored behind opaque handles; all arithmetic decrypts, computes and
// re-seals inside the provider boundary. It stands in for a real FHE
// backend in tests and solo mode; callers only ever see handles.
package localhom

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"encoding/binary"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/openveil/veil/acm"
	"github.com/openveil/veil/hom"
	"github.com/openveil/veil/kv"
	"github.com/openveil/veil/metrics"
	"github.com/openveil/veil/veil"
)

const (
	nonceSize = 12
	cacheSize = 2048
)

var metricOpCount = metrics.LazyLoadCounterVec("hom_op_count", []string{"op"})

var (
	handleDomain = []byte("veil-ct")
	inputDomain  = []byte("veil-input")
)

var _ hom.Provider = (*Provider)(nil)

// Provider implements hom.Provider above a key/value store.
type Provider struct {
	store    kv.GetPutter
	grants   *acm.Manager
	aead     cipher.AEAD
	inputKey [32]byte
	cache    *lru.Cache
}

func ctKey(h veil.Handle) []byte {
	return append([]byte{'c'}, h.Bytes()...)
}

// New create a provider with the given 32-byte node key.
func New(store kv.GetPutter, grants *acm.Manager, nodeKey []byte) (*Provider, error) {
	block, err := aes.NewCipher(nodeKey)
	if err != nil {
		return nil, errors.Wrap(err, "new provider")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "new provider")
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "new provider")
	}
	return &Provider{
		store:    store,
		grants:   grants,
		aead:     aead,
		inputKey: veil.Blake2b(inputDomain, nodeKey),
		cache:    cache,
	}, nil
}

// NewRandom create a provider with a freshly generated node key.
// Suitable for solo mode and tests; handles do not survive a restart
// unless the same store and key are reused.
func NewRandom(store kv.GetPutter, grants *acm.Manager) (*Provider, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.Wrap(err, "generate node key")
	}
	return New(store, grants, key)
}

// seal encrypts a value and persists it under a fresh handle.
func (p *Provider) seal(value uint64) (veil.Handle, error) {
	var plain [8]byte
	binary.BigEndian.PutUint64(plain[:], value)

	buf := make([]byte, nonceSize, nonceSize+8+p.aead.Overhead())
	if _, err := rand.Read(buf); err != nil {
		return veil.Handle{}, errors.Wrap(err, "seal")
	}
	buf = p.aead.Seal(buf, buf[:nonceSize], plain[:], nil)

	handle := veil.Handle(veil.Blake2b(handleDomain, buf))
	if err := p.store.Put(ctKey(handle), buf); err != nil {
		return veil.Handle{}, errors.Wrap(err, "store ciphertext")
	}
	p.cache.Add(handle, value)
	return handle, nil
}

// load resolves a handle to its hidden value. Never exposed to callers.
func (p *Provider) load(h veil.Handle) (uint64, error) {
	if h.IsZero() {
		return 0, errors.New("uninitialized handle")
	}
	if v, ok := p.cache.Get(h); ok {
		return v.(uint64), nil
	}
	buf, err := p.store.Get(ctKey(h))
	if err != nil {
		if p.store.IsNotFound(err) {
			return 0, errors.New("unknown handle")
		}
		return 0, errors.Wrap(err, "load ciphertext")
	}
	if len(buf) < nonceSize {
		return 0, errors.New("corrupted ciphertext")
	}
	plain, err := p.aead.Open(nil, buf[:nonceSize], buf[nonceSize:], nil)
	if err != nil {
		return 0, errors.Wrap(err, "open ciphertext")
	}
	value := binary.BigEndian.Uint64(plain)
	p.cache.Add(h, value)
	return value, nil
}

// AsEncrypted implements hom.Provider.
func (p *Provider) AsEncrypted(plain uint64) (veil.Handle, error) {
	metricOpCount().AddWithLabel(1, map[string]string{"op": "encrypt"})
	return p.seal(plain)
}

// FromExternalInput implements hom.Provider. The proof is a keyed
// blake2b binding over the ciphertext; a mismatch means the input was
// not produced by the input sealing flow and nothing is materialized.
func (p *Provider) FromExternalInput(ct, proof []byte) (veil.Handle, error) {
	metricOpCount().AddWithLabel(1, map[string]string{"op": "verify_input"})

	mac := veil.Blake2b(p.inputKey[:], ct)
	if subtle.ConstantTimeCompare(mac[:], proof) != 1 {
		return veil.Handle{}, hom.ErrInvalidProof
	}
	if len(ct) < nonceSize+8 {
		return veil.Handle{}, hom.ErrInvalidProof
	}
	plain, err := p.aead.Open(nil, ct[:nonceSize], ct[nonceSize:], nil)
	if err != nil || len(plain) != 8 {
		return veil.Handle{}, hom.ErrInvalidProof
	}
	return p.seal(binary.BigEndian.Uint64(plain))
}

// Add implements hom.Provider. Wraps modulo 2^64.
func (p *Provider) Add(a, b veil.Handle) (veil.Handle, error) {
	metricOpCount().AddWithLabel(1, map[string]string{"op": "add"})

	av, err := p.load(a)
	if err != nil {
		return veil.Handle{}, err
	}
	bv, err := p.load(b)
	if err != nil {
		return veil.Handle{}, err
	}
	return p.seal(av + bv)
}

// Sub implements hom.Provider. Unsigned with clamp-at-zero semantics.
func (p *Provider) Sub(a, b veil.Handle) (veil.Handle, error) {
	metricOpCount().AddWithLabel(1, map[string]string{"op": "sub"})

	av, err := p.load(a)
	if err != nil {
		return veil.Handle{}, err
	}
	bv, err := p.load(b)
	if err != nil {
		return veil.Handle{}, err
	}
	if bv > av {
		return p.seal(0)
	}
	return p.seal(av - bv)
}

// LessOrEqual implements hom.Provider.
func (p *Provider) LessOrEqual(a, b veil.Handle) (veil.Handle, error) {
	metricOpCount().AddWithLabel(1, map[string]string{"op": "le"})

	av, err := p.load(a)
	if err != nil {
		return veil.Handle{}, err
	}
	bv, err := p.load(b)
	if err != nil {
		return veil.Handle{}, err
	}
	var cond uint64
	if av <= bv {
		cond = 1
	}
	return p.seal(cond)
}

// Select implements hom.Provider. Both operands are resolved whichever
// way the condition goes, so the work done is independent of the outcome.
func (p *Provider) Select(cond, a, b veil.Handle) (veil.Handle, error) {
	metricOpCount().AddWithLabel(1, map[string]string{"op": "select"})

	cv, err := p.load(cond)
	if err != nil {
		return veil.Handle{}, err
	}
	av, err := p.load(a)
	if err != nil {
		return veil.Handle{}, err
	}
	bv, err := p.load(b)
	if err != nil {
		return veil.Handle{}, err
	}
	// arithmetic multiplexer, no branch on cv
	return p.seal(cv*av + (1-cv)*bv)
}

// IsInitialized implements hom.Provider.
func (p *Provider) IsInitialized(h veil.Handle) bool {
	if h.IsZero() {
		return false
	}
	if _, ok := p.cache.Get(h); ok {
		return true
	}
	has, _ := p.store.Has(ctKey(h))
	return has
}

// GrantAccess implements hom.Provider.
func (p *Provider) GrantAccess(h veil.Handle, principal veil.Address) error {
	return p.grants.Grant(h, principal)
}

// SealInput produces an external ciphertext and its binding proof for the
// given value. It stands in for the client-side encryption relay.
func (p *Provider) SealInput(value uint64) (ct, proof []byte, err error) {
	var plain [8]byte
	binary.BigEndian.PutUint64(plain[:], value)

	ct = make([]byte, nonceSize, nonceSize+8+p.aead.Overhead())
	if _, err := rand.Read(ct); err != nil {
		return nil, nil, errors.Wrap(err, "seal input")
	}
	ct = p.aead.Seal(ct, ct[:nonceSize], plain[:], nil)
	mac := veil.Blake2b(p.inputKey[:], ct)
	return ct, mac[:], nil
}

// Decrypt resolves a handle on behalf of a granted principal. It stands
// in for the decryption relay living outside the core; the core itself
// never calls it.
func (p *Provider) Decrypt(h veil.Handle, principal veil.Address) (uint64, error) {
	granted, err := p.grants.IsGranted(h, principal)
	if err != nil {
		return 0, err
	}
	if !granted {
		return 0, errors.New("principal not granted for handle")
	}
	return p.load(h)
}
