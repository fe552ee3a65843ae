// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"github.com/openveil/veil/veil"
)

// Kind of informational event emitted by the engine.
type Kind string

const (
	KindClaimed   Kind = "claimed"
	KindStaked    Kind = "staked"
	KindWithdrawn Kind = "withdrawn"
)

// Event is an informational record. It carries a ciphertext handle only,
// never a plaintext amount; no core invariant depends on its delivery.
type Event struct {
	Seq     uint64       `json:"seq"`
	Time    uint64       `json:"time"`
	Kind    Kind         `json:"kind"`
	Account veil.Address `json:"account"`
	Handle  veil.Handle  `json:"handle"`
}

// Order describes the ordering of query results.
type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range constrains a filter to a sequence number interval.
type Range struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

// Options paging options.
type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// Filter describes an event query.
type Filter struct {
	Kind    *Kind         `json:"kind"`
	Account *veil.Address `json:"account"`
	Range   *Range        `json:"range"`
	Order   Order         `json:"order"`
	Options *Options      `json:"options"`
}
