// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package veil

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Handle is an opaque 32-byte reference to an encrypted value.
// It carries no plaintext; equality is by identity, not by the value
// hidden behind it. The zero handle means "not initialized".
type Handle [32]byte

var (
	_ json.Marshaler   = (*Handle)(nil)
	_ json.Unmarshaler = (*Handle)(nil)
)

// String implements stringer
func (h Handle) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// Bytes returns byte slice form of handle.
func (h Handle) Bytes() []byte {
	return h[:]
}

// IsZero returns if the handle has all zero bytes, i.e. it does not
// reference any ciphertext.
func (h Handle) IsZero() bool {
	return h == Handle{}
}

// MarshalJSON implements json.Marshaler.
func (h *Handle) MarshalJSON() ([]byte, error) {
	if h == nil {
		return json.Marshal(nil)
	}
	return json.Marshal(h.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *Handle) UnmarshalJSON(data []byte) error {
	var hex string
	if err := json.Unmarshal(data, &hex); err != nil {
		return err
	}
	parsed, err := ParseHandle(hex)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHandle convert string presented into Handle type
func ParseHandle(s string) (Handle, error) {
	if len(s) == 32*2 {
	} else if len(s) == 32*2+2 {
		if strings.ToLower(s[:2]) != "0x" {
			return Handle{}, errors.New("invalid prefix")
		}
		s = s[2:]
	} else {
		return Handle{}, errors.New("invalid length")
	}

	var h Handle
	_, err := hex.Decode(h[:], []byte(s))
	if err != nil {
		return Handle{}, err
	}
	return h, nil
}

// MustParseHandle convert string presented into Handle type, panic on error.
func MustParseHandle(s string) Handle {
	h, err := ParseHandle(s)
	if err != nil {
		panic(err)
	}
	return h
}

// BytesToHandle converts bytes slice into Handle.
// If b is larger than Handle length, b will be cropped (from the left).
// If b is smaller than Handle length, b will be extended (from the left).
func BytesToHandle(b []byte) Handle {
	return Handle(common.BytesToHash(b))
}
