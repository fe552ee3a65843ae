// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package accounts exposes per-account ledger queries and the
// claim/stake/withdraw operations over HTTP.
package accounts

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/openveil/veil/api/utils"
	"github.com/openveil/veil/builtin/ledger"
	"github.com/openveil/veil/builtin/vault"
	"github.com/openveil/veil/hom"
	"github.com/openveil/veil/node"
	"github.com/openveil/veil/veil"
)

type Accounts struct {
	node *node.Node
}

func New(node *node.Node) *Accounts {
	return &Accounts{node}
}

func (a *Accounts) getAccount(addr veil.Address) (*Account, error) {
	balance, err := a.node.BalanceOf(addr)
	if err != nil {
		return nil, err
	}
	staked, err := a.node.StakedBalanceOf(addr)
	if err != nil {
		return nil, err
	}
	claimed, err := a.node.HasClaimed(addr)
	if err != nil {
		return nil, err
	}
	return &Account{
		Balance: balance,
		Staked:  staked,
		Claimed: claimed,
	}, nil
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := veil.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	acc, err := a.getAccount(*addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, acc)
}

func (a *Accounts) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	addr, err := veil.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	balance, err := a.node.BalanceOf(*addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &OpResult{Handle: balance})
}

func (a *Accounts) handleGetStaked(w http.ResponseWriter, req *http.Request) error {
	addr, err := veil.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	staked, err := a.node.StakedBalanceOf(*addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &OpResult{Handle: staked})
}

func (a *Accounts) handleClaim(w http.ResponseWriter, req *http.Request) error {
	addr, err := veil.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	minted, err := a.node.Claim(*addr)
	if err != nil {
		return convertOpError(err)
	}
	return utils.WriteJSON(w, &OpResult{Handle: minted})
}

func (a *Accounts) handleStake(w http.ResponseWriter, req *http.Request) error {
	addr, err := veil.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	var amount AmountRequest
	if err := utils.ParseJSON(req.Body, &amount); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	staked, err := a.node.Stake(*addr, amount.Ciphertext, amount.Proof)
	if err != nil {
		return convertOpError(err)
	}
	return utils.WriteJSON(w, &OpResult{Handle: staked})
}

func (a *Accounts) handleWithdraw(w http.ResponseWriter, req *http.Request) error {
	addr, err := veil.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	var amount AmountRequest
	if err := utils.ParseJSON(req.Body, &amount); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	withdrawn, err := a.node.Withdraw(*addr, amount.Ciphertext, amount.Proof)
	if err != nil {
		return convertOpError(err)
	}
	return utils.WriteJSON(w, &OpResult{Handle: withdrawn})
}

// convertOpError maps engine errors onto http statuses. Only
// initialization-state errors surface here; amount-dependent outcomes
// are clamped inside the engine and always succeed.
func convertOpError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrAlreadyClaimed):
		return utils.Conflict(err)
	case errors.Is(err, hom.ErrInvalidProof):
		return utils.Forbidden(err)
	case errors.Is(err, ledger.ErrInsufficientBalance), errors.Is(err, vault.ErrNothingStaked):
		return utils.BadRequest(err)
	default:
		return err
	}
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /accounts/{address}").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccount))
	sub.Path("/{address}/balance").
		Methods(http.MethodGet).
		Name("GET /accounts/{address}/balance").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetBalance))
	sub.Path("/{address}/staked").
		Methods(http.MethodGet).
		Name("GET /accounts/{address}/staked").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetStaked))
	sub.Path("/{address}/claim").
		Methods(http.MethodPost).
		Name("POST /accounts/{address}/claim").
		HandlerFunc(utils.WrapHandlerFunc(a.handleClaim))
	sub.Path("/{address}/stake").
		Methods(http.MethodPost).
		Name("POST /accounts/{address}/stake").
		HandlerFunc(utils.WrapHandlerFunc(a.handleStake))
	sub.Path("/{address}/withdraw").
		Methods(http.MethodPost).
		Name("POST /accounts/{address}/withdraw").
		HandlerFunc(utils.WrapHandlerFunc(a.handleWithdraw))
}
