// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package events exposes the operation log over HTTP as a filter query.
package events

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/openveil/veil/api/utils"
	"github.com/openveil/veil/eventdb"
	"github.com/openveil/veil/node"
)

type Events struct {
	node  *node.Node
	limit uint64
}

// New create an events endpoint. limit caps the number of events a
// single query may return.
func New(node *node.Node, limit uint64) *Events {
	return &Events{node, limit}
}

func (e *Events) filter(req *http.Request, filter *eventdb.Filter) ([]*eventdb.Event, error) {
	if filter.Options == nil {
		filter.Options = &eventdb.Options{Limit: e.limit}
	} else if filter.Options.Limit > e.limit {
		return nil, utils.Forbidden(errors.Errorf("options.limit exceeds the maximum allowed value of %d", e.limit))
	}
	events, err := e.node.FilterEvents(req.Context(), filter)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []*eventdb.Event{}
	}
	return events, nil
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	var filter eventdb.Filter
	if err := utils.ParseJSON(req.Body, &filter); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	events, err := e.filter(req, &filter)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, events)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /events").
		HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
}
