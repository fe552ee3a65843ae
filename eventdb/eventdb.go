// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb persists the informational events emitted by the
// confidential ledger into a sqlite database, suitable for filter
// queries by the presentation layer.
package eventdb

import (
	"context"
	"database/sql"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/openveil/veil/veil"
)

const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	ts INTEGER NOT NULL,
	kind TEXT NOT NULL,
	account BLOB(20) NOT NULL,
	handle BLOB(32) NOT NULL
);
CREATE INDEX IF NOT EXISTS event_account ON event(account);
CREATE INDEX IF NOT EXISTS event_kind ON event(kind);`

// EventDB wraps the sqlite event store.
type EventDB struct {
	path          string
	db            *sql.DB
	driverVersion string
}

// New create or open event db at given path.
func New(path string) (eventDB *EventDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if eventDB == nil {
			db.Close()
		}
	}()
	// sqlite allows one writer anyway
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}

	driverVer, _, _ := sqlite3.Version()
	return &EventDB{
		path,
		db,
		driverVer,
	}, nil
}

// NewMem create an event db in ram.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

// Close close the event db.
func (db *EventDB) Close() {
	db.db.Close()
}

func (db *EventDB) Path() string {
	return db.path
}

// Append stores one event and returns its assigned sequence number.
func (db *EventDB) Append(ts uint64, kind Kind, account veil.Address, handle veil.Handle) (uint64, error) {
	res, err := db.db.Exec(
		"INSERT INTO event(ts, kind, account, handle) VALUES(?,?,?,?)",
		ts, string(kind), account.Bytes(), handle.Bytes(),
	)
	if err != nil {
		return 0, err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(seq), nil
}

// Filter queries events matching the given filter. A nil filter returns
// everything in ascending order.
func (db *EventDB) Filter(ctx context.Context, filter *Filter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, "SELECT seq, ts, kind, account, handle FROM event ORDER BY seq ASC")
	}
	var args []interface{}
	stmt := "SELECT seq, ts, kind, account, handle FROM event WHERE 1"
	if filter.Kind != nil {
		args = append(args, string(*filter.Kind))
		stmt += " AND kind = ? "
	}
	if filter.Account != nil {
		args = append(args, filter.Account.Bytes())
		stmt += " AND account = ? "
	}
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND seq >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND seq <= ? "
		}
	}
	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC "
	} else {
		stmt += " ORDER BY seq ASC "
	}
	if filter.Options != nil {
		stmt += " limit ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *EventDB) queryEvents(ctx context.Context, stmt string, args ...interface{}) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq     uint64
			ts      uint64
			kind    string
			account []byte
			handle  []byte
		)
		if err := rows.Scan(&seq, &ts, &kind, &account, &handle); err != nil {
			return nil, err
		}
		events = append(events, &Event{
			Seq:     seq,
			Time:    ts,
			Kind:    Kind(kind),
			Account: veil.BytesToAddress(account),
			Handle:  veil.BytesToHandle(handle),
		})
	}
	return events, rows.Err()
}
