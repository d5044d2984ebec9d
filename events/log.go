///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package events

// log.go contains the durable event log, a leveldb table of events keyed by
// computation offset.

import (
	"encoding/binary"
	"sync"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const eventPrefix = "event_"

// ErrDuplicateEvent is returned when an event for an offset is appended twice
var ErrDuplicateEvent = errors.New("event already emitted for offset")

// ErrNoEvent is returned when no event exists for an offset
var ErrNoEvent = errors.New("no event for offset")

// Log is an append-only leveldb store of emitted events
type Log struct {
	db  *leveldb.DB
	mux sync.Mutex
}

// OpenLog opens or creates the event log at path
func OpenLog(path string) (*Log, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open event log at %s", path)
	}
	jww.INFO.Printf("Event log opened at %s", path)
	return &Log{db: db}, nil
}

// NewMemLog creates an event log that is not persisted
func NewMemLog() (*Log, error) {
	return newLogFromStorage(storage.NewMemStorage())
}

func newLogFromStorage(stor storage.Storage) (*Log, error) {
	db, err := leveldb.Open(stor, nil)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to open event log")
	}
	return &Log{db: db}, nil
}

// Append writes the event. Each offset is emitted at most once.
func (l *Log) Append(e *VerifiedOutputEvent) error {
	key := eventKey(e.ComputationOffset)

	l.mux.Lock()
	defer l.mux.Unlock()

	exists, err := l.db.Has(key, nil)
	if err != nil {
		return errors.Wrap(err, "Failed to check event log")
	}
	if exists {
		return errors.WithMessagef(ErrDuplicateEvent, "%d", e.ComputationOffset)
	}
	return errors.Wrap(l.db.Put(key, e.Marshal(), nil),
		"Failed to write event")
}

// Get returns the event emitted for the computation offset
func (l *Log) Get(offset uint64) (*VerifiedOutputEvent, error) {
	data, err := l.db.Get(eventKey(offset), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, errors.WithMessagef(ErrNoEvent, "%d", offset)
	} else if err != nil {
		return nil, errors.Wrap(err, "Failed to read event log")
	}
	return UnmarshalEvent(data)
}

// Iterate calls fn on each event in ascending offset order until fn returns
// false
func (l *Log) Iterate(fn func(e *VerifiedOutputEvent) bool) error {
	iter := l.db.NewIterator(util.BytesPrefix([]byte(eventPrefix)), nil)
	defer iter.Release()

	for iter.Next() {
		e, err := UnmarshalEvent(iter.Value())
		if err != nil {
			return err
		}
		if !fn(e) {
			break
		}
	}
	return iter.Error()
}

// Close closes the underlying database
func (l *Log) Close() error {
	return l.db.Close()
}

func eventKey(offset uint64) []byte {
	key := make([]byte, len(eventPrefix), len(eventPrefix)+8)
	copy(key, eventPrefix)
	return binary.BigEndian.AppendUint64(key, offset)
}
