///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package events

import (
	"testing"

	"github.com/pkg/errors"
)

func newTestLog(t *testing.T) *Log {
	l, err := NewMemLog()
	if err != nil {
		t.Fatalf("Failed to open log: %+v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

// Happy path
func TestLog_Append(t *testing.T) {
	l := newTestLog(t)
	e := testEvent(t, 7)
	if err := l.Append(e); err != nil {
		t.Fatalf("Failed to append: %+v", err)
	}

	received, err := l.Get(7)
	if err != nil {
		t.Fatalf("Failed to get event: %+v", err)
	}
	if received.Fields != e.Fields || received.Nonce != e.Nonce {
		t.Errorf("Stored event differs.\nexpected: %+v\nreceived: %+v",
			e, received)
	}
}

// Error path: an offset is emitted once.
func TestLog_Append_Duplicate(t *testing.T) {
	l := newTestLog(t)
	_ = l.Append(testEvent(t, 7))
	err := l.Append(testEvent(t, 7))
	if !errors.Is(err, ErrDuplicateEvent) {
		t.Errorf("Expected ErrDuplicateEvent, received %+v", err)
	}
}

// Error path: no event for an offset.
func TestLog_Get_Missing(t *testing.T) {
	l := newTestLog(t)
	if _, err := l.Get(3); !errors.Is(err, ErrNoEvent) {
		t.Errorf("Expected ErrNoEvent, received %+v", err)
	}
}

// Tests that iteration visits events in ascending offset order.
func TestLog_Iterate(t *testing.T) {
	l := newTestLog(t)
	for _, offset := range []uint64{300, 2, 1 << 40, 17} {
		if err := l.Append(testEvent(t, offset)); err != nil {
			t.Fatalf("Failed to append %d: %+v", offset, err)
		}
	}

	var visited []uint64
	err := l.Iterate(func(e *VerifiedOutputEvent) bool {
		visited = append(visited, e.ComputationOffset)
		return true
	})
	if err != nil {
		t.Fatalf("Failed to iterate: %+v", err)
	}
	expected := []uint64{2, 17, 300, 1 << 40}
	if len(visited) != len(expected) {
		t.Fatalf("Visited %v, expected %v", visited, expected)
	}
	for i := range expected {
		if visited[i] != expected[i] {
			t.Errorf("Visited %v, expected %v", visited, expected)
			break
		}
	}

	count := 0
	_ = l.Iterate(func(*VerifiedOutputEvent) bool {
		count++
		return false
	})
	if count != 1 {
		t.Errorf("Iteration did not stop, visited %d", count)
	}
}
