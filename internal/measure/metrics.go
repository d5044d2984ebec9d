////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package measure records timestamped events over the life of a computation.
package measure

// metrics.go contains the metrics object and its methods

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Metrics structure holds the list of different metrics for a computation.
// The RWMutex prevents two threads from writing to the list at the same time.
type Metrics struct {
	Events []Metric
	sync.RWMutex
}

// Metric structure holds a single measurement, which contains a tag and a
// timestamp from when the measurement was taken.
type Metric struct {
	Tag       string
	Timestamp time.Time
}

// Measure creates a new Metric object and appends it to the Metrics's event
// list. The Metric object is created from the specified tag and a timestamp
// created at the time of function call. The timestamp is returned.
func (ms *Metrics) Measure(tag string) time.Time {
	metric := Metric{
		Tag:       tag,
		Timestamp: time.Now(),
	}

	ms.Lock()
	ms.Events = append(ms.Events, metric)
	ms.Unlock()

	return metric.Timestamp
}

// GetEvents returns a copy of the Events array.
func (ms *Metrics) GetEvents() []Metric {
	ms.RLock()
	defer ms.RUnlock()
	metricsEvents := make([]Metric, len(ms.Events))

	copy(metricsEvents, ms.Events)

	return metricsEvents
}

// Elapsed returns the time between the first events with the from and to
// tags. It returns false if either has not been measured.
func (ms *Metrics) Elapsed(from, to string) (time.Duration, bool) {
	var start, end *Metric
	events := ms.GetEvents()
	for i := range events {
		if start == nil && events[i].Tag == from {
			start = &events[i]
		}
		if end == nil && events[i].Tag == to {
			end = &events[i]
		}
	}
	if start == nil || end == nil {
		return 0, false
	}
	return end.Timestamp.Sub(start.Timestamp), true
}

// String lists each event with its offset from the first, for logging
func (ms *Metrics) String() string {
	events := ms.GetEvents()
	if len(events) == 0 {
		return "[]"
	}

	parts := make([]string, len(events))
	for i, e := range events {
		parts[i] = fmt.Sprintf("%s +%s", e.Tag,
			e.Timestamp.Sub(events[0].Timestamp))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
