///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

// Package messages contains the wire messages exchanged between clients, the
// node and the computation cluster. Messages are encoded in the protobuf wire
// format field by field.
package messages

import (
	"github.com/pkg/errors"
	"gitlab.com/xx_network/primitives/id"
	"google.golang.org/protobuf/encoding/protowire"
)

// Message is implemented by every type sent over the node and cluster
// services
type Message interface {
	Marshal() []byte
	Unmarshal(b []byte) error
}

// Writer appends protobuf wire fields
type Writer []byte

// Bytes appends a length delimited field. Empty values are omitted.
func (w *Writer) Bytes(num protowire.Number, v []byte) {
	if len(v) == 0 {
		return
	}
	*w = protowire.AppendTag(*w, num, protowire.BytesType)
	*w = protowire.AppendBytes(*w, v)
}

// Uint64 appends a varint field. Zero values are omitted.
func (w *Writer) Uint64(num protowire.Number, v uint64) {
	if v == 0 {
		return
	}
	*w = protowire.AppendTag(*w, num, protowire.VarintType)
	*w = protowire.AppendVarint(*w, v)
}

// ID appends an ID field. A nil ID is omitted.
func (w *Writer) ID(num protowire.Number, v *id.ID) {
	if v == nil {
		return
	}
	w.Bytes(num, v.Marshal())
}

// Fields holds the parsed fields of one message
type Fields struct {
	bytes   map[protowire.Number][][]byte
	varints map[protowire.Number]uint64
}

// Parse reads every field of b. Unknown wire types are skipped.
func Parse(b []byte) (*Fields, error) {
	f := &Fields{
		bytes:   make(map[protowire.Number][][]byte),
		varints: make(map[protowire.Number]uint64),
	}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errors.Wrap(protowire.ParseError(n), "Bad tag")
		}
		b = b[n:]

		switch typ {
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nil, errors.Wrapf(protowire.ParseError(m),
					"Bad field %d", num)
			}
			f.bytes[num] = append(f.bytes[num], v)
			n = m
		case protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return nil, errors.Wrapf(protowire.ParseError(m),
					"Bad field %d", num)
			}
			f.varints[num] = v
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, errors.Wrapf(protowire.ParseError(n),
					"Bad field %d", num)
			}
		}
		b = b[n:]
	}
	return f, nil
}

// Bytes returns the last value of a length delimited field
func (f *Fields) Bytes(num protowire.Number) []byte {
	vals := f.bytes[num]
	if len(vals) == 0 {
		return nil
	}
	return vals[len(vals)-1]
}

// Repeated returns every value of a repeated length delimited field in order
func (f *Fields) Repeated(num protowire.Number) [][]byte {
	return f.bytes[num]
}

// Uint64 returns the value of a varint field
func (f *Fields) Uint64(num protowire.Number) uint64 {
	return f.varints[num]
}

// ID returns an ID field, or nil if it is absent
func (f *Fields) ID(num protowire.Number) (*id.ID, error) {
	b := f.Bytes(num)
	if b == nil {
		return nil, nil
	}
	return id.Unmarshal(b)
}
