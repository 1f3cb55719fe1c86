package core

import (
	"fmt"
	"sort"
)

// OpKind is the kind of a staged mutation.
type OpKind int

const (
	OpAdd OpKind = iota
	OpRemove
	OpReplace
)

// Op is one staged mutation against a Collection.
// Old is the encoding removed by OpRemove and OpReplace; Record is the record
// inserted by OpAdd and OpReplace.
type Op struct {
	Kind   OpKind
	Old    string
	Record Record
}

// AddOp stages the insertion of rec.
func AddOp(rec Record) Op { return Op{Kind: OpAdd, Record: rec} }

// RemoveOp stages the removal of the record encoded as encoded.
func RemoveOp(encoded string) Op { return Op{Kind: OpRemove, Old: encoded} }

// ReplaceOp stages the removal of old and the insertion of rec as one step.
func ReplaceOp(old string, rec Record) Op { return Op{Kind: OpReplace, Old: old, Record: rec} }

// Collection is the set of notes held under one namespace, keyed by encoding.
//
// A Collection is a value: Apply returns a new one and never modifies the
// receiver, so snapshots can be shared with subscribers without copying.
type Collection struct {
	revision uint64
	records  map[string]Record
}

// NewCollection builds a collection at the given revision.
// Records with equal encodings collapse into the first one seen. Records
// without an ID get one derived from their encoding, so data written
// without IDs yields the same IDs every time it is loaded.
func NewCollection(revision uint64, records ...Record) Collection {
	c := Collection{
		revision: revision,
		records:  make(map[string]Record, len(records)),
	}
	for _, rec := range records {
		c.insert(rec, derivedID)
	}
	return c
}

// Revision increases by one with every committed mutation.
func (c Collection) Revision() uint64 { return c.revision }

// Len returns the number of notes.
func (c Collection) Len() int { return len(c.records) }

// Contains reports whether a note with this encoding is present.
func (c Collection) Contains(encoded string) bool {
	_, ok := c.records[encoded]
	return ok
}

// Lookup returns the note with this encoding.
func (c Collection) Lookup(encoded string) (Record, bool) {
	rec, ok := c.records[encoded]
	return rec, ok
}

// SameNotes reports whether c and other hold the same set of encodings,
// regardless of revision.
func (c Collection) SameNotes(other Collection) bool {
	if len(c.records) != len(other.records) {
		return false
	}
	for k := range c.records {
		if _, ok := other.records[k]; !ok {
			return false
		}
	}
	return true
}

// Records returns the notes ordered by encoding.
func (c Collection) Records() []Record {
	out := make([]Record, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Encode() < out[j].Encode()
	})
	return out
}

// Strings returns the encoded notes ordered by encoding.
func (c Collection) Strings() []string {
	out := make([]string, 0, len(c.records))
	for k := range c.records {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// String implements fmt.Stringer.
func (c Collection) String() string {
	return fmt.Sprintf("%s@%d (%d notes)", DefaultNamespace, c.revision, len(c.records))
}

// Apply returns the collection that results from applying ops in order,
// at the next revision.
func (c Collection) Apply(ops ...Op) Collection {
	next := Collection{
		revision: c.revision + 1,
		records:  make(map[string]Record, len(c.records)+len(ops)),
	}
	for k, v := range c.records {
		next.records[k] = v
	}

	for _, op := range ops {
		switch op.Kind {
		case OpAdd:
			next.insert(op.Record, newID)
		case OpRemove:
			delete(next.records, op.Old)
		case OpReplace:
			prev, had := next.records[op.Old]
			delete(next.records, op.Old)
			rec := op.Record
			if had && rec.ID == "" {
				rec.ID = prev.ID
			}
			next.insert(rec, newID)
		}
	}
	return next
}

// insert adds rec unless its encoding is already present.
func (c *Collection) insert(rec Record, id func(encoded string) string) {
	key := rec.Encode()
	if _, ok := c.records[key]; ok {
		return
	}
	if rec.ID == "" {
		rec.ID = id(key)
	}
	c.records[key] = rec
}
