// Package core holds the note domain: records, the set-valued collection,
// the storage contracts and the Service that publishes collection snapshots.
package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// Delimiter separates text and timestamp in the legacy string encoding.
	Delimiter = "|"

	// TimestampLayout is the yyyy-MM-dd HH:mm:ss pattern notes are stamped with.
	TimestampLayout = "2006-01-02 15:04:05"

	// DefaultNamespace is the storage namespace (and key) holding the collection.
	DefaultNamespace = "notes"
)

// Record is a single note.
//
// ID is a stable handle assigned when the record first enters a collection.
// It is not part of the record's identity: two records are the same note
// when their encodings are equal.
type Record struct {
	ID        string
	Text      string
	Timestamp string
}

// Encode returns the legacy "<text>|<timestamp>" form of the record.
// A record without a timestamp encodes to its bare text.
func (r Record) Encode() string {
	if r.Timestamp == "" {
		return r.Text
	}
	return r.Text + Delimiter + r.Timestamp
}

// Time parses the record timestamp in the local zone. It reports false for
// an empty timestamp or one written in another format.
func (r Record) Time() (time.Time, bool) {
	if r.Timestamp == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(TimestampLayout, r.Timestamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// String implements fmt.Stringer.
func (r Record) String() string {
	return r.Encode()
}

// Decode parses an encoded note.
//
// When what follows the last delimiter is a well-formed timestamp, the split
// happens there, so text may itself contain the delimiter. Otherwise the split
// happens at the first delimiter and the suffix is kept verbatim as the
// timestamp, whatever its format. A string without a delimiter, or with
// nothing after it, is all text.
func Decode(encoded string) Record {
	i := strings.LastIndex(encoded, Delimiter)
	if i < 0 || i == len(encoded)-len(Delimiter) {
		return Record{Text: encoded}
	}
	if ts := encoded[i+len(Delimiter):]; validTimestamp(ts) {
		return Record{Text: encoded[:i], Timestamp: ts}
	}
	text, ts, _ := strings.Cut(encoded, Delimiter)
	return Record{Text: text, Timestamp: ts}
}

func validTimestamp(ts string) bool {
	_, err := time.Parse(TimestampLayout, ts)
	return err == nil
}

// FormatTimestamp renders t with TimestampLayout in the local zone.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// NewRecord stamps text with the clock's current time.
func NewRecord(text string, clock Clock) Record {
	if clock == nil {
		clock = SystemClock{}
	}
	return Record{Text: text, Timestamp: FormatTimestamp(clock.Now())}
}

// recordNamespace seeds IDs derived from an encoding.
var recordNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("notepad/notes"))

func newID(string) string {
	return uuid.New().String()
}

func derivedID(encoded string) string {
	return uuid.NewSHA1(recordNamespace, []byte(encoded)).String()
}

// Clock supplies the time notes are stamped with.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// EventType represents the type of change observed in storage.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to the persisted collection made outside this process
// (or at least outside the Service that observes it).
type Event struct {
	Type      EventType
	Namespace string
	Timestamp int64 // Unix timestamp
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.Namespace)
}
