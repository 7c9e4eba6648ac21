// Package model defines the core record and category types.
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Record is one stored fragment of text. Records are append-only: once
// created they are never updated or removed.
type Record struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt float64        `json:"created_at"`
}

// NewRecord builds a record for category typ. A nil metadata map becomes an
// empty one and CreatedAt is set to the current wall-clock time.
func NewRecord(id, typ, content string, metadata map[string]any) Record {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Record{
		ID:        id,
		Type:      typ,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: Timestamp(time.Now()),
	}
}

// Timestamp converts t to fractional seconds since the Unix epoch.
func Timestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// Time converts the record's CreatedAt back to a time.Time.
func (r Record) Time() time.Time {
	sec := int64(r.CreatedAt)
	nsec := int64((r.CreatedAt - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}

// ID schemes.
const (
	IDSchemeULID = "ulid"
	IDSchemeUUID = "uuid"
)

// IDGenerator produces unique record IDs.
type IDGenerator func() string

// NewIDGenerator returns a generator for the named scheme. An empty scheme
// selects ULIDs.
func NewIDGenerator(scheme string) (IDGenerator, error) {
	switch scheme {
	case "", IDSchemeULID:
		return func() string { return ulid.Make().String() }, nil
	case IDSchemeUUID:
		return func() string { return uuid.NewString() }, nil
	default:
		return nil, fmt.Errorf("unknown id scheme %q (valid: ulid, uuid)", scheme)
	}
}
