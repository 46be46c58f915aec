// Package snowflake provides 64-bit time-ordered identifiers.
//
// Layout, most significant bit first:
//
//	[1 bit unused][45 bits ms since Epoch][6 bits node][12 bits sequence]
//
// IDs from one node are strictly increasing; IDs from different nodes never
// collide as long as every node runs with a distinct node ID.
package snowflake

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	// Epoch is 2020-01-01T00:00:00Z in Unix milliseconds.
	Epoch int64 = 1577836800000

	UnusedBits    = 1
	TimestampBits = 45
	NodeIDBits    = 6
	SequenceBits  = 12

	NodeIDShift    = SequenceBits
	TimestampShift = NodeIDBits + SequenceBits

	MaxNodeID    = (1 << NodeIDBits) - 1
	MaxSequence  = (1 << SequenceBits) - 1
	MaxTimestamp = (1 << TimestampBits) - 1

	SequenceMask uint64 = MaxSequence
	NodeIDMask   uint64 = MaxNodeID << NodeIDShift
)

// ID is a Snowflake identifier.
type ID uint64

// Parts is the decomposed form of an ID.
type Parts struct {
	// Timestamp is Unix milliseconds (Epoch already added back).
	Timestamp int64
	NodeID    uint8
	Sequence  uint16
}

// Compose packs an epoch-relative millisecond value, node and sequence.
// Out-of-range inputs are masked to their field width.
func Compose(elapsed int64, nodeID int, sequence uint64) ID {
	return ID(uint64(elapsed)&MaxTimestamp<<TimestampShift |
		uint64(nodeID)<<NodeIDShift&NodeIDMask |
		sequence&SequenceMask)
}

// DecodeTimestamp returns the Unix millisecond timestamp embedded in id.
// No validation is performed; any 64-bit value decodes positionally.
func DecodeTimestamp(id ID) int64 {
	return int64(uint64(id)>>TimestampShift) + Epoch
}

// Decompose splits id into its fields.
func Decompose(id ID) Parts {
	return Parts{
		Timestamp: DecodeTimestamp(id),
		NodeID:    uint8((uint64(id) & NodeIDMask) >> NodeIDShift),
		Sequence:  uint16(uint64(id) & SequenceMask),
	}
}

// ParseID parses the decimal string form of an ID.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, ErrInvalidID)
	}
	return ID(v), nil
}

// Uint64 returns the raw value.
func (id ID) Uint64() uint64 { return uint64(id) }

// String returns the decimal representation.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Timestamp returns the embedded Unix millisecond value.
func (id ID) Timestamp() int64 { return DecodeTimestamp(id) }

// Time returns the embedded timestamp as UTC time.
func (id ID) Time() time.Time {
	return time.UnixMilli(DecodeTimestamp(id)).UTC()
}

// NodeID returns the node field.
func (id ID) NodeID() uint8 { return Decompose(id).NodeID }

// Sequence returns the sequence field.
func (id ID) Sequence() uint16 { return Decompose(id).Sequence }

// MarshalJSON encodes the ID as a JSON string so that clients limited to
// float64 numbers do not lose precision.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON accepts both a JSON string and a bare JSON number.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	parsed, err := ParseID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
