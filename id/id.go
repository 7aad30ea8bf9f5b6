// Package id defines TypeID-based correlation identifiers.
//
// Catalog records are keyed by their natural remote keys (team code, SKU,
// season ID). TypeIDs identify the work vexsync does on them: sync passes and
// notification fan-outs. IDs are K-sortable (UUIDv7-based) and use the
// format "prefix_suffix".
package id

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies what kind of work an ID correlates.
type Prefix string

// Prefix constants.
const (
	PrefixPass    Prefix = "pass"
	PrefixNotify  Prefix = "ntf"
	PrefixJob     Prefix = "job"
	PrefixMessage Prefix = "msg"
)

// ID is a prefix-qualified, globally unique, sortable identifier.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receiver for UnmarshalText.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string such as "pass_01h455vb4pex5vsknk084sn02q".
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// NewPassID generates an ID for one sync pass.
func NewPassID() ID { return New(PrefixPass) }

// NewNotifyID generates an ID for one notification fan-out.
func NewNotifyID() ID { return New(PrefixNotify) }

// NewJobID generates an ID for one scheduled job run.
func NewJobID() ID { return New(PrefixJob) }

// NewMessageID generates an ID for one outbound webhook message.
func NewMessageID() ID { return New(PrefixMessage) }

// String returns the full TypeID string, or "" for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}
