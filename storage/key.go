// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ava-labs/avalanchego/ids"
)

const (
	// Separator splits the segments of a key's text form.
	Separator = "/"
	// AddressPrefix marks a segment holding an address.
	AddressPrefix = "#"
	// validityPredicateSeg is the literal under which an address's VP reference lives.
	validityPredicateSeg = "?"
)

var ErrInvalidKeyFormat = errors.New("invalid key format")

// Segment is one element of a Key: either a string literal or an address.
type Segment struct {
	addr   ids.ShortID
	str    string
	isAddr bool
}

// StringSegment returns a literal segment.
func StringSegment(s string) Segment { return Segment{str: s} }

// AddressSegment returns a segment embedding [addr].
func AddressSegment(addr ids.ShortID) Segment { return Segment{addr: addr, isAddr: true} }

// Address returns the embedded address, if this is an address segment.
func (s Segment) Address() (ids.ShortID, bool) { return s.addr, s.isAddr }

// Literal returns the string literal, if this is a literal segment.
func (s Segment) Literal() (string, bool) { return s.str, !s.isAddr }

func (s Segment) String() string {
	if s.isAddr {
		return AddressPrefix + s.addr.String()
	}
	return s.str
}

func (s Segment) validate() error {
	if s.isAddr {
		return nil
	}
	switch {
	case s.str == "":
		return fmt.Errorf("%w: empty segment", ErrInvalidKeyFormat)
	case strings.Contains(s.str, Separator):
		return fmt.Errorf("%w: segment %q contains %q", ErrInvalidKeyFormat, s.str, Separator)
	case strings.HasPrefix(s.str, AddressPrefix):
		return fmt.Errorf("%w: literal segment %q starts with %q", ErrInvalidKeyFormat, s.str, AddressPrefix)
	}
	return nil
}

// Compare orders address segments before literals, addresses by their
// bytes and literals lexicographically.
func (s Segment) Compare(o Segment) int {
	switch {
	case s.isAddr && o.isAddr:
		return bytes.Compare(s.addr[:], o.addr[:])
	case s.isAddr:
		return -1
	case o.isAddr:
		return 1
	default:
		return strings.Compare(s.str, o.str)
	}
}

// Key identifies a storage slot. Keys are immutable: every method that
// derives a new key copies the segments.
type Key struct {
	segs []Segment
}

// NewKey returns a key made of [segs]. It is not validated; see Validate.
func NewKey(segs ...Segment) Key {
	return Key{segs: append([]Segment(nil), segs...)}
}

// AddressKey returns the single-segment key for [addr].
func AddressKey(addr ids.ShortID) Key { return NewKey(AddressSegment(addr)) }

// ValidityPredicateKey is the key storing the VP reference of [addr].
func ValidityPredicateKey(addr ids.ShortID) Key {
	return NewKey(AddressSegment(addr), StringSegment(validityPredicateSeg))
}

// Parse parses the text form of a key.
func Parse(text string) (Key, error) {
	if text == "" {
		return Key{}, fmt.Errorf("%w: empty key", ErrInvalidKeyFormat)
	}
	parts := strings.Split(text, Separator)
	segs := make([]Segment, 0, len(parts))
	for _, part := range parts {
		if strings.HasPrefix(part, AddressPrefix) {
			addr, err := ids.ShortFromString(strings.TrimPrefix(part, AddressPrefix))
			if err != nil {
				return Key{}, fmt.Errorf("%w: bad address segment %q: %s", ErrInvalidKeyFormat, part, err)
			}
			segs = append(segs, AddressSegment(addr))
			continue
		}
		seg := StringSegment(part)
		if err := seg.validate(); err != nil {
			return Key{}, err
		}
		segs = append(segs, seg)
	}
	return Key{segs: segs}, nil
}

// MustParse is like Parse but panics on malformed text.
func MustParse(text string) Key {
	k, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return k
}

// Validate returns ErrInvalidKeyFormat if [k] could not have been produced by Parse.
func (k Key) Validate() error {
	if len(k.segs) == 0 {
		return fmt.Errorf("%w: empty key", ErrInvalidKeyFormat)
	}
	for _, seg := range k.segs {
		if err := seg.validate(); err != nil {
			return err
		}
	}
	return nil
}

// Push returns a new key with [segs] appended.
func (k Key) Push(segs ...Segment) Key {
	out := make([]Segment, 0, len(k.segs)+len(segs))
	out = append(out, k.segs...)
	return Key{segs: append(out, segs...)}
}

// Join returns a new key with the segments of [o] appended.
func (k Key) Join(o Key) Key { return k.Push(o.segs...) }

// Len returns the number of segments.
func (k Key) Len() int { return len(k.segs) }

// Segment returns the i-th segment.
func (k Key) Segment(i int) Segment { return k.segs[i] }

// Segments returns a copy of the key's segments.
func (k Key) Segments() []Segment { return append([]Segment(nil), k.segs...) }

// HasPrefix reports whether the leading segments of [k] equal [prefix].
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix.segs) > len(k.segs) {
		return false
	}
	for i, seg := range prefix.segs {
		if seg.Compare(k.segs[i]) != 0 {
			return false
		}
	}
	return true
}

// Addresses returns the distinct addresses embedded in [k], in order of
// first appearance.
func (k Key) Addresses() []ids.ShortID {
	var out []ids.ShortID
	seen := ids.ShortSet{}
	for _, seg := range k.segs {
		if addr, ok := seg.Address(); ok && !seen.Contains(addr) {
			seen.Add(addr)
			out = append(out, addr)
		}
	}
	return out
}

// IsValidityPredicate returns the owning address if [k] is a VP key.
func (k Key) IsValidityPredicate() (ids.ShortID, bool) {
	if len(k.segs) != 2 {
		return ids.ShortEmpty, false
	}
	addr, ok := k.segs[0].Address()
	if !ok {
		return ids.ShortEmpty, false
	}
	lit, ok := k.segs[1].Literal()
	return addr, ok && lit == validityPredicateSeg
}

// Compare is the total order over keys: segment-wise, with a strict prefix
// sorting first.
func (k Key) Compare(o Key) int {
	for i := 0; i < len(k.segs) && i < len(o.segs); i++ {
		if c := k.segs[i].Compare(o.segs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(k.segs) < len(o.segs):
		return -1
	case len(k.segs) > len(o.segs):
		return 1
	default:
		return 0
	}
}

// Equal reports structural equality.
func (k Key) Equal(o Key) bool { return k.Compare(o) == 0 }

func (k Key) String() string {
	parts := make([]string, len(k.segs))
	for i, seg := range k.segs {
		parts[i] = seg.String()
	}
	return strings.Join(parts, Separator)
}

// Bytes returns the database representation of [k].
func (k Key) Bytes() []byte { return []byte(k.String()) }

// Less is a sort helper over Compare.
func Less(a, b Key) bool { return a.Compare(b) < 0 }
