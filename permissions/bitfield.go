// Package permissions implements named bit-flag capability sets.
package permissions

import (
	"math/bits"
	"sort"

	"github.com/pkg/errors"
)

var (
	ErrUnknownFlag = errors.New("unknown permission flag")
	ErrInvalidFlag = errors.New("permission flag must be a single distinct bit")
)

// Bitfield interprets integers as sets of named flags. The admin flag implies
// every other flag.
type Bitfield struct {
	flags map[string]uint64
	names map[uint64]string
	order []uint64
	admin uint64
	all   uint64
}

// New validates flags and returns a Bitfield. Every value must be a distinct
// power of two and adminFlag must name one of them.
func New(flags map[string]uint64, adminFlag string) (*Bitfield, error) {
	b := &Bitfield{
		flags: make(map[string]uint64, len(flags)),
		names: make(map[uint64]string, len(flags)),
	}
	for name, value := range flags {
		if bits.OnesCount64(value) != 1 {
			return nil, errors.Wrapf(ErrInvalidFlag, "[permissions.New] %s=%d", name, value)
		}
		if other, ok := b.names[value]; ok {
			return nil, errors.Wrapf(ErrInvalidFlag, "[permissions.New] %s and %s share bit %d", name, other, value)
		}
		b.flags[name] = value
		b.names[value] = name
		b.order = append(b.order, value)
		b.all |= value
	}
	admin, ok := b.flags[adminFlag]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownFlag, "[permissions.New] admin flag %q", adminFlag)
	}
	b.admin = admin
	sort.Slice(b.order, func(i, j int) bool { return b.order[i] < b.order[j] })
	return b, nil
}

// MustNew is New for package-level flag sets.
func MustNew(flags map[string]uint64, adminFlag string) *Bitfield {
	b, err := New(flags, adminFlag)
	if err != nil {
		panic(err)
	}
	return b
}

// Admin returns the admin bit.
func (b *Bitfield) Admin() uint64 {
	return b.admin
}

// All returns every known flag OR-ed together.
func (b *Bitfield) All() uint64 {
	return b.all
}

// Flag returns the bit for name.
func (b *Bitfield) Flag(name string) (uint64, bool) {
	value, ok := b.flags[name]
	return value, ok
}

// Has reports whether current holds every requested flag, or the admin flag.
func (b *Bitfield) Has(current uint64, flags ...uint64) bool {
	if current&b.admin != 0 {
		return true
	}
	var want uint64
	for _, f := range flags {
		want |= f
	}
	return current&want == want
}

// Any reports whether current holds at least one requested flag, or the admin flag.
func (b *Bitfield) Any(current uint64, flags ...uint64) bool {
	if current&b.admin != 0 {
		return true
	}
	for _, f := range flags {
		if current&f != 0 {
			return true
		}
	}
	return false
}

// Missing returns the names of requested flags absent from current.
func (b *Bitfield) Missing(current uint64, flags ...uint64) []string {
	if current&b.admin != 0 {
		return nil
	}
	var want uint64
	for _, f := range flags {
		want |= f
	}
	return b.Names(want &^ current)
}

// Names lists the known flags set in value, lowest bit first.
func (b *Bitfield) Names(value uint64) []string {
	var names []string
	for _, bit := range b.order {
		if value&bit != 0 {
			names = append(names, b.names[bit])
		}
	}
	return names
}

// Resolve OR-combines values into one integer. Unknown bits are rejected and a
// set containing the admin flag collapses to the admin flag alone.
func (b *Bitfield) Resolve(values ...uint64) (uint64, error) {
	var out uint64
	for _, v := range values {
		if v&^b.all != 0 {
			return 0, errors.Wrapf(ErrUnknownFlag, "[Bitfield.Resolve] bits %d", v&^b.all)
		}
		out |= v
	}
	if out&b.admin != 0 {
		return b.admin, nil
	}
	return out, nil
}

// ResolveNames is Resolve over flag names.
func (b *Bitfield) ResolveNames(names ...string) (uint64, error) {
	values := make([]uint64, 0, len(names))
	for _, name := range names {
		value, ok := b.flags[name]
		if !ok {
			return 0, errors.Wrapf(ErrUnknownFlag, "[Bitfield.ResolveNames] %q", name)
		}
		values = append(values, value)
	}
	return b.Resolve(values...)
}
