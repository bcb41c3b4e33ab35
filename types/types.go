// Package types holds the types that type inference needs to recognise structurally.
//
// The full type system (subtyping, unification, overloads) lives behind typing.Context;
// only the shapes inference inspects (tuples, optionals, iterables, arrays, bound functions...)
// are modelled here.
package types

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
)

// Type is any type known to type inference. Two types are the same type when their hashes are equal
type Type interface {
	fmt.Stringer
	Hash() uint64
}

// Equal can be used to compare Type instances for equality, including nil ones
func Equal(this, other Type) bool {
	if this == nil || other == nil {
		return this == nil && other == nil
	}
	return this.Hash() == other.Hash()
}

// EqualSlices is Equal applied element-wise
func EqualSlices(this, other []Type) bool {
	if len(this) != len(other) {
		return false
	}
	for i := range this {
		if !Equal(this[i], other[i]) {
			return false
		}
	}
	return true
}

func hashOf(kind string, parts ...uint64) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(kind))
	var buf [8]byte
	for _, part := range parts {
		binary.LittleEndian.PutUint64(buf[:], part)
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func hashAll(kind string, ts []Type, extra ...uint64) uint64 {
	parts := make([]uint64, 0, len(ts)+len(extra)+1)
	parts = append(parts, uint64(len(ts)))
	for _, t := range ts {
		parts = append(parts, t.Hash())
	}
	return hashOf(kind, append(parts, extra...)...)
}

// preciser is implemented by types that may contain placeholders
type preciser interface {
	Precise() bool
}

// IsPrecise returns false when t is, or contains, a placeholder such as Undefined.
// Imprecise types must be refined before type inference can finish
func IsPrecise(t Type) bool {
	if p, ok := t.(preciser); ok {
		return p.Precise()
	}
	return true
}

func allPrecise(ts []Type) bool {
	for _, t := range ts {
		if !IsPrecise(t) {
			return false
		}
	}
	return true
}

// ----------------------------------------------

type undefinedType struct{}

// Undefined is the placeholder for a type not yet known,
// like the element type of an empty list literal
var Undefined Type = undefinedType{}

func (undefinedType) String() string { return "undefined" }
func (undefinedType) Hash() uint64   { return hashOf("undefined") }
func (undefinedType) Precise() bool  { return false }

// ----------------------------------------------

type Integer struct {
	Bitwidth int
	Signed   bool
}

type Float struct {
	Bitwidth int
}

type Boolean struct{}

type NoneType struct{}

type UnicodeType struct{}

var (
	Int64   = Integer{Bitwidth: 64, Signed: true}
	Int32   = Integer{Bitwidth: 32, Signed: true}
	Uint64  = Integer{Bitwidth: 64}
	Float64 = Float{Bitwidth: 64}
	Float32 = Float{Bitwidth: 32}
	Bool    = Boolean{}
	None    = NoneType{}
	Unicode = UnicodeType{}
)

func (t Integer) String() string {
	if t.Signed {
		return fmt.Sprintf("int%d", t.Bitwidth)
	}
	return fmt.Sprintf("uint%d", t.Bitwidth)
}
func (t Integer) Hash() uint64 { return hashString(t.String()) }

func (t Float) String() string { return fmt.Sprintf("float%d", t.Bitwidth) }
func (t Float) Hash() uint64   { return hashString(t.String()) }

func (Boolean) String() string { return "bool" }
func (Boolean) Hash() uint64   { return hashString("bool") }

func (NoneType) String() string { return "none" }
func (NoneType) Hash() uint64   { return hashString("none") }

func (UnicodeType) String() string { return "unicode_type" }
func (UnicodeType) Hash() uint64   { return hashString("unicode_type") }

// ----------------------------------------------

// Literal is the type of a single compile-time constant Value. Base is the
// type Value has once the constant is forgotten
type Literal struct {
	Value any
	Base  Type
}

func (t Literal) String() string {
	return fmt.Sprintf("Literal[%s](%s)", t.Base, showValue(t.Value))
}
func (t Literal) Hash() uint64 {
	return hashOf("literal", t.Base.Hash(), hashString(fmt.Sprintf("%T:%v", t.Value, t.Value)))
}
func (t Literal) Precise() bool { return IsPrecise(t.Base) }

// Unliteral returns the non-literal version of t
func Unliteral(t Type) Type {
	if lit, ok := t.(Literal); ok {
		return lit.Base
	}
	return t
}

func showValue(v any) string {
	switch v := v.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case nil:
		return "None"
	default:
		return fmt.Sprint(v)
	}
}
