package types

import (
	"fmt"
	"strings"

	"github.com/cottand/typeinfer/util"
)

// BaseTuple is implemented by aggregates with a fixed number of elements
type BaseTuple interface {
	Type
	Len() int
	Elems() []Type
}

// IterableType is implemented by types that can be iterated over
type IterableType interface {
	Type
	Iterator() IteratorType
}

// IteratorType is the type of the iterator over an IterableType
type IteratorType interface {
	Type
	Yield() Type
}

var (
	_ BaseTuple    = UniTuple{}
	_ BaseTuple    = Tuple{}
	_ IterableType = UniTuple{}
	_ IterableType = List{}
	_ IterableType = Set{}
	_ IterableType = Array{}
	_ IterableType = Range{}
)

// UniTuple is a homogeneous tuple of Count elements of type Elem
type UniTuple struct {
	Elem  Type
	Count int
}

func (t UniTuple) String() string { return fmt.Sprintf("UniTuple(%s x %d)", t.Elem, t.Count) }
func (t UniTuple) Hash() uint64   { return hashOf("unituple", t.Elem.Hash(), uint64(t.Count)) }
func (t UniTuple) Precise() bool  { return IsPrecise(t.Elem) }
func (t UniTuple) Len() int       { return t.Count }
func (t UniTuple) Elems() []Type {
	elems := make([]Type, t.Count)
	for i := range elems {
		elems[i] = t.Elem
	}
	return elems
}
func (t UniTuple) Iterator() IteratorType { return Iter{Of: t, Elem: t.Elem} }

// Tuple is a heterogeneous tuple, the type of each slot kept in order
type Tuple struct {
	Types []Type
}

func (t Tuple) String() string {
	return "Tuple(" + util.JoinString(t.Types, ", ") + ")"
}
func (t Tuple) Hash() uint64  { return hashAll("tuple", t.Types) }
func (t Tuple) Precise() bool { return allPrecise(t.Types) }
func (t Tuple) Len() int      { return len(t.Types) }
func (t Tuple) Elems() []Type { return t.Types }

// Optional is either Inner or none
type Optional struct {
	Inner Type
}

func (t Optional) String() string { return fmt.Sprintf("OptionalType(%s)", t.Inner) }
func (t Optional) Hash() uint64   { return hashOf("optional", t.Inner.Hash()) }
func (t Optional) Precise() bool  { return IsPrecise(t.Inner) }

// Pair is produced by iterator-protocol intrinsics, like (value, valid) for iternext
type Pair struct {
	First, Second Type
}

func (t Pair) String() string { return fmt.Sprintf("pair<%s, %s>", t.First, t.Second) }
func (t Pair) Hash() uint64   { return hashOf("pair", t.First.Hash(), t.Second.Hash()) }
func (t Pair) Precise() bool  { return IsPrecise(t.First) && IsPrecise(t.Second) }

// Iter is the iterator over Of, yielding Elem
type Iter struct {
	Of   Type
	Elem Type
}

func (t Iter) String() string { return fmt.Sprintf("iter(%s)", t.Of) }
func (t Iter) Hash() uint64   { return hashOf("iter", t.Of.Hash()) }
func (t Iter) Precise() bool  { return IsPrecise(t.Of) }
func (t Iter) Yield() Type    { return t.Elem }

// List is a reflected, growable list of Elem
type List struct {
	Elem Type
}

func (t List) String() string         { return fmt.Sprintf("list(%s)", t.Elem) }
func (t List) Hash() uint64           { return hashOf("list", t.Elem.Hash()) }
func (t List) Precise() bool          { return IsPrecise(t.Elem) }
func (t List) Iterator() IteratorType { return Iter{Of: t, Elem: t.Elem} }

type Set struct {
	Elem Type
}

func (t Set) String() string         { return fmt.Sprintf("set(%s)", t.Elem) }
func (t Set) Hash() uint64           { return hashOf("set", t.Elem.Hash()) }
func (t Set) Precise() bool          { return IsPrecise(t.Elem) }
func (t Set) Iterator() IteratorType { return Iter{Of: t, Elem: t.Elem} }

// Range is the type of range(...) over integers of type Elem
type Range struct {
	Elem Type
}

func (t Range) String() string         { return fmt.Sprintf("range_state_%s", t.Elem) }
func (t Range) Hash() uint64           { return hashOf("range", t.Elem.Hash()) }
func (t Range) Iterator() IteratorType { return Iter{Of: t, Elem: t.Elem} }

// Array is an n-dimensional array of DType. The DType may be Undefined while
// inference has not yet seen what the array stores
type Array struct {
	DType    Type
	NDim     int
	Layout   string
	Readonly bool
}

func (t Array) String() string {
	layout := t.Layout
	if layout == "" {
		layout = "A"
	}
	sb := strings.Builder{}
	if t.Readonly {
		sb.WriteString("readonly ")
	}
	_, _ = fmt.Fprintf(&sb, "array(%s, %dd, %s)", t.DType, t.NDim, layout)
	return sb.String()
}
func (t Array) Hash() uint64 {
	readonly := uint64(0)
	if t.Readonly {
		readonly = 1
	}
	return hashOf("array", t.DType.Hash(), uint64(t.NDim), hashString(t.Layout), readonly)
}
func (t Array) Precise() bool { return IsPrecise(t.DType) }

// Iterator over a 1d array yields its DType, while over an nd array yields (n-1)d arrays
func (t Array) Iterator() IteratorType {
	if t.NDim <= 1 {
		return Iter{Of: t, Elem: t.DType}
	}
	return Iter{Of: t, Elem: t.WithNDim(t.NDim - 1)}
}

func (t Array) WithDType(dtype Type) Array {
	t.DType = dtype
	return t
}

func (t Array) WithNDim(ndim int) Array {
	t.NDim = ndim
	return t
}

func (t Array) WithReadonly() Array {
	t.Readonly = true
	return t
}

// IsImpreciseArray returns true for arrays whose DType is not yet known
func IsImpreciseArray(t Type) bool {
	arr, ok := t.(Array)
	return ok && !arr.Precise()
}

// Slice is the type of slice(start, stop[, step]) objects. Args is how many were given
type Slice struct {
	Args int
}

func (t Slice) String() string { return fmt.Sprintf("slice%d_type", t.Args) }
func (t Slice) Hash() uint64   { return hashOf("slice", uint64(t.Args)) }

// Field is a named member of a Record
type Field struct {
	Name string
	Type Type
}

// Record is a mutable aggregate of named fields
type Record struct {
	Name   string
	Fields []Field
}

func (t Record) String() string {
	fields := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		fields[i] = f.Name + ": " + f.Type.String()
	}
	return fmt.Sprintf("Record(%s, %s)", t.Name, strings.Join(fields, ", "))
}
func (t Record) Hash() uint64 {
	parts := []uint64{hashString(t.Name)}
	for _, f := range t.Fields {
		parts = append(parts, hashString(f.Name), f.Type.Hash())
	}
	return hashOf("record", parts...)
}
func (t Record) Precise() bool {
	for _, f := range t.Fields {
		if !IsPrecise(f.Type) {
			return false
		}
	}
	return true
}

// Field returns the type of the field called name, or nil
func (t Record) Field(name string) Type {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Type
		}
	}
	return nil
}

// MakeTuple returns a UniTuple when every type of ts is the same, and a Tuple otherwise.
// The empty tuple is a Tuple
func MakeTuple(ts []Type) BaseTuple {
	if len(ts) == 0 {
		return Tuple{}
	}
	for _, t := range ts[1:] {
		if !Equal(t, ts[0]) {
			return Tuple{Types: ts}
		}
	}
	return UniTuple{Elem: ts[0], Count: len(ts)}
}
