package types

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cottand/typeinfer/util"
)

// Function is a callable resolved by the type context through templates registered under Key.
// Operators and intrinsics ("+", "getiter", "getitem"...) are Functions too
type Function struct {
	Key string
}

func (t Function) String() string { return fmt.Sprintf("Function(%s)", t.Key) }
func (t Function) Hash() uint64   { return hashOf("function", hashString(t.Key)) }

// BoundFunction is a method Key bound to a receiver of type This
type BoundFunction struct {
	Key  string
	This Type
}

func (t BoundFunction) String() string { return fmt.Sprintf("BoundFunction(%s for %s)", t.Key, t.This) }
func (t BoundFunction) Hash() uint64 {
	return hashOf("bound_function", hashString(t.Key), t.This.Hash())
}

func (t BoundFunction) WithThis(this Type) BoundFunction {
	t.This = this
	return t
}

// Dispatcher is a reference to another function of the program, compiled on demand
type Dispatcher struct {
	ID   string
	Name string
}

func (t Dispatcher) String() string { return fmt.Sprintf("type(Dispatcher(%s))", t.Name) }
func (t Dispatcher) Hash() uint64   { return hashOf("dispatcher", hashString(t.ID)) }

// RecursiveCall is a Dispatcher referenced while it is itself being compiled
type RecursiveCall struct {
	Dispatcher Dispatcher
}

func (t RecursiveCall) String() string { return fmt.Sprintf("RecursiveCall(%s)", t.Dispatcher.Name) }
func (t RecursiveCall) Hash() uint64   { return hashOf("recursive_call", t.Dispatcher.Hash()) }

// Omitted wraps the default Value of an argument the caller did not pass
type Omitted struct {
	Value any
}

func (t Omitted) String() string { return fmt.Sprintf("omitted(default=%s)", showValue(t.Value)) }
func (t Omitted) Hash() uint64 {
	return hashOf("omitted", hashString(fmt.Sprintf("%T:%v", t.Value, t.Value)))
}

// MakeFunctionLiteral is the type of a closure created inside the function being inferred
type MakeFunctionLiteral struct {
	Name string
}

func (t MakeFunctionLiteral) String() string { return fmt.Sprintf("MakeFunctionLiteral(%s)", t.Name) }
func (t MakeFunctionLiteral) Hash() uint64   { return hashOf("make_function", hashString(t.Name)) }

// TypeRef is a reference to a type used as a value, like a class being called to construct an instance
type TypeRef struct {
	Instance Type
}

func (t TypeRef) String() string { return fmt.Sprintf("typeref[%s]", t.Instance) }
func (t TypeRef) Hash() uint64   { return hashOf("typeref", t.Instance.Hash()) }

// Generator is the type of the generator object returned by a function that yields
type Generator struct {
	Func  string
	Yield Type
	Args  []Type
	State []Type
}

func (t Generator) String() string {
	return fmt.Sprintf("Generator(func=%s, args=(%s), yields=%s)", t.Func, util.JoinString(t.Args, ", "), t.Yield)
}
func (t Generator) Hash() uint64 {
	return hashOf("generator", hashString(t.Func), t.Yield.Hash(), hashAll("args", t.Args), hashAll("state", t.State))
}

// ----------------------------------------------

// KeywordArg is the type of an argument passed by name
type KeywordArg struct {
	Name string
	Type Type
}

func (k KeywordArg) String() string { return k.Name + "=" + k.Type.String() }

// SortedKeywords returns kws ordered by name
func SortedKeywords(kws []KeywordArg) []KeywordArg {
	sorted := slices.Clone(kws)
	slices.SortFunc(sorted, func(a, b KeywordArg) int { return strings.Compare(a.Name, b.Name) })
	return sorted
}

// Signature is the resolved type of a call: the types of its arguments, its return type,
// and, for methods, the type of the receiver as refined by the call
type Signature struct {
	Return Type
	Args   []Type
	// Recvr may be nil
	Recvr Type
}

func NewSignature(ret Type, args ...Type) *Signature {
	return &Signature{Return: ret, Args: args}
}

func (s *Signature) String() string {
	str := fmt.Sprintf("(%s) -> %s", util.JoinString(s.Args, ", "), s.Return)
	if s.Recvr != nil {
		str = fmt.Sprintf("%s.%s", s.Recvr, str)
	}
	return str
}

// WithReturn returns a copy of s returning ret instead
func (s *Signature) WithReturn(ret Type) *Signature {
	copied := *s
	copied.Return = ret
	return &copied
}

func (s *Signature) Equal(other *Signature) bool {
	if s == nil || other == nil {
		return s == other
	}
	return Equal(s.Return, other.Return) && EqualSlices(s.Args, other.Args) && Equal(s.Recvr, other.Recvr)
}
