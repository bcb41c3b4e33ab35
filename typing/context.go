// Package typing defines the type system type inference consults.
//
// Inference only knows about the structure of a few types (see package types); whether two
// types unify, whether a value converts, and what a call returns are all answered by a Context.
package typing

import (
	"github.com/cottand/typeinfer/types"
)

// Context is the oracle type inference asks about the type lattice and about overloads.
//
// Resolve* methods return a nil type or signature when no overload matches, and only
// return an error when resolution itself failed.
type Context interface {
	// UnifyPairs returns the most specific type both a and b convert to, or nil
	UnifyPairs(a, b types.Type) types.Type
	// CanConvert reports whether a value of type from can be used where to is expected
	CanConvert(from, to types.Type) bool
	// UnifyTypes is UnifyPairs folded over ts
	UnifyTypes(ts ...types.Type) types.Type

	// ResolveValueType returns the type of a constant or global value
	ResolveValueType(value any) (types.Type, error)
	// ResolveLiteral returns a literal type holding value, or an error when value cannot be a literal
	ResolveLiteral(value any) (types.Type, error)

	ResolveGetAttr(t types.Type, attr string) types.Type
	ResolveSetAttr(target types.Type, attr string, value types.Type) *types.Signature
	ResolveSetItem(target, index, value types.Type) *types.Signature
	ResolveStaticSetItem(target types.Type, index any, value types.Type) *types.Signature
	ResolveDelItem(target, index types.Type) *types.Signature
	ResolveStaticGetItem(value types.Type, index any) *types.Signature

	// ResolveFunctionType returns the signature of calling callee with args and kws
	ResolveFunctionType(callee types.Type, args []types.Type, kws []types.KeywordArg) (*types.Signature, error)
	// ExplainFunctionType describes the overloads of callee, for diagnostics
	ExplainFunctionType(callee types.Type) string
}
