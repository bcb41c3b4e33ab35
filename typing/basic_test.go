package typing

import (
	"testing"

	"github.com/cottand/typeinfer/ir"
	"github.com/cottand/typeinfer/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnifyPairs(t *testing.T) {
	ctx := NewBasic()
	intLit := types.Literal{Value: int64(1), Base: types.Int64}

	testCases := []struct {
		name     string
		a, b     types.Type
		expected types.Type
	}{
		{name: "same type", a: types.Int64, b: types.Int64, expected: types.Int64},
		{name: "undefined yields the other", a: types.Undefined, b: types.Float64, expected: types.Float64},
		{name: "int and float promote", a: types.Int64, b: types.Float64, expected: types.Float64},
		{name: "literals are forgotten", a: intLit, b: types.Literal{Value: int64(2), Base: types.Int64}, expected: types.Int64},
		{name: "bool and int", a: types.Bool, b: types.Int32, expected: types.Int32},
		{name: "none makes an optional", a: types.None, b: types.Float64, expected: types.Optional{Inner: types.Float64}},
		{name: "optional absorbs none", a: types.Optional{Inner: types.Int64}, b: types.None, expected: types.Optional{Inner: types.Int64}},
		{name: "optional widens", a: types.Optional{Inner: types.Int64}, b: types.Float64, expected: types.Optional{Inner: types.Float64}},
		{name: "list of undefined", a: types.List{Elem: types.Undefined}, b: types.List{Elem: types.Int64}, expected: types.List{Elem: types.Int64}},
		{name: "mixed signedness", a: types.Int64, b: types.Uint64, expected: types.Float64},
		{
			name:     "tuples element-wise",
			a:        types.Tuple{Types: []types.Type{types.Int64, types.Float64}},
			b:        types.UniTuple{Elem: types.Float64, Count: 2},
			expected: types.UniTuple{Elem: types.Float64, Count: 2},
		},
		{
			name:     "array layouts",
			a:        types.Array{DType: types.Float64, NDim: 1, Layout: "C"},
			b:        types.Array{DType: types.Undefined, NDim: 1, Layout: "F"},
			expected: types.Array{DType: types.Float64, NDim: 1, Layout: "A"},
		},
		{name: "unicode and int", a: types.Unicode, b: types.Int64, expected: nil},
		{name: "tuples of different length", a: types.UniTuple{Elem: types.Int64, Count: 2}, b: types.UniTuple{Elem: types.Int64, Count: 3}, expected: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ctx.UnifyPairs(tc.a, tc.b))
			assert.Equal(t, tc.expected, ctx.UnifyPairs(tc.b, tc.a), "unify should be symmetric")
		})
	}
}

func TestCanConvert(t *testing.T) {
	ctx := NewBasic()
	assert.True(t, ctx.CanConvert(types.Literal{Value: int64(1), Base: types.Int64}, types.Int64))
	assert.True(t, ctx.CanConvert(types.Float64, types.Int64))
	assert.True(t, ctx.CanConvert(types.None, types.Optional{Inner: types.Int64}))
	assert.True(t, ctx.CanConvert(types.Int64, types.Optional{Inner: types.Float64}))
	assert.True(t, ctx.CanConvert(types.List{Elem: types.Undefined}, types.List{Elem: types.Int64}))
	assert.False(t, ctx.CanConvert(types.Unicode, types.Int64))
	assert.False(t, ctx.CanConvert(types.Array{DType: types.Int64, NDim: 1, Readonly: true}, types.Array{DType: types.Int64, NDim: 1}))
	assert.False(t, ctx.CanConvert(types.UniTuple{Elem: types.Int64, Count: 2}, types.Int64))
}

func TestResolveValueType(t *testing.T) {
	ctx := NewBasic()

	testCases := []struct {
		value    any
		expected types.Type
	}{
		{value: int64(3), expected: types.Int64},
		{value: 2.5, expected: types.Float64},
		{value: "a", expected: types.Unicode},
		{value: nil, expected: types.None},
		{value: []any{int64(1), int64(2)}, expected: types.UniTuple{Elem: types.Int64, Count: 2}},
		{value: []any{int64(1), "a"}, expected: types.Tuple{Types: []types.Type{types.Int64, types.Unicode}}},
		{value: []float64{1, 2}, expected: types.Array{DType: types.Float64, NDim: 1, Layout: "C"}},
		{value: [][]int64{{1}}, expected: types.Array{DType: types.Int64, NDim: 2, Layout: "C"}},
		{value: ir.FuncRef{ID: "f1", Name: "f"}, expected: types.Dispatcher{ID: "f1", Name: "f"}},
		{value: ir.BuiltinRef{Name: "len"}, expected: types.Function{Key: "len"}},
	}
	for _, tc := range testCases {
		t.Run(tc.expected.String(), func(t *testing.T) {
			resolved, err := ctx.ResolveValueType(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, resolved)
		})
	}

	_, err := ctx.ResolveValueType(ir.Unbound{Name: "nope"})
	assert.ErrorContains(t, err, "name 'nope' is not defined")
	_, err = ctx.ResolveValueType(struct{}{})
	assert.Error(t, err)
}

func TestResolveLiteral(t *testing.T) {
	ctx := NewBasic()
	lit, err := ctx.ResolveLiteral(int64(1))
	require.NoError(t, err)
	assert.Equal(t, "Literal[int64](1)", lit.String())

	_, err = ctx.ResolveLiteral(2.0)
	assert.Error(t, err, "floats have no literal type")
}

func TestResolveFunctionType(t *testing.T) {
	ctx := NewBasic()
	intLit := types.Literal{Value: int64(1), Base: types.Int64}
	fn := func(key string) types.Type { return types.Function{Key: key} }

	testCases := []struct {
		name     string
		callee   types.Type
		args     []types.Type
		kws      []types.KeywordArg
		expected *types.Signature
	}{
		{
			name:     "int plus float",
			callee:   fn("+"),
			args:     []types.Type{intLit, types.Float64},
			expected: types.NewSignature(types.Float64, types.Int64, types.Float64),
		},
		{
			name:     "true division of ints",
			callee:   fn("/"),
			args:     []types.Type{types.Int64, types.Int64},
			expected: types.NewSignature(types.Float64, types.Int64, types.Int64),
		},
		{
			name:     "string comparison",
			callee:   fn("<"),
			args:     []types.Type{types.Unicode, types.Unicode},
			expected: types.NewSignature(types.Bool, types.Unicode, types.Unicode),
		},
		{
			name:     "iternext over a range",
			callee:   fn("iternext"),
			args:     []types.Type{types.Iter{Of: types.Range{Elem: types.Int64}, Elem: types.Int64}},
			expected: types.NewSignature(types.Pair{First: types.Int64, Second: types.Bool}, types.Iter{Of: types.Range{Elem: types.Int64}, Elem: types.Int64}),
		},
		{
			name:     "len of a list",
			callee:   fn("len"),
			args:     []types.Type{types.List{Elem: types.Int64}},
			expected: types.NewSignature(types.Int64, types.List{Elem: types.Int64}),
		},
		{
			name:     "empty list",
			callee:   fn("list"),
			expected: types.NewSignature(types.List{Elem: types.Undefined}),
		},
		{
			name:   "append refines the receiver",
			callee: types.BoundFunction{Key: "list.append", This: types.List{Elem: types.Undefined}},
			args:   []types.Type{intLit},
			expected: &types.Signature{
				Return: types.None,
				Args:   []types.Type{types.Int64},
				Recvr:  types.List{Elem: types.Int64},
			},
		},
		{
			name:   "sorted with keywords",
			callee: fn("sorted"),
			args:   []types.Type{types.List{Elem: types.Float64}},
			kws:    []types.KeywordArg{{Name: "reverse", Type: types.Bool}},
			expected: types.NewSignature(
				types.List{Elem: types.Float64},
				types.List{Elem: types.Float64}, types.Bool,
			),
		},
		{
			name:   "setitem on an imprecise array",
			callee: fn("setitem"),
			args:   []types.Type{types.Array{DType: types.Undefined, NDim: 1, Layout: "C"}, types.Int64, types.Float64},
			expected: types.NewSignature(
				types.None,
				types.Array{DType: types.Float64, NDim: 1, Layout: "C"}, types.Int64, types.Float64,
			),
		},
		{name: "unicode plus int", callee: fn("+"), args: []types.Type{types.Unicode, types.Int64}},
		{name: "unknown function", callee: fn("nope"), args: []types.Type{types.Int64}},
		{name: "dispatchers are not typed by templates", callee: types.Dispatcher{ID: "f", Name: "f"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sig, err := ctx.ResolveFunctionType(tc.callee, tc.args, tc.kws)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, sig)
		})
	}
}

func TestResolveAttributes(t *testing.T) {
	ctx := NewBasic()
	list := types.List{Elem: types.Int64}
	arr := types.Array{DType: types.Float64, NDim: 2, Layout: "C"}
	point := types.Record{Name: "Point", Fields: []types.Field{{Name: "x", Type: types.Float64}}}

	assert.Equal(t, types.BoundFunction{Key: "list.append", This: list}, ctx.ResolveGetAttr(list, "append"))
	assert.Equal(t, types.UniTuple{Elem: types.Int64, Count: 2}, ctx.ResolveGetAttr(arr, "shape"))
	assert.Equal(t, types.Float64, ctx.ResolveGetAttr(point, "x"))
	assert.Nil(t, ctx.ResolveGetAttr(list, "nope"))
	assert.Nil(t, ctx.ResolveGetAttr(types.Int64, "real"))

	assert.NotNil(t, ctx.ResolveSetAttr(point, "x", types.Int64))
	assert.Nil(t, ctx.ResolveSetAttr(point, "y", types.Int64))

	assert.Equal(t, types.Unicode, ctx.ResolveStaticGetItem(types.Tuple{Types: []types.Type{types.Int64, types.Unicode}}, int64(-1)).Return)
	assert.Nil(t, ctx.ResolveStaticGetItem(types.Tuple{Types: []types.Type{types.Int64}}, int64(3)))
	assert.NotNil(t, ctx.ResolveStaticSetItem(list, int64(0), types.Int64))
	assert.NotNil(t, ctx.ResolveDelItem(list, types.Int64))
	assert.Nil(t, ctx.ResolveSetItem(types.Array{DType: types.Int64, NDim: 1, Readonly: true}, types.Int64, types.Int64))
}

func TestExplainFunctionType(t *testing.T) {
	ctx := NewBasic()
	explained := ctx.ExplainFunctionType(types.Function{Key: "getitem"})
	assert.Contains(t, explained, "Known signatures:")
	assert.Contains(t, explained, "(list(T), int) -> T")

	assert.Contains(t, ctx.ExplainFunctionType(types.Function{Key: "nope"}), "No implementation")
}
