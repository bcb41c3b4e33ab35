package typing

import (
	"testing"

	"github.com/cottand/typeinfer/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	testCases := []struct {
		src      string
		expected types.Type
	}{
		{src: "int64", expected: types.Int64},
		{src: " float64 ", expected: types.Float64},
		{src: "list(int64)", expected: types.List{Elem: types.Int64}},
		{src: "set(unicode)", expected: types.Set{Elem: types.Unicode}},
		{src: "optional(list(bool))", expected: types.Optional{Inner: types.List{Elem: types.Bool}}},
		{src: "array(float64, 2d, C)", expected: types.Array{DType: types.Float64, NDim: 2, Layout: "C"}},
		{src: "array(int64, 1d)", expected: types.Array{DType: types.Int64, NDim: 1, Layout: "A"}},
		{src: "readonly array(int64, 1d, C)", expected: types.Array{DType: types.Int64, NDim: 1, Layout: "C", Readonly: true}},
		{src: "UniTuple(int64 x 3)", expected: types.UniTuple{Elem: types.Int64, Count: 3}},
		{src: "Tuple(int64, float64)", expected: types.Tuple{Types: []types.Type{types.Int64, types.Float64}}},
		{src: "Tuple(int64, int64)", expected: types.UniTuple{Elem: types.Int64, Count: 2}},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			parsed, err := ParseType(tc.src)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, parsed)
		})
	}
}

func TestParseTypeErrors(t *testing.T) {
	for _, src := range []string{"", "int65", "list(int64", "readonly int64", "array(int64, xd)", "int64 int64"} {
		t.Run(src, func(t *testing.T) {
			_, err := ParseType(src)
			assert.Error(t, err)
		})
	}
}
