package typeinfer

import (
	"strings"
	"testing"

	"github.com/cottand/typeinfer/ir"
	"github.com/cottand/typeinfer/tierr"
	"github.com/cottand/typeinfer/types"
	"github.com/cottand/typeinfer/typing"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func loadProgram(t *testing.T, src string) []*ir.Function {
	t.Helper()
	fns, err := ir.LoadYAML(strings.NewReader(src))
	require.NoError(t, err)
	return fns
}

func loadFunction(t *testing.T, src string) *ir.Function {
	t.Helper()
	fns := loadProgram(t, src)
	require.Len(t, fns, 1)
	return fns[0]
}

func newTestSession(t *testing.T, src string, opts ...SessionOption) *Session {
	t.Helper()
	s := NewSession(typing.NewBasic(), opts...)
	require.NoError(t, s.Register(loadProgram(t, src)...))
	return s
}

// newTestInferer returns an inferer for fn with its arguments seeded and its constraints built
func newTestInferer(t *testing.T, fn *ir.Function, args ...types.Type) *TypeInferer {
	t.Helper()
	require.Len(t, args, len(fn.ArgNames))
	ti := New(typing.NewBasic(), fn, Options{})
	for i, name := range fn.ArgNames {
		require.NoError(t, ti.SeedArgument(name, i, args[i]))
	}
	require.NoError(t, ti.BuildConstraint())
	return ti
}

func typeOf(t *testing.T, ti *TypeInferer, name string) types.Type {
	t.Helper()
	tv, ok := ti.TypeVars().Lookup(name)
	require.True(t, ok, "no variable %s", name)
	return tv.Type
}

// callTypeOf returns the signature recorded for the only node of type N
func callTypeOf[N ir.Node](t *testing.T, res *Result) *types.Signature {
	t.Helper()
	var found []*types.Signature
	for node, sig := range res.CallTypes {
		if _, ok := node.(N); ok {
			found = append(found, sig)
		}
	}
	require.Len(t, found, 1)
	return found[0]
}

func codeOf(t *testing.T, err error) tierr.ErrCode {
	t.Helper()
	var typingErr tierr.Error
	require.True(t, errors.As(err, &typingErr), "not a typing error: %v", err)
	return typingErr.Code()
}

func lit(v int64) types.Literal { return types.Literal{Value: v, Base: types.Int64} }
