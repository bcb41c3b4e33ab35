package typeinfer

import (
	"testing"

	"github.com/cottand/typeinfer/tierr"
	"github.com/cottand/typeinfer/types"
	"github.com/cottand/typeinfer/typing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeVarOnlyGrows(t *testing.T) {
	ctx := typing.NewBasic()
	tv := newTypeVar(ctx, "x")

	steps := []types.Type{
		lit(1),
		lit(2),
		types.Int32,
		types.Float64,
		types.None,
	}
	var previous types.Type
	for _, step := range steps {
		current, err := tv.AddType(step, tv.DefineLoc)
		require.NoError(t, err)
		if previous != nil {
			assert.True(t, ctx.CanConvert(previous, current), "%s does not convert to %s", previous, current)
			assert.Equal(t, current, ctx.UnifyPairs(previous, current))
		}
		previous = current
	}
	assert.Equal(t, types.Optional{Inner: types.Float64}, tv.Type)

	_, err := tv.AddType(types.List{Elem: types.Int64}, tv.DefineLoc)
	require.Error(t, err)
	assert.Equal(t, tierr.Unify, err.(tierr.Error).Code())
	assert.Equal(t, types.Optional{Inner: types.Float64}, tv.Type, "a failed unification keeps the type")
}

func TestTypeVarLock(t *testing.T) {
	ctx := typing.NewBasic()

	t.Run("locked type does not change", func(t *testing.T) {
		tv := newTypeVar(ctx, "x")
		require.NoError(t, tv.Lock(types.Float64, tv.DefineLoc, NotSet))
		got, err := tv.AddType(types.Int64, tv.DefineLoc)
		require.NoError(t, err)
		assert.Equal(t, types.Float64, got)
		assert.Equal(t, types.Float64, tv.Type)
	})

	t.Run("conversion failure", func(t *testing.T) {
		tv := newTypeVar(ctx, "x")
		require.NoError(t, tv.Lock(types.Int64, tv.DefineLoc, NotSet))
		_, err := tv.AddType(types.Unicode, tv.DefineLoc)
		require.Error(t, err)
		assert.Equal(t, tierr.NoConversion, err.(tierr.Error).Code())
		assert.Equal(t, types.Int64, tv.Type)
	})

	t.Run("cannot lock twice", func(t *testing.T) {
		tv := newTypeVar(ctx, "x")
		require.NoError(t, tv.Lock(types.Int64, tv.DefineLoc, int64(1)))
		err := tv.Lock(types.Int64, tv.DefineLoc, NotSet)
		require.Error(t, err)
		assert.Equal(t, tierr.Internal, err.(tierr.Error).Code())
		assert.Contains(t, err.Error(), "invalid reassignment of a type-variable")
		assert.Equal(t, int64(1), tv.LiteralValue)
	})
}

func TestTypeVarMap(t *testing.T) {
	m := NewTypeVarMap(typing.NewBasic())
	_, ok := m.Lookup("a")
	assert.False(t, ok)
	m.Get("b")
	m.Get("a")
	assert.Equal(t, []string{"a", "b"}, m.Names())
	assert.Error(t, m.Set("a", newTypeVar(typing.NewBasic(), "a")))
	assert.NoError(t, m.Set("c", newTypeVar(typing.NewBasic(), "c")))
	assert.Equal(t, 3, m.Len())
}

const lockedArgument = `
file: locked.py
functions:
  - name: locked
    args: [a]
    line: 1
    blocks:
      - label: 0
        body:
          - {line: 1, assign: {target: a, arg: {index: 0, name: a}}}
          - {line: 2, assign: {target: $s, const: "\"text\""}}
          - {line: 2, assign: {target: arg.a, var: $s}}
          - {line: 3, return: a}
`

func TestLockedArgumentKeepsItsType(t *testing.T) {
	fn := loadFunction(t, lockedArgument)
	ti := newTestInferer(t, fn, types.Int64)

	_, err := ti.Propagate(true)
	require.Error(t, err)
	assert.Equal(t, tierr.NoConversion, codeOf(t, err))
	assert.Equal(t, 2, err.(tierr.Error).Loc().Line)

	tv := ti.TypeVars().Get("arg.a")
	assert.True(t, tv.Locked)
	assert.Equal(t, types.Int64, tv.Type)
}

const idempotent = `
file: loop.py
functions:
  - name: total
    args: [xs]
    line: 1
    blocks:
      - label: 0
        body:
          - {line: 1, assign: {target: xs, arg: {index: 0, name: xs}}}
          - {line: 2, assign: {target: acc, const: "0"}}
          - {line: 3, assign: {target: $it, getiter: xs}}
          - {line: 3, jump: 1}
      - label: 1
        body:
          - {line: 3, assign: {target: $next, iternext: $it}}
          - {line: 3, assign: {target: $valid, pair_second: $next}}
          - {line: 3, branch: {cond: $valid, true: 2, false: 3}}
      - label: 2
        body:
          - {line: 3, assign: {target: x, pair_first: $next}}
          - {line: 4, assign: {target: $sum, inplace_binop: {fn: "+=", immutable_fn: "+", lhs: acc, rhs: x}}}
          - {line: 4, assign: {target: acc, var: $sum}}
          - {line: 4, jump: 1}
      - label: 3
        body:
          - {line: 5, assign: {target: $ret, cast: acc}}
          - {line: 5, return: $ret}
`

func TestPropagationIsIdempotent(t *testing.T) {
	fn := loadFunction(t, idempotent)
	ti := newTestInferer(t, fn, types.List{Elem: types.Float64})

	errs, err := ti.Propagate(true)
	require.NoError(t, err)
	assert.False(t, errs.HasError())

	token := ti.StateToken()
	assert.Empty(t, ti.constraints.Propagate(ti))
	assert.True(t, token.Equal(ti.StateToken()))

	assert.Equal(t, types.Float64, typeOf(t, ti, "x"))
	assert.Equal(t, types.Float64, typeOf(t, ti, "acc"))
	assert.Equal(t, types.Bool, typeOf(t, ti, "$valid"))
}

func TestPropagationAfterUnify(t *testing.T) {
	fn := loadFunction(t, idempotent)
	ti := newTestInferer(t, fn, types.List{Elem: types.Float64})

	_, err := ti.Propagate(true)
	require.NoError(t, err)
	res, err := ti.Unify()
	require.NoError(t, err)

	token := ti.StateToken()
	errs, err := ti.Propagate(true)
	require.NoError(t, err)
	assert.False(t, errs.HasError())
	assert.True(t, token.Equal(ti.StateToken()))

	for node, sig := range ti.callTypes() {
		assert.Equal(t, res.CallTypes[node], sig, "call %s", node)
	}
}

const globalInBranches = `
file: branches.py
functions:
  - name: pick
    args: [b]
    line: 1
    blocks:
      - label: 0
        body:
          - {line: 1, assign: {target: b, arg: {index: 0, name: b}}}
          - {line: 2, branch: {cond: b, true: 1, false: 2}}
      - label: 1
        body:
          - {line: 3, assign: {target: f, global: {name: len}}}
          - {line: 3, jump: 3}
      - label: 2
        body:
          - {line: 5, assign: {target: f, global: {name: len}}}
          - {line: 5, jump: 3}
      - label: 3
        body:
          - {line: 6, return: b}
`

func TestGlobalAssignedTwice(t *testing.T) {
	res, err := newTestSession(t, globalInBranches).Infer("pick", []types.Type{types.Bool})
	require.NoError(t, err)
	assert.Equal(t, "Function(len)", res.Types["f"].String())
	assert.Equal(t, types.Bool, res.Return)
}

func TestInferenceIsDeterministic(t *testing.T) {
	fns := loadProgram(t, idempotent)
	args := []types.Type{types.List{Elem: types.Int64}}

	run := func() *Result {
		s := NewSession(typing.NewBasic())
		require.NoError(t, s.Register(fns...))
		res, err := s.Infer("total", args)
		require.NoError(t, err)
		return res
	}
	first, second := run(), run()
	assert.Equal(t, first.Types, second.Types)
	assert.Equal(t, first.CallTypes, second.CallTypes)
	assert.Equal(t, first.Return, second.Return)
	assert.Len(t, first.CallTypes, 3)
}

const tuples = `
file: tuples.py
functions:
  - name: tuples
    args: [a, b, c, f]
    line: 1
    blocks:
      - label: 0
        body:
          - {line: 1, assign: {target: a, arg: {index: 0, name: a}}}
          - {line: 1, assign: {target: b, arg: {index: 1, name: b}}}
          - {line: 1, assign: {target: c, arg: {index: 2, name: c}}}
          - {line: 1, assign: {target: f, arg: {index: 3, name: f}}}
          - {line: 2, assign: {target: same, build_tuple: [a, b, c]}}
          - {line: 3, assign: {target: mixed, build_tuple: [a, f]}}
          - {line: 4, assign: {target: empty, build_tuple: []}}
          - {line: 5, return: same}
`

func TestBuildTuple(t *testing.T) {
	fn := loadFunction(t, tuples)
	ti := newTestInferer(t, fn, types.Int64, types.Int64, types.Int64, types.Float64)
	_, err := ti.Propagate(true)
	require.NoError(t, err)

	assert.Equal(t, types.UniTuple{Elem: types.Int64, Count: 3}, typeOf(t, ti, "same"))
	assert.Equal(t, types.Tuple{Types: []types.Type{types.Int64, types.Float64}}, typeOf(t, ti, "mixed"))
	assert.Equal(t, types.Tuple{}, typeOf(t, ti, "empty"))
}

func unpackProgram(count string) string {
	return `
file: unpack.py
functions:
  - name: unpack
    args: [t]
    line: 1
    blocks:
      - label: 0
        body:
          - {line: 1, assign: {target: t, arg: {index: 0, name: t}}}
          - {line: 2, assign: {target: $u, exhaust_iter: {value: t, count: ` + count + `}}}
          - {line: 2, assign: {target: first, static_getitem: {value: $u, index: "0"}}}
          - {line: 2, assign: {target: last, static_getitem: {value: $u, index: "-1"}}}
          - {line: 3, return: first}
`
}

func TestExhaustIter(t *testing.T) {
	source := types.Tuple{Types: []types.Type{types.Int64, types.Bool, types.Float64}}

	t.Run("length mismatch", func(t *testing.T) {
		ti := newTestInferer(t, loadFunction(t, unpackProgram("2")), source)
		_, err := ti.Propagate(true)
		require.Error(t, err)
		assert.Equal(t, tierr.UnpackLength, codeOf(t, err))
		assert.Contains(t, err.Error(), "expected 2, got 3")
	})

	t.Run("same length", func(t *testing.T) {
		ti := newTestInferer(t, loadFunction(t, unpackProgram("3")), source)
		_, err := ti.Propagate(true)
		require.NoError(t, err)
		assert.Equal(t, source, typeOf(t, ti, "$u"))
		assert.Equal(t, types.Int64, typeOf(t, ti, "first"))
		assert.Equal(t, types.Float64, typeOf(t, ti, "last"))
	})

	t.Run("iterable", func(t *testing.T) {
		ti := newTestInferer(t, loadFunction(t, unpackProgram("2")), types.List{Elem: types.Unicode})
		_, err := ti.Propagate(true)
		require.NoError(t, err)
		assert.Equal(t, types.UniTuple{Elem: types.Unicode, Count: 2}, typeOf(t, ti, "$u"))
	})

	t.Run("optional tuple", func(t *testing.T) {
		ti := newTestInferer(t, loadFunction(t, unpackProgram("3")), types.Optional{Inner: source})
		_, err := ti.Propagate(true)
		require.NoError(t, err)
		assert.Equal(t, source, typeOf(t, ti, "$u"))
	})

	t.Run("not iterable", func(t *testing.T) {
		ti := newTestInferer(t, loadFunction(t, unpackProgram("2")), types.Int64)
		_, err := ti.Propagate(true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unpack int64")
	})
}

const deferred = `
file: deferred.py
functions:
  - name: deferred
    args: [a]
    line: 1
    blocks:
      - label: 0
        body:
          - {line: 2, assign: {target: $twice, binop: {fn: "*", lhs: $copy, rhs: $copy}}}
          - {line: 3, assign: {target: $copy, var: a}}
          - {line: 1, assign: {target: a, arg: {index: 0, name: a}}}
          - {line: 4, return: $twice}
`

func TestDeferredConstraintsConverge(t *testing.T) {
	fn := loadFunction(t, deferred)
	ti := newTestInferer(t, fn, types.Float32)

	_, err := ti.Propagate(true)
	require.NoError(t, err)

	assert.Equal(t, types.Float32, typeOf(t, ti, "$copy"))
	assert.Equal(t, types.Float32, typeOf(t, ti, "$twice"))

	res, err := ti.Unify()
	require.NoError(t, err)
	assert.Equal(t, types.Float32, res.Return)
	assert.Equal(t, []types.Type{types.Float32}, res.Args)
}
