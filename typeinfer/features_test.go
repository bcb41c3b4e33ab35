package typeinfer

import (
	"testing"

	"github.com/cottand/typeinfer/ir"
	"github.com/cottand/typeinfer/tierr"
	"github.com/cottand/typeinfer/types"
	"github.com/cottand/typeinfer/typing"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const neverTyped = `
file: undefined.py
functions:
  - name: undefined
    args: [x]
    line: 1
    blocks:
      - label: 0
        body:
          - {line: 1, assign: {target: x, arg: {index: 0, name: x}}}
          - {line: 3, assign: {target: y, pair_first: x}}
          - {line: 4, return: y}
`

func TestUndefinedVariable(t *testing.T) {
	ti := newTestInferer(t, loadFunction(t, neverTyped), types.Int64)
	_, err := ti.Propagate(true)
	require.NoError(t, err)

	_, err = ti.Unify()
	require.Error(t, err)
	assert.Equal(t, tierr.UndefinedVariable, codeOf(t, err))
	assert.Equal(t, 3, err.(tierr.Error).Loc().Line)
	assert.Contains(t, err.Error(), "Type of variable 'y' cannot be determined")
}

func TestImpreciseList(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		line     int
		contains string
	}{
		{
			name: "user variable",
			src: `
file: imprecise.py
functions:
  - name: imprecise
    line: 1
    blocks:
      - label: 0
        body:
          - {line: 2, assign: {target: lst, build_list: []}}
          - {line: 3, assign: {target: $ret, cast: lst}}
          - {line: 3, return: $ret}
`,
			line:     2,
			contains: "Cannot infer the type of variable 'lst', have imprecise type: list(undefined)",
		},
		{
			name: "temporary copied from another temporary",
			src: `
file: imprecise.py
functions:
  - name: imprecise
    line: 1
    blocks:
      - label: 0
        body:
          - {line: 2, assign: {target: $z, build_list: []}}
          - {line: 5, assign: {target: $a, var: $z}}
          - {line: 5, return: $a}
`,
			line:     2,
			contains: "'$a' (temporary variable)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ti := newTestInferer(t, loadFunction(t, tt.src))
			_, err := ti.Propagate(true)
			require.NoError(t, err)

			_, err = ti.Unify()
			require.Error(t, err)
			var imprecise tierr.ImpreciseType
			require.True(t, errors.As(err, &imprecise))
			assert.Equal(t, tt.line, imprecise.Loc().Line)
			assert.Equal(t, listHint, imprecise.Hint)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

const generator = `
file: gen.py
functions:
  - name: countdown
    args: [n]
    line: 1
    generator: {state_vars: [n]}
    blocks:
      - label: 0
        body:
          - {line: 1, assign: {target: n, arg: {index: 0, name: n}}}
          - {line: 2, assign: {target: $sent, yield: n}}
          - {line: 3, assign: {target: $none, const: "nil"}}
          - {line: 3, return: $none}
`

const notGenerating = `
file: gen.py
functions:
  - name: silent
    line: 1
    generator: {state_vars: []}
    blocks:
      - label: 0
        body:
          - {line: 3, assign: {target: $none, const: "nil"}}
          - {line: 3, return: $none}
`

func TestGenerator(t *testing.T) {
	t.Run("yields", func(t *testing.T) {
		res, err := newTestSession(t, generator).Infer("countdown", []types.Type{types.Int32})
		require.NoError(t, err)
		require.NotNil(t, res.Generator)

		want := types.Generator{Func: "countdown", Yield: types.Int32, Args: []types.Type{types.Int32}, State: []types.Type{types.Int32}}
		assert.Equal(t, want, *res.Generator)
		assert.Equal(t, want, res.Return)
		assert.Equal(t, types.None, res.Types["$sent"])
	})

	t.Run("does not yield", func(t *testing.T) {
		_, err := newTestSession(t, notGenerating).Infer("silent", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Cannot type generator: it does not yield any value")
	})
}

const extended = `
file: ext.py
functions:
  - name: ext
    line: 1
    blocks:
      - label: 0
        body:
          - {line: 2, extension: {kind: counter, vars: [$c]}}
          - {line: 3, return: $c}
`

func TestExtensions(t *testing.T) {
	t.Run("handler builds the constraints", func(t *testing.T) {
		counter := func(inst *ir.Extension, ti *TypeInferer) error {
			return ti.AddType(inst.Vars[0].Name, types.Uint64, inst.At)
		}
		s := newTestSession(t, extended, WithExtensions(map[string]ExtensionFunc{"counter": counter}))
		res, err := s.Infer("ext", nil)
		require.NoError(t, err)
		assert.Equal(t, types.Uint64, res.Return)
	})

	t.Run("unknown kind", func(t *testing.T) {
		ti := New(typing.NewBasic(), loadFunction(t, extended), Options{})
		err := ti.BuildConstraint()
		require.Error(t, err)
		assert.Equal(t, tierr.Unsupported, codeOf(t, err))
		assert.False(t, tierr.IsTyping(err.(tierr.Error)))
		assert.Equal(t, 2, err.(tierr.Error).Loc().Line)
	})
}

const globals = `
file: globals.py
functions:
  - name: globals
    line: 1
    blocks:
      - label: 0
        body:
          - {line: 2, assign: {target: $table, global: {name: TABLE, value: "[]float64{1, 2}"}}}
          - {line: 3, assign: {target: $pair, global: {name: PAIR, value: "[]any{1, 2}"}}}
          - {line: 3, assign: {target: $twins, global: {name: TWINS, value: "[]any{1, 1}"}}}
          - {line: 4, assign: {target: $scale, global: {name: SCALE, value: "3"}}}
          - {line: 5, return: $scale}
`

func TestGlobals(t *testing.T) {
	fn := loadFunction(t, globals)
	ti := newTestInferer(t, fn)

	table := ti.TypeVars().Get("$table")
	assert.True(t, table.Locked)
	assert.Equal(t, types.Array{DType: types.Float64, NDim: 1, Layout: "C", Readonly: true}, table.Type)

	pair := ti.TypeVars().Get("$pair")
	assert.Equal(t, types.Tuple{Types: []types.Type{lit(1), lit(2)}}, pair.Type)
	assert.Equal(t, types.Tuple{Types: []types.Type{lit(1), lit(1)}}, ti.TypeVars().Get("$twins").Type)

	scale := ti.TypeVars().Get("$scale")
	assert.Equal(t, lit(3), scale.Type)
	assert.Equal(t, int64(3), scale.LiteralValue)

	for _, name := range []string{"$table", "$pair", "$scale"} {
		assert.True(t, ti.AssumedImmutable(fn.FindVariableAssignment(name)), name)
	}
}

func TestGlobalErrors(t *testing.T) {
	tests := []struct {
		name   string
		global string
		want   string
	}{
		{name: "modified builtin", global: `{name: len, value: "1"}`, want: "Modified builtin 'len'"},
		{name: "unbound", global: `{name: missing}`, want: "NameError: name 'missing' is not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := `
file: globals.py
functions:
  - name: globals
    line: 1
    blocks:
      - label: 0
        body:
          - {line: 2, assign: {target: $g, global: ` + tt.global + `}}
          - {line: 3, return: $g}
`
			ti := New(typing.NewBasic(), loadFunction(t, src), Options{})
			err := ti.BuildConstraint()
			require.Error(t, err)
			assert.Equal(t, tierr.Typing, codeOf(t, err))
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, 2, err.(tierr.Error).Loc().Line)
		})
	}
}

const starArgsProgram = `
file: star.py
functions:
  - name: star
    args: [x]
    line: 1
    blocks:
      - label: 0
        body:
          - {line: 1, assign: {target: x, arg: {index: 0, name: x}}}
          - {line: 2, assign: {target: $range, global: {name: range}}}
          - {line: 2, assign: {target: $bounds, global: {name: BOUNDS, value: "[]any{1, 10}"}}}
          - {line: 2, assign: {target: r, call: {func: $range, args: [], vararg: $bounds}}}
          - {line: 3, return: r}
  - name: bad
    args: [x]
    line: 5
    blocks:
      - label: 0
        body:
          - {line: 5, assign: {target: x, arg: {index: 0, name: x}}}
          - {line: 6, assign: {target: $range, global: {name: range}}}
          - {line: 6, assign: {target: r, call: {func: $range, args: [], vararg: x}}}
          - {line: 7, return: r}
`

func TestStarArgs(t *testing.T) {
	s := newTestSession(t, starArgsProgram)

	res, err := s.Infer("star", []types.Type{types.Int64})
	require.NoError(t, err)
	assert.Equal(t, types.Range{Elem: types.Int64}, res.Return)
	sig := callTypeOf[*ir.Call](t, res)
	assert.Equal(t, types.NewSignature(types.Range{Elem: types.Int64}, types.Int64, types.Int64), sig)

	_, err = s.Infer("bad", []types.Type{types.Int64})
	require.Error(t, err)
	assert.Equal(t, tierr.StarArgs, codeOf(t, err))
	assert.Contains(t, err.Error(), "*args in function call should be a tuple, got int64")
}

const arrayRefinement = `
file: arrays.py
functions:
  - name: stored
    line: 1
    blocks:
      - label: 0
        body:
          - {line: 2, assign: {target: $empty, global: {name: empty_inferred}}}
          - {line: 2, assign: {target: $three, const: "3"}}
          - {line: 2, assign: {target: arr, call: {func: $empty, args: [$three]}}}
          - {line: 3, assign: {target: $zero, const: "0"}}
          - {line: 3, assign: {target: $val, const: "1.5"}}
          - {line: 3, setitem: {target: arr, index: $zero, value: $val}}
          - {line: 4, assign: {target: $ret, cast: arr}}
          - {line: 4, return: $ret}
  - name: loaded
    line: 6
    blocks:
      - label: 0
        body:
          - {line: 7, assign: {target: $empty, global: {name: empty_inferred}}}
          - {line: 7, assign: {target: $three, const: "3"}}
          - {line: 7, assign: {target: arr, call: {func: $empty, args: [$three]}}}
          - {line: 8, assign: {target: $i, const: "0"}}
          - {line: 8, assign: {target: $x, getitem: {value: arr, index: $i}}}
          - {line: 8, assign: {target: x, var: $x}}
          - {line: 9, assign: {target: $a, const: "1.5"}}
          - {line: 9, assign: {target: $b, const: "2.0"}}
          - {line: 9, assign: {target: x, binop: {fn: "+", lhs: $a, rhs: $b}}}
          - {line: 10, assign: {target: $ret, cast: arr}}
          - {line: 10, return: $ret}
`

func TestArrayDtypeIsRefined(t *testing.T) {
	floats := types.Array{DType: types.Float64, NDim: 1, Layout: "C"}

	for _, name := range []string{"stored", "loaded"} {
		t.Run(name, func(t *testing.T) {
			res, err := newTestSession(t, arrayRefinement).Infer(name, nil)
			require.NoError(t, err)
			assert.Equal(t, floats, res.Types["arr"])
			assert.Equal(t, floats, res.Return)
		})
	}
}

const mutations = `
file: mutations.py
functions:
  - name: mutate
    args: [x]
    line: 1
    blocks:
      - label: 0
        body:
          - {line: 1, assign: {target: x, arg: {index: 0, name: x}}}
          - {line: 2, assign: {target: $s, const: "\"hi\""}}
          - {line: 2, print: {args: [$s, x]}}
          - {line: 3, assign: {target: lst, build_list: [x]}}
          - {line: 4, assign: {target: $zero, const: "0"}}
          - {line: 4, delitem: {target: lst, index: $zero}}
          - {line: 5, static_setitem: {target: lst, index: "0", index_var: $zero, value: x}}
          - {line: 6, return: lst}
  - name: badattr
    args: [x]
    line: 8
    blocks:
      - label: 0
        body:
          - {line: 8, assign: {target: x, arg: {index: 0, name: x}}}
          - {line: 9, setattr: {target: x, attr: field, value: x}}
          - {line: 10, return: x}
`

func TestMutations(t *testing.T) {
	s := newTestSession(t, mutations)
	res, err := s.Infer("mutate", []types.Type{types.Int64})
	require.NoError(t, err)

	list := types.List{Elem: types.Int64}
	assert.Equal(t, list, res.Return)

	printed := callTypeOf[*ir.Print](t, res)
	assert.Equal(t, types.None, printed.Return)
	assert.Len(t, printed.Args, 2)
	assert.Equal(t, types.NewSignature(types.None, list, types.Int64), callTypeOf[*ir.DelItem](t, res))
	assert.Equal(t, types.NewSignature(types.None, list, lit(0), types.Int64), callTypeOf[*ir.StaticSetItem](t, res))

	_, err = s.Infer("badattr", []types.Type{types.Int64})
	require.Error(t, err)
	assert.Equal(t, tierr.InvalidCall, codeOf(t, err))
	assert.Contains(t, err.Error(), "Cannot resolve setattr: (int64).field = int64")
	assert.Equal(t, 9, err.(tierr.Error).Loc().Line)
}
