package typing

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/cottand/typeinfer/internal/log"
	"github.com/cottand/typeinfer/ir"
	"github.com/cottand/typeinfer/types"
	"github.com/pkg/errors"
)

var _ Context = (*Basic)(nil)

// Basic is a small Context with numeric promotion, optionals, containers and arrays.
// It resolves calls to operators, iterators, len, range, print and a few container methods
// through templates registered by key, see Basic.Register
type Basic struct {
	templates map[string][]Template
	logger    *slog.Logger
}

// NewBasic returns a Basic context with the builtin templates registered
func NewBasic() *Basic {
	b := &Basic{
		templates: make(map[string][]Template),
		logger:    log.DefaultLogger.With("section", "typing"),
	}
	registerBuiltins(b)
	return b
}

// Register adds templates to the overloads of the function or method called key.
// Templates are tried in registration order
func (b *Basic) Register(key string, templates ...Template) {
	b.templates[key] = append(b.templates[key], templates...)
}

func (b *Basic) UnifyPairs(first, second types.Type) types.Type {
	if types.Equal(first, second) {
		return first
	}
	if types.Equal(first, types.Undefined) {
		return second
	}
	if types.Equal(second, types.Undefined) {
		return first
	}
	_, firstLit := first.(types.Literal)
	_, secondLit := second.(types.Literal)
	if firstLit || secondLit {
		return b.UnifyPairs(types.Unliteral(first), types.Unliteral(second))
	}
	if unified := b.unifyStructural(first, second); unified != nil {
		return unified
	}
	if unified := b.unifyStructural(second, first); unified != nil {
		return unified
	}
	if isNumeric(first) && isNumeric(second) {
		return promote(first, second)
	}
	return nil
}

// unifyStructural tries to unify types sharing a shape. It is not symmetric, and
// is attempted with both orders
func (b *Basic) unifyStructural(first, second types.Type) types.Type {
	switch first := first.(type) {
	case types.NoneType:
		switch second := second.(type) {
		case types.Optional:
			return second
		default:
			return types.Optional{Inner: second}
		}
	case types.Optional:
		if _, isNone := second.(types.NoneType); isNone {
			return first
		}
		inner := second
		if opt, ok := second.(types.Optional); ok {
			inner = opt.Inner
		}
		unified := b.UnifyPairs(first.Inner, inner)
		if unified == nil {
			return nil
		}
		return types.Optional{Inner: unified}
	case types.List:
		if second, ok := second.(types.List); ok {
			if elem := b.UnifyPairs(first.Elem, second.Elem); elem != nil {
				return types.List{Elem: elem}
			}
		}
	case types.Set:
		if second, ok := second.(types.Set); ok {
			if elem := b.UnifyPairs(first.Elem, second.Elem); elem != nil {
				return types.Set{Elem: elem}
			}
		}
	case types.Array:
		second, ok := second.(types.Array)
		if !ok || first.NDim != second.NDim {
			return nil
		}
		dtype := b.UnifyPairs(first.DType, second.DType)
		if dtype == nil || !types.Equal(types.Unliteral(dtype), dtype) {
			return nil
		}
		unified := first.WithDType(dtype)
		if first.Layout != second.Layout {
			unified.Layout = "A"
		}
		unified.Readonly = first.Readonly || second.Readonly
		return unified
	case types.BaseTuple:
		second, ok := second.(types.BaseTuple)
		if !ok || first.Len() != second.Len() {
			return nil
		}
		firstElems, secondElems := first.Elems(), second.Elems()
		unified := make([]types.Type, len(firstElems))
		for i := range firstElems {
			unified[i] = b.UnifyPairs(firstElems[i], secondElems[i])
			if unified[i] == nil {
				return nil
			}
		}
		return types.MakeTuple(unified)
	case types.BoundFunction:
		second, ok := second.(types.BoundFunction)
		if !ok || first.Key != second.Key {
			return nil
		}
		if this := b.UnifyPairs(first.This, second.This); this != nil {
			return first.WithThis(this)
		}
	}
	return nil
}

func (b *Basic) CanConvert(from, to types.Type) bool {
	if types.Equal(from, to) || types.Equal(from, types.Undefined) {
		return true
	}
	from = types.Unliteral(from)
	if types.Equal(from, to) {
		return true
	}
	switch to := to.(type) {
	case types.Optional:
		if _, isNone := from.(types.NoneType); isNone {
			return true
		}
		if opt, ok := from.(types.Optional); ok {
			return b.CanConvert(opt.Inner, to.Inner)
		}
		return b.CanConvert(from, to.Inner)
	case types.List:
		if from, ok := from.(types.List); ok {
			return b.CanConvert(from.Elem, to.Elem)
		}
	case types.Set:
		if from, ok := from.(types.Set); ok {
			return b.CanConvert(from.Elem, to.Elem)
		}
	case types.Array:
		from, ok := from.(types.Array)
		if !ok || from.NDim != to.NDim || (from.Readonly && !to.Readonly) {
			return false
		}
		if from.Layout != to.Layout && to.Layout != "A" {
			return false
		}
		return types.Equal(from.DType, to.DType) || types.Equal(from.DType, types.Undefined)
	case types.BaseTuple:
		from, ok := from.(types.BaseTuple)
		if !ok || from.Len() != to.Len() {
			return false
		}
		toElems := to.Elems()
		for i, elem := range from.Elems() {
			if !b.CanConvert(elem, toElems[i]) {
				return false
			}
		}
		return true
	}
	return isNumeric(from) && isNumeric(to)
}

func (b *Basic) UnifyTypes(ts ...types.Type) types.Type {
	if len(ts) == 0 {
		return nil
	}
	unified := ts[0]
	for _, t := range ts[1:] {
		unified = b.UnifyPairs(unified, t)
		if unified == nil {
			return nil
		}
	}
	return unified
}

func (b *Basic) ResolveValueType(value any) (types.Type, error) {
	switch value := value.(type) {
	case nil:
		return types.None, nil
	case bool:
		return types.Bool, nil
	case int, int64:
		return types.Int64, nil
	case int32:
		return types.Int32, nil
	case uint64:
		return types.Uint64, nil
	case float64:
		return types.Float64, nil
	case float32:
		return types.Float32, nil
	case string:
		return types.Unicode, nil
	case []any:
		elems := make([]types.Type, len(value))
		for i, elem := range value {
			t, err := b.ResolveValueType(elem)
			if err != nil {
				return nil, err
			}
			elems[i] = t
		}
		return types.MakeTuple(elems), nil
	case ir.FuncRef:
		return types.Dispatcher{ID: value.ID, Name: value.Name}, nil
	case ir.BuiltinRef:
		return types.Function{Key: value.Name}, nil
	case ir.Unbound:
		return nil, errors.Errorf("name '%s' is not defined", value.Name)
	case types.Type:
		return types.TypeRef{Instance: value}, nil
	}
	return b.resolveArray(reflect.ValueOf(value))
}

// resolveArray types Go slices of numbers (like []float64 or [][]int64) as C-contiguous arrays
func (b *Basic) resolveArray(v reflect.Value) (types.Type, error) {
	ndim := 0
	elem := v.Type()
	for elem.Kind() == reflect.Slice {
		ndim++
		elem = elem.Elem()
	}
	if ndim == 0 {
		return nil, errors.Errorf("cannot determine the type of %v (%T)", v.Interface(), v.Interface())
	}
	dtype, err := b.ResolveValueType(reflect.Zero(elem).Interface())
	if err != nil || !isNumeric(dtype) {
		return nil, errors.Errorf("unsupported array element type %s", elem)
	}
	return types.Array{DType: dtype, NDim: ndim, Layout: "C"}, nil
}

func (b *Basic) ResolveLiteral(value any) (types.Type, error) {
	switch value := value.(type) {
	case int:
		return types.Literal{Value: int64(value), Base: types.Int64}, nil
	case int64:
		return types.Literal{Value: value, Base: types.Int64}, nil
	case bool:
		return types.Literal{Value: value, Base: types.Bool}, nil
	case string:
		return types.Literal{Value: value, Base: types.Unicode}, nil
	}
	return nil, fmt.Errorf("%v (%T) cannot be used as a literal", value, value)
}

// ----------------------------------------------

func isNumeric(t types.Type) bool {
	switch t.(type) {
	case types.Integer, types.Float, types.Boolean:
		return true
	}
	return false
}

func isInteger(t types.Type) bool {
	switch types.Unliteral(t).(type) {
	case types.Integer, types.Boolean:
		return true
	}
	return false
}

// promote returns the smallest numeric type both a and b fit in
func promote(a, b types.Type) types.Type {
	switch a := a.(type) {
	case types.Boolean:
		return b
	case types.Float:
		if b, ok := b.(types.Float); ok {
			return types.Float{Bitwidth: max(a.Bitwidth, b.Bitwidth)}
		}
		return a
	case types.Integer:
		switch b := b.(type) {
		case types.Float:
			return b
		case types.Boolean:
			return a
		case types.Integer:
			if a.Signed == b.Signed {
				return types.Integer{Bitwidth: max(a.Bitwidth, b.Bitwidth), Signed: a.Signed}
			}
			if max(a.Bitwidth, b.Bitwidth) >= 64 {
				return types.Float64
			}
			return types.Int64
		}
	}
	return nil
}
