package typing

import (
	"github.com/cottand/typeinfer/types"
)

// methodPrefix is the prefix of the template keys of the methods of t
func methodPrefix(t types.Type) string {
	switch t.(type) {
	case types.List:
		return "list"
	case types.Set:
		return "set"
	case types.UnicodeType:
		return "str"
	case types.Array:
		return "array"
	}
	return ""
}

func (b *Basic) ResolveGetAttr(t types.Type, attr string) types.Type {
	t = types.Unliteral(t)
	if prefix := methodPrefix(t); prefix != "" {
		key := prefix + "." + attr
		if _, ok := b.templates[key]; ok {
			return types.BoundFunction{Key: key, This: t}
		}
	}
	switch t := t.(type) {
	case types.Array:
		switch attr {
		case "shape":
			return types.UniTuple{Elem: types.Int64, Count: t.NDim}
		case "ndim", "size":
			return types.Int64
		case "T":
			if t.NDim <= 1 {
				return t
			}
			transposed := t
			transposed.Layout = "A"
			return transposed
		}
	case types.Record:
		return t.Field(attr)
	}
	return nil
}

func (b *Basic) ResolveSetAttr(target types.Type, attr string, value types.Type) *types.Signature {
	record, ok := target.(types.Record)
	if !ok {
		return nil
	}
	field := record.Field(attr)
	if field == nil || !b.CanConvert(value, field) {
		return nil
	}
	return types.NewSignature(types.None, record, value)
}

func (b *Basic) ResolveSetItem(target, index, value types.Type) *types.Signature {
	sig, _ := b.ResolveFunctionType(types.Function{Key: "setitem"}, []types.Type{target, index, value}, nil)
	return sig
}

// ResolveStaticSetItem accepts integer indices into lists, typed like a dynamic setitem
func (b *Basic) ResolveStaticSetItem(target types.Type, index any, value types.Type) *types.Signature {
	list, ok := target.(types.List)
	if !ok {
		return nil
	}
	if _, isInt := index.(int64); !isInt {
		return nil
	}
	if !b.CanConvert(value, list.Elem) {
		return nil
	}
	return types.NewSignature(types.None, list, types.Literal{Value: index, Base: types.Int64}, value)
}

func (b *Basic) ResolveDelItem(target, index types.Type) *types.Signature {
	sig, _ := b.ResolveFunctionType(types.Function{Key: "delitem"}, []types.Type{target, index}, nil)
	return sig
}

// ResolveStaticGetItem types indexing tuples by a constant integer (negative indices count
// from the end) and records by a constant field name
func (b *Basic) ResolveStaticGetItem(value types.Type, index any) *types.Signature {
	switch value := value.(type) {
	case types.BaseTuple:
		i, ok := index.(int64)
		if !ok {
			return nil
		}
		if i < 0 {
			i += int64(value.Len())
		}
		if i < 0 || i >= int64(value.Len()) {
			return nil
		}
		return types.NewSignature(value.Elems()[i], value, types.Literal{Value: index, Base: types.Int64})
	case types.Record:
		name, ok := index.(string)
		if !ok {
			return nil
		}
		if field := value.Field(name); field != nil {
			return types.NewSignature(field, value, types.Literal{Value: name, Base: types.Unicode})
		}
	}
	return nil
}
