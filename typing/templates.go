package typing

import (
	"fmt"
	"strings"

	"github.com/cottand/typeinfer/types"
)

// Call is what a Template is asked to type
type Call struct {
	// This is the receiver of a method call, nil for plain functions
	This types.Type
	Args []types.Type
	Kws  []types.KeywordArg
}

func (c Call) positional(n int) bool {
	return len(c.Kws) == 0 && len(c.Args) == n
}

// Template types calls to a function or method. Typer returns nil when the template
// does not apply to the call
type Template struct {
	// Doc describes the template in diagnostics, like "(int, int) -> int"
	Doc   string
	Typer func(b *Basic, call Call) *types.Signature
}

func (b *Basic) ResolveFunctionType(callee types.Type, args []types.Type, kws []types.KeywordArg) (*types.Signature, error) {
	key, this, ok := templateKey(callee)
	if !ok {
		return nil, nil
	}
	call := Call{This: this, Args: args, Kws: kws}
	for _, template := range b.templates[key] {
		if sig := template.Typer(b, call); sig != nil {
			b.logger.Debug("resolved call", "key", key, "sig", sig.String(), "template", template.Doc)
			return sig, nil
		}
	}
	return nil, nil
}

func (b *Basic) ExplainFunctionType(callee types.Type) string {
	key, _, ok := templateKey(callee)
	if !ok || len(b.templates[key]) == 0 {
		return fmt.Sprintf("No implementation of %s is known", callee)
	}
	sb := strings.Builder{}
	sb.WriteString("Known signatures:")
	for _, template := range b.templates[key] {
		sb.WriteString("\n * ")
		sb.WriteString(template.Doc)
	}
	return sb.String()
}

func templateKey(callee types.Type) (key string, this types.Type, ok bool) {
	switch callee := callee.(type) {
	case types.Function:
		return callee.Key, nil, true
	case types.BoundFunction:
		return callee.Key, callee.This, true
	}
	return "", nil, false
}

// ----------------------------------------------

func registerBuiltins(b *Basic) {
	arithmetic := Template{Doc: "(number, number) -> number", Typer: numericBinary(nil)}
	concat := Template{Doc: "(unicode, unicode) -> unicode", Typer: typeConcat}
	for _, op := range []string{"+", "-", "*"} {
		b.Register(op, arithmetic)
		b.Register(op+"=", arithmetic)
	}
	b.Register("+", concat)
	b.Register("+=", concat)

	trueDiv := Template{Doc: "(number, number) -> float", Typer: numericBinary(types.Float64)}
	b.Register("/", trueDiv)
	b.Register("/=", trueDiv)
	for _, op := range []string{"//", "%"} {
		b.Register(op, arithmetic)
		b.Register(op+"=", arithmetic)
	}
	bitwise := Template{Doc: "(int, int) -> int", Typer: integerBinary}
	for _, op := range []string{"&", "|", "^", "<<", ">>"} {
		b.Register(op, bitwise)
		b.Register(op+"=", bitwise)
	}

	ordering := Template{Doc: "(number, number) -> bool", Typer: comparison(isNumeric)}
	stringOrdering := Template{Doc: "(unicode, unicode) -> bool", Typer: comparison(isUnicode)}
	for _, op := range []string{"<", "<=", ">", ">="} {
		b.Register(op, ordering, stringOrdering)
	}
	equality := Template{Doc: "(T, T) -> bool", Typer: typeEquality}
	for _, op := range []string{"==", "!="} {
		b.Register(op, ordering, equality)
	}

	b.Register("neg", Template{Doc: "(number) -> number", Typer: numericUnary})
	b.Register("pos", Template{Doc: "(number) -> number", Typer: numericUnary})
	b.Register("invert", Template{Doc: "(int) -> int", Typer: func(b *Basic, call Call) *types.Signature {
		if !call.positional(1) || !isInteger(call.Args[0]) {
			return nil
		}
		return numericUnary(b, call)
	}})
	b.Register("not", Template{Doc: "(T) -> bool", Typer: func(b *Basic, call Call) *types.Signature {
		if !call.positional(1) {
			return nil
		}
		return types.NewSignature(types.Bool, call.Args...)
	}})

	b.Register("getiter", Template{Doc: "(iterable(T)) -> iter(T)", Typer: typeGetIter})
	b.Register("iternext", Template{Doc: "(iter(T)) -> pair<T, bool>", Typer: typeIterNext})
	b.Register("getitem",
		Template{Doc: "(list(T), int) -> T", Typer: typeListGetItem},
		Template{Doc: "(array(T, nd), int) -> T or array(T, nd-1)", Typer: typeArrayGetItem},
		Template{Doc: "(UniTuple(T x n), int) -> T", Typer: typeUniTupleGetItem},
		Template{Doc: "(unicode, int) -> unicode", Typer: typeUnicodeGetItem},
	)
	b.Register("setitem",
		Template{Doc: "(list(T), int, T) -> none", Typer: typeListSetItem},
		Template{Doc: "(array(T, nd), int, T) -> none", Typer: typeArraySetItem},
	)
	b.Register("delitem", Template{Doc: "(list(T), int) -> none", Typer: typeListDelItem})

	b.Register("len", Template{Doc: "(sized) -> int64", Typer: typeLen})
	b.Register("range", Template{Doc: "(int[, int[, int]]) -> range_state_int64", Typer: typeRange})
	b.Register("slice", Template{Doc: "(int|none[, int|none[, int|none]]) -> slice", Typer: typeSlice})
	b.Register("print", Template{Doc: "(*args) -> none", Typer: typePrint})
	b.Register("list", Template{Doc: "([iterable(T)]) -> list(T)", Typer: containerOf(func(t types.Type) types.Type { return types.List{Elem: t} })})
	b.Register("set", Template{Doc: "([iterable(T)]) -> set(T)", Typer: containerOf(func(t types.Type) types.Type { return types.Set{Elem: t} })})
	b.Register("sorted", Template{Doc: "(iterable(T), reverse=bool) -> list(T)", Typer: typeSorted})

	b.Register("empty_inferred", Template{Doc: "(int | UniTuple(int x N)) -> array(undefined, Nd, C)", Typer: typeEmptyInferred})

	b.Register("list.append", Template{Doc: "list(T).append(T) -> none", Typer: typeGrow})
	b.Register("list.pop", Template{Doc: "list(T).pop([int]) -> T", Typer: typeListPop})
	b.Register("set.add", Template{Doc: "set(T).add(T) -> none", Typer: typeGrow})
	b.Register("str.upper", Template{Doc: "unicode.upper() -> unicode", Typer: func(b *Basic, call Call) *types.Signature {
		if !call.positional(0) {
			return nil
		}
		return &types.Signature{Return: types.Unicode, Recvr: call.This}
	}})
}

func isUnicode(t types.Type) bool {
	_, ok := types.Unliteral(t).(types.UnicodeType)
	return ok
}

func unliteralAll(ts []types.Type) []types.Type {
	unlit := make([]types.Type, len(ts))
	for i, t := range ts {
		unlit[i] = types.Unliteral(t)
	}
	return unlit
}

// numericBinary types arithmetic between numbers. A nil result promotes the arguments,
// while a non-nil one is promoted with the arguments
func numericBinary(result types.Type) func(b *Basic, call Call) *types.Signature {
	return func(b *Basic, call Call) *types.Signature {
		if !call.positional(2) {
			return nil
		}
		args := unliteralAll(call.Args)
		if !isNumeric(args[0]) || !isNumeric(args[1]) {
			return nil
		}
		promoted := promote(args[0], args[1])
		if _, isBool := promoted.(types.Boolean); isBool {
			promoted = types.Int64
		}
		if result != nil {
			promoted = promote(promoted, result)
		}
		return types.NewSignature(promoted, args...)
	}
}

func integerBinary(b *Basic, call Call) *types.Signature {
	if !call.positional(2) || !isInteger(call.Args[0]) || !isInteger(call.Args[1]) {
		return nil
	}
	args := unliteralAll(call.Args)
	return types.NewSignature(promote(args[0], args[1]), args...)
}

func typeConcat(b *Basic, call Call) *types.Signature {
	if !call.positional(2) {
		return nil
	}
	args := unliteralAll(call.Args)
	switch lhs := args[0].(type) {
	case types.UnicodeType:
		if isUnicode(args[1]) {
			return types.NewSignature(types.Unicode, args...)
		}
	case types.List:
		if unified := b.UnifyPairs(lhs, args[1]); unified != nil {
			return types.NewSignature(unified, args...)
		}
	case types.BaseTuple:
		if rhs, ok := args[1].(types.BaseTuple); ok {
			return types.NewSignature(types.MakeTuple(append(append([]types.Type{}, lhs.Elems()...), rhs.Elems()...)), args...)
		}
	}
	return nil
}

func comparison(accept func(types.Type) bool) func(b *Basic, call Call) *types.Signature {
	return func(b *Basic, call Call) *types.Signature {
		if !call.positional(2) {
			return nil
		}
		args := unliteralAll(call.Args)
		if !accept(args[0]) || !accept(args[1]) {
			return nil
		}
		return types.NewSignature(types.Bool, args...)
	}
}

func typeEquality(b *Basic, call Call) *types.Signature {
	if !call.positional(2) {
		return nil
	}
	if b.UnifyPairs(call.Args[0], call.Args[1]) == nil {
		return nil
	}
	return types.NewSignature(types.Bool, unliteralAll(call.Args)...)
}

func numericUnary(b *Basic, call Call) *types.Signature {
	if !call.positional(1) {
		return nil
	}
	arg := types.Unliteral(call.Args[0])
	if !isNumeric(arg) {
		return nil
	}
	ret := arg
	if _, isBool := arg.(types.Boolean); isBool {
		ret = types.Int64
	}
	return types.NewSignature(ret, arg)
}

func typeGetIter(b *Basic, call Call) *types.Signature {
	if !call.positional(1) {
		return nil
	}
	iterable, ok := call.Args[0].(types.IterableType)
	if !ok {
		return nil
	}
	return types.NewSignature(iterable.Iterator(), iterable)
}

func typeIterNext(b *Basic, call Call) *types.Signature {
	if !call.positional(1) {
		return nil
	}
	iterator, ok := call.Args[0].(types.IteratorType)
	if !ok {
		return nil
	}
	return types.NewSignature(types.Pair{First: iterator.Yield(), Second: types.Bool}, iterator)
}

func typeListGetItem(b *Basic, call Call) *types.Signature {
	if !call.positional(2) {
		return nil
	}
	list, ok := call.Args[0].(types.List)
	if !ok {
		return nil
	}
	index := types.Unliteral(call.Args[1])
	if _, isSlice := index.(types.Slice); isSlice {
		return types.NewSignature(list, list, index)
	}
	if !isInteger(index) {
		return nil
	}
	return types.NewSignature(list.Elem, list, index)
}

// arrayIndex returns the type of indexing arr with index, or nil
func arrayIndex(arr types.Array, index types.Type) types.Type {
	switch index := types.Unliteral(index).(type) {
	case types.Slice:
		return arr
	case types.UniTuple:
		if !isInteger(index.Elem) || index.Count > arr.NDim {
			return nil
		}
		if index.Count == arr.NDim {
			return arr.DType
		}
		return arr.WithNDim(arr.NDim - index.Count)
	default:
		if !isInteger(index) {
			return nil
		}
		if arr.NDim <= 1 {
			return arr.DType
		}
		return arr.WithNDim(arr.NDim - 1)
	}
}

func typeArrayGetItem(b *Basic, call Call) *types.Signature {
	if !call.positional(2) {
		return nil
	}
	arr, ok := call.Args[0].(types.Array)
	if !ok {
		return nil
	}
	ret := arrayIndex(arr, call.Args[1])
	if ret == nil {
		return nil
	}
	return types.NewSignature(ret, arr, types.Unliteral(call.Args[1]))
}

func typeUniTupleGetItem(b *Basic, call Call) *types.Signature {
	if !call.positional(2) {
		return nil
	}
	tuple, ok := call.Args[0].(types.UniTuple)
	if !ok || !isInteger(call.Args[1]) {
		return nil
	}
	return types.NewSignature(tuple.Elem, tuple, types.Unliteral(call.Args[1]))
}

func typeUnicodeGetItem(b *Basic, call Call) *types.Signature {
	if !call.positional(2) || !isUnicode(call.Args[0]) || !isInteger(call.Args[1]) {
		return nil
	}
	return types.NewSignature(types.Unicode, unliteralAll(call.Args)...)
}

func typeListSetItem(b *Basic, call Call) *types.Signature {
	if !call.positional(3) {
		return nil
	}
	list, ok := call.Args[0].(types.List)
	if !ok || !isInteger(call.Args[1]) || !b.CanConvert(call.Args[2], list.Elem) {
		return nil
	}
	return types.NewSignature(types.None, list, types.Unliteral(call.Args[1]), call.Args[2])
}

// typeArraySetItem accepts storing into an array whose dtype is still undefined, in which
// case the first argument of the signature is the array refined by the stored value
func typeArraySetItem(b *Basic, call Call) *types.Signature {
	if !call.positional(3) {
		return nil
	}
	arr, ok := call.Args[0].(types.Array)
	if !ok || arr.Readonly {
		return nil
	}
	index := types.Unliteral(call.Args[1])
	if arrayIndex(arr, index) == nil {
		return nil
	}
	value := types.Unliteral(call.Args[2])
	stored := value
	if valueArr, isArr := value.(types.Array); isArr {
		stored = valueArr.DType
	}
	if !isNumeric(stored) {
		return nil
	}
	if !arr.Precise() {
		return types.NewSignature(types.None, arr.WithDType(stored), index, value)
	}
	if !b.CanConvert(stored, arr.DType) {
		return nil
	}
	return types.NewSignature(types.None, arr, index, value)
}

func typeListDelItem(b *Basic, call Call) *types.Signature {
	if !call.positional(2) {
		return nil
	}
	list, ok := call.Args[0].(types.List)
	if !ok {
		return nil
	}
	index := types.Unliteral(call.Args[1])
	if _, isSlice := index.(types.Slice); !isSlice && !isInteger(index) {
		return nil
	}
	return types.NewSignature(types.None, list, index)
}

func typeLen(b *Basic, call Call) *types.Signature {
	if !call.positional(1) {
		return nil
	}
	switch arg := types.Unliteral(call.Args[0]).(type) {
	case types.List, types.Set, types.BaseTuple, types.Array, types.UnicodeType, types.Range:
		return types.NewSignature(types.Int64, arg)
	}
	return nil
}

func typeRange(b *Basic, call Call) *types.Signature {
	if len(call.Kws) != 0 || len(call.Args) < 1 || len(call.Args) > 3 {
		return nil
	}
	for _, arg := range call.Args {
		if !isInteger(arg) {
			return nil
		}
	}
	return types.NewSignature(types.Range{Elem: types.Int64}, unliteralAll(call.Args)...)
}

func typeSlice(b *Basic, call Call) *types.Signature {
	if len(call.Kws) != 0 || len(call.Args) < 1 || len(call.Args) > 3 {
		return nil
	}
	for _, arg := range call.Args {
		if _, isNone := arg.(types.NoneType); !isNone && !isInteger(arg) {
			return nil
		}
	}
	return types.NewSignature(types.Slice{Args: len(call.Args)}, unliteralAll(call.Args)...)
}

func typePrint(b *Basic, call Call) *types.Signature {
	if len(call.Kws) != 0 {
		return nil
	}
	return types.NewSignature(types.None, call.Args...)
}

func containerOf(build func(types.Type) types.Type) func(b *Basic, call Call) *types.Signature {
	return func(b *Basic, call Call) *types.Signature {
		if call.positional(0) {
			return types.NewSignature(build(types.Undefined))
		}
		if !call.positional(1) {
			return nil
		}
		iterable, ok := call.Args[0].(types.IterableType)
		if !ok {
			return nil
		}
		return types.NewSignature(build(types.Unliteral(iterable.Iterator().Yield())), iterable)
	}
}

func typeSorted(b *Basic, call Call) *types.Signature {
	if len(call.Args) != 1 {
		return nil
	}
	iterable, ok := call.Args[0].(types.IterableType)
	if !ok {
		return nil
	}
	args := []types.Type{iterable}
	for _, kw := range types.SortedKeywords(call.Kws) {
		if kw.Name != "reverse" || !isInteger(kw.Type) {
			return nil
		}
		args = append(args, types.Unliteral(kw.Type))
	}
	return types.NewSignature(types.List{Elem: types.Unliteral(iterable.Iterator().Yield())}, args...)
}

// typeGrow types list.append and set.add. The receiver of the signature is the container
// refined to hold the added item too
func typeGrow(b *Basic, call Call) *types.Signature {
	if !call.positional(1) {
		return nil
	}
	item := types.Unliteral(call.Args[0])
	var refined types.Type
	switch this := call.This.(type) {
	case types.List:
		if elem := b.UnifyPairs(this.Elem, item); elem != nil {
			refined = types.List{Elem: elem}
		}
	case types.Set:
		if elem := b.UnifyPairs(this.Elem, item); elem != nil {
			refined = types.Set{Elem: elem}
		}
	}
	if refined == nil {
		return nil
	}
	return &types.Signature{Return: types.None, Args: []types.Type{item}, Recvr: refined}
}

func typeListPop(b *Basic, call Call) *types.Signature {
	list, ok := call.This.(types.List)
	if !ok || len(call.Kws) != 0 || len(call.Args) > 1 {
		return nil
	}
	if len(call.Args) == 1 && !isInteger(call.Args[0]) {
		return nil
	}
	return &types.Signature{Return: list.Elem, Args: unliteralAll(call.Args), Recvr: list}
}

// typeEmptyInferred types allocating an array whose dtype is inferred from what is later stored in it
func typeEmptyInferred(b *Basic, call Call) *types.Signature {
	if !call.positional(1) {
		return nil
	}
	shape := types.Unliteral(call.Args[0])
	ndim := 1
	if tuple, ok := shape.(types.UniTuple); ok {
		if !isInteger(tuple.Elem) {
			return nil
		}
		ndim = tuple.Count
	} else if !isInteger(shape) {
		return nil
	}
	return types.NewSignature(types.Array{DType: types.Undefined, NDim: ndim, Layout: "C"}, shape)
}
