package typeinfer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cottand/typeinfer/ir"
	"github.com/cottand/typeinfer/tierr"
	"github.com/cottand/typeinfer/types"
	"github.com/cottand/typeinfer/util"
	"github.com/hashicorp/go-set/v3"
)

// Result is what inference found out about a function
type Result struct {
	// Types has the type of every variable
	Types map[string]types.Type
	// Return is the type the function returns, or its Generator for generator functions
	Return types.Type
	// CallTypes has the signature of every call, operator, and mutation of the function
	CallTypes map[ir.Node]*types.Signature
	// Generator is only set for functions that yield
	Generator *types.Generator
	// Args are the types of the arguments, in order
	Args []types.Type
}

const listHint = `

The type of a list is only known once the type of its elements is. An empty list
has no elements to infer from, so store something in it or build it from values
whose type is known.`

// Unify checks that every variable was typed precisely and collects the results of inference.
// User variables are checked before temporaries, so that errors point at the user's code first
func (ti *TypeInferer) Unify() (*Result, error) {
	for _, ret := range ti.fn.Returns() {
		ti.typeVars.Get(ret.Value.Name)
	}

	var user, temps []string
	for _, name := range ti.typeVars.Names() {
		if ir.IsTemp(name) {
			temps = append(temps, name)
		} else {
			user = append(user, name)
		}
	}

	typeMap := make(map[string]types.Type, ti.typeVars.Len())
	for _, name := range slices.Concat(user, temps) {
		t, err := ti.checkVar(name)
		if err != nil {
			return nil, err
		}
		typeMap[name] = t
	}

	retty, err := ti.returnType(typeMap)
	if err != nil {
		return nil, err
	}
	for _, ret := range ti.fn.Returns() {
		typeMap[ret.Value.Name] = retty
	}

	result := &Result{
		Types:     typeMap,
		Return:    retty,
		CallTypes: ti.callTypes(),
		Args:      ti.argTypes(typeMap),
	}
	if ti.fn.Generator != nil {
		gen, err := ti.generatorType(typeMap, result.Args)
		if err != nil {
			return nil, err
		}
		result.Generator = gen
		result.Return = *gen
	}
	ti.logger.Debug("unify finished", "return", result.Return.String(), "vars", len(typeMap), "calls", len(result.CallTypes))
	return result, nil
}

func (ti *TypeInferer) checkVar(name string) (types.Type, error) {
	tv := ti.typeVars.Get(name)
	if !tv.Defined() {
		err := tierr.UndefinedVar{Var: name, At: ti.fn.At}
		if offender := ti.fn.FindVariableAssignment(name); offender != nil {
			err.Offender = offender
			err.At = offender.At
		}
		return nil, tierr.New(err)
	}
	if !types.IsPrecise(tv.Type) {
		err := tierr.ImpreciseType{Var: name, Type: tv.Type, At: tv.DefineLoc}
		if offender := ti.findOffender(name); offender != nil {
			err.At = offender.At
			err.Hint = ti.imprecisionHint(offender)
		}
		return nil, tierr.New(err)
	}
	return tv.Type, nil
}

// findOffender returns the assignment of name, following copies from temporaries
// to find where the value was first assigned
func (ti *TypeInferer) findOffender(name string) *ir.Assign {
	visited := set.New[string](0)
	var offender *ir.Assign
	for {
		found := ti.fn.FindVariableAssignment(name)
		if found == nil {
			return offender
		}
		offender = found
		src, ok := found.Value.(ir.Var)
		if !ok || !src.IsTemp() || !visited.Insert(src.Name) {
			return offender
		}
		name = src.Name
	}
}

func (ti *TypeInferer) imprecisionHint(offender *ir.Assign) string {
	switch value := offender.Value.(type) {
	case *ir.BuildList:
		return listHint
	case *ir.Call:
		callee := ti.fn.FindVariableAssignment(value.Func.Name)
		if callee == nil {
			return ""
		}
		if global, ok := callee.Value.(ir.Global); ok && global.Name == "list" {
			return listHint
		}
	}
	return ""
}

func (ti *TypeInferer) returnType(typeMap map[string]types.Type) (types.Type, error) {
	returns := ti.fn.Returns()
	rettypes := make([]types.Type, 0, len(returns))
	for _, ret := range returns {
		rettypes = append(rettypes, typeMap[ret.Value.Name])
	}
	retty, err := ti.unifyReturnTypes(types.Unique(rettypes), typeMap)
	if err != nil {
		return nil, err
	}
	if types.Equal(retty, types.Undefined) {
		return nil, tierr.Typingf(ti.fn.At, "return value is undefined")
	}
	return retty, nil
}

// unifyReturnTypes returns none for functions that never return
func (ti *TypeInferer) unifyReturnTypes(rettypes []types.Type, typeMap map[string]types.Type) (types.Type, error) {
	if len(rettypes) == 0 {
		return types.None, nil
	}
	unified := ti.ctx.UnifyTypes(rettypes...)
	if unified != nil && types.IsPrecise(unified) {
		return unified, nil
	}

	problems := make([]string, 0, len(rettypes))
	for _, t := range rettypes {
		for _, ret := range ti.fn.Returns() {
			if types.Equal(typeMap[ret.Value.Name], t) {
				problems = append(problems, fmt.Sprintf("Return of: IR name '%s', type '%s', location: %s", ret.Value.Name, t, ret.At))
				break
			}
		}
	}
	return nil, tierr.Typingf(ti.fn.At, "Can't unify return type from the following types: %s\n%s",
		util.JoinString(rettypes, ", "), strings.Join(problems, "\n"))
}

type freezer interface{ freeze() }

// callTypes freezes the signature of every call site that resolved one
func (ti *TypeInferer) callTypes() map[ir.Node]*types.Signature {
	callTypes := make(map[ir.Node]*types.Signature, len(ti.calls))
	for _, call := range ti.calls {
		if sig, ok := call.site.CallSignature(); ok {
			callTypes[call.node] = sig
		}
		if f, ok := call.site.(freezer); ok {
			f.freeze()
		}
	}
	return callTypes
}

func (ti *TypeInferer) argTypes(typeMap map[string]types.Type) []types.Type {
	indexes := make([]int, 0, len(ti.argNames))
	for index := range ti.argNames {
		indexes = append(indexes, index)
	}
	slices.Sort(indexes)
	args := make([]types.Type, 0, len(indexes))
	for _, index := range indexes {
		args = append(args, typeMap[ti.argNames[index]])
	}
	return args
}

func (ti *TypeInferer) generatorType(typeMap map[string]types.Type, args []types.Type) (*types.Generator, error) {
	state := make([]types.Type, 0, len(ti.fn.Generator.StateVars))
	for _, name := range ti.fn.Generator.StateVars {
		t, ok := typeMap[name]
		if !ok {
			return nil, tierr.Typingf(ti.fn.At, "Cannot type generator: state variable types cannot be found")
		}
		state = append(state, t)
	}

	points := ti.fn.YieldPoints()
	yields := make([]types.Type, 0, len(points))
	for _, point := range points {
		t, ok := typeMap[point.Value.(ir.Yield).Value.Name]
		if !ok {
			return nil, tierr.Typingf(ti.fn.At, "Cannot type generator: yield type cannot be found")
		}
		yields = append(yields, t)
	}
	if len(yields) == 0 {
		return nil, tierr.Typingf(ti.fn.At, "Cannot type generator: it does not yield any value")
	}

	yield := ti.ctx.UnifyTypes(yields...)
	if _, isOptional := yield.(types.Optional); yield == nil || isOptional {
		explained := make([]types.Type, 0, len(yields))
		for _, t := range yields {
			if opt, ok := t.(types.Optional); ok {
				explained = append(explained, opt.Inner, types.None)
			} else {
				explained = append(explained, t)
			}
		}
		highlights := make([]string, len(points))
		for i, point := range points {
			highlights[i] = fmt.Sprintf("Yield of: IR '%s', type '%s', location: %s", point, yields[i], point.At)
		}
		return nil, tierr.Typingf(ti.fn.At, "Can't unify yield type from the following types: %s\n\n%s",
			util.JoinString(types.Unique(explained), ", "), strings.Join(highlights, "\n"))
	}

	return &types.Generator{Func: ti.fn.Name, Yield: yield, Args: args, State: state}, nil
}
