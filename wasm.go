//go:build js && wasm

package main

import (
	"fmt"
	"strings"
	"syscall/js"

	"github.com/cottand/typeinfer/cmd"
)

// inferAndShowTypes takes a YAML program, the id of the function to infer and
// its argument types, and returns what WriteResult prints
func inferAndShowTypes(_ js.Value, args []js.Value) (ret any) {
	defer func() {
		if r := recover(); r != nil {
			ret = "type inference panicked: " + fmt.Sprint(r)
		}
	}()
	if len(args) < 2 {
		return "expected a program and the id of a function"
	}

	req := cmd.Request{FuncID: args[1].String()}
	for _, arg := range args[2:] {
		req.Args = append(req.Args, arg.String())
	}
	res, err := cmd.Infer(strings.NewReader(args[0].String()), req)
	if err != nil {
		return err.Error()
	}
	sb := &strings.Builder{}
	cmd.WriteResult(sb, res, false)
	return sb.String()
}

func main() {
	js.Global().Set("InferAndShowTypes", js.FuncOf(inferAndShowTypes))

	// wait indefinitely so that Go does not terminate execution
	// and the function remains available
	<-make(chan struct{})
}
