package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/cottand/typeinfer/internal/log"
	"github.com/cottand/typeinfer/ir"
	"github.com/cottand/typeinfer/tierr"
	"github.com/cottand/typeinfer/typeinfer"
	"github.com/cottand/typeinfer/types"
	"github.com/cottand/typeinfer/typing"
	"github.com/davecgh/go-spew/spew"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// debugEnv holds comma-separated log sections to print debug records for
const debugEnv = "TYPEINFER_DEBUG"

var InferCmd = &cobra.Command{
	Use:   "infer program.yaml --func ID [--arg TYPE]...",
	Short: "Infer the types of a function of an IR program",
	Long: `Infer the types of a function of an IR program.

Argument and return types are written the way types print, for example
int64, list(float64), UniTuple(int64 x 2) or array(float64, 1d, C).`,
	RunE:         runInfer,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

var (
	inferFunc     *string
	inferArgs     *[]string
	inferReturn   *string
	inferDump     *bool
	logLevel      *int
	debugSections *[]string
)

func init() {
	inferFunc = InferCmd.Flags().StringP("func", "f", "", "id of the function to infer (defaults to the first function)")
	inferArgs = InferCmd.Flags().StringArrayP("arg", "a", nil, "type of the next argument")
	inferReturn = InferCmd.Flags().StringP("return", "r", "", "type the function is known to return")
	inferDump = InferCmd.Flags().Bool("dump", false, "dump the whole result")
	logLevel = InferCmd.Flags().IntP("log-level", "l", int(slog.LevelWarn), "log level")
	debugSections = InferCmd.Flags().StringSlice("debug-sections", nil, "log sections to print debug records for")
}

// Request is what to infer out of a program
type Request struct {
	FuncID string
	Args   []string
	Return string
}

func runInfer(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*logLevel))
	sections := slices.Clone(*debugSections)
	if env := os.Getenv(debugEnv); env != "" {
		sections = append(sections, strings.Split(env, ",")...)
		log.SetLevel(slog.LevelDebug)
	}
	if len(sections) > 0 {
		log.EnableSections(sections...)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return errors.Wrap(err, "could not open program")
	}
	defer f.Close()

	res, err := Infer(f, Request{FuncID: *inferFunc, Args: *inferArgs, Return: *inferReturn})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if *inferDump {
		spew.Fdump(out, res)
		return nil
	}
	WriteResult(out, res, useColour(out))
	return nil
}

// Infer loads the program in r and infers the function of req
func Infer(r io.Reader, req Request) (*typeinfer.Result, error) {
	fns, err := ir.LoadYAML(r)
	if err != nil {
		return nil, errors.Wrap(err, "could not load program")
	}
	if len(fns) == 0 {
		return nil, errors.New("program has no functions")
	}
	if req.FuncID == "" {
		req.FuncID = fns[0].ID
	}

	argTypes := make([]types.Type, len(req.Args))
	for i, arg := range req.Args {
		if argTypes[i], err = typing.ParseType(arg); err != nil {
			return nil, errors.Wrapf(err, "argument %d", i)
		}
	}

	session := typeinfer.NewSession(typing.NewBasic(), typeinfer.WithLogger(log.DefaultLogger.With("section", "cli")))
	if err := session.Register(fns...); err != nil {
		return nil, err
	}

	var res *typeinfer.Result
	if req.Return == "" {
		res, err = session.Infer(req.FuncID, argTypes)
	} else {
		ret, parseErr := typing.ParseType(req.Return)
		if parseErr != nil {
			return nil, errors.Wrap(parseErr, "return type")
		}
		res, err = session.InferWithReturn(req.FuncID, argTypes, ret)
	}
	var typingErr tierr.Error
	if errors.As(err, &typingErr) {
		return nil, fmt.Errorf("type inference failed:\n%s", tierr.FormatWithCode(typingErr))
	}
	return res, err
}

func useColour(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

const (
	bold  = "\x1b[1m"
	cyan  = "\x1b[36m"
	reset = "\x1b[0m"
)

// WriteResult prints the types of user variables, then of temporaries, then the
// return type and the signature of every call in source order
func WriteResult(w io.Writer, res *typeinfer.Result, colour bool) {
	paint := func(s, code string) string {
		if !colour {
			return s
		}
		return code + s + reset
	}

	var user, temps []string
	for name := range res.Types {
		if ir.IsTemp(name) {
			temps = append(temps, name)
		} else {
			user = append(user, name)
		}
	}
	slices.Sort(user)
	slices.Sort(temps)
	for _, name := range slices.Concat(user, temps) {
		_, _ = fmt.Fprintf(w, "%s: %s\n", paint(name, bold), res.Types[name])
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", paint("return", cyan), res.Return)

	nodes := make([]ir.Node, 0, len(res.CallTypes))
	for node := range res.CallTypes {
		nodes = append(nodes, node)
	}
	slices.SortFunc(nodes, func(a, b ir.Node) int {
		if a.Loc().Line != b.Loc().Line {
			return a.Loc().Line - b.Loc().Line
		}
		return strings.Compare(a.String(), b.String())
	})
	for _, node := range nodes {
		_, _ = fmt.Fprintf(w, "%s %s :: %s\n", paint(node.Loc().String(), cyan), node, res.CallTypes[node])
	}
}
