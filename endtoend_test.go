package main

import (
	"bytes"
	"embed"
	"io/fs"
	"path"
	"strings"
	"testing"

	"github.com/cottand/typeinfer/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embeds the test programs
//
//go:embed testdata
var testSet embed.FS

const errorPrefix = "error:"

// format is as follows:
//
//	# typeinfer:test func argType; argType | expected return type
//
// an expected value starting with "error:" names a substring of the error
func extractTestComment(t *testing.T, str string) (cmd.Request, string) {
	firstLine := strings.Split(str, "\n")[0]
	trimmed := strings.TrimPrefix(firstLine, "# typeinfer:test ")
	elems := strings.SplitN(trimmed, "|", 2)
	if len(elems) < 2 {
		t.Fatalf("could not parse comment string: '%v'", firstLine)
	}
	call := strings.TrimSpace(elems[0])
	funcID, args, _ := strings.Cut(call, " ")
	req := cmd.Request{FuncID: funcID}
	for _, arg := range strings.Split(args, ";") {
		if arg = strings.TrimSpace(arg); arg != "" {
			req.Args = append(req.Args, arg)
		}
	}
	return req, strings.TrimSpace(elems[1])
}

func TestProgramsEndToEnd(t *testing.T) {
	files, err := testSet.ReadDir("testdata")
	require.NoError(t, err)
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}
		testFile(t, "", f)
	}
}

func TestErrorsEndToEnd(t *testing.T) {
	files, err := testSet.ReadDir("testdata/errors")
	require.NoError(t, err)
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}
		testFile(t, "errors", f)
	}
}

func testFile(t *testing.T, at string, f fs.DirEntry) bool {
	return t.Run(f.Name(), func(t *testing.T) {
		content, err := testSet.ReadFile(path.Join("testdata", at, f.Name()))
		require.NoError(t, err)

		req, expected := extractTestComment(t, string(content))
		res, err := cmd.Infer(bytes.NewReader(content), req)

		if wantErr, ok := strings.CutPrefix(expected, errorPrefix); ok {
			require.Error(t, err)
			assert.Contains(t, err.Error(), strings.TrimSpace(wantErr))
			assert.Contains(t, err.Error(), "type inference failed")
			return
		}
		require.NoError(t, err)
		assert.Equal(t, expected, res.Return.String())

		out := &bytes.Buffer{}
		cmd.WriteResult(out, res, false)
		assert.Contains(t, out.String(), "return "+expected+"\n")
	})
}
