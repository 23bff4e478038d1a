package toolregistry

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/tandem/internal/exec"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func htmlClient(body string) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
			Header:     make(http.Header),
			Request:    req,
		}, nil
	})}
}

func TestRegisterBuiltins(t *testing.T) {
	r := New()
	require.NoError(t, RegisterBuiltins(r, BuiltinConfig{WorkDir: t.TempDir()}))

	assert.Equal(t, []string{
		"calculator", "content_search", "file_read", "file_search", "file_write",
		"http_request", "list_dir", "shell", "web_fetch", "web_search",
	}, r.List())
}

func TestBuiltins_FileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tools := Builtins(BuiltinConfig{WorkDir: dir})
	ctx := context.Background()

	out, err := tools["file_write"].Run(ctx, map[string]any{"path": "notes/a.txt", "content": "one\ntwo\nthree"})
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 13 bytes")

	out, err = tools["file_read"].Run(ctx, map[string]any{"path": "notes/a.txt", "offset": 2, "limit": 1})
	require.NoError(t, err)
	assert.Equal(t, "     2\ttwo\n", out)

	out, err = tools["list_dir"].Run(ctx, map[string]any{"path": "notes"})
	require.NoError(t, err)
	assert.Contains(t, out, "- a.txt (13 bytes)")

	out, err = tools["file_search"].Run(ctx, map[string]any{"pattern": "*.txt"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("notes", "a.txt"), out)
}

func TestBuiltins_FileReadErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0644))
	tools := Builtins(BuiltinConfig{WorkDir: dir})

	tests := []struct {
		name string
		args map[string]any
	}{
		{name: "missing path argument", args: map[string]any{}},
		{name: "missing file", args: map[string]any{"path": "nope.txt"}},
		{name: "offset past end", args: map[string]any{"path": "a.txt", "offset": 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tools["file_read"].Run(context.Background(), tt.args)
			assert.Error(t, err)
		})
	}
}

func TestBuiltins_WebSearch(t *testing.T) {
	html := `<div class="result"><a class="result__a" href="https://example.com">Example</a><a class="result__snippet">Snippet</a></div>`
	tools := Builtins(BuiltinConfig{HTTPClient: htmlClient(html), SearchURL: "http://search.test/html"})

	out, err := tools["web_search"].Run(context.Background(), map[string]any{"query": "go modules"})
	require.NoError(t, err)
	assert.Contains(t, out, "Search: go modules")
	assert.Contains(t, out, "1. Example")
	assert.Contains(t, out, "https://example.com")
	assert.Contains(t, out, "Snippet")
}

func TestBuiltins_WebFetch(t *testing.T) {
	html := `<html><head><title>Page</title><script>var x=1;</script></head>
<body><h1>Heading</h1><p>First paragraph.</p><ul><li>item</li></ul></body></html>`
	tools := Builtins(BuiltinConfig{HTTPClient: htmlClient(html)})

	out, err := tools["web_fetch"].Run(context.Background(), map[string]any{"url": "http://page.test/"})
	require.NoError(t, err)
	text := out.(string)
	assert.Contains(t, text, "# Page")
	assert.Contains(t, text, "## Heading")
	assert.Contains(t, text, "First paragraph.")
	assert.Contains(t, text, "- item")
	assert.NotContains(t, text, "var x")
}

func TestBuiltins_WebFetchHTTPError(t *testing.T) {
	client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(bytes.NewReader(nil)), Header: make(http.Header)}, nil
	})}
	tools := Builtins(BuiltinConfig{HTTPClient: client})

	_, err := tools["web_fetch"].Run(context.Background(), map[string]any{"url": "http://page.test/missing"})
	assert.ErrorContains(t, err, "HTTP 404")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab\n... (output truncated)", truncate("abcdef", 2))
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr    string
		want    float64
		wantErr bool
	}{
		{expr: "2+2", want: 4},
		{expr: "3 + 4 * 2", want: 11},
		{expr: "7/2", want: 3.5},
		{expr: "(1.5 + 0.5) * 10", want: 20},
		{expr: "1/0", wantErr: true},
		{expr: "2 +", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Evaluate(tt.expr)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestBuiltins_Calculator(t *testing.T) {
	calc := Builtins(BuiltinConfig{})["calculator"]

	out, err := calc.Run(context.Background(), map[string]any{"expression": "7/2"})
	require.NoError(t, err)
	assert.Equal(t, "3.5", out)

	_, err = calc.Run(context.Background(), map[string]any{"expression": "os.Exit(1)"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBuiltins_HTTPRequest(t *testing.T) {
	var gotMethod string
	client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		gotMethod = req.Method
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString(`{"ok":true}`)),
			Header:     make(http.Header),
		}, nil
	})}
	tool := Builtins(BuiltinConfig{HTTPClient: client})["http_request"]

	out, err := tool.Run(context.Background(), map[string]any{"url": "http://api.test/v1", "method": "post", "body": "{}"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "HTTP 200\n{\"ok\":true}", out)
}

type recordingRunner struct {
	name string
	args []string
	dir  string
	res  exec.Result
	err  error
}

func (r *recordingRunner) Run(_ context.Context, dir, name string, args ...string) (exec.Result, error) {
	r.dir, r.name, r.args = dir, name, args
	return r.res, r.err
}

func TestShell_UsesRunner(t *testing.T) {
	dir := t.TempDir()
	runner := &recordingRunner{res: exec.Result{Output: []byte("hello\n")}}
	tools := Builtins(BuiltinConfig{WorkDir: dir, Runner: runner})

	out, err := tools["shell"].Run(context.Background(), map[string]any{"command": "echo hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
	assert.Equal(t, exec.DefaultShell, runner.name)
	assert.Equal(t, []string{"-c", "echo hello"}, runner.args)
	assert.Equal(t, dir, runner.dir)
}

func TestShell_FailureIncludesOutput(t *testing.T) {
	runner := &recordingRunner{
		res: exec.Result{Output: []byte("permission denied"), ExitCode: 1},
		err: errors.New("exit status 1"),
	}
	tools := Builtins(BuiltinConfig{WorkDir: t.TempDir(), Runner: runner})

	_, err := tools["shell"].Run(context.Background(), map[string]any{"command": "cat /root/secret"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestContentSearch_NoMatches(t *testing.T) {
	runner := &recordingRunner{res: exec.Result{ExitCode: 1}, err: errors.New("exit status 1")}
	tools := Builtins(BuiltinConfig{WorkDir: t.TempDir(), Runner: runner})

	out, err := tools["content_search"].Run(context.Background(), map[string]any{"pattern": "needle", "glob": "*.go"})
	require.NoError(t, err)
	assert.Equal(t, "no matches found", out)
	assert.Equal(t, "rg", runner.name)
	assert.Contains(t, runner.args, "--glob")
	assert.Contains(t, runner.args, "needle")
}
