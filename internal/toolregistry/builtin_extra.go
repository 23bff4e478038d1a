package toolregistry

import (
	"context"
	"fmt"
	"go/constant"
	"go/token"
	"go/types"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

var (
	calculatorSpec = Spec{
		Name:        "calculator",
		Description: "Evaluate an arithmetic expression with + - * / and parentheses.",
		Parameters: map[string]Parameter{
			"expression": {Type: TypeString, Required: true},
		},
		Cacheable: true,
	}
	httpRequestSpec = Spec{
		Name:        "http_request",
		Description: "Send an HTTP request and return the status and body.",
		Parameters: map[string]Parameter{
			"url":    {Type: TypeString, Required: true},
			"method": {Type: TypeString, Description: "HTTP method, defaults to GET"},
			"body":   {Type: TypeString},
		},
	}
)

var (
	arithmeticOnly = regexp.MustCompile(`^[\d\s.+\-*/()]+$`)
	numberLiteral  = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

func (b *builtins) calculator(_ context.Context, args map[string]any) (any, error) {
	if err := calculatorSpec.CheckArgs(args); err != nil {
		return nil, err
	}
	expr := strings.TrimSpace(StringArg(args, "expression"))
	if !arithmeticOnly.MatchString(expr) {
		return nil, goerr.Wrap(ErrInvalidArgument, "unsupported expression", goerr.V("expression", expr))
	}
	v, err := Evaluate(expr)
	if err != nil {
		return nil, err
	}
	return strconv.FormatFloat(v, 'f', -1, 64), nil
}

// Evaluate computes an arithmetic expression using floating point division.
func Evaluate(expr string) (float64, error) {
	// Promote integer literals so 7/2 is 3.5, not 3.
	floated := numberLiteral.ReplaceAllStringFunc(expr, func(n string) string {
		if strings.Contains(n, ".") {
			return n
		}
		return n + ".0"
	})
	tv, err := types.Eval(token.NewFileSet(), nil, token.NoPos, floated)
	if err != nil {
		return 0, goerr.Wrap(ErrInvalidArgument, "evaluate expression",
			goerr.V("expression", expr), goerr.V("cause", err.Error()))
	}
	if tv.Value == nil {
		return 0, goerr.Wrap(ErrInvalidArgument, "expression is not constant", goerr.V("expression", expr))
	}
	v, _ := constant.Float64Val(constant.ToFloat(tv.Value))
	return v, nil
}

func (b *builtins) httpRequest(ctx context.Context, args map[string]any) (any, error) {
	if err := httpRequestSpec.CheckArgs(args); err != nil {
		return nil, err
	}
	method := strings.ToUpper(StringArg(args, "method"))
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if s := StringArg(args, "body"); s != "" {
		body = strings.NewReader(s)
	}

	req, err := http.NewRequestWithContext(ctx, method, StringArg(args, "url"), body)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidArgument, "bad request", goerr.V("url", StringArg(args, "url")))
	}
	resp, err := b.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxOutputBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	out := fmt.Sprintf("HTTP %d\n%s", resp.StatusCode, truncate(string(data), maxOutputBytes))
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s %s: %s", method, req.URL, out)
	}
	return out, nil
}
