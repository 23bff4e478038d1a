package toolregistry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/m-mizutani/goerr/v2"

	"github.com/ShayCichocki/tandem/internal/exec"
)

const (
	maxOutputBytes     = 30000
	maxPageBytes       = 15000
	defaultShellLimit  = 2 * time.Minute
	defaultSearchLimit = 30 * time.Second
	defaultSearchURL   = "https://html.duckduckgo.com/html/"
)

// BuiltinConfig carries the dependencies shared by the built-in tools.
type BuiltinConfig struct {
	// WorkDir resolves relative paths. Defaults to the process working directory.
	WorkDir string
	// HTTPClient is used by the web tools. Defaults to a client with a 30s timeout.
	HTTPClient *http.Client
	// SearchURL is the HTML search endpoint used by web_search.
	SearchURL string
	// MaxResults caps web_search results.
	MaxResults int
	// Runner starts processes for shell and content_search. Defaults to exec.NewRunner.
	Runner exec.Runner
}

func (c BuiltinConfig) withDefaults() BuiltinConfig {
	if c.WorkDir == "" {
		if wd, err := os.Getwd(); err == nil {
			c.WorkDir = wd
		}
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.SearchURL == "" {
		c.SearchURL = defaultSearchURL
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 5
	}
	if c.Runner == nil {
		c.Runner = exec.NewRunner()
	}
	return c
}

// Builtins returns the built-in tools keyed by registry name.
func Builtins(cfg BuiltinConfig) map[string]Tool {
	b := &builtins{cfg: cfg.withDefaults()}
	return map[string]Tool{
		"file_read":      NewFunc(fileReadSpec, b.fileRead),
		"file_write":     NewFunc(fileWriteSpec, b.fileWrite),
		"list_dir":       NewFunc(listDirSpec, b.listDir),
		"file_search":    NewFunc(fileSearchSpec, b.fileSearch),
		"content_search": NewFunc(contentSearchSpec, b.contentSearch),
		"shell":          NewFunc(shellSpec, b.shell),
		"web_fetch":      NewFunc(webFetchSpec, b.webFetch),
		"web_search":     NewFunc(webSearchSpec, b.webSearch),
		"calculator":     NewFunc(calculatorSpec, b.calculator),
		"http_request":   NewFunc(httpRequestSpec, b.httpRequest),
	}
}

// RegisterBuiltins registers every built-in tool on r.
func RegisterBuiltins(r *Registry, cfg BuiltinConfig) error {
	for name, tool := range Builtins(cfg) {
		if err := r.Register(name, tool); err != nil {
			return err
		}
	}
	return nil
}

var (
	fileReadSpec = Spec{
		Name:        "file_read",
		Description: "Read a file. Returns contents with line numbers.",
		Parameters: map[string]Parameter{
			"path":   {Type: TypeString, Description: "File path, absolute or relative to the work dir", Required: true},
			"offset": {Type: TypeInteger, Description: "1-indexed first line"},
			"limit":  {Type: TypeInteger, Description: "Maximum number of lines"},
		},
		Cacheable: true,
	}
	fileWriteSpec = Spec{
		Name:        "file_write",
		Description: "Write content to a file, creating parent directories.",
		Parameters: map[string]Parameter{
			"path":    {Type: TypeString, Required: true},
			"content": {Type: TypeString, Required: true},
		},
	}
	listDirSpec = Spec{
		Name:        "list_dir",
		Description: "List the entries of a directory.",
		Parameters: map[string]Parameter{
			"path": {Type: TypeString, Description: "Directory path, defaults to the work dir"},
		},
		Cacheable: true,
	}
	fileSearchSpec = Spec{
		Name:        "file_search",
		Description: "Find files whose name matches a glob pattern.",
		Parameters: map[string]Parameter{
			"pattern": {Type: TypeString, Required: true},
			"path":    {Type: TypeString},
		},
		Cacheable: true,
	}
	contentSearchSpec = Spec{
		Name:        "content_search",
		Description: "Search file contents with ripgrep.",
		Parameters: map[string]Parameter{
			"pattern": {Type: TypeString, Required: true},
			"path":    {Type: TypeString},
			"glob":    {Type: TypeString},
		},
		Cacheable: true,
	}
	shellSpec = Spec{
		Name:        "shell",
		Description: "Run a bash command in the work dir.",
		Parameters: map[string]Parameter{
			"command": {Type: TypeString, Required: true},
			"timeout": {Type: TypeInteger, Description: "Timeout in milliseconds"},
		},
	}
	webFetchSpec = Spec{
		Name:        "web_fetch",
		Description: "Fetch a web page and return its readable text.",
		Parameters: map[string]Parameter{
			"url": {Type: TypeString, Required: true},
		},
		Cacheable: true,
	}
	webSearchSpec = Spec{
		Name:        "web_search",
		Description: "Search the web and return the top results.",
		Parameters: map[string]Parameter{
			"query": {Type: TypeString, Required: true},
		},
		Cacheable: true,
	}
)

type builtins struct {
	cfg BuiltinConfig
}

func (b *builtins) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(b.cfg.WorkDir, path)
}

func (b *builtins) fileRead(_ context.Context, args map[string]any) (any, error) {
	if err := fileReadSpec.CheckArgs(args); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(b.resolvePath(StringArg(args, "path")))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	lines := strings.Split(string(content), "\n")
	start := 0
	if offset := IntArg(args, "offset", 0); offset > 0 {
		start = offset - 1
		if start >= len(lines) {
			return nil, goerr.Wrap(ErrInvalidArgument, "offset beyond end of file", goerr.V("offset", offset))
		}
	}
	end := len(lines)
	if limit := IntArg(args, "limit", 0); limit > 0 {
		end = min(start+limit, len(lines))
	}

	var out strings.Builder
	for i := start; i < end; i++ {
		fmt.Fprintf(&out, "%6d\t%s\n", i+1, lines[i])
	}
	return out.String(), nil
}

func (b *builtins) fileWrite(_ context.Context, args map[string]any) (any, error) {
	if err := fileWriteSpec.CheckArgs(args); err != nil {
		return nil, err
	}
	path := b.resolvePath(StringArg(args, "path"))
	content := StringArg(args, "content")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}
	return fmt.Sprintf("wrote %d bytes to %s", len(content), StringArg(args, "path")), nil
}

func (b *builtins) listDir(_ context.Context, args map[string]any) (any, error) {
	entries, err := os.ReadDir(b.resolvePath(StringArg(args, "path")))
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var out strings.Builder
	for _, entry := range entries {
		info, _ := entry.Info()
		switch {
		case info == nil:
			fmt.Fprintf(&out, "? %s\n", entry.Name())
		case entry.IsDir():
			fmt.Fprintf(&out, "d %s/\n", entry.Name())
		default:
			fmt.Fprintf(&out, "- %s (%d bytes)\n", entry.Name(), info.Size())
		}
	}
	return out.String(), nil
}

func (b *builtins) fileSearch(_ context.Context, args map[string]any) (any, error) {
	if err := fileSearchSpec.CheckArgs(args); err != nil {
		return nil, err
	}
	pattern := filepath.Base(StringArg(args, "pattern"))
	root := b.cfg.WorkDir
	if p := StringArg(args, "path"); p != "" {
		root = b.resolvePath(p)
	}

	var matches []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if ok, _ := filepath.Match(pattern, d.Name()); ok {
			rel, _ := filepath.Rel(root, path)
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	if len(matches) == 0 {
		return "no files matched", nil
	}
	return strings.Join(matches, "\n"), nil
}

func (b *builtins) contentSearch(ctx context.Context, args map[string]any) (any, error) {
	if err := contentSearchSpec.CheckArgs(args); err != nil {
		return nil, err
	}
	rgArgs := []string{"--color=never", "-n"}
	if g := StringArg(args, "glob"); g != "" {
		rgArgs = append(rgArgs, "--glob", g)
	}
	root := b.cfg.WorkDir
	if p := StringArg(args, "path"); p != "" {
		root = b.resolvePath(p)
	}
	rgArgs = append(rgArgs, StringArg(args, "pattern"), root)

	ctx, cancel := context.WithTimeout(ctx, defaultSearchLimit)
	defer cancel()

	// rg exits non-zero when nothing matches.
	res, _ := b.cfg.Runner.Run(ctx, b.cfg.WorkDir, "rg", rgArgs...)
	if len(res.Output) == 0 {
		return "no matches found", nil
	}
	return truncate(string(res.Output), maxOutputBytes), nil
}

func (b *builtins) shell(ctx context.Context, args map[string]any) (any, error) {
	if err := shellSpec.CheckArgs(args); err != nil {
		return nil, err
	}
	timeout := defaultShellLimit
	if ms := IntArg(args, "timeout", 0); ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := exec.Shell(ctx, b.cfg.Runner, b.cfg.WorkDir, StringArg(args, "command"))
	output := res.Output
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("command timed out after %v: %s", timeout, truncate(string(output), maxOutputBytes))
		}
		return nil, fmt.Errorf("command failed: %w: %s", err, truncate(string(output), maxOutputBytes))
	}
	return truncate(string(output), maxOutputBytes), nil
}

func (b *builtins) webFetch(ctx context.Context, args map[string]any) (any, error) {
	if err := webFetchSpec.CheckArgs(args); err != nil {
		return nil, err
	}
	doc, err := b.getDocument(ctx, StringArg(args, "url"))
	if err != nil {
		return nil, err
	}
	return truncate(pageText(doc), maxPageBytes), nil
}

func (b *builtins) webSearch(ctx context.Context, args map[string]any) (any, error) {
	if err := webSearchSpec.CheckArgs(args); err != nil {
		return nil, err
	}
	query := StringArg(args, "query")
	doc, err := b.getDocument(ctx, b.cfg.SearchURL+"?q="+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Search: %s\n", query)
	n := 0
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find(".result__a").First()
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return true
		}
		n++
		href, _ := link.Attr("href")
		fmt.Fprintf(&out, "%d. %s\n   %s\n", n, title, href)
		if snippet := strings.TrimSpace(s.Find(".result__snippet").Text()); snippet != "" {
			fmt.Fprintf(&out, "   %s\n", snippet)
		}
		return n < b.cfg.MaxResults
	})
	if n == 0 {
		out.WriteString("no results\n")
	}
	return out.String(), nil
}

func (b *builtins) getDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidArgument, "bad url", goerr.V("url", rawURL))
	}
	req.Header.Set("User-Agent", "tandem/1.0")

	resp, err := b.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d", rawURL, resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	return doc, nil
}

// pageText reduces an HTML document to headings, paragraphs and list items.
func pageText(doc *goquery.Document) string {
	doc.Find("script, style, nav, footer, header, aside, iframe").Remove()

	var out strings.Builder
	if title := strings.TrimSpace(doc.Find("title").Text()); title != "" {
		out.WriteString("# " + title + "\n\n")
	}
	doc.Find("h1, h2, h3, p, li").Each(func(_ int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return
		}
		switch goquery.NodeName(s) {
		case "li":
			out.WriteString("- " + text + "\n")
		case "h1", "h2", "h3":
			out.WriteString("## " + text + "\n\n")
		default:
			out.WriteString(text + "\n\n")
		}
	})
	return out.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "\n... (output truncated)"
}
