package effect

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// ChunkName is the source name reported in effect error messages.
const ChunkName = "effect"

// DefaultCompileTimeout bounds how long an effect source may run. It is
// kept below one frame at 60 FPS.
const DefaultCompileTimeout = 10 * time.Millisecond

// ErrInvalidEffect is wrapped by every CompileError.
var ErrInvalidEffect = errors.New("invalid effect source")

// CompileError reports why an effect source could not be compiled.
type CompileError struct {
	Message string
	Context string // Source line the error points at
	Line    int    // 1-based, 0 when unknown
	Column  int    // 1-based, 0 when unknown
}

func (e *CompileError) Error() string {
	var sb strings.Builder
	switch {
	case e.Line > 0 && e.Column > 0:
		fmt.Fprintf(&sb, "line %d, column %d: %s", e.Line, e.Column, e.Message)
	case e.Line > 0:
		fmt.Fprintf(&sb, "line %d: %s", e.Line, e.Message)
	default:
		sb.WriteString(e.Message)
	}
	if e.Context != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Context)
		if e.Column > 0 {
			sb.WriteString("\n")
			sb.WriteString(strings.Repeat(" ", e.Column-1))
			sb.WriteString("^")
		}
	}
	return sb.String()
}

func (e *CompileError) Unwrap() error {
	return ErrInvalidEffect
}

// Compiler builds effects from Lua source. Each compilation runs in a
// fresh sandboxed state, so a Compiler is safe for concurrent use.
//
// A source is either a single expression such as
//
//	fx.fade_from_fg("#ff8000", {800, "quad_out"})
//
// or a chunk that returns an effect.
//
// Sessions compile on the goroutine that draws frames, so a slow source
// delays every instance sharing that goroutine by up to the compile
// timeout.
type Compiler struct {
	timeout time.Duration
	print   func(string)
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithCompileTimeout bounds the run time of a single compilation.
func WithCompileTimeout(d time.Duration) CompilerOption {
	return func(c *Compiler) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithPrintHandler receives the output of print calls made by sources.
// Without a handler print output is discarded.
func WithPrintHandler(fn func(string)) CompilerOption {
	return func(c *Compiler) {
		c.print = fn
	}
}

// NewCompiler creates a compiler.
func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{timeout: DefaultCompileTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile runs src and returns the effect it evaluates to.
// Failures are reported as *CompileError.
func (c *Compiler) Compile(ctx context.Context, src string) (eff Effect, err error) {
	if strings.TrimSpace(src) == "" {
		return nil, &CompileError{Message: "effect source is empty"}
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openSafeLibraries(L)
	installSandbox(L, c.print)
	registerLibrary(L)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	L.SetContext(ctx)

	fn, err := load(L, src)
	if err != nil {
		return nil, syntaxError(src, err)
	}

	defer func() {
		if r := recover(); r != nil {
			eff = nil
			err = &CompileError{Message: fmt.Sprintf("panic: %v", r)}
		}
	}()

	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &CompileError{Message: fmt.Sprintf("evaluation aborted: %v", ctxErr)}
		}
		return nil, runtimeError(src, err)
	}
	ret := L.Get(-1)
	L.Pop(1)

	if ud, ok := ret.(*lua.LUserData); ok {
		if e, ok := ud.Value.(Effect); ok {
			return e, nil
		}
	}
	return nil, &CompileError{Message: fmt.Sprintf("source must evaluate to an effect, got %s", ret.Type())}
}

// load compiles src as an expression first and as a chunk second.
func load(L *lua.LState, src string) (*lua.LFunction, error) {
	if fn, err := L.Load(strings.NewReader("return "+src), ChunkName); err == nil {
		return fn, nil
	}
	return L.Load(strings.NewReader(src), ChunkName)
}

// openSafeLibraries opens the libraries an effect source may use.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// installSandbox removes globals that load code or touch the host.
func installSandbox(L *lua.LState, print func(string)) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module", "collectgarbage"} {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		if print == nil {
			return 0
		}
		parts := make([]string, L.GetTop())
		for i := range parts {
			parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
		}
		print(strings.Join(parts, "\t"))
		return 0
	}))
}

// syntaxError converts a load failure into a CompileError with position.
func syntaxError(src string, err error) *CompileError {
	cause := err
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Cause != nil {
		cause = apiErr.Cause
	}

	var perr *parse.Error
	if !errors.As(cause, &perr) {
		return &CompileError{Message: strings.TrimSpace(err.Error())}
	}

	lines := strings.Split(src, "\n")
	line, col := perr.Pos.Line, perr.Pos.Column
	if line < 1 || line > len(lines) {
		// Unexpected end of input.
		line = len(lines)
		col = len(lines[line-1]) + 1
	}
	msg := perr.Message
	if perr.Token != "" {
		msg = fmt.Sprintf("%s near '%s'", msg, perr.Token)
	}
	return &CompileError{
		Message: msg,
		Context: lines[line-1],
		Line:    line,
		Column:  max(col, 1),
	}
}

var runtimePos = regexp.MustCompile(`^` + ChunkName + `:(\d+):\s*`)

// runtimeError converts an evaluation failure into a CompileError.
func runtimeError(src string, err error) *CompileError {
	msg := err.Error()
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		msg = apiErr.Object.String()
	}

	ce := &CompileError{Message: msg}
	if m := runtimePos.FindStringSubmatch(msg); m != nil {
		ce.Message = msg[len(m[0]):]
		if n, convErr := strconv.Atoi(m[1]); convErr == nil {
			lines := strings.Split(src, "\n")
			if n >= 1 && n <= len(lines) {
				ce.Line = n
				ce.Context = lines[n-1]
			}
		}
	}
	return ce
}
