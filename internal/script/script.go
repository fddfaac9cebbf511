// Package script drives renderers from a JSON-lines file.
//
// Each non-blank line is one step:
//
//	{"op": "update_effect", "renderer": 1, "effect": "fx.sleep(500)"}
//	{"op": "wait", "ms": 500}
//	{"op": "stop", "renderer": 2}
//
// Lines starting with "#" or "//" are comments.
package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Operations understood by the runner.
const (
	OpUpdateEffect  = "update_effect"
	OpRestartEffect = "restart_effect"
	OpUpdateCanvas  = "update_canvas"
	OpResize        = "resize"
	OpStart         = "start"
	OpStop          = "stop"
	OpDestroy       = "destroy"
	OpWait          = "wait"
)

// ErrInvalidStep indicates a script line that cannot be executed.
var ErrInvalidStep = errors.New("invalid script step")

// SyntaxError locates an invalid script line.
type SyntaxError struct {
	Line    int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("script line %d: %s", e.Line, e.Message)
}

func (e *SyntaxError) Unwrap() error {
	return ErrInvalidStep
}

// Step is one parsed script line.
type Step struct {
	Line     int
	Op       string
	Renderer uint64
	Effect   string
	Canvas   string
	Width    int
	Height   int
	Wait     time.Duration
}

func (s Step) String() string {
	if s.Op == OpWait {
		return fmt.Sprintf("%s %v", s.Op, s.Wait)
	}
	return fmt.Sprintf("%s #%d", s.Op, s.Renderer)
}

// ParseFile reads a script from path.
func ParseFile(path string) ([]Step, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a script. It fails on the first invalid line.
func Parse(r io.Reader) ([]Step, error) {
	var steps []Step
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		step, err := parseLine(n, line)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return steps, nil
}

func parseLine(n int, line string) (Step, error) {
	if !gjson.Valid(line) {
		return Step{}, &SyntaxError{Line: n, Message: "not valid JSON"}
	}
	doc := gjson.Parse(line)
	if !doc.IsObject() {
		return Step{}, &SyntaxError{Line: n, Message: "step must be an object"}
	}

	step := Step{Line: n, Op: doc.Get("op").String()}
	missing := func(field string) error {
		return &SyntaxError{Line: n, Message: fmt.Sprintf("%s needs %q", step.Op, field)}
	}

	if step.Op == OpWait {
		ms := doc.Get("ms")
		if !ms.Exists() || ms.Type != gjson.Number || ms.Int() < 0 {
			return Step{}, missing("ms")
		}
		step.Wait = time.Duration(ms.Int()) * time.Millisecond
		return step, nil
	}

	id := doc.Get("renderer")
	if !id.Exists() || id.Type != gjson.Number {
		return Step{}, &SyntaxError{Line: n, Message: "renderer id is required"}
	}
	step.Renderer = id.Uint()

	switch step.Op {
	case OpUpdateEffect:
		v := doc.Get("effect")
		if !v.Exists() {
			return Step{}, missing("effect")
		}
		step.Effect = v.String()
	case OpUpdateCanvas:
		v := doc.Get("canvas")
		if !v.Exists() {
			return Step{}, missing("canvas")
		}
		step.Canvas = v.String()
	case OpResize:
		w, h := doc.Get("width"), doc.Get("height")
		if !w.Exists() {
			return Step{}, missing("width")
		}
		if !h.Exists() {
			return Step{}, missing("height")
		}
		step.Width, step.Height = int(w.Int()), int(h.Int())
	case OpRestartEffect, OpStart, OpStop, OpDestroy:
	case "":
		return Step{}, &SyntaxError{Line: n, Message: "op is required"}
	default:
		return Step{}, &SyntaxError{Line: n, Message: fmt.Sprintf("unknown op %q", step.Op)}
	}
	return step, nil
}
