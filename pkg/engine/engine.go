// Package engine evaluates hullform design scripts. It wraps zygomys in a
// sandboxed environment, exposes the boat builtins, and produces a
// DesignGraph from the script and a parameter set.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/hullform/pkg/graph"
	"github.com/chazu/hullform/pkg/kernel"
	"github.com/chazu/hullform/pkg/kernel/sdfx"
	"github.com/chazu/hullform/pkg/params"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine wraps the zygomys interpreter for design evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	kernel  kernel.Kernel
	timeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithKernel sets the kernel used for bounding-box queries while wiring.
func WithKernel(k kernel.Kernel) Option {
	return func(e *Engine) { e.kernel = k }
}

// WithTimeout overrides EvalTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{timeout: EvalTimeout}
	for _, o := range opts {
		o(e)
	}
	if e.kernel == nil {
		e.kernel = sdfx.New()
	}
	return e
}

// Evaluate runs a design script against ps and produces a new DesignGraph.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns graph + nil errors + nil error
//   - On parse/eval failure: returns nil graph + eval errors + nil error
//   - On fatal failure (timeout, cancellation, panic): returns nil + nil + error
func (e *Engine) Evaluate(ctx context.Context, source string, ps *params.ParameterSet) (*graph.DesignGraph, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		g, evalErrs, err := e.evaluate(ctx, source, ps)
		ch <- evalResult{graph: g, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ctx, ch, e.timeout, gen, &e.mu, &e.generation)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(ctx context.Context, source string, ps *params.ParameterSet) (*graph.DesignGraph, []EvalError, error) {
	// Empty source is a valid program that produces an empty graph.
	if strings.TrimSpace(source) == "" {
		return graph.New(), nil, nil
	}
	if ps == nil {
		ps = &params.ParameterSet{}
	}

	// Sandbox mode prevents scripts from touching the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	g := graph.New()
	registerBuiltins(env, &scope{ctx: ctx, g: g, ps: ps, kernel: e.kernel})

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return g, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatchIndex(msg); m != nil {
			line, _ := strconv.Atoi(msg[m[2]:m[3]])
			detail := strings.TrimSpace(msg[m[4]:m[5]])
			// Keep any builtin error that precedes the location.
			if prefix := strings.TrimSpace(msg[:m[0]]); prefix != "" {
				detail = strings.TrimSpace(prefix + " " + detail)
			}
			return []EvalError{{Line: line, Message: detail}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
