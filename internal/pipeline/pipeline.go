// Package pipeline runs a verification request through a fixed sequence
// of stages, grounded on funvibe-funxy's internal/pipeline.Pipeline
// (a processor chain threaded through a shared context struct, used
// there for lex/parse/analyze and here for build/enumerate/verify).
package pipeline

import (
	"context"

	"github.com/twyair/verification-project/internal/diagnostics"
	gast "github.com/twyair/verification-project/internal/ast"
	"github.com/twyair/verification-project/internal/function"
	"github.com/twyair/verification-project/internal/verify"
)

// Context carries one function-definition request through every stage,
// accumulating whichever artifacts each Processor produces, mirroring
// funvibe-funxy's PipelineContext (TokenStream -> AstRoot -> ... with
// Errors collected across every stage rather than aborting at the
// first).
type Context struct {
	Horn bool

	AST     *gast.Node
	Fn      *function.Function
	Outcome verify.Outcome

	Errors []*diagnostics.Error
}

// NewContext starts a pipeline run over root in the given mode.
func NewContext(root *gast.Node, horn bool) *Context {
	return &Context{AST: root, Horn: horn}
}

// Processor is one pipeline stage. It should keep going and append to
// pc.Errors rather than stop the chain outright — later stages may
// still have diagnostics worth collecting (spec.md §7's "builder and
// enumerator fail fast" applies within a stage, not across stages).
type Processor interface {
	Process(ctx context.Context, pc *Context) *Context
}

// Pipeline is an ordered sequence of Processors.
type Pipeline struct {
	processors []Processor
}

// New builds a Pipeline from its stages in run order.
func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run threads initial through every stage in order.
func (p *Pipeline) Run(ctx context.Context, initial *Context) *Context {
	pc := initial
	for _, proc := range p.processors {
		if ctx.Err() != nil {
			break
		}
		pc = proc.Process(ctx, pc)
	}
	return pc
}

// BuildProcessor turns pc.AST into pc.Fn via function.FromAST.
type BuildProcessor struct{}

func (BuildProcessor) Process(_ context.Context, pc *Context) *Context {
	fn, err := function.FromAST(pc.AST, pc.Horn)
	if err != nil {
		pc.Errors = append(pc.Errors, err)
		return pc
	}
	pc.Fn = fn
	return pc
}

// VerifyProcessor drives pc.Fn through a verify.Driver, populating
// pc.Outcome. It is a no-op if an earlier stage already failed.
type VerifyProcessor struct {
	Driver *verify.Driver
}

func (v VerifyProcessor) Process(ctx context.Context, pc *Context) *Context {
	if pc.Fn == nil || len(pc.Errors) > 0 {
		return pc
	}
	outcome, err := v.Driver.Check(ctx, pc.Fn)
	if err != nil {
		pc.Errors = append(pc.Errors, diagnostics.NewNoRange(diagnostics.ErrSolverFailure, err.Error()))
		return pc
	}
	pc.Outcome = outcome
	return pc
}
