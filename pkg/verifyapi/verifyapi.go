// Package verifyapi is the embeddable entry point to the verifier core:
// callers that want to check a function from within another Go program
// (an LSP server, a test harness, a CI step) use Verify instead of
// shelling out to cmd/verifycore, the same way funvibe-funxy exposes
// its evaluator both as a CLI and as an importable package.
package verifyapi

import (
	"context"
	"fmt"

	"github.com/twyair/verification-project/internal/ast"
	"github.com/twyair/verification-project/internal/config"
	"github.com/twyair/verification-project/internal/function"
	"github.com/twyair/verification-project/internal/pipeline"
	"github.com/twyair/verification-project/internal/solver"
	"github.com/twyair/verification-project/internal/solver/grpcclient"
	"github.com/twyair/verification-project/internal/solver/stub"
	"github.com/twyair/verification-project/internal/verify"
)

// Options selects the verification mode and backend for one Verify call.
type Options struct {
	// Horn switches to Horn-clause invariant synthesis (spec.md §4.6)
	// instead of path-based verification.
	Horn bool

	// Config, when non-nil, overrides the defaults below — typically a
	// config.Load result from the caller's own verifier.yaml.
	Config *config.Config
}

// Result is the outcome of one Verify call, flattened for callers that
// don't want to type-switch on verify.Outcome themselves.
type Result struct {
	FunctionName string
	Outcome      verify.Outcome
	Errors       []string
}

// Verify parses source as a Parser JSON AST describing a single
// function_definition, builds it, and checks it against the backend
// named by opts.Config.Solver ("stub" by default).
func Verify(ctx context.Context, source []byte, opts Options) (Result, error) {
	root, err := ast.Parse(source)
	if err != nil {
		return Result{}, fmt.Errorf("verifyapi: decoding AST: %w", err)
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	cfg.Horn = cfg.Horn || opts.Horn

	driver, closeBackend, err := newDriver(cfg)
	if err != nil {
		return Result{}, err
	}
	defer closeBackend()

	pc := pipeline.NewContext(root, cfg.Horn)
	p := pipeline.New(pipeline.BuildProcessor{}, pipeline.VerifyProcessor{Driver: driver})
	pc = p.Run(ctx, pc)

	res := Result{Outcome: pc.Outcome}
	if pc.Fn != nil {
		res.FunctionName = pc.Fn.Name
	}
	for _, e := range pc.Errors {
		res.Errors = append(res.Errors, e.Error())
	}
	return res, nil
}

// newDriver builds a verify.Driver whose Solver/HornSolver factories
// point at cfg's chosen backend, plus a closer to release any
// out-of-process connection once the caller is done.
func newDriver(cfg *config.Config) (*verify.Driver, func(), error) {
	switch cfg.Solver {
	case "", "stub":
		return verify.New(
			func() (solver.Solver, error) { return stub.NewSolver(), nil },
			func() (solver.HornSolver, error) { return stub.NewHornSolver(), nil },
		), func() {}, nil

	case "grpc":
		client, err := grpcclient.Dial(cfg.GRPCTarget)
		if err != nil {
			return nil, nil, fmt.Errorf("verifyapi: %w", err)
		}
		driver := verify.New(
			func() (solver.Solver, error) { return client.NewSolver(), nil },
			func() (solver.HornSolver, error) { return client.NewHornSolver(), nil },
		)
		return driver, func() { client.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("verifyapi: unknown solver backend %q", cfg.Solver)
	}
}
