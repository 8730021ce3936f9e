// Command verifycore is the CLI entry point for the deductive verifier
// core: it reads a Parser JSON AST from a file, builds the requested
// function, drives it through a Solver backend, and reports the
// resulting verdict. Subcommand dispatch over os.Args follows
// funvibe-funxy's cmd/funxy/main.go convention rather than the flag
// package.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	gast "github.com/twyair/verification-project/internal/ast"
	"github.com/twyair/verification-project/internal/config"
	"github.com/twyair/verification-project/internal/function"
	"github.com/twyair/verification-project/internal/solver"
	"github.com/twyair/verification-project/internal/solver/stub"
	"github.com/twyair/verification-project/internal/verify"
)

func main() {
	if len(os.Args) < 3 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	astPath := os.Args[2]

	horn := cmd == "horn"
	if cmd != "check" && cmd != "check-iter" && cmd != "horn" {
		usage()
		os.Exit(1)
	}

	data, err := os.ReadFile(astPath)
	if err != nil {
		fatal("reading AST file: %v", err)
	}

	root, err := gast.Parse(data)
	if err != nil {
		fatal("decoding Parser document: %v", err)
	}

	fn, derr := function.FromAST(root, horn)
	if derr != nil {
		fatal("%s", derr.Error())
	}

	driver := verify.New(
		func() (solver.Solver, error) { return stub.NewSolver(), nil },
		func() (solver.HornSolver, error) { return stub.NewHornSolver(), nil },
	)

	start := time.Now()
	ctx := context.Background()
	var outcome verify.Outcome
	var checkErr error
	if cmd == "check-iter" {
		outcome, checkErr = driver.CheckIter(ctx, fn)
	} else {
		outcome, checkErr = driver.Check(ctx, fn)
	}
	elapsed := time.Since(start)

	if checkErr != nil {
		fatal("solver error: %v", checkErr)
	}

	report(fn.Name, outcome, elapsed)
	if !outcome.IsOk() {
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s <check|check-iter|horn> <ast.json>\n", os.Args[0])
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "verifycore: "+format+"\n", args...)
	os.Exit(1)
}

func report(name string, outcome verify.Outcome, elapsed time.Duration) {
	color := colorize()
	switch o := outcome.(type) {
	case verify.Ok:
		fmt.Printf("%s %s verified in %s\n", color("OK", 32), name, humanize.RelTime(time.Now().Add(-elapsed), time.Now(), "", ""))
	case verify.HornOk:
		fmt.Printf("%s %s: Horn system satisfiable\n", color("OK", 32), name)
		for _, e := range o.Model.Entries() {
			fmt.Printf("  %s = %s\n", e.Name, e.Value)
		}
	case verify.CounterExample:
		fmt.Printf("%s %s: counterexample found\n", color("FAIL", 31), name)
		if o.Model != nil {
			for _, e := range o.Model.Entries() {
				fmt.Printf("  %s = %s\n", e.Name, e.Value)
			}
		}
	case verify.HornFail:
		fmt.Printf("%s %s: no invariant found for the chosen cutpoints\n", color("FAIL", 31), name)
	case verify.Unknown:
		fmt.Printf("%s %s: solver returned unknown\n", color("UNKNOWN", 33), name)
	}
	fmt.Printf("  %s elapsed\n", humanize.SIWithDigits(elapsed.Seconds(), 2, "s"))
	_ = config.Version
}

// colorize returns a function wrapping text in an ANSI color code, or a
// no-op when stdout isn't a terminal (mirrors funvibe-funxy's
// termIsTTY isatty check before emitting ANSI codes).
func colorize() func(string, int) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return func(s string, _ int) string { return s }
	}
	return func(s string, code int) string { return fmt.Sprintf("\x1b[%dm%s\x1b[0m", code, s) }
}
