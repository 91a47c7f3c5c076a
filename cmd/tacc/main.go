package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/poxiaochangkong/Compiler-sub000/compiler"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/cfg"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/df"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/format"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/parse"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/regalloc"
)

func main() {
	optFlags := []*cli.Flag{
		cli.NewFlag("global", false, "enable dataflow driven constant propagation and cse"),
		cli.NewFlag("max-iter", 0, "optimizer iteration limit, 0 for default"),
	}

	optCmd := &cli.Command{
		Name:        "opt",
		Description: "optimize IR and print the result",
		Action:      optAct,
		Args:        cli.Args{},
		Flags:       optFlags,
	}

	compileCmd := &cli.Command{
		Name:        "compile",
		Description: "compile IR to assembly",
		Action:      compileAct,
		Args:        cli.Args{},
		Flags: append([]*cli.Flag{
			cli.NewFlag("alloc", "linear", "register allocator: "+strings.Join(regalloc.Names, ", ")),
			cli.NewFlag("O", true, "optimize before code generation"),
		}, optFlags...),
	}

	cfgCmd := &cli.Command{
		Name:        "cfg",
		Description: "print control flow graphs with liveness",
		Action:      cfgAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "tacc",
		Description: "tacc optimizes three-address IR and compiles it to RISC assembly",
		Flags: []*cli.Flag{
			cli.NewFlag("verbosity,v", "", "logger verbosity topics"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			optCmd,
			compileCmd,
			cfgCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func setup(c *cli.Command) context.Context {
	if v := c.String("verbosity"); v != "" {
		tlog.SetVerbosity(v)
	}

	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	return ctx
}

func config(c *cli.Command, codegen bool) compiler.Config {
	cfg := compiler.DefaultConfig()

	cfg.Global = c.Bool("global")
	cfg.MaxIter = c.Int("max-iter")

	if codegen {
		cfg.Alloc = c.String("alloc")
		cfg.Optimize = c.Bool("O")
	}

	return cfg
}

func optAct(c *cli.Command) (err error) {
	ctx := setup(c)
	conf := config(c, false)

	for _, a := range c.Args {
		m, err := parse.ParseFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "parse %v", a)
		}

		st, err := compiler.Optimize(ctx, m, conf)
		if err != nil {
			return errors.Wrap(err, "optimize %v", a)
		}

		tlog.Printw("optimized", "file", a, "iterations", st.Iterations, "changes", st.Changes)

		fmt.Printf("%s", format.String(m))
	}

	return nil
}

func compileAct(c *cli.Command) (err error) {
	ctx := setup(c)
	conf := config(c, true)

	for _, a := range c.Args {
		obj, err := compiler.CompileFile(ctx, a, conf)
		if err != nil {
			return errors.Wrap(err, "compile %v", a)
		}

		fmt.Printf("%s", obj)
	}

	return nil
}

func cfgAct(c *cli.Command) (err error) {
	ctx := setup(c)

	for _, a := range c.Args {
		m, err := parse.ParseFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "parse %v", a)
		}

		for _, f := range m.Funcs {
			g := cfg.Build(ctx, f)
			iters := df.Liveness(ctx, g)

			fmt.Printf("func %v (liveness converged in %d sweeps)\n", f.Name, iters)

			for _, n := range g.Nodes {
				fmt.Printf("  %v: preds %v succs %v\n", g.Block(n).Label, labels(g, n.Preds), labels(g, n.Succs))
				fmt.Printf("    live in  %v\n", g.Vars.Keys(n.LiveIn))
				fmt.Printf("    live out %v\n", g.Vars.Keys(n.LiveOut))
			}

			for _, an := range g.Anomalies {
				fmt.Printf("  anomaly: %v\n", an)
			}
		}
	}

	return nil
}

func labels(g *cfg.Graph, ids []int) []string {
	l := make([]string, len(ids))

	for i, id := range ids {
		l[i] = g.Func.Blocks[id].Label
	}

	return l
}
