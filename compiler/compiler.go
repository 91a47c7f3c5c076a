package compiler

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/back"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/format"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/ir"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/opt"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/parse"
)

type (
	Config struct {
		// Alloc is the register allocation strategy, see regalloc.Names.
		Alloc string

		Optimize bool
		Global   bool
		MaxIter  int
	}
)

func DefaultConfig() Config {
	return Config{
		Alloc:    "linear",
		Optimize: true,
	}
}

func CompileFile(ctx context.Context, name string, cfg Config) (obj []byte, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, name, text, cfg)
}

// Compile parses IR text and compiles it to assembly.
func Compile(ctx context.Context, name string, text []byte, cfg Config) (obj []byte, err error) {
	st := parse.New()

	st.AddFile(name, text)

	m, err := st.Parse(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	return CompileModule(ctx, m, cfg)
}

// CompileModule optimizes m in place if configured and generates assembly.
func CompileModule(ctx context.Context, m *ir.Module, cfg Config) (obj []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile module", "alloc", cfg.Alloc, "optimize", cfg.Optimize)
	defer tr.Finish("err", &err)

	if cfg.Optimize {
		_, err = Optimize(ctx, m, cfg)
		if err != nil {
			return nil, errors.Wrap(err, "optimize")
		}
	}

	obj, err = back.New(cfg.Alloc).CompilePackage(ctx, nil, m)
	if err != nil {
		return nil, errors.Wrap(err, "codegen")
	}

	return obj, nil
}

// Optimize runs the optimizer over m in a fresh session.
func Optimize(ctx context.Context, m *ir.Module, cfg Config) (st opt.Stats, err error) {
	s := ir.NewSession(m)

	st, err = opt.Run(ctx, s, opt.Options{Global: cfg.Global, MaxIter: cfg.MaxIter})
	if err != nil {
		return st, err
	}

	if tr := tlog.SpanFromContext(ctx); tr.If("dump_ir") {
		tr.Printw("optimized ir", "ir", format.String(m))
	}

	return st, nil
}
