package parse

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/ir"
)

type (
	State struct {
		files []file
	}

	file struct {
		name string
		text []byte
	}

	SyntaxError struct {
		File string
		Line int
		Msg  string
	}

	// fileState is the reader position inside one file.
	fileState struct {
		name string
		line int

		m *ir.Module
		f *ir.Func
		b *ir.Block
	}
)

func ParseFile(ctx context.Context, name string) (*ir.Module, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	s := New()

	s.AddFile(name, data)

	return s.Parse(ctx)
}

func Parse(ctx context.Context, text []byte) (*ir.Module, error) {
	s := New()

	s.AddFile("", text)

	return s.Parse(ctx)
}

// MustParse is for tests and fixtures.
func MustParse(text string) *ir.Module {
	m, err := Parse(context.Background(), []byte(text))
	if err != nil {
		panic(err)
	}

	return m
}

func New() *State {
	return &State{}
}

func (s *State) AddFile(name string, text []byte) {
	s.files = append(s.files, file{name: name, text: text})
}

// Parse reads all added files into one module.
func (s *State) Parse(ctx context.Context) (m *ir.Module, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "parse ir", "files", len(s.files))
	defer tr.Finish("err", &err)

	m = &ir.Module{}

	for _, f := range s.files {
		err = s.parseFile(ctx, m, f)
		if err != nil {
			return nil, errors.Wrap(err, "file %v", f.name)
		}
	}

	tr.Printw("module parsed", "funcs", len(m.Funcs))

	return m, nil
}

func (s *State) parseFile(ctx context.Context, m *ir.Module, f file) error {
	st := &fileState{name: f.name, m: m}

	for _, line := range bytes.Split(f.text, []byte("\n")) {
		st.line++

		if i := bytes.Index(line, []byte("//")); i >= 0 {
			line = line[:i]
		}

		if i := bytes.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		err := st.parseLine(string(line))
		if err != nil {
			return err
		}
	}

	if st.f != nil {
		return st.errorf("func %v: missing closing brace", st.f.Name)
	}

	return nil
}

func (s *fileState) errorf(format string, args ...any) error {
	return SyntaxError{File: s.name, Line: s.line, Msg: fmt.Sprintf(format, args...)}
}

func (e SyntaxError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}

	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}
