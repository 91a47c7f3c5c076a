package asm

import (
	"fmt"
	"strings"
)

// Op appends one instruction line: a tab, the mnemonic and comma separated operands.
func Op(b []byte, mnemonic string, args ...any) []byte {
	b = append(b, '\t')
	b = append(b, mnemonic...)

	for i, a := range args {
		if i == 0 {
			b = append(b, ' ')
		} else {
			b = append(b, ", "...)
		}

		b = fmt.Append(b, a)
	}

	return append(b, '\n')
}

func Label(b []byte, name string) []byte {
	b = append(b, name...)
	return append(b, ":\n"...)
}

func Directive(b []byte, name string, args ...string) []byte {
	b = append(b, '\t')
	b = append(b, name...)

	if len(args) != 0 {
		b = append(b, ' ')
		b = append(b, strings.Join(args, ", ")...)
	}

	return append(b, '\n')
}

// Lines splits assembly text into trimmed non-empty lines.
func Lines(text []byte) []string {
	var r []string

	for _, l := range strings.Split(string(text), "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			r = append(r, l)
		}
	}

	return r
}
