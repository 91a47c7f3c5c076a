package format

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/parse"
)

const canonical = `func main() {
entry:
	param 5
	r = call fact, 1
	ifnz r, done
	x = !r
	ret x
done:
	ret
}

func fact(n) {
entry:
	c = n <= 1
	ifz c, rec
	ret 1
rec:
	t1 = n - 1
	param t1
	t2 = call fact, 1
	t3 = t2 * n
	ret t3
}
`

func TestRoundTrip(t *testing.T) {
	m := parse.MustParse(canonical)

	assert.Equal(t, canonical, String(m))

	again := parse.MustParse(String(m))

	assert.Equal(t, m, again)
}

func TestUnsupported(t *testing.T) {
	_, err := Format(context.Background(), nil, 5)
	assert.Error(t, err)
}
