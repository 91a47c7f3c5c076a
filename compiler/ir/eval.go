package ir

// Eval computes a binary op or Not on constants with the target's 32-bit
// integer semantics: results wrap, and MinInt32 / -1 gives MinInt32 with
// remainder 0. Division and modulo by zero are not evaluated.
func Eval(op Op, a, b int64) (r int64, ok bool) {
	x, y := int32(a), int32(b)

	switch op {
	case Add:
		return int64(x + y), true
	case Sub:
		return int64(x - y), true
	case Mul:
		return int64(x * y), true
	case Div:
		if y == 0 {
			return 0, false
		}

		return int64(x / y), true
	case Mod:
		if y == 0 {
			return 0, false
		}

		return int64(x % y), true
	case Eq:
		return bool2int(x == y), true
	case Neq:
		return bool2int(x != y), true
	case Lt:
		return bool2int(x < y), true
	case Gt:
		return bool2int(x > y), true
	case Le:
		return bool2int(x <= y), true
	case Ge:
		return bool2int(x >= y), true
	case Not:
		return bool2int(x == 0), true
	}

	return 0, false
}

func bool2int(x bool) int64 {
	if x {
		return 1
	}

	return 0
}
