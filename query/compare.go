package query

import (
	"fmt"
	"strconv"
)

// match reports whether field's current value satisfies filter. It
// tries numeric comparison first (the common case: line, index,
// threadId, …), falling back to string comparison so boolean and
// string fields (state=stopped) still work with the same operator
// set.
func match(value any, f Filter) bool {
	if a, b, ok := asFloats(value, f.Value); ok {
		return compareOrdered(a, b, f.Op)
	}
	a := fmt.Sprintf("%v", value)
	return compareOrdered(a, f.Value, f.Op)
}

func asFloats(value any, raw string) (float64, float64, bool) {
	b, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, b, true
	case float32:
		return float64(v), b, true
	case int:
		return float64(v), b, true
	case int64:
		return float64(v), b, true
	default:
		return 0, 0, false
	}
}

func compareOrdered[T int | float64 | string](a, b T, op Op) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	default:
		return false
	}
}
