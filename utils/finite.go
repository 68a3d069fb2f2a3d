package utils

import "math"

// Finite は全ての値がNaNでも±Infでもない場合にtrueを返します。
func Finite(values ...float64) bool {
	for _, v := range values {
		if !isFinite(v) {
			return false
		}
	}
	return true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
