package rotation

// DeriveSeed maps an opaque identifier to a non-negative seed. The rolling
// hash wraps at 32-bit signed boundaries on every step, so the same party
// identifier yields the same square on every platform. An empty identifier
// yields 0.
func DeriveSeed(identifier string) int64 {
	var h int32
	for _, ch := range identifier {
		h = h*31 + ch
	}
	// Widen before negating: the accumulator can sit exactly on the minimum
	// 32-bit value, whose absolute value has no int32 representation.
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}
