// Package bitmap is a flat bit set over []uint32 words.
package bitmap

import "math/bits"

// Words is the number of words needed to hold n bits.
func Words(n int) int {
	return (n + 31) / 32
}

// Grow extends u with zero words until it holds n bits.
func Grow(u []uint32, n int) []uint32 {
	for w := Words(n); len(u) < w; {
		u = append(u, 0)
	}
	return u
}

func pos(id int) (int, uint32) {
	return id >> 5, 1 << (id & 31)
}

// Set marks id and reports whether it was clear before.
func Set(u []uint32, id int) bool {
	k, b := pos(id)
	was := u[k]
	u[k] |= b
	return was&b == 0
}

// Unset clears id and reports whether it was set before.
func Unset(u []uint32, id int) bool {
	k, b := pos(id)
	was := u[k]
	u[k] &^= b
	return was&b != 0
}

// Has reports whether id is set. Ids beyond the bitmap are clear.
func Has(u []uint32, id int) bool {
	k, b := pos(id)
	return id >= 0 && k < len(u) && u[k]&b != 0
}

func Count(u []uint32) int {
	n := 0
	for _, v := range u {
		n += bits.OnesCount32(v)
	}
	return n
}

// Loop calls f for every set bit in ascending order until f returns false.
func Loop(u []uint32, f func(id int) bool) {
	for k, v := range u {
		for v != 0 {
			i := bits.TrailingZeros32(v)
			if !f(k*32 + i) {
				return
			}
			v &= v - 1
		}
	}
}
