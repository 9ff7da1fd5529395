package hypermath

import "math/bits"

// multivector is a full element of the geometric algebra of Euclidean 4-space. Components are
// indexed by blade bitmask: bit 0 is e1, bit 1 is e2, bit 2 is e3 and bit 3 is e4, so index
// 0b0011 is e12 and 0b1111 is the pseudoscalar e1234.
type multivector [16]float64

// rotorBlades maps the eight Rotor components, in struct order, to their blade bitmasks.
var rotorBlades = [8]int{
	0b0000, // scalar
	0b0011, // e12
	0b0101, // e13
	0b1001, // e14
	0b0110, // e23
	0b1010, // e24
	0b1100, // e34
	0b1111, // e1234
}

// bladeSign returns the sign picked up when the product of blades a and b is reordered into
// canonical (ascending) basis order. All basis vectors square to +1.
func bladeSign(a, b int) float64 {
	a >>= 1
	swaps := 0
	for a != 0 {
		swaps += bits.OnesCount(uint(a & b))
		a >>= 1
	}
	if swaps&1 == 1 {
		return -1
	}
	return 1
}

// mul returns the geometric product m·o.
func (m multivector) mul(o multivector) multivector {
	var out multivector
	for i := range m {
		if m[i] == 0 {
			continue
		}
		for j := range o {
			if o[j] == 0 {
				continue
			}
			out[i^j] += bladeSign(i, j) * m[i] * o[j]
		}
	}
	return out
}

// reverse returns the reversion of m: grades 2 and 3 change sign.
func (m multivector) reverse() multivector {
	out := m
	for i := range out {
		switch bits.OnesCount(uint(i)) {
		case 2, 3:
			out[i] = -out[i]
		}
	}
	return out
}

func vectorBlade(v Vec4) multivector {
	var m multivector
	m[0b0001] = v.X
	m[0b0010] = v.Y
	m[0b0100] = v.Z
	m[0b1000] = v.W
	return m
}

func (m multivector) vectorPart() Vec4 {
	return Vec4{m[0b0001], m[0b0010], m[0b0100], m[0b1000]}
}
