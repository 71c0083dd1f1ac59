package placement

import "math"

// Mat4 is a 4x4 matrix stored in column-major order, element (row r,
// column c) at index c*4+r. Vectors are columns: p' = M * p.
type Mat4 [16]float64

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Multiply returns m * b.
func (m Mat4) Multiply(b Mat4) Mat4 {
	var out Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out[c*4+r] = m[r]*b[c*4] + m[4+r]*b[c*4+1] + m[8+r]*b[c*4+2] + m[12+r]*b[c*4+3]
		}
	}
	return out
}

// Translate returns m * T(x, y, z).
func (m Mat4) Translate(x, y, z float64) Mat4 {
	t := Identity()
	t[12], t[13], t[14] = x, y, z
	return m.Multiply(t)
}

// Scale returns m * S(x, y, z).
func (m Mat4) Scale(x, y, z float64) Mat4 {
	s := Identity()
	s[0], s[5], s[10] = x, y, z
	return m.Multiply(s)
}

// RotateX returns m rotated around the X axis by rad radians.
func (m Mat4) RotateX(rad float64) Mat4 {
	sin, cos := math.Sincos(rad)
	r := Identity()
	r[5], r[6] = cos, sin
	r[9], r[10] = -sin, cos
	return m.Multiply(r)
}

// RotateZ returns m rotated around the Z axis by rad radians.
func (m Mat4) RotateZ(rad float64) Mat4 {
	sin, cos := math.Sincos(rad)
	r := Identity()
	r[0], r[1] = cos, sin
	r[4], r[5] = -sin, cos
	return m.Multiply(r)
}

// Perspective returns a projection matrix with the given vertical field of
// view (radians), aspect ratio and clip planes.
func Perspective(fovy, aspect, near, far float64) Mat4 {
	f := 1 / math.Tan(fovy/2)
	nf := 1 / (near - far)
	var out Mat4
	out[0] = f / aspect
	out[5] = f
	out[10] = (far + near) * nf
	out[11] = -1
	out[14] = 2 * far * near * nf
	return out
}

// Invert returns the inverse of m. ok is false when m is singular, in which
// case the identity is returned.
func (m Mat4) Invert() (inv Mat4, ok bool) {
	a00, a01, a02, a03 := m[0], m[1], m[2], m[3]
	a10, a11, a12, a13 := m[4], m[5], m[6], m[7]
	a20, a21, a22, a23 := m[8], m[9], m[10], m[11]
	a30, a31, a32, a33 := m[12], m[13], m[14], m[15]

	b00 := a00*a11 - a01*a10
	b01 := a00*a12 - a02*a10
	b02 := a00*a13 - a03*a10
	b03 := a01*a12 - a02*a11
	b04 := a01*a13 - a03*a11
	b05 := a02*a13 - a03*a12
	b06 := a20*a31 - a21*a30
	b07 := a20*a32 - a22*a30
	b08 := a20*a33 - a23*a30
	b09 := a21*a32 - a22*a31
	b10 := a21*a33 - a23*a31
	b11 := a22*a33 - a23*a32

	det := b00*b11 - b01*b10 + b02*b09 + b03*b08 - b04*b07 + b05*b06
	if det > -1e-12 && det < 1e-12 {
		return Identity(), false
	}
	d := 1 / det

	return Mat4{
		(a11*b11 - a12*b10 + a13*b09) * d,
		(a02*b10 - a01*b11 - a03*b09) * d,
		(a31*b05 - a32*b04 + a33*b03) * d,
		(a22*b04 - a21*b05 - a23*b03) * d,
		(a12*b08 - a10*b11 - a13*b07) * d,
		(a00*b11 - a02*b08 + a03*b07) * d,
		(a32*b02 - a30*b05 - a33*b01) * d,
		(a20*b05 - a22*b02 + a23*b01) * d,
		(a10*b10 - a11*b08 + a13*b06) * d,
		(a01*b08 - a00*b10 - a03*b06) * d,
		(a30*b04 - a31*b02 + a33*b00) * d,
		(a21*b02 - a20*b04 - a23*b00) * d,
		(a11*b07 - a10*b09 - a12*b06) * d,
		(a00*b09 - a01*b07 + a02*b06) * d,
		(a31*b01 - a30*b03 - a32*b00) * d,
		(a20*b03 - a21*b01 + a22*b00) * d,
	}, true
}

// TransformVec4 returns m * v.
func (m Mat4) TransformVec4(v [4]float64) [4]float64 {
	return [4]float64{
		m[0]*v[0] + m[4]*v[1] + m[8]*v[2] + m[12]*v[3],
		m[1]*v[0] + m[5]*v[1] + m[9]*v[2] + m[13]*v[3],
		m[2]*v[0] + m[6]*v[1] + m[10]*v[2] + m[14]*v[3],
		m[3]*v[0] + m[7]*v[1] + m[11]*v[2] + m[15]*v[3],
	}
}

// Project transforms the point (x, y, 0, 1) and returns its perspective
// divided XY and the homogeneous W.
func (m Mat4) Project(p Vec2) (Vec2, float64) {
	v := m.TransformVec4([4]float64{p.X, p.Y, 0, 1})
	w := v[3]
	if w == 0 {
		return Vec2{v[0], v[1]}, 0
	}
	return Vec2{v[0] / w, v[1] / w}, w
}
