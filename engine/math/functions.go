package math

import (
	m "math"
)

const (
	/** @brief An approximate representation of PI. */
	K_PI float32 = 3.14159265358979323846
	/** @brief An approximate representation of PI multiplied by 2. */
	K_PI_2 float32 = 2.0 * K_PI
	/** @brief An approximate representation of PI divided by 2. */
	K_HALF_PI float32 = 0.5 * K_PI
	/** @brief A multiplier used to convert degrees to radians. */
	K_DEG2RAD_MULTIPLIER float32 = K_PI / 180.0
	/** @brief The multiplier to convert seconds to milliseconds. */
	K_SEC_TO_MS_MULTIPLIER float32 = 1000.0
	/** @brief A huge number that should be larger than any valid number used. */
	K_INFINITY float32 = 1e30
	/** @brief Smallest positive number where 1.0 + FLOAT_EPSILON != 0 */
	K_FLOAT_EPSILON float32 = 1.192092896e-07
)

func ksin(x float32) float32 {
	return float32(m.Sin(float64(x)))
}

func kcos(x float32) float32 {
	return float32(m.Cos(float64(x)))
}

func ktan(x float32) float32 {
	return float32(m.Tan(float64(x)))
}

func ksqrt(x float32) float32 {
	return float32(m.Sqrt(float64(x)))
}

func kabs(x float32) float32 {
	return float32(m.Abs(float64(x)))
}

// ------------------------------------------
// Vector 2
// ------------------------------------------

func NewVec2(x, y float32) Vec2 {
	return Vec2{x, y}
}

// ------------------------------------------
// Vector 3
// ------------------------------------------

/**
 * @brief Creates and returns a new 3-element vector using the supplied values.
 *
 * @param x The x value.
 * @param y The y value.
 * @param z The z value.
 * @return A new 3-element vector.
 */
func NewVec3(x, y, z float32) Vec3 {
	return Vec3{x, y, z}
}

/**
 * @brief Returns a new vec4 using vector as the x, y and z components and w for w.
 */
func (v Vec3) ToVec4(w float32) Vec4 {
	return Vec4{v.X, v.Y, v.Z, w}
}

func NewVec3Zero() Vec3 {
	return Vec3{0.0, 0.0, 0.0}
}

func NewVec3Up() Vec3 {
	return Vec3{0.0, 1.0, 0.0}
}

func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		v.X + other.X,
		v.Y + other.Y,
		v.Z + other.Z}
}

func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		v.X - other.X,
		v.Y - other.Y,
		v.Z - other.Z}
}

/**
 * @brief Multiplies all elements of the vector by scalar and returns a copy of the result.
 *
 * @param scalar The scalar value.
 * @return A copy of the resulting vector.
 */
func (v Vec3) MulScalar(scalar float32) Vec3 {
	return Vec3{
		v.X * scalar,
		v.Y * scalar,
		v.Z * scalar}
}

func (v Vec3) LengthSquared() float32 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

func (v Vec3) Length() float32 {
	return ksqrt(v.LengthSquared())
}

/**
 * @brief Returns a unit-length copy of the vector. A zero vector is
 * returned unchanged.
 */
func (v Vec3) Normalized() Vec3 {
	length := v.Length()
	if length == 0 {
		return v
	}
	return Vec3{
		v.X / length,
		v.Y / length,
		v.Z / length}
}

/**
 * @brief Returns the dot product between the provided vectors. Typically used
 * to calculate the difference in direction.
 *
 * @param other The second vector.
 * @return The dot product.
 */
func (v Vec3) Dot(other Vec3) float32 {
	p := float32(0)
	p += v.X * other.X
	p += v.Y * other.Y
	p += v.Z * other.Z
	return p
}

/**
 * @brief Calculates and returns the cross product of the supplied vectors.
 * The cross product is a new vector which is orthoganal to both provided vectors.
 */
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		v.Y*other.Z - v.Z*other.Y,
		v.Z*other.X - v.X*other.Z,
		v.X*other.Y - v.Y*other.X}
}

/**
 * @brief Compares all elements of the two vectors and ensures the difference
 * is less than tolerance.
 *
 * @param other The second vector.
 * @param tolerance The difference tolerance. Typically K_FLOAT_EPSILON or similar.
 * @return True if within tolerance; otherwise false.
 */
func (v Vec3) Compare(other Vec3, tolerance float32) bool {
	if kabs(v.X-other.X) > tolerance {
		return false
	}
	if kabs(v.Y-other.Y) > tolerance {
		return false
	}
	if kabs(v.Z-other.Z) > tolerance {
		return false
	}
	return true
}

func (v Vec3) Distance(other Vec3) float32 {
	return v.Sub(other).Length()
}

// Min returns the component-wise minimum.
func (v Vec3) Min(other Vec3) Vec3 {
	return Vec3{min(v.X, other.X), min(v.Y, other.Y), min(v.Z, other.Z)}
}

// Max returns the component-wise maximum.
func (v Vec3) Max(other Vec3) Vec3 {
	return Vec3{max(v.X, other.X), max(v.Y, other.Y), max(v.Z, other.Z)}
}

/**
 * @brief Transform v by m. NOTE: It is assumed by this function that the
 * vector v is a point, not a direction, and is calculated as if a w component
 * with a value of 1.0f is there.
 *
 * @param m The matrix to transform by.
 * @return A transformed copy of v.
 */
func (v Vec3) Transform(m Mat4) Vec3 {
	out := Vec3{}
	out.X = v.X*m.Data[0+0] + v.Y*m.Data[4+0] + v.Z*m.Data[8+0] + 1.0*m.Data[12+0]
	out.Y = v.X*m.Data[0+1] + v.Y*m.Data[4+1] + v.Z*m.Data[8+1] + 1.0*m.Data[12+1]
	out.Z = v.X*m.Data[0+2] + v.Y*m.Data[4+2] + v.Z*m.Data[8+2] + 1.0*m.Data[12+2]
	return out
}

// ------------------------------------------
// Vector 4
// ------------------------------------------

func NewVec4(x, y, z, w float32) Vec4 {
	return Vec4{x, y, z, w}
}

func (v Vec4) ToVec3() Vec3 {
	return Vec3{v.X, v.Y, v.Z}
}

/**
 * @brief Multiplies the homogeneous vector by the matrix (m * v).
 */
func (v Vec4) Transform(m Mat4) Vec4 {
	d := m.Data
	return Vec4{
		d[0]*v.X + d[4]*v.Y + d[8]*v.Z + d[12]*v.W,
		d[1]*v.X + d[5]*v.Y + d[9]*v.Z + d[13]*v.W,
		d[2]*v.X + d[6]*v.Y + d[10]*v.Z + d[14]*v.W,
		d[3]*v.X + d[7]*v.Y + d[11]*v.Z + d[15]*v.W,
	}
}

// ------------------------------------------
// Matrix 4
// ------------------------------------------

/**
 * @brief Creates and returns an identity matrix:
 *
 * {
 *   {1, 0, 0, 0},
 *   {0, 1, 0, 0},
 *   {0, 0, 1, 0},
 *   {0, 0, 0, 1}
 * }
 *
 * @return A new identity matrix
 */
func NewMat4Identity() Mat4 {
	out_matrix := Mat4{}
	out_matrix.Data[0] = 1.0
	out_matrix.Data[5] = 1.0
	out_matrix.Data[10] = 1.0
	out_matrix.Data[15] = 1.0
	return out_matrix
}

/**
 * @brief Returns the product mt * other. With column vectors the result applies
 * other first and mt second, so projection.Mul(view) maps world space to clip space.
 *
 * @param other The right-hand matrix.
 * @return The result of the matrix multiplication.
 */
func (mt Mat4) Mul(other Mat4) Mat4 {
	out_matrix := Mat4{}

	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			sum := float32(0)
			for i := 0; i < 4; i++ {
				sum += mt.Data[i*4+row] * other.Data[col*4+i]
			}
			out_matrix.Data[col*4+row] = sum
		}
	}

	return out_matrix
}

// At returns the element at (row, col).
func (mt Mat4) At(row, col int) float32 {
	return mt.Data[col*4+row]
}

// Column returns the first three components of column c.
func (mt Mat4) Column(c int) Vec3 {
	return Vec3{mt.Data[c*4], mt.Data[c*4+1], mt.Data[c*4+2]}
}

// Position returns the translation component.
func (mt Mat4) Position() Vec3 {
	return mt.Column(3)
}

// Compare reports whether every element is within tolerance of other.
func (mt Mat4) Compare(other Mat4, tolerance float32) bool {
	for i := range mt.Data {
		if kabs(mt.Data[i]-other.Data[i]) > tolerance {
			return false
		}
	}
	return true
}

/**
 * @brief Creates and returns a perspective matrix. Typically used to render 3d scenes.
 *
 * @param fov_radians The field of view in radians.
 * @param aspect_ratio The aspect ratio.
 * @param near_clip The near clipping plane distance.
 * @param far_clip The far clipping plane distance.
 * @return A new perspective matrix.
 */
func NewMat4Perspective(fov_radians, aspect_ratio, near_clip, far_clip float32) Mat4 {
	half_tan_fov := ktan(fov_radians * 0.5)
	out_matrix := Mat4{}
	out_matrix.Data[0] = 1.0 / (aspect_ratio * half_tan_fov)
	out_matrix.Data[5] = 1.0 / half_tan_fov
	out_matrix.Data[10] = -((far_clip + near_clip) / (far_clip - near_clip))
	out_matrix.Data[11] = -1.0
	out_matrix.Data[14] = -((2.0 * far_clip * near_clip) / (far_clip - near_clip))
	return out_matrix
}

/**
 * @brief Creates and returns a right-handed look-at matrix, or a matrix looking
 * at target from the perspective of position.
 *
 * @param position The position of the matrix.
 * @param target The position to "look at".
 * @param up The up vector.
 * @return A matrix looking at target from the perspective of position.
 */
func NewMat4LookAt(position, target, up Vec3) Mat4 {
	out_matrix := Mat4{}
	z_axis := target.Sub(position).Normalized()
	x_axis := z_axis.Cross(up).Normalized()
	y_axis := x_axis.Cross(z_axis)

	out_matrix.Data[0] = x_axis.X
	out_matrix.Data[1] = y_axis.X
	out_matrix.Data[2] = -z_axis.X
	out_matrix.Data[3] = 0
	out_matrix.Data[4] = x_axis.Y
	out_matrix.Data[5] = y_axis.Y
	out_matrix.Data[6] = -z_axis.Y
	out_matrix.Data[7] = 0
	out_matrix.Data[8] = x_axis.Z
	out_matrix.Data[9] = y_axis.Z
	out_matrix.Data[10] = -z_axis.Z
	out_matrix.Data[11] = 0
	out_matrix.Data[12] = -x_axis.Dot(position)
	out_matrix.Data[13] = -y_axis.Dot(position)
	out_matrix.Data[14] = z_axis.Dot(position)
	out_matrix.Data[15] = 1.0

	return out_matrix
}

/**
 * @brief Returns a transposed copy of the provided matrix (rows->colums)
 */
func NewMat4Transposed(matrix Mat4) Mat4 {
	out_matrix := Mat4{}
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			out_matrix.Data[row*4+col] = matrix.Data[col*4+row]
		}
	}
	return out_matrix
}

// cofactors returns the 2x2 sub-determinant products shared by Inverse
// and Determinant.
func (mt Mat4) cofactors() [24]float32 {
	m := mt.Data
	return [24]float32{
		m[10] * m[15], m[14] * m[11], m[6] * m[15], m[14] * m[7],
		m[6] * m[11], m[10] * m[7], m[2] * m[15], m[14] * m[3],
		m[2] * m[11], m[10] * m[3], m[2] * m[7], m[6] * m[3],
		m[8] * m[13], m[12] * m[9], m[4] * m[13], m[12] * m[5],
		m[4] * m[9], m[8] * m[5], m[0] * m[13], m[12] * m[1],
		m[0] * m[9], m[8] * m[1], m[0] * m[5], m[4] * m[1],
	}
}

func (mt Mat4) firstColumnCofactors(t [24]float32) (float32, float32, float32, float32) {
	m := mt.Data
	o0 := (t[0]*m[5] + t[3]*m[9] + t[4]*m[13]) - (t[1]*m[5] + t[2]*m[9] + t[5]*m[13])
	o1 := (t[1]*m[1] + t[6]*m[9] + t[9]*m[13]) - (t[0]*m[1] + t[7]*m[9] + t[8]*m[13])
	o2 := (t[2]*m[1] + t[7]*m[5] + t[10]*m[13]) - (t[3]*m[1] + t[6]*m[5] + t[11]*m[13])
	o3 := (t[5]*m[1] + t[8]*m[5] + t[11]*m[9]) - (t[4]*m[1] + t[9]*m[5] + t[10]*m[9])
	return o0, o1, o2, o3
}

// Determinant returns the determinant of the matrix.
func (mt Mat4) Determinant() float32 {
	m := mt.Data
	o0, o1, o2, o3 := mt.firstColumnCofactors(mt.cofactors())
	return m[0]*o0 + m[4]*o1 + m[8]*o2 + m[12]*o3
}

/**
 * @brief Creates and returns an inverse of the provided matrix. The caller is
 * responsible for checking Determinant on matrices that may be singular.
 *
 * @return A inverted copy of the provided matrix.
 */
func (mt Mat4) Inverse() Mat4 {
	m := mt.Data
	t := mt.cofactors()

	var o [16]float32
	o[0], o[1], o[2], o[3] = mt.firstColumnCofactors(t)

	d := 1.0 / (m[0]*o[0] + m[4]*o[1] + m[8]*o[2] + m[12]*o[3])

	o[0] = d * o[0]
	o[1] = d * o[1]
	o[2] = d * o[2]
	o[3] = d * o[3]
	o[4] = d * ((t[1]*m[4] + t[2]*m[8] + t[5]*m[12]) - (t[0]*m[4] + t[3]*m[8] + t[4]*m[12]))
	o[5] = d * ((t[0]*m[0] + t[7]*m[8] + t[8]*m[12]) - (t[1]*m[0] + t[6]*m[8] + t[9]*m[12]))
	o[6] = d * ((t[3]*m[0] + t[6]*m[4] + t[11]*m[12]) - (t[2]*m[0] + t[7]*m[4] + t[10]*m[12]))
	o[7] = d * ((t[4]*m[0] + t[9]*m[4] + t[10]*m[8]) - (t[5]*m[0] + t[8]*m[4] + t[11]*m[8]))
	o[8] = d * ((t[12]*m[7] + t[15]*m[11] + t[16]*m[15]) - (t[13]*m[7] + t[14]*m[11] + t[17]*m[15]))
	o[9] = d * ((t[13]*m[3] + t[18]*m[11] + t[21]*m[15]) - (t[12]*m[3] + t[19]*m[11] + t[20]*m[15]))
	o[10] = d * ((t[14]*m[3] + t[19]*m[7] + t[22]*m[15]) - (t[15]*m[3] + t[18]*m[7] + t[23]*m[15]))
	o[11] = d * ((t[17]*m[3] + t[20]*m[7] + t[23]*m[11]) - (t[16]*m[3] + t[21]*m[7] + t[22]*m[11]))
	o[12] = d * ((t[14]*m[10] + t[17]*m[14] + t[13]*m[6]) - (t[16]*m[14] + t[12]*m[6] + t[15]*m[10]))
	o[13] = d * ((t[20]*m[14] + t[12]*m[2] + t[19]*m[10]) - (t[18]*m[10] + t[21]*m[14] + t[13]*m[2]))
	o[14] = d * ((t[18]*m[6] + t[23]*m[14] + t[15]*m[2]) - (t[22]*m[14] + t[14]*m[2] + t[19]*m[6]))
	o[15] = d * ((t[22]*m[10] + t[16]*m[2] + t[21]*m[6]) - (t[20]*m[6] + t[23]*m[10] + t[17]*m[2]))

	return Mat4{Data: o}
}

/**
 * @brief Creates and returns a translation matrix from the given position.
 *
 * @param position The position to be used to create the matrix.
 * @return A newly created translation matrix.
 */
func NewMat4Translation(position Vec3) Mat4 {
	out_matrix := NewMat4Identity()
	out_matrix.Data[12] = position.X
	out_matrix.Data[13] = position.Y
	out_matrix.Data[14] = position.Z
	return out_matrix
}

/**
 * @brief Returns a scale matrix using the provided scale.
 *
 * @param scale The 3-component scale.
 * @return A scale matrix.
 */
func NewMat4Scale(scale Vec3) Mat4 {
	out_matrix := NewMat4Identity()
	out_matrix.Data[0] = scale.X
	out_matrix.Data[5] = scale.Y
	out_matrix.Data[10] = scale.Z
	return out_matrix
}

func NewMat4UniformScale(scale float32) Mat4 {
	return NewMat4Scale(Vec3{scale, scale, scale})
}

/**
 * @brief Creates a rotation matrix from the provided x angle.
 *
 * @param angle_radians The x angle in radians.
 * @return A rotation matrix.
 */
func NewMat4EulerX(angle_radians float32) Mat4 {
	out_matrix := NewMat4Identity()
	c := kcos(angle_radians)
	s := ksin(angle_radians)

	out_matrix.Data[5] = c
	out_matrix.Data[6] = s
	out_matrix.Data[9] = -s
	out_matrix.Data[10] = c
	return out_matrix
}

/**
 * @brief Creates a rotation of angle_radians around axis. The axis is normalized
 * first; a zero axis yields the identity.
 *
 * @param angle_radians The rotation angle in radians.
 * @param axis The rotation axis.
 * @return A rotation matrix.
 */
func NewMat4Rotation(angle_radians float32, axis Vec3) Mat4 {
	if axis.LengthSquared() == 0 {
		return NewMat4Identity()
	}
	a := axis.Normalized()
	c := kcos(angle_radians)
	s := ksin(angle_radians)
	t := 1 - c

	out_matrix := NewMat4Identity()
	out_matrix.Data[0] = t*a.X*a.X + c
	out_matrix.Data[1] = t*a.X*a.Y + s*a.Z
	out_matrix.Data[2] = t*a.X*a.Z - s*a.Y
	out_matrix.Data[4] = t*a.X*a.Y - s*a.Z
	out_matrix.Data[5] = t*a.Y*a.Y + c
	out_matrix.Data[6] = t*a.Y*a.Z + s*a.X
	out_matrix.Data[8] = t*a.X*a.Z + s*a.Y
	out_matrix.Data[9] = t*a.Y*a.Z - s*a.X
	out_matrix.Data[10] = t*a.Z*a.Z + c
	return out_matrix
}

/**
 * @brief Converts provided degrees to radians.
 *
 * @param degrees The degrees to be converted.
 * @return The amount in radians.
 */
func DegToRad(degrees float32) float32 {
	return degrees * K_DEG2RAD_MULTIPLIER
}
