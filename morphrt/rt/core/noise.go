package core

import "math"

// Noise3 is 3D simplex gradient noise in the Ashima Arts formulation.
// It matches snoise() in particles.wgsl so CPU and GPU paths agree.
// Output is roughly in [-1, 1].
func Noise3(x, y, z float64) float64 {
	const (
		cx = 1.0 / 6.0
		cy = 1.0 / 3.0
	)

	// Skew to the simplex cell
	s := (x + y + z) * cy
	ix := math.Floor(x + s)
	iy := math.Floor(y + s)
	iz := math.Floor(z + s)
	t := (ix + iy + iz) * cx
	x0 := x - ix + t
	y0 := y - iy + t
	z0 := z - iz + t

	// g = step(x0.yzx, x0.xyz), l = 1 - g
	gx, gy, gz := step(y0, x0), step(z0, y0), step(x0, z0)
	lx, ly, lz := 1-gx, 1-gy, 1-gz

	i1x, i1y, i1z := math.Min(gx, lz), math.Min(gy, lx), math.Min(gz, ly)
	i2x, i2y, i2z := math.Max(gx, lz), math.Max(gy, lx), math.Max(gz, ly)

	corners := [4][3]float64{
		{x0, y0, z0},
		{x0 - i1x + cx, y0 - i1y + cx, z0 - i1z + cx},
		{x0 - i2x + cy, y0 - i2y + cy, z0 - i2z + cy},
		{x0 - 0.5, y0 - 0.5, z0 - 0.5},
	}
	offX := [4]float64{0, i1x, i2x, 1}
	offY := [4]float64{0, i1y, i2y, 1}
	offZ := [4]float64{0, i1z, i2z, 1}

	ix, iy, iz = mod289(ix), mod289(iy), mod289(iz)

	// ns = n_ * D.wyz - D.xzx with n_ = 1/7
	const (
		nsX = 2.0 / 7.0
		nsY = 0.5/7.0 - 1.0
		nsZ = 1.0 / 7.0
	)

	sum := 0.0
	for k := 0; k < 4; k++ {
		p := permute(permute(permute(iz+offZ[k])+iy+offY[k]) + ix + offX[k])

		j := p - 49.0*math.Floor(p*nsZ*nsZ)
		xf := math.Floor(j * nsZ)
		yf := math.Floor(j - 7.0*xf)
		gxk := xf*nsX + nsY
		gyk := yf*nsX + nsY
		h := 1.0 - math.Abs(gxk) - math.Abs(gyk)

		sh := 0.0
		if h <= 0 {
			sh = -1.0
		}
		gxk += (math.Floor(gxk)*2.0 + 1.0) * sh
		gyk += (math.Floor(gyk)*2.0 + 1.0) * sh

		norm := taylorInvSqrt(gxk*gxk + gyk*gyk + h*h)
		gxk *= norm
		gyk *= norm
		h *= norm

		c := corners[k]
		m := math.Max(0.6-(c[0]*c[0]+c[1]*c[1]+c[2]*c[2]), 0)
		m *= m
		sum += m * m * (gxk*c[0] + gyk*c[1] + h*c[2])
	}
	return 42.0 * sum
}

func step(edge, x float64) float64 {
	if x < edge {
		return 0
	}
	return 1
}

func mod289(x float64) float64 {
	return x - math.Floor(x*(1.0/289.0))*289.0
}

func permute(x float64) float64 {
	return mod289((x*34.0 + 1.0) * x)
}

func taylorInvSqrt(r float64) float64 {
	return 1.79284291400159 - 0.85373472095314*r
}
