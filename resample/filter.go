package resample

import "math"

// design builds the polyphase filter bank: a Kaiser-windowed sinc low-pass of
// length taps*l with cutoff 0.5/max(l, m) (anti-aliasing for downsampling),
// DC gain normalized to l, sliced into l phases of taps coefficients each.
//
// The sinc is centered on tap index n/2, so for the identity ratio the
// prototype collapses to a unit impulse and input passes through exactly.
func design(l, m, taps int, beta float64) [][]float64 {
	n := taps * l
	cutoff := 0.5 / float64(max(l, m))
	center := float64(n / 2)
	span := float64(n-1) / 2

	h := make([]float64, n)
	sum := 0.0
	for i := range h {
		x := float64(i) - center
		v := 2 * cutoff * sinc(2*cutoff*x)
		var w float64
		if span > 0 {
			w = kaiser(beta, (float64(i)-span)/span)
		} else {
			w = 1
		}
		h[i] = v * w
		sum += h[i]
	}
	scale := float64(l) / sum

	phases := make([][]float64, l)
	for p := range phases {
		coefs := make([]float64, taps)
		for k := range coefs {
			coefs[k] = h[p+k*l] * scale
		}
		phases[p] = coefs
	}
	return phases
}

// sinc is the normalized sinc function sin(pi x)/(pi x).
func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// kaiser evaluates the Kaiser window at normalized position t in [-1, 1].
func kaiser(beta, t float64) float64 {
	a := 1 - t*t
	if a < 0 {
		return 0
	}
	return besselI0(beta*math.Sqrt(a)) / besselI0(beta)
}

// besselI0 is the zeroth-order modified Bessel function of the first kind,
// computed by its power series.
func besselI0(x float64) float64 {
	sum := 1.0
	term := 1.0
	half := x / 2
	for k := 1; k < 64; k++ {
		term *= (half / float64(k)) * (half / float64(k))
		sum += term
		if term < sum*1e-15 {
			break
		}
	}
	return sum
}
