package spectral

import "math"

// radix2FFT computes the in-place forward (sign=-1) or inverse (sign=+1)
// discrete Fourier transform of a complex128 slice whose length is a power
// of two, using the standard iterative Cooley-Tukey algorithm.
func radix2FFT(a []complex128, inverse bool) {
	n := len(a)
	if n <= 1 {
		return
	}

	// Bit-reversal permutation.
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit
		if i < j {
			a[i], a[j] = a[j], a[i]
		}
	}

	sign := -1.0
	if inverse {
		sign = 1.0
	}

	for length := 2; length <= n; length <<= 1 {
		ang := sign * 2 * math.Pi / float64(length)
		wlen := complex(math.Cos(ang), math.Sin(ang))
		for i := 0; i < n; i += length {
			w := complex(1.0, 0.0)
			half := length / 2
			for j := 0; j < half; j++ {
				u := a[i+j]
				v := a[i+j+half] * w
				a[i+j] = u + v
				a[i+j+half] = u - v
				w *= wlen
			}
		}
	}

	if inverse {
		for i := range a {
			a[i] /= complex(float64(n), 0)
		}
	}
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// bluesteinDFT computes the forward length-n DFT of x for arbitrary n
// (not required to be a power of two) via Bluestein's chirp-z transform:
// it rewrites the DFT as a convolution, which a power-of-two radix-2 FFT
// can then evaluate. This is the "arbitrary length from a power-of-two
// core" shape that general-purpose FFT libraries (e.g. KissFFT's
// mixed-radix decomposition) provide through a different route.
func bluesteinDFT(x []complex128) []complex128 {
	n := len(x)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []complex128{x[0]}
	}

	m := nextPowerOfTwo(2*n - 1)

	chirp := make([]complex128, n)
	for k := 0; k < n; k++ {
		// exp(-i*pi*k^2/n), computed with k^2 mod 2n to avoid precision
		// loss for large k.
		kk := (int64(k) * int64(k)) % (2 * int64(n))
		ang := -math.Pi * float64(kk) / float64(n)
		chirp[k] = complex(math.Cos(ang), math.Sin(ang))
	}

	a := make([]complex128, m)
	for k := 0; k < n; k++ {
		a[k] = x[k] * chirp[k]
	}

	b := make([]complex128, m)
	b[0] = conj(chirp[0])
	for k := 1; k < n; k++ {
		c := conj(chirp[k])
		b[k] = c
		b[m-k] = c
	}

	radix2FFT(a, false)
	radix2FFT(b, false)
	for i := range a {
		a[i] *= b[i]
	}
	radix2FFT(a, true)

	out := make([]complex128, n)
	for k := 0; k < n; k++ {
		out[k] = a[k] * chirp[k]
	}
	return out
}

func conj(c complex128) complex128 {
	return complex(real(c), -imag(c))
}
