package mfcc

import "math"

// dctBasis returns the first k rows of the orthonormal DCT-II matrix of size n,
// so that y = basis · x matches scipy.fft.dct(x, type=2, norm="ortho")[:k].
func dctBasis(k, n int) [][]float64 {
	basis := make([][]float64, k)
	scale0 := math.Sqrt(1 / float64(n))
	scale := math.Sqrt(2 / float64(n))
	for row := range k {
		s := scale
		if row == 0 {
			s = scale0
		}
		b := make([]float64, n)
		for i := range n {
			b[i] = s * math.Cos(math.Pi*float64(row)*(2*float64(i)+1)/(2*float64(n)))
		}
		basis[row] = b
	}
	return basis
}
