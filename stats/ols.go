package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when a regression design matrix is rank deficient.
var ErrSingular = errors.New("regression design matrix is singular")

type olsFit struct {
	coeffs    []float64
	stdErrors []float64
	ssr       float64
	nobs      int
	k         int
}

// aic returns the Akaike criterion of a Gaussian linear regression.
func (f *olsFit) aic() float64 {
	n := float64(f.nobs)
	llf := -n/2*math.Log(2*math.Pi) - n/2*math.Log(f.ssr/n) - n/2
	return -2*llf + 2*float64(f.k)
}

// ols fits y = X*beta by least squares and returns the coefficients with
// their standard errors.
func ols(x [][]float64, y []float64) (*olsFit, error) {
	n := len(y)
	if n == 0 || len(x) != n {
		return nil, errors.New("regression needs matching, non-empty inputs")
	}
	k := len(x[0])
	if n <= k {
		return nil, errors.New("regression needs more observations than regressors")
	}

	design := mat.NewDense(n, k, nil)
	for i, row := range x {
		design.SetRow(i, row)
	}
	target := mat.NewVecDense(n, append([]float64(nil), y...))

	var qr mat.QR
	qr.Factorize(design)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, target); err != nil && !usableCondition(err) {
		return nil, ErrSingular
	}

	var fitted mat.VecDense
	fitted.MulVec(design, &beta)
	ssr := 0.0
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		ssr += r * r
	}

	var xtx, inv mat.Dense
	xtx.Mul(design.T(), design)
	if err := inv.Inverse(&xtx); err != nil && !usableCondition(err) {
		return nil, ErrSingular
	}

	s2 := ssr / float64(n-k)
	coeffs := make([]float64, k)
	stdErrors := make([]float64, k)
	for i := 0; i < k; i++ {
		coeffs[i] = beta.AtVec(i)
		stdErrors[i] = math.Sqrt(s2 * inv.At(i, i))
	}

	return &olsFit{
		coeffs:    coeffs,
		stdErrors: stdErrors,
		ssr:       ssr,
		nobs:      n,
		k:         k,
	}, nil
}

// usableCondition reports whether err is only an ill-conditioning warning
// with a finite condition number.
func usableCondition(err error) bool {
	var cond mat.Condition
	if errors.As(err, &cond) {
		return !math.IsInf(float64(cond), 0) && !math.IsNaN(float64(cond))
	}
	return false
}
