package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// ARIMAModel is a fitted non-seasonal ARIMA(p,d,q) model.
//
// The ARMA part is estimated on the d-times differenced series by
// conditional sum of squares. Each AR and MA coefficient is kept inside
// (-1, 1) through a tanh reparameterisation.
type ARIMAModel struct {
	Order Order
	AR    []float64
	MA    []float64
	// Mean is the level of the differenced series; it is only estimated when d == 0.
	Mean   float64
	Sigma2 float64

	// state needed to extend the series
	diffed    []float64
	residuals []float64
	tails     []float64
}

const (
	fitMaxIterations = 2000
	fitTolerance     = 1e-10
	fitStallRounds   = 50
)

// FitARIMA fits an ARIMA model of the given order to values.
// Errors wrap ErrModelFit.
func FitARIMA(values []float64, order Order) (*ARIMAModel, error) {
	if order.P < 0 || order.D < 0 || order.Q < 0 {
		return nil, fmt.Errorf("%w: order %s has a negative component", ErrModelFit, order)
	}
	need := order.D + order.P + order.Q + 2
	if len(values) < need {
		return nil, fmt.Errorf("%w: series has %d observations, order %s needs at least %d", ErrModelFit, len(values), order, need)
	}
	nonzero := false
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: observation %d is not finite", ErrModelFit, i)
		}
		if v != 0 {
			nonzero = true
		}
	}
	if !nonzero {
		return nil, fmt.Errorf("%w: series has no nonzero observations", ErrModelFit)
	}

	diffed, tails := difference(values, order.D)

	m := &ARIMAModel{Order: order, diffed: diffed, tails: tails}
	if order.D == 0 {
		m.Mean = stat.Mean(diffed, nil)
	}
	centered := make([]float64, len(diffed))
	for i, v := range diffed {
		centered[i] = v - m.Mean
	}

	k := order.P + order.Q
	var params []float64
	if k > 0 {
		problem := optimize.Problem{
			Func: func(x []float64) float64 {
				ar, ma := unpack(x, order.P)
				css, _ := conditionalSumOfSquares(centered, ar, ma)
				if math.IsNaN(css) || math.IsInf(css, 0) {
					return math.MaxFloat64
				}
				return css
			},
		}
		settings := &optimize.Settings{
			MajorIterations: fitMaxIterations,
			Converger: &optimize.FunctionConverge{
				Absolute:   fitTolerance,
				Iterations: fitStallRounds,
			},
		}
		result, err := optimize.Minimize(problem, make([]float64, k), settings, &optimize.NelderMead{})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrModelFit, err)
		}
		switch result.Status {
		case optimize.Failure, optimize.IterationLimit, optimize.FunctionEvaluationLimit, optimize.RuntimeLimit:
			return nil, fmt.Errorf("%w: optimizer did not converge (%s)", ErrModelFit, result.Status)
		}
		if math.IsNaN(result.F) || math.IsInf(result.F, 0) || result.F == math.MaxFloat64 {
			return nil, fmt.Errorf("%w: objective is not finite at the optimum", ErrModelFit)
		}
		params = result.X
	}

	m.AR, m.MA = unpack(params, order.P)
	css, residuals := conditionalSumOfSquares(centered, m.AR, m.MA)
	m.residuals = residuals
	if dof := len(centered) - order.P; dof > 0 {
		m.Sigma2 = css / float64(dof)
	}
	return m, nil
}

// Forecast projects steps future values on the original scale.
func (m *ARIMAModel) Forecast(steps int) []float64 {
	if steps <= 0 {
		return nil
	}
	p, q := len(m.AR), len(m.MA)
	n := len(m.diffed)

	x := make([]float64, n, n+steps)
	for i, v := range m.diffed {
		x[i] = v - m.Mean
	}
	e := make([]float64, n, n+steps)
	copy(e, m.residuals)

	out := make([]float64, steps)
	for h := 0; h < steps; h++ {
		t := n + h
		var v float64
		for i := 1; i <= p; i++ {
			if t-i >= 0 {
				v += m.AR[i-1] * x[t-i]
			}
		}
		for j := 1; j <= q; j++ {
			if t-j >= 0 {
				v += m.MA[j-1] * e[t-j]
			}
		}
		x = append(x, v)
		e = append(e, 0)
		out[h] = v + m.Mean
	}
	return integrate(out, m.tails)
}

// unpack maps unconstrained optimiser coordinates to AR and MA coefficients.
func unpack(x []float64, p int) (ar, ma []float64) {
	ar = make([]float64, p)
	ma = make([]float64, len(x)-p)
	for i := range ar {
		ar[i] = math.Tanh(x[i])
	}
	for j := range ma {
		ma[j] = math.Tanh(x[p+j])
	}
	return ar, ma
}

// conditionalSumOfSquares returns the sum of squared one-step errors from
// observation p onward, treating pre-sample values and errors as zero.
func conditionalSumOfSquares(x, ar, ma []float64) (float64, []float64) {
	p, q := len(ar), len(ma)
	e := make([]float64, len(x))
	var css float64
	for t := p; t < len(x); t++ {
		pred := 0.0
		for i := 1; i <= p; i++ {
			if t-i >= 0 {
				pred += ar[i-1] * x[t-i]
			}
		}
		for j := 1; j <= q; j++ {
			if t-j >= 0 {
				pred += ma[j-1] * e[t-j]
			}
		}
		e[t] = x[t] - pred
		css += e[t] * e[t]
	}
	return css, e
}

// difference applies d rounds of first differencing. tails[k] is the last
// value of the series after k rounds, needed to undo the differencing.
func difference(values []float64, d int) ([]float64, []float64) {
	cur := append([]float64(nil), values...)
	tails := make([]float64, d)
	for k := 0; k < d; k++ {
		tails[k] = cur[len(cur)-1]
		next := make([]float64, len(cur)-1)
		for i := 1; i < len(cur); i++ {
			next[i-1] = cur[i] - cur[i-1]
		}
		cur = next
	}
	return cur, tails
}

// integrate undoes difference for a block of forecasts.
func integrate(forecast, tails []float64) []float64 {
	out := append([]float64(nil), forecast...)
	for k := len(tails) - 1; k >= 0; k-- {
		level := tails[k]
		for i, v := range out {
			level += v
			out[i] = level
		}
	}
	return out
}
