package ml

import (
	"errors"
	"fmt"
	"math"
)

const (
	defaultMaxIter = 1000
	defaultTol     = 1e-4
	defaultC       = 1.0

	armijo       = 1e-4
	minStep      = 1e-12
	ridgeFloor   = 1e-10
	decrementTol = 1e-10
)

var (
	ErrNotTrained        = errors.New("model not trained")
	ErrNotConverged      = errors.New("logistic regression did not converge")
	ErrDimensionMismatch = errors.New("feature dimension mismatch")
	ErrInvalidLabel      = errors.New("labels must be 0 or 1")
)

// LogisticOptions configures the solver. Zero values fall back to defaults,
// except C where a negative value disables the L2 penalty.
type LogisticOptions struct {
	C       float64 `json:"c" yaml:"c"`
	MaxIter int     `json:"max_iter" yaml:"max_iter"`
	Tol     float64 `json:"tol" yaml:"tol"`
}

func (o LogisticOptions) withDefaults() LogisticOptions {
	if o.C == 0 {
		o.C = defaultC
	}
	if o.MaxIter <= 0 {
		o.MaxIter = defaultMaxIter
	}
	if o.Tol <= 0 {
		o.Tol = defaultTol
	}
	return o
}

func (o LogisticOptions) penalized() bool {
	return o.C > 0
}

// LogisticRegression is a binary logistic model with a bias term and one
// weight per feature. It is fit with Newton iterations from a zero start, so
// repeated fits on the same data give the same parameters.
type LogisticRegression struct {
	Intercept  float64         `json:"intercept"`
	Weights    []float64       `json:"weights"`
	Iterations int             `json:"iterations"`
	Options    LogisticOptions `json:"options"`
}

func NewLogisticRegression(opts LogisticOptions) *LogisticRegression {
	return &LogisticRegression{Options: opts.withDefaults()}
}

func (m *LogisticRegression) Fit(features [][]float64, labels []int) error {
	if len(features) == 0 || len(labels) == 0 {
		return errors.New("features or labels empty")
	}
	if len(features) != len(labels) {
		return errors.New("features and labels size mismatch")
	}
	dim := len(features[0])
	var positives int
	for i, row := range features {
		if len(row) != dim {
			return fmt.Errorf("row %d: %w", i, ErrDimensionMismatch)
		}
		switch labels[i] {
		case 0:
		case 1:
			positives++
		default:
			return fmt.Errorf("row %d: %w", i, ErrInvalidLabel)
		}
	}
	if positives == 0 || positives == len(labels) {
		return errors.New("labels contain a single class")
	}

	opts := m.Options.withDefaults()
	scale, reg := 1.0, 1.0
	if opts.penalized() {
		scale = opts.C
	} else {
		reg = 0
	}
	// theta[0] is the intercept, theta[1:] the weights
	theta := make([]float64, dim+1)
	obj := objective(theta, features, labels, scale, reg)

	for iter := 1; iter <= opts.MaxIter; iter++ {
		grad, hess := derivatives(theta, features, labels, scale, reg)
		if maxAbs(grad) <= opts.Tol {
			m.setParams(theta, iter-1, opts)
			return nil
		}

		step, err := solveSPD(hess, grad)
		if err != nil {
			return fmt.Errorf("newton step: %w", err)
		}

		// half the squared Newton decrement bounds the remaining objective gap
		descent := dot(grad, step)
		if descent/2 <= decrementTol {
			m.setParams(theta, iter-1, opts)
			return nil
		}

		t := 1.0
		next := make([]float64, len(theta))
		for {
			for j := range theta {
				next[j] = theta[j] - t*step[j]
			}
			nextObj := objective(next, features, labels, scale, reg)
			if nextObj <= obj-armijo*t*descent {
				obj = nextObj
				break
			}
			t /= 2
			if t < minStep {
				return fmt.Errorf("line search stalled at iteration %d: %w", iter, ErrNotConverged)
			}
		}
		copy(theta, next)
	}
	return fmt.Errorf("after %d iterations: %w", opts.MaxIter, ErrNotConverged)
}

func (m *LogisticRegression) setParams(theta []float64, iterations int, opts LogisticOptions) {
	m.Intercept = theta[0]
	m.Weights = append([]float64(nil), theta[1:]...)
	m.Iterations = iterations
	m.Options = opts
}

// Decision returns the linear score of a feature vector.
func (m *LogisticRegression) Decision(features []float64) (float64, error) {
	if len(m.Weights) == 0 {
		return 0, ErrNotTrained
	}
	if len(features) != len(m.Weights) {
		return 0, fmt.Errorf("got %d features, want %d: %w", len(features), len(m.Weights), ErrDimensionMismatch)
	}
	return m.Intercept + dot(m.Weights, features), nil
}

// PredictProba returns the probability of the positive class.
func (m *LogisticRegression) PredictProba(features []float64) (float64, error) {
	z, err := m.Decision(features)
	if err != nil {
		return 0, err
	}
	return sigmoid(z), nil
}

func (m *LogisticRegression) Predict(features []float64) (int, error) {
	p, err := m.PredictProba(features)
	if err != nil {
		return 0, err
	}
	if p > 0.5 {
		return 1, nil
	}
	return 0, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// log(1 + exp(z)) without overflow
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}

func linear(theta, row []float64) float64 {
	return theta[0] + dot(theta[1:], row)
}

func objective(theta []float64, features [][]float64, labels []int, scale, reg float64) float64 {
	var loss float64
	for i, row := range features {
		z := linear(theta, row)
		loss += softplus(z) - float64(labels[i])*z
	}
	var penalty float64
	for _, w := range theta[1:] {
		penalty += w * w
	}
	return scale*loss + 0.5*reg*penalty
}

func derivatives(theta []float64, features [][]float64, labels []int, scale, reg float64) ([]float64, [][]float64) {
	n := len(theta)
	grad := make([]float64, n)
	hess := make([][]float64, n)
	for j := range hess {
		hess[j] = make([]float64, n)
	}

	x := make([]float64, n)
	x[0] = 1
	for i, row := range features {
		copy(x[1:], row)
		p := sigmoid(linear(theta, row))
		r := p - float64(labels[i])
		s := p * (1 - p)
		for a := 0; a < n; a++ {
			grad[a] += scale * r * x[a]
			for b := 0; b <= a; b++ {
				hess[a][b] += scale * s * x[a] * x[b]
			}
		}
	}
	for a := 0; a < n; a++ {
		for b := 0; b < a; b++ {
			hess[b][a] = hess[a][b]
		}
	}
	for j := 1; j < n; j++ {
		grad[j] += reg * theta[j]
		hess[j][j] += reg
	}
	return grad, hess
}

// solveSPD solves a*x = b for a symmetric positive definite a using a
// Cholesky factorization. A tiny ridge is added when a is singular.
func solveSPD(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	l, ok := cholesky(a, 0)
	if !ok {
		var trace float64
		for i := 0; i < n; i++ {
			trace += a[i][i]
		}
		l, ok = cholesky(a, ridgeFloor*math.Max(trace/float64(n), 1))
		if !ok {
			return nil, errors.New("hessian is not positive definite")
		}
	}

	y := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for k := 0; k < i; k++ {
			sum -= l[i][k] * y[k]
		}
		y[i] = sum / l[i][i]
	}
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for k := i + 1; k < n; k++ {
			sum -= l[k][i] * x[k]
		}
		x[i] = sum / l[i][i]
	}
	return x, nil
}

func cholesky(a [][]float64, ridge float64) ([][]float64, bool) {
	n := len(a)
	l := make([][]float64, n)
	for i := range l {
		l[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := a[i][j]
			if i == j {
				sum += ridge
			}
			for k := 0; k < j; k++ {
				sum -= l[i][k] * l[j][k]
			}
			if i == j {
				if sum <= 0 || math.IsNaN(sum) {
					return nil, false
				}
				l[i][i] = math.Sqrt(sum)
			} else {
				l[i][j] = sum / l[j][j]
			}
		}
	}
	return l, true
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func maxAbs(values []float64) float64 {
	var m float64
	for _, v := range values {
		if math.Abs(v) > m {
			m = math.Abs(v)
		}
	}
	return m
}
