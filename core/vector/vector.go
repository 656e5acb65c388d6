// Package vector implements the element-wise float64 vector arithmetic used
// by tree leaves and the boosting loop. All binary operations require equal
// lengths and report a DimensionError otherwise; results are freshly
// allocated unless the function name ends in To.
package vector

import (
	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/mtboost/pkg/errors"
)

func checkLen(op string, a, b []float64) error {
	if len(a) != len(b) {
		return errors.NewDimensionError(op, len(a), len(b), 1)
	}
	return nil
}

// Add returns a + b.
func Add(a, b []float64) ([]float64, error) {
	if err := checkLen("vector.Add", a, b); err != nil {
		return nil, err
	}
	return floats.AddTo(make([]float64, len(a)), a, b), nil
}

// Subtract returns a - b.
func Subtract(a, b []float64) ([]float64, error) {
	if err := checkLen("vector.Subtract", a, b); err != nil {
		return nil, err
	}
	return floats.SubTo(make([]float64, len(a)), a, b), nil
}

// MultiplyElementwise returns the Hadamard product of a and b.
func MultiplyElementwise(a, b []float64) ([]float64, error) {
	if err := checkLen("vector.MultiplyElementwise", a, b); err != nil {
		return nil, err
	}
	return floats.MulTo(make([]float64, len(a)), a, b), nil
}

// DivideElementwise returns a[i] / b[i]. Division by zero follows IEEE 754.
func DivideElementwise(a, b []float64) ([]float64, error) {
	if err := checkLen("vector.DivideElementwise", a, b); err != nil {
		return nil, err
	}
	return floats.DivTo(make([]float64, len(a)), a, b), nil
}

// Scale returns k * a.
func Scale(k float64, a []float64) []float64 {
	return floats.ScaleTo(make([]float64, len(a)), k, a)
}

// AddTo adds a into dst in place.
func AddTo(dst, a []float64) error {
	if err := checkLen("vector.AddTo", dst, a); err != nil {
		return err
	}
	floats.Add(dst, a)
	return nil
}

// AddScaledTo performs dst += k * a in place.
func AddScaledTo(dst []float64, k float64, a []float64) error {
	if err := checkLen("vector.AddScaledTo", dst, a); err != nil {
		return err
	}
	floats.AddScaled(dst, k, a)
	return nil
}

// Sum returns the component-wise sum of vectors.
func Sum(vectors [][]float64) ([]float64, error) {
	if len(vectors) == 0 {
		return nil, errors.NewInsufficientDataError("vector.Sum", "no vectors")
	}
	out := make([]float64, len(vectors[0]))
	for _, v := range vectors {
		if err := AddTo(out, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Average returns the component-wise mean of vectors.
func Average(vectors [][]float64) ([]float64, error) {
	if len(vectors) == 0 {
		return nil, errors.NewInsufficientDataError("vector.Average", "no vectors")
	}
	out, err := Sum(vectors)
	if err != nil {
		return nil, err
	}
	floats.Scale(1/float64(len(vectors)), out)
	return out, nil
}

// MeanSquaredError returns mean((a[i] - b[i])^2).
func MeanSquaredError(a, b []float64) (float64, error) {
	if err := checkLen("vector.MeanSquaredError", a, b); err != nil {
		return 0, err
	}
	if len(a) == 0 {
		return 0, errors.NewInsufficientDataError("vector.MeanSquaredError", "empty vectors")
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum / float64(len(a)), nil
}
