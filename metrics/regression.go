package metrics

import (
	"math"

	"github.com/YuminosukeSato/dsft/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// MSE は平均二乗誤差（Mean Squared Error）を計算する
//
// yTrue and yPred may have any number of columns; every element contributes
// equally. It is used to score how well an aligned block reconstructs
// features that were held out of a domain.
func MSE(yTrue, yPred mat.Matrix) (float64, error) {
	r, c, err := sameShape("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/(r·c)) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			diff := yTrue.At(i, j) - yPred.At(i, j)
			sum += diff * diff
		}
	}

	mse := sum / float64(r*c)
	if err := errors.CheckScalar("MSE", mse, 0); err != nil {
		return 0, err
	}
	return mse, nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred mat.Matrix) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred mat.Matrix) (float64, error) {
	r, c, err := sameShape("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			sum += math.Abs(yTrue.At(i, j) - yPred.At(i, j))
		}
	}
	return sum / float64(r*c), nil
}

func sameShape(op string, a, b mat.Matrix) (rows, cols int, err error) {
	if a == nil || b == nil {
		return 0, 0, errors.NewModelError(op, "nil input", errors.ErrEmptyData)
	}
	ra, ca := a.Dims()
	rb, cb := b.Dims()
	if ra == 0 || ca == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if ra != rb {
		return 0, 0, errors.NewDimensionError(op, ra, rb, 0)
	}
	if ca != cb {
		return 0, 0, errors.NewDimensionError(op, ca, cb, 1)
	}
	return ra, ca, nil
}
