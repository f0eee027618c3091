// Package linear provides a least-squares regressor for scoring fused
// features, e.g. training on a source domain's homogeneous representation and
// predicting on the target's.
package linear

import (
	"github.com/YuminosukeSato/dsft/core/model"
	"github.com/YuminosukeSato/dsft/core/parallel"
	"github.com/YuminosukeSato/dsft/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const modelName = "LinearRegression"

// LinearRegression は線形回帰モデル
//
// With a positive L2 weight it is ridge regression; the intercept is never
// penalised. Fused DSFT features are collinear by construction (the aligned
// block is a linear function of the common block), so they need L2 > 0.
type LinearRegression struct {
	state *model.StateManager

	Weights   *mat.VecDense // 重み（係数）
	Intercept float64       // 切片

	l2                float64
	parallelThreshold int
}

// Option configures a LinearRegression.
type Option func(*LinearRegression)

// WithL2 sets the ridge penalty. Default 0 (ordinary least squares).
func WithL2(l2 float64) Option {
	return func(lr *LinearRegression) { lr.l2 = l2 }
}

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression(opts ...Option) *LinearRegression {
	lr := &LinearRegression{
		state:             model.NewStateManager(modelName),
		parallelThreshold: parallel.DefaultThreshold,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit はモデルを訓練データで学習させる
// 正規方程式 w = (X^T * X + λI')^(-1) * X^T * y を使用 (I' は切片を除く単位行列)
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	if X == nil || y == nil {
		return errors.NewModelError("LinearRegression.Fit", "nil input", errors.ErrEmptyData)
	}
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValidationError("y", "must be a column vector", cy)
	}

	// 切片項のために X に 1 の列を追加
	// X_with_intercept = [1, X]
	XWithIntercept := mat.NewDense(r, c+1, nil)
	parallel.ParallelizeWithThreshold(r, lr.parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			XWithIntercept.Set(i, 0, 1.0)
			for j := 0; j < c; j++ {
				XWithIntercept.Set(i, j+1, X.At(i, j))
			}
		}
	})

	var XTX mat.Dense
	XTX.Mul(XWithIntercept.T(), XWithIntercept)
	for j := 1; j <= c; j++ {
		XTX.Set(j, j, XTX.At(j, j)+lr.l2)
	}

	var XTXInv mat.Dense
	if err := XTXInv.Inverse(&XTX); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return errors.NewSingularMatrixError("LinearRegression.Fit", "XᵀX", float64(cond))
		}
		return errors.Wrap(err, "LinearRegression.Fit")
	}

	yVec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}
	var XTy mat.VecDense
	XTy.MulVec(XWithIntercept.T(), yVec)

	full := mat.NewVecDense(c+1, nil)
	full.MulVec(&XTXInv, &XTy)
	if err := errors.CheckMatrix("LinearRegression.Fit", full, c+1, 1, 0); err != nil {
		return err
	}

	// 切片と重みを分離
	weights := mat.NewVecDense(c, nil)
	for i := 0; i < c; i++ {
		weights.SetVec(i, full.AtVec(i+1))
	}

	return lr.state.WithStateMut(func() error {
		lr.Intercept = full.AtVec(0)
		lr.Weights = weights
		lr.state.Fitted = true
		lr.state.NFeatures = c
		lr.state.NSamples = r
		return nil
	})
}

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	var weights *mat.VecDense
	var intercept float64
	err := lr.state.WithState(func() error {
		if !lr.state.Fitted {
			return errors.NewNotFittedError(modelName, "Predict")
		}
		weights, intercept = lr.Weights, lr.Intercept
		return nil
	})
	if err != nil {
		return nil, err
	}

	r, c := X.Dims()
	if c != weights.Len() {
		return nil, errors.NewDimensionError("LinearRegression.Predict", weights.Len(), c, 1)
	}

	// 予測: y = X * weights + intercept
	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred := intercept
		for j := 0; j < c; j++ {
			pred += X.At(i, j) * weights.AtVec(j)
		}
		predictions.Set(i, 0, pred)
	}
	return predictions, nil
}

// IsFitted reports whether Fit has succeeded.
func (lr *LinearRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}

	r, _ := y.Dims()
	if pr, _ := yPred.Dims(); pr != r {
		return 0, errors.NewDimensionError("LinearRegression.Score", pr, r, 0)
	}

	var yMean float64
	for i := 0; i < r; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(r)

	// 全変動 (TSS) と残差変動 (RSS) を計算
	var tss, rss float64
	for i := 0; i < r; i++ {
		yTrue := y.At(i, 0)
		yPredVal := yPred.At(i, 0)

		tss += (yTrue - yMean) * (yTrue - yMean)
		rss += (yTrue - yPredVal) * (yTrue - yPredVal)
	}

	// R² = 1 - RSS/TSS
	if tss == 0 {
		return 0, errors.Newf("total sum of squares is zero")
	}
	return 1 - rss/tss, nil
}

// GetParams returns the hyperparameters keyed "l2".
func (lr *LinearRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{"l2": lr.l2}
}
