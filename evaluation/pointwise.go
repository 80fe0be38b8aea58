package evaluation

import (
	"context"
	"math"

	"github.com/hupe1980/recgo/dataset"
	"github.com/hupe1980/recgo/model"
)

// RMSE is the root mean squared error of Predict against the labels.
type RMSE struct{}

func (RMSE) Name() string      { return "RMSE" }
func (RMSE) Columns() []string { return []string{"RMSE"} }

func (e RMSE) Evaluate(_ context.Context, m model.Model, validation, _ *dataset.Dataset) (Result, error) {
	sum, err := scanErrors(m, validation, func(d float64) float64 { return d * d })
	if err != nil {
		return Result{}, err
	}
	return Result{Columns: e.Columns(), Values: []float64{math.Sqrt(sum / float64(validation.Len()))}}, nil
}

// MAE is the mean absolute error of Predict against the labels.
type MAE struct{}

func (MAE) Name() string      { return "MAE" }
func (MAE) Columns() []string { return []string{"MAE"} }

func (e MAE) Evaluate(_ context.Context, m model.Model, validation, _ *dataset.Dataset) (Result, error) {
	sum, err := scanErrors(m, validation, math.Abs)
	if err != nil {
		return Result{}, err
	}
	return Result{Columns: e.Columns(), Values: []float64{sum / float64(validation.Len())}}, nil
}

func scanErrors(m model.Model, validation *dataset.Dataset, f func(float64) float64) (float64, error) {
	if validation == nil || validation.Len() == 0 {
		return 0, ErrEmptyValidation
	}
	sum := 0.0
	for _, r := range validation.Records() {
		sum += f(m.Predict(r) - r.Label())
	}
	return sum, nil
}
