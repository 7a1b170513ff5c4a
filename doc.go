// Package carprice predicts the price of a car from its mileage with a
// univariate linear regression trained by batch gradient descent.
//
// Training normalizes mileage and price to [0, 1] with min-max scaling, runs a
// fixed number of simultaneous gradient descent updates on the two
// coefficients, and rescales them back to the original units so that
//
//	price = theta0 + theta1 * mileage
//
// can be evaluated on raw inputs.
//
// # Quick Start
//
//	samples, err := dataset.Load("data.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	m, err := linear.NewTrainer(
//	    linear.WithLearningRate(0.01),
//	    linear.WithIterations(100000),
//	).Train(samples)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := linear.SaveModel(model.NewTextStore("thetas.txt"), m); err != nil {
//	    log.Fatal(err)
//	}
//
//	price, err := linear.PredictPrice(m, 100000)
//
// # Packages
//
//   - linear: Trainer, Model, Predictor, evaluation and model persistence helpers
//   - preprocessing: min-max normalization and bounds
//   - core/model: coefficient stores (text, JSON, memory) and ModelWeights
//   - metrics: MSE, RMSE, MAE, R², MAPE
//   - dataset: CSV loading
//   - plotting: fitted line and loss curve figures
//   - pkg/errors, pkg/log, pkg/monitor: errors, structured logging, Prometheus metrics
//
// The train and predict commands under cmd/ wire these together.
package carprice
