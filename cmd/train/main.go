// Command train fits the mileage/price model by gradient descent and saves
// the coefficients.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/YuminosukeSato/carprice/core/model"
	"github.com/YuminosukeSato/carprice/dataset"
	"github.com/YuminosukeSato/carprice/linear"
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/pkg/log"
	"github.com/YuminosukeSato/carprice/pkg/monitor"
	"github.com/YuminosukeSato/carprice/plotting"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	err := errors.SafeExecute("train", func() error {
		return run(os.Args[1:], os.Stdout, os.Stderr)
	})
	if err != nil {
		log.GetLogger().Error("Training command failed", err)
		fmt.Fprintf(os.Stderr, "train: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) (err error) {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.SetOutput(stderr)
	datasetPath := fs.String("dataset", "data.csv", "CSV file with mileage and price columns")
	learningRate := fs.Float64("learning-rate", linear.DefaultLearningRate, "gradient descent learning rate")
	iterations := fs.Int("iterations", linear.DefaultIterations, "number of gradient descent iterations")
	output := fs.String("output", "thetas.txt", "where to write the trained coefficients")
	format := fs.String("format", "", "output format: text or json (default: from the output extension)")
	plotPath := fs.String("plot", "", "save a scatter plot with the fitted line (.png, .svg, .pdf)")
	lossPlotPath := fs.String("loss-plot", "", "save the loss curve (.png, .svg, .pdf)")
	metricsPath := fs.String("metrics-textfile", "", "write Prometheus metrics to this file")
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")
	logFormat := fs.String("log-format", log.FormatConsole, "log format: console or json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := log.SetupLogger(*logLevel, *logFormat, stderr); err != nil {
		return err
	}

	store, err := model.NewStore(*output, *format)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	mon, err := monitor.New(reg)
	if err != nil {
		return err
	}
	if *metricsPath != "" {
		// 失敗した学習も記録する
		defer func() {
			if werr := monitor.WriteTextfile(*metricsPath, reg); werr != nil && err == nil {
				err = werr
			}
		}()
	}

	samples, err := dataset.Load(*datasetPath)
	if err != nil {
		return err
	}

	m, report, err := linear.NewTrainer(
		linear.WithLearningRate(*learningRate),
		linear.WithIterations(*iterations),
		linear.WithLossHistory(*lossPlotPath != ""),
		linear.WithObserver(mon),
	).TrainWithReport(samples)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "theta0: %g\n", m.Theta0)
	fmt.Fprintf(stdout, "theta1: %g\n", m.Theta1)
	if err := printEvaluation(stdout, m, samples); err != nil {
		return err
	}

	if *plotPath != "" {
		if err := plotting.RenderFile(*plotPath, samples, m, plotting.DefaultOptions()); err != nil {
			return err
		}
	}
	if *lossPlotPath != "" {
		if err := plotting.RenderLoss(*lossPlotPath, report.LossHistory); err != nil {
			return err
		}
	}

	// 図の出力に失敗した場合は係数を書き込まない
	if err := linear.SaveModel(store, m); err != nil {
		return err
	}
	log.GetLogger().Info("Model saved",
		log.OperationKey, log.OperationSave,
		log.SourceKey, *output,
		log.EstimatorIDKey, report.RunID,
	)
	return nil
}

func printEvaluation(w io.Writer, m *linear.Model, samples []linear.Sample) error {
	eval, err := m.Evaluate(samples)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "mse: %.4f\nrmse: %.4f\nmae: %.4f\nr2: %.6f\n", eval.MSE, eval.RMSE, eval.MAE, eval.R2)

	ref, err := linear.LeastSquares(samples)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "least squares: theta0=%g theta1=%g (gap %.3g, %.3g)\n",
		ref.Theta0, ref.Theta1, m.Theta0-ref.Theta0, m.Theta1-ref.Theta1)
	return nil
}
