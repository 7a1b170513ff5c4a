// Command predict estimates a car price from its mileage using the
// coefficients saved by the train command.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/carprice/core/model"
	"github.com/YuminosukeSato/carprice/linear"
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/pkg/log"
	"github.com/YuminosukeSato/carprice/pkg/monitor"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	err := errors.SafeExecute("predict", func() error {
		return run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	})
	if err != nil {
		log.GetLogger().Error("Prediction command failed", err)
		fmt.Fprintf(os.Stderr, "predict: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	fs.SetOutput(stderr)
	modelPath := fs.String("model", "thetas.txt", "coefficients written by the train command")
	format := fs.String("format", "", "model format: text or json (default: from the file extension)")
	mileageArg := fs.String("mileage", "", "mileage in km; prompts on stdin when omitted")
	metricsPath := fs.String("metrics-textfile", "", "write Prometheus metrics to this file")
	logLevel := fs.String("log-level", "warn", "log level: debug, info, warn, error")
	logFormat := fs.String("log-format", log.FormatConsole, "log format: console or json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := log.SetupLogger(*logLevel, *logFormat, stderr); err != nil {
		return err
	}
	logger := log.GetLogger()

	store, err := model.NewStore(*modelPath, *format)
	if err != nil {
		return err
	}
	m, err := linear.LoadModel(store)
	if err != nil {
		return err
	}
	if !m.IsFitted() {
		logger.Warn("No trained model found, predicting with theta0 = theta1 = 0",
			log.OperationKey, log.OperationLoad,
			log.SourceKey, *modelPath,
		)
	}

	reg := prometheus.NewRegistry()
	mon, err := monitor.New(reg)
	if err != nil {
		return err
	}
	if *metricsPath != "" {
		defer func() {
			if werr := monitor.WriteTextfile(*metricsPath, reg); werr != nil && err == nil {
				err = werr
			}
		}()
	}

	raw := *mileageArg
	if raw == "" {
		if raw, err = prompt(stdin, stdout); err != nil {
			return err
		}
	}
	mileage, err := parseMileage(raw)
	if err != nil {
		return err
	}

	price, err := linear.NewPredictor(m, linear.WithObserver(mon)).Predict(mileage)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Estimated price for %g km: %.2f\n", mileage, price)
	return nil
}

func prompt(stdin io.Reader, stdout io.Writer) (string, error) {
	fmt.Fprint(stdout, "Enter mileage (km): ")
	scanner := bufio.NewScanner(stdin)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", errors.Wrap(err, "failed to read mileage")
		}
		return "", errors.NewValueError("predict", "no mileage given")
	}
	return scanner.Text(), nil
}

func parseMileage(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.NewValidationError("mileage", "not a number", raw)
	}
	return v, nil
}
