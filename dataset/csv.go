// Package dataset reads (mileage, price) samples from CSV files.
package dataset

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/carprice/linear"
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/pkg/log"
)

// ReadCSV parses two numeric columns, mileage then price.
//
// A first row whose fields are all non-numeric is treated as a header and
// skipped. Blank lines are ignored. Any other malformed row, including a
// first row that mixes numbers and text, fails the whole read with an
// error naming its line.
func ReadCSV(r io.Reader) ([]linear.Sample, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var samples []linear.Sample
	first := true
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read csv")
		}
		line, _ := reader.FieldPos(0)

		if first {
			first = false
			if isHeader(rec) {
				continue
			}
		}

		s, err := parseRecord(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		samples = append(samples, s)
	}

	if len(samples) == 0 {
		return nil, errors.NewModelError("ReadCSV", "no samples", errors.ErrEmptyData)
	}
	return samples, nil
}

func isHeader(rec []string) bool {
	for _, field := range rec {
		if _, err := strconv.ParseFloat(strings.TrimSpace(field), 64); err == nil {
			return false
		}
	}
	return true
}

func parseRecord(rec []string) (linear.Sample, error) {
	if len(rec) != 2 {
		return linear.Sample{}, errors.NewValidationError("record", "expected 2 columns", len(rec))
	}

	x, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
	if err != nil {
		return linear.Sample{}, errors.NewValidationError("mileage", "not a number", rec[0])
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
	if err != nil {
		return linear.Sample{}, errors.NewValidationError("price", "not a number", rec[1])
	}
	return linear.Sample{X: x, Y: y}, nil
}

// Load opens path and reads it with ReadCSV.
func Load(path string) ([]linear.Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open dataset %s", path)
	}
	defer file.Close()

	samples, err := ReadCSV(file)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset %s", path)
	}

	log.GetLogger().Info("Dataset loaded",
		log.ComponentKey, "dataset",
		log.OperationKey, log.OperationLoad,
		log.SourceKey, path,
		log.SamplesKey, len(samples),
	)
	return samples, nil
}
