package simpoint

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadFiles builds a set from the on-disk SimPoint form: one file of
// sampled interval numbers and one file of weights, paired line by
// line. Each line holds one value with an optional second column (the
// cluster id, ignored here); blank lines and lines starting with '#'
// are skipped. Entries may appear in cluster order; they are sorted by
// interval number before index assignment.
func LoadFiles(
	simpointsPath string,
	weightsPath string,
	intervalLength uint64,
	warmup uint64,
) (*Set, error) {
	intervalFields, err := readColumns(simpointsPath)
	if err != nil {
		return nil, err
	}
	weightFields, err := readColumns(weightsPath)
	if err != nil {
		return nil, err
	}

	intervals := make([]uint64, len(intervalFields))
	for i, f := range intervalFields {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf(
				"%w: %s line %d: bad interval number %q",
				ErrMalformedInput, simpointsPath, i+1, f)
		}
		intervals[i] = v
	}

	weights := make([]float64, len(weightFields))
	for i, f := range weightFields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf(
				"%w: %s line %d: bad weight %q",
				ErrMalformedInput, weightsPath, i+1, f)
		}
		weights[i] = v
	}

	if len(intervals) != len(weights) {
		return nil, fmt.Errorf(
			"%w: %s has %d entries but %s has %d",
			ErrMalformedInput,
			simpointsPath, len(intervals), weightsPath, len(weights))
	}

	intervals, weights = sortPairs(intervals, weights)

	return NewSet(intervals, weights, intervalLength, warmup)
}

// readColumns returns the first whitespace-separated field of every
// non-blank, non-comment line.
func readColumns(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open simpoint file: %w", err)
	}
	defer f.Close()

	var fields []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields = append(fields, strings.Fields(line)[0])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read simpoint file %s: %w", path, err)
	}
	return fields, nil
}
