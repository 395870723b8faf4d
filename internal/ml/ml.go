// SPDX-License-Identifier: Apache-2.0

// Package ml implements the small numeric engines behind the classifier
// strategies: a CART decision tree and a k-nearest-neighbour model.
package ml

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTrainingSet = errors.New("training set is empty")
	ErrNotTrained       = errors.New("model has not been trained")
)

// checkTrainingSet verifies samples and labels line up and share a width.
func checkTrainingSet(samples [][]float64, labels []int) (int, error) {
	if len(samples) == 0 {
		return 0, ErrEmptyTrainingSet
	}
	if len(samples) != len(labels) {
		return 0, fmt.Errorf("got %d samples but %d labels", len(samples), len(labels))
	}
	width := len(samples[0])
	if width == 0 {
		return 0, errors.New("samples have no features")
	}
	for i, s := range samples {
		if len(s) != width {
			return 0, fmt.Errorf("sample %d has %d features, expected %d", i, len(s), width)
		}
	}
	return width, nil
}

// majority returns the most frequent label, preferring the smallest label
// on ties so results are deterministic.
func majority(counts map[int]int) int {
	best, bestCount := 0, -1
	for label, n := range counts {
		if n > bestCount || (n == bestCount && label < best) {
			best, bestCount = label, n
		}
	}
	return best
}
