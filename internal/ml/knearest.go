// SPDX-License-Identifier: Apache-2.0

package ml

import (
	"fmt"
	"sort"
)

// KNearest classifies by majority vote among the K closest training
// samples (Euclidean distance).
type KNearest struct {
	k       int
	samples [][]float64
	labels  []int
}

// NewKNearest creates an untrained model.
func NewKNearest(k int) (*KNearest, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	return &KNearest{k: k}, nil
}

// K returns the neighbour count.
func (m *KNearest) K() int {
	return m.k
}

// Train stores a copy of the training set, replacing any previous one.
func (m *KNearest) Train(samples [][]float64, labels []int) error {
	if _, err := checkTrainingSet(samples, labels); err != nil {
		return err
	}
	m.samples = make([][]float64, len(samples))
	for i, s := range samples {
		m.samples[i] = append([]float64(nil), s...)
	}
	m.labels = append([]int(nil), labels...)
	return nil
}

func (m *KNearest) Predict(sample []float64) (int, error) {
	if len(m.samples) == 0 {
		return 0, ErrNotTrained
	}
	if len(sample) != len(m.samples[0]) {
		return 0, fmt.Errorf("sample has %d features, expected %d", len(sample), len(m.samples[0]))
	}

	type neighbour struct {
		dist  float64
		label int
	}
	all := make([]neighbour, len(m.samples))
	for i, s := range m.samples {
		var d float64
		for j := range s {
			diff := s[j] - sample[j]
			d += diff * diff
		}
		all[i] = neighbour{dist: d, label: m.labels[i]}
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].dist < all[b].dist })

	counts := make(map[int]int)
	for _, n := range all[:min(m.k, len(all))] {
		counts[n.label]++
	}
	return majority(counts), nil
}
