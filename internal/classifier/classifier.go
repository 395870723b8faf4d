// SPDX-License-Identifier: Apache-2.0

// Package classifier defines the pluggable classifier strategies and the
// lifecycle wrapper that drives them.
//
// A Classifier moves through three states:
//
//	Unconfigured --Configure--> Configured --Train--> Trained
//
// Configure asks the strategy to build its engine. Strategies pin engine
// parameters that the engine needs in order to train at all; those values
// are part of each strategy's contract.
package classifier

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/qpproj/projectio/internal/config"
)

var (
	ErrClassifierInit        = errors.New("classifier initialization failed")
	ErrNotConfigured         = errors.New("classifier has not been configured")
	ErrNotTrained            = errors.New("classifier has not been trained")
	ErrAutoUpdateUnsupported = errors.New("classifier does not support automatic updates")
)

// InitError reports that a strategy could not construct its engine.
type InitError struct {
	Strategy string
	Err      error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrClassifierInit, e.Strategy, e.Err)
}

func (e *InitError) Unwrap() []error {
	return []error{ErrClassifierInit, e.Err}
}

// Engine is the trained model a strategy constructs.
type Engine interface {
	Train(samples [][]float64, labels []int) error
	Predict(sample []float64) (int, error)
}

// Strategy is one classifier variant.
type Strategy interface {
	// Name is the display name of the variant.
	Name() string
	// SupportsAutoUpdate reports whether the variant can be retrained
	// incrementally as new labelled data arrives.
	SupportsAutoUpdate() bool
	// Create builds a fresh engine.
	Create() (Engine, error)
}

// State is the lifecycle position of a Classifier.
type State int

const (
	Unconfigured State = iota
	Configured
	Trained
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Configured:
		return "configured"
	case Trained:
		return "trained"
	}
	return "unknown"
}

// Classifier owns one engine built by its strategy.
type Classifier struct {
	strategy Strategy
	engine   Engine
	state    State
	samples  [][]float64
	labels   []int
}

// NewClassifier wraps a strategy in the Unconfigured state.
func NewClassifier(s Strategy) *Classifier {
	return &Classifier{strategy: s}
}

// New builds the classifier for a configured variant key.
func New(cfg config.Classifier) (*Classifier, error) {
	factory, ok := variants[strings.ToLower(cfg.Variant)]
	if !ok {
		return nil, &InitError{
			Strategy: cfg.Variant,
			Err:      fmt.Errorf("unknown variant (available: %s)", strings.Join(Variants(), ", ")),
		}
	}
	return NewClassifier(factory(cfg)), nil
}

// Variants lists the registered variant keys in sorted order.
func Variants() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Strategy returns the wrapped strategy.
func (c *Classifier) Strategy() Strategy {
	return c.strategy
}

// Name returns the strategy's display name.
func (c *Classifier) Name() string {
	return c.strategy.Name()
}

// State returns the current lifecycle state.
func (c *Classifier) State() State {
	return c.state
}

// Engine returns the underlying engine, or nil before Configure.
func (c *Classifier) Engine() Engine {
	return c.engine
}

// Configure builds a new engine, discarding any previous one and its
// training.
func (c *Classifier) Configure() error {
	engine, err := c.strategy.Create()
	if err != nil {
		return &InitError{Strategy: c.strategy.Name(), Err: err}
	}
	if engine == nil {
		return &InitError{Strategy: c.strategy.Name(), Err: errors.New("strategy returned no engine")}
	}
	c.engine = engine
	c.state = Configured
	c.samples, c.labels = nil, nil
	return nil
}

// Train fits the engine from scratch on the given data.
func (c *Classifier) Train(samples [][]float64, labels []int) error {
	if c.state == Unconfigured {
		return ErrNotConfigured
	}
	if err := c.engine.Train(samples, labels); err != nil {
		return fmt.Errorf("%s training failed: %w", c.strategy.Name(), err)
	}
	c.samples = make([][]float64, len(samples))
	for i, row := range samples {
		c.samples[i] = append([]float64(nil), row...)
	}
	c.labels = append([]int(nil), labels...)
	c.state = Trained
	return nil
}

// Update adds newly labelled data and retrains on everything seen so far.
// Only strategies that support auto-update accept it.
func (c *Classifier) Update(samples [][]float64, labels []int) error {
	if !c.strategy.SupportsAutoUpdate() {
		return ErrAutoUpdateUnsupported
	}
	if c.state != Trained {
		return ErrNotTrained
	}
	allSamples := append(append([][]float64(nil), c.samples...), samples...)
	allLabels := append(append([]int(nil), c.labels...), labels...)
	return c.Train(allSamples, allLabels)
}

// Predict classifies one sample.
func (c *Classifier) Predict(sample []float64) (int, error) {
	if c.state != Trained {
		return 0, ErrNotTrained
	}
	return c.engine.Predict(sample)
}
