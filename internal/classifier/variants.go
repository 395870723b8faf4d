// SPDX-License-Identifier: Apache-2.0

package classifier

import (
	"github.com/qpproj/projectio/internal/config"
	"github.com/qpproj/projectio/internal/ml"
)

// Variant keys accepted by New.
const (
	VariantDTrees   = config.VariantDTrees
	VariantKNearest = config.VariantKNearest
)

var variants = map[string]func(config.Classifier) Strategy{
	VariantDTrees: func(config.Classifier) Strategy {
		return DTrees{}
	},
	VariantKNearest: func(cfg config.Classifier) Strategy {
		return KNearest{K: cfg.K}
	},
}

// DTrees is the decision-tree variant.
type DTrees struct{}

func (DTrees) Name() string {
	return "Decision Trees"
}

func (DTrees) SupportsAutoUpdate() bool {
	return true
}

// Create builds a tree with cross-validation pruning off and a depth
// ceiling of 1000. With the engine defaults the tree refuses to train.
func (DTrees) Create() (Engine, error) {
	params := ml.DefaultDTreesParams()
	params.CVFolds = 0
	params.MaxDepth = 1000
	trees, err := ml.NewDTrees(params)
	if err != nil {
		return nil, err
	}
	return trees, nil
}

// KNearest is the k-nearest-neighbour variant.
type KNearest struct {
	K int
}

func (KNearest) Name() string {
	return "K Nearest"
}

func (KNearest) SupportsAutoUpdate() bool {
	return false
}

func (s KNearest) Create() (Engine, error) {
	knn, err := ml.NewKNearest(s.K)
	if err != nil {
		return nil, err
	}
	return knn, nil
}
