// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/qpproj/projectio/internal/classifier"
)

// MetadataListClassifiers describes the list_classifiers tool.
var MetadataListClassifiers = &mcp.Tool{
	Name:        "list_classifiers",
	Description: "List the available classifier variants, their display names and whether they support automatic retraining.",
	InputSchema: map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	},
}

// InputListClassifiers is the (empty) input for the ListClassifiers tool.
type InputListClassifiers struct{}

// ClassifierInfo describes one variant.
type ClassifierInfo struct {
	Variant            string `json:"variant"`
	Name               string `json:"name"`
	SupportsAutoUpdate bool   `json:"supports_auto_update"`
	Selected           bool   `json:"selected"`
}

// OutputListClassifiers is the output for the ListClassifiers tool.
type OutputListClassifiers struct {
	Classifiers []ClassifierInfo `json:"classifiers"`
}

// DescribeClassifiers reports every registered variant, marking the one
// selected by configuration.
func (h *Handlers) DescribeClassifiers() ([]ClassifierInfo, error) {
	selected, err := classifier.New(h.classifier)
	if err != nil {
		return nil, err
	}
	if err := selected.Configure(); err != nil {
		return nil, err
	}

	infos := make([]ClassifierInfo, 0, len(classifier.Variants()))
	for _, variant := range classifier.Variants() {
		cfg := h.classifier
		cfg.Variant = variant
		c, err := classifier.New(cfg)
		if err != nil {
			return nil, err
		}
		infos = append(infos, ClassifierInfo{
			Variant:            variant,
			Name:               c.Name(),
			SupportsAutoUpdate: c.Strategy().SupportsAutoUpdate(),
			Selected:           variant == h.classifier.Variant,
		})
	}
	return infos, nil
}

// ListClassifiers lists the classifier variants.
func (h *Handlers) ListClassifiers(_ context.Context, _ *mcp.CallToolRequest, _ InputListClassifiers) (*mcp.CallToolResult, OutputListClassifiers, error) {
	infos, err := h.DescribeClassifiers()
	if err != nil {
		return nil, OutputListClassifiers{}, err
	}
	return nil, OutputListClassifiers{Classifiers: infos}, nil
}
