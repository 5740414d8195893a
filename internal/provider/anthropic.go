package provider

import (
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// NewClient returns an Anthropic client. An empty apiKey defers to the SDK's
// environment lookup.
func NewClient(apiKey string, opts ...option.RequestOption) *anthropic.Client {
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	c := anthropic.NewClient(opts...)
	return &c
}

const DefaultModel = anthropic.ModelClaudeSonnet4_20250514
