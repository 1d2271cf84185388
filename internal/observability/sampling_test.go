package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTraceIDRatio(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 1.0},
		{"0.25", 0.25},
		{"0", 0},
		{"1.5", 1.0},
		{"-1", 1.0},
		{"half", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.InDelta(t, tt.want, parseTraceIDRatio(tt.in), 1e-9)
		})
	}
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		name, arg string
		want      string
	}{
		{"always_on", "", "AlwaysOnSampler"},
		{"always_off", "", "AlwaysOffSampler"},
		{"traceidratio", "0.5", "TraceIDRatioBased{0.5}"},
		{"parentbased_always_off", "", "ParentBased{root:AlwaysOffSampler"},
		{"", "", "ParentBased{root:AlwaysOnSampler"},
		{"bogus", "", "ParentBased{root:AlwaysOnSampler"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, samplerFor(tt.name, tt.arg).Description(), tt.want)
		})
	}
}
