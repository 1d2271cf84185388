package observability

import (
	"os"
	"strconv"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Standard OTEL sampler variables. They are read here rather than in config because
// only the tracer provider cares about them.
const (
	envTracesSampler    = "OTEL_TRACES_SAMPLER"
	envTracesSamplerArg = "OTEL_TRACES_SAMPLER_ARG"
)

// fullRatio samples everything; used when a ratio sampler gets no usable argument.
const fullRatio = 1.0

// samplers maps OTEL_TRACES_SAMPLER values to constructors taking OTEL_TRACES_SAMPLER_ARG.
var samplers = map[string]func(arg string) sdktrace.Sampler{
	"always_on":  func(string) sdktrace.Sampler { return sdktrace.AlwaysSample() },
	"always_off": func(string) sdktrace.Sampler { return sdktrace.NeverSample() },
	"traceidratio": func(arg string) sdktrace.Sampler {
		return sdktrace.TraceIDRatioBased(parseTraceIDRatio(arg))
	},
	"parentbased_traceidratio": func(arg string) sdktrace.Sampler {
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(parseTraceIDRatio(arg)))
	},
	"parentbased_always_on": func(string) sdktrace.Sampler {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	},
	"parentbased_always_off": func(string) sdktrace.Sampler {
		return sdktrace.ParentBased(sdktrace.NeverSample())
	},
}

// newSampler builds the sampler named by the environment.
func newSampler() sdktrace.Sampler {
	return samplerFor(os.Getenv(envTracesSampler), os.Getenv(envTracesSamplerArg))
}

// samplerFor returns the named sampler; empty or unknown names fall back to
// parentbased_always_on, the SDK default, so every render pass of a local run is traced.
func samplerFor(name, arg string) sdktrace.Sampler {
	if build, ok := samplers[name]; ok {
		return build(arg)
	}

	return sdktrace.ParentBased(sdktrace.AlwaysSample())
}

func parseTraceIDRatio(s string) float64 {
	ratio, err := strconv.ParseFloat(s, 64)
	if err != nil || ratio < 0 || ratio > 1 {
		return fullRatio
	}

	return ratio
}
