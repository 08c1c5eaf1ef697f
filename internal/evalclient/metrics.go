package evalclient

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/dshills/promptscore/internal/evalclient"

var attemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "promptscore_eval_attempts_total",
		Help: "Evaluation request attempts by outcome",
	},
	[]string{"outcome"},
)

// outcome labels one attempt for the attempts counter.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Retryable {
			return "server_error"
		}
		return "client_error"
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return "network_error"
	}
	return "error"
}

func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}
