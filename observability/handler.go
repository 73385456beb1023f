package observability

import (
	"context"
	"time"

	"github.com/hazyhaar/lyricsroman/kit"
	"github.com/hazyhaar/lyricsroman/romanize"
)

// MeasureHandler wraps h so every request records its duration and a
// count, labelled with the transport and "ok" or the failure reason.
func MeasureHandler(mm *MetricsManager, h romanize.Handler) romanize.Handler {
	return func(ctx context.Context, req romanize.Request) romanize.Response {
		start := time.Now()
		resp := h(ctx, req)

		result := "ok"
		if !resp.Success {
			result = string(romanize.KindOf(romanize.ParseReason("observability", resp.Error)))
		}
		labels := map[string]string{"transport": kit.GetTransport(ctx), "result": result}
		now := time.Now()
		mm.Record(&Metric{
			Name:      MetricRomanizeDurationMs,
			Timestamp: now,
			Value:     float64(now.Sub(start).Milliseconds()),
			Labels:    labels,
			Unit:      "milliseconds",
		})
		mm.Record(&Metric{Name: MetricRomanizeCount, Timestamp: now, Value: 1, Labels: labels, Unit: "count"})
		return resp
	}
}
