package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// FetchAttemptsRate returns a timeseries panel showing page fetch attempts
// per minute by kind.
func FetchAttemptsRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Fetch Attempts / min").
		Description("Light and rendered page fetch attempts per minute").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(ThirdWidth).
		WithTarget(PromQuery(
			`sum by (kind) (rate(slotwatch_fetch_attempts_total{job="slot-watcher"}[5m])) * 60`,
			"{{kind}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// FetchFailureRatio returns a timeseries panel showing the share of fetch
// attempts that failed.
func FetchFailureRatio() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Fetch Failure %").
		Description("Failed fetch attempts as percentage of all attempts").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(ThirdWidth).
		WithTarget(PromQuery(
			`slotwatch:fetch_failures:rate5m / slotwatch:fetch_attempts:rate5m * 100`,
			"failure %", "A",
		)).
		Unit("percent").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(10, 50)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}

// FetchDuration returns a timeseries panel showing p95 fetch attempt
// duration by kind.
func FetchDuration() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Fetch Duration (p95)").
		Description("95th percentile duration of single fetch attempts").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(ThirdWidth).
		WithTarget(PromQuery(
			`histogram_quantile(0.95, sum(rate(slotwatch_fetch_duration_seconds_bucket{job="slot-watcher"}[5m])) by (le, kind))`,
			"{{kind}}",
			"A",
		)).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
