package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// CycleOutcomes returns a timeseries panel showing poll cycles per minute
// split by outcome.
func CycleOutcomes() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Cycles / min by Outcome").
		Description("Poll cycles per minute (unopened, opened, degraded, fetch_failed, save_failed, canceled)").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(ThirdWidth).
		WithTarget(PromQuery(
			`sum by (outcome) (rate(slotwatch_cycles_total{job="slot-watcher"}[5m])) * 60`,
			"{{outcome}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// CycleDuration returns a timeseries panel showing the p95 poll cycle
// duration per target.
func CycleDuration() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Cycle Duration (p95)").
		Description("95th percentile poll cycle duration, including retries and rendering").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(ThirdWidth).
		WithTarget(PromQuery(
			`histogram_quantile(0.95, sum(rate(slotwatch_cycle_duration_seconds_bucket{job="slot-watcher"}[5m])) by (le, target))`,
			"{{target}}",
			"A",
		)).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// LastCycle returns a stat panel showing the time since each target's last
// completed cycle.
func LastCycle() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Last Cycle").
		Description("Time since the last completed cycle per target").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(ThirdWidth).
		WithTarget(PromQuery(
			`time() - slotwatch_last_cycle_timestamp{job="slot-watcher"}`,
			"{{target}}", "A",
		)).
		Unit("s").
		Thresholds(ThresholdsGreenYellowRed(600, 1800)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone)
}

// AvailableSlots returns a timeseries panel showing bookable slots per
// target.
func AvailableSlots() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Available Slots").
		Description("Slots marked available or almost full in the latest snapshot").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(`slotwatch_available_slots{job="slot-watcher"}`, "{{target}}", "A")).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("last", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// StateLoadFallbacks returns a stat panel counting unreadable stored states
// in the past 24 hours.
func StateLoadFallbacks() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("State Load Fallbacks (24h)").
		Description("Cycles that started from a fresh state because the stored one could not be read").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`sum(increase(slotwatch_state_load_fallbacks_total{job="slot-watcher"}[24h]))`,
			"", "A",
		)).
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}
