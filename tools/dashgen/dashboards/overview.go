// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/slot-watcher/tools/dashgen/panels"
)

// BuildOverview constructs the slot-watcher overview dashboard with all
// metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Slot Watcher Overview").
		Uid("slotwatch-overview").
		Tags([]string{"slotwatch", "slot-watcher"}).
		Refresh("30s").
		Time("now-24h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Overview.
	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.OpenedTargetsStat()).
		WithPanel(panels.UptimeStat()))

	// Row 2: Cycles.
	b.WithRow(dashboard.NewRowBuilder("Cycles").
		WithPanel(panels.CycleOutcomes()).
		WithPanel(panels.CycleDuration()).
		WithPanel(panels.LastCycle()))

	// Row 3: Slots.
	b.WithRow(dashboard.NewRowBuilder("Slots").
		WithPanel(panels.AvailableSlots()).
		WithPanel(panels.StateLoadFallbacks()))

	// Row 4: Fetch.
	b.WithRow(dashboard.NewRowBuilder("Fetch").
		WithPanel(panels.FetchAttemptsRate()).
		WithPanel(panels.FetchFailureRatio()).
		WithPanel(panels.FetchDuration()))

	// Row 5: Notifications.
	b.WithRow(dashboard.NewRowBuilder("Notifications").
		WithPanel(panels.NotificationsRate()).
		WithPanel(panels.NotificationLatency()).
		WithPanel(panels.NotificationFailures()))

	// Row 6: HTTP.
	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
