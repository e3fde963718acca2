package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// slot-watcher operational monitoring.
func AlertRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "slotwatch-alerts",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "slotwatch-alerts",
					Rules: []Rule{
						{
							Alert: "SlotwatchDown",
							Expr:  `absent(up{job="slot-watcher"})`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Slot watcher is down",
								"description": "The slot-watcher job has been absent for more than 2 minutes.",
							},
						},
						{
							Alert: "SlotwatchReadinessDown",
							Expr:  `slotwatch_readyz_up == 0`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Slot watcher cannot reach its state store",
								"description": "The readiness probe has been reporting not-ready for more than 2 minutes.",
							},
						},
						{
							Alert: "SlotwatchHighErrorRate",
							Expr:  `slotwatch:http_errors:rate5m / slotwatch:http_requests:rate5m > 0.05`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "High HTTP error rate on the slot watcher API",
								"description": "More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes.",
							},
						},
						{
							Alert: "SlotwatchCyclesFailing",
							Expr:  `slotwatch:cycles_failed:rate15m > 0`,
							For:   "15m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Poll cycles are failing",
								"description": "A target has been failing to fetch or save for more than 15 minutes; an opening could be missed.",
							},
						},
						{
							Alert: "SlotwatchCycleStalled",
							Expr:  `time() - slotwatch_last_cycle_timestamp > 900`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "No completed cycle for a target in 15 minutes",
								"description": "The scheduler has not completed a cycle for the target; check the renderer and the schedule.",
							},
						},
						{
							Alert: "SlotwatchStateLoadFallback",
							Expr:  `increase(slotwatch_state_load_fallbacks_total[15m]) > 0`,
							For:   "0m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Stored state could not be read",
								"description": "A cycle started from a fresh unopened state; a duplicate opening announcement is possible.",
							},
						},
						{
							Alert: "SlotwatchNotificationFailures",
							Expr:  `increase(slotwatch_notification_failures_total[5m]) > 0`,
							For:   "1m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Notification delivery failures detected",
								"description": "One or more broadcasts (LINE, Discord, or webhook) have failed to send.",
							},
						},
					},
				},
			},
		},
	}
}
