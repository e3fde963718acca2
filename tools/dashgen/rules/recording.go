package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "slotwatch-recording-rules",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "slotwatch-recording",
					Rules: []Rule{
						{
							Record: "slotwatch:http_requests:rate5m",
							Expr:   `sum(rate(slotwatch_http_requests_total[5m]))`,
						},
						{
							Record: "slotwatch:http_errors:rate5m",
							Expr:   `sum(rate(slotwatch_http_requests_total{status=~"5.."}[5m]))`,
						},
						{
							Record: "slotwatch:fetch_attempts:rate5m",
							Expr:   `sum(rate(slotwatch_fetch_attempts_total[5m]))`,
						},
						{
							Record: "slotwatch:fetch_failures:rate5m",
							Expr:   `sum(rate(slotwatch_fetch_failures_total[5m]))`,
						},
						{
							Record: "slotwatch:cycles_failed:rate15m",
							Expr:   `sum by (target) (rate(slotwatch_cycles_total{outcome=~"fetch_failed|save_failed"}[15m]))`,
						},
					},
				},
			},
		},
	}
}
