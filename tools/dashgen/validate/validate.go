// Package validate checks generated dashboards and rules: every PromQL
// expression must parse and reference only known metrics.
package validate

import (
	"fmt"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/cog/variants"
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/grafana/grafana-foundation-sdk/go/prometheus"
	"github.com/prometheus/prometheus/promql/parser"

	"github.com/donaldgifford/slot-watcher/tools/dashgen/rules"
)

// histogramSuffixes are the series Prometheus derives from a histogram.
var histogramSuffixes = []string{"_bucket", "_sum", "_count"}

// Result collects validation findings.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether no errors were found.
func (r *Result) Ok() bool { return len(r.Errors) == 0 }

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Dashboard validates every Prometheus query in dash.
func Dashboard(dash dashboard.Dashboard, known map[string]bool) Result {
	var res Result
	for i, p := range dash.Panels {
		switch {
		case p.Panel != nil:
			checkPanel(&res, p.Panel, known)
		case p.RowPanel != nil:
			if len(p.RowPanel.Panels) == 0 {
				res.warnf("row %d has no panels", i)
			}
			for j := range p.RowPanel.Panels {
				checkPanel(&res, &p.RowPanel.Panels[j], known)
			}
		}
	}
	return res
}

// Rules validates every rule expression in cr. Names recorded by cr are
// accepted in later expressions.
func Rules(cr rules.PrometheusRule, known map[string]bool) Result {
	var res Result
	for _, g := range cr.Spec.Groups {
		for _, r := range g.Rules {
			name := r.Record
			if name == "" {
				name = r.Alert
			}
			if name == "" {
				res.errorf("group %s: rule has neither record nor alert", g.Name)
				continue
			}
			Expr(&res, name, r.Expr, known)
		}
	}
	return res
}

// Expr parses expr and checks its metric references, recording findings
// under where.
func Expr(res *Result, where, expr string, known map[string]bool) {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		res.errorf("%s: invalid PromQL %q: %v", where, expr, err)
		return
	}
	parser.Inspect(node, func(n parser.Node, _ []parser.Node) error {
		vs, ok := n.(*parser.VectorSelector)
		if !ok || vs.Name == "" {
			return nil
		}
		if !isKnown(vs.Name, known) {
			res.errorf("%s: unknown metric %q", where, vs.Name)
		}
		return nil
	})
}

func checkPanel(res *Result, p *dashboard.Panel, known map[string]bool) {
	title := "<untitled>"
	if p.Title != nil {
		title = *p.Title
	}
	if len(p.Targets) == 0 {
		res.warnf("panel %q has no queries", title)
	}
	for _, t := range p.Targets {
		expr, ok := promExpr(t)
		if !ok {
			res.warnf("panel %q has a non-Prometheus query", title)
			continue
		}
		Expr(res, "panel "+title, expr, known)
	}
}

func promExpr(q variants.Dataquery) (string, bool) {
	switch d := q.(type) {
	case *prometheus.Dataquery:
		return d.Expr, true
	case prometheus.Dataquery:
		return d.Expr, true
	default:
		return "", false
	}
}

func isKnown(name string, known map[string]bool) bool {
	if known[name] {
		return true
	}
	for _, suf := range histogramSuffixes {
		if base, ok := strings.CutSuffix(name, suf); ok && known[base] {
			return true
		}
	}
	return false
}
