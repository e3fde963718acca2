// Package main implements a mock reservation site for local development.
// It serves a page that shows the not-accepting marker until opened, then a
// datepicker calendar whose day statuses can be flipped over a control API.
// A LINE-compatible broadcast sink records what the watcher sends.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"
)

const defaultMarker = "現在予約を受け付けておりません"

// statusClasses maps control API status names to datepicker cell classes.
var statusClasses = map[string]string{
	"full":        "status_1",
	"almost-full": "status_2",
	"available":   "status_3",
	"unavailable": "status_4",
}

// site is the mutable state behind the reservation page.
type site struct {
	mu       sync.Mutex
	marker   string
	month    string
	opened   bool
	days     map[int]string // day -> status name
	failNext int
	messages []message
}

type message struct {
	At   time.Time `json:"at"`
	Text string    `json:"text"`
}

type siteState struct {
	Opened   bool           `json:"opened"`
	Month    string         `json:"month"`
	Days     map[int]string `json:"days"`
	FailNext int            `json:"fail_next"`
}

func newSite(marker, month string) *site {
	s := &site{marker: marker, month: month, days: make(map[int]string)}
	for d, st := range map[int]string{8: "available", 9: "almost-full", 15: "full", 16: "available", 22: "full"} {
		s.days[d] = st
	}
	return s
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	marker := flag.String("marker", defaultMarker, "text shown while reservations are closed")
	month := flag.String("month", "3月", "month label of the calendar")
	opened := flag.Bool("opened", false, "start with reservations open")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := newSite(*marker, *month)
	s.opened = *opened

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock reservation site", "addr", addr, "opened", s.opened)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, s.routes(logger)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func (s *site) routes(logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /reserve", s.pageHandler(logger))
	mux.HandleFunc("POST /control/open", s.setOpened(logger, true))
	mux.HandleFunc("POST /control/close", s.setOpened(logger, false))
	mux.HandleFunc("POST /control/day", s.dayHandler(logger))
	mux.HandleFunc("POST /control/fail", s.failHandler(logger))
	mux.HandleFunc("GET /control/state", s.stateHandler)
	mux.HandleFunc("GET /control/messages", s.messagesHandler)
	mux.HandleFunc("POST /v2/bot/message/broadcast", s.broadcastHandler(logger))
	return mux
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="ja">
<head><meta charset="utf-8"><title>予約</title></head>
<body>
<main>
{{- if .Opened}}
<div class="ui-datepicker">
  <div class="ui-datepicker-header"><span class="ui-datepicker-month">{{.Month}}</span></div>
  <table class="ui-datepicker-calendar">
    <tbody>
      <tr>
      {{- range .Cells}}
        <td class="{{.Class}}"><a href="#">{{.Day}}</a></td>
      {{- end}}
      </tr>
    </tbody>
  </table>
</div>
{{- else}}
<p class="notice">{{.Marker}}</p>
{{- end}}
</main>
</body>
</html>
`))

type cell struct {
	Day   int
	Class string
}

func (s *site) pageHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		if s.failNext > 0 {
			s.failNext--
			s.mu.Unlock()
			logger.Info("failing page request on purpose")
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}

		data := struct {
			Opened bool
			Marker string
			Month  string
			Cells  []cell
		}{Opened: s.opened, Marker: s.marker, Month: s.month}

		days := make([]int, 0, len(s.days))
		for d := range s.days {
			days = append(days, d)
		}
		slices.Sort(days)
		for _, d := range days {
			data.Cells = append(data.Cells, cell{Day: d, Class: statusClasses[s.days[d]]})
		}
		s.mu.Unlock()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pageTmpl.Execute(w, data); err != nil {
			logger.Error("rendering page", "error", err)
		}
	}
}

func (s *site) setOpened(logger *slog.Logger, opened bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		s.opened = opened
		s.mu.Unlock()
		logger.Info("reservations toggled", "opened", opened)
		s.stateHandler(w, nil)
	}
}

func (s *site) dayHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, err := strconv.Atoi(r.URL.Query().Get("day"))
		if err != nil || day < 1 || day > 31 {
			http.Error(w, "day must be 1-31", http.StatusBadRequest)
			return
		}
		status := r.URL.Query().Get("status")

		s.mu.Lock()
		switch {
		case status == "remove":
			delete(s.days, day)
		case statusClasses[status] != "":
			s.days[day] = status
		default:
			s.mu.Unlock()
			http.Error(w, "status must be available, almost-full, full, unavailable or remove", http.StatusBadRequest)
			return
		}
		s.mu.Unlock()

		logger.Info("day updated", "day", day, "status", status)
		s.stateHandler(w, nil)
	}
}

func (s *site) failHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(r.URL.Query().Get("count"))
		if err != nil || n < 0 {
			http.Error(w, "count must be a non-negative integer", http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.failNext = n
		s.mu.Unlock()
		logger.Info("next page requests will fail", "count", n)
		s.stateHandler(w, nil)
	}
}

func (s *site) stateHandler(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	st := siteState{Opened: s.opened, Month: s.month, Days: make(map[int]string, len(s.days)), FailNext: s.failNext}
	for d, v := range s.days {
		st.Days[d] = v
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(st)
}

func (s *site) messagesHandler(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	msgs := slices.Clone(s.messages)
	s.mu.Unlock()
	if msgs == nil {
		msgs = []message{}
	}

	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(msgs)
}

type broadcastRequest struct {
	Messages []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"messages"`
}

func (s *site) broadcastHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			logger.Warn("broadcast missing Authorization header")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
			json.NewEncoder(w).Encode(map[string]string{"message": "Authentication failed"})
			return
		}

		var req broadcastRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			http.Error(w, `{"message":"The request body has 1 error(s)"}`, http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		for _, m := range req.Messages {
			s.messages = append(s.messages, message{At: time.Now(), Text: m.Text})
			logger.Info("broadcast received", "text", m.Text)
		}
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	}
}
