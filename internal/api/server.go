package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"survey-insights-go/internal/config"
	"survey-insights-go/internal/dashboard"
	"survey-insights-go/internal/dataset"
	"survey-insights-go/internal/logger"
	"survey-insights-go/internal/source"
	"survey-insights-go/internal/types"
)

// LoadFunc materializes the current set of responses.
type LoadFunc func(ctx context.Context) ([]types.Record, error)

type Server struct {
	Load   LoadFunc
	Tables []config.TableSpec
	Log    *logger.Logger
}

// Handler routes the dashboard endpoints. Every request loads the current
// responses and rebuilds the tables from scratch.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})
	mux.HandleFunc("GET /dashboard", s.handleDashboard)
	mux.HandleFunc("GET /dashboard/{table}", s.handleTable)
	mux.HandleFunc("GET /export.xlsx", s.handleExport)
	return mux
}

func (s *Server) build(r *http.Request) (dashboard.Report, int, error) {
	records, err := s.Load(r.Context())
	if err != nil {
		return dashboard.Report{}, loadStatus(err), fmt.Errorf("load responses: %w", err)
	}
	report, err := dashboard.Build(r.Context(), records, s.Tables)
	if err != nil {
		return dashboard.Report{}, http.StatusInternalServerError, err
	}
	return report, http.StatusOK, nil
}

// loadStatus maps a failed load to 503 when no source is configured and
// 502 when the upstream failed.
func loadStatus(err error) int {
	if errors.Is(err, source.ErrNotConfigured) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	reqLog := s.Log.WithRequest(r).WithField("handler", "dashboard")
	report, status, err := s.build(r)
	if err != nil {
		reqLog.WithError(err).Warn("dashboard failed")
		http.Error(w, err.Error(), status)
		return
	}
	reqLog.WithField("records", report.Records).Info("dashboard served")
	writeJSON(w, reqLog, report)
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("table")
	reqLog := s.Log.WithRequest(r).WithField("handler", "table").WithField("table", name)

	var spec *config.TableSpec
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			spec = &s.Tables[i]
			break
		}
	}
	if spec == nil {
		reqLog.Warn("unknown table")
		http.Error(w, "unknown table", http.StatusNotFound)
		return
	}
	records, err := s.Load(r.Context())
	if err != nil {
		reqLog.WithError(err).Warn("load responses failed")
		http.Error(w, fmt.Sprintf("load responses: %v", err), loadStatus(err))
		return
	}
	table, err := dashboard.BuildTable(records, *spec)
	if err != nil {
		reqLog.WithError(err).Error("table build failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, reqLog, table)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	reqLog := s.Log.WithRequest(r).WithField("handler", "export")
	report, status, err := s.build(r)
	if err != nil {
		reqLog.WithError(err).Warn("export failed")
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="survey-dashboard.xlsx"`)
	if err := dataset.WriteXLSX(w, report.Sheets()); err != nil {
		reqLog.WithError(err).Error("failed to write workbook")
	}
}

func writeJSON(w http.ResponseWriter, log *logrus.Entry, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.WithError(err).Error("failed to write response")
	}
}
