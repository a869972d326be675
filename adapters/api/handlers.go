package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/greenroom-dev/greenroom/domain/model"
	"github.com/greenroom-dev/greenroom/usecase/app"
)

// deploymentResponse is the wire form of a deploy, stop or status answer.
type deploymentResponse struct {
	Deployment *model.Deployment `json:"deployment"`
	Services   []model.Service   `json:"services,omitempty"`
}

func (s *Server) listApps(w http.ResponseWriter, r *http.Request) {
	out, err := s.app.List(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, out.Apps)
}

func (s *Server) deployApp(w http.ResponseWriter, r *http.Request) {
	var configs []model.ServiceConfig
	if err := json.NewDecoder(r.Body).Decode(&configs); err != nil {
		writeError(r.Context(), w, fmt.Errorf("%w: %v", model.ErrConfigInvalid, err))
		return
	}
	start := time.Now()
	out, err := s.app.Deploy(r.Context(), &app.DeployInput{
		AppName:      chi.URLParam(r, "appName"),
		Configs:      configs,
		DeploymentID: r.Header.Get(HeaderDeploymentID),
	})
	s.metrics.ObserveDeployment("deploy", time.Since(start), err)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.Header().Set(HeaderDeploymentID, out.Deployment.ID)
	writeJSON(w, http.StatusOK, deploymentResponse{Deployment: out.Deployment, Services: out.Services})
}

func (s *Server) stopApp(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	out, err := s.app.Stop(r.Context(), &app.StopInput{
		AppName:      chi.URLParam(r, "appName"),
		DeploymentID: r.Header.Get(HeaderDeploymentID),
	})
	s.metrics.ObserveDeployment("stop", time.Since(start), err)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.Header().Set(HeaderDeploymentID, out.Deployment.ID)
	writeJSON(w, http.StatusOK, deploymentResponse{Deployment: out.Deployment, Services: out.Services})
}

func (s *Server) statusChange(w http.ResponseWriter, r *http.Request) {
	out, err := s.app.Status(r.Context(), &app.StatusInput{
		AppName:      chi.URLParam(r, "appName"),
		DeploymentID: chi.URLParam(r, "deploymentId"),
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, deploymentResponse{Deployment: out.Deployment, Services: out.Services})
}

func (s *Server) serviceLogs(w http.ResponseWriter, r *http.Request) {
	in := &app.LogsInput{
		AppName:     chi.URLParam(r, "appName"),
		ServiceName: chi.URLParam(r, "serviceName"),
	}
	if v := r.URL.Query().Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(r.Context(), w, fmt.Errorf("%w: since: %v", model.ErrConfigInvalid, err))
			return
		}
		in.Since = &since
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			writeError(r.Context(), w, fmt.Errorf("%w: limit: %v", model.ErrConfigInvalid, err))
			return
		}
		in.Limit = limit
	}
	out, err := s.app.Logs(r.Context(), in)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if out.Lines == nil {
		writeError(r.Context(), w, fmt.Errorf("%w: no logs for %s/%s",
			model.ErrServiceNotFound, chi.URLParam(r, "appName"), in.ServiceName))
		return
	}
	writeJSON(w, http.StatusOK, out.Lines)
}

func (s *Server) changeServiceState(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(r.Context(), w, fmt.Errorf("%w: %v", model.ErrConfigInvalid, err))
		return
	}
	out, err := s.app.ChangeState(r.Context(), &app.ChangeStateInput{
		AppName:     chi.URLParam(r, "appName"),
		ServiceName: chi.URLParam(r, "serviceName"),
		Status:      body.Status,
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, out.Service)
}
