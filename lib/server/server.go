// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

// Package server is the funnel tracker's backend HTTP service: a chi
// router over a SQLite store. It serves the stage catalog, per-user
// application records, and the funnel metrics aggregate, with cookie
// sessions and an optional dev identity header.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jobfunnel/jobfunnel/lib/api"
	"github.com/jobfunnel/jobfunnel/lib/stage"
)

const maxBodySize = 1 << 20

// Config holds the server's runtime settings.
type Config struct {
	// FrontendOrigin is the origin allowed by CORS and the redirect
	// target after a dev login.
	FrontendOrigin string

	// DevMode enables the X-User-Id identity header and the
	// GET /auth/login dev entry. Never enable outside local
	// development.
	DevMode bool

	// Logger receives request-level operational messages. Nil means
	// discard.
	Logger *slog.Logger
}

// Server routes HTTP requests onto a Store.
type Server struct {
	store  *Store
	config Config
	logger *slog.Logger
}

// New builds the HTTP handler for the funnel backend.
func New(store *Store, config Config) http.Handler {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	server := &Server{store: store, config: config, logger: logger}

	router := chi.NewRouter()
	router.Use(server.cors)

	router.Get("/health", server.handleHealth)
	router.Get("/stages", server.handleStages)
	router.Post("/users", server.handleCreateUser)
	router.Get("/auth/login", server.handleLogin)
	router.Post("/auth/logout", server.handleLogout)

	router.Get("/me", server.withUser(server.handleMe))
	router.Get("/jobs", server.withUser(server.handleListJobs))
	router.Post("/jobs", server.withUser(server.handleCreateJob))
	router.Patch("/jobs/{id}", server.withUser(server.handleUpdateJob))
	router.Get("/metrics", server.withUser(server.handleMetrics))

	return router
}

// cors allows the configured frontend origin with credentials.
// Preflight requests short-circuit with 204.
func (server *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if server.config.FrontendOrigin != "" {
			writer.Header().Set("Access-Control-Allow-Origin", server.config.FrontendOrigin)
			writer.Header().Set("Access-Control-Allow-Credentials", "true")
			writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-Id")
		}
		if request.Method == http.MethodOptions {
			writer.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// httpError writes the backend's error shape: {"detail": "..."}.
func httpError(writer http.ResponseWriter, status int, format string, args ...any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	json.NewEncoder(writer).Encode(map[string]string{
		"detail": fmt.Sprintf(format, args...),
	})
}

func writeJSON(writer http.ResponseWriter, status int, payload any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	json.NewEncoder(writer).Encode(payload)
}

func (server *Server) handleHealth(writer http.ResponseWriter, request *http.Request) {
	writeJSON(writer, http.StatusOK, map[string]string{"status": "ok"})
}

func (server *Server) handleStages(writer http.ResponseWriter, request *http.Request) {
	stages, err := server.store.Stages()
	if err != nil {
		server.logger.Error("listing stages", "error", err)
		httpError(writer, http.StatusInternalServerError, "Failed to list stages.")
		return
	}
	writeJSON(writer, http.StatusOK, stages)
}

type createUserRequest struct {
	Email       string  `json:"email"`
	Name        *string `json:"name"`
	Provider    *string `json:"provider"`
	ProviderSub *string `json:"provider_sub"`
}

func (server *Server) handleCreateUser(writer http.ResponseWriter, request *http.Request) {
	request.Body = http.MaxBytesReader(writer, request.Body, maxBodySize)
	var payload createUserRequest
	if err := json.NewDecoder(request.Body).Decode(&payload); err != nil {
		httpError(writer, http.StatusBadRequest, "Invalid request body: %v", err)
		return
	}
	if payload.Email == "" {
		httpError(writer, http.StatusBadRequest, "Email is required.")
		return
	}

	user, err := server.store.CreateUser(payload.Email, payload.Name, payload.Provider, payload.ProviderSub)
	if errors.Is(err, ErrDuplicateEmail) {
		httpError(writer, http.StatusBadRequest, "Email already registered.")
		return
	}
	if err != nil {
		server.logger.Error("creating user", "error", err)
		httpError(writer, http.StatusInternalServerError, "Failed to create user.")
		return
	}
	writeJSON(writer, http.StatusCreated, user)
}

func (server *Server) handleMe(writer http.ResponseWriter, request *http.Request, user api.User) {
	writeJSON(writer, http.StatusOK, user)
}

func (server *Server) handleListJobs(writer http.ResponseWriter, request *http.Request, user api.User) {
	var stageID *int
	if raw := request.URL.Query().Get("stage_id"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpError(writer, http.StatusBadRequest, "Invalid stage_id.")
			return
		}
		stageID = &parsed
	}

	records, err := server.store.JobsForUser(user.ID, stageID)
	if err != nil {
		server.logger.Error("listing jobs", "user_id", user.ID, "error", err)
		httpError(writer, http.StatusInternalServerError, "Failed to list jobs.")
		return
	}
	if records == nil {
		records = []api.JobRecord{}
	}
	writeJSON(writer, http.StatusOK, records)
}

// jobRequest is the body for POST /jobs and PATCH /jobs/{id}. Every
// field is optional; for PATCH, nil means "leave unchanged".
type jobRequest struct {
	Company         *string `json:"company"`
	Position        *string `json:"position"`
	Source          *string `json:"source"`
	Salary          *string `json:"salary"`
	Stack           *string `json:"stack"`
	Notes           *string `json:"notes"`
	Priority        *string `json:"priority"`
	StageID         *int    `json:"stage_id"`
	AppliedAt       *string `json:"applied_at"`
	HRResponseAt    *string `json:"hr_response_at"`
	ScreeningAt     *string `json:"screening_at"`
	TechInterviewAt *string `json:"tech_interview_at"`
	HomeworkAt      *string `json:"homework_at"`
	FinalAt         *string `json:"final_at"`
	OfferAt         *string `json:"offer_at"`
	RejectedAt      *string `json:"rejected_at"`
}

// timestampField returns the record's stamp slot for a stage.
func timestampField(record *api.JobRecord, id stage.ID) **string {
	switch id {
	case stage.Applied:
		return &record.AppliedAt
	case stage.HRResponse:
		return &record.HRResponseAt
	case stage.Screening:
		return &record.ScreeningAt
	case stage.Tech:
		return &record.TechInterviewAt
	case stage.Homework:
		return &record.HomeworkAt
	case stage.Final:
		return &record.FinalAt
	case stage.Offer:
		return &record.OfferAt
	case stage.Rejected:
		return &record.RejectedAt
	}
	return nil
}

// explicitTimestamp returns the payload's value for a stage's
// timestamp, or nil when the client didn't send one.
func (payload jobRequest) explicitTimestamp(id stage.ID) *string {
	switch id {
	case stage.Applied:
		return payload.AppliedAt
	case stage.HRResponse:
		return payload.HRResponseAt
	case stage.Screening:
		return payload.ScreeningAt
	case stage.Tech:
		return payload.TechInterviewAt
	case stage.Homework:
		return payload.HomeworkAt
	case stage.Final:
		return payload.FinalAt
	case stage.Offer:
		return payload.OfferAt
	case stage.Rejected:
		return payload.RejectedAt
	}
	return nil
}

// stampStageEntry records when an application first enters a stage.
// An explicit timestamp in the payload wins; an already-set stamp is
// never overwritten, so re-entering a stage keeps the first entry
// time.
func stampStageEntry(record *api.JobRecord, stageName string, explicit *string) {
	id, ok := stage.FromName(stageName)
	if !ok {
		return
	}
	slot := timestampField(record, id)
	if slot == nil || explicit != nil || *slot != nil {
		return
	}
	stamp := nowStamp()
	*slot = &stamp
}

// applyFields copies the payload's provided scalar fields onto the
// record. Stage and stage timestamps are handled separately.
func (payload jobRequest) applyFields(record *api.JobRecord) {
	if payload.Company != nil {
		record.Company = *payload.Company
	}
	if payload.Position != nil {
		record.Position = *payload.Position
	}
	if payload.Source != nil {
		record.Source = payload.Source
	}
	if payload.Salary != nil {
		record.Salary = payload.Salary
	}
	if payload.Stack != nil {
		record.Stack = payload.Stack
	}
	if payload.Notes != nil {
		record.Notes = payload.Notes
	}
	if payload.Priority != nil {
		record.Priority = payload.Priority
	}
	if payload.AppliedAt != nil {
		record.AppliedAt = payload.AppliedAt
	}
	if payload.HRResponseAt != nil {
		record.HRResponseAt = payload.HRResponseAt
	}
	if payload.ScreeningAt != nil {
		record.ScreeningAt = payload.ScreeningAt
	}
	if payload.TechInterviewAt != nil {
		record.TechInterviewAt = payload.TechInterviewAt
	}
	if payload.HomeworkAt != nil {
		record.HomeworkAt = payload.HomeworkAt
	}
	if payload.FinalAt != nil {
		record.FinalAt = payload.FinalAt
	}
	if payload.OfferAt != nil {
		record.OfferAt = payload.OfferAt
	}
	if payload.RejectedAt != nil {
		record.RejectedAt = payload.RejectedAt
	}
}

func (server *Server) handleCreateJob(writer http.ResponseWriter, request *http.Request, user api.User) {
	request.Body = http.MaxBytesReader(writer, request.Body, maxBodySize)
	var payload jobRequest
	if err := json.NewDecoder(request.Body).Decode(&payload); err != nil {
		httpError(writer, http.StatusBadRequest, "Invalid request body: %v", err)
		return
	}
	if payload.Company == nil || *payload.Company == "" ||
		payload.Position == nil || *payload.Position == "" {
		httpError(writer, http.StatusBadRequest, "Company and position are required.")
		return
	}

	var target stage.CatalogEntry
	var err error
	if payload.StageID == nil {
		target, err = server.store.DefaultStage()
		if err != nil {
			server.logger.Error("resolving default stage", "error", err)
			httpError(writer, http.StatusInternalServerError, "Failed to resolve default stage.")
			return
		}
	} else {
		target, err = server.store.StageByID(*payload.StageID)
		if errors.Is(err, ErrNotFound) {
			httpError(writer, http.StatusBadRequest, "Invalid stage_id.")
			return
		}
		if err != nil {
			server.logger.Error("resolving stage", "stage_id", *payload.StageID, "error", err)
			httpError(writer, http.StatusInternalServerError, "Failed to resolve stage.")
			return
		}
	}

	record := api.JobRecord{UserID: user.ID, StageID: target.ID}
	payload.applyFields(&record)
	if record.AppliedAt == nil {
		stamp := nowStamp()
		record.AppliedAt = &stamp
	}
	stampStageEntry(&record, target.Name, nil)

	created, err := server.store.InsertJob(record)
	if err != nil {
		server.logger.Error("creating job", "user_id", user.ID, "error", err)
		httpError(writer, http.StatusInternalServerError, "Failed to create job.")
		return
	}
	writeJSON(writer, http.StatusCreated, created)
}

func (server *Server) handleUpdateJob(writer http.ResponseWriter, request *http.Request, user api.User) {
	jobID, err := strconv.Atoi(chi.URLParam(request, "id"))
	if err != nil {
		httpError(writer, http.StatusBadRequest, "Invalid job id.")
		return
	}

	request.Body = http.MaxBytesReader(writer, request.Body, maxBodySize)
	var payload jobRequest
	if err := json.NewDecoder(request.Body).Decode(&payload); err != nil {
		httpError(writer, http.StatusBadRequest, "Invalid request body: %v", err)
		return
	}

	record, err := server.store.JobByID(jobID)
	if errors.Is(err, ErrNotFound) {
		httpError(writer, http.StatusNotFound, "Job not found.")
		return
	}
	if err != nil {
		server.logger.Error("loading job", "job_id", jobID, "error", err)
		httpError(writer, http.StatusInternalServerError, "Failed to load job.")
		return
	}
	if record.UserID != user.ID {
		httpError(writer, http.StatusForbidden, "Forbidden.")
		return
	}

	if payload.StageID != nil {
		target, err := server.store.StageByID(*payload.StageID)
		if errors.Is(err, ErrNotFound) {
			httpError(writer, http.StatusBadRequest, "Invalid stage_id.")
			return
		}
		if err != nil {
			server.logger.Error("resolving stage", "stage_id", *payload.StageID, "error", err)
			httpError(writer, http.StatusInternalServerError, "Failed to resolve stage.")
			return
		}
		record.StageID = target.ID
		if id, ok := stage.FromName(target.Name); ok {
			stampStageEntry(&record, target.Name, payload.explicitTimestamp(id))
		}
	}
	payload.applyFields(&record)

	updated, err := server.store.ReplaceJob(record)
	if err != nil {
		server.logger.Error("updating job", "job_id", jobID, "error", err)
		httpError(writer, http.StatusInternalServerError, "Failed to update job.")
		return
	}
	writeJSON(writer, http.StatusOK, updated)
}

func (server *Server) handleMetrics(writer http.ResponseWriter, request *http.Request, user api.User) {
	metrics, err := server.store.MetricsFor(user.ID)
	if err != nil {
		server.logger.Error("computing metrics", "user_id", user.ID, "error", err)
		httpError(writer, http.StatusInternalServerError, "Failed to compute metrics.")
		return
	}
	writeJSON(writer, http.StatusOK, metrics)
}
