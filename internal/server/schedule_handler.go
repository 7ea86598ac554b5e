// Package server provides the HTTP JSON handlers for the schedule API.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gorilla/mux"

	"github.com/haevelyn/schedule/internal/api"
	"github.com/haevelyn/schedule/internal/schedule"
)

// maxRequestBytes bounds a save request body.
const maxRequestBytes = 1 << 20

// ScheduleHandler serves the schedule endpoints on top of a schedule.Store.
type ScheduleHandler struct {
	store      schedule.Store
	validate   *validator.Validate
	translator ut.Translator
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(store schedule.Store) (*ScheduleHandler, error) {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("failed to register default translations: %w", err)
	}
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &ScheduleHandler{
		store:      store,
		validate:   validate,
		translator: trans,
	}, nil
}

// Register mounts the handler's routes on r.
func (h *ScheduleHandler) Register(r *mux.Router) {
	r.HandleFunc("/schedules", h.List).Methods(http.MethodGet)
	r.HandleFunc("/schedules/all", h.ListAll).Methods(http.MethodGet)
	r.HandleFunc("/schedules", h.Save).Methods(http.MethodPost)
}

// List returns the schedules of one month when year and month are given,
// otherwise every schedule.
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	year, month := query.Get("year"), query.Get("month")
	if year == "" && month == "" {
		h.ListAll(w, r)
		return
	}

	yearMonth, err := parseYearMonth(year, month)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.store.FindByMonth(r.Context(), yearMonth)
	if err != nil {
		slog.Default().Error("failed to fetch schedules", "month", yearMonth.String(), "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch schedules")
		return
	}
	respondJSON(w, http.StatusOK, api.FromRecords(records))
}

// ListAll returns every schedule keyed by date.
func (h *ScheduleHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.FindAll(r.Context())
	if err != nil {
		slog.Default().Error("failed to fetch all schedules", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch schedules")
		return
	}
	respondJSON(w, http.StatusOK, api.FromRecords(records))
}

// Save writes one date's schedule if the request's version matches the stored one.
func (h *ScheduleHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req api.SaveRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := decoder.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, h.translate(err))
		return
	}

	result, err := h.store.Put(r.Context(), req.Date, req.Candidate(), req.Version)
	if err != nil {
		var conflictErr *schedule.ConflictError
		var validationErr *schedule.ValidationError
		switch {
		case errors.As(err, &conflictErr):
			slog.Default().Info("rejected stale schedule write",
				"date", req.Date, "expected", conflictErr.ExpectedVersion, "stored", conflictErr.StoredVersion)
			respondError(w, http.StatusConflict, conflictErr.Error())
		case errors.As(err, &validationErr):
			respondError(w, http.StatusBadRequest, validationErr.Error())
		default:
			slog.Default().Error("failed to save schedule", "date", req.Date, "error", err)
			respondError(w, http.StatusInternalServerError, "Failed to save schedule")
		}
		return
	}

	resp := api.SaveResponse{Message: api.MessageSaved}
	if !result.Deleted() {
		dto := api.FromRecord(*result.Record)
		resp.Schedule = &dto
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *ScheduleHandler) translate(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		msgs = append(msgs, e.Translate(h.translator))
	}
	return strings.Join(msgs, ", ")
}

func parseYearMonth(year, month string) (schedule.YearMonth, error) {
	if year == "" || month == "" {
		return schedule.YearMonth{}, errors.New("year and month must be given together")
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return schedule.YearMonth{}, fmt.Errorf("invalid year %q", year)
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return schedule.YearMonth{}, fmt.Errorf("invalid month %q", month)
	}
	return schedule.NewYearMonth(y, m)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Error("failed to write response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, api.ErrorResponse{Error: message})
}
