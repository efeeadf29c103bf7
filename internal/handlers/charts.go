package handlers

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ticvision/ticvision/internal/analytics"
	"github.com/ticvision/ticvision/internal/chart"
	"github.com/ticvision/ticvision/internal/export"
	logpkg "github.com/ticvision/ticvision/internal/logger"
	"github.com/ticvision/ticvision/internal/middleware"
	"github.com/ticvision/ticvision/internal/models"
)

// ChartHandler serves aggregated chart data, rendered charts and exports
type ChartHandler struct {
	events     EventStore
	categories CategoryStore
	clock      Clock
	logger     *zap.Logger
}

// NewChartHandler creates a new chart handler
func NewChartHandler(store EventStore, categories CategoryStore, clock Clock, logger *zap.Logger) *ChartHandler {
	return &ChartHandler{events: store, categories: categories, clock: clock, logger: logger}
}

// RegisterRoutes registers /charts and /exports routes on the API router
func (h *ChartHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/charts", h.GetChart).Methods("GET")
	r.HandleFunc("/charts/svg", h.renderFormat(export.FormatSVG, false)).Methods("GET")
	r.HandleFunc("/charts/png", h.renderFormat(export.FormatPNG, false)).Methods("GET")
	r.HandleFunc("/exports/{format}", h.Export).Methods("GET")
}

// ChartResponse is the pipeline result plus what a client needs to draw and cycle it
type ChartResponse struct {
	analytics.Result
	YBound   float64        `json:"y_bound"`
	Empty    bool           `json:"empty"`
	NextMode analytics.Mode `json:"next_mode"`
	PrevMode analytics.Mode `json:"prev_mode"`
}

// GetChart returns the aggregated table and series colors for the query
func (h *ChartHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, ChartResponse{
		Result:   res,
		YBound:   chart.YBound(res.Table.Mode, res.Table.Max()),
		Empty:    res.Table.Empty(),
		NextMode: res.Query.Mode.Next(),
		PrevMode: res.Query.Mode.Prev(),
	})
}

// Export writes the result as a downloadable file
func (h *ChartHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Unsupported export format (use csv, svg, png, pdf or json)")
		return
	}
	h.renderFormat(format, true)(w, r)
}

func (h *ChartHandler) renderFormat(format export.Format, attachment bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := h.run(w, r)
		if !ok {
			return
		}

		width, height := parseSize(r)
		opts := export.Options{
			Title:  fmt.Sprintf("TicVision report: %s, %s", res.Query.Range, res.Query.Mode.Label()),
			Width:  width,
			Height: height,
		}

		// Render fully before writing headers so failures still produce a JSON error
		var buf bytes.Buffer
		if err := export.Write(&buf, format, res, opts); err != nil {
			h.logger.Error("failed_to_render_export",
				zap.String("format", string(format)),
				zap.String("error", logpkg.SanitizeError(err)),
			)
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to render "+string(format))
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.Header().Set("Cache-Control", "no-store")
		if attachment {
			name := export.Filename(format, h.clock.now(), string(res.Query.Range), string(res.Query.Mode))
			w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
		}
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil {
			h.logger.Debug("export_write_interrupted", zap.String("error", logpkg.SanitizeError(err)))
		}
	}
}

// run loads the user's events and categories and executes the pipeline.
// It writes the error response itself and reports false on failure.
func (h *ChartHandler) run(w http.ResponseWriter, r *http.Request) (analytics.Result, bool) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return analytics.Result{}, false
	}

	q, err := parseQuery(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", queryErrorMessage(err))
		return analytics.Result{}, false
	}

	all, summaries, err := h.load(r.Context(), user)
	if err != nil {
		h.logger.Error("failed_to_load_chart_data",
			zap.String("user_id", logpkg.SanitizeUserID(user.ID.String())),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve events")
		return analytics.Result{}, false
	}

	return analytics.Run(all, summaries, q, h.clock.now()), true
}

func (h *ChartHandler) load(ctx context.Context, user *models.User) ([]models.Event, []models.CategorySummary, error) {
	all, err := h.events.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	summaries, err := h.categories.ListByUser(ctx, user.ID)
	if err != nil {
		// Colors fall back to hash colors
		h.logger.Warn("failed_to_load_category_colors",
			zap.String("user_id", logpkg.SanitizeUserID(user.ID.String())),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		summaries = nil
	}
	return all, summaries, nil
}
