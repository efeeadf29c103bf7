package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ticvision/ticvision/internal/analytics"
	"github.com/ticvision/ticvision/internal/chart"
	"github.com/ticvision/ticvision/internal/models"
)

func chartRouter(h *ChartHandler) *mux.Router {
	r := mux.NewRouter()
	h.RegisterRoutes(r.PathPrefix("/api/v1").Subrouter())
	return r
}

func newChartFixture() (*models.User, *ChartHandler) {
	user := &models.User{ID: uuid.New()}
	store := &mockEventStore{events: scenarioEvents(user.ID)}
	categories := &mockCategoryStore{summaries: []models.CategorySummary{
		{UserID: user.ID, Name: "Eye", Count: 2, Color: "#ff0000"},
	}}
	return user, NewChartHandler(store, categories, fixedClock, zap.NewNop())
}

func serveChart(t *testing.T, h *ChartHandler, user *models.User, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := asUser(httptest.NewRequest("GET", path, nil), user)
	w := httptest.NewRecorder()
	chartRouter(h).ServeHTTP(w, req)
	return w
}

func cellValue(t *testing.T, table analytics.Table, key, category string) float64 {
	t.Helper()
	col := -1
	for i, name := range table.Header {
		if name == category {
			col = i - 1
		}
	}
	if col < 0 {
		t.Fatalf("category %s not in header %v", category, table.Header)
	}
	for _, row := range table.Rows {
		if row.Key == key {
			return row.Values[col]
		}
	}
	t.Fatalf("row %s not found", key)
	return 0
}

func TestChartHandler_GetChart_Modes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode     string
		eye      float64
		arm      float64
		yBound   float64
		nextMode analytics.Mode
	}{
		{mode: "avg", eye: 6, arm: 5, yBound: 10, nextMode: analytics.ModeTotal},
		{mode: "total", eye: 12, arm: 5, yBound: 17, nextMode: analytics.ModeCount},
		{mode: "count", eye: 2, arm: 1, yBound: 7, nextMode: analytics.ModeAvg},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			t.Parallel()

			user, h := newChartFixture()
			w := serveChart(t, h, user, "/api/v1/charts?range=all&mode="+tt.mode)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
			}

			var data ChartResponse
			if err := json.Unmarshal(decodeEnvelope(t, w).Data, &data); err != nil {
				t.Fatalf("Failed to decode data: %v", err)
			}
			if got := cellValue(t, data.Table, "2024-01-01", "Eye"); got != tt.eye {
				t.Errorf("Eye = %v, want %v", got, tt.eye)
			}
			if got := cellValue(t, data.Table, "2024-01-02", "Arm"); got != tt.arm {
				t.Errorf("Arm = %v, want %v", got, tt.arm)
			}
			if data.YBound != tt.yBound {
				t.Errorf("YBound = %v, want %v", data.YBound, tt.yBound)
			}
			if data.NextMode != tt.nextMode {
				t.Errorf("NextMode = %v, want %v", data.NextMode, tt.nextMode)
			}
			for _, s := range data.Series {
				if s.Name == "Eye" && s.Color != "#ff0000" {
					t.Errorf("stored color should win, got %s", s.Color)
				}
				if s.Name == "Arm" && s.Color != analytics.HashColor("Arm") {
					t.Errorf("Arm color = %s, want hash color", s.Color)
				}
			}
		})
	}
}

func TestChartHandler_GetChart_CategoryFilter(t *testing.T) {
	t.Parallel()

	user, h := newChartFixture()
	w := serveChart(t, h, user, "/api/v1/charts?category=Arm")

	var data ChartResponse
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &data); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if len(data.Table.Rows) != 1 || data.Table.Rows[0].Key != "2024-01-02" {
		t.Errorf("expected only the 2024-01-02 row, got %+v", data.Table.Rows)
	}
}

func TestChartHandler_GetChart_TodayGroupsByTimeOfDay(t *testing.T) {
	t.Parallel()

	user, h := newChartFixture()
	w := serveChart(t, h, user, "/api/v1/charts?range=today")

	var data ChartResponse
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &data); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if data.Table.Header[0] != analytics.HeaderTimeOfDay {
		t.Errorf("header[0] = %s, want %s", data.Table.Header[0], analytics.HeaderTimeOfDay)
	}
	if len(data.Table.Rows) != 1 || data.Table.Rows[0].Key != "morning" {
		t.Errorf("unexpected rows %+v", data.Table.Rows)
	}
}

func TestChartHandler_Errors(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: uuid.New()}
	failing := NewChartHandler(&mockEventStore{err: errors.New("db down")}, &mockCategoryStore{}, fixedClock, zap.NewNop())
	_, ok := newChartFixture()

	tests := []struct {
		name       string
		h          *ChartHandler
		user       *models.User
		path       string
		wantStatus int
	}{
		{name: "invalid mode", h: ok, user: user, path: "/api/v1/charts?mode=median", wantStatus: http.StatusBadRequest},
		{name: "invalid date", h: ok, user: user, path: "/api/v1/charts?range=specificDate&date=yesterday", wantStatus: http.StatusBadRequest},
		{name: "unauthenticated", h: ok, path: "/api/v1/charts", wantStatus: http.StatusUnauthorized},
		{name: "store failure", h: failing, user: user, path: "/api/v1/charts/svg", wantStatus: http.StatusInternalServerError},
		{name: "unknown export format", h: ok, user: user, path: "/api/v1/exports/docx", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := serveChart(t, tt.h, tt.user, tt.path)
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestChartHandler_CategoryColorFailureFallsBack(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: uuid.New()}
	h := NewChartHandler(&mockEventStore{events: scenarioEvents(user.ID)}, &mockCategoryStore{err: errors.New("db down")}, fixedClock, zap.NewNop())
	w := serveChart(t, h, user, "/api/v1/charts")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
}

func TestChartHandler_RenderSVG(t *testing.T) {
	t.Parallel()

	user, h := newChartFixture()

	w := serveChart(t, h, user, "/api/v1/charts/svg?width=640&height=320")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %s", ct)
	}
	if w.Header().Get("Content-Disposition") != "" {
		t.Error("inline charts should not be attachments")
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, "<svg") || !strings.Contains(body, `width="640"`) {
		t.Errorf("unexpected svg prefix: %.80s", body)
	}

	w = serveChart(t, h, user, "/api/v1/charts/svg?range=specificDate&date=2023-06-01")
	if !strings.Contains(w.Body.String(), chart.PlaceholderText) {
		t.Error("expected placeholder for an empty range")
	}
}

func TestChartHandler_RenderPNG_ClampsSize(t *testing.T) {
	t.Parallel()

	user, h := newChartFixture()
	w := serveChart(t, h, user, "/api/v1/charts/png?width=10&height=99999")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("invalid png: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != chart.MinWidth || b.Dy() != chart.MaxHeight {
		t.Errorf("size = %dx%d, want %dx%d", b.Dx(), b.Dy(), chart.MinWidth, chart.MaxHeight)
	}
}

func TestChartHandler_Export(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format      string
		query       string
		contentType string
		filename    string
		check       func(t *testing.T, body []byte)
	}{
		{
			format:      "csv",
			query:       "?range=lastWeek&mode=total&sort=desc",
			contentType: "text/csv; charset=utf-8",
			filename:    "ticvision-lastweek-total-2024-01-02.csv",
			check: func(t *testing.T, body []byte) {
				lines := strings.Split(strings.TrimSpace(string(body)), "\n")
				if len(lines) != 3 {
					t.Fatalf("expected header and 2 rows, got %q", lines)
				}
				if !strings.HasPrefix(lines[0], "date,") {
					t.Errorf("header first, got %q", lines[0])
				}
				if !strings.HasPrefix(lines[1], "2024-01-02,") {
					t.Errorf("descending sort expected, got %q", lines[1])
				}
			},
		},
		{
			format:      "pdf",
			contentType: "application/pdf",
			filename:    "ticvision-all-avg-2024-01-02.pdf",
			check: func(t *testing.T, body []byte) {
				if !bytes.HasPrefix(body, []byte("%PDF")) {
					t.Errorf("not a pdf: %.8q", body)
				}
			},
		},
		{
			format:      "png",
			contentType: "image/png",
			filename:    "ticvision-all-avg-2024-01-02.png",
			check: func(t *testing.T, body []byte) {
				if _, err := png.Decode(bytes.NewReader(body)); err != nil {
					t.Errorf("invalid png: %v", err)
				}
			},
		},
		{
			format:      "json",
			contentType: "application/json",
			filename:    "ticvision-all-avg-2024-01-02.json",
			check: func(t *testing.T, body []byte) {
				var res analytics.Result
				if err := json.Unmarshal(body, &res); err != nil {
					t.Errorf("invalid json: %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			user, h := newChartFixture()
			w := serveChart(t, h, user, "/api/v1/exports/"+tt.format+tt.query)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); ct != tt.contentType {
				t.Errorf("Content-Type = %s, want %s", ct, tt.contentType)
			}
			want := `attachment; filename=` + tt.filename
			if cd := w.Header().Get("Content-Disposition"); cd != want {
				t.Errorf("Content-Disposition = %s, want %s", cd, want)
			}
			tt.check(t, w.Body.Bytes())
		})
	}
}
