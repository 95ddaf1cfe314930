package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"cafeteria-planner/internal/app"
	"cafeteria-planner/internal/auth"
	"cafeteria-planner/internal/config"
	"cafeteria-planner/internal/export"
	"cafeteria-planner/internal/history"
	"cafeteria-planner/internal/order"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type testServer struct {
	handler http.Handler
	token   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	a, closeFn, err := app.Build(context.Background(), &config.Config{
		DatabasePath:    filepath.Join(dir, "cafeteria.db"),
		RecipeStorePath: filepath.Join(dir, "recipes.json"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })

	mgr, err := auth.NewManager("test-secret", time.Hour)
	require.NoError(t, err)
	token, err := mgr.Generate("ana")
	require.NoError(t, err)

	return &testServer{handler: New(a, mgr, nil).Handler(), token: token}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ts.token)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

const mondayOrder = `{
	"menu": {"lunes": {"principal": "Arroz con pollo", "acompañamiento": "Puré de papas", "postre": "Manzana"}},
	"headcount": 10,
	"day": "lunes",
	"save": true
}`

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])

	w = httptest.NewRecorder()
	ts.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestAPIRequiresToken(t *testing.T) {
	ts := newTestServer(t)

	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/recipes", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	ts.token = "garbage"
	w = ts.do(t, http.MethodGet, "/api/recipes", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecipeEndpoints(t *testing.T) {
	ts := newTestServer(t)

	var all []recipeResponse
	w := ts.do(t, http.MethodGet, "/api/recipes", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.NotEmpty(t, all)
	for i, r := range all {
		assert.Equal(t, i, r.Index)
	}

	t.Run("FilterByCategory", func(t *testing.T) {
		var fruit []recipeResponse
		w := ts.do(t, http.MethodGet, "/api/recipes?category=Fruta", "")
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fruit))
		require.NotEmpty(t, fruit)
		for _, r := range fruit {
			assert.Equal(t, "fruit", string(r.Category))
		}

		w = ts.do(t, http.MethodGet, "/api/recipes?category=sopa", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Add", func(t *testing.T) {
		body := `{"nombre": "Pizza", "tipo": "Principal", "ingredientes": [{"nombre": "Harina", "unidad": "g", "cantidad": 120}]}`
		w := ts.do(t, http.MethodPost, "/api/recipes", body)
		require.Equal(t, http.StatusCreated, w.Code)

		w = ts.do(t, http.MethodPost, "/api/recipes", `{"nombre": "Sopa", "tipo": "sopa"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = ts.do(t, http.MethodPost, "/api/recipes", `{not json`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Replace", func(t *testing.T) {
		body := `{"name": "Pizza", "category": "main", "ingredients": [{"name": "harina", "unit": "g", "quantity": 150}]}`
		w := ts.do(t, http.MethodPut, "/api/recipes/"+strconv.Itoa(len(all)), body)
		require.Equal(t, http.StatusOK, w.Code)

		w = ts.do(t, http.MethodPut, "/api/recipes/999", body)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = ts.do(t, http.MethodPut, "/api/recipes/abc", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Remove", func(t *testing.T) {
		w := ts.do(t, http.MethodDelete, "/api/recipes/Pizza", "")
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = ts.do(t, http.MethodDelete, "/api/recipes/Pizza", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCalculateEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/orders/calculate", mondayOrder)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res order.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Contains(t, res.Items, order.Item{Name: "pollo", Unit: "kg", Quantity: 1.5})
	assert.Contains(t, res.Items, order.Item{Name: "manzana", Unit: "unidad", Quantity: 10})
	assert.Empty(t, res.Warnings)

	t.Run("MissingRecipeWarns", func(t *testing.T) {
		body := `{"menu": {"viernes": {"main": "Pizza"}}, "headcount": 3}`
		w := ts.do(t, http.MethodPost, "/api/orders/calculate", body)
		require.Equal(t, http.StatusOK, w.Code)

		var res order.Result
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Empty(t, res.Items)
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, "Pizza", res.Warnings[0].Recipe)
		assert.NotEmpty(t, res.Warnings[0].Message)
	})

	t.Run("BadRequests", func(t *testing.T) {
		cases := map[string]string{
			"missing headcount":  `{"menu": {}}`,
			"negative headcount": `{"menu": {}, "headcount": -1}`,
			"unknown day":        `{"menu": {"sabado": {"main": "x"}}, "headcount": 1}`,
			"unknown filter":     `{"menu": {}, "headcount": 1, "day": "domingo"}`,
		}
		for name, body := range cases {
			t.Run(name, func(t *testing.T) {
				w := ts.do(t, http.MethodPost, "/api/orders/calculate", body)
				assert.Equal(t, http.StatusBadRequest, w.Code)
			})
		}
	})
}

func TestOrderExport(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/orders/export", mondayOrder)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), export.OrderFileName)

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	assert.Equal(t, []string{"Ingrediente", "Cantidad", "Unidad"}, rows[0])
	assert.Len(t, rows, 9)
}

func TestHistoryEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = ts.do(t, http.MethodPost, "/api/orders/calculate", mondayOrder)
	require.Equal(t, http.StatusOK, w.Code)

	var recs []history.Record
	w = ts.do(t, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "ana", recs[0].UserID)
	assert.Equal(t, 10, recs[0].Headcount)
	assert.Equal(t, "monday", recs[0].DayFilter.String())

	t.Run("Range", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/history?from=2000-01-01&to=2000-01-31", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())

		w = ts.do(t, http.MethodGet, "/api/history?from=2000-02-01&to=2000-01-01", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = ts.do(t, http.MethodGet, "/api/history?from=ayer", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Export", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/history/export", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), export.HistoryFileName)

		f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows(f.GetSheetName(0))
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "10", rows[1][1])
	})
}
