package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellness-tracker/internal/repository"
	"wellness-tracker/internal/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repository.NewDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	categories := repository.NewCategoryRepository(db)
	require.NoError(t, service.NewCategoryService(categories).Seed(context.Background()))
	events := service.NewEventService(db, repository.NewEventRepository(db), categories)

	return NewRouter(NewHandler(events))
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateEvent_FlowAndGoalCap(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/events", map[string]interface{}{
		"category": "Get a Dental Exam", "date": "2024-05-01", "points": 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[EventResponse](t, rec)
	assert.Equal(t, "Get a Dental Exam", created.Category)
	assert.Equal(t, "2024-05-01", created.Date)
	assert.Equal(t, 10, created.Points)
	assert.NotEmpty(t, created.ID)

	rec = do(t, router, http.MethodPost, "/events", map[string]interface{}{
		"category": "Get a Dental Exam", "date": "2024-05-02", "points": 10,
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, codeGoalReached, decode[ErrorResponse](t, rec).Code)

	list := decode[EventListResponse](t, do(t, router, http.MethodGet, "/events", nil))
	assert.Len(t, list.Events, 1)

	cats := decode[CategoryListResponse](t, do(t, router, http.MethodGet, "/categories", nil))
	require.NotEmpty(t, cats.Categories)
	assert.Equal(t, "Get a Dental Exam", cats.Categories[0].Name)
	assert.Equal(t, 2, cats.Categories[0].Achieved)
	assert.True(t, cats.Categories[0].Reached)
}

func TestCreateEvent_DefaultPoints(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/events", map[string]interface{}{
		"category": "Get 120 Minutes of Exercise", "date": "2024-05-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, decode[EventResponse](t, rec).Points)
}

func TestCreateEvent_Validation(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name  string
		body  interface{}
		code  string
		field string
	}{
		{name: "missing date", body: map[string]interface{}{"category": "Mental Habits"}, code: codeValidation, field: "date"},
		{name: "bad date", body: map[string]interface{}{"category": "Mental Habits", "date": "05/01/2024"}, code: codeValidation, field: "date"},
		{name: "missing category", body: map[string]interface{}{"date": "2024-05-01"}, code: codeValidation, field: "category"},
		{name: "negative points", body: map[string]interface{}{"category": "Mental Habits", "date": "2024-05-01", "points": -3}, code: codeValidation, field: "points"},
		{name: "not json", body: "nope", code: codeInvalidBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/events", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.field, resp.Field)
		})
	}
}

func TestEditAndDeleteEvent(t *testing.T) {
	router := newTestRouter(t)

	created := decode[EventResponse](t, do(t, router, http.MethodPost, "/events", map[string]interface{}{
		"category": "Mental Habits", "date": "2024-05-01", "points": 5,
	}))

	rec := do(t, router, http.MethodPut, "/events/"+created.ID, map[string]interface{}{
		"category": "Get a Dental Exam", "date": "2024-05-03", "points": 7,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	edited := decode[EventResponse](t, rec)
	assert.Equal(t, created.ID, edited.ID)
	assert.Equal(t, "Get a Dental Exam", edited.Category)
	assert.Equal(t, 7, edited.Points)

	rec = do(t, router, http.MethodPut, "/events/"+uuid.NewString(), map[string]interface{}{
		"category": "Get a Dental Exam", "date": "2024-05-03",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodDelete, "/events/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	deleted := decode[DeleteResponse](t, rec)
	assert.True(t, deleted.Removed)
	assert.Equal(t, "Get a Dental Exam", deleted.AffectedCategory)

	rec = do(t, router, http.MethodDelete, "/events/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[DeleteResponse](t, rec).Removed)

	cats := decode[CategoryListResponse](t, do(t, router, http.MethodGet, "/categories", nil))
	achieved := map[string]int{}
	for _, c := range cats.Categories {
		achieved[c.Name] = c.Achieved
	}
	assert.Equal(t, 1, achieved["Get a Dental Exam"])
	assert.Equal(t, 0, achieved["Mental Habits"])
}

func TestLevel(t *testing.T) {
	router := newTestRouter(t)

	for _, points := range []int{1000, 500} {
		rec := do(t, router, http.MethodPost, "/events", map[string]interface{}{
			"category": "Track Your Daily Water Intake", "date": "2024-05-01", "points": points,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	summary := decode[service.LevelSummary](t, do(t, router, http.MethodGet, "/level", nil))
	assert.Equal(t, 1500, summary.TotalPoints)
	assert.Equal(t, 2, summary.Level)
	require.NotNil(t, summary.PointsToNextLevel)
	assert.Equal(t, 750, *summary.PointsToNextLevel)
}
