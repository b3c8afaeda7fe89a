package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/intelliwatt/intelliwatt/pkg/types"
)

func TestPlans(t *testing.T) {
	t.Run("List", func(t *testing.T) {
		db := newMockDatabase()
		db.On("ListRatePlans", mock.Anything).Return([]types.RatePlan{
			flatTestPlan("flat-a", 12.5),
			touTestPlan("nights"),
		}, nil)
		srv := newTestServer(db, nil)
		handler := srv.setupHandler()

		req := httptest.NewRequest("GET", "/api/plans", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		resp := w.Result()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var plans []types.RatePlan
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&plans))
		require.Len(t, plans, 2)
		assert.Equal(t, "flat-a", plans[0].ID)
	})

	t.Run("Upsert Requires Id", func(t *testing.T) {
		srv := newTestServer(newMockDatabase(), nil)
		handler := srv.setupHandler()

		req := httptest.NewRequest("POST", "/api/plans", strings.NewReader(`{"name":"Nameless"}`))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
		assert.Contains(t, w.Body.String(), "id is required")
	})

	t.Run("Upsert Rejects Unknown Utility", func(t *testing.T) {
		srv := newTestServer(newMockDatabase(), nil)
		handler := srv.setupHandler()

		req := httptest.NewRequest("POST", "/api/plans", strings.NewReader(`{"id":"flat-a","utilityCode":"narnia"}`))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
		assert.Contains(t, w.Body.String(), "unknown utilityCode")
	})

	t.Run("Upsert Stores Plan", func(t *testing.T) {
		db := newMockDatabase()
		db.On("UpsertRatePlan", mock.Anything, mock.Anything).Return(nil)
		srv := newTestServer(db, nil)
		handler := srv.setupHandler()

		plan := flatTestPlan("flat-a", 12.5)
		body, err := json.Marshal(plan)
		require.NoError(t, err)

		req := httptest.NewRequest("POST", "/api/plans", strings.NewReader(string(body)))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		resp := w.Result()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var stored types.RatePlan
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&stored))
		assert.Equal(t, "flat-a", stored.ID)
		assert.WithinDuration(t, time.Now(), stored.UpdatedAt, time.Minute)
		db.AssertCalled(t, "UpsertRatePlan", mock.Anything, mock.Anything)
	})
}
