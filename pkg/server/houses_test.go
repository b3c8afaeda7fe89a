package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/intelliwatt/intelliwatt/pkg/meter"
	"github.com/intelliwatt/intelliwatt/pkg/types"
)

func TestHouses(t *testing.T) {
	t.Run("List", func(t *testing.T) {
		db := newMockDatabase()
		db.On("ListHouses", mock.Anything).Return([]types.House{
			{ID: "house-1", UtilityCode: "oncor"},
			{ID: "house-2", UtilityCode: "tnmp", UsageSource: meter.SourceManual},
		}, nil)
		srv := newTestServer(db, nil)
		handler := srv.setupHandler()

		req := httptest.NewRequest("GET", "/api/houses", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		resp := w.Result()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var houses []types.House
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&houses))
		require.Len(t, houses, 2)
		assert.Equal(t, "house-1", houses[0].ID)
	})

	t.Run("Upsert Requires Id", func(t *testing.T) {
		srv := newTestServer(newMockDatabase(), nil)
		handler := srv.setupHandler()

		req := httptest.NewRequest("POST", "/api/houses", strings.NewReader(`{"utilityCode":"oncor"}`))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
		assert.Contains(t, w.Body.String(), "id is required")
	})

	t.Run("Upsert Rejects Unknown Utility", func(t *testing.T) {
		srv := newTestServer(newMockDatabase(), nil)
		handler := srv.setupHandler()

		req := httptest.NewRequest("POST", "/api/houses", strings.NewReader(`{"id":"house-1","utilityCode":"narnia"}`))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
		assert.Contains(t, w.Body.String(), "unknown utilityCode")
	})

	t.Run("Upsert Rejects Unknown Source", func(t *testing.T) {
		src := &fakeUsageSource{buckets: allBuckets()}
		srv := newTestServer(newMockDatabase(), src)
		handler := srv.setupHandler()

		body := `{"id":"house-1","utilityCode":"oncor","usageSource":"telepathy"}`
		req := httptest.NewRequest("POST", "/api/houses", strings.NewReader(body))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
		assert.Contains(t, w.Body.String(), "unknown usage source")
	})

	t.Run("Upsert Stores House", func(t *testing.T) {
		db := newMockDatabase()
		db.On("UpsertHouse", mock.Anything, mock.Anything).Return(nil)
		src := &fakeUsageSource{buckets: allBuckets()}
		srv := newTestServer(db, src)
		handler := srv.setupHandler()

		body := `{"id":"house-1","utilityCode":"oncor","usageSource":"smt","billEndDay":15}`
		req := httptest.NewRequest("POST", "/api/houses", strings.NewReader(body))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		resp := w.Result()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var stored types.House
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&stored))
		assert.Equal(t, "house-1", stored.ID)
		assert.Equal(t, 15, stored.BillEndDay)
		db.AssertCalled(t, "UpsertHouse", mock.Anything, mock.Anything)
	})
}
