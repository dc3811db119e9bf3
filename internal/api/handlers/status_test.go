package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/amaumene/debridarr/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestStatusHandlerCounts(t *testing.T) {
	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	pending := &models.Movie{Meta: models.Meta{IMDBID: "tt0000001", Title: "Pending Movie"}}
	pending.AddStream(models.Stream{InfoHash: "aaaa1111"})
	pending.AddStream(models.Stream{InfoHash: "bbbb2222"})
	pending.BlacklistStream("bbbb2222")
	require.NoError(t, db.CreateMovie(pending))

	done := &models.Show{Meta: models.Meta{IMDBID: "tt0000002", Title: "Done Show", Status: models.StatusCompleted}}
	done.AddSeason(1).AddEpisode(1)
	require.NoError(t, db.CreateShow(done))

	handler := NewStatusHandler(db, testLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 2, resp.TotalItems)
	assert.Equal(t, 1, resp.Pending)
	assert.Equal(t, 1, resp.Completed)
	assert.Equal(t, 1, resp.ItemsByKind["movie"])
	assert.Equal(t, 1, resp.ItemsByKind["show"])
	assert.Equal(t, 2, resp.Streams)
	assert.Equal(t, 1, resp.Blacklisted)
}

func TestStatusHandlerRejectsNonGet(t *testing.T) {
	handler := NewStatusHandler(nil, testLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	handler := NewHealthHandler(testLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}
