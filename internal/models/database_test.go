package models

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateAndGetMovie(t *testing.T) {
	db := testDB(t)

	movie := &Movie{Meta: Meta{IMDBID: "tt0000001", Title: "Some Movie"}, Year: 2020}
	require.NoError(t, db.CreateMovie(movie))
	require.NotZero(t, movie.ID)
	assert.Equal(t, StatusPending, movie.Status)

	got, err := db.GetMovieByID(movie.ID)
	require.NoError(t, err)
	assert.Equal(t, "Some Movie", got.Title)

	byIMDB, err := db.GetMovieByIMDBID("tt0000001")
	require.NoError(t, err)
	assert.Equal(t, movie.ID, byIMDB.ID)
}

func TestShowRoundTripRewiresTree(t *testing.T) {
	db := testDB(t)

	show := &Show{Meta: Meta{IMDBID: "tt0000002", Title: "Some Show"}}
	season := show.AddSeason(1)
	season.AddEpisode(1)
	season.AddEpisode(2)
	require.NoError(t, db.CreateShow(show))

	got, err := db.GetShowByID(show.ID)
	require.NoError(t, err)
	require.Len(t, got.Seasons, 1)
	require.Len(t, got.Seasons[0].Episodes, 2)

	// Back-references are rebuilt on load.
	assert.Same(t, got, got.Seasons[0].Root())
	assert.Same(t, got, got.Seasons[0].Episodes[1].Root())
	assert.Equal(t, "tt0000002", got.Seasons[0].Episodes[0].IMDB())
}

func TestUpdateItemPersistsThroughRoot(t *testing.T) {
	db := testDB(t)

	show := &Show{Meta: Meta{IMDBID: "tt0000003", Title: "Some Show"}}
	season := show.AddSeason(1)
	episode := season.AddEpisode(1)
	require.NoError(t, db.CreateShow(show))

	// Mutating a leaf and updating through it must persist the whole tree.
	episode.File = "Show.S01E01.mkv"
	show.Status = StatusCompleted
	require.NoError(t, db.UpdateItem(episode))

	got, err := db.GetShowByID(show.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, "Show.S01E01.mkv", got.Seasons[0].Episodes[0].File)
}

func TestUpdateItemRejectsDetachedItem(t *testing.T) {
	db := testDB(t)

	orphan := &Episode{Number: 1}
	assert.Error(t, db.UpdateItem(orphan))
}

func TestGetPendingItems(t *testing.T) {
	db := testDB(t)

	pending := &Movie{Meta: Meta{IMDBID: "tt0000010", Title: "Pending Movie"}}
	require.NoError(t, db.CreateMovie(pending))

	done := &Movie{Meta: Meta{IMDBID: "tt0000011", Title: "Done Movie", Status: StatusCompleted}}
	require.NoError(t, db.CreateMovie(done))

	show := &Show{Meta: Meta{IMDBID: "tt0000012", Title: "Pending Show"}}
	show.AddSeason(1).AddEpisode(1)
	require.NoError(t, db.CreateShow(show))

	items, err := db.GetPendingItems()
	require.NoError(t, err)
	require.Len(t, items, 2)

	titles := make(map[string]bool)
	for _, item := range items {
		titles[item.LogString()] = true
	}
	assert.True(t, titles["Pending Movie"])
	assert.True(t, titles["Pending Show"])
}

func TestDeleteMovie(t *testing.T) {
	db := testDB(t)

	movie := &Movie{Meta: Meta{IMDBID: "tt0000020", Title: "Some Movie"}}
	require.NoError(t, db.CreateMovie(movie))
	require.NoError(t, db.DeleteMovie(movie.ID))

	_, err := db.GetMovieByID(movie.ID)
	assert.Error(t, err)
}
