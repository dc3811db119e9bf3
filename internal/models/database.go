package models

import (
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Database wraps the bolthold store holding media item trees. Movies and
// Shows are the stored roots; seasons and episodes live inside their show
// record and are re-wired on load.
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// CreateMovie inserts a new movie
func (db *Database) CreateMovie(movie *Movie) error {
	movie.CreatedAt = time.Now()
	movie.UpdatedAt = time.Now()
	if movie.Status == "" {
		movie.Status = StatusPending
	}
	return db.store.Insert(bolthold.NextSequence(), movie)
}

// CreateShow inserts a new show tree
func (db *Database) CreateShow(show *Show) error {
	show.CreatedAt = time.Now()
	show.UpdatedAt = time.Now()
	if show.Status == "" {
		show.Status = StatusPending
	}
	return db.store.Insert(bolthold.NextSequence(), show)
}

// UpdateItem persists the root of the given item's tree. Items not attached
// to a storable root (a season or episode built outside a show) are an error.
func (db *Database) UpdateItem(item MediaItem) error {
	switch root := item.Root().(type) {
	case *Movie:
		root.UpdatedAt = time.Now()
		return db.store.Update(root.ID, root)
	case *Show:
		root.UpdatedAt = time.Now()
		return db.store.Update(root.ID, root)
	default:
		return fmt.Errorf("item %q has no storable root", item.LogString())
	}
}

// GetMovieByID retrieves a movie by ID
func (db *Database) GetMovieByID(id uint64) (*Movie, error) {
	var movie Movie
	if err := db.store.Get(id, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// GetShowByID retrieves a show by ID and rebuilds its tree references
func (db *Database) GetShowByID(id uint64) (*Show, error) {
	var show Show
	if err := db.store.Get(id, &show); err != nil {
		return nil, err
	}
	show.Wire()
	return &show, nil
}

// GetMovieByIMDBID retrieves a movie by IMDB ID
func (db *Database) GetMovieByIMDBID(imdbID string) (*Movie, error) {
	var movie Movie
	err := db.store.FindOne(&movie, bolthold.Where("IMDBID").Eq(imdbID))
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// GetShowByIMDBID retrieves a show by IMDB ID and rebuilds its tree references
func (db *Database) GetShowByIMDBID(imdbID string) (*Show, error) {
	var show Show
	err := db.store.FindOne(&show, bolthold.Where("IMDBID").Eq(imdbID))
	if err != nil {
		return nil, err
	}
	show.Wire()
	return &show, nil
}

// GetPendingItems retrieves every movie and show still waiting on resolution
func (db *Database) GetPendingItems() ([]MediaItem, error) {
	var movies []*Movie
	if err := db.store.Find(&movies, bolthold.Where("Status").Eq(StatusPending)); err != nil {
		return nil, err
	}

	var shows []*Show
	if err := db.store.Find(&shows, bolthold.Where("Status").Eq(StatusPending)); err != nil {
		return nil, err
	}

	items := make([]MediaItem, 0, len(movies)+len(shows))
	for _, m := range movies {
		items = append(items, m)
	}
	for _, s := range shows {
		s.Wire()
		items = append(items, s)
	}
	return items, nil
}

// GetAllItems retrieves every stored movie and show
func (db *Database) GetAllItems() ([]MediaItem, error) {
	var movies []*Movie
	if err := db.store.Find(&movies, nil); err != nil {
		return nil, err
	}

	var shows []*Show
	if err := db.store.Find(&shows, nil); err != nil {
		return nil, err
	}

	items := make([]MediaItem, 0, len(movies)+len(shows))
	for _, m := range movies {
		items = append(items, m)
	}
	for _, s := range shows {
		s.Wire()
		items = append(items, s)
	}
	return items, nil
}

// DeleteMovie deletes a movie by ID
func (db *Database) DeleteMovie(id uint64) error {
	return db.store.Delete(id, &Movie{})
}

// DeleteShow deletes a show by ID
func (db *Database) DeleteShow(id uint64) error {
	return db.store.Delete(id, &Show{})
}
