package models

// Kind discriminates the media item variants
type Kind string

const (
	KindMovie   Kind = "movie"
	KindShow    Kind = "show"
	KindSeason  Kind = "season"
	KindEpisode Kind = "episode"
)

// Status represents the current processing status of a media item
type Status string

const (
	StatusPending     Status = "pending"     // Waiting for streams / resolution
	StatusDownloading Status = "downloading" // Binding in progress
	StatusCompleted   Status = "completed"   // All required files bound
	StatusFailed      Status = "failed"      // Every candidate stream exhausted
)
