package models

import "time"

// Stream is a scraper-produced candidate for an item: an info-hash plus the
// raw release title it was found under. A stream either leads to a download
// or ends up in the item's blacklist; blacklisting is terminal for that item.
type Stream struct {
	InfoHash string
	RawTitle string
	Scraper  string // Which scraper produced it
	AddedAt  time.Time
}
