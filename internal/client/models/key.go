package models

import "time"

// KeyRecord is the single persisted encryption key of an installation.
type KeyRecord struct {
	Material  []byte
	CreatedAt time.Time
}

// Stats summarizes the journal without decrypting it.
type Stats struct {
	Entries     int
	Words       int
	MoodEntries int
	AverageMood float64
	Oldest      time.Time
	Newest      time.Time
}
