// Package models defines the journal client's data models: the persisted
// (encrypted) entry row, the transient decrypted views handed to callers,
// and the single key record.
package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MoodUnset = 0
	MoodMin   = 1
	MoodMax   = 5
)

// Entry is the persisted row. It never carries the plaintext body.
type Entry struct {
	// Id is a uuid assigned on creation; it never changes.
	Id string

	// Ciphertext is the AES-GCM sealed body, Nonce its 12-byte IV.
	Ciphertext []byte
	Nonce      []byte

	// Mood is 1..5, or MoodUnset.
	Mood      int
	WordCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Meta strips the encrypted payload from the row.
func (e *Entry) Meta() EntryMeta {
	return EntryMeta{
		Id:        e.Id,
		Mood:      e.Mood,
		WordCount: e.WordCount,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// EntryMeta is the plaintext metadata of an entry.
type EntryMeta struct {
	Id        string    `json:"id"`
	Mood      int       `json:"mood,omitempty"`
	WordCount int       `json:"word_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntryView is a fully decrypted entry. It only lives in memory.
type EntryView struct {
	EntryMeta
	Content string `json:"content"`
}

// Preview is a listing row with a bounded excerpt of the body.
type Preview struct {
	EntryMeta
	Preview string `json:"preview"`
}

// EntryUpdate carries the optional fields of an update; nil means unchanged.
type EntryUpdate struct {
	Content *string
	Mood    *int
}

// ValidMood reports whether m is MoodUnset or within MoodMin..MoodMax.
func ValidMood(m int) bool {
	return m == MoodUnset || (m >= MoodMin && m <= MoodMax)
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// Excerpt returns the first n runes of s, with "..." appended when s was cut.
// A non-positive n returns s unchanged.
func Excerpt(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
