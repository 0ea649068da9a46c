// Package model contains domain models passed between layers.
package model

import "time"

// Item is a single assessable question with its curriculum standard value.
// Difficulty is attached by the difficulty oracle before ranking; catalogs
// return items with Difficulty zero. Items are immutable once fetched for a
// ranking pass.
type Item struct {
	ID            int64   // unique, stable item identifier
	SubjectID     int64   // subject/domain the item belongs to
	Statement     string  // question text shown to the student
	StandardValue float64 // raw curriculum value of the standard the item tests
	Difficulty    float64 // predicted difficulty in [0,1]
}

// AnswerRecord captures a submitted answer for the history journal.
type AnswerRecord struct {
	RecordID   string    // idempotency key, "<session>:<item>"
	SessionID  string    // session the answer belongs to
	StudentID  string    // empty for anonymous sessions
	ItemID     int64     // answered item
	OptionID   int64     // chosen answer option
	SubjectID  int64     // subject reported with the answer
	RawValue   float64   // current raw curriculum value reported by the caller
	AnsweredAt time.Time // submission time
}
