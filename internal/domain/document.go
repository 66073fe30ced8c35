package domain

import "time"

// Document is one captured web page in a user's knowledge base.
// Documents are append-only: they are inserted once and never updated,
// only deleted by their owner.
type Document struct {
	ID      int64  `json:"id"`
	OwnerID *int64 `json:"-"` // nil only for legacy rows captured before accounts existed
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
	// CapturedAt is the timestamp string supplied by the capturing client
	// (the extension sends ISO 8601). The store fills it at insertion when
	// the client omitted it.
	CapturedAt string `json:"timestamp"`
	// StoredAt is assigned by the store at insertion, monotonic with
	// insertion order.
	StoredAt time.Time `json:"created_at"`
}

// Candidate is a document selected as grounding material for one question.
// It exists only for the duration of a single request.
type Candidate struct {
	Document Document
	Rank     int // 1-based position in the selection order
}

// Citation is the reference metadata returned alongside an answer, traceable
// to a stored document.
type Citation struct {
	ID         int64  `json:"id"`
	URL        string `json:"url"`
	Title      string `json:"title"`
	Snippet    string `json:"snippet"`
	CapturedAt string `json:"timestamp"`
}
