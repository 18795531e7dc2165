// Copyright (c) 2026 Kanakku. All rights reserved.

/*
Package expense implements the shared expense ledger.

Every expense belongs to the user who recorded it (the owner). Regular users
see only their own entries; administrators see the whole ledger. Destructive
ledger operations (delete all, delete selected) are administrative and live
in the admin package, on top of this package's store.
*/
package expense

import (
	"time"
)

// Expense is one recorded spending entry.
type Expense struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Friend    string    `json:"friend"`
	Category  string    `json:"category"`
	Amount    float64   `json:"amount"`
	Notes     string    `json:"notes,omitempty"`
	SpentAt   time.Time `json:"spent_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Input length limits.
const (
	MaxFriendLength   = 100
	MaxCategoryLength = 50
	MaxNotesLength    = 500
)

// SummaryRow is one aggregation bucket of the ledger.
type SummaryRow struct {
	// Key is a stable, URL-safe identifier derived from the label.
	Key string `json:"key"`

	// Label is the raw grouping value (a category or friend name).
	Label string `json:"label"`

	// Total is the summed amount for this bucket.
	Total float64 `json:"total"`

	// Count is how many expenses fall in this bucket.
	Count int `json:"count"`
}

// Grouping axes accepted by the summary endpoint.
const (
	GroupByCategory = "category"
	GroupByFriend   = "friend"
)
