package domain

import (
	"fmt"
	"time"
)

// Status is one of the four lifecycle states of a Material.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusPublished Status = "published"
)

// AllStatuses lists every status in workflow order.
var AllStatuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusPublished}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusPublished:
		return true
	}
	return false
}

// ParseStatus converts a raw string into a known Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// Material is one uploaded image item under review.
type Material struct {
	ID           int        `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	PreviewURL   string     `json:"previewUrl"`
	OriginalURL  string     `json:"originalUrl"` // may be identical to PreviewURL
	UploadDate   time.Time  `json:"uploadDate"`
	Uploader     string     `json:"uploader"`
	Approver     string     `json:"approver,omitempty"` // whoever last moved it away from pending
	Status       Status     `json:"status"`
	ApprovalDate *time.Time `json:"approvalDate,omitempty"`
}

// Clone returns a copy that shares no memory with m.
func (m Material) Clone() Material {
	if m.ApprovalDate != nil {
		t := *m.ApprovalDate
		m.ApprovalDate = &t
	}
	return m
}

// MaterialDraft is the caller-supplied part of a Material. ID and Status are
// always assigned by the repository.
type MaterialDraft struct {
	Title       string
	Description string
	PreviewURL  string
	OriginalURL string
	UploadDate  time.Time
	Uploader    string
}

// StatusCounts holds how many materials sit in each status.
type StatusCounts struct {
	Pending   int `json:"pending"`
	Approved  int `json:"approved"`
	Rejected  int `json:"rejected"`
	Published int `json:"published"`
}

// Add increments the counter for s.
func (c *StatusCounts) Add(s Status) {
	switch s {
	case StatusPending:
		c.Pending++
	case StatusApproved:
		c.Approved++
	case StatusRejected:
		c.Rejected++
	case StatusPublished:
		c.Published++
	}
}

// DailyCounts is the per-status breakdown of materials uploaded on one day.
type DailyCounts struct {
	Date string `json:"date"` // YYYY-MM-DD
	StatusCounts
}

// Stats is the dashboard summary of the whole collection.
type Stats struct {
	Total int `json:"total"`
	StatusCounts
	Daily []DailyCounts `json:"daily"`
}
