package models

import (
	"encoding/json"
	"time"
)

// RawPosting is one row of the raw layer: the untouched payload from a
// source API plus its external natural key.
type RawPosting struct {
	Source      string
	SourceJobID string
	Payload     json.RawMessage
	IngestedAt  time.Time
}

type Company struct {
	CompanyID string
	Name      string
}

type Location struct {
	LocationID string
	Name       string
	Remote     bool
}

// Role is a lookup row for a (role_family, seniority) pair. Many job
// postings share one role row.
type Role struct {
	RoleID     string
	RoleFamily string
	Seniority  string
}

// JobPosting is the silver-layer fact row. RoleID points at the
// unknown/unknown role until enrichment updates it; EnrichedAt records
// that enrichment ran, regardless of how many skills it found.
type JobPosting struct {
	JobID           string
	Source          string
	SourceJobID     string
	Title           string
	CompanyID       string
	LocationID      string
	RoleID          string
	PostedDate      string // YYYY-MM-DD, empty when the posting carried no date
	Description     string
	DescriptionHash string
	URL             string
	InsertedAt      time.Time
	EnrichedAt      *time.Time
}
