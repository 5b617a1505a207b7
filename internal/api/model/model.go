package model

import (
	"time"

	"github.com/lib/pq"
)

type Scan struct {
	ID          string         `db:"id"`
	TargetID    *string        `db:"target_id"`
	URL         *string        `db:"url"`
	Checks      pq.StringArray `db:"checks"`
	Config      []byte         `db:"config"`
	Status      string         `db:"status"`
	Progress    int            `db:"progress"`
	StartedAt   *time.Time     `db:"started_at"`
	CompletedAt *time.Time     `db:"completed_at"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

type ScanResult struct {
	ID        string    `db:"id"`
	ScanID    string    `db:"scan_id"`
	CheckType string    `db:"check_type"`
	Status    string    `db:"status"`
	Data      []byte    `db:"data"`
	Findings  int       `db:"findings"`
	Severity  string    `db:"severity"`
	CreatedAt time.Time `db:"created_at"`
}

type Target struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Hostname    string    `db:"hostname"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}
