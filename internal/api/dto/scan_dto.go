package dto

type CreateScanRequest struct {
	TargetID string         `json:"target_id"`
	URL      string         `json:"url"`
	Checks   []string       `json:"checks" binding:"required"`
	Config   map[string]any `json:"config"`
}

type ListScansRequest struct {
	Status   string `form:"status"`
	TargetID string `form:"target_id"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListScansResponse struct {
	Scans      []ScanDTO `json:"scans"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

type ScanDTO struct {
	ID          string         `json:"id"`
	TargetID    string         `json:"target_id,omitempty"`
	URL         string         `json:"url,omitempty"`
	Checks      []string       `json:"checks"`
	Config      map[string]any `json:"config,omitempty"`
	Status      string         `json:"status"`
	Progress    int            `json:"progress"`
	StartedAt   string         `json:"started_at,omitempty"`
	CompletedAt string         `json:"completed_at,omitempty"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

type ListScanResultsResponse struct {
	ScanID  string          `json:"scan_id"`
	Results []ScanResultDTO `json:"results"`
}

type ScanResultDTO struct {
	ID        string         `json:"id"`
	ScanID    string         `json:"scan_id"`
	CheckType string         `json:"check_type"`
	Status    string         `json:"status"`
	Data      map[string]any `json:"data,omitempty"`
	Findings  int            `json:"findings"`
	Severity  string         `json:"severity"`
	CreatedAt string         `json:"created_at"`
}
