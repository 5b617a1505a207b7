package dto

type CreateTargetRequest struct {
	Name        string `json:"name" binding:"required"`
	Hostname    string `json:"hostname" binding:"required"`
	Description string `json:"description"`
}

type TargetDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Hostname    string `json:"hostname"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type ListTargetsResponse struct {
	Targets []TargetDTO `json:"targets"`
}
