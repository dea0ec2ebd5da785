package cases

// CreateCaseRequest opens a case with the caller as client.
type CreateCaseRequest struct {
	Title      string `json:"title" validate:"required,max=200"`
	ProviderID string `json:"provider_id" validate:"required,uuid"`
}

// UpdateStatusRequest moves a case to Status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new in-progress completed cancelled"`
}

// CommentRequest adds a comment to a case thread.
type CommentRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}
