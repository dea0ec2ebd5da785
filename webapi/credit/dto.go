package credit

// TransferRequest moves credits from the caller to RecipientID.
type TransferRequest struct {
	RecipientID string `json:"recipient_id" validate:"required,uuid"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
}
