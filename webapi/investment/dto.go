package investment

// InvestRequest places Amount credits on a case.
type InvestRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}
