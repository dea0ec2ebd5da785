package lending

// CreditRequestInput asks the fund for a micro-credit of Amount.
type CreditRequestInput struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// CapitalInput adds Amount to the fund's capital.
type CapitalInput struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}
