package models

// Requests for the signal HTTP endpoints.

type TemporalRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,max=32"`
}

// SignalsRequest lists recent signals. From/To (RFC3339, date or unix time) switch
// the lookup from the in-process history to the signal store.
type SignalsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"omitempty,max=32"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=1000"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
}
