package request

type ApplyToGigRequest struct {
	GigID string `json:"gig_id" validate:"required,uuid"`
}
