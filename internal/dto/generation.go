package dto

// StartGenerationRequest asks the optimizer for patterns of one month.
type StartGenerationRequest struct {
	YearMonth    string `json:"year_month" validate:"required"`
	PatternCount int    `json:"pattern_count" validate:"omitempty,min=1"`
}
