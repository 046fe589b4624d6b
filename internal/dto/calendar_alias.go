package dto

import "time"

// CalendarAliasRequest captures query parameters for the /calendar alias.
type CalendarAliasRequest struct {
	TermID    string
	ClassID   string
	StartDate *time.Time
	EndDate   *time.Time
}

// CalendarAliasEvent represents the API response item for /calendar.
type CalendarAliasEvent struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Type        string  `json:"type"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`
	Description *string `json:"description,omitempty"`
	Audience    string  `json:"audience"`
	ClassID     *string `json:"classId,omitempty"`
}

// CalendarAliasRange is the resolved date range of a /calendar response.
type CalendarAliasRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// CalendarAliasResponse is the API response body for /calendar.
type CalendarAliasResponse struct {
	TermID  *string              `json:"termId,omitempty"`
	ClassID *string              `json:"classId,omitempty"`
	Range   CalendarAliasRange   `json:"range"`
	Events  []CalendarAliasEvent `json:"events"`
}
