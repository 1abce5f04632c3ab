package models

// JobTypeSuggestionsRefresh regenerates cached suggestions for one day.
const JobTypeSuggestionsRefresh = "suggestions_refresh"

// SuggestionsRefreshRequest is the optional body of
// POST /v1/admin/jobs/suggestions-refresh. Date defaults to today.
type SuggestionsRefreshRequest struct {
	Date string `json:"date,omitempty"`
}

// JobAccepted describes an enqueued job.
type JobAccepted struct {
	MessageID string `json:"messageId"`
	JobType   string `json:"jobType"`
	Date      string `json:"date,omitempty"`
}
