package models

// MatchResult is the row returned by the find_match procedure.
type MatchResult struct {
	Success       bool   `json:"success"`
	MatchedUserID string `json:"matched_user_id"`
}
