package domain

import "fmt"

// GroupValidation partitions a drop's article set for one group into the
// articles that may still be sent today and the ones the same-day rule blocks.
// Allowed and blocked are disjoint and together cover the drop's article set.
type GroupValidation struct {
	GroupID           string   `json:"group_id"`
	GroupName         string   `json:"group_name"`
	AllowedArticleIDs []string `json:"allowed_article_ids"`
	BlockedArticleIDs []string `json:"blocked_article_ids"`
	Warnings          []string `json:"warnings,omitempty"`
}

// Exhausted reports whether nothing may be sent to this group today.
func (g GroupValidation) Exhausted() bool {
	return len(g.AllowedArticleIDs) == 0
}

// DropValidationResult is recomputed on every validation call; it is never
// cached because history may change between calls.
type DropValidationResult struct {
	CanSend  bool              `json:"can_send"`
	Errors   []string          `json:"errors,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	PerGroup []GroupValidation `json:"per_group"`
}

// CanSendOverall is true iff at least one group still has an allowed article.
// One exhausted group never blocks the whole drop; it degrades to a partial send.
func CanSendOverall(perGroup []GroupValidation) bool {
	for _, g := range perGroup {
		if !g.Exhausted() {
			return true
		}
	}
	return false
}

// BlockedWarning is the per-group message emitted when some articles are blocked.
func BlockedWarning(blocked int, groupName string) string {
	return fmt.Sprintf("%d article(s) already sent to %s today", blocked, groupName)
}

// ExhaustedWarning is the per-group message emitted when every article is blocked.
func ExhaustedWarning(groupName string) string {
	return fmt.Sprintf("all articles already sent to %s today", groupName)
}
