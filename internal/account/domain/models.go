package domain

import (
	"time"
)

// UserSnapshot captures identity fields before the user row is removed;
// they are unavailable afterwards.
type UserSnapshot struct {
	UserID      string     `json:"user_id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	JoinedAt    time.Time  `json:"joined_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// DomainCounts maps a record kind to the number of rows affected.
type DomainCounts map[string]int64

// DeletionSummary accumulates what one deletion attempt did, per data
// domain. It exists only for the duration of the request: the audit trail
// and the response payload, not a persisted model.
type DeletionSummary struct {
	User     UserSnapshot `json:"user"`
	Reason   string       `json:"reason,omitempty"`
	Feedback string       `json:"feedback,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	DeletedData map[string]DomainCounts `json:"deleted_data"`

	// FilesRemoved maps profile file fields to whether a file was removed
	// from disk in the post-commit cleanup phase.
	FilesRemoved map[string]bool `json:"files_removed"`

	NotificationSent  bool   `json:"notification_sent"`
	NotificationError string `json:"notification_error,omitempty"`
}

// Record merges counts into the named domain bucket.
func (s *DeletionSummary) Record(domainName string, counts DomainCounts) {
	if s.DeletedData == nil {
		s.DeletedData = make(map[string]DomainCounts)
	}
	bucket, ok := s.DeletedData[domainName]
	if !ok {
		bucket = make(DomainCounts, len(counts))
		s.DeletedData[domainName] = bucket
	}
	for key, value := range counts {
		bucket[key] += value
	}
}

// DeletionResult is the caller-facing outcome. On failure the summary
// reflects what was attempted in-memory before rollback, for diagnostics
// only; none of it was committed.
type DeletionResult struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Error   string           `json:"error,omitempty"`
	Summary *DeletionSummary `json:"summary"`
}

// DeletionPreview counts what a deletion would destroy, without mutating
// anything. Rendered on the confirmation screen before the irreversible
// action.
type DeletionPreview struct {
	Brands                int64 `json:"brands"`
	ImpressionsReceived   int64 `json:"impressions_received"`
	ImpressionsGiven      int64 `json:"impressions_given"`
	PageViews             int64 `json:"page_views"`
	BlogComments          int64 `json:"blog_comments"`
	ContentImages         int64 `json:"content_images"`
	Links                 int64 `json:"links"`
	TweetConfigurations   int64 `json:"tweet_configurations"`
	Tasks                 int64 `json:"tasks"`
	TaskApplications      int64 `json:"task_applications"`
	ServiceConnections    int64 `json:"service_connections"`
	Conversations         int64 `json:"conversations"`
	ChatRooms             int64 `json:"chat_rooms"`
	ReferralSignups       int64 `json:"referral_signups"`
	ReferralSubscriptions int64 `json:"referral_subscriptions"`
	Badges                int64 `json:"badges"`
}
