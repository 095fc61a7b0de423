// Package domain contains core domain types for the auto-responder.
package domain

import (
	"time"
)

// EngagementState tracks where a subject sits in the engagement lifecycle.
// A subject with no stored state is represented by the zero value: never
// onboarded, never followed up.
type EngagementState struct {
	SubjectID       string     `json:"subject_id"`
	LastOnboardedAt *time.Time `json:"last_onboarded_at,omitempty"`
	LastFollowupAt  *time.Time `json:"last_followup_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Onboarded returns true if the subject has completed the onboarding
// sequence at least once.
func (s *EngagementState) Onboarded() bool {
	return s.LastOnboardedAt != nil
}

// OnboardingExpired returns true if the onboarding cooldown has elapsed.
// A boundary-exact duration counts as expired.
func (s *EngagementState) OnboardingExpired(now time.Time, cooldown time.Duration) bool {
	if s.LastOnboardedAt == nil {
		return true
	}
	return now.Sub(*s.LastOnboardedAt) >= cooldown
}

// FollowupDue returns true if the follow-up cooldown has elapsed since the
// last follow-up. A subject that was never followed up is due.
func (s *EngagementState) FollowupDue(now time.Time, cooldown time.Duration) bool {
	if s.LastFollowupAt == nil {
		return true
	}
	return now.Sub(*s.LastFollowupAt) >= cooldown
}
