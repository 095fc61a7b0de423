// Package engage implements the per-subject engagement policy and the
// event orchestration around it.
package engage

import (
	"time"

	"github.com/jmrelampagos/pagereply/internal/domain"
)

// Action is the reply decision for one admitted event.
type Action string

const (
	// ActionOnboard delivers the full media gallery plus the welcome text.
	ActionOnboard Action = "onboard"
	// ActionFollowup delivers the one-off acknowledgement text.
	ActionFollowup Action = "followup"
	// ActionSilent sends nothing and leaves state untouched.
	ActionSilent Action = "silent"
)

// Policy holds the cooldown windows the decision function compares against.
type Policy struct {
	OnboardingCooldown time.Duration
	FollowupCooldown   time.Duration
}

// Decide computes the reply action and the resulting state for a subject.
// It is a pure function of its inputs: no I/O, no clock reads.
//
// Privileged subjects and subjects whose onboarding cooldown has elapsed
// (boundary-exact counts as elapsed) are onboarded; onboarding stamps both
// timestamps so a follow-up cannot fire immediately afterwards. Within the
// onboarding window, at most one follow-up is sent per follow-up window.
// Silent decisions return the input state unchanged, so the caller can
// skip the store write.
func (p Policy) Decide(state *domain.EngagementState, now time.Time, privileged bool) (Action, *domain.EngagementState) {
	if state == nil {
		state = &domain.EngagementState{}
	}

	if privileged || state.OnboardingExpired(now, p.OnboardingCooldown) {
		ts := now
		next := *state
		next.LastOnboardedAt = &ts
		next.LastFollowupAt = &ts
		return ActionOnboard, &next
	}

	if state.FollowupDue(now, p.FollowupCooldown) {
		ts := now
		next := *state
		next.LastFollowupAt = &ts
		return ActionFollowup, &next
	}

	return ActionSilent, state
}
