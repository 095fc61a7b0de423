package engage

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmrelampagos/pagereply/internal/delivery"
	"github.com/jmrelampagos/pagereply/internal/domain"
	"github.com/jmrelampagos/pagereply/internal/messenger"
	"github.com/jmrelampagos/pagereply/internal/store"
)

const welcomeText = "Hi! 👋 Thanks for messaging us.\n" +
	"Please provide your CAR, YEAR, MODEL, and VARIANT so we can assist you faster.\n" +
	"Thank you!"

const followupText = "Hello! 😊 Thanks for messaging us. We're currently away right now, " +
	"but don't worry — we'll reply as soon as we're back online. Your message is important to us!"

// GalleryDeliverer sends an ordered media sequence to a subject.
type GalleryDeliverer interface {
	Deliver(ctx context.Context, subjectID string, items []domain.MediaDescriptor) delivery.Report
}

// EventAdmitter filters redelivered events.
type EventAdmitter interface {
	Admit(subjectID, eventID string) bool
}

// Activity describes one decided event, published to observers such as the
// ops activity feed.
type Activity struct {
	SubjectID string    `json:"subject_id"`
	Action    Action    `json:"action"`
	Delivered int       `json:"delivered"`
	Failed    int       `json:"failed"`
	At        time.Time `json:"at"`
}

// ActivityPublisher receives one Activity per decided event.
type ActivityPublisher interface {
	Publish(Activity)
}

// Orchestrator drives one inbound event through dedup, the engagement
// decision, outbound delivery and persistence.
type Orchestrator struct {
	repo         store.Repository
	sender       messenger.Sender
	gallery      GalleryDeliverer
	admitter     EventAdmitter
	policy       Policy
	catalog      []domain.MediaDescriptor
	isPrivileged func(subjectID string) bool
	publisher    ActivityPublisher
	locks        *subjectLocks
}

// NewOrchestrator creates the per-event driver. isPrivileged may be nil
// (no subject bypasses cooldown); publisher may be nil (no feed).
func NewOrchestrator(
	repo store.Repository,
	sender messenger.Sender,
	gallery GalleryDeliverer,
	admitter EventAdmitter,
	policy Policy,
	catalog []domain.MediaDescriptor,
	isPrivileged func(subjectID string) bool,
	publisher ActivityPublisher,
) *Orchestrator {
	if isPrivileged == nil {
		isPrivileged = func(string) bool { return false }
	}
	return &Orchestrator{
		repo:         repo,
		sender:       sender,
		gallery:      gallery,
		admitter:     admitter,
		policy:       policy,
		catalog:      catalog,
		isPrivileged: isPrivileged,
		publisher:    publisher,
		locks:        newSubjectLocks(),
	}
}

// HandleEvent processes one inbound user message. It never returns an
// error: every failure degrades to doing less, and a send failure after
// state was persisted does not roll the state back. Store failures abort
// without sending (fail-closed) to avoid double-onboarding risk.
func (o *Orchestrator) HandleEvent(ctx context.Context, subjectID, eventID string, now time.Time) {
	if !o.admitter.Admit(subjectID, eventID) {
		slog.Info("Dropping redelivered event", "subject_id", subjectID, "event_id", eventID)
		return
	}

	lock := o.locks.get(subjectID)
	lock.Lock()
	defer lock.Unlock()

	state, err := o.repo.GetState(ctx, subjectID)
	if err != nil {
		slog.Error("Failed to load engagement state, aborting event",
			"subject_id", subjectID, "error", err)
		return
	}
	if state == nil {
		state = &domain.EngagementState{SubjectID: subjectID}
	}

	action, next := o.policy.Decide(state, now, o.isPrivileged(subjectID))

	var report delivery.Report
	switch action {
	case ActionOnboard:
		report = o.onboard(ctx, subjectID, next)
	case ActionFollowup:
		o.followup(ctx, subjectID, next)
	case ActionSilent:
		slog.Info("Silent: subject within both cooldowns", "subject_id", subjectID)
	}

	if o.publisher != nil {
		o.publisher.Publish(Activity{
			SubjectID: subjectID,
			Action:    action,
			Delivered: report.Delivered,
			Failed:    report.Failed,
			At:        now,
		})
	}
}

// onboard persists the new state before any send so a crash mid-sequence
// cannot replay the gallery on redelivery, then delivers the gallery and
// the welcome text.
func (o *Orchestrator) onboard(ctx context.Context, subjectID string, next *domain.EngagementState) delivery.Report {
	next.SubjectID = subjectID
	if err := o.repo.UpsertState(ctx, next); err != nil {
		slog.Error("Failed to persist onboarding state, aborting sends",
			"subject_id", subjectID, "error", err)
		return delivery.Report{}
	}

	slog.Info("Onboarding subject", "subject_id", subjectID, "items", len(o.catalog))

	var report delivery.Report
	if len(o.catalog) > 0 {
		report = o.gallery.Deliver(ctx, subjectID, o.catalog)
	}

	if err := o.sender.SendText(ctx, subjectID, welcomeText); err != nil {
		slog.Warn("Welcome text send failed", "subject_id", subjectID, "error", err)
	}
	return report
}

// followup persists before sending for the same reason as onboard.
func (o *Orchestrator) followup(ctx context.Context, subjectID string, next *domain.EngagementState) {
	next.SubjectID = subjectID
	if err := o.repo.UpsertState(ctx, next); err != nil {
		slog.Error("Failed to persist follow-up state, aborting send",
			"subject_id", subjectID, "error", err)
		return
	}

	slog.Info("Sending follow-up", "subject_id", subjectID)
	if err := o.sender.SendText(ctx, subjectID, followupText); err != nil {
		slog.Warn("Follow-up text send failed", "subject_id", subjectID, "error", err)
	}
}
