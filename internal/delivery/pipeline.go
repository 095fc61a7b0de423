// Package delivery sends the onboarding media gallery in paced, resilient
// chunks.
package delivery

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmrelampagos/pagereply/internal/domain"
	"github.com/jmrelampagos/pagereply/internal/messenger"
)

// Report summarizes one gallery delivery. Delivered+Failed always equals
// the number of items handed to Deliver.
type Report struct {
	Delivered int
	Failed    int
}

// Pipeline delivers ordered media sequences through the Send API, batching
// items into chunks and falling back to per-item sends when a batch fails.
// Delivery is best-effort: a failed item is logged and skipped, never
// retried, and never aborts the remainder of the gallery.
type Pipeline struct {
	sender          messenger.Sender
	chunkSize       int
	interChunkDelay time.Duration
	interItemDelay  time.Duration
}

// NewPipeline creates a delivery pipeline.
func NewPipeline(sender messenger.Sender, chunkSize int, interChunkDelay, interItemDelay time.Duration) *Pipeline {
	if chunkSize < 1 {
		chunkSize = 1
	}
	return &Pipeline{
		sender:          sender,
		chunkSize:       chunkSize,
		interChunkDelay: interChunkDelay,
		interItemDelay:  interItemDelay,
	}
}

// Deliver sends all items to the subject in original order. It never
// returns an error; partial failures are reflected in the report.
func (p *Pipeline) Deliver(ctx context.Context, subjectID string, items []domain.MediaDescriptor) Report {
	var report Report
	if len(items) == 0 {
		return report
	}

	for start := 0; start < len(items); start += p.chunkSize {
		end := start + p.chunkSize
		if end > len(items) {
			end = len(items)
		}
		chunk := items[start:end]

		if start > 0 {
			time.Sleep(p.interChunkDelay)
		}

		if err := p.sender.SendMediaBatch(ctx, subjectID, chunk); err != nil {
			slog.Warn("Batch send failed, falling back to per-item delivery",
				"subject_id", subjectID,
				"chunk_start", start,
				"chunk_len", len(chunk),
				"error", err)
			p.deliverIndividually(ctx, subjectID, chunk, &report)
			continue
		}

		report.Delivered += len(chunk)
	}

	slog.Info("Gallery delivery complete",
		"subject_id", subjectID,
		"delivered", report.Delivered,
		"failed", report.Failed)
	return report
}

// deliverIndividually sends each chunk item on its own, pacing between
// items. Individual failures are skipped so the rest of the gallery still
// goes out.
func (p *Pipeline) deliverIndividually(ctx context.Context, subjectID string, chunk []domain.MediaDescriptor, report *Report) {
	for i, item := range chunk {
		if i > 0 {
			time.Sleep(p.interItemDelay)
		}
		if err := p.sender.SendSingleMedia(ctx, subjectID, item); err != nil {
			slog.Warn("Media item send failed, skipping",
				"subject_id", subjectID,
				"url", item.URL,
				"kind", item.Kind,
				"error", err)
			report.Failed++
			continue
		}
		report.Delivered++
	}
}
