package domain

import (
	"strings"
)

// MediaKind is the attachment type the platform expects for a media item.
type MediaKind string

const (
	// MediaImage is a still image attachment.
	MediaImage MediaKind = "image"
	// MediaVideo is a video attachment.
	MediaVideo MediaKind = "video"
)

// MediaDescriptor is one item of the onboarding gallery. Immutable after
// catalog load.
type MediaDescriptor struct {
	URL  string    `json:"url"`
	Kind MediaKind `json:"kind"`
}

var videoSuffixes = []string{".mp4", ".mov", ".m4v", ".avi", ".webm"}

// KindForURL derives the media kind from the URL's extension. Query strings
// are ignored. Unknown extensions default to image.
func KindForURL(url string) MediaKind {
	trimmed := url
	if i := strings.IndexByte(trimmed, '?'); i >= 0 {
		trimmed = trimmed[:i]
	}
	lower := strings.ToLower(trimmed)
	for _, suffix := range videoSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return MediaVideo
		}
	}
	return MediaImage
}
