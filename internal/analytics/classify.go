package analytics

import (
	"time"

	"powerpulse-backend/internal/model"
)

const (
	onlineWindow  = 24 * time.Hour
	unknownWindow = 72 * time.Hour
)

// ClassifyStatus derives a device status from the age of its most recent
// reading. An explicit online flag from the feed overrides the age heuristic
// entirely.
//
//	age <= 24h          -> online
//	24h < age <= 72h    -> unknown
//	age > 72h or unseen -> offline
func ClassifyStatus(lastSeen *time.Time, explicit *bool, now time.Time) string {
	if explicit != nil {
		if *explicit {
			return StatusOnline
		}
		return StatusOffline
	}
	if lastSeen == nil || lastSeen.IsZero() {
		return StatusOffline
	}
	age := now.Sub(*lastSeen)
	switch {
	case age <= onlineWindow:
		return StatusOnline
	case age <= unknownWindow:
		return StatusUnknown
	default:
		return StatusOffline
	}
}

// deviceSource passes a recognized provenance tag through and defaults the
// rest to the companion app.
func deviceSource(source string) string {
	if source == model.SourcePlug {
		return model.SourcePlug
	}
	return model.SourceApp
}
