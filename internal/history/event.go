// Package history holds the deduplicated, time-ordered stream of play
// events that every analysis reads from.
package history

import "time"

// PlayEvent is a single recorded stream of a track. Events are created by
// the ingestion layer and never mutated afterwards; the ingestion layer
// guarantees non-negative Played and non-empty name fields.
type PlayEvent struct {
	// Timestamp of the play, second precision. Timestamps are taken as
	// already localized; no DST correction is attempted.
	Timestamp time.Time

	// Played is how long the track was streamed for.
	Played time.Duration

	Track  string
	Album  string
	Artist string
}
