// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the postback pipeline.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Ingestion
	IncPostbackReceived(method string) // "post" or "get"
	IncPostbackIgnored()               // non-meaningful payloads
	IncPostbackRejected(reason string) // "missing_token", "bad_token"

	// Attribution
	IncPostbackAttributed(how string) // "alias", "rule", "fallback"
	IncSale()

	// Dispatch
	IncNotification(status string) // "sent" or "failed"

	ObservePostbackDuration(d time.Duration)
}
