package metrics

import "time"

// Noop is a Recorder that discards everything. Useful in tests and when
// metrics are disabled.
type Noop struct{}

// NewNoop creates a no-op recorder.
func NewNoop() *Noop { return &Noop{} }

func (*Noop) IncPostbackReceived(string)          {}
func (*Noop) IncPostbackIgnored()                 {}
func (*Noop) IncPostbackRejected(string)          {}
func (*Noop) IncPostbackAttributed(string)        {}
func (*Noop) IncSale()                            {}
func (*Noop) IncNotification(string)              {}
func (*Noop) ObservePostbackDuration(time.Duration) {}
