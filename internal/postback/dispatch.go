package postback

import "context"

// dispatch attempts delivery to every recipient, one attempt each. A
// failure for one recipient never blocks the rest; there is no retry.
// Returns the recipients for which delivery was attempted successfully.
func (e *Engine) dispatch(ctx context.Context, recipients []int64, text string) []int64 {
	if text == "" || len(recipients) == 0 {
		return nil
	}

	sent := make([]int64, 0, len(recipients))
	for _, id := range recipients {
		if err := e.messenger.SendMessage(ctx, id, text); err != nil {
			e.logger.Warn("notification delivery failed",
				"recipient_id", id, "error", err)
			e.metrics.IncNotification("failed")
			continue
		}
		e.metrics.IncNotification("sent")
		sent = append(sent, id)
	}
	return sent
}
