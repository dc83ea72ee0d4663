package conversation

import "easyservice/models"

// Extract reduces an inbound event to the token the alias tables are keyed by.
// Text yields its trimmed lower-cased body and list or button replies yield
// their selection id. Location events and unknown shapes yield "", which no
// alias matches.
func Extract(event models.InboundEvent) string {
	switch event.Type {
	case models.EventText:
		if event.Text == nil {
			return ""
		}
		return normalize(event.Text.Body)
	case models.EventInteractive:
		reply := event.Interactive
		if reply == nil {
			return ""
		}
		switch reply.Kind {
		case models.InteractiveList, models.InteractiveButton:
			return normalize(reply.SelectionID)
		}
	}
	return ""
}
