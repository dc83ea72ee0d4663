package conversation

import (
	"fmt"
	"strings"

	"easyservice/models"
)

// message is one outbound send. Buttons take precedence over sections; a
// message with neither goes out as plain text.
type message struct {
	body     string
	action   string
	buttons  []models.Button
	sections []models.ListSection
}

func text(body string) message {
	return message{body: body}
}

// Fixed notices.
const (
	noticeConsentInvalid  = "Please select an option using the buttons above."
	noticeCategoryInvalid = "⚠️ Please select a brand from the list above or type the brand name."
	noticeCustomCategory  = "🚴 *Please specify your other cycle brand:*\n\n(e.g., 'Hero', 'Atlas', 'Firefox', 'Avon')"
	noticeCustomEmpty     = "❌ Please enter a valid brand name.\n\nType your cycle brand (e.g., 'Hero', 'Atlas', 'Firefox'):"
	noticeCustomTooLong   = "❌ Brand name is too long. Please enter a shorter brand name (max 15 characters):"
	noticeServiceInvalid  = "Please select an issue category using the list above."
	noticeSlotInvalid     = "Please select a time slot by tapping one of the buttons above."
	noticeLocationShare   = "📎 Tap the attachment icon, choose *Location* and send your current location."
	noticeLocationManual  = "Please type your complete address."
	noticeLocationInvalid = "Please share your location or type your complete address."
	noticeSummaryInvalid  = "Please confirm or cancel your booking using the buttons above."
	noticeCancelled       = "❌ *Booking Cancelled*\n\nYour service request has been cancelled.\n\n🚲"
	noticeApology         = "⚠️ *Oops! Something went wrong.*\n\nWe've reset your session. Starting from the beginning...\n\nSay *'Hi'* to continue."
)

func noticeDeclined(u *models.User) string {
	return fmt.Sprintf("Dear %s, without your consent we cannot process your service request. "+
		"Your data is handled securely and only for service fulfillment. "+
		"Say *'Hi'* anytime to start service booking. 🚲", u.GreetingName())
}

func noticeCategoryRecorded(name string) string {
	return "✅ *Brand recorded:* " + name
}

func noticeServiceSelected(name string) string {
	return "✅ Selected: " + name
}

func (e *Engine) noticeConfirmed(ticket string) string {
	return fmt.Sprintf("🎉 *Service request submitted successfully!*\n\n📋 *Ref Number:* %s\n\n"+
		"Our backend team will confirm the visit date and time, and our technician will call you before the visit.\n\n"+
		"Thank you for choosing %s. 🚴", ticket, e.businessName)
}

// prompt renders the message that asks for input at step.
func (e *Engine) prompt(step models.Step, u *models.User, s *models.SessionState) message {
	switch step {
	case models.StepWelcome:
		return e.welcomePrompt(u)
	case models.StepConsent:
		return e.consentPrompt(u)
	case models.StepCategory:
		return e.categoryPrompt()
	case models.StepService:
		return e.servicePrompt(u, s)
	case models.StepSlot:
		return slotPrompt(s)
	case models.StepLocation:
		return e.locationPrompt()
	case models.StepSummary:
		return e.summaryPrompt(u)
	default:
		return text("✅ Your service request is already booked.\n\nSay *'Hi'* to book another service.")
	}
}

func (e *Engine) welcomePrompt(u *models.User) message {
	return text(fmt.Sprintf("*Dear %s,*\n\nWelcome to %s. 🚲\n\nSay *'Hi'* to start service booking.",
		u.GreetingName(), e.businessName))
}

func (e *Engine) consentPrompt(u *models.User) message {
	return message{
		body: fmt.Sprintf("📜 *Consent Required*\n\nDear %s, your consent is required for %s to process "+
			"personal information for service fulfillment in line with applicable data protection laws.\n\n"+
			"*Click YES to proceed.*", u.GreetingName(), e.businessName),
		buttons: buttons(e.catalogue.Consent),
	}
}

func (e *Engine) categoryPrompt() message {
	rows := make([]models.ListRow, 0, len(e.catalogue.Categories))
	for _, o := range e.catalogue.Categories {
		rows = append(rows, models.ListRow{ID: o.Reply, Title: "🚲 " + o.Label(), Description: o.Description})
	}
	return message{
		body:     "🚴 *Please select a brand*",
		action:   "Select Brand",
		sections: []models.ListSection{{Title: "Select a Brand", Rows: rows}},
	}
}

func (e *Engine) servicePrompt(u *models.User, s *models.SessionState) message {
	brand := u.Draft.CategoryName
	if brand == "" && s != nil {
		brand = s.Category
	}
	if brand == "" {
		brand = "your cycle"
	}
	rows := make([]models.ListRow, 0, len(e.catalogue.Services))
	for _, o := range e.catalogue.Services {
		rows = append(rows, models.ListRow{ID: o.Reply, Title: "🔧 " + o.Label(), Description: o.Description})
	}
	return message{
		body:     fmt.Sprintf("🛠️ *Select Issue for %s:*", brand),
		action:   "View Issues",
		sections: []models.ListSection{{Title: truncate(brand+" Issues", 24), Rows: rows}},
	}
}

func slotPrompt(s *models.SessionState) message {
	var b strings.Builder
	b.WriteString("*Please select a preferred date/time slot*\n")
	btns := make([]models.Button, 0, len(s.SlotOffers))
	for i, offer := range s.SlotOffers {
		fmt.Fprintf(&b, "\n%d. %s", i+1, offer.Display)
		btns = append(btns, models.Button{ID: offer.ButtonID(), Title: offer.Short})
	}
	return message{body: b.String(), buttons: btns}
}

func (e *Engine) locationPrompt() message {
	rows := make([]models.ListRow, 0, len(e.catalogue.Location))
	for _, o := range e.catalogue.Location {
		rows = append(rows, models.ListRow{ID: o.Reply, Title: o.Label(), Description: o.Description})
	}
	return message{
		body:     "📍 *Please share your location:*\n\nYou can also type your complete address.",
		action:   "Location Options",
		sections: []models.ListSection{{Title: "Share Location", Rows: rows}},
	}
}

func (e *Engine) summaryPrompt(u *models.User) message {
	d := u.Draft
	slot := "Not selected"
	if d.Slot != nil {
		slot = d.Slot.Display
	}
	location := "Not provided"
	if d.Location != nil {
		location = firstNonEmpty(d.Location.Address, d.Location.Label, location)
	}
	body := fmt.Sprintf("📋 *Booking Summary*\n\n🚲 *Brand:* %s\n🔧 *Issue:* %s\n📅 *Time:* %s\n📍 *Location:* %s\n\n*Please choose:*",
		firstNonEmpty(d.CategoryName, d.Category), firstNonEmpty(d.ServiceName, d.Service), slot, location)
	return message{body: body, buttons: buttons(e.catalogue.Summary)}
}

func buttons(opts []Option) []models.Button {
	out := make([]models.Button, 0, len(opts))
	for _, o := range opts {
		out = append(out, models.Button{ID: o.Reply, Title: o.Label()})
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
