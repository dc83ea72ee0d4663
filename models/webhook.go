package models

// WebhookPayload is the WhatsApp Cloud API notification envelope.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Contacts         []WebhookContact `json:"contacts,omitempty"`
	Messages         []WebhookMessage `json:"messages,omitempty"`
}

type WebhookContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type WebhookMessage struct {
	From        string              `json:"from"`
	ID          string              `json:"id"`
	Timestamp   string              `json:"timestamp"`
	Type        string              `json:"type"`
	Text        *TextPayload        `json:"text,omitempty"`
	Interactive *WebhookInteractive `json:"interactive,omitempty"`
	Location    *WebhookLocation    `json:"location,omitempty"`
}

type WebhookInteractive struct {
	Type        string        `json:"type"` // "list_reply" or "button_reply"
	ListReply   *WebhookReply `json:"list_reply,omitempty"`
	ButtonReply *WebhookReply `json:"button_reply,omitempty"`
}

type WebhookReply struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type WebhookLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
}

// ToEvent lifts a webhook message into an InboundEvent. Interactive payloads
// with an unknown shape keep their type but carry no selection id.
func (m WebhookMessage) ToEvent(profileName string) InboundEvent {
	ev := InboundEvent{
		Identity:        m.From,
		Type:            m.Type,
		Text:            m.Text,
		ProfileNameHint: profileName,
	}
	if m.Interactive != nil {
		reply := &InteractiveReply{}
		switch {
		case m.Interactive.Type == "list_reply" && m.Interactive.ListReply != nil:
			reply.Kind = InteractiveList
			reply.SelectionID = m.Interactive.ListReply.ID
			reply.Title = m.Interactive.ListReply.Title
		case m.Interactive.Type == "button_reply" && m.Interactive.ButtonReply != nil:
			reply.Kind = InteractiveButton
			reply.SelectionID = m.Interactive.ButtonReply.ID
			reply.Title = m.Interactive.ButtonReply.Title
		}
		ev.Interactive = reply
	}
	if m.Location != nil {
		ev.Location = &LocationPayload{
			Latitude:  m.Location.Latitude,
			Longitude: m.Location.Longitude,
			Label:     m.Location.Name,
			Address:   m.Location.Address,
		}
	}
	return ev
}

// ProfileNameFor returns the contact profile name published for waID, if any.
func (v WebhookValue) ProfileNameFor(waID string) string {
	for _, c := range v.Contacts {
		if c.WaID == waID {
			return c.Profile.Name
		}
	}
	if len(v.Contacts) == 1 {
		return v.Contacts[0].Profile.Name
	}
	return ""
}
