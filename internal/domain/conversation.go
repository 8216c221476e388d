package domain

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	HTML      string    `json:"html,omitempty"` // rendered markdown, assistant messages only
	Image     string    `json:"image,omitempty"` // uploaded file name, user messages only
	Speak     bool      `json:"speak,omitempty"`  // client should vocalize Speech
	Speech    string    `json:"speech,omitempty"` // text to vocalize; omits display-only headings
	CreatedAt time.Time `json:"createdAt"`
}

type PendingImage struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

type Conversation struct {
	ID        string        `json:"id"`
	PlaceID   string        `json:"placeId"`
	PlaceName string        `json:"placeName"`
	Messages  []Message     `json:"messages"`
	Image     *PendingImage `json:"image,omitempty"`
}
