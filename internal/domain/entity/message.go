package entity

type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

type ContentType string

const (
	ContentTypeText     ContentType = "text"
	ContentTypeImageURL ContentType = "image_url"
)

type ContentBlock struct {
	Type     ContentType
	Text     string
	ImageURL string
}

// Message is a chat turn. When ContentBlocks is non-empty it takes
// precedence over Content.
type Message struct {
	Role          MessageRole
	Content       string
	ContentBlocks []ContentBlock
}

func TextMessage(role MessageRole, text string) Message {
	return Message{Role: role, Content: text}
}

// Text returns the concatenated text of the message, ignoring images.
func (m Message) Text() string {
	if len(m.ContentBlocks) == 0 {
		return m.Content
	}
	var out string
	for _, b := range m.ContentBlocks {
		if b.Type == ContentTypeText {
			out += b.Text
		}
	}
	return out
}

func (m Message) HasImage() bool {
	for _, b := range m.ContentBlocks {
		if b.Type == ContentTypeImageURL {
			return true
		}
	}
	return false
}
