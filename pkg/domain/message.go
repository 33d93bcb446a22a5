package domain

// Sender identifies the author of a Message.
type Sender string

const (
	SenderUser   Sender = "user"
	SenderAgent  Sender = "agent"
	SenderSystem Sender = "system"
)

// Message is one utterance in a negotiation transcript.
// Ordering is significant: histories are append-only, never reordered
// or deduplicated.
type Message struct {
	Sender  Sender `json:"sender" yaml:"sender" mapstructure:"sender"`
	Content string `json:"content" yaml:"content" mapstructure:"content"`
}

// UserMessage builds a reviewer-authored message.
func UserMessage(content string) Message {
	return Message{Sender: SenderUser, Content: content}
}

// AgentMessage builds an agent-authored message.
func AgentMessage(content string) Message {
	return Message{Sender: SenderAgent, Content: content}
}

// SystemMessage builds an engine-authored notification.
func SystemMessage(content string) Message {
	return Message{Sender: SenderSystem, Content: content}
}

// AppendMessage returns a new history slice with msg appended.
// The input slice is never mutated, so prior loop states keep their
// own view of the transcript.
func AppendMessage(history []Message, msg Message) []Message {
	out := make([]Message, 0, len(history)+1)
	out = append(out, history...)
	return append(out, msg)
}
