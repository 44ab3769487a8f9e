package convo

// Message roles. The completion API only accepts these three.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged entry in a conversation. Messages are
// immutable once created; a conversation is an append-only sequence of them,
// oldest first.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
