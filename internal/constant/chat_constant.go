package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"

	// DefaultSessionTitle is used until the background title
	// generator produces a real one.
	DefaultSessionTitle = "Unnamed session"
)
