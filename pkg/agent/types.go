package agent

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ProviderConfig selects and authenticates a provider.
type ProviderConfig struct {
	Provider string `json:"provider"` // openai, anthropic, gemini, ollama
	Model    string `json:"model"`
	BaseURL  string `json:"base_url"`
	APIKey   string `json:"api_key"`
}

// UserMessage builds a single user turn.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}
