package translate

// Chat completion request/response shapes for the OpenAI-compatible endpoint.

type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatResponse struct {
	Choices []ChatChoice `json:"choices"`
	Error   *APIError    `json:"error,omitempty"`
}

type ChatChoice struct {
	Message ChatMessage `json:"message"`
}

type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
