package dto

type ChatMessage struct {
	Role    string `json:"role"` // user / assistant
	Content string `json:"content"`
}

// ChatRequest 语音模式对话，History 为之前的轮次
type ChatRequest struct {
	Message string        `json:"message"`
	History []ChatMessage `json:"history"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
	Model string `json:"model"`
}
