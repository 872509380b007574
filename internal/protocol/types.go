package protocol

// Role values for chat messages.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is a single role/content pair in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request represents the chat-completion request body sent to the API.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream,omitempty"`
}

// Response represents a non-streaming chat-completion response.
type Response struct {
	ID      string    `json:"id,omitempty"`
	Model   string    `json:"model,omitempty"`
	Choices []Choice  `json:"choices"`
	Error   *APIError `json:"error,omitempty"`
}

// Choice is one completion alternative.
type Choice struct {
	Index        int      `json:"index"`
	Message      *Message `json:"message,omitempty"`
	Delta        *Message `json:"delta,omitempty"` // only in stream chunks
	FinishReason string   `json:"finish_reason,omitempty"`
}

// APIError is the error object some providers embed in a 200 response or an error body.
type APIError struct {
	Message string `json:"message"`
	Code    any    `json:"code,omitempty"`
}

// Content returns the text of the first choice.
func (r *Response) Content() string {
	if len(r.Choices) == 0 || r.Choices[0].Message == nil {
		return ""
	}
	return r.Choices[0].Message.Content
}

// DeltaContent returns the streamed text fragment of the first choice.
func (r *Response) DeltaContent() string {
	if len(r.Choices) == 0 || r.Choices[0].Delta == nil {
		return ""
	}
	return r.Choices[0].Delta.Content
}
