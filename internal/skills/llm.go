package skills

import "github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/protocol"

// Temperature is used for every in-process chat call.
const Temperature = 0.1

// chatRequest builds a system + user exchange. An empty system prompt is
// omitted rather than sent as an empty message.
func chatRequest(model, system, user string) protocol.Request {
	msgs := make([]protocol.Message, 0, 2)
	if system != "" {
		msgs = append(msgs, protocol.Message{Role: protocol.RoleSystem, Content: system})
	}
	msgs = append(msgs, protocol.Message{Role: protocol.RoleUser, Content: user})
	return protocol.Request{
		Model:       model,
		Messages:    msgs,
		Temperature: Temperature,
	}
}
