// Package telemetry builds and delivers one observability event per skill invocation.
package telemetry

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	SourceCLI = "pai-cli"
	SourceWeb = "pai-web"
)

// Event is the record sent for every invocation. It is never persisted.
type Event struct {
	ID            string  `json:"id"`
	SourceApp     string  `json:"source_app"`
	HookEventType string  `json:"hook_event_type"`
	Payload       Payload `json:"payload"`
	SessionID     string  `json:"session_id"`
	Timestamp     int64   `json:"timestamp"` // unix milliseconds
}

type Payload struct {
	Skill string   `json:"skill"`
	Args  []string `json:"args"`
}

// NewEvent creates the event for invoking skill with args.
func NewEvent(sourceApp, sessionID, skill string, args []string) Event {
	if args == nil {
		args = []string{}
	}
	return Event{
		ID:            uuid.NewString(),
		SourceApp:     sourceApp,
		HookEventType: HookEventType(skill),
		Payload:       Payload{Skill: skill, Args: args},
		SessionID:     sessionID,
		Timestamp:     time.Now().UnixMilli(),
	}
}

func HookEventType(skill string) string {
	return fmt.Sprintf("ExecuteSkill:%s", skill)
}
