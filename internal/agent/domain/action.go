package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"office-agent/pkg/smtp"
)

var (
	ErrMalformedParameters = errors.New("malformed tool parameters")
	ErrInvalidRequest      = errors.New("invalid agent request")
)

// AgentAction is the resolved intent for one user message
type AgentAction struct {
	Tool       string          `json:"tool"`
	Reasoning  string          `json:"reasoning"`
	Parameters json.RawMessage `json:"parameters"`
	Call       ToolCall        `json:"-"`
}

// ConversationFallback is used whenever the model reply cannot be understood
func ConversationFallback() AgentAction {
	return AgentAction{
		Tool:       ToolConversation,
		Reasoning:  "could not parse intent",
		Parameters: json.RawMessage(`{}`),
		Call:       ConversationCall{},
	}
}

// ToolCall is the typed parameter set of an AgentAction. The executor switches
// over the concrete types below.
type ToolCall interface {
	ToolName() string
	isToolCall()
}

type SendEmailCall struct {
	To      Recipients `json:"to"`
	Subject string     `json:"subject"`
	Body    string     `json:"body"`
}

type GeneratePDFCall struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type ScrapeWebsiteCall struct {
	URL       string            `json:"url"`
	Selectors map[string]string `json:"selectors,omitempty"`
}

type CreateCronJobCall struct {
	Name       string                 `json:"name"`
	Schedule   string                 `json:"schedule"`
	TaskType   string                 `json:"task_type"`
	TaskConfig map[string]interface{} `json:"task_config,omitempty"`
}

type ConversationCall struct{}

// UnknownCall carries a tool name that is not in the catalog
type UnknownCall struct {
	Name string
}

func (SendEmailCall) ToolName() string     { return ToolSendEmail }
func (GeneratePDFCall) ToolName() string   { return ToolGeneratePDF }
func (ScrapeWebsiteCall) ToolName() string { return ToolScrapeWebsite }
func (CreateCronJobCall) ToolName() string { return ToolCreateCronJob }
func (ConversationCall) ToolName() string  { return ToolConversation }
func (c UnknownCall) ToolName() string     { return c.Name }

func (SendEmailCall) isToolCall()     {}
func (GeneratePDFCall) isToolCall()   {}
func (ScrapeWebsiteCall) isToolCall() {}
func (CreateCronJobCall) isToolCall() {}
func (ConversationCall) isToolCall()  {}
func (UnknownCall) isToolCall()       {}

// DecodeCall turns the raw parameters of tool into its typed variant
func DecodeCall(tool string, raw json.RawMessage) (ToolCall, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		raw = json.RawMessage(`{}`)
	}

	var (
		call ToolCall
		err  error
	)
	switch tool {
	case ToolSendEmail:
		var c SendEmailCall
		err = json.Unmarshal(raw, &c)
		call = c
	case ToolGeneratePDF:
		var c GeneratePDFCall
		err = json.Unmarshal(raw, &c)
		call = c
	case ToolScrapeWebsite:
		var c ScrapeWebsiteCall
		err = json.Unmarshal(raw, &c)
		call = c
	case ToolCreateCronJob:
		var c CreateCronJobCall
		err = json.Unmarshal(raw, &c)
		call = c
	case ToolConversation:
		call = ConversationCall{}
	default:
		call = UnknownCall{Name: tool}
	}
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %v", ErrMalformedParameters, tool, err)
	}
	return call, nil
}

// Recipients accepts a single address, a comma separated list or an array
type Recipients []string

func (r *Recipients) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*r = smtp.SplitAddresses(one)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	var out []string
	for _, m := range many {
		out = append(out, smtp.SplitAddresses(m)...)
	}
	*r = out
	return nil
}
