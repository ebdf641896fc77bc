package usecase

import (
	"fmt"
	"strings"

	"office-agent/internal/agent/domain"
)

const systemPromptTemplate = `You are an AI office automation agent. You can help users with various tasks.

Available Tools:
%s

When a user asks you to do something, analyze their request and respond with a JSON object:
{
  "tool": "tool_name",
  "reasoning": "why you chose this tool",
  "parameters": { /* tool parameters */ }
}

If user request is ambiguous, use "conversation" tool and ask for clarification.

Examples:

User: "Send an email to john@example.com saying the report is ready"
Response: {
  "tool": "send_email",
  "reasoning": "User wants to send an email",
  "parameters": {
    "to": ["john@example.com"],
    "subject": "Report Status",
    "body": "The report is ready."
  }
}

User: "Create a daily report at 9am"
Response: {
  "tool": "create_cron_job",
  "reasoning": "User wants to schedule a recurring task",
  "parameters": {
    "name": "Daily Report",
    "schedule": "0 9 * * *",
    "task_type": "pdf",
    "task_config": { "title": "Daily Report" }
  }
}

User: "What's the weather like?"
Response: {
  "tool": "conversation",
  "reasoning": "User is asking a general question, no automation needed",
  "parameters": {}
}

IMPORTANT: Always respond with valid JSON only, no additional text.`

// systemPrompt is built once; the catalog never changes at runtime
var systemPrompt = buildSystemPrompt(domain.Catalog)

func buildSystemPrompt(catalog []domain.Tool) string {
	entries := make([]string, 0, len(catalog))
	for _, tool := range catalog {
		params := strings.ReplaceAll(tool.Parameters, "\n", "\n  ")
		entries = append(entries, fmt.Sprintf("- %s: %s\n  Parameters: %s", tool.Name, tool.Description, params))
	}
	return fmt.Sprintf(systemPromptTemplate, strings.Join(entries, "\n\n"))
}

func intentPrompt(message string) string {
	return fmt.Sprintf("%s\n\nUser message: %q\n\nYour JSON response:", systemPrompt, message)
}

func phraseBackPrompt(tool string, params []byte, outcome string) string {
	if len(params) == 0 {
		params = []byte("{}")
	}
	return fmt.Sprintf("I just executed this action: %s with these parameters: %s. The result was: %s.\n\n"+
		"Please formulate a brief, natural response to tell the user what happened. Keep it concise and friendly.",
		tool, params, outcome)
}

const helpText = "I'm here to help! You can ask me to:\n\n" +
	"✉️ Send emails\n" +
	"📄 Generate PDF documents\n" +
	"🕷️ Scrape websites for data\n" +
	"⏰ Schedule recurring tasks\n\n" +
	"What would you like to do?"
