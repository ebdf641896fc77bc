package domain

// Tool names understood by the agent
const (
	ToolSendEmail     = "send_email"
	ToolGeneratePDF   = "generate_pdf"
	ToolScrapeWebsite = "scrape_website"
	ToolCreateCronJob = "create_cron_job"
	ToolConversation  = "conversation"
)

// Tool is one catalog entry. Parameters is the JSON documentation shown to the
// model, kept as a literal so its key order is stable in prompts.
type Tool struct {
	Name        string
	Description string
	Parameters  string
}

// Catalog is the fixed set of tools offered to the model
var Catalog = []Tool{
	{
		Name:        ToolSendEmail,
		Description: "Send an email to one or more recipients. Use when user wants to send/compose/email someone.",
		Parameters: `{
  "to": "string[] - recipient email addresses",
  "subject": "string - email subject",
  "body": "string - email body/content"
}`,
	},
	{
		Name:        ToolGeneratePDF,
		Description: "Generate a PDF document. Use when user wants to create/generate a PDF/document/report.",
		Parameters: `{
  "title": "string - document title",
  "content": "string - document content"
}`,
	},
	{
		Name:        ToolScrapeWebsite,
		Description: "Extract data from a website. Use when user wants to scrape/extract/get data from a URL.",
		Parameters: `{
  "url": "string - website URL to scrape",
  "selectors": "object - CSS selectors for data extraction (optional)"
}`,
	},
	{
		Name:        ToolCreateCronJob,
		Description: "Schedule a recurring task. Use when user wants to automate/schedule something regularly (daily, weekly, etc).",
		Parameters: `{
  "name": "string - job name",
  "schedule": "string - cron expression (e.g., \"0 8 * * *\" for daily at 8am)",
  "task_type": "string - email, pdf, or scraper",
  "task_config": "object - configuration for the task"
}`,
	},
	{
		Name:        ToolConversation,
		Description: "Just have a conversation, answer questions, or provide information. Use when no action is needed.",
		Parameters:  `{}`,
	},
}

// InCatalog reports whether name is a known tool
func InCatalog(name string) bool {
	for _, t := range Catalog {
		if t.Name == name {
			return true
		}
	}
	return false
}
