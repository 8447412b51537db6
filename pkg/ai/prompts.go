package ai

import (
	"fmt"
	"strings"
)

// SummaryKind selects the report style of the generated summary.
type SummaryKind string

const (
	SummaryWeekly  SummaryKind = "weekly"
	SummaryMonthly SummaryKind = "monthly"
	SummaryYearly  SummaryKind = "yearly"
)

const summarySystemPrompt = `You are an assistant that writes concise work summaries from raw daily work logs.
Each log entry is a line of the form "- HH:MM task title", grouped under "=== YYYY-MM-DD ===" headers.
Base the summary strictly on the provided logs. Do not invent tasks that are not in the input.
Answer in the same language the log entries are written in. Output Markdown.`

const weeklyUserPrompt = `Please summarize the work logs below into a weekly report with these sections:

## Key Work This Week
Group related entries, note roughly how much time each area took.

## Problems and Solutions
Call out anything that looks like debugging, firefighting or rework, and how it was resolved.

## Next Week's Plan Suggestions
Short actionable bullets derived from unfinished or recurring work.

Work logs:

%s`

const monthlyUserPrompt = `Please summarize the work logs below into a monthly report. Highlight the main
projects, the distribution of effort across them, notable problems and their
resolutions, and suggestions for the coming month.

Work logs:

%s`

const yearlyUserPrompt = `Please summarize the work logs below into a yearly review. Identify the major
themes and projects of the year, how effort shifted over time, key achievements,
and lessons worth carrying forward.

Work logs:

%s`

// SummaryPrompts returns the system and user prompt for a log digest of the
// given kind. Unknown kinds fall back to the weekly style.
func SummaryPrompts(kind SummaryKind, digest string) (system, user string) {
	switch kind {
	case SummaryMonthly:
		return summarySystemPrompt, fmt.Sprintf(monthlyUserPrompt, digest)
	case SummaryYearly:
		return summarySystemPrompt, fmt.Sprintf(yearlyUserPrompt, digest)
	default:
		return summarySystemPrompt, fmt.Sprintf(weeklyUserPrompt, digest)
	}
}

const categorySystemPrompt = `You are an assistant that designs task categorization rules for a work log tool.
A category has a name, an icon keyword and a case-insensitive regular expression
matched against task titles. Answer with one category per line in the form
"name|icon|pattern". Use at most 10 categories and keep patterns simple.`

// CategorySuggestionPrompt builds the prompt pair asking the model to
// propose categorization rules from a sample of real task titles.
func CategorySuggestionPrompt(titles []string) (system, user string) {
	var b strings.Builder
	b.WriteString("Here are task titles sampled from my work logs. Suggest categories that would cover them:\n\n")
	for _, t := range titles {
		b.WriteString("- ")
		b.WriteString(t)
		b.WriteString("\n")
	}
	return categorySystemPrompt, b.String()
}
