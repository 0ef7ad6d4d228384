package oracle

import (
	"fmt"
	"strings"
)

const classifyPrompt = `You are a Product Manager responsible for extracting actions taken on tickets from conversations.
Your task is to analyze the conversation provided and determine the appropriate action associated with each task.
Actions should be selected from the following types:
- create_new_ticket
- update_ticket
- none

Focus on identifying work-related topics only. If the conversation includes small talk or unrelated content, do not consider it for ticket creation.

IMPORTANT RULES:
1. If there are any current tickets provided AND the conversation topic is similar to those tickets, ALWAYS return "update_ticket"
2. If the conversation is about a completely new work topic with no related current tickets, return "create_new_ticket"
3. For general discussions, small talk, or follow-ups on existing tickets without new information, return "none"
4. If in doubt whether the topic is similar to existing tickets, prefer "update_ticket" over creating duplicates

For each task mentioned in the conversation, output the corresponding action in a JSON format. The output must strictly follow this format:
{
  "type_of_action": "action_type"
}`

const draftPrompt = `Imagine you are a Product Manager instructed to extract action from conversations. Your goal is to analyze the provided conversation and generate a structured Linear ticket in JSON format.

Each ticket should include the following fields:

- **title**: A concise summary of the task.
- **description**: A detailed explanation of the task, including any relevant context from the conversation (in markdown format).
- **priority**: A priority level represented by an integer:
  - 0 = No priority
  - 1 = Urgent
  - 2 = High
  - 3 = Normal
  - 4 = Low
- **assigneeId**: The identifier of the user to assign the issue to (if specified).
- **dueDate**: The date at which the issue is due (if mentioned) in the format year-month-day.

Ensure the output is always formatted as valid JSON. Example output:

{
  "title": "Implement user authentication",
  "description": "Develop and integrate user authentication, including login and registration with email and password.",
  "priority": 2,
  "assigneeId": "user_1",
  "dueDate": "2025-03-01"
}

Ensure that the description includes relevant context, and if no assignee or due date is mentioned, those fields should be left empty.`

func addressedPrompt(name string) string {
	return fmt.Sprintf("You are analyzing meeting transcripts. Respond with 'true' if someone is directly addressing or asking a question to '%s', and 'false' otherwise.", name)
}

func replyPrompt(name string) string {
	return fmt.Sprintf("You are %s, a helpful AI assistant in a meeting. Keep your responses concise and professional.", name)
}

func classifyMessage(current, window, relatedID string) string {
	tickets := "[]"
	if relatedID != "" {
		tickets = fmt.Sprintf(`[{"id": %q}]`, relatedID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Current context (new conversation): %q\n", current)
	fmt.Fprintf(&b, "Full conversation context: %q,\n", window)
	fmt.Fprintf(&b, "Current tickets: %s", tickets)
	return b.String()
}

func draftMessage(current, window, today string) string {
	var b strings.Builder
	b.WriteString("This is the part of the conversation you need to extract tasks from:\n\n")
	fmt.Fprintf(&b, "Current context: %q\n", current)
	fmt.Fprintf(&b, "Previous context: %q\n\n", window)
	b.WriteString("Your task is creating a new ticket.\n")
	fmt.Fprintf(&b, "Today is: %q\n", today)
	return b.String()
}
