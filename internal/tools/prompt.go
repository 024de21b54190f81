package tools

import "github.com/fady17/task/internal/config"

const commonRules = `
Rules:
- The todo service only understands numeric IDs. Never guess an ID. If you do not know it, call get_all_todo_lists and find it by name.
- Prefer tool calls over explanations. Do the work, then report.
- When a request has several parts, complete them one after another.
- A tool result with "success": false means that step failed. Say so plainly instead of claiming it worked.
- Your final reply is a single short sentence for the user. No JSON, no code, no description of the steps you took.`

// DirectPrompt acts on the current state shown in context and reports once.
const DirectPrompt = `You manage the user's todo lists through tools.
Resolve list and item names to IDs from the most recent state you have seen. Act directly on that state without re-reading it after each change.` + commonRules

// VerifyPrompt re-reads the state after every change and judges the outcome
// before reporting.
const VerifyPrompt = `You manage the user's todo lists through tools and you trust only data you fetched yourself.
For each part of a request:
1. Call get_all_todo_lists to find the IDs you need.
2. Call the one tool that performs the change.
3. Call get_all_todo_lists again and check that the change is visible.
Report success only when the second read shows it.` + commonRules

// SystemPrompt returns the prompt for a policy validated by config.Load.
// An empty policy selects DirectPrompt.
func SystemPrompt(policy string) string {
	switch policy {
	case config.PolicyVerify:
		return VerifyPrompt
	case config.PolicyDirect, "":
		return DirectPrompt
	default:
		panic("tools: unknown prompt policy " + policy)
	}
}
