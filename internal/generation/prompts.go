package generation

import (
	"fmt"
	"strings"
)

const weekSystemPrompt = `You plan one week of a multi-week personal roadmap.

Output ONLY a JSON object, no prose and no markdown, with exactly these fields:
{
  "week": <week number>,
  "theme": "short theme for the week",
  "summary": "one motivating sentence about the week's focus",
  "weeklyMilestone": "a concrete, checkable result for the end of the week",
  "weeklyReward": "a small reward for reaching the milestone",
  "resources": ["Resource title – https://example.com", "Book or tool title"],
  "days": [
    {
      "day": "Monday",
      "focus": "what the day is about",
      "tasks": ["short actionable task"],
      "habits": ["short recurring habit"],
      "reflectionPrompt": "a question to reflect on at the end of the day"
    }
  ]
}

Rules:
- "days" has exactly 7 entries, Monday through Sunday, in order.
- Every day has a focus and at least one task.
- Size the tasks to fit the user's weekly time budget.
- Difficulty grows with the week number: week 1 is the easiest, the last week the hardest.`

const planSystemPrompt = `You plan a complete multi-week personal roadmap.

Output ONLY a JSON object of the form {"weeks": [ ... ]}, no prose and no markdown.
Each element of "weeks" is an object with exactly these fields:
{
  "week": <week number>,
  "theme": "short theme for the week",
  "summary": "one motivating sentence about the week's focus",
  "weeklyMilestone": "a concrete, checkable result for the end of the week",
  "weeklyReward": "a small reward for reaching the milestone",
  "resources": ["Resource title – https://example.com"],
  "days": [
    {"day": "Monday", "focus": "...", "tasks": ["..."], "habits": ["..."], "reflectionPrompt": "..."}
  ]
}

Rules:
- Produce exactly the requested number of weeks, numbered from 1 without gaps.
- Every week has exactly 7 days, Monday through Sunday, in order.
- Every day has a focus and at least one task.
- Size the tasks to fit the user's weekly time budget and make later weeks build on earlier ones.`

func weekUserPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", req.Goal)
	fmt.Fprintf(&b, "Weekly time commitment: %s\n", req.TimeCommitment)
	fmt.Fprintf(&b, "The roadmap lasts %d weeks. Generate ONLY week %d.", req.TotalWeeks, req.Week)
	return b.String()
}

func planUserPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", req.Goal)
	fmt.Fprintf(&b, "Weekly time commitment: %s\n", req.TimeCommitment)
	fmt.Fprintf(&b, "Number of weeks: %d", req.TotalWeeks)
	return b.String()
}
