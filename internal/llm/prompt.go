// Package llm holds the prompt templates sent to the generation provider.
package llm

import (
	"encoding/json"
	"fmt"
)

// QuizParams are the inputs to BuildQuizPrompt.
type QuizParams struct {
	Syllabus   string
	Count      int
	Difficulty string
	ClassLevel string
}

// ScheduleParams are the inputs to BuildSchedulePrompt.
type ScheduleParams struct {
	Date       string
	WakeTime   string
	ClassStart int
	Prefs      map[string]any
}

// BuildChatPrompt returns the tutoring prompt for a single chat message.
func BuildChatPrompt(message string, profile map[string]any) string {
	return `You are StudyBuddy, a friendly AI tutor for students.
User profile: ` + toJSON(profile) + `
User message: ` + message + `

Respond as a helpful tutoring assistant. If the user asks to generate a quiz or a schedule, return a JSON block (only JSON) with clear keys. Otherwise return a concise explanatory answer.

Always be helpful and polite.`
}

// BuildQuizPrompt returns the multiple-choice generation prompt. The model is
// asked for a bare JSON array so the reply can be parsed directly.
func BuildQuizPrompt(p QuizParams) string {
	classLevel := p.ClassLevel
	if classLevel == "" {
		classLevel = "unspecified"
	}
	return fmt.Sprintf(`Generate %d multiple-choice questions from the syllabus below.
Output MUST be a JSON array. Each item MUST be:
{ "question": "...", "options": ["A","B","C","D"], "correctIndex": 0, "explanation":"..." }
Syllabus:
%s
Difficulty: %s
Class level: %s

Return only the JSON array, no extra commentary.`, p.Count, p.Syllabus, p.Difficulty, classLevel)
}

// BuildSchedulePrompt returns the daily schedule prompt.
func BuildSchedulePrompt(p ScheduleParams) string {
	date := p.Date
	if date == "" {
		date = "today"
	}
	return fmt.Sprintf(`Create a detailed 24-hour student schedule for date %s.
Wake time: %s, class starts at %d:00.
Include study blocks, meals, naps, free time, and sleep. Respect preferences: %s.
Output MUST be a JSON array of items:
[ { "start":"HH:MM", "end":"HH:MM", "title":"...", "note":"..." }, ... ]`, date, p.WakeTime, p.ClassStart, toJSON(p.Prefs))
}

func toJSON(v map[string]any) string {
	if v == nil {
		return "{}"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
