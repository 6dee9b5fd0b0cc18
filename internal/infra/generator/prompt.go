package generator

import (
	"fmt"
	"strings"
)

// Prompt renders the instruction sent to the model.
func Prompt(req Request) string {
	return fmt.Sprintf(`You are an educational quiz assistant.
Generate %d questions about the subject: %q.
Strictly limit questions to the field of education and academic knowledge.

Question Formats: %s.

Output must be a VALID JSON array of objects. Do not include markdown code blocks or any text other than the JSON.

Object Structure:
1. For Multiple Choice (multiple_choice):
   {"type": "multiple_choice", "question": "The question text", "options": ["Option A", "Option B", "Option C", "Option D"], "answer": "The exact string from the options array that is correct"}
2. For Essay (essay):
   {"type": "essay", "question": "The question text", "answer": "A summary or key points of the expected answer"}

Ensure the subject matter is strictly educational.`, req.Count, req.Subject, describeFormats(req.Formats))
}

func describeFormats(formats []Format) string {
	if len(formats) == 0 {
		return string(FormatChoice)
	}
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		if f == FormatBoth {
			return "a mix of multiple choice and essay"
		}
		names = append(names, string(f))
	}
	return strings.Join(names, " and ")
}
