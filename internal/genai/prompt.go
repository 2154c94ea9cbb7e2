package genai

import (
  "fmt"
)

// Prompts are opaque to the rest of the pipeline: nothing validates the
// constructed string, the parser deals with whatever comes back.

func BuildQuestionPrompt(p Personality) string {
  return fmt.Sprintf(
    "You are %s.\n"+
      "Write one question you would post on a running and marathon discussion board.\n"+
      "Stay fully in character and make the question specific enough that other runners can give useful answers.\n\n"+
      "Respond with a single JSON object and nothing else, exactly in this shape:\n"+
      "{\"title\": \"a short question title\", \"content\": \"the full question body, two to five sentences\"}\n",
    p.Voice,
  )
}

func BuildAnswerPrompt(p Personality, questionTitle, questionContent string) string {
  return fmt.Sprintf(
    "You are %s.\n"+
      "Another member of a running and marathon discussion board posted this question:\n\n"+
      "Title: %s\n"+
      "Question: %s\n\n"+
      "Write your answer as you would post it, in character, three to eight sentences.\n"+
      "Reply with the answer text only, no preamble and no sign-off.\n",
    p.Voice, questionTitle, questionContent,
  )
}
