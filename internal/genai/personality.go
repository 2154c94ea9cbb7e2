package genai

import (
  "errors"
  "math/rand"
)

// Personality is a fixed, compile-time record. The capability flags are
// carried as data so eligibility is a filter over a closed set, not a
// runtime duck-type check.
type Personality struct {
  Name                 string
  Voice                string
  CanGenerateQuestions bool
  CanGenerateAnswers   bool
}

var ErrNoEligiblePersonality = errors.New("no personality supports the requested capability")

var (
  PersonalityCitizenRunner = Personality{
    Name: "citizen_runner",
    Voice: "an everyday recreational runner training for their first or second marathon, " +
      "curious and a little anxious, asking about training plans, pacing, gear, nutrition and race-day nerves",
    CanGenerateQuestions: true,
    CanGenerateAnswers:   false,
  }
  PersonalityExpert = Personality{
    Name: "expert",
    Voice: "a seasoned marathoner and exercise physiology nerd who has run dozens of races, " +
      "answering with concrete numbers, study references and hard-won race experience",
    CanGenerateQuestions: true,
    CanGenerateAnswers:   true,
  }
  PersonalityTrainer = Personality{
    Name: "trainer",
    Voice: "a certified running coach who works with amateurs, " +
      "giving structured, encouraging, step-by-step advice with attention to injury prevention",
    CanGenerateQuestions: false,
    CanGenerateAnswers:   true,
  }
)

func Personalities() []Personality {
  return []Personality{PersonalityCitizenRunner, PersonalityExpert, PersonalityTrainer}
}

func QuestionPersonalities() []Personality {
  var out []Personality
  for _, p := range Personalities() {
    if p.CanGenerateQuestions {
      out = append(out, p)
    }
  }
  return out
}

func AnswerPersonalities() []Personality {
  var out []Personality
  for _, p := range Personalities() {
    if p.CanGenerateAnswers {
      out = append(out, p)
    }
  }
  return out
}

func PickRandom(list []Personality) (Personality, error) {
  if len(list) == 0 {
    return Personality{}, ErrNoEligiblePersonality
  }
  return list[rand.Intn(len(list))], nil
}
