package genai

import (
	"errors"
	"strings"
	"testing"
)

func TestQuestionPersonalitiesCapabilityFilter(t *testing.T) {
	list := QuestionPersonalities()
	if len(list) != 2 {
		t.Fatalf("question personalities: want=2 got=%d", len(list))
	}
	names := map[string]bool{}
	for _, p := range list {
		names[p.Name] = true
	}
	if !names[PersonalityCitizenRunner.Name] || !names[PersonalityExpert.Name] {
		t.Fatalf("question personalities mismatch: got=%v", names)
	}
}

func TestAnswerPersonalitiesCapabilityFilter(t *testing.T) {
	list := AnswerPersonalities()
	if len(list) != 2 {
		t.Fatalf("answer personalities: want=2 got=%d", len(list))
	}
	names := map[string]bool{}
	for _, p := range list {
		names[p.Name] = true
	}
	if !names[PersonalityExpert.Name] || !names[PersonalityTrainer.Name] {
		t.Fatalf("answer personalities mismatch: got=%v", names)
	}
}

func TestPickRandomNeverReturnsIneligible(t *testing.T) {
	list := QuestionPersonalities()
	for i := 0; i < 1000; i++ {
		p, err := PickRandom(list)
		if err != nil {
			t.Fatalf("PickRandom: %v", err)
		}
		if !p.CanGenerateQuestions {
			t.Fatalf("PickRandom returned ineligible personality %q on trial %d", p.Name, i)
		}
		if p.Name == PersonalityTrainer.Name {
			t.Fatalf("PickRandom returned answer-only personality on trial %d", i)
		}
	}
}

func TestPickRandomEmptyListIsFatal(t *testing.T) {
	_, err := PickRandom(nil)
	if !errors.Is(err, ErrNoEligiblePersonality) {
		t.Fatalf("PickRandom: want ErrNoEligiblePersonality got %v", err)
	}
}

func TestPromptsEmbedPersonalityVoice(t *testing.T) {
	qp := BuildQuestionPrompt(PersonalityCitizenRunner)
	if qp == "" {
		t.Fatalf("question prompt empty")
	}
	if !strings.Contains(qp, PersonalityCitizenRunner.Voice) {
		t.Fatalf("question prompt missing personality voice")
	}
	if !strings.Contains(qp, `"title"`) || !strings.Contains(qp, `"content"`) {
		t.Fatalf("question prompt missing JSON example")
	}

	ap := BuildAnswerPrompt(PersonalityTrainer, "Sore calves", "My calves hurt after hill repeats, what now?")
	if !strings.Contains(ap, PersonalityTrainer.Voice) {
		t.Fatalf("answer prompt missing personality voice")
	}
	if !strings.Contains(ap, "Sore calves") || !strings.Contains(ap, "hill repeats") {
		t.Fatalf("answer prompt missing question subject")
	}
}
