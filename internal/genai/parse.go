package genai

import (
  "encoding/json"
  "errors"
  "fmt"
  "regexp"
  "strings"
)

// ErrParse means the generated text could not be interpreted as the expected
// structure. A JSON object that parses but misses a required field fails the
// whole item; the caller discards it rather than guessing.
var ErrParse = errors.New("unparseable generation output")

// errStrategyNoMatch moves the parser on to the next strategy in the chain.
var errStrategyNoMatch = errors.New("strategy does not apply")

type GeneratedQuestion struct {
  Title   string
  Content string
}

type GeneratedAnswer struct {
  Content string
}

var (
  fencedJSONRe   = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
  titleContentRe = regexp.MustCompile(`(?is)title\s*:\s*(.+?)\s*\n+\s*content\s*:\s*(.+)`)
)

func fencedJSONBlock(raw string) (string, bool) {
  if m := fencedJSONRe.FindStringSubmatch(raw); m != nil {
    return m[1], true
  }
  return "", false
}

// bareJSONBlock takes the outermost brace-delimited span, which makes a JSON
// object embedded in surrounding prose parse the same as the object alone.
func bareJSONBlock(raw string) (string, bool) {
  start := strings.Index(raw, "{")
  end := strings.LastIndex(raw, "}")
  if start >= 0 && end > start {
    return raw[start : end+1], true
  }
  return "", false
}

type questionStrategy struct {
  name  string
  parse func(raw string) (*GeneratedQuestion, error)
}

type answerStrategy struct {
  name  string
  parse func(raw string) (*GeneratedAnswer, error)
}

func questionFromJSON(text string) (*GeneratedQuestion, error) {
  var obj struct {
    Title   string `json:"title"`
    Content string `json:"content"`
  }
  if err := json.Unmarshal([]byte(text), &obj); err != nil {
    return nil, errStrategyNoMatch
  }
  title := strings.TrimSpace(obj.Title)
  content := strings.TrimSpace(obj.Content)
  if title == "" || content == "" {
    return nil, fmt.Errorf("%w: json object missing title or content", ErrParse)
  }
  return &GeneratedQuestion{Title: title, Content: content}, nil
}

func answerFromJSON(text string) (*GeneratedAnswer, error) {
  var obj struct {
    Content string `json:"content"`
  }
  if err := json.Unmarshal([]byte(text), &obj); err != nil {
    return nil, errStrategyNoMatch
  }
  content := strings.TrimSpace(obj.Content)
  if content == "" {
    return nil, fmt.Errorf("%w: json object missing content", ErrParse)
  }
  return &GeneratedAnswer{Content: content}, nil
}

var questionStrategies = []questionStrategy{
  {
    name: "fenced_json",
    parse: func(raw string) (*GeneratedQuestion, error) {
      text, ok := fencedJSONBlock(raw)
      if !ok {
        return nil, errStrategyNoMatch
      }
      return questionFromJSON(text)
    },
  },
  {
    name: "bare_json",
    parse: func(raw string) (*GeneratedQuestion, error) {
      text, ok := bareJSONBlock(raw)
      if !ok {
        return nil, errStrategyNoMatch
      }
      return questionFromJSON(text)
    },
  },
  {
    name: "title_content_markers",
    parse: func(raw string) (*GeneratedQuestion, error) {
      m := titleContentRe.FindStringSubmatch(raw)
      if m == nil {
        return nil, errStrategyNoMatch
      }
      title := strings.TrimSpace(m[1])
      content := strings.TrimSpace(m[2])
      if title == "" || content == "" {
        return nil, errStrategyNoMatch
      }
      return &GeneratedQuestion{Title: title, Content: content}, nil
    },
  },
}

var answerStrategies = []answerStrategy{
  {
    name: "fenced_json",
    parse: func(raw string) (*GeneratedAnswer, error) {
      text, ok := fencedJSONBlock(raw)
      if !ok {
        return nil, errStrategyNoMatch
      }
      return answerFromJSON(text)
    },
  },
  {
    name: "bare_json",
    parse: func(raw string) (*GeneratedAnswer, error) {
      text, ok := bareJSONBlock(raw)
      if !ok {
        return nil, errStrategyNoMatch
      }
      return answerFromJSON(text)
    },
  },
  {
    name: "raw_text",
    parse: func(raw string) (*GeneratedAnswer, error) {
      content := strings.TrimSpace(raw)
      if content == "" {
        return nil, errStrategyNoMatch
      }
      return &GeneratedAnswer{Content: content}, nil
    },
  },
}

func ParseQuestion(raw string) (*GeneratedQuestion, error) {
  for _, s := range questionStrategies {
    q, err := s.parse(raw)
    if err == nil {
      return q, nil
    }
    if errors.Is(err, errStrategyNoMatch) {
      continue
    }
    return nil, err
  }
  return nil, fmt.Errorf("%w: no question strategy matched", ErrParse)
}

func ParseAnswer(raw string) (*GeneratedAnswer, error) {
  for _, s := range answerStrategies {
    a, err := s.parse(raw)
    if err == nil {
      return a, nil
    }
    if errors.Is(err, errStrategyNoMatch) {
      continue
    }
    return nil, err
  }
  return nil, fmt.Errorf("%w: no answer strategy matched", ErrParse)
}
