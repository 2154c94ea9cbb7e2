package services

import (
  "context"
  "fmt"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/paceline/paceline-backend/internal/genai"
  "github.com/paceline/paceline-backend/internal/logger"
  "github.com/paceline/paceline-backend/internal/repos"
  "github.com/paceline/paceline-backend/internal/types"
)

const (
  // MaxGenerationBatchSize caps one admin request; larger batches run as
  // several requests.
  MaxGenerationBatchSize = 10

  // AnswerTargetModeWithoutAI picks questions that have no AI-authored
  // answer yet, AnswerTargetModeUnanswered only those with no answer at all.
  AnswerTargetModeWithoutAI  = "without_ai"
  AnswerTargetModeUnanswered = "unanswered"
)

type GenerationFailure struct {
  Index       int        `json:"index"`
  Personality string     `json:"personality,omitempty"`
  QuestionID  *uuid.UUID `json:"question_id,omitempty"`
  Stage       string     `json:"stage"`
  Error       string     `json:"error"`
}

// GenerationBatchResult is a transient report, never persisted. A batch with
// failures is still a successful batch; only invalid input or an empty
// target pool short-circuits.
type GenerationBatchResult struct {
  RequestedCount  int                 `json:"requested_count"`
  EligibleTargets int                 `json:"eligible_targets"`
  Questions       []*types.Question   `json:"questions,omitempty"`
  Answers         []*types.Answer     `json:"answers,omitempty"`
  Failures        []GenerationFailure `json:"failures,omitempty"`
}

func (r *GenerationBatchResult) SucceededCount() int {
  return len(r.Questions) + len(r.Answers)
}

type GenerationService interface {
  GenerateQuestionsBatch(ctx context.Context, count int) (*GenerationBatchResult, error)
  GenerateAnswersBatch(ctx context.Context, count int, mode string) (*GenerationBatchResult, error)
}

type generationService struct {
  db                  *gorm.DB
  log                 *logger.Logger
  client              genai.Client
  questionRepo        repos.QuestionRepo
  answerRepo          repos.AnswerRepo
  aiCallLogRepo       repos.AICallLogRepo
  notificationService NotificationService
}

func NewGenerationService(
  db *gorm.DB,
  log *logger.Logger,
  client genai.Client,
  questionRepo repos.QuestionRepo,
  answerRepo repos.AnswerRepo,
  aiCallLogRepo repos.AICallLogRepo,
  notificationService NotificationService,
) GenerationService {
  serviceLog := log.With("service", "GenerationService")
  return &generationService{
    db:                  db,
    log:                 serviceLog,
    client:              client,
    questionRepo:        questionRepo,
    answerRepo:          answerRepo,
    aiCallLogRepo:       aiCallLogRepo,
    notificationService: notificationService,
  }
}

func validateBatchCount(count int) error {
  if count < 1 || count > MaxGenerationBatchSize {
    return fmt.Errorf("%w: count must be between 1 and %d, got %d", ErrInvalidArgument, MaxGenerationBatchSize, count)
  }
  return nil
}

// GenerateQuestionsBatch runs count independent question generations. Items
// run sequentially; one bad generation is recorded as a failure and the
// batch moves on.
func (gs *generationService) GenerateQuestionsBatch(ctx context.Context, count int) (*GenerationBatchResult, error) {
  if err := validateBatchCount(count); err != nil {
    return nil, err
  }

  result := &GenerationBatchResult{RequestedCount: count, EligibleTargets: count}
  for i := 0; i < count; i++ {
    question, failure := gs.generateOneQuestion(ctx, i)
    if failure != nil {
      result.Failures = append(result.Failures, *failure)
      continue
    }
    result.Questions = append(result.Questions, question)
  }

  gs.log.Info("Question generation batch finished",
    "requested", count, "succeeded", len(result.Questions), "failed", len(result.Failures))
  return result, nil
}

func (gs *generationService) generateOneQuestion(ctx context.Context, index int) (*types.Question, *GenerationFailure) {
  personality, err := genai.PickRandom(genai.QuestionPersonalities())
  if err != nil {
    return nil, &GenerationFailure{Index: index, Stage: "personality", Error: err.Error()}
  }

  prompt := genai.BuildQuestionPrompt(personality)
  raw, genErr := gs.generateText(ctx, types.AICallTypeQuestion, personality.Name, nil, prompt)
  if genErr != nil {
    return nil, &GenerationFailure{Index: index, Personality: personality.Name, Stage: "generate", Error: genErr.Error()}
  }

  parsed, pErr := genai.ParseQuestion(raw)
  if pErr != nil {
    return nil, &GenerationFailure{Index: index, Personality: personality.Name, Stage: "parse", Error: pErr.Error()}
  }

  personalityName := personality.Name
  question := &types.Question{
    ID:            uuid.New(),
    Title:         parsed.Title,
    Content:       parsed.Content,
    IsAIGenerated: true,
    AIPersonality: &personalityName,
  }
  if _, cErr := gs.questionRepo.Create(ctx, nil, []*types.Question{question}); cErr != nil {
    return nil, &GenerationFailure{Index: index, Personality: personality.Name, Stage: "persist", Error: cErr.Error()}
  }
  return question, nil
}

// GenerateAnswersBatch samples up to count target questions and writes one
// AI answer per target. An empty target pool is not an error; the result
// reports zero eligible targets and the caller decides what that means.
func (gs *generationService) GenerateAnswersBatch(ctx context.Context, count int, mode string) (*GenerationBatchResult, error) {
  if err := validateBatchCount(count); err != nil {
    return nil, err
  }

  var targets []*types.Question
  var err error
  switch mode {
  case AnswerTargetModeUnanswered:
    targets, err = gs.questionRepo.SelectUnanswered(ctx, nil, count)
  case "", AnswerTargetModeWithoutAI:
    targets, err = gs.questionRepo.SelectWithoutAIAnswer(ctx, nil, count)
  default:
    return nil, fmt.Errorf("%w: unknown target mode %q", ErrInvalidArgument, mode)
  }
  if err != nil {
    return nil, fmt.Errorf("Failed to select target questions: %w", err)
  }

  result := &GenerationBatchResult{RequestedCount: count, EligibleTargets: len(targets)}
  for i, target := range targets {
    answer, failure := gs.generateOneAnswer(ctx, i, target)
    if failure != nil {
      result.Failures = append(result.Failures, *failure)
      continue
    }
    result.Answers = append(result.Answers, answer)
  }

  gs.log.Info("Answer generation batch finished",
    "requested", count, "targets", len(targets), "succeeded", len(result.Answers), "failed", len(result.Failures))
  return result, nil
}

func (gs *generationService) generateOneAnswer(ctx context.Context, index int, question *types.Question) (*types.Answer, *GenerationFailure) {
  questionID := question.ID
  personality, err := genai.PickRandom(genai.AnswerPersonalities())
  if err != nil {
    return nil, &GenerationFailure{Index: index, QuestionID: &questionID, Stage: "personality", Error: err.Error()}
  }

  prompt := genai.BuildAnswerPrompt(personality, question.Title, question.Content)
  raw, genErr := gs.generateText(ctx, types.AICallTypeAnswer, personality.Name, &questionID, prompt)
  if genErr != nil {
    return nil, &GenerationFailure{Index: index, Personality: personality.Name, QuestionID: &questionID, Stage: "generate", Error: genErr.Error()}
  }

  parsed, pErr := genai.ParseAnswer(raw)
  if pErr != nil {
    return nil, &GenerationFailure{Index: index, Personality: personality.Name, QuestionID: &questionID, Stage: "parse", Error: pErr.Error()}
  }

  personalityName := personality.Name
  answer := &types.Answer{
    ID:            uuid.New(),
    Content:       parsed.Content,
    QuestionID:    questionID,
    IsAIGenerated: true,
    AIPersonality: &personalityName,
  }
  if _, cErr := gs.answerRepo.Create(ctx, nil, []*types.Answer{answer}); cErr != nil {
    return nil, &GenerationFailure{Index: index, Personality: personality.Name, QuestionID: &questionID, Stage: "persist", Error: cErr.Error()}
  }

  // Same contract as a human answer: the answer row is authoritative, the
  // question-side mirror is linked best-effort.
  if lErr := gs.questionRepo.AppendAnswerID(ctx, nil, questionID, answer.ID); lErr != nil {
    gs.log.Warn("Failed to link generated answer into question", "question_id", questionID, "answer_id", answer.ID, "error", lErr)
  }

  if question.AuthorID != nil {
    gs.notificationService.Notify(ctx, *question.AuthorID, types.NotificationTypeNewAnswer,
      fmt.Sprintf("New answer on your question %q", question.Title),
      &questionID, &answer.ID)
  }
  return answer, nil
}

// generateText wraps a single provider call and records it in the call log.
// Every attempt is logged, failed ones included; a failed log write is only
// warned about so an audit hiccup cannot fail a generation that worked.
func (gs *generationService) generateText(ctx context.Context, callType, personality string, questionID *uuid.UUID, prompt string) (string, error) {
  started := time.Now()
  raw, genErr := gs.client.GenerateText(ctx, prompt)
  latency := time.Since(started).Milliseconds()

  entry := &types.AICallLog{
    ID:          uuid.New(),
    CallType:    callType,
    Personality: personality,
    QuestionID:  questionID,
    Model:       gs.client.Model(),
    Prompt:      prompt,
    Response:    raw,
    Success:     genErr == nil,
    LatencyMS:   latency,
  }
  if genErr != nil {
    entry.Error = genErr.Error()
  }
  if _, logErr := gs.aiCallLogRepo.Create(ctx, nil, []*types.AICallLog{entry}); logErr != nil {
    gs.log.Warn("Failed to record AI call", "call_type", callType, "error", logErr)
  }

  return raw, genErr
}
