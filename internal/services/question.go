package services

import (
  "context"
  "errors"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/paceline/paceline-backend/internal/logger"
  "github.com/paceline/paceline-backend/internal/normalization"
  "github.com/paceline/paceline-backend/internal/repos"
  "github.com/paceline/paceline-backend/internal/requestdata"
  "github.com/paceline/paceline-backend/internal/types"
)

type CreateQuestionInput struct {
  Title   string
  Content string
  Tags    []string
}

type UpdateQuestionInput struct {
  Title   string
  Content string
  Tags    []string
}

type ListQuestionsInput struct {
  Tag    string
  Search string
  Page   int
  Limit  int
}

type QuestionService interface {
  Create(ctx context.Context, input CreateQuestionInput) (*types.Question, error)
  Get(ctx context.Context, questionID uuid.UUID) (*types.Question, error)
  List(ctx context.Context, input ListQuestionsInput) ([]*types.Question, int64, error)
  Update(ctx context.Context, questionID uuid.UUID, input UpdateQuestionInput) (*types.Question, error)
  Delete(ctx context.Context, questionID uuid.UUID) error
  SetBestAnswer(ctx context.Context, questionID, answerID uuid.UUID) error
  ListTags(ctx context.Context) ([]types.Tag, error)
}

type questionService struct {
  db                  *gorm.DB
  log                 *logger.Logger
  questionRepo        repos.QuestionRepo
  answerRepo          repos.AnswerRepo
  tagRepo             repos.TagRepo
  notificationService NotificationService
}

func NewQuestionService(
  db *gorm.DB,
  log *logger.Logger,
  questionRepo repos.QuestionRepo,
  answerRepo repos.AnswerRepo,
  tagRepo repos.TagRepo,
  notificationService NotificationService,
) QuestionService {
  serviceLog := log.With("service", "QuestionService")
  return &questionService{
    db:                  db,
    log:                 serviceLog,
    questionRepo:        questionRepo,
    answerRepo:          answerRepo,
    tagRepo:             tagRepo,
    notificationService: notificationService,
  }
}

func (qs *questionService) Create(ctx context.Context, input CreateQuestionInput) (*types.Question, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, fmt.Errorf("%w: no authenticated user", ErrForbidden)
  }

  title := normalization.TrimInputString(input.Title)
  content := normalization.TrimInputString(input.Content)
  if title == "" || content == "" {
    return nil, fmt.Errorf("%w: title and content are required", ErrInvalidArgument)
  }

  var question *types.Question
  err := qs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    tags, tErr := qs.tagRepo.FindOrCreateByNames(ctx, tx, normalizeTagNames(input.Tags))
    if tErr != nil {
      return fmt.Errorf("Failed to resolve tags: %w", tErr)
    }
    authorID := rd.UserID
    question = &types.Question{
      ID:       uuid.New(),
      Title:    title,
      Content:  content,
      AuthorID: &authorID,
      Tags:     tags,
    }
    if _, cErr := qs.questionRepo.Create(ctx, tx, []*types.Question{question}); cErr != nil {
      return fmt.Errorf("Failed to create question: %w", cErr)
    }
    return nil
  })
  if err != nil {
    return nil, err
  }
  return question, nil
}

func (qs *questionService) Get(ctx context.Context, questionID uuid.UUID) (*types.Question, error) {
  question, err := qs.questionRepo.GetWithAnswers(ctx, nil, questionID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, fmt.Errorf("%w: question %s", ErrNotFound, questionID)
    }
    return nil, fmt.Errorf("Failed to load question: %w", err)
  }
  // View counting is fire-and-forget; a lost increment is fine.
  if ivErr := qs.questionRepo.IncrementViews(ctx, nil, questionID); ivErr != nil {
    qs.log.Warn("Failed to increment question views", "question_id", questionID, "error", ivErr)
  }
  return question, nil
}

func (qs *questionService) List(ctx context.Context, input ListQuestionsInput) ([]*types.Question, int64, error) {
  page := input.Page
  if page < 1 {
    page = 1
  }
  limit := input.Limit
  if limit < 1 || limit > 50 {
    limit = 20
  }
  filter := repos.QuestionListFilter{
    Tag:    normalization.ParseInputString(input.Tag),
    Search: normalization.TrimInputString(input.Search),
    Offset: (page - 1) * limit,
    Limit:  limit,
  }
  questions, total, err := qs.questionRepo.List(ctx, nil, filter)
  if err != nil {
    return nil, 0, fmt.Errorf("Failed to list questions: %w", err)
  }
  return questions, total, nil
}

func (qs *questionService) Update(ctx context.Context, questionID uuid.UUID, input UpdateQuestionInput) (*types.Question, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, fmt.Errorf("%w: no authenticated user", ErrForbidden)
  }

  questions, err := qs.questionRepo.GetByIDs(ctx, nil, []uuid.UUID{questionID})
  if err != nil {
    return nil, fmt.Errorf("Failed to load question: %w", err)
  }
  if len(questions) == 0 {
    return nil, fmt.Errorf("%w: question %s", ErrNotFound, questionID)
  }
  question := questions[0]
  if question.AuthorID == nil || *question.AuthorID != rd.UserID {
    return nil, fmt.Errorf("%w: only the author can edit a question", ErrForbidden)
  }

  if title := normalization.TrimInputString(input.Title); title != "" {
    question.Title = title
  }
  if content := normalization.TrimInputString(input.Content); content != "" {
    question.Content = content
  }

  err = qs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if input.Tags != nil {
      tags, tErr := qs.tagRepo.FindOrCreateByNames(ctx, tx, normalizeTagNames(input.Tags))
      if tErr != nil {
        return fmt.Errorf("Failed to resolve tags: %w", tErr)
      }
      if rErr := tx.WithContext(ctx).Model(question).Association("Tags").Replace(tags); rErr != nil {
        return fmt.Errorf("Failed to replace tags: %w", rErr)
      }
    }
    if uErr := qs.questionRepo.Update(ctx, tx, question); uErr != nil {
      return fmt.Errorf("Failed to update question: %w", uErr)
    }
    return nil
  })
  if err != nil {
    return nil, err
  }
  return question, nil
}

func (qs *questionService) Delete(ctx context.Context, questionID uuid.UUID) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return fmt.Errorf("%w: no authenticated user", ErrForbidden)
  }

  questions, err := qs.questionRepo.GetByIDs(ctx, nil, []uuid.UUID{questionID})
  if err != nil {
    return fmt.Errorf("Failed to load question: %w", err)
  }
  if len(questions) == 0 {
    return fmt.Errorf("%w: question %s", ErrNotFound, questionID)
  }
  question := questions[0]
  isAuthor := question.AuthorID != nil && *question.AuthorID == rd.UserID
  if !isAuthor && rd.Role != types.UserRoleAdmin {
    return fmt.Errorf("%w: only the author or an admin can delete a question", ErrForbidden)
  }

  if err := qs.questionRepo.SoftDeleteByIDs(ctx, nil, []uuid.UUID{questionID}); err != nil {
    return fmt.Errorf("Failed to delete question: %w", err)
  }
  return nil
}

// SetBestAnswer keeps the single-winner invariant: the previous best answer
// is cleared, the chosen one marked, and the question's best_answer_id
// updated, all in one transaction.
func (qs *questionService) SetBestAnswer(ctx context.Context, questionID, answerID uuid.UUID) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return fmt.Errorf("%w: no authenticated user", ErrForbidden)
  }

  questions, err := qs.questionRepo.GetByIDs(ctx, nil, []uuid.UUID{questionID})
  if err != nil {
    return fmt.Errorf("Failed to load question: %w", err)
  }
  if len(questions) == 0 {
    return fmt.Errorf("%w: question %s", ErrNotFound, questionID)
  }
  question := questions[0]
  if question.AuthorID == nil || *question.AuthorID != rd.UserID {
    return fmt.Errorf("%w: only the question author can choose the best answer", ErrForbidden)
  }

  answers, err := qs.answerRepo.GetByIDs(ctx, nil, []uuid.UUID{answerID})
  if err != nil {
    return fmt.Errorf("Failed to load answer: %w", err)
  }
  if len(answers) == 0 || answers[0].QuestionID != questionID {
    return fmt.Errorf("%w: answer %s does not belong to question %s", ErrInvalidArgument, answerID, questionID)
  }
  answer := answers[0]

  err = qs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if cErr := qs.answerRepo.ClearBestAnswer(ctx, tx, questionID); cErr != nil {
      return fmt.Errorf("Failed to clear previous best answer: %w", cErr)
    }
    if mErr := qs.answerRepo.MarkBestAnswer(ctx, tx, answerID); mErr != nil {
      return fmt.Errorf("Failed to mark best answer: %w", mErr)
    }
    if sErr := qs.questionRepo.SetBestAnswerID(ctx, tx, questionID, &answerID); sErr != nil {
      return fmt.Errorf("Failed to set best answer id: %w", sErr)
    }
    return nil
  })
  if err != nil {
    return err
  }

  if answer.AuthorID != nil && *answer.AuthorID != rd.UserID {
    qs.notificationService.Notify(ctx, *answer.AuthorID, types.NotificationTypeBestAnswer,
      fmt.Sprintf("Your answer to %q was chosen as the best answer", question.Title),
      &questionID, &answerID)
  }
  return nil
}

func (qs *questionService) ListTags(ctx context.Context) ([]types.Tag, error) {
  tags, err := qs.tagRepo.List(ctx, nil)
  if err != nil {
    return nil, fmt.Errorf("Failed to list tags: %w", err)
  }
  return tags, nil
}

func normalizeTagNames(names []string) []string {
  seen := make(map[string]bool, len(names))
  var out []string
  for _, name := range names {
    normalized := normalization.ParseInputString(name)
    if normalized == "" || seen[normalized] {
      continue
    }
    seen[normalized] = true
    out = append(out, normalized)
  }
  return out
}
