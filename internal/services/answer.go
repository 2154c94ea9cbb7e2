package services

import (
  "context"
  "encoding/json"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/paceline/paceline-backend/internal/logger"
  "github.com/paceline/paceline-backend/internal/normalization"
  "github.com/paceline/paceline-backend/internal/repos"
  "github.com/paceline/paceline-backend/internal/requestdata"
  "github.com/paceline/paceline-backend/internal/types"
)

type AnswerService interface {
  Create(ctx context.Context, questionID uuid.UUID, content string) (*types.Answer, error)
  Delete(ctx context.Context, answerID uuid.UUID) error
  ToggleLike(ctx context.Context, answerID uuid.UUID) (*types.Answer, error)
}

type answerService struct {
  db                  *gorm.DB
  log                 *logger.Logger
  questionRepo        repos.QuestionRepo
  answerRepo          repos.AnswerRepo
  notificationService NotificationService
}

func NewAnswerService(
  db *gorm.DB,
  log *logger.Logger,
  questionRepo repos.QuestionRepo,
  answerRepo repos.AnswerRepo,
  notificationService NotificationService,
) AnswerService {
  serviceLog := log.With("service", "AnswerService")
  return &answerService{
    db:                  db,
    log:                 serviceLog,
    questionRepo:        questionRepo,
    answerRepo:          answerRepo,
    notificationService: notificationService,
  }
}

func (svc *answerService) Create(ctx context.Context, questionID uuid.UUID, content string) (*types.Answer, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, fmt.Errorf("%w: no authenticated user", ErrForbidden)
  }

  content = normalization.TrimInputString(content)
  if content == "" {
    return nil, fmt.Errorf("%w: answer content is required", ErrInvalidArgument)
  }

  questions, err := svc.questionRepo.GetByIDs(ctx, nil, []uuid.UUID{questionID})
  if err != nil {
    return nil, fmt.Errorf("Failed to load question: %w", err)
  }
  if len(questions) == 0 {
    return nil, fmt.Errorf("%w: question %s", ErrNotFound, questionID)
  }
  question := questions[0]

  authorID := rd.UserID
  answer := &types.Answer{
    ID:         uuid.New(),
    Content:    content,
    QuestionID: questionID,
    AuthorID:   &authorID,
  }
  if _, cErr := svc.answerRepo.Create(ctx, nil, []*types.Answer{answer}); cErr != nil {
    return nil, fmt.Errorf("Failed to create answer: %w", cErr)
  }

  // The answer is the source of truth; the question's answer_ids mirror is
  // eventually linked. A failed append leaves the answer valid and is
  // repaired by ReconcileAnswerLinks.
  if lErr := svc.questionRepo.AppendAnswerID(ctx, nil, questionID, answer.ID); lErr != nil {
    svc.log.Warn("Failed to link answer into question", "question_id", questionID, "answer_id", answer.ID, "error", lErr)
  }

  if question.AuthorID != nil && *question.AuthorID != rd.UserID {
    svc.notificationService.Notify(ctx, *question.AuthorID, types.NotificationTypeNewAnswer,
      fmt.Sprintf("New answer on your question %q", question.Title),
      &questionID, &answer.ID)
  }
  return answer, nil
}

func (svc *answerService) Delete(ctx context.Context, answerID uuid.UUID) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return fmt.Errorf("%w: no authenticated user", ErrForbidden)
  }

  answers, err := svc.answerRepo.GetByIDs(ctx, nil, []uuid.UUID{answerID})
  if err != nil {
    return fmt.Errorf("Failed to load answer: %w", err)
  }
  if len(answers) == 0 {
    return fmt.Errorf("%w: answer %s", ErrNotFound, answerID)
  }
  answer := answers[0]
  isAuthor := answer.AuthorID != nil && *answer.AuthorID == rd.UserID
  if !isAuthor && rd.Role != types.UserRoleAdmin {
    return fmt.Errorf("%w: only the author or an admin can delete an answer", ErrForbidden)
  }

  return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if answer.IsBestAnswer {
      if sErr := svc.questionRepo.SetBestAnswerID(ctx, tx, answer.QuestionID, nil); sErr != nil {
        return fmt.Errorf("Failed to clear best answer id: %w", sErr)
      }
    }
    if dErr := svc.answerRepo.SoftDeleteByIDs(ctx, tx, []uuid.UUID{answerID}); dErr != nil {
      return fmt.Errorf("Failed to delete answer: %w", dErr)
    }
    return nil
  })
}

func (svc *answerService) ToggleLike(ctx context.Context, answerID uuid.UUID) (*types.Answer, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, fmt.Errorf("%w: no authenticated user", ErrForbidden)
  }

  answers, err := svc.answerRepo.GetByIDs(ctx, nil, []uuid.UUID{answerID})
  if err != nil {
    return nil, fmt.Errorf("Failed to load answer: %w", err)
  }
  if len(answers) == 0 {
    return nil, fmt.Errorf("%w: answer %s", ErrNotFound, answerID)
  }
  answer := answers[0]

  var likedBy []string
  if len(answer.LikedBy) > 0 {
    if uErr := json.Unmarshal(answer.LikedBy, &likedBy); uErr != nil {
      svc.log.Warn("Resetting unreadable liked_by column", "answer_id", answerID, "error", uErr)
      likedBy = nil
    }
  }

  me := rd.UserID.String()
  found := false
  next := likedBy[:0]
  for _, id := range likedBy {
    if id == me {
      found = true
      continue
    }
    next = append(next, id)
  }
  if !found {
    next = append(next, me)
  }

  raw, mErr := json.Marshal(next)
  if mErr != nil {
    return nil, fmt.Errorf("Failed to encode liked_by: %w", mErr)
  }
  answer.LikedBy = datatypes.JSON(raw)
  answer.Likes = int64(len(next))

  if uErr := svc.answerRepo.Update(ctx, nil, answer); uErr != nil {
    return nil, fmt.Errorf("Failed to update answer likes: %w", uErr)
  }
  return answer, nil
}
