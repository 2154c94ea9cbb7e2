package repos

import (
  "context"
  "encoding/json"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/paceline/paceline-backend/internal/logger"
  "github.com/paceline/paceline-backend/internal/types"
)

type QuestionListFilter struct {
  Tag      string
  Search   string
  Offset   int
  Limit    int
}

type QuestionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, questions []*types.Question) ([]*types.Question, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.Question, error)
  GetWithAnswers(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) (*types.Question, error)
  List(ctx context.Context, tx *gorm.DB, filter QuestionListFilter) ([]*types.Question, int64, error)
  Update(ctx context.Context, tx *gorm.DB, question *types.Question) error
  SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) error
  AppendAnswerID(ctx context.Context, tx *gorm.DB, questionID, answerID uuid.UUID) error
  SetBestAnswerID(ctx context.Context, tx *gorm.DB, questionID uuid.UUID, answerID *uuid.UUID) error
  IncrementViews(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) error
  SelectUnanswered(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Question, error)
  SelectWithoutAIAnswer(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Question, error)
}

type questionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
  repoLog := baseLog.With("repo", "QuestionRepo")
  return &questionRepo{db: db, log: repoLog}
}

func (r *questionRepo) Create(ctx context.Context, tx *gorm.DB, questions []*types.Question) ([]*types.Question, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(questions) == 0 {
    return []*types.Question{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&questions).Error; err != nil {
    return nil, err
  }
  return questions, nil
}

func (r *questionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.Question, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Question
  if len(questionIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Preload("Tags").
    Where("id IN ?", questionIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *questionRepo) GetWithAnswers(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) (*types.Question, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.Question
  if err := transaction.WithContext(ctx).
    Preload("Tags").
    Preload("Author").
    Preload("Answers", func(db *gorm.DB) *gorm.DB {
      return db.Order("is_best_answer DESC, likes DESC, created_at ASC")
    }).
    Preload("Answers.Author").
    Where("id = ?", questionID).
    First(&result).Error; err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *questionRepo) List(ctx context.Context, tx *gorm.DB, filter QuestionListFilter) ([]*types.Question, int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  base := transaction.WithContext(ctx).Model(&types.Question{})
  if filter.Tag != "" {
    base = base.
      Joins("JOIN question_tags ON question_tags.question_id = question.id").
      Joins("JOIN tag ON tag.id = question_tags.tag_id").
      Where("tag.name = ?", filter.Tag)
  }
  if filter.Search != "" {
    like := "%" + filter.Search + "%"
    base = base.Where("(question.title LIKE ? OR question.content LIKE ?)", like, like)
  }

  var total int64
  if err := base.Count(&total).Error; err != nil {
    return nil, 0, err
  }

  var results []*types.Question
  if err := base.
    Preload("Tags").
    Preload("Author").
    Order("question.created_at DESC").
    Offset(filter.Offset).
    Limit(filter.Limit).
    Find(&results).Error; err != nil {
    return nil, 0, err
  }
  return results, total, nil
}

func (r *questionRepo) Update(ctx context.Context, tx *gorm.DB, question *types.Question) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if err := transaction.WithContext(ctx).Save(question).Error; err != nil {
    return err
  }
  return nil
}

func (r *questionRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(questionIDs) == 0 {
    return nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", questionIDs).
    Delete(&types.Question{}).Error; err != nil {
    return err
  }
  return nil
}

// AppendAnswerID pushes answerID into the question's answer_ids mirror if it
// is not already present. Pushing an id twice is a no-op.
func (r *questionRepo) AppendAnswerID(ctx context.Context, tx *gorm.DB, questionID, answerID uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var question types.Question
  if err := transaction.WithContext(ctx).
    Select("id", "answer_ids").
    Where("id = ?", questionID).
    First(&question).Error; err != nil {
    return err
  }

  var ids []string
  if len(question.AnswerIDs) > 0 {
    if err := json.Unmarshal(question.AnswerIDs, &ids); err != nil {
      r.log.Warn("Resetting unreadable answer_ids column", "question_id", questionID, "error", err)
      ids = nil
    }
  }
  for _, id := range ids {
    if id == answerID.String() {
      return nil
    }
  }
  ids = append(ids, answerID.String())

  raw, err := json.Marshal(ids)
  if err != nil {
    return err
  }
  if err := transaction.WithContext(ctx).
    Model(&types.Question{}).
    Where("id = ?", questionID).
    Update("answer_ids", datatypes.JSON(raw)).Error; err != nil {
    return err
  }
  return nil
}

func (r *questionRepo) SetBestAnswerID(ctx context.Context, tx *gorm.DB, questionID uuid.UUID, answerID *uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if err := transaction.WithContext(ctx).
    Model(&types.Question{}).
    Where("id = ?", questionID).
    Update("best_answer_id", answerID).Error; err != nil {
    return err
  }
  return nil
}

func (r *questionRepo) IncrementViews(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if err := transaction.WithContext(ctx).
    Model(&types.Question{}).
    Where("id = ?", questionID).
    Update("views", gorm.Expr("views + 1")).Error; err != nil {
    return err
  }
  return nil
}

// SelectUnanswered samples questions with no live answer at all.
func (r *questionRepo) SelectUnanswered(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Question, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Question
  if limit <= 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("NOT EXISTS (SELECT 1 FROM answer WHERE answer.question_id = question.id AND answer.deleted_at IS NULL)").
    Order("RANDOM()").
    Limit(limit).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

// SelectWithoutAIAnswer samples questions that may already have human answers
// but no AI-authored one.
func (r *questionRepo) SelectWithoutAIAnswer(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Question, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Question
  if limit <= 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("NOT EXISTS (SELECT 1 FROM answer WHERE answer.question_id = question.id AND answer.is_ai_generated = ? AND answer.deleted_at IS NULL)", true).
    Order("RANDOM()").
    Limit(limit).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
