package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/paceline/paceline-backend/internal/logger"
  "github.com/paceline/paceline-backend/internal/types"
)

type AnswerRepo interface {
  Create(ctx context.Context, tx *gorm.DB, answers []*types.Answer) ([]*types.Answer, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, answerIDs []uuid.UUID) ([]*types.Answer, error)
  GetByQuestionIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.Answer, error)
  Update(ctx context.Context, tx *gorm.DB, answer *types.Answer) error
  SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, answerIDs []uuid.UUID) error
  ClearBestAnswer(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) error
  MarkBestAnswer(ctx context.Context, tx *gorm.DB, answerID uuid.UUID) error
}

type answerRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewAnswerRepo(db *gorm.DB, baseLog *logger.Logger) AnswerRepo {
  repoLog := baseLog.With("repo", "AnswerRepo")
  return &answerRepo{db: db, log: repoLog}
}

func (r *answerRepo) Create(ctx context.Context, tx *gorm.DB, answers []*types.Answer) ([]*types.Answer, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(answers) == 0 {
    return []*types.Answer{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&answers).Error; err != nil {
    return nil, err
  }
  return answers, nil
}

func (r *answerRepo) GetByIDs(ctx context.Context, tx *gorm.DB, answerIDs []uuid.UUID) ([]*types.Answer, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Answer
  if len(answerIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", answerIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *answerRepo) GetByQuestionIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.Answer, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Answer
  if len(questionIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("question_id IN ?", questionIDs).
    Order("created_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *answerRepo) Update(ctx context.Context, tx *gorm.DB, answer *types.Answer) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if err := transaction.WithContext(ctx).Save(answer).Error; err != nil {
    return err
  }
  return nil
}

func (r *answerRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, answerIDs []uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(answerIDs) == 0 {
    return nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", answerIDs).
    Delete(&types.Answer{}).Error; err != nil {
    return err
  }
  return nil
}

func (r *answerRepo) ClearBestAnswer(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if err := transaction.WithContext(ctx).
    Model(&types.Answer{}).
    Where("question_id = ? AND is_best_answer = ?", questionID, true).
    Update("is_best_answer", false).Error; err != nil {
    return err
  }
  return nil
}

func (r *answerRepo) MarkBestAnswer(ctx context.Context, tx *gorm.DB, answerID uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if err := transaction.WithContext(ctx).
    Model(&types.Answer{}).
    Where("id = ?", answerID).
    Update("is_best_answer", true).Error; err != nil {
    return err
  }
  return nil
}
