package repos

import (
  "context"

  "gorm.io/gorm"

  "github.com/google/uuid"
  "github.com/paceline/paceline-backend/internal/logger"
  "github.com/paceline/paceline-backend/internal/types"
)

type TagRepo interface {
  FindOrCreateByNames(ctx context.Context, tx *gorm.DB, names []string) ([]types.Tag, error)
  List(ctx context.Context, tx *gorm.DB) ([]types.Tag, error)
}

type tagRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo {
  repoLog := baseLog.With("repo", "TagRepo")
  return &tagRepo{db: db, log: repoLog}
}

func (r *tagRepo) FindOrCreateByNames(ctx context.Context, tx *gorm.DB, names []string) ([]types.Tag, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []types.Tag
  if len(names) == 0 {
    return results, nil
  }

  var existing []types.Tag
  if err := transaction.WithContext(ctx).
    Where("name IN ?", names).
    Find(&existing).Error; err != nil {
    return nil, err
  }

  byName := make(map[string]types.Tag, len(existing))
  for _, t := range existing {
    byName[t.Name] = t
  }

  for _, name := range names {
    if t, ok := byName[name]; ok {
      results = append(results, t)
      continue
    }
    tag := types.Tag{ID: uuid.New(), Name: name}
    if err := transaction.WithContext(ctx).Create(&tag).Error; err != nil {
      return nil, err
    }
    byName[name] = tag
    results = append(results, tag)
  }
  return results, nil
}

func (r *tagRepo) List(ctx context.Context, tx *gorm.DB) ([]types.Tag, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []types.Tag
  if err := transaction.WithContext(ctx).
    Order("name ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
