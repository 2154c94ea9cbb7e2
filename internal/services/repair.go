package services

import (
  "context"
  "encoding/json"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/paceline/paceline-backend/internal/logger"
  "github.com/paceline/paceline-backend/internal/repos"
)

const reconcileBatchSize = 200

type ReconcileResult struct {
  QuestionsScanned int `json:"questions_scanned"`
  LinksRepaired    int `json:"links_repaired"`
}

type RepairService interface {
  ReconcileAnswerLinks(ctx context.Context) (*ReconcileResult, error)
}

type repairService struct {
  db           *gorm.DB
  log          *logger.Logger
  questionRepo repos.QuestionRepo
  answerRepo   repos.AnswerRepo
}

func NewRepairService(
  db *gorm.DB,
  log *logger.Logger,
  questionRepo repos.QuestionRepo,
  answerRepo repos.AnswerRepo,
) RepairService {
  serviceLog := log.With("service", "RepairService")
  return &repairService{
    db:           db,
    log:          serviceLog,
    questionRepo: questionRepo,
    answerRepo:   answerRepo,
  }
}

// ReconcileAnswerLinks walks every question and re-appends any live answer
// missing from the question's answer_ids mirror. The walk is idempotent:
// running it on a consistent database changes nothing.
func (rs *repairService) ReconcileAnswerLinks(ctx context.Context) (*ReconcileResult, error) {
  result := &ReconcileResult{}

  for offset := 0; ; offset += reconcileBatchSize {
    questions, _, err := rs.questionRepo.List(ctx, nil, repos.QuestionListFilter{
      Offset: offset,
      Limit:  reconcileBatchSize,
    })
    if err != nil {
      return nil, fmt.Errorf("Failed to list questions: %w", err)
    }
    if len(questions) == 0 {
      break
    }

    questionIDs := make([]uuid.UUID, 0, len(questions))
    for _, q := range questions {
      questionIDs = append(questionIDs, q.ID)
    }
    answers, err := rs.answerRepo.GetByQuestionIDs(ctx, nil, questionIDs)
    if err != nil {
      return nil, fmt.Errorf("Failed to load answers: %w", err)
    }
    answersByQuestion := make(map[uuid.UUID][]uuid.UUID, len(questions))
    for _, a := range answers {
      answersByQuestion[a.QuestionID] = append(answersByQuestion[a.QuestionID], a.ID)
    }

    for _, q := range questions {
      result.QuestionsScanned++

      linked := make(map[string]bool)
      if len(q.AnswerIDs) > 0 {
        var ids []string
        if uErr := json.Unmarshal(q.AnswerIDs, &ids); uErr != nil {
          rs.log.Warn("Rebuilding unreadable answer_ids column", "question_id", q.ID, "error", uErr)
        } else {
          for _, id := range ids {
            linked[id] = true
          }
        }
      }

      for _, answerID := range answersByQuestion[q.ID] {
        if linked[answerID.String()] {
          continue
        }
        if aErr := rs.questionRepo.AppendAnswerID(ctx, nil, q.ID, answerID); aErr != nil {
          return nil, fmt.Errorf("Failed to repair answer link: %w", aErr)
        }
        result.LinksRepaired++
      }
    }

    if len(questions) < reconcileBatchSize {
      break
    }
  }

  rs.log.Info("Answer link reconciliation finished",
    "scanned", result.QuestionsScanned, "repaired", result.LinksRepaired)
  return result, nil
}
