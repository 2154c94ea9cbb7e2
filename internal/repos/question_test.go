package repos

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/paceline/paceline-backend/internal/logger"
	"github.com/paceline/paceline-backend/internal/types"
)

// The selection queries run raw NOT EXISTS subqueries against the question
// and answer tables, so the tests build the schema by hand instead of
// relying on AutoMigrate's postgres-flavoured defaults.
var testSchema = []string{
	`CREATE TABLE question (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		author_id TEXT,
		is_ai_generated BOOLEAN NOT NULL DEFAULT 0,
		ai_personality TEXT,
		answer_ids TEXT,
		best_answer_id TEXT,
		views INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	)`,
	`CREATE TABLE answer (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		question_id TEXT NOT NULL,
		author_id TEXT,
		is_ai_generated BOOLEAN NOT NULL DEFAULT 0,
		ai_personality TEXT,
		is_best_answer BOOLEAN NOT NULL DEFAULT 0,
		likes INTEGER NOT NULL DEFAULT 0,
		liked_by TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	)`,
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	for _, stmt := range testSchema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func seedQuestion(t *testing.T, repo QuestionRepo, title string) *types.Question {
	t.Helper()
	q := &types.Question{
		ID:      uuid.New(),
		Title:   title,
		Content: "body of " + title,
	}
	if _, err := repo.Create(context.Background(), nil, []*types.Question{q}); err != nil {
		t.Fatalf("seed question %q: %v", title, err)
	}
	return q
}

func seedAnswer(t *testing.T, repo AnswerRepo, questionID uuid.UUID, aiGenerated, deleted bool) *types.Answer {
	t.Helper()
	a := &types.Answer{
		ID:            uuid.New(),
		Content:       "an answer",
		QuestionID:    questionID,
		IsAIGenerated: aiGenerated,
	}
	if deleted {
		a.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}
	if _, err := repo.Create(context.Background(), nil, []*types.Answer{a}); err != nil {
		t.Fatalf("seed answer: %v", err)
	}
	return a
}

func questionIDSet(questions []*types.Question) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool, len(questions))
	for _, q := range questions {
		out[q.ID] = true
	}
	return out
}

func TestSelectUnansweredSkipsAnyLiveAnswer(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	questionRepo := NewQuestionRepo(db, log)
	answerRepo := NewAnswerRepo(db, log)

	bare := seedQuestion(t, questionRepo, "no answers")
	humanAnswered := seedQuestion(t, questionRepo, "human answered")
	aiAnswered := seedQuestion(t, questionRepo, "ai answered")
	onlyDeleted := seedQuestion(t, questionRepo, "only deleted answer")

	seedAnswer(t, answerRepo, humanAnswered.ID, false, false)
	seedAnswer(t, answerRepo, aiAnswered.ID, true, false)
	seedAnswer(t, answerRepo, onlyDeleted.ID, false, true)

	got, err := questionRepo.SelectUnanswered(context.Background(), nil, 10)
	if err != nil {
		t.Fatalf("SelectUnanswered: %v", err)
	}
	ids := questionIDSet(got)
	if len(ids) != 2 || !ids[bare.ID] || !ids[onlyDeleted.ID] {
		t.Fatalf("SelectUnanswered: want {%s,%s} got %v", bare.ID, onlyDeleted.ID, ids)
	}
}

func TestSelectWithoutAIAnswerKeepsHumanAnswered(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	questionRepo := NewQuestionRepo(db, log)
	answerRepo := NewAnswerRepo(db, log)

	bare := seedQuestion(t, questionRepo, "no answers")
	humanAnswered := seedQuestion(t, questionRepo, "human answered")
	aiAnswered := seedQuestion(t, questionRepo, "ai answered")
	deletedAIAnswer := seedQuestion(t, questionRepo, "ai answer was removed")

	seedAnswer(t, answerRepo, humanAnswered.ID, false, false)
	seedAnswer(t, answerRepo, aiAnswered.ID, true, false)
	seedAnswer(t, answerRepo, deletedAIAnswer.ID, true, true)

	got, err := questionRepo.SelectWithoutAIAnswer(context.Background(), nil, 10)
	if err != nil {
		t.Fatalf("SelectWithoutAIAnswer: %v", err)
	}
	ids := questionIDSet(got)
	if len(ids) != 3 || ids[aiAnswered.ID] {
		t.Fatalf("SelectWithoutAIAnswer: unexpected set %v", ids)
	}
	if !ids[bare.ID] || !ids[humanAnswered.ID] || !ids[deletedAIAnswer.ID] {
		t.Fatalf("SelectWithoutAIAnswer: missing expected questions: %v", ids)
	}
}

func TestSelectTargetsRespectLimit(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	questionRepo := NewQuestionRepo(db, log)

	for i := 0; i < 5; i++ {
		seedQuestion(t, questionRepo, "question")
	}

	got, err := questionRepo.SelectUnanswered(context.Background(), nil, 3)
	if err != nil {
		t.Fatalf("SelectUnanswered: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("limit: want=3 got=%d", len(got))
	}

	got, err = questionRepo.SelectWithoutAIAnswer(context.Background(), nil, 2)
	if err != nil {
		t.Fatalf("SelectWithoutAIAnswer: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("limit: want=2 got=%d", len(got))
	}
}

func readAnswerIDs(t *testing.T, db *gorm.DB, questionID uuid.UUID) []string {
	t.Helper()
	var q types.Question
	if err := db.Select("id", "answer_ids").Where("id = ?", questionID).First(&q).Error; err != nil {
		t.Fatalf("reload question: %v", err)
	}
	if len(q.AnswerIDs) == 0 {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(q.AnswerIDs, &ids); err != nil {
		t.Fatalf("decode answer_ids: %v", err)
	}
	return ids
}

func TestAppendAnswerIDIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	questionRepo := NewQuestionRepo(db, log)

	q := seedQuestion(t, questionRepo, "mirror target")
	first := uuid.New()
	second := uuid.New()

	for _, id := range []uuid.UUID{first, second, first} {
		if err := questionRepo.AppendAnswerID(context.Background(), nil, q.ID, id); err != nil {
			t.Fatalf("AppendAnswerID: %v", err)
		}
	}

	ids := readAnswerIDs(t, db, q.ID)
	if len(ids) != 2 || ids[0] != first.String() || ids[1] != second.String() {
		t.Fatalf("answer_ids: want=[%s %s] got=%v", first, second, ids)
	}
}

func TestAppendAnswerIDUnknownQuestionFails(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	questionRepo := NewQuestionRepo(db, log)

	err := questionRepo.AppendAnswerID(context.Background(), nil, uuid.New(), uuid.New())
	if err == nil {
		t.Fatalf("AppendAnswerID: expected error for missing question")
	}
}
