package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/paceline/paceline-backend/internal/logger"
	"github.com/paceline/paceline-backend/internal/repos"
	"github.com/paceline/paceline-backend/internal/types"
)

var repairTestSchema = []string{
	`CREATE TABLE user (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		email TEXT NOT NULL,
		password TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		bio TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE tag (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE question_tags (
		question_id TEXT NOT NULL,
		tag_id TEXT NOT NULL
	)`,
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

type repairFixture struct {
	db           *gorm.DB
	questionRepo repos.QuestionRepo
	answerRepo   repos.AnswerRepo
	service      RepairService
}

func newRepairFixture(t *testing.T) *repairFixture {
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
	for _, stmt := range repairTestSchema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	f := &repairFixture{
		db:           db,
		questionRepo: repos.NewQuestionRepo(db, log),
		answerRepo:   repos.NewAnswerRepo(db, log),
	}
	f.service = NewRepairService(db, log, f.questionRepo, f.answerRepo)
	return f
}

func (f *repairFixture) seedQuestion(t *testing.T, title string) *types.Question {
	t.Helper()
	q := &types.Question{ID: uuid.New(), Title: title, Content: "body"}
	if _, err := f.questionRepo.Create(context.Background(), nil, []*types.Question{q}); err != nil {
		t.Fatalf("seed question: %v", err)
	}
	return q
}

// seedOrphanAnswer inserts an answer row without touching the question's
// answer_ids mirror, simulating a link-back that was lost mid-flight.
func (f *repairFixture) seedOrphanAnswer(t *testing.T, questionID uuid.UUID, aiGenerated bool) *types.Answer {
	t.Helper()
	a := &types.Answer{
		ID:            uuid.New(),
		Content:       "an answer",
		QuestionID:    questionID,
		IsAIGenerated: aiGenerated,
	}
	if _, err := f.answerRepo.Create(context.Background(), nil, []*types.Answer{a}); err != nil {
		t.Fatalf("seed answer: %v", err)
	}
	return a
}

func (f *repairFixture) mirrorIDs(t *testing.T, questionID uuid.UUID) []string {
	t.Helper()
	var q types.Question
	if err := f.db.Select("id", "answer_ids").Where("id = ?", questionID).First(&q).Error; err != nil {
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

func TestOrphanAnswerIsStillReadable(t *testing.T) {
	f := newRepairFixture(t)
	q := f.seedQuestion(t, "orphaned link")
	orphan := f.seedOrphanAnswer(t, q.ID, true)

	loaded, err := f.questionRepo.GetWithAnswers(context.Background(), nil, q.ID)
	if err != nil {
		t.Fatalf("GetWithAnswers: %v", err)
	}
	if len(loaded.Answers) != 1 {
		t.Fatalf("answers: want=1 got=%d", len(loaded.Answers))
	}
	if loaded.Answers[0].ID != orphan.ID || !loaded.Answers[0].IsAIGenerated {
		t.Fatalf("orphan answer not served intact: %+v", loaded.Answers[0])
	}
	if ids := f.mirrorIDs(t, q.ID); len(ids) != 0 {
		t.Fatalf("mirror should still be empty before repair, got %v", ids)
	}
}

func TestReconcileAnswerLinksRepairsOrphans(t *testing.T) {
	f := newRepairFixture(t)
	ctx := context.Background()

	linked := f.seedQuestion(t, "already linked")
	linkedAnswer := f.seedOrphanAnswer(t, linked.ID, false)
	if err := f.questionRepo.AppendAnswerID(ctx, nil, linked.ID, linkedAnswer.ID); err != nil {
		t.Fatalf("AppendAnswerID: %v", err)
	}

	broken := f.seedQuestion(t, "lost its link")
	orphanA := f.seedOrphanAnswer(t, broken.ID, true)
	orphanB := f.seedOrphanAnswer(t, broken.ID, false)

	empty := f.seedQuestion(t, "no answers at all")

	result, err := f.service.ReconcileAnswerLinks(ctx)
	if err != nil {
		t.Fatalf("ReconcileAnswerLinks: %v", err)
	}
	if result.QuestionsScanned != 3 {
		t.Fatalf("scanned: want=3 got=%d", result.QuestionsScanned)
	}
	if result.LinksRepaired != 2 {
		t.Fatalf("repaired: want=2 got=%d", result.LinksRepaired)
	}

	ids := f.mirrorIDs(t, broken.ID)
	if len(ids) != 2 {
		t.Fatalf("mirror after repair: want=2 ids got=%v", ids)
	}
	got := map[string]bool{ids[0]: true, ids[1]: true}
	if !got[orphanA.ID.String()] || !got[orphanB.ID.String()] {
		t.Fatalf("mirror after repair missing orphan ids: %v", ids)
	}
	if ids := f.mirrorIDs(t, linked.ID); len(ids) != 1 {
		t.Fatalf("already linked question changed: %v", ids)
	}
	if ids := f.mirrorIDs(t, empty.ID); len(ids) != 0 {
		t.Fatalf("empty question gained links: %v", ids)
	}
}

func TestReconcileAnswerLinksIsIdempotent(t *testing.T) {
	f := newRepairFixture(t)
	ctx := context.Background()

	q := f.seedQuestion(t, "repair me")
	f.seedOrphanAnswer(t, q.ID, true)

	first, err := f.service.ReconcileAnswerLinks(ctx)
	if err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	if first.LinksRepaired != 1 {
		t.Fatalf("first repaired: want=1 got=%d", first.LinksRepaired)
	}

	second, err := f.service.ReconcileAnswerLinks(ctx)
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if second.LinksRepaired != 0 {
		t.Fatalf("second repaired: want=0 got=%d", second.LinksRepaired)
	}
}
