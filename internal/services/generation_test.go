package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/paceline/paceline-backend/internal/genai"
	"github.com/paceline/paceline-backend/internal/logger"
	"github.com/paceline/paceline-backend/internal/repos"
	"github.com/paceline/paceline-backend/internal/types"
)

type stubClient struct {
	responses []string
	err       error
	calls     int
}

func (c *stubClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	idx := c.calls
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	if idx < len(c.responses) {
		return c.responses[idx], nil
	}
	return "", fmt.Errorf("%w: no canned response left", genai.ErrGenerationFailed)
}

func (c *stubClient) Model() string {
	return "test-model"
}

type fakeQuestionRepo struct {
	created           []*types.Question
	createErr         error
	withoutAITargets  []*types.Question
	unansweredTargets []*types.Question
	withoutAICalls    int
	unansweredCalls   int
	appendedLinks     map[uuid.UUID][]uuid.UUID
	appendErr         error
}

func newFakeQuestionRepo() *fakeQuestionRepo {
	return &fakeQuestionRepo{appendedLinks: make(map[uuid.UUID][]uuid.UUID)}
}

func (r *fakeQuestionRepo) Create(ctx context.Context, tx *gorm.DB, questions []*types.Question) ([]*types.Question, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.created = append(r.created, questions...)
	return questions, nil
}

func (r *fakeQuestionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.Question, error) {
	return nil, nil
}

func (r *fakeQuestionRepo) GetWithAnswers(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) (*types.Question, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeQuestionRepo) List(ctx context.Context, tx *gorm.DB, filter repos.QuestionListFilter) ([]*types.Question, int64, error) {
	return nil, 0, nil
}

func (r *fakeQuestionRepo) Update(ctx context.Context, tx *gorm.DB, question *types.Question) error {
	return nil
}

func (r *fakeQuestionRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) error {
	return nil
}

func (r *fakeQuestionRepo) AppendAnswerID(ctx context.Context, tx *gorm.DB, questionID, answerID uuid.UUID) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.appendedLinks[questionID] = append(r.appendedLinks[questionID], answerID)
	return nil
}

func (r *fakeQuestionRepo) SetBestAnswerID(ctx context.Context, tx *gorm.DB, questionID uuid.UUID, answerID *uuid.UUID) error {
	return nil
}

func (r *fakeQuestionRepo) IncrementViews(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) error {
	return nil
}

func (r *fakeQuestionRepo) SelectUnanswered(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Question, error) {
	r.unansweredCalls++
	if limit < len(r.unansweredTargets) {
		return r.unansweredTargets[:limit], nil
	}
	return r.unansweredTargets, nil
}

func (r *fakeQuestionRepo) SelectWithoutAIAnswer(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Question, error) {
	r.withoutAICalls++
	if limit < len(r.withoutAITargets) {
		return r.withoutAITargets[:limit], nil
	}
	return r.withoutAITargets, nil
}

type fakeAnswerRepo struct {
	created   []*types.Answer
	createErr error
}

func (r *fakeAnswerRepo) Create(ctx context.Context, tx *gorm.DB, answers []*types.Answer) ([]*types.Answer, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.created = append(r.created, answers...)
	return answers, nil
}

func (r *fakeAnswerRepo) GetByIDs(ctx context.Context, tx *gorm.DB, answerIDs []uuid.UUID) ([]*types.Answer, error) {
	return nil, nil
}

func (r *fakeAnswerRepo) GetByQuestionIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.Answer, error) {
	return nil, nil
}

func (r *fakeAnswerRepo) Update(ctx context.Context, tx *gorm.DB, answer *types.Answer) error {
	return nil
}

func (r *fakeAnswerRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, answerIDs []uuid.UUID) error {
	return nil
}

func (r *fakeAnswerRepo) ClearBestAnswer(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) error {
	return nil
}

func (r *fakeAnswerRepo) MarkBestAnswer(ctx context.Context, tx *gorm.DB, answerID uuid.UUID) error {
	return nil
}

type fakeAICallLogRepo struct {
	entries []*types.AICallLog
}

func (r *fakeAICallLogRepo) Create(ctx context.Context, tx *gorm.DB, logs []*types.AICallLog) ([]*types.AICallLog, error) {
	r.entries = append(r.entries, logs...)
	return logs, nil
}

type recordedNotification struct {
	userID           uuid.UUID
	notificationType string
}

type fakeNotificationService struct {
	sent []recordedNotification
}

func (n *fakeNotificationService) Notify(ctx context.Context, userID uuid.UUID, notificationType, message string, questionID, answerID *uuid.UUID) {
	n.sent = append(n.sent, recordedNotification{userID: userID, notificationType: notificationType})
}

func (n *fakeNotificationService) List(ctx context.Context, page, limit int) ([]*types.Notification, error) {
	return nil, nil
}

func (n *fakeNotificationService) UnreadCount(ctx context.Context) (int64, error) {
	return 0, nil
}

func (n *fakeNotificationService) MarkRead(ctx context.Context, notificationIDs []uuid.UUID) error {
	return nil
}

func (n *fakeNotificationService) MarkAllRead(ctx context.Context) error {
	return nil
}

type generationFixture struct {
	service       GenerationService
	client        *stubClient
	questionRepo  *fakeQuestionRepo
	answerRepo    *fakeAnswerRepo
	aiCallLogRepo *fakeAICallLogRepo
	notifications *fakeNotificationService
}

func newGenerationFixture(t *testing.T, client *stubClient) *generationFixture {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	f := &generationFixture{
		client:        client,
		questionRepo:  newFakeQuestionRepo(),
		answerRepo:    &fakeAnswerRepo{},
		aiCallLogRepo: &fakeAICallLogRepo{},
		notifications: &fakeNotificationService{},
	}
	f.service = NewGenerationService(nil, log, client, f.questionRepo, f.answerRepo, f.aiCallLogRepo, f.notifications)
	return f
}

func TestGenerateQuestionsBatchRejectsBadCount(t *testing.T) {
	for _, count := range []int{0, -1, 11, 100} {
		f := newGenerationFixture(t, &stubClient{})
		_, err := f.service.GenerateQuestionsBatch(context.Background(), count)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("count=%d: want ErrInvalidArgument got %v", count, err)
		}
		if f.client.calls != 0 {
			t.Fatalf("count=%d: provider called %d times before validation", count, f.client.calls)
		}
		if len(f.questionRepo.created) != 0 {
			t.Fatalf("count=%d: questions persisted despite invalid count", count)
		}
	}
}

func TestGenerateQuestionsBatchAllFailuresIsNotAnError(t *testing.T) {
	f := newGenerationFixture(t, &stubClient{err: fmt.Errorf("%w: quota exhausted", genai.ErrGenerationFailed)})
	result, err := f.service.GenerateQuestionsBatch(context.Background(), 3)
	if err != nil {
		t.Fatalf("GenerateQuestionsBatch: %v", err)
	}
	if result.SucceededCount() != 0 {
		t.Fatalf("succeeded: want=0 got=%d", result.SucceededCount())
	}
	if len(result.Failures) != 3 {
		t.Fatalf("failures: want=3 got=%d", len(result.Failures))
	}
	if len(f.aiCallLogRepo.entries) != 3 {
		t.Fatalf("call log entries: want=3 got=%d", len(f.aiCallLogRepo.entries))
	}
	for _, entry := range f.aiCallLogRepo.entries {
		if entry.Success {
			t.Fatalf("call log entry marked success for a failed call")
		}
		if entry.Error == "" {
			t.Fatalf("call log entry missing error for a failed call")
		}
	}
}

func TestGenerateQuestionsBatchAccumulatesPerItemFailures(t *testing.T) {
	f := newGenerationFixture(t, &stubClient{responses: []string{
		`{"title":"Tapering","content":"How long should I taper before race day?"}`,
		"no structure here at all",
		`{"title":"Fueling","content":"Gels or real food on long runs?"}`,
	}})
	result, err := f.service.GenerateQuestionsBatch(context.Background(), 3)
	if err != nil {
		t.Fatalf("GenerateQuestionsBatch: %v", err)
	}
	if len(result.Questions) != 2 {
		t.Fatalf("questions: want=2 got=%d", len(result.Questions))
	}
	if len(result.Failures) != 1 {
		t.Fatalf("failures: want=1 got=%d", len(result.Failures))
	}
	if result.Failures[0].Stage != "parse" {
		t.Fatalf("failure stage: want=parse got=%q", result.Failures[0].Stage)
	}
	if len(f.questionRepo.created) != 2 {
		t.Fatalf("persisted questions: want=2 got=%d", len(f.questionRepo.created))
	}
	for _, q := range f.questionRepo.created {
		if !q.IsAIGenerated {
			t.Fatalf("persisted question not flagged as AI generated")
		}
		if q.AIPersonality == nil || *q.AIPersonality == "" {
			t.Fatalf("persisted question missing personality")
		}
	}
	if len(f.aiCallLogRepo.entries) != 3 {
		t.Fatalf("call log entries: want=3 got=%d", len(f.aiCallLogRepo.entries))
	}
}

func TestGenerateAnswersBatchEmptyPoolIsEmptySuccess(t *testing.T) {
	f := newGenerationFixture(t, &stubClient{})
	result, err := f.service.GenerateAnswersBatch(context.Background(), 5, "")
	if err != nil {
		t.Fatalf("GenerateAnswersBatch: %v", err)
	}
	if result.EligibleTargets != 0 {
		t.Fatalf("eligible targets: want=0 got=%d", result.EligibleTargets)
	}
	if result.SucceededCount() != 0 || len(result.Failures) != 0 {
		t.Fatalf("empty pool produced work: %+v", result)
	}
	if f.client.calls != 0 {
		t.Fatalf("provider called with no targets")
	}
}

func TestGenerateAnswersBatchRejectsUnknownMode(t *testing.T) {
	f := newGenerationFixture(t, &stubClient{})
	_, err := f.service.GenerateAnswersBatch(context.Background(), 2, "everything")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument got %v", err)
	}
}

func TestGenerateAnswersBatchModeSelectsTargetVariant(t *testing.T) {
	f := newGenerationFixture(t, &stubClient{})
	if _, err := f.service.GenerateAnswersBatch(context.Background(), 1, AnswerTargetModeUnanswered); err != nil {
		t.Fatalf("GenerateAnswersBatch: %v", err)
	}
	if f.questionRepo.unansweredCalls != 1 || f.questionRepo.withoutAICalls != 0 {
		t.Fatalf("mode=unanswered: unanswered=%d withoutAI=%d", f.questionRepo.unansweredCalls, f.questionRepo.withoutAICalls)
	}

	f = newGenerationFixture(t, &stubClient{})
	if _, err := f.service.GenerateAnswersBatch(context.Background(), 1, ""); err != nil {
		t.Fatalf("GenerateAnswersBatch: %v", err)
	}
	if f.questionRepo.withoutAICalls != 1 || f.questionRepo.unansweredCalls != 0 {
		t.Fatalf("default mode: unanswered=%d withoutAI=%d", f.questionRepo.unansweredCalls, f.questionRepo.withoutAICalls)
	}
}

func TestGenerateAnswersBatchWritesAnswersAndNotifies(t *testing.T) {
	authorID := uuid.New()
	target := &types.Question{
		ID:       uuid.New(),
		Title:    "First marathon pacing",
		Content:  "How do I pick a goal pace for my first marathon?",
		AuthorID: &authorID,
	}
	f := newGenerationFixture(t, &stubClient{responses: []string{
		"Start conservative: run the first half at a pace you could hold in conversation.",
	}})
	f.questionRepo.withoutAITargets = []*types.Question{target}

	result, err := f.service.GenerateAnswersBatch(context.Background(), 3, "")
	if err != nil {
		t.Fatalf("GenerateAnswersBatch: %v", err)
	}
	if result.EligibleTargets != 1 {
		t.Fatalf("eligible targets: want=1 got=%d", result.EligibleTargets)
	}
	if len(result.Answers) != 1 {
		t.Fatalf("answers: want=1 got=%d", len(result.Answers))
	}
	answer := result.Answers[0]
	if answer.QuestionID != target.ID {
		t.Fatalf("answer question id: want=%s got=%s", target.ID, answer.QuestionID)
	}
	if !answer.IsAIGenerated || answer.AIPersonality == nil {
		t.Fatalf("answer missing AI provenance: %+v", answer)
	}
	if got := f.questionRepo.appendedLinks[target.ID]; len(got) != 1 || got[0] != answer.ID {
		t.Fatalf("answer link not appended: %v", got)
	}
	if len(f.notifications.sent) != 1 {
		t.Fatalf("notifications: want=1 got=%d", len(f.notifications.sent))
	}
	if f.notifications.sent[0].userID != authorID || f.notifications.sent[0].notificationType != types.NotificationTypeNewAnswer {
		t.Fatalf("notification misrouted: %+v", f.notifications.sent[0])
	}
	if len(f.aiCallLogRepo.entries) != 1 {
		t.Fatalf("call log entries: want=1 got=%d", len(f.aiCallLogRepo.entries))
	}
	entry := f.aiCallLogRepo.entries[0]
	if entry.CallType != types.AICallTypeAnswer || entry.QuestionID == nil || *entry.QuestionID != target.ID {
		t.Fatalf("call log entry wrong: %+v", entry)
	}
}

func TestGenerateAnswersBatchLinkFailureStillSucceeds(t *testing.T) {
	target := &types.Question{
		ID:      uuid.New(),
		Title:   "Hitting the wall",
		Content: "I bonked at 32k, what went wrong?",
	}
	f := newGenerationFixture(t, &stubClient{responses: []string{
		"You most likely under-fueled; aim for 60g of carbs per hour next time.",
	}})
	f.questionRepo.withoutAITargets = []*types.Question{target}
	f.questionRepo.appendErr = errors.New("mirror update lost")

	result, err := f.service.GenerateAnswersBatch(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("GenerateAnswersBatch: %v", err)
	}
	if len(result.Answers) != 1 || len(result.Failures) != 0 {
		t.Fatalf("link failure must not fail the item: %+v", result)
	}
	if len(f.answerRepo.created) != 1 {
		t.Fatalf("answer row missing after link failure")
	}
}
