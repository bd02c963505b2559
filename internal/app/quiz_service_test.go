package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"quiz-service/internal/app"
	"quiz-service/internal/domain"
	"quiz-service/internal/infra/memory"
	"quiz-service/internal/infra/sqlstore"
)

type fixture struct {
	store     *sqlstore.Store
	cache     *memory.QuizRepository
	feed      *memory.AttemptFeed
	authoring *app.AuthoringService
	quizzes   *app.QuizService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := sqlstore.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store := sqlstore.NewStore(db)
	cache := memory.NewQuizRepository(store, time.Minute)
	feed := memory.NewAttemptFeed()
	return &fixture{
		store:     store,
		cache:     cache,
		feed:      feed,
		authoring: app.NewAuthoringService(store, cache),
		quizzes:   app.NewQuizService(store, store, cache, feed),
	}
}

// seed builds a quiz with one question of each type, one point each.
func (f *fixture) seed(t *testing.T) (domain.Quiz, map[string]domain.Question) {
	t.Helper()
	ctx := context.Background()
	quiz, err := f.authoring.CreateQuiz(ctx, "General knowledge", "")
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	specs := map[string]domain.Question{
		"mcq": {
			Text: "2 + 2?", Type: domain.QuestionTypeMCQ, Order: 1,
			Options: []domain.Option{
				{Text: "3", Order: 1},
				{Text: "4", Correct: true, Order: 2},
				{Text: "5", Order: 3},
			},
		},
		"tf": {
			Text: "Water is wet.", Type: domain.QuestionTypeTrueFalse, Order: 2,
			Options: []domain.Option{
				{Text: "True", Correct: true, Order: 1},
				{Text: "False", Order: 2},
			},
		},
		"text": {
			Text: "Capital of France?", Type: domain.QuestionTypeText, Order: 3,
			CorrectAnswerText: "Paris",
		},
	}
	created := make(map[string]domain.Question, len(specs))
	for key, spec := range specs {
		q, err := f.authoring.ValidateAndCreateQuestion(ctx, quiz.ID, spec)
		if err != nil {
			t.Fatalf("create %s question: %v", key, err)
		}
		created[key] = q
	}
	return quiz, created
}

func optionID(t *testing.T, q domain.Question, correct bool) string {
	t.Helper()
	for _, o := range q.Options {
		if o.Correct == correct {
			return o.ID
		}
	}
	t.Fatalf("question %s has no option with correct=%v", q.ID, correct)
	return ""
}

func TestSubmitAllCorrectAndAllWrong(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz, qs := f.seed(t)

	right := []domain.Answer{
		{QuestionID: qs["mcq"].ID, SelectedOptionID: optionID(t, qs["mcq"], true)},
		{QuestionID: qs["tf"].ID, SelectedOptionID: optionID(t, qs["tf"], true)},
		{QuestionID: qs["text"].ID, TextResponse: " paris "},
	}
	res, err := f.quizzes.Submit(ctx, quiz.ID, "alice", right)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Scored.Score != 3 || res.Scored.TotalPoints != 3 || res.Scored.Percentage.StringFixed(2) != "100.00" {
		t.Fatalf("expected 3/3 100.00, got %d/%d %s", res.Scored.Score, res.Scored.TotalPoints, res.Scored.Percentage.StringFixed(2))
	}

	wrong := []domain.Answer{
		{QuestionID: qs["text"].ID, TextResponse: "Lyon"},
		{QuestionID: qs["mcq"].ID, SelectedOptionID: optionID(t, qs["mcq"], false)},
		{QuestionID: qs["tf"].ID, SelectedOptionID: optionID(t, qs["tf"], false)},
	}
	res, err = f.quizzes.Submit(ctx, quiz.ID, "", wrong)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Scored.Score != 0 || res.Scored.Percentage.StringFixed(2) != "0.00" {
		t.Fatalf("expected 0 0.00, got %d %s", res.Scored.Score, res.Scored.Percentage.StringFixed(2))
	}

	stored, err := f.quizzes.GetAttempt(ctx, res.AttemptID)
	if err != nil {
		t.Fatalf("get attempt: %v", err)
	}
	if len(stored.Responses) != 3 || stored.Responses[0].QuestionID != qs["text"].ID {
		t.Fatalf("responses must be stored in submission order, got %+v", stored.Responses)
	}

	attempts, err := f.quizzes.ListAttempts(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("list attempts: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(attempts))
	}
}

func TestSubmitRejectsBadAnswerSets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz, qs := f.seed(t)

	_, err := f.quizzes.Submit(ctx, quiz.ID, "", []domain.Answer{{QuestionID: qs["mcq"].ID}})
	if !errors.Is(err, domain.ErrAnswerCountMismatch) {
		t.Fatalf("expected count mismatch, got %v", err)
	}

	_, err = f.quizzes.Submit(ctx, quiz.ID, "", []domain.Answer{
		{QuestionID: qs["mcq"].ID},
		{QuestionID: qs["mcq"].ID},
		{QuestionID: qs["text"].ID},
	})
	if !errors.Is(err, domain.ErrAnswerSetMismatch) {
		t.Fatalf("expected set mismatch, got %v", err)
	}

	_, err = f.quizzes.Submit(ctx, "missing", "", nil)
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}

	attempts, err := f.quizzes.ListAttempts(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("list attempts: %v", err)
	}
	if len(attempts) != 0 {
		t.Fatalf("rejected submissions must not be recorded, got %d", len(attempts))
	}
}

func TestSubmitPublishesAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz, qs := f.seed(t)

	ch, cancel, err := f.quizzes.Subscribe(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	res, err := f.quizzes.Submit(ctx, quiz.ID, "bob", []domain.Answer{
		{QuestionID: qs["mcq"].ID, SelectedOptionID: optionID(t, qs["mcq"], true)},
		{QuestionID: qs["tf"].ID, SelectedOptionID: optionID(t, qs["tf"], false)},
		{QuestionID: qs["text"].ID, TextResponse: ""},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.AttemptID != res.AttemptID || ev.UserName != "bob" || ev.Percentage.StringFixed(2) != "33.33" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for attempt event")
	}

	if _, _, err := f.quizzes.Subscribe(ctx, "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found for unknown quiz, got %v", err)
	}
}

func TestScoringUsesCurrentAnswerKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz, qs := f.seed(t)

	// Warm the public cache, then change the answer key.
	if _, err := f.quizzes.GetPublicQuiz(ctx, quiz.ID); err != nil {
		t.Fatalf("public quiz: %v", err)
	}
	answer := "Lyon"
	if _, err := f.authoring.ValidateAndUpdateQuestion(ctx, qs["text"].ID, domain.QuestionPatch{CorrectAnswerText: &answer}); err != nil {
		t.Fatalf("update question: %v", err)
	}

	res, err := f.quizzes.Submit(ctx, quiz.ID, "", []domain.Answer{
		{QuestionID: qs["mcq"].ID, SelectedOptionID: optionID(t, qs["mcq"], false)},
		{QuestionID: qs["tf"].ID, SelectedOptionID: optionID(t, qs["tf"], false)},
		{QuestionID: qs["text"].ID, TextResponse: "lyon"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Scored.Score != 1 {
		t.Fatalf("expected the new answer key to be used, got score %d", res.Scored.Score)
	}
}

func TestPublicQuizHidesAnswersAndSeesUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz, qs := f.seed(t)

	public, err := f.quizzes.GetPublicQuiz(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("public quiz: %v", err)
	}
	if len(public.Questions) != 3 || public.Questions[0].Type != domain.QuestionTypeMCQ {
		t.Fatalf("expected ordered questions, got %+v", public.Questions)
	}

	text := "What is 2 + 3?"
	if _, err := f.authoring.ValidateAndUpdateQuestion(ctx, qs["mcq"].ID, domain.QuestionPatch{Text: &text}); err != nil {
		t.Fatalf("update question: %v", err)
	}
	public, err = f.quizzes.GetPublicQuiz(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("public quiz: %v", err)
	}
	if public.Questions[0].Text != text {
		t.Fatalf("expected cache invalidated after edit, got %q", public.Questions[0].Text)
	}
}

func TestCreateQuestionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz, _ := f.seed(t)

	cases := []struct {
		name string
		spec domain.Question
		want error
	}{
		{
			name: "single option",
			spec: domain.Question{Text: "x", Type: domain.QuestionTypeMCQ, Order: 10, Options: []domain.Option{{Text: "a", Correct: true, Order: 1}}},
			want: domain.ErrInsufficientOptions,
		},
		{
			name: "two correct",
			spec: domain.Question{Text: "x", Type: domain.QuestionTypeTrueFalse, Order: 10, Options: []domain.Option{
				{Text: "True", Correct: true, Order: 1}, {Text: "False", Correct: true, Order: 2},
			}},
			want: domain.ErrAmbiguousCorrectAnswer,
		},
		{
			name: "blank text answer",
			spec: domain.Question{Text: "x", Type: domain.QuestionTypeText, Order: 10, CorrectAnswerText: "  "},
			want: domain.ErrMissingCorrectAnswer,
		},
		{
			name: "taken order",
			spec: domain.Question{Text: "x", Type: domain.QuestionTypeText, Order: 1, CorrectAnswerText: "y"},
			want: domain.ErrDuplicateQuestionOrder,
		},
	}
	for _, tc := range cases {
		if _, err := f.authoring.ValidateAndCreateQuestion(ctx, quiz.ID, tc.spec); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	questions, err := f.store.ListQuestions(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("rejected questions must not be stored, got %d", len(questions))
	}

	_, err = f.authoring.ValidateAndCreateQuestion(ctx, "missing", domain.Question{Text: "x", Type: domain.QuestionTypeText, CorrectAnswerText: "y"})
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

func TestCreateQuestionDefaultsPoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz, err := f.authoring.CreateQuiz(ctx, "Defaults", "")
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	q, err := f.authoring.ValidateAndCreateQuestion(ctx, quiz.ID, domain.Question{
		Text: "x", Type: domain.QuestionTypeText, CorrectAnswerText: "y",
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	if q.Points != 1 {
		t.Fatalf("expected default of 1 point, got %d", q.Points)
	}
}

func TestUpdateQuestionValidatesEffectiveResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, qs := f.seed(t)

	// Dropping to one option leaves an invalid MCQ.
	_, err := f.authoring.ValidateAndUpdateQuestion(ctx, qs["mcq"].ID, domain.QuestionPatch{
		Options: []domain.Option{{Text: "4", Correct: true, Order: 1}},
	})
	if !errors.Is(err, domain.ErrInsufficientOptions) {
		t.Fatalf("expected insufficient options, got %v", err)
	}
	stored, err := f.store.GetQuestion(ctx, qs["mcq"].ID)
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	if len(stored.Options) != 3 {
		t.Fatalf("rejected update must leave options untouched, got %d", len(stored.Options))
	}

	zero := 0
	if _, err := f.authoring.ValidateAndUpdateQuestion(ctx, qs["mcq"].ID, domain.QuestionPatch{Points: &zero}); !errors.Is(err, domain.ErrInvalidPoints) {
		t.Fatalf("expected invalid points, got %v", err)
	}

	// Switching to TEXT without an answer is rejected; with one it drops options.
	textType := domain.QuestionTypeText
	if _, err := f.authoring.ValidateAndUpdateQuestion(ctx, qs["mcq"].ID, domain.QuestionPatch{Type: &textType}); !errors.Is(err, domain.ErrMissingCorrectAnswer) {
		t.Fatalf("expected missing correct answer, got %v", err)
	}
	answer := "4"
	updated, err := f.authoring.ValidateAndUpdateQuestion(ctx, qs["mcq"].ID, domain.QuestionPatch{Type: &textType, CorrectAnswerText: &answer})
	if err != nil {
		t.Fatalf("switch to text: %v", err)
	}
	if len(updated.Options) != 0 {
		t.Fatalf("text question must not keep options, got %d", len(updated.Options))
	}
	stored, err = f.store.GetQuestion(ctx, qs["mcq"].ID)
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	if stored.Type != domain.QuestionTypeText || len(stored.Options) != 0 {
		t.Fatalf("expected stored text question without options, got %+v", stored)
	}

	order := qs["tf"].Order
	if _, err := f.authoring.ValidateAndUpdateQuestion(ctx, qs["text"].ID, domain.QuestionPatch{Order: &order}); !errors.Is(err, domain.ErrDuplicateQuestionOrder) {
		t.Fatalf("expected duplicate order, got %v", err)
	}

	if _, err := f.authoring.ValidateAndUpdateQuestion(ctx, "missing", domain.QuestionPatch{}); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
}

func TestQuizLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz, qs := f.seed(t)

	if _, err := f.authoring.CreateQuiz(ctx, "   ", ""); !errors.Is(err, domain.ErrInvalidTitle) {
		t.Fatalf("expected invalid title, got %v", err)
	}

	title := "Renamed"
	updated, err := f.authoring.UpdateQuiz(ctx, quiz.ID, domain.QuizPatch{Title: &title})
	if err != nil {
		t.Fatalf("update quiz: %v", err)
	}
	if updated.Title != title || len(updated.Questions) != 3 {
		t.Fatalf("unexpected updated quiz %+v", updated)
	}

	if err := f.authoring.DeleteQuestion(ctx, qs["tf"].ID); err != nil {
		t.Fatalf("delete question: %v", err)
	}
	full, err := f.authoring.GetQuiz(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(full.Questions) != 2 {
		t.Fatalf("expected 2 questions after delete, got %d", len(full.Questions))
	}

	if err := f.authoring.DeleteQuiz(ctx, quiz.ID); err != nil {
		t.Fatalf("delete quiz: %v", err)
	}
	if _, err := f.quizzes.GetPublicQuiz(ctx, quiz.ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected deleted quiz gone from public view, got %v", err)
	}
}
