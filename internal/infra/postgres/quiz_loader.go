package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"quiz-service/internal/domain"
)

// QuizLoader reads whole quiz definitions from Postgres for the public cache.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

const (
	selectQuiz = `SELECT id, title, COALESCE(description, ''), created_at, updated_at
		FROM quizzes WHERE id = $1`
	selectQuestions = `SELECT id, quiz_id, question_text, question_type, points, position,
		COALESCE(correct_answer_text, ''), created_at, updated_at
		FROM questions WHERE quiz_id = $1 ORDER BY position`
	selectOptions = `SELECT o.id, o.question_id, o.option_text, o.is_correct, o.position
		FROM question_options o
		JOIN questions q ON q.id = o.question_id
		WHERE q.quiz_id = $1
		ORDER BY q.position, o.position`
)

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := l.pool.QueryRow(ctx, selectQuiz, quizID).
		Scan(&quiz.ID, &quiz.Title, &quiz.Description, &quiz.CreatedAt, &quiz.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.NotFound("quiz", quizID)
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}

	questions, err := l.loadQuestions(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	options, err := l.loadOptions(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	for i := range questions {
		questions[i].Options = append([]domain.Option{}, options[questions[i].ID]...)
	}
	quiz.Questions = questions
	return quiz, nil
}

func (l *QuizLoader) loadQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, selectQuestions, quizID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	questions := []domain.Question{}
	for rows.Next() {
		var (
			q     domain.Question
			qType string
		)
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &qType, &q.Points, &q.Order,
			&q.CorrectAnswerText, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Type = domain.QuestionType(qType)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return questions, nil
}

func (l *QuizLoader) loadOptions(ctx context.Context, quizID string) (map[string][]domain.Option, error) {
	rows, err := l.pool.Query(ctx, selectOptions, quizID)
	if err != nil {
		return nil, fmt.Errorf("load options: %w", err)
	}
	defer rows.Close()

	options := make(map[string][]domain.Option)
	for rows.Next() {
		var o domain.Option
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.Correct, &o.Order); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		options[o.QuestionID] = append(options[o.QuestionID], o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load options: %w", err)
	}
	return options, nil
}
