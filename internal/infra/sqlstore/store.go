package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
	"quiz-service/internal/domain"
	"quiz-service/internal/infra/sqlstore/migrations"
)

// Driver selects the SQL backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

const defaultSQLiteDSN = "file:quiz.db?mode=rwc&_pragma=busy_timeout(5000)"

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, driver Driver, dsn string) (*bun.DB, error) {
	var db *bun.DB
	switch driver {
	case DriverPostgres, "":
		if dsn == "" {
			return nil, fmt.Errorf("postgres url not configured")
		}
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		db = bun.NewDB(sqldb, pgdialect.New())
	case DriverSQLite:
		if dsn == "" {
			dsn = defaultSQLiteDSN
		}
		sqldb, err := sql.Open("sqlite", withForeignKeys(dsn))
		if err != nil {
			return nil, err
		}
		// SQLite allows a single writer; one connection keeps transactions serialized.
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// Migrate applies all pending schema migrations.
func Migrate(ctx context.Context, db *bun.DB) error {
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Store implements the quiz definition and attempt stores on top of bun.
type Store struct {
	db *bun.DB

	// afterAttemptInsert runs inside the RecordAttempt transaction between
	// the attempt row and its responses; tests use it to inject failures.
	afterAttemptInsert func(ctx context.Context, tx bun.Tx) error
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	row := newQuizRow(quiz)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

// ListQuizzes returns quiz headers, newest first. Questions are not loaded.
func (s *Store) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	var rows []quizRow
	if err := s.db.NewSelect().Model(&rows).Order("created_at DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	quizzes := make([]domain.Quiz, 0, len(rows))
	for _, r := range rows {
		quizzes = append(quizzes, r.toDomain())
	}
	return quizzes, nil
}

// GetQuiz loads a quiz with its ordered questions and options.
func (s *Store) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var row quizRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", quizID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.NotFound("quiz", quizID)
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}

	questions, err := loadQuestions(ctx, s.db, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz := row.toDomain()
	quiz.Questions = questions
	return quiz, nil
}

// LoadQuiz lets the store back the public quiz cache directly.
func (s *Store) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.GetQuiz(ctx, quizID)
}

func (s *Store) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	row := newQuizRow(quiz)
	res, err := s.db.NewUpdate().
		Model(&row).
		Column("title", "description", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	return expectAffected(res, "quiz", quiz.ID)
}

// DeleteQuiz removes the quiz and everything it owns in one transaction:
// responses, attempts, options, questions, then the quiz row itself.
func (s *Store) DeleteQuiz(ctx context.Context, quizID string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		attemptIDs := tx.NewSelect().Model((*attemptRow)(nil)).Column("id").Where("quiz_id = ?", quizID)
		questionIDs := tx.NewSelect().Model((*questionRow)(nil)).Column("id").Where("quiz_id = ?", quizID)

		if _, err := tx.NewDelete().Model((*responseRow)(nil)).Where("attempt_id IN (?)", attemptIDs).Exec(ctx); err != nil {
			return fmt.Errorf("delete responses: %w", err)
		}
		if _, err := tx.NewDelete().Model((*attemptRow)(nil)).Where("quiz_id = ?", quizID).Exec(ctx); err != nil {
			return fmt.Errorf("delete attempts: %w", err)
		}
		if _, err := tx.NewDelete().Model((*optionRow)(nil)).Where("question_id IN (?)", questionIDs).Exec(ctx); err != nil {
			return fmt.Errorf("delete options: %w", err)
		}
		if _, err := tx.NewDelete().Model((*questionRow)(nil)).Where("quiz_id = ?", quizID).Exec(ctx); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		res, err := tx.NewDelete().Model((*quizRow)(nil)).Where("id = ?", quizID).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete quiz: %w", err)
		}
		return expectAffected(res, "quiz", quizID)
	})
}

func (s *Store) ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	if err := quizExists(ctx, s.db, quizID); err != nil {
		return nil, err
	}
	return loadQuestions(ctx, s.db, quizID)
}

func (s *Store) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	var row questionRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", questionID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Question{}, domain.NotFound("question", questionID)
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("load question: %w", err)
	}

	var options []optionRow
	if err := s.db.NewSelect().
		Model(&options).
		Where("question_id = ?", questionID).
		Order("position ASC").
		Scan(ctx); err != nil {
		return domain.Question{}, fmt.Errorf("load options: %w", err)
	}
	return row.toDomain(options), nil
}

// CreateQuestion inserts the question and its options in one transaction.
func (s *Store) CreateQuestion(ctx context.Context, question domain.Question) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := quizExists(ctx, tx, question.QuizID); err != nil {
			return err
		}
		row := newQuestionRow(question)
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return duplicateOrder(question)
			}
			return fmt.Errorf("insert question: %w", err)
		}
		return insertOptions(ctx, tx, question)
	})
}

// UpdateQuestion rewrites the question and, if asked, replaces the whole
// option set: delete everything, then insert the new options.
func (s *Store) UpdateQuestion(ctx context.Context, question domain.Question, replaceOptions bool) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := newQuestionRow(question)
		res, err := tx.NewUpdate().
			Model(&row).
			Column("question_text", "question_type", "points", "position", "correct_answer_text", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			if isUniqueViolation(err) {
				return duplicateOrder(question)
			}
			return fmt.Errorf("update question: %w", err)
		}
		if err := expectAffected(res, "question", question.ID); err != nil {
			return err
		}
		if !replaceOptions {
			return nil
		}
		if _, err := tx.NewDelete().Model((*optionRow)(nil)).Where("question_id = ?", question.ID).Exec(ctx); err != nil {
			return fmt.Errorf("delete options: %w", err)
		}
		return insertOptions(ctx, tx, question)
	})
}

func (s *Store) DeleteQuestion(ctx context.Context, questionID string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*optionRow)(nil)).Where("question_id = ?", questionID).Exec(ctx); err != nil {
			return fmt.Errorf("delete options: %w", err)
		}
		res, err := tx.NewDelete().Model((*questionRow)(nil)).Where("id = ?", questionID).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete question: %w", err)
		}
		return expectAffected(res, "question", questionID)
	})
}

func insertOptions(ctx context.Context, db bun.IDB, question domain.Question) error {
	rows := newOptionRows(question)
	if len(rows) == 0 {
		return nil
	}
	if _, err := db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert options: %w", err)
	}
	return nil
}

func loadQuestions(ctx context.Context, db bun.IDB, quizID string) ([]domain.Question, error) {
	var rows []questionRow
	if err := db.NewSelect().
		Model(&rows).
		Where("quiz_id = ?", quizID).
		Order("position ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(rows) == 0 {
		return []domain.Question{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	var options []optionRow
	if err := db.NewSelect().
		Model(&options).
		Where("question_id IN (?)", bun.In(ids)).
		Order("question_id ASC", "position ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("load options: %w", err)
	}
	byQuestion := make(map[string][]optionRow, len(rows))
	for _, o := range options {
		byQuestion[o.QuestionID] = append(byQuestion[o.QuestionID], o)
	}

	questions := make([]domain.Question, 0, len(rows))
	for _, r := range rows {
		questions = append(questions, r.toDomain(byQuestion[r.ID]))
	}
	return questions, nil
}

func quizExists(ctx context.Context, db bun.IDB, quizID string) error {
	exists, err := db.NewSelect().Model((*quizRow)(nil)).Where("id = ?", quizID).Exists(ctx)
	if err != nil {
		return fmt.Errorf("check quiz: %w", err)
	}
	if !exists {
		return domain.NotFound("quiz", quizID)
	}
	return nil
}

func expectAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound(entity, id)
	}
	return nil
}

// isUniqueViolation reports a unique index conflict from either driver.
func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

// duplicateOrder reports a lost race on questions_quiz_position_uidx, where a
// concurrent write took the order after the sibling check passed.
func duplicateOrder(question domain.Question) error {
	return domain.Invalid(domain.ErrDuplicateQuestionOrder, "order %d is already used in quiz %s", question.Order, question.QuizID)
}
