package migrations

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var Migrations = migrate.NewMigrations()

// Table shapes as of this migration. They are frozen here so later model
// changes do not rewrite history.
type quiz struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID          string    `bun:"id,pk,type:varchar(36)"`
	Title       string    `bun:"title,notnull,type:varchar(255)"`
	Description string    `bun:"description,type:text"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

type question struct {
	bun.BaseModel `bun:"table:questions"`

	ID                string    `bun:"id,pk,type:varchar(36)"`
	QuizID            string    `bun:"quiz_id,notnull,type:varchar(36)"`
	Text              string    `bun:"question_text,notnull,type:text"`
	Type              string    `bun:"question_type,notnull,type:varchar(16)"`
	Points            int       `bun:"points,notnull,default:1"`
	Position          int       `bun:"position,notnull"`
	CorrectAnswerText string    `bun:"correct_answer_text,type:text"`
	CreatedAt         time.Time `bun:"created_at,notnull"`
	UpdatedAt         time.Time `bun:"updated_at,notnull"`
}

type questionOption struct {
	bun.BaseModel `bun:"table:question_options"`

	ID         string `bun:"id,pk,type:varchar(36)"`
	QuestionID string `bun:"question_id,notnull,type:varchar(36)"`
	Text       string `bun:"option_text,notnull,type:text"`
	Correct    bool   `bun:"is_correct,notnull,default:false"`
	Position   int    `bun:"position,notnull"`
}

type quizAttempt struct {
	bun.BaseModel `bun:"table:quiz_attempts"`

	ID          string    `bun:"id,pk,type:varchar(36)"`
	QuizID      string    `bun:"quiz_id,notnull,type:varchar(36)"`
	UserName    string    `bun:"user_name,type:varchar(255)"`
	Score       int       `bun:"score,notnull"`
	TotalPoints int       `bun:"total_points,notnull"`
	Percentage  string    `bun:"percentage,notnull,type:numeric(5,2)"`
	SubmittedAt time.Time `bun:"submitted_at,notnull"`
}

type quizResponse struct {
	bun.BaseModel `bun:"table:quiz_responses"`

	ID               string `bun:"id,pk,type:varchar(36)"`
	AttemptID        string `bun:"attempt_id,notnull,type:varchar(36)"`
	QuestionID       string `bun:"question_id,notnull,type:varchar(36)"`
	SelectedOptionID string `bun:"selected_option_id,type:varchar(36)"`
	TextResponse     string `bun:"text_response,type:text"`
	Correct          bool   `bun:"is_correct,notnull"`
	PointsEarned     int    `bun:"points_earned,notnull"`
	Position         int    `bun:"position,notnull"`
}

type table struct {
	model      any
	foreignKey string
}

type index struct {
	model   any
	name    string
	unique  bool
	columns []string
}

func init() {
	tables := []table{
		{model: (*quiz)(nil)},
		{model: (*question)(nil), foreignKey: `("quiz_id") REFERENCES "quizzes" ("id") ON DELETE CASCADE`},
		{model: (*questionOption)(nil), foreignKey: `("question_id") REFERENCES "questions" ("id") ON DELETE CASCADE`},
		{model: (*quizAttempt)(nil), foreignKey: `("quiz_id") REFERENCES "quizzes" ("id") ON DELETE CASCADE`},
		{model: (*quizResponse)(nil), foreignKey: `("attempt_id") REFERENCES "quiz_attempts" ("id") ON DELETE CASCADE`},
	}
	indexes := []index{
		{model: (*question)(nil), name: "questions_quiz_position_uidx", unique: true, columns: []string{"quiz_id", "position"}},
		{model: (*questionOption)(nil), name: "question_options_question_position_uidx", unique: true, columns: []string{"question_id", "position"}},
		{model: (*quizAttempt)(nil), name: "quiz_attempts_quiz_idx", columns: []string{"quiz_id", "submitted_at"}},
		{model: (*quizResponse)(nil), name: "quiz_responses_attempt_idx", columns: []string{"attempt_id", "position"}},
	}

	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
				for _, t := range tables {
					q := tx.NewCreateTable().Model(t.model).IfNotExists()
					if t.foreignKey != "" {
						q = q.ForeignKey(t.foreignKey)
					}
					if _, err := q.Exec(ctx); err != nil {
						return err
					}
				}
				for _, idx := range indexes {
					q := tx.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.columns...).IfNotExists()
					if idx.unique {
						q = q.Unique()
					}
					if _, err := q.Exec(ctx); err != nil {
						return err
					}
				}
				return nil
			})
		},
		func(ctx context.Context, db *bun.DB) error {
			return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
				for i := len(tables) - 1; i >= 0; i-- {
					if _, err := tx.NewDropTable().Model(tables[i].model).IfExists().Exec(ctx); err != nil {
						return err
					}
				}
				return nil
			})
		},
	)
}
