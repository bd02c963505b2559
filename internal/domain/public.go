package domain

// PublicOption is an option as shown to quiz takers.
type PublicOption struct {
	ID    string `json:"id"`
	Text  string `json:"option_text"`
	Order int    `json:"order"`
}

// PublicQuestion is a question without its answer key.
type PublicQuestion struct {
	ID      string         `json:"id"`
	Text    string         `json:"question_text"`
	Type    QuestionType   `json:"question_type"`
	Points  int            `json:"points"`
	Order   int            `json:"order"`
	Options []PublicOption `json:"options"`
}

// PublicQuiz is the taker-facing view of a quiz.
type PublicQuiz struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Questions   []PublicQuestion `json:"questions"`
}

// Public strips correctness flags and expected answers.
func (q Quiz) Public() PublicQuiz {
	out := PublicQuiz{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		Questions:   make([]PublicQuestion, 0, len(q.Questions)),
	}
	for _, question := range q.Questions {
		pq := PublicQuestion{
			ID:      question.ID,
			Text:    question.Text,
			Type:    question.Type,
			Points:  question.Points,
			Order:   question.Order,
			Options: make([]PublicOption, 0, len(question.Options)),
		}
		for _, opt := range question.Options {
			pq.Options = append(pq.Options, PublicOption{ID: opt.ID, Text: opt.Text, Order: opt.Order})
		}
		out.Questions = append(out.Questions, pq)
	}
	return out
}
