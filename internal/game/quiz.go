package game

import (
	"encoding/json"
	"strings"
)

type quizStrategy struct{}

type rawQuizQuestion struct {
	ID            text   `json:"id"`
	Type          string `json:"type"`
	Text          string `json:"text"`
	Question      string `json:"question"`
	CorrectAnswer text   `json:"correct_answer"`
	Explanation   string `json:"explanation"`
}

func (quizStrategy) Type() Type { return TypeQuiz }

func (quizStrategy) Extract(content json.RawMessage) ([]Item, error) {
	raws, err := extractList(content, "questions", "correct_answer")
	if err != nil {
		return nil, err
	}
	return decodeItems(raws, func(raw json.RawMessage, pos int) (Item, error) {
		var rq rawQuizQuestion
		if err := json.Unmarshal(raw, &rq); err != nil {
			return nil, err
		}
		q := QuizQuestion{
			ID:            itemID(rq.ID, pos),
			Kind:          strings.ToLower(strings.TrimSpace(rq.Type)),
			Text:          firstNonEmpty(rq.Text, rq.Question),
			CorrectAnswer: string(rq.CorrectAnswer),
			Explanation:   rq.Explanation,
		}
		if q.Kind == "" {
			q.Kind = inferQuizKind(q.CorrectAnswer)
		}
		if q.Kind == KindTrueFalse {
			q.CorrectAnswer = strings.ToLower(strings.TrimSpace(q.CorrectAnswer))
		}
		return q, nil
	})
}

func inferQuizKind(correct string) string {
	switch strings.ToLower(strings.TrimSpace(correct)) {
	case "true", "false":
		return KindTrueFalse
	}
	return KindFillBlank
}

func (quizStrategy) Render(item Item, answer string) ItemView {
	q := item.(QuizQuestion)
	view := ItemView{
		ID:     q.ID,
		Kind:   q.Kind,
		Prompt: q.Text,
		Answer: answer,
	}
	switch q.Kind {
	case KindTrueFalse:
		view.Heading = "True or False"
		view.Options = []OptionView{
			{ID: "true", Text: "True", Selected: answer == "true"},
			{ID: "false", Text: "False", Selected: answer == "false"},
		}
	case KindFillBlank:
		view.Heading = "Fill in the Blank"
		view.Placeholder = "Type your answer..."
	default:
		view.Error = "Unsupported question type: " + q.Kind
	}
	return view
}

func (quizStrategy) Answered(item Item, answer string) bool {
	q := item.(QuizQuestion)
	switch q.Kind {
	case KindTrueFalse:
		return answer != ""
	case KindFillBlank:
		return strings.TrimSpace(answer) != ""
	}
	// Unsupported questions can be skipped
	return true
}

func (quizStrategy) Score(s *Session) int {
	correct := 0
	for _, item := range s.Items {
		q := item.(QuizQuestion)
		if quizCorrect(q, s.Answers[q.ID]) {
			correct++
		}
	}
	return percent(correct, len(s.Items))
}

func quizCorrect(q QuizQuestion, answer string) bool {
	switch q.Kind {
	case KindTrueFalse:
		return answer != "" && answer == q.CorrectAnswer
	case KindFillBlank:
		given := strings.ToLower(strings.TrimSpace(answer))
		return given != "" && given == strings.ToLower(strings.TrimSpace(q.CorrectAnswer))
	}
	return false
}

func (quizStrategy) Message(score int) string {
	return bandMessage(score, knowledgeMessages)
}
