package game

import (
	"bytes"
	"encoding/json"
)

type mcqStrategy struct{}

type rawQuestion struct {
	ID            text            `json:"id"`
	Text          string          `json:"text"`
	Question      string          `json:"question"`
	Options       json.RawMessage `json:"options"`
	CorrectAnswer text            `json:"correct_answer"`
	Explanation   string          `json:"explanation"`
}

type rawOption struct {
	ID   text   `json:"id"`
	Text string `json:"text"`
}

const invalidOptionsMessage = "This question doesn't have valid options."

func (mcqStrategy) Type() Type { return TypeMCQ }

func (mcqStrategy) Extract(content json.RawMessage) ([]Item, error) {
	raws, err := extractList(content, "questions", "options")
	if err != nil {
		return nil, err
	}
	return decodeItems(raws, func(raw json.RawMessage, pos int) (Item, error) {
		var rq rawQuestion
		if err := json.Unmarshal(raw, &rq); err != nil {
			return nil, err
		}
		q := Question{
			ID:            itemID(rq.ID, pos),
			Text:          firstNonEmpty(rq.Text, rq.Question),
			CorrectAnswer: string(rq.CorrectAnswer),
			Explanation:   rq.Explanation,
		}
		q.Options, q.OptionsErr = decodeOptions(rq.Options)
		return q, nil
	})
}

// decodeOptions accepts a list of {id, text} objects or plain strings.
// Anything else leaves the question in an error state.
func decodeOptions(raw json.RawMessage) ([]Option, string) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, invalidOptionsMessage
	}

	var plain []string
	if err := json.Unmarshal(raw, &plain); err == nil {
		if len(plain) == 0 {
			return nil, invalidOptionsMessage
		}
		opts := make([]Option, len(plain))
		for i, p := range plain {
			opts[i] = Option{ID: p, Text: p}
		}
		return opts, ""
	}

	var objs []rawOption
	if err := json.Unmarshal(raw, &objs); err != nil || len(objs) == 0 {
		return nil, invalidOptionsMessage
	}
	opts := make([]Option, len(objs))
	for i, o := range objs {
		if o.ID == "" {
			return nil, invalidOptionsMessage
		}
		opts[i] = Option{ID: string(o.ID), Text: o.Text}
	}
	return opts, ""
}

func (mcqStrategy) Render(item Item, answer string) ItemView {
	q := item.(Question)
	view := ItemView{
		ID:     q.ID,
		Kind:   "mcq",
		Prompt: q.Text,
		Answer: answer,
		Error:  q.OptionsErr,
	}
	for _, o := range q.Options {
		view.Options = append(view.Options, OptionView{ID: o.ID, Text: o.Text, Selected: o.ID == answer})
	}
	return view
}

// Answered lets a question without valid options be skipped; it scores as wrong.
func (mcqStrategy) Answered(item Item, answer string) bool {
	q := item.(Question)
	if q.OptionsErr != "" {
		return true
	}
	return answer != ""
}

func (mcqStrategy) Score(s *Session) int {
	correct := 0
	for _, item := range s.Items {
		q := item.(Question)
		if q.OptionsErr == "" && s.Answers[q.ID] != "" && s.Answers[q.ID] == q.CorrectAnswer {
			correct++
		}
	}
	return percent(correct, len(s.Items))
}

func (mcqStrategy) Message(score int) string {
	return bandMessage(score, knowledgeMessages)
}
