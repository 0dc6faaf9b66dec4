package game

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"changekit/internal/models"
)

type challengeStrategy struct{}

type rawStage struct {
	ID              text     `json:"id"`
	Name            string   `json:"name"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Task            string   `json:"task"`
	TimeLimit       float64  `json:"time_limit"`
	SuccessCriteria textList `json:"success_criteria"`
}

const (
	maxContentScore = 70.0
	maxTimeScore    = 30.0
	// contentSaturation is the response length past which content scores in full
	contentSaturation = 50
	contentPerChar    = 1.4
)

func (challengeStrategy) Type() Type { return TypeChallenge }

func (challengeStrategy) Extract(content json.RawMessage) ([]Item, error) {
	raws, err := extractList(content, "stages", "task")
	if err != nil {
		return nil, err
	}
	return decodeItems(raws, func(raw json.RawMessage, pos int) (Item, error) {
		var rs rawStage
		if err := json.Unmarshal(raw, &rs); err != nil {
			return nil, err
		}
		limit := int(rs.TimeLimit)
		if limit <= 0 {
			limit = DefaultTimeLimit
		}
		return Stage{
			ID:               itemID(rs.ID, pos),
			Name:             firstNonEmpty(rs.Name, rs.Title),
			Description:      rs.Description,
			Task:             rs.Task,
			TimeLimitSeconds: limit,
			SuccessCriteria:  []string(rs.SuccessCriteria),
		}, nil
	})
}

func (challengeStrategy) TimeLimit(item Item) int {
	return item.(Stage).TimeLimitSeconds
}

func (challengeStrategy) Render(item Item, answer string) ItemView {
	st := item.(Stage)
	return ItemView{
		ID:              st.ID,
		Kind:            "challenge",
		Title:           st.Name,
		Description:     st.Description,
		Prompt:          st.Task,
		Answer:          answer,
		Placeholder:     "Type your response here...",
		TimeLimit:       st.TimeLimitSeconds,
		SuccessCriteria: st.SuccessCriteria,
	}
}

func (challengeStrategy) Answered(_ Item, answer string) bool {
	return strings.TrimSpace(answer) != ""
}

// StageScore scores one stage out of 100: up to 70 for the response length
// and up to 30 for finishing early.
func StageScore(response string, completionSeconds, timeLimit int) int {
	length := utf8.RuneCountInString(response)
	content := maxContentScore
	if length <= contentSaturation {
		content = math.Min(maxContentScore, float64(length)*contentPerChar)
	}

	timeScore := 0.0
	if timeLimit > 0 {
		timeScore = math.Max(0, maxTimeScore*(1-float64(completionSeconds)/float64(timeLimit)))
	}
	return int(math.Round(content + timeScore))
}

func (challengeStrategy) Score(s *Session) int {
	if len(s.Items) == 0 {
		return 0
	}
	earned := 0
	for _, item := range s.Items {
		st := item.(Stage)
		// A stage never left counts as the full limit; a recorded 0s is a real time
		completion := st.TimeLimitSeconds
		if d, ok := s.Elapsed[st.ID]; ok {
			completion = seconds(d)
		}
		earned += StageScore(s.Answers[st.ID], completion, st.TimeLimitSeconds)
	}
	return percent(earned, 100*len(s.Items))
}

func (challengeStrategy) Decorate(s *Session, r *models.GameResult) {
	r.StageTimes = make(map[string]int, len(s.Elapsed))
	for id, d := range s.Elapsed {
		r.StageTimes[id] = seconds(d)
	}
}

func (challengeStrategy) Message(score int) string {
	return bandMessage(score, [4]string{
		"Excellent work! You've demonstrated great ability to apply the concepts under pressure.",
		"Good job! You've shown solid skills in putting your knowledge into practice.",
		"Nice effort! With more practice, you'll improve your speed and application of these concepts.",
		"Good start! Continue to practice applying these concepts in timed situations.",
	})
}

// FormatClock renders seconds as m:ss
func FormatClock(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
