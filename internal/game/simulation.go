package game

import (
	"encoding/json"
	"math"

	"changekit/internal/models"
)

type simulationStrategy struct{}

type rawScenario struct {
	ID          text                  `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Decisions   []rawDecision         `json:"decisions"`
	Outcomes    map[string]rawOutcome `json:"outcomes"`
}

type rawDecision struct {
	ID        text   `json:"id"`
	Text      string `json:"text"`
	OutcomeID text   `json:"outcome_id"`
}

type rawOutcome struct {
	Text   string             `json:"text"`
	Impact map[string]float64 `json:"impact"`
}

// Impact weights of the simulation score
const (
	adoptionWeight = 0.4
	resultsWeight  = 0.4
	timelineWeight = 0.2
)

func (simulationStrategy) Type() Type { return TypeSimulation }

func (simulationStrategy) Extract(content json.RawMessage) ([]Item, error) {
	raws, err := extractList(content, "scenarios", "decisions")
	if err != nil {
		return nil, err
	}
	return decodeItems(raws, func(raw json.RawMessage, pos int) (Item, error) {
		var rs rawScenario
		if err := json.Unmarshal(raw, &rs); err != nil {
			return nil, err
		}
		sc := Scenario{
			ID:          itemID(rs.ID, pos),
			Title:       rs.Title,
			Description: rs.Description,
			Outcomes:    make(map[string]Outcome, len(rs.Outcomes)),
		}
		for i, d := range rs.Decisions {
			sc.Decisions = append(sc.Decisions, Decision{
				ID:        itemID(d.ID, i+1),
				Text:      d.Text,
				OutcomeID: string(d.OutcomeID),
			})
		}
		for id, o := range rs.Outcomes {
			sc.Outcomes[id] = Outcome{Text: o.Text, Impact: o.Impact}
		}
		return sc, nil
	})
}

func (simulationStrategy) Render(item Item, answer string) ItemView {
	sc := item.(Scenario)
	view := ItemView{
		ID:          sc.ID,
		Kind:        "simulation",
		Title:       sc.Title,
		Description: sc.Description,
		Prompt:      "What would you do?",
		Answer:      answer,
	}
	if len(sc.Decisions) == 0 {
		view.Error = "This scenario doesn't have any decisions."
	}
	for _, d := range sc.Decisions {
		view.Options = append(view.Options, OptionView{ID: d.ID, Text: d.Text, Selected: d.ID == answer})
	}
	if o, ok := sc.OutcomeFor(answer); ok {
		view.Outcome = &OutcomeView{Text: o.Text, Impact: impactOf(o)}
	}
	return view
}

func (simulationStrategy) Answered(item Item, answer string) bool {
	if len(item.(Scenario).Decisions) == 0 {
		return true
	}
	return answer != ""
}

// TotalImpact sums the impact of every decided scenario
func TotalImpact(s *Session) models.Impact {
	var total models.Impact
	for _, item := range s.Items {
		sc := item.(Scenario)
		o, ok := sc.OutcomeFor(s.Answers[sc.ID])
		if !ok {
			continue
		}
		impact := impactOf(o)
		total.Timeline += impact.Timeline
		total.Adoption += impact.Adoption
		total.Results += impact.Results
	}
	return total
}

func impactOf(o Outcome) models.Impact {
	return models.Impact{
		Timeline: o.Impact["timeline"],
		Adoption: o.Impact["adoption"],
		Results:  o.Impact["results"],
	}
}

// normalizeImpact maps an impact in roughly -50..50 onto 0..100
func normalizeImpact(v float64) float64 {
	return (v + 50) / 100 * 100
}

func (simulationStrategy) Score(s *Session) int {
	if len(s.Items) == 0 {
		return 0
	}
	total := TotalImpact(s)
	score := normalizeImpact(total.Adoption)*adoptionWeight +
		normalizeImpact(total.Results)*resultsWeight +
		normalizeImpact(total.Timeline)*timelineWeight
	return int(math.Max(0, math.Min(100, math.Round(score))))
}

func (simulationStrategy) Decorate(s *Session, r *models.GameResult) {
	total := TotalImpact(s)
	r.TotalImpact = &total
}

func (simulationStrategy) Message(score int) string {
	return bandMessage(score, [4]string{
		"Excellent work! Your decisions show strong strategic thinking and change management skills.",
		"Good job! You've made mostly effective decisions for implementing change.",
		"You've made some good decisions, but there's room for improvement in your change management approach.",
		"This simulation highlights areas where your change management strategy could be strengthened. Consider trying again with different approaches.",
	})
}
