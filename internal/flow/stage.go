package flow

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Stage is an ADKAR stage
type Stage string

const (
	Awareness     Stage = "awareness"
	Desire        Stage = "desire"
	Knowledge     Stage = "knowledge"
	Ability       Stage = "ability"
	Reinforcement Stage = "reinforcement"
)

// Stages lists the ADKAR stages in order
var Stages = []Stage{Awareness, Desire, Knowledge, Ability, Reinforcement}

// Label is the display name of a stage
func (s Stage) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

func (s Stage) valid() bool {
	for _, st := range Stages {
		if s == st {
			return true
		}
	}
	return false
}

// KeywordSet is the keywords that point at one stage
type KeywordSet struct {
	Stage    Stage    `yaml:"stage"`
	Keywords []string `yaml:"keywords"`
}

// DefaultRules are the built-in keyword sets in declaration order
func DefaultRules() []KeywordSet {
	return []KeywordSet{
		{Awareness, []string{"announce", "aware", "introduc", "upcoming", "inform", "notice", "why", "reason"}},
		{Desire, []string{"benefit", "motivat", "excit", "opportunit", "improve", "value", "engage", "support"}},
		{Knowledge, []string{"learn", "training", "how to", "guide", "understand", "documentation", "tutorial", "instruction"}},
		{Ability, []string{"practice", "apply", "hands-on", "skill", "implement", "perform", "workflow", "use the"}},
		{Reinforcement, []string{"sustain", "reward", "recogni", "celebrat", "feedback", "continu", "habit", "measure"}},
	}
}

type rulesFile struct {
	Stages []KeywordSet `yaml:"stages"`
}

// LoadRules reads keyword sets from a YAML file:
//
//	stages:
//	  - stage: awareness
//	    keywords: [announce, upcoming]
func LoadRules(path string) ([]KeywordSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stage rules: %w", err)
	}

	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse stage rules: %w", err)
	}
	if len(f.Stages) == 0 {
		return nil, fmt.Errorf("stage rules %s define no stages", path)
	}
	for _, set := range f.Stages {
		if !set.Stage.valid() {
			return nil, fmt.Errorf("stage rules: unknown stage %q", set.Stage)
		}
		if len(set.Keywords) == 0 {
			return nil, fmt.Errorf("stage rules: stage %q has no keywords", set.Stage)
		}
	}
	return f.Stages, nil
}

// Classify counts case-insensitive keyword occurrences per set and returns
// the stage with strictly the most matches. Ties go to the set declared
// first; no matches at all give awareness.
func Classify(text string, rules []KeywordSet) Stage {
	text = strings.ToLower(text)
	best, bestCount := Awareness, 0
	for _, set := range rules {
		count := 0
		for _, kw := range set.Keywords {
			kw = strings.ToLower(kw)
			if kw == "" {
				continue
			}
			count += strings.Count(text, kw)
		}
		if count > bestCount {
			best, bestCount = set.Stage, count
		}
	}
	return best
}

// DetermineStage classifies the accumulated text of a draft flow
func DetermineStage(draft string, keyPoints []string, purpose string, rules []KeywordSet) Stage {
	if rules == nil {
		rules = DefaultRules()
	}
	text := draft + " " + strings.Join(keyPoints, " ") + " " + purpose
	return Classify(text, rules)
}
