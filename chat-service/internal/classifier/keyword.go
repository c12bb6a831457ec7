package classifier

import (
	"context"
	"strings"
)

// Finding is one analyzer's contribution to a Result.
type Finding struct {
	Emotion *EmotionFinding
	Crisis  *CrisisFinding
}

type EmotionFinding struct {
	Primary   string
	Intensity string
	Matches   []string
}

type CrisisFinding struct {
	Type    string
	Level   string
	Keyword string
}

// Analyzer inspects text for one concern.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, text string) (Finding, error)
}

type keywordGroup struct {
	name     string
	keywords []string
}

var emotionKeywords = []keywordGroup{
	{"anger", []string{"angry", "furious", "rage", "hate", "unfair", "betrayed", "mad", "outraged"}},
	{"sadness", []string{"sad", "depressed", "lonely", "empty", "heartbroken", "grieving", "miserable", "hopeless"}},
	{"anxiety", []string{"worried", "scared", "anxious", "nervous", "panic", "afraid", "stressed", "overwhelmed"}},
	{"guilt", []string{"guilty", "shame", "my fault", "should have", "regret", "blame myself"}},
	{"hope", []string{"better", "future", "healing", "moving on", "strength", "optimistic", "hopeful"}},
}

var crisisKeywords = []keywordGroup{
	{"suicidal", []string{"kill myself", "end it all", "better off dead", "no point living", "suicide", "not worth living", "end my life"}},
	{"self-harm", []string{"hurt myself", "harm myself", "cutting myself", "overdose"}},
	{"severe-depression", []string{"can't go on", "worthless", "no hope", "burden to everyone"}},
}

// EmotionAnalyzer grades the dominant emotion by keyword hits.
type EmotionAnalyzer struct{}

func (EmotionAnalyzer) Name() string { return "emotion" }

func (EmotionAnalyzer) Analyze(ctx context.Context, text string) (Finding, error) {
	if err := ctx.Err(); err != nil {
		return Finding{}, err
	}
	lower := strings.ToLower(text)

	best := -1
	var bestMatches []string
	for i, group := range emotionKeywords {
		var matches []string
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				matches = append(matches, kw)
			}
		}
		if len(matches) > len(bestMatches) {
			best, bestMatches = i, matches
		}
	}

	if best < 0 {
		return Finding{Emotion: &EmotionFinding{Primary: EmotionNeutral, Intensity: LevelLow}}, nil
	}

	intensity := LevelLow
	switch {
	case len(bestMatches) >= 3:
		intensity = LevelHigh
	case len(bestMatches) == 2:
		intensity = LevelMedium
	}

	return Finding{Emotion: &EmotionFinding{
		Primary:   emotionKeywords[best].name,
		Intensity: intensity,
		Matches:   bestMatches,
	}}, nil
}

// CrisisAnalyzer flags self-harm risk. Suicidal language is an emergency,
// everything else in the crisis lists is high.
type CrisisAnalyzer struct{}

func (CrisisAnalyzer) Name() string { return "crisis" }

func (CrisisAnalyzer) Analyze(ctx context.Context, text string) (Finding, error) {
	if err := ctx.Err(); err != nil {
		return Finding{}, err
	}
	lower := strings.ToLower(text)

	for _, group := range crisisKeywords {
		for _, kw := range group.keywords {
			if !strings.Contains(lower, kw) {
				continue
			}
			level := LevelHigh
			if group.name == "suicidal" {
				level = LevelEmergency
			}
			return Finding{Crisis: &CrisisFinding{Type: group.name, Level: level, Keyword: kw}}, nil
		}
	}
	return Finding{}, nil
}
