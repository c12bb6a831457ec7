package classifier

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Ensemble runs every analyzer concurrently and compiles their findings
// once all of them have returned. The caller's context bounds the wait.
type Ensemble struct {
	analyzers []Analyzer
}

func NewEnsemble(analyzers ...Analyzer) *Ensemble {
	return &Ensemble{analyzers: analyzers}
}

// NewKeywordEnsemble is the built-in keyword classifier.
func NewKeywordEnsemble() *Ensemble {
	return NewEnsemble(EmotionAnalyzer{}, CrisisAnalyzer{})
}

func (e *Ensemble) Classify(ctx context.Context, text string, c Context) (Result, error) {
	findings := make([]Finding, len(e.analyzers))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range e.analyzers {
		g.Go(func() error {
			f, err := a.Analyze(gctx, text)
			if err != nil {
				return fmt.Errorf("%s analyzer: %w", a.Name(), err)
			}
			findings[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	return compile(findings), nil
}

func compile(findings []Finding) Result {
	var emotion *EmotionFinding
	var crisis *CrisisFinding
	for _, f := range findings {
		if f.Emotion != nil && emotion == nil {
			emotion = f.Emotion
		}
		if f.Crisis != nil && crisis == nil {
			crisis = f.Crisis
		}
	}
	if emotion == nil {
		emotion = &EmotionFinding{Primary: EmotionNeutral, Intensity: LevelLow}
	}

	res := Result{
		PrimaryEmotion: emotion.Primary,
		Intensity:      emotion.Intensity,
		CrisisLevel:    LevelLow,
		Indicators:     append([]string(nil), emotion.Matches...),
	}

	if crisis != nil {
		res.CrisisLevel = crisis.Level
		res.CrisisType = crisis.Type
		res.Indicators = append(res.Indicators, crisis.Keyword)
		res.Reply = crisisReplies[crisis.Type]
		res.SuggestedRooms = []string{"crisis-intervention"}
		res.Resources = append(res.Resources, hotlineResources...)
		res.RequiresEscalation = true
		res.HumanIntervention = true
		return res
	}

	res.Reply = emotionReplies[emotion.Primary]
	res.SuggestedRooms = append([]string(nil), roomSuggestions[emotion.Primary]...)
	res.FollowUpQuestions = append([]string(nil), followUps[emotion.Primary]...)
	res.Resources = append(res.Resources, emotionResources[emotion.Primary]...)
	if emotion.Intensity == LevelHigh {
		res.Resources = append(res.Resources, hotlineResources...)
		res.HumanIntervention = true
	}
	return res
}
