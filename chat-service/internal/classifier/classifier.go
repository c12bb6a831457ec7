// Package classifier turns user text into a supportive reply and a crisis verdict.
package classifier

import (
	"context"

	"github.com/weiawesome/wes-support-chat/chat-service/internal/domain"
)

// Levels shared by intensity and crisis grading.
const (
	LevelLow       = "low"
	LevelMedium    = "medium"
	LevelHigh      = "high"
	LevelEmergency = "emergency"
)

const EmotionNeutral = "neutral"

// Context identifies where the text came from.
type Context struct {
	SessionID string
	RoomID    string
}

// Result is the outcome of classifying one user message.
type Result struct {
	PrimaryEmotion     string
	Intensity          string
	CrisisLevel        string
	CrisisType         string
	Indicators         []string
	SuggestedRooms     []string
	Reply              string
	Resources          []domain.Resource
	FollowUpQuestions  []string
	RequiresEscalation bool
	HumanIntervention  bool

	// Fallback is set when the reply was synthesized after a failure or timeout.
	Fallback bool
}

// Classifier is the external analysis collaborator.
type Classifier interface {
	Classify(ctx context.Context, text string, c Context) (Result, error)
}

// Func adapts a function to Classifier.
type Func func(ctx context.Context, text string, c Context) (Result, error)

func (f Func) Classify(ctx context.Context, text string, c Context) (Result, error) {
	return f(ctx, text, c)
}
