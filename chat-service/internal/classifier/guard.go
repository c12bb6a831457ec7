package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/weiawesome/wes-support-chat/pkg/log"
)

const fallbackReply = "I'm having a little technical difficulty right now, but I'm still here with you. " +
	"Could you tell me a bit more about how you're feeling?"

// DefaultTimeout bounds classification when no positive timeout is configured.
const DefaultTimeout = 3 * time.Second

var ErrTimeout = errors.New("classification timed out")

// Fallback is the reply used whenever classification fails.
func Fallback() Result {
	return Result{
		PrimaryEmotion: EmotionNeutral,
		Intensity:      LevelLow,
		CrisisLevel:    LevelLow,
		SuggestedRooms: []string{"general-support"},
		Reply:          fallbackReply,
		Fallback:       true,
	}
}

// Guarded bounds an inner classifier by a deadline and converts every failure
// into the fallback reply. Classify never returns an error.
type Guarded struct {
	inner   Classifier
	timeout time.Duration
}

// WithTimeout guards inner. A non-positive timeout means DefaultTimeout.
func WithTimeout(inner Classifier, timeout time.Duration) *Guarded {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Guarded{inner: inner, timeout: timeout}
}

func (g *Guarded) Classify(ctx context.Context, text string, c Context) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type outcome struct {
		res Result
		err error
	}
	// Buffered: the sender must never block once we stop waiting.
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("classifier panic: %v", r)}
			}
		}()
		res, err := g.inner.Classify(ctx, text, c)
		done <- outcome{res: res, err: err}
	}()

	l := log.Ctx(ctx)
	select {
	case o := <-done:
		if o.err != nil {
			l.Warn().Err(o.err).Str(log.FieldRoomID, c.RoomID).Msg("classification failed, using fallback reply")
			return Fallback(), nil
		}
		return o.res, nil
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrTimeout
		}
		l.Warn().Err(err).Dur("timeout", g.timeout).Str(log.FieldRoomID, c.RoomID).Msg("classification abandoned, using fallback reply")
		return Fallback(), nil
	}
}
