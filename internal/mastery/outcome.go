package mastery

import (
	"fmt"

	"lexora-backend/internal/models"
)

// Outcome is the result of presenting one word. It is either Skipped or Graded.
type Outcome interface {
	isOutcome()
}

// Skipped has no mastery effect.
type Skipped struct{}

// Graded carries two independent correctness signals: meaning recognition
// (Primary) and spelling reproduction (Secondary).
type Graded struct {
	Primary   bool
	Secondary bool
}

func (Skipped) isOutcome() {}
func (Graded) isOutcome() {}

// Grade is the three-way classification of a Graded outcome.
type Grade int

const (
	GradeNeitherCorrect Grade = iota
	GradeOneCorrect
	GradeBothCorrect
)

func (g Grade) String() string {
	switch g {
	case GradeBothCorrect:
		return "both_correct"
	case GradeOneCorrect:
		return "one_correct"
	case GradeNeitherCorrect:
		return "neither_correct"
	default:
		return fmt.Sprintf("Grade(%d)", int(g))
	}
}

// Classify reduces the two signals to a Grade.
func (g Graded) Classify() Grade {
	switch {
	case g.Primary && g.Secondary:
		return GradeBothCorrect
	case g.Primary || g.Secondary:
		return GradeOneCorrect
	default:
		return GradeNeitherCorrect
	}
}

// ParseOutcome converts a wire request into an Outcome. A skip wins over any
// flags; a non-skip must carry both flags.
func ParseOutcome(req models.OutcomeRequest) (Outcome, error) {
	if req.Skipped {
		return Skipped{}, nil
	}
	if req.MeaningCorrect == nil || req.SpellingCorrect == nil {
		return nil, fmt.Errorf("%w: meaning_correct and spelling_correct are required unless skipped", ErrInvalidOutcome)
	}
	return Graded{Primary: *req.MeaningCorrect, Secondary: *req.SpellingCorrect}, nil
}
