package mastery

import (
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"lexora-backend/internal/models"
)

// QuizDistractors is the number of wrong meanings offered next to the right one.
const QuizDistractors = 3

// Rand is the source of randomness for quiz construction.
type Rand interface {
	Intn(n int) int
}

type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewLockedRand returns a seeded Rand that is safe for concurrent use.
func NewLockedRand(seed int64) Rand {
	return &lockedRand{rnd: rand.New(rand.NewSource(seed))}
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Intn(n)
}

// BuildQuiz pairs target's meaning with up to QuizDistractors meanings drawn
// from candidates and shuffles the options. Candidates that are the target,
// repeat an earlier candidate, or share a meaning with an option already
// chosen are ignored. A nil rnd keeps candidate order and leaves the correct
// option first.
func BuildQuiz(target models.Word, candidates []models.Word, rnd Rand) models.Quiz {
	options := make([]models.QuizOption, 0, QuizDistractors+1)
	options = append(options, models.QuizOption{ID: target.ID, Text: target.Meaning, IsCorrect: true})

	usedIDs := map[uuid.UUID]bool{target.ID: true}
	usedText := map[string]bool{target.Meaning: true}

	pool := make([]models.Word, 0, len(candidates))
	for _, c := range candidates {
		if usedIDs[c.ID] || c.Meaning == "" {
			continue
		}
		usedIDs[c.ID] = true
		pool = append(pool, c)
	}
	shuffle(len(pool), rnd, func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	for _, c := range pool {
		if len(options) == QuizDistractors+1 {
			break
		}
		if usedText[c.Meaning] {
			continue
		}
		usedText[c.Meaning] = true
		options = append(options, models.QuizOption{ID: c.ID, Text: c.Meaning})
	}
	shuffle(len(options), rnd, func(i, j int) { options[i], options[j] = options[j], options[i] })

	return models.Quiz{
		Word:    models.QuizWord{ID: target.ID, Word: target.Word, Phonetic: target.Phonetic},
		Options: options,
	}
}

// shuffle is a Fisher-Yates pass driven by rnd.
func shuffle(n int, rnd Rand, swap func(i, j int)) {
	if rnd == nil {
		return
	}
	for i := n - 1; i > 0; i-- {
		swap(i, rnd.Intn(i+1))
	}
}
