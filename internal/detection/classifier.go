package detection

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"hackspeech/internal/models"
)

const (
	// NoHitConfidence is the confidence reported for clean text.
	NoHitConfidence = 0.05

	noHitExplanation = "Aucun discours haineux détecté"
	hitExplanation   = "Ce message contient du contenu potentiellement offensant (catégorie: %s)"

	scoreFloor = 0.7
	scoreSpan  = 0.3
)

// RandomSource yields values in [0, 1).
type RandomSource interface {
	Float64() float64
}

// Verdict is the outcome of classifying one text.
type Verdict struct {
	IsHateSpeech bool             `json:"isHateSpeech"`
	Confidence   float64          `json:"confidence"`
	Category     *models.Category `json:"category"`
	Explanation  string           `json:"explanation"`
}

// Classifier scores text against the lexicon.
type Classifier struct {
	rnd RandomSource
}

func NewClassifier(rnd RandomSource) *Classifier {
	if rnd == nil {
		rnd = NewLockedRand(0)
	}
	return &Classifier{rnd: rnd}
}

// Classify lower-cases text and draws a score in [0.7, 1.0) for every matched term.
// The category with the strictly highest score wins.
func (c *Classifier) Classify(text string) Verdict {
	lower := strings.ToLower(text)

	var (
		best     models.Category
		maxScore float64
	)

	for _, entry := range lexicon {
		for _, term := range entry.Terms {
			if !strings.Contains(lower, term) {
				continue
			}
			score := scoreFloor + c.rnd.Float64()*scoreSpan
			if score > maxScore {
				maxScore = score
				best = entry.Category
			}
		}
	}

	if maxScore == 0 {
		return Verdict{
			IsHateSpeech: false,
			Confidence:   NoHitConfidence,
			Explanation:  noHitExplanation,
		}
	}

	category := best
	return Verdict{
		IsHateSpeech: true,
		Confidence:   round2(maxScore),
		Category:     &category,
		Explanation:  fmt.Sprintf(hitExplanation, category),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// lockedRand makes a *rand.Rand safe for concurrent requests.
type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewLockedRand returns a goroutine-safe source. A zero seed seeds from the clock.
func NewLockedRand(seed int64) RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{rnd: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Float64()
}
