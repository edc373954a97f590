package chess

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/rules"
)

// HumanProfile shapes how a scored move list is turned into one choice.
type HumanProfile struct {
	PrimaryChoices   int
	CandidateWeights []float64
	EvalNoise        int
}

// defaultProfile mostly plays the top move and sometimes the second or third.
var defaultProfile = HumanProfile{
	PrimaryChoices:   3,
	CandidateWeights: []float64{0.72, 0.2, 0.08},
	EvalNoise:        25,
}

func (p HumanProfile) validate() error {
	if p.PrimaryChoices <= 0 {
		return errors.New("primary choices must be > 0")
	}
	if len(p.CandidateWeights) < p.PrimaryChoices {
		return errors.New("not enough candidate weights")
	}
	if p.EvalNoise < 0 {
		return errors.New("eval noise must be >= 0")
	}
	return nil
}

// SelectCandidate perturbs candidate scores with noise, re-ranks them and
// draws one of the top entries by weight. A forced mate is always played.
func SelectCandidate(p HumanProfile, candidates []Scored, r *rand.Rand) (Scored, error) {
	if len(candidates) == 0 {
		return Scored{}, errors.New("no candidates to choose from")
	}
	if err := p.validate(); err != nil {
		return Scored{}, err
	}
	if candidates[0].Score >= mateThreshold || len(candidates) == 1 {
		return candidates[0], nil
	}

	noisy := append([]Scored(nil), candidates...)
	if p.EvalNoise > 0 {
		for i := range noisy {
			offset := r.Intn(2*p.EvalNoise+1) - p.EvalNoise
			noisy[i].Score = saturatingAdd(noisy[i].Score, offset)
		}
		sort.SliceStable(noisy, func(i, j int) bool { return noisy[i].Score > noisy[j].Score })
	}

	limit := p.PrimaryChoices
	if limit > len(noisy) {
		limit = len(noisy)
	}
	total := 0.0
	for i := 0; i < limit; i++ {
		total += p.CandidateWeights[i]
	}
	if total == 0 {
		return Scored{}, errors.New("candidate weights sum to zero")
	}

	threshold := r.Float64() * total
	index := 0
	for i := 0; i < limit; i++ {
		threshold -= p.CandidateWeights[i]
		if threshold <= 0 {
			index = i
			break
		}
	}
	return noisy[index], nil
}

func saturatingAdd(a, b int) int {
	sum := int64(a) + int64(b)
	if sum > math.MaxInt {
		return math.MaxInt
	}
	if sum < math.MinInt {
		return math.MinInt
	}
	return int(sum)
}

// Humanized searches like Minimax but does not always play the top move.
type Humanized struct {
	depth   int
	profile HumanProfile

	mu   sync.Mutex
	rand *rand.Rand
}

func NewHumanized(depth int, seed int64) *Humanized {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Humanized{depth: depth, profile: defaultProfile, rand: rand.New(rand.NewSource(seed))}
}

func (h *Humanized) Name() string { return PolicyHumanized }

func (h *Humanized) SelectMove(ctx context.Context, b rules.Board) (domain.Move, error) {
	scored, err := ScoreMoves(ctx, b, h.depth)
	if err != nil {
		return domain.Move{}, err
	}
	h.mu.Lock()
	choice, err := SelectCandidate(h.profile, scored, h.rand)
	h.mu.Unlock()
	if err != nil {
		return domain.Move{}, err
	}
	return choice.Move, nil
}
