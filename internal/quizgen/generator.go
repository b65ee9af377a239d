package quizgen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/studyloop/quiz-service/internal/models"
)

// promptTemplate is the fixed question phrasing; no natural-language
// generation happens beyond it.
const promptTemplate = "select all | %s | %s"

// ErrNoCorrectItems means a question was requested with an empty
// correct-answer set.
var ErrNoCorrectItems = errors.New("question has no correct items")

// Item is a knowledge node reduced to what option construction needs.
type Item struct {
	ID    uint   `json:"id"`
	Label string `json:"label"`
}

// Input is the tagged request variant: exactly DownwardInput or UpwardInput.
// Each variant carries only the fields its direction needs, so a half-filled
// request cannot be constructed.
type Input interface {
	direction() models.QuestionDirection
}

// DownwardInput asks for the Facts belonging to Category+Attribute.
type DownwardInput struct {
	Category       Item
	Attribute      Item
	CorrectFacts   []Item
	DistractorPool []Item
	ConfusingFacts []Item
	NumDistractors int
}

func (DownwardInput) direction() models.QuestionDirection { return models.DirectionDownward }

// UpwardInput asks for the Categories an Attribute+Fact pair belongs to.
type UpwardInput struct {
	Attribute         Item
	Fact              Item
	CorrectCategories []Item
	DistractorPool    []Item
	ConfusingFacts    []Item
	NumDistractors    int
}

func (UpwardInput) direction() models.QuestionDirection { return models.DirectionUpward }

// Option is one generated answer option before persistence.
type Option struct {
	DisplayText  string
	IsCorrect    bool
	Components   []uint
	DisplayOrder int
}

// Question is the generated result. Identical input and seed always produce
// a value-equal Question.
type Question struct {
	PromptText  string
	Direction   models.QuestionDirection
	CategoryID  *uint
	AttributeID uint
	FactID      *uint
	Options     []Option
}

// Generate builds a question from the given variant and seed.
func Generate(input Input, seed int64) (*Question, error) {
	rng := NewRand(seed)

	switch in := input.(type) {
	case DownwardInput:
		return generateDownward(rng, in)
	case *DownwardInput:
		return generateDownward(rng, *in)
	case UpwardInput:
		return generateUpward(rng, in)
	case *UpwardInput:
		return generateUpward(rng, *in)
	default:
		return nil, fmt.Errorf("unsupported question input %T", input)
	}
}

func generateDownward(rng *Rand, in DownwardInput) (*Question, error) {
	if len(in.CorrectFacts) == 0 {
		return nil, ErrNoCorrectItems
	}

	var options []Option

	// 1. All correct facts.
	options = append(options, newOption(in.CorrectFacts, true))

	// 2. A correct subset of ceil(n/2) facts, only when there is a real subset.
	if len(in.CorrectFacts) > 1 {
		half := (len(in.CorrectFacts) + 1) / 2
		options = append(options, newOption(Sample(rng, in.CorrectFacts, half), true))
	}

	// 3. Mixed options: one correct fact plus one distractor each. Any
	// distractor or confusing admixture forces the option incorrect.
	for i := 0; i < min(2, len(in.DistractorPool)); i++ {
		items := Sample(rng, in.CorrectFacts, 1)
		items = append(items, Sample(rng, in.DistractorPool, 1)...)
		items = append(items, in.ConfusingFacts...)
		options = append(options, newOption(items, false))
	}

	// 4. Pure distractor option.
	pure := Sample(rng, in.DistractorPool, min(2, len(in.DistractorPool)))
	pure = append(pure, in.ConfusingFacts...)
	options = append(options, newOption(pure, false))

	categoryID := in.Category.ID
	return &Question{
		PromptText:  fmt.Sprintf(promptTemplate, in.Category.Label, in.Attribute.Label),
		Direction:   models.DirectionDownward,
		CategoryID:  &categoryID,
		AttributeID: in.Attribute.ID,
		Options:     finalizeOptions(rng, options),
	}, nil
}

func generateUpward(rng *Rand, in UpwardInput) (*Question, error) {
	if len(in.CorrectCategories) == 0 {
		return nil, ErrNoCorrectItems
	}

	var options []Option

	// 1. All correct categories.
	options = append(options, newOption(in.CorrectCategories, true))

	// 2. Single-distractor options. The loop bound below intentionally keeps
	// the historical behavior: the effective distractor count can diverge
	// from NumDistractors when the pool is small or the correct set is large.
	limit := min(in.NumDistractors, len(in.DistractorPool)+1)
	for i := 0; i < limit; i++ {
		if i < len(in.CorrectCategories) {
			continue
		}
		items := Sample(rng, in.DistractorPool, 1)
		items = append(items, in.ConfusingFacts...)
		options = append(options, newOption(items, false))
	}

	factID := in.Fact.ID
	return &Question{
		PromptText:  fmt.Sprintf(promptTemplate, in.Attribute.Label, in.Fact.Label),
		Direction:   models.DirectionUpward,
		AttributeID: in.Attribute.ID,
		FactID:      &factID,
		Options:     finalizeOptions(rng, options),
	}, nil
}

// newOption de-duplicates items by id, preserving first occurrence order,
// and renders the display text from the surviving labels.
func newOption(items []Item, isCorrect bool) Option {
	seen := make(map[uint]bool, len(items))
	components := make([]uint, 0, len(items))
	labels := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		components = append(components, item.ID)
		labels = append(labels, item.Label)
	}
	return Option{
		DisplayText: strings.Join(labels, ", "),
		IsCorrect:   isCorrect,
		Components:  components,
	}
}

// finalizeOptions shuffles the option list (options keep their internal
// component order) and assigns DisplayOrder 1..N in the shuffled order.
func finalizeOptions(rng *Rand, options []Option) []Option {
	shuffled := Shuffle(rng, options)
	for i := range shuffled {
		shuffled[i].DisplayOrder = i + 1
	}
	return shuffled
}
