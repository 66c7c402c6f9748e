package detection

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Reformulation sources
const (
	SourceLLM   = "llm"
	SourceLocal = "local"
)

// ReformulationSystemPrompt instructs the model to rewrite in non-violent communication.
const ReformulationSystemPrompt = "Tu es un expert en communication non-violente. Ta mission est de prendre un message agressif ou haineux et de le transformer en une version constructive, calme et respectueuse, tout en gardant l'intention originale si elle est légitime. Si le message est purement haineux, transforme-le en un message de paix ou de réflexion. Réponds uniquement avec le texte reformulé, sans introduction ni guillemets."

const fallbackTemplate = "Version positive : \"%s\" → Ce message pourrait être formulé de manière plus constructive."

// TextGenerator is an external text model. Configured reports whether calls can be attempted at all.
type TextGenerator interface {
	Configured() bool
	Generate(ctx context.Context, system, user string) (string, error)
}

// Reformulation is a rewritten text and where it came from.
type Reformulation struct {
	Text   string `json:"reformulatedText"`
	Source string `json:"source"`
}

// compiled once; same order as substitutions
var substitutionPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(substitutions))
	for i, s := range substitutions {
		out[i] = regexp.MustCompile("(?i)" + regexp.QuoteMeta(s.term))
	}
	return out
}()

// Reformulator rewrites text with the generator when available and the local table otherwise.
type Reformulator struct {
	generator TextGenerator
	timeout   time.Duration
	logger    *zap.Logger
}

func NewReformulator(generator TextGenerator, timeout time.Duration, logger *zap.Logger) *Reformulator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reformulator{generator: generator, timeout: timeout, logger: logger}
}

// Reformulate never fails: generator errors, timeouts and empty answers fall back to the local table.
func (r *Reformulator) Reformulate(ctx context.Context, text string) Reformulation {
	if r.generator != nil && r.generator.Configured() {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		out, err := r.generator.Generate(callCtx, ReformulationSystemPrompt, text)
		cancel()

		out = strings.TrimSpace(out)
		switch {
		case err != nil:
			r.logger.Warn("Text generator failed, using local reformulation", zap.Error(err))
		case out == "":
			r.logger.Warn("Text generator returned an empty answer, using local reformulation")
		default:
			return Reformulation{Text: out, Source: SourceLLM}
		}
	}

	return Reformulation{Text: LocalReformulate(text), Source: SourceLocal}
}

// LocalReformulate applies the substitution table; unchanged text gets the constructive template.
func LocalReformulate(text string) string {
	result := text
	for i, pattern := range substitutionPatterns {
		result = pattern.ReplaceAllLiteralString(result, substitutions[i].replacement)
	}

	if result == text {
		return fmt.Sprintf(fallbackTemplate, text)
	}
	return result
}
