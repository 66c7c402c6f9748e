package detection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubGenerator struct {
	configured bool
	reply      string
	err        error
	block      bool
	calls      int
	lastSystem string
}

func (s *stubGenerator) Configured() bool { return s.configured }

func (s *stubGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	s.calls++
	s.lastSystem = system
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.reply, s.err
}

func TestLocalReformulate(t *testing.T) {
	t.Run("replaces a known insult", func(t *testing.T) {
		assert.Equal(t, "tu es un personne avec qui je suis en désaccord", LocalReformulate("tu es un idiot"))
	})

	t.Run("case insensitive and global", func(t *testing.T) {
		assert.Equal(t,
			"Quel personne qui peut apprendre, vraiment personne qui peut apprendre",
			LocalReformulate("Quel CRÉTIN, vraiment crétin"))
	})

	t.Run("unchanged text gets the constructive template", func(t *testing.T) {
		assert.Equal(t,
			`Version positive : "Bonjour" → Ce message pourrait être formulé de manière plus constructive.`,
			LocalReformulate("Bonjour"))
	})
}

func TestReformulator_Reformulate(t *testing.T) {
	logger := zap.NewNop()

	t.Run("uses the generator when configured", func(t *testing.T) {
		gen := &stubGenerator{configured: true, reply: "  Je ne suis pas d'accord avec toi.  "}
		r := NewReformulator(gen, time.Second, logger)

		out := r.Reformulate(context.Background(), "tu es un idiot")
		assert.Equal(t, Reformulation{Text: "Je ne suis pas d'accord avec toi.", Source: SourceLLM}, out)
		assert.Equal(t, ReformulationSystemPrompt, gen.lastSystem)
	})

	t.Run("unconfigured generator is never called", func(t *testing.T) {
		gen := &stubGenerator{configured: false, reply: "ignored"}
		out := NewReformulator(gen, time.Second, logger).Reformulate(context.Background(), "tu es un idiot")

		assert.Equal(t, SourceLocal, out.Source)
		assert.Zero(t, gen.calls)
	})

	t.Run("generator error falls back", func(t *testing.T) {
		gen := &stubGenerator{configured: true, err: errors.New("503")}
		out := NewReformulator(gen, time.Second, logger).Reformulate(context.Background(), "tu es un idiot")

		assert.Equal(t, "tu es un personne avec qui je suis en désaccord", out.Text)
		assert.Equal(t, SourceLocal, out.Source)
	})

	t.Run("empty answer falls back", func(t *testing.T) {
		gen := &stubGenerator{configured: true, reply: "   "}
		out := NewReformulator(gen, time.Second, logger).Reformulate(context.Background(), "Bonjour")
		assert.Equal(t, SourceLocal, out.Source)
	})

	t.Run("timeout falls back", func(t *testing.T) {
		gen := &stubGenerator{configured: true, block: true}
		out := NewReformulator(gen, 10*time.Millisecond, logger).Reformulate(context.Background(), "stupide")

		assert.Equal(t, "pas très réfléchi", out.Text)
		assert.Equal(t, SourceLocal, out.Source)
	})

	t.Run("nil generator", func(t *testing.T) {
		out := NewReformulator(nil, 0, nil).Reformulate(context.Background(), "nul")
		assert.Equal(t, Reformulation{Text: "qui peut s'améliorer", Source: SourceLocal}, out)
	})
}
