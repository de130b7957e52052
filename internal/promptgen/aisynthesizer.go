package promptgen

import (
	"context"
	"time"

	"github.com/canopy-docs/canopy/internal/aicall"
	"github.com/canopy-docs/canopy/internal/core"
)

// AISynthesizer drives directory and root synthesis through an AI
// backend, building its prompt pair from ForDirectory/ForRoot and
// submitting it via internal/aicall. It satisfies
// pipeline.DirectorySynthesizer structurally, the AI-driven counterpart
// to RuleBasedSynthesizer (spec.md's Open Question on AI-driven vs
// rule-based directory synthesis, resolved by config.SynthesisConfig.Mode).
type AISynthesizer struct {
	AI      *aicall.Service
	Agent   string
	Model   string
	Effort  string
	Timeout time.Duration
}

// NewAISynthesizer constructs an AISynthesizer.
func NewAISynthesizer(ai *aicall.Service, agent, model, effort string, timeout time.Duration) *AISynthesizer {
	return &AISynthesizer{AI: ai, Agent: agent, Model: model, Effort: effort, Timeout: timeout}
}

// Synthesize builds the directory or root prompt pair from children and
// submits it through the AI call service.
func (s *AISynthesizer) Synthesize(ctx context.Context, task *core.Task, childArtifacts []core.Artifact) (string, error) {
	var sys, user string
	if task.Kind == core.KindRoot {
		sys, user = ForRoot(childArtifacts)
	} else {
		sys, user = ForDirectory(task.Path, childArtifacts)
	}

	resp, err := s.AI.Call(ctx, aicall.Options{
		TaskID:       task.ID,
		Phase:        task.Kind,
		Agent:        s.Agent,
		SystemPrompt: sys,
		UserPrompt:   user,
		Model:        s.Model,
		Effort:       s.Effort,
		Timeout:      s.Timeout,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
