package promptgen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/canopy-docs/canopy/internal/core"
)

func TestRuleBasedSynthesizer_DirectorySortsChildrenByPath(t *testing.T) {
	s := NewRuleBasedSynthesizer()
	task := core.NewTask("internal/foo", "internal/foo", core.KindDirectory)
	children := []core.Artifact{
		{SourcePath: "internal/foo/zeta.go", Body: "Zeta.\n"},
		{SourcePath: "internal/foo/alpha.go", Body: "Alpha.\n"},
	}

	body, err := s.Synthesize(context.Background(), task, children)
	require.NoError(t, err)

	alphaIdx := indexOf(body, "alpha.go")
	zetaIdx := indexOf(body, "zeta.go")
	require.GreaterOrEqual(t, alphaIdx, 0)
	require.GreaterOrEqual(t, zetaIdx, 0)
	require.Less(t, alphaIdx, zetaIdx)
}

func TestRuleBasedSynthesizer_RootUsesProjectHeading(t *testing.T) {
	s := NewRuleBasedSynthesizer()
	task := core.NewTask(".", ".", core.KindRoot)

	body, err := s.Synthesize(context.Background(), task, []core.Artifact{
		{SourcePath: "internal/foo", Body: "Foo subsystem.\n"},
	})
	require.NoError(t, err)
	require.Contains(t, body, "# Project Overview")
	require.Contains(t, body, "Foo subsystem.")
}

func TestRuleBasedSynthesizer_NoChildrenProducesFallback(t *testing.T) {
	s := NewRuleBasedSynthesizer()
	task := core.NewTask("internal/empty", "internal/empty", core.KindDirectory)

	body, err := s.Synthesize(context.Background(), task, nil)
	require.NoError(t, err)
	require.Contains(t, body, "No child artifacts")
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
