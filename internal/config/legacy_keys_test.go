package config

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeLegacyConfigMap_TopLevelExecutionKeys(t *testing.T) {
	data := map[string]interface{}{
		"concurrency": 4,
		"timeout":     "10m",
	}
	normalized := normalizeLegacyConfigMap(data)

	execution, ok := normalized["execution"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, 4, execution["concurrency"])
	require.Equal(t, "10m", execution["timeout"])
	require.NotContains(t, normalized, "concurrency")
	require.NotContains(t, normalized, "timeout")
}

func TestNormalizeLegacyConfigMap_AgentKey(t *testing.T) {
	data := map[string]interface{}{
		"agent": "gemini",
	}
	normalized := normalizeLegacyConfigMap(data)

	agents, ok := normalized["agents"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "gemini", agents["default"])
}

func TestNormalizeLegacyConfigMap_DoesNotOverrideExplicitValue(t *testing.T) {
	data := map[string]interface{}{
		"concurrency": 4,
		"execution": map[string]interface{}{
			"concurrency": 8,
		},
	}
	normalized := normalizeLegacyConfigMap(data)

	execution := normalized["execution"].(map[string]interface{})
	require.Equal(t, 8, execution["concurrency"])
}

func TestNormalizeLegacyConfigMap_NilIsNoop(t *testing.T) {
	require.Nil(t, normalizeLegacyConfigMap(nil))
}

func TestCanonicalTagName_PrefersMapstructure(t *testing.T) {
	type s struct {
		Field string `mapstructure:"custom_name" yaml:"other"`
	}
	field, ok := reflect.TypeOf(s{}).FieldByName("Field")
	require.True(t, ok)
	require.Equal(t, "custom_name", canonicalTagName(field))
}
