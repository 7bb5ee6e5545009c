package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestDefaultsProduceValidConfig(t *testing.T) {
	cfg, err := NewConfigFromViper(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 3, cfg.Repair.MaxAttempts)
	assert.Equal(t, []string{"npm", "run", "build"}, cfg.Build.Command)
	assert.Equal(t, 10*time.Minute, cfg.Build.Timeout)
	assert.Equal(t, "specs", cfg.Specs.Dir)
	assert.Contains(t, cfg.Scaffold.TemplateURL, "boilerplate")
	require.Contains(t, cfg.LLM.Models, "fast")
	require.Contains(t, cfg.LLM.Models, "powerful")
	assert.Equal(t, ProviderGemini, cfg.LLM.Models["fast"].Provider)
	assert.Equal(t, 90*time.Second, cfg.LLM.Models["fast"].APITimeout)
}

func TestValidateRejectsBadValues(t *testing.T) {
	testCases := []struct {
		name string
		key  string
		val  any
	}{
		{name: "zero attempts", key: "repair.max_attempts", val: 0},
		{name: "negative attempts", key: "repair.max_attempts", val: -1},
		{name: "zero step actions", key: "repair.max_step_actions", val: 0},
		{name: "empty build command", key: "build.command", val: []string{}},
		{name: "zero timeout", key: "build.timeout", val: "0s"},
		{name: "missing fast model name", key: "llm.default_fast_model", val: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := newTestViper()
			v.Set(tc.key, tc.val)
			_, err := NewConfigFromViper(v)
			require.Error(t, err)
		})
	}
}

func TestValidateRequiresModelEntriesForTiers(t *testing.T) {
	v := newTestViper()
	v.Set("llm.default_powerful_model", "missing-entry")
	_, err := NewConfigFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing-entry")
}

func TestAPIKeyAppliedFromEnv(t *testing.T) {
	t.Setenv("BERRY_LLM_API_KEY", "test-key")

	cfg, err := NewConfigFromViper(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.LLM.Models["fast"].APIKey)
	assert.Equal(t, "test-key", cfg.LLM.Models["powerful"].APIKey)
	require.NoError(t, cfg.RequireLLMCredentials())
}

func TestRequireLLMCredentials(t *testing.T) {
	cfg, err := NewConfigFromViper(newTestViper())
	require.NoError(t, err)

	if cfg.LLM.Models["fast"].APIKey != "" {
		t.Skip("ambient API key present in environment")
	}
	err = cfg.RequireLLMCredentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BERRY_LLM_API_KEY")
}
