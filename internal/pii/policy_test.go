package pii

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/opsdeck/incident-assistant/pkg/errors"
)

func TestDefaultPolicy_EnabledEntities(t *testing.T) {
	enabled := DefaultPolicy().EnabledEntities()

	assert.Contains(t, enabled, EntityPerson)
	assert.Contains(t, enabled, EntityEmailAddress)
	assert.Contains(t, enabled, EntityUSSSN)

	// Excluded outright.
	assert.NotContains(t, enabled, EntityDateTime)
	// Optional and the include flag is off.
	assert.NotContains(t, enabled, EntityOrganization)
	assert.NotContains(t, enabled, EntityURL)
}

func TestEnabledEntities_IncludeOptional(t *testing.T) {
	policy := DefaultPolicy()
	policy.IncludeOptionalEntities = true

	enabled := policy.EnabledEntities()

	assert.Contains(t, enabled, EntityOrganization)
	assert.Contains(t, enabled, EntityURL)
	// Exclusion still wins over the optional set.
	assert.NotContains(t, enabled, EntityDateTime)
}

func TestLoadPolicy_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"min_confidence": 0.8}`), 0o644))

	policy, err := LoadPolicy(path)

	require.NoError(t, err)
	assert.Equal(t, 0.8, policy.MinConfidence)
	assert.True(t, policy.Enabled)
	assert.Contains(t, policy.PreservePatterns, `INC\d+`)
}

func TestLoadPolicy_MissingFile(t *testing.T) {
	_, err := LoadPolicy(filepath.Join(t.TempDir(), "nope.json"))

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
}

func TestValidate_RejectsBadStrategies(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Policy)
	}{
		{
			name: "unknown strategy",
			mutate: func(p *Policy) {
				p.Strategies[EntityPerson] = StrategyConfig{Strategy: "redact"}
			},
		},
		{
			name: "replace without token",
			mutate: func(p *Policy) {
				p.Strategies[EntityPerson] = StrategyConfig{Strategy: StrategyReplace}
			},
		},
		{
			name: "mask without chars",
			mutate: func(p *Policy) {
				p.Strategies[EntityPerson] = StrategyConfig{Strategy: StrategyMask}
			},
		},
		{
			name: "unsupported hash",
			mutate: func(p *Policy) {
				p.Strategies[EntityPerson] = StrategyConfig{Strategy: StrategyHash, HashType: "md5"}
			},
		},
		{
			name:   "confidence out of range",
			mutate: func(p *Policy) { p.MinConfidence = 1.5 },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			policy := DefaultPolicy()
			tc.mutate(&policy)
			err := policy.Validate()
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
		})
	}
}

func TestStrategyFor_DefaultsToBracketedCategory(t *testing.T) {
	policy := DefaultPolicy()
	delete(policy.Strategies, EntityIBANCode)

	strategy := policy.StrategyFor(EntityIBANCode)

	assert.Equal(t, StrategyReplace, strategy.Strategy)
	assert.Equal(t, "[IBAN_CODE]", strategy.Replacement)
}
