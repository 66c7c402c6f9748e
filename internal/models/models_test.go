package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsScan(t *testing.T) {
	t.Run("missing keys keep defaults", func(t *testing.T) {
		var s Settings
		require.NoError(t, s.Scan([]byte(`{"darkModeEnabled":true}`)))

		assert.True(t, s.DarkModeEnabled)
		assert.Equal(t, DetectionModeReformulate, s.DetectionMode)
		assert.Equal(t, []string{"racisme", "sexisme", "religieux"}, s.BlockedCategories)
		assert.True(t, s.NotificationSettings.Methods.Push)
	})

	t.Run("null column yields defaults", func(t *testing.T) {
		var s Settings
		require.NoError(t, s.Scan(nil))
		assert.Equal(t, DefaultSettings(), s)
	})

	t.Run("unsupported type", func(t *testing.T) {
		var s Settings
		assert.Error(t, s.Scan(42))
	})
}

func TestMergeSettings(t *testing.T) {
	merged, err := MergeSettings(DefaultSettings(), json.RawMessage(`{"detectionMode":"block","language":"العربية"}`))
	require.NoError(t, err)

	assert.Equal(t, DetectionModeBlock, merged.DetectionMode)
	assert.Equal(t, "العربية", merged.Language)
	assert.Equal(t, ReformulationNeutralization, merged.ReformulationStyle)
	assert.Empty(t, merged.Validate())

	merged.ReformulationStyle = "sarcasm"
	errs := merged.Validate()
	require.Len(t, errs, 1)
	assert.Equal(t, "reformulationStyle", errs[0].Field)
}

func TestLinkCodeFromPublicID(t *testing.T) {
	assert.Equal(t, "ABC123", LinkCodeFromPublicID("6ba7b810-9dad-11d1-80b4-00c04fabc123"))
	assert.Equal(t, "AB", LinkCodeFromPublicID("ab"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "court", Truncate("court", 50))
	assert.Equal(t, "éééé...", Truncate("éééééé", 4))
}

func TestUserProfile(t *testing.T) {
	u := &User{ID: 7, Name: "Lina", Points: 45, Level: 2, TotalAnalyzed: 3, TotalTransformed: 1}
	p := u.ToProfile(nil, nil)

	assert.Equal(t, 45, p.Points)
	assert.Equal(t, 45, p.Stats.TotalPoints)
	assert.Equal(t, 3, p.Stats.TotalAnalyzed)
	assert.NotNil(t, p.Badges)
	assert.NotNil(t, p.LinkedChildren)
}

func TestProgressCountersValueFor(t *testing.T) {
	c := ProgressCounters{TotalAnalyzed: 1, TotalTransformed: 2, StreakDays: 3, LinkedChildren: 4, Points: 5}
	assert.Equal(t, 1, c.ValueFor(BadgeCategoryDetection))
	assert.Equal(t, 2, c.ValueFor(BadgeCategoryReformulation))
	assert.Equal(t, 3, c.ValueFor(BadgeCategoryStreak))
	assert.Equal(t, 4, c.ValueFor(BadgeCategorySocial))
	assert.Equal(t, 5, c.ValueFor(BadgeCategorySpecial))
	assert.Equal(t, 0, c.ValueFor("unknown"))
}
