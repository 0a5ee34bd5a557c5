package service

import (
	"context"
	"testing"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/pipeline"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateSettings(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()

	got, err := ts.UpdateSettings(ctx, map[string]string{
		SettingDealershipName:    "Acme Motors of Marin",
		SettingCommissionPercent: "7.5",
		SettingSMSStatusUpdates:  "false",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Motors of Marin", got[SettingDealershipName])

	public, err := ts.PublicSettings(ctx)
	require.NoError(t, err)
	assert.Contains(t, public, SettingCommissionPercent)
	assert.NotContains(t, public, SettingSMSStatusUpdates)

	assert.Equal(t, pipeline.Terms{CommissionPercent: 7.5, MinFeeCents: pipeline.DefaultMinFeeCents}, ts.ConsignmentTerms(ctx))
	assert.False(t, ts.statusTextsEnabled(ctx))
}

func TestUpdateSettingsRejectsEverythingOnOneBadValue(t *testing.T) {
	ts := newTestService(t)

	_, err := ts.UpdateSettings(context.Background(), map[string]string{
		SettingDealershipName:    "New Name",
		SettingCommissionPercent: "140",
		"favorite_color":         "red",
	})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
	assert.Empty(t, ts.store.settings, "nothing is written")
}

func TestCheckSetting(t *testing.T) {
	tests := []struct {
		key, value string
		ok         bool
	}{
		{SettingCommissionPercent, "0", true},
		{SettingCommissionPercent, "-1", false},
		{SettingCommissionPercent, "12.5", true},
		{SettingCommissionPercent, "NaN", false},
		{SettingCommissionPercent, "+Inf", false},
		{SettingMinFeeCents, "150000", true},
		{SettingMinFeeCents, "1500.00", false},
		{SettingSMSStatusUpdates, "true", true},
		{SettingSMSStatusUpdates, "yes", false},
		{SettingHeroHeadline, "Drive something remarkable", true},
		{"unknown", "x", false},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			err := checkSetting(tt.key, tt.value)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestConsignmentTermsIgnoresStoredNaN(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()

	_, err := ts.UpdateSettings(ctx, map[string]string{SettingCommissionPercent: "NaN"})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)

	// an unusable stored value falls back to the default
	ts.store.settings[SettingCommissionPercent] = "NaN"
	assert.Equal(t, pipeline.DefaultTerms(), ts.ConsignmentTerms(ctx))
}
