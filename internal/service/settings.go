package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/pipeline"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/store"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/validation"
)

const (
	SettingDealershipName    = "dealership_name"
	SettingDealershipPhone   = "dealership_phone"
	SettingDealershipEmail   = "dealership_email"
	SettingDealershipAddress = "dealership_address"
	SettingBusinessHours     = "business_hours"
	SettingHeroHeadline      = "hero_headline"
	SettingCommissionPercent = "consignment_commission_percent"
	SettingMinFeeCents       = "consignment_min_fee_cents"
	SettingSMSStatusUpdates  = "sms_notify_status_changes"
)

type settingKind int

const (
	settingText settingKind = iota
	settingPercent
	settingCents
	settingBool
)

type settingDef struct {
	kind   settingKind
	public bool
}

// only these keys can be written; public ones are served to the site
var knownSettings = map[string]settingDef{
	SettingDealershipName:    {kind: settingText, public: true},
	SettingDealershipPhone:   {kind: settingText, public: true},
	SettingDealershipEmail:   {kind: settingText, public: true},
	SettingDealershipAddress: {kind: settingText, public: true},
	SettingBusinessHours:     {kind: settingText, public: true},
	SettingHeroHeadline:      {kind: settingText, public: true},
	SettingCommissionPercent: {kind: settingPercent, public: true},
	SettingMinFeeCents:       {kind: settingCents, public: true},
	SettingSMSStatusUpdates:  {kind: settingBool},
}

func checkSetting(key, value string) error {
	def, ok := knownSettings[key]
	if !ok {
		return validation.FieldError(key, "is not a known setting")
	}

	switch def.kind {
	case settingText:
		if len(value) > 2000 {
			return validation.FieldError(key, "must have at most 2000 characters")
		}
	case settingPercent:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > 100 {
			return validation.FieldError(key, "must be a percentage between 0 and 100")
		}
	case settingCents:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 {
			return validation.FieldError(key, "must be a non-negative amount in cents")
		}
	case settingBool:
		if _, err := strconv.ParseBool(value); err != nil {
			return validation.FieldError(key, "must be true or false")
		}
	}
	return nil
}

// Settings returns every setting as a key/value map
func (s *Service) Settings(ctx context.Context) (map[string]string, error) {
	settings, err := s.store.ListSettings(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(settings))
	for _, st := range settings {
		out[st.Key] = st.Value
	}
	return out, nil
}

// PublicSettings is the subset the public site may read
func (s *Service) PublicSettings(ctx context.Context) (map[string]string, error) {
	all, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}

	out := map[string]string{}
	for k, v := range all {
		if knownSettings[k].public {
			out[k] = v
		}
	}
	return out, nil
}

// UpdateSettings validates every pair before writing any of them
func (s *Service) UpdateSettings(ctx context.Context, values map[string]string) (map[string]string, error) {
	verr := &validation.Error{Fields: map[string]string{}}
	for k, v := range values {
		var fe *validation.Error
		if err := checkSetting(k, v); errors.As(err, &fe) {
			for f, msg := range fe.Fields {
				verr.Fields[f] = msg
			}
		}
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	for k, v := range values {
		if _, err := s.store.PutSetting(ctx, k, v); err != nil {
			return nil, fmt.Errorf("put setting %s: %w", k, err)
		}
	}
	return s.Settings(ctx)
}

func (s *Service) setting(ctx context.Context, key string) (string, bool) {
	st, err := s.store.GetSetting(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.WithError(err).WithField("key", key).Warn("read setting")
		}
		return "", false
	}
	return st.Value, true
}

// terms reads the consignment terms, falling back to the defaults for anything unset or unreadable
func (s *Service) terms(ctx context.Context) pipeline.Terms {
	t := pipeline.DefaultTerms()

	if v, ok := s.setting(ctx, SettingCommissionPercent); ok && checkSetting(SettingCommissionPercent, v) == nil {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			t.CommissionPercent = f
		}
	}
	if v, ok := s.setting(ctx, SettingMinFeeCents); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			t.MinFeeCents = n
		}
	}
	return t
}

func (s *Service) statusTextsEnabled(ctx context.Context) bool {
	v, ok := s.setting(ctx, SettingSMSStatusUpdates)
	if !ok {
		return true
	}
	b, err := strconv.ParseBool(v)
	return err != nil || b
}

func (s *Service) dealershipName(ctx context.Context) string {
	if v, ok := s.setting(ctx, SettingDealershipName); ok && v != "" {
		return v
	}
	return "Acme Motors"
}
