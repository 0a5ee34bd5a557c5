package store

import "context"

func (s *store) GetSetting(ctx context.Context, key string) (*Setting, error) {
	st := &Setting{
		Key: key,
	}
	return st, s.store.Select(ctx, st, SettingsGetByKey)
}

func (s *store) ListSettings(ctx context.Context) ([]Setting, error) {
	settings := []Setting{}
	err := s.store.SelectAll(ctx, &Setting{}, &settings, SettingsGetAll, all())
	return settings, err
}

func (s *store) PutSetting(ctx context.Context, key, value string) (*Setting, error) {
	st := &Setting{
		Key:   key,
		Value: value,
	}
	return st, s.store.Insert(ctx, st)
}
