package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(FS(), "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		b, err := fs.ReadFile(FS(), f)
		require.NoError(t, err)

		sql := string(b)
		assert.True(t, strings.HasPrefix(sql, "-- +goose Up"), "%s starts with its up block", f)
		assert.Contains(t, sql, "-- +goose Down", "%s can be rolled back", f)
	}
}

func TestEveryTableIsCreated(t *testing.T) {
	b, err := fs.ReadFile(FS(), "00001_init.sql")
	require.NoError(t, err)

	for _, table := range []string{
		"users", "vehicles", "consignments", "consignment_documents", "inquiries", "credit_applications",
		"lead_activities", "sms_messages", "push_subscriptions", "push_broadcasts", "notifications", "site_settings",
	} {
		assert.Contains(t, string(b), "CREATE TABLE "+table+" (")
	}
}
