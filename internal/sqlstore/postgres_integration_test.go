//go:build integration

package sqlstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staff-ride-router/internal/models"
)

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := NewPostgres(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, DialectPostgres, s.Dialect())

	created, err := s.Staff().Create(ctx, &models.StaffMember{Name: "Integration", Address: "Ridge", Lat: 5.56, Lng: -0.2})
	require.NoError(t, err)
	defer s.Staff().Delete(ctx, created.ID)

	found, err := s.Staff().List(ctx, "integration")
	require.NoError(t, err)
	assert.NotEmpty(t, found)

	settings, err := s.Settings().Get(ctx)
	require.NoError(t, err)
	assert.Greater(t, settings.MaxPassengers, 0)

	run, err := s.Runs().Create(ctx, &models.Run{RunID: time.Now().Format(time.RFC3339Nano), Params: *settings},
		[]models.RunAssignment{{RouteName: "Route 1", StaffID: created.ID, Lat: 5.56, Lng: -0.2}})
	require.NoError(t, err)

	_, rows, err := s.Runs().GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	require.NoError(t, s.Runs().Delete(ctx, run.ID))
}
