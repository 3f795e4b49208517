package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"availability-service/internal/models"
	"availability-service/internal/services"
	"availability-service/internal/store"
)

func TestSaveProfileAndGetByID(t *testing.T) {
	svc := services.NewUserService(store.NewMemoryStore())
	ctx := context.Background()

	in := models.User{ID: "u1", Username: "Alice", Email: "alice@example.com"}
	require.NoError(t, svc.SaveProfile(ctx, in))

	got, err := svc.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "Alice", got.Username)
	require.Equal(t, "alice@example.com", got.Email)
	require.False(t, got.FreeNow)
}

func TestGetByIDMissing(t *testing.T) {
	svc := services.NewUserService(store.NewMemoryStore())

	_, err := svc.GetByID(context.Background(), "nope")
	require.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestSaveProfileUpsertsInPlace(t *testing.T) {
	svc := services.NewUserService(store.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, svc.SaveProfile(ctx, models.User{ID: "u1", Username: "Alice", Email: "alice@example.com"}))
	require.NoError(t, svc.SaveProfile(ctx, models.User{ID: "u1", Username: "Alicia", Email: "alice@example.com"}))

	got, err := svc.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "Alicia", got.Username)
}

func TestFindByEmail(t *testing.T) {
	svc := services.NewUserService(store.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, svc.SaveProfile(ctx, models.User{ID: "u1", Username: "Alice", Email: "alice@example.com"}))
	require.NoError(t, svc.SaveProfile(ctx, models.User{ID: "u2", Username: "Bob", Email: "bob@example.com"}))

	got, err := svc.FindByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	require.Equal(t, "u2", got.ID)

	_, err = svc.FindByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestSetFreeNow(t *testing.T) {
	svc := services.NewUserService(store.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, svc.SaveProfile(ctx, models.User{ID: "u1", Username: "Alice", Email: "alice@example.com"}))
	require.NoError(t, svc.SetFreeNow(ctx, "u1", true))

	got, err := svc.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.True(t, got.FreeNow)

	// The rest of the profile survives the flag flip.
	require.Equal(t, "Alice", got.Username)

	require.ErrorIs(t, svc.SetFreeNow(ctx, "ghost", true), services.ErrUserNotFound)
}
