package service

import (
	"context"
	"strings"
	"testing"

	"po-manager/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestUserService() (*UserService, *memoryRepo, *fakePublisher) {
	repo := newMemoryRepo()
	events := &fakePublisher{}
	svc := NewUserService(repo, events)
	svc.cost = bcrypt.MinCost
	return svc, repo, events
}

func TestCreateUserAndLogin(t *testing.T) {
	svc, _, events := newTestUserService()
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, &RegisterUserRequest{
		Username: "alice",
		Email:    "Alice@Example.test",
		Password: "correctpass",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.test", user.Email)
	assert.NotEqual(t, "correctpass", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correctpass")))

	require.Equal(t, 1, events.count())
	event := events.events[0].(*models.UserEvent)
	assert.Equal(t, user.ID, event.ActorID)

	got, err := svc.Login(ctx, &LoginRequest{Email: "alice@example.test", Password: "correctpass"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newTestUserService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, &RegisterUserRequest{Username: "alice", Email: "alice@example.test", Password: "correctpass"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &LoginRequest{Email: "alice@example.test", Password: "wrongpass"})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = svc.Login(ctx, &LoginRequest{Email: "nobody@example.test", Password: "correctpass"})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = svc.Login(ctx, &LoginRequest{Email: "alice@example.test"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCreateUserValidation(t *testing.T) {
	svc, _, _ := newTestUserService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, &RegisterUserRequest{Username: "bob", Email: "bob@example.test", Password: "12345"})
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "password", ve.Field)

	_, err = svc.CreateUser(ctx, &RegisterUserRequest{Username: "bob", Email: "bob", Password: "123456"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "email", ve.Field)

	// bcrypt cannot hash more than 72 bytes
	_, err = svc.CreateUser(ctx, &RegisterUserRequest{Username: "bob", Email: "bob@example.test", Password: strings.Repeat("p", 80)})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "password", ve.Field)

	// 30 runes pass the length tag but take 90 bytes
	_, err = svc.CreateUser(ctx, &RegisterUserRequest{Username: "bob", Email: "bob@example.test", Password: strings.Repeat("€", 30)})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "password", ve.Field)

	_, err = svc.CreateUser(ctx, &RegisterUserRequest{Username: "bob", Email: "bob@example.test", Password: "123456"})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, &RegisterUserRequest{Username: "bob", Email: "bob2@example.test", Password: "123456"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "username", ve.Field)
}

func TestUpdateUser(t *testing.T) {
	svc, repo, _ := newTestUserService()
	ctx := context.Background()

	alice, err := svc.CreateUser(ctx, &RegisterUserRequest{Username: "alice", Email: "alice@example.test", Password: "correctpass"})
	require.NoError(t, err)
	repo.seedUser("bob", "bob@example.test")

	updated, err := svc.UpdateUser(ctx, alice.ID, &UpdateUserRequest{Username: " alicia ", Email: "Alicia@Example.test"})
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Username)
	assert.Equal(t, "alicia@example.test", updated.Email)

	// password unchanged when omitted
	_, err = svc.Login(ctx, &LoginRequest{Email: "alicia@example.test", Password: "correctpass"})
	require.NoError(t, err)

	_, err = svc.UpdateUser(ctx, alice.ID, &UpdateUserRequest{Username: "alicia", Email: "alicia@example.test", Password: "newpassword"})
	require.NoError(t, err)
	_, err = svc.Login(ctx, &LoginRequest{Email: "alicia@example.test", Password: "correctpass"})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	_, err = svc.Login(ctx, &LoginRequest{Email: "alicia@example.test", Password: "newpassword"})
	assert.NoError(t, err)

	var ve *models.ValidationError
	_, err = svc.UpdateUser(ctx, alice.ID, &UpdateUserRequest{Username: "bob", Email: "alicia@example.test"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "username", ve.Field)

	_, err = svc.UpdateUser(ctx, alice.ID, &UpdateUserRequest{Username: "alicia", Email: "alicia@example.test", Password: "123"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "password", ve.Field)

	_, err = svc.UpdateUser(ctx, 999, &UpdateUserRequest{Username: "x", Email: "x@example.test"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteUser(t *testing.T) {
	svc, repo, events := newTestUserService()
	ctx := context.Background()

	idle := repo.seedUser("idle", "idle@example.test")
	busy := repo.seedUser("busy", "busy@example.test")
	supplier := repo.seedSupplier("Acme", "sales@acme.test")
	repo.seedOrder(supplier.ID, busy.ID, "PO-2025-0001", models.OrderStatusCancelled, "10")

	require.NoError(t, svc.DeleteUser(WithActor(ctx, busy.ID), idle.ID))
	_, err := svc.GetUser(ctx, idle.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.Equal(t, 1, events.count())
	event := events.events[0].(*models.UserEvent)
	assert.Equal(t, models.EventTypeUserDeleted, event.EventType)
	assert.Equal(t, idle.ID, event.UserID)
	assert.Equal(t, busy.ID, event.ActorID)

	assert.ErrorIs(t, svc.DeleteUser(ctx, busy.ID), models.ErrHasOrders)
	_, err = svc.GetUser(ctx, busy.ID)
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteUser(ctx, 999), models.ErrNotFound)
	assert.Equal(t, 1, events.count())
}
