package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks UserStore,Hasher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"authgate/internal/identity/models"
	"authgate/internal/identity/password"
	"authgate/internal/identity/service/mocks"
	userstore "authgate/internal/identity/store/user"
	dErrors "authgate/pkg/domain-errors"
	"authgate/pkg/platform/sentinel"
)

func fastHasher() *password.Hasher {
	return password.NewHasher(password.Params{MemoryKiB: 1024, Iterations: 1, Parallelism: 1})
}

func TestRegisterThenAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := New(userstore.NewMemory(), fastHasher())

	created, err := svc.Register(ctx, "alice", "a@x.com", "pw1-long-enough")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.Name)
	assert.Equal(t, "a@x.com", created.Email)

	authed, err := svc.Authenticate(ctx, "a@x.com", "pw1-long-enough")
	require.NoError(t, err)
	assert.Equal(t, created.ID, authed.ID)
	assert.Equal(t, created.Email, authed.Email)
	assert.Equal(t, created.Name, authed.Name)
}

func TestRegisterUniqueness(t *testing.T) {
	ctx := context.Background()
	svc := New(userstore.NewMemory(), fastHasher())

	_, err := svc.Register(ctx, "alice", "a@x.com", "pw1-long-enough")
	require.NoError(t, err)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, "bob", "a@x.com", "pw2-long-enough")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
		assert.Equal(t, "email already registered", dErrors.MessageOf(err))
	})

	t.Run("duplicate display name", func(t *testing.T) {
		_, err := svc.Register(ctx, "alice", "b@x.com", "pw2-long-enough")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
		assert.Equal(t, "display name already taken", dErrors.MessageOf(err))
	})
}

// Unknown email and wrong password must be indistinguishable to the caller.
func TestAuthenticateUniformFailure(t *testing.T) {
	ctx := context.Background()
	svc := New(userstore.NewMemory(), fastHasher())

	_, err := svc.Register(ctx, "alice", "a@x.com", "pw1-long-enough")
	require.NoError(t, err)

	_, wrongSecret := svc.Authenticate(ctx, "a@x.com", "wrong-password")
	_, unknownEmail := svc.Authenticate(ctx, "nobody@x.com", "whatever-pw")

	require.Error(t, wrongSecret)
	require.Error(t, unknownEmail)
	assert.Equal(t, wrongSecret.Error(), unknownEmail.Error())
	assert.True(t, dErrors.HasCode(wrongSecret, dErrors.CodeUnauthorized))
	assert.True(t, dErrors.HasCode(unknownEmail, dErrors.CodeUnauthorized))
	assert.Equal(t, "Invalid credentials", dErrors.MessageOf(wrongSecret))
}

// Losing the check-then-create race still yields the field-level conflict
// error, driven by the store's constraint violation.
func TestRegisterLosesCreateRace(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	store := mocks.NewMockUserStore(ctrl)
	store.EXPECT().FindByName(gomock.Any(), "bob").Return(nil, sentinel.ErrNotFound)
	store.EXPECT().FindByEmail(gomock.Any(), "b@x.com").Return(nil, sentinel.ErrNotFound)
	store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict)
	// Conflict resolution re-checks which field collided.
	store.EXPECT().FindByName(gomock.Any(), "bob").Return(nil, sentinel.ErrNotFound)

	svc := New(store, fastHasher())

	_, err := svc.Register(ctx, "bob", "b@x.com", "pw1-long-enough")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.Equal(t, "email already registered", dErrors.MessageOf(err))
}

// If the post-conflict re-check fails, the caller still sees a conflict, but
// not one pinned to the wrong field.
func TestRegisterConflictRecheckFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	store := mocks.NewMockUserStore(ctrl)
	store.EXPECT().FindByName(gomock.Any(), "bob").Return(nil, sentinel.ErrNotFound)
	store.EXPECT().FindByEmail(gomock.Any(), "b@x.com").Return(nil, sentinel.ErrNotFound)
	store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict)
	store.EXPECT().FindByName(gomock.Any(), "bob").Return(nil, errors.New("bolt: connection reset"))

	svc := New(store, fastHasher())

	_, err := svc.Register(ctx, "bob", "b@x.com", "pw1-long-enough")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.Equal(t, "identity already exists", dErrors.MessageOf(err))
}

func TestRegisterStoreFailureCreatesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	store := mocks.NewMockUserStore(ctrl)
	store.EXPECT().FindByName(gomock.Any(), gomock.Any()).Return(nil, errors.New("bolt: connection refused"))

	svc := New(store, fastHasher())

	_, err := svc.Register(ctx, "carol", "c@x.com", "pw1-long-enough")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	// The store's failure detail stays out of the caller-safe message.
	assert.NotContains(t, dErrors.MessageOf(err), "bolt")
}

// A malformed stored hash is a login rejection, not a process fault.
func TestAuthenticateMalformedStoredHash(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	corrupted := &models.User{
		ID:             "user-1",
		Name:           "dave",
		Email:          "d@x.com",
		CredentialHash: "not-a-phc-string",
	}
	store := mocks.NewMockUserStore(ctrl)
	store.EXPECT().FindByEmail(gomock.Any(), "d@x.com").Return(corrupted, nil)

	svc := New(store, fastHasher())

	_, err := svc.Authenticate(ctx, "d@x.com", "pw1-long-enough")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Equal(t, "Invalid credentials", dErrors.MessageOf(err))
}

func TestRegisterNormalizesInput(t *testing.T) {
	ctx := context.Background()
	svc := New(userstore.NewMemory(), fastHasher())

	created, err := svc.Register(ctx, "  Erin  ", "ERIN@X.COM", "pw1-long-enough")
	require.NoError(t, err)
	assert.Equal(t, "Erin", created.Name)
	assert.Equal(t, "erin@x.com", created.Email)

	_, err = svc.Authenticate(ctx, "Erin@x.com ", "pw1-long-enough")
	require.NoError(t, err)
}
