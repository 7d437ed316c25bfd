package service

import (
	"context"
	"encoding/base64"
	"errors"
	"image/color"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-live/profile-service/internal/blob"
	"github.com/weiawesome/wes-io-live/profile-service/internal/domain"
	"github.com/weiawesome/wes-io-live/profile-service/pkg/pubsub"
)

type userFixture struct {
	svc      UserService
	repo     *fakeUserRepo
	profiles *fakeProfileClient
	mailer   *fakeMailer
	events   *fakeEmitter
}

func newUserFixture() *userFixture {
	f := &userFixture{
		repo:     &fakeUserRepo{},
		profiles: newFakeProfileClient(),
		mailer:   &fakeMailer{},
		events:   &fakeEmitter{},
	}
	f.svc = NewUserService(f.repo, f.profiles, f.mailer, f.events, zerolog.Nop())
	return f
}

func TestCreateUser_Success(t *testing.T) {
	f := newUserFixture()

	user, err := f.svc.CreateUser(context.Background(), "Ann", "Ann@X.com")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "Ann", user.Name)
	assert.Equal(t, "ann@x.com", user.Email)

	assert.Equal(t, []string{"ann@x.com"}, f.mailer.sent)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, pubsub.TopicUserCreated, f.events.events[0].topic)
	assert.Equal(t, user.ID, f.events.events[0].key)
	assert.Equal(t, pubsub.UserCreatedPayload{UserID: user.ID, Email: "ann@x.com"}, f.events.events[0].payload)
}

func TestCreateUser_DuplicateRejected(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	_, err := f.svc.CreateUser(ctx, "Ann", "ann@x.com")
	require.NoError(t, err)

	_, err = f.svc.CreateUser(ctx, "Ann Again", "ANN@x.com")
	require.ErrorIs(t, err, domain.ErrDuplicateUser)
	assert.Equal(t, "This user has already been registered", err.Error())

	found, err := f.repo.FindByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Len(t, f.mailer.sent, 1)
	assert.Len(t, f.events.events, 1)
}

// racingUserRepo hides existing rows from FindByEmail so Insert's unique
// constraint is the one that fires.
type racingUserRepo struct {
	*fakeUserRepo
}

func (r *racingUserRepo) FindByEmail(context.Context, string) ([]*domain.User, error) {
	return nil, nil
}

func TestCreateUser_UniqueViolationMapsToDuplicate(t *testing.T) {
	repo := &racingUserRepo{fakeUserRepo: &fakeUserRepo{}}
	svc := NewUserService(repo, newFakeProfileClient(), &fakeMailer{}, &fakeEmitter{}, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "Ann", "ann@x.com")
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, "Ann", "ann@x.com")
	assert.ErrorIs(t, err, domain.ErrDuplicateUser)
}

func TestCreateUser_NotificationFailuresAreIsolated(t *testing.T) {
	f := newUserFixture()
	f.mailer.err = errors.New("smtp down")
	f.events.err = errors.New("broker down")

	user, err := f.svc.CreateUser(context.Background(), "Ann", "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", user.Email)

	found, err := f.repo.FindByEmail(context.Background(), "ann@x.com")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestCreateUser_InvalidInput(t *testing.T) {
	f := newUserFixture()

	_, err := f.svc.CreateUser(context.Background(), "", "ann@x.com")
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "name", vErr.Field)

	_, err = f.svc.CreateUser(context.Background(), "Ann", "nope")
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "email", vErr.Field)

	assert.Empty(t, f.repo.users)
}

func TestCreateUser_RegistryFailure(t *testing.T) {
	f := newUserFixture()
	f.repo.insertErr = &domain.StoreError{Store: "registry", Op: "insert", Err: errors.New("db down")}

	_, err := f.svc.CreateUser(context.Background(), "Ann", "ann@x.com")
	var sErr *domain.StoreError
	require.ErrorAs(t, err, &sErr)
	assert.Empty(t, f.mailer.sent)
	assert.Empty(t, f.events.events)
}

func TestGetUserByID(t *testing.T) {
	f := newUserFixture()
	f.profiles.images["2"] = []byte("x")

	p, err := f.svc.GetUserByID(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, "2@reqres.in", p.Email)

	_, err = f.svc.GetUserByID(context.Background(), "404")
	var rErr *domain.RemoteFetchError
	assert.ErrorAs(t, err, &rErr)
}

func TestUserAvatarLifecycle(t *testing.T) {
	users := newUserFixture()
	avatars := newAvatarFixture(t, true)
	ctx := context.Background()

	user, err := users.svc.CreateUser(ctx, "Ann", "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Ann", user.Name)

	_, err = users.svc.CreateUser(ctx, "Ann", "ann@x.com")
	require.ErrorContains(t, err, "already been registered")

	img := pngBytes(t, color.White)
	avatars.profiles.images[user.ID] = img

	got, err := avatars.svc.GetAvatar(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(img), got)
	profileCalls, bytesCalls := avatars.profiles.calls()
	assert.Equal(t, 1, profileCalls)
	assert.Equal(t, 1, bytesCalls)
	assert.Equal(t, 1, avatars.blobs.writes)
	assert.Len(t, avatars.meta.records, 1)

	require.NoError(t, avatars.svc.DeleteAvatar(ctx, user.ID))
	assert.Empty(t, avatars.meta.records)
	ok, err := avatars.blobs.Exists(ctx, blob.Hash(img))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = avatars.svc.GetAvatar(ctx, user.ID)
	require.NoError(t, err)
	profileCalls, _ = avatars.profiles.calls()
	assert.Equal(t, 2, profileCalls)
}
