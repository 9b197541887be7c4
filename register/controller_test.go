package register_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/cafoot/client/accounts"
	"github.com/cafoot/client/internal/notify"
	"github.com/cafoot/client/internal/pkg/log"
	"github.com/cafoot/client/internal/state"
	"github.com/cafoot/client/internal/storage"
	"github.com/cafoot/client/internal/testutil"
	"github.com/cafoot/client/internal/types"
	"github.com/cafoot/client/register"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	goleak.VerifyTestMain(m)
}

// ttlStore records the ttl of every Set
type ttlStore struct {
	storage.Store
	mu   sync.Mutex
	ttls map[string]time.Duration
}

func (s *ttlStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.ttls[key] = ttl
	s.mu.Unlock()
	return s.Store.Set(ctx, key, value, ttl)
}

func (s *ttlStore) ttl(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ttls[key]
}

type fixture struct {
	registrar *testutil.FakeRegistrar
	identity  *state.Slot[accounts.User]
	store     *ttlStore
	notifier  *notify.Notifier
	nav       *testutil.RecordingNavigator
	form      *register.Controller
}

func newFixture(t *testing.T, registrar *testutil.FakeRegistrar, opts ...register.Option) *fixture {
	t.Helper()
	f := &fixture{
		registrar: registrar,
		identity:  state.NewSlot[accounts.User](),
		store:     &ttlStore{Store: storage.NewMemoryStore(), ttls: map[string]time.Duration{}},
		notifier:  notify.New(time.Minute),
		nav:       testutil.NewRecordingNavigator(),
	}
	form, err := register.NewController(register.Dependencies{
		Registrar: f.registrar,
		Identity:  f.identity,
		Store:     f.store,
		Notifier:  f.notifier,
		Navigator: f.nav,
	}, opts...)
	require.NoError(t, err)
	f.form = form
	t.Cleanup(func() {
		form.Close()
		f.notifier.Stop()
		if task := form.Redirect(); task != nil {
			<-task.Done()
		}
	})
	return f
}

func (f *fixture) token(t *testing.T) (string, error) {
	t.Helper()
	return storage.GetString(context.Background(), f.store, types.TokenStorageKey)
}

func janeResponse() *accounts.RegisterResponse {
	return &accounts.RegisterResponse{
		User:  accounts.User(`{"id":1,"name":"Jane"}`),
		Token: "abc123",
	}
}

func janeDraft() register.Draft {
	return register.Draft{
		FullName:        "Jane Doe",
		Email:           "jane@x.io",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestNewController_RequiresDependencies(t *testing.T) {
	_, err := register.NewController(register.Dependencies{})
	assert.Error(t, err)

	_, err = register.NewController(register.Dependencies{
		Registrar: testutil.NewFakeRegistrar(nil, nil),
		Identity:  state.NewSlot[accounts.User](),
		Store:     storage.NewMemoryStore(),
		Notifier:  notify.New(0),
	})
	assert.ErrorContains(t, err, "navigator")
}

func TestSubmit_PasswordMismatch(t *testing.T) {
	f := newFixture(t, testutil.NewFakeRegistrar(janeResponse(), nil))

	d := janeDraft()
	d.ConfirmPassword = "secret2"
	err := f.form.Submit(context.Background(), d)

	assert.ErrorIs(t, err, register.ErrPasswordMismatch)
	assert.Equal(t, 0, f.registrar.CallCount())
	assert.Equal(t, notify.Notification{
		Message:  register.MessagePasswordMismatch,
		Severity: notify.SeverityError,
		Visible:  true,
	}, f.notifier.Current())
	assert.Equal(t, register.Idle, f.form.State())
	assert.Equal(t, register.Idle, f.form.LastOutcome())
	assert.Equal(t, d, f.form.Draft(), "draft keeps what the user typed")

	_, ok := f.identity.Get()
	assert.False(t, ok)
	_, err = f.token(t)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
	assert.Empty(t, f.nav.Destinations())
}

func TestSubmit_Success(t *testing.T) {
	f := newFixture(t, testutil.NewFakeRegistrar(janeResponse(), nil),
		register.WithRedirectDelay(20*time.Millisecond))

	require.NoError(t, f.form.Submit(context.Background(), janeDraft()))

	assert.Equal(t, &accounts.RegisterRequest{
		FullName: "Jane Doe",
		Email:    "jane@x.io",
		Password: "secret1",
	}, f.registrar.LastCall())
	assert.Equal(t, 1, f.registrar.CallCount())

	user, ok := f.identity.Get()
	require.True(t, ok)
	assert.JSONEq(t, `{"id":1,"name":"Jane"}`, user.String())

	token, err := f.token(t)
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)
	assert.Zero(t, f.store.ttl(types.TokenStorageKey), "opaque tokens are stored without expiry")

	assert.Equal(t, notify.Notification{
		Message:  register.MessageSuccess,
		Severity: notify.SeveritySuccess,
		Visible:  true,
	}, f.notifier.Current())

	assert.Equal(t, register.Idle, f.form.State())
	assert.Equal(t, register.Succeeded, f.form.LastOutcome())

	require.True(t, f.nav.WaitFor(types.RouteDashboard, 2*time.Second))
	<-f.form.Redirect().Done()
	assert.Equal(t, []string{types.RouteDashboard}, f.nav.Destinations())
}

func TestSubmit_RedirectWaitsForDelay(t *testing.T) {
	f := newFixture(t, testutil.NewFakeRegistrar(janeResponse(), nil),
		register.WithRedirectDelay(300*time.Millisecond))

	start := time.Now()
	require.NoError(t, f.form.Submit(context.Background(), janeDraft()))
	assert.Empty(t, f.nav.Destinations())

	require.True(t, f.nav.WaitFor(types.RouteDashboard, 2*time.Second))
	assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)
}

func TestSubmit_StoresTokenWithExpiry(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": now.Add(time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	resp := janeResponse()
	resp.Token = signed
	f := newFixture(t, testutil.NewFakeRegistrar(resp, nil),
		register.WithClock(func() time.Time { return now }))

	require.NoError(t, f.form.Submit(context.Background(), janeDraft()))

	assert.Equal(t, time.Hour, f.store.ttl(types.TokenStorageKey))
	token, err := f.token(t)
	require.NoError(t, err)
	assert.Equal(t, signed, token)
}

func TestSubmit_Failure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "service message",
			err:  &accounts.ServiceError{StatusCode: 409, Code: accounts.CodeUserAlreadyExists, Message: "Email already in use"},
			want: "Email already in use",
		},
		{
			name: "service error without message",
			err:  &accounts.ServiceError{StatusCode: 500},
			want: register.MessageFailureFallback,
		},
		{
			name: "transport error",
			err:  accounts.ErrTransport,
			want: register.MessageFailureFallback,
		},
		{
			name: "unexpected error",
			err:  errors.New("boom"),
			want: register.MessageFailureFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testutil.NewFakeRegistrar(nil, tt.err),
				register.WithRedirectDelay(10*time.Millisecond))

			err := f.form.Submit(context.Background(), janeDraft())
			assert.ErrorIs(t, err, tt.err)

			assert.Equal(t, notify.Notification{
				Message:  tt.want,
				Severity: notify.SeverityError,
				Visible:  true,
			}, f.notifier.Current())
			assert.Equal(t, register.Idle, f.form.State())
			assert.Equal(t, register.Failed, f.form.LastOutcome())
			assert.Nil(t, f.form.Redirect())

			_, ok := f.identity.Get()
			assert.False(t, ok)
			_, err = f.token(t)
			assert.ErrorIs(t, err, storage.ErrKeyNotFound)
			assert.Empty(t, f.nav.Destinations())
		})
	}
}

func TestSubmit_TokenStoreFailure(t *testing.T) {
	f := newFixture(t, testutil.NewFakeRegistrar(janeResponse(), nil),
		register.WithRedirectDelay(10*time.Millisecond))
	require.NoError(t, f.store.Close())

	err := f.form.Submit(context.Background(), janeDraft())
	assert.ErrorIs(t, err, register.ErrTokenNotPersisted)

	_, ok := f.identity.Get()
	assert.True(t, ok, "identity is published before the token is stored")
	assert.Equal(t, register.MessageFailureFallback, f.notifier.Current().Message)
	assert.Equal(t, register.Failed, f.form.LastOutcome())
	assert.Nil(t, f.form.Redirect())
}

func TestSubmit_RejectsWhileInFlight(t *testing.T) {
	registrar := testutil.NewFakeRegistrar(janeResponse(), nil)
	release := registrar.Hold()
	f := newFixture(t, registrar, register.WithRedirectDelay(10*time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- f.form.Submit(context.Background(), janeDraft()) }()
	<-registrar.Started()

	assert.Equal(t, register.Submitting, f.form.State())
	assert.True(t, f.form.Submitting())

	err := f.form.Submit(context.Background(), janeDraft())
	assert.ErrorIs(t, err, register.ErrSubmissionInFlight)

	// mismatched passwords are not even checked while a request is in flight
	d := janeDraft()
	d.ConfirmPassword = "other"
	assert.ErrorIs(t, f.form.Submit(context.Background(), d), register.ErrSubmissionInFlight)
	assert.False(t, f.notifier.Current().Visible)

	release()
	require.NoError(t, <-done)
	assert.Equal(t, 1, registrar.CallCount())
	assert.Equal(t, register.Idle, f.form.State())
}

func TestSubmit_CancelledContext(t *testing.T) {
	registrar := testutil.NewFakeRegistrar(janeResponse(), nil)
	release := registrar.Hold()
	defer release()
	f := newFixture(t, registrar)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.form.Submit(ctx, janeDraft()) }()
	<-registrar.Started()
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, register.MessageFailureFallback, f.notifier.Current().Message)
	assert.Equal(t, register.Idle, f.form.State())
}

func TestSubmit_PanicReturnsToIdle(t *testing.T) {
	registrar := testutil.NewFakeRegistrar(janeResponse(), nil)
	registrar.Panic = "registrar exploded"
	f := newFixture(t, registrar)

	assert.PanicsWithValue(t, "registrar exploded", func() {
		_ = f.form.Submit(context.Background(), janeDraft())
	})
	assert.Equal(t, register.Idle, f.form.State())
	assert.Equal(t, register.Failed, f.form.LastOutcome())

	registrar.Panic = nil
	assert.NoError(t, f.form.Submit(context.Background(), janeDraft()), "form accepts a new submission")
}

func TestSubmitDraft(t *testing.T) {
	f := newFixture(t, testutil.NewFakeRegistrar(janeResponse(), nil))

	f.form.SetDraft(janeDraft())
	f.form.UpdateDraft(func(d *register.Draft) {
		d.Email = "doe@x.io"
	})
	require.NoError(t, f.form.SubmitDraft(context.Background()))
	assert.Equal(t, "doe@x.io", f.registrar.LastCall().Email)
}

func TestClose_CancelsPendingRedirect(t *testing.T) {
	f := newFixture(t, testutil.NewFakeRegistrar(janeResponse(), nil),
		register.WithRedirectDelay(50*time.Millisecond))

	require.NoError(t, f.form.Submit(context.Background(), janeDraft()))
	task := f.form.Redirect()
	require.NotNil(t, task)

	f.form.Close()
	assert.True(t, task.Cancelled())
	assert.False(t, f.notifier.Current().Visible)

	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, f.nav.Destinations())
	assert.ErrorIs(t, f.form.Submit(context.Background(), janeDraft()), register.ErrClosed)
}

func TestClose_WhileInFlight(t *testing.T) {
	registrar := testutil.NewFakeRegistrar(janeResponse(), nil)
	release := registrar.Hold()
	f := newFixture(t, registrar, register.WithRedirectDelay(10*time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- f.form.Submit(context.Background(), janeDraft()) }()
	<-registrar.Started()

	f.form.Close()
	release()
	require.NoError(t, <-done)

	_, ok := f.identity.Get()
	assert.True(t, ok)
	token, err := f.token(t)
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	assert.Empty(t, f.notifier.Current().Message)
	assert.Nil(t, f.form.Redirect())
	assert.Empty(t, f.nav.Destinations())
}

func TestGoToLogin(t *testing.T) {
	f := newFixture(t, testutil.NewFakeRegistrar(nil, nil))

	f.form.GoToLogin()
	assert.Equal(t, []string{types.RouteLogin}, f.nav.Destinations())
	assert.Equal(t, 0, f.registrar.CallCount())
}

func TestCloseNotification(t *testing.T) {
	f := newFixture(t, testutil.NewFakeRegistrar(nil, nil))

	d := janeDraft()
	d.ConfirmPassword = "nope"
	_ = f.form.Submit(context.Background(), d)
	require.True(t, f.notifier.Current().Visible)

	f.form.CloseNotification()
	assert.False(t, f.notifier.Current().Visible)
	assert.Equal(t, register.MessagePasswordMismatch, f.notifier.Current().Message)
}

func TestNotificationAutoDismiss(t *testing.T) {
	registrar := testutil.NewFakeRegistrar(nil, nil)
	n := notify.New(30 * time.Millisecond)
	defer n.Stop()
	form, err := register.NewController(register.Dependencies{
		Registrar: registrar,
		Identity:  state.NewSlot[accounts.User](),
		Store:     storage.NewMemoryStore(),
		Notifier:  n,
		Navigator: testutil.NewRecordingNavigator(),
	})
	require.NoError(t, err)
	defer form.Close()

	d := janeDraft()
	d.ConfirmPassword = "nope"
	_ = form.Submit(context.Background(), d)

	assert.Eventually(t, func() bool {
		return !n.Current().Visible
	}, time.Second, 5*time.Millisecond)
}

func TestTogglePasswordVisibility(t *testing.T) {
	f := newFixture(t, testutil.NewFakeRegistrar(nil, nil))
	f.form.SetDraft(janeDraft())

	assert.False(t, f.form.PasswordVisible())
	assert.True(t, f.form.TogglePasswordVisibility())
	assert.True(t, f.form.PasswordVisible())
	assert.False(t, f.form.TogglePasswordVisibility())
	assert.Equal(t, janeDraft(), f.form.Draft())
}

func TestSubmissionState_String(t *testing.T) {
	assert.Equal(t, "idle", register.Idle.String())
	assert.Equal(t, "submitting", register.Submitting.String())
	assert.Equal(t, "succeeded", register.Succeeded.String())
	assert.Equal(t, "failed", register.Failed.String())
	assert.Equal(t, "unknown", register.SubmissionState(42).String())
}
