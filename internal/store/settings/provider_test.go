package settings_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/5w1tchy/pwcheck-api/internal/security/password"
	"github.com/5w1tchy/pwcheck-api/internal/store/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBackend struct {
	rows map[string]settings.Settings
	gets int
	fail error
}

func newFakeBackend() *fakeBackend { return &fakeBackend{rows: map[string]settings.Settings{}} }

func (f *fakeBackend) Get(_ context.Context, sid string) (settings.Settings, error) {
	f.gets++
	if f.fail != nil {
		return settings.Settings{}, f.fail
	}
	s, ok := f.rows[sid]
	if !ok {
		return settings.Settings{}, settings.ErrNotFound
	}
	return s, nil
}

func (f *fakeBackend) row(sid string) settings.Settings {
	s, ok := f.rows[sid]
	if !ok {
		s = settings.Defaults(sid)
	}
	return s
}

func (f *fakeBackend) SaveProfile(_ context.Context, sid string, p password.Profile) error {
	s := f.row(sid)
	s.Profile = p
	f.rows[sid] = s
	return nil
}

func (f *fakeBackend) SetWordlistEnabled(_ context.Context, sid string, enabled bool) error {
	s := f.row(sid)
	s.WordlistEnabled = enabled
	f.rows[sid] = s
	return nil
}

func (f *fakeBackend) ToggleWordlist(_ context.Context, sid string) (bool, error) {
	s := f.row(sid)
	s.WordlistEnabled = !s.WordlistEnabled
	f.rows[sid] = s
	return s.WordlistEnabled, nil
}

func (f *fakeBackend) Delete(_ context.Context, sid string) error {
	delete(f.rows, sid)
	return nil
}

func TestProvider_DefaultsWhenMissing(t *testing.T) {
	p := settings.NewProvider(newFakeBackend(), nil, password.DefaultWordlist(), zap.NewNop())

	cfg, err := p.Config(t.Context(), "s-1")
	require.NoError(t, err)
	assert.True(t, cfg.Profile.IsEmpty())
	assert.False(t, cfg.Wordlist.Enabled)
	assert.Equal(t, len(password.SeedWords()), cfg.Wordlist.Len())
}

func TestProvider_CachesReads(t *testing.T) {
	be := newFakeBackend()
	p := settings.NewProvider(be, nil, password.DefaultWordlist(), zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := p.Settings(t.Context(), "s-1")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, be.gets)
}

func TestProvider_WritesInvalidate(t *testing.T) {
	be := newFakeBackend()
	p := settings.NewProvider(be, nil, password.DefaultWordlist(), zap.NewNop())
	ctx := t.Context()

	_, err := p.Config(ctx, "s-1")
	require.NoError(t, err)

	s, err := p.SaveProfile(ctx, "s-1", password.NewProfile(map[password.Field]string{password.FieldName: "Nino"}))
	require.NoError(t, err)
	v, _ := s.Profile.Get(password.FieldName)
	assert.Equal(t, "Nino", v)

	s, err = p.ToggleWordlist(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, s.WordlistEnabled)

	cfg, err := p.Config(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, cfg.Wordlist.Enabled)
	assert.Contains(t, password.Analyze("nino1234", cfg).Weaknesses, "Contains personal information: name 'Nino'")

	s, err = p.SetWordlistEnabled(ctx, "s-1", false)
	require.NoError(t, err)
	assert.False(t, s.WordlistEnabled)

	require.NoError(t, p.Reset(ctx, "s-1"))
	s, err = p.Settings(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults("s-1"), s)
}

func TestProvider_BackendErrorSurfaces(t *testing.T) {
	be := newFakeBackend()
	be.fail = errors.New("db down")
	p := settings.NewProvider(be, nil, password.DefaultWordlist(), zap.NewNop())

	_, err := p.Config(t.Context(), "s-1")
	assert.ErrorIs(t, err, be.fail)
}

// slowFirstRead holds its first Get after taking the row snapshot, so a write
// can land while that read is in flight.
type slowFirstRead struct {
	*fakeBackend
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (b *slowFirstRead) Get(ctx context.Context, sid string) (settings.Settings, error) {
	b.mu.Lock()
	b.calls++
	first := b.calls == 1
	s, err := b.fakeBackend.Get(ctx, sid)
	b.mu.Unlock()
	if first {
		close(b.entered)
		<-b.release
	}
	return s, err
}

func (b *slowFirstRead) SaveProfile(ctx context.Context, sid string, p password.Profile) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fakeBackend.SaveProfile(ctx, sid, p)
}

func TestProvider_InFlightReadDoesNotOutliveWrite(t *testing.T) {
	be := &slowFirstRead{
		fakeBackend: newFakeBackend(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	p := settings.NewProvider(be, nil, password.DefaultWordlist(), nil)
	ctx := t.Context()

	done := make(chan error, 1)
	go func() {
		_, err := p.Config(ctx, "s-1")
		done <- err
	}()
	<-be.entered

	_, err := p.SaveProfile(ctx, "s-1", password.NewProfile(map[password.Field]string{password.FieldName: "john"}))
	require.NoError(t, err)

	close(be.release)
	require.NoError(t, <-done)

	cfg, err := p.Config(ctx, "s-1")
	require.NoError(t, err)
	v, _ := cfg.Profile.Get(password.FieldName)
	assert.Equal(t, "john", v)
	assert.Contains(t, password.Analyze("john2024!", cfg).Weaknesses, "Contains personal information: name 'john'")
}
