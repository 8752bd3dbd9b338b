package settings

import (
	"context"
	"errors"
	"hash/maphash"
	"sync"
	"time"

	"github.com/5w1tchy/pwcheck-api/internal/logging"
	"github.com/5w1tchy/pwcheck-api/internal/security/password"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultLocalSize = 1024
	defaultLocalTTL  = 30 * time.Second
	genShards        = 64
)

type localEntry struct {
	settings Settings
	storedAt time.Time
}

// genShard orders local cache fills against invalidations. Sessions sharing a
// shard also share a counter, which only costs an occasional skipped fill.
type genShard struct {
	mu  sync.Mutex
	gen uint64
}

// Provider serves per-session settings and the analysis Config built from them.
// Reads go in-process LRU, then Redis, then the Backend. Writes go to the Backend
// and drop both cache tiers for that session. A read that raced a write never
// fills either tier with what it fetched.
type Provider struct {
	backend  Backend
	local    *lru.Cache[string, localEntry]
	localTTL time.Duration
	shared   *redisTier
	seed     password.Wordlist
	log      *zap.Logger
	now      func() time.Time

	hashSeed maphash.Seed
	shards   [genShards]genShard
}

// NewProvider wires a Provider. rdb may be nil; seed supplies the wordlist entries
// every session shares, its Enabled flag is ignored.
func NewProvider(backend Backend, rdb *redis.Client, seed password.Wordlist, log *zap.Logger) *Provider {
	log = logging.OrNop(log)
	local, _ := lru.New[string, localEntry](defaultLocalSize)
	return &Provider{
		backend:  backend,
		local:    local,
		localTTL: defaultLocalTTL,
		shared:   newRedisTier(rdb, log),
		seed:     seed,
		log:      log,
		now:      time.Now,
		hashSeed: maphash.MakeSeed(),
	}
}

// Settings returns the stored settings for sessionID, or Defaults when none exist.
func (p *Provider) Settings(ctx context.Context, sessionID string) (Settings, error) {
	if e, ok := p.local.Get(sessionID); ok {
		if p.now().Sub(e.storedAt) < p.localTTL {
			return e.settings, nil
		}
		p.local.Remove(sessionID)
	}

	localGen := p.generation(sessionID)
	s, hit, sharedGen, genOK := p.shared.lookup(ctx, sessionID)
	if hit {
		p.remember(s, localGen)
		return s, nil
	}

	s, err := p.backend.Get(ctx, sessionID)
	switch {
	case errors.Is(err, ErrNotFound):
		s = Defaults(sessionID)
	case err != nil:
		return Settings{}, err
	}
	if p.remember(s, localGen) && genOK {
		p.shared.set(ctx, s, sharedGen)
	}
	return s, nil
}

// Config returns an immutable analysis snapshot for sessionID.
func (p *Provider) Config(ctx context.Context, sessionID string) (password.Config, error) {
	s, err := p.Settings(ctx, sessionID)
	if err != nil {
		return password.Config{}, err
	}
	return password.Config{
		Profile:  s.Profile,
		Wordlist: p.seed.WithEnabled(s.WordlistEnabled),
	}, nil
}

// Wordlist is the shared seed with the session's enabled flag applied.
func (p *Provider) Wordlist(ctx context.Context, sessionID string) (password.Wordlist, error) {
	cfg, err := p.Config(ctx, sessionID)
	if err != nil {
		return password.Wordlist{}, err
	}
	return cfg.Wordlist, nil
}

func (p *Provider) SaveProfile(ctx context.Context, sessionID string, prof password.Profile) (Settings, error) {
	if err := p.backend.SaveProfile(ctx, sessionID, prof); err != nil {
		return Settings{}, err
	}
	return p.reload(ctx, sessionID)
}

func (p *Provider) SetWordlistEnabled(ctx context.Context, sessionID string, enabled bool) (Settings, error) {
	if err := p.backend.SetWordlistEnabled(ctx, sessionID, enabled); err != nil {
		return Settings{}, err
	}
	return p.reload(ctx, sessionID)
}

func (p *Provider) ToggleWordlist(ctx context.Context, sessionID string) (Settings, error) {
	if _, err := p.backend.ToggleWordlist(ctx, sessionID); err != nil {
		return Settings{}, err
	}
	return p.reload(ctx, sessionID)
}

// Reset drops the session's stored settings.
func (p *Provider) Reset(ctx context.Context, sessionID string) error {
	if err := p.backend.Delete(ctx, sessionID); err != nil {
		return err
	}
	p.invalidate(ctx, sessionID)
	return nil
}

func (p *Provider) reload(ctx context.Context, sessionID string) (Settings, error) {
	p.invalidate(ctx, sessionID)
	return p.Settings(ctx, sessionID)
}

func (p *Provider) invalidate(ctx context.Context, sessionID string) {
	sh := p.shard(sessionID)
	sh.mu.Lock()
	sh.gen++
	p.local.Remove(sessionID)
	sh.mu.Unlock()
	p.shared.bump(ctx, sessionID)
}

func (p *Provider) shard(sessionID string) *genShard {
	return &p.shards[maphash.String(p.hashSeed, sessionID)%genShards]
}

func (p *Provider) generation(sessionID string) uint64 {
	sh := p.shard(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.gen
}

// remember caches s locally unless an invalidation ran since gen was read.
func (p *Provider) remember(s Settings, gen uint64) bool {
	sh := p.shard(s.SessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.gen != gen {
		return false
	}
	p.local.Add(s.SessionID, localEntry{settings: s, storedAt: p.now()})
	return true
}
