package accounts

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/faststore/accounts/ledger"
	"github.com/faststore/accounts/notify"
	"github.com/faststore/accounts/password"
	"github.com/faststore/accounts/token"
)

// Builder assembles an Engine. A Builder is single-use; Build fails on
// a second call.
type Builder struct {
	config Config
	redis  *redis.Client

	users     UserStore
	sender    notify.Sender
	auditSink AuditSink

	built bool
}

// New returns a Builder preloaded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the ledger and the limiter.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the credential store.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithSender sets the notification sender. Omitting it leaves codes
// undeliverable, so Build requires one; use notify.NoOpSender to opt
// out explicitly.
func (b *Builder) WithSender(sender notify.Sender) *Builder {
	b.sender = sender
	return b
}

// WithAuditSink sets the audit sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if b.sender == nil {
		return nil, errors.New("notification sender required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tm, err := token.NewManager(cfg.Token.Secret, cfg.Token.TTL)
	if err != nil {
		return nil, err
	}

	ph, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:  cfg,
		users:   b.users,
		ledger:  ledger.NewStore(b.redis),
		tokens:  tm,
		hasher:  ph,
		sender:  b.sender,
		limiter: newOTPLimiter(b.redis, cfg.Limiter),
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
		clock:   time.Now,
	}

	b.built = true

	return engine, nil
}
