package accounts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/faststore/accounts/ledger"
	"github.com/faststore/accounts/notify"
	"github.com/faststore/accounts/password"
	"github.com/faststore/accounts/token"
)

var (
	testTokenSecret = []byte("0123456789abcdef0123456789abcdef")
	testOTPMaster   = []byte("test-otp-master-secret-material")
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start failed: %v", err)
	}

	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

type mockUserStore struct {
	mu      sync.Mutex
	users   map[int64]UserRecord
	byEmail map[string]int64
	nextID  int64

	createCalls int
	updateCalls int
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users:   map[int64]UserRecord{},
		byEmail: map[string]int64{},
		nextID:  1,
	}
}

func (m *mockUserStore) GetByID(_ context.Context, id int64) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserStore) GetByEmail(_ context.Context, email string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byEmail[email]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return m.users[id], nil
}

func (m *mockUserStore) Create(_ context.Context, email, passwordHash string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createCalls++
	if _, exists := m.byEmail[email]; exists {
		return UserRecord{}, ErrEmailTaken
	}

	user := UserRecord{
		ID:           m.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.nextID++
	m.users[user.ID] = user
	m.byEmail[email] = user.ID
	return user, nil
}

func (m *mockUserStore) Update(_ context.Context, id int64, update UserUpdate) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updateCalls++
	user, ok := m.users[id]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}

	if update.Email != nil {
		delete(m.byEmail, user.Email)
		user.Email = *update.Email
		m.byEmail[user.Email] = id
	}
	if update.PasswordHash != nil {
		user.PasswordHash = *update.PasswordHash
	}
	if update.IsActive != nil {
		user.IsActive = *update.IsActive
	}
	if update.IsVerifiedEmail != nil {
		user.IsVerifiedEmail = *update.IsVerifiedEmail
	}
	if update.LastLogin != nil {
		user.LastLogin = *update.LastLogin
	}
	user.UpdatedAt = time.Now()
	m.users[id] = user
	return user, nil
}

func (m *mockUserStore) seed(t *testing.T, hasher *password.Argon2, email, pw string, active, verified bool) UserRecord {
	t.Helper()

	hash, err := hasher.Hash(pw)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	user, err := m.Create(context.Background(), email, hash)
	if err != nil {
		t.Fatalf("seed create failed: %v", err)
	}
	m.createCalls--

	user, err = m.Update(context.Background(), user.ID, UserUpdate{
		IsActive:        ptrBool(active),
		IsVerifiedEmail: ptrBool(verified),
	})
	if err != nil {
		t.Fatalf("seed update failed: %v", err)
	}
	m.updateCalls--
	return user
}

func testHasher(t *testing.T) *password.Argon2 {
	t.Helper()

	h, err := password.NewArgon2(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	return h
}

func newTestEngine(t *testing.T, rdb *redis.Client, users UserStore, sender notify.Sender) *Engine {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Token.Secret = testTokenSecret
	cfg.OTP.MasterSecret = testOTPMaster
	cfg.Audit.Enabled = false

	tm, err := token.NewManager(cfg.Token.Secret, cfg.Token.TTL)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	return &Engine{
		config:  cfg,
		users:   users,
		ledger:  ledger.NewStore(rdb),
		tokens:  tm,
		hasher:  testHasher(t),
		sender:  sender,
		limiter: newOTPLimiter(rdb, cfg.Limiter),
		metrics: NewMetrics(cfg.Metrics),
		clock:   time.Now,
	}
}

// currentCode mirrors what the notification would carry for userID.
func currentCode(e *Engine, userID int64) string {
	return e.otpFor(userID).Code()
}

// wrongCode returns a well-formed code guaranteed not to match the
// current window.
func wrongCode(e *Engine, userID int64) string {
	if currentCode(e, userID) == "000000" {
		return "000001"
	}
	return "000000"
}

func drainMessage(t *testing.T, sender *notify.ChannelSender) notify.Message {
	t.Helper()

	select {
	case msg := <-sender.Messages():
		return msg
	default:
		t.Fatal("expected a delivered message")
		return notify.Message{}
	}
}

func requireMetric(t *testing.T, e *Engine, id MetricID, want uint64) {
	t.Helper()

	if got := e.metrics.Value(id); got != want {
		t.Fatalf("metric %d: expected %d, got %d", id, want, got)
	}
}
