package accounts

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const otpLimiterKeyPrefix = "avc"

// otpLimiter bounds OTP confirmation attempts per user and purpose with
// a fixed Redis window, so six-digit codes cannot be brute forced while
// a window is open.
type otpLimiter struct {
	redis  *redis.Client
	config LimiterConfig
}

func newOTPLimiter(redisClient *redis.Client, cfg LimiterConfig) *otpLimiter {
	return &otpLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

func (l *otpLimiter) key(userID int64, purpose string) string {
	return otpLimiterKeyPrefix + ":" + purpose + ":" + strconv.FormatInt(userID, 10)
}

// Check counts one attempt and fails with ErrOTPRateLimited once the
// window budget is spent.
func (l *otpLimiter) Check(ctx context.Context, userID int64, purpose string) error {
	key := l.key(userID, purpose)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("otp limiter unavailable: %w", err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return fmt.Errorf("otp limiter unavailable: %w", err)
		}
	}

	if count > int64(l.config.MaxConfirmAttempts) {
		return ErrOTPRateLimited
	}

	return nil
}

// Reset clears the attempt counter after a successful confirmation.
func (l *otpLimiter) Reset(ctx context.Context, userID int64, purpose string) error {
	if err := l.redis.Del(ctx, l.key(userID, purpose)).Err(); err != nil {
		return fmt.Errorf("otp limiter unavailable: %w", err)
	}
	return nil
}
