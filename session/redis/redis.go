// Package redis provides a core.ThreadStore backed by Redis (for example
// Azure Cache for Redis). Each session's thread is stored as a single
// versioned envelope under "chat_thread:<session id>" using SET / GET.
package redis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/hupe1980/chatthread/core"
	"github.com/hupe1980/chatthread/logging"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

// ClientConfig describes how to reach the Redis server.
type ClientConfig struct {
	Host     string
	Port     int
	Password string
	// TLS enables a secured connection (Azure Cache for Redis listens on 6380).
	TLS     bool
	Timeout time.Duration
}

// NewClient builds a go-redis client from cfg. No connection is made until
// the first command.
func NewClient(cfg ClientConfig) *goredis.Client {
	opts := &goredis.Options{
		Addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password: cfg.Password,
	}
	if cfg.Timeout > 0 {
		opts.DialTimeout = cfg.Timeout
		opts.ReadTimeout = cfg.Timeout
		opts.WriteTimeout = cfg.Timeout
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{
			ServerName: cfg.Host,
			MinVersion: tls.VersionTLS12,
		}
	}
	return goredis.NewClient(opts)
}

// Options configure the Redis thread store.
type Options struct {
	// TTL applied on every SET; 0 keeps keys forever.
	TTL time.Duration
	// WriteRetries is the number of additional SET attempts after a
	// transient network failure.
	WriteRetries int
	// RetryBackoff is the base of the exponential backoff between attempts.
	RetryBackoff time.Duration
	Logger       logging.Logger
}

// Store implements core.ThreadStore on top of a Redis client.
type Store struct {
	client goredis.UniversalClient
	opts   Options
}

var _ core.ThreadStore = (*Store)(nil)

// NewStore creates a store using an existing client. The caller owns the
// client; Close closes it.
func NewStore(client goredis.UniversalClient, optFns ...func(o *Options)) *Store {
	opts := Options{
		WriteRetries: 2,
		RetryBackoff: 100 * time.Millisecond,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.WriteRetries < 0 {
		opts.WriteRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 100 * time.Millisecond
	}
	return &Store{client: client, opts: opts}
}

// Ping verifies the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %w", core.ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error { return s.client.Close() }

// Save encodes thread and writes it with SET, overwriting any previous value.
func (s *Store) Save(ctx context.Context, sessionID string, thread *core.Thread) error {
	if sessionID == "" {
		return core.ErrEmptySessionID
	}
	data, err := core.MarshalThread(thread)
	if err != nil {
		return err
	}
	key := core.ThreadKey(sessionID)

	start := time.Now()
	backoff := retry.WithMaxRetries(uint64(s.opts.WriteRetries), retry.NewExponential(s.opts.RetryBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.client.Set(ctx, key, data, s.opts.TTL).Err(); err != nil {
			if isTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	s.logOp("save", key, len(data), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%w: set %s: %w", core.ErrStoreUnavailable, key, err)
	}
	return nil
}

// Load reads and decodes the session's thread. A missing key yields
// (nil, false, nil).
func (s *Store) Load(ctx context.Context, sessionID string) (*core.Thread, bool, error) {
	if sessionID == "" {
		return nil, false, core.ErrEmptySessionID
	}
	key := core.ThreadKey(sessionID)

	start := time.Now()
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		s.logOp("load", key, 0, time.Since(start), nil)
		return nil, false, nil
	}
	s.logOp("load", key, len(data), time.Since(start), err)
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %s: %w", core.ErrStoreUnavailable, key, err)
	}

	t, err := core.UnmarshalThread(data)
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", key, err)
	}
	return t, true, nil
}

func (s *Store) logOp(op, key string, size int, dur time.Duration, err error) {
	if ol, ok := s.opts.Logger.(logging.OperationLogger); ok {
		ol.LogStoreOp(op, key, size, dur, err)
		return
	}
	if err != nil {
		s.opts.Logger.Error("thread store operation failed", "operation", op, "key", key, "error", err)
		return
	}
	s.opts.Logger.Debug("thread store operation completed", "operation", op, "key", key, "bytes", size, "duration", dur)
}

// isTransient reports whether err is worth retrying. Server replies
// (WRONGTYPE, OOM, auth) and cancellation are final.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, goredis.ErrClosed) {
		return false
	}
	var rerr goredis.Error
	return !errors.As(err, &rerr)
}
