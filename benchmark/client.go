package benchmark

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	defaultRetryBackoff = 10 * time.Microsecond
	defaultReportEvery  = 10000
)

// ClientConfig configures RunClient.
type ClientConfig struct {
	Addr         string
	Count        uint64        // round trips, 0 runs until an error or ctx is done
	RetryBackoff time.Duration // pause between connection attempts
	ReportEvery  uint64        // log every n failed connection attempts
}

// RunClient connects to a kvserver target, retrying until it answers, then
// loops SET foo bar / GET foo and prints each reply to out. Commands go out
// through Do so their names stay upper case.
func RunClient(ctx context.Context, cfg ClientConfig, out io.Writer) error {
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.ReportEvery == 0 {
		cfg.ReportEvery = defaultReportEvery
	}

	rdb := newKVClient(cfg.Addr)
	defer rdb.Close()

	if err := connectWithRetry(ctx, rdb, cfg); err != nil {
		return err
	}
	log.Info().Str("addr", cfg.Addr).Msg("Connected")

	for i := uint64(0); cfg.Count == 0 || i < cfg.Count; i++ {
		if ctx.Err() != nil {
			return nil
		}
		set, err := rdb.Do(ctx, "SET", "foo", "bar").Text()
		if err != nil {
			return fmt.Errorf("SET foo bar: %w", err)
		}
		fmt.Fprintf(out, "SET foo bar -> %s\n", set)

		get, err := rdb.Do(ctx, "GET", "foo").Text()
		if err != nil {
			return fmt.Errorf("GET foo: %w", err)
		}
		fmt.Fprintf(out, "GET foo -> %s\n", get)
	}
	return nil
}

// newKVClient speaks RESP2 without the client handshake extras, which the
// kvserver target does not implement.
func newKVClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:            addr,
		Protocol:        2,
		DisableIdentity: true,
		PoolSize:        1,
		MaxRetries:      -1,
	})
}

// connectWithRetry pings until the server answers. Any reply, including a
// server error, proves the connection is up.
func connectWithRetry(ctx context.Context, rdb *redis.Client, cfg ClientConfig) error {
	for attempt := uint64(1); ; attempt++ {
		err := rdb.Ping(ctx).Err()
		var rerr redis.Error
		if err == nil || errors.As(err, &rerr) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt%cfg.ReportEvery == 0 {
			log.Warn().Err(err).Uint64("attempts", attempt).Str("addr", cfg.Addr).Msg("Still connecting")
		}
		time.Sleep(cfg.RetryBackoff)
	}
}
