package main

import (
	"crypto/tls"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// newRedis builds a client from UPSTASH_REDIS_URL or REDIS_ADDR/REDIS_USER/REDIS_PASSWORD.
// It returns nil when neither is configured; every Redis consumer fails open.
func newRedis() (*redis.Client, error) {
	if url := os.Getenv("UPSTASH_REDIS_URL"); url != "" {
		// Path A: full URL, e.g. rediss://default:<token>@host:port
		opt, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("invalid UPSTASH_REDIS_URL: %w", err)
		}
		if opt.TLSConfig == nil && os.Getenv("REDIS_INSECURE") != "1" {
			opt.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		opt.DialTimeout = 5 * time.Second
		opt.ReadTimeout = 1 * time.Second
		opt.WriteTimeout = 1 * time.Second
		return redis.NewClient(opt), nil
	}

	// Path B: split fields
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return nil, nil
	}
	opt := &redis.Options{
		Addr:         addr,
		Username:     os.Getenv("REDIS_USER"),
		Password:     os.Getenv("REDIS_PASSWORD"),
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	}
	if os.Getenv("REDIS_INSECURE") != "1" {
		opt.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opt), nil
}
