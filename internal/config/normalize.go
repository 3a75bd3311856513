package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

func (c *Config) normalize() error {
	if c.HTTP.Port <= 0 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.GRPC.Port <= 0 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPC.Port)
	}

	steps := []func() error{
		c.Database.normalize,
		c.Cache.normalize,
		c.Messaging.normalize,
		c.Store.normalize,
		c.normalizeFeed,
		c.Auth.normalize,
		c.Observability.normalize,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Database) normalize() error {
	switch d.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %s", d.Driver)
	}
	if d.WriterDSN == "" {
		d.WriterDSN = DefaultWriterDSN
		d.UsingFallbackDSN = true
	}
	if d.ReaderDSN == "" {
		d.ReaderDSN = d.WriterDSN
	}
	return nil
}

func (c *Cache) normalize() error {
	if !c.Enabled {
		c.Driver = "noop"
	}
	switch c.Driver {
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("missing REDIS_ADDR for redis cache")
		}
	case "memory", "noop":
	default:
		return fmt.Errorf("unsupported cache driver: %s", c.Driver)
	}
	if c.DefaultTTL < 0 {
		c.DefaultTTL = time.Minute
	}
	return nil
}

func (m *Messaging) normalize() error {
	if !m.Enabled {
		m.Driver = "noop"
	}
	switch m.Driver {
	case "kafka":
		switch {
		case len(m.Kafka.Brokers) == 0:
			return fmt.Errorf("KAFKA_BROKERS must be provided")
		case m.Kafka.Topic == "":
			return fmt.Errorf("KAFKA_TOPIC must be provided")
		case m.ConsumerGroup == "":
			return fmt.Errorf("KAFKA_CONSUMER_GROUP must be provided")
		}
	case "memory", "noop":
	default:
		return fmt.Errorf("unsupported messaging driver: %s", m.Driver)
	}
	if m.Workers.Concurrency <= 0 {
		m.Workers.Concurrency = 1
	}
	if m.Workers.PollInterval <= 0 {
		m.Workers.PollInterval = time.Second
	}
	return nil
}

func (s *Store) normalize() error {
	if s.PageSize <= 0 {
		s.PageSize = 7
	}
	if s.CacheTTL < 0 {
		s.CacheTTL = 0
	}
	return nil
}

// normalizeFeed checks the feed against the database and messaging drivers
// it depends on, so it runs after those are settled.
func (c *Config) normalizeFeed() error {
	feed := &c.Feed
	feed.Driver = strings.ToLower(strings.TrimSpace(feed.Driver))
	if feed.Driver == "" {
		if c.Database.Driver == "postgres" {
			feed.Driver = "postgres"
		} else {
			feed.Driver = "local"
		}
	}
	if feed.Channel == "" {
		return fmt.Errorf("FEED_CHANNEL must not be empty")
	}
	if feed.Buffer <= 0 {
		feed.Buffer = 16
	}

	switch feed.Driver {
	case "local":
	case "postgres":
		if c.Database.Driver != "postgres" {
			return fmt.Errorf("postgres feed requires DB_DRIVER=postgres, got %s", c.Database.Driver)
		}
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("missing REDIS_ADDR for redis feed")
		}
	case "kafka":
		if c.Messaging.Driver != "kafka" {
			return fmt.Errorf("kafka feed requires MESSAGING_ENABLED with the kafka driver")
		}
		// Every instance must see every change, so instances cannot share a group.
		if host, err := os.Hostname(); err == nil && host != "" {
			c.Messaging.ConsumerGroup += "-" + host
		}
	default:
		return fmt.Errorf("unsupported feed driver: %s", feed.Driver)
	}
	return nil
}

func (a *Auth) normalize() error {
	if a.Passcode == "" {
		a.Passcode = DefaultPasscode
		a.UsingDefaultPass = true
	}
	return nil
}

func (o *Observability) normalize() error {
	o.LogLevel = lowerOr(o.LogLevel, "info")
	o.LogEncoding = lowerOr(o.LogEncoding, "json")
	o.TraceExporter = lowerOr(o.TraceExporter, "stdout")
	o.MetricsExporter = lowerOr(o.MetricsExporter, "prometheus")

	if o.TraceSampleRatio < 0 || o.TraceSampleRatio > 1 {
		return fmt.Errorf("OBS_TRACE_SAMPLE_RATIO must be within [0,1], got %v", o.TraceSampleRatio)
	}
	if o.MetricsInterval <= 0 {
		o.MetricsInterval = 30 * time.Second
	}
	if o.PrometheusPath == "" {
		o.PrometheusPath = "/metrics"
	} else if !strings.HasPrefix(o.PrometheusPath, "/") {
		o.PrometheusPath = "/" + o.PrometheusPath
	}
	return nil
}

func lowerOr(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}
