// Package config loads the activity-stream service's configuration from a
// flat environment-variable map using the hierarchical A__B__C naming scheme
// described in the service's external interface.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// ConfigError marks a fatal, startup-time configuration problem. The caller
// is expected to log it and exit non-zero.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

func newConfigError(field, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// Elasticsearch holds the search backend connection and SigV4 credentials.
type Elasticsearch struct {
	Host            string
	Port            int
	Protocol        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

func (e Elasticsearch) BaseURL() string {
	return fmt.Sprintf("%s://%s:%d", e.Protocol, e.Host, e.Port)
}

// FeedType identifies which Feed Adapter variant parses a feed.
type FeedType string

const (
	FeedTypeActivityStream FeedType = "activity_stream"
	FeedTypeZendesk        FeedType = "zendesk"
)

// Feed is one immutable feed descriptor, loaded once at startup.
type Feed struct {
	UniqueID            string
	Type                FeedType
	Seed                string
	AccessKeyID         string
	SecretAccessKey     string
	PollingPageInterval time.Duration
	PollingSeedInterval time.Duration
	ExceptionBackoff    []time.Duration

	// MaxPagesPerCycle bounds how many pages a single full/updates ingest
	// round walks before stopping early and retrying on the next
	// supervised iteration. 0 means unbounded, matching the original
	// Python's implicit trust that a feed's next_url eventually goes
	// empty.
	MaxPagesPerCycle int
}

// AccessKeyPair authenticates an incoming read-façade request and carries the
// set of permissions granted to that key.
type AccessKeyPair struct {
	KeyID       string
	SecretKey   string
	Permissions []string
}

// Config is the fully-parsed, validated configuration for one process.
type Config struct {
	Elasticsearch Elasticsearch
	Feeds         []Feed

	RedisURI string

	IncomingAccessKeyPairs []AccessKeyPair
	IncomingIPWhitelist    []string

	SentryDSN         string
	SentryEnvironment string

	Port int

	LockKey             string
	LockTTL             time.Duration
	LockRenewalInterval time.Duration
}

var defaultExceptionBackoff = []time.Duration{
	1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
	16 * time.Second, 32 * time.Second, 64 * time.Second,
}

const (
	defaultPollingPageInterval = 1 * time.Second
	defaultPollingSeedInterval = 1 * time.Second
	defaultLockTTL             = 30 * time.Second
	defaultLockRenewalInterval = 15 * time.Second
)

// Load parses environ (as returned by os.Environ, split on "=") into a
// validated Config. It never reads os.Environ itself so tests can supply a
// synthetic map.
func Load(environ map[string]string) (*Config, error) {
	root := normaliseEnvironment(environ)

	cfg := &Config{
		LockKey:             "lock",
		LockTTL:             defaultLockTTL,
		LockRenewalInterval: defaultLockRenewalInterval,
	}

	es := root.get("ELASTICSEARCH")
	cfg.Elasticsearch.Host = es.get("HOST").str("")
	if cfg.Elasticsearch.Host == "" {
		return nil, newConfigError("ELASTICSEARCH__HOST", "required")
	}
	cfg.Elasticsearch.Port = es.get("PORT").int(9200)
	cfg.Elasticsearch.Protocol = es.get("PROTOCOL").str("https")
	cfg.Elasticsearch.Region = es.get("REGION").str("")
	if cfg.Elasticsearch.Region == "" {
		return nil, newConfigError("ELASTICSEARCH__REGION", "required")
	}
	cfg.Elasticsearch.AccessKeyID, _ = es.get("AWS_ACCESS_KEY_ID").mustStr()
	cfg.Elasticsearch.SecretAccessKey, _ = es.get("AWS_SECRET_ACCESS_KEY").mustStr()
	if cfg.Elasticsearch.AccessKeyID == "" || cfg.Elasticsearch.SecretAccessKey == "" {
		return nil, newConfigError("ELASTICSEARCH__AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY", "required")
	}

	feedsNode := root.get("FEEDS")
	for _, fn := range feedsNode.indexedChildren() {
		uniqueID, ok := fn.get("UNIQUE_ID").mustStr()
		if !ok {
			return nil, newConfigError("FEEDS__*__UNIQUE_ID", "required")
		}
		typ := FeedType(strings.ToLower(fn.get("TYPE").str("")))
		switch typ {
		case FeedTypeActivityStream, FeedTypeZendesk:
		default:
			return nil, newConfigError(fmt.Sprintf("FEEDS__%s__TYPE", uniqueID), "unknown feed type %q", typ)
		}
		seed, ok := fn.get("SEED").mustStr()
		if !ok {
			return nil, newConfigError(fmt.Sprintf("FEEDS__%s__SEED", uniqueID), "required")
		}
		keyID, ok := fn.get("ACCESS_KEY_ID").mustStr()
		if !ok {
			return nil, newConfigError(fmt.Sprintf("FEEDS__%s__ACCESS_KEY_ID", uniqueID), "required")
		}
		secret, ok := fn.get("SECRET_ACCESS_KEY").mustStr()
		if !ok {
			return nil, newConfigError(fmt.Sprintf("FEEDS__%s__SECRET_ACCESS_KEY", uniqueID), "required")
		}
		cfg.Feeds = append(cfg.Feeds, Feed{
			UniqueID:            uniqueID,
			Type:                typ,
			Seed:                seed,
			AccessKeyID:         keyID,
			SecretAccessKey:     secret,
			PollingPageInterval: time.Duration(fn.get("POLLING_PAGE_INTERVAL_SECONDS").int(int(defaultPollingPageInterval.Seconds()))) * time.Second,
			PollingSeedInterval: time.Duration(fn.get("POLLING_SEED_INTERVAL_SECONDS").int(int(defaultPollingSeedInterval.Seconds()))) * time.Second,
			ExceptionBackoff:    defaultExceptionBackoff,
			MaxPagesPerCycle:    fn.get("MAX_PAGES_PER_CYCLE").int(0),
		})
	}
	if len(cfg.Feeds) == 0 {
		return nil, newConfigError("FEEDS", "at least one feed must be configured")
	}

	for _, kn := range root.get("INCOMING_ACCESS_KEY_PAIRS").indexedChildren() {
		keyID, ok := kn.get("KEY_ID").mustStr()
		if !ok {
			return nil, newConfigError("INCOMING_ACCESS_KEY_PAIRS__*__KEY_ID", "required")
		}
		secret, ok := kn.get("SECRET_KEY").mustStr()
		if !ok {
			return nil, newConfigError("INCOMING_ACCESS_KEY_PAIRS__*__SECRET_KEY", "required")
		}
		var perms []string
		for _, pn := range kn.get("PERMISSIONS").indexedChildren() {
			if v, ok := pn.mustStr(); ok {
				perms = append(perms, v)
			}
		}
		cfg.IncomingAccessKeyPairs = append(cfg.IncomingAccessKeyPairs, AccessKeyPair{
			KeyID: keyID, SecretKey: secret, Permissions: perms,
		})
	}

	for _, wn := range root.get("INCOMING_IP_WHITELIST").indexedChildren() {
		if v, ok := wn.mustStr(); ok {
			cfg.IncomingIPWhitelist = append(cfg.IncomingIPWhitelist, v)
		}
	}

	cfg.SentryDSN = root.get("SENTRY_DSN").str("")
	cfg.SentryEnvironment = root.get("SENTRY_ENVIRONMENT").str("")

	cfg.RedisURI = root.get("REDIS_URI").str("")
	if cfg.RedisURI == "" {
		return nil, newConfigError("REDIS_URI", "required (derived from VCAP_SERVICES.redis[0].credentials.uri in the platform entrypoint)")
	}

	cfg.Port = root.get("PORT").int(8080)

	return cfg, nil
}

// LoadFromOS reads the process environment and delegates to Load.
func LoadFromOS() (*Config, error) {
	environ := map[string]string{}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		environ[parts[0]] = parts[1]
	}
	return Load(environ)
}
