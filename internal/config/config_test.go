package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func baseEnviron() map[string]string {
	return map[string]string{
		"ELASTICSEARCH__HOST":                  "es.internal",
		"ELASTICSEARCH__PORT":                  "9200",
		"ELASTICSEARCH__PROTOCOL":              "https",
		"ELASTICSEARCH__REGION":                "eu-west-1",
		"ELASTICSEARCH__AWS_ACCESS_KEY_ID":     "AKIDEXAMPLE",
		"ELASTICSEARCH__AWS_SECRET_ACCESS_KEY": "secret",
		"FEEDS__0__UNIQUE_ID":                  "F1",
		"FEEDS__0__TYPE":                       "activity_stream",
		"FEEDS__0__SEED":                       "http://feed/1",
		"FEEDS__0__ACCESS_KEY_ID":              "feed-key",
		"FEEDS__0__SECRET_ACCESS_KEY":          "feed-secret",
		"REDIS_URI":                            "redis://localhost:6379",
	}
}

func TestLoadMinimal(t *testing.T) {
	cfg, err := Load(baseEnviron())
	require.NoError(t, err)
	require.Equal(t, "es.internal", cfg.Elasticsearch.Host)
	require.Equal(t, "https://es.internal:9200", cfg.Elasticsearch.BaseURL())
	require.Len(t, cfg.Feeds, 1)
	require.Equal(t, "F1", cfg.Feeds[0].UniqueID)
	require.Equal(t, FeedTypeActivityStream, cfg.Feeds[0].Type)
	require.Equal(t, defaultExceptionBackoff, cfg.Feeds[0].ExceptionBackoff)
}

func TestLoadMultipleFeedsIndexedInOrder(t *testing.T) {
	env := baseEnviron()
	env["FEEDS__1__UNIQUE_ID"] = "F2"
	env["FEEDS__1__TYPE"] = "zendesk"
	env["FEEDS__1__SEED"] = "http://feed/2"
	env["FEEDS__1__ACCESS_KEY_ID"] = "feed-key-2"
	env["FEEDS__1__SECRET_ACCESS_KEY"] = "feed-secret-2"

	cfg, err := Load(env)
	require.NoError(t, err)
	require.Len(t, cfg.Feeds, 2)
	require.Equal(t, "F1", cfg.Feeds[0].UniqueID)
	require.Equal(t, "F2", cfg.Feeds[1].UniqueID)
	require.Equal(t, FeedTypeZendesk, cfg.Feeds[1].Type)
}

func TestLoadUnknownFeedTypeIsConfigError(t *testing.T) {
	env := baseEnviron()
	env["FEEDS__0__TYPE"] = "rss"

	_, err := Load(env)
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestLoadMissingRequiredFieldIsConfigError(t *testing.T) {
	env := baseEnviron()
	delete(env, "ELASTICSEARCH__HOST")

	_, err := Load(env)
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "ELASTICSEARCH__HOST", cfgErr.Field)
}

func TestLoadNoFeedsIsConfigError(t *testing.T) {
	env := baseEnviron()
	delete(env, "FEEDS__0__UNIQUE_ID")
	delete(env, "FEEDS__0__TYPE")
	delete(env, "FEEDS__0__SEED")
	delete(env, "FEEDS__0__ACCESS_KEY_ID")
	delete(env, "FEEDS__0__SECRET_ACCESS_KEY")

	_, err := Load(env)
	require.Error(t, err)
}

func TestLoadIncomingAccessKeyPairsAndWhitelist(t *testing.T) {
	env := baseEnviron()
	env["INCOMING_ACCESS_KEY_PAIRS__0__KEY_ID"] = "incoming-key"
	env["INCOMING_ACCESS_KEY_PAIRS__0__SECRET_KEY"] = "incoming-secret"
	env["INCOMING_ACCESS_KEY_PAIRS__0__PERMISSIONS__0"] = "read"
	env["INCOMING_ACCESS_KEY_PAIRS__0__PERMISSIONS__1"] = "write"
	env["INCOMING_IP_WHITELIST__0"] = "10.0.0.0/8"

	cfg, err := Load(env)
	require.NoError(t, err)
	require.Len(t, cfg.IncomingAccessKeyPairs, 1)
	require.Equal(t, []string{"read", "write"}, cfg.IncomingAccessKeyPairs[0].Permissions)
	require.Equal(t, []string{"10.0.0.0/8"}, cfg.IncomingIPWhitelist)
}
