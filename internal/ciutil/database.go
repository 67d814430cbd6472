package ciutil

import (
	"net/url"
	"os"
)

// GetTestDatabaseURL returns the database URL for integration tests. It
// checks QBANK_TEST_DB_URL first, then the generic DATABASE_URL.
// Returns an empty string when neither is set, which callers treat as
// "skip database-backed tests".
func GetTestDatabaseURL() string {
	for _, envVar := range []string{EnvQBankTestDBURL, EnvDatabaseURL} {
		if val := os.Getenv(envVar); val != "" {
			return val
		}
	}
	return ""
}

// MaskSensitiveValue strips credentials from a connection URL so it can
// be logged safely. Unparseable input is masked entirely.
func MaskSensitiveValue(dbURL string) string {
	parsed, err := url.Parse(dbURL)
	if err != nil {
		return "[masked]"
	}
	if parsed.User != nil {
		parsed.User = url.User(parsed.User.Username())
	}
	return parsed.Redacted()
}
