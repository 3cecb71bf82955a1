package settings

import (
	"fmt"
	"os"
	"strings"
)

// EnvAPIKey is the environment variable holding an API key.
const EnvAPIKey = "XLIFFMERGE_APIKEY"

// Key sources reported in Credentials.KeySource.
const (
	SourceProfile = "apikey"
	SourceFile    = "apikeyfile"
	SourceEnv     = EnvAPIKey
	SourceStore   = "store"
)

// Request carries the provider settings given by the profile and the
// command line.
type Request struct {
	Provider   string
	APIKey     string
	APIKeyFile string
	BaseURL    string
	Model      string
}

// Credentials are the resolved settings of one provider.
type Credentials struct {
	Provider  string
	Key       string
	KeySource string
	BaseURL   string
	Model     string
}

// Resolve fills in the settings of req.Provider. The key comes from the
// first of: req.APIKey, the first line of req.APIKeyFile, $XLIFFMERGE_APIKEY,
// the store. Endpoint and model come from req, then from the store. Only an
// unreadable key file is an error; a nil store is treated as empty.
func (s *Store) Resolve(req Request) (Credentials, error) {
	id := strings.ToLower(req.Provider)
	stored, _ := s.Get(id)
	c := Credentials{
		Provider: id,
		BaseURL:  firstNonEmpty(req.BaseURL, stored.BaseURL),
		Model:    firstNonEmpty(req.Model, stored.Model),
	}

	if req.APIKey != "" {
		c.Key, c.KeySource = req.APIKey, SourceProfile
		return c, nil
	}
	if req.APIKeyFile != "" {
		data, err := os.ReadFile(req.APIKeyFile)
		if err != nil {
			return Credentials{}, fmt.Errorf("reading api key file: %w", err)
		}
		line, _, _ := strings.Cut(string(data), "\n")
		if k := strings.TrimSpace(line); k != "" {
			c.Key, c.KeySource = k, SourceFile
			return c, nil
		}
	}
	if k := os.Getenv(EnvAPIKey); k != "" {
		c.Key, c.KeySource = k, SourceEnv
		return c, nil
	}
	if stored.Key != "" {
		c.Key, c.KeySource = stored.Key, SourceStore
	}
	return c, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// MaskKey shortens a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
