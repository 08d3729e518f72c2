package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cryfox/vaultcore/internal/common"
)

// IdentityConfigName is the KEY=VALUE file holding identity service settings.
const IdentityConfigName = ".supabase.config"

const (
	KeyIdentityURL     = "SUPABASE_URL"
	KeyIdentityAnonKey = "SUPABASE_ANON_KEY"
)

// IdentitySettings are the values the identity client needs.
type IdentitySettings struct {
	URL     string
	AnonKey string
}

// FindIdentityConfig returns the first existing identity config file: cwd
// first, then the per-user config directory under home. Either argument may
// be empty to skip that location.
func FindIdentityConfig(cwd, home string) (string, error) {
	var candidates []string
	if cwd != "" {
		candidates = append(candidates, filepath.Join(cwd, IdentityConfigName))
	}
	if home != "" {
		candidates = append(candidates, filepath.Join(DefaultDir(home), IdentityConfigName))
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s not found, please create it", common.ErrConfigurationMissing, IdentityConfigName)
}

// ParseKeyValue reads KEY=VALUE lines. Lines are trimmed; blank lines and
// lines starting with '#' are ignored, as is any line that does not split
// into exactly two parts on '='. Keys and values are trimmed and a later key
// replaces an earlier one.
func ParseKeyValue(r io.Reader) (map[string]string, error) {
	out := make(map[string]string)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "=")
		if len(parts) != 2 {
			continue
		}
		out[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read key/value config: %w", err)
	}
	return out, nil
}

// LoadKeyValueFile parses the KEY=VALUE file at path.
func LoadKeyValueFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", common.ErrConfigurationMissing, path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseKeyValue(f)
}

// LoadIdentitySettings reads path and checks that both required keys are
// present and non-empty.
func LoadIdentitySettings(path string) (*IdentitySettings, error) {
	kv, err := LoadKeyValueFile(path)
	if err != nil {
		return nil, err
	}

	s := &IdentitySettings{URL: kv[KeyIdentityURL], AnonKey: kv[KeyIdentityAnonKey]}
	if s.URL == "" {
		return nil, fmt.Errorf("%w: %s not configured", common.ErrConfigurationMissing, KeyIdentityURL)
	}
	if s.AnonKey == "" {
		return nil, fmt.Errorf("%w: %s not configured", common.ErrConfigurationMissing, KeyIdentityAnonKey)
	}
	return s, nil
}

// ResolveIdentitySettings finds and loads the identity config for the
// current process.
func ResolveIdentitySettings() (*IdentitySettings, error) {
	cwd, _ := os.Getwd()
	home, _ := os.UserHomeDir()

	path, err := FindIdentityConfig(cwd, home)
	if err != nil {
		return nil, err
	}
	return LoadIdentitySettings(path)
}
