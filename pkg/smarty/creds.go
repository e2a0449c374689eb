package smarty

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Credentials are the two opaque strings the API authenticates with.
type Credentials struct {
	AuthID    string
	AuthToken string
}

// LoadCredentials reads an auth_id/auth_token key-value file. The error
// messages double as remediation text: a missing or malformed file is a
// fatal startup condition and the operator needs to know the expected
// format.
func LoadCredentials(path string) (Credentials, error) {
	f, err := os.Open(path)
	if err != nil {
		return Credentials{}, eris.Wrapf(err,
			"smarty: credentials file not found at %s; create it with lines:\nauth_id=YOUR_AUTH_ID\nauth_token=YOUR_AUTH_TOKEN", path)
	}
	defer func() { _ = f.Close() }()

	var creds Credentials
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "auth_id="):
			creds.AuthID = strings.TrimSpace(strings.TrimPrefix(line, "auth_id="))
		case strings.HasPrefix(line, "auth_token="):
			creds.AuthToken = strings.TrimSpace(strings.TrimPrefix(line, "auth_token="))
		}
	}
	if err := scanner.Err(); err != nil {
		return Credentials{}, eris.Wrapf(err, "smarty: read credentials %s", path)
	}

	if creds.AuthID == "" || creds.AuthToken == "" {
		return Credentials{}, eris.Errorf(
			"smarty: invalid credentials file %s: missing auth_id or auth_token", path)
	}
	return creds, nil
}

// FindCredentials resolves the credentials file: the given path as-is
// first, then a same-named file next to the executable.
func FindCredentials(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), filepath.Base(name))
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", eris.Errorf(
		"smarty: credentials file %q not found in the working directory or next to the executable", name)
}
