package smarty

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(srv *httptest.Server) *Client {
	return New(
		Credentials{AuthID: "id", AuthToken: "token"},
		Options{BaseURL: srv.URL, HTTPClient: srv.Client()},
	)
}

func TestVerify_Success(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{
			"metadata": {"rdi": "Commercial"},
			"analysis": {"dpv_cmra": "Y"}
		}]`)
	}))
	defer srv.Close()

	res, err := testClient(srv).Verify(context.Background(), Lookup{
		Street: "123 Main St", City: "Airmont", State: "NY", ZipCode: "10901", Secondary: "#244",
	})
	require.NoError(t, err)
	assert.Equal(t, "Commercial", res.RDI)
	assert.Equal(t, "Y", res.CMRA)

	assert.Equal(t, []string{"id"}, gotQuery["auth-id"])
	assert.Equal(t, []string{"token"}, gotQuery["auth-token"])
	assert.Equal(t, []string{"1"}, gotQuery["candidates"])
	assert.Equal(t, []string{"strict"}, gotQuery["match"])
	assert.Equal(t, []string{"#244"}, gotQuery["secondary"])
}

func TestVerify_SecondaryOmittedWhenEmpty(t *testing.T) {
	var hasSecondary bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasSecondary = r.URL.Query()["secondary"]
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	_, err := testClient(srv).Verify(context.Background(), Lookup{
		Street: "123 Main St", City: "Airmont", State: "NY", ZipCode: "10901",
	})
	require.NoError(t, err)
	assert.False(t, hasSecondary)
}

func TestVerify_NoCandidatesMeansInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	res, err := testClient(srv).Verify(context.Background(), Lookup{Street: "1 Nowhere"})
	require.NoError(t, err)
	assert.Equal(t, Invalid, res.RDI)
	assert.Equal(t, Invalid, res.CMRA)
}

func TestVerify_MissingFieldsMeanUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"metadata": {}, "analysis": {}}]`)
	}))
	defer srv.Close()

	res, err := testClient(srv).Verify(context.Background(), Lookup{Street: "1 Somewhere"})
	require.NoError(t, err)
	assert.Equal(t, Unknown, res.RDI)
	assert.Equal(t, Unknown, res.CMRA)
}

func TestVerify_HTTPErrorsAreErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(srv).Verify(context.Background(), Lookup{Street: "1 Somewhere"})
	assert.Error(t, err)
}

func TestVerify_MalformedJSONIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"not": "a list"`)
	}))
	defer srv.Close()

	_, err := testClient(srv).Verify(context.Background(), Lookup{Street: "1 Somewhere"})
	assert.Error(t, err)
}

func TestLoadCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smarty_api_key.txt")
	content := "auth_id = abc \nauth_token=xyz\n# comment line\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	// Keys must match exactly; "auth_id = abc" has a space before '='.
	_, err := LoadCredentials(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("auth_id=abc\nauth_token=xyz\n"), 0o600))
	creds, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", creds.AuthID)
	assert.Equal(t, "xyz", creds.AuthToken)
}

func TestLoadCredentials_MissingFileHasRemediation(t *testing.T) {
	_, err := LoadCredentials(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth_id=YOUR_AUTH_ID")
}

func TestLoadCredentials_MissingKeyFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smarty_api_key.txt")
	require.NoError(t, os.WriteFile(path, []byte("auth_id=abc\n"), 0o600))

	_, err := LoadCredentials(path)
	assert.Error(t, err)
}
