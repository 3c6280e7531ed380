package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingServer records how many requests actually reached the network.
func countingServer(t *testing.T) (*Client, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"ok","data":{}}`))
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL, ""), &hits
}

func writeTempFile(t *testing.T, name string, size int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))
	require.NoError(t, f.Close())
	return path
}

func TestValidateUploadFile(t *testing.T) {
	t.Run("accepts a 5MB pdf", func(t *testing.T) {
		path := writeTempFile(t, "resume.pdf", 5*1024*1024)
		assert.NoError(t, ValidateUploadFile(path))
	})

	t.Run("accepts docx at exactly the limit", func(t *testing.T) {
		path := writeTempFile(t, "resume.docx", MaxUploadBytes)
		assert.NoError(t, ValidateUploadFile(path))
	})

	t.Run("rejects an 11MB file", func(t *testing.T) {
		path := writeTempFile(t, "resume.pdf", 11*1024*1024)
		err := ValidateUploadFile(path)
		require.Error(t, err)
		assert.True(t, IsValidation(err))
		assert.Contains(t, err.Error(), "exceeds 10MB limit")
	})

	t.Run("rejects unsupported types", func(t *testing.T) {
		path := writeTempFile(t, "resume.txt", 100)
		err := ValidateUploadFile(path)
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	})
}

func TestUpload_OversizeMakesZeroNetworkCalls(t *testing.T) {
	api, hits := countingServer(t)
	path := writeTempFile(t, "resume.pdf", 11*1024*1024)

	_, err := api.Upload(context.Background(), path)

	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.EqualValues(t, 0, hits.Load(), "oversize upload must be rejected before any network call")
}

func TestValidateDownloadFormat(t *testing.T) {
	assert.NoError(t, ValidateDownloadFormat("docx"))
	assert.NoError(t, ValidateDownloadFormat("pdf"))

	for _, format := range []string{"exe", "PDF", "doc", ""} {
		err := ValidateDownloadFormat(format)
		require.Error(t, err, "format %q", format)
		assert.True(t, IsValidation(err))
		assert.False(t, IsTransport(err), "a bad format is a validation error, never transport")
	}
}

func TestDownload_InvalidFormatMakesZeroNetworkCalls(t *testing.T) {
	api, hits := countingServer(t)

	err := api.Download(context.Background(), "cv-123", "exe", filepath.Join(t.TempDir(), "out.exe"))

	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.EqualValues(t, 0, hits.Load())
}
