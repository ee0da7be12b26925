package storage

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEndpoint = "http://fits-test.localhost"
	testBucket   = "astro"
	testKey      = "obs.fits"
)

// mockS3Object wires httpmock responders for one object: bucket and object
// HEADs plus ranged GETs.
func mockS3Object(t *testing.T, client *http.Client, data []byte) {
	t.Helper()

	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)

	// The SDK appends an x-id query parameter to some calls, so the
	// matchers allow an optional query string.
	bucketURL := fmt.Sprintf(`=~^%s/%s/?(\?.*)?$`, testEndpoint, testBucket)
	objectURL := fmt.Sprintf(`=~^%s/%s/%s(\?.*)?$`, testEndpoint, testBucket, testKey)

	httpmock.RegisterResponder("HEAD", bucketURL,
		func(req *http.Request) (*http.Response, error) {
			return httpmock.NewStringResponse(http.StatusOK, ""), nil
		})

	httpmock.RegisterResponder("HEAD", objectURL,
		func(req *http.Request) (*http.Response, error) {
			resp := httpmock.NewStringResponse(http.StatusOK, "")
			resp.ContentLength = int64(len(data))
			resp.Header.Set("Content-Length", fmt.Sprintf("%d", len(data)))
			return resp, nil
		})

	httpmock.RegisterResponder("GET", objectURL,
		func(req *http.Request) (*http.Response, error) {
			var start, end int64
			rangeHeader := req.Header.Get("Range")
			if _, err := fmt.Sscanf(rangeHeader, "bytes=%d-%d", &start, &end); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, "bad range"), nil
			}
			if end >= int64(len(data)) {
				end = int64(len(data)) - 1
			}

			body := data[start : end+1]
			resp := httpmock.NewBytesResponse(http.StatusPartialContent, body)
			resp.ContentLength = int64(len(body))
			resp.Header.Set("Content-Length", fmt.Sprintf("%d", len(body)))
			resp.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, len(data)))
			return resp, nil
		})
}

func newTestS3Device(t *testing.T, data []byte) *S3Device {
	t.Helper()

	client := &http.Client{}
	mockS3Object(t, client, data)

	dev, err := NewS3Device(S3DeviceOpts{
		Bucket:         testBucket,
		Key:            testKey,
		Region:         "us-east-1",
		Endpoint:       testEndpoint,
		AccessKey:      "test",
		SecretKey:      "test",
		ForcePathStyle: true,
		HTTPClient:     client,
	})
	require.NoError(t, err)
	return dev
}

func TestS3DeviceSize(t *testing.T) {
	data := bytes.Repeat([]byte{'z'}, 5760)
	dev := newTestS3Device(t, data)
	defer dev.Close()

	assert.Equal(t, int64(5760), dev.Size())
	assert.False(t, dev.CachedLocally())
}

func TestS3DeviceRangeRead(t *testing.T) {
	data := make([]byte, 5760)
	for i := range data {
		data[i] = byte(i % 251)
	}

	dev := newTestS3Device(t, data)
	defer dev.Close()

	t.Run("read at offset", func(t *testing.T) {
		dest := make([]byte, 80)
		n, err := dev.ReadAt(dest, 2880)
		require.NoError(t, err)
		assert.Equal(t, 80, n)
		assert.Equal(t, data[2880:2960], dest)
	})

	t.Run("read from the start", func(t *testing.T) {
		dest := make([]byte, 16)
		n, err := dev.ReadAt(dest, 0)
		require.NoError(t, err)
		assert.Equal(t, 16, n)
		assert.Equal(t, data[:16], dest)
	})
}

// TestS3DeviceLocalCachePromotion races ranged reads against the background
// goroutine promoting a complete cache file, so the handoff runs under the
// race detector.
func TestS3DeviceLocalCachePromotion(t *testing.T) {
	data := make([]byte, 5760)
	for i := range data {
		data[i] = byte(i % 251)
	}

	cachePath := filepath.Join(t.TempDir(), "obs.fits.cache")
	require.NoError(t, os.WriteFile(cachePath, data, 0644))

	client := &http.Client{}
	mockS3Object(t, client, data)

	dev, err := NewS3Device(S3DeviceOpts{
		Bucket:         testBucket,
		Key:            testKey,
		Region:         "us-east-1",
		Endpoint:       testEndpoint,
		AccessKey:      "test",
		SecretKey:      "test",
		ForcePathStyle: true,
		CachePath:      cachePath,
		HTTPClient:     client,
	})
	require.NoError(t, err)
	defer dev.Close()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dest := make([]byte, 64)
			n, err := dev.ReadAt(dest, 128)
			assert.NoError(t, err)
			assert.Equal(t, 64, n)
			assert.Equal(t, data[128:192], dest)
		}()
	}
	wg.Wait()

	require.Eventually(t, dev.CachedLocally, time.Second, 10*time.Millisecond)

	dest := make([]byte, 64)
	n, err := dev.ReadAt(dest, 2880)
	require.NoError(t, err)
	assert.Equal(t, 64, n)
	assert.Equal(t, data[2880:2944], dest)
}

// TestS3DeviceIntegration exercises a real bucket and is skipped unless
// credentials and a bucket are provided.
func TestS3DeviceIntegration(t *testing.T) {
	bucket := os.Getenv("FITS_TEST_BUCKET")
	if bucket == "" {
		t.Skip("FITS_TEST_BUCKET not set")
	}

	dev, err := NewS3Device(S3DeviceOpts{
		Bucket: bucket,
		Key:    os.Getenv("FITS_TEST_KEY"),
		Region: os.Getenv("AWS_REGION"),
	})
	require.NoError(t, err)
	defer dev.Close()

	dest := make([]byte, 2880)
	_, err = dev.ReadAt(dest, 0)
	require.NoError(t, err)
}
