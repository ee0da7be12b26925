package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3DeviceInfo(t *testing.T) {
	info := &S3DeviceInfo{
		Bucket:         "astro",
		Key:            "obs.fits",
		Region:         "us-east-1",
		Endpoint:       "http://fits-test.localhost",
		ForcePathStyle: true,
	}

	encoded, err := info.Encode()
	require.NoError(t, err)

	decoded, err := DecodeS3DeviceInfo(encoded)
	require.NoError(t, err)
	assert.Equal(t, info, decoded)

	opts := decoded.Opts()
	assert.Equal(t, "astro", opts.Bucket)
	assert.Equal(t, "obs.fits", opts.Key)
	assert.True(t, opts.ForcePathStyle)

	_, err = DecodeS3DeviceInfo([]byte("not gob data"))
	require.Error(t, err)
}
