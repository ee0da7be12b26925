package storage

import (
	"errors"
)

// BlockDevice is the storage surface the FITS engine reads from: a sized,
// random-access byte store. Reads are independent of each other, so multiple
// readers over disjoint ranges of the same device are safe.
type BlockDevice interface {
	// Size returns the total size of the device in bytes.
	Size() int64

	// ReadAt reads len(dest) bytes starting at off. It returns the number
	// of bytes read; n < len(dest) is always accompanied by an error.
	ReadAt(dest []byte, off int64) (int, error)

	// Close releases the underlying handle.
	Close() error
}

type BlockDeviceOpts struct {
	// Path of a local file. Ignored when S3 is set.
	Path string

	// S3 selects the remote backend when non-nil.
	S3 *S3DeviceOpts
}

// NewBlockDevice opens the backend selected by opts.
func NewBlockDevice(opts BlockDeviceOpts) (BlockDevice, error) {
	if opts.S3 != nil {
		return NewS3Device(*opts.S3)
	}

	if opts.Path == "" {
		return nil, errors.New("no device path provided")
	}

	return NewLocalDevice(opts.Path)
}
