package storage

import (
	"bytes"
	"encoding/gob"
)

// S3DeviceInfo records where a remote FITS file lives, in a form that can be
// persisted next to local artifacts and used to reopen the device later.
type S3DeviceInfo struct {
	Bucket         string
	Key            string
	Region         string
	Endpoint       string
	ForcePathStyle bool
}

func (i *S3DeviceInfo) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(i); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeS3DeviceInfo(data []byte) (*S3DeviceInfo, error) {
	var info S3DeviceInfo
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Opts maps the info onto device options.
func (i *S3DeviceInfo) Opts() S3DeviceOpts {
	return S3DeviceOpts{
		Bucket:         i.Bucket,
		Key:            i.Key,
		Region:         i.Region,
		Endpoint:       i.Endpoint,
		ForcePathStyle: i.ForcePathStyle,
	}
}
