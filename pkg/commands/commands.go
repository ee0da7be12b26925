package commands

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stelladrift/fits/pkg/fits"
	"github.com/stelladrift/fits/pkg/storage"
)

// SetLogLevel configures the logging verbosity for fitsctl.
// Valid levels: "debug", "info", "warn", "error", "disabled"
func SetLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "disabled", "none", "off":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		return fmt.Errorf("invalid log level %q: must be one of: debug, info, warn, error, disabled", level)
	}
	return nil
}

// deviceOpts are the shared flags selecting where a FITS file lives: a local
// path by default, or an S3 object when a bucket is given.
type deviceOpts struct {
	Bucket         string
	Region         string
	Endpoint       string
	CachePath      string
	ForcePathStyle bool
}

func (o *deviceOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Bucket, "bucket", "", "Read the file from this S3 bucket instead of local storage")
	cmd.Flags().StringVar(&o.Region, "region", "", "AWS region of the bucket")
	cmd.Flags().StringVar(&o.Endpoint, "endpoint", "", "Custom S3 endpoint URL")
	cmd.Flags().StringVar(&o.CachePath, "cache", "", "Local cache path for remote reads")
	cmd.Flags().BoolVar(&o.ForcePathStyle, "force-path-style", false, "Use path-style S3 addressing")
}

// openTarget opens target as a FITS file on the backend selected by opts.
// For S3 the target is the object key.
func openTarget(target string, opts deviceOpts) (*fits.File, error) {
	if opts.Bucket == "" {
		return fits.Open(target)
	}

	dev, err := storage.NewS3Device(storage.S3DeviceOpts{
		Bucket:         opts.Bucket,
		Key:            target,
		Region:         opts.Region,
		Endpoint:       opts.Endpoint,
		CachePath:      opts.CachePath,
		ForcePathStyle: opts.ForcePathStyle,
	})
	if err != nil {
		return nil, err
	}

	return fits.OpenDevice(dev, fmt.Sprintf("s3://%s/%s", opts.Bucket, target))
}
