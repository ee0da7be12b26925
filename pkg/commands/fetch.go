package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/stelladrift/fits/pkg/fits"
	"github.com/stelladrift/fits/pkg/storage"
)

var fetchOpts = struct {
	Bucket         string
	Key            string
	Region         string
	Endpoint       string
	CachePath      string
	Info           string
	ForcePathStyle bool
}{}

var FetchCmd = &cobra.Command{
	Use:   "fetch <output>",
	Short: "Download a FITS file from S3 and write it to a local path",
	Args:  cobra.ExactArgs(1),
	RunE:  runFetch,
}

func init() {
	FetchCmd.Flags().StringVar(&fetchOpts.Bucket, "bucket", "", "Source S3 bucket")
	FetchCmd.Flags().StringVar(&fetchOpts.Key, "key", "", "Source object key")
	FetchCmd.Flags().StringVar(&fetchOpts.Region, "region", "", "AWS region of the bucket")
	FetchCmd.Flags().StringVar(&fetchOpts.Endpoint, "endpoint", "", "Custom S3 endpoint URL")
	FetchCmd.Flags().StringVar(&fetchOpts.CachePath, "cache", "", "Local cache path for remote reads")
	FetchCmd.Flags().StringVar(&fetchOpts.Info, "info", "", "Device info file written by store, used instead of the bucket flags")
	FetchCmd.Flags().BoolVar(&fetchOpts.ForcePathStyle, "force-path-style", false, "Use path-style S3 addressing")
}

// fetchDeviceOpts resolves the source object from a saved device info file or
// from the command flags.
func fetchDeviceOpts() (storage.S3DeviceOpts, error) {
	if fetchOpts.Info != "" {
		data, err := os.ReadFile(fetchOpts.Info)
		if err != nil {
			return storage.S3DeviceOpts{}, err
		}

		info, err := storage.DecodeS3DeviceInfo(data)
		if err != nil {
			return storage.S3DeviceOpts{}, fmt.Errorf("decoding device info <%s>: %w", fetchOpts.Info, err)
		}

		opts := info.Opts()
		opts.CachePath = fetchOpts.CachePath
		return opts, nil
	}

	if fetchOpts.Bucket == "" || fetchOpts.Key == "" {
		return storage.S3DeviceOpts{}, errors.New("either --info or both --bucket and --key are required")
	}

	return storage.S3DeviceOpts{
		Bucket:         fetchOpts.Bucket,
		Key:            fetchOpts.Key,
		Region:         fetchOpts.Region,
		Endpoint:       fetchOpts.Endpoint,
		CachePath:      fetchOpts.CachePath,
		ForcePathStyle: fetchOpts.ForcePathStyle,
	}, nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	opts, err := fetchDeviceOpts()
	if err != nil {
		return err
	}

	dev, err := storage.NewS3Device(opts)
	if err != nil {
		return err
	}

	f, err := fits.OpenDevice(dev, fmt.Sprintf("s3://%s/%s", opts.Bucket, opts.Key))
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(args[0]); err != nil {
		return err
	}

	log.Info().Msgf("fetched s3://%s/%s to %s", opts.Bucket, opts.Key, args[0])
	return nil
}
