package commands

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/stelladrift/fits/pkg/fits"
	"github.com/stelladrift/fits/pkg/storage"
)

var storeOpts = struct {
	Bucket         string
	Key            string
	Region         string
	Endpoint       string
	Info           string
	ForcePathStyle bool
}{}

var StoreCmd = &cobra.Command{
	Use:   "store <file>",
	Short: "Validate a file and upload it to S3",
	Args:  cobra.ExactArgs(1),
	RunE:  runStore,
}

func init() {
	StoreCmd.Flags().StringVar(&storeOpts.Bucket, "bucket", "", "Destination S3 bucket")
	StoreCmd.Flags().StringVar(&storeOpts.Key, "key", "", "Destination object key (defaults to the file name)")
	StoreCmd.Flags().StringVar(&storeOpts.Region, "region", "", "AWS region of the bucket")
	StoreCmd.Flags().StringVar(&storeOpts.Endpoint, "endpoint", "", "Custom S3 endpoint URL")
	StoreCmd.Flags().StringVar(&storeOpts.Info, "info", "", "Write a device info file for fetch to this path")
	StoreCmd.Flags().BoolVar(&storeOpts.ForcePathStyle, "force-path-style", false, "Use path-style S3 addressing")
	StoreCmd.MarkFlagRequired("bucket")
}

func runStore(cmd *cobra.Command, args []string) error {
	// Refuse to upload anything that does not parse as FITS.
	f, err := fits.Open(args[0])
	if err != nil {
		return err
	}
	f.Close()

	key := storeOpts.Key
	if key == "" {
		key = filepath.Base(args[0])
	}

	dev, err := storage.NewS3Device(storage.S3DeviceOpts{
		Bucket:         storeOpts.Bucket,
		Key:            key,
		Region:         storeOpts.Region,
		Endpoint:       storeOpts.Endpoint,
		ForcePathStyle: storeOpts.ForcePathStyle,
	})
	if err != nil {
		return err
	}
	defer dev.Close()

	if err := dev.Upload(context.Background(), args[0], nil); err != nil {
		return err
	}

	if storeOpts.Info != "" {
		info := &storage.S3DeviceInfo{
			Bucket:         storeOpts.Bucket,
			Key:            key,
			Region:         storeOpts.Region,
			Endpoint:       storeOpts.Endpoint,
			ForcePathStyle: storeOpts.ForcePathStyle,
		}

		encoded, err := info.Encode()
		if err != nil {
			return err
		}
		if err := os.WriteFile(storeOpts.Info, encoded, 0644); err != nil {
			return err
		}
	}

	log.Info().Msgf("uploaded %s to s3://%s/%s", args[0], storeOpts.Bucket, key)
	return nil
}
