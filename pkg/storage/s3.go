package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/beam-cloud/ristretto"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type S3DeviceOpts struct {
	Bucket         string
	Key            string
	Region         string
	Endpoint       string
	CachePath      string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool

	// HTTPClient overrides the transport used by the S3 client. Nil means
	// the default client.
	HTTPClient *http.Client
}

// S3Device reads a FITS file stored as a single S3 object using ranged GETs.
// Recently read ranges are kept in an in-memory cache; when a cache path is
// configured the whole object is downloaded in the background and reads are
// served from the local copy once it completes.
type S3Device struct {
	svc            *s3.Client
	bucket         string
	key            string
	size           int64
	rangeCache     *ristretto.Cache[string, []byte]
	localCachePath string

	// The background download goroutine publishes the reopened cache file
	// before flipping cachedLocally, so readers that observe the flag see
	// the handle.
	cachedLocally atomic.Bool
	cacheFile     *os.File
}

const backgroundDownloadStartupDelay = time.Second * 10

func NewS3Device(opts S3DeviceOpts) (*S3Device, error) {
	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")

	if opts.AccessKey != "" && opts.SecretKey != "" {
		accessKey = opts.AccessKey
		secretKey = opts.SecretKey
	}

	cfg, err := getAWSConfig(accessKey, secretKey, opts.Region, opts.Endpoint, opts.HTTPClient)
	if err != nil {
		return nil, err
	}

	svc := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	// Check to see if we have access to the bucket
	_, err = svc.HeadBucket(context.TODO(), &s3.HeadBucketInput{
		Bucket: aws.String(opts.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot access bucket <%s>: %v", opts.Bucket, err)
	}

	// The object may not exist yet when the device is opened for upload,
	// so a missing size is not fatal here. Reads on a zero-size device are
	// rejected by the layers above.
	var size int64
	head, err := svc.HeadObject(context.TODO(), &s3.HeadObjectInput{
		Bucket: aws.String(opts.Bucket),
		Key:    aws.String(opts.Key),
	})
	if err == nil {
		size = aws.ToInt64(head.ContentLength)
	}

	rangeCache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 1e6,
		MaxCost:     1 << 28, // 256MB of cached ranges
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	d := &S3Device{
		svc:            svc,
		bucket:         opts.Bucket,
		key:            opts.Key,
		size:           size,
		rangeCache:     rangeCache,
		localCachePath: opts.CachePath,
	}

	if opts.CachePath != "" {
		cacheFile, err := os.OpenFile(opts.CachePath, os.O_RDWR|os.O_CREATE, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache file <%s>: %v", opts.CachePath, err)
		}
		d.cacheFile = cacheFile
		go d.startBackgroundDownload()
	}

	return d, nil
}

func getAWSConfig(accessKey string, secretKey string, region string, endpoint string, httpClient *http.Client) (aws.Config, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	if endpoint != "" {
		endpointResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL: endpoint,
			}, nil
		})
		loadOpts = append(loadOpts, config.WithEndpointResolverWithOptions(endpointResolver))
	}

	if accessKey != "" && secretKey != "" {
		provider := credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")
		loadOpts = append(loadOpts, config.WithCredentialsProvider(provider))
	}

	if httpClient != nil {
		loadOpts = append(loadOpts, config.WithHTTPClient(httpClient))
	}

	return config.LoadDefaultConfig(context.TODO(), loadOpts...)
}

func (d *S3Device) Size() int64 {
	return d.size
}

func (d *S3Device) ReadAt(dest []byte, off int64) (int, error) {
	if d.cachedLocally.Load() {
		return d.cacheFile.ReadAt(dest, off)
	}

	cacheKey := fmt.Sprintf("%s:%d:%d", d.key, off, len(dest))
	if cached, found := d.rangeCache.Get(cacheKey); found {
		return copy(dest, cached), nil
	}

	resp, err := d.svc.GetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, off+int64(len(dest))-1)),
	})
	if err != nil {
		return 0, fmt.Errorf("unable to read range from object: %v", err)
	}
	defer resp.Body.Close()

	n, err := io.ReadFull(resp.Body, dest)
	if err != nil && err != io.ErrUnexpectedEOF {
		return n, err
	}

	d.rangeCache.Set(cacheKey, append([]byte(nil), dest[:n]...), int64(n))
	return n, nil
}

func (d *S3Device) Upload(ctx context.Context, path string, progressChan chan<- int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file <%s>: %v", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}

	length := fi.Size()

	pr := &progressReader{
		file: f,
		size: length,
		ch:   progressChan,
	}

	uploader := manager.NewUploader(d.svc, func(u *manager.Uploader) {
		u.Concurrency = 16
	})

	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(d.bucket),
		Key:           aws.String(d.key),
		Body:          pr,
		ContentLength: &length,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %v", err)
	}

	return nil
}

func (d *S3Device) startBackgroundDownload() {
	cacheFileInfo, err := d.cacheFile.Stat()
	if err == nil && cacheFileInfo.Size() == d.size {
		log.Info().Msgf("cache file <%s> exists", d.localCachePath)
		d.cachedLocally.Store(true)
		return
	}

	// Wait a bit before kicking off the background download job
	time.Sleep(backgroundDownloadStartupDelay)

	tmpCacheFile := fmt.Sprintf("%s.%s", d.localCachePath, uuid.New().String()[:6])
	lockFilePath := fmt.Sprintf("%s.lock", d.localCachePath)

	fileLock := flock.New(lockFilePath)

	locked, err := fileLock.TryLock()
	if err != nil {
		log.Error().Msgf("error while trying to acquire file lock: %v", err)
		return
	}

	if !locked {
		log.Warn().Msgf("another process is already caching %s, skipping download", d.localCachePath)
		return
	}

	defer fileLock.Unlock()
	defer os.Remove(lockFilePath)

	log.Info().Msgf("caching <s3://%s/%s> to <%s>", d.bucket, d.key, d.localCachePath)
	startTime := time.Now()

	downloader := manager.NewDownloader(d.svc)
	downloader.Concurrency = 16

	f, err := os.Create(tmpCacheFile)
	if err != nil {
		log.Error().Msgf("failed to create file %q: %v", tmpCacheFile, err)
		return
	}
	defer f.Close()

	_, err = downloader.Download(context.TODO(), f, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.key),
	})
	if err != nil {
		log.Error().Msgf("failed to download object: %v", err)
		os.Remove(tmpCacheFile)
		return
	}

	if err := os.Rename(tmpCacheFile, d.localCachePath); err != nil {
		log.Error().Msgf("failed to move cache file into place: %v", err)
		os.Remove(tmpCacheFile)
		return
	}

	cacheFile, err := os.Open(d.localCachePath)
	if err != nil {
		log.Error().Msgf("failed to reopen cache file: %v", err)
		return
	}

	old := d.cacheFile
	d.cacheFile = cacheFile
	d.cachedLocally.Store(true)
	old.Close()

	log.Info().Msgf("cached <%s>, took %s", d.localCachePath, time.Since(startTime))
}

func (d *S3Device) CachedLocally() bool {
	return d.cachedLocally.Load()
}

func (d *S3Device) Close() error {
	if d.cacheFile != nil {
		return d.cacheFile.Close()
	}
	return nil
}

type progressReader struct {
	file *os.File
	size int64
	read int64
	ch   chan<- int
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.file.Read(p)
	if n > 0 {
		pr.read += int64(n)
		progress := int(float64(pr.read) / float64(pr.size) * 100)

		if pr.ch != nil {
			pr.ch <- progress
		}
	}
	return n, err
}
