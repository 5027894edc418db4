package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/modules/tokensale/internal/entity"
	"github.com/gaze-network/token-sale/pkg/logger"
	"github.com/gaze-network/token-sale/pkg/logger/slogx"
	"github.com/gaze-network/token-sale/pkg/parquetutils"
	"golang.org/x/sync/errgroup"
)

const (
	HoldersFileName = "holders.parquet"
	GrantsFileName  = "grants.parquet"
)

type Config struct {
	S3Bucket string `mapstructure:"s3_bucket"` // Empty bucket writes to the local output directory.
	S3Prefix string `mapstructure:"s3_prefix"`
	S3Region string `mapstructure:"s3_region"`
}

// Store persists an encoded snapshot file under key.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	// Location returns a human-readable location of key, used in logs.
	Location(key string) string
}

// Exporter encodes snapshots to parquet and hands the files to a Store.
type Exporter struct {
	store Store
}

func NewExporter(store Store) *Exporter {
	return &Exporter{store: store}
}

// Export writes both files of the snapshot and returns their keys.
// Keys are "seq-<seq>/holders.parquet" and "seq-<seq>/grants.parquet".
func (e *Exporter) Export(ctx context.Context, s *entity.Snapshot) ([]string, error) {
	dir := fmt.Sprintf("seq-%d", s.Seq)
	keys := []string{
		path.Join(dir, HoldersFileName),
		path.Join(dir, GrantsFileName),
	}
	encoders := []func() ([]byte, error){
		func() ([]byte, error) { return encode(HolderRows(ctx, s)) },
		func() ([]byte, error) { return encode(GrantRows(ctx, s)) },
	}

	eg, ectx := errgroup.WithContext(ctx)
	for i := range keys {
		key, encodeFile := keys[i], encoders[i]
		eg.Go(func() error {
			data, err := encodeFile()
			if err != nil {
				return errors.Wrapf(err, "can't encode %s", key)
			}
			if err := e.store.Put(ectx, key, data); err != nil {
				return errors.Wrapf(err, "can't store %s", key)
			}
			logger.InfoContext(ctx, "Exported snapshot file",
				slogx.String("location", e.store.Location(key)),
				slogx.Int("bytes", len(data)),
				slogx.Uint64("seq", s.Seq),
			)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, errors.WithStack(err)
	}
	return keys, nil
}

func encode[T any](rows []T) ([]byte, error) {
	file := parquetutils.NewBufferFile(nil)
	if err := parquetutils.WriteAll(file, rows); err != nil {
		return nil, errors.WithStack(err)
	}
	return file.Bytes(), nil
}

// LocalStore writes files below a directory.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

func (s *LocalStore) Put(_ context.Context, key string, data []byte) error {
	target := s.Location(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrap(err, "can't create output directory")
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return errors.Wrap(err, "can't write file")
	}
	return nil
}

func (s *LocalStore) Location(key string) string {
	return filepath.Join(s.dir, filepath.FromSlash(key))
}

// S3Store uploads files to a bucket using the default AWS credential chain.
type S3Store struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

func NewS3Store(ctx context.Context, conf Config) (*S3Store, error) {
	if conf.S3Bucket == "" {
		return nil, errors.Wrap(errs.InvalidArgument, "s3 bucket is required")
	}
	sdkConfig, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "can't load aws user config")
	}
	client := s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
		if conf.S3Region != "" {
			o.Region = conf.S3Region
		}
	})
	return &S3Store{
		uploader: manager.NewUploader(client),
		bucket:   conf.S3Bucket,
		prefix:   utils.Default(conf.S3Prefix, "snapshots"),
	}, nil
}

func (s *S3Store) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path.Join(s.prefix, key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/vnd.apache.parquet"),
	})
	if err != nil {
		return errors.Wrap(err, "can't upload to s3")
	}
	return nil
}

func (s *S3Store) Location(key string) string {
	return "s3://" + s.bucket + "/" + path.Join(s.prefix, key)
}
