package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"tsm-go/internal/config"
	"tsm-go/internal/tsm"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// NewS3Client creates an S3-compatible client (AWS S3, MinIO, R2) from the
// store config. Static credentials are used when both keys are set;
// otherwise the default AWS credential chain applies.
func NewS3Client(ctx context.Context, cfg config.StoreConfig) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKeyID != "" && cfg.S3SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.S3Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		})
	}
	if cfg.S3ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return s3.NewFromConfig(awsCfg, s3Opts...), nil
}

// S3Store keeps each archive as one object, <prefix>/<name>.tar.age (or
// .tar without an encryptor). Tarballs are streamed through the multipart
// upload manager and never touch local disk.
type S3Store struct {
	client    S3API
	uploader  *manager.Uploader
	bucket    string
	prefix    string
	fsmgr     tsm.FilesystemManager
	encryptor tsm.Encryptor
	logger    tsm.Logger
}

// NewS3Store creates a store on bucket. enc may be nil.
func NewS3Store(client S3API, bucket, prefix string, fsmgr tsm.FilesystemManager, enc tsm.Encryptor, logger tsm.Logger) *S3Store {
	if logger == nil {
		logger = tsm.NewNopLogger()
	}
	return &S3Store{
		client:    client,
		uploader:  manager.NewUploader(client),
		bucket:    bucket,
		prefix:    strings.Trim(prefix, "/"),
		fsmgr:     fsmgr,
		encryptor: enc,
		logger:    logger,
	}
}

// Create uploads the archive. It fails if the object already exists.
func (s *S3Store) Create(ctx context.Context, id tsm.ArchiveID, paths []string) error {
	key := s.objectKey(id)
	exists, err := s.exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("archive already exists: %s", id)
	}

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(writeArchive(ctx, s.fsmgr, s.encryptor, paths, pw))
	}()

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        pr,
		ContentType: aws.String("application/octet-stream"),
		Metadata: map[string]string{
			"tsm-archive": id.Name,
			"tsm-tier":    string(id.Tier),
			"tsm-date":    id.Date.String(),
		},
	})
	pr.CloseWithError(err)
	if err != nil {
		return fmt.Errorf("uploading archive to S3: %w", err)
	}

	s.logger.Debug("archive uploaded to S3", "archive", id.String(), "key", key)
	return nil
}

// Delete removes the archive object. S3 treats deleting a missing key as
// success.
func (s *S3Store) Delete(ctx context.Context, id tsm.ArchiveID) error {
	for _, key := range s.candidateKeys(id) {
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: &s.bucket,
			Key:    aws.String(key),
		}); err != nil {
			return fmt.Errorf("deleting archive from S3: %w", err)
		}
	}
	return nil
}

// List returns the sorted names of the archives under the prefix.
func (s *S3Store) List(ctx context.Context) ([]string, error) {
	input := &s3.ListObjectsV2Input{Bucket: &s.bucket}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix + "/")
	}

	var names []string
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing S3 objects: %w", err)
		}
		for _, obj := range page.Contents {
			name := path.Base(aws.ToString(obj.Key))
			switch {
			case strings.HasSuffix(name, ageSuffix):
				names = append(names, strings.TrimSuffix(name, ageSuffix))
			case strings.HasSuffix(name, tarSuffix):
				names = append(names, strings.TrimSuffix(name, tarSuffix))
			}
		}
	}
	slices.Sort(names)
	return names, nil
}

// Describe returns a one-line description of a store call, used for
// dry runs.
func (s *S3Store) Describe(op string, id tsm.ArchiveID, paths []string) string {
	if op == "delete" {
		return fmt.Sprintf("s3 rm s3://%s/%s", s.bucket, s.objectKey(id))
	}
	return fmt.Sprintf("s3 put s3://%s/%s %s", s.bucket, s.objectKey(id), strings.Join(paths, " "))
}

func (s *S3Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err == nil {
		return true, nil
	}
	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("checking S3 object %s: %w", key, err)
}

func (s *S3Store) objectKey(id tsm.ArchiveID) string {
	if s.encryptor == nil {
		return s.key(id.String() + tarSuffix)
	}
	return s.key(id.String() + ageSuffix)
}

func (s *S3Store) candidateKeys(id tsm.ArchiveID) []string {
	return []string{s.key(id.String() + ageSuffix), s.key(id.String() + tarSuffix)}
}

func (s *S3Store) key(name string) string {
	if s.prefix != "" {
		return s.prefix + "/" + name
	}
	return name
}

var (
	_ tsm.ArchiveStore  = (*S3Store)(nil)
	_ tsm.ArchiveLister = (*S3Store)(nil)
)
