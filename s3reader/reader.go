// Package s3reader exposes an S3 object as an io.ReaderAt backed by ranged
// GetObject calls, so remote archives can be opened and listed without
// downloading the whole object first. Container listings touch only the
// directory portion of an archive, which for most formats is a tiny fraction
// of the object.
package s3reader

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Reader reads an S3 object with ranged GetObject. It satisfies the reader
// contract of [sevenz.OpenReaderAt]: concurrent ReadAt calls are independent
// GetObject requests; the sequential Read side keeps a small readahead
// buffer.
type Reader interface {
	io.Reader
	io.ReaderAt

	// Size returns the object's content length.
	Size() int64
}

// Client abstracts the S3 API needed by New.
type Client interface {
	GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// GetClient is the subset of Client that NewWithSize needs.
type GetClient interface {
	GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Options customises New and NewWithSize.
type Options struct {
	// CtxFn returns the context for every GetObject call. Defaults to
	// context.Background.
	CtxFn func() context.Context

	// ModifyGetObjectInput can add parameters such as ExpectedBucketOwner to
	// each GetObject call.
	ModifyGetObjectInput func(*s3.GetObjectInput) *s3.GetObjectInput
}

// New returns a Reader for the given bucket and key, using HeadObject to
// determine the object's size.
func New(ctx context.Context, client Client, bucket, key string, optFns ...func(*Options)) (Reader, error) {
	headObjectOutput, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf(`head object "s3://%s/%s" error: %w`, bucket, key, err)
	}

	return NewWithSize(client, bucket, key, aws.ToInt64(headObjectOutput.ContentLength), optFns...), nil
}

// NewWithSize returns a Reader for an object of known size, skipping the
// HeadObject round trip.
func NewWithSize(client GetClient, bucket, key string, size int64, optFns ...func(*Options)) Reader {
	opts := &Options{
		CtxFn: context.Background,
		ModifyGetObjectInput: func(input *s3.GetObjectInput) *s3.GetObjectInput {
			return input
		},
	}
	for _, fn := range optFns {
		fn(opts)
	}

	return &reader{
		client:               client,
		bucket:               bucket,
		key:                  key,
		size:                 size,
		ctxFn:                opts.CtxFn,
		modifyGetObjectInput: opts.ModifyGetObjectInput,
		bufferSize:           defaultBufferSize,
	}
}

const defaultBufferSize = 64 * 1024

type reader struct {
	client               GetClient
	bucket, key          string
	size                 int64
	ctxFn                func() context.Context
	modifyGetObjectInput func(*s3.GetObjectInput) *s3.GetObjectInput

	// sequential Read state.
	off        int64
	buf        bytes.Buffer
	bufferSize int
}

func (r *reader) Size() int64 {
	return r.size
}

func (r *reader) getRange(start, end int64) (io.ReadCloser, error) {
	getObjectOutput, err := r.client.GetObject(r.ctxFn(), r.modifyGetObjectInput(&s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", start, end)),
	}))
	if err != nil {
		return nil, fmt.Errorf(`get object "s3://%s/%s" error: %w`, r.bucket, r.key, err)
	}

	return getObjectOutput.Body, nil
}

func (r *reader) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	if r.off >= r.size {
		return 0, io.EOF
	}

	// serve from the readahead buffer when possible.
	if r.buf.Len() >= len(p) {
		n, err = r.buf.Read(p)
		r.off += int64(n)
		return
	}

	rangeStart := r.off + int64(r.buf.Len())
	rangeEnd := min(r.off+max(int64(len(p)), int64(r.bufferSize)), r.size) - 1
	if rangeStart <= rangeEnd {
		body, err := r.getRange(rangeStart, rangeEnd)
		if err != nil {
			return 0, err
		}

		_, err = r.buf.ReadFrom(body)
		if _ = body.Close(); err != nil {
			return 0, err
		}
	}

	n, err = r.buf.Read(p)
	r.off += int64(n)
	return
}

func (r *reader) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}

	// clamp to the object so reads at the tail return what exists plus EOF,
	// matching io.ReaderAt for files.
	want := int64(len(p))
	if off+want > r.size {
		want = r.size - off
	}
	if want <= 0 {
		return 0, io.EOF
	}

	body, err := r.getRange(off, off+want-1)
	if err != nil {
		return 0, err
	}

	n, err = io.ReadFull(body, p[:want])
	_ = body.Close()
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	if err == nil && int64(n) < int64(len(p)) {
		err = io.EOF
	}
	return
}
