package s3reader

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
)

// testClient slices into its in-memory data to answer ranged GetObject.
//
// calls keeps track of GetObject input parameters for asserting.
type testClient struct {
	data []byte

	mu    sync.Mutex
	calls []s3.GetObjectInput
}

func randomTestClient(n int) *testClient {
	data := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, data); err != nil {
		panic(err)
	}

	return &testClient{data: data}
}

func (c *testClient) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = nil
}

func (c *testClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.calls)
}

func (c *testClient) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	c.mu.Lock()
	c.calls = append(c.calls, *input)
	c.mu.Unlock()

	rangeBytes := aws.ToString(input.Range)
	values := strings.SplitN(strings.TrimPrefix(rangeBytes, "bytes="), "-", 2)
	if len(values) != 2 {
		return nil, fmt.Errorf("invalid range: %s", rangeBytes)
	}

	i, err := strconv.ParseInt(values[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid start byte in range `%s`: %w", rangeBytes, err)
	}

	if values[1] == "" {
		return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(c.data[i:]))}, nil
	}

	j, err := strconv.ParseInt(values[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid end byte in range `%s`: %w", rangeBytes, err)
	}

	// S3 clamps the end of a range to the object's last byte.
	j = min(j, int64(len(c.data))-1)

	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(c.data[i : j+1]))}, nil
}

func (c *testClient) HeadObject(_ context.Context, _ *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(c.data)))}, nil
}

func TestReader_Read(t *testing.T) {
	ctx := context.Background()
	tc := randomTestClient(1024)
	r, err := New(ctx, tc, "bucket", "key")
	assert.NoErrorf(t, err, "New(...) error = %v", err)
	assert.Equal(t, int64(1024), r.Size())

	// a single read gets all data in one GetObject call.
	buf := make([]byte, len(tc.data))
	assertReadEqual(t, r, buf, tc.data)
	assert.Equalf(t, 1, tc.callCount(), "Read(buf) should have made only 1 GetObject call; got %d", tc.callCount())

	// reading past EOF makes no further calls.
	tc.clear()
	n, err := r.Read(buf)
	assert.Equalf(t, io.EOF, err, "Read(buf) error should be io.EOF; got %v", err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, tc.callCount())

	// with a small readahead buffer, two sequential 100-byte reads become two
	// GetObject calls; with the default 64k buffer they would be one.
	tc.clear()
	r = NewWithSize(tc, "bucket", "key", int64(len(tc.data)))
	r.(*reader).bufferSize = 10
	buf = make([]byte, 100)
	assertReadEqual(t, r, buf, tc.data[:100])
	assertReadEqual(t, r, buf, tc.data[100:200])
	assert.Equalf(t, 2, tc.callCount(), "Read(buf) should have made 2 GetObject calls; got %d", tc.callCount())
}

func TestReader_ReadAt(t *testing.T) {
	tc := randomTestClient(1024)
	r := NewWithSize(tc, "bucket", "key", int64(len(tc.data)))

	// a simple offset read does not disturb the sequential offset.
	buf := make([]byte, 100)
	n, err := r.ReadAt(buf, 42)
	assert.NoErrorf(t, err, "ReadAt(buf, 42) error = %v", err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, tc.data[42:142], buf)
	assert.Equal(t, int64(0), r.(*reader).off)

	// reads at the tail are clamped and return io.EOF like os.File.
	n, err = r.ReadAt(buf, 1020)
	assert.Equalf(t, io.EOF, err, "ReadAt(buf, 1020) error should be io.EOF; got %v", err)
	assert.Equal(t, 4, n)
	assert.Equal(t, tc.data[1020:], buf[:4])

	_, err = r.ReadAt(buf, 2048)
	assert.Equal(t, io.EOF, err)
}

func assertReadEqual(t *testing.T, src io.Reader, dst []byte, expected []byte) {
	n, err := src.Read(dst)
	assert.NoErrorf(t, err, "Read error = %v", err)
	assert.Equalf(t, len(dst), n, "Read returns only %d bytes; expected %d", n, len(dst))
	assert.Equal(t, expected, dst)
}
