package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	cases := []struct {
		in   string
		want Target
		err  bool
	}{
		{in: "/dev/sda", want: Target{Scheme: "file", Path: "/dev/sda"}},
		{in: "disk.img", want: Target{Scheme: "file", Path: "disk.img"}},
		{in: "s3://bucket/images/disk.img", want: Target{Scheme: "s3", Bucket: "bucket", Key: "images/disk.img"}},
		{in: "minio://localhost:9000/bkt/a/b.img", want: Target{Scheme: "minio", Host: "localhost:9000", Bucket: "bkt", Key: "a/b.img"}},
		{in: "s3://bucket", err: true},
		{in: "s3:///key", err: true},
		{in: "minio://host/bucket", err: true},
		{in: "", err: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTarget(tc.in)
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.img", "a.img", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	got, err := Expand([]string{
		"s3://bkt/key",
		filepath.Join(dir, "*.img"),
		filepath.Join(dir, "a.img"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"s3://bkt/key",
		filepath.Join(dir, "a.img"),
		filepath.Join(dir, "b.img"),
	}, got)

	_, err = Expand([]string{filepath.Join(dir, "*.iso")})
	assert.Error(t, err)
}

func TestOpenLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	data := bytes.Repeat([]byte{0xAB}, 2048)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	d, err := Open(context.Background(), path, Options{})
	require.NoError(t, err)
	defer func() { _ = d.Close() }()

	assert.Equal(t, path, d.Name())
	assert.Equal(t, int64(2048), d.Size())

	buf := make([]byte, 512)
	n, err := d.ReadAt(buf, 1024)
	require.NoError(t, err)
	assert.Equal(t, 512, n)
	assert.Equal(t, data[:512], buf)
}

func TestOpenLocalErrors(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing.img"), Options{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Open(context.Background(), t.TempDir(), Options{})
	assert.Error(t, err)
}

type fakeS3 struct {
	data   []byte
	ranges []string
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if aws.ToString(in.Key) != "disk.img" {
		return nil, &s3types.NotFound{}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(f.data)))}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	r := aws.ToString(in.Range)
	f.ranges = append(f.ranges, r)
	byteRange, ok := strings.CutPrefix(r, "bytes=")
	if !ok {
		return nil, errors.New("missing range")
	}
	lo, hi, _ := strings.Cut(byteRange, "-")
	start, err := strconv.ParseInt(lo, 10, 64)
	if err != nil {
		return nil, err
	}
	end, err := strconv.ParseInt(hi, 10, 64)
	if err != nil {
		return nil, err
	}
	if start > end || end >= int64(len(f.data)) {
		return nil, fmt.Errorf("bad range %s", r)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.data[start : end+1]))}, nil
}

func TestS3RangedReads(t *testing.T) {
	data := make([]byte, 1500)
	for i := range data {
		data[i] = byte(i)
	}
	client := &fakeS3{data: data}

	blob, err := OpenS3Object(context.Background(), client, "bkt", "disk.img")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), blob.Size())

	buf := make([]byte, 512)
	n, err := blob.ReadAt(buf, 512)
	require.NoError(t, err)
	assert.Equal(t, 512, n)
	assert.Equal(t, data[512:1024], buf)

	// the tail is short: 476 bytes then EOF
	n, err = blob.ReadAt(buf, 1024)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 476, n)
	assert.Equal(t, data[1024:], buf[:n])

	_, err = blob.ReadAt(buf, 1500)
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, []string{"bytes=512-1023", "bytes=1024-1499"}, client.ranges)
}

func TestS3NotFound(t *testing.T) {
	_, err := OpenS3Object(context.Background(), &fakeS3{}, "bkt", "other.img")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	blob, err := OpenS3Object(ctx, &fakeS3{data: make([]byte, 1024)}, "bkt", "disk.img")
	require.NoError(t, err)
	cancel()

	_, err = blob.ReadAt(make([]byte, 512), 0)
	assert.ErrorIs(t, err, context.Canceled)
}
