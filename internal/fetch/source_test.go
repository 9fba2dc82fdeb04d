package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// fakeS3 serves one object per key and honors ranges unless ignoreRange is set.
type fakeS3 struct {
	objects     map[string][]byte
	ignoreRange bool
	inputs      []*s3.GetObjectInput
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.inputs = append(f.inputs, in)
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	if in.Range == nil || f.ignoreRange {
		return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
	}
	var start int64
	fmt.Sscanf(aws.ToString(in.Range), "bytes=%d-", &start)
	return &s3.GetObjectOutput{
		Body:         io.NopCloser(bytes.NewReader(data[start:])),
		ContentRange: aws.String(fmt.Sprintf("bytes %d-%d/%d", start, len(data)-1, len(data))),
	}, nil
}

func TestParseS3URL(t *testing.T) {
	tests := []struct {
		url     string
		bucket  string
		key     string
		wantErr bool
	}{
		{"s3://toolchains/ndk/r21.zip", "toolchains", "ndk/r21.zip", false},
		{"s3://toolchains/sdk.zip", "toolchains", "sdk.zip", false},
		{"s3://toolchains", "", "", true},
		{"s3://toolchains/folder/", "", "", true},
		{"https://example.com/a.zip", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			bucket, key, err := parseS3URL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if bucket != tt.bucket || key != tt.key {
				t.Errorf("got %q %q", bucket, key)
			}
		})
	}
}

func TestS3Source_ResumesWithRange(t *testing.T) {
	payload := payloadOf(1000)
	fake := &fakeS3{objects: map[string][]byte{"toolchains/ndk.zip": payload}}
	dest := filepath.Join(t.TempDir(), "ndk.zip")
	os.WriteFile(dest, payload[:400], 0o644)
	d := descriptorFor(t, "s3://toolchains/ndk.zip", dest, payload)

	dl := newTestDownloader(t)
	dl.Source = MultiSource{"s3": &S3Source{Client: fake}}
	outcome, err := dl.Download(context.Background(), d, true)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if outcome != OutcomeResumedAndCompleted {
		t.Errorf("outcome = %v", outcome)
	}
	if len(fake.inputs) != 1 || aws.ToString(fake.inputs[0].Range) != "bytes=400-" {
		t.Errorf("unexpected GetObject calls: %d", len(fake.inputs))
	}
	got, _ := os.ReadFile(dest)
	if !bytes.Equal(got, payload) {
		t.Error("file differs from the object")
	}
}

func TestS3Source_WholeObjectRestarts(t *testing.T) {
	payload := payloadOf(500)
	fake := &fakeS3{objects: map[string][]byte{"toolchains/sdk.zip": payload}, ignoreRange: true}
	src := &S3Source{Client: fake}

	body, start, err := src.Open(context.Background(), "s3://toolchains/sdk.zip", 100)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer body.Close()
	if start != 0 {
		t.Errorf("start = %d, want 0", start)
	}
}

func TestS3Source_MissingObject(t *testing.T) {
	src := &S3Source{Client: &fakeS3{}}
	_, _, err := src.Open(context.Background(), "s3://toolchains/none.zip", 0)
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("err = %v, want *TransportError", err)
	}
}

func TestMultiSource_UnknownScheme(t *testing.T) {
	_, _, err := MultiSource{}.Open(context.Background(), "ftp://example.com/a.zip", 0)
	if err == nil || !strings.Contains(err.Error(), `unsupported scheme "ftp"`) {
		t.Errorf("err = %v", err)
	}
}

func TestContentRangeStart(t *testing.T) {
	start, err := contentRangeStart("bytes 400-999/1000")
	if err != nil || start != 400 {
		t.Errorf("got %d, %v", start, err)
	}
	if _, err := contentRangeStart("items 1-2/3"); err == nil {
		t.Error("accepted a non-byte range")
	}
}
