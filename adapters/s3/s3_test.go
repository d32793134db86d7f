package s3_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgnote/adapters/s3"
)

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = body
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(f.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestOperator(t *testing.T) (*s3.S3Operator, *fakeBucket) {
	t.Helper()
	bucket := &fakeBucket{objects: map[string][]byte{}, types: map[string]string{}}
	server := httptest.NewServer(bucket)
	t.Cleanup(server.Close)

	client, err := s3.NewClient(context.Background(), server.URL, "us-east-1", "key", "secret", true)
	require.NoError(t, err)
	operator, err := s3.NewS3Operator(client, "images", "https://cdn.example.com/images")
	require.NoError(t, err)
	return operator, bucket
}

func TestS3Operator_UploadAndDelete(t *testing.T) {
	operator, bucket := newTestOperator(t)
	ctx := context.Background()

	url, err := operator.UploadFileToS3(ctx, "u1/photo.png", "image/png", []byte("\x89PNG\r\n\x1a\n"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/images/u1/photo.png", url)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), bucket.objects["/images/u1/photo.png"])
	assert.Equal(t, "image/png", bucket.types["/images/u1/photo.png"])

	require.NoError(t, operator.DeleteObject(ctx, url))
	assert.NotContains(t, bucket.objects, "/images/u1/photo.png")
}

func TestS3Operator_KeyFromURL(t *testing.T) {
	operator, _ := newTestOperator(t)

	tests := []struct {
		url    string
		want   string
		wantOk bool
	}{
		{url: "https://cdn.example.com/images/a/b.png", want: "a/b.png", wantOk: true},
		{url: "https://other.example.com/images/a/b.png"},
		{url: "https://cdn.example.com/elsewhere/b.png"},
		{url: "https://cdn.example.com/images/"},
		{url: ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := operator.KeyFromURL(tt.url)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	// foreign URLs are left alone
	assert.NoError(t, operator.DeleteObject(context.Background(), "https://other.example.com/x.png"))
}
