package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		ref        string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{ref: "s3://signatures/director.png", wantBucket: "signatures", wantKey: "director.png"},
		{ref: "S3://signatures/2025/reg.png", wantBucket: "signatures", wantKey: "2025/reg.png"},
		{ref: "s3:///director.png", wantBucket: "", wantKey: "director.png"},
		{ref: "s3://signatures/", wantErr: true},
		{ref: "https://cdn/x.png", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			bucket, key, err := ParseURL(tt.ref)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantKey, key)
		})
	}

	assert.True(t, IsObjectURL("s3://b/k"))
	assert.False(t, IsObjectURL("https://b/k"))
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	_, err := NewS3ObjectStorage(context.Background(), Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket is required")

	_, err = NewS3ObjectStorage(context.Background(), Config{Bucket: "b", AccessKeyID: "only-key"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set together")

	s, err := NewS3ObjectStorage(context.Background(), Config{Bucket: "b", AccessKeyID: "k", SecretAccessKey: "s", Endpoint: "localhost:9000"})
	require.NoError(t, err)
	assert.Equal(t, "b", s.Bucket())
}

func TestS3ObjectStorage_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/signatures/director.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("\x89PNG\r\n\x1a\n"))
		default:
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`))
		}
	}))
	defer server.Close()

	s, err := NewS3ObjectStorage(context.Background(), Config{
		Endpoint:        server.URL,
		Bucket:          "signatures",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	data, contentType, err := s.Get(context.Background(), "s3:///director.png", 1024)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), data)

	_, _, err = s.Get(context.Background(), "s3://signatures/director.png", 4)
	assert.Error(t, err, "object larger than the limit")

	_, _, err = s.Get(context.Background(), "s3://signatures/missing.png", 0)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
