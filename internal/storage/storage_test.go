package storage

import (
	"context"
	"errors"
	"testing"

	"alcyxob/material-approval/internal/config"
)

func TestDataURLStorage(t *testing.T) {
	s := NewDataURLStorage()

	url, err := s.PutObject(context.Background(), "ignored", "image/png", []byte("png!"))
	if err != nil {
		t.Fatalf("PutObject: %v", err)
	}
	if want := "data:image/png;base64,cG5nIQ=="; url != want {
		t.Errorf("url = %q, want %q", url, want)
	}

	if _, err := s.PutObject(context.Background(), "k", "image/png", nil); !errors.Is(err, ErrEmptyObject) {
		t.Errorf("empty body: err = %v, want ErrEmptyObject", err)
	}
}

func TestObjectBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.S3Config
		want string
	}{
		{
			name: "public base url wins",
			cfg:  config.S3Config{Endpoint: "http://minio:9000", BucketName: "materials", PublicBaseURL: "https://cdn.example.com/"},
			want: "https://cdn.example.com",
		},
		{
			name: "custom endpoint",
			cfg:  config.S3Config{Endpoint: "http://minio:9000/", BucketName: "materials"},
			want: "http://minio:9000/materials",
		},
		{
			name: "aws default",
			cfg:  config.S3Config{Region: "eu-central-1", BucketName: "materials"},
			want: "https://s3.eu-central-1.amazonaws.com/materials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := objectBaseURL(tt.cfg); got != tt.want {
				t.Errorf("objectBaseURL = %q, want %q", got, tt.want)
			}
		})
	}
}
