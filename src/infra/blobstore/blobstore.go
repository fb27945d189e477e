// Package blobstore uploads and deletes snippet audio against an
// S3-compatible object store (Cloudflare R2 in production).
package blobstore

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const defaultSnippetExtension = ".opus"

// Config names the R2-compatible bucket snippet audio is uploaded to.
type Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicDomain    string
}

// Gateway wraps an S3-compatible client pointed at one bucket.
type Gateway struct {
	client *s3.Client
	cfg    Config
}

// IsConfigured reports whether every field required to talk to the bucket
// is set.
func (c Config) IsConfigured() bool {
	return c.Endpoint != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.BucketName != ""
}

// New builds a Gateway whose S3 client uses the configured endpoint as its
// base endpoint, with path-style addressing, so the SDK talks to R2 instead
// of AWS S3.
func New(ctx context.Context, cfg Config) (*Gateway, error) {
	if !cfg.IsConfigured() {
		return nil, fmt.Errorf("blob store not configured: missing endpoint, access key, secret key, or bucket name")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &Gateway{client: client, cfg: cfg}, nil
}

func (g *Gateway) publicURL(key string) string {
	if g.cfg.PublicDomain != "" {
		return fmt.Sprintf("https://%s/%s", g.cfg.PublicDomain, key)
	}
	return fmt.Sprintf("https://%s.r2.dev/%s", g.cfg.BucketName, key)
}

// UploadResult is the outcome of an Upload call.
type UploadResult struct {
	Success bool
	URL     string
	Err     error
}

// Upload puts a snippet's audio file into the bucket under
// snippets/{snippetID}{ext}, where ext defaults to .opus if the file has no
// extension.
func (g *Gateway) Upload(ctx context.Context, filePath, snippetID, contentType string) UploadResult {
	ext := filepath.Ext(filePath)
	if ext == "" {
		ext = defaultSnippetExtension
	}
	key := fmt.Sprintf("snippets/%s%s", snippetID, ext)

	file, err := os.Open(filePath)
	if err != nil {
		return UploadResult{Err: fmt.Errorf("opening snippet file: %w", err)}
	}
	defer file.Close()

	if contentType == "" {
		contentType = "audio/opus"
	}

	_, err = g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(g.cfg.BucketName),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return UploadResult{Err: fmt.Errorf("uploading snippet: %w", err)}
	}

	return UploadResult{Success: true, URL: g.publicURL(key)}
}

// Delete best-effort removes a snippet's object from the bucket.
func (g *Gateway) Delete(ctx context.Context, snippetID, ext string) error {
	if ext == "" {
		ext = defaultSnippetExtension
	}
	key := fmt.Sprintf("snippets/%s%s", snippetID, ext)

	_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.cfg.BucketName),
		Key:    aws.String(key),
	})
	if isNotFound(err) {
		return nil
	}
	return err
}

// isNotFound reports whether err represents a missing-object response,
// which callers treat as a harmless no-op during best-effort deletes.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), http.StatusText(http.StatusNotFound))
}
