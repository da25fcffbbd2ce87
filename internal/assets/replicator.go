// Package assets replicates image files into each destination site's object
// storage so published posts never hotlink a bucket the site does not own.
package assets

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/blogforge/distributor/internal/logger"
	"github.com/blogforge/distributor/internal/models"
)

const uploadTimeout = 30 * time.Second

// Upload is the outcome of replicating one file. A file counts as uploaded
// if at least one store accepted it; PrimaryURL is the copy everything else
// falls back to.
type Upload struct {
	Filename   string            `json:"filename"`
	PrimaryURL string            `json:"primary_url"`
	SiteURLs   map[string]string `json:"site_urls"`
	Errors     []string          `json:"errors,omitempty"`
}

// Replicator copies image bytes into the default store and every configured
// per-site store.
type Replicator struct {
	primary models.StorageCredentials
	logger  logger.Logger
}

// NewReplicator creates a replicator backed by the given primary store.
func NewReplicator(primary models.StorageCredentials, log logger.Logger) *Replicator {
	return &Replicator{primary: primary, logger: log}
}

// Replicate uploads the file to the primary store and to each target site's
// own store. Per-store failures are collected, not fatal; only a primary
// store failure with zero successful site uploads fails the call.
func (r *Replicator) Replicate(ctx context.Context, sites []*models.Site, filename, contentType string, data []byte) (*Upload, error) {
	key := objectKey(filename)
	result := &Upload{
		Filename: filename,
		SiteURLs: make(map[string]string, len(sites)),
	}

	primaryURL, err := r.put(ctx, r.primary, key, contentType, data)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("primary store: %v", err))
	} else {
		result.PrimaryURL = primaryURL
	}

	for _, site := range sites {
		if site.Storage == nil || !site.Storage.Configured() {
			continue
		}
		url, err := r.put(ctx, *site.Storage, key, contentType, data)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("site %s: %v", site.ID, err))
			r.logger.Warn("Image replication to site store failed",
				logger.String("site_id", site.ID),
				logger.String("filename", filename),
				logger.Error(err),
			)
			continue
		}
		result.SiteURLs[site.ID] = url
	}

	if result.PrimaryURL == "" && len(result.SiteURLs) == 0 {
		return result, fmt.Errorf("replicate %s: %s", filename, strings.Join(result.Errors, "; "))
	}
	return result, nil
}

func (r *Replicator) put(ctx context.Context, creds models.StorageCredentials, key, contentType string, data []byte) (string, error) {
	client, err := minio.New(creds.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(creds.AccessKey, creds.SecretKey, ""),
		Secure: creds.UseSSL,
	})
	if err != nil {
		return "", fmt.Errorf("create storage client: %w", err)
	}

	putCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	_, err = client.PutObject(putCtx, creds.Bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return publicURL(creds, key), nil
}

func publicURL(creds models.StorageCredentials, key string) string {
	base := strings.TrimRight(creds.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if creds.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, creds.Endpoint, creds.Bucket)
	}
	return base + "/" + key
}

// objectKey builds a collision-free key under images/ while keeping the
// original filename recognizable.
func objectKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	base = sanitize(base)
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("images/%d_%s_%s%s",
		time.Now().Unix(), base, uuid.NewString()[:8], ext)
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
