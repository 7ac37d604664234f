// Package storage stores uploaded images in S3-compatible object storage
// and derives the display variants served by the site.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"golang.org/x/image/draw"
)

// Variant widths derived for every uploaded image. Aspect ratio is
// preserved; images narrower than a target width keep their size.
var variantWidths = []int{300, 600, 1200}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type Service struct {
	client *minio.Client
	bucket string
}

// New connects to the object store and ensures the bucket exists.
func New(ctx context.Context, cfg Config) (*Service, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object storage: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
		log.Printf("storage: created bucket %s", cfg.Bucket)
	}

	return &Service{client: client, bucket: cfg.Bucket}, nil
}

// Upload stores an object and returns its key.
func (s *Service) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}

// PresignedURL returns a temporary download URL for an object.
func (s *Service) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

// Delete removes an object and its derived variants.
func (s *Service) Delete(ctx context.Context, key string) error {
	keys := append([]string{key}, variantKeys(key)...)
	for _, k := range keys {
		if err := s.client.RemoveObject(ctx, s.bucket, k, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return nil
}

// DeriveVariants downloads the original image, scales it to each variant
// width, and stores the results next to the original.
func (s *Service) DeriveVariants(ctx context.Context, key string) error {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("get original %s: %w", key, err)
	}
	defer obj.Close()

	src, format, err := image.Decode(obj)
	if err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}

	for _, width := range variantWidths {
		scaled := scaleToWidth(src, width)

		var buf bytes.Buffer
		contentType := "image/jpeg"
		switch format {
		case "png":
			contentType = "image/png"
			if err := png.Encode(&buf, scaled); err != nil {
				return fmt.Errorf("encode %s variant %d: %w", key, width, err)
			}
		default:
			if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: 85}); err != nil {
				return fmt.Errorf("encode %s variant %d: %w", key, width, err)
			}
		}

		vkey := variantKey(key, width)
		if _, err := s.client.PutObject(ctx, s.bucket, vkey, &buf, int64(buf.Len()), minio.PutObjectOptions{
			ContentType: contentType,
		}); err != nil {
			return fmt.Errorf("store variant %s: %w", vkey, err)
		}
	}
	return nil
}

// scaleToWidth resizes preserving aspect ratio. Images already narrower
// than the target are returned unchanged.
func scaleToWidth(src image.Image, width int) image.Image {
	bounds := src.Bounds()
	if bounds.Dx() <= width {
		return src
	}
	height := bounds.Dy() * width / bounds.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}

// variantKey inserts the width before the extension, e.g.
// "uploads/cover.jpg" -> "uploads/cover_600.jpg".
func variantKey(key string, width int) string {
	ext := path.Ext(key)
	base := strings.TrimSuffix(key, ext)
	return fmt.Sprintf("%s_%d%s", base, width, ext)
}

func variantKeys(key string) []string {
	keys := make([]string, 0, len(variantWidths))
	for _, width := range variantWidths {
		keys = append(keys, variantKey(key, width))
	}
	return keys
}
