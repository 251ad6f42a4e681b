package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/batizy/chantierpro/internal/config"
)

// PhotoStore uploads rapport photos to the remote object storage bucket and
// resolves their durable public URLs. Every failure degrades to keeping the
// original in-memory payload inline, never to failing the caller.
type PhotoStore struct {
	baseURL string
	apiKey  string
	bucket  string
	http    *http.Client
}

// NewPhotoStore creates a photo store for the configured bucket
func NewPhotoStore(cfg config.RemoteConfig) *PhotoStore {
	return &PhotoStore{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.AnonKey,
		bucket:  cfg.Bucket,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// UploadPhotos uploads each payload and returns one URL per input photo.
// A photo that fails to upload keeps its original payload in the result, so
// the rapport submission pipeline never loses an image.
func (s *PhotoStore) UploadPhotos(ctx context.Context, rapportID string, photos []string) []string {
	urls := make([]string, 0, len(photos))
	for i, photo := range photos {
		url, err := s.uploadPhoto(ctx, rapportID, photo, i)
		if err != nil {
			log.Printf("⚠️ Storage: photo %d upload failed, keeping inline payload: %v", i, err)
			urls = append(urls, photo)
			continue
		}
		urls = append(urls, url)
	}
	return urls
}

// uploadPhoto stores one JPEG payload at {rapportId}/{timestamp}_{index}.jpg
// and returns its public URL
func (s *PhotoStore) uploadPhoto(ctx context.Context, rapportID, photo string, index int) (string, error) {
	data, err := decodeImagePayload(photo)
	if err != nil {
		return "", err
	}

	objectPath := fmt.Sprintf("%s/%d_%d.jpg", rapportID, time.Now().UnixMilli(), index)
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("x-upsert", "true")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed: HTTP %d: %s", resp.StatusCode, string(msg))
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, objectPath), nil
}

// DeletePhoto removes one stored photo given its public URL. Inline payloads
// and foreign URLs are ignored.
func (s *PhotoStore) DeletePhoto(ctx context.Context, photoURL string) error {
	marker := "/" + s.bucket + "/"
	idx := strings.Index(photoURL, marker)
	if !strings.HasPrefix(photoURL, s.baseURL) || idx < 0 {
		return nil
	}
	objectPath := photoURL[idx+len(marker):]

	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, objectPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete failed: HTTP %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}

// decodeImagePayload accepts either a data URL ("data:image/jpeg;base64,...")
// or a bare base64 string and returns the raw image bytes
func decodeImagePayload(payload string) ([]byte, error) {
	encoded := payload
	if strings.HasPrefix(payload, "data:") {
		parts := strings.SplitN(payload, ";base64,", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed data URL payload")
		}
		encoded = parts[1]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image payload: %w", err)
	}
	return data, nil
}
