package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"
)

const defaultShortenerEndpoint = "https://shortner.in/api"

type shortenerResponse struct {
	ShortenedURL string `json:"shortenedUrl"`
}

// ShortenerService wraps the external link-shortening API. It never fails a
// caller: any problem falls back to the original URL.
type ShortenerService struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewShortenerService(apiKey string) *ShortenerService {
	return &ShortenerService{
		endpoint: defaultShortenerEndpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Shorten returns a shortened form of longURL, or longURL itself when the
// service is unconfigured, unreachable or answers without a shortened URL.
func (s *ShortenerService) Shorten(ctx context.Context, longURL string) string {
	if s.apiKey == "" {
		return longURL
	}

	endpoint := fmt.Sprintf("%s?api=%s&url=%s", s.endpoint, url.QueryEscape(s.apiKey), url.QueryEscape(longURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return longURL
	}

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("shorten link: %v", err)
		return longURL
	}
	defer resp.Body.Close()

	var decoded shortenerResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		log.Printf("decode shortener response: %v", err)
		return longURL
	}
	if decoded.ShortenedURL == "" {
		return longURL
	}
	return decoded.ShortenedURL
}
