// README: Image sources: Unsplash search, Google Places photos and a static fallback set.
package images

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"googlemaps.github.io/maps"
)

const defaultUnsplashBaseURL = "https://api.unsplash.com"

// UnsplashSource queries the Unsplash search API.
type UnsplashSource struct {
	accessKey string
	baseURL   string
	client    *http.Client
}

func NewUnsplashSource(accessKey, baseURL string) *UnsplashSource {
	if baseURL == "" {
		baseURL = defaultUnsplashBaseURL
	}
	return &UnsplashSource{
		accessKey: accessKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *UnsplashSource) Name() string { return "unsplash" }

type unsplashSearchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

func (s *UnsplashSource) Search(ctx context.Context, q Query) ([]string, error) {
	params := url.Values{}
	params.Set("query", q.searchText()+" travel")
	params.Set("per_page", strconv.Itoa(q.Count))
	params.Set("orientation", "landscape")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search/photos?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Client-ID "+s.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unsplash request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unsplash: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out unsplashSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("unsplash decode: %w", err)
	}
	urls := make([]string, 0, len(out.Results))
	for _, r := range out.Results {
		if r.URLs.Regular != "" {
			urls = append(urls, r.URLs.Regular)
		}
	}
	return urls, nil
}

// placesAPI is the slice of *maps.Client used here.
type placesAPI interface {
	TextSearch(ctx context.Context, r *maps.TextSearchRequest) (maps.PlacesSearchResponse, error)
	PlacePhoto(ctx context.Context, r *maps.PlacePhotoRequest) (maps.PlacePhotoResponse, error)
}

const photoMaxWidth = 1600

// PlacesSource finds destination photos through a Places text search. The URLs
// it returns point at the API's own photo proxy so the Maps key stays server-side.
type PlacesSource struct {
	client    placesAPI
	proxyPath string
}

// NewPlacesSource creates a PlacesSource with the given API key.
func NewPlacesSource(apiKey, proxyPath string) (*PlacesSource, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &PlacesSource{client: client, proxyPath: proxyPath}, nil
}

func (s *PlacesSource) Name() string { return "google_places" }

func (s *PlacesSource) Search(ctx context.Context, q Query) ([]string, error) {
	resp, err := s.client.TextSearch(ctx, &maps.TextSearchRequest{
		Query:    q.searchText() + " landmarks",
		Language: "en",
	})
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}

	seen := map[string]bool{}
	var urls []string
	for _, result := range resp.Results {
		for _, photo := range result.Photos {
			ref := photo.PhotoReference
			if ref == "" || seen[ref] {
				continue
			}
			seen[ref] = true
			urls = append(urls, s.proxyPath+"?ref="+url.QueryEscape(ref))
			break // one photo per place keeps the set varied
		}
		if len(urls) >= q.Count {
			break
		}
	}
	return urls, nil
}

// Photo fetches the bytes behind a photo reference. The caller closes the body.
func (s *PlacesSource) Photo(ctx context.Context, ref string) (string, io.ReadCloser, error) {
	resp, err := s.client.PlacePhoto(ctx, &maps.PlacePhotoRequest{PhotoReference: ref, MaxWidth: photoMaxWidth})
	if err != nil {
		return "", nil, fmt.Errorf("places photo: %w", err)
	}
	if resp.Data == nil {
		return "", nil, ErrNotFound
	}
	ct := resp.ContentType
	if ct == "" {
		ct = "image/jpeg"
	}
	return ct, resp.Data, nil
}

// staticImages back every lookup when no remote source answers.
var staticImages = []string{
	"https://images.unsplash.com/photo-1488646953014-85cb44e25828?w=1600",
	"https://images.unsplash.com/photo-1469854523086-cc02fe5d8800?w=1600",
	"https://images.unsplash.com/photo-1476514525535-07fb3b4ae5f1?w=1600",
	"https://images.unsplash.com/photo-1500835556837-99ac94a94552?w=1600",
	"https://images.unsplash.com/photo-1503220317375-aaad61436b1b?w=1600",
	"https://images.unsplash.com/photo-1507525428034-b723cf961d3e?w=1600",
	"https://images.unsplash.com/photo-1530789253388-582c481c54b0?w=1600",
	"https://images.unsplash.com/photo-1436491865332-7a61a109cc05?w=1600",
	"https://images.unsplash.com/photo-1501785888041-af3ef285b470?w=1600",
	"https://images.unsplash.com/photo-1506929562872-bb421503ef21?w=1600",
}

// StaticSource always answers, rotating through staticImages from a per-destination offset.
type StaticSource struct{}

func (StaticSource) Name() string { return "static" }

func (StaticSource) Search(_ context.Context, q Query) ([]string, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(q.Destination)))
	start := int(h.Sum32() % uint32(len(staticImages)))

	n := q.Count
	if n > len(staticImages) {
		n = len(staticImages)
	}
	urls := make([]string, n)
	for i := range urls {
		urls[i] = staticImages[(start+i)%len(staticImages)]
	}
	return urls, nil
}
