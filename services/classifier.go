package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"syscall"
	"time"

	"calorietrack/apperrors"
)

// Prediction is one candidate label for a food photo.
type Prediction struct {
	Label      string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// ImageRef points at an image by URL, by bytes, or both. Backends prefer
// Data when present.
type ImageRef struct {
	URL         string
	Data        []byte
	ContentType string
}

// Classifier labels food photos. Implementations return predictions
// ordered by confidence, highest first, with confidence in [0,1].
type Classifier interface {
	Identify(ctx context.Context, img ImageRef) ([]Prediction, error)
	Name() string
}

// NoneClassifier never identifies anything; every request falls back to
// manual search.
type NoneClassifier struct{}

func (NoneClassifier) Identify(context.Context, ImageRef) ([]Prediction, error) { return nil, nil }

func (NoneClassifier) Name() string { return "none" }

const maxPredictions = 5

// Labels containing one of these are treated as food by label-detection
// backends that return general-purpose labels.
var foodKeywords = []string{
	"food", "dish", "cuisine", "meal", "ingredient",
	"pizza", "burger", "salad", "chicken", "rice", "pasta",
	"fruit", "vegetable", "meat", "bread", "dessert", "breakfast",
	"lunch", "dinner", "snack", "drink", "beverage", "sandwich",
	"soup", "noodle", "seafood", "beef", "pork", "cheese", "egg",
}

func isFoodLabel(label string) bool {
	l := strings.ToLower(label)
	for _, k := range foodKeywords {
		if strings.Contains(l, k) {
			return true
		}
	}
	return false
}

// filterGeneralLabels keeps labels that look like food or are very
// confident, rounds to 2 dp, drops anything under 0.5 and returns the top 5.
func filterGeneralLabels(in []Prediction) []Prediction {
	out := make([]Prediction, 0, len(in))
	for _, p := range in {
		if !isFoodLabel(p.Label) && p.Confidence <= 0.85 {
			continue
		}
		p.Confidence = round2(p.Confidence)
		if p.Confidence < 0.5 {
			continue
		}
		out = append(out, p)
	}
	return topPredictions(out)
}

// topPredictions sorts by confidence and truncates to maxPredictions.
func topPredictions(p []Prediction) []Prediction {
	sort.SliceStable(p, func(i, j int) bool { return p[i].Confidence > p[j].Confidence })
	if len(p) > maxPredictions {
		p = p[:maxPredictions]
	}
	return p
}

// imageFetcher downloads images for backends that need bytes. It only
// talks to public addresses.
type imageFetcher struct {
	client *http.Client
}

func newImageFetcher(timeout time.Duration) imageFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return imageFetcher{client: &http.Client{
		Timeout:   timeout,
		Transport: publicOnlyTransport(),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errors.New("too many redirects")
			}
			_, err := checkImageURL(req.URL.String())
			return err
		},
	}}
}

var errBlockedAddress = errors.New("image URL points at a non-public address")

func blockedIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() || ip.IsMulticast()
}

// checkImageURL accepts absolute http(s) URLs whose host is not a loopback,
// private or link-local literal. Hostnames are checked again at dial time.
func checkImageURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid image URL %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported image URL scheme %q", u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return nil, errBlockedAddress
	}
	if ip := net.ParseIP(host); ip != nil && blockedIP(ip) {
		return nil, errBlockedAddress
	}
	return u, nil
}

// publicOnlyTransport refuses connections to non-public IPs once DNS has
// been resolved, so a public name pointing at 169.254.169.254 is caught
// too. It never uses a proxy.
func publicOnlyTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control: func(_, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			if ip := net.ParseIP(host); ip == nil || blockedIP(ip) {
				return fmt.Errorf("%w: %s", errBlockedAddress, host)
			}
			return nil
		},
	}
	return &http.Transport{
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}

// load returns the image bytes and content type for img.
func (f imageFetcher) load(ctx context.Context, img ImageRef) ([]byte, string, error) {
	if len(img.Data) > 0 {
		ct := img.ContentType
		if ct == "" {
			ct = http.DetectContentType(img.Data)
		}
		return img.Data, ct, nil
	}
	if img.URL == "" {
		return nil, "", apperrors.InvalidInput("classifier.fetch", "image URL or data is required")
	}

	u, err := checkImageURL(img.URL)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, "", apperrors.TooLarge("classifier.fetch", "image exceeds 5MB")
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	return data, ct, nil
}
