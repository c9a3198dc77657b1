package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmeshcher/restaurant-delivery/internal/model"
)

// DefaultUserAgent передаётся геокодеру, если в конфигурации не задан свой.
const DefaultUserAgent = "RestaurantDelivery/1.0"

const defaultCity = "Warszawa"

// ErrRateLimited возвращается, если геокодер ответил 429.
var ErrRateLimited = errors.New("geocoder rate limit exceeded")

// RateLimitError содержит рекомендованную паузу из заголовка Retry-After.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s, retry after %s", ErrRateLimited, e.RetryAfter)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// Nominatim инкапсулирует HTTP-взаимодействие с сервисом обратного геокодирования.
type Nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

type nominatimResponse struct {
	Error   string            `json:"error"`
	Address *nominatimAddress `json:"address"`
}

type nominatimAddress struct {
	Road         string `json:"road"`
	HouseNumber  string `json:"house_number"`
	Postcode     string `json:"postcode"`
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Suburb       string `json:"suburb"`
	CityDistrict string `json:"city_district"`
}

// NewNominatim создаёт клиент геокодера по указанному адресу.
func NewNominatim(baseURL, userAgent string) *Nominatim {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Nominatim{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// AddressFromCoordinates определяет адрес по координатам.
// Возвращает nil без ошибки, если геокодер не нашёл адрес с почтовым индексом.
func (c *Nominatim) AddressFromCoordinates(ctx context.Context, lat, lon float64) (*model.DetectedAddress, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("geocoder not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := time.Duration(0)
		if v := resp.Header.Get("Retry-After"); v != "" {
			if seconds, parseErr := strconv.Atoi(v); parseErr == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return nil, &RateLimitError{RetryAfter: retryAfter}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, nil
	}

	if result.Error != "" || result.Address == nil || result.Address.Postcode == "" {
		return nil, nil
	}

	a := result.Address
	rawCity := firstNonEmpty(a.City, a.Town, a.Village)

	addr := &model.DetectedAddress{
		Street:      a.Road,
		HouseNumber: a.HouseNumber,
		PostalCode:  a.Postcode,
		City:        firstNonEmpty(rawCity, defaultCity),
		Suburb:      a.Suburb,
		District:    a.CityDistrict,
	}
	addr.FullAddress = fullAddress(a, rawCity)

	return addr, nil
}

// fullAddress собирает адрес только из полученных частей. Город по умолчанию
// подставляется лишь тогда, когда Nominatim не вернул ни одной части.
func fullAddress(a *nominatimAddress, rawCity string) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Road, a.HouseNumber, a.Suburb, rawCity} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return a.Postcode + ", " + defaultCity
	}
	return strings.Join(parts, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
