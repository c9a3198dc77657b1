package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAddressFromCoordinates_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/reverse" {
			t.Fatalf("path = %s, want /reverse", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("format") != "json" || q.Get("addressdetails") != "1" {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		if q.Get("lat") != "52.2297" || q.Get("lon") != "21.0122" {
			t.Fatalf("unexpected coordinates: %s", r.URL.RawQuery)
		}
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Fatalf("User-Agent = %q", r.Header.Get("User-Agent"))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"address":{"road":"Marszałkowska","house_number":"10","postcode":"00-590","city":"Warszawa","suburb":"Śródmieście","city_district":"Śródmieście Południowe"}}`))
	}))
	defer ts.Close()

	client := NewNominatim(ts.URL, "test-agent")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	addr, err := client.AddressFromCoordinates(ctx, 52.2297, 21.0122)
	if err != nil {
		t.Fatalf("AddressFromCoordinates error: %v", err)
	}
	if addr == nil {
		t.Fatalf("expected address")
	}
	if addr.PostalCode != "00-590" || addr.Street != "Marszałkowska" || addr.HouseNumber != "10" {
		t.Fatalf("unexpected address: %+v", addr)
	}
	if addr.District != "Śródmieście Południowe" {
		t.Fatalf("district = %q", addr.District)
	}
	if addr.FullAddress != "Marszałkowska, 10, Śródmieście, Warszawa" {
		t.Fatalf("fullAddress = %q", addr.FullAddress)
	}
}

func TestAddressFromCoordinates_TownFallbackAndShortAddress(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"address":{"postcode":"05-120","town":"Legionowo"}}`))
	}))
	defer ts.Close()

	addr, err := NewNominatim(ts.URL, "").AddressFromCoordinates(context.Background(), 52.4, 20.9)
	if err != nil {
		t.Fatalf("AddressFromCoordinates error: %v", err)
	}
	if addr == nil || addr.City != "Legionowo" {
		t.Fatalf("unexpected address: %+v", addr)
	}
	if addr.FullAddress != "Legionowo" {
		t.Fatalf("fullAddress = %q", addr.FullAddress)
	}
}

func TestAddressFromCoordinates_DefaultCity(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"address":{"postcode":"02-001","road":"Grójecka"}}`))
	}))
	defer ts.Close()

	addr, err := NewNominatim(ts.URL, "").AddressFromCoordinates(context.Background(), 52.2, 20.9)
	if err != nil {
		t.Fatalf("AddressFromCoordinates error: %v", err)
	}
	if addr == nil || addr.City != "Warszawa" || addr.FullAddress != "Grójecka" {
		t.Fatalf("unexpected address: %+v", addr)
	}
}

func TestAddressFromCoordinates_FullAddress(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "city without street",
			body: `{"address":{"postcode":"30-001","city":"Kraków"}}`,
			want: "Kraków",
		},
		{
			name: "street without city",
			body: `{"address":{"postcode":"02-001","road":"Grójecka","house_number":"5"}}`,
			want: "Grójecka, 5",
		},
		{
			name: "village",
			body: `{"address":{"postcode":"05-090","suburb":"Janki","village":"Raszyn"}}`,
			want: "Janki, Raszyn",
		},
		{
			name: "postcode only",
			body: `{"address":{"postcode":"02-001"}}`,
			want: "02-001, Warszawa",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			addr, err := NewNominatim(ts.URL, "").AddressFromCoordinates(context.Background(), 52.2, 20.9)
			if err != nil {
				t.Fatalf("AddressFromCoordinates error: %v", err)
			}
			if addr == nil || addr.FullAddress != tt.want {
				t.Fatalf("fullAddress = %+v, want %q", addr, tt.want)
			}
		})
	}
}

func TestAddressFromCoordinates_NoResult(t *testing.T) {
	bodies := map[string]string{
		"error field":      `{"error":"Unable to geocode"}`,
		"missing postcode": `{"address":{"road":"Polna","city":"Warszawa"}}`,
		"no address":       `{}`,
		"not json":         `<html>oops</html>`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer ts.Close()

			addr, err := NewNominatim(ts.URL, "").AddressFromCoordinates(context.Background(), 1, 1)
			if err != nil {
				t.Fatalf("AddressFromCoordinates error: %v", err)
			}
			if addr != nil {
				t.Fatalf("expected nil address, got %+v", addr)
			}
		})
	}
}

func TestAddressFromCoordinates_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := NewNominatim(ts.URL, "").AddressFromCoordinates(context.Background(), 1, 1)
	if err == nil {
		t.Fatalf("expected error for 502")
	}
}

func TestAddressFromCoordinates_TooManyRequests(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	_, err := NewNominatim(ts.URL, "").AddressFromCoordinates(context.Background(), 1, 1)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	var rl *RateLimitError
	if !errors.As(err, &rl) || rl.RetryAfter != 2*time.Second {
		t.Fatalf("unexpected rate limit error: %v", err)
	}
}

func TestAddressFromCoordinates_NotConfigured(t *testing.T) {
	var c *Nominatim
	if _, err := c.AddressFromCoordinates(context.Background(), 1, 1); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
