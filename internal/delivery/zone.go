package delivery

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidZoneTable возвращается, если таблица зон не прошла проверку.
	ErrInvalidZoneTable = errors.New("invalid delivery zone table")
)

// ETA задаёт ожидаемое время доставки в минутах.
type ETA struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// String возвращает интервал в виде "25-35 min".
func (e ETA) String() string {
	return fmt.Sprintf("%d-%d min", e.Min, e.Max)
}

// Zone описывает зону доставки, определяемую префиксами почтовых индексов.
type Zone struct {
	ID                    string          `json:"id"`
	Name                  string          `json:"name"`
	NamePl                string          `json:"namePl"`
	PostalPrefixes        []string        `json:"postalPrefixes"`
	BaseFee               decimal.Decimal `json:"baseFee"`
	FreeDeliveryThreshold decimal.Decimal `json:"freeDeliveryThreshold"`
	ETA                   ETA             `json:"eta"`
}

// DefaultZones возвращает таблицу зон доставки Варшавы и окрестностей.
func DefaultZones() []Zone {
	return []Zone{
		{
			ID:                    "warsaw-center",
			Name:                  "Warsaw Center",
			NamePl:                "Warszawa Centrum",
			PostalPrefixes:        []string{"00-02"},
			BaseFee:               decimal.NewFromInt(5),
			FreeDeliveryThreshold: decimal.NewFromInt(80),
			ETA:                   ETA{Min: 25, Max: 35},
		},
		{
			ID:                    "warsaw-near",
			Name:                  "Warsaw Near Districts",
			NamePl:                "Warszawa (bliskie dzielnice)",
			PostalPrefixes:        []string{"03-04", "10", "20"},
			BaseFee:               decimal.NewFromInt(8),
			FreeDeliveryThreshold: decimal.NewFromInt(100),
			ETA:                   ETA{Min: 30, Max: 45},
		},
		{
			ID:                    "warsaw-far",
			Name:                  "Warsaw Far Districts",
			NamePl:                "Warszawa (dalekie dzielnice)",
			PostalPrefixes:        []string{"05-08"},
			BaseFee:               decimal.NewFromInt(12),
			FreeDeliveryThreshold: decimal.NewFromInt(120),
			ETA:                   ETA{Min: 40, Max: 55},
		},
		{
			ID:                    "suburbs",
			Name:                  "Suburbs",
			NamePl:                "Okolice Warszawy",
			PostalPrefixes:        []string{"09", "11-12", "21-22"},
			BaseFee:               decimal.NewFromInt(15),
			FreeDeliveryThreshold: decimal.NewFromInt(150),
			ETA:                   ETA{Min: 50, Max: 70},
		},
	}
}

// expandPrefix раскрывает шаблон "03-04" в список префиксов "03", "04".
func expandPrefix(pattern string) ([]string, error) {
	pattern = strings.TrimSpace(pattern)

	lo, hi, isRange := strings.Cut(pattern, "-")
	if !isRange {
		if !isDigits(pattern) {
			return nil, fmt.Errorf("%w: prefix %q must contain digits only", ErrInvalidZoneTable, pattern)
		}
		return []string{pattern}, nil
	}

	if !isDigits(lo) || !isDigits(hi) || len(lo) != len(hi) {
		return nil, fmt.Errorf("%w: range %q must join two prefixes of equal length", ErrInvalidZoneTable, pattern)
	}

	from, _ := strconv.Atoi(lo)
	to, _ := strconv.Atoi(hi)
	if from > to {
		return nil, fmt.Errorf("%w: range %q is reversed", ErrInvalidZoneTable, pattern)
	}

	res := make([]string, 0, to-from+1)
	for v := from; v <= to; v++ {
		res = append(res, fmt.Sprintf("%0*d", len(lo), v))
	}
	return res, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

type zoneFile struct {
	Zones []struct {
		ID                    string   `yaml:"id"`
		Name                  string   `yaml:"name"`
		NamePl                string   `yaml:"name_pl"`
		PostalPrefixes        []string `yaml:"postal_prefixes"`
		BaseFee               string   `yaml:"base_fee"`
		FreeDeliveryThreshold string   `yaml:"free_delivery_threshold"`
		ETA                   ETA      `yaml:"eta"`
	} `yaml:"zones"`
}

// ParseZones разбирает таблицу зон из YAML.
func ParseZones(data []byte) ([]Zone, error) {
	var f zoneFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode zones: %w", err)
	}

	zones := make([]Zone, 0, len(f.Zones))
	for _, z := range f.Zones {
		fee, err := decimal.NewFromString(z.BaseFee)
		if err != nil {
			return nil, fmt.Errorf("%w: zone %q base_fee: %v", ErrInvalidZoneTable, z.ID, err)
		}
		threshold, err := decimal.NewFromString(z.FreeDeliveryThreshold)
		if err != nil {
			return nil, fmt.Errorf("%w: zone %q free_delivery_threshold: %v", ErrInvalidZoneTable, z.ID, err)
		}

		zones = append(zones, Zone{
			ID:                    z.ID,
			Name:                  z.Name,
			NamePl:                z.NamePl,
			PostalPrefixes:        z.PostalPrefixes,
			BaseFee:               fee,
			FreeDeliveryThreshold: threshold,
			ETA:                   z.ETA,
		})
	}

	return zones, nil
}

// LoadZonesFile читает таблицу зон из YAML-файла.
func LoadZonesFile(path string) ([]Zone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zones file: %w", err)
	}
	return ParseZones(data)
}
