// Package geoip annotates IP-literal hosts with GeoLite2 country and ASN
// data for scan reports. It is presentation-side enrichment: the engine
// never consults it and scores are unaffected.
package geoip

import (
	"errors"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// ErrNotIP is returned when the host is not an IP literal.
var ErrNotIP = errors.New("host is not an ip address")

// HostGeo holds the geographic data found for an IP host.
type HostGeo struct {
	CountryCode string `json:"country_code,omitempty"`
	CityName    string `json:"city,omitempty"`
	ASN         uint   `json:"asn,omitempty"`
	OrgName     string `json:"org,omitempty"`
}

// Service manages the GeoIP City and ASN database readers. Either reader
// may be absent; lookups then return only the fields that are available.
type Service struct {
	cityReader *geoip2.Reader
	asnReader  *geoip2.Reader
}

// NewService opens the .mmdb files at the given paths. An empty path skips
// that database.
func NewService(cityDBPath, asnDBPath string) (*Service, error) {
	s := &Service{}

	if cityDBPath != "" {
		r, err := geoip2.Open(cityDBPath)
		if err != nil {
			return nil, fmt.Errorf("open city database: %w", err)
		}
		s.cityReader = r
	}

	if asnDBPath != "" {
		r, err := geoip2.Open(asnDBPath)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open asn database: %w", err)
		}
		s.asnReader = r
	}

	return s, nil
}

// Close releases the open database readers.
func (s *Service) Close() {
	if s.cityReader != nil {
		s.cityReader.Close()
	}
	if s.asnReader != nil {
		s.asnReader.Close()
	}
}

// Lookup returns country, city and ASN data for an IP host.
func (s *Service) Lookup(host string) (*HostGeo, error) {
	ip := net.ParseIP(host)
	if ip == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotIP, host)
	}

	geo := &HostGeo{}

	if s.cityReader != nil {
		record, err := s.cityReader.City(ip)
		if err != nil {
			return nil, fmt.Errorf("city lookup: %w", err)
		}
		geo.CountryCode = record.Country.IsoCode
		geo.CityName = record.City.Names["en"]
	}

	if s.asnReader != nil {
		record, err := s.asnReader.ASN(ip)
		if err != nil {
			return nil, fmt.Errorf("asn lookup: %w", err)
		}
		geo.ASN = record.AutonomousSystemNumber
		geo.OrgName = record.AutonomousSystemOrganization
	}

	return geo, nil
}
