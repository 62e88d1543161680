package geo

import (
	"log"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Location is the coarse result of an IP lookup.
type Location struct {
	Country string
	City    string
}

// Resolver answers offline IP-to-location lookups against a local GeoLite2
// City database. A Resolver without a database behind it is valid and
// simply never resolves.
type Resolver struct {
	reader *geoip2.Reader
}

// Open loads the GeoLite2 database at path. A missing or unreadable
// database is not fatal: enrichment degrades to misses and ingestion
// proceeds without geo data.
func Open(path string) *Resolver {
	reader, err := geoip2.Open(path)
	if err != nil {
		log.Printf("geoip database unavailable (%v), geo enrichment disabled", err)
		return &Resolver{}
	}
	return &Resolver{reader: reader}
}

// Close releases the underlying database, if any.
func (r *Resolver) Close() {
	if r.reader != nil {
		_ = r.reader.Close()
	}
}

// Resolve maps ip to a coarse location. Loopback, private and unparsable
// addresses report ok=false, as does any internal lookup failure; callers
// never see an error.
func (r *Resolver) Resolve(ip string) (Location, bool) {
	if r == nil || r.reader == nil {
		return Location{}, false
	}

	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return Location{}, false
	}

	record, err := r.reader.City(parsed)
	if err != nil || record == nil {
		return Location{}, false
	}

	loc := Location{
		Country: record.Country.IsoCode,
		City:    record.City.Names["en"],
	}
	if loc.Country == "" && loc.City == "" {
		return Location{}, false
	}
	return loc, true
}
