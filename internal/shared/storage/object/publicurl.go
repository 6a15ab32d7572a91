package object

import "strings"

// AddressConfig describes how objects of one bucket are reached from outside.
// CDNBaseURL is used in production, LocalEmulatorEndpoint in development.
type AddressConfig struct {
	BucketName            string
	CDNBaseURL            string
	LocalEmulatorEndpoint string
}

// PublicURL maps a storage key to an externally reachable URL.
//
// An empty key always yields "". A CDN base wins over an emulator endpoint.
// With neither configured the raw key is returned.
func PublicURL(key string, cfg AddressConfig) string {
	if key == "" {
		return ""
	}
	if cfg.CDNBaseURL != "" {
		return cfg.CDNBaseURL + "/" + key
	}
	if cfg.LocalEmulatorEndpoint != "" {
		endpoint := strings.TrimSuffix(cfg.LocalEmulatorEndpoint, "/")
		return endpoint + "/" + cfg.BucketName + "/" + key
	}
	return key
}
