package api

import (
	"fmt"
	"net"
	"strings"
)

// ProductionURL is used when nothing else resolves.
const ProductionURL = "https://kotconnect-backend-team18-ekd9eefwh9gpdmcp.westeurope-01.azurewebsites.net"

// DevPort is the port the backend listens on in development.
const DevPort = "8080"

// Loopback addresses for the development fallback. The Android emulator
// reaches the host machine through 10.0.2.2.
const (
	androidLoopback = "http://10.0.2.2:" + DevPort
	defaultLoopback = "http://localhost:" + DevPort
)

// Environment carries the inputs of base URL resolution.
type Environment struct {
	// Override is an explicit base URL. It wins over everything else.
	Override string
	// Dev enables the development sources below.
	Dev bool
	// DevHostURI is the dev server's host URI ("192.168.1.20:19000"); its
	// host is combined with DevPort.
	DevHostURI string
	// Platform is android, ios, web or desktop.
	Platform string
}

// ResolveBaseURL picks the backend base URL. Sources are consulted in fixed
// order and a later one is only used when every earlier one is absent:
//
//  1. explicit override
//  2. development host inferred from the dev server URI (dev only)
//  3. platform loopback fallback (dev only)
//  4. production URL
func ResolveBaseURL(env Environment) string {
	if v := strings.TrimSpace(env.Override); v != "" {
		return strings.TrimSuffix(v, "/")
	}

	if env.Dev {
		if host := devHost(env.DevHostURI); host != "" {
			return fmt.Sprintf("http://%s", net.JoinHostPort(host, DevPort))
		}
		if strings.EqualFold(env.Platform, "android") {
			return androidLoopback
		}
		return defaultLoopback
	}

	return ProductionURL
}

// devHost extracts the host part of a "host[:port]" URI.
func devHost(uri string) string {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return ""
	}
	if i := strings.Index(uri, "://"); i >= 0 {
		uri = uri[i+3:]
	}
	if i := strings.IndexByte(uri, '/'); i >= 0 {
		uri = uri[:i]
	}
	if host, _, err := net.SplitHostPort(uri); err == nil {
		return host
	}
	return strings.Trim(uri, "[]")
}
