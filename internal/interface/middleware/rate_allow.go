package middleware

import (
	"net/netip"

	"github.com/gin-gonic/gin"
)

// AllowNetworks skips the limiter for callers inside any of the prefixes.
func AllowNetworks(prefixes ...netip.Prefix) AllowFunc {
	return func(c *gin.Context) bool {
		addr, err := netip.ParseAddr(clientIP(c))
		if err != nil {
			return false
		}
		addr = addr.Unmap()
		for _, p := range prefixes {
			if p.Contains(addr) {
				return true
			}
		}
		return false
	}
}

var privateNetworks = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fc00::/7"),
}

// AllowPrivateIP lets in-cluster scrapers and health checks through.
func AllowPrivateIP() AllowFunc { return AllowNetworks(privateNetworks...) }
