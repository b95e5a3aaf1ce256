package middleware

import (
	"net"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/insa-apps/studygate/internal/domain"
)

// TrustBoundary makes the header-trust precondition explicit: the identity
// headers are only honored when the immediate peer is the campus SSO proxy.
// Requests from anywhere else get them stripped before any handler runs.
type TrustBoundary struct {
	proxies []*net.IPNet
	logger  *zap.Logger
}

func NewTrustBoundary(cidrs []string, logger *zap.Logger) (*TrustBoundary, error) {
	proxies := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid trusted proxy cidr %q", cidr)
		}
		proxies = append(proxies, network)
	}
	return &TrustBoundary{proxies: proxies, logger: logger}, nil
}

func (t *TrustBoundary) trusted(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, network := range t.proxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func (t *TrustBoundary) FilterHeaders(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		if !t.trusted(req.RemoteAddr) {
			if req.Header.Get(domain.AuthEmailHeader) != "" {
				t.logger.Warn("stripping identity headers from untrusted peer",
					zap.String("remoteAddr", req.RemoteAddr),
				)
			}
			req.Header.Del(domain.AuthEmailHeader)
			req.Header.Del(domain.AuthUIDHeader)
		}
		return next(c)
	}
}
