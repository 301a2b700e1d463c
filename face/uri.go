package face

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/reflexndn/rfwd/core"
)

// URI is a parsed FaceUri (spec.md §6): scheme plus scheme-specific
// address, host and port split out for the socket-based schemes.
type URI struct {
	Scheme string
	Host   string
	Port   uint16
	Path   string // unix socket path
}

func (u URI) String() string {
	switch u.Scheme {
	case "unix":
		return "unix://" + u.Path
	default:
		return fmt.Sprintf("%s://%s", u.Scheme, net.JoinHostPort(u.Host, strconv.Itoa(int(u.Port))))
	}
}

const defaultNDNPort uint16 = 6363

// ParseFaceURI parses the FaceUri forms listed in spec.md §6: tcp/tcp4/tcp6
// and udp/udp4/udp6 (default port 6363 when omitted), and unix:///path.
func ParseFaceURI(s string) (URI, error) {
	parsed, err := url.Parse(s)
	if err != nil {
		return URI{}, fmt.Errorf("%w: %v", core.ErrInvalidFaceURI, err)
	}

	switch parsed.Scheme {
	case "unix":
		path := parsed.Path
		if path == "" {
			path = parsed.Opaque
		}
		if path == "" {
			return URI{}, fmt.Errorf("%w: missing unix socket path in %q", core.ErrInvalidFaceURI, s)
		}
		return URI{Scheme: "unix", Path: path}, nil

	case "tcp", "tcp4", "tcp6", "udp", "udp4", "udp6", "ws", "wss", "quic":
		host := parsed.Hostname()
		if host == "" {
			return URI{}, fmt.Errorf("%w: missing host in %q", core.ErrInvalidFaceURI, s)
		}
		port := defaultNDNPort
		if p := parsed.Port(); p != "" {
			n, err := strconv.ParseUint(p, 10, 16)
			if err != nil {
				return URI{}, fmt.Errorf("%w: bad port in %q", core.ErrInvalidFaceURI, s)
			}
			port = uint16(n)
		}
		return URI{Scheme: parsed.Scheme, Host: host, Port: port}, nil

	default:
		return URI{}, fmt.Errorf("%w: unsupported scheme %q", core.ErrInvalidFaceURI, parsed.Scheme)
	}
}

// LinkTypeFor infers the LinkType a scheme implies, matching the
// assumptions behind the teacher's per-transport LinkType defaults: stream
// transports are point-to-point, and only a genuine multicast/multi-access
// medium would be MultiAccess (none are implemented here).
func LinkTypeFor(scheme string) LinkType {
	return LinkPointToPoint
}

// ScopeFor classifies a host as Local (loopback/unix) or NonLocal.
func ScopeFor(scheme, host string) Scope {
	if scheme == "unix" {
		return ScopeLocal
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return ScopeLocal
	}
	if strings.EqualFold(host, "localhost") {
		return ScopeLocal
	}
	return ScopeNonLocal
}
