package validator

import (
	"net/mail"
	"net/netip"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrymomot/protorules/pkg/rules"
)

func matchWellKnown(w rules.WellKnown, v string) bool {
	switch w {
	case rules.WellKnownEmail:
		return isEmail(v)
	case rules.WellKnownHostname:
		return isHostname(v)
	case rules.WellKnownIP:
		return isIP(v, 0)
	case rules.WellKnownIPv4:
		return isIP(v, 4)
	case rules.WellKnownIPv6:
		return isIP(v, 6)
	case rules.WellKnownURI:
		return isURI(v)
	case rules.WellKnownURIRef:
		return isURIRef(v)
	case rules.WellKnownAddress:
		return isHostname(v) || isIP(v, 0)
	case rules.WellKnownUUID:
		return isUUID(v)
	case rules.WellKnownTUUID:
		return isTrimmedUUID(v)
	case rules.WellKnownIPWithPrefixLen:
		_, err := netip.ParsePrefix(v)
		return err == nil
	case rules.WellKnownIPPrefix:
		p, err := netip.ParsePrefix(v)
		return err == nil && p.Masked() == p
	case rules.WellKnownHostAndPort:
		return isHostAndPort(v)
	}
	return true
}

func wellKnownMessage(w rules.WellKnown) string {
	switch w {
	case rules.WellKnownEmail:
		return "must be a valid email address"
	case rules.WellKnownHostname:
		return "must be a valid hostname"
	case rules.WellKnownIP:
		return "must be a valid IP address"
	case rules.WellKnownIPv4:
		return "must be a valid IPv4 address"
	case rules.WellKnownIPv6:
		return "must be a valid IPv6 address"
	case rules.WellKnownURI:
		return "must be a valid URI"
	case rules.WellKnownURIRef:
		return "must be a valid URI reference"
	case rules.WellKnownAddress:
		return "must be a valid hostname or IP address"
	case rules.WellKnownUUID:
		return "must be a valid UUID"
	case rules.WellKnownTUUID:
		return "must be a valid trimmed UUID"
	case rules.WellKnownIPWithPrefixLen:
		return "must be a valid IP with prefix length"
	case rules.WellKnownIPPrefix:
		return "must be a valid IP prefix"
	case rules.WellKnownHostAndPort:
		return "must be a valid host and port pair"
	}
	return "invalid format"
}

func isEmail(value string) bool {
	if strings.TrimSpace(value) == "" {
		return false
	}

	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || addr.Name != "" {
		return false
	}

	localPart, domain, ok := strings.Cut(value, "@")
	if !ok || localPart == "" {
		return false
	}

	// Domain must contain at least one dot and cannot start/end with dot
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	return isHostname(domain)
}

// isHostname accepts dot separated labels of 1 to 63 alphanumerics or
// hyphens, not starting or ending with a hyphen, with an optional trailing
// dot. The last label must not be all digits.
func isHostname(value string) bool {
	if value == "" || len(value) > 253 {
		return false
	}
	value = strings.TrimSuffix(value, ".")

	allDigits := false
	for label := range strings.SplitSeq(value, ".") {
		l := len(label)
		if l == 0 || l > 63 || label[0] == '-' || label[l-1] == '-' {
			return false
		}
		allDigits = true
		for i := range l {
			c := label[i]
			if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') && c != '-' {
				return false
			}
			allDigits = allDigits && c >= '0' && c <= '9'
		}
	}
	return !allDigits
}

func isIP(value string, version int) bool {
	addr, err := netip.ParseAddr(value)
	if err != nil {
		return false
	}
	switch version {
	case 4:
		return addr.Is4()
	case 6:
		return addr.Is6()
	}
	return true
}

func isURI(value string) bool {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" {
		return false
	}
	return u.Opaque != "" || u.Host != "" || u.Path != ""
}

func isURIRef(value string) bool {
	if strings.ContainsAny(value, " \t\r\n") {
		return false
	}
	_, err := url.Parse(value)
	return err == nil
}

// isHostAndPort accepts host:port where host is a hostname, an IPv4 address
// or a bracketed IPv6 address and the port is a decimal in 0-65535.
func isHostAndPort(value string) bool {
	if value == "" {
		return false
	}
	split := strings.LastIndexByte(value, ':')
	if split < 0 {
		return false
	}
	host, port := value[:split], value[split+1:]
	if !isPort(port) {
		return false
	}
	if strings.HasPrefix(host, "[") {
		return strings.HasSuffix(host, "]") && isIP(host[1:len(host)-1], 6)
	}
	return isHostname(host) || isIP(host, 4)
}

func isPort(value string) bool {
	if value == "" || len(value) > 5 {
		return false
	}
	if len(value) > 1 && value[0] == '0' {
		return false
	}
	n, err := strconv.ParseUint(value, 10, 16)
	return err == nil && n <= 65535
}
