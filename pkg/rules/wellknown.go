package rules

import "fmt"

// WellKnown selects a predefined string or bytes format check.
type WellKnown uint8

const (
	WellKnownNone WellKnown = iota
	WellKnownEmail
	WellKnownHostname
	WellKnownIP
	WellKnownIPv4
	WellKnownIPv6
	WellKnownURI
	WellKnownURIRef
	WellKnownAddress
	WellKnownUUID
	WellKnownTUUID
	WellKnownIPWithPrefixLen
	WellKnownIPPrefix
	WellKnownHostAndPort
)

var wellKnownNames = [...]string{
	WellKnownNone:            "",
	WellKnownEmail:           "email",
	WellKnownHostname:        "hostname",
	WellKnownIP:              "ip",
	WellKnownIPv4:            "ipv4",
	WellKnownIPv6:            "ipv6",
	WellKnownURI:             "uri",
	WellKnownURIRef:          "uri_ref",
	WellKnownAddress:         "address",
	WellKnownUUID:            "uuid",
	WellKnownTUUID:           "tuuid",
	WellKnownIPWithPrefixLen: "ip_with_prefixlen",
	WellKnownIPPrefix:        "ip_prefix",
	WellKnownHostAndPort:     "host_and_port",
}

// String returns the rule name of the format, which is also its rule id suffix.
func (w WellKnown) String() string {
	if int(w) < len(wellKnownNames) {
		return wellKnownNames[w]
	}
	return fmt.Sprintf("well_known(%d)", uint8(w))
}

// ParseWellKnown resolves a format by its rule name.
func ParseWellKnown(name string) (WellKnown, error) {
	for w, n := range wellKnownNames {
		if n == name {
			return WellKnown(w), nil
		}
	}
	return WellKnownNone, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// AppliesToBytes reports whether the format can be declared on a bytes field.
func (w WellKnown) AppliesToBytes() bool {
	switch w {
	case WellKnownIP, WellKnownIPv4, WellKnownIPv6:
		return true
	}
	return false
}
