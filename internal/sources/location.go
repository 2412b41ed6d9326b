// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sources

import (
	"net/url"
	"strings"
)

// stripQueryAndHash drops everything from the first '?' or '#'.
func stripQueryAndHash(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		return raw[:i]
	}
	return raw
}

// sameLocation reports whether two locations share scheme, host and path.
// Locations without a parsable host are compared without query and fragment.
// A redirect to another path on the current host counts as a new location and
// does fail over; a host-only comparison would ignore it.
func sameLocation(a, b string) bool {
	sa, sb := stripQueryAndHash(a), stripQueryAndHash(b)
	ua, errA := url.Parse(sa)
	ub, errB := url.Parse(sb)
	if errA != nil || errB != nil || ua.Host == "" || ub.Host == "" {
		return sa == sb
	}
	return strings.EqualFold(ua.Scheme, ub.Scheme) &&
		strings.EqualFold(ua.Host, ub.Host) &&
		cleanPath(ua.Path) == cleanPath(ub.Path)
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

// indexOfLocation returns the index of the source whose URL equals location,
// ignoring query and fragment, or -1.
func indexOfLocation(list []Source, location string) int {
	if location == "" {
		return -1
	}
	want := stripQueryAndHash(location)
	for i, s := range list {
		if stripQueryAndHash(s.URL) == want {
			return i
		}
	}
	return -1
}
