// Package util holds small shared helpers.
package util

import "net"

// IsIPv4 reports whether s is a literal IPv4 address. IPv4-mapped IPv6
// notation ("::ffff:10.0.0.1") counts as IPv4.
func IsIPv4(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() != nil
}

// IsIPv6 reports whether s is a literal IPv6 address.
func IsIPv6(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() == nil
}
