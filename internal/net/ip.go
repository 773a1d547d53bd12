package net

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// OutgoingIP finds the address other devices on the LAN should use to
// reach this host. No packet is sent; dialing UDP only picks a route.
func OutgoingIP() net.IP {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		// Offline: fall back to the first usable interface.
		return firstIPv4()
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP
}

func firstIPv4() net.IP {
	ifaces, _ := net.Interfaces()
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.To4()
			}
		}
	}
	return net.IPv4(127, 0, 0, 1)
}

// ShareLink is the websocket URL a remote pad connects to.
func ShareLink(ip net.IP, port int) string {
	u := url.URL{
		Scheme: "ws",
		Host:   net.JoinHostPort(ip.String(), strconv.Itoa(port)),
		Path:   "/ws",
	}
	return u.String()
}

// Port extracts the port from a listen address such as ":8888".
func Port(addr net.Addr) (int, error) {
	_, p, err := net.SplitHostPort(addr.String())
	if err != nil {
		return 0, fmt.Errorf("net: port of %s: %w", addr, err)
	}
	return strconv.Atoi(p)
}
