package net

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

const serviceType = "_paperpen._tcp"

// Peer is a session found on the local network.
type Peer struct {
	Instance string
	Addr     string
	Info     []string
}

// Advertise announces a session listening on port. Shut the returned
// server down to withdraw it.
func Advertise(instance string, port int, info ...string) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("net: hostname: %w", err)
	}
	if instance == "" {
		instance = host
	}
	service, err := mdns.NewMDNSService(instance, serviceType, "", "", port, nil, append([]string{"PaperPen"}, info...))
	if err != nil {
		return nil, fmt.Errorf("net: mdns service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("net: mdns server: %w", err)
	}
	return server, nil
}

// Browse looks for advertised sessions for timeout, or until ctx's
// deadline if that comes first, and reports each IPv4 answer to found.
func Browse(ctx context.Context, timeout time.Duration, found func(Peer)) error {
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	entries := make(chan *mdns.ServiceEntry, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 || ctx.Err() != nil {
				continue
			}
			found(Peer{
				Instance: instanceName(e.Name),
				Addr:     net.JoinHostPort(e.AddrV4.String(), fmt.Sprint(e.Port)),
				Info:     e.InfoFields,
			})
		}
	}()

	params := mdns.DefaultParams(serviceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	err := mdns.Query(params)
	close(entries)
	<-done
	if err != nil {
		return fmt.Errorf("net: mdns query: %w", err)
	}
	return ctx.Err()
}

// instanceName strips the service suffix from an mDNS entry name.
func instanceName(name string) string {
	if i := strings.Index(name, "."+serviceType); i > 0 {
		return strings.ReplaceAll(name[:i], `\ `, " ")
	}
	return name
}
