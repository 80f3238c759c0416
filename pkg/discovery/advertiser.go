// Package discovery implements Bonjour/mDNS advertisement of a HAP
// accessory server's single "_hap._tcp" service, the collaborator
// spec.md keeps out of the Secure Channel core's scope.
package discovery

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"sync"

	"github.com/grandcat/zeroconf"
	"github.com/pion/logging"
)

// ServiceHAP is the DNS-SD service type every HAP accessory advertises.
const ServiceHAP = "_hap._tcp"

// DefaultDomain is the mDNS domain accessories advertise into.
const DefaultDomain = "local."

// DefaultPort is used when AdvertiserConfig.Port is left unset.
const DefaultPort = 51826

// MDNSServer is the subset of a running mDNS registration the
// Advertiser needs. Satisfied by *zeroconf.Server; the indirection
// exists so tests can inject a fake without touching the network.
type MDNSServer interface {
	Shutdown()
}

// MDNSServerFactory creates MDNSServer instances.
type MDNSServerFactory interface {
	Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error)
}

// zeroconfServerFactory is the production MDNSServerFactory, backed by
// grandcat/zeroconf.
type zeroconfServerFactory struct{}

func (zeroconfServerFactory) Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error) {
	return zeroconf.Register(instance, service, domain, port, txt, ifaces)
}

// AdvertiserConfig configures an Advertiser.
type AdvertiserConfig struct {
	// InstanceName is the Bonjour instance name shown in pairing UIs
	// (e.g. "Living Room Lamp"). If empty, a random instance name is
	// generated, matching the behavior HAP recommends when an
	// accessory has no user-assigned name yet.
	InstanceName string

	// Port is the TCP port the accessory server listens on. Defaults
	// to DefaultPort.
	Port int

	// Interfaces restricts advertisement to specific network
	// interfaces. If nil, all interfaces are used.
	Interfaces []net.Interface

	// ServerFactory creates the underlying mDNS registration. If nil,
	// the zeroconf-backed factory is used.
	ServerFactory MDNSServerFactory

	// LoggerFactory creates the Advertiser's logger. If nil, logging
	// is disabled.
	LoggerFactory logging.LoggerFactory
}

// Advertiser publishes a single "_hap._tcp" DNS-SD service for one
// accessory server process. Unlike a multi-service-type node, a HAP
// accessory has exactly one thing to advertise, so Advertiser tracks
// at most one active registration at a time.
type Advertiser struct {
	config  AdvertiserConfig
	factory MDNSServerFactory
	log     logging.LeveledLogger

	mu           sync.Mutex
	server       MDNSServer
	instanceName string
	closed       bool
}

// NewAdvertiser creates an Advertiser. It does not touch the network
// until Start is called.
func NewAdvertiser(config AdvertiserConfig) *Advertiser {
	if config.Port <= 0 || config.Port > 65535 {
		config.Port = DefaultPort
	}

	factory := config.ServerFactory
	if factory == nil {
		factory = zeroconfServerFactory{}
	}

	var log logging.LeveledLogger
	if config.LoggerFactory != nil {
		log = config.LoggerFactory.NewLogger("discovery")
	}

	return &Advertiser{config: config, factory: factory, log: log}
}

// Start begins advertising txt over mDNS. It fails if advertisement is
// already active; call Update instead to republish changed TXT fields
// (e.g. after "c#" increments).
func (a *Advertiser) Start(txt TXT) error {
	if err := txt.Validate(); err != nil {
		return fmt.Errorf("discovery: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.server != nil {
		return ErrAlreadyStarted
	}

	instanceName := a.config.InstanceName
	if instanceName == "" {
		var err error
		instanceName, err = generateRandomInstanceName()
		if err != nil {
			return fmt.Errorf("discovery: generating instance name: %w", err)
		}
	}

	records := txt.Encode()
	if a.log != nil {
		a.log.Debugf("registering mDNS service: instance=%s service=%s port=%d", instanceName, ServiceHAP, a.config.Port)
		a.log.Tracef("TXT records: %v", records)
	}

	server, err := a.factory.Register(instanceName, ServiceHAP, DefaultDomain, a.config.Port, records, a.config.Interfaces)
	if err != nil {
		return fmt.Errorf("discovery: mDNS registration failed: %w", err)
	}

	if a.log != nil {
		a.log.Infof("advertising %s as %q on port %d", ServiceHAP, instanceName, a.config.Port)
	}

	a.server = server
	a.instanceName = instanceName
	return nil
}

// Update republishes txt under the same instance name. Bonjour has no
// in-place TXT record update in this package's model, so Update stops
// and re-registers; callers should call it whenever "c#" increments.
func (a *Advertiser) Update(txt TXT) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if a.server == nil {
		a.mu.Unlock()
		return ErrNotStarted
	}
	instanceName := a.instanceName
	a.server.Shutdown()
	a.server = nil
	a.mu.Unlock()

	a.config.InstanceName = instanceName
	return a.Start(txt)
}

// Stop withdraws the advertisement. It is a no-op error if nothing is
// currently advertised.
func (a *Advertiser) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.server == nil {
		return ErrNotStarted
	}

	a.server.Shutdown()
	a.server = nil
	return nil
}

// Close stops any active advertisement and marks the Advertiser unusable.
func (a *Advertiser) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
	a.closed = true
	return nil
}

// IsAdvertising reports whether the service is currently registered.
func (a *Advertiser) IsAdvertising() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.server != nil
}

// InstanceName returns the Bonjour instance name of the active
// advertisement, or "" if nothing is advertised.
func (a *Advertiser) InstanceName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server == nil {
		return ""
	}
	return a.instanceName
}

// generateRandomInstanceName produces a random fallback Bonjour
// instance name for accessories with no user-assigned name yet.
func generateRandomInstanceName() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return "HAP " + hex.EncodeToString(buf[:]), nil
}

// AdvertiserWithContext wraps an Advertiser so that cancelling ctx
// tears down the advertisement, matching the lifetime of the TCP
// listener cmd/hapd runs alongside it.
type AdvertiserWithContext struct {
	*Advertiser
}

// NewAdvertiserWithContext creates an Advertiser bound to ctx's
// lifetime. The Advertiser is closed when ctx is cancelled, or
// immediately if ctx is already done.
func NewAdvertiserWithContext(ctx context.Context, config AdvertiserConfig) *AdvertiserWithContext {
	adv := NewAdvertiser(config)
	go func() {
		<-ctx.Done()
		adv.Close()
	}()
	return &AdvertiserWithContext{Advertiser: adv}
}
