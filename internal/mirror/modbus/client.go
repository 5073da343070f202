// internal/mirror/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// EndpointClient is a single TCP connection to one register endpoint.
// It serializes requests because it mutates SlaveId per write.
type EndpointClient struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

// MaxWriteRegisters is the FC16 limit for one request.
const MaxWriteRegisters = 123

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// NewEndpointClient dials the endpoint once (fail fast at startup).
func NewEndpointClient(cfg Config) (*EndpointClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("mirror modbus: endpoint required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("mirror modbus: connect %s: %w", cfg.Endpoint, err)
	}

	return &EndpointClient{
		handler: h,
		client:  modbus.NewClient(h),
	}, nil
}

func (c *EndpointClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// WriteRegisters writes regs as holding registers (FC16) starting at addr.
func (c *EndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	if err := checkQuantity(len(regs)); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SlaveId = unitID

	qty := uint16(len(regs))
	if _, err := c.client.WriteMultipleRegisters(addr, qty, packRegisters(regs)); err != nil {
		return fmt.Errorf("mirror modbus: write unit=%d addr=%d qty=%d: %w", unitID, addr, qty, err)
	}
	return nil
}

func checkQuantity(n int) error {
	if n < 1 || n > MaxWriteRegisters {
		return fmt.Errorf("mirror modbus: register count %d out of range 1-%d", n, MaxWriteRegisters)
	}
	return nil
}

// Modbus register memory order (BIG-ENDIAN)
func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
