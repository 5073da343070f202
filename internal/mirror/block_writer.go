// internal/mirror/block_writer.go
package mirror

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tamzrod/drone-streamer/internal/telemetry"
)

// registerClient is the exact contract the block writer uses.
type registerClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// BlockPlan locates one drone's status block in holding-register memory.
type BlockPlan struct {
	Endpoint   string
	UnitID     uint8
	BaseSlot   uint16
	DeviceName string
}

// BlockWriter mirrors status records into a Modbus status block.
// The first successful write, and the first one after any failure, is a
// full block assert (including the device name). Later writes touch only
// the live slots.
type BlockWriter struct {
	plan BlockPlan
	cli  registerClient

	mu       sync.Mutex
	needFull bool
}

// NewBlockWriter builds a writer for plan over cli.
func NewBlockWriter(plan BlockPlan, cli registerClient) (*BlockWriter, error) {
	if cli == nil {
		return nil, fmt.Errorf("block writer: missing client for endpoint %s", plan.Endpoint)
	}
	return &BlockWriter{
		plan:     plan,
		cli:      cli,
		needFull: true,
	}, nil
}

func (w *BlockWriter) Name() string { return "modbus" }

// Publish delivers one record. On failure the next call re-asserts the full block.
func (w *BlockWriter) Publish(r telemetry.StatusRecord) error {
	if w == nil || w.cli == nil {
		return errors.New("block writer: disabled")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	base := w.baseAddr()

	if w.needFull {
		if err := w.cli.WriteRegisters(w.plan.UnitID, base, EncodeFull(r, w.plan.DeviceName)); err != nil {
			return fmt.Errorf("block writer: full block write failed: %w", err)
		}
		w.needFull = false
		return nil
	}

	if err := w.cli.WriteRegisters(w.plan.UnitID, base, EncodeLive(r)); err != nil {
		// Partial state on the device is unknown now.
		w.needFull = true
		return fmt.Errorf("block writer: live slots write failed: %w", err)
	}

	return nil
}

func (w *BlockWriter) baseAddr() uint16 {
	// Each drone owns a fixed SlotsPerDevice block.
	return w.plan.BaseSlot * SlotsPerDevice
}
