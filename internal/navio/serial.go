package navio

import (
	"context"
	"encoding/hex"
	"io"

	"go.bug.st/serial"

	"github.com/banshee-data/navsync/internal/monitoring"
)

// DevicePortInterface is the capture surface for a navigation device port,
// satisfied by both live hardware and the mock used in tests.
type DevicePortInterface interface {
	Chunks() <-chan []byte
	Monitor(ctx context.Context) error
	Close() error
}

// MockDevicePort replays a prerecorded byte stream as if it arrived on a
// serial port.
type MockDevicePort struct {
	Data       io.Reader
	ChunksChan chan []byte
}

func (m *MockDevicePort) Chunks() <-chan []byte {
	return m.ChunksChan
}

func (m *MockDevicePort) Monitor(ctx context.Context) error {
	buf := make([]byte, 256)
	for {
		n, err := m.Data.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case m.ChunksChan <- chunk:
			case <-ctx.Done():
				return nil
			}
		}
		if err != nil {
			break
		}
	}

	<-ctx.Done()
	return nil
}

func (m *MockDevicePort) Close() error {
	return nil
}

// DevicePort reads the raw binary stream from a navigation device over a
// serial connection.
type DevicePort struct {
	serial.Port
	chunks chan []byte
}

func NewDevicePort(portName string, baudRate int) (*DevicePort, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: 1,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, err
	}

	chunks := make(chan []byte)

	return &DevicePort{port, chunks}, nil
}

// Chunks returns a channel carrying raw byte chunks read from the port.
func (p *DevicePort) Chunks() <-chan []byte {
	return p.chunks
}

// Close closes the serial port.
func (p *DevicePort) Close() error {
	if err := p.Port.Close(); err != nil {
		return err
	}
	return nil
}

// Monitor reads from the serial port and sends raw chunks to the chunks
// channel until the context is cancelled or the port errors.
func (p *DevicePort) Monitor(ctx context.Context) error {
	defer p.Close()

	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			n, err := p.Port.Read(buf)
			if err != nil {
				monitoring.Logf("serial read error: %v", err)
				return err
			}
			if n == 0 {
				continue
			}
			chunk := make([]byte, n)
			copy(chunk, buf[:n])

			select {
			case p.chunks <- chunk:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Capture drains chunks from a device port into w as a hex dump, the on-disk
// format the decoders read back. It returns when the context is cancelled or
// the port's chunk channel closes.
func Capture(ctx context.Context, port DevicePortInterface, w io.Writer) (int64, error) {
	var written int64
	enc := hex.NewEncoder(w)

	for {
		select {
		case <-ctx.Done():
			return written, nil
		case chunk, ok := <-port.Chunks():
			if !ok {
				return written, nil
			}
			n, err := enc.Write(chunk)
			written += int64(n)
			if err != nil {
				return written, err
			}
		}
	}
}
