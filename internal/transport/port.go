package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.bug.st/serial"
)

// Port is a line-oriented duplex byte stream to the device.
//
// Read may return (0, nil) when a read timeout elapses. Close must unblock a
// pending Read.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// SerialConfig holds serial port settings.
type SerialConfig struct {
	// Device is the port name, e.g. "/dev/ttyACM0" or "COM3".
	Device string

	// Baud defaults to 9600.
	Baud int

	// ReadTimeout bounds each Read so the reader can notice shutdown.
	// Default: 1 second.
	ReadTimeout time.Duration
}

// OpenSerial opens a USB/UART serial port, 8N1.
func OpenSerial(cfg SerialConfig) (Port, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("%w: serial device is required", ErrOpenFailed)
	}
	baud := cfg.Baud
	if baud <= 0 {
		baud = 9600
	}
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = time.Second
	}

	p, err := serial.Open(cfg.Device, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, cfg.Device, err)
	}
	if err := p.SetReadTimeout(timeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("%w: set read timeout: %w", ErrOpenFailed, err)
	}
	return p, nil
}

// tcpPort adapts a net.Conn (e.g. a ser2net bridge) to Port with a
// per-read deadline.
type tcpPort struct {
	net.Conn
	readTimeout time.Duration
}

func (p *tcpPort) Read(b []byte) (int, error) {
	if err := p.SetReadDeadline(time.Now().Add(p.readTimeout)); err != nil {
		return 0, err
	}
	n, err := p.Conn.Read(b)
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return n, nil
	}
	return n, err
}

// OpenTCP dials a raw TCP serial bridge at address ("host:port").
func OpenTCP(ctx context.Context, address string, readTimeout time.Duration) (Port, error) {
	if address == "" {
		return nil, fmt.Errorf("%w: tcp address is required", ErrOpenFailed)
	}
	if readTimeout <= 0 {
		readTimeout = time.Second
	}

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, address, err)
	}
	return &tcpPort{Conn: conn, readTimeout: readTimeout}, nil
}
