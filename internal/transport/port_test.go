package transport

import (
	"bufio"
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

func TestOpenSerial_RequiresDevice(t *testing.T) {
	if _, err := OpenSerial(SerialConfig{}); !errors.Is(err, ErrOpenFailed) {
		t.Errorf("OpenSerial() = %v, want ErrOpenFailed", err)
	}
}

func TestOpenSerial_MissingDevice(t *testing.T) {
	_, err := OpenSerial(SerialConfig{Device: "/dev/vesta-does-not-exist"})
	if !errors.Is(err, ErrOpenFailed) {
		t.Errorf("OpenSerial() = %v, want ErrOpenFailed", err)
	}
}

func TestOpenTCP_RequiresAddress(t *testing.T) {
	if _, err := OpenTCP(context.Background(), "", 0); !errors.Is(err, ErrOpenFailed) {
		t.Errorf("OpenTCP() = %v, want ErrOpenFailed", err)
	}
}

func TestOpenTCP_RoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}
	defer ln.Close()

	received := make(chan string, 1)
	release := make(chan struct{})
	defer close(release)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte(`{"temp":19.5}`))
		line, _ := bufio.NewReader(conn).ReadString('\n')
		received <- line
		<-release
	}()

	port, err := OpenTCP(context.Background(), ln.Addr().String(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("OpenTCP() error = %v", err)
	}

	sink := &frameSink{}
	link := NewLink(port, LinkOptions{OnFrame: sink.handle})
	link.Start()
	defer link.Close()

	waitFor(t, func() bool { return sink.count() == 1 })

	if err := link.Send(context.Background(), "FAN_ON"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	select {
	case line := <-received:
		if line != "FAN_ON\n" {
			t.Errorf("server got %q", line)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive command")
	}

	// Read timeouts must not disconnect the link.
	time.Sleep(120 * time.Millisecond)
	if !link.IsConnected() {
		t.Error("read timeout disconnected the link")
	}
}
