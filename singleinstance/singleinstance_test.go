package singleinstance

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"
)

// reservePorts points the package at a throwaway port range so parallel test
// runs and real residents don't collide.
func reservePorts(t *testing.T, start, end int) {
	t.Helper()
	t.Setenv("SNIPOCR_PORT_START", strconv.Itoa(start))
	t.Setenv("SNIPOCR_PORT_END", strconv.Itoa(end))
}

func TestPortRangeDefaultsAndClamping(t *testing.T) {
	start, end := getPortRange()
	if start != defaultPortStart || end != defaultPortEnd {
		t.Errorf("default range = [%d,%d]", start, end)
	}

	reservePorts(t, 80, 70000)
	start, end = getPortRange()
	if start != 1024 || end != 65535 {
		t.Errorf("clamped range = [%d,%d], want [1024,65535]", start, end)
	}

	reservePorts(t, 50000, 40000)
	start, end = getPortRange()
	if start != 40000 || end != 50000 {
		t.Errorf("swapped range = [%d,%d], want [40000,50000]", start, end)
	}
}

func TestServerAnswersPing(t *testing.T) {
	reservePorts(t, 49700, 49705)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer srv.Close()

	port, found := DetectResidentPort(ctx)
	if !found {
		t.Fatal("expected to detect the resident")
	}
	if port != srv.Port() {
		t.Errorf("detected port %d, want %d", port, srv.Port())
	}
}

func TestDelegationSuccessRoundTrip(t *testing.T) {
	reservePorts(t, 49710, 49715)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer srv.Close()

	// Resident side: answer one request with text.
	go func() {
		conn, err := srv.Next(ctx)
		if err != nil {
			return
		}
		defer conn.Close()
		if !conn.Request().OutputToStdout {
			_ = conn.RespondError("expected stdout mode")
			return
		}
		_ = conn.RespondSuccess("delegated result")
	}()

	cctx, ccancel := context.WithTimeout(ctx, 5*time.Second)
	defer ccancel()
	delegated, text, err := NewClient().TryRunOnce(cctx, true)
	if err != nil {
		t.Fatalf("TryRunOnce failed: %v", err)
	}
	if !delegated {
		t.Fatal("expected delegation to a resident")
	}
	if text != "delegated result" {
		t.Errorf("delegated text = %q", text)
	}
}

func TestDelegationErrorRoundTrip(t *testing.T) {
	reservePorts(t, 49720, 49725)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer srv.Close()

	go func() {
		conn, err := srv.Next(ctx)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.RespondError("busy, please retry")
	}()

	cctx, ccancel := context.WithTimeout(ctx, 5*time.Second)
	defer ccancel()
	delegated, _, err := NewClient().TryRunOnce(cctx, false)
	if !delegated {
		t.Fatal("expected delegation")
	}
	if err == nil || err.Error() != "busy, please retry" {
		t.Errorf("expected resident error, got %v", err)
	}
}

func TestTryRunOnceWithoutResident(t *testing.T) {
	reservePorts(t, 49730, 49731)
	cctx, ccancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer ccancel()

	delegated, text, err := NewClient().TryRunOnce(cctx, false)
	if err != nil {
		t.Fatalf("TryRunOnce failed: %v", err)
	}
	if delegated || text != "" {
		t.Errorf("expected no delegation, got delegated=%v text=%q", delegated, text)
	}
}

func TestServerRejectsUnknownRequest(t *testing.T) {
	reservePorts(t, 49750, 49755)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer srv.Close()

	c, err := net.Dial("tcp", fmt.Sprintf("%s:%d", residentHost, srv.Port()))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c.Close()

	if _, err := c.Write([]byte("GET / HTTP/1.1\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	reply, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if reply != "ERROR\n" {
		t.Errorf("reply = %q, want ERROR", reply)
	}

	// The junk request must never reach the capture pipeline.
	nctx, ncancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer ncancel()
	if conn, err := srv.Next(nctx); err != context.DeadlineExceeded {
		t.Errorf("Next yielded conn=%v err=%v, want deadline exceeded", conn, err)
	}
}

func TestCloseWithClientMidHandshake(t *testing.T) {
	reservePorts(t, 49760, 49765)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Stall the handshake mid-line, then disconnect while the server shuts
	// down. Close must wait out the accept loop instead of racing it.
	c, err := net.Dial("tcp", fmt.Sprintf("%s:%d", residentHost, srv.Port()))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if _, err := c.Write([]byte("CLIP")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = c.Close()
	}()

	if err := srv.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	if _, err := srv.Next(context.Background()); err != ErrServerClosed {
		t.Errorf("Next after Close = %v, want ErrServerClosed", err)
	}
}

func TestSecondServerCannotBind(t *testing.T) {
	reservePorts(t, 49740, 49745)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := NewServer()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	defer first.Close()

	second := NewServer()
	if err := second.Start(ctx); err == nil {
		second.Close()
		t.Fatal("expected second resident to fail binding the start port")
	}
}
