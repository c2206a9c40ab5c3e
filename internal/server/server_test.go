package server

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"
)

func TestServer_RunServeShutdown(t *testing.T) {
	s := New("web")
	errc := make(chan error, 1)
	go func() {
		errc <- s.Run("127.0.0.1:0", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "OK")
		}))
	}()

	select {
	case <-s.Ready():
	case err := <-errc:
		t.Fatalf("Run: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("server never became ready")
	}

	resp, err := http.Get("http://" + s.ListenAddr().String() + "/")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(body) != "OK" {
		t.Fatalf("body %q", body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("Run after shutdown: %v", err)
	}
}

func TestServer_ListenFailure(t *testing.T) {
	if err := New("bad").Run("256.0.0.1:80", http.NotFoundHandler()); err == nil {
		t.Fatal("expected listen error")
	}
	if err := New("idle").Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown before Run: %v", err)
	}
}

func TestAddr(t *testing.T) {
	if Addr(81) != ":81" {
		t.Fatalf("Addr(81) = %q", Addr(81))
	}
}
