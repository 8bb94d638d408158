package ssh

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"testing"

	"golang.org/x/crypto/ssh"
)

// commandHandler answers an exec request and returns the exit status
type commandHandler func(command string, stdout, stderr io.Writer) int

// startTestServer starts an in-process SSH server on loopback that accepts
// root with an empty password, like a freshly flashed device.
func startTestServer(t *testing.T, handler commandHandler) int {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate host key: %v", err)
	}
	hostSigner, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("failed to create host signer: %v", err)
	}

	config := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			if c.User() == "root" && len(password) == 0 {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected for %s", c.User())
		},
	}
	config.AddHostKey(hostSigner)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveConn(conn, config, handler)
		}
	}()

	return ln.Addr().(*net.TCPAddr).Port
}

func serveConn(conn net.Conn, config *ssh.ServerConfig, handler commandHandler) {
	_, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		conn.Close()
		return
	}
	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			_ = newCh.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}
		ch, requests, err := newCh.Accept()
		if err != nil {
			continue
		}
		go serveSession(ch, requests, handler)
	}
}

func serveSession(ch ssh.Channel, requests <-chan *ssh.Request, handler commandHandler) {
	defer ch.Close()
	for req := range requests {
		if req.Type != "exec" {
			if req.WantReply {
				_ = req.Reply(false, nil)
			}
			continue
		}
		var payload struct{ Command string }
		if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
			_ = req.Reply(false, nil)
			return
		}
		_ = req.Reply(true, nil)

		code := handler(payload.Command, ch, ch.Stderr())
		status := struct{ Status uint32 }{uint32(code)}
		_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(&status))
		return
	}
}

// newTestClient connects a Client to the in-process server
func newTestClient(t *testing.T, handler commandHandler) *Client {
	t.Helper()
	t.Setenv(EnvSSHKey, "")

	port := startTestServer(t, handler)
	client := NewClient("127.0.0.1", "root", port, "/nonexistent/key",
		WithPassword(""), WithInsecureHostKey(), WithRetries(0))
	if err := client.Connect(t.Context()); err != nil {
		t.Fatalf("failed to connect to test server: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}
