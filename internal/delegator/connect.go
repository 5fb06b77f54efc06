package delegator

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/myfavshrimp/arc/internal/debug"
	"github.com/myfavshrimp/arc/internal/errutil"
)

const dialTimeout = 30 * time.Second

// dialSSH opens a TCP connection to addr:port, performs the SSH handshake,
// authenticates, and opens an SFTP subsystem channel over the same session.
// Auth order follows spec.md §4.1: any agent-less method the SSH agent
// itself doesn't need (host-based/none, effectively nothing without a
// password prompt) is attempted first; since this engine never prompts for
// a password or parses key files of its own, in practice the only method
// available is SSH-agent auth for user, tried against SSH_AUTH_SOCK.
func dialSSH(ctx context.Context, addr string, port uint16, user string) (*sshBackend, error) {
	socketAddr := fmt.Sprintf("%s:%d", addr, port)

	authMethods, closeAgent, err := agentAuthMethods()
	if err != nil {
		return nil, errutil.NewInfrastructureError("ssh agent unavailable", err)
	}

	config := &ssh.ClientConfig{
		User:            user,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // fleet automation, not interactive login
		Timeout:         dialTimeout,
	}

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", socketAddr)
	if err != nil {
		if closeAgent != nil {
			_ = closeAgent()
		}
		return nil, errutil.NewInfrastructureError("dial "+socketAddr+" failed", err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, socketAddr, config)
	if err != nil {
		_ = conn.Close()
		if closeAgent != nil {
			_ = closeAgent()
		}
		return nil, errutil.NewInfrastructureError("ssh handshake with "+socketAddr+" failed", err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		_ = client.Close()
		if closeAgent != nil {
			_ = closeAgent()
		}
		return nil, errutil.NewInfrastructureError("opening sftp subsystem on "+socketAddr+" failed", err)
	}

	debug.Log("connected to %s as %s", socketAddr, user)

	return &sshBackend{
		addr: addr,
		port: port,
		user: user,
		conn: client,
		sftp: sftpClient,
	}, nil
}

// agentAuthMethods builds the auth method list: SSH-agent keys if
// SSH_AUTH_SOCK is set, otherwise no methods (the handshake will then fail
// with a clear authentication error rather than silently hanging on a
// password prompt this engine never issues).
func agentAuthMethods() ([]ssh.AuthMethod, func() error, error) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, nil, nil
	}

	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, nil, err
	}

	agentClient := agent.NewClient(conn)
	return []ssh.AuthMethod{ssh.PublicKeysCallback(agentClient.Signers)}, conn.Close, nil
}
