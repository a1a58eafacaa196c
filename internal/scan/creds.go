package scan

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/nerdfunk-net/cockpit-sub000/internal/domain"
)

// CredentialResolver resolves a credential reference id into the
// decrypted secret. Resolution happens once per host at trial time;
// the secret is never retained in results.
type CredentialResolver interface {
	GetSecret(ctx context.Context, id string) (*domain.Secret, error)
}

// CredentialStatusReporter is implemented by resolvers that track
// credential health. Trial outcomes feed it: a successful
// authentication marks the credential valid, a rejection marks it
// invalid. Connection-level failures say nothing about the
// credential and are not reported.
type CredentialStatusReporter interface {
	UpdateSecretStatus(ctx context.Context, id string, status domain.SecretStatus, message string) error
}

// Session is an authenticated command channel on a remote host
type Session interface {
	// Run executes a command and returns its combined output
	Run(cmd string) (string, error)
	Close() error
}

// Authenticator attempts one credentialed connection to a host
type Authenticator interface {
	Authenticate(ctx context.Context, addr string, secret *domain.Secret) (Session, error)
}

// TrialConfig bounds one credential trial
type TrialConfig struct {
	// ConnectTimeout for one connection attempt
	ConnectTimeout time.Duration
	// Attempts per credential before moving to the next one
	Attempts int
	// CommandTimeout for command execution on an open session
	CommandTimeout time.Duration
	// Port for SSH connections
	Port int
}

// DefaultTrialConfig returns sensible defaults
func DefaultTrialConfig() TrialConfig {
	return TrialConfig{
		ConnectTimeout: 5 * time.Second,
		Attempts:       3,
		CommandTimeout: 30 * time.Second,
		Port:           22,
	}
}

// TrialEngine iterates a caller-ordered credential list against one
// host, stopping at the first credential that authenticates.
type TrialEngine struct {
	config TrialConfig
	creds  CredentialResolver
	auth   Authenticator
}

// NewTrialEngine creates a trial engine. A nil authenticator defaults
// to SSH.
func NewTrialEngine(creds CredentialResolver, auth Authenticator, config TrialConfig) *TrialEngine {
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 5 * time.Second
	}
	if config.Attempts == 0 {
		config.Attempts = 3
	}
	if config.CommandTimeout == 0 {
		config.CommandTimeout = 30 * time.Second
	}
	if config.Port == 0 {
		config.Port = 22
	}
	if auth == nil {
		auth = &SSHAuthenticator{
			Timeout:        config.ConnectTimeout,
			CommandTimeout: config.CommandTimeout,
			Port:           config.Port,
		}
	}
	return &TrialEngine{config: config, creds: creds, auth: auth}
}

// Try iterates credentials in the order given. First success wins:
// remaining credentials are never attempted once one authenticates.
// Every credential failing yields a nil session and the last error.
func (e *TrialEngine) Try(ctx context.Context, addr string, credentialIDs []string) (Session, string, error) {
	var lastErr error

	for _, id := range credentialIDs {
		secret, err := e.creds.GetSecret(ctx, id)
		if err != nil {
			log.Printf("Credential %s unresolvable for %s: %v", id, addr, err)
			lastErr = err
			continue
		}
		if secret == nil {
			lastErr = fmt.Errorf("credential %s not found", id)
			continue
		}

		for attempt := 1; attempt <= e.config.Attempts; attempt++ {
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}

			sess, err := e.auth.Authenticate(ctx, addr, secret)
			if err == nil {
				e.reportStatus(ctx, id, domain.SecretStatusValid, "authenticated to "+addr)
				return sess, id, nil
			}
			lastErr = err

			// Authentication rejections will not improve on retry;
			// only connection-level failures are worth repeating.
			if isAuthRejection(err) {
				e.reportStatus(ctx, id, domain.SecretStatusInvalid, "rejected by "+addr)
				break
			}
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no usable credentials")
	}
	return nil, "", lastErr
}

// reportStatus records a trial outcome on resolvers that track
// credential health. Best effort: a failing status update never
// affects the trial itself.
func (e *TrialEngine) reportStatus(ctx context.Context, id string, status domain.SecretStatus, message string) {
	reporter, ok := e.creds.(CredentialStatusReporter)
	if !ok {
		return
	}
	if err := reporter.UpdateSecretStatus(ctx, id, status, message); err != nil {
		log.Printf("Credential %s status update failed: %v", id, err)
	}
}

// isAuthRejection distinguishes a server that answered and said no
// from a connection that never completed
func isAuthRejection(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := err.(*net.OpError); ok {
		return false
	}
	return true
}

// SSHAuthenticator connects over SSH with password or key auth,
// depending on the secret type.
type SSHAuthenticator struct {
	Timeout        time.Duration
	CommandTimeout time.Duration
	Port           int
}

// Authenticate establishes an SSH connection using the provided secret
func (a *SSHAuthenticator) Authenticate(ctx context.Context, host string, secret *domain.Secret) (Session, error) {
	config, err := a.buildSSHConfig(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to build SSH config: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", host, a.Port)

	dialer := &net.Dialer{Timeout: a.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to establish SSH connection: %w", err)
	}

	return &sshSession{
		client:  ssh.NewClient(sshConn, chans, reqs),
		timeout: a.CommandTimeout,
	}, nil
}

// buildSSHConfig creates an SSH client config from a secret
func (a *SSHAuthenticator) buildSSHConfig(secret *domain.Secret) (*ssh.ClientConfig, error) {
	switch secret.Type {
	case domain.SecretTypeSSHKey:
		return a.buildSSHKeyConfig(secret)
	case domain.SecretTypeSSHPassword:
		return a.buildSSHPasswordConfig(secret)
	default:
		return nil, fmt.Errorf("unsupported secret type: %s", secret.Type)
	}
}

// buildSSHKeyConfig creates SSH config for key-based auth
func (a *SSHAuthenticator) buildSSHKeyConfig(secret *domain.Secret) (*ssh.ClientConfig, error) {
	username := secret.Data["username"]
	if username == "" {
		return nil, fmt.Errorf("username not found in SSH key secret")
	}

	privateKeyData := secret.Data["private_key"]
	if privateKeyData == "" {
		return nil, fmt.Errorf("private_key not found in SSH key secret")
	}

	passphrase := secret.Data["passphrase"]

	var signer ssh.Signer
	var err error

	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase([]byte(privateKeyData), []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey([]byte(privateKeyData))
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &ssh.ClientConfig{
		User: username,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         a.Timeout,
	}, nil
}

// buildSSHPasswordConfig creates SSH config for password auth
func (a *SSHAuthenticator) buildSSHPasswordConfig(secret *domain.Secret) (*ssh.ClientConfig, error) {
	username := secret.Data["username"]
	if username == "" {
		return nil, fmt.Errorf("username not found in SSH password secret")
	}

	password := secret.Data["password"]
	if password == "" {
		return nil, fmt.Errorf("password not found in SSH password secret")
	}

	return &ssh.ClientConfig{
		User: username,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         a.Timeout,
	}, nil
}

// sshSession wraps an ssh.Client as a command channel
type sshSession struct {
	client  *ssh.Client
	timeout time.Duration
}

// Run executes a command over SSH and returns the combined output.
// A non-zero exit status still returns the output; some platforms
// exit non-zero for informational commands.
func (s *sshSession) Run(cmd string) (string, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	done := make(chan error, 1)
	var output []byte

	go func() {
		output, err = session.CombinedOutput(cmd)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			if _, ok := err.(*ssh.ExitError); ok {
				return string(output), nil
			}
			return "", fmt.Errorf("command failed: %w", err)
		}
		return string(output), nil
	case <-time.After(s.timeout):
		session.Signal(ssh.SIGKILL)
		return "", fmt.Errorf("command timeout")
	}
}

func (s *sshSession) Close() error {
	return s.client.Close()
}
