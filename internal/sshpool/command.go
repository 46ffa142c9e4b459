package sshpool

import "fmt"

// CommandBuilder constructs SSH command arguments consistently across the
// pool. It ensures proper ordering of flags and handles optional
// parameters cleanly.
//
// Example usage:
//
//	b, err := sshpool.NewCommand("ssh://user@host:2222", "/tmp/control.sock")
//	args := b.WithControlOp("check").Build()
type CommandBuilder struct {
	host        string
	port        string
	controlPath string
	controlOp   string // check, exit
	remoteCmd   string
	extraFlags  []string
}

// NewCommand creates a builder for SSH commands against an established
// ControlMaster socket.
func NewCommand(sshURL, controlPath string) (*CommandBuilder, error) {
	host, port, err := ParseHost(sshURL)
	if err != nil {
		return nil, fmt.Errorf("invalid SSH URL: %w", err)
	}
	return &CommandBuilder{host: host, port: port, controlPath: controlPath}, nil
}

// WithControlOp adds a control operation (-O flag): check or exit.
func (b *CommandBuilder) WithControlOp(op string) *CommandBuilder {
	b.controlOp = op
	return b
}

// WithRemoteCommand sets the command to run on the remote host via the
// ControlMaster. This is the bulk of the pool's Execute/Stream traffic.
func (b *CommandBuilder) WithRemoteCommand(cmd string) *CommandBuilder {
	b.remoteCmd = cmd
	return b
}

// WithExtraFlags appends arbitrary SSH flags, used sparingly (e.g.
// -o BatchMode=yes for a liveness probe).
func (b *CommandBuilder) WithExtraFlags(flags ...string) *CommandBuilder {
	b.extraFlags = append(b.extraFlags, flags...)
	return b
}

// Build constructs the final SSH arguments array: -S <control> [-p <port>]
// [-O <op>] [extra] <host> [command].
func (b *CommandBuilder) Build() []string {
	args := make([]string, 0, 10)
	args = append(args, "-S", b.controlPath)

	if b.port != "" {
		args = append(args, "-p", b.port)
	}
	if b.controlOp != "" {
		args = append(args, "-O", b.controlOp)
	}
	args = append(args, b.extraFlags...)
	args = append(args, b.host)

	if b.remoteCmd != "" {
		args = append(args, b.remoteCmd)
	}
	return args
}
