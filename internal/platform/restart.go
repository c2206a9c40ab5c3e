package platform

import (
	"context"
	"os"
	"os/exec"
	"time"
)

// Restarter performs a full device restart. It does not return on success.
type Restarter interface {
	Restart(reason string)
}

// ExitCodeRestart is the status the agent exits with when it wants its
// supervisor (systemd Restart=always, s6, ...) to start it again.
const ExitCodeRestart = 3

const rebootCommandTimeout = 10 * time.Second

// ProcessRestarter restarts by exiting the process (mode "exit") or by
// rebooting the host (mode "reboot"). BeforeExit runs first, e.g. to flush
// the logger and close the database.
type ProcessRestarter struct {
	Reboot     bool
	BeforeExit func(reason string)

	exit    func(code int)
	command func(ctx context.Context) error
}

func NewProcessRestarter(reboot bool, beforeExit func(reason string)) *ProcessRestarter {
	return &ProcessRestarter{
		Reboot:     reboot,
		BeforeExit: beforeExit,
		exit:       os.Exit,
		command: func(ctx context.Context) error {
			return exec.CommandContext(ctx, "systemctl", "reboot").Run()
		},
	}
}

func (r *ProcessRestarter) Restart(reason string) {
	if r.BeforeExit != nil {
		r.BeforeExit(reason)
	}
	if r.Reboot {
		ctx, cancel := context.WithTimeout(context.Background(), rebootCommandTimeout)
		err := r.command(ctx)
		cancel()
		if err == nil {
			// systemd will stop us; keep the process alive until it does
			time.Sleep(rebootCommandTimeout)
		}
	}
	r.exit(ExitCodeRestart)
}
