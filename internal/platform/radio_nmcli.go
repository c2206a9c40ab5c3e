package platform

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const apConnectionName = "provisioner-ap"

// Default per-call bounds. A wedged NetworkManager must not hold the
// caller, which is the run loop for status reads.
const (
	defaultQueryTimeout   = 2 * time.Second
	defaultCommandTimeout = 10 * time.Second

	// nmcli's children may keep stdout open after it is killed
	nmcliWaitDelay = 500 * time.Millisecond
)

// NmcliRadio drives a Linux wireless interface through NetworkManager.
type NmcliRadio struct {
	Interface string

	// QueryTimeout bounds state and signal reads, CommandTimeout bounds
	// connect and access point setup. Zero selects the default.
	QueryTimeout   time.Duration
	CommandTimeout time.Duration

	// run executes nmcli; replaced in tests.
	run func(ctx context.Context, args ...string) ([]byte, error)
}

func NewNmcliRadio(iface string) *NmcliRadio {
	return &NmcliRadio{Interface: iface, run: runNmcli}
}

func runNmcli(ctx context.Context, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "nmcli", args...)
	cmd.Stderr = &stderr
	cmd.WaitDelay = nmcliWaitDelay
	out, err := cmd.Output()
	if err != nil {
		return out, fmt.Errorf("nmcli %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

func (r *NmcliRadio) query(ctx context.Context, args ...string) ([]byte, error) {
	return r.runWithin(ctx, r.QueryTimeout, defaultQueryTimeout, args...)
}

func (r *NmcliRadio) command(ctx context.Context, args ...string) ([]byte, error) {
	return r.runWithin(ctx, r.CommandTimeout, defaultCommandTimeout, args...)
}

func (r *NmcliRadio) runWithin(ctx context.Context, d, def time.Duration, args ...string) ([]byte, error) {
	if d <= 0 {
		d = def
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return r.run(ctx, args...)
}

func (r *NmcliRadio) BeginJoin(ctx context.Context, ssid, pass string) error {
	args := []string{"--wait", "0", "device", "wifi", "connect", ssid}
	if pass != "" {
		args = append(args, "password", pass)
	}
	args = append(args, "ifname", r.Interface)
	_, err := r.command(ctx, args...)
	return err
}

func (r *NmcliRadio) Joined(ctx context.Context) bool {
	out, err := r.query(ctx, "-t", "-f", "GENERAL.STATE", "device", "show", r.Interface)
	if err != nil {
		return false
	}
	// GENERAL.STATE:100 (connected)
	return strings.Contains(string(out), ":100")
}

func (r *NmcliRadio) StartAP(ctx context.Context, ssid, pass string) error {
	// a stale profile from a previous boot is fine to lose
	_, _ = r.command(ctx, "connection", "delete", apConnectionName)

	args := []string{
		"connection", "add", "type", "wifi", "ifname", r.Interface,
		"con-name", apConnectionName, "autoconnect", "no", "ssid", ssid,
		"802-11-wireless.mode", "ap", "ipv4.method", "shared",
	}
	if pass != "" {
		args = append(args, "wifi-sec.key-mgmt", "wpa-psk", "wifi-sec.psk", pass)
	}
	if _, err := r.command(ctx, args...); err != nil {
		return err
	}
	_, err := r.command(ctx, "connection", "up", apConnectionName)
	return err
}

func (r *NmcliRadio) Address() string {
	iface, err := net.InterfaceByName(r.Interface)
	if err != nil {
		return "0.0.0.0"
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return "0.0.0.0"
	}
	for _, a := range addrs {
		if ipn, ok := a.(*net.IPNet); ok && ipn.IP.To4() != nil {
			return ipn.IP.String()
		}
	}
	return "0.0.0.0"
}

func (r *NmcliRadio) SignalStrength(ctx context.Context) int {
	out, err := r.query(ctx, "-t", "-f", "IN-USE,SIGNAL", "device", "wifi", "list", "ifname", r.Interface, "--rescan", "no")
	if err != nil {
		return 0
	}
	return parseActiveSignal(string(out))
}

// parseActiveSignal picks the in-use row ("*:72") and maps NetworkManager's
// 0-100 quality to dBm the way NM derives quality from RSSI.
func parseActiveSignal(out string) int {
	for _, line := range strings.Split(out, "\n") {
		inUse, quality, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok || inUse != "*" {
			continue
		}
		q, err := strconv.Atoi(quality)
		if err != nil {
			return 0
		}
		return q/2 - 100
	}
	return 0
}
