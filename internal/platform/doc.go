// Package platform holds the device capabilities the provisioning core calls
// into: the wireless radio, the primary indicator, the firmware slot, the
// sensors, restart and name advertisement.
//
// Each capability is a small interface with a Linux implementation and, where
// useful on a workstation, a simulated one. The core never touches hardware
// directly, which keeps the negotiation, OTA and command state machines
// testable without a network stack.
package platform
