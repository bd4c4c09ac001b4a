package model

import (
	"fmt"
	"strings"
)

type Protocol string

const (
	TCP Protocol = "TCP"
	UDP Protocol = "UDP"
)

// ParseProtocol matches an lsof NODE column after upper-casing it.
func ParseProtocol(s string) (Protocol, bool) {
	switch Protocol(strings.ToUpper(s)) {
	case TCP:
		return TCP, true
	case UDP:
		return UDP, true
	}
	return "", false
}

type IPVersion string

const (
	IPv4 IPVersion = "IPv4"
	IPv6 IPVersion = "IPv6"
)

// ParseIPVersion is case-exact: lsof prints "IPv4"/"IPv6" in the TYPE column.
func ParseIPVersion(s string) (IPVersion, bool) {
	switch IPVersion(s) {
	case IPv4:
		return IPv4, true
	case IPv6:
		return IPv6, true
	}
	return "", false
}

// TCPState is the parenthesized state lsof prints after a TCP address.
// The zero value means no state was reported, which is not the same as CLOSED.
type TCPState string

const (
	StateNone        TCPState = ""
	StateListen      TCPState = "LISTEN"
	StateEstablished TCPState = "ESTABLISHED"
	StateClosed      TCPState = "CLOSED"
	StateSynSent     TCPState = "SYN_SENT"
	StateSynReceived TCPState = "SYN_RECEIVED"
	StateCloseWait   TCPState = "CLOSE_WAIT"
	StateFinWait1    TCPState = "FIN_WAIT_1"
	StateFinWait2    TCPState = "FIN_WAIT_2"
	StateClosing     TCPState = "CLOSING"
	StateLastAck     TCPState = "LAST_ACK"
	StateTimeWait    TCPState = "TIME_WAIT"
	StateBound       TCPState = "BOUND"
	StateIdle        TCPState = "IDLE"
)

var knownStates = map[TCPState]bool{
	StateListen:      true,
	StateEstablished: true,
	StateClosed:      true,
	StateSynSent:     true,
	StateSynReceived: true,
	StateCloseWait:   true,
	StateFinWait1:    true,
	StateFinWait2:    true,
	StateClosing:     true,
	StateLastAck:     true,
	StateTimeWait:    true,
	StateBound:       true,
	StateIdle:        true,
}

// ParseTCPState strips the surrounding parentheses and matches exactly.
// Unknown tokens yield StateNone.
func ParseTCPState(s string) TCPState {
	s = strings.NewReplacer("(", "", ")", "").Replace(s)
	if st := TCPState(s); knownStates[st] {
		return st
	}
	return StateNone
}

// Record is one open network endpoint owned by a process.
type Record struct {
	Name      string    `json:"name"`
	User      string    `json:"user"`
	PID       int       `json:"pid"`
	Port      int       `json:"port"`
	Protocol  Protocol  `json:"protocol"`
	IPVersion IPVersion `json:"ip_version"`
	State     TCPState  `json:"state,omitempty"`
	FD        string    `json:"fd"`

	// Icon is a best-effort handle to the owning application's image
	// (bundle or executable path). It never takes part in equality.
	Icon string `json:"icon,omitempty"`
}

// Key addresses a specific row.
type Key struct {
	PID      int
	Port     int
	FD       string
	Protocol Protocol
}

func (k Key) String() string {
	return fmt.Sprintf("%d:%d:%s:%s", k.PID, k.Port, k.FD, k.Protocol)
}

func (r Record) Key() Key {
	return Key{PID: r.PID, Port: r.Port, FD: r.FD, Protocol: r.Protocol}
}

// Equal compares every field except Icon.
func (r Record) Equal(o Record) bool {
	return r.Fingerprint() == o.Fingerprint()
}

// Fingerprint is the record with Icon cleared, usable as a map key for
// structural comparisons.
func (r Record) Fingerprint() Record {
	r.Icon = ""
	return r
}
