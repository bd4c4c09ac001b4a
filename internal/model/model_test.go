package model

import "testing"

func TestRecordEqualIgnoresIcon(t *testing.T) {
	a := Record{Name: "Safari", User: "me", PID: 1, Port: 443, Protocol: TCP, IPVersion: IPv4, State: StateEstablished, FD: "10u", Icon: "/Applications/Safari.app"}
	b := a
	b.Icon = ""
	if !a.Equal(b) {
		t.Fatalf("records differing only in icon should be equal")
	}
	b.State = StateNone
	if a.Equal(b) {
		t.Fatalf("records with different state should not be equal")
	}
}

func TestKeyString(t *testing.T) {
	r := Record{PID: 99, Port: 8080, FD: "10u", Protocol: UDP, Name: "x", State: StateListen}
	if r.Key() != (Key{PID: 99, Port: 8080, FD: "10u", Protocol: UDP}) {
		t.Fatalf("unexpected key %+v", r.Key())
	}
	if r.Key().String() != "99:8080:10u:UDP" {
		t.Fatalf("unexpected key string %q", r.Key().String())
	}
}

func TestParseEnums(t *testing.T) {
	if p, ok := ParseProtocol("udp"); !ok || p != UDP {
		t.Fatalf("expected udp to upper-case into UDP, got %q ok=%v", p, ok)
	}
	if _, ok := ParseProtocol("XYZ"); ok {
		t.Fatalf("expected XYZ to be rejected")
	}
	if _, ok := ParseIPVersion("ipv4"); ok {
		t.Fatalf("ip version match must be case-exact")
	}
	if ParseTCPState("(LISTEN)") != StateListen {
		t.Fatalf("expected LISTEN")
	}
	if ParseTCPState("(listen)") != StateNone {
		t.Fatalf("state match must be case-exact")
	}
	if ParseTCPState("(WHATEVER)") != StateNone {
		t.Fatalf("unknown state should yield none")
	}
}
