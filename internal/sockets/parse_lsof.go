package sockets

import (
	"strconv"
	"strings"

	"github.com/pratik-anurag/porter/internal/model"
	"github.com/pratik-anurag/porter/internal/proc"
)

// lsof -i -n -P
// COMMAND   PID USER   FD   TYPE DEVICE SIZE/OFF NODE NAME
// postgres 8123 me     6u   IPv6 0x...  0t0      TCP  [::1]:5432 (LISTEN)
const (
	colCmd   = 0
	colPID   = 1
	colUser  = 2
	colFD    = 3
	colType  = 4
	colNode  = 7
	colName  = 8
	colState = 9

	minColumns = 9
)

type lsofLine struct {
	cmd   string
	pid   int
	user  string
	fd    string
	ipVer model.IPVersion
	proto model.Protocol
	port  int
	state model.TCPState
}

// ParseLsof turns `lsof -i -n -P` output into records. The first line is
// always treated as the header. Lines that cannot be understood are skipped;
// the call itself never fails. icons may be nil.
func ParseLsof(raw string, icons proc.IconResolver) []model.Record {
	lines := strings.Split(raw, "\n")
	if len(lines) < 2 {
		return nil
	}

	var out []model.Record
	for _, line := range lines[1:] {
		parsed, ok := parseLsofLine(line)
		if !ok {
			continue
		}
		rec := model.Record{
			Name:      parsed.cmd,
			User:      parsed.user,
			PID:       parsed.pid,
			Port:      parsed.port,
			Protocol:  parsed.proto,
			IPVersion: parsed.ipVer,
			State:     parsed.state,
			FD:        parsed.fd,
		}
		if icons != nil {
			rec.Icon = icons.Icon(parsed.pid)
		}
		out = append(out, rec)
	}
	return out
}

func parseLsofLine(line string) (lsofLine, bool) {
	cols := strings.Fields(line)
	if len(cols) < minColumns {
		return lsofLine{}, false
	}

	ipVer, ok := model.ParseIPVersion(cols[colType])
	if !ok {
		return lsofLine{}, false
	}
	proto, ok := model.ParseProtocol(cols[colNode])
	if !ok {
		return lsofLine{}, false
	}
	port, ok := parseLsofPort(cols[colName])
	if !ok {
		return lsofLine{}, false
	}

	// A bad pid does not drop the row; -1 marks it.
	pid, err := strconv.Atoi(cols[colPID])
	if err != nil {
		pid = -1
	}

	state := model.StateNone
	if len(cols) > colState {
		state = model.ParseTCPState(cols[colState])
	}

	return lsofLine{
		cmd:   cols[colCmd],
		pid:   pid,
		user:  cols[colUser],
		fd:    cols[colFD],
		ipVer: ipVer,
		proto: proto,
		port:  port,
		state: state,
	}, true
}

// parseLsofPort returns the local port of an lsof NAME column:
//
//	*:7000
//	127.0.0.1:7000
//	[2a04:4e42:42::396]:7000
//	[fe80::1]:7000->[2a04:4e42:42::396]:443
//
// Wildcard ports (*:*) are rejected.
func parseLsofPort(addr string) (int, bool) {
	if i := strings.Index(addr, "->"); i >= 0 {
		addr = addr[:i]
	}
	i := strings.LastIndex(addr, ":")
	if i < 0 {
		return 0, false
	}
	p := addr[i+1:]
	if j := strings.IndexByte(p, ' '); j >= 0 {
		p = p[:j]
	}
	port, err := strconv.Atoi(p)
	if err != nil || port < 0 || port > 65535 {
		return 0, false
	}
	return port, true
}
