// Package monitor parses the status lines the firmware prints once per tick.
package monitor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"stopwatch/core"
)

// ErrNotStatus is returned by ParseStatus for lines that are not status lines
var ErrNotStatus = errors.New("not a status line")

// Status is one decoded status line
type Status struct {
	Time    core.Digits
	Running bool
	Ticks   uint32
}

// ParseStatus decodes "SW t=HH:MM:SS run=1 n=42"
func ParseStatus(line string) (Status, error) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) != 4 || fields[0] != "SW" {
		return Status{}, ErrNotStatus
	}

	var st Status
	for _, f := range fields[1:] {
		key, value, ok := strings.Cut(f, "=")
		if !ok {
			return Status{}, fmt.Errorf("%w: field %q", ErrNotStatus, f)
		}
		switch key {
		case "t":
			d, err := parseDigits(value)
			if err != nil {
				return Status{}, err
			}
			st.Time = d
		case "run":
			st.Running = value == "1"
		case "n":
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return Status{}, fmt.Errorf("%w: tick count %q", ErrNotStatus, value)
			}
			st.Ticks = uint32(n)
		default:
			return Status{}, fmt.Errorf("%w: unknown field %q", ErrNotStatus, key)
		}
	}
	return st, nil
}

func parseDigits(s string) (core.Digits, error) {
	var d core.Digits
	if len(s) != 8 || s[2] != ':' || s[5] != ':' {
		return d, fmt.Errorf("%w: time %q", ErrNotStatus, s)
	}
	order := []struct {
		idx int
		pos int
	}{
		{0, core.HoursTens}, {1, core.HoursOnes},
		{3, core.MinutesTens}, {4, core.MinutesOnes},
		{6, core.SecondsTens}, {7, core.SecondsOnes},
	}
	for _, o := range order {
		c := s[o.idx]
		if c < '0' || c > '9' {
			return d, fmt.Errorf("%w: time %q", ErrNotStatus, s)
		}
		d[o.pos] = c - '0'
	}
	if !d.Valid() {
		return d, fmt.Errorf("%w: time %q out of range", ErrNotStatus, s)
	}
	return d, nil
}

// Monitor reads firmware console output line by line
type Monitor struct {
	r io.Reader

	// OnStatus receives every decoded status line
	OnStatus func(Status)
	// OnLine receives every other line (timing dumps, display errors)
	OnLine func(string)
}

// New creates a monitor reading from r
func New(r io.Reader) *Monitor {
	return &Monitor{r: r}
}

// Run reads until EOF, a read error, or ctx is cancelled. Cancellation is
// noticed between lines; close the reader to interrupt a blocked read.
func (m *Monitor) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(m.r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		st, err := ParseStatus(line)
		if err == nil {
			if m.OnStatus != nil {
				m.OnStatus(st)
			}
			continue
		}
		if m.OnLine != nil {
			m.OnLine(line)
		}
	}
	return scanner.Err()
}
