// internal/mqtt/topics.go
package mqtt

import (
	"fmt"
	"strconv"
	"strings"
)

// Topics derives every topic from one prefix.
type Topics struct {
	Prefix string
}

func (t Topics) State() string        { return t.Prefix + "/state" }
func (t Topics) Status() string       { return t.Prefix + "/status" }
func (t Topics) Availability() string { return t.Prefix + "/availability" }
func (t Topics) Refresh() string      { return t.Prefix + "/refresh" }

// StatusField is the per-field status topic.
func (t Topics) StatusField(name string) string {
	return t.Prefix + "/status/" + name
}

// Subscriptions lists the command filters.
func (t Topics) Subscriptions() []string {
	return []string{
		t.Prefix + "/switch/+/set",
		t.Prefix + "/select/+/set",
		t.Prefix + "/counter/+/step/set",
		t.Prefix + "/counter/+/calibration/set",
		t.Refresh(),
	}
}

// ---- COMMANDS ----

// CommandKind classifies an inbound topic.
type CommandKind int

const (
	CmdUnknown CommandKind = iota
	CmdSwitch
	CmdSelect
	CmdCounterStep
	CmdCounterCalibration
	CmdRefresh
)

// Command is a parsed command topic.
type Command struct {
	Kind    CommandKind
	Key     string // switch or select key
	Counter int    // 1-based counter index
}

// Parse maps topic onto a Command.
func (t Topics) Parse(topic string) (Command, error) {
	if topic == t.Refresh() {
		return Command{Kind: CmdRefresh}, nil
	}

	rest, ok := strings.CutPrefix(topic, t.Prefix+"/")
	if !ok {
		return Command{}, fmt.Errorf("mqtt: topic %q outside prefix %q", topic, t.Prefix)
	}
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 3 && parts[0] == "switch" && parts[2] == "set":
		return Command{Kind: CmdSwitch, Key: parts[1]}, nil

	case len(parts) == 3 && parts[0] == "select" && parts[2] == "set":
		return Command{Kind: CmdSelect, Key: parts[1]}, nil

	case len(parts) == 4 && parts[0] == "counter" && parts[3] == "set":
		idx, err := strconv.Atoi(parts[1])
		if err != nil {
			return Command{}, fmt.Errorf("mqtt: counter index %q: %w", parts[1], err)
		}
		switch parts[2] {
		case "step":
			return Command{Kind: CmdCounterStep, Counter: idx}, nil
		case "calibration":
			return Command{Kind: CmdCounterCalibration, Counter: idx}, nil
		}
	}

	return Command{}, fmt.Errorf("mqtt: unknown command topic %q", topic)
}
