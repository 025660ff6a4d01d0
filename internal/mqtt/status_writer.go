// internal/mqtt/status_writer.go
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/titovskiy/NeptunSmart/internal/status"
)

// Publisher is the delivery-only contract of the broker connection.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// StatusWriter delivers status snapshots to the broker.
// The first write (and the first after any failure) publishes the full
// document; afterwards only changed fields are published.
type StatusWriter struct {
	pub    Publisher
	topics Topics
	qos    byte

	needFull bool
	last     status.Snapshot
}

func NewStatusWriter(pub Publisher, topics Topics, qos byte) *StatusWriter {
	return &StatusWriter{
		pub:      pub,
		topics:   topics,
		qos:      qos,
		needFull: true, // full re-assert on first successful write
		last:     status.Snapshot{Health: status.HealthUnknown},
	}
}

// WriteStatus publishes s. Unchanged snapshots publish nothing.
func (sw *StatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil || sw.pub == nil {
		return errors.New("status writer: disabled")
	}

	// ------------------------------------------------------------
	// Full document (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		if err := sw.full(s); err != nil {
			sw.needFull = true
			return fmt.Errorf("status writer: full publish failed: %w", err)
		}
		sw.needFull = false
		sw.last = s
		return nil
	}

	if s == sw.last {
		return nil
	}

	var errs []string

	if err := sw.publish(sw.topics.Status(), s); err != nil {
		errs = append(errs, fmt.Sprintf("document: %v", err))
	}

	if sw.last.Health != s.Health {
		if err := sw.field("health", status.HealthName(s.Health)); err != nil {
			errs = append(errs, fmt.Sprintf("health: %v", err))
		}
	}
	if sw.last.LastErrorCode != s.LastErrorCode {
		if err := sw.field("last_error_code", strconv.Itoa(int(s.LastErrorCode))); err != nil {
			errs = append(errs, fmt.Sprintf("last_error_code: %v", err))
		}
	}
	if sw.last.SecondsInError != s.SecondsInError {
		if err := sw.field("seconds_in_error", strconv.Itoa(int(s.SecondsInError))); err != nil {
			errs = append(errs, fmt.Sprintf("seconds_in_error: %v", err))
		}
	}

	if len(errs) > 0 {
		// partial failure: re-assert everything on the next write
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	sw.last = s
	return nil
}

func (sw *StatusWriter) full(s status.Snapshot) error {
	if err := sw.publish(sw.topics.Status(), s); err != nil {
		return err
	}
	if err := sw.field("health", status.HealthName(s.Health)); err != nil {
		return err
	}
	if err := sw.field("last_error_code", strconv.Itoa(int(s.LastErrorCode))); err != nil {
		return err
	}
	return sw.field("seconds_in_error", strconv.Itoa(int(s.SecondsInError)))
}

func (sw *StatusWriter) publish(topic string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return sw.pub.Publish(topic, sw.qos, true, b)
}

func (sw *StatusWriter) field(name, value string) error {
	return sw.pub.Publish(sw.topics.StatusField(name), sw.qos, true, []byte(value))
}
