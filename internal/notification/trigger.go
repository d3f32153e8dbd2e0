package notification

import (
	"errors"
	"fmt"
	"time"
)

// MinRepeatInterval is the shortest interval a repeating After trigger may use.
const MinRepeatInterval = 60 * time.Second

// Trigger controls when a submitted request is delivered. It is a closed set:
// Immediate, At and After are the only implementations.
type Trigger interface {
	// Repeats reports whether the trigger fires more than once.
	Repeats() bool
	isTrigger()
}

// Immediate delivers as soon as the request is accepted.
type Immediate struct{}

// At delivers at an absolute date. When Repeat is set the date's calendar
// fields (month, day, hour, minute, second) are matched on every recurrence.
type At struct {
	Date   time.Time
	Repeat bool
}

// After delivers once Delay has elapsed from submission. When Repeat is set
// it fires every Delay thereafter.
type After struct {
	Delay  time.Duration
	Repeat bool
}

// Repeats implements Trigger.
func (Immediate) Repeats() bool { return false }

// Repeats implements Trigger.
func (t At) Repeats() bool { return t.Repeat }

// Repeats implements Trigger.
func (t After) Repeats() bool { return t.Repeat }

func (Immediate) isTrigger() {}
func (At) isTrigger()        {}
func (After) isTrigger()     {}

// Trigger kinds used by TriggerSpec.
const (
	KindImmediate = "immediate"
	KindAt        = "at"
	KindAfter     = "after"
)

// TriggerSpec is the wire and storage encoding of a Trigger.
type TriggerSpec struct {
	Kind         string     `json:"kind"`
	Date         *time.Time `json:"date,omitempty"`
	DelaySeconds float64    `json:"delay_seconds,omitempty"`
	Repeats      bool       `json:"repeats"`
}

// EncodeTrigger converts t into its TriggerSpec. A nil trigger encodes as Immediate.
func EncodeTrigger(t Trigger) TriggerSpec {
	switch v := t.(type) {
	case At:
		d := v.Date
		return TriggerSpec{Kind: KindAt, Date: &d, Repeats: v.Repeat}
	case After:
		return TriggerSpec{Kind: KindAfter, DelaySeconds: v.Delay.Seconds(), Repeats: v.Repeat}
	default:
		return TriggerSpec{Kind: KindImmediate}
	}
}

// DecodeTrigger converts a TriggerSpec back into a Trigger.
func DecodeTrigger(s TriggerSpec) (Trigger, error) {
	switch s.Kind {
	case KindImmediate, "":
		return Immediate{}, nil
	case KindAt:
		if s.Date == nil {
			return nil, errors.New("at trigger requires a date")
		}
		return At{Date: *s.Date, Repeat: s.Repeats}, nil
	case KindAfter:
		return After{Delay: time.Duration(s.DelaySeconds * float64(time.Second)), Repeat: s.Repeats}, nil
	}
	return nil, fmt.Errorf("unknown trigger kind %q", s.Kind)
}

// ValidateTrigger applies the rules the notification center enforces on
// submission. now is the submission time.
func ValidateTrigger(t Trigger, now time.Time) error {
	switch v := t.(type) {
	case nil, Immediate:
		return nil
	case At:
		if v.Date.IsZero() {
			return errors.New("at trigger requires a date")
		}
		if !v.Repeat && !v.Date.After(now) {
			return fmt.Errorf("trigger date %s is not in the future", v.Date.Format(time.RFC3339))
		}
		return nil
	case After:
		if v.Delay <= 0 {
			return fmt.Errorf("time interval must be greater than 0, got %s", v.Delay)
		}
		if v.Repeat && v.Delay < MinRepeatInterval {
			return fmt.Errorf("time interval must be at least %s if repeating, got %s", MinRepeatInterval, v.Delay)
		}
		return nil
	}
	return fmt.Errorf("unsupported trigger %T", t)
}

// FireTime returns the first delivery time of t for a request submitted at
// submittedAt. Immediate triggers fire at submittedAt.
func FireTime(t Trigger, submittedAt time.Time) time.Time {
	switch v := t.(type) {
	case At:
		return v.Date
	case After:
		return submittedAt.Add(v.Delay)
	default:
		return submittedAt
	}
}
