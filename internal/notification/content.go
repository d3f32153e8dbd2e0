// Package notification defines the value types that describe a local
// notification: its content, when it should be delivered, and the records the
// notification center keeps for pending requests and delivered notifications.
//
// All types in this package are plain values. They carry no behavior beyond
// construction, normalization and encoding, and are safe to copy.
package notification

import (
	"fmt"
	"maps"
	"math"
	"time"
)

// DefaultRelevanceScore is used when a caller does not supply a score.
const DefaultRelevanceScore = 0.5

// Sound selects the sound played on delivery.
type Sound string

// Supported sounds.
const (
	SoundDefault    Sound = "default"
	SoundNone       Sound = "none"
	SoundTritone    Sound = "tritone"
	SoundChime      Sound = "chime"
	SoundGlass      Sound = "glass"
	SoundHorn       Sound = "horn"
	SoundBell       Sound = "bell"
	SoundElectronic Sound = "electronic"
)

// Sounds lists every supported sound in display order.
var Sounds = []Sound{
	SoundDefault, SoundNone, SoundTritone, SoundChime,
	SoundGlass, SoundHorn, SoundBell, SoundElectronic,
}

// ParseSound converts a string into a Sound. An empty string yields SoundDefault.
func ParseSound(s string) (Sound, error) {
	if s == "" {
		return SoundDefault, nil
	}
	for _, v := range Sounds {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown sound %q", s)
}

// DisplayName returns a human readable label.
func (s Sound) DisplayName() string {
	switch s {
	case SoundDefault:
		return "Default"
	case SoundNone:
		return "None (Silent)"
	case SoundTritone:
		return "Tri-tone"
	case SoundChime:
		return "Chime"
	case SoundGlass:
		return "Glass"
	case SoundHorn:
		return "Horn"
	case SoundBell:
		return "Bell"
	case SoundElectronic:
		return "Electronic"
	}
	return string(s)
}

// FileName returns the sound resource played on delivery. The default sound
// returns an empty name (system default) and SoundNone reports silent=true.
func (s Sound) FileName() (name string, silent bool) {
	switch s {
	case SoundNone:
		return "", true
	case SoundTritone:
		return "tri-tone.caf", false
	case SoundChime, SoundGlass, SoundHorn, SoundBell, SoundElectronic:
		return string(s) + ".caf", false
	}
	return "", false
}

// Urgency is the interruption level of a notification.
type Urgency string

// Supported urgency levels.
const (
	UrgencyPassive       Urgency = "passive"
	UrgencyActive        Urgency = "active"
	UrgencyTimeSensitive Urgency = "timeSensitive"
	UrgencyCritical      Urgency = "critical"
)

// Urgencies lists every urgency level from least to most interruptive.
var Urgencies = []Urgency{UrgencyPassive, UrgencyActive, UrgencyTimeSensitive, UrgencyCritical}

// ParseUrgency converts a string into an Urgency. An empty string yields UrgencyActive.
func ParseUrgency(s string) (Urgency, error) {
	if s == "" {
		return UrgencyActive, nil
	}
	for _, v := range Urgencies {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown urgency %q", s)
}

// DisplayName returns a human readable label.
func (u Urgency) DisplayName() string {
	switch u {
	case UrgencyPassive:
		return "Passive (Silent)"
	case UrgencyActive:
		return "Active (Normal)"
	case UrgencyTimeSensitive:
		return "Time Sensitive"
	case UrgencyCritical:
		return "Critical"
	}
	return string(u)
}

// Description explains how the level interacts with focus modes.
func (u Urgency) Description() string {
	switch u {
	case UrgencyPassive:
		return "Delivered quietly, no sound or vibration"
	case UrgencyActive:
		return "Normal notification with sound"
	case UrgencyTimeSensitive:
		return "Breaks through Focus modes"
	case UrgencyCritical:
		return "Bypasses all settings (requires entitlement)"
	}
	return ""
}

// Metadata holds system-owned fields separately from caller-supplied keys.
type Metadata struct {
	CreatedAt time.Time         `json:"created_at"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// Content describes what a notification shows. Empty Subtitle and ThreadID
// mean the field is absent; a nil Badge leaves the badge untouched.
type Content struct {
	Title          string      `json:"title"`
	Body           string      `json:"body"`
	Subtitle       string      `json:"subtitle,omitempty"`
	Badge          *int        `json:"badge,omitempty"`
	Sound          Sound       `json:"sound"`
	ImageURL       string      `json:"image_url,omitempty"`
	ThreadID       string      `json:"thread_id,omitempty"`
	Category       Category    `json:"category"`
	Urgency        Urgency     `json:"urgency"`
	RelevanceScore float64     `json:"relevance_score"`
	Attachment     *Attachment `json:"attachment,omitempty"`
	Metadata       Metadata    `json:"metadata"`
}

// ContentInput is the caller-facing description of content. Zero values
// select defaults: SoundDefault, CategoryBasic, UrgencyActive and a relevance
// of DefaultRelevanceScore when RelevanceScore is nil.
type ContentInput struct {
	Title          string
	Body           string
	Subtitle       *string
	Badge          *int
	Sound          Sound
	ImageURL       *string
	ThreadID       *string
	Category       Category
	Urgency        Urgency
	RelevanceScore *float64
	UserInfo       map[string]string
}

// NewContent builds normalized content. createdAt is stamped into the
// metadata and is never taken from the caller's UserInfo.
func NewContent(in ContentInput, createdAt time.Time) Content {
	c := Content{
		Title:          in.Title,
		Body:           in.Body,
		Subtitle:       deref(in.Subtitle),
		Sound:          in.Sound,
		ImageURL:       deref(in.ImageURL),
		ThreadID:       deref(in.ThreadID),
		Category:       in.Category,
		Urgency:        in.Urgency,
		RelevanceScore: DefaultRelevanceScore,
		Metadata:       Metadata{CreatedAt: createdAt},
	}
	if in.Badge != nil {
		b := *in.Badge
		c.Badge = &b
	}
	if c.Sound == "" {
		c.Sound = SoundDefault
	}
	if c.Category == "" {
		c.Category = CategoryBasic
	}
	if c.Urgency == "" {
		c.Urgency = UrgencyActive
	}
	if in.RelevanceScore != nil {
		c.RelevanceScore = ClampRelevance(*in.RelevanceScore)
	}
	if len(in.UserInfo) > 0 {
		c.Metadata.Extra = maps.Clone(in.UserInfo)
	}
	return c
}

// ClampRelevance bounds a relevance score to [0, 1]. NaN maps to 0.
func ClampRelevance(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	return min(max(score, 0), 1)
}

// Clone returns a deep copy of c.
func (c Content) Clone() Content {
	out := c
	if c.Badge != nil {
		b := *c.Badge
		out.Badge = &b
	}
	if c.Attachment != nil {
		a := *c.Attachment
		out.Attachment = &a
	}
	out.Metadata.Extra = maps.Clone(c.Metadata.Extra)
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
