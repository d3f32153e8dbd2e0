package notification

import "fmt"

// Category identifies the set of action buttons a delivered notification offers.
type Category string

// Built-in categories.
const (
	CategoryBasic        Category = "BASIC"
	CategoryInteractive  Category = "INTERACTIVE"
	CategoryQuickActions Category = "QUICK_ACTIONS"
	CategoryReminder     Category = "REMINDER"
)

// Categories lists every built-in category.
var Categories = []Category{CategoryBasic, CategoryInteractive, CategoryQuickActions, CategoryReminder}

// ParseCategory converts a string into a Category. An empty string yields CategoryBasic.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryBasic, nil
	}
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Action identifiers invoked on delivered notifications.
const (
	ActionReply    = "REPLY_ACTION"
	ActionOpen     = "OPEN_ACTION"
	ActionDismiss  = "DISMISS_ACTION"
	ActionMarkRead = "MARK_READ_ACTION"
	ActionSnooze   = "SNOOZE_ACTION"

	// ActionDefault is reported when the notification itself is tapped.
	ActionDefault = "DEFAULT_ACTION"
	// ActionDismissed is reported when the notification is swiped away.
	ActionDismissed = "DISMISSED"
)

// Action is a button offered by a category.
type Action struct {
	ID               string `json:"id" yaml:"id"`
	Title            string `json:"title" yaml:"title"`
	Foreground       bool   `json:"foreground,omitempty" yaml:"foreground,omitempty"`
	Destructive      bool   `json:"destructive,omitempty" yaml:"destructive,omitempty"`
	TextInput        bool   `json:"text_input,omitempty" yaml:"text_input,omitempty"`
	InputButtonTitle string `json:"input_button_title,omitempty" yaml:"input_button_title,omitempty"`
	InputPlaceholder string `json:"input_placeholder,omitempty" yaml:"input_placeholder,omitempty"`
}

// CategoryDefinition binds a category to its actions.
type CategoryDefinition struct {
	ID                  Category `json:"id" yaml:"id"`
	Title               string   `json:"title" yaml:"title"`
	Description         string   `json:"description" yaml:"description"`
	Actions             []Action `json:"actions" yaml:"actions"`
	CustomDismissAction bool     `json:"custom_dismiss_action,omitempty" yaml:"custom_dismiss_action,omitempty"`
}

// Offers reports whether the category exposes the action. The default and
// dismissed pseudo-actions are always available.
func (d CategoryDefinition) Offers(actionID string) bool {
	if actionID == ActionDefault || actionID == ActionDismissed {
		return true
	}
	for _, a := range d.Actions {
		if a.ID == actionID {
			return true
		}
	}
	return false
}

// DefaultCategories returns the built-in category definitions.
func DefaultCategories() []CategoryDefinition {
	reply := Action{
		ID:               ActionReply,
		Title:            "Reply",
		TextInput:        true,
		InputButtonTitle: "Send",
		InputPlaceholder: "Type your reply...",
	}
	open := Action{ID: ActionOpen, Title: "Open App", Foreground: true}
	dismiss := Action{ID: ActionDismiss, Title: "Dismiss", Destructive: true}
	markRead := Action{ID: ActionMarkRead, Title: "Mark as Read"}
	snooze := Action{ID: ActionSnooze, Title: "Snooze (5 min)"}

	return []CategoryDefinition{
		{
			ID:          CategoryBasic,
			Title:       "Basic",
			Description: "Open and Dismiss buttons",
			Actions:     []Action{open, dismiss},
		},
		{
			ID:                  CategoryInteractive,
			Title:               "Interactive (with Reply)",
			Description:         "Reply, Open, and Dismiss buttons",
			Actions:             []Action{reply, open, dismiss},
			CustomDismissAction: true,
		},
		{
			ID:          CategoryQuickActions,
			Title:       "Quick Actions",
			Description: "Mark Read, Snooze, and Dismiss",
			Actions:     []Action{markRead, snooze, dismiss},
		},
		{
			ID:          CategoryReminder,
			Title:       "Reminder",
			Description: "Snooze, Mark Read, and Dismiss",
			Actions:     []Action{snooze, markRead, dismiss},
		},
	}
}
