package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ExecutionMode decides how runnable failures surface: synchronous actions
// propagate errors to the caller, fire-and-forget actions only reach the
// log sink.
type ExecutionMode int

const (
	ModeSync ExecutionMode = iota
	ModeFireAndForget
)

func (m *ExecutionMode) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	switch raw {
	case "", "sync":
		*m = ModeSync
	case "fire-and-forget":
		*m = ModeFireAndForget
	default:
		return fmt.Errorf("unknown execution mode %q", raw)
	}
	return nil
}

// ActionConfig is a closed sum over the three supported action kinds so that
// dispatch stays an exhaustive type switch.
type ActionConfig interface {
	actionConfig()
}

type SetCookieAction struct {
	Name          string     `json:"name" yaml:"name"`
	URL           string     `json:"url,omitempty" yaml:"url,omitempty"`
	UseRequestURL bool       `json:"useRequestUrl,omitempty" yaml:"useRequestUrl,omitempty"`
	Source        DataSource `json:"source" yaml:"source"`
	Expires       string     `json:"expires,omitempty" yaml:"expires,omitempty"`
	HostOnly      bool       `json:"hostOnly,omitempty" yaml:"hostOnly,omitempty"`
	HTTPOnly      bool       `json:"httpOnly,omitempty" yaml:"httpOnly,omitempty"`
	Secure        bool       `json:"secure,omitempty" yaml:"secure,omitempty"`
	Session       bool       `json:"session,omitempty" yaml:"session,omitempty"`
}

type DeleteCookieAction struct {
	Name          string `json:"name,omitempty" yaml:"name,omitempty"`
	URL           string `json:"url,omitempty" yaml:"url,omitempty"`
	UseRequestURL bool   `json:"useRequestUrl,omitempty" yaml:"useRequestUrl,omitempty"`
	RemoveAll     bool   `json:"removeAll,omitempty" yaml:"removeAll,omitempty"`
}

type SetVariableAction struct {
	Name   string     `json:"name" yaml:"name"`
	Source DataSource `json:"source" yaml:"source"`
}

func (SetCookieAction) actionConfig()    {}
func (DeleteCookieAction) actionConfig() {}
func (SetVariableAction) actionConfig()  {}

// RunnableAction pairs an action config with its execution mode and an
// optional guarding condition. The engine executes actions; it never
// persists them.
type RunnableAction struct {
	Enabled   bool          `json:"enabled" yaml:"enabled"`
	Mode      ExecutionMode `json:"mode,omitempty" yaml:"mode,omitempty"`
	Condition *Condition    `json:"condition,omitempty" yaml:"condition,omitempty"`
	Config    ActionConfig  `json:"config,omitempty" yaml:"config,omitempty"`
}

// UnmarshalYAML decodes the action config into its concrete type based on
// the declared kind, keeping the sum closed for deserialized actions too.
func (a *RunnableAction) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Enabled   bool          `yaml:"enabled"`
		Mode      ExecutionMode `yaml:"mode"`
		Condition *Condition    `yaml:"condition"`
		Type      string        `yaml:"type"`
		Config    yaml.Node     `yaml:"config"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	a.Enabled = raw.Enabled
	a.Mode = raw.Mode
	a.Condition = raw.Condition

	switch raw.Type {
	case "":
		a.Config = nil
		return nil
	case "set-cookie":
		var cfg SetCookieAction
		if !raw.Config.IsZero() {
			if err := raw.Config.Decode(&cfg); err != nil {
				return err
			}
		}
		a.Config = cfg
	case "delete-cookie":
		var cfg DeleteCookieAction
		if !raw.Config.IsZero() {
			if err := raw.Config.Decode(&cfg); err != nil {
				return err
			}
		}
		a.Config = cfg
	case "set-variable":
		var cfg SetVariableAction
		if !raw.Config.IsZero() {
			if err := raw.Config.Decode(&cfg); err != nil {
				return err
			}
		}
		a.Config = cfg
	default:
		return fmt.Errorf("unknown action type %q", raw.Type)
	}
	return nil
}
