package model

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestRunnableActionUnmarshalSetVariable(t *testing.T) {
	raw := `
enabled: true
mode: fire-and-forget
type: set-variable
config:
  name: token
  source:
    source: body
    type: response
    path: token
`
	var action RunnableAction
	if err := yaml.Unmarshal([]byte(raw), &action); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !action.Enabled || action.Mode != ModeFireAndForget {
		t.Fatalf("unexpected envelope %+v", action)
	}
	cfg, ok := action.Config.(SetVariableAction)
	if !ok {
		t.Fatalf("expected SetVariableAction, got %T", action.Config)
	}
	if cfg.Name != "token" || cfg.Source.Source != SourceBody || cfg.Source.Side != SideResponse {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestRunnableActionUnmarshalSetCookie(t *testing.T) {
	raw := `
enabled: true
type: set-cookie
config:
  name: sid
  useRequestUrl: true
  source:
    source: value
    value: abc
`
	var action RunnableAction
	if err := yaml.Unmarshal([]byte(raw), &action); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	cfg, ok := action.Config.(SetCookieAction)
	if !ok {
		t.Fatalf("expected SetCookieAction, got %T", action.Config)
	}
	if cfg.Name != "sid" || !cfg.UseRequestURL || cfg.Source.Value != "abc" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestRunnableActionUnmarshalDeleteCookie(t *testing.T) {
	raw := `
enabled: true
type: delete-cookie
config:
  url: https://x.test/
  removeAll: true
`
	var action RunnableAction
	if err := yaml.Unmarshal([]byte(raw), &action); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	cfg, ok := action.Config.(DeleteCookieAction)
	if !ok {
		t.Fatalf("expected DeleteCookieAction, got %T", action.Config)
	}
	if cfg.URL != "https://x.test/" || !cfg.RemoveAll {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestRunnableActionUnknownType(t *testing.T) {
	var action RunnableAction
	err := yaml.Unmarshal([]byte("enabled: true\ntype: run-script\n"), &action)
	if err == nil {
		t.Fatalf("expected error for unknown action type")
	}
}

func TestRunnableActionDefaultMode(t *testing.T) {
	var action RunnableAction
	if err := yaml.Unmarshal([]byte("enabled: true\nmode: sync\n"), &action); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if action.Mode != ModeSync || action.Config != nil {
		t.Fatalf("unexpected action %+v", action)
	}
}

func TestExecutionModeInvalid(t *testing.T) {
	var mode ExecutionMode
	if err := yaml.Unmarshal([]byte(`"whenever"`), &mode); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
