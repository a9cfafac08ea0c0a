// Package runner iterates a project tree of requests and folders, delegating
// each request to a transport engine and collecting the per-request logs
// into a project execution log.
package runner

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/reqrun/internal/engine"
	"github.com/unkn0wn-root/reqrun/internal/model"
	"github.com/unkn0wn-root/reqrun/internal/vars"
)

type Config struct {
	Engine         engine.Options
	Deps           engine.Deps
	Iterations     int
	IterationDelay time.Duration
	Workers        int
	Logger         zerolog.Logger
}

// Execution is one request's outcome within a run. Err carries only
// configuration or synchronous action failures; transport failures live
// inside the log itself.
type Execution struct {
	FolderID string
	Log      *model.RequestLog
	Err      error
}

type IterationLog struct {
	Index      int         `json:"index"`
	Executions []Execution `json:"executions"`
}

type ProjectLog struct {
	ID         string         `json:"id"`
	Project    string         `json:"project,omitempty"`
	Started    int64          `json:"started"`
	Completed  int64          `json:"completed"`
	Iterations []IterationLog `json:"iterations"`
}

func newProjectLog(project *model.Project) *ProjectLog {
	name := ""
	if project != nil {
		name = project.Name
	}
	return &ProjectLog{
		ID:      uuid.NewString(),
		Project: name,
		Started: time.Now().UnixMilli(),
	}
}

// buildDeps wires the shared collaborators plus a per-project variable scope
// into engine dependencies. The arena scope feeds both set-variable actions
// and template resolution.
func buildDeps(cfg Config, project *model.Project, arena *vars.Arena) engine.Deps {
	deps := cfg.Deps
	scopeID := project.ID
	if scopeID == "" {
		scopeID = project.Name
	}
	scope := arena.Bind(scopeID)
	deps.Vars = scope

	if deps.Resolver == nil {
		providers := []vars.Provider{scope.Provider()}
		if len(project.Variables) > 0 {
			providers = append(providers, vars.NewMapProvider("project", project.Variables))
		}
		providers = append(providers, vars.EnvProvider{})
		deps.Resolver = vars.NewResolver(providers...)
	}
	return deps
}

func iterations(cfg Config) int {
	if cfg.Iterations <= 0 {
		return 1
	}
	return cfg.Iterations
}
