package runner

import (
	"context"
	"time"

	"github.com/unkn0wn-root/reqrun/internal/engine"
	"github.com/unkn0wn-root/reqrun/internal/errdef"
	"github.com/unkn0wn-root/reqrun/internal/model"
	"github.com/unkn0wn-root/reqrun/internal/vars"
)

// Serial executes iterations and requests strictly one at a time, pausing
// between iterations to pace load. One engine instance serves the whole
// run since only one operation is ever in flight.
type Serial struct {
	cfg   Config
	arena *vars.Arena
}

func NewSerial(cfg Config, arena *vars.Arena) *Serial {
	if arena == nil {
		arena = vars.NewArena()
	}
	return &Serial{cfg: cfg, arena: arena}
}

func (s *Serial) Run(ctx context.Context, project *model.Project) (*ProjectLog, error) {
	if project == nil {
		return nil, errdef.New(errdef.CodeRunner, "project is required")
	}

	deps := buildDeps(s.cfg, project, s.arena)
	eng := engine.New(s.cfg.Engine, deps)
	log := newProjectLog(project)

	total := iterations(s.cfg)
	for i := 0; i < total; i++ {
		if i > 0 && s.cfg.IterationDelay > 0 {
			select {
			case <-ctx.Done():
				log.Completed = time.Now().UnixMilli()
				return log, errdef.Wrap(errdef.CodeRunner, ctx.Err(), "run cancelled")
			case <-time.After(s.cfg.IterationDelay):
			}
		}

		iter := IterationLog{Index: i}
		project.Walk(func(folderID string, req *model.Request) {
			if ctx.Err() != nil {
				return
			}
			reqLog, err := eng.Send(ctx, req)
			iter.Executions = append(iter.Executions, Execution{FolderID: folderID, Log: reqLog, Err: err})
			if err != nil {
				s.cfg.Logger.Error().Err(err).Str("url", req.URL).Msg("request failed")
			}
		})
		log.Iterations = append(log.Iterations, iter)
		if ctx.Err() != nil {
			log.Completed = time.Now().UnixMilli()
			return log, errdef.Wrap(errdef.CodeRunner, ctx.Err(), "run cancelled")
		}
	}

	log.Completed = time.Now().UnixMilli()
	return log, nil
}
