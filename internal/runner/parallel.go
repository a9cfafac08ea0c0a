package runner

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/unkn0wn-root/reqrun/internal/engine"
	"github.com/unkn0wn-root/reqrun/internal/errdef"
	"github.com/unkn0wn-root/reqrun/internal/model"
	"github.com/unkn0wn-root/reqrun/internal/vars"
)

// Parallel fans requests of each iteration out to a bounded worker group.
// Every task owns its engine instance with independent abort and timeout
// state; only the cookie jar and the variable arena are shared.
type Parallel struct {
	cfg   Config
	arena *vars.Arena
}

func NewParallel(cfg Config, arena *vars.Arena) *Parallel {
	if arena == nil {
		arena = vars.NewArena()
	}
	return &Parallel{cfg: cfg, arena: arena}
}

func (p *Parallel) Run(ctx context.Context, project *model.Project) (*ProjectLog, error) {
	if project == nil {
		return nil, errdef.New(errdef.CodeRunner, "project is required")
	}

	deps := buildDeps(p.cfg, project, p.arena)
	log := newProjectLog(project)

	type task struct {
		folderID string
		request  *model.Request
	}
	var tasks []task
	project.Walk(func(folderID string, req *model.Request) {
		tasks = append(tasks, task{folderID: folderID, request: req})
	})

	workers := p.cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	total := iterations(p.cfg)
	for i := 0; i < total; i++ {
		if i > 0 && p.cfg.IterationDelay > 0 {
			select {
			case <-ctx.Done():
				log.Completed = time.Now().UnixMilli()
				return log, errdef.Wrap(errdef.CodeRunner, ctx.Err(), "run cancelled")
			case <-time.After(p.cfg.IterationDelay):
			}
		}

		iter := IterationLog{Index: i, Executions: make([]Execution, len(tasks))}
		var mu sync.Mutex

		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(workers)
		for idx := range tasks {
			idx := idx
			group.Go(func() error {
				eng := engine.New(p.cfg.Engine, deps)
				reqLog, err := eng.Send(groupCtx, tasks[idx].request)
				mu.Lock()
				iter.Executions[idx] = Execution{FolderID: tasks[idx].folderID, Log: reqLog, Err: err}
				mu.Unlock()
				if err != nil {
					p.cfg.Logger.Error().Err(err).Str("url", tasks[idx].request.URL).Msg("request failed")
				}
				// Failures are recorded per execution, they never cancel
				// sibling requests.
				return nil
			})
		}
		_ = group.Wait()
		log.Iterations = append(log.Iterations, iter)

		if ctx.Err() != nil {
			log.Completed = time.Now().UnixMilli()
			return log, errdef.Wrap(errdef.CodeRunner, ctx.Err(), "run cancelled")
		}
	}

	log.Completed = time.Now().UnixMilli()
	return log, nil
}
