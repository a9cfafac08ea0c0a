package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/reqrun/internal/auth"
	"github.com/unkn0wn-root/reqrun/internal/cookies"
	"github.com/unkn0wn-root/reqrun/internal/engine"
	"github.com/unkn0wn-root/reqrun/internal/history"
	"github.com/unkn0wn-root/reqrun/internal/logging"
	"github.com/unkn0wn-root/reqrun/internal/model"
	"github.com/unkn0wn-root/reqrun/internal/runner"
	"github.com/unkn0wn-root/reqrun/internal/vars"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type projectFile struct {
	Project      model.Project       `yaml:"project"`
	Certificates []model.Certificate `yaml:"certificates,omitempty"`
}

func main() {
	var (
		filePath    string
		timeout     time.Duration
		insecure    bool
		follow      bool
		proxyURL    string
		iterations  int
		delay       time.Duration
		parallel    bool
		workers     int
		logLevel    string
		logFile     string
		historyPath string
		showVersion bool
	)

	flag.StringVar(&filePath, "file", "", "Path to project file to execute")
	flag.DurationVar(&timeout, "timeout", 90*time.Second, "Request timeout")
	flag.BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification")
	flag.BoolVar(&follow, "follow", true, "Follow redirects")
	flag.StringVar(&proxyURL, "proxy", "", "HTTP proxy URL")
	flag.IntVar(&iterations, "iterations", 1, "Number of project iterations")
	flag.DurationVar(&delay, "delay", 0, "Delay between iterations")
	flag.BoolVar(&parallel, "parallel", false, "Run requests of an iteration in parallel")
	flag.IntVar(&workers, "workers", 4, "Parallel worker count")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&logFile, "log-file", "", "Log file path (rotated)")
	flag.StringVar(&historyPath, "history", "", "History file path")
	flag.BoolVar(&showVersion, "version", false, "Show reqrun version")
	flag.Parse()

	if showVersion {
		fmt.Printf("reqrun %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		os.Exit(0)
	}

	if filePath == "" && flag.NArg() > 0 {
		filePath = flag.Arg(0)
	}
	if filePath == "" {
		log.Fatal("a project file is required")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("read project file: %v", err)
	}
	var project projectFile
	if err := yaml.Unmarshal(data, &project); err != nil {
		log.Fatalf("parse project file: %v", err)
	}

	logger := logging.New(logging.Options{
		Level:    logLevel,
		FilePath: logFile,
		Console:  logFile == "",
	})

	cfg := runner.Config{
		Engine: engine.Options{
			Timeout:         timeout,
			FollowRedirects: follow,
			Insecure:        insecure,
			ProxyURL:        proxyURL,
			BaseDir:         filepath.Dir(filePath),
		},
		Deps: engine.Deps{
			Jar:    cookies.NewMemoryJar(),
			Certs:  auth.NewMemoryCertificates(project.Certificates...),
			Cache:  auth.NewBasicCache(),
			Logger: logger,
		},
		Iterations:     iterations,
		IterationDelay: delay,
		Workers:        workers,
		Logger:         logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	arena := vars.NewArena()
	var projectLog *runner.ProjectLog
	var runErr error
	if parallel {
		projectLog, runErr = runner.NewParallel(cfg, arena).Run(ctx, &project.Project)
	} else {
		projectLog, runErr = runner.NewSerial(cfg, arena).Run(ctx, &project.Project)
	}
	if runErr != nil {
		logger.Error().Err(runErr).Msg("project run failed")
	}
	if projectLog == nil {
		os.Exit(1)
	}

	if historyPath != "" {
		store := history.NewStore(historyPath, 0)
		for _, iter := range projectLog.Iterations {
			for _, exec := range iter.Executions {
				if exec.Log == nil {
					continue
				}
				if err := store.Append(history.FromLog(project.Project.Name, exec.Log)); err != nil {
					logger.Warn().Err(err).Msg("append history")
				}
			}
		}
	}

	encoded, err := json.MarshalIndent(projectLog, "", "  ")
	if err != nil {
		log.Fatalf("encode project log: %v", err)
	}
	fmt.Println(string(encoded))

	if runErr != nil {
		os.Exit(1)
	}
}
