package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v3"

	"github.com/CJFEdu/AutoGrader/internal/archive"
	"github.com/CJFEdu/AutoGrader/internal/config"
	"github.com/CJFEdu/AutoGrader/internal/events"
	"github.com/CJFEdu/AutoGrader/internal/fileprep"
	"github.com/CJFEdu/AutoGrader/internal/grading"
	"github.com/CJFEdu/AutoGrader/internal/report"
	"github.com/CJFEdu/AutoGrader/internal/results"
	"github.com/CJFEdu/AutoGrader/internal/roster"
	"github.com/CJFEdu/AutoGrader/internal/runner"
	"github.com/CJFEdu/AutoGrader/internal/submissions"
	"github.com/CJFEdu/AutoGrader/internal/workspace"
)

func main() {
	app := &cli.Command{
		Name:  "autograder",
		Usage: "prepare, grade, and report on programming assignment submissions",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "autograder.toml", Usage: "path to the TOML configuration"},
			&cli.StringFlag{Name: "workdir", Value: ".", Usage: "workspace root holding input/ and output/"},
			&cli.BoolFlag{Name: "verbose", Usage: "enable debug logging"},
		},
		Commands: []*cli.Command{
			{
				Name:   "prep",
				Usage:  "generate staged test files and split the expected output",
				Action: runPrep,
			},
			{
				Name:   "validate",
				Usage:  "check the staging directory before grading",
				Action: runValidate,
			},
			{
				Name:   "grade",
				Usage:  "grade every submission for correctness",
				Action: runGrade,
			},
			{
				Name:   "time",
				Usage:  "run the timing check over every submission",
				Action: runTime,
			},
			{
				Name:   "reload",
				Usage:  "re-copy test files into extracted submissions",
				Action: runReload,
			},
			{
				Name:  "render",
				Usage: "render the HTML report from a results snapshot",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input", Usage: "results snapshot path (defaults to output/results.json)"},
				},
				Action: runRender,
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the pieces every command needs: a
// logger and the workspace layout.
func setup(cmd *cli.Command) (*config.Config, workspace.Workspace, *slog.Logger, error) {
	lvl := slog.LevelInfo
	if cmd.Bool("verbose") {
		lvl = slog.LevelDebug
	}
	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(log)

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, workspace.Workspace{}, nil, err
	}
	return cfg, workspace.New(cmd.String("workdir"), cfg.Assignment.Name), log, nil
}

func loadRoster(cfg *config.Config, ws workspace.Workspace) (*roster.Roster, error) {
	ros, err := roster.ParseFile(ws.RosterCSV(), cfg.Roster.FirstNameFirst)
	if err != nil {
		return nil, err
	}
	if len(ros.TestNames) == 0 {
		return nil, fmt.Errorf("roster declares no tests")
	}
	return ros, nil
}

func runPrep(_ context.Context, cmd *cli.Command) error {
	cfg, ws, log, err := setup(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateForPrep(); err != nil {
		return err
	}
	ros, err := loadRoster(cfg, ws)
	if err != nil {
		return err
	}

	prep := fileprep.New(cfg, log)
	sum, err := prep.Prepare(ws.TemplateDir(), ws.StagingDir(), ros.TestNames)
	if err != nil {
		return err
	}
	fmt.Printf("Staged %d test files (%d tests × %d languages) in %s\n",
		sum.FilesWritten, len(ros.TestNames), len(cfg.Languages), ws.StagingDir())

	src := ws.ExpectedOutputPath(cfg.Assignment.ExpectedOutputFile)
	if _, statErr := os.Stat(src); statErr == nil {
		if err := prep.SplitExpectedOutput(src, ws.TemplateDir()); err != nil {
			return err
		}
		fmt.Println("Expected output split into per-test sections")
	} else {
		log.Warn("expected output file not found, skipping split", "path", src)
	}
	return nil
}

func runValidate(_ context.Context, cmd *cli.Command) error {
	cfg, ws, _, err := setup(cmd)
	if err != nil {
		return err
	}
	ros, err := loadRoster(cfg, ws)
	if err != nil {
		return err
	}

	want := len(ros.TestNames) * len(cfg.Languages)
	rep, err := fileprep.ValidateStaging(ws.StagingDir(), want)
	if err != nil {
		return err
	}

	fmt.Printf("Staging directory: %d files (%d expected), %d runnable\n",
		rep.Count(), rep.Want, rep.Runnable())
	for _, f := range rep.Invalid() {
		fmt.Printf("  INVALID %s: %d active test blocks\n", f.Name, f.ActiveBlocks)
	}
	return rep.Err()
}

func runGrade(ctx context.Context, cmd *cli.Command) error {
	return gradeRun(ctx, cmd, false, "Correctness Check")
}

func runTime(ctx context.Context, cmd *cli.Command) error {
	return gradeRun(ctx, cmd, true, "Time Check")
}

func gradeRun(ctx context.Context, cmd *cli.Command, timing bool, label string) error {
	cfg, ws, log, err := setup(cmd)
	if err != nil {
		return err
	}
	ros, err := loadRoster(cfg, ws)
	if err != nil {
		return err
	}
	if err := ws.EnsureOutput(); err != nil {
		return err
	}

	runID := uuid.NewString()
	log.Info("starting grading run", "run_id", runID, "assignment", cfg.Assignment.Name, "timing", timing)

	subs := submissions.NewStore(cfg, ws.SubmissionsDir(), log)
	if err := subs.EnsureExtracted(ws.SubmissionsZip()); err != nil {
		return err
	}

	paths := results.Paths{Root: ws.OutputDir()}
	grader := grading.New(grading.Params{
		Cfg:         cfg,
		Subs:        subs,
		Runner:      runner.New(time.Duration(cfg.Tests.TimeoutSeconds)*time.Second, log),
		Sink:        events.NewTerminalSink(os.Stdout),
		Paths:       paths,
		Log:         log,
		TemplateDir: ws.TemplateDir(),
		StagingDir:  ws.StagingDir(),
		Timing:      timing,
	})

	started := time.Now()
	res, err := grader.Run(ctx, ros)
	if err != nil {
		return err
	}

	if err := results.WriteCSVFile(paths.CSVPath(), res); err != nil {
		return err
	}
	if err := results.SaveJSON(paths.JSONPath(), res); err != nil {
		return err
	}

	renderer, err := report.New()
	if err != nil {
		return err
	}
	hdr := report.Header{
		ClassName:      cfg.Class.Name,
		AssignmentName: cfg.Assignment.Name,
		Section:        cfg.Class.Section,
		GeneratedAt:    time.Now(),
	}
	if err := renderer.RenderFile(paths.HTMLPath(), hdr, res); err != nil {
		return err
	}

	if err := archive.WriteDir(filepath.Join(ws.OutputDir(), "results.zip"), paths.ResultsDir()); err != nil {
		return err
	}
	if err := archive.WriteDir(filepath.Join(ws.OutputDir(), "full_output.zip"), paths.FullOutputDir()); err != nil {
		return err
	}

	if err := paths.TrackRun(fmt.Sprintf("%s (%s)", label, runID), started, time.Now()); err != nil {
		return err
	}

	fmt.Printf("Results written to %s\n", paths.HTMLPath())
	return nil
}

func runReload(_ context.Context, cmd *cli.Command) error {
	cfg, ws, log, err := setup(cmd)
	if err != nil {
		return err
	}
	ros, err := loadRoster(cfg, ws)
	if err != nil {
		return err
	}
	subs := submissions.NewStore(cfg, ws.SubmissionsDir(), log)
	return subs.Reload(ws.TemplateDir(), ws.StagingDir(), ros.TestNames)
}

func runRender(_ context.Context, cmd *cli.Command) error {
	cfg, ws, _, err := setup(cmd)
	if err != nil {
		return err
	}

	path := cmd.String("input")
	if path == "" {
		path = results.Paths{Root: ws.OutputDir()}.JSONPath()
	}
	res, err := results.LoadJSON(path)
	if err != nil {
		return err
	}

	renderer, err := report.New()
	if err != nil {
		return err
	}
	hdr := report.Header{
		ClassName:      cfg.Class.Name,
		AssignmentName: cfg.Assignment.Name,
		Section:        cfg.Class.Section,
		GeneratedAt:    time.Now(),
	}
	out := results.Paths{Root: ws.OutputDir()}.HTMLPath()
	if err := renderer.RenderFile(out, hdr, res); err != nil {
		return err
	}
	fmt.Printf("Report written to %s\n", out)
	return nil
}
