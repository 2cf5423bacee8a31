package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"twhydrate/pkg/checkpoint"
	"twhydrate/pkg/config"
	"twhydrate/pkg/export"
	"twhydrate/pkg/followers"
	"twhydrate/pkg/logger"
	"twhydrate/pkg/storage"
	"twhydrate/pkg/store"
	"twhydrate/pkg/ui"
)

var (
	rootsFile      string
	followerLimit  int
	edgeFile       string
	resumePull     bool
	keepCheckpoint bool
)

var followersCmd = &cobra.Command{
	Use:   "followers [root-id...]",
	Short: "Pull the follower IDs of one or more accounts",
	Long: `Page through the follower listing of every root account and append one
"root_id<TAB>follower_id" line per follower to the edge file.

Paging for a root stops after the first page that takes it above --limit
(0 pulls everything). A root whose listing fails, usually because it is
protected or suspended, is skipped and keeps the pages already pulled.

With --checkpoint, finished roots are recorded so an interrupted run can be
continued with --resume.`,
	Example: `  # Pull up to ~10000 followers of each root in roots.txt
  twhydrate followers --roots roots.txt --edges edges.tsv

  # No limit, resumable
  twhydrate followers --roots roots.txt --edges edges.tsv --limit 0 --checkpoint

  # Continue an interrupted run
  twhydrate followers --roots roots.txt --edges edges.tsv --resume`,
	RunE: runFollowers,
}

func init() {
	rootCmd.AddCommand(followersCmd)

	followersCmd.Flags().StringVar(&rootsFile, "roots", "", "file of root user IDs, one per line")
	followersCmd.Flags().IntVar(&followerLimit, "limit", config.DefaultFollowerLimit, "stop a root after the page that exceeds this many followers (0 = unlimited)")
	followersCmd.Flags().StringVar(&edgeFile, "edges", "", "append edges to this file inside the output directory")
	followersCmd.Flags().BoolVar(&resumePull, "resume", false, "skip roots finished by an earlier checkpointed run")
	followersCmd.Flags().BoolVar(&keepCheckpoint, "checkpoint", false, "record finished roots for --resume")
}

func readRoots(args []string) ([]int64, error) {
	if rootsFile != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("give root IDs either as arguments or with --roots, not both")
		}
		return export.ReadIDsFile(rootsFile)
	}

	roots := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid root id %q", arg)
		}
		roots = append(roots, id)
	}
	return roots, nil
}

func runFollowers(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("limit") {
		flags["limit"] = followerLimit
	}
	if edgeFile != "" {
		flags["edges"] = edgeFile
	}
	if cmd.Flags().Changed("checkpoint") {
		flags["checkpoint"] = keepCheckpoint
	}

	a, err := setup(cmd, flags)
	if err != nil {
		return err
	}
	defer a.stop()

	roots, err := readRoots(args)
	if err != nil {
		return err
	}
	if len(roots) == 0 {
		ui.PrintWarning("No root accounts given")
		return nil
	}

	client, err := a.client()
	if err != nil {
		return err
	}

	tracker := ui.NewStatusTracker()
	job := pullJob{
		cfg:    a.cfg,
		client: client,
		roots:  roots,
		name:   checkpoint.JobName(rootsFile),
		resume: resumePull,
		log:    a.log,
	}
	if !quiet {
		job.onRoot = tracker.PrintRoot
	}

	res, err := job.run(a.ctx)
	if res != nil && !quiet {
		ui.PrintPullStats(res.Stats, time.Since(tracker.StartTime))
	}
	return err
}

// pullJob is one follower pull with its sinks and checkpoint
type pullJob struct {
	cfg    *config.Config
	client followers.Client
	roots  []int64
	name   string
	resume bool
	log    logger.Logger
	onRoot func(followers.RootResult)

	// checkpointDir overrides the per-user data directory
	checkpointDir string
}

func (j *pullJob) checkpoints() (*checkpoint.Manager, error) {
	if j.checkpointDir != "" {
		return checkpoint.NewManagerInDir(j.checkpointDir, j.name)
	}
	return checkpoint.NewManager(j.name)
}

func (j *pullJob) run(ctx context.Context) (res *followers.Result, err error) {
	cfg := j.cfg
	var sinks followers.MultiSink

	if cfg.Followers.EdgeFile != "" {
		sm, serr := storage.NewManager(cfg.Output.Directory)
		if serr != nil {
			return nil, serr
		}
		f, ferr := sm.OpenAppend(cfg.Followers.EdgeFile)
		if ferr != nil {
			return nil, ferr
		}
		edges := export.NewEdgeWriter(f)
		defer func() {
			if cerr := edges.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close edge file: %w", cerr)
			}
			j.log.InfoWithFields("edges written", map[string]interface{}{
				"path":  sm.Path(cfg.Followers.EdgeFile),
				"edges": edges.Lines(),
			})
		}()
		sinks = append(sinks, edges)
	}

	if cfg.Store.SQLitePath != "" {
		db, err := store.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		sinks = append(sinks, db)
	}

	var cpm *checkpoint.Manager
	var cp *checkpoint.Checkpoint
	if cfg.Followers.Checkpoint || j.resume {
		cpm, err = j.checkpoints()
		if err != nil {
			return nil, err
		}
		if j.resume {
			if cp, err = cpm.Load(); err != nil {
				return nil, err
			}
			if cp == nil {
				j.log.WithField("path", cpm.Path()).Warn("no checkpoint to resume from, starting over")
			} else if cp.Limit != cfg.Followers.Limit {
				j.log.WarnWithFields("resuming with a different follower limit", map[string]interface{}{
					"checkpoint_limit": cp.Limit,
					"limit":            cfg.Followers.Limit,
				})
			}
		}
		if cp == nil {
			if cp, err = cpm.Create(j.name, cfg.Followers.Limit); err != nil {
				return nil, err
			}
		}
	}

	opts := followers.Options{
		Limit:  cfg.Followers.Limit,
		Logger: j.log,
		OnRoot: func(rr followers.RootResult) error {
			if cpm != nil {
				if err := cpm.RecordRoot(cp, rr.Root, rr.State.String(), len(rr.Followers)); err != nil {
					return err
				}
			}
			if j.onRoot != nil {
				j.onRoot(rr)
			}
			return nil
		},
	}
	if len(sinks) > 0 {
		opts.Sink = sinks
	}
	if cp != nil {
		opts.Done = cp.IsRootDone
	}

	res, err = followers.NewPuller(j.client, opts).Pull(ctx, j.roots)
	if err != nil {
		return res, err
	}

	// every root is final, nothing is left to resume
	if cpm != nil {
		if err := cpm.Delete(); err != nil {
			j.log.WithError(err).Warn("failed to delete checkpoint")
		}
	}
	return res, nil
}
