package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"twhydrate/pkg/config"
	"twhydrate/pkg/export"
	"twhydrate/pkg/hydrate"
	"twhydrate/pkg/logger"
	"twhydrate/pkg/storage"
	"twhydrate/pkg/store"
	"twhydrate/pkg/ui"
)

var (
	idsFile     string
	handlesFile string
	batchSize   int
	usersFile   string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Look up user records by ID or screen name",
	Long: `Look up Twitter accounts in batches and write one sanitized TSV row per
resolved account:

  screen_name  name  id  location  followers_count  friends_count  description

Input files hold one ID or screen name per line. Blank lines and lines
starting with # are ignored, a leading @ on screen names is dropped. Use - to
read from stdin. Accounts that cannot be resolved are counted as failures and
left out of the output.`,
	Example: `  # Hydrate a list of user IDs into ./users.tsv
  twhydrate users --ids ids.txt

  # Screen names, smaller batches, custom output file
  twhydrate users --handles handles.txt --batch-size 50 --users-file accounts.tsv

  # Also upsert the records into SQLite
  twhydrate users --ids ids.txt --sqlite twhydrate.db`,
	Args: cobra.NoArgs,
	RunE: runUsers,
}

func init() {
	rootCmd.AddCommand(usersCmd)

	usersCmd.Flags().StringVar(&idsFile, "ids", "", "file of numeric user IDs, one per line")
	usersCmd.Flags().StringVar(&handlesFile, "handles", "", "file of screen names, one per line")
	usersCmd.Flags().IntVar(&batchSize, "batch-size", config.MaxBatchSize, "accounts per lookup request (1-100)")
	usersCmd.Flags().StringVar(&usersFile, "users-file", "", "output file name inside the output directory (default users.tsv)")
	usersCmd.MarkFlagsMutuallyExclusive("ids", "handles")
	usersCmd.MarkFlagsOneRequired("ids", "handles")
}

// userInput holds exactly one of IDs or handles
type userInput struct {
	IDs     []int64
	Handles []string
}

func (in userInput) Len() int {
	if in.Handles != nil {
		return len(in.Handles)
	}
	return len(in.IDs)
}

func readUserInput() (userInput, error) {
	if handlesFile != "" {
		handles, err := export.ReadHandlesFile(handlesFile)
		return userInput{Handles: handles}, err
	}
	ids, err := export.ReadIDsFile(idsFile)
	return userInput{IDs: ids}, err
}

func runUsers(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("batch-size") {
		flags["batch-size"] = batchSize
	}
	if usersFile != "" {
		flags["users-file"] = usersFile
	}

	a, err := setup(cmd, flags)
	if err != nil {
		return err
	}
	defer a.stop()

	in, err := readUserInput()
	if err != nil {
		return err
	}
	if in.Len() == 0 {
		ui.PrintWarning("No accounts to look up")
		return nil
	}

	client, err := a.client()
	if err != nil {
		return err
	}

	tracker := ui.NewStatusTracker()
	var onBatch func(hydrate.Progress)
	if !quiet {
		onBatch = tracker.PrintBatch
	}

	res, path, err := hydrateUsers(a.ctx, a.cfg, client, in, a.log, onBatch)
	if res != nil && !quiet {
		ui.PrintLookupStats(res.Stats, time.Since(tracker.StartTime))
	}
	if path != "" {
		ui.PrintSuccess("Wrote " + path)
	}
	return err
}

// hydrateUsers runs the lookup flow and writes its output. A flow aborted
// by a local error still writes the records resolved so far; that error is
// returned afterwards.
func hydrateUsers(ctx context.Context, cfg *config.Config, client hydrate.Client, in userInput, log logger.Logger, onBatch func(hydrate.Progress)) (*hydrate.Result, string, error) {
	h := hydrate.New(client, hydrate.Options{
		BatchSize: cfg.Lookup.BatchSize,
		Logger:    log,
		OnBatch:   onBatch,
	})

	var res *hydrate.Result
	var runErr error
	if in.Handles != nil {
		res, runErr = h.LookupByHandles(ctx, in.Handles)
	} else {
		res, runErr = h.LookupByIDs(ctx, in.IDs)
	}
	if res == nil {
		return nil, "", runErr
	}

	sm, err := storage.NewManager(cfg.Output.Directory)
	if err != nil {
		return res, "", err
	}
	err = sm.WriteAtomic(cfg.Output.UsersFile, func(w io.Writer) error {
		return export.WriteUsers(w, res.Users)
	})
	if err != nil {
		return res, "", fmt.Errorf("failed to write users: %w", err)
	}
	path := sm.Path(cfg.Output.UsersFile)

	if cfg.Store.SQLitePath != "" {
		db, err := store.Open(cfg.Store.SQLitePath)
		if err != nil {
			return res, path, err
		}
		defer db.Close()
		if err := db.SaveUsers(res.Users); err != nil {
			return res, path, err
		}
		log.InfoWithFields("users saved to database", map[string]interface{}{
			"path":  cfg.Store.SQLitePath,
			"users": len(res.Users),
		})
	}

	return res, path, runErr
}
