package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/eisenvault/evshare/internal/api"
	"github.com/eisenvault/evshare/internal/localfs"
	"github.com/eisenvault/evshare/internal/models"
	"github.com/eisenvault/evshare/internal/navigator"
	"github.com/eisenvault/evshare/internal/notify"
	"github.com/eisenvault/evshare/internal/progress"
)

// newShareCmd creates the 'share' command.
func newShareCmd() *cobra.Command {
	var (
		folderID      string
		folderKind    string
		folderName    string
		fromStdin     bool
		stdinName     string
		includeHidden bool
		notifyFlag    bool
		quiet         bool
	)

	cmd := &cobra.Command{
		Use:   "share [paths...]",
		Short: "Upload files to a DMS folder",
		Long: `Upload files, directories or standard input to a DMS folder.

Directories are expanded recursively; hidden files are skipped unless
--include-hidden is set. Without --folder-id the folder browser opens so
you can pick the destination.

Example:
  # Pick the destination interactively
  evshare share report.pdf scans/

  # Upload straight into a known folder
  evshare share report.pdf --folder-id 3f1c... --folder-name Invoices

  # Share text from another program
  echo "meeting notes" | evshare share --stdin --name notes.txt --folder-id 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			if len(args) == 0 && !fromStdin {
				return fmt.Errorf("nothing to share: give file paths or --stdin")
			}

			files, err := localfs.Expand(args, localfs.ExpandOptions{IncludeHidden: includeHidden})
			if err != nil {
				return err
			}
			items := make([]models.ShareItem, 0, len(files)+1)
			for _, f := range files {
				items = append(items, models.ShareItem{Payload: models.FilePayload{Path: f}})
			}
			if fromStdin {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read standard input: %w", err)
				}
				items = append(items, models.ShareItem{Payload: models.BytesPayload{Data: data}, SuggestedName: stdinName})
			}
			if len(items) == 0 {
				return fmt.Errorf("no files to upload")
			}
			batch := models.NewShareBatch(items...)
			logger.Debug().Int("items", batch.TotalCount()).Msg("Share batch prepared")

			session, err := openSession()
			if err != nil {
				return err
			}
			defer session.Close()
			ctx := cmd.Context()

			var dest *models.FolderNode
			if folderID != "" {
				node := folderFromFlags(folderID, folderKind, folderName)
				node.Name = displayName(node)
				dest = &node
			} else {
				dest, err = pickDestination(ctx, session.Navigator(), navigator.CreateOptions{
					CheckPermission: session.Config().CheckCreatePermission,
					Logger:          logger,
				})
				if errors.Is(err, errBrowseCancelled) {
					fmt.Fprintln(cmd.ErrOrStderr(), "Share cancelled")
					return nil
				}
				if err != nil {
					return err
				}
			}

			var (
				notifier *notify.Notifier
				notified <-chan struct{}
			)
			if notifyFlag || session.Config().Notify {
				notifier = notify.NewNotifier(nil, logger)
				notified = notifier.Subscribe(session.Events())
			}

			var reporter progress.Reporter = progress.NewBatchBar(cmd.ErrOrStderr())
			if quiet {
				reporter = progress.NoOpProgress{}
			}
			reporter.Start(batch.TotalCount(), dest.Name)

			result, results, err := session.UploadTo(ctx, batch, dest, progress.Callback(reporter))
			if err != nil {
				if notifier != nil && api.IsAuthExpired(err) {
					notifier.SessionExpired()
				}
				return displayError(err)
			}
			reporter.Finish(result)

			if notifier != nil && sessionExpired(results) {
				notifier.SessionExpired()
			}

			if notified != nil {
				session.Close()
				<-notified
			}

			if !result.OK() {
				return fmt.Errorf("%d of %d file(s) failed to upload", result.Failed, result.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&folderID, "folder-id", "", "Destination folder ID (default: pick interactively)")
	cmd.Flags().StringVar(&folderKind, "folder-kind", "folder", "Destination kind: site, container, folder, department")
	cmd.Flags().StringVar(&folderName, "folder-name", "", "Destination display name (default: the ID)")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Also upload standard input as one file")
	cmd.Flags().StringVar(&stdinName, "name", "", "File name for --stdin (default: unknown_file)")
	cmd.Flags().BoolVar(&includeHidden, "include-hidden", false, "Include hidden files when expanding directories")
	cmd.Flags().BoolVar(&notifyFlag, "notify", false, "Show a desktop notification when the upload finishes")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not show upload progress")

	return cmd
}

// sessionExpired reports whether any upload failed because the login expired.
func sessionExpired(results []models.UploadResult) bool {
	for _, r := range results {
		if r.Err != nil && api.IsAuthExpired(r.Err) {
			return true
		}
	}
	return false
}
