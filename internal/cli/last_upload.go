package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// newLastUploadCmd creates the 'last-upload' command.
func newLastUploadCmd() *cobra.Command {
	var keep bool

	cmd := &cobra.Command{
		Use:   "last-upload",
		Short: "Show the last completed share upload",
		Long: `Show the summary left by the last fully successful share upload.

The summary is cleared after it is shown, the way the EisenVault app
consumes it. Use --keep to leave it in place.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := openStore()

			summary, err := store.TakeUploadSummary()
			if err != nil {
				return err
			}
			if summary == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No upload recorded")
				return nil
			}
			if keep {
				if err := store.SaveUploadSummary(*summary); err != nil {
					return err
				}
			}

			sec := int64(summary.Timestamp)
			at := time.Unix(sec, int64((summary.Timestamp-float64(sec))*float64(time.Second)))
			fmt.Fprintf(cmd.OutOrStdout(), "Folder:   %s (%s)\n", summary.Folder, summary.FolderID)
			fmt.Fprintf(cmd.OutOrStdout(), "Files:    %d\n", summary.FileCount)
			fmt.Fprintf(cmd.OutOrStdout(), "Finished: %s\n", at.Format(time.RFC1123))
			fmt.Fprintf(cmd.OutOrStdout(), "Status:   %s\n", summary.Status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&keep, "keep", false, "Do not clear the summary")

	return cmd
}
