package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eisenvault/evshare/internal/models"
	"github.com/eisenvault/evshare/internal/navigator"
)

// newFoldersCmd creates the 'folders' command group.
func newFoldersCmd() *cobra.Command {
	foldersCmd := &cobra.Command{
		Use:   "folders",
		Short: "Folder operations (list, create)",
		Long:  `Commands for listing and creating DMS folders without the interactive browser.`,
	}

	foldersCmd.AddCommand(newFoldersListCmd())
	foldersCmd.AddCommand(newFoldersCreateCmd())

	return foldersCmd
}

// newFoldersListCmd creates the 'folders list' command.
func newFoldersListCmd() *cobra.Command {
	var folderID, folderKind, folderName string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sites, departments or subfolders",
		Long: `List the top level of the DMS (sites or departments), or the
subfolders of a folder.

Example:
  # Top level
  evshare folders list

  # Document library of a Classic site
  evshare folders list --folder-id finance --folder-kind site --folder-name Finance`,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := openSession()
			if err != nil {
				return err
			}
			defer session.Close()

			var nodes []models.FolderNode
			if folderID == "" {
				nodes, err = session.Backend().ListRoot(cmd.Context())
			} else {
				nodes, err = session.Backend().ListChildren(cmd.Context(), folderFromFlags(folderID, folderKind, folderName))
			}
			if err != nil {
				return displayError(err)
			}

			if len(nodes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No folders")
				return nil
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-40s %-12s %s\n", "NAME", "KIND", "ID")
			for _, n := range nodes {
				name := n.Name
				if len(name) > 40 {
					name = name[:37] + "..."
				}
				fmt.Fprintf(out, "%-40s %-12s %s\n", name, n.Kind, n.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&folderID, "folder-id", "", "Folder to list (default: top level)")
	cmd.Flags().StringVar(&folderKind, "folder-kind", "folder", "Folder kind: site, container, folder, department")
	cmd.Flags().StringVar(&folderName, "folder-name", "", "Display name of the folder (Classic uses a site's name for its library)")

	return cmd
}

// newFoldersCreateCmd creates the 'folders create' command.
func newFoldersCreateCmd() *cobra.Command {
	var name, parentID, parentKind string
	var noCheck bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new folder",
		Long: `Create a folder inside an existing folder.

Example:
  evshare folders create --name "Q3 Reports" --parent-id 3f1c...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			session, err := openSession()
			if err != nil {
				return err
			}
			defer session.Close()

			parent := folderFromFlags(parentID, parentKind, "")
			parent.Name = displayName(parent)
			folder, err := navigator.CreateFolder(cmd.Context(), session.Backend(), &parent, name, navigator.CreateOptions{
				CheckPermission: session.Config().CheckCreatePermission && !noCheck,
				Logger:          logger,
			})
			if err != nil {
				return displayError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Folder created successfully\n")
			fmt.Fprintf(cmd.OutOrStdout(), "  Name: %s\n", folder.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "  ID: %s\n", folder.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Folder name (required)")
	cmd.Flags().StringVar(&parentID, "parent-id", "", "Parent folder ID (required)")
	cmd.Flags().StringVar(&parentKind, "parent-kind", "folder", "Parent kind: site, container, folder, department")
	cmd.Flags().BoolVar(&noCheck, "no-permission-check", false, "Skip the create-permission pre-check")

	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("parent-id")

	return cmd
}
