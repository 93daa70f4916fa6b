package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eisenvault/evshare/internal/api"
	"github.com/eisenvault/evshare/internal/models"
	"github.com/eisenvault/evshare/internal/navigator"
)

// errBrowseCancelled is returned when the user quits without picking a folder.
var errBrowseCancelled = errors.New("cancelled")

const browseHelp = `Commands:
  <n>          open entry n
  b, ..        go back one level
  s <n>        select entry n as the destination
  s            select the current folder
  c            change destination
  n <name>     create a folder here
  r            refresh
  u            upload to the selected destination
  q            quit
  ?            show this help`

// browser is the interactive folder picker.
type browser struct {
	nav    *navigator.Navigator
	in     *bufio.Reader
	out    io.Writer
	create navigator.CreateOptions
}

// run loops until the user confirms a destination or quits.
func (b *browser) run(ctx context.Context) (*models.FolderNode, error) {
	if err := b.nav.Load(ctx); err != nil {
		return nil, displayError(err)
	}
	b.render()

	for {
		line, err := readLine(b.in, b.out, "> ")
		if err != nil {
			if err == io.EOF {
				return nil, errBrowseCancelled
			}
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		var actionErr error
		switch strings.ToLower(cmd) {
		case "":
			continue
		case "?", "h", "help":
			fmt.Fprintln(b.out, browseHelp)
			continue
		case "q", "quit", "exit":
			return nil, errBrowseCancelled
		case "b", "..", "back":
			actionErr = b.nav.Back(ctx)
		case "r", "refresh":
			actionErr = b.nav.Refresh(ctx)
		case "c", "change":
			actionErr = b.nav.ChangeDestination(ctx)
		case "s", "select":
			if arg == "" || arg == "." {
				actionErr = b.nav.SelectCurrent()
			} else if node, err := b.entry(arg); err != nil {
				actionErr = err
			} else {
				actionErr = b.nav.SelectDestination(node)
			}
		case "n", "new", "mkdir":
			var folder *models.FolderNode
			folder, actionErr = b.nav.CreateFolder(ctx, arg, b.create)
			if actionErr == nil {
				fmt.Fprintf(b.out, "✓ Folder %q created\n", folder.Name)
			}
		case "u", "upload", "done":
			if sel := b.nav.State().Selected; sel != nil {
				return sel, nil
			}
			actionErr = errors.New("no destination selected")
		default:
			node, err := b.entry(cmd)
			if err != nil {
				actionErr = err
			} else {
				actionErr = b.nav.Into(ctx, node)
			}
		}

		if actionErr != nil {
			if api.IsAuthExpired(actionErr) {
				return nil, displayError(actionErr)
			}
			fmt.Fprintf(b.out, "Error: %s\n", api.UserMessage(actionErr))
			continue
		}
		b.render()
	}
}

// entry resolves a 1-based listing index.
func (b *browser) entry(arg string) (models.FolderNode, error) {
	listing := b.nav.State().Listing
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(listing) {
		return models.FolderNode{}, fmt.Errorf("unknown command or entry %q (type ? for help)", arg)
	}
	return listing[n-1], nil
}

func (b *browser) render() {
	st := b.nav.State()

	fmt.Fprintln(b.out)
	fmt.Fprintln(b.out, b.nav.Path())
	if st.Selected != nil {
		fmt.Fprintf(b.out, "Destination: %s\n", st.Selected.Name)
	}
	if len(st.Listing) == 0 {
		fmt.Fprintln(b.out, "  (no folders)")
		return
	}
	for i, node := range st.Listing {
		fmt.Fprintf(b.out, "  %2d. %s\n", i+1, node.Name)
	}
}

// newBrowseCmd creates the 'browse' command.
func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse DMS folders and pick a destination",
		Long: `Browse the folder tree of your DMS interactively.

Open entries by number, create folders with "n <name>" and select a
destination with "s <n>". "u" prints the selected folder, which can be
passed to "evshare share --folder-id".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := openSession()
			if err != nil {
				return err
			}
			defer session.Close()

			b := &browser{
				nav: session.Navigator(),
				in:  stdinReader,
				out: cmd.OutOrStdout(),
				create: navigator.CreateOptions{
					CheckPermission: session.Config().CheckCreatePermission,
					Logger:          GetLogger(),
				},
			}
			dest, err := b.run(cmd.Context())
			if errors.Is(err, errBrowseCancelled) {
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Selected: %s\n", dest.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "  --folder-id %s --folder-kind %s\n", dest.ID, dest.Kind)
			return nil
		},
	}
}

// pickDestination runs the browser on the terminal.
func pickDestination(ctx context.Context, nav *navigator.Navigator, create navigator.CreateOptions) (*models.FolderNode, error) {
	if !isInteractive() {
		return nil, errors.New("no destination given: use --folder-id or run in a terminal")
	}
	b := &browser{nav: nav, in: stdinReader, out: os.Stderr, create: create}
	return b.run(ctx)
}
