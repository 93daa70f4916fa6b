// Package navigator implements the folder tree navigator: lazy,
// one-level-at-a-time browsing of the DMS hierarchy with a breadcrumb stack
// and an independently selected upload destination.
//
// Every action fetches first and commits after. A failed fetch returns the
// typed error and leaves breadcrumbs, listing and selection untouched.
package navigator

import (
	"context"
	"strings"
	"sync"

	"github.com/eisenvault/evshare/internal/api"
	"github.com/eisenvault/evshare/internal/constants"
	"github.com/eisenvault/evshare/internal/events"
	"github.com/eisenvault/evshare/internal/logging"
	"github.com/eisenvault/evshare/internal/models"
)

// State is a snapshot of the navigator.
type State struct {
	// Breadcrumbs is the path from the root, outermost first. Empty at root.
	Breadcrumbs []models.FolderNode
	// Listing is the browsable content of the current level.
	Listing []models.FolderNode
	// Selected is the upload destination, nil until chosen.
	Selected *models.FolderNode
}

// AtRoot reports whether the navigator shows the site/department list.
func (s State) AtRoot() bool {
	return len(s.Breadcrumbs) == 0
}

// Current returns the folder being browsed, nil at root.
func (s State) Current() *models.FolderNode {
	if len(s.Breadcrumbs) == 0 {
		return nil
	}
	node := s.Breadcrumbs[len(s.Breadcrumbs)-1]
	return &node
}

func (s State) clone() State {
	out := State{
		Breadcrumbs: append([]models.FolderNode(nil), s.Breadcrumbs...),
		Listing:     append([]models.FolderNode(nil), s.Listing...),
	}
	if s.Selected != nil {
		sel := *s.Selected
		out.Selected = &sel
	}
	return out
}

// Navigator walks a Backend's folder tree.
type Navigator struct {
	backend api.Backend
	bus     *events.EventBus
	logger  *logging.Logger

	// actionMu serializes actions for their whole duration, fetch included.
	actionMu sync.Mutex
	// stateMu guards state so snapshots can be taken while an action is in flight.
	stateMu sync.RWMutex
	state   State
}

// New creates a navigator at root with an empty listing. Call Load to fetch it.
// bus and logger may be nil.
func New(backend api.Backend, bus *events.EventBus, logger *logging.Logger) *Navigator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Navigator{backend: backend, bus: bus, logger: logger}
}

// Backend returns the backend the navigator browses.
func (n *Navigator) Backend() api.Backend {
	return n.backend
}

// State returns a copy of the current state. Safe from any goroutine.
func (n *Navigator) State() State {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.state.clone()
}

// Breadcrumb returns the name of the current folder, or the root placeholder.
func (n *Navigator) Breadcrumb() string {
	if cur := n.State().Current(); cur != nil {
		return cur.Name
	}
	return constants.RootBreadcrumb
}

// Path returns the breadcrumb names joined with " / ", or the root placeholder.
func (n *Navigator) Path() string {
	st := n.State()
	if st.AtRoot() {
		return constants.RootBreadcrumb
	}
	names := make([]string, len(st.Breadcrumbs))
	for i, b := range st.Breadcrumbs {
		names[i] = b.Name
	}
	return strings.Join(names, " / ")
}

// Load fetches the root listing and moves to root. The selection is kept.
func (n *Navigator) Load(ctx context.Context) error {
	n.actionMu.Lock()
	defer n.actionMu.Unlock()

	listing, err := n.backend.ListRoot(ctx)
	if err != nil {
		return err
	}
	n.commit(events.NavLoad, func(s *State) {
		s.Breadcrumbs = nil
		s.Listing = listing
	})
	return nil
}

// Into navigates into node, which must be an entry of the current listing.
func (n *Navigator) Into(ctx context.Context, node models.FolderNode) error {
	n.actionMu.Lock()
	defer n.actionMu.Unlock()

	if !contains(n.State().Listing, node) {
		return api.NewValidationError("open folder", "folder is not in the current listing")
	}

	listing, err := n.backend.ListChildren(ctx, node)
	if err != nil {
		n.logger.Debug().Err(err).Str("folder", node.Name).Msg("Navigation failed")
		return err
	}
	n.commit(events.NavInto, func(s *State) {
		s.Breadcrumbs = append(s.Breadcrumbs, node)
		s.Listing = listing
	})
	return nil
}

// Back pops one level and refetches it. From depth one it returns to root;
// at root it refetches the root listing.
func (n *Navigator) Back(ctx context.Context) error {
	n.actionMu.Lock()
	defer n.actionMu.Unlock()

	crumbs := n.State().Breadcrumbs
	parent := crumbs
	if len(parent) > 0 {
		parent = parent[:len(parent)-1]
	}

	listing, err := n.fetchLevel(ctx, parent)
	if err != nil {
		return err
	}
	n.commit(events.NavBack, func(s *State) {
		s.Breadcrumbs = parent
		s.Listing = listing
	})
	return nil
}

// Refresh refetches the current level.
func (n *Navigator) Refresh(ctx context.Context) error {
	n.actionMu.Lock()
	defer n.actionMu.Unlock()
	return n.refreshLocked(ctx)
}

func (n *Navigator) refreshLocked(ctx context.Context) error {
	crumbs := n.State().Breadcrumbs
	listing, err := n.fetchLevel(ctx, crumbs)
	if err != nil {
		return err
	}
	n.commit(events.NavRefresh, func(s *State) {
		s.Listing = listing
	})
	return nil
}

// SelectDestination records node as the upload destination without moving.
// node must be in the current listing or be the current folder itself.
func (n *Navigator) SelectDestination(node models.FolderNode) error {
	n.actionMu.Lock()
	defer n.actionMu.Unlock()

	st := n.State()
	cur := st.Current()
	if !contains(st.Listing, node) && (cur == nil || !sameNode(*cur, node)) {
		return api.NewValidationError("select destination", "folder is not in the current listing")
	}
	n.commit(events.NavSelect, func(s *State) {
		s.Selected = &node
	})
	return nil
}

// SelectCurrent selects the folder being browsed ("upload to this level").
func (n *Navigator) SelectCurrent() error {
	n.actionMu.Lock()
	defer n.actionMu.Unlock()

	cur := n.State().Current()
	if cur == nil {
		return api.NewValidationError("select destination", "no destination selected")
	}
	n.commit(events.NavSelect, func(s *State) {
		s.Selected = cur
	})
	return nil
}

// ChangeDestination clears the selection. When browsing deeper than one
// level it also resets to root, fetching the root listing first.
func (n *Navigator) ChangeDestination(ctx context.Context) error {
	n.actionMu.Lock()
	defer n.actionMu.Unlock()

	if len(n.State().Breadcrumbs) <= 1 {
		n.commit(events.NavSelect, func(s *State) {
			s.Selected = nil
		})
		return nil
	}

	listing, err := n.backend.ListRoot(ctx)
	if err != nil {
		return err
	}
	n.commit(events.NavReset, func(s *State) {
		s.Breadcrumbs = nil
		s.Listing = listing
		s.Selected = nil
	})
	return nil
}

// fetchLevel lists the level whose breadcrumb path is crumbs.
func (n *Navigator) fetchLevel(ctx context.Context, crumbs []models.FolderNode) ([]models.FolderNode, error) {
	if len(crumbs) == 0 {
		return n.backend.ListRoot(ctx)
	}
	return n.backend.ListChildren(ctx, crumbs[len(crumbs)-1])
}

// commit applies mutate under the state lock and publishes the result.
func (n *Navigator) commit(action events.NavAction, mutate func(*State)) {
	n.stateMu.Lock()
	mutate(&n.state)
	snapshot := n.state.clone()
	n.stateMu.Unlock()

	n.logger.Debug().
		Str("action", string(action)).
		Int("depth", len(snapshot.Breadcrumbs)).
		Int("entries", len(snapshot.Listing)).
		Msg("Navigator")
	n.bus.PublishNavigation(action, snapshot.Breadcrumbs, len(snapshot.Listing), snapshot.Selected)
}

func contains(listing []models.FolderNode, node models.FolderNode) bool {
	for _, entry := range listing {
		if sameNode(entry, node) {
			return true
		}
	}
	return false
}

// sameNode compares identity; names are display labels only.
func sameNode(a, b models.FolderNode) bool {
	return a.ID == b.ID && a.Kind == b.Kind
}
