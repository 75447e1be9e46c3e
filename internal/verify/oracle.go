package verify

import (
	"fmt"
	"time"

	"github.com/dshills/infopane/internal/editor"
	"github.com/dshills/infopane/internal/handle"
	"github.com/dshills/infopane/internal/infoview"
)

// Decl declares which instances underwent which transitions during the
// step under check. Every live instance not mentioned is inferred to have
// taken the steady successor of its previous transition.
type Decl struct {
	// Views maps exercised Infoview IDs to their transition.
	Views map[infoview.ViewID]ViewTransition

	// Infos maps exercised Info IDs to their transition. Infos minted by
	// a from-init view transition may be omitted; content-opened is
	// inferred for them.
	Infos map[infoview.InfoID]InfoTransition

	// Torn lists Infoviews torn down since the previous check. Their
	// owned Infos are accounted for implicitly.
	Torn []infoview.ViewID

	// Discarded lists Infos replaced (not torn down with their view)
	// since the previous check.
	Discarded []infoview.InfoID
}

type prevView struct {
	check  ViewTransition
	win    editor.Handle
	infoID infoview.InfoID
}

type prevInfo struct {
	check InfoTransition
	buf   editor.Handle
	owner infoview.ViewID
}

// Oracle walks all live Infoview and Info instances each check cycle,
// validates declared and inferred transitions, and confirms the implied
// window and buffer handle deltas through the handle tracker.
//
// The active-handle expectations assume a source window outlives the
// panels, matching editor reality: opening or closing a panel window moves
// focus, so the active window and buffer change exactly when a window was
// created or destroyed this cycle.
type Oracle struct {
	store   *infoview.Store
	surface editor.Surface
	tracker *handle.Tracker

	changeTimeout time.Duration
	stableWindow  time.Duration
	poll          time.Duration

	prevViews map[infoview.ViewID]prevView
	prevInfos map[infoview.InfoID]prevInfo
}

// OracleOption configures an Oracle.
type OracleOption func(*Oracle)

// WithChangeTimeout bounds the wait for an expected content change.
func WithChangeTimeout(d time.Duration) OracleOption {
	return func(o *Oracle) { o.changeTimeout = d }
}

// WithStableWindow sets the observation window for expected stability.
func WithStableWindow(d time.Duration) OracleOption {
	return func(o *Oracle) { o.stableWindow = d }
}

// NewOracle creates an oracle over the store and surface, with a handle
// tracker baselined on the surface's current state.
func NewOracle(store *infoview.Store, surface editor.Surface, opts ...OracleOption) *Oracle {
	o := &Oracle{
		store:         store,
		surface:       surface,
		tracker:       handle.NewTracker(surface),
		changeTimeout: 3 * time.Second,
		stableWindow:  300 * time.Millisecond,
		poll:          20 * time.Millisecond,
		prevViews:     make(map[infoview.ViewID]prevView),
		prevInfos:     make(map[infoview.InfoID]prevInfo),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Tracker returns the oracle's handle tracker, for direct delta checks.
func (o *Oracle) Tracker() *handle.Tracker {
	return o.tracker
}

// Check validates one cycle of transitions. On success all previous-state
// bookkeeping advances to seed the next cycle; on failure state is left as
// is for inspection and the error carries an expected-vs-actual rendering.
func (o *Oracle) Check(decl Decl) error {
	torn := idSet(decl.Torn)
	discarded := infoIDSet(decl.Discarded)

	if err := o.checkDeclTargets(decl, torn, discarded); err != nil {
		return err
	}
	if err := o.checkAccounting(torn, discarded); err != nil {
		return err
	}

	views := o.store.Views()
	viewTrans, err := o.resolveViewTransitions(views, decl)
	if err != nil {
		return err
	}

	owners, err := o.checkOwnership(views)
	if err != nil {
		return err
	}

	for _, v := range views {
		if err := o.checkView(v, viewTrans[v.ID()], discarded); err != nil {
			return err
		}
	}

	infos := o.store.Infos()
	infoTrans, err := o.resolveInfoTransitions(infos, decl, owners, viewTrans)
	if err != nil {
		return err
	}

	for _, info := range infos {
		if err := o.checkInfo(info, infoTrans[info.ID()]); err != nil {
			return err
		}
	}

	if err := o.trackHandles(views, viewTrans, infos, infoTrans, torn, discarded); err != nil {
		return err
	}

	o.advance(views, viewTrans, infos, infoTrans, owners)
	return nil
}

// checkDeclTargets rejects declarations that reference no live instance
// and destruction declarations that reference a live one.
func (o *Oracle) checkDeclTargets(decl Decl, torn map[infoview.ViewID]struct{}, discarded map[infoview.InfoID]struct{}) error {
	for id := range decl.Views {
		if _, ok := o.store.View(id); !ok {
			return fmt.Errorf("%w: infoview %d", ErrDanglingDecl, id)
		}
	}
	for id := range decl.Infos {
		if _, ok := o.store.InfoByID(id); !ok {
			return fmt.Errorf("%w: info %d", ErrDanglingDecl, id)
		}
	}
	for id := range torn {
		if _, ok := o.store.View(id); ok {
			return fmt.Errorf("%w: infoview %d declared torn", ErrStillLive, id)
		}
	}
	for id := range discarded {
		if _, ok := o.store.InfoByID(id); ok {
			return fmt.Errorf("%w: info %d declared discarded", ErrStillLive, id)
		}
	}
	return nil
}

// checkAccounting requires every instance alive at the previous cycle to
// be checked again or explicitly destroyed this cycle.
func (o *Oracle) checkAccounting(torn map[infoview.ViewID]struct{}, discarded map[infoview.InfoID]struct{}) error {
	for id := range o.prevViews {
		if _, live := o.store.View(id); live {
			continue
		}
		if _, ok := torn[id]; !ok {
			return fmt.Errorf("%w: infoview %d", ErrDisappeared, id)
		}
	}
	for id, pi := range o.prevInfos {
		if _, live := o.store.InfoByID(id); live {
			continue
		}
		if _, ok := discarded[id]; ok {
			continue
		}
		if _, ok := torn[pi.owner]; ok {
			continue
		}
		return fmt.Errorf("%w: info %d", ErrDisappeared, id)
	}
	return nil
}

func (o *Oracle) resolveViewTransitions(views []*infoview.Infoview, decl Decl) (map[infoview.ViewID]ViewTransition, error) {
	out := make(map[infoview.ViewID]ViewTransition, len(views))
	for _, v := range views {
		if t, ok := decl.Views[v.ID()]; ok {
			out[v.ID()] = t
			continue
		}
		pv, ok := o.prevViews[v.ID()]
		if !ok {
			return nil, fmt.Errorf("%w: infoview %d", ErrUndeclared, v.ID())
		}
		out[v.ID()] = SteadySuccessor(pv.check)
	}
	return out, nil
}

// checkOwnership enforces that every live Infoview owns exactly one Info
// and that no Info has two owners. Returns info -> owner.
func (o *Oracle) checkOwnership(views []*infoview.Infoview) (map[infoview.InfoID]infoview.ViewID, error) {
	owners := make(map[infoview.InfoID]infoview.ViewID, len(views))
	for _, v := range views {
		info := v.Info()
		if info == nil {
			return nil, fmt.Errorf("%w: infoview %d owns no info", ErrInvariant, v.ID())
		}
		if _, ok := o.store.InfoByID(info.ID()); !ok {
			return nil, fmt.Errorf("%w: infoview %d owns unregistered info %d", ErrInvariant, v.ID(), info.ID())
		}
		if prior, ok := owners[info.ID()]; ok {
			return nil, fmt.Errorf("%w: info %d owned by infoviews %d and %d", ErrInvariant, info.ID(), prior, v.ID())
		}
		owners[info.ID()] = v.ID()
	}
	return owners, nil
}

func (o *Oracle) checkView(v *infoview.Infoview, t ViewTransition, discarded map[infoview.InfoID]struct{}) error {
	id := v.ID()
	pv, hadPrev := o.prevViews[id]

	if t.isFromInit() && hadPrev {
		return fmt.Errorf("%w: infoview %d declared %s but was already checked as %s",
			ErrInvariant, id, t, pv.check)
	}
	if !t.isFromInit() && !hadPrev {
		return fmt.Errorf("%w: infoview %d declared %s but has no prior check",
			ErrInvariant, id, t)
	}

	// is_open == true iff the window is a valid live handle.
	if v.IsOpen() != t.isOpenFamily() {
		return fmt.Errorf("%w: infoview %d is_open = %v, want %v for %s",
			ErrInvariant, id, v.IsOpen(), t.isOpenFamily(), t)
	}

	switch t {
	case Opened, OpenedFromInit:
		if !o.surface.ValidWindow(v.Win()) {
			return fmt.Errorf("%w: infoview %d %s with invalid window %d", ErrInvariant, id, t, v.Win())
		}
		if v.Win() == v.PrevWin {
			return fmt.Errorf("%w: infoview %d %s reusing previous window %d", ErrInvariant, id, t, v.Win())
		}
		if wb, err := o.surface.WindowBuffer(v.Win()); err != nil || wb != v.Info().Buf() {
			return fmt.Errorf("%w: infoview %d window %d does not display info buffer %d",
				ErrInvariant, id, v.Win(), v.Info().Buf())
		}
		if t == Opened {
			if pv.check.isOpenFamily() {
				return fmt.Errorf("%w: infoview %d opened but previous check was %s", ErrInvariant, id, pv.check)
			}
			// Reopening never mints a new Info.
			if v.Info().ID() != v.PrevInfoID {
				if _, ok := discarded[v.PrevInfoID]; !ok {
					return fmt.Errorf("%w: infoview %d swapped info %d for %d without a discard declaration",
						ErrInvariant, id, v.PrevInfoID, v.Info().ID())
				}
			}
		}

	case KeptOpen:
		if !o.surface.ValidWindow(v.Win()) {
			return fmt.Errorf("%w: infoview %d kept-open with invalid window %d", ErrInvariant, id, v.Win())
		}
		if v.Win() != v.PrevWin {
			return fmt.Errorf("%w: infoview %d kept-open but window changed %d -> %d",
				ErrInvariant, id, v.PrevWin, v.Win())
		}
		if !pv.check.isOpenFamily() {
			return fmt.Errorf("%w: infoview %d kept-open but previous check was %s", ErrInvariant, id, pv.check)
		}

	case Closed:
		if v.Win() != editor.None {
			return fmt.Errorf("%w: infoview %d closed but window = %d", ErrInvariant, id, v.Win())
		}
		if v.PrevWin == editor.None {
			return fmt.Errorf("%w: infoview %d closed with no previous window recorded", ErrInvariant, id)
		}
		if o.surface.ValidWindow(v.PrevWin) {
			return fmt.Errorf("%w: infoview %d closed but previous window %d still valid",
				ErrInvariant, id, v.PrevWin)
		}
		if !pv.check.isOpenFamily() {
			return fmt.Errorf("%w: infoview %d closed but previous check was %s", ErrInvariant, id, pv.check)
		}

	case ClosedFromInit:
		if v.Win() != editor.None {
			return fmt.Errorf("%w: infoview %d closed-from-init but window = %d", ErrInvariant, id, v.Win())
		}

	case KeptClosed:
		if v.Win() != editor.None {
			return fmt.Errorf("%w: infoview %d kept-closed but window = %d", ErrInvariant, id, v.Win())
		}
		if pv.check.isOpenFamily() {
			return fmt.Errorf("%w: infoview %d kept-closed but previous check was %s", ErrInvariant, id, pv.check)
		}

	default:
		return fmt.Errorf("%w: infoview %d declared invalid transition", ErrInvariant, id)
	}

	// The info buffer stays live across every view transition.
	if !o.surface.ValidBuffer(v.Info().Buf()) {
		return fmt.Errorf("%w: infoview %d info %d has invalid buffer %d",
			ErrInvariant, id, v.Info().ID(), v.Info().Buf())
	}

	return nil
}

func (o *Oracle) resolveInfoTransitions(infos []*infoview.Info, decl Decl, owners map[infoview.InfoID]infoview.ViewID, viewTrans map[infoview.ViewID]ViewTransition) (map[infoview.InfoID]InfoTransition, error) {
	out := make(map[infoview.InfoID]InfoTransition, len(infos))
	for _, info := range infos {
		id := info.ID()
		if t, ok := decl.Infos[id]; ok {
			out[id] = t
			continue
		}
		if pi, ok := o.prevInfos[id]; ok {
			out[id] = InfoSteadySuccessor(pi.check)
			continue
		}
		// A brand-new Info is only inferable when its owner minted it
		// this cycle; a replacement must be declared.
		owner, ok := owners[id]
		if ok && viewTrans[owner].isFromInit() {
			out[id] = ContentOpened
			continue
		}
		return nil, fmt.Errorf("%w: info %d", ErrUndeclared, id)
	}
	return out, nil
}

func (o *Oracle) checkInfo(info *infoview.Info, t InfoTransition) error {
	id := info.ID()
	_, hadPrev := o.prevInfos[id]

	switch t {
	case ContentOpened:
		if hadPrev {
			return fmt.Errorf("%w: info %d declared content-opened but was already checked", ErrInvariant, id)
		}
		if !o.surface.ValidBuffer(info.Buf()) {
			return fmt.Errorf("%w: info %d content-opened with invalid buffer %d", ErrInvariant, id, info.Buf())
		}

	case ContentChanged:
		if !hadPrev {
			return fmt.Errorf("%w: info %d declared content-changed but has no prior check", ErrInvariant, id)
		}
		if !waitFor(o.changeTimeout, o.poll, func() bool { return info.Msg() != info.PrevMsg }) {
			return fmt.Errorf("%w: info %d message still %q", ErrChangeTimeout, id, info.PrevMsg)
		}

	case ContentKept:
		if !hadPrev {
			return fmt.Errorf("%w: info %d declared kept but has no prior check", ErrInvariant, id)
		}
		if !holdFor(o.stableWindow, o.poll, func() bool { return info.Msg() == info.PrevMsg }) {
			return fmt.Errorf("%w: info %d expected %q, now %q", ErrUnexpectedChange, id, info.PrevMsg, info.Msg())
		}

	default:
		return fmt.Errorf("%w: info %d declared invalid transition", ErrInvariant, id)
	}

	return nil
}

// trackHandles aggregates the window and buffer deltas implied by all
// transitions and confirms them through the handle tracker, so one check
// validates domain state and OS-handle side effects together.
func (o *Oracle) trackHandles(views []*infoview.Infoview, viewTrans map[infoview.ViewID]ViewTransition, infos []*infoview.Info, infoTrans map[infoview.InfoID]InfoTransition, torn map[infoview.ViewID]struct{}, discarded map[infoview.InfoID]struct{}) error {
	var createdWins, removedWins, createdBufs, removedBufs []editor.Handle

	for _, v := range views {
		switch viewTrans[v.ID()] {
		case Opened, OpenedFromInit:
			createdWins = append(createdWins, v.Win())
		case Closed:
			removedWins = append(removedWins, v.PrevWin)
		}
	}

	for _, info := range infos {
		if infoTrans[info.ID()] == ContentOpened {
			createdBufs = append(createdBufs, info.Buf())
		}
	}

	for id := range torn {
		pv, ok := o.prevViews[id]
		if !ok {
			continue
		}
		if pv.win != editor.None {
			removedWins = append(removedWins, pv.win)
		}
		if pi, ok := o.prevInfos[pv.infoID]; ok {
			removedBufs = append(removedBufs, pi.buf)
		}
	}

	for id := range discarded {
		if pi, ok := o.prevInfos[id]; ok {
			removedBufs = append(removedBufs, pi.buf)
		}
	}

	winChange := len(createdWins)+len(removedWins) > 0

	if err := o.tracker.Track(editor.KindWindow, createdWins, removedWins, winChange); err != nil {
		return err
	}

	// Focus follows windows: the active buffer moves exactly when a
	// panel window opened or closed, except on a surface that had no
	// buffers at all before this cycle.
	bufChange := winChange
	if !winChange && o.tracker.Active(editor.KindBuffer) == editor.None && len(createdBufs) > 0 {
		bufChange = true
	}
	if err := o.tracker.Track(editor.KindBuffer, createdBufs, removedBufs, bufChange); err != nil {
		return err
	}

	return nil
}

// advance seeds the next cycle: entity Prev fields and the oracle's own
// transition records move to the just-verified state.
func (o *Oracle) advance(views []*infoview.Infoview, viewTrans map[infoview.ViewID]ViewTransition, infos []*infoview.Info, infoTrans map[infoview.InfoID]InfoTransition, owners map[infoview.InfoID]infoview.ViewID) {
	o.prevViews = make(map[infoview.ViewID]prevView, len(views))
	for _, v := range views {
		v.PrevWin = v.Win()
		v.PrevInfoID = v.Info().ID()
		o.prevViews[v.ID()] = prevView{
			check:  viewTrans[v.ID()],
			win:    v.Win(),
			infoID: v.Info().ID(),
		}
	}

	o.prevInfos = make(map[infoview.InfoID]prevInfo, len(infos))
	for _, info := range infos {
		info.PrevMsg = info.Msg()
		info.PrevBuf = info.Buf()
		o.prevInfos[info.ID()] = prevInfo{
			check: infoTrans[info.ID()],
			buf:   info.Buf(),
			owner: owners[info.ID()],
		}
	}
}

func idSet(ids []infoview.ViewID) map[infoview.ViewID]struct{} {
	set := make(map[infoview.ViewID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func infoIDSet(ids []infoview.InfoID) map[infoview.InfoID]struct{} {
	set := make(map[infoview.InfoID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
