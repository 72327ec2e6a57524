// Package session owns one player's crafting grid and inventory and runs their
// crafting transactions one at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"craftguard/internal/sim/crafting"
	"craftguard/internal/sim/grid"
	"craftguard/internal/sim/item"
	"craftguard/internal/sim/transaction"
)

// CraftEvent is handed to the Executor after validation and before any slot
// is touched. Cancelling it turns the transaction into a rejection.
type CraftEvent struct {
	PlayerID   string
	TxID       string
	Recipe     crafting.Recipe
	Iterations int

	cancelled bool
}

func (e *CraftEvent) Cancel()         { e.cancelled = true }
func (e *CraftEvent) Cancelled() bool { return e.cancelled }

type Executor interface {
	OnCraft(ctx context.Context, ev *CraftEvent)
}

type ExecutorFunc func(ctx context.Context, ev *CraftEvent)

func (f ExecutorFunc) OnCraft(ctx context.Context, ev *CraftEvent) { f(ctx, ev) }

// Notifier forces the client to close its crafting window. The grid is
// client-local and cannot be resent, so this is the only way to resync it.
type Notifier interface {
	ForceClose(playerID string)
}

type Rewarder interface {
	AwardAchievement(playerID, name string)
}

type Auditor interface {
	WriteCraftAudit(e AuditEntry) error
}

type AuditEntry struct {
	TxID       string                   `json:"tx_id"`
	Time       string                   `json:"time"`
	PlayerID   string                   `json:"player_id"`
	Accepted   bool                     `json:"accepted"`
	Reason     string                   `json:"reason,omitempty"`
	Detail     string                   `json:"detail,omitempty"`
	RecipeID   string                   `json:"recipe_id,omitempty"`
	Iterations int                      `json:"iterations,omitempty"`
	GridWidth  int                      `json:"grid_width"`
	Grid       []item.Stack             `json:"grid"`
	Actions    []transaction.SlotChange `json:"actions"`
	Outputs    []item.Stack             `json:"outputs,omitempty"`
	Inputs     []item.Stack             `json:"inputs,omitempty"`
}

type Outcome struct {
	TxID         string
	Accepted     bool
	Reason       crafting.Reason
	Detail       string
	RecipeID     string
	Iterations   int
	Achievements []string
}

type Config struct {
	PlayerID       string
	GridWidth      int
	InventorySlots int
}

type Option func(*Session)

func WithExecutor(e Executor) Option { return func(s *Session) { s.executor = e } }
func WithNotifier(n Notifier) Option { return func(s *Session) { s.notifier = n } }
func WithRewarder(r Rewarder) Option { return func(s *Session) { s.rewarder = r } }
func WithAuditor(a Auditor) Option   { return func(s *Session) { s.auditor = a } }
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

type Session struct {
	mu sync.Mutex

	id        string
	grid      *grid.Grid
	inv       *Inventory
	validator *crafting.Validator

	executor Executor
	notifier Notifier
	rewarder Rewarder
	auditor  Auditor
	log      *log.Logger

	now func() time.Time
}

func New(cfg Config, v *crafting.Validator, opts ...Option) *Session {
	width := cfg.GridWidth
	if width <= 0 {
		width = grid.SmallWidth
	}
	slots := cfg.InventorySlots
	if slots <= 0 {
		slots = 36
	}
	s := &Session{
		id:        cfg.PlayerID,
		grid:      grid.New(cfg.PlayerID, width),
		inv:       NewInventory(slots),
		validator: v,
		log:       log.New(io.Discard, "", 0),
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) GridWidth() int { return s.grid.Width() }

// SetGridItem places an item in the client-local grid.
func (s *Session) SetGridItem(slot int, st item.Stack) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.SetItem(slot, st)
}

func (s *Session) SetInventoryItem(slot int, st item.Stack) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inv.SetItem(slot, st)
}

// Item reads one slot of either inventory.
func (s *Session) Item(inventory string, slot int) (item.Stack, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.SlotItem(inventory, slot)
}

// SlotItem is the unlocked read used while a submission holds the lock.
func (s *Session) SlotItem(inventory string, slot int) (item.Stack, bool) {
	switch inventory {
	case transaction.InventoryCrafting:
		st, err := s.grid.Item(slot)
		return st, err == nil
	case transaction.InventoryPlayer:
		return s.inv.Item(slot)
	default:
		return item.Air, false
	}
}

func (s *Session) setSlot(inventory string, slot int, st item.Stack) error {
	switch inventory {
	case transaction.InventoryCrafting:
		return s.grid.SetItem(slot, st)
	case transaction.InventoryPlayer:
		return s.inv.SetItem(slot, st)
	default:
		return fmt.Errorf("unknown inventory %q", inventory)
	}
}

// Submit validates and, if accepted, executes one crafting transaction.
// Rejections are reported in the Outcome with a nil error; a non-nil error is
// a fault. Nothing is applied unless the outcome is accepted.
func (s *Session) Submit(ctx context.Context, txID string, actions []transaction.SlotChange) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if txID == "" {
		txID = uuid.Must(uuid.NewV7()).String()
	}
	entry := AuditEntry{
		TxID:      txID,
		Time:      s.now().UTC().Format(time.RFC3339Nano),
		PlayerID:  s.id,
		GridWidth: s.grid.Width(),
		Grid:      s.grid.Contents(),
		Actions:   actions,
	}
	out := Outcome{TxID: txID}

	squashed, delta, err := transaction.Build(actions, s)
	if err != nil {
		return s.refuse(out, entry, crafting.Reject(crafting.ReasonStaleAction, "%v", err))
	}
	entry.Outputs, entry.Inputs = delta.Outputs, delta.Inputs
	for _, a := range squashed {
		live, ok := s.SlotItem(a.Inventory, a.Slot)
		if !ok || !live.Same(a.Source) {
			return s.refuse(out, entry, crafting.Reject(crafting.ReasonStaleAction, "%s slot %d holds %s, not %s", a.Inventory, a.Slot, live, a.Source))
		}
	}

	res, err := s.validator.Validate(s.grid.Trim(), delta)
	if err != nil {
		return s.refuse(out, entry, err)
	}

	ev := &CraftEvent{PlayerID: s.id, TxID: txID, Recipe: res.Recipe, Iterations: res.Iterations}
	if s.executor != nil {
		s.executor.OnCraft(ctx, ev)
	}
	if ev.Cancelled() {
		return s.refuse(out, entry, crafting.Reject(crafting.ReasonCancelled, "craft event cancelled"))
	}
	if err := ctx.Err(); err != nil {
		return s.refuse(out, entry, crafting.Reject(crafting.ReasonCancelled, "%v", err))
	}

	for _, a := range squashed {
		if err := s.setSlot(a.Inventory, a.Slot, a.Target); err != nil {
			// Slots were checked above; a failure here means state changed under the lock.
			return out, fmt.Errorf("apply %s slot %d: %w", a.Inventory, a.Slot, err)
		}
	}

	out.Accepted = true
	out.RecipeID = res.Recipe.ID()
	out.Iterations = res.Iterations
	out.Achievements = crafting.Achievements(res.Recipe.Results())
	if s.rewarder != nil {
		for _, a := range out.Achievements {
			s.rewarder.AwardAchievement(s.id, a)
		}
	}

	entry.Accepted = true
	entry.RecipeID = out.RecipeID
	entry.Iterations = out.Iterations
	s.audit(entry)
	s.log.Printf("craft ok player=%s tx=%s recipe=%s iterations=%d", s.id, txID, out.RecipeID, out.Iterations)
	return out, nil
}

func (s *Session) refuse(out Outcome, entry AuditEntry, err error) (Outcome, error) {
	if s.notifier != nil {
		s.notifier.ForceClose(s.id)
	}

	var rej *crafting.Rejection
	if !errors.As(err, &rej) {
		entry.Reason = "FAULT"
		entry.Detail = err.Error()
		s.audit(entry)
		s.log.Printf("craft fault player=%s tx=%s: %v", s.id, out.TxID, err)
		return out, err
	}

	out.Reason = rej.Reason
	out.Detail = rej.Detail
	entry.Reason = string(rej.Reason)
	entry.Detail = rej.Detail
	s.audit(entry)
	s.log.Printf("craft rejected player=%s tx=%s reason=%s %s", s.id, out.TxID, rej.Reason, rej.Detail)
	return out, nil
}

func (s *Session) audit(e AuditEntry) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.WriteCraftAudit(e); err != nil {
		s.log.Printf("audit tx=%s: %v", e.TxID, err)
	}
}
