package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/booking-ops/core"
	"github.com/warp/booking-ops/derive"
)

// ErrNoState is returned by Store.Load when nothing has been saved yet.
var ErrNoState = errors.New("no saved state")

// Store persists State snapshots.
type Store interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, s *State) error
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller is the single writer of the State. Each command runs on a
// clone; the clone replaces the current state only after the command,
// the TECH-block sweep and persistence have all succeeded.
type Controller struct {
	mu      sync.Mutex
	state   *State
	store   Store
	logger  *slog.Logger
	now     func() time.Time
	onSweep func(SweepSummary)
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithSweepObserver is called after every sweep that blocked something.
func WithSweepObserver(fn func(SweepSummary)) Option {
	return func(c *Controller) { c.onSweep = fn }
}

// NewController loads the last saved state from store, or starts from an
// empty state with the given settings when there is none.
func NewController(ctx context.Context, store Store, settings core.Settings, opts ...Option) (*Controller, error) {
	c := &Controller{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	st, err := store.Load(ctx)
	switch {
	case errors.Is(err, ErrNoState):
		st = NewState(settings)
	case err != nil:
		return nil, fmt.Errorf("load state: %w", err)
	}
	c.state = st
	c.logger.Info("state loaded",
		"version", st.Version,
		"accounts", len(st.Accounts),
		"bookings", len(st.Bookings))
	return c, nil
}

// Now returns the controller's clock reading.
func (c *Controller) Now() time.Time { return c.now() }

// State returns a copy of the current state.
func (c *Controller) State() *State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// =============================================================================
// QUERIES
// =============================================================================

func (c *Controller) Model() *derive.Model {
	st := c.State()
	return derive.Derive(st.Input(c.now()))
}

func (c *Controller) Rewards() derive.RewardPipeline {
	st := c.State()
	in := st.Input(c.now())
	return derive.Rewards(in, derive.Derive(in))
}

func (c *Controller) Trend(days int) []derive.TrendPoint {
	st := c.State()
	return derive.NetTrend(st.Bookings, st.Sales, days, c.now())
}

func (c *Controller) Export() Snapshot {
	return Export(c.State(), c.now())
}

func (c *Controller) Audit() []core.AuditEntry {
	return c.State().Audit
}

// =============================================================================
// COMMANDS
// =============================================================================

func (c *Controller) IngestBookings(ctx context.Context, text string) (BookingSummary, error) {
	var sum BookingSummary
	err := c.apply(ctx, "ingest bookings", func(s *State, now time.Time) error {
		sum = IngestBookings(s, text, now)
		return nil
	})
	if err != nil {
		return BookingSummary{}, err
	}
	c.logger.Info("bookings ingested",
		"added", sum.Added,
		"dupSkipped", sum.DupSkipped,
		"accCreated", sum.AccCreated,
		"hotelCreated", sum.HotelCreated,
		"errors", len(sum.Errors))
	return sum, nil
}

func (c *Controller) IngestAccounts(ctx context.Context, text string) (AccountsSummary, error) {
	var sum AccountsSummary
	err := c.apply(ctx, "ingest accounts", func(s *State, now time.Time) error {
		sum = IngestAccounts(s, text, now)
		return nil
	})
	if err != nil {
		return AccountsSummary{}, err
	}
	c.logger.Info("accounts ingested", "added", sum.Added, "updated", sum.Updated, "errors", len(sum.Errors))
	return sum, nil
}

func (c *Controller) IngestSpend(ctx context.Context, text string) (SpendSummary, error) {
	var sum SpendSummary
	err := c.apply(ctx, "ingest spend", func(s *State, now time.Time) error {
		sum = IngestSpend(s, text, now)
		return nil
	})
	if err != nil {
		return SpendSummary{}, err
	}
	c.logger.Info("spend ingested", "added", sum.Added, "errors", len(sum.Errors))
	return sum, nil
}

func (c *Controller) IngestBlockList(ctx context.Context, text string) (BlockSummary, error) {
	var sum BlockSummary
	err := c.apply(ctx, "ingest block list", func(s *State, now time.Time) error {
		sum = IngestBlockList(s, text, now)
		return nil
	})
	if err != nil {
		return BlockSummary{}, err
	}
	c.logger.Info("block list applied", "blocked", sum.Blocked, "created", sum.Created, "errors", len(sum.Errors))
	return sum, nil
}

func (c *Controller) ImportJSON(ctx context.Context, data []byte) error {
	return c.apply(ctx, "import snapshot", func(s *State, now time.Time) error {
		return Import(s, data, now)
	})
}

func (c *Controller) AddPromoReward(ctx context.Context, email string, amount decimal.Decimal, promo string) (core.SpecialReward, error) {
	var out core.SpecialReward
	err := c.apply(ctx, "add promo reward", func(s *State, now time.Time) error {
		var err error
		out, err = AddPromoReward(s, email, amount, promo, now)
		return err
	})
	return out, err
}

func (c *Controller) UpdateAccount(ctx context.Context, email string, p AccountPatch) (core.Account, error) {
	var out core.Account
	err := c.apply(ctx, "update account", func(s *State, now time.Time) error {
		var err error
		out, err = UpdateAccount(s, email, p, now)
		return err
	})
	return out, err
}

func (c *Controller) DeleteAccount(ctx context.Context, email string) error {
	return c.apply(ctx, "delete account", func(s *State, now time.Time) error {
		return DeleteAccount(s, email, now)
	})
}

func (c *Controller) UpdateBooking(ctx context.Context, id string, p BookingPatch) (core.Booking, error) {
	var out core.Booking
	err := c.apply(ctx, "update booking", func(s *State, now time.Time) error {
		var err error
		out, err = UpdateBooking(s, id, p, now)
		return err
	})
	return out, err
}

func (c *Controller) AddHotel(ctx context.Context, h core.Hotel) (core.Hotel, error) {
	var out core.Hotel
	err := c.apply(ctx, "add hotel", func(s *State, now time.Time) error {
		var err error
		out, err = AddHotel(s, h, now)
		return err
	})
	return out, err
}

func (c *Controller) UpdateHotel(ctx context.Context, id string, p HotelPatch) (core.Hotel, error) {
	var out core.Hotel
	err := c.apply(ctx, "update hotel", func(s *State, now time.Time) error {
		var err error
		out, err = UpdateHotel(s, id, p, now)
		return err
	})
	return out, err
}

func (c *Controller) AddSale(ctx context.Context, sale core.Sale) (core.Sale, error) {
	var out core.Sale
	err := c.apply(ctx, "add sale", func(s *State, now time.Time) error {
		var err error
		out, err = AddSale(s, sale, now)
		return err
	})
	return out, err
}

func (c *Controller) UpdateSale(ctx context.Context, id string, p SalePatch) (core.Sale, error) {
	var out core.Sale
	err := c.apply(ctx, "update sale", func(s *State, now time.Time) error {
		var err error
		out, err = UpdateSale(s, id, p, now)
		return err
	})
	return out, err
}

// UpdateSettings applies patch to the current settings. patch receives
// a copy and returns the replacement.
func (c *Controller) UpdateSettings(ctx context.Context, patch func(core.Settings) (core.Settings, error)) (core.Settings, error) {
	var out core.Settings
	err := c.apply(ctx, "update settings", func(s *State, now time.Time) error {
		next, err := patch(s.Settings.Clone())
		if err != nil {
			return err
		}
		UpdateSettings(s, next, now)
		out = next
		return nil
	})
	return out, err
}

// Replace swaps in a whole new state, keeping the version sequence.
func (c *Controller) Replace(ctx context.Context, next *State) error {
	return c.apply(ctx, "replace state", func(s *State, _ time.Time) error {
		version := s.Version
		*s = *next.Clone()
		s.Version = version
		return nil
	})
}

// apply runs fn on a clone of the state and commits it.
func (c *Controller) apply(ctx context.Context, op string, fn func(s *State, now time.Time) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	next := c.state.Clone()
	if err := fn(next, now); err != nil {
		return err
	}
	var sweep SweepSummary
	if next.Settings.AutoWriteTechBlocks {
		sweep = TechBlockSweep(next, now)
	}
	if err := c.commit(ctx, op, next); err != nil {
		return err
	}
	c.sweptLocked(op, sweep)
	return nil
}

// Sweep runs the TECH-block sweep on its own. Nothing is persisted when
// the sweep has nothing to block or the setting is off.
func (c *Controller) Sweep(ctx context.Context) (SweepSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Settings.AutoWriteTechBlocks {
		return SweepSummary{}, nil
	}
	next := c.state.Clone()
	sum := TechBlockSweep(next, c.now())
	if !sum.Changed() {
		return sum, nil
	}
	if err := c.commit(ctx, "sweep", next); err != nil {
		return SweepSummary{}, err
	}
	c.sweptLocked("sweep", sum)
	return sum, nil
}

// commit persists next and makes it current. Caller holds c.mu.
func (c *Controller) commit(ctx context.Context, op string, next *State) error {
	next.trimAudit()
	next.Version++
	if err := c.store.Save(ctx, next); err != nil {
		c.logger.Error("persist failed", "op", op, "version", next.Version, "error", err)
		return fmt.Errorf("%s: save state: %w", op, err)
	}
	c.state = next
	return nil
}

func (c *Controller) sweptLocked(op string, sum SweepSummary) {
	if !sum.Changed() {
		return
	}
	c.logger.Info("tech blocks written", "op", op, "accounts", sum.Accounts, "hotels", sum.Hotels)
	if c.onSweep != nil {
		c.onSweep(sum)
	}
}
