package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/entity"
	"ayanna/internal/core/id"
	"ayanna/internal/core/tx"
	"ayanna/internal/core/types"
	"ayanna/internal/domain/accounting"
	"ayanna/internal/domain/audit"
	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/events"
	"ayanna/internal/domain/journal"
	"ayanna/internal/domain/pricing"
	"ayanna/internal/domain/stock"
	"ayanna/pkg/logger"
	"ayanna/pkg/numerator"
)

// maxNumberAttempts bounds the one-second bumps taken on an order number collision.
const maxNumberAttempts = 60

// Catalog is the reference data a cart is priced from.
type Catalog interface {
	POS(ctx context.Context, posID id.ID) (*catalog.POS, error)
	Product(ctx context.Context, productID id.ID) (*catalog.Product, error)
	Service(ctx context.Context, serviceID id.ID) (*catalog.ServiceItem, error)
	Products(ctx context.Context, ids []id.ID) (map[id.ID]*catalog.Product, error)
	Services(ctx context.Context, ids []id.ID) (map[id.ID]*catalog.ServiceItem, error)
}

// Accounts resolves the posting configuration of a POS.
type Accounts interface {
	GetConfig(ctx context.Context, posID id.ID) (*accounting.Config, error)
}

// Journals posts and reverses journals.
type Journals interface {
	Post(ctx context.Context, entry journal.Entry) (*journal.Journal, error)
	Reverse(ctx context.Context, journalID id.ID, when time.Time, refSuffix string) (*journal.Journal, error)
	FindByReference(ctx context.Context, reference string, kind journal.Kind) ([]journal.Journal, error)
}

// Stock moves goods out of and back into warehouses.
type Stock interface {
	CheckAvailability(ctx context.Context, warehouseID id.ID, items []stock.Requirement) error
	ApplyMovement(ctx context.Context, in stock.MovementInput) (*stock.Movement, error)
	MovementsByReference(ctx context.Context, reference string, kind stock.Kind) ([]stock.Movement, error)
}

// Deps are the collaborators of the sales service. Events and Audit may be nil.
type Deps struct {
	Repo      Repository
	Catalog   Catalog
	Accounts  Accounts
	Journals  Journals
	Stock     Stock
	TxManager tx.Manager
	Sequencer Sequencer
	Events    events.Publisher
	Audit     audit.Recorder
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock, e.g. for deterministic order numbers in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service runs the cart lifecycle. Every operation executes in one session.
type Service struct {
	repo      Repository
	catalog   Catalog
	accounts  Accounts
	journals  Journals
	stock     Stock
	txm       tx.Manager
	sequencer Sequencer
	events    events.Publisher
	audit     audit.Recorder
	now       func() time.Time
}

// NewService creates a new sales service.
func NewService(deps Deps, opts ...Option) *Service {
	s := &Service{
		repo:      deps.Repo,
		catalog:   deps.Catalog,
		accounts:  deps.Accounts,
		journals:  deps.Journals,
		stock:     deps.Stock,
		txm:       deps.TxManager,
		sequencer: deps.Sequencer,
		events:    deps.Events,
		audit:     deps.Audit,
		now:       func() time.Time { return time.Now().UTC() },
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	if s.audit == nil {
		s.audit = audit.Nop{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput opens a cart. Table and server apply to restaurants; event fields and
// TaxRate to reservations. Other modules take the tax rate of their POS.
type CreateInput struct {
	Module    catalog.Module
	POSID     id.ID
	ClientID  *id.ID
	TableID   *id.ID
	ServerID  *id.ID
	EventDate *time.Time
	Guests    int
	EventType string
	TaxRate   *decimal.Decimal
}

// Create opens a draft cart with a fresh order number.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Cart, error) {
	if !in.Module.Valid() {
		return nil, apperror.NewValidation("unknown module").WithDetail("module", in.Module)
	}
	if in.Guests < 0 {
		return nil, apperror.NewValidation("guest count cannot be negative").WithDetail("field", "guests")
	}
	if in.TaxRate != nil && in.TaxRate.IsNegative() {
		return nil, apperror.NewValidation("tax rate cannot be negative").WithDetail("field", "taxRate")
	}

	var cart *Cart
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		pos, err := s.catalog.POS(ctx, in.POSID)
		if err != nil {
			return err
		}
		if pos.Module != in.Module {
			return apperror.NewValidation("point of sale belongs to another module").
				WithDetail("posModule", pos.Module).
				WithDetail("module", in.Module)
		}

		now := s.now()
		number, err := s.nextNumber(ctx, in.Module, pos, now)
		if err != nil {
			return err
		}

		taxRate := pos.TaxRate
		if in.Module == catalog.ModuleEvent && in.TaxRate != nil {
			taxRate = *in.TaxRate
		}

		cart = &Cart{
			BaseEntity:      entity.NewBaseEntity(),
			Module:          in.Module,
			POSID:           pos.ID,
			EnterpriseID:    pos.EnterpriseID,
			ClientID:        in.ClientID,
			Number:          number,
			Status:          StatusDraft,
			Subtotal:        decimal.Zero,
			TaxRate:         taxRate,
			TaxAmount:       decimal.Zero,
			DiscountPercent: decimal.Zero,
			DiscountAmount:  decimal.Zero,
			TotalFinal:      decimal.Zero,
		}
		switch in.Module {
		case catalog.ModuleRestaurant:
			cart.TableID, cart.ServerID = in.TableID, in.ServerID
		case catalog.ModuleEvent:
			cart.EventDate, cart.Guests, cart.EventType = in.EventDate, in.Guests, in.EventType
		}
		cart.Stamp(ctx, now)
		return s.repo.Create(ctx, cart)
	})
	if err != nil {
		return nil, fmt.Errorf("create %s cart: %w", in.Module, err)
	}

	logger.Info(ctx, "cart created", "cart_id", cart.ID, "module", cart.Module, "number", cart.Number)
	return cart, nil
}

// Get returns a cart with its lines and payments.
func (s *Service) Get(ctx context.Context, module catalog.Module, cartID id.ID) (*Cart, error) {
	if !module.Valid() {
		return nil, apperror.NewValidation("unknown module").WithDetail("module", module)
	}
	return s.repo.Get(ctx, module, cartID)
}

// AddLineInput describes a line to append. A nil UnitPrice takes the catalog price.
type AddLineInput struct {
	Kind      LineKind
	ItemID    id.ID
	Quantity  decimal.Decimal
	UnitPrice *decimal.Decimal
}

// AddLine appends a product or service line to a draft cart and reprices it.
func (s *Service) AddLine(ctx context.Context, module catalog.Module, cartID id.ID, in AddLineInput) (*Cart, error) {
	if !in.Kind.Valid() {
		return nil, apperror.NewValidation("unknown line kind").WithDetail("kind", in.Kind)
	}
	if !in.Quantity.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").WithDetail("field", "quantity")
	}
	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		return nil, apperror.NewValidation("unit price cannot be negative").WithDetail("field", "unitPrice")
	}
	if in.Kind == LineService && module == catalog.ModuleRestaurant {
		return nil, apperror.NewValidation("restaurant carts do not sell services").WithDetail("kind", in.Kind)
	}

	var cart *Cart
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		cart, err = s.draft(ctx, module, cartID, "add a line to")
		if err != nil {
			return err
		}

		price, err := s.catalogPrice(ctx, module, in.Kind, in.ItemID)
		if err != nil {
			return err
		}
		if in.UnitPrice != nil {
			price = *in.UnitPrice
		}

		line := Line{
			ID:        id.New(),
			CartID:    cart.ID,
			Kind:      in.Kind,
			ItemID:    in.ItemID,
			Quantity:  in.Quantity,
			UnitPrice: price,
			Total:     types.RoundAmount(in.Quantity.Mul(price)),
			LineNo:    cart.nextLineNo(),
		}
		cart.Lines = append(cart.Lines, line)
		if err := s.reprice(cart); err != nil {
			return err
		}
		if err := s.repo.AddLine(ctx, module, &line); err != nil {
			return fmt.Errorf("add line: %w", err)
		}
		return s.saveHeader(ctx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveLine drops a line from a draft cart and reprices it.
func (s *Service) RemoveLine(ctx context.Context, module catalog.Module, cartID, lineID id.ID) (*Cart, error) {
	var cart *Cart
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		cart, err = s.draft(ctx, module, cartID, "remove a line from")
		if err != nil {
			return err
		}

		kept := cart.Lines[:0]
		found := false
		for _, l := range cart.Lines {
			if l.ID == lineID {
				found = true
				continue
			}
			kept = append(kept, l)
		}
		if !found {
			return apperror.NewNotFound("cart line", lineID)
		}
		cart.Lines = kept

		if err := s.reprice(cart); err != nil {
			return err
		}
		if err := s.repo.RemoveLine(ctx, module, cart.ID, lineID); err != nil {
			return fmt.Errorf("remove line: %w", err)
		}
		return s.saveHeader(ctx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// SetDiscountPercent sets the discount of a draft cart, 0 ≤ pct ≤ 100.
func (s *Service) SetDiscountPercent(ctx context.Context, module catalog.Module, cartID id.ID, pct decimal.Decimal) (*Cart, error) {
	if !types.IsValidPercent(pct) {
		return nil, apperror.NewValidation("discount percent must be between 0 and 100").
			WithDetail("field", "discountPercent").
			WithDetail("value", pct.String())
	}
	return s.updateDraft(ctx, module, cartID, "discount", func(c *Cart) { c.DiscountPercent = pct })
}

// SetTaxRate sets the tax rate of a draft reservation.
func (s *Service) SetTaxRate(ctx context.Context, module catalog.Module, cartID id.ID, rate decimal.Decimal) (*Cart, error) {
	if module != catalog.ModuleEvent {
		return nil, apperror.NewValidation("only reservations carry their own tax rate").WithDetail("module", module)
	}
	if rate.IsNegative() {
		return nil, apperror.NewValidation("tax rate cannot be negative").WithDetail("field", "taxRate")
	}
	return s.updateDraft(ctx, module, cartID, "tax rate", func(c *Cart) { c.TaxRate = rate })
}

func (s *Service) updateDraft(ctx context.Context, module catalog.Module, cartID id.ID, what string, apply func(*Cart)) (*Cart, error) {
	var cart *Cart
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		cart, err = s.draft(ctx, module, cartID, "change the "+what+" of")
		if err != nil {
			return err
		}
		apply(cart)
		if err := s.reprice(cart); err != nil {
			return err
		}
		return s.saveHeader(ctx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// draft loads and locks a cart, requiring the draft status.
func (s *Service) draft(ctx context.Context, module catalog.Module, cartID id.ID, operation string) (*Cart, error) {
	cart, err := s.lock(ctx, module, cartID)
	if err != nil {
		return nil, err
	}
	if cart.Status != StatusDraft {
		return nil, apperror.NewInvalidState("cart", string(cart.Status), operation).WithDetail("cart_id", cart.ID)
	}
	return cart, nil
}

func (s *Service) lock(ctx context.Context, module catalog.Module, cartID id.ID) (*Cart, error) {
	if !module.Valid() {
		return nil, apperror.NewValidation("unknown module").WithDetail("module", module)
	}
	cart, err := s.repo.GetForUpdate(ctx, module, cartID)
	if err != nil {
		return nil, err
	}
	cart.Module = module
	return cart, nil
}

func (s *Service) reprice(cart *Cart) error {
	b, err := pricing.Price(cart.pricingLines(), cart.TaxRate, cart.DiscountPercent)
	if err != nil {
		return err
	}
	cart.applyBreakdown(b)
	return nil
}

func (s *Service) saveHeader(ctx context.Context, cart *Cart) error {
	cart.Touch(s.now())
	if err := s.repo.UpdateHeader(ctx, cart); err != nil {
		return fmt.Errorf("update cart %s: %w", cart.ID, err)
	}
	return nil
}

func (s *Service) catalogPrice(ctx context.Context, module catalog.Module, kind LineKind, itemID id.ID) (decimal.Decimal, error) {
	if kind == LineProduct {
		p, err := s.catalog.Product(ctx, itemID)
		if err != nil {
			return decimal.Zero, err
		}
		return p.Price, nil
	}
	svc, err := s.catalog.Service(ctx, itemID)
	if err != nil {
		return decimal.Zero, err
	}
	if svc.Module != module {
		return decimal.Zero, apperror.NewValidation("service belongs to another module").
			WithDetail("serviceModule", svc.Module).
			WithDetail("module", module)
	}
	return svc.Price, nil
}

// nextNumber allocates the order number of a new cart: a sequence value for
// restaurants, CMD-{pos}-{timestamp} otherwise, bumped one second on collision.
func (s *Service) nextNumber(ctx context.Context, module catalog.Module, pos *catalog.POS, now time.Time) (string, error) {
	if module == catalog.ModuleRestaurant {
		v, err := s.sequencer.NextValue(ctx, numerator.SequenceKey(string(module), pos.Code))
		if err != nil {
			return "", fmt.Errorf("next restaurant number: %w", err)
		}
		return numerator.FormatInt(v), nil
	}

	t := now
	for range maxNumberAttempts {
		number := numerator.FormatOrderNumber(pos.Code, t)
		exists, err := s.repo.NumberExists(ctx, module, pos.ID, number)
		if err != nil {
			return "", fmt.Errorf("check order number: %w", err)
		}
		if !exists {
			return number, nil
		}
		t = t.Add(time.Second)
	}
	return "", apperror.NewDuplicate("cart", "number", numerator.FormatOrderNumber(pos.Code, now))
}

// postingConfig returns the accounting configuration of a POS, or nil after one
// warning when the POS has none.
func (s *Service) postingConfig(ctx context.Context, posID id.ID, operation string) (*accounting.Config, error) {
	cfg, err := s.accounts.GetConfig(ctx, posID)
	if err == nil {
		return cfg, nil
	}
	if apperror.IsConfigMissing(err) {
		logger.Warn(ctx, "accounting configuration missing, postings skipped",
			"pos_id", posID,
			"operation", operation,
		)
		return nil, nil
	}
	return nil, err
}
