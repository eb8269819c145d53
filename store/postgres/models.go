package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/leasehold/delegation"
	"github.com/xraph/leasehold/event"
	"github.com/xraph/leasehold/id"
	"github.com/xraph/leasehold/lease"
	"github.com/xraph/leasehold/pass"
	"github.com/xraph/leasehold/types"
)

// accountString renders an optional account column. Nil accounts are
// stored as the empty string rather than NULL.
func accountString(a id.AccountID) string {
	if a.IsNil() {
		return ""
	}
	return a.String()
}

func parseAccount(s string) (id.AccountID, error) {
	if s == "" {
		return id.Nil, nil
	}
	return id.ParseAccountID(s)
}

// ==================== Pass models ====================

type passModel struct {
	grove.BaseModel `grove:"table:leasehold_passes"`

	Serial            int64             `grove:"serial,pk"`
	Owner             string            `grove:"owner"`
	Approved          string            `grove:"approved"`
	MintPriceCents    int64             `grove:"mint_price_cents"`
	MintPriceCurrency string            `grove:"mint_price_currency"`
	Metadata          map[string]string `grove:"metadata,type:jsonb"`
	CreatedAt         time.Time         `grove:"created_at"`
	UpdatedAt         time.Time         `grove:"updated_at"`
}

func toPassModel(p *pass.Pass) *passModel {
	return &passModel{
		Serial:            p.Serial,
		Owner:             accountString(p.Owner),
		Approved:          accountString(p.Approved),
		MintPriceCents:    p.MintPrice.Amount,
		MintPriceCurrency: p.MintPrice.Currency,
		Metadata:          p.Metadata,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func fromPassModel(m *passModel) (*pass.Pass, error) {
	owner, err := parseAccount(m.Owner)
	if err != nil {
		return nil, err
	}
	approved, err := parseAccount(m.Approved)
	if err != nil {
		return nil, err
	}

	return &pass.Pass{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Serial:    m.Serial,
		Owner:     owner,
		Approved:  approved,
		MintPrice: types.Money{Amount: m.MintPriceCents, Currency: m.MintPriceCurrency},
		Metadata:  m.Metadata,
	}, nil
}

// ==================== Delegation models ====================

type delegationModel struct {
	grove.BaseModel `grove:"table:leasehold_delegations"`

	Serial       int64     `grove:"serial,pk"`
	UserAccount  string    `grove:"user_account"`
	Starts       time.Time `grove:"starts"`
	Expires      time.Time `grove:"expires"`
	RentCents    int64     `grove:"rent_cents"`
	RentCurrency string    `grove:"rent_currency"`
	CreatedAt    time.Time `grove:"created_at"`
	UpdatedAt    time.Time `grove:"updated_at"`
}

func toDelegationModel(d *delegation.Delegation) *delegationModel {
	return &delegationModel{
		Serial:       d.Serial,
		UserAccount:  accountString(d.User),
		Starts:       d.Starts,
		Expires:      d.Expires,
		RentCents:    d.Rent.Amount,
		RentCurrency: d.Rent.Currency,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func fromDelegationModel(m *delegationModel) (*delegation.Delegation, error) {
	user, err := parseAccount(m.UserAccount)
	if err != nil {
		return nil, err
	}

	return &delegation.Delegation{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Serial:  m.Serial,
		User:    user,
		Starts:  m.Starts,
		Expires: m.Expires,
		Rent:    types.Money{Amount: m.RentCents, Currency: m.RentCurrency},
	}, nil
}

// ==================== Lease models ====================

type leaseModel struct {
	grove.BaseModel `grove:"table:leasehold_leases"`

	Serial       int64     `grove:"serial,pk"`
	Lister       string    `grove:"lister"`
	RentCents    int64     `grove:"rent_cents"`
	RentCurrency string    `grove:"rent_currency"`
	DurationDays int64     `grove:"duration_days"`
	CreatedAt    time.Time `grove:"created_at"`
	UpdatedAt    time.Time `grove:"updated_at"`
}

func toLeaseModel(l *lease.Lease) *leaseModel {
	return &leaseModel{
		Serial:       l.Serial,
		Lister:       accountString(l.Lister),
		RentCents:    l.Rent.Amount,
		RentCurrency: l.Rent.Currency,
		DurationDays: l.DurationDays,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

func fromLeaseModel(m *leaseModel) (*lease.Lease, error) {
	lister, err := parseAccount(m.Lister)
	if err != nil {
		return nil, err
	}

	return &lease.Lease{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Serial:       m.Serial,
		Lister:       lister,
		Rent:         types.Money{Amount: m.RentCents, Currency: m.RentCurrency},
		DurationDays: m.DurationDays,
	}, nil
}

// ==================== Event models ====================

type eventModel struct {
	grove.BaseModel `grove:"table:leasehold_events"`

	ID             string            `grove:"id,pk"`
	Kind           string            `grove:"kind"`
	Serial         int64             `grove:"serial"`
	Actor          string            `grove:"actor"`
	Counterparty   string            `grove:"counterparty"`
	AmountCents    int64             `grove:"amount_cents"`
	AmountCurrency string            `grove:"amount_currency"`
	OccurredAt     time.Time         `grove:"occurred_at"`
	Metadata       map[string]string `grove:"metadata,type:jsonb"`
	CreatedAt      time.Time         `grove:"created_at"`
}

func toEventModel(rec *event.Record) *eventModel {
	return &eventModel{
		ID:             rec.ID.String(),
		Kind:           string(rec.Kind),
		Serial:         rec.Serial,
		Actor:          accountString(rec.Actor),
		Counterparty:   accountString(rec.Counterparty),
		AmountCents:    rec.Amount.Amount,
		AmountCurrency: rec.Amount.Currency,
		OccurredAt:     rec.OccurredAt,
		Metadata:       rec.Metadata,
		CreatedAt:      time.Now().UTC(),
	}
}

func fromEventModel(m *eventModel) (*event.Record, error) {
	evtID, err := id.ParseEventID(m.ID)
	if err != nil {
		return nil, err
	}
	actor, err := parseAccount(m.Actor)
	if err != nil {
		return nil, err
	}
	counterparty, err := parseAccount(m.Counterparty)
	if err != nil {
		return nil, err
	}

	return &event.Record{
		ID:           evtID,
		Kind:         event.Kind(m.Kind),
		Serial:       m.Serial,
		Actor:        actor,
		Counterparty: counterparty,
		Amount:       types.Money{Amount: m.AmountCents, Currency: m.AmountCurrency},
		OccurredAt:   m.OccurredAt,
		Metadata:     m.Metadata,
	}, nil
}
