package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pull-events/pull-api/internal/codec"
	"github.com/pull-events/pull-api/internal/database"
	"github.com/pull-events/pull-api/internal/model"
	"github.com/pull-events/pull-api/internal/queue"
	"github.com/pull-events/pull-api/internal/repository"
)

// memDB is an in-memory stand-in for the MySQL schema.  fakeTx snapshots
// it before a unit of work and restores the snapshot on error, which is
// what a rolled back transaction looks like from the outside.
type memDB struct {
	mu sync.Mutex

	persons     map[uint64]model.Person
	venues      map[string]model.Venue
	events      map[string]model.Event
	ticketTypes map[uint64]model.TicketType
	orders      map[uint64]model.Order
	tickets     []model.Ticket
	validated   map[string]time.Time
	resv        map[uint64]model.Reservation
	guests      []model.ReservationGuest
	workers     map[string]model.Worker

	nextID      uint64
	emailWrites int
	failOn      map[string]error
}

func newMemDB() *memDB {
	return &memDB{
		persons:     map[uint64]model.Person{},
		venues:      map[string]model.Venue{},
		events:      map[string]model.Event{},
		ticketTypes: map[uint64]model.TicketType{},
		orders:      map[uint64]model.Order{},
		validated:   map[string]time.Time{},
		resv:        map[uint64]model.Reservation{},
		workers:     map[string]model.Worker{},
		nextID:      100,
		failOn:      map[string]error{},
	}
}

func (m *memDB) id() uint64 { m.nextID++; return m.nextID }

func (m *memDB) fail(op string) error { return m.failOn[op] }

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *memDB) snapshot() *memDB {
	return &memDB{
		persons:     copyMap(m.persons),
		venues:      copyMap(m.venues),
		events:      copyMap(m.events),
		ticketTypes: copyMap(m.ticketTypes),
		orders:      copyMap(m.orders),
		tickets:     append([]model.Ticket(nil), m.tickets...),
		validated:   copyMap(m.validated),
		resv:        copyMap(m.resv),
		guests:      append([]model.ReservationGuest(nil), m.guests...),
		workers:     copyMap(m.workers),
		nextID:      m.nextID,
		emailWrites: m.emailWrites,
	}
}

func (m *memDB) restore(s *memDB) {
	m.persons, m.venues, m.events, m.ticketTypes = s.persons, s.venues, s.events, s.ticketTypes
	m.orders, m.tickets, m.validated = s.orders, s.tickets, s.validated
	m.resv, m.guests, m.workers = s.resv, s.guests, s.workers
	m.nextID, m.emailWrites = s.nextID, s.emailWrites
}

// fakeTx serializes units of work, standing in for row locks.
type fakeTx struct {
	db        *memDB
	mu        sync.Mutex
	commits   int
	rollbacks int
}

func (t *fakeTx) WithinTx(ctx context.Context, fn func(q database.Querier) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.db.mu.Lock()
	snap := t.db.snapshot()
	t.db.mu.Unlock()
	if err := fn(nil); err != nil {
		t.db.mu.Lock()
		t.db.restore(snap)
		t.db.mu.Unlock()
		t.rollbacks++
		return err
	}
	t.commits++
	return nil
}

func (t *fakeTx) Querier() database.Querier { return nil }

// ---- persons ----

type fakePersons struct{ db *memDB }

func (f fakePersons) FindByDPIHash(_ context.Context, _ database.Querier, hash string) (*model.Person, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, p := range f.db.persons {
		if p.DPIHashed == hash {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakePersons) UpdateEmail(_ context.Context, _ database.Querier, id uint64, email string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p := f.db.persons[id]
	p.Email = email
	f.db.persons[id] = p
	f.db.emailWrites++
	return nil
}

func (f fakePersons) InsertOrFetch(_ context.Context, _ database.Querier, p *model.Person) (uint64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.db.fail("persons.InsertOrFetch"); err != nil {
		return 0, err
	}
	for _, e := range f.db.persons {
		if e.DPIHashed == p.DPIHashed {
			p.ID = e.ID
			return e.ID, nil
		}
	}
	p.ID = f.db.id()
	f.db.persons[p.ID] = *p
	return p.ID, nil
}

// ---- catalog, inventory, orders, tickets ----

type fakeCatalog struct{ db *memDB }

func (f fakeCatalog) VenueBySlug(_ context.Context, _ database.Querier, slug string) (*model.Venue, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	v, ok := f.db.venues[slug]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (f fakeCatalog) EventBySlug(_ context.Context, _ database.Querier, slug string) (*model.Event, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	e, ok := f.db.events[slug]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (f fakeCatalog) TicketTypeForEvent(_ context.Context, _ database.Querier, id, eventID uint64) (*model.TicketType, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	tt, ok := f.db.ticketTypes[id]
	if !ok || tt.EventID != eventID {
		return nil, repository.ErrNotFound
	}
	return &tt, nil
}

type fakeInventory struct{ db *memDB }

func (f fakeInventory) Reserve(_ context.Context, _ database.Querier, ticketTypeID, eventID uint64, qty int) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	tt, ok := f.db.ticketTypes[ticketTypeID]
	if !ok || tt.EventID != eventID {
		return repository.ErrNotFound
	}
	if tt.AvailableQuantity < qty {
		return repository.ErrInsufficientInventory
	}
	tt.AvailableQuantity -= qty
	f.db.ticketTypes[ticketTypeID] = tt
	return nil
}

type fakeOrders struct{ db *memDB }

func (f fakeOrders) Create(_ context.Context, _ database.Querier, o *model.Order) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	o.ID = f.db.id()
	f.db.orders[o.ID] = *o
	return nil
}

func (f fakeOrders) CreateTickets(_ context.Context, _ database.Querier, tickets []model.Ticket) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.db.fail("orders.CreateTickets"); err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, t := range f.db.tickets {
		seen[t.QRToken] = true
	}
	for i := range tickets {
		if seen[tickets[i].QRToken] {
			return repository.ErrConflict
		}
		seen[tickets[i].QRToken] = true
		tickets[i].ID = f.db.id()
		f.db.tickets = append(f.db.tickets, tickets[i])
	}
	return nil
}

func (f fakeOrders) TicketViews(_ context.Context, _ database.Querier, orderID, eventID uint64) ([]model.TicketView, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.TicketView
	for _, t := range f.db.tickets {
		if t.OrderID != orderID || (eventID != 0 && t.EventID != eventID) {
			continue
		}
		p := f.db.persons[t.HolderID]
		out = append(out, model.TicketView{
			TicketID: t.ID, QRToken: t.QRToken, HolderName: p.Name, HolderSurname: p.Surname,
			HolderEmail: p.Email, EventName: "Techno Night", EventDate: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
			TicketTypeName: f.db.ticketTypes[t.TicketTypeID].Name,
		})
	}
	return out, nil
}

type fakeTickets struct {
	db  *memDB
	org uint64
	ven uint64
}

func (f fakeTickets) LockByToken(_ context.Context, _ database.Querier, token string) (*model.TicketCheck, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, t := range f.db.tickets {
		if t.QRToken != token {
			continue
		}
		c := &model.TicketCheck{TicketID: t.ID, EventName: "Techno Night", EventOrganizationID: f.org,
			EventVenueID: f.ven, TicketTypeName: f.db.ticketTypes[t.TicketTypeID].Name}
		if at, ok := f.db.validated[token]; ok {
			c.ValidatedAt = &at
		}
		return c, nil
	}
	return nil, repository.ErrNotFound
}

func (f fakeTickets) MarkValidated(_ context.Context, _ database.Querier, ticketID uint64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, t := range f.db.tickets {
		if t.ID != ticketID {
			continue
		}
		if _, ok := f.db.validated[t.QRToken]; ok {
			return repository.ErrAlreadyValidated
		}
		f.db.validated[t.QRToken] = time.Now().UTC()
		return nil
	}
	return repository.ErrNotFound
}

// ---- reservations and guests ----

type fakeReservations struct {
	db     *memDB
	status model.StatusTable
}

func (f fakeReservations) Create(_ context.Context, _ database.Querier, r *model.Reservation) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	r.ID = f.db.id()
	f.db.resv[r.ID] = *r
	return nil
}

func (f fakeReservations) get(id uint64) (*model.Reservation, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	r, ok := f.db.resv[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	r.StatusName, _ = f.status.Name(r.StatusID)
	r.Creator = f.db.persons[r.CreatorID]
	return &r, nil
}

func (f fakeReservations) Get(_ context.Context, _ database.Querier, id uint64) (*model.Reservation, error) {
	return f.get(id)
}

func (f fakeReservations) Lock(_ context.Context, _ database.Querier, id uint64) (*model.Reservation, error) {
	return f.get(id)
}

func (f fakeReservations) SetStatus(_ context.Context, _ database.Querier, id, statusID uint64, hash *string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.db.fail("reservations.SetStatus"); err != nil {
		return err
	}
	r := f.db.resv[id]
	r.StatusID = statusID
	if hash != nil {
		r.PasswordHash = hash
	}
	f.db.resv[id] = r
	return nil
}

func (f fakeReservations) SetStatusAndGuests(_ context.Context, _ database.Querier, id, statusID uint64, guests int) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.db.fail("reservations.SetStatusAndGuests"); err != nil {
		return err
	}
	r := f.db.resv[id]
	r.StatusID, r.Guests = statusID, guests
	f.db.resv[id] = r
	return nil
}

func (f fakeReservations) ListByVenue(_ context.Context, _ database.Querier, flt repository.VenueListFilter) ([]model.Reservation, int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var all []model.Reservation
	for _, r := range f.db.resv {
		if r.VenueID == flt.VenueID && (flt.StatusID == 0 || r.StatusID == flt.StatusID) && !r.StartDate.Before(flt.From) {
			all = append(all, r)
		}
	}
	total := len(all)
	if flt.Offset >= total {
		return nil, total, nil
	}
	end := flt.Offset + flt.Limit
	if end > total {
		end = total
	}
	return all[flt.Offset:end], total, nil
}

type fakeGuests struct{ db *memDB }

func (f fakeGuests) Insert(_ context.Context, _ database.Querier, guests []model.ReservationGuest) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.db.fail("guests.Insert"); err != nil {
		return err
	}
	for _, g := range guests {
		g.GuestID = f.db.id()
		f.db.guests = append(f.db.guests, g)
	}
	return nil
}

func (f fakeGuests) SetStatusFor(_ context.Context, _ database.Querier, reservationID uint64, ids []uint64, from, to uint64) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	want := map[uint64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var n int64
	for i, g := range f.db.guests {
		if g.ReservationID == reservationID && !g.IsCancelled && g.StatusID == from && want[g.GuestID] {
			f.db.guests[i].StatusID = to
			n++
		}
	}
	return n, nil
}

func (f fakeGuests) Remap(_ context.Context, _ database.Querier, reservationID, from, to uint64) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var n int64
	for i, g := range f.db.guests {
		if g.ReservationID == reservationID && g.StatusID == from {
			f.db.guests[i].StatusID = to
			n++
		}
	}
	return n, nil
}

func (f fakeGuests) CountByStatus(_ context.Context, _ database.Querier, reservationID, statusID uint64) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	n := 0
	for _, g := range f.db.guests {
		if g.ReservationID == reservationID && g.StatusID == statusID {
			n++
		}
	}
	return n, nil
}

func (f fakeGuests) ListVisible(_ context.Context, _ database.Querier, reservationID, hidden uint64) ([]model.ReservationGuest, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.ReservationGuest
	for _, g := range f.db.guests {
		if g.ReservationID == reservationID && !g.IsCancelled && g.StatusID != hidden {
			if g.UserID != nil {
				p := f.db.persons[*g.UserID]
				g.Person = &p
			}
			out = append(out, g)
		}
	}
	return out, nil
}

type fakeWorkers struct{ db *memDB }

func (f fakeWorkers) ByEmail(_ context.Context, _ database.Querier, email string) (*model.Worker, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	w, ok := f.db.workers[email]
	if !ok || w.DeletedAt != nil {
		return nil, repository.ErrNotFound
	}
	return &w, nil
}

// ---- publisher ----

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// ---- shared helpers ----

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func testCodec(t *testing.T) *codec.Codec {
	t.Helper()
	c, err := codec.New([]byte("0123456789abcdef0123456789abcdef"), []byte("abcdef9876543210"))
	require.NoError(t, err)
	return c
}

func reservationTable() model.StatusTable {
	return model.NewStatusTable([]model.StatusRow{
		{ID: 1, Name: "pending"}, {ID: 2, Name: "confirmed"}, {ID: 3, Name: "cancelled"},
		{ID: 4, Name: "rejected"}, {ID: 5, Name: "completed"}, {ID: 6, Name: "modified"},
		{ID: 9, Name: "no_show"},
	})
}

func guestTable() model.StatusTable {
	return model.NewStatusTable([]model.StatusRow{
		{ID: 1, Name: "pending"}, {ID: 2, Name: "confirmed"}, {ID: 5, Name: "removed"},
		{ID: 6, Name: "pending_remove"}, {ID: 7, Name: "pending_add"},
	})
}
