package service

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/akylbek/safari-buddy/internal/events"
	"github.com/akylbek/safari-buddy/internal/models"
	"github.com/akylbek/safari-buddy/internal/mpesa"
	"github.com/akylbek/safari-buddy/internal/repository"
)

// memDB backs every fake repository so cross-table effects (seat counts,
// booking confirmation) behave like the Postgres implementations.
type memDB struct {
	mu       sync.Mutex
	seq      int64
	users    map[int64]*models.User
	tours    map[int64]*models.Tour
	bookings map[int64]*models.Booking
	payments map[int64]*models.Payment
	reviews  map[int64]*models.Review
	failNext error
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[int64]*models.User{},
		tours:    map[int64]*models.Tour{},
		bookings: map[int64]*models.Booking{},
		payments: map[int64]*models.Payment{},
		reviews:  map[int64]*models.Review{},
	}
}

func (db *memDB) nextID() int64 {
	db.seq++
	return db.seq
}

func (db *memDB) takeFailure() error {
	err := db.failNext
	db.failNext = nil
	return err
}

func strPtr(s string) *string { return &s }

func copyPayment(p *models.Payment) *models.Payment {
	c := *p
	return &c
}

type memPayments struct{ db *memDB }

func (r memPayments) Create(_ context.Context, p *models.Payment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if p.IdempotencyKey != nil {
		for _, existing := range r.db.payments {
			if existing.IdempotencyKey != nil && *existing.IdempotencyKey == *p.IdempotencyKey {
				return repository.ErrDuplicate
			}
		}
	}
	p.ID = r.db.nextID()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.db.payments[p.ID] = copyPayment(p)
	return nil
}

func (r memPayments) GetByID(_ context.Context, id int64) (*models.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyPayment(p), nil
}

func (r memPayments) find(match func(*models.Payment) bool) (*models.Payment, error) {
	for _, p := range r.db.payments {
		if match(p) {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memPayments) GetByCheckoutRequestID(_ context.Context, id string) (*models.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, err := r.find(func(p *models.Payment) bool {
		return p.CheckoutRequestID != nil && *p.CheckoutRequestID == id
	})
	if err != nil {
		return nil, err
	}
	return copyPayment(p), nil
}

func (r memPayments) GetByIdempotencyKey(_ context.Context, key string) (*models.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, err := r.find(func(p *models.Payment) bool {
		return p.IdempotencyKey != nil && *p.IdempotencyKey == key
	})
	if err != nil {
		return nil, err
	}
	return copyPayment(p), nil
}

func (r memPayments) ListByBooking(_ context.Context, bookingID int64) ([]*models.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []*models.Payment{}
	for _, p := range r.db.payments {
		if p.BookingID == bookingID {
			out = append(out, copyPayment(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memPayments) AttachProviderIDs(_ context.Context, id int64, merchantID, checkoutID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.takeFailure(); err != nil {
		return err
	}
	p, ok := r.db.payments[id]
	if !ok || p.Status != models.PaymentPending {
		return repository.ErrNotFound
	}
	p.MerchantRequestID = strPtr(merchantID)
	p.CheckoutRequestID = strPtr(checkoutID)
	return nil
}

func (r memPayments) MarkFailed(_ context.Context, id int64, details string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.payments[id]
	if !ok || p.Status != models.PaymentPending {
		return repository.ErrNotFound
	}
	p.Status = models.PaymentFailed
	p.Details = strPtr(details)
	return nil
}

func (r memPayments) ApplyOutcome(_ context.Context, checkoutID string, o models.PaymentOutcome) (*models.Payment, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.takeFailure(); err != nil {
		return nil, false, err
	}
	p, err := r.find(func(p *models.Payment) bool {
		return p.CheckoutRequestID != nil && *p.CheckoutRequestID == checkoutID
	})
	if err != nil {
		return nil, false, err
	}
	if !models.CanTransition(p.Status, o.Status) {
		if o.FillsReceipt(p) {
			applyOutcome(p, o)
		}
		return copyPayment(p), false, nil
	}
	p.Status = o.Status
	applyOutcome(p, o)
	if o.Status == models.PaymentCompleted {
		if b, ok := r.db.bookings[p.BookingID]; ok && b.BookingStatus == models.BookingPending {
			b.BookingStatus = models.BookingConfirmed
		}
	}
	return copyPayment(p), true, nil
}

func applyOutcome(p *models.Payment, o models.PaymentOutcome) {
	if o.ReceiptNumber != "" {
		p.ReceiptNumber = strPtr(o.ReceiptNumber)
	}
	if o.AmountPaid.Valid {
		p.AmountPaid = o.AmountPaid
	}
	if o.Details != "" {
		p.Details = strPtr(o.Details)
	}
}

type memBookings struct{ db *memDB }

func (r memBookings) CreateWithCapacity(_ context.Context, b *models.Booking) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.bookings {
		if existing.BookingReference == b.BookingReference {
			return repository.ErrDuplicate
		}
	}
	t, ok := r.db.tours[b.TourID]
	if !ok {
		return repository.ErrNotFound
	}
	if !t.IsActive {
		return repository.ErrTourInactive
	}
	if !t.HasRoomFor(b.NumberOfPeople) {
		return repository.ErrCapacityExceeded
	}
	b.TotalAmount = t.PricePerPerson.Mul(decimal.NewFromInt(int64(b.NumberOfPeople)))
	b.ID = r.db.nextID()
	c := *b
	r.db.bookings[b.ID] = &c
	t.CurrentParticipants += b.NumberOfPeople
	return nil
}

func (r memBookings) GetByID(_ context.Context, id int64) (*models.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *b
	return &c, nil
}

func (r memBookings) ListByUser(_ context.Context, userID int64) ([]*models.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []*models.Booking{}
	for _, b := range r.db.bookings {
		if b.UserID == userID {
			c := *b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memBookings) Cancel(_ context.Context, id int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.bookings[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	switch b.BookingStatus {
	case models.BookingCancelled:
		return false, nil
	case models.BookingCompleted:
		return false, repository.ErrInvalidState
	}
	b.BookingStatus = models.BookingCancelled
	if t, ok := r.db.tours[b.TourID]; ok {
		t.CurrentParticipants -= b.NumberOfPeople
		if t.CurrentParticipants < 0 {
			t.CurrentParticipants = 0
		}
	}
	return true, nil
}

type memTours struct{ db *memDB }

func (r memTours) Create(_ context.Context, t *models.Tour) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t.ID = r.db.nextID()
	c := *t
	r.db.tours[t.ID] = &c
	return nil
}

func (r memTours) GetByID(_ context.Context, id int64) (*models.Tour, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tours[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (r memTours) List(_ context.Context, f models.TourFilter) ([]*models.Tour, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []*models.Tour{}
	for _, t := range r.db.tours {
		if !t.IsActive || (f.Category != "" && t.Category != f.Category) {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if f.Offset >= len(out) {
		return []*models.Tour{}, nil
	}
	out = out[f.Offset:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r memTours) Update(_ context.Context, t *models.Tour) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tours[t.ID]; !ok {
		return repository.ErrNotFound
	}
	c := *t
	r.db.tours[t.ID] = &c
	return nil
}

func (r memTours) Deactivate(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tours[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.IsActive = false
	return nil
}

type memUsers struct{ db *memDB }

func (r memUsers) Create(_ context.Context, u *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.users {
		if existing.Email == u.Email || existing.Phone == u.Phone {
			return repository.ErrDuplicate
		}
	}
	u.ID = r.db.nextID()
	c := *u
	r.db.users[u.ID] = &c
	return nil
}

func (r memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memUsers) ExistsByEmailOrPhone(_ context.Context, email, phone string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email || u.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

type memReviews struct{ db *memDB }

func (r memReviews) Create(_ context.Context, review *models.Review) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.takeFailure(); err != nil {
		return err
	}
	for _, existing := range r.db.reviews {
		if existing.BookingID == review.BookingID {
			return repository.ErrDuplicate
		}
	}
	review.ID = r.db.nextID()
	review.CreatedAt = time.Now()
	review.UpdatedAt = review.CreatedAt
	c := *review
	r.db.reviews[review.ID] = &c
	return nil
}

func (r memReviews) ListByTarget(_ context.Context, f models.ReviewFilter) ([]*models.Review, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []*models.Review{}
	for _, review := range r.db.reviews {
		if review.TargetID == f.TargetID {
			c := *review
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if f.Offset >= len(out) {
		return []*models.Review{}, nil
	}
	out = out[f.Offset:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r memReviews) Stats(_ context.Context, targetID int64) (*models.ReviewStats, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stats := &models.ReviewStats{RatingDistribution: map[string]int{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0}}
	var sum float64
	for _, review := range r.db.reviews {
		if review.TargetID != targetID {
			continue
		}
		stats.TotalReviews++
		sum += review.Rating
		for star := 1; star <= 5; star++ {
			if review.Rating == float64(star) {
				stats.RatingDistribution[strconv.Itoa(star)]++
			}
		}
	}
	if stats.TotalReviews > 0 {
		stats.AverageRating = sum / float64(stats.TotalReviews)
	}
	return stats, nil
}

type fakeGateway struct {
	pushCalls  atomic.Int32
	queryCalls atomic.Int32
	lastPush   mpesa.STKPushRequest
	pushErr    error
	pushResp   *mpesa.STKPushResponse
	queryResp  *mpesa.STKQueryResponse
	queryErr   error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		pushResp: &mpesa.STKPushResponse{
			MerchantRequestID:   "29115-34620561-1",
			CheckoutRequestID:   "ws_CO_191220191020363925",
			ResponseCode:        "0",
			ResponseDescription: "Success. Request accepted for processing",
			CustomerMessage:     "Success. Request accepted for processing",
		},
	}
}

func (g *fakeGateway) InitiateSTKPush(_ context.Context, req mpesa.STKPushRequest) (*mpesa.STKPushResponse, error) {
	g.pushCalls.Add(1)
	g.lastPush = req
	if g.pushErr != nil {
		return nil, g.pushErr
	}
	resp := *g.pushResp
	return &resp, nil
}

func (g *fakeGateway) QuerySTKPush(_ context.Context, _ string) (*mpesa.STKQueryResponse, error) {
	g.queryCalls.Add(1)
	if g.queryErr != nil {
		return nil, g.queryErr
	}
	return g.queryResp, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) ofType(t events.Type) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
