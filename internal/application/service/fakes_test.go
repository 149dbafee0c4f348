package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/internal/domain/enum"
	"github.com/sangkips/bookshop-pos/internal/domain/order"
	"github.com/sangkips/bookshop-pos/internal/domain/pricing"
	"github.com/sangkips/bookshop-pos/internal/domain/repository"
	"github.com/sangkips/bookshop-pos/pkg/email"
	"github.com/sangkips/bookshop-pos/pkg/utils"
)

// In-memory repositories. They copy on the way in and out so services
// cannot change stored rows without going through the repository.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
	err   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*entity.User{}}
}

func copyUser(u *entity.User) *entity.User {
	c := *u
	if u.AccountNumber != nil {
		n := *u.AccountNumber
		c.AccountNumber = &n
	}
	return &c
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r *fakeUserRepo) find(match func(*entity.User) bool) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.ID == id })
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return strings.EqualFold(u.Username, username) })
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return email != "" && strings.EqualFold(u.Email, email) })
}

func (r *fakeUserRepo) GetByAccountNumber(_ context.Context, accountNumber string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Account() == accountNumber })
}

func (r *fakeUserRepo) Update(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, params *repository.UserFilterParams) ([]entity.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.User
	for _, u := range r.users {
		if !params.IncludeInactive && !u.IsActive {
			continue
		}
		if len(params.Roles) > 0 && !containsRole(params.Roles, u.Role) {
			continue
		}
		if params.Search != "" && !strings.Contains(strings.ToLower(u.FullName+" "+u.Username+" "+u.Account()), strings.ToLower(params.Search)) {
			continue
		}
		out = append(out, *copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, int64(len(out)), nil
}

func containsRole(roles []enum.UserRole, role enum.UserRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (r *fakeUserRepo) LastAccountNumber(_ context.Context, prefix string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	last := ""
	for _, u := range r.users {
		if n := u.Account(); strings.HasPrefix(n, prefix) && n > last {
			last = n
		}
	}
	return last, nil
}

func (r *fakeUserRepo) units(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id].UnitsConsumed
}

type fakeBookRepo struct {
	mu    sync.Mutex
	books map[uuid.UUID]*entity.Book
}

func newFakeBookRepo() *fakeBookRepo {
	return &fakeBookRepo{books: map[uuid.UUID]*entity.Book{}}
}

func (r *fakeBookRepo) Create(_ context.Context, book *entity.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if book.ID == uuid.Nil {
		book.ID = uuid.New()
	}
	c := *book
	r.books[book.ID] = &c
	return nil
}

func (r *fakeBookRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.books[id]; ok {
		c := *b
		return &c, nil
	}
	return nil, nil
}

func (r *fakeBookRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]entity.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Book
	for _, id := range ids {
		if b, ok := r.books[id]; ok {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBookRepo) GetByISBN(_ context.Context, isbn string) (*entity.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.books {
		if b.ISBN == isbn {
			c := *b
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeBookRepo) Update(_ context.Context, book *entity.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *book
	r.books[book.ID] = &c
	return nil
}

func (r *fakeBookRepo) List(_ context.Context, params *repository.BookFilterParams) ([]entity.Book, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Book
	for _, b := range r.books {
		if !params.IncludeInactive && !b.IsActive {
			continue
		}
		if params.Category != "" && b.Category != params.Category {
			continue
		}
		if params.Search != "" && !strings.Contains(strings.ToLower(b.Title+" "+b.Author+" "+b.ISBN), strings.ToLower(params.Search)) {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, int64(len(out)), nil
}

func (r *fakeBookRepo) GetLowStock(_ context.Context, threshold int) ([]entity.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Book
	for _, b := range r.books {
		if b.IsActive && b.IsLowStock(threshold) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Quantity < out[j].Quantity })
	return out, nil
}

func (r *fakeBookRepo) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	books, err := r.GetLowStock(ctx, threshold)
	return int64(len(books)), err
}

func (r *fakeBookRepo) AdjustStock(_ context.Context, id uuid.UUID, delta int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok || b.Quantity+delta < 0 {
		return false, nil
	}
	b.Quantity += delta
	return true, nil
}

func (r *fakeBookRepo) AtomicIncrementBatch(_ context.Context, increments map[uuid.UUID]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, n := range increments {
		if b, ok := r.books[id]; ok {
			b.Quantity += n
		}
	}
	return nil
}

func (r *fakeBookRepo) stock(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.books[id].Quantity
}

// fakeBillRepo applies BillEffects against the user and book fakes the
// way the gorm repository does inside its transaction.
type fakeBillRepo struct {
	mu    sync.Mutex
	bills map[uuid.UUID]*entity.Bill
	users *fakeUserRepo
	books *fakeBookRepo
	err   error
}

func newFakeBillRepo(users *fakeUserRepo, books *fakeBookRepo) *fakeBillRepo {
	return &fakeBillRepo{bills: map[uuid.UUID]*entity.Bill{}, users: users, books: books}
}

func (r *fakeBillRepo) applyEffects(customerID uuid.UUID, effects repository.BillEffects) error {
	r.books.mu.Lock()
	var short []uuid.UUID
	for id, n := range effects.DecrementStock {
		if b, ok := r.books.books[id]; !ok || b.Quantity < n {
			short = append(short, id)
		}
	}
	if len(short) > 0 {
		r.books.mu.Unlock()
		return &repository.InsufficientStockError{BookIDs: short}
	}
	for id, n := range effects.DecrementStock {
		r.books.books[id].Quantity -= n
	}
	for id, n := range effects.IncrementStock {
		if b, ok := r.books.books[id]; ok {
			b.Quantity += n
		}
	}
	r.books.mu.Unlock()

	if effects.CustomerUnits != 0 {
		r.users.mu.Lock()
		if u, ok := r.users.users[customerID]; ok {
			u.UnitsConsumed += effects.CustomerUnits
		}
		r.users.mu.Unlock()
	}
	return nil
}

func (r *fakeBillRepo) Create(_ context.Context, bill *entity.Bill, effects repository.BillEffects) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if err := r.applyEffects(bill.CustomerID, effects); err != nil {
		return err
	}
	if bill.ID == uuid.Nil {
		bill.ID = uuid.New()
	}
	bill.CreatedAt = time.Now()
	for i := range bill.Items {
		if bill.Items[i].ID == uuid.Nil {
			bill.Items[i].ID = uuid.New()
		}
		bill.Items[i].BillID = bill.ID
	}
	r.bills[bill.ID] = bill.Clone()
	return nil
}

func (r *fakeBillRepo) UpdateStatus(_ context.Context, bill *entity.Bill, from enum.BillStatus, effects repository.BillEffects) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	stored, ok := r.bills[bill.ID]
	if !ok || stored.Status != from {
		return &repository.StaleStatusError{BillID: bill.ID, Expected: from}
	}
	if err := r.applyEffects(bill.CustomerID, effects); err != nil {
		return err
	}
	r.bills[bill.ID] = bill.Clone()
	return nil
}

func (r *fakeBillRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if b, ok := r.bills[id]; ok {
		return b.Clone(), nil
	}
	return nil, nil
}

func (r *fakeBillRepo) GetByNumber(_ context.Context, number string) (*entity.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bills {
		if b.BillNumber == number {
			return b.Clone(), nil
		}
	}
	return nil, nil
}

func (r *fakeBillRepo) matching(f repository.BillFilter) []entity.Bill {
	var out []entity.Bill
	for _, b := range r.bills {
		if f.CustomerID != nil && b.CustomerID != *f.CustomerID {
			continue
		}
		if f.CashierID != nil && b.CashierID != *f.CashierID {
			continue
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, b.Status) {
			continue
		}
		if f.StartDate != nil && b.BillDate.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && b.BillDate.After(*f.EndDate) {
			continue
		}
		out = append(out, *b.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BillDate.After(out[j].BillDate) })
	return out
}

func containsStatus(statuses []enum.BillStatus, status enum.BillStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (r *fakeBillRepo) List(_ context.Context, params *repository.BillFilterParams) ([]entity.Bill, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, 0, r.err
	}
	bills := r.matching(params.BillFilter)
	return bills, int64(len(bills)), nil
}

func (r *fakeBillRepo) ListWithCursor(_ context.Context, params *repository.BillCursorFilterParams) ([]entity.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bills := r.matching(params.BillFilter)
	if len(bills) > params.Cursor.Limit+1 {
		bills = bills[:params.Cursor.Limit+1]
	}
	return bills, nil
}

func (r *fakeBillRepo) CountByStatus(_ context.Context, statuses ...enum.BillStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.matching(repository.BillFilter{Statuses: statuses}))), nil
}

func (r *fakeBillRepo) CustomerStats(_ context.Context, customerID uuid.UUID) (*repository.CustomerStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repository.CustomerStats{CustomerID: customerID, TotalSpent: decimal.Zero}
	for _, b := range r.matching(repository.BillFilter{CustomerID: &customerID, Statuses: repository.SettledStatuses()}) {
		stats.BillCount++
		stats.TotalSpent = stats.TotalSpent.Add(b.Total)
		stats.UnitsConsumed += b.UnitsConsumed
		if stats.LastBillAt == nil || b.BillDate.After(*stats.LastBillAt) {
			at := b.BillDate
			stats.LastBillAt = &at
		}
	}
	return stats, nil
}

func (r *fakeBillRepo) stored(id uuid.UUID) *entity.Bill {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bills[id].Clone()
}

type fakeSettingsRepo struct {
	mu       sync.Mutex
	rows     map[string]*entity.SystemConfig
	valueErr error
	reads    int
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	r := &fakeSettingsRepo{rows: map[string]*entity.SystemConfig{}}
	for k, v := range pricing.DefaultSettings() {
		r.rows[k] = &entity.SystemConfig{ID: uuid.New(), Key: k, Value: v, IsActive: true}
	}
	return r
}

func (r *fakeSettingsRepo) set(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[key] = &entity.SystemConfig{ID: uuid.New(), Key: key, Value: value, IsActive: true}
}

func (r *fakeSettingsRepo) List(_ context.Context) ([]entity.SystemConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.SystemConfig, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *fakeSettingsRepo) GetByKey(_ context.Context, key string) (*entity.SystemConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[key]; ok {
		c := *row
		return &c, nil
	}
	return nil, nil
}

func (r *fakeSettingsRepo) Values(_ context.Context) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.valueErr != nil {
		return nil, r.valueErr
	}
	out := make(map[string]string, len(r.rows))
	for k, row := range r.rows {
		if row.IsActive {
			out[k] = row.Value
		}
	}
	return out, nil
}

func (r *fakeSettingsRepo) Upsert(_ context.Context, cfg *entity.SystemConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *cfg
	r.rows[cfg.Key] = &c
	return nil
}

type fakeReportRepo struct {
	totals   map[string]*repository.SalesTotals // by from date
	topBooks []repository.TopBookResult
	cashiers []repository.CashierSalesResult
	ranges   [][2]time.Time
}

func (r *fakeReportRepo) SalesTotals(_ context.Context, from, to time.Time) (*repository.SalesTotals, error) {
	r.ranges = append(r.ranges, [2]time.Time{from, to})
	if t, ok := r.totals[from.Format("2006-01-02")]; ok {
		return t, nil
	}
	return &repository.SalesTotals{GrossSales: decimal.Zero, NetSales: decimal.Zero}, nil
}

func (r *fakeReportRepo) TopBooks(_ context.Context, _, _ time.Time, limit int) ([]repository.TopBookResult, error) {
	if len(r.topBooks) > limit {
		return r.topBooks[:limit], nil
	}
	return r.topBooks, nil
}

func (r *fakeReportRepo) SalesByCashier(_ context.Context, _, _ time.Time) ([]repository.CashierSalesResult, error) {
	return r.cashiers, nil
}

type recordingObserver struct {
	id     string
	events []order.Event
	err    error
}

func (o *recordingObserver) ID() string { return o.id }

func (o *recordingObserver) Update(_ context.Context, event order.Event) error {
	o.events = append(o.events, event)
	return o.err
}

func (o *recordingObserver) statuses() []enum.BillStatus {
	out := make([]enum.BillStatus, len(o.events))
	for i, e := range o.events {
		out[i] = e.Status
	}
	return out
}

type fakeMailer struct {
	enabled bool
	sent    map[string]email.OrderStatusNotice
	err     error
}

func (m *fakeMailer) Enabled() bool { return m.enabled }

func (m *fakeMailer) SendOrderStatusEmail(to string, notice email.OrderStatusNotice) error {
	if m.err != nil {
		return m.err
	}
	if m.sent == nil {
		m.sent = map[string]email.OrderStatusNotice{}
	}
	m.sent[to] = notice
	return nil
}

type fixedNumbers struct{ n int }

func (f *fixedNumbers) Next() string {
	f.n++
	return fmt.Sprintf("BILL-TEST-%04d", f.n)
}

type declineGateway struct{}

func (declineGateway) Name() string                  { return "decline" }
func (declineGateway) Charge(_ decimal.Decimal) bool { return false }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// fixture wires every service over the fakes with one admin, one cashier,
// one customer and two books in stock.
type fixture struct {
	users    *fakeUserRepo
	books    *fakeBookRepo
	bills    *fakeBillRepo
	settings *fakeSettingsRepo
	reports  *fakeReportRepo

	settingsSvc   *SettingsService
	billingSvc    *BillingService
	collectionSvc *CollectionService
	observer      *recordingObserver
	manager       *order.Manager

	admin, cashier, customer *entity.User
	goBook, algoBook         *entity.Book
	now                      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		users:    newFakeUserRepo(),
		books:    newFakeBookRepo(),
		settings: newFakeSettingsRepo(),
		reports:  &fakeReportRepo{},
		observer: &recordingObserver{id: "recorder"},
		now:      time.Date(2024, time.March, 14, 10, 30, 0, 0, time.UTC),
	}
	f.bills = newFakeBillRepo(f.users, f.books)
	f.manager = order.NewManager(f.observer)

	hashed, err := utils.HashPassword("secret123")
	if err != nil {
		t.Fatal(err)
	}
	account := "ACC-000001"
	f.admin = &entity.User{Username: "admin", Password: hashed, FullName: "Shop Admin", Role: enum.RoleAdmin, IsActive: true}
	f.cashier = &entity.User{Username: "till1", Password: hashed, FullName: "Till One", Role: enum.RoleCashier, IsActive: true}
	f.customer = &entity.User{
		Username: "acc-000001", Password: hashed, FullName: "Nimal Perera", Email: "nimal@example.com",
		Role: enum.RoleCustomer, AccountNumber: &account, IsActive: true,
	}
	for _, u := range []*entity.User{f.admin, f.cashier, f.customer} {
		if err := f.users.Create(ctx, u); err != nil {
			t.Fatal(err)
		}
	}

	f.goBook = &entity.Book{Title: "Go in Action", Author: "Kennedy", ISBN: "9781617291784", Price: dec("10.99"), Quantity: 10, IsActive: true}
	f.algoBook = &entity.Book{Title: "The Go Programming Language", Author: "Donovan", ISBN: "9780134190440", Price: dec("15.99"), Quantity: 3, IsActive: true}
	for _, b := range []*entity.Book{f.goBook, f.algoBook} {
		if err := f.books.Create(ctx, b); err != nil {
			t.Fatal(err)
		}
	}

	clock := func() time.Time { return f.now }
	f.settingsSvc = NewSettingsService(f.settings, nil, time.Minute)
	f.billingSvc = NewBillingService(f.bills, f.books, f.users, f.settingsSvc, &fixedNumbers{}, f.manager, BillingOptions{DefaultPolicy: pricing.PolicyTiered})
	f.billingSvc.now = clock
	f.collectionSvc = NewCollectionService(f.bills, f.books, f.users, f.settingsSvc, &fixedNumbers{n: 5}, f.manager, pricing.PolicyTiered)
	f.collectionSvc.now = clock
	return f
}

func (f *fixture) actor(u *entity.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

func (f *fixture) cart() []CartItem {
	return []CartItem{
		{BookID: f.goBook.ID, Quantity: 2},
		{BookID: f.algoBook.ID, Quantity: 1},
	}
}
