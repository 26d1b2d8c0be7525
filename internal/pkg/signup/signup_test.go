package signup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/luispontes/ContaCerta/app/models"
	"github.com/luispontes/ContaCerta/internal/pkg/gateway"
)

// In-memory fakes shared by the package tests.

type fakeRegs struct {
	mu     sync.Mutex
	nextID uint
	regs   map[uint]*models.PendingRegistration
}

func newFakeRegs() *fakeRegs {
	return &fakeRegs{nextID: 1, regs: map[uint]*models.PendingRegistration{}}
}

func (f *fakeRegs) add(reg *models.PendingRegistration) *models.PendingRegistration {
	f.mu.Lock()
	defer f.mu.Unlock()
	reg.ID = f.nextID
	f.nextID++
	f.regs[reg.ID] = reg
	return reg
}

func (f *fakeRegs) Create(reg *models.PendingRegistration) error {
	f.add(reg)
	return nil
}

func (f *fakeRegs) GetByID(id uint) (*models.PendingRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reg, ok := f.regs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *reg
	return &cp, nil
}

func (f *fakeRegs) GetByPublicID(publicID string) (*models.PendingRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, reg := range f.regs {
		if reg.PublicID == publicID {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRegs) GetByGatewayChargeID(chargeID string) (*models.PendingRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, reg := range f.regs {
		if reg.GatewayChargeID == chargeID {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRegs) GetActiveByEmail(email string, now time.Time) (*models.PendingRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, reg := range f.regs {
		if reg.Email == models.NormalizeEmail(email) && (reg.IsPaid() || !reg.IsExpired(now)) {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRegs) mutate(id uint, fn func(*models.PendingRegistration)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	reg, ok := f.regs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	fn(reg)
	return nil
}

func (f *fakeRegs) AttachGatewayCustomer(id uint, customerID string) error {
	return f.mutate(id, func(r *models.PendingRegistration) { r.GatewayCustomerID = customerID })
}

func (f *fakeRegs) ClearGatewayCustomer(id uint) error {
	return f.mutate(id, func(r *models.PendingRegistration) { r.GatewayCustomerID = "" })
}

func (f *fakeRegs) AttachCharge(id uint, chargeID, method, invoiceURL string) error {
	return f.mutate(id, func(r *models.PendingRegistration) {
		if r.Status != models.RegistrationStatusPending {
			return
		}
		r.GatewayChargeID = chargeID
		r.PaymentMethod = method
		r.InvoiceURL = invoiceURL
	})
}

func (f *fakeRegs) AttachPixArtifacts(id uint, pixCode, pixQrImage string) error {
	return f.mutate(id, func(r *models.PendingRegistration) {
		if r.Status != models.RegistrationStatusPending {
			return
		}
		r.PixCode = pixCode
		r.PixQrImage = pixQrImage
	})
}

func (f *fakeRegs) AttachBoletoURL(id uint, boletoURL string) error {
	return f.mutate(id, func(r *models.PendingRegistration) {
		if r.Status != models.RegistrationStatusPending {
			return
		}
		r.BoletoURL = boletoURL
	})
}

func (f *fakeRegs) AttachAddress(id uint, addr models.Address) error {
	return f.mutate(id, func(r *models.PendingRegistration) {
		r.AddressPostalCode = addr.PostalCode
		r.AddressStreet = addr.Street
		r.AddressNumber = addr.Number
		r.AddressComplement = addr.Complement
		r.AddressNeighborhood = addr.Neighborhood
		r.AddressCity = addr.City
		r.AddressState = addr.State
	})
}

func (f *fakeRegs) MarkPaid(id uint, paidAt time.Time) error {
	return f.mutate(id, func(r *models.PendingRegistration) {
		if r.Status != models.RegistrationStatusPending {
			return
		}
		r.Status = models.RegistrationStatusPaid
		r.PaidAt = &paidAt
	})
}

func (f *fakeRegs) SweepExpired(now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for id, reg := range f.regs {
		if reg.Status == models.RegistrationStatusPending && now.After(reg.ExpiresAt) {
			delete(f.regs, id)
			removed++
		}
	}
	return removed, nil
}

type fakeUsers struct {
	mu        sync.Mutex
	nextID    uint
	users     map[uint]*models.User
	createErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{nextID: 1, users: map[uint]*models.User{}}
}

func (f *fakeUsers) Create(user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	user.ID = f.nextID
	f.nextID++
	f.users[user.ID] = user
	return nil
}

func (f *fakeUsers) GetByID(id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *user
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == models.NormalizeEmail(email) {
			cp := *user
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) Update(user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

type fakeSubs struct {
	mu     sync.Mutex
	nextID uint
	subs   map[uint]*models.Subscription
}

func newFakeSubs() *fakeSubs {
	return &fakeSubs{nextID: 1, subs: map[uint]*models.Subscription{}}
}

func (f *fakeSubs) Create(sub *models.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub.ID = f.nextID
	f.nextID++
	f.subs[sub.ID] = sub
	return nil
}

func (f *fakeSubs) GetByUserID(userID uint) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		if sub.UserID == userID {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSubs) Update(sub *models.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[sub.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *sub
	f.subs[sub.ID] = &cp
	return nil
}

func (f *fakeSubs) ListAll() ([]models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Subscription, 0, len(f.subs))
	for _, sub := range f.subs {
		out = append(out, *sub)
	}
	return out, nil
}

func (f *fakeSubs) ListExpiringTrials(now time.Time, window time.Duration) ([]models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Subscription
	for _, sub := range f.subs {
		if !sub.IsTrial || sub.TrialEndsAt == nil || sub.TrialNoticeSentAt != nil {
			continue
		}
		if sub.TrialEndsAt.After(now) && sub.TrialEndsAt.Before(now.Add(window)) {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (f *fakeSubs) MarkTrialNoticeSent(id uint, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	sub.TrialNoticeSentAt = &at
	return nil
}

// fakeGateway scripts gateway behavior per call and counts invocations.
type fakeGateway struct {
	mu sync.Mutex

	customers      map[string]*gateway.Customer
	nextCustomer   int
	createCustomer int

	chargeStatus string
	nextCharge   int
	charges      []gateway.ChargeInput

	createChargeErrs  []error
	updateTaxIDErrs   []error
	getStatusCalls    int
	pixArtifacts      *gateway.PixArtifacts
	pixErr            error
	blockCreate       chan struct{}
	enteredCreate     chan struct{}
	createCustomerErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		customers:    map[string]*gateway.Customer{},
		chargeStatus: gateway.ChargeStatusPending,
		pixArtifacts: &gateway.PixArtifacts{Payload: "pix-code", EncodedImage: "pix-img"},
	}
}

func (f *fakeGateway) CreateCustomer(ctx context.Context, in gateway.CustomerInput) (string, error) {
	if f.enteredCreate != nil {
		f.enteredCreate <- struct{}{}
	}
	if f.blockCreate != nil {
		<-f.blockCreate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createCustomerErr != nil {
		return "", f.createCustomerErr
	}
	f.createCustomer++
	f.nextCustomer++
	id := fmt.Sprintf("cus_%03d", f.nextCustomer)
	f.customers[id] = &gateway.Customer{ID: id, Name: in.Name, Email: in.Email, CpfCnpj: in.CpfCnpj}
	return id, nil
}

func (f *fakeGateway) GetCustomer(ctx context.Context, customerID string) (*gateway.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cus, ok := f.customers[customerID]
	if !ok {
		return nil, &gateway.Error{StatusCode: 404, Code: "invalid_customer", Message: "Cliente removido"}
	}
	cp := *cus
	return &cp, nil
}

func (f *fakeGateway) UpdateCustomerTaxID(ctx context.Context, customerID, taxID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.updateTaxIDErrs) > 0 {
		err := f.updateTaxIDErrs[0]
		f.updateTaxIDErrs = f.updateTaxIDErrs[1:]
		if err != nil {
			return err
		}
	}
	if cus, ok := f.customers[customerID]; ok {
		cus.CpfCnpj = taxID
	}
	return nil
}

func (f *fakeGateway) CreateCharge(ctx context.Context, in gateway.ChargeInput) (*gateway.Charge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.createChargeErrs) > 0 {
		err := f.createChargeErrs[0]
		f.createChargeErrs = f.createChargeErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	f.nextCharge++
	f.charges = append(f.charges, in)
	status := f.chargeStatus
	if in.BillingType == gateway.BillingTypeCreditCard {
		status = gateway.ChargeStatusConfirmed
	}
	return &gateway.Charge{
		ID:          fmt.Sprintf("pay_%03d", f.nextCharge),
		Status:      status,
		InvoiceURL:  fmt.Sprintf("https://invoice.example/%d", f.nextCharge),
		BankSlipURL: fmt.Sprintf("https://boleto.example/%d", f.nextCharge),
	}, nil
}

func (f *fakeGateway) GetChargeStatus(ctx context.Context, chargeID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getStatusCalls++
	return f.chargeStatus, nil
}

func (f *fakeGateway) GetPixArtifacts(ctx context.Context, chargeID string) (*gateway.PixArtifacts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pixErr != nil {
		return nil, f.pixErr
	}
	return f.pixArtifacts, nil
}

func (f *fakeGateway) setChargeStatus(status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chargeStatus = status
}

func (f *fakeGateway) gatewayCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCustomer + f.nextCharge + f.getStatusCalls
}

// fakeNotifier records sent emails.
type fakeNotifier struct {
	mu           sync.Mutex
	instructions []string
	welcomes     []string
	trialNotices []string
}

func (f *fakeNotifier) PaymentInstructions(reg *models.PendingRegistration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.instructions = append(f.instructions, reg.Email)
}

func (f *fakeNotifier) Welcome(email, name, planName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.welcomes = append(f.welcomes, email)
}

func (f *fakeNotifier) TrialExpiring(email, name string, daysRemaining int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trialNotices = append(f.trialNotices, email)
}

// memoryCache is an in-process StatusCache for reconciler tests.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]string{}}
}

func (m *memoryCache) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	if !ok {
		return "", errors.New("cache miss")
	}
	return v, nil
}

func (m *memoryCache) Set(key string, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	m.sets++
	return nil
}

// Test data helpers.

func testPlan() models.Plan {
	return models.Plan{ID: 1, Name: "Plano Mensal", Price: 29.90, Interval: models.PlanIntervalMonth, IsActive: true}
}

func testRegistration(regs *fakeRegs) *models.PendingRegistration {
	reg, err := models.NewPendingRegistration("Ana Souza", "ana@example.com", "11999990000", "s3nh4forte", 1)
	if err != nil {
		panic(err)
	}
	reg.Plan = testPlan()
	return regs.add(reg)
}

func fullAddress() models.Address {
	return models.Address{
		PostalCode:   "01310-000",
		Street:       "Avenida Paulista",
		Number:       "1000",
		Neighborhood: "Bela Vista",
		City:         "São Paulo",
		State:        "SP",
	}
}

func fullCard() *CardData {
	return &CardData{
		HolderName:       "ANA SOUZA",
		Number:           "5162306219378829",
		ExpiryMonth:      "05",
		ExpiryYear:       "2028",
		Ccv:              "318",
		HolderTaxID:      "123.456.789-01",
		HolderPostalCode: "01310-000",
		HolderPhone:      "11999990000",
	}
}
