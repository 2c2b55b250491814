package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"lottery/events"
	"lottery/models"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const oneUnit = uint64(1_000_000_000) // 9 decimal places

func testKey(n byte) solana.PublicKey {
	var key solana.PublicKey
	for i := range key {
		key[i] = n
	}
	return key
}

var (
	testProgramID       = testKey(0xA0)
	testEligibilityMint = testKey(0xE0)
	testPayoutMint      = testKey(0xE1)
	testShareTable      = models.ShareTable{Shares: []models.Share{
		{Role: "treasury", BasisPoints: 400},
		{Role: "operator", BasisPoints: 60},
		{Role: "referrer", BasisPoints: 40},
	}}
)

func cloneAccount(a *models.Account) *models.Account {
	c := *a
	c.Data = append([]byte(nil), a.Data...)
	return &c
}

// memoryAccounts is an AccountRepository backed by a map. Reads hand out copies so
// callers see the same aliasing behavior as with the database.
type memoryAccounts struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey]*models.Account
	failOn   map[solana.PublicKey]error
	updates  int
}

func newMemoryAccounts(accounts ...*models.Account) *memoryAccounts {
	m := &memoryAccounts{
		accounts: make(map[solana.PublicKey]*models.Account),
		failOn:   make(map[solana.PublicKey]error),
	}
	for _, a := range accounts {
		m.accounts[a.Address] = cloneAccount(a)
	}
	return m
}

func (m *memoryAccounts) Get(ctx context.Context, address solana.PublicKey) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[address]
	if !ok {
		return nil, nil
	}
	return cloneAccount(a), nil
}

func (m *memoryAccounts) GetForUpdate(ctx context.Context, addresses []solana.PublicKey) (map[solana.PublicKey]*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[solana.PublicKey]*models.Account, len(addresses))
	for _, addr := range addresses {
		a, ok := m.accounts[addr]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
		}
		out[addr] = cloneAccount(a)
	}
	return out, nil
}

func (m *memoryAccounts) Create(ctx context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.Address] = cloneAccount(account)
	return nil
}

func (m *memoryAccounts) UpdateLamports(ctx context.Context, address solana.PublicKey, lamports uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn[address]; err != nil {
		return err
	}
	m.updates++
	m.accounts[address].Lamports = lamports
	return nil
}

func (m *memoryAccounts) UpdateData(ctx context.Context, address solana.PublicKey, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn[address]; err != nil {
		return err
	}
	m.updates++
	m.accounts[address].Data = append([]byte(nil), data...)
	return nil
}

func (m *memoryAccounts) lamports(address solana.PublicKey) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[address].Lamports
}

func (m *memoryAccounts) data(address solana.PublicKey) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.accounts[address].Data...)
}

func (m *memoryAccounts) tokenAmount(t *testing.T, address solana.PublicKey) uint64 {
	holding, err := models.DecodeTokenHolding(m.data(address))
	require.NoError(t, err)
	return holding.Amount
}

type memoryTransfers struct {
	transfers []*models.Transfer
}

func (m *memoryTransfers) Record(ctx context.Context, transfer *models.Transfer) error {
	transfer.ID = int64(len(m.transfers) + 1)
	m.transfers = append(m.transfers, transfer)
	return nil
}

func (m *memoryTransfers) GetBySettlement(ctx context.Context, settlementID uuid.UUID) ([]*models.Transfer, error) {
	var out []*models.Transfer
	for _, t := range m.transfers {
		if t.SettlementID != nil && *t.SettlementID == settlementID {
			out = append(out, t)
		}
	}
	return out, nil
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(event events.Event) {
	p.events = append(p.events, event)
}

type memoryLedger struct {
	accounts  *memoryAccounts
	transfers *memoryTransfers
	bus       *recordingPublisher
}

func newMemoryLedger(accounts *memoryAccounts) *memoryLedger {
	return &memoryLedger{
		accounts:  accounts,
		transfers: &memoryTransfers{},
		bus:       &recordingPublisher{},
	}
}

func (l *memoryLedger) AccountRepository() AccountRepository   { return l.accounts }
func (l *memoryLedger) TransferRepository() TransferRepository { return l.transfers }
func (l *memoryLedger) EventBus() EventPublisher               { return l.bus }

// lotteryFixture is a complete set of accounts for one settlement
type lotteryFixture struct {
	authority    *models.Account
	pool         *models.Account
	storage      *models.Account
	payees       []*models.Account
	participants []*models.Account // payout target, eligibility, ...
}

func wallet(n byte, lamports uint64) *models.Account {
	return &models.Account{
		Address:  testKey(n),
		Owner:    solana.SystemProgramID,
		Lamports: lamports,
	}
}

func tokenAccount(n byte, mint, owner solana.PublicKey, amount uint64) *models.Account {
	return &models.Account{
		Address:  testKey(n),
		Owner:    solana.TokenProgramID,
		Lamports: 2_039_280,
		Data:     models.EncodeTokenHolding(&models.TokenHolding{Mint: mint, Owner: owner, Amount: amount}),
	}
}

func fundedStorage(n byte) *models.Account {
	return &models.Account{
		Address:  testKey(n),
		Owner:    testProgramID,
		Lamports: DefaultRent.MinimumBalance(models.SettlementResultSize),
		Data:     make([]byte, models.SettlementResultSize),
	}
}

// newNativeFixture builds a pool paying native value to wallets that each hold one
// eligibility token
func newNativeFixture(poolBalance uint64, participants int) *lotteryFixture {
	pool := wallet(0x10, poolBalance)
	f := &lotteryFixture{
		authority: pool,
		pool:      pool,
		storage:   fundedStorage(0x11),
		payees: []*models.Account{
			wallet(0x12, 0),
			wallet(0x13, 0),
			wallet(0x14, 0),
		},
	}
	for i := 0; i < participants; i++ {
		target := wallet(byte(0x20+i), 0)
		eligibility := tokenAccount(byte(0x60+i), testEligibilityMint, target.Address, 1)
		f.participants = append(f.participants, target, eligibility)
	}
	return f
}

// newTokenFixture builds a pool holding payout tokens, controlled by a separate authority
func newTokenFixture(poolBalance uint64, participants int) *lotteryFixture {
	authority := wallet(0x0F, 0)
	f := &lotteryFixture{
		authority: authority,
		pool:      tokenAccount(0x10, testPayoutMint, authority.Address, poolBalance),
		storage:   fundedStorage(0x11),
		payees: []*models.Account{
			tokenAccount(0x12, testPayoutMint, testKey(0x92), 0),
			tokenAccount(0x13, testPayoutMint, testKey(0x93), 0),
			tokenAccount(0x14, testPayoutMint, testKey(0x94), 0),
		},
	}
	for i := 0; i < participants; i++ {
		owner := testKey(byte(0xB0 + i))
		target := tokenAccount(byte(0x20+i), testPayoutMint, owner, 0)
		eligibility := tokenAccount(byte(0x60+i), testEligibilityMint, owner, 5)
		f.participants = append(f.participants, target, eligibility)
	}
	return f
}

func (f *lotteryFixture) all() []*models.Account {
	out := []*models.Account{f.pool, f.storage}
	if !f.authority.Address.Equals(f.pool.Address) {
		out = append(out, f.authority)
	}
	out = append(out, f.payees...)
	return append(out, f.participants...)
}

func (f *lotteryFixture) request(lotteryID, winnerIndex uint32) *SettlementRequest {
	req := &SettlementRequest{
		LotteryID:     lotteryID,
		WinnerIndex:   winnerIndex,
		Authority:     f.authority.Address,
		Pool:          f.pool.Address,
		ResultStorage: f.storage.Address,
		Signers:       []solana.PublicKey{f.authority.Address},
		Writable:      []solana.PublicKey{f.pool.Address, f.storage.Address},
	}
	for _, p := range f.payees {
		req.FixedPayees = append(req.FixedPayees, p.Address)
		req.Writable = append(req.Writable, p.Address)
	}
	for i, p := range f.participants {
		req.Participants = append(req.Participants, p.Address)
		if i%2 == 0 {
			req.Writable = append(req.Writable, p.Address)
		}
	}
	return req
}

// input locks the fixture's accounts out of repo the way the settlement service does
func (f *lotteryFixture) input(t *testing.T, repo *memoryAccounts, lotteryID, winnerIndex uint32) *SettlementInput {
	req := f.request(lotteryID, winnerIndex)
	locked, err := repo.GetForUpdate(context.Background(), req.addresses())
	require.NoError(t, err)
	markPrivileges(locked, req.Signers, req.Writable)

	in := &SettlementInput{
		SettlementID:  uuid.New(),
		LotteryID:     lotteryID,
		WinnerIndex:   winnerIndex,
		Authority:     locked[f.authority.Address],
		Pool:          locked[f.pool.Address],
		ResultStorage: locked[f.storage.Address],
	}
	for _, p := range f.payees {
		in.FixedPayees = append(in.FixedPayees, locked[p.Address])
	}
	for _, p := range f.participants {
		in.Participants = append(in.Participants, locked[p.Address])
	}
	return in
}

func newNativeExecutor(t *testing.T) *SettlementExecutor {
	executor, err := NewSettlementExecutor(ExecutorConfig{
		ProgramID:       testProgramID,
		ShareTable:      testShareTable,
		EligibilityMint: testEligibilityMint,
		ValueSource:     NativeValueSource{},
	})
	require.NoError(t, err)
	return executor
}

func newTokenExecutor(t *testing.T) *SettlementExecutor {
	executor, err := NewSettlementExecutor(ExecutorConfig{
		ProgramID:       testProgramID,
		ShareTable:      testShareTable,
		EligibilityMint: testEligibilityMint,
		PayoutMint:      testPayoutMint,
		ValueSource:     TokenValueSource{Mint: testPayoutMint},
	})
	require.NoError(t, err)
	return executor
}

// allocationTotal sums every amount an allocation pays out
func allocationTotal(a *models.Allocation) uint64 {
	total := a.WinnerAmount
	for _, amount := range a.FixedAmounts {
		total += amount
	}
	return total
}
