package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"lottery/instruction"
	"lottery/models"
	"lottery/service"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) Settle(ctx context.Context, req *service.SettlementRequest) (*models.SettlementReport, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementReport), args.Error(1)
}

func (m *MockSettlementService) GetResult(ctx context.Context, address solana.PublicKey) (*models.SettlementResult, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementResult), args.Error(1)
}

func (m *MockSettlementService) GetSettlement(ctx context.Context, address solana.PublicKey) (*models.Settlement, []*models.Transfer, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Settlement), args.Get(1).([]*models.Transfer), args.Error(2)
}

func (m *MockSettlementService) GetByLotteryID(ctx context.Context, lotteryID uint32) ([]*models.Settlement, error) {
	args := m.Called(ctx, lotteryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Settlement), args.Error(1)
}

type MockPoolService struct {
	mock.Mock
}

func (m *MockPoolService) Deposit(ctx context.Context, req *service.DepositRequest) (*models.Transfer, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transfer), args.Error(1)
}

func (m *MockPoolService) Withdraw(ctx context.Context, req *service.WithdrawRequest) (*models.Transfer, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transfer), args.Error(1)
}

func key(n byte) solana.PublicKey {
	var k solana.PublicKey
	for i := range k {
		k[i] = n
	}
	return k
}

var programID = key(0xA0)

type testServer struct {
	handler     http.Handler
	settlements *MockSettlementService
	pools       *MockPoolService
}

func newTestServer() *testServer {
	settlements := new(MockSettlementService)
	pools := new(MockPoolService)
	processor := instruction.NewProcessor(programID, 3, settlements, pools)
	return &testServer{
		handler:     NewServer(":0", processor, settlements).Handler(),
		settlements: settlements,
		pools:       pools,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func instructionBody(t *testing.T, ix *solana.GenericInstruction) InstructionRequest {
	t.Helper()
	data, err := ix.Data()
	require.NoError(t, err)

	req := InstructionRequest{ProgramID: ix.ProgramID(), Data: base58.Encode(data)}
	for _, meta := range ix.Accounts() {
		req.Accounts = append(req.Accounts, models.AccountMeta{
			PublicKey:  meta.PublicKey,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		})
	}
	return req
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func rewardInstruction(t *testing.T) *solana.GenericInstruction {
	t.Helper()
	accounts := instruction.RewardAccountsFor(
		key(0x10), key(0x10),
		[]solana.PublicKey{key(0x12), key(0x13), key(0x14)},
		key(0x11),
		[]solana.PublicKey{key(0x20), key(0x60), key(0x21), key(0x61)},
	)
	ix, err := instruction.NewRewardWinnersInstruction(programID, instruction.RewardWinnersArgs{LotteryID: 7, WinnerIndex: 1}, accounts)
	require.NoError(t, err)
	return ix
}

func TestProcessInstruction_RewardWinners(t *testing.T) {
	ts := newTestServer()

	report := &models.SettlementReport{
		Settlement: &models.Settlement{ID: uuid.New(), LotteryID: 7, Winner: key(0x21), PoolAmount: 50, WinnerAmount: 45},
		Result:     &models.SettlementResult{LotteryID: 7, Winner: key(0x21)},
		Payouts:    []models.Payout{{Role: models.WinnerRole, To: key(0x21), Amount: 45}},
	}
	ts.settlements.On("Settle", mock.Anything, mock.MatchedBy(func(req *service.SettlementRequest) bool {
		return req.LotteryID == 7 && req.WinnerIndex == 1 && len(req.Participants) == 4
	})).Return(report, nil)

	rr := ts.do(t, http.MethodPost, "/v1/instructions", instructionBody(t, rewardInstruction(t)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var result instruction.Result
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&result))
	require.NotNil(t, result.Settlement)
	assert.Equal(t, key(0x21), result.Settlement.Result.Winner)
	assert.Equal(t, uint64(45), result.Settlement.Payouts[0].Amount)
	assert.Nil(t, result.Transfer)

	ts.settlements.AssertExpectations(t)
}

func TestProcessInstruction_Deposit(t *testing.T) {
	ts := newTestServer()

	ix, err := instruction.NewDepositInstruction(programID, key(0x20), key(0x20), key(0x10), 500)
	require.NoError(t, err)
	ts.pools.On("Deposit", mock.Anything, mock.Anything).
		Return(&models.Transfer{Kind: models.TransferKindDeposit, From: key(0x20), To: key(0x10), Amount: 500}, nil)

	rr := ts.do(t, http.MethodPost, "/v1/instructions", instructionBody(t, ix))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var result instruction.Result
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&result))
	require.NotNil(t, result.Transfer)
	assert.Equal(t, uint64(500), result.Transfer.Amount)
	assert.Equal(t, key(0x10), result.Transfer.To)
}

func TestProcessInstruction_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{name: "malformed roster", err: service.ErrMalformedRoster, wantStatus: http.StatusBadRequest, wantKind: "malformed_roster"},
		{name: "index out of range", err: service.ErrIndexOutOfRange, wantStatus: http.StatusBadRequest, wantKind: "index_out_of_range"},
		{name: "ineligible", err: service.ErrIneligibleParticipant, wantStatus: http.StatusUnprocessableEntity, wantKind: "ineligible_participant"},
		{name: "empty pool", err: service.ErrEmptyPool, wantStatus: http.StatusUnprocessableEntity, wantKind: "empty_pool"},
		{name: "unauthorized", err: service.ErrUnauthorized, wantStatus: http.StatusForbidden, wantKind: "unauthorized"},
		{name: "already settled", err: service.ErrAlreadySettled, wantStatus: http.StatusConflict, wantKind: "already_settled"},
		{
			name:       "storage owned by another program",
			err:        fmt.Errorf("%w: %w: result storage is owned elsewhere", service.ErrStorageNotFunded, service.ErrWrongOwner),
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   "storage_not_funded",
		},
		{name: "read-only account", err: service.ErrReadOnlyAccount, wantStatus: http.StatusBadRequest, wantKind: "read_only_account"},
		{name: "unknown account", err: service.ErrAccountNotFound, wantStatus: http.StatusNotFound, wantKind: "account_not_found"},
		{name: "internal", err: assert.AnError, wantStatus: http.StatusInternalServerError, wantKind: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			ts.settlements.On("Settle", mock.Anything, mock.Anything).Return(nil, tt.err)

			rr := ts.do(t, http.MethodPost, "/v1/instructions", instructionBody(t, rewardInstruction(t)))
			assert.Equal(t, tt.wantStatus, rr.Code)
			resp := decodeError(t, rr)
			assert.Equal(t, tt.wantKind, resp.Kind)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.Equal(t, "Internal error", resp.Error)
			}
		})
	}
}

func TestProcessInstruction_BadRequests(t *testing.T) {
	ts := newTestServer()

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/instructions", bytes.NewBufferString("{"))
		rr := httptest.NewRecorder()
		ts.handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("data not base58", func(t *testing.T) {
		body := instructionBody(t, rewardInstruction(t))
		body.Data = "0OIl"
		rr := ts.do(t, http.MethodPost, "/v1/instructions", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "bad_request", decodeError(t, rr).Kind)
	})

	t.Run("other program", func(t *testing.T) {
		body := instructionBody(t, rewardInstruction(t))
		body.ProgramID = key(0xBB)
		rr := ts.do(t, http.MethodPost, "/v1/instructions", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "incorrect_program_id", decodeError(t, rr).Kind)
	})

	t.Run("empty data", func(t *testing.T) {
		body := instructionBody(t, rewardInstruction(t))
		body.Data = ""
		rr := ts.do(t, http.MethodPost, "/v1/instructions", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "invalid_instruction", decodeError(t, rr).Kind)
	})

	ts.settlements.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything)
}

func TestGetResult(t *testing.T) {
	ts := newTestServer()

	ts.settlements.On("GetResult", mock.Anything, key(0x11)).
		Return(&models.SettlementResult{LotteryID: 7, Winner: key(0x21)}, nil)
	ts.settlements.On("GetResult", mock.Anything, key(0x12)).
		Return(nil, service.ErrNotSettled)

	rr := ts.do(t, http.MethodGet, "/v1/results/"+key(0x11).String(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var result models.SettlementResult
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&result))
	assert.Equal(t, uint32(7), result.LotteryID)
	assert.Equal(t, key(0x21), result.Winner)

	rr = ts.do(t, http.MethodGet, "/v1/results/"+key(0x12).String(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_settled", decodeError(t, rr).Kind)

	rr = ts.do(t, http.MethodGet, "/v1/results/not-a-key", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetSettlement(t *testing.T) {
	ts := newTestServer()

	settlementID := uuid.New()
	settlement := &models.Settlement{ID: settlementID, LotteryID: 7, ResultAddress: key(0x11), Winner: key(0x21)}
	transfers := []*models.Transfer{
		{ID: 1, SettlementID: &settlementID, Kind: models.TransferKindPayout, Role: "treasury", Amount: 2},
		{ID: 2, SettlementID: &settlementID, Kind: models.TransferKindPayout, Role: models.WinnerRole, Amount: 45},
	}
	ts.settlements.On("GetSettlement", mock.Anything, key(0x11)).Return(settlement, transfers, nil)

	rr := ts.do(t, http.MethodGet, "/v1/settlements/"+key(0x11).String(), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp SettlementResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, settlementID, resp.Settlement.ID)
	require.Len(t, resp.Transfers, 2)
	assert.Equal(t, models.WinnerRole, resp.Transfers[1].Role)
}

func TestGetLotterySettlements(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		setup      func(m *MockSettlementService)
		wantStatus int
		wantCount  int
	}{
		{
			name: "two settlements",
			path: "/v1/lotteries/7/settlements",
			setup: func(m *MockSettlementService) {
				m.On("GetByLotteryID", mock.Anything, uint32(7)).Return([]*models.Settlement{
					{ID: uuid.New(), LotteryID: 7, ResultAddress: key(0x12)},
					{ID: uuid.New(), LotteryID: 7, ResultAddress: key(0x11)},
				}, nil)
			},
			wantStatus: http.StatusOK,
			wantCount:  2,
		},
		{
			name: "never settled",
			path: "/v1/lotteries/8/settlements",
			setup: func(m *MockSettlementService) {
				m.On("GetByLotteryID", mock.Anything, uint32(8)).Return([]*models.Settlement{}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "id is not a number",
			path:       "/v1/lotteries/seven/settlements",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "id overflows u32",
			path:       "/v1/lotteries/4294967296/settlements",
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "repository failure",
			path: "/v1/lotteries/9/settlements",
			setup: func(m *MockSettlementService) {
				m.On("GetByLotteryID", mock.Anything, uint32(9)).Return(nil, assert.AnError)
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			if tt.setup != nil {
				tt.setup(ts.settlements)
			}

			rr := ts.do(t, http.MethodGet, tt.path, nil)
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}

			var settlements []*models.Settlement
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&settlements))
			assert.NotNil(t, settlements)
			assert.Len(t, settlements, tt.wantCount)
			ts.settlements.AssertExpectations(t)
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer()

	rr := ts.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	// one request through the router so the HTTP counters have a sample
	rr = ts.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "lottery_http_requests_total")
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusForKind("not_enough_accounts"))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusForKind("asset_mismatch"))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusForKind("insufficient_funds"))
}
