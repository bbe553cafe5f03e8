package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"casino/domain/entities"
	"casino/domain/interfaces"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testServiceToken = "blackjack-secret"

type mockSettlementService struct {
	mock.Mock
}

func (m *mockSettlementService) Settle(ctx context.Context, req interfaces.SettlementRequest) (*interfaces.SettlementResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.SettlementResult), args.Error(1)
}

func newSettlementServer(settlements interfaces.SettlementService) http.Handler {
	return NewRouter(RouterDeps{Games: new(mockGameService), Settlements: settlements, ServiceToken: testServiceToken})
}

// settle posts body to /v1/settlements with the given service token and,
// when player is set, a player id header
func settle(t *testing.T, h http.Handler, body, token string, player bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/settlements", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(ServiceTokenHeader, token)
	}
	if player {
		req.Header.Set(PlayerIDHeader, "42")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSettlementHandler(t *testing.T) {
	settlements := new(mockSettlementService)
	h := newSettlementServer(settlements)

	settlements.On("Settle", mock.Anything, mock.MatchedBy(func(req interfaces.SettlementRequest) bool {
		return req.AccountID == 7 &&
			req.GameKind == entities.GameKindExternal &&
			req.Stake.Equal(decimal.NewFromInt(10)) &&
			req.Payout.Equal(decimal.NewFromInt(25)) &&
			req.Reference == "blackjack:hand-7"
	})).Return(&interfaces.SettlementResult{LedgerID: 31, BalanceAfter: decimal.NewFromInt(115)}, nil).Once()

	rec := settle(t, h,
		`{"account_id":7,"stake":"10","payout":"25","reference":"blackjack:hand-7","detail":{"hand":"21"}}`, testServiceToken, false)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SettlementResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(31), resp.LedgerID)
	assert.True(t, resp.Balance.Equal(decimal.NewFromInt(115)))

	settlements.On("Settle", mock.Anything, mock.Anything).Return(nil, entities.ErrInsufficientBalance).Once()
	rec = settle(t, h, `{"account_id":7,"stake":"1000","payout":"0","reference":"blackjack:hand-8"}`, testServiceToken, false)
	assert.Equal(t, http.StatusConflict, rec.Code)

	settlements.AssertExpectations(t)
}

func TestSettlementHandler_BadRequests(t *testing.T) {
	settlements := new(mockSettlementService)
	h := newSettlementServer(settlements)

	for name, body := range map[string]string{
		"missing reference": `{"account_id":7,"stake":"10","payout":"0"}`,
		"missing account":   `{"stake":"10","payout":"0","reference":"r-1"}`,
		"malformed":         `{"account_id":`,
	} {
		rec := settle(t, h, body, testServiceToken, false)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
	settlements.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything)
}

func TestSettlementHandler_ReplayedReference(t *testing.T) {
	settlements := new(mockSettlementService)
	h := newSettlementServer(settlements)

	settlements.On("Settle", mock.Anything, mock.Anything).
		Return(nil, entities.ErrDuplicateSettlement).Once()

	rec := settle(t, h, `{"account_id":7,"stake":"10","payout":"20","reference":"blackjack:hand-7"}`, testServiceToken, false)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "settlement already recorded")
	settlements.AssertExpectations(t)
}

func TestSettlementRoute_RefusesPlayers(t *testing.T) {
	settlements := new(mockSettlementService)
	h := newSettlementServer(settlements)
	body := `{"account_id":42,"stake":"1","payout":"10000","reference":"self-credit"}`

	tests := []struct {
		name   string
		token  string
		player bool
	}{
		{name: "player header only", player: true},
		{name: "wrong token with player header", token: "guess", player: true},
		{name: "no credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := settle(t, h, body, tt.token, tt.player)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
	settlements.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything)
}

func TestSettlementRoute_PlayerRoutesIgnoreServiceToken(t *testing.T) {
	h := newSettlementServer(new(mockSettlementService))

	req := httptest.NewRequest(http.MethodGet, "/v1/ledger", nil)
	req.Header.Set(ServiceTokenHeader, testServiceToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSettlementRoute_NotMountedWithoutToken(t *testing.T) {
	for name, deps := range map[string]RouterDeps{
		"no service": {Games: new(mockGameService), ServiceToken: testServiceToken},
		"no token":   {Games: new(mockGameService), Settlements: new(mockSettlementService)},
	} {
		h := NewRouter(deps)
		rec := settle(t, h, `{"account_id":7,"stake":"10","payout":"0","reference":"x"}`, testServiceToken, true)
		assert.Equal(t, http.StatusNotFound, rec.Code, name)
	}
}
