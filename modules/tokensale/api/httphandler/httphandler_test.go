package httphandler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/modules/tokensale/event"
	"github.com/gaze-network/token-sale/modules/tokensale/ledger"
	"github.com/gaze-network/token-sale/modules/tokensale/repository/memory"
	"github.com/gaze-network/token-sale/modules/tokensale/sale"
	"github.com/gaze-network/token-sale/modules/tokensale/stabletoken"
	"github.com/gaze-network/token-sale/modules/tokensale/usecase"
	"github.com/gaze-network/token-sale/pkg/errorhandler"
	"github.com/gaze-network/token-sale/pkg/middleware/requestcontext"
	"github.com/gofiber/fiber/v2"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	oneMonth   = 2_592_000
	latest     = 1_740_000_000
)

var (
	tokenAddress = common.BytesToAddress([]byte{0xb1})
	saleAddress  = common.BytesToAddress([]byte{0x5a})
	usdtAddress  = common.BytesToAddress([]byte{0xd1})
	owner        = common.BytesToAddress([]byte{0x01})
	buyer        = common.BytesToAddress([]byte{0x02})
	recipient    = common.BytesToAddress([]byte{0x0e})
)

func toWei(amount uint64, decimals uint8) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(amount), new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(decimals))))
}

type testServer struct {
	t   *testing.T
	app *fiber.App
	now time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{t: t, now: time.Unix(latest, 0)}

	uc, err := usecase.New(usecase.Genesis{
		Token: ledger.Config{
			Address:   tokenAddress,
			Name:      "Sale Token",
			Symbol:    "SALE",
			MaxSupply: toWei(316_988_658, 18),
			Admin:     owner,
		},
		Sale: sale.Config{
			Address:    saleAddress,
			Governance: owner,
			Recipient:  recipient,
		},
		PaymentAssets: []stabletoken.Config{{
			Address:  usdtAddress,
			Name:     "Tether USD",
			Symbol:   "USDT",
			Decimals: 6,
			Cap:      toWei(1_000_000_000, 6),
			Owner:    owner,
		}},
	}, memory.NewRepository(), usecase.WithClock(func() time.Time { return s.now }))
	require.NoError(t, err)

	s.app = fiber.New(fiber.Config{ErrorHandler: errorhandler.NewHTTPErrorHandler()})
	s.app.Use(requestcontext.New(requestcontext.WithCaller(testSecret)))
	require.NoError(t, New(uc).Mount(s.app))
	return s
}

func (s *testServer) do(method, path string, as *common.Address, body any) (int, []byte) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if as != nil {
		token, err := requestcontext.NewCallerToken([]byte(testSecret), *as, time.Now(), time.Hour)
		require.NoError(s.t, err)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var resp HttpResponse[T]
	require.NoError(t, json.Unmarshal(data, &resp))
	require.Nil(t, resp.Error)
	require.NotNil(t, resp.Result)
	return *resp.Result
}

func (s *testServer) mustPost(path string, as common.Address, body any) txResult {
	s.t.Helper()
	status, data := s.do(http.MethodPost, path, &as, body)
	require.Equal(s.t, http.StatusOK, status, string(data))
	return decode[txResult](s.t, data)
}

func TestGetTokenInfo(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	status, data := s.do(http.MethodGet, "/v1/tokensale/token", nil, nil)
	require.Equal(t, http.StatusOK, status)
	info := decode[tokenInfoResult](t, data)
	assert.Equal(t, tokenAddress, info.Address)
	assert.Equal(t, "SALE", info.Symbol)
	assert.Equal(t, uint8(18), info.Decimals)
	assert.Equal(t, "316988658", info.MaxSupply.Formatted)
	assert.Equal(t, "0", info.TotalSupply.Value)
}

func TestWriteRequiresCaller(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	status, _ := s.do(http.MethodPost, "/v1/tokensale/token/mint", nil, mintRequest{To: buyer.String(), Amount: "1"})
	assert.Equal(t, http.StatusForbidden, status)

	req := httptest.NewRequest(http.MethodPost, "/v1/tokensale/token/mint", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer not-a-jwt")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMint(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	status, data := s.do(http.MethodPost, "/v1/tokensale/token/mint", &buyer, mintRequest{To: buyer.String(), Amount: "1"})
	assert.Equal(t, http.StatusForbidden, status, "only managers mint")
	assert.Contains(t, string(data), `"code":"UNAUTHORIZED"`)

	status, data = s.do(http.MethodPost, "/v1/tokensale/token/mint", &owner, mintRequest{To: "0x123", Amount: "-1"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(data), "'to' is not a valid address")
	assert.Contains(t, string(data), "'amount' must be a non-negative integer")

	result := s.mustPost("/v1/tokensale/token/mint", owner, mintRequest{To: buyer.String(), Amount: toWei(5, 18).Dec()})
	assert.Equal(t, uint64(1), result.Transaction.Seq)
	require.Len(t, result.Events, 1)
	assert.Equal(t, event.NameTransfer, result.Events[0].Name)

	status, data = s.do(http.MethodGet, "/v1/tokensale/balances/"+buyer.String(), nil, nil)
	require.Equal(t, http.StatusOK, status)
	balance := decode[balanceResult](t, data)
	assert.Equal(t, "5", balance.Balance.Formatted)
	assert.Equal(t, "5", balance.Transferable.Formatted)
	assert.Equal(t, "0", balance.Locked.Value)
}

func TestPurchase(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	s.mustPost("/v1/tokensale/sale/batches/1", owner, setBatchRequest{
		HardCap: toWei(15_849_932, 18).Dec(),
		Start:   latest + 10_000,
		End:     latest + 20_000,
	})
	s.mustPost("/v1/tokensale/sale/batches/1/vesting-plan", owner, vestingPlanResult{
		TGE:           latest + 100_000,
		TGEPercentage: 7,
		Basis:         oneMonth,
		Cliff:         2 * oneMonth,
		Duration:      41 * oneMonth,
	})
	s.mustPost("/v1/tokensale/sale/batches/1/prices", owner, setBatchPriceRequest{PaymentAsset: usdtAddress.String(), Price: "60000"})
	s.mustPost("/v1/tokensale/sale/batches/1/status", owner, setBatchStatusRequest{Status: sale.BatchStatusActive})
	s.mustPost("/v1/tokensale/payments/"+usdtAddress.String()+"/mint", owner, paymentTransferRequest{To: buyer.String(), Amount: toWei(100, 6).Dec()})
	s.mustPost("/v1/tokensale/payments/"+usdtAddress.String()+"/approve", buyer, paymentApproveRequest{Spender: saleAddress.String(), Amount: toWei(100, 6).Dec()})

	purchase := purchaseRequest{BatchID: 1, PaymentAsset: usdtAddress.String(), PaymentAmount: toWei(60, 6).Dec()}
	status, data := s.do(http.MethodPost, "/v1/tokensale/sale/purchase", &buyer, purchase)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(data), sale.ErrNotStarted.Error())
	assert.Contains(t, string(data), `"code":"SALE_NOT_STARTED"`)

	s.now = time.Unix(latest+10_001, 0)
	result := s.mustPost("/v1/tokensale/sale/purchase", buyer, purchase)
	assert.Equal(t, sale.NamePurchased, result.Events[len(result.Events)-1].Name)

	status, data = s.do(http.MethodGet, "/v1/tokensale/sale/users/"+buyer.String()+"/batches/1", nil, nil)
	require.Equal(t, http.StatusOK, status)
	bought := decode[userAmountResult](t, data)
	assert.Equal(t, "1000", bought.Amount.Formatted)

	status, data = s.do(http.MethodGet, "/v1/tokensale/balances/"+buyer.String()+"?at=1740100000", nil, nil)
	require.Equal(t, http.StatusOK, status)
	balance := decode[balanceResult](t, data)
	assert.Equal(t, "1000", balance.Balance.Formatted)
	assert.Equal(t, "70", balance.Transferable.Formatted)
	assert.Equal(t, "930", balance.Locked.Formatted)

	status, data = s.do(http.MethodGet, "/v1/tokensale/vestings/account/"+buyer.String(), nil, nil)
	require.Equal(t, http.StatusOK, status)
	vestings := decode[vestingsResult](t, data)
	require.Len(t, vestings.List, 1)
	assert.Equal(t, "70", vestings.List[0].TGEAmount.Formatted)

	status, data = s.do(http.MethodGet, "/v1/tokensale/payments/"+usdtAddress.String()+"/balances/"+recipient.String(), nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "60", decode[paymentBalanceResult](t, data).Balance.Formatted)

	status, data = s.do(http.MethodGet, "/v1/tokensale/events/"+buyer.String(), nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, decode[eventsResult](t, data).List)
}

func TestNotFound(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	status, _ := s.do(http.MethodGet, "/v1/tokensale/vestings/9", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(http.MethodGet, "/v1/tokensale/sale/batches/9", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(http.MethodGet, "/v1/tokensale/payments/"+tokenAddress.String()+"/balances/"+buyer.String(), nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}
