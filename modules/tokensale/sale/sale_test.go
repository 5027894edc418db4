package sale

import (
	"fmt"
	"testing"

	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/modules/tokensale/accesscontrol"
	"github.com/gaze-network/token-sale/modules/tokensale/event"
	"github.com/gaze-network/token-sale/modules/tokensale/ledger"
	"github.com/gaze-network/token-sale/modules/tokensale/stabletoken"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	oneMonth = uint64(2_592_000)
	latest   = uint64(1_740_000_000)
)

var (
	tokenAddress = common.BytesToAddress([]byte{0xb1})
	saleAddress  = common.BytesToAddress([]byte{0x5a})
	usdtAddress  = common.BytesToAddress([]byte{0xd1})
	owner        = common.BytesToAddress([]byte{0x01})
	account1     = common.BytesToAddress([]byte{0x02})
	account2     = common.BytesToAddress([]byte{0x03})
)

func toWei(amount uint64, decimals uint8) *uint256.Int {
	v := uint256.NewInt(amount)
	for i := uint8(0); i < decimals; i++ {
		v.Mul(v, uint256.NewInt(10))
	}
	return v
}

type fixture struct {
	token    *ledger.Ledger
	engine   *Engine
	usdt     *stabletoken.Token
	recorder *event.Recorder
}

func setupContractFixture(t *testing.T) *fixture {
	t.Helper()

	recorder := event.NewRecorder()
	token, err := ledger.New(ledger.Config{
		Address:   tokenAddress,
		Name:      "Mbit Token",
		Symbol:    "BIT",
		MaxSupply: toWei(316_988_658, 18),
		Admin:     owner,
	}, recorder)
	require.NoError(t, err)

	usdt, err := stabletoken.New(stabletoken.Config{
		Address:  usdtAddress,
		Name:     "Tether USD",
		Symbol:   "USDT",
		Decimals: 6,
		Cap:      toWei(1_000_000_000, 6),
		Owner:    owner,
	}, recorder)
	require.NoError(t, err)

	payments := func(address common.Address) (PaymentAsset, bool) {
		if address == usdtAddress {
			return usdt, true
		}
		return nil, false
	}
	engine, err := New(Config{Address: saleAddress, Governance: owner, Recipient: owner}, token, payments, recorder)
	require.NoError(t, err)

	require.NoError(t, token.GrantRole(owner, accesscontrol.RoleManager, saleAddress))
	require.NoError(t, usdt.Mint(owner, account1, toWei(1_000_000, 6)))
	require.NoError(t, usdt.Mint(owner, account2, toWei(1_000_000, 6)))
	recorder.Discard()

	return &fixture{token: token, engine: engine, usdt: usdt, recorder: recorder}
}

type batchFixture struct {
	batchID       uint64
	status        BatchStatus
	batch         Batch
	plan          BatchVestingPlan
	price         *uint256.Int
	paymentAmount *uint256.Int
	receiveAmount *uint256.Int
}

func setupBatchFixture() []batchFixture {
	plan := func(tgePercentage, durationMonths uint64) BatchVestingPlan {
		return BatchVestingPlan{
			PercentageDecimals: 0,
			TGE:                latest + 100_000,
			TGEPercentage:      tgePercentage,
			Basis:              oneMonth,
			Cliff:              2 * oneMonth,
			Duration:           durationMonths * oneMonth,
		}
	}
	return []batchFixture{
		{
			batchID:       1,
			status:        BatchStatusActive,
			batch:         Batch{HardCap: toWei(15_849_932, 18), Start: latest + 10_000, End: latest + 20_000},
			plan:          plan(7, 41),
			price:         uint256.NewInt(60_000),
			paymentAmount: toWei(6, 6),
			receiveAmount: toWei(100, 18),
		},
		{
			batchID:       2,
			status:        BatchStatusActive,
			batch:         Batch{HardCap: toWei(9_509_959, 18), Start: latest + 30_000, End: latest + 40_000},
			plan:          plan(7, 35),
			price:         uint256.NewInt(80_000),
			paymentAmount: toWei(8, 6),
			receiveAmount: toWei(100, 18),
		},
		{
			batchID:       3,
			status:        BatchStatusActive,
			batch:         Batch{HardCap: toWei(15_849_932, 18), Start: latest + 50_000, End: latest + 60_000},
			plan:          plan(8, 35),
			price:         uint256.NewInt(100_000),
			paymentAmount: toWei(10, 6),
			receiveAmount: toWei(100, 18),
		},
		{
			batchID:       4,
			status:        BatchStatusActive,
			batch:         Batch{HardCap: toWei(15_849_932, 18), Start: latest + 70_000, End: latest + 80_000},
			plan:          plan(10, 17),
			price:         uint256.NewInt(200_000),
			paymentAmount: toWei(20, 6),
			receiveAmount: toWei(100, 18),
		},
	}
}

func (f *fixture) configure(t *testing.T, b batchFixture) {
	t.Helper()
	require.NoError(t, f.engine.SetBatch(owner, b.batchID, b.batch))
	require.NoError(t, f.engine.SetBatchVestingPlan(owner, b.batchID, b.plan))
	require.NoError(t, f.engine.SetBatchStatus(owner, b.batchID, b.status))
	require.NoError(t, f.engine.SetBatchPrice(owner, b.batchID, usdtAddress, b.price))
}

func TestDeployment(t *testing.T) {
	t.Parallel()

	f := setupContractFixture(t)
	assert.Equal(t, tokenAddress, f.engine.SaleToken())
	assert.Equal(t, owner, f.engine.Recipient())
	assert.Equal(t, owner, f.engine.Governance())
	assert.False(t, f.engine.Paused())
}

func TestGovernanceOnlySetters(t *testing.T) {
	t.Parallel()

	t.Run("set governance", func(t *testing.T) {
		t.Parallel()
		f := setupContractFixture(t)
		assert.ErrorIs(t, f.engine.SetGovernance(account1, account1), errs.Unauthorized)
		assert.Equal(t, owner, f.engine.Governance())
		require.NoError(t, f.engine.SetGovernance(owner, account1))
		assert.Equal(t, account1, f.engine.Governance())
		require.NoError(t, f.engine.SetGovernance(account1, owner))
		assert.Equal(t, owner, f.engine.Governance())
	})

	t.Run("set operator", func(t *testing.T) {
		t.Parallel()
		f := setupContractFixture(t)
		assert.ErrorIs(t, f.engine.SetOperator(account1, account1, true), errs.Unauthorized)
		assert.False(t, f.engine.IsOperator(account1))
		require.NoError(t, f.engine.SetOperator(owner, account1, true))
		assert.True(t, f.engine.IsOperator(account1))
		require.NoError(t, f.engine.SetOperator(owner, account1, false))
		assert.False(t, f.engine.IsOperator(account1))
	})

	t.Run("set recipient", func(t *testing.T) {
		t.Parallel()
		f := setupContractFixture(t)
		assert.ErrorIs(t, f.engine.SetRecipient(account1, account1), errs.Unauthorized)
		assert.Equal(t, owner, f.engine.Recipient())
		require.NoError(t, f.engine.SetRecipient(owner, account1))
		assert.Equal(t, account1, f.engine.Recipient())
		assert.ErrorIs(t, f.engine.SetRecipient(owner, common.ZeroAddress), errs.InvalidArgument)
	})

	t.Run("set sale token", func(t *testing.T) {
		t.Parallel()
		f := setupContractFixture(t)
		other, err := ledger.New(ledger.Config{
			Address:   common.BytesToAddress([]byte{0xb2}),
			Name:      "Mbit Token",
			Symbol:    "BIT",
			MaxSupply: toWei(316_988_658, 18),
			Admin:     owner,
		}, nil)
		require.NoError(t, err)
		assert.ErrorIs(t, f.engine.SetSaleToken(account1, other), errs.Unauthorized)
		assert.Equal(t, tokenAddress, f.engine.SaleToken())
		require.NoError(t, f.engine.SetSaleToken(owner, other))
		assert.Equal(t, other.Address(), f.engine.SaleToken())
	})

	t.Run("operator cannot use governance setters", func(t *testing.T) {
		t.Parallel()
		f := setupContractFixture(t)
		require.NoError(t, f.engine.SetOperator(owner, account1, true))
		assert.ErrorIs(t, f.engine.SetPause(account1, true), errs.Unauthorized)
		assert.ErrorIs(t, f.engine.SetRecipient(account1, account1), errs.Unauthorized)
		assert.ErrorIs(t, f.engine.SetOperator(account1, account2, true), errs.Unauthorized)

		// but it can administer batches
		b := setupBatchFixture()[0]
		require.NoError(t, f.engine.SetBatch(account1, b.batchID, b.batch))
		require.NoError(t, f.engine.SetBatchStatus(account1, b.batchID, b.status))
		assert.ErrorIs(t, f.engine.SetBatch(account2, b.batchID, b.batch), errs.Unauthorized)
	})
}

func TestBatchSetterValidation(t *testing.T) {
	t.Parallel()

	f := setupContractFixture(t)
	assert.ErrorIs(t, f.engine.SetBatch(owner, 1, Batch{HardCap: toWei(1, 18), Start: 10, End: 10}), ErrInvalidBatch)
	assert.ErrorIs(t, f.engine.SetBatch(owner, 1, Batch{Start: 1, End: 10}), ErrInvalidBatch)
	require.NoError(t, f.engine.SetBatch(owner, 1, Batch{HardCap: toWei(1, 18), Start: 10, End: 0}), "end 0 is open ended")

	assert.ErrorIs(t, f.engine.SetBatchStatus(owner, 1, BatchStatus(2)), ErrInvalidBatchStatus)
	assert.ErrorIs(t, f.engine.SetBatchPrice(owner, 1, usdtAddress, uint256.NewInt(0)), ErrInvalidPrice)
	assert.ErrorIs(t, f.engine.SetBatchPrice(owner, 1, common.ZeroAddress, uint256.NewInt(1)), errs.InvalidArgument)

	plan := setupBatchFixture()[0].plan
	plan.Duration++
	assert.ErrorIs(t, f.engine.SetBatchVestingPlan(owner, 1, plan), ledger.ErrInvalidPlan)
	plan = setupBatchFixture()[0].plan
	plan.TGEPercentage = 101
	assert.ErrorIs(t, f.engine.SetBatchVestingPlan(owner, 1, plan), ledger.ErrInvalidPlan)
	plan.PercentageDecimals = 1
	assert.NoError(t, f.engine.SetBatchVestingPlan(owner, 1, plan), "10.1%")
}

func TestSetupSaleBatchesAndPurchase(t *testing.T) {
	t.Parallel()

	f := setupContractFixture(t)
	recipient := f.engine.Recipient()
	assert.False(t, f.engine.UsersContains(account1))

	total := new(uint256.Int)
	for i, b := range setupBatchFixture() {
		total.Add(total, b.receiveAmount)
		f.configure(t, b)

		info, ok := f.engine.BatchInfo(b.batchID)
		assert.True(t, ok)
		assert.Equal(t, b.batch, info)
		plan, ok := f.engine.BatchVestingPlan(b.batchID)
		assert.True(t, ok)
		assert.Equal(t, b.plan, plan)
		assert.Equal(t, b.status, f.engine.BatchStatus(b.batchID))
		assert.Equal(t, b.price, f.engine.BatchPrice(b.batchID, usdtAddress))

		require.NoError(t, f.usdt.Approve(account1, saleAddress, b.paymentAmount))

		_, err := f.engine.Purchase(b.batch.Start-1, account1, b.batchID, usdtAddress, b.paymentAmount)
		assert.ErrorIs(t, err, ErrNotStarted)
		assert.EqualError(t, ErrNotStarted, "The sale have not started yet")

		buyerBefore := f.usdt.BalanceOf(account1)
		recipientBefore := f.usdt.BalanceOf(recipient)
		receipt, err := f.engine.Purchase(b.batch.Start, account1, b.batchID, usdtAddress, b.paymentAmount)
		require.NoError(t, err)
		assert.Equal(t, b.receiveAmount, receipt.ReceiveAmount)
		assert.Equal(t, uint64(i), receipt.VestingIndex)
		assert.Equal(t, new(uint256.Int).Sub(buyerBefore, b.paymentAmount), f.usdt.BalanceOf(account1))
		assert.Equal(t, new(uint256.Int).Add(recipientBefore, b.paymentAmount), f.usdt.BalanceOf(recipient))

		_, err = f.engine.Purchase(b.batch.End, account1, b.batchID, usdtAddress, b.paymentAmount)
		assert.ErrorIs(t, err, ErrSaleEnded)

		assert.Equal(t, b.receiveAmount, f.engine.UserAmountOfBatch(b.batchID, account1))
		assert.Equal(t, total, f.engine.UserAmount(account1))
		assert.Equal(t, total, f.token.BalanceOf(account1))
		assert.Equal(t, total, f.token.LockedBalanceOf(b.batch.End, account1))
		assert.True(t, f.token.TransferableBalanceOf(b.batch.End, account1).IsZero())

		grant, err := f.token.VestingInfo(uint64(i))
		require.NoError(t, err)
		assert.Equal(t, account1, grant.Beneficiary)
		assert.Equal(t, b.plan.TGE, grant.TGE)
		assert.Equal(t, b.receiveAmount, grant.TotalAmount)
		expectedTGE := new(uint256.Int).Mul(b.receiveAmount, uint256.NewInt(b.plan.TGEPercentage))
		expectedTGE.Div(expectedTGE, uint256.NewInt(100))
		assert.Equal(t, expectedTGE, grant.TGEAmount)
		assert.Equal(t, b.plan.Basis, grant.Basis)
		assert.Equal(t, b.plan.Cliff, grant.Cliff)
		assert.Equal(t, b.plan.Duration, grant.Duration)
	}

	assert.True(t, f.engine.UsersContains(account1))
	assert.Equal(t, 1, f.engine.UsersLength(), "membership is idempotent")
	user, err := f.engine.UserAt(0)
	require.NoError(t, err)
	assert.Equal(t, account1, user)
	_, err = f.engine.UserAt(1)
	assert.ErrorIs(t, err, errs.NotFound)
}

func TestCannotPurchaseWhenPaused(t *testing.T) {
	t.Parallel()

	f := setupContractFixture(t)
	for _, b := range setupBatchFixture() {
		f.configure(t, b)
		require.NoError(t, f.usdt.Approve(account1, saleAddress, b.paymentAmount))

		require.NoError(t, f.engine.SetPause(owner, true))
		for _, now := range []uint64{b.batch.Start - 1, b.batch.Start, b.batch.End} {
			_, err := f.engine.Purchase(now, account1, b.batchID, usdtAddress, b.paymentAmount)
			assert.ErrorIs(t, err, ErrPaused, fmt.Sprintf("batch %d at %d", b.batchID, now))
		}
		assert.EqualError(t, ErrPaused, "Paused")

		require.NoError(t, f.engine.SetPause(owner, false))
		_, err := f.engine.Purchase(b.batch.Start, account1, b.batchID, usdtAddress, b.paymentAmount)
		require.NoError(t, err)
		assert.Equal(t, b.receiveAmount, f.engine.UserAmountOfBatch(b.batchID, account1))
	}
	assert.True(t, f.engine.UsersContains(account1))
}

func TestPurchaseRejections(t *testing.T) {
	t.Parallel()

	b := setupBatchFixture()[0]
	now := b.batch.Start

	type testCase struct {
		name    string
		prepare func(t *testing.T, f *fixture)
		amount  *uint256.Int
		asset   common.Address
		err     error
	}

	testCases := []testCase{
		{
			name: "inactive batch",
			prepare: func(t *testing.T, f *fixture) {
				require.NoError(t, f.engine.SetBatchStatus(owner, b.batchID, BatchStatusInactive))
			},
			err: ErrBatchNotActive,
		},
		{
			name:  "price not set",
			asset: common.BytesToAddress([]byte{0xee}),
			err:   ErrPriceNotSet,
		},
		{
			name: "unknown payment asset",
			prepare: func(t *testing.T, f *fixture) {
				require.NoError(t, f.engine.SetBatchPrice(owner, b.batchID, common.BytesToAddress([]byte{0xee}), uint256.NewInt(1)))
			},
			asset: common.BytesToAddress([]byte{0xee}),
			err:   ErrUnknownPaymentAsset,
		},
		{
			name: "hard cap",
			prepare: func(t *testing.T, f *fixture) {
				batch := b.batch
				batch.HardCap = new(uint256.Int).SubUint64(b.receiveAmount, 1)
				require.NoError(t, f.engine.SetBatch(owner, b.batchID, batch))
			},
			err: ErrHardCapExceeded,
		},
		{
			name: "no vesting plan",
			prepare: func(t *testing.T, f *fixture) {
				require.NoError(t, f.engine.SetBatch(owner, 9, b.batch))
				require.NoError(t, f.engine.SetBatchStatus(owner, 9, BatchStatusActive))
				require.NoError(t, f.engine.SetBatchPrice(owner, 9, usdtAddress, b.price))
			},
			err: ErrVestingPlanNotSet,
		},
		{
			name: "sale token supply cap",
			prepare: func(t *testing.T, f *fixture) {
				require.NoError(t, f.token.Mint(owner, owner, new(uint256.Int).Sub(f.token.MaxSupply(), toWei(99, 18))))
			},
			err: ledger.ErrSupplyCapExceeded,
		},
		{
			name: "engine lost manager role",
			prepare: func(t *testing.T, f *fixture) {
				require.NoError(t, f.token.RevokeRole(owner, accesscontrol.RoleManager, saleAddress))
			},
			err: errs.Unauthorized,
		},
		{
			name: "allowance too low",
			prepare: func(t *testing.T, f *fixture) {
				require.NoError(t, f.usdt.Approve(account1, saleAddress, uint256.NewInt(1)))
			},
			err: stabletoken.ErrInsufficientAllowance,
		},
		{
			name:   "payment too small",
			amount: uint256.NewInt(0),
			err:    ErrZeroReceiveAmount,
		},
		{
			name:   "receive amount overflows",
			amount: new(uint256.Int).SetAllOne(),
			err:    errs.OverflowUint256,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := setupContractFixture(t)
			f.configure(t, b)
			require.NoError(t, f.usdt.Approve(account1, saleAddress, b.paymentAmount))
			if tc.prepare != nil {
				tc.prepare(t, f)
			}
			asset := usdtAddress
			if !tc.asset.IsZero() {
				asset = tc.asset
			}
			amount := b.paymentAmount
			if tc.amount != nil {
				amount = tc.amount
			}
			batchID := b.batchID
			if tc.err == ErrVestingPlanNotSet {
				batchID = 9
			}

			supplyBefore := f.token.TotalSupply()
			paymentBefore := f.usdt.BalanceOf(account1)
			f.recorder.Discard()

			_, err := f.engine.Purchase(now, account1, batchID, asset, amount)
			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, supplyBefore, f.token.TotalSupply())
			assert.Equal(t, paymentBefore, f.usdt.BalanceOf(account1))
			assert.True(t, f.engine.UserAmount(account1).IsZero())
			assert.False(t, f.engine.UsersContains(account1))
			assert.Zero(t, f.recorder.Len(), "failed purchase emits nothing")
		})
	}
}

func TestHardCapIsCumulative(t *testing.T) {
	t.Parallel()

	b := setupBatchFixture()[0]
	testCases := []struct {
		name      string
		hardCap   *uint256.Int
		purchases int
	}{
		{
			name:      "purchases fill the cap exactly",
			hardCap:   new(uint256.Int).Mul(b.receiveAmount, uint256.NewInt(3)),
			purchases: 3,
		},
		{
			name:      "remaining room smaller than a purchase",
			hardCap:   new(uint256.Int).AddUint64(new(uint256.Int).Mul(b.receiveAmount, uint256.NewInt(2)), 1),
			purchases: 2,
		},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := setupContractFixture(t)
			batch := b
			batch.batch.HardCap = tc.hardCap
			f.configure(t, batch)
			for _, buyer := range []common.Address{account1, account2} {
				require.NoError(t, f.usdt.Approve(buyer, saleAddress, new(uint256.Int).SetAllOne()))
			}

			buyers := []common.Address{account1, account2}
			for i := 0; i < tc.purchases; i++ {
				_, err := f.engine.Purchase(b.batch.Start, buyers[i%2], b.batchID, usdtAddress, b.paymentAmount)
				require.NoError(t, err, "purchase %d", i+1)
			}
			sold := new(uint256.Int).Mul(b.receiveAmount, uint256.NewInt(uint64(tc.purchases)))
			assert.Equal(t, sold, f.engine.BatchSold(b.batchID))

			supplyBefore := f.token.TotalSupply()
			paymentBefore := f.usdt.BalanceOf(account1)
			userBefore := f.engine.UserAmount(account1)
			f.recorder.Discard()

			_, err := f.engine.Purchase(b.batch.Start, account1, b.batchID, usdtAddress, b.paymentAmount)
			assert.ErrorIs(t, err, ErrHardCapExceeded)
			assert.Equal(t, sold, f.engine.BatchSold(b.batchID))
			assert.Equal(t, supplyBefore, f.token.TotalSupply())
			assert.Equal(t, paymentBefore, f.usdt.BalanceOf(account1))
			assert.Equal(t, userBefore, f.engine.UserAmount(account1))
			assert.Zero(t, f.recorder.Len())
		})
	}
}

func TestOpenEndedBatch(t *testing.T) {
	t.Parallel()

	f := setupContractFixture(t)
	b := setupBatchFixture()[1]
	b.batch.End = 0
	f.configure(t, b)
	require.NoError(t, f.usdt.Approve(account1, saleAddress, new(uint256.Int).SetAllOne()))

	for _, now := range []uint64{b.batch.Start, b.batch.Start + 10*oneMonth, b.batch.Start + 100*oneMonth} {
		_, err := f.engine.Purchase(now, account1, b.batchID, usdtAddress, b.paymentAmount)
		require.NoError(t, err)
	}
	assert.Equal(t, toWei(300, 18), f.engine.BatchSold(b.batchID))
}

func TestPurchaseEvents(t *testing.T) {
	t.Parallel()

	f := setupContractFixture(t)
	b := setupBatchFixture()[0]
	f.configure(t, b)
	require.NoError(t, f.usdt.Approve(account1, saleAddress, b.paymentAmount))
	f.recorder.Discard()

	receipt, err := f.engine.Purchase(b.batch.Start, account1, b.batchID, usdtAddress, b.paymentAmount)
	require.NoError(t, err)

	events := f.recorder.Flush()
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{event.NameTransfer, event.NameTransfer, ledger.NameVestingGrantCreated, NamePurchased}, names)
	assert.Equal(t, usdtAddress, events[0].Source(), "payment moves first")
	assert.Equal(t, PurchasedEvent{Sale: saleAddress, Receipt: *receipt}, events[3])
}

func TestSupplyNeverExceedsCap(t *testing.T) {
	t.Parallel()

	f := setupContractFixture(t)
	b := setupBatchFixture()[0]
	b.batch.HardCap = toWei(1_000_000_000, 18)
	b.price = uint256.NewInt(1)
	f.configure(t, b)
	require.NoError(t, f.usdt.Approve(account1, saleAddress, new(uint256.Int).SetAllOne()))

	// at price 1, one micro USDT buys 10^18 units, i.e. one whole token
	chunk := toWei(100_000_000, 0)
	for i := 0; i < 4; i++ {
		_, err := f.engine.Purchase(b.batch.Start, account1, b.batchID, usdtAddress, chunk)
		if i < 3 {
			require.NoError(t, err)
			continue
		}
		assert.ErrorIs(t, err, ledger.ErrSupplyCapExceeded)
	}
	assert.Equal(t, toWei(300_000_000, 18), f.token.TotalSupply())
	assert.False(t, f.token.TotalSupply().Gt(f.token.MaxSupply()))
}
