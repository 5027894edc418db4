package ledger

import (
	"fmt"
	"testing"

	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/modules/tokensale/accesscontrol"
	"github.com/gaze-network/token-sale/modules/tokensale/event"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokenAddress = common.BytesToAddress([]byte{0xb1, 0x7})
	owner        = common.BytesToAddress([]byte{0x01})
	otherAccount = common.BytesToAddress([]byte{0x02})
	preSeed      = common.BytesToAddress([]byte{0x03})
	manager      = common.BytesToAddress([]byte{0x04})
)

func newTestLedger(t *testing.T) (*Ledger, *event.Recorder) {
	t.Helper()
	recorder := event.NewRecorder()
	l, err := New(Config{
		Address:   tokenAddress,
		Name:      "Mbit Token",
		Symbol:    "BIT",
		MaxSupply: toWei(316_988_658),
		Admin:     owner,
	}, recorder)
	require.NoError(t, err)
	return l, recorder
}

func TestDeployment(t *testing.T) {
	t.Parallel()

	l, _ := newTestLedger(t)
	assert.Equal(t, "Mbit Token", l.Name())
	assert.Equal(t, "BIT", l.Symbol())
	assert.Equal(t, uint8(18), l.Decimals())
	assert.True(t, l.TotalSupply().IsZero())
	assert.Equal(t, toWei(316_988_658), l.MaxSupply())
	assert.True(t, l.BalanceOf(owner).IsZero())
	assert.True(t, l.HasRole(owner, accesscontrol.RoleManager))
	assert.True(t, l.HasRole(owner, accesscontrol.RoleGovernance))

	_, err := New(Config{MaxSupply: toWei(1)}, nil)
	assert.ErrorIs(t, err, errs.InvalidArgument)
}

func TestMint(t *testing.T) {
	t.Parallel()

	t.Run("only manager", func(t *testing.T) {
		t.Parallel()
		l, _ := newTestLedger(t)
		err := l.Mint(otherAccount, otherAccount, toWei(1))
		assert.ErrorIs(t, err, errs.Unauthorized)

		require.NoError(t, l.GrantRole(owner, accesscontrol.RoleManager, manager))
		require.NoError(t, l.Mint(manager, otherAccount, toWei(1)))
		assert.Equal(t, toWei(1), l.BalanceOf(otherAccount))

		require.NoError(t, l.RevokeRole(owner, accesscontrol.RoleManager, manager))
		assert.ErrorIs(t, l.Mint(manager, otherAccount, toWei(1)), errs.Unauthorized)
	})

	t.Run("supply cap", func(t *testing.T) {
		t.Parallel()
		l, _ := newTestLedger(t)
		require.NoError(t, l.Mint(owner, owner, toWei(316_988_657)))

		err := l.Mint(owner, otherAccount, new(uint256.Int).AddUint64(toWei(1), 1))
		assert.ErrorIs(t, err, ErrSupplyCapExceeded)
		assert.Equal(t, toWei(316_988_657), l.TotalSupply(), "failed mint must not change supply")
		assert.True(t, l.BalanceOf(otherAccount).IsZero())

		require.NoError(t, l.Mint(owner, otherAccount, toWei(1)))
		assert.Equal(t, l.MaxSupply(), l.TotalSupply())
		assert.ErrorIs(t, l.Mint(owner, otherAccount, uint256.NewInt(1)), ErrSupplyCapExceeded)
	})

	t.Run("overflowing amount", func(t *testing.T) {
		t.Parallel()
		l, _ := newTestLedger(t)
		require.NoError(t, l.Mint(owner, owner, uint256.NewInt(1)))
		assert.ErrorIs(t, l.Mint(owner, owner, MaxUint256), ErrSupplyCapExceeded)
	})

	t.Run("zero address", func(t *testing.T) {
		t.Parallel()
		l, _ := newTestLedger(t)
		assert.ErrorIs(t, l.Mint(owner, common.ZeroAddress, toWei(1)), ErrZeroAddress)
	})

	t.Run("emits transfer from zero", func(t *testing.T) {
		t.Parallel()
		l, recorder := newTestLedger(t)
		require.NoError(t, l.Mint(owner, otherAccount, toWei(5)))
		assert.Equal(t, []event.Event{
			event.Transfer{Token: tokenAddress, From: common.ZeroAddress, To: otherAccount, Amount: toWei(5)},
		}, recorder.Flush())
	})
}

func TestTransfer(t *testing.T) {
	t.Parallel()

	l, recorder := newTestLedger(t)
	amounts := []*uint256.Int{uint256.NewInt(1), toWei(1_000_000)}
	for _, amount := range amounts {
		require.NoError(t, l.Mint(owner, owner, amount))
		recorder.Discard()

		require.NoError(t, l.Transfer(0, owner, otherAccount, amount))
		assert.Equal(t, []event.Event{
			event.Transfer{Token: tokenAddress, From: owner, To: otherAccount, Amount: amount},
		}, recorder.Flush())
	}
	assert.True(t, l.BalanceOf(owner).IsZero())
	assert.Equal(t, new(uint256.Int).AddUint64(toWei(1_000_000), 1), l.BalanceOf(otherAccount))

	assert.ErrorIs(t, l.Transfer(0, owner, otherAccount, uint256.NewInt(1)), ErrInsufficientTransferable)
	assert.ErrorIs(t, l.Transfer(0, otherAccount, common.ZeroAddress, uint256.NewInt(1)), ErrZeroAddress)
	assert.Equal(t, []common.Address{otherAccount}, l.Holders())
}

func TestApproveAndTransferFrom(t *testing.T) {
	t.Parallel()

	t.Run("approve overwrites", func(t *testing.T) {
		t.Parallel()
		l, recorder := newTestLedger(t)
		for _, amount := range []*uint256.Int{uint256.NewInt(1), toWei(1_000_000)} {
			require.NoError(t, l.Approve(owner, otherAccount, amount))
			assert.Equal(t, amount, l.Allowance(owner, otherAccount))
			assert.Equal(t, []event.Event{
				event.Approval{Token: tokenAddress, Owner: owner, Spender: otherAccount, Amount: amount},
			}, recorder.Flush())
		}
		assert.ErrorIs(t, l.Approve(owner, common.ZeroAddress, toWei(1)), ErrZeroAddress)
	})

	t.Run("transfer from spends allowance", func(t *testing.T) {
		t.Parallel()
		l, _ := newTestLedger(t)
		approval := toWei(1_000_000)
		transfer := toWei(100)
		require.NoError(t, l.Mint(owner, owner, approval))
		require.NoError(t, l.Approve(owner, otherAccount, approval))

		require.NoError(t, l.TransferFrom(0, otherAccount, owner, otherAccount, transfer))
		assert.Equal(t, new(uint256.Int).Sub(approval, transfer), l.BalanceOf(owner))
		assert.Equal(t, transfer, l.BalanceOf(otherAccount))
		assert.Equal(t, new(uint256.Int).Sub(approval, transfer), l.Allowance(owner, otherAccount))
	})

	t.Run("insufficient allowance", func(t *testing.T) {
		t.Parallel()
		l, _ := newTestLedger(t)
		require.NoError(t, l.Mint(owner, owner, toWei(10)))
		require.NoError(t, l.Approve(owner, otherAccount, toWei(1)))
		err := l.TransferFrom(0, otherAccount, owner, otherAccount, toWei(2))
		assert.ErrorIs(t, err, ErrInsufficientAllowance)
		assert.Equal(t, toWei(10), l.BalanceOf(owner))
		assert.Equal(t, toWei(1), l.Allowance(owner, otherAccount))
	})

	t.Run("allowance does not bypass vesting", func(t *testing.T) {
		t.Parallel()
		l, _ := newTestLedger(t)
		_, err := l.MintWithVestingPlan(owner, preSeedGrant(10_000))
		require.NoError(t, err)
		require.NoError(t, l.Approve(preSeed, otherAccount, MaxUint256))

		err = l.TransferFrom(0, otherAccount, preSeed, otherAccount, uint256.NewInt(1))
		assert.ErrorIs(t, err, ErrInsufficientTransferable)
		assert.Equal(t, MaxUint256, l.Allowance(preSeed, otherAccount))
	})

	t.Run("infinite allowance is not spent", func(t *testing.T) {
		t.Parallel()
		l, _ := newTestLedger(t)
		require.NoError(t, l.Mint(owner, owner, toWei(10)))
		require.NoError(t, l.Approve(owner, otherAccount, MaxUint256))
		require.NoError(t, l.TransferFrom(0, otherAccount, owner, otherAccount, toWei(10)))
		assert.Equal(t, MaxUint256, l.Allowance(owner, otherAccount))
	})

	t.Run("increase and decrease", func(t *testing.T) {
		t.Parallel()
		l, _ := newTestLedger(t)
		require.NoError(t, l.IncreaseAllowance(owner, otherAccount, toWei(3)))
		require.NoError(t, l.IncreaseAllowance(owner, otherAccount, toWei(2)))
		assert.Equal(t, toWei(5), l.Allowance(owner, otherAccount))
		require.NoError(t, l.DecreaseAllowance(owner, otherAccount, toWei(5)))
		assert.True(t, l.Allowance(owner, otherAccount).IsZero())
		assert.ErrorIs(t, l.DecreaseAllowance(owner, otherAccount, uint256.NewInt(1)), ErrInsufficientAllowance)
		require.NoError(t, l.Approve(owner, otherAccount, MaxUint256))
		assert.ErrorIs(t, l.IncreaseAllowance(owner, otherAccount, uint256.NewInt(1)), errs.OverflowUint256)
	})
}

func TestMintWithVestingPlan(t *testing.T) {
	t.Parallel()

	const tge = uint64(1_000_000)

	t.Run("check at tge", func(t *testing.T) {
		t.Parallel()
		l, _ := newTestLedger(t)
		plan := preSeedGrant(tge)
		index, err := l.MintWithVestingPlan(owner, plan)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), index)

		assert.True(t, l.TransferableBalanceOf(tge-1, preSeed).IsZero())
		assert.ErrorIs(t, l.Transfer(tge-1, preSeed, otherAccount, plan.TGEAmount), ErrInsufficientTransferable)

		assert.Equal(t, plan.TGEAmount, l.TransferableBalanceOf(tge, preSeed))
		err = l.Transfer(tge, preSeed, otherAccount, new(uint256.Int).AddUint64(plan.TGEAmount, 1))
		assert.ErrorIs(t, err, ErrInsufficientTransferable)
		require.NoError(t, l.Transfer(tge, preSeed, otherAccount, plan.TGEAmount))
		assert.Equal(t, plan.TGEAmount, l.BalanceOf(otherAccount))
		assert.Equal(t, new(uint256.Int).Sub(plan.TotalAmount, plan.TGEAmount), l.BalanceOf(preSeed))
	})

	t.Run("normal balance is not locked", func(t *testing.T) {
		t.Parallel()
		l, _ := newTestLedger(t)
		plan := preSeedGrant(tge)
		_, err := l.MintWithVestingPlan(owner, plan)
		require.NoError(t, err)

		assert.Equal(t, plan.TotalAmount, l.BalanceOf(preSeed))
		assert.Equal(t, plan.TotalAmount, l.LockedBalanceOf(0, preSeed))
		assert.True(t, l.TransferableBalanceOf(0, preSeed).IsZero())

		normal := toWei(10)
		require.NoError(t, l.Mint(owner, preSeed, normal))
		err = l.Transfer(0, preSeed, otherAccount, new(uint256.Int).AddUint64(normal, 1))
		assert.ErrorIs(t, err, ErrInsufficientTransferable)
		require.NoError(t, l.Transfer(0, preSeed, otherAccount, normal))
		assert.Equal(t, normal, l.BalanceOf(otherAccount))
	})

	for i := uint64(0); i < 42; i++ {
		i := i
		t.Run(fmt.Sprintf("check after cliff + %d months", i), func(t *testing.T) {
			t.Parallel()
			l, _ := newTestLedger(t)
			plan := preSeedGrant(tge)
			_, err := l.MintWithVestingPlan(owner, plan)
			require.NoError(t, err)

			vested := new(uint256.Int).Sub(plan.TotalAmount, plan.TGEAmount)
			vested.Div(vested, uint256.NewInt(42))
			vested.Mul(vested, uint256.NewInt(i))
			vested.Add(vested, plan.TGEAmount)

			assert.ErrorIs(t, l.Transfer(tge-1, preSeed, otherAccount, vested), ErrInsufficientTransferable)

			now := plan.TGE + plan.Cliff + i*plan.Basis - plan.Basis
			err = l.Transfer(now, preSeed, otherAccount, new(uint256.Int).AddUint64(vested, 1))
			assert.ErrorIs(t, err, ErrInsufficientTransferable)
			require.NoError(t, l.Transfer(now, preSeed, otherAccount, vested))
			assert.Equal(t, vested, l.BalanceOf(otherAccount))
		})
	}

	t.Run("balance equals locked plus transferable", func(t *testing.T) {
		t.Parallel()
		l, _ := newTestLedger(t)
		_, err := l.MintWithVestingPlan(owner, preSeedGrant(tge))
		require.NoError(t, err)
		second := preSeedGrant(tge + 3*oneMonth)
		second.TotalAmount = toWei(1_000)
		second.TGEAmount = toWei(70)
		second.Duration = 17 * oneMonth
		_, err = l.MintWithVestingPlan(owner, second)
		require.NoError(t, err)
		require.NoError(t, l.Mint(owner, preSeed, toWei(3)))

		assert.Equal(t, []uint64{0, 1}, l.VestingIndicesOf(preSeed))
		for now := tge - 1; now < tge+50*oneMonth; now += oneMonth / 3 {
			sum := new(uint256.Int).Add(l.LockedBalanceOf(now, preSeed), l.TransferableBalanceOf(now, preSeed))
			require.Equal(t, l.BalanceOf(preSeed), sum, "at %d", now)
		}
		assert.True(t, l.LockedBalanceOf(tge+50*oneMonth, preSeed).IsZero())
	})

	t.Run("invalid plan", func(t *testing.T) {
		t.Parallel()
		l, _ := newTestLedger(t)
		plan := preSeedGrant(tge)
		plan.Basis = 0
		_, err := l.MintWithVestingPlan(owner, plan)
		assert.ErrorIs(t, err, ErrInvalidPlan)
		assert.True(t, l.TotalSupply().IsZero())
		assert.Zero(t, l.VestingCount())
	})

	t.Run("only manager", func(t *testing.T) {
		t.Parallel()
		l, _ := newTestLedger(t)
		_, err := l.MintWithVestingPlan(otherAccount, preSeedGrant(tge))
		assert.ErrorIs(t, err, errs.Unauthorized)
		assert.ErrorIs(t, l.ValidateMintWithVestingPlan(otherAccount, preSeedGrant(tge)), errs.Unauthorized)
	})

	t.Run("supply cap", func(t *testing.T) {
		t.Parallel()
		l, _ := newTestLedger(t)
		plan := preSeedGrant(tge)
		plan.TotalAmount = new(uint256.Int).AddUint64(l.MaxSupply(), 1)
		assert.ErrorIs(t, l.ValidateMintWithVestingPlan(owner, plan), ErrSupplyCapExceeded)
		_, err := l.MintWithVestingPlan(owner, plan)
		assert.ErrorIs(t, err, ErrSupplyCapExceeded)
		assert.True(t, l.TotalSupply().IsZero())
	})
}

func TestVestingInfo(t *testing.T) {
	t.Parallel()

	l, recorder := newTestLedger(t)
	plan := preSeedGrant(42)
	_, err := l.MintWithVestingPlan(owner, plan)
	require.NoError(t, err)

	grant, err := l.VestingInfo(0)
	require.NoError(t, err)
	assert.Equal(t, plan, grant)

	// returned grant must not alias ledger state
	grant.TotalAmount.SetUint64(0)
	again, err := l.VestingInfo(0)
	require.NoError(t, err)
	assert.Equal(t, plan.TotalAmount, again.TotalAmount)

	_, err = l.VestingInfo(1)
	assert.ErrorIs(t, err, errs.NotFound)

	events := recorder.Flush()
	require.Len(t, events, 2)
	assert.Equal(t, event.NameTransfer, events[0].Name())
	assert.Equal(t, VestingGrantCreatedEvent{Token: tokenAddress, Index: 0, Grant: plan}, events[1])
}
