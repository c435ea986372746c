package funds

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fofliquidity/internal/modules/liquidity"
	testingpkg "github.com/aristath/fofliquidity/internal/testing"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "funds")
	t.Cleanup(cleanup)
	return NewRepository(db.Conn(), zerolog.Nop())
}

func createFund(t *testing.T, repo *Repository, name string) *Fund {
	t.Helper()
	nav := decimal.NewFromInt(10000000)
	fund := &Fund{Name: name, TargetHorizon: 7, NAV: &nav}
	require.NoError(t, repo.Create(fund))
	return fund
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepository(t)
	fund := createFund(t, repo, "Alpha FoF")

	assert.Len(t, fund.ID, 36)
	assert.False(t, fund.CreatedAt.IsZero())

	got, err := repo.GetByID(fund.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alpha FoF", got.Name)
	assert.Equal(t, 7, got.TargetHorizon)
	require.NotNil(t, got.NAV)
	assert.True(t, got.NAV.Equal(decimal.NewFromInt(10000000)))
	assert.Equal(t, fund.CreatedAt, got.CreatedAt)
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetByID("missing")
	assert.ErrorIs(t, err, ErrFundNotFound)
}

func TestRepository_ListOrdersByName(t *testing.T) {
	repo := newTestRepository(t)
	createFund(t, repo, "Zeta")
	createFund(t, repo, "Alpha")

	funds, err := repo.List()
	require.NoError(t, err)
	require.Len(t, funds, 2)
	assert.Equal(t, "Alpha", funds[0].Name)
	assert.Equal(t, "Zeta", funds[1].Name)
}

func TestRepository_UpdateClearsNAV(t *testing.T) {
	repo := newTestRepository(t)
	fund := createFund(t, repo, "Alpha")

	fund.Name = "Alpha II"
	fund.TargetHorizon = 30
	fund.NAV = nil
	require.NoError(t, repo.Update(fund))

	got, err := repo.GetByID(fund.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alpha II", got.Name)
	assert.Equal(t, 30, got.TargetHorizon)
	assert.Nil(t, got.NAV)
}

func TestRepository_UpdateAndDeleteUnknown(t *testing.T) {
	repo := newTestRepository(t)

	assert.ErrorIs(t, repo.Update(&Fund{ID: "missing", Name: "x", TargetHorizon: 1}), ErrFundNotFound)
	assert.ErrorIs(t, repo.Delete("missing"), ErrFundNotFound)
}

func TestRepository_DeleteCascades(t *testing.T) {
	repo := newTestRepository(t)
	fund := createFund(t, repo, "Alpha")
	require.NoError(t, repo.ReplaceHoldings(fund.ID, testingpkg.NewHoldingFixtures()))
	require.NoError(t, repo.ReplaceHistory(fund.ID, testingpkg.NewFlowFixtures(5, 1000)))

	require.NoError(t, repo.Delete(fund.ID))

	holdings, err := repo.GetHoldings(fund.ID)
	require.NoError(t, err)
	assert.Empty(t, holdings)
	history, err := repo.GetHistory(fund.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRepository_HoldingsRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	fund := createFund(t, repo, "Alpha")

	fixtures := testingpkg.NewHoldingFixtures()
	require.NoError(t, repo.ReplaceHoldings(fund.ID, fixtures))

	holdings, err := repo.GetHoldings(fund.ID)
	require.NoError(t, err)
	require.Len(t, holdings, len(fixtures))
	for i := range fixtures {
		assert.Equal(t, fixtures[i].Name, holdings[i].Name)
		assert.Equal(t, fixtures[i].NoticePeriodDays, holdings[i].NoticePeriodDays)
		assert.True(t, fixtures[i].Amount.Equal(holdings[i].Amount))
	}

	// Replacing drops the previous portfolio
	require.NoError(t, repo.ReplaceHoldings(fund.ID, fixtures[:1]))
	holdings, err = repo.GetHoldings(fund.ID)
	require.NoError(t, err)
	assert.Len(t, holdings, 1)
}

func TestRepository_AddHoldingAppends(t *testing.T) {
	repo := newTestRepository(t)
	fund := createFund(t, repo, "Alpha")

	require.NoError(t, repo.AddHolding(fund.ID, liquidity.Holding{Name: "A", NoticePeriodDays: 1, Amount: decimal.NewFromInt(1)}))
	require.NoError(t, repo.AddHolding(fund.ID, liquidity.Holding{Name: "B", NoticePeriodDays: 2, Amount: decimal.RequireFromString("2.50")}))

	holdings, err := repo.GetHoldings(fund.ID)
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	assert.Equal(t, "A", holdings[0].Name)
	assert.Equal(t, "B", holdings[1].Name)
	assert.Equal(t, "2.5", holdings[1].Amount.String())

	err = repo.AddHolding("missing", liquidity.Holding{Name: "C"})
	assert.ErrorIs(t, err, ErrFundNotFound)
}

func TestRepository_HistoryRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	fund := createFund(t, repo, "Alpha")

	records := testingpkg.NewFlowFixtures(3, 2500)
	records = append(records, liquidity.FlowRecord{
		GrossRedemptions:       decimal.RequireFromString("10.25"),
		ScheduledContributions: decimal.NewFromInt(4),
		NetAssetValue:          decimal.NewFromInt(100),
	})
	require.NoError(t, repo.ReplaceHistory(fund.ID, records))

	history, err := repo.GetHistory(fund.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)

	require.NotNil(t, history[0].Timestamp)
	assert.True(t, history[0].Timestamp.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, history[0].GrossRedemptions.Equal(decimal.NewFromInt(2500)))
	assert.Nil(t, history[3].Timestamp)
	assert.Equal(t, "10.25", history[3].GrossRedemptions.String())
}

func TestRepository_ReplaceHistoryUnknownFund(t *testing.T) {
	repo := newTestRepository(t)

	err := repo.ReplaceHistory("missing", testingpkg.NewFlowFixtures(1, 1))
	assert.ErrorIs(t, err, ErrFundNotFound)
}
