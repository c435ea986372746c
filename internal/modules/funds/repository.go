package funds

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/fofliquidity/internal/database"
	"github.com/aristath/fofliquidity/internal/modules/liquidity"
	"github.com/aristath/fofliquidity/internal/utils"
)

// Repository handles fund, holding and flow history database operations
// Database: funds.db (funds, holdings, flow_records tables)
// Money is stored as decimal strings and dates as Unix seconds.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// NewRepository creates a new funds repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "funds").Logger(),
		now: time.Now,
	}
}

const fundColumns = "id, name, target_horizon, nav, created_at, updated_at"

// Create inserts a new fund, assigning its ID and timestamps
func (r *Repository) Create(fund *Fund) error {
	now := r.now().UTC().Truncate(time.Second)
	fund.ID = uuid.New().String()
	fund.CreatedAt = now
	fund.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO funds (id, name, target_horizon, nav, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, fund.ID, fund.Name, fund.TargetHorizon, navToDB(fund.NAV), now.Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert fund: %w", err)
	}

	r.log.Info().Str("fund_id", fund.ID).Str("name", fund.Name).Msg("Fund created")
	return nil
}

// GetByID returns a fund or ErrFundNotFound
func (r *Repository) GetByID(id string) (*Fund, error) {
	row := r.db.QueryRow("SELECT "+fundColumns+" FROM funds WHERE id = ?", id)
	fund, err := scanFund(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFundNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fund %s: %w", id, err)
	}
	return fund, nil
}

// List returns every fund ordered by name
func (r *Repository) List() ([]Fund, error) {
	rows, err := r.db.Query("SELECT " + fundColumns + " FROM funds ORDER BY name, created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to query funds: %w", err)
	}
	defer rows.Close()

	funds := make([]Fund, 0)
	for rows.Next() {
		fund, err := scanFund(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fund: %w", err)
		}
		funds = append(funds, *fund)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating funds: %w", err)
	}

	return funds, nil
}

// Update stores name, target horizon and NAV of an existing fund
func (r *Repository) Update(fund *Fund) error {
	now := r.now().UTC().Truncate(time.Second)

	result, err := r.db.Exec(`
		UPDATE funds SET name = ?, target_horizon = ?, nav = ?, updated_at = ?
		WHERE id = ?
	`, fund.Name, fund.TargetHorizon, navToDB(fund.NAV), now.Unix(), fund.ID)
	if err != nil {
		return fmt.Errorf("failed to update fund: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return err
	}

	fund.UpdatedAt = now
	return nil
}

// Delete removes a fund with its holdings and history
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM funds WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete fund: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return err
	}

	r.log.Info().Str("fund_id", id).Msg("Fund deleted")
	return nil
}

// GetHoldings returns the holdings of a fund in insertion order
func (r *Repository) GetHoldings(fundID string) ([]liquidity.Holding, error) {
	rows, err := r.db.Query(`
		SELECT name, notice_period_days, amount
		FROM holdings WHERE fund_id = ? ORDER BY position
	`, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := make([]liquidity.Holding, 0)
	for rows.Next() {
		var h liquidity.Holding
		var amount string
		if err := rows.Scan(&h.Name, &h.NoticePeriodDays, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		if h.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
		}
		holdings = append(holdings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// ReplaceHoldings atomically replaces the whole portfolio of a fund
func (r *Repository) ReplaceHoldings(fundID string, holdings []liquidity.Holding) error {
	done := utils.MeasureDBQuery("replace_holdings", r.log)

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if err := touchFund(tx, fundID, r.now()); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM holdings WHERE fund_id = ?", fundID); err != nil {
			return fmt.Errorf("failed to clear holdings: %w", err)
		}
		for i, h := range holdings {
			if err := insertHolding(tx, fundID, i, h); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	done(int64(len(holdings)))
	return nil
}

// AddHolding appends one holding to the fund's portfolio
func (r *Repository) AddHolding(fundID string, holding liquidity.Holding) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if err := touchFund(tx, fundID, r.now()); err != nil {
			return err
		}
		var next int
		if err := tx.QueryRow(
			"SELECT COALESCE(MAX(position) + 1, 0) FROM holdings WHERE fund_id = ?", fundID,
		).Scan(&next); err != nil {
			return fmt.Errorf("failed to get next holding position: %w", err)
		}
		return insertHolding(tx, fundID, next, holding)
	})
}

// GetHistory returns the stored flow history in its stored order
func (r *Repository) GetHistory(fundID string) ([]liquidity.FlowRecord, error) {
	rows, err := r.db.Query(`
		SELECT date, gross_redemptions, scheduled_contributions, net_asset_value
		FROM flow_records WHERE fund_id = ? ORDER BY position
	`, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query flow history: %w", err)
	}
	defer rows.Close()

	records := make([]liquidity.FlowRecord, 0)
	for rows.Next() {
		var date sql.NullInt64
		var redemptions, contributions, nav string
		if err := rows.Scan(&date, &redemptions, &contributions, &nav); err != nil {
			return nil, fmt.Errorf("failed to scan flow record: %w", err)
		}

		var rec liquidity.FlowRecord
		if rec.GrossRedemptions, err = decimal.NewFromString(redemptions); err != nil {
			return nil, fmt.Errorf("invalid stored redemptions %q: %w", redemptions, err)
		}
		if rec.ScheduledContributions, err = decimal.NewFromString(contributions); err != nil {
			return nil, fmt.Errorf("invalid stored contributions %q: %w", contributions, err)
		}
		if rec.NetAssetValue, err = decimal.NewFromString(nav); err != nil {
			return nil, fmt.Errorf("invalid stored nav %q: %w", nav, err)
		}
		if date.Valid {
			ts := time.Unix(date.Int64, 0).UTC()
			rec.Timestamp = &ts
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flow history: %w", err)
	}

	return records, nil
}

// ReplaceHistory atomically replaces the flow history of a fund
func (r *Repository) ReplaceHistory(fundID string, records []liquidity.FlowRecord) error {
	done := utils.MeasureDBQuery("replace_history", r.log)

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if err := touchFund(tx, fundID, r.now()); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM flow_records WHERE fund_id = ?", fundID); err != nil {
			return fmt.Errorf("failed to clear flow history: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO flow_records
				(fund_id, position, date, gross_redemptions, scheduled_contributions, net_asset_value)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare flow insert: %w", err)
		}
		defer stmt.Close()

		for i, rec := range records {
			var date sql.NullInt64
			if rec.Timestamp != nil {
				date = sql.NullInt64{Int64: rec.Timestamp.Unix(), Valid: true}
			}
			if _, err := stmt.Exec(
				fundID, i, date,
				rec.GrossRedemptions.String(),
				rec.ScheduledContributions.String(),
				rec.NetAssetValue.String(),
			); err != nil {
				return fmt.Errorf("failed to insert flow record %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	done(int64(len(records)))
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFund(row rowScanner) (*Fund, error) {
	var fund Fund
	var nav sql.NullString
	var createdAt, updatedAt int64

	if err := row.Scan(&fund.ID, &fund.Name, &fund.TargetHorizon, &nav, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if nav.Valid && nav.String != "" {
		d, err := decimal.NewFromString(nav.String)
		if err != nil {
			return nil, fmt.Errorf("invalid stored nav %q: %w", nav.String, err)
		}
		fund.NAV = &d
	}
	fund.CreatedAt = time.Unix(createdAt, 0).UTC()
	fund.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &fund, nil
}

func navToDB(nav *decimal.Decimal) sql.NullString {
	if nav == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: nav.String(), Valid: true}
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrFundNotFound
	}
	return nil
}

// touchFund bumps updated_at and fails with ErrFundNotFound for unknown IDs
func touchFund(tx *sql.Tx, fundID string, now time.Time) error {
	result, err := tx.Exec("UPDATE funds SET updated_at = ? WHERE id = ?", now.UTC().Unix(), fundID)
	if err != nil {
		return fmt.Errorf("failed to touch fund: %w", err)
	}
	return requireAffected(result)
}

func insertHolding(tx *sql.Tx, fundID string, position int, h liquidity.Holding) error {
	_, err := tx.Exec(`
		INSERT INTO holdings (fund_id, position, name, notice_period_days, amount)
		VALUES (?, ?, ?, ?, ?)
	`, fundID, position, h.Name, h.NoticePeriodDays, h.Amount.String())
	if err != nil {
		return fmt.Errorf("failed to insert holding %q: %w", h.Name, err)
	}
	return nil
}
