package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/segyhp/claimant-engine/internal/domain"
	customError "github.com/segyhp/claimant-engine/pkg/errors"
)

const selectClaim = `
	SELECT c.id, c.claim_status, c.claim_status_timestamp, c.eligibility_status, c.eligibility_status_timestamp,
		c.dwp_household_identifier, c.hmrc_household_identifier, c.card_account_id, c.card_status,
		c.card_status_timestamp, c.created_at, c.updated_at,
		cl.id AS "claimant.id", cl.first_name AS "claimant.first_name", cl.last_name AS "claimant.last_name",
		cl.nino AS "claimant.nino", cl.date_of_birth AS "claimant.date_of_birth",
		cl.expected_delivery_date AS "claimant.expected_delivery_date",
		cl.email_address AS "claimant.email_address", cl.phone_number AS "claimant.phone_number"
	FROM claim c
	JOIN claimant cl ON cl.id = c.claimant_id
`

// claimRow maps the claim/claimant join. Nullable timestamps and text columns are read through
// sql.Null types so a freshly created claim scans cleanly.
type claimRow struct {
	ID                         uuid.UUID      `db:"id"`
	ClaimStatus                string         `db:"claim_status"`
	ClaimStatusTimestamp       sql.NullTime   `db:"claim_status_timestamp"`
	EligibilityStatus          sql.NullString `db:"eligibility_status"`
	EligibilityStatusTimestamp sql.NullTime   `db:"eligibility_status_timestamp"`
	DwpHouseholdIdentifier     sql.NullString `db:"dwp_household_identifier"`
	HmrcHouseholdIdentifier    sql.NullString `db:"hmrc_household_identifier"`
	CardAccountID              sql.NullString `db:"card_account_id"`
	CardStatus                 sql.NullString `db:"card_status"`
	CardStatusTimestamp        sql.NullTime   `db:"card_status_timestamp"`
	CreatedAt                  time.Time      `db:"created_at"`
	UpdatedAt                  time.Time      `db:"updated_at"`
	Claimant                   claimantRow    `db:"claimant"`
}

type claimantRow struct {
	ID                   uuid.UUID      `db:"id"`
	FirstName            string         `db:"first_name"`
	LastName             string         `db:"last_name"`
	Nino                 string         `db:"nino"`
	DateOfBirth          time.Time      `db:"date_of_birth"`
	ExpectedDeliveryDate sql.NullTime   `db:"expected_delivery_date"`
	EmailAddress         sql.NullString `db:"email_address"`
	PhoneNumber          sql.NullString `db:"phone_number"`
}

func (r claimRow) toDomain() *domain.Claim {
	return &domain.Claim{
		ID: r.ID,
		Claimant: domain.Claimant{
			ID:                   r.Claimant.ID,
			FirstName:            r.Claimant.FirstName,
			LastName:             r.Claimant.LastName,
			Nino:                 r.Claimant.Nino,
			DateOfBirth:          r.Claimant.DateOfBirth,
			ExpectedDeliveryDate: r.Claimant.ExpectedDeliveryDate,
			EmailAddress:         r.Claimant.EmailAddress.String,
			PhoneNumber:          r.Claimant.PhoneNumber.String,
		},
		ClaimStatus:                domain.ClaimStatus(r.ClaimStatus),
		ClaimStatusTimestamp:       r.ClaimStatusTimestamp.Time,
		EligibilityStatus:          domain.EligibilityStatus(r.EligibilityStatus.String),
		EligibilityStatusTimestamp: r.EligibilityStatusTimestamp.Time,
		DwpHouseholdIdentifier:     r.DwpHouseholdIdentifier.String,
		HmrcHouseholdIdentifier:    r.HmrcHouseholdIdentifier.String,
		CardAccountID:              r.CardAccountID.String,
		CardStatus:                 domain.CardStatus(r.CardStatus.String),
		CardStatusTimestamp:        r.CardStatusTimestamp.Time,
		CreatedAt:                  r.CreatedAt,
		UpdatedAt:                  r.UpdatedAt,
	}
}

type claimRepository struct {
	db *sqlx.DB
}

func NewClaimRepository(db *sqlx.DB) ClaimRepository {
	return &claimRepository{db: db}
}

func (r *claimRepository) Create(ctx context.Context, claim *domain.Claim) error {
	exec := executor(ctx, r.db)

	_, err := exec.ExecContext(ctx, `
		INSERT INTO claimant (id, first_name, last_name, nino, date_of_birth, expected_delivery_date, email_address, phone_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		claim.Claimant.ID,
		claim.Claimant.FirstName,
		claim.Claimant.LastName,
		claim.Claimant.Nino,
		claim.Claimant.DateOfBirth,
		claim.Claimant.ExpectedDeliveryDate,
		nullString(claim.Claimant.EmailAddress),
		nullString(claim.Claimant.PhoneNumber),
	)
	if err != nil {
		return err
	}

	_, err = exec.ExecContext(ctx, `
		INSERT INTO claim (id, claimant_id, claim_status, claim_status_timestamp, eligibility_status,
			eligibility_status_timestamp, dwp_household_identifier, hmrc_household_identifier,
			card_account_id, card_status, card_status_timestamp, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		claim.ID,
		claim.Claimant.ID,
		claim.ClaimStatus,
		nullTime(claim.ClaimStatusTimestamp),
		nullString(string(claim.EligibilityStatus)),
		nullTime(claim.EligibilityStatusTimestamp),
		nullString(claim.DwpHouseholdIdentifier),
		nullString(claim.HmrcHouseholdIdentifier),
		nullString(claim.CardAccountID),
		nullString(string(claim.CardStatus)),
		nullTime(claim.CardStatusTimestamp),
		claim.CreatedAt,
		claim.UpdatedAt,
	)
	return err
}

func (r *claimRepository) Save(ctx context.Context, claim *domain.Claim) error {
	exec := executor(ctx, r.db)

	_, err := exec.ExecContext(ctx, `
		UPDATE claimant
		SET first_name = $2, last_name = $3, nino = $4, date_of_birth = $5, expected_delivery_date = $6,
			email_address = $7, phone_number = $8
		WHERE id = $1
	`,
		claim.Claimant.ID,
		claim.Claimant.FirstName,
		claim.Claimant.LastName,
		claim.Claimant.Nino,
		claim.Claimant.DateOfBirth,
		claim.Claimant.ExpectedDeliveryDate,
		nullString(claim.Claimant.EmailAddress),
		nullString(claim.Claimant.PhoneNumber),
	)
	if err != nil {
		return err
	}

	result, err := exec.ExecContext(ctx, `
		UPDATE claim
		SET claim_status = $2, claim_status_timestamp = $3, eligibility_status = $4, eligibility_status_timestamp = $5,
			dwp_household_identifier = $6, hmrc_household_identifier = $7, card_account_id = $8, card_status = $9,
			card_status_timestamp = $10, updated_at = $11
		WHERE id = $1
	`,
		claim.ID,
		claim.ClaimStatus,
		nullTime(claim.ClaimStatusTimestamp),
		nullString(string(claim.EligibilityStatus)),
		nullTime(claim.EligibilityStatusTimestamp),
		nullString(claim.DwpHouseholdIdentifier),
		nullString(claim.HmrcHouseholdIdentifier),
		nullString(claim.CardAccountID),
		nullString(string(claim.CardStatus)),
		nullTime(claim.CardStatusTimestamp),
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	return expectOneRow(result, customError.WrapClaimNotFound(claim.ID.String()))
}

func (r *claimRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Claim, error) {
	var row claimRow
	err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, selectClaim+` WHERE c.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapClaimNotFound(id.String())
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *claimRepository) FindLiveClaimByNino(ctx context.Context, nino string) (*domain.Claim, error) {
	var row claimRow
	err := sqlx.GetContext(ctx, executor(ctx, r.db), &row,
		selectClaim+` WHERE cl.nino = $1 AND c.claim_status = ANY($2) ORDER BY c.created_at DESC LIMIT 1`,
		nino, pq.Array(liveStatuses()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapClaimNotFound("for nino")
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *claimRepository) FindByStatuses(ctx context.Context, statuses ...domain.ClaimStatus) ([]*domain.Claim, error) {
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}

	var rows []claimRow
	err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows,
		selectClaim+` WHERE c.claim_status = ANY($1) ORDER BY c.created_at`, pq.Array(values))
	if err != nil {
		return nil, err
	}

	claims := make([]*domain.Claim, 0, len(rows))
	for _, row := range rows {
		claims = append(claims, row.toDomain())
	}
	return claims, nil
}

func liveStatuses() []string {
	return []string{
		string(domain.ClaimStatusNew),
		string(domain.ClaimStatusPending),
		string(domain.ClaimStatusActive),
		string(domain.ClaimStatusPendingExpiry),
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func expectOneRow(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
