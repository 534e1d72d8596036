package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/claimant-engine/internal/domain"
	customError "github.com/segyhp/claimant-engine/pkg/errors"
)

const selectPaymentCycle = `
	SELECT id, claim_id, cycle_start_date, cycle_end_date, payment_cycle_status, eligibility_status,
		children_dob, expected_delivery_date, voucher_entitlement, total_vouchers,
		total_entitlement_amount_in_pence, created_at, updated_at
	FROM payment_cycle
`

// paymentCycleRow stores the children's dates of birth and the entitlement breakdown as JSON.
type paymentCycleRow struct {
	ID                            uuid.UUID      `db:"id"`
	ClaimID                       uuid.UUID      `db:"claim_id"`
	CycleStartDate                time.Time      `db:"cycle_start_date"`
	CycleEndDate                  time.Time      `db:"cycle_end_date"`
	PaymentCycleStatus            string         `db:"payment_cycle_status"`
	EligibilityStatus             sql.NullString `db:"eligibility_status"`
	ChildrenDob                   []byte         `db:"children_dob"`
	ExpectedDeliveryDate          sql.NullTime   `db:"expected_delivery_date"`
	VoucherEntitlement            []byte         `db:"voucher_entitlement"`
	TotalVouchers                 int            `db:"total_vouchers"`
	TotalEntitlementAmountInPence int            `db:"total_entitlement_amount_in_pence"`
	CreatedAt                     time.Time      `db:"created_at"`
	UpdatedAt                     time.Time      `db:"updated_at"`
}

func newPaymentCycleRow(cycle *domain.PaymentCycle) (paymentCycleRow, error) {
	row := paymentCycleRow{
		ID:                            cycle.ID,
		ClaimID:                       cycle.ClaimID,
		CycleStartDate:                cycle.CycleStartDate,
		CycleEndDate:                  cycle.CycleEndDate,
		PaymentCycleStatus:            string(cycle.PaymentCycleStatus),
		EligibilityStatus:             nullString(string(cycle.EligibilityStatus)),
		ExpectedDeliveryDate:          cycle.ExpectedDeliveryDate,
		TotalVouchers:                 cycle.TotalVouchers,
		TotalEntitlementAmountInPence: cycle.TotalEntitlementAmountInPence,
		CreatedAt:                     cycle.CreatedAt,
		UpdatedAt:                     cycle.UpdatedAt,
	}

	var err error
	if cycle.ChildrenDob != nil {
		if row.ChildrenDob, err = json.Marshal(cycle.ChildrenDob); err != nil {
			return row, fmt.Errorf("encoding children dates of birth: %w", err)
		}
	}
	if cycle.VoucherEntitlement != nil {
		if row.VoucherEntitlement, err = json.Marshal(cycle.VoucherEntitlement); err != nil {
			return row, fmt.Errorf("encoding voucher entitlement: %w", err)
		}
	}
	return row, nil
}

func (r paymentCycleRow) toDomain() (*domain.PaymentCycle, error) {
	cycle := &domain.PaymentCycle{
		ID:                            r.ID,
		ClaimID:                       r.ClaimID,
		CycleStartDate:                r.CycleStartDate,
		CycleEndDate:                  r.CycleEndDate,
		PaymentCycleStatus:            domain.PaymentCycleStatus(r.PaymentCycleStatus),
		EligibilityStatus:             domain.EligibilityStatus(r.EligibilityStatus.String),
		ExpectedDeliveryDate:          r.ExpectedDeliveryDate,
		TotalVouchers:                 r.TotalVouchers,
		TotalEntitlementAmountInPence: r.TotalEntitlementAmountInPence,
		CreatedAt:                     r.CreatedAt,
		UpdatedAt:                     r.UpdatedAt,
	}
	if len(r.ChildrenDob) > 0 {
		if err := json.Unmarshal(r.ChildrenDob, &cycle.ChildrenDob); err != nil {
			return nil, fmt.Errorf("decoding children dates of birth of cycle %s: %w", r.ID, err)
		}
	}
	if len(r.VoucherEntitlement) > 0 {
		cycle.VoucherEntitlement = &domain.PaymentCycleVoucherEntitlement{}
		if err := json.Unmarshal(r.VoucherEntitlement, cycle.VoucherEntitlement); err != nil {
			return nil, fmt.Errorf("decoding voucher entitlement of cycle %s: %w", r.ID, err)
		}
	}
	return cycle, nil
}

type paymentCycleRepository struct {
	db *sqlx.DB
}

func NewPaymentCycleRepository(db *sqlx.DB) PaymentCycleRepository {
	return &paymentCycleRepository{db: db}
}

func (r *paymentCycleRepository) Create(ctx context.Context, cycle *domain.PaymentCycle) error {
	row, err := newPaymentCycleRow(cycle)
	if err != nil {
		return err
	}

	_, err = sqlx.NamedExecContext(ctx, executor(ctx, r.db), `
		INSERT INTO payment_cycle (id, claim_id, cycle_start_date, cycle_end_date, payment_cycle_status,
			eligibility_status, children_dob, expected_delivery_date, voucher_entitlement, total_vouchers,
			total_entitlement_amount_in_pence, created_at, updated_at)
		VALUES (:id, :claim_id, :cycle_start_date, :cycle_end_date, :payment_cycle_status,
			:eligibility_status, :children_dob, :expected_delivery_date, :voucher_entitlement, :total_vouchers,
			:total_entitlement_amount_in_pence, :created_at, :updated_at)
	`, row)
	return err
}

func (r *paymentCycleRepository) Save(ctx context.Context, cycle *domain.PaymentCycle) error {
	row, err := newPaymentCycleRow(cycle)
	if err != nil {
		return err
	}

	result, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db), `
		UPDATE payment_cycle
		SET cycle_start_date = :cycle_start_date, cycle_end_date = :cycle_end_date,
			payment_cycle_status = :payment_cycle_status, eligibility_status = :eligibility_status,
			children_dob = :children_dob, expected_delivery_date = :expected_delivery_date,
			voucher_entitlement = :voucher_entitlement, total_vouchers = :total_vouchers,
			total_entitlement_amount_in_pence = :total_entitlement_amount_in_pence, updated_at = :updated_at
		WHERE id = :id
	`, row)
	if err != nil {
		return err
	}
	return expectOneRow(result, customError.WrapPaymentCycleNotFound(cycle.ID.String()))
}

func (r *paymentCycleRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.PaymentCycle, error) {
	var row paymentCycleRow
	err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, selectPaymentCycle+` WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapPaymentCycleNotFound(id.String())
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (r *paymentCycleRepository) FindCurrentCycleForClaim(ctx context.Context, claimID uuid.UUID) (*domain.PaymentCycle, error) {
	var row paymentCycleRow
	err := sqlx.GetContext(ctx, executor(ctx, r.db), &row,
		selectPaymentCycle+` WHERE claim_id = $1 ORDER BY cycle_start_date DESC, created_at DESC LIMIT 1`, claimID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapPaymentCycleNotFound("for claim " + claimID.String())
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}
