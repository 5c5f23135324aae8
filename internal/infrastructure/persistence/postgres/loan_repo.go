package postgres

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bibbank/debt-service/internal/domain/model"
	"github.com/bibbank/debt-service/internal/domain/port"
	"github.com/bibbank/debt-service/internal/domain/valueobject"
	"github.com/bibbank/debt-service/pkg/money"
	pkgpostgres "github.com/bibbank/debt-service/pkg/postgres"
)

// LoanRepo implements port.LoanRepository.
type LoanRepo struct {
	pool *pgxpool.Pool
}

// NewLoanRepo creates a new PostgreSQL-backed loan repository.
func NewLoanRepo(pool *pgxpool.Pool) *LoanRepo {
	return &LoanRepo{pool: pool}
}

const loanColumns = `
	id::text, owner_id, currency, original_principal, terms, terms_offset,
	installment, installment_policy, status, remaining_principal, credit,
	COALESCE(predecessor_id::text, ''), COALESCE(successor_id::text, ''),
	version, created_at, updated_at`

// Save persists every loan and its installments in one transaction.
func (r *LoanRepo) Save(ctx context.Context, loans ...model.Loan) error {
	return pkgpostgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		for _, loan := range loans {
			if err := saveLoan(ctx, tx, loan); err != nil {
				return err
			}
		}
		return nil
	})
}

func saveLoan(ctx context.Context, tx pgx.Tx, loan model.Loan) error {
	terms, err := encodeTerms(loan.Terms())
	if err != nil {
		return fmt.Errorf("encode terms of loan %s: %w", loan.ID(), err)
	}

	query := `
		INSERT INTO loans (
			id, owner_id, currency, original_principal, terms, terms_offset,
			installment, installment_policy, status, remaining_principal, credit,
			predecessor_id, successor_id, version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (id) DO UPDATE SET
			terms               = EXCLUDED.terms,
			terms_offset        = EXCLUDED.terms_offset,
			installment         = EXCLUDED.installment,
			installment_policy  = EXCLUDED.installment_policy,
			status              = EXCLUDED.status,
			remaining_principal = EXCLUDED.remaining_principal,
			credit              = EXCLUDED.credit,
			successor_id        = EXCLUDED.successor_id,
			version             = loans.version + 1,
			updated_at          = EXCLUDED.updated_at
		WHERE loans.version = $14
	`
	tag, err := tx.Exec(ctx, query,
		loan.ID(), loan.OwnerID(), loan.Currency().Code(), loan.OriginalPrincipal(), terms, loan.TermsOffset(),
		loan.Installment(), loan.InstallmentPolicy().String(), loan.Status().String(),
		loan.RemainingPrincipal(), loan.Credit(),
		nullable(loan.PredecessorID()), nullable(loan.SuccessorID()),
		loan.Version(), loan.CreatedAt(), loan.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save loan %s: %w", loan.ID(), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save loan %s at version %d: %w", loan.ID(), loan.Version(), port.ErrConcurrentModification)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM loan_installments WHERE loan_id = $1`, loan.ID()); err != nil {
		return fmt.Errorf("clear installments of loan %s: %w", loan.ID(), err)
	}

	batch := &pgx.Batch{}
	for _, inst := range loan.Installments() {
		batch.Queue(`
			INSERT INTO loan_installments (
				loan_id, period_index, due_date, principal_due, interest_due, fees_due,
				insurance_due, total_due, remaining_principal_after, annual_rate,
				paid_fees, paid_interest, paid_insurance, paid_principal
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
			loan.ID(), inst.PeriodIndex, pgDate(inst.DueDate),
			inst.PrincipalDue, inst.InterestDue, inst.FeesDue, inst.InsuranceDue, inst.TotalDue,
			inst.RemainingPrincipalAfter, inst.AnnualRate,
			inst.Paid.Fees, inst.Paid.Interest, inst.Paid.Insurance, inst.Paid.Principal,
		)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save installments of loan %s: %w", loan.ID(), err)
	}
	return nil
}

// FindByID retrieves a loan of the owner with its installments.
func (r *LoanRepo) FindByID(ctx context.Context, ownerID, id string) (model.Loan, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Loan{}, fmt.Errorf("loan %q: %w", id, port.ErrLoanNotFound)
	}
	query := `SELECT ` + loanColumns + ` FROM loans WHERE owner_id = $1 AND id = $2`
	loans, err := r.queryLoans(ctx, query, ownerID, id)
	if err != nil {
		return model.Loan{}, err
	}
	if len(loans) == 0 {
		return model.Loan{}, fmt.Errorf("loan %s: %w", id, port.ErrLoanNotFound)
	}
	return loans[0], nil
}

// FindByOwner retrieves every loan of the owner, newest first.
func (r *LoanRepo) FindByOwner(ctx context.Context, ownerID string) ([]model.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE owner_id = $1 ORDER BY created_at DESC`
	return r.queryLoans(ctx, query, ownerID)
}

// FindOverdue retrieves ACTIVE loans that have an installment due before asOf
// with dues still outstanding.
func (r *LoanRepo) FindOverdue(ctx context.Context, asOf civil.Date) ([]model.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans l
		WHERE l.status = 'ACTIVE'
		  AND EXISTS (
			SELECT 1 FROM loan_installments i
			WHERE i.loan_id = l.id
			  AND i.due_date < $1
			  AND i.total_due > i.paid_fees + i.paid_interest + i.paid_insurance + i.paid_principal
		  )
		ORDER BY l.created_at`
	return r.queryLoans(ctx, query, pgDate(asOf))
}

// ---------------------------------------------------------------------------
// internal helpers
// ---------------------------------------------------------------------------

func (r *LoanRepo) queryLoans(ctx context.Context, query string, args ...any) ([]model.Loan, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	snapshots, err := pgx.CollectRows(rows, scanLoanRow)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, nil
	}

	ids := make([]string, len(snapshots))
	for i, s := range snapshots {
		ids[i] = s.ID
	}
	installments, err := r.loadInstallments(ctx, ids)
	if err != nil {
		return nil, err
	}

	loans := make([]model.Loan, 0, len(snapshots))
	for _, s := range snapshots {
		s.Installments = installments[s.ID]
		loans = append(loans, model.ReconstructLoan(s))
	}
	return loans, nil
}

func scanLoanRow(row pgx.CollectableRow) (model.LoanSnapshot, error) {
	var (
		s                       model.LoanSnapshot
		currency, policy, state string
		terms                   []byte
	)
	err := row.Scan(
		&s.ID, &s.OwnerID, &currency, &s.OriginalPrincipal, &terms, &s.TermsOffset,
		&s.Installment, &policy, &state, &s.RemainingPrincipal, &s.Credit,
		&s.PredecessorID, &s.SuccessorID,
		&s.Version, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return model.LoanSnapshot{}, fmt.Errorf("scan loan: %w", err)
	}

	if s.Currency, err = money.NewCurrency(currency); err != nil {
		return model.LoanSnapshot{}, fmt.Errorf("loan %s: %w", s.ID, err)
	}
	if s.Terms, err = decodeTerms(terms); err != nil {
		return model.LoanSnapshot{}, fmt.Errorf("loan %s: %w", s.ID, err)
	}
	if s.Policy, err = valueobject.NewInstallmentPolicy(policy); err != nil {
		return model.LoanSnapshot{}, fmt.Errorf("loan %s: %w", s.ID, err)
	}
	if s.Status, err = valueobject.NewLoanStatus(state); err != nil {
		return model.LoanSnapshot{}, fmt.Errorf("loan %s: %w", s.ID, err)
	}
	return s, nil
}

func (r *LoanRepo) loadInstallments(ctx context.Context, loanIDs []string) (map[string][]model.Installment, error) {
	query := `
		SELECT loan_id::text, period_index, due_date, principal_due, interest_due, fees_due,
		       insurance_due, total_due, remaining_principal_after, annual_rate,
		       paid_fees, paid_interest, paid_insurance, paid_principal
		FROM loan_installments
		WHERE loan_id = ANY($1::uuid[])
		ORDER BY loan_id, period_index
	`
	rows, err := r.pool.Query(ctx, query, loanIDs)
	if err != nil {
		return nil, fmt.Errorf("query installments: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]model.Installment, len(loanIDs))
	for rows.Next() {
		var (
			loanID string
			due    time.Time
			inst   model.Installment
		)
		if err := rows.Scan(
			&loanID, &inst.PeriodIndex, &due,
			&inst.PrincipalDue, &inst.InterestDue, &inst.FeesDue, &inst.InsuranceDue, &inst.TotalDue,
			&inst.RemainingPrincipalAfter, &inst.AnnualRate,
			&inst.Paid.Fees, &inst.Paid.Interest, &inst.Paid.Insurance, &inst.Paid.Principal,
		); err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		inst.DueDate = civil.DateOf(due)
		out[loanID] = append(out[loanID], inst)
	}
	return out, rows.Err()
}

var _ port.LoanRepository = (*LoanRepo)(nil)
