package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/copropia/conjunto_ledger_app/internal/apperrors"
	"github.com/copropia/conjunto_ledger_app/internal/core/domain"
	portsrepo "github.com/copropia/conjunto_ledger_app/internal/core/ports/repositories"
	"github.com/copropia/conjunto_ledger_app/internal/utils/pagination"
)

const transactionColumns = `transaction_id, conjunto_id, number, transaction_date, status, description, reference_type, reference_id, total_debit, total_credit, posted_at, posted_by, approved_by, approved_at, created_at, created_by, last_updated_at, last_updated_by`

const entryColumns = `entry_id, transaction_id, account_id, account_code, description, debit, credit, third_party_type, third_party_id, requires_third_party, created_at, created_by, last_updated_at, last_updated_by`

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for ledger transactions and
// their entries.
func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryWithTx {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepositoryWithTx = (*PgxLedgerRepository)(nil)

// NextTransactionNumber atomically reserves the next per-conjunto sequence
// value for the year. Gaps from rolled-back transactions are acceptable.
func (r *PgxLedgerRepository) NextTransactionNumber(ctx context.Context, conjuntoID string, year int) (string, error) {
	query := `
		INSERT INTO transaction_sequences (conjunto_id, year, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (conjunto_id, year)
		DO UPDATE SET last_number = transaction_sequences.last_number + 1
		RETURNING last_number;
	`
	var seq int64
	if err := r.Pool.QueryRow(ctx, query, conjuntoID, year).Scan(&seq); err != nil {
		return "", fmt.Errorf("failed to reserve transaction number for conjunto %s: %w", conjuntoID, err)
	}
	return fmt.Sprintf("%04d-%06d", year, seq), nil
}

// CreateTransaction persists a transaction and its entries inside one
// database transaction. The aggregate may already be POSTED when it is a
// system-generated posting. A violated unique key (number, or the
// once-per-period appropriation index) surfaces as apperrors.ErrDuplicate.
func (r *PgxLedgerRepository) CreateTransaction(ctx context.Context, txn domain.LedgerTransaction) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	txnQuery := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	_, err = tx.Exec(ctx, txnQuery,
		txn.TransactionID,
		txn.ConjuntoID,
		txn.Number,
		txn.Date,
		txn.Status,
		txn.Description,
		nullString(txn.ReferenceType),
		nullString(txn.ReferenceID),
		txn.TotalDebit,
		txn.TotalCredit,
		txn.PostedAt,
		nullString(txn.PostedBy),
		nullString(txn.ApprovedBy),
		txn.ApprovedAt,
		txn.CreatedAt,
		txn.CreatedBy,
		txn.LastUpdatedAt,
		txn.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: transaction %s", apperrors.ErrDuplicate, txn.Number)
		}
		return fmt.Errorf("failed to insert transaction %s: %w", txn.TransactionID, err)
	}

	if len(txn.Entries) > 0 {
		entryQuery := `
			INSERT INTO entries (` + entryColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
		`
		batch := &pgx.Batch{}
		for _, entry := range txn.Entries {
			batch.Queue(entryQuery, entryArgs(entry)...)
		}
		br := tx.SendBatch(ctx, batch)
		if err := br.Close(); err != nil {
			return fmt.Errorf("failed to execute entry batch for transaction %s: %w", txn.TransactionID, err)
		}
	}

	return r.Commit(ctx, tx)
}

func entryArgs(e domain.Entry) []any {
	return []any{
		e.EntryID,
		e.TransactionID,
		e.AccountID,
		e.AccountCode,
		e.Description,
		e.Debit,
		e.Credit,
		nullString(e.ThirdPartyType),
		nullString(e.ThirdPartyID),
		e.RequiresThirdParty,
		e.CreatedAt,
		e.CreatedBy,
		e.LastUpdatedAt,
		e.LastUpdatedBy,
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// AppendEntry adds one entry to a persisted draft and refreshes the cached
// totals. The UPDATE is guarded by status so appending to a posted or void
// transaction fails as a conflict rather than corrupting frozen history.
func (r *PgxLedgerRepository) AppendEntry(ctx context.Context, conjuntoID string, entry domain.Entry, totalDebit, totalCredit decimal.Decimal) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	guardQuery := `
		UPDATE transactions
		SET total_debit = $3,
		    total_credit = $4,
		    last_updated_at = $5,
		    last_updated_by = $6
		WHERE conjunto_id = $1 AND transaction_id = $2 AND status = 'DRAFT';
	`
	cmdTag, err := tx.Exec(ctx, guardQuery, conjuntoID, entry.TransactionID, totalDebit, totalCredit, entry.LastUpdatedAt, entry.LastUpdatedBy)
	if err != nil {
		return fmt.Errorf("failed to update totals for transaction %s: %w", entry.TransactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return r.draftGuardError(ctx, conjuntoID, entry.TransactionID)
	}

	entryQuery := `
		INSERT INTO entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	if _, err := tx.Exec(ctx, entryQuery, entryArgs(entry)...); err != nil {
		return fmt.Errorf("failed to insert entry %s: %w", entry.EntryID, err)
	}

	return r.Commit(ctx, tx)
}

// DeleteEntry removes an entry from a persisted draft and refreshes the
// cached totals from the aggregate.
func (r *PgxLedgerRepository) DeleteEntry(ctx context.Context, txn domain.LedgerTransaction, entryID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	guardQuery := `
		UPDATE transactions
		SET total_debit = $3,
		    total_credit = $4,
		    last_updated_at = $5,
		    last_updated_by = $6
		WHERE conjunto_id = $1 AND transaction_id = $2 AND status = 'DRAFT';
	`
	cmdTag, err := tx.Exec(ctx, guardQuery, txn.ConjuntoID, txn.TransactionID, txn.TotalDebit, txn.TotalCredit, txn.LastUpdatedAt, txn.LastUpdatedBy)
	if err != nil {
		return fmt.Errorf("failed to update totals for transaction %s: %w", txn.TransactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return r.draftGuardError(ctx, txn.ConjuntoID, txn.TransactionID)
	}

	deleteQuery := `DELETE FROM entries WHERE transaction_id = $1 AND entry_id = $2;`
	delTag, err := tx.Exec(ctx, deleteQuery, txn.TransactionID, entryID)
	if err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", entryID, err)
	}
	if delTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, entryID)
	}

	return r.Commit(ctx, tx)
}

// MarkTransactionPosted flips a persisted draft to POSTED with its frozen
// totals.
func (r *PgxLedgerRepository) MarkTransactionPosted(ctx context.Context, txn domain.LedgerTransaction) error {
	query := `
		UPDATE transactions
		SET status = 'POSTED',
		    total_debit = $3,
		    total_credit = $4,
		    posted_at = $5,
		    posted_by = $6,
		    approved_by = $7,
		    approved_at = $8,
		    last_updated_at = $9,
		    last_updated_by = $10
		WHERE conjunto_id = $1 AND transaction_id = $2 AND status = 'DRAFT';
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		txn.ConjuntoID,
		txn.TransactionID,
		txn.TotalDebit,
		txn.TotalCredit,
		txn.PostedAt,
		nullString(txn.PostedBy),
		nullString(txn.ApprovedBy),
		txn.ApprovedAt,
		txn.LastUpdatedAt,
		txn.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to mark transaction %s posted: %w", txn.TransactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return r.draftGuardError(ctx, txn.ConjuntoID, txn.TransactionID)
	}
	return nil
}

// MarkTransactionVoid flips a persisted draft to VOID.
func (r *PgxLedgerRepository) MarkTransactionVoid(ctx context.Context, txn domain.LedgerTransaction) error {
	query := `
		UPDATE transactions
		SET status = 'VOID',
		    last_updated_at = $3,
		    last_updated_by = $4
		WHERE conjunto_id = $1 AND transaction_id = $2 AND status = 'DRAFT';
	`
	cmdTag, err := r.Pool.Exec(ctx, query, txn.ConjuntoID, txn.TransactionID, txn.LastUpdatedAt, txn.LastUpdatedBy)
	if err != nil {
		return fmt.Errorf("failed to mark transaction %s void: %w", txn.TransactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return r.draftGuardError(ctx, txn.ConjuntoID, txn.TransactionID)
	}
	return nil
}

// draftGuardError distinguishes a missing transaction from one whose status
// already moved past DRAFT under a concurrent writer.
func (r *PgxLedgerRepository) draftGuardError(ctx context.Context, conjuntoID, transactionID string) error {
	var status string
	err := r.Pool.QueryRow(ctx,
		`SELECT status FROM transactions WHERE conjunto_id = $1 AND transaction_id = $2;`,
		conjuntoID, transactionID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, transactionID)
	}
	if err != nil {
		return fmt.Errorf("failed to check transaction %s status: %w", transactionID, err)
	}
	return fmt.Errorf("%w: transaction %s is %s, not DRAFT", apperrors.ErrConflict, transactionID, status)
}

// FindTransactionByID retrieves a transaction with its entries.
func (r *PgxLedgerRepository) FindTransactionByID(ctx context.Context, conjuntoID, transactionID string) (*domain.LedgerTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE conjunto_id = $1 AND transaction_id = $2;
	`
	txn, err := scanTransaction(r.Pool.QueryRow(ctx, query, conjuntoID, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}

	entries, err := r.findEntriesByTransactionIDs(ctx, []string{transactionID})
	if err != nil {
		return nil, err
	}
	txn.Entries = entries[transactionID]
	return txn, nil
}

func scanTransaction(row pgx.Row) (*domain.LedgerTransaction, error) {
	var t domain.LedgerTransaction
	var referenceType, referenceID, postedBy, approvedBy sql.NullString
	err := row.Scan(
		&t.TransactionID,
		&t.ConjuntoID,
		&t.Number,
		&t.Date,
		&t.Status,
		&t.Description,
		&referenceType,
		&referenceID,
		&t.TotalDebit,
		&t.TotalCredit,
		&t.PostedAt,
		&postedBy,
		&approvedBy,
		&t.ApprovedAt,
		&t.CreatedAt,
		&t.CreatedBy,
		&t.LastUpdatedAt,
		&t.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	t.ReferenceType = referenceType.String
	t.ReferenceID = referenceID.String
	t.PostedBy = postedBy.String
	t.ApprovedBy = approvedBy.String
	return &t, nil
}

func (r *PgxLedgerRepository) findEntriesByTransactionIDs(ctx context.Context, transactionIDs []string) (map[string][]domain.Entry, error) {
	if len(transactionIDs) == 0 {
		return map[string][]domain.Entry{}, nil
	}

	query := `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE transaction_id = ANY($1)
		ORDER BY transaction_id, created_at, entry_id;
	`
	rows, err := r.Pool.Query(ctx, query, transactionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entriesByTxn := make(map[string][]domain.Entry)
	for rows.Next() {
		var e domain.Entry
		var thirdPartyType, thirdPartyID sql.NullString
		if err := rows.Scan(
			&e.EntryID,
			&e.TransactionID,
			&e.AccountID,
			&e.AccountCode,
			&e.Description,
			&e.Debit,
			&e.Credit,
			&thirdPartyType,
			&thirdPartyID,
			&e.RequiresThirdParty,
			&e.CreatedAt,
			&e.CreatedBy,
			&e.LastUpdatedAt,
			&e.LastUpdatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		e.ThirdPartyType = thirdPartyType.String
		e.ThirdPartyID = thirdPartyID.String
		entriesByTxn[e.TransactionID] = append(entriesByTxn[e.TransactionID], e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows: %w", err)
	}
	return entriesByTxn, nil
}

// ListTransactions retrieves a token-paginated page of transactions, newest
// first, entries not populated. The cursor is (transaction_date, created_at)
// so pages stay stable under concurrent inserts.
func (r *PgxLedgerRepository) ListTransactions(ctx context.Context, conjuntoID string, limit int, nextToken *string) ([]domain.LedgerTransaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE conjunto_id = $1
	`
	orderByClause := `ORDER BY transaction_date DESC, created_at DESC`

	var rows pgx.Rows
	var err error
	args := []any{conjuntoID}

	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken", apperrors.ErrValidation)
		}
		cursorClause := `AND (transaction_date, created_at) < ($2, $3)`
		args = append(args, lastDate, lastCreatedAt)
		query := baseQuery + " " + cursorClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	} else {
		query := baseQuery + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query transactions for conjunto %s: %w", conjuntoID, err)
	}
	defer rows.Close()

	txns := make([]domain.LedgerTransaction, 0, fetchLimit)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	var nextTokenVal *string
	if len(txns) > limit {
		last := txns[limit-1]
		token := pagination.EncodeToken(last.Date, last.CreatedAt)
		nextTokenVal = &token
		txns = txns[:limit]
	}
	return txns, nextTokenVal, nil
}

// ListTransactionsByPeriod retrieves every transaction dated within the
// month, entries populated. A nil status loads all states.
func (r *PgxLedgerRepository) ListTransactionsByPeriod(ctx context.Context, conjuntoID string, month, year int, status *domain.TransactionStatus) ([]domain.LedgerTransaction, error) {
	from, to := periodBounds(month, year)

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE conjunto_id = $1 AND transaction_date >= $2 AND transaction_date < $3
	`
	args := []any{conjuntoID, from, to}
	if status != nil {
		query += ` AND status = $4`
		args = append(args, *status)
	}
	query += ` ORDER BY transaction_date, created_at;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for period %d-%02d: %w", year, month, err)
	}
	defer rows.Close()

	txns := []domain.LedgerTransaction{}
	ids := []string{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txns = append(txns, *txn)
		ids = append(ids, txn.TransactionID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	entries, err := r.findEntriesByTransactionIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range txns {
		txns[i].Entries = entries[txns[i].TransactionID]
	}
	return txns, nil
}

func periodBounds(month, year int) (time.Time, time.Time) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// FindAppropriationByPeriod looks up the canonical (non-forced) reserve
// appropriation for a period.
func (r *PgxLedgerRepository) FindAppropriationByPeriod(ctx context.Context, conjuntoID string, month, year int) (*domain.LedgerTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE conjunto_id = $1 AND reference_type = $2 AND reference_id = $3 AND status <> 'VOID';
	`
	referenceID := fmt.Sprintf("%04d-%02d", year, month)
	txn, err := scanTransaction(r.Pool.QueryRow(ctx, query, conjuntoID, domain.ReferenceReserveAppropriation, referenceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find appropriation for %s: %w", referenceID, err)
	}
	return txn, nil
}

// SumCreditsByAccountPrefix sums credit entries posted within the period to
// accounts whose code starts with the prefix. This is how monthly operating
// income (prefix "41") is derived.
func (r *PgxLedgerRepository) SumCreditsByAccountPrefix(ctx context.Context, conjuntoID, codePrefix string, month, year int) (decimal.Decimal, error) {
	from, to := periodBounds(month, year)
	query := `
		SELECT COALESCE(SUM(e.credit), 0)
		FROM entries e
		JOIN transactions t ON t.transaction_id = e.transaction_id
		WHERE t.conjunto_id = $1
		  AND t.status = 'POSTED'
		  AND t.transaction_date >= $2 AND t.transaction_date < $3
		  AND e.account_code LIKE $4 || '%';
	`
	var total decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, conjuntoID, from, to, codePrefix).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum credits for prefix %s: %w", codePrefix, err)
	}
	return total, nil
}

// SumPostedByAccountCode returns cumulative posted credits and debits for one
// account code across the whole history of the conjunto.
func (r *PgxLedgerRepository) SumPostedByAccountCode(ctx context.Context, conjuntoID, code string) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(e.credit), 0), COALESCE(SUM(e.debit), 0)
		FROM entries e
		JOIN transactions t ON t.transaction_id = e.transaction_id
		WHERE t.conjunto_id = $1
		  AND t.status = 'POSTED'
		  AND e.account_code = $2;
	`
	var credits, debits decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, conjuntoID, code).Scan(&credits, &debits); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to sum postings for account %s: %w", code, err)
	}
	return credits, debits, nil
}

// SumMonthlyCreditsByPrefixForYear returns posted credit totals to the prefix
// grouped by month for a year. Months with no postings are absent.
func (r *PgxLedgerRepository) SumMonthlyCreditsByPrefixForYear(ctx context.Context, conjuntoID, codePrefix string, year int) (map[int]decimal.Decimal, error) {
	query := `
		SELECT EXTRACT(MONTH FROM t.transaction_date)::int AS month, COALESCE(SUM(e.credit), 0)
		FROM entries e
		JOIN transactions t ON t.transaction_id = e.transaction_id
		WHERE t.conjunto_id = $1
		  AND t.status = 'POSTED'
		  AND EXTRACT(YEAR FROM t.transaction_date) = $2
		  AND e.account_code LIKE $3 || '%'
		GROUP BY month;
	`
	return r.sumByMonth(ctx, query, conjuntoID, year, codePrefix)
}

// SumMonthlyAppropriationsForYear returns posted appropriation totals
// (canonical and forced) grouped by month for a year. The total is taken from
// frozen transaction credit totals.
func (r *PgxLedgerRepository) SumMonthlyAppropriationsForYear(ctx context.Context, conjuntoID string, year int) (map[int]decimal.Decimal, error) {
	query := `
		SELECT EXTRACT(MONTH FROM t.transaction_date)::int AS month, COALESCE(SUM(t.total_credit), 0)
		FROM transactions t
		WHERE t.conjunto_id = $1
		  AND t.status = 'POSTED'
		  AND EXTRACT(YEAR FROM t.transaction_date) = $2
		  AND t.reference_type IN ($3, $4)
		GROUP BY month;
	`
	return r.sumByMonth(ctx, query, conjuntoID, year, domain.ReferenceReserveAppropriation, domain.ReferenceReserveAppropriationExtra)
}

func (r *PgxLedgerRepository) sumByMonth(ctx context.Context, query string, conjuntoID string, year int, extraArgs ...any) (map[int]decimal.Decimal, error) {
	args := append([]any{conjuntoID, year}, extraArgs...)
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly sums: %w", err)
	}
	defer rows.Close()

	sums := make(map[int]decimal.Decimal)
	for rows.Next() {
		var month int
		var total decimal.Decimal
		if err := rows.Scan(&month, &total); err != nil {
			return nil, fmt.Errorf("failed to scan monthly sum row: %w", err)
		}
		sums[month] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly sum rows: %w", err)
	}
	return sums, nil
}
