package plconfig_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"marginiq/internal/core/apperror"
	"marginiq/internal/core/tenant"
	"marginiq/internal/domain/plconfig"
	"marginiq/internal/infrastructure/storage/postgres"
)

const expenseCategoryTable = "pl_expense_categories"

const pgUniqueViolation = "23505"

var _ plconfig.ExpenseCategoryRepository = (*ExpenseCategoryRepo)(nil)

// ExpenseCategoryRepo implements plconfig.ExpenseCategoryRepository.
// Rows key on (tenant_id, category_id); system rows are guarded at the
// SQL level so a delete can never remove them.
type ExpenseCategoryRepo struct {
	txm *postgres.TxManager
}

// NewExpenseCategoryRepo creates a new expense category repository.
func NewExpenseCategoryRepo(txm *postgres.TxManager) *ExpenseCategoryRepo {
	return &ExpenseCategoryRepo{txm: txm}
}

func (r *ExpenseCategoryRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func expenseCategoryColumns() []string {
	return []string{"tenant_id", "category_id", "name", "expense_type",
		"is_system", "is_active", "display_order", "created_at", "updated_at"}
}

// List returns all categories for the tenant in display order.
func (r *ExpenseCategoryRepo) List(ctx context.Context) ([]plconfig.ExpenseCategory, error) {
	q := r.builder().
		Select(expenseCategoryColumns()...).
		From(expenseCategoryTable).
		Where(squirrel.Eq{"tenant_id": tenant.MustGetID(ctx)}).
		OrderBy("display_order", "category_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var categories []plconfig.ExpenseCategory
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &categories, sql, args...); err != nil {
		return nil, fmt.Errorf("list expense categories: %w", err)
	}

	return categories, nil
}

// Get returns one category, NOT_FOUND when absent.
func (r *ExpenseCategoryRepo) Get(ctx context.Context, categoryID string) (*plconfig.ExpenseCategory, error) {
	q := r.builder().
		Select(expenseCategoryColumns()...).
		From(expenseCategoryTable).
		Where(squirrel.Eq{
			"tenant_id":   tenant.MustGetID(ctx),
			"category_id": categoryID,
		}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var category plconfig.ExpenseCategory
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &category, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("expense category", categoryID)
		}
		return nil, fmt.Errorf("get expense category: %w", err)
	}

	return &category, nil
}

// Create inserts a category, CONFLICT when the id is already taken.
func (r *ExpenseCategoryRepo) Create(ctx context.Context, category *plconfig.ExpenseCategory) error {
	now := time.Now().UTC()
	category.TenantID = tenant.MustGetID(ctx)
	category.CreatedAt = now
	category.UpdatedAt = now

	q := r.builder().
		Insert(expenseCategoryTable).
		Columns(expenseCategoryColumns()...).
		Values(category.TenantID, category.CategoryID, category.Name,
			category.ExpenseType, category.IsSystem, category.IsActive,
			category.DisplayOrder, category.CreatedAt, category.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.NewConflict(fmt.Sprintf("expense category %q already exists", category.CategoryID))
		}
		return fmt.Errorf("create expense category: %w", err)
	}

	return nil
}

// Update patches the set fields of a category and returns the stored row,
// NOT_FOUND when absent.
func (r *ExpenseCategoryRepo) Update(ctx context.Context, categoryID string, patch plconfig.ExpenseCategoryUpdate) (*plconfig.ExpenseCategory, error) {
	q := r.builder().
		Update(expenseCategoryTable).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{
			"tenant_id":   tenant.MustGetID(ctx),
			"category_id": categoryID,
		}).
		Suffix("RETURNING " + joinColumns(expenseCategoryColumns()))

	if patch.Name != nil {
		q = q.Set("name", *patch.Name)
	}
	if patch.ExpenseType != nil {
		q = q.Set("expense_type", *patch.ExpenseType)
	}
	if patch.IsActive != nil {
		q = q.Set("is_active", *patch.IsActive)
	}
	if patch.DisplayOrder != nil {
		q = q.Set("display_order", *patch.DisplayOrder)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	var category plconfig.ExpenseCategory
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &category, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("expense category", categoryID)
		}
		return nil, fmt.Errorf("update expense category: %w", err)
	}

	return &category, nil
}

// Delete removes a custom category. The is_system guard is part of the
// predicate, so a system category yields zero affected rows and false.
func (r *ExpenseCategoryRepo) Delete(ctx context.Context, categoryID string) (bool, error) {
	q := r.builder().
		Delete(expenseCategoryTable).
		Where(squirrel.Eq{
			"tenant_id":   tenant.MustGetID(ctx),
			"category_id": categoryID,
			"is_system":   false,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("delete expense category: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// Reorder rewrites display_order to match the position of each id in the
// given sequence. Ids not present keep their current order value; callers
// run this inside a transaction so the rewrite is all-or-nothing.
func (r *ExpenseCategoryRepo) Reorder(ctx context.Context, orderedIDs []string) error {
	tenantID := tenant.MustGetID(ctx)
	querier := r.txm.GetQuerier(ctx)
	now := time.Now().UTC()

	for i, categoryID := range orderedIDs {
		q := r.builder().
			Update(expenseCategoryTable).
			Set("display_order", i+1).
			Set("updated_at", now).
			Where(squirrel.Eq{
				"tenant_id":   tenantID,
				"category_id": categoryID,
			})

		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build reorder update: %w", err)
		}

		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("reorder expense category %q: %w", categoryID, err)
		}
	}

	return nil
}

// SeedDefaults installs the canonical system categories, skipping ids the
// tenant already has. Returns the number of rows actually inserted, so a
// repeat call reports zero.
func (r *ExpenseCategoryRepo) SeedDefaults(ctx context.Context, categories []plconfig.ExpenseCategory) (int, error) {
	tenantID := tenant.MustGetID(ctx)
	querier := r.txm.GetQuerier(ctx)
	now := time.Now().UTC()

	inserted := 0
	for _, category := range categories {
		q := r.builder().
			Insert(expenseCategoryTable).
			Columns(expenseCategoryColumns()...).
			Values(tenantID, category.CategoryID, category.Name,
				category.ExpenseType, category.IsSystem, category.IsActive,
				category.DisplayOrder, now, now).
			Suffix("ON CONFLICT (tenant_id, category_id) DO NOTHING")

		sql, args, err := q.ToSql()
		if err != nil {
			return inserted, fmt.Errorf("build seed insert: %w", err)
		}

		result, err := querier.Exec(ctx, sql, args...)
		if err != nil {
			return inserted, fmt.Errorf("seed expense category %q: %w", category.CategoryID, err)
		}
		inserted += int(result.RowsAffected())
	}

	return inserted, nil
}

func joinColumns(cols []string) string {
	out := ""
	for i, col := range cols {
		if i > 0 {
			out += ", "
		}
		out += col
	}
	return out
}
