package plconfig_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"marginiq/internal/core/apperror"
	"marginiq/internal/core/tenant"
	"marginiq/internal/domain/plconfig"
	"marginiq/internal/infrastructure/storage/postgres"
)

const productCOGSTable = "pl_product_cogs"

const defaultProductCOGSLimit = 50

var _ plconfig.ProductCOGSRepository = (*ProductCOGSRepo)(nil)

// ProductCOGSRepo implements plconfig.ProductCOGSRepository. Rows key on
// (tenant_id, product_id, COALESCE(variant_id, '')) via an expression
// unique index, so a product-level row and its variant rows coexist.
type ProductCOGSRepo struct {
	txm *postgres.TxManager
}

// NewProductCOGSRepo creates a new product COGS repository.
func NewProductCOGSRepo(txm *postgres.TxManager) *ProductCOGSRepo {
	return &ProductCOGSRepo{txm: txm}
}

func (r *ProductCOGSRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Upsert writes a cost row, last write wins on the variant key.
func (r *ProductCOGSRepo) Upsert(ctx context.Context, entry *plconfig.ProductCOGS) (*plconfig.ProductCOGS, error) {
	entry.TenantID = tenant.MustGetID(ctx)
	entry.UpdatedAt = time.Now().UTC()

	q := r.builder().
		Insert(productCOGSTable).
		Columns("tenant_id", "product_id", "variant_id", "sku",
			"cogs_cents", "source", "updated_at", "updated_by").
		Values(entry.TenantID, entry.ProductID, entry.VariantID, entry.SKU,
			entry.CogsCents, entry.Source, entry.UpdatedAt, entry.UpdatedBy).
		Suffix(`ON CONFLICT (tenant_id, product_id, COALESCE(variant_id, '')) DO UPDATE SET
			sku = EXCLUDED.sku,
			cogs_cents = EXCLUDED.cogs_cents,
			source = EXCLUDED.source,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by`)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return nil, fmt.Errorf("upsert product COGS: %w", err)
	}

	return entry, nil
}

// Get returns the row for the exact variant key, NOT_FOUND when absent.
// A nil variantID addresses the product-level row only; it never falls
// back to variant rows or vice versa.
func (r *ProductCOGSRepo) Get(ctx context.Context, productID string, variantID *string) (*plconfig.ProductCOGS, error) {
	q := r.builder().
		Select("tenant_id", "product_id", "variant_id", "sku",
			"cogs_cents", "source", "updated_at", "updated_by").
		From(productCOGSTable).
		Where(squirrel.Eq{
			"tenant_id":  tenant.MustGetID(ctx),
			"product_id": productID,
		}).
		Where(variantPredicate(variantID)).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entry plconfig.ProductCOGS
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &entry, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product COGS", productID)
		}
		return nil, fmt.Errorf("get product COGS: %w", err)
	}

	return &entry, nil
}

// List returns a page of cost rows ordered by product then variant, with
// the product-level row (NULL variant) first within each product.
func (r *ProductCOGSRepo) List(ctx context.Context, filter plconfig.ProductCOGSFilter) (plconfig.Page[plconfig.ProductCOGS], error) {
	var page plconfig.Page[plconfig.ProductCOGS]

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultProductCOGSLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	base := r.builder().
		Select("tenant_id", "product_id", "variant_id", "sku",
			"cogs_cents", "source", "updated_at", "updated_by").
		From(productCOGSTable).
		Where(squirrel.Eq{"tenant_id": tenant.MustGetID(ctx)})

	if filter.ProductID != "" {
		base = base.Where(squirrel.Eq{"product_id": filter.ProductID})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		base = base.Where(squirrel.Or{
			squirrel.ILike{"sku": pattern},
			squirrel.ILike{"product_id": pattern},
		})
	}

	countQuery := r.builder().
		Select("COUNT(*)").
		FromSelect(base, "filtered")

	countSQL, countArgs, err := countQuery.ToSql()
	if err != nil {
		return page, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&page.TotalCount); err != nil {
		return page, fmt.Errorf("count product COGS: %w", err)
	}

	listSQL, listArgs, err := base.
		OrderBy("product_id", "variant_id NULLS FIRST").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return page, fmt.Errorf("build list query: %w", err)
	}

	items := make([]plconfig.ProductCOGS, 0, limit)
	if err := pgxscan.Select(ctx, querier, &items, listSQL, listArgs...); err != nil {
		return page, fmt.Errorf("list product COGS: %w", err)
	}

	page.Items = items
	page.Limit = limit
	page.Offset = offset
	return page, nil
}

// Delete removes the row for the exact variant key, reporting whether a
// row existed.
func (r *ProductCOGSRepo) Delete(ctx context.Context, productID string, variantID *string) (bool, error) {
	q := r.builder().
		Delete(productCOGSTable).
		Where(squirrel.Eq{
			"tenant_id":  tenant.MustGetID(ctx),
			"product_id": productID,
		}).
		Where(variantPredicate(variantID))

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("delete product COGS: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// variantPredicate matches the variant key column: NULL for the
// product-level row, exact value otherwise. squirrel.Eq renders a nil
// value as IS NULL, matching the COALESCE index semantics.
func variantPredicate(variantID *string) squirrel.Eq {
	if variantID == nil {
		return squirrel.Eq{"variant_id": nil}
	}
	return squirrel.Eq{"variant_id": *variantID}
}
