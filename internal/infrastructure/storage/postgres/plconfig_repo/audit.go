package plconfig_repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	"marginiq/internal/core/id"
	"marginiq/internal/core/tenant"
	"marginiq/internal/domain/plconfig"
	"marginiq/internal/infrastructure/storage/postgres"
)

const auditTable = "pl_config_audit_log"

const defaultAuditLimit = 50

// compressionThreshold is the payload size in bytes above which old/new
// values move from the JSONB columns to zstd-compressed BYTEA columns.
// Full config snapshots with many weight tiers or processors routinely
// cross this line; small field-level diffs stay queryable as JSONB.
const compressionThreshold = 10 * 1024

const compressionZstd = "zstd"

var _ plconfig.AuditRepository = (*AuditRepo)(nil)

// AuditRepo implements the append-only plconfig.AuditRepository.
type AuditRepo struct {
	txm     *postgres.TxManager
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewAuditRepo creates a new audit repository.
func NewAuditRepo(txm *postgres.TxManager) (*AuditRepo, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditRepo{txm: txm, encoder: encoder, decoder: decoder}, nil
}

func (r *AuditRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// auditRow is the storage shape of an entry. Large payloads live in the
// compressed BYTEA columns with the JSONB columns NULL, and vice versa.
type auditRow struct {
	ID                 id.ID                `db:"id"`
	TenantID           string               `db:"tenant_id"`
	ConfigType         plconfig.ConfigType  `db:"config_type"`
	Action             plconfig.AuditAction `db:"action"`
	FieldChanged       *string              `db:"field_changed"`
	OldValue           json.RawMessage      `db:"old_value"`
	NewValue           json.RawMessage      `db:"new_value"`
	OldValueCompressed []byte               `db:"old_value_compressed"`
	NewValueCompressed []byte               `db:"new_value_compressed"`
	CompressionAlgo    *string              `db:"compression_algo"`
	ChangedBy          string               `db:"changed_by"`
	ChangedAt          time.Time            `db:"changed_at"`
	IPAddress          *string              `db:"ip_address"`
	UserAgent          *string              `db:"user_agent"`
}

func auditColumns() []string {
	return []string{"id", "tenant_id", "config_type", "action", "field_changed",
		"old_value", "new_value", "old_value_compressed", "new_value_compressed",
		"compression_algo", "changed_by", "changed_at", "ip_address", "user_agent"}
}

// Record appends one entry. The id and timestamp are assigned here when
// the caller left them zero, so entries created inside a single service
// transaction still order by insertion.
func (r *AuditRepo) Record(ctx context.Context, entry *plconfig.AuditEntry) error {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now().UTC()
	}
	entry.TenantID = tenant.MustGetID(ctx)

	row := auditRow{
		ID:           entry.ID,
		TenantID:     entry.TenantID,
		ConfigType:   entry.ConfigType,
		Action:       entry.Action,
		FieldChanged: entry.FieldChanged,
		ChangedBy:    entry.ChangedBy,
		ChangedAt:    entry.ChangedAt,
		IPAddress:    entry.IPAddress,
		UserAgent:    entry.UserAgent,
	}

	r.packPayloads(&row, entry.OldValue, entry.NewValue)

	q := r.builder().
		Insert(auditTable).
		Columns(auditColumns()...).
		Values(row.ID, row.TenantID, row.ConfigType, row.Action, row.FieldChanged,
			row.OldValue, row.NewValue, row.OldValueCompressed, row.NewValueCompressed,
			row.CompressionAlgo, row.ChangedBy, row.ChangedAt, row.IPAddress, row.UserAgent)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}

	return nil
}

// packPayloads places the old/new payloads on the row. When their
// combined size crosses compressionThreshold both move to the
// compressed BYTEA columns and the JSONB columns stay NULL.
func (r *AuditRepo) packPayloads(row *auditRow, oldValue, newValue json.RawMessage) {
	if len(oldValue)+len(newValue) > compressionThreshold {
		algo := compressionZstd
		row.CompressionAlgo = &algo
		if len(oldValue) > 0 {
			row.OldValueCompressed = r.encoder.EncodeAll(oldValue, nil)
		}
		if len(newValue) > 0 {
			row.NewValueCompressed = r.encoder.EncodeAll(newValue, nil)
		}
		return
	}
	row.OldValue = oldValue
	row.NewValue = newValue
}

// applyAuditFilter adds the optional filter predicates. Date bounds
// are inclusive on both ends.
func applyAuditFilter(q squirrel.SelectBuilder, filter plconfig.AuditFilter) squirrel.SelectBuilder {
	if filter.ConfigType != nil {
		q = q.Where(squirrel.Eq{"config_type": *filter.ConfigType})
	}
	if filter.ChangedBy != nil {
		q = q.Where(squirrel.Eq{"changed_by": *filter.ChangedBy})
	}
	if filter.StartDate != nil {
		q = q.Where(squirrel.GtOrEq{"changed_at": *filter.StartDate})
	}
	if filter.EndDate != nil {
		q = q.Where(squirrel.LtOrEq{"changed_at": *filter.EndDate})
	}
	return q
}

// Query returns a page of entries, newest first.
func (r *AuditRepo) Query(ctx context.Context, filter plconfig.AuditFilter) (plconfig.Page[plconfig.AuditEntry], error) {
	var page plconfig.Page[plconfig.AuditEntry]

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	base := applyAuditFilter(r.builder().
		Select(auditColumns()...).
		From(auditTable).
		Where(squirrel.Eq{"tenant_id": tenant.MustGetID(ctx)}), filter)

	countQuery := r.builder().
		Select("COUNT(*)").
		FromSelect(base, "filtered")

	countSQL, countArgs, err := countQuery.ToSql()
	if err != nil {
		return page, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&page.TotalCount); err != nil {
		return page, fmt.Errorf("count audit entries: %w", err)
	}

	listSQL, listArgs, err := base.
		OrderBy("changed_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return page, fmt.Errorf("build list query: %w", err)
	}

	var rows []auditRow
	if err := pgxscan.Select(ctx, querier, &rows, listSQL, listArgs...); err != nil {
		return page, fmt.Errorf("list audit entries: %w", err)
	}

	items := make([]plconfig.AuditEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := r.entryFromRow(row)
		if err != nil {
			return page, err
		}
		items = append(items, entry)
	}

	page.Items = items
	page.Limit = limit
	page.Offset = offset
	return page, nil
}

func (r *AuditRepo) entryFromRow(row auditRow) (plconfig.AuditEntry, error) {
	entry := plconfig.AuditEntry{
		ID:           row.ID,
		TenantID:     row.TenantID,
		ConfigType:   row.ConfigType,
		Action:       row.Action,
		FieldChanged: row.FieldChanged,
		OldValue:     row.OldValue,
		NewValue:     row.NewValue,
		ChangedBy:    row.ChangedBy,
		ChangedAt:    row.ChangedAt,
		IPAddress:    row.IPAddress,
		UserAgent:    row.UserAgent,
	}

	if row.CompressionAlgo != nil && *row.CompressionAlgo == compressionZstd {
		if len(row.OldValueCompressed) > 0 {
			decoded, err := r.decoder.DecodeAll(row.OldValueCompressed, nil)
			if err != nil {
				return entry, fmt.Errorf("decompress audit entry %s old value: %w", row.ID, err)
			}
			entry.OldValue = decoded
		}
		if len(row.NewValueCompressed) > 0 {
			decoded, err := r.decoder.DecodeAll(row.NewValueCompressed, nil)
			if err != nil {
				return entry, fmt.Errorf("decompress audit entry %s new value: %w", row.ID, err)
			}
			entry.NewValue = decoded
		}
	}

	return entry, nil
}
