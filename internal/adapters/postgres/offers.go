package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"dealdeck/internal/domain"
	"dealdeck/internal/feed"
	"dealdeck/internal/ports"
	"dealdeck/internal/tco"
)

const upsertOffer = `
    INSERT INTO offers (id, model, carrier, city, move_type, contract, payment, channel, parsed_at, total, net, payload, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
    ON CONFLICT (id) DO UPDATE SET
        model = EXCLUDED.model, carrier = EXCLUDED.carrier, city = EXCLUDED.city,
        move_type = EXCLUDED.move_type, contract = EXCLUDED.contract, payment = EXCLUDED.payment,
        channel = EXCLUDED.channel, parsed_at = EXCLUDED.parsed_at, total = EXCLUDED.total,
        net = EXCLUDED.net, payload = EXCLUDED.payload, updated_at = now()
`

// UpsertOffers stores offers by id with their aggregated total and net so
// the cost orders can be served by the index.
func (db *DB) UpsertOffers(ctx context.Context, offers []domain.Offer) (n int, err error) {
	if len(offers) == 0 {
		return 0, nil
	}
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	batch := &pgx.Batch{}
	for _, o := range offers {
		o = o.Normalize()
		a := tco.Aggregate(o)
		payload, merr := json.Marshal(o)
		if merr != nil {
			return 0, fmt.Errorf("encode offer %s: %w", o.ID, merr)
		}
		var parsed *time.Time
		if !o.ParsedAt.IsZero() {
			t := o.ParsedAt.Time
			parsed = &t
		}
		batch.Queue(upsertOffer, o.ID, o.Model, string(o.Carrier), o.City, string(o.MoveType),
			string(o.Contract), string(o.Payment), string(o.Channel), parsed, a.Total, a.Net, payload)
	}
	br := tx.SendBatch(ctx, batch)
	for range offers {
		if _, err = br.Exec(); err != nil {
			_ = br.Close()
			return 0, err
		}
	}
	if err = br.Close(); err != nil {
		return 0, err
	}
	return len(offers), nil
}

func (db *DB) FetchOffers(ctx context.Context, q ports.OfferQuery) ([]domain.Offer, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()
	sql, args := buildListQuery(q)
	rows, err := db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanOffers(rows)
}

func (db *DB) GetOffer(ctx context.Context, id string) (domain.Offer, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()
	var payload []byte
	err := db.Pool.QueryRow(ctx, `SELECT payload FROM offers WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Offer{}, ports.ErrNotFound
	}
	if err != nil {
		return domain.Offer{}, err
	}
	var o domain.Offer
	if err := json.Unmarshal(payload, &o); err != nil {
		return domain.Offer{}, fmt.Errorf("decode offer %s: %w", id, err)
	}
	return o, nil
}

func (db *DB) ParsedSince(ctx context.Context, t time.Time) ([]domain.Offer, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()
	rows, err := db.Pool.Query(ctx, `
        SELECT payload FROM offers
        WHERE parsed_at >= $1
        ORDER BY parsed_at DESC, id
    `, t)
	if err != nil {
		return nil, err
	}
	return scanOffers(rows)
}

func scanOffers(rows pgx.Rows) ([]domain.Offer, error) {
	defer rows.Close()
	out := []domain.Offer{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var o domain.Offer
		if err := json.Unmarshal(payload, &o); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// buildListQuery renders the filtered, ordered page query.
func buildListQuery(q ports.OfferQuery) (string, []any) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	f := q.Filter
	for _, c := range []struct{ col, v string }{
		{"model", f.Model},
		{"carrier", f.Carrier},
		{"city", f.City},
		{"move_type", f.MoveType},
		{"contract", f.Contract},
		{"payment", f.Payment},
		{"channel", f.Channel},
	} {
		if c.v != "" {
			add(c.col+" = $%d", c.v)
		}
	}
	switch f.Brand {
	case feed.BrandGalaxy, feed.BrandIPhone:
		add("starts_with(model, $%d)", feed.BrandPrefix(f.Brand))
	case feed.BrandOther:
		add("NOT starts_with(model, $%d)", feed.BrandPrefix(feed.BrandGalaxy))
		add("NOT starts_with(model, $%d)", feed.BrandPrefix(feed.BrandIPhone))
	}
	if f.Family != "" {
		add("starts_with(model, $%d)", f.Family)
	}

	var sb strings.Builder
	sb.WriteString("SELECT payload FROM offers")
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	switch q.Sort {
	case feed.SortNetAsc:
		sb.WriteString(" ORDER BY net ASC, id")
	case feed.SortTotalAsc:
		sb.WriteString(" ORDER BY total ASC, id")
	default:
		sb.WriteString(" ORDER BY parsed_at DESC NULLS LAST, id")
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	args = append(args, q.Offset)
	fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	return sb.String(), args
}
