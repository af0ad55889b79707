package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jackson0tr/lerko-backend/internal/domain"
)

var _ LayoutRepository = (*PostgresLayoutRepo)(nil)

// PostgresLayoutRepo implements LayoutRepository on pgx. The per-type body is
// a JSONB payload keyed by the layout type, one row per type.
type PostgresLayoutRepo struct {
	db *pgxpool.Pool
}

func NewPostgresLayoutRepo(pool *pgxpool.Pool) *PostgresLayoutRepo {
	return &PostgresLayoutRepo{db: pool}
}

type layoutPayload struct {
	Banner     *domain.Banner    `json:"banner,omitempty"`
	FAQ        []domain.FAQItem  `json:"faq,omitempty"`
	Categories []domain.Category `json:"categories,omitempty"`
}

func encodeLayout(layout domain.Layout) ([]byte, error) {
	return json.Marshal(layoutPayload{
		Banner:     layout.Banner,
		FAQ:        layout.FAQ,
		Categories: layout.Categories,
	})
}

func scanLayout(row pgx.Row) (domain.Layout, error) {
	var l domain.Layout
	var body []byte
	if err := row.Scan(&l.ID, &l.Type, &body, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return domain.Layout{}, err
	}
	var payload layoutPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.Layout{}, fmt.Errorf("decode layout payload: %w", err)
	}
	l.Banner = payload.Banner
	l.FAQ = payload.FAQ
	l.Categories = payload.Categories
	return l, nil
}

func (r *PostgresLayoutRepo) Create(ctx context.Context, layout domain.Layout) (domain.Layout, error) {
	body, err := encodeLayout(layout)
	if err != nil {
		return domain.Layout{}, fmt.Errorf("encode layout: %w", err)
	}
	row := r.db.QueryRow(ctx,
		`INSERT INTO layouts (id, type, body)
		 VALUES ($1, $2, $3)
		 RETURNING id, type, body, created_at, updated_at`,
		layout.ID, layout.Type, body,
	)
	created, err := scanLayout(row)
	if err != nil {
		return domain.Layout{}, fmt.Errorf("create layout: %w", err)
	}
	return created, nil
}

func (r *PostgresLayoutRepo) Update(ctx context.Context, layout domain.Layout) (domain.Layout, error) {
	body, err := encodeLayout(layout)
	if err != nil {
		return domain.Layout{}, fmt.Errorf("encode layout: %w", err)
	}
	row := r.db.QueryRow(ctx,
		`UPDATE layouts SET body = $2, updated_at = now() WHERE type = $1
		 RETURNING id, type, body, created_at, updated_at`,
		layout.Type, body,
	)
	updated, err := scanLayout(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Layout{}, fmt.Errorf("%w: layout %s", domain.ErrNotFound, layout.Type)
		}
		return domain.Layout{}, fmt.Errorf("update layout: %w", err)
	}
	return updated, nil
}

func (r *PostgresLayoutRepo) GetByType(ctx context.Context, t domain.LayoutType) (domain.Layout, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, type, body, created_at, updated_at FROM layouts WHERE type = $1`,
		t,
	)
	layout, err := scanLayout(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Layout{}, fmt.Errorf("%w: layout %s", domain.ErrNotFound, t)
		}
		return domain.Layout{}, fmt.Errorf("get layout: %w", err)
	}
	return layout, nil
}
