package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"heritage_explorer/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertPlace(ctx context.Context, p domain.Place) error {
	_, err := r.db.ExecContext(ctx, upsertPlaceSQL,
		p.ID,
		p.Position,
		p.Name,
		p.Location,
		p.Image,
		p.Description,
		p.YearBuilt,
		p.ModelPath,
		p.HasBooking,
		valStr(p.BookingURL),
		nullable(p.About),
		nullable(p.DetailedInfo),
		nullable(p.Architect),
		nullable(p.Materials),
	)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlace(row scanner) (domain.Place, error) {
	var p domain.Place
	var booking, about, info, architect, materials sql.NullString
	if err := row.Scan(
		&p.ID, &p.Position,
		&p.Name, &p.Location, &p.Image, &p.Description,
		&p.YearBuilt, &p.ModelPath,
		&p.HasBooking, &booking,
		&about, &info, &architect, &materials,
	); err != nil {
		return domain.Place{}, err
	}
	if booking.Valid {
		u := booking.String
		p.BookingURL = &u
	}
	p.About = about.String
	p.DetailedInfo = info.String
	p.Architect = architect.String
	p.Materials = materials.String
	return p, nil
}

func (r *Repo) GetPlace(ctx context.Context, id string) (domain.Place, error) {
	p, err := scanPlace(r.db.QueryRowContext(ctx, getPlaceSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Place{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Place{}, fmt.Errorf("get place %s: %w", id, err)
	}
	return p, nil
}

func (r *Repo) ListPlaces(ctx context.Context) ([]domain.Place, error) {
	rows, err := r.db.QueryContext(ctx, listPlacesSQL)
	if err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}
	defer rows.Close()

	var out []domain.Place
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan place: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
