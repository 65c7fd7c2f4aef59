package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/Masterminds/squirrel"

	"github.com/bucketlistapp/bucketlist-server/internal/domain"
	domainerrors "github.com/bucketlistapp/bucketlist-server/internal/errors"
)

type categoryRow struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Color     string `db:"color"`
	CreatedAt string `db:"created_at"`
}

func (r *categoryRow) toDomain() domain.Category {
	c := domain.Category{ID: r.ID, Name: r.Name, Color: r.Color}
	c.CreatedAt, _ = parseTime(r.CreatedAt)
	return c
}

// FindAllCategories lists categories by id.
func (s *Store) FindAllCategories(ctx context.Context) ([]domain.Category, error) {
	var rows []categoryRow
	err := s.db.SelectContext(ctx, &rows, `SELECT id, name, color, created_at FROM categories ORDER BY id`)
	if err != nil {
		return nil, translate(err, "find_all_categories")
	}

	categories := make([]domain.Category, len(rows))
	for i := range rows {
		categories[i] = rows[i].toDomain()
	}
	return categories, nil
}

// FindCategoryByID loads one category.
func (s *Store) FindCategoryByID(ctx context.Context, categoryID int64) (*domain.Category, error) {
	query, args, err := s.sq.Select("id", "name", "color", "created_at").
		From("categories").
		Where(squirrel.Eq{"id": categoryID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find_category query: %w", err)
	}

	var row categoryRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainerrors.NotFound("category", strconv.FormatInt(categoryID, 10))
		}
		return nil, translate(err, "find_category")
	}
	c := row.toDomain()
	return &c, nil
}

// UpsertCategories inserts categories or refreshes their name and color.
// It returns the number of categories written.
func (s *Store) UpsertCategories(ctx context.Context, categories []domain.Category) (int, error) {
	const op = "upsert_categories"
	if len(categories) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, translate(err, op)
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(s.now())
	for _, c := range categories {
		if c.ID <= 0 {
			return 0, domainerrors.Validationf("id", "category id must be positive, got %d", c.ID)
		}
		if c.Name == "" {
			return 0, domainerrors.Validationf("name", "category %d has no name", c.ID)
		}
		query, args, err := s.sq.Insert("categories").
			Columns("id", "name", "color", "created_at").
			Values(c.ID, c.Name, c.Color, now).
			Suffix("ON CONFLICT (id) DO UPDATE SET name = excluded.name, color = excluded.color").
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("build %s query: %w", op, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, translate(err, op)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, translate(err, op)
	}
	return len(categories), nil
}

// seedDefaultCategories installs the default set into an empty table.
func (s *Store) seedDefaultCategories(ctx context.Context) error {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM categories`); err != nil {
		return translate(err, "count_categories")
	}
	if count > 0 {
		return nil
	}
	n, err := s.UpsertCategories(ctx, domain.DefaultCategories)
	if err != nil {
		return err
	}
	s.logger.Info("seeded default categories", "count", n)
	return nil
}
