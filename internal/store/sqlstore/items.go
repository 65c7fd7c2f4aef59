package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/bucketlistapp/bucketlist-server/internal/bucketlist"
	"github.com/bucketlistapp/bucketlist-server/internal/domain"
	domainerrors "github.com/bucketlistapp/bucketlist-server/internal/errors"
	"github.com/bucketlistapp/bucketlist-server/internal/id"
	"github.com/bucketlistapp/bucketlist-server/internal/store"
)

const itemColumns = `b.id AS id, b.profile_id AS profile_id, b.title AS title,
	b.description AS description, b.category_id AS category_id, b.priority AS priority,
	b.status AS status, b.is_public AS is_public, b.due_date AS due_date, b.due_type AS due_type,
	b.completed_at AS completed_at, b.completion_comment AS completion_comment,
	b.created_at AS created_at, b.updated_at AS updated_at`

const categoryJoinColumns = `c.name AS category_name, c.color AS category_color,
	c.created_at AS category_created_at`

// itemRow is the scan target for bucket_items.
type itemRow struct {
	ID                string         `db:"id"`
	ProfileID         string         `db:"profile_id"`
	Title             string         `db:"title"`
	Description       sql.NullString `db:"description"`
	CategoryID        int64          `db:"category_id"`
	Priority          string         `db:"priority"`
	Status            string         `db:"status"`
	IsPublic          bool           `db:"is_public"`
	DueDate           sql.NullString `db:"due_date"`
	DueType           sql.NullString `db:"due_type"`
	CompletedAt       sql.NullString `db:"completed_at"`
	CompletionComment sql.NullString `db:"completion_comment"`
	CreatedAt         string         `db:"created_at"`
	UpdatedAt         string         `db:"updated_at"`
}

type itemCategoryRow struct {
	itemRow
	CategoryName      sql.NullString `db:"category_name"`
	CategoryColor     sql.NullString `db:"category_color"`
	CategoryCreatedAt sql.NullString `db:"category_created_at"`
}

func (r *itemRow) toDomain() (domain.BucketItem, error) {
	item := domain.BucketItem{
		ID:         r.ID,
		ProfileID:  r.ProfileID,
		Title:      r.Title,
		CategoryID: r.CategoryID,
		Priority:   domain.Priority(r.Priority),
		Status:     domain.Status(r.Status),
		IsPublic:   r.IsPublic,
		DueType:    domain.DueType(r.DueType.String),
	}
	if r.Description.Valid {
		item.Description = &r.Description.String
	}
	if r.CompletionComment.Valid {
		item.CompletionComment = &r.CompletionComment.String
	}
	if r.DueDate.Valid && r.DueDate.String != "" {
		due, err := domain.ParseDueDate(r.DueDate.String)
		if err != nil {
			return item, fmt.Errorf("item %s: due_date: %w", r.ID, err)
		}
		item.DueDate = &due
	}
	if r.CompletedAt.Valid && r.CompletedAt.String != "" {
		at, err := parseTime(r.CompletedAt.String)
		if err != nil {
			return item, fmt.Errorf("item %s: completed_at: %w", r.ID, err)
		}
		item.CompletedAt = &at
	}

	var err error
	if item.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return item, fmt.Errorf("item %s: created_at: %w", r.ID, err)
	}
	if item.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return item, fmt.Errorf("item %s: updated_at: %w", r.ID, err)
	}
	return item, nil
}

func (r *itemCategoryRow) toDomain() (domain.BucketItemWithCategory, error) {
	item, err := r.itemRow.toDomain()
	if err != nil {
		return domain.BucketItemWithCategory{}, err
	}
	out := domain.BucketItemWithCategory{BucketItem: item}
	if r.CategoryName.Valid {
		cat := domain.Category{ID: r.CategoryID, Name: r.CategoryName.String, Color: r.CategoryColor.String}
		if r.CategoryCreatedAt.Valid {
			cat.CreatedAt, _ = parseTime(r.CategoryCreatedAt.String)
		}
		out.Category = &cat
	}
	return out, nil
}

// applyFilter adds WHERE clauses for the non-nil fields of f.
func applyFilter(q squirrel.SelectBuilder, f store.ItemFilter, dialect Dialect) squirrel.SelectBuilder {
	if f.ProfileID != nil {
		q = q.Where(squirrel.Eq{"b.profile_id": *f.ProfileID})
	}
	if f.CategoryID != nil {
		q = q.Where(squirrel.Eq{"b.category_id": *f.CategoryID})
	}
	if f.Priority != nil {
		q = q.Where(squirrel.Eq{"b.priority": string(*f.Priority)})
	}
	if f.Status != nil {
		q = q.Where(squirrel.Eq{"b.status": string(*f.Status)})
	}
	if f.IsPublic != nil {
		q = q.Where(squirrel.Eq{"b.is_public": *f.IsPublic})
	}
	if f.Search != nil && strings.TrimSpace(*f.Search) != "" {
		title, description, pattern := searchExprs(dialect, strings.TrimSpace(*f.Search))
		q = q.Where(squirrel.Or{
			squirrel.Expr(title, pattern),
			squirrel.Expr(description, pattern),
		})
	}
	return q
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// applySort orders by spec, falling back to newest first. Items without a
// due date always sort last when ordering by due date.
func applySort(q squirrel.SelectBuilder, spec *domain.SortSpec) squirrel.SelectBuilder {
	s := domain.DefaultSort
	if spec != nil && spec.Field.Valid() {
		s = *spec
		if s.Direction == "" {
			s.Direction = domain.DefaultSort.Direction
		}
	}
	dir := "DESC"
	if s.Direction == domain.SortAsc {
		dir = "ASC"
	}

	switch s.Field {
	case domain.SortByTitle:
		q = q.OrderBy("LOWER(b.title) " + dir)
	case domain.SortByPriority:
		q = q.OrderBy("CASE b.priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END " + dir)
	case domain.SortByUpdatedAt:
		q = q.OrderBy("b.updated_at " + dir)
	case domain.SortByDueDate:
		q = q.OrderBy("CASE WHEN b.due_date IS NULL THEN 1 ELSE 0 END ASC", "b.due_date "+dir)
	default:
		q = q.OrderBy("b.created_at " + dir)
	}
	return q.OrderBy("b.id ASC")
}

func (s *Store) selectItems(ctx context.Context, op string, filter store.ItemFilter, spec *domain.SortSpec) ([]domain.BucketItem, error) {
	query, args, err := applySort(applyFilter(s.sq.Select(itemColumns).From("bucket_items b"), filter, s.dialect), spec).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []itemRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, translate(err, op)
	}

	items := make([]domain.BucketItem, 0, len(rows))
	for i := range rows {
		item, err := rows[i].toDomain()
		if err != nil {
			return nil, domainerrors.Database(op, "corrupt item row", domainerrors.DBCodeUnknown, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// FindAll lists items matching filter.
func (s *Store) FindAll(ctx context.Context, filter store.ItemFilter, spec *domain.SortSpec) ([]domain.BucketItem, error) {
	return s.selectItems(ctx, "find_all_items", filter, spec)
}

// FindAllWithCategory lists items matching filter joined with their category.
func (s *Store) FindAllWithCategory(ctx context.Context, filter store.ItemFilter, spec *domain.SortSpec) ([]domain.BucketItemWithCategory, error) {
	const op = "find_items_with_category"
	base := s.sq.Select(itemColumns, categoryJoinColumns).
		From("bucket_items b").
		LeftJoin("categories c ON c.id = b.category_id")
	query, args, err := applySort(applyFilter(base, filter, s.dialect), spec).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []itemCategoryRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, translate(err, op)
	}

	items := make([]domain.BucketItemWithCategory, 0, len(rows))
	for i := range rows {
		item, err := rows[i].toDomain()
		if err != nil {
			return nil, domainerrors.Database(op, "corrupt item row", domainerrors.DBCodeUnknown, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// FindByProfileID lists the items owned by profileID.
func (s *Store) FindByProfileID(ctx context.Context, profileID string, filter store.ItemFilter, spec *domain.SortSpec) ([]domain.BucketItem, error) {
	filter.ProfileID = &profileID
	return s.selectItems(ctx, "find_items_by_profile", filter, spec)
}

// FindPublic lists items shared publicly.
func (s *Store) FindPublic(ctx context.Context, filter store.ItemFilter, spec *domain.SortSpec) ([]domain.BucketItem, error) {
	public := true
	filter.IsPublic = &public
	return s.selectItems(ctx, "find_public_items", filter, spec)
}

// FindByID loads one item.
func (s *Store) FindByID(ctx context.Context, itemID string) (*domain.BucketItem, error) {
	const op = "find_item"
	if !id.Is(id.Item, itemID) {
		return nil, domainerrors.NotFound("bucket_item", itemID)
	}
	query, args, err := s.sq.Select(itemColumns).From("bucket_items b").Where(squirrel.Eq{"b.id": itemID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var row itemRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainerrors.NotFound("bucket_item", itemID)
		}
		return nil, translate(err, op)
	}
	item, err := row.toDomain()
	if err != nil {
		return nil, domainerrors.Database(op, "corrupt item row", domainerrors.DBCodeUnknown, err)
	}
	return &item, nil
}

// Create inserts a new item. The input must already be validated.
func (s *Store) Create(ctx context.Context, in *domain.BucketItemInsert) (*domain.BucketItem, error) {
	const op = "create_item"

	itemID, err := id.New(id.Item)
	if err != nil {
		return nil, domainerrors.Application("generate item id", err)
	}
	now := s.now()
	status := in.Status
	if status == "" {
		status = domain.StatusNotStarted
	}

	var dueDate any
	if in.DueDate != nil && strings.TrimSpace(*in.DueDate) != "" {
		due, err := domain.ParseDueDate(*in.DueDate)
		if err != nil {
			return nil, domainerrors.Validation("due_date", "invalid due date")
		}
		dueDate = domain.FormatDueDate(due)
	}
	var completedAt any
	if status == domain.StatusCompleted {
		completedAt = formatTime(now)
	}
	var dueType any
	if in.DueType != "" {
		dueType = string(in.DueType)
	}

	query, args, err := s.sq.Insert("bucket_items").
		Columns("id", "profile_id", "title", "description", "category_id", "priority", "status",
			"is_public", "due_date", "due_type", "completed_at", "completion_comment",
			"created_at", "updated_at").
		Values(itemID, in.ProfileID, strings.TrimSpace(in.Title), nullString(in.Description), in.CategoryID,
			string(in.Priority), string(status), in.IsPublic, dueDate, dueType, completedAt,
			nullString(in.CompletionComment), formatTime(now), formatTime(now)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		err = translate(err, op)
		if isReferenceError(err) {
			return nil, s.missingReference(ctx, in.ProfileID, in.CategoryID, err)
		}
		return nil, err
	}

	item, err := s.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	s.index(ctx, item)
	return item, nil
}

// missingReference explains a foreign key failure in terms of the row that
// is missing. The category is checked first since that is what clients send.
func (s *Store) missingReference(ctx context.Context, profileID string, categoryID int64, fkErr error) error {
	if _, err := s.FindCategoryByID(ctx, categoryID); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return err
		}
		return fkErr
	}
	if _, err := s.GetProfile(ctx, profileID); err != nil && errors.Is(err, domainerrors.ErrNotFound) {
		return err
	}
	return fkErr
}

// Update applies patch to an owned, not yet completed item.
func (s *Store) Update(ctx context.Context, itemID, profileID string, patch *domain.BucketItemUpdate) (*domain.BucketItem, error) {
	const op = "update_item"
	if patch == nil || patch.IsEmpty() {
		return s.findOwned(ctx, itemID, profileID)
	}

	now := s.now()
	set := map[string]any{"updated_at": formatTime(now)}
	if patch.Title != nil {
		set["title"] = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		set["description"] = nullString(patch.Description)
	}
	if patch.CategoryID != nil {
		set["category_id"] = *patch.CategoryID
	}
	if patch.Priority != nil {
		set["priority"] = string(*patch.Priority)
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.IsPublic != nil {
		set["is_public"] = *patch.IsPublic
	}
	if patch.DueDate != nil {
		if strings.TrimSpace(*patch.DueDate) == "" {
			set["due_date"] = nil
		} else {
			due, err := domain.ParseDueDate(*patch.DueDate)
			if err != nil {
				return nil, domainerrors.Validation("due_date", "invalid due date")
			}
			set["due_date"] = domain.FormatDueDate(due)
		}
	}
	if patch.DueType != nil {
		if *patch.DueType == "" {
			set["due_type"] = nil
		} else {
			set["due_type"] = string(*patch.DueType)
		}
	}
	if patch.CompletedAt != nil {
		set["completed_at"] = nullTime(patch.CompletedAt)
	}
	if patch.CompletionComment != nil {
		set["completion_comment"] = nullString(patch.CompletionComment)
	}

	query, args, err := s.sq.Update("bucket_items").
		SetMap(set).
		Where(squirrel.Eq{"id": itemID, "profile_id": profileID}).
		Where(squirrel.NotEq{"status": string(domain.StatusCompleted)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		err = translate(err, op)
		if isReferenceError(err) && patch.CategoryID != nil {
			return nil, s.missingReference(ctx, profileID, *patch.CategoryID, err)
		}
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, translate(err, op)
	}
	if affected == 0 {
		return nil, s.resolveUpdateMiss(ctx, itemID, profileID)
	}

	item, err := s.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	s.index(ctx, item)
	return item, nil
}

// resolveUpdateMiss explains why a conditional update touched no rows.
// Items owned by someone else are reported as missing.
func (s *Store) resolveUpdateMiss(ctx context.Context, itemID, profileID string) error {
	item, err := s.findOwned(ctx, itemID, profileID)
	if err != nil {
		return err
	}
	if err := bucketlist.CanEditCompletedItem(item); err != nil {
		return err
	}
	return domainerrors.Database("update_item", "item changed concurrently", domainerrors.DBCodeLocked, nil)
}

func (s *Store) findOwned(ctx context.Context, itemID, profileID string) (*domain.BucketItem, error) {
	item, err := s.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.ProfileID != profileID {
		return nil, domainerrors.NotFound("bucket_item", itemID)
	}
	return item, nil
}

// Delete removes an owned item.
func (s *Store) Delete(ctx context.Context, itemID, profileID string) error {
	const op = "delete_item"
	query, args, err := s.sq.Delete("bucket_items").
		Where(squirrel.Eq{"id": itemID, "profile_id": profileID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build %s query: %w", op, err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translate(err, op)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return translate(err, op)
	}
	if affected == 0 {
		return domainerrors.NotFound("bucket_item", itemID)
	}

	if err := s.indexer.DeleteItem(ctx, itemID); err != nil {
		s.logger.Warn("failed to remove item from index", "item_id", itemID, "error", err)
	}
	return nil
}

func (s *Store) index(ctx context.Context, item *domain.BucketItem) {
	if err := s.indexer.IndexItem(ctx, item); err != nil {
		s.logger.Warn("failed to index item", "item_id", item.ID, "error", err)
	}
}

// nowFunc overrides the clock. Tests only.
func (s *Store) nowFunc(fn func() time.Time) {
	s.now = fn
}
