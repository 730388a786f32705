package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/certtrack-api/internal/models"
)

// ErrEntityNotPending is returned when the pending-status guard finds no
// matching row inside the request-creation transaction.
var ErrEntityNotPending = errors.New("entity is not in pending status or does not exist")

// EntityGuard re-verifies, inside the insert transaction, that the target
// entity still accepts a new request. The query must select a single row when
// the precondition holds and should lock it (FOR UPDATE) so the status cannot
// flip between the check and the insert.
type EntityGuard struct {
	Query string
	Args  []interface{}
}

// RequestRepository persists approval requests and their entity rows.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create inserts a request plus its single entity row as one transaction.
// The next request id is assigned under the same transaction: the latest id
// row is locked before the successor is computed, so sequential REQ numbers
// survive concurrent creations. Zero-padding keeps lexicographic order equal
// to numeric order.
func (r *RequestRepository) Create(ctx context.Context, request *models.Request, entity *models.RequestEntity, guard EntityGuard) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create request: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if guard.Query != "" {
		var one int
		if err := tx.GetContext(ctx, &one, guard.Query, guard.Args...); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrEntityNotPending
			}
			return fmt.Errorf("check entity status: %w", err)
		}
	}

	var lastID string
	err = tx.GetContext(ctx, &lastID, `SELECT request_id FROM requests ORDER BY request_id DESC LIMIT 1 FOR UPDATE`)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read latest request id: %w", err)
	}
	nextID, err := models.NextRequestID(lastID)
	if err != nil {
		return fmt.Errorf("assign request id: %w", err)
	}

	now := time.Now().UTC()
	request.RequestID = nextID
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = request.CreatedAt

	const insertRequest = `INSERT INTO requests
	(request_id, request_user_id, description, notes, approved_by_user_id, approved_date, created_at, updated_at)
	VALUES (:request_id, :request_user_id, :description, :notes, :approved_by_user_id, :approved_date, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertRequest, request); err != nil {
		return fmt.Errorf("insert request: %w", err)
	}

	entity.RequestID = nextID
	if entity.RequestStatus == "" {
		entity.RequestStatus = models.RequestStatusPending
	}
	const insertEntity = `INSERT INTO request_entities
	(request_id, entity_id, request_type, request_status)
	VALUES (:request_id, :entity_id, :request_type, :request_status)`
	if _, err := tx.NamedExecContext(ctx, insertEntity, entity); err != nil {
		return fmt.Errorf("insert request entity: %w", err)
	}

	return tx.Commit()
}

// GetByID fetches a request by identifier.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*models.Request, error) {
	const query = `SELECT request_id, request_user_id, description, notes, approved_by_user_id, approved_date, created_at, updated_at
	FROM requests WHERE request_id = $1`
	var request models.Request
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// ListEntities returns the entity rows for a request.
func (r *RequestRepository) ListEntities(ctx context.Context, requestID string) ([]models.RequestEntity, error) {
	const query = `SELECT request_id, entity_id, request_type, request_status
	FROM request_entities WHERE request_id = $1 ORDER BY entity_id`
	var entities []models.RequestEntity
	if err := r.db.SelectContext(ctx, &entities, query, requestID); err != nil {
		return nil, fmt.Errorf("list request entities: %w", err)
	}
	return entities, nil
}

// List returns requests matching the filter (latest first).
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.Request, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(`SELECT DISTINCT r.request_id, r.request_user_id, r.description, r.notes,
       r.approved_by_user_id, r.approved_date, r.created_at, r.updated_at
	FROM requests r JOIN request_entities re ON re.request_id = r.request_id`)

	conditions := make([]string, 0, 4)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("re.request_status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("re.request_type = $%d", len(args)))
	}
	if filter.EntityID != "" {
		args = append(args, filter.EntityID)
		conditions = append(conditions, fmt.Sprintf("re.entity_id = $%d", len(args)))
	}
	if filter.RequestedBy != "" {
		args = append(args, filter.RequestedBy)
		conditions = append(conditions, fmt.Sprintf("r.request_user_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY r.request_id DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var requests []models.Request
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return requests, nil
}

// ReviewParams groups the columns written when a request is decided.
type ReviewParams struct {
	RequestID  string
	Status     models.RequestStatus
	ApproverID string
	ReviewedAt time.Time
}

// MarkReviewed flips the request's approval metadata and every pending entity
// row to the decided status in one transaction. Returns sql.ErrNoRows when
// the request was already reviewed.
func (r *RequestRepository) MarkReviewed(ctx context.Context, params ReviewParams) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin review request: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const updateRequest = `UPDATE requests
	SET approved_by_user_id = $1, approved_date = $2, updated_at = $2
	WHERE request_id = $3 AND approved_date IS NULL`
	result, err := tx.ExecContext(ctx, updateRequest, params.ApproverID, params.ReviewedAt, params.RequestID)
	if err != nil {
		return fmt.Errorf("update request review: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check request review rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	const updateEntities = `UPDATE request_entities
	SET request_status = $1
	WHERE request_id = $2 AND request_status = $3`
	if _, err := tx.ExecContext(ctx, updateEntities, params.Status, params.RequestID, models.RequestStatusPending); err != nil {
		return fmt.Errorf("update request entities: %w", err)
	}

	return tx.Commit()
}
