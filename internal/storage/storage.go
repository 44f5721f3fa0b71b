package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"orders_service/internal/models"
)

const (
	usersTable  = "users"
	ordersTable = "orders"
)

const uniqueViolationCode = "23505"

var (
	ErrNotFound     = errors.New("storage: not found")
	ErrDuplicateKey = errors.New("storage: duplicate key")
)

type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// OrderFilter restricts a listing. State empty means all states; Limit and
// Offset are applied as-is, callers normalize them first.
type OrderFilter struct {
	State  string
	Limit  int
	Offset int
}

// OrderStore queries are always scoped by owner. There is deliberately no
// lookup by order id alone.
type OrderStore interface {
	CreateOrder(ctx context.Context, order models.Order) (models.Order, error)
	GetOrder(ctx context.Context, orderID, ownerID uuid.UUID) (models.Order, error)
	ListOrders(ctx context.Context, ownerID uuid.UUID, filter OrderFilter) ([]models.Order, int, error)
	// UpdateOrderState persists the transition only if the stored state still
	// equals fromState; otherwise it reports ErrNotFound.
	UpdateOrderState(ctx context.Context, orderID, ownerID uuid.UUID, fromState, toState models.OrderState) (models.Order, error)
}

type PostgresStorage struct {
	db *pgxpool.Pool
}

var (
	_ UserStore  = (*PostgresStorage)(nil)
	_ OrderStore = (*PostgresStorage)(nil)
)

func NewPostgresStorage(ctx context.Context, dbURL string) (*PostgresStorage, error) {
	const op = "storage.NewPostgresStorage"

	conn, err := pgxpool.Connect(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &PostgresStorage{
		db: conn,
	}, nil
}

func (p *PostgresStorage) CreateUser(ctx context.Context, email, passwordHash string) (models.User, error) {
	const op = "storage.CreateUser"

	userID, err := uuid.NewV4()
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	var user models.User
	query := fmt.Sprintf(`INSERT INTO %s(id, email, password_hash) VALUES ($1, $2, $3)
	RETURNING id, email, password_hash, created_at, updated_at;`, usersTable)

	err = p.db.QueryRow(ctx, query, userID, email, passwordHash).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("%s: %w", op, ErrDuplicateKey)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (p *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "storage.GetUserByEmail"

	var user models.User
	query := fmt.Sprintf("SELECT id, email, password_hash, created_at, updated_at FROM %s WHERE email=$1;", usersTable)

	err := p.db.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (p *PostgresStorage) CreateOrder(ctx context.Context, order models.Order) (models.Order, error) {
	const op = "storage.CreateOrder"

	orderID, err := uuid.NewV4()
	if err != nil {
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	services, err := json.Marshal(order.Services)
	if err != nil {
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	query := fmt.Sprintf(`INSERT INTO %s(id, lab, patient, customer, services, state, status, user_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id, created_at, updated_at;`, ordersTable)

	err = p.db.QueryRow(ctx, query,
		orderID, order.Lab, order.Patient, order.Customer, services, order.State, order.Status, order.UserID,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	return order, nil
}

func (p *PostgresStorage) GetOrder(ctx context.Context, orderID, ownerID uuid.UUID) (models.Order, error) {
	const op = "storage.GetOrder"

	query := fmt.Sprintf(`SELECT id, lab, patient, customer, services, state, status, user_id, created_at, updated_at
	FROM %s WHERE id=$1 AND user_id=$2 AND status=$3;`, ordersTable)

	order, err := scanOrder(p.db.QueryRow(ctx, query, orderID, ownerID, models.OrderStatusActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Order{}, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	return order, nil
}

func (p *PostgresStorage) ListOrders(ctx context.Context, ownerID uuid.UUID, filter OrderFilter) ([]models.Order, int, error) {
	const op = "storage.ListOrders"

	where := "WHERE user_id=$1 AND status=$2"
	args := []interface{}{ownerID, models.OrderStatusActive}
	if filter.State != "" {
		args = append(args, filter.State)
		where += fmt.Sprintf(" AND state=$%d", len(args))
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(1) FROM %s %s;", ordersTable, where)
	if err := p.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	query := fmt.Sprintf(`SELECT id, lab, patient, customer, services, state, status, user_id, created_at, updated_at
	FROM %s %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d;`, ordersTable, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}

		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s (rows): %w", op, err)
	}

	return orders, total, nil
}

func (p *PostgresStorage) UpdateOrderState(ctx context.Context, orderID, ownerID uuid.UUID, fromState, toState models.OrderState) (models.Order, error) {
	const op = "storage.UpdateOrderState"

	query := fmt.Sprintf(`UPDATE %s SET state=$1, updated_at=now()
	WHERE id=$2 AND user_id=$3 AND state=$4
	RETURNING id, lab, patient, customer, services, state, status, user_id, created_at, updated_at;`, ordersTable)

	order, err := scanOrder(p.db.QueryRow(ctx, query, toState, orderID, ownerID, fromState))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Order{}, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	return order, nil
}

func (p *PostgresStorage) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

func (p *PostgresStorage) Close() {
	p.db.Close()
}

func scanOrder(row pgx.Row) (models.Order, error) {
	var (
		order    models.Order
		services []byte
	)

	err := row.Scan(
		&order.ID, &order.Lab, &order.Patient, &order.Customer, &services,
		&order.State, &order.Status, &order.UserID, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return models.Order{}, err
	}

	if err := json.Unmarshal(services, &order.Services); err != nil {
		return models.Order{}, err
	}

	return order, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
