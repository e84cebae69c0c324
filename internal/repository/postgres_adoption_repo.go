package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/petpals/internal/model"
)

// PostgresAdoptionRepo はPostgreSQLを使用した里親申請リポジトリ。
type PostgresAdoptionRepo struct {
	db *sql.DB
}

// NewPostgresAdoptionRepo はPostgresAdoptionRepoを生成する。
func NewPostgresAdoptionRepo(db *sql.DB) *PostgresAdoptionRepo {
	return &PostgresAdoptionRepo{db: db}
}

const adoptionColumns = `id, pet_id, pet_name, owner_email, requester_name, requester_email,
	phone, address, status, created_at`

func scanAdoptionRequest(row interface{ Scan(...any) error }) (*model.AdoptionRequest, error) {
	req := &model.AdoptionRequest{}
	err := row.Scan(
		&req.ID, &req.PetID, &req.PetName, &req.OwnerEmail, &req.RequesterName,
		&req.RequesterEmail, &req.Phone, &req.Address, &req.Status, &req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// FindByID は指定IDの申請を取得する。見つからない場合はnilを返す。
func (r *PostgresAdoptionRepo) FindByID(ctx context.Context, id string) (*model.AdoptionRequest, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+adoptionColumns+` FROM adoption_requests WHERE id = $1`,
		id,
	)
	req, err := scanAdoptionRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find adoption request by ID: %w", err)
	}
	return req, nil
}

// ListByOwnerEmail は掲載者宛の申請一覧を作成日時の降順で返す。
func (r *PostgresAdoptionRepo) ListByOwnerEmail(ctx context.Context, ownerEmail string) ([]*model.AdoptionRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+adoptionColumns+` FROM adoption_requests
		 WHERE owner_email = $1 ORDER BY created_at DESC`,
		ownerEmail,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list adoption requests: %w", err)
	}
	defer rows.Close()

	var reqs []*model.AdoptionRequest
	for rows.Next() {
		req, err := scanAdoptionRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan adoption request: %w", err)
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate adoption requests: %w", err)
	}
	return reqs, nil
}

// Create は申請を作成する。
func (r *PostgresAdoptionRepo) Create(ctx context.Context, req *model.AdoptionRequest) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO adoption_requests (id, pet_id, pet_name, owner_email, requester_name,
		   requester_email, phone, address, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		req.ID, req.PetID, req.PetName, req.OwnerEmail, req.RequesterName,
		req.RequesterEmail, req.Phone, req.Address, req.Status, req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert adoption request: %w", err)
	}
	return nil
}

// UpdateStatus は申請状態を更新する。更新行数を返す。
func (r *PostgresAdoptionRepo) UpdateStatus(ctx context.Context, id string, status model.AdoptionStatus) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE adoption_requests SET status = $1 WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update adoption request status: %w", err)
	}
	return result.RowsAffected()
}

// DeleteByID は指定IDの申請を削除する。削除行数を返す（0は冪等削除）。
func (r *PostgresAdoptionRepo) DeleteByID(ctx context.Context, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM adoption_requests WHERE id = $1`,
		id,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete adoption request: %w", err)
	}
	return result.RowsAffected()
}

// compile-time interface check
var _ AdoptionRepository = (*PostgresAdoptionRepo)(nil)
