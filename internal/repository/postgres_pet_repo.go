package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/petpals/internal/model"
)

// PostgresPetRepo はPostgreSQLを使用したペットリポジトリ。
type PostgresPetRepo struct {
	db *sql.DB
}

// NewPostgresPetRepo はPostgresPetRepoを生成する。
func NewPostgresPetRepo(db *sql.DB) *PostgresPetRepo {
	return &PostgresPetRepo{db: db}
}

const petColumns = `id, email, pet_name, pet_age, pet_category, location, image_url,
	short_description, long_description, adopted, created_at, updated_at`

func scanPet(row interface{ Scan(...any) error }) (*model.Pet, error) {
	pet := &model.Pet{}
	err := row.Scan(
		&pet.ID, &pet.Email, &pet.PetName, &pet.PetAge, &pet.PetCategory,
		&pet.Location, &pet.ImageURL, &pet.ShortDescription, &pet.LongDescription,
		&pet.Adopted, &pet.CreatedAt, &pet.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return pet, nil
}

// FindByID は指定IDのペットを取得する。見つからない場合はnilを返す。
func (r *PostgresPetRepo) FindByID(ctx context.Context, id string) (*model.Pet, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+petColumns+` FROM pets WHERE id = $1`,
		id,
	)
	pet, err := scanPet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pet by ID: %w", err)
	}
	return pet, nil
}

// ListPage はフィルタ条件に合致するペットを作成日時の降順でページ取得し、
// 同一条件での総件数を併せて返す。
// 総件数は一覧と同じフィルタで数える。公開一覧のpetsCountが
// 里親未決定のペットのみを反映するのはこの仕様による。
func (r *PostgresPetRepo) ListPage(ctx context.Context, filter PetFilter, offset, limit int) ([]*model.Pet, int, error) {
	where := `TRUE`
	args := []any{}
	if filter.NotAdoptedOnly {
		where += ` AND adopted = FALSE`
	}
	if filter.Email != "" {
		args = append(args, filter.Email)
		where += fmt.Sprintf(` AND email = $%d`, len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pets WHERE `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count pets: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT `+petColumns+` FROM pets WHERE `+where+
			` ORDER BY created_at DESC OFFSET $%d LIMIT $%d`,
		len(args)+1, len(args)+2,
	)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list pets: %w", err)
	}
	defer rows.Close()

	pets, err := collectPets(rows)
	if err != nil {
		return nil, 0, err
	}
	return pets, total, nil
}

// ListByCategory はカテゴリの部分一致（大文字小文字無視）でペットを検索する。
func (r *PostgresPetRepo) ListByCategory(ctx context.Context, category string) ([]*model.Pet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+petColumns+` FROM pets
		 WHERE pet_category ILIKE '%' || $1 || '%'
		 ORDER BY created_at DESC`,
		category,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pets by category: %w", err)
	}
	defer rows.Close()

	return collectPets(rows)
}

// SearchByName は名前の部分一致（大文字小文字無視）でペットを検索する。
func (r *PostgresPetRepo) SearchByName(ctx context.Context, name string) ([]*model.Pet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+petColumns+` FROM pets
		 WHERE pet_name ILIKE '%' || $1 || '%'
		 ORDER BY created_at DESC`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search pets by name: %w", err)
	}
	defer rows.Close()

	return collectPets(rows)
}

// Create はペットを作成する。
func (r *PostgresPetRepo) Create(ctx context.Context, pet *model.Pet) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pets (id, email, pet_name, pet_age, pet_category, location, image_url,
		   short_description, long_description, adopted, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		pet.ID, pet.Email, pet.PetName, pet.PetAge, pet.PetCategory, pet.Location,
		pet.ImageURL, pet.ShortDescription, pet.LongDescription, pet.Adopted,
		pet.CreatedAt, pet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert pet: %w", err)
	}
	return nil
}

// Update はペット情報を上書き更新する。更新行数を返す。
func (r *PostgresPetRepo) Update(ctx context.Context, pet *model.Pet) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE pets SET
		   email = $1, pet_name = $2, pet_age = $3, pet_category = $4, location = $5,
		   image_url = $6, short_description = $7, long_description = $8, adopted = $9,
		   updated_at = now()
		 WHERE id = $10`,
		pet.Email, pet.PetName, pet.PetAge, pet.PetCategory, pet.Location,
		pet.ImageURL, pet.ShortDescription, pet.LongDescription, pet.Adopted, pet.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update pet: %w", err)
	}
	return result.RowsAffected()
}

// UpdateAdopted は里親決定フラグを更新する。更新行数を返す。
func (r *PostgresPetRepo) UpdateAdopted(ctx context.Context, id string, adopted bool) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE pets SET adopted = $1, updated_at = now() WHERE id = $2`,
		adopted, id,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update pet adopted flag: %w", err)
	}
	return result.RowsAffected()
}

// DeleteByID は指定IDのペットを削除する。削除行数を返す（0は冪等削除）。
func (r *PostgresPetRepo) DeleteByID(ctx context.Context, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM pets WHERE id = $1`,
		id,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete pet: %w", err)
	}
	return result.RowsAffected()
}

// collectPets は検索結果の行をモデルのスライスへ変換する。
func collectPets(rows *sql.Rows) ([]*model.Pet, error) {
	var pets []*model.Pet
	for rows.Next() {
		pet, err := scanPet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pet: %w", err)
		}
		pets = append(pets, pet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pets: %w", err)
	}
	return pets, nil
}

// compile-time interface check
var _ PetRepository = (*PostgresPetRepo)(nil)
