package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/petpals/internal/model"
)

// PostgresDonationRepo はPostgreSQLを使用した寄付履歴リポジトリ。
type PostgresDonationRepo struct {
	db *sql.DB
}

// NewPostgresDonationRepo はPostgresDonationRepoを生成する。
func NewPostgresDonationRepo(db *sql.DB) *PostgresDonationRepo {
	return &PostgresDonationRepo{db: db}
}

const donationColumns = `id, campaign_id, pet_name, donor_email, owner_email, amount, created_at`

// Create は寄付履歴エントリを作成する。
func (r *PostgresDonationRepo) Create(ctx context.Context, entry *model.DonationHistoryEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO donation_history (id, campaign_id, pet_name, donor_email, owner_email, amount, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.CampaignID, entry.PetName, entry.DonorEmail, entry.OwnerEmail,
		entry.Amount, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert donation history entry: %w", err)
	}
	return nil
}

// ListByOwnerEmail はキャンペーンオーナー宛の寄付履歴を作成日時の降順で返す。
func (r *PostgresDonationRepo) ListByOwnerEmail(ctx context.Context, ownerEmail string) ([]*model.DonationHistoryEntry, error) {
	return r.list(ctx,
		`SELECT `+donationColumns+` FROM donation_history
		 WHERE owner_email = $1 ORDER BY created_at DESC`,
		ownerEmail,
	)
}

// ListByDonorEmail は寄付者自身の寄付履歴を作成日時の降順で返す。
func (r *PostgresDonationRepo) ListByDonorEmail(ctx context.Context, donorEmail string) ([]*model.DonationHistoryEntry, error) {
	return r.list(ctx,
		`SELECT `+donationColumns+` FROM donation_history
		 WHERE donor_email = $1 ORDER BY created_at DESC`,
		donorEmail,
	)
}

// DeleteByID は指定IDの履歴エントリを削除する。削除行数を返す（0は冪等削除）。
func (r *PostgresDonationRepo) DeleteByID(ctx context.Context, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM donation_history WHERE id = $1`,
		id,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete donation history entry: %w", err)
	}
	return result.RowsAffected()
}

func (r *PostgresDonationRepo) list(ctx context.Context, query string, args ...any) ([]*model.DonationHistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list donation history: %w", err)
	}
	defer rows.Close()

	var entries []*model.DonationHistoryEntry
	for rows.Next() {
		entry := &model.DonationHistoryEntry{}
		if err := rows.Scan(
			&entry.ID, &entry.CampaignID, &entry.PetName, &entry.DonorEmail,
			&entry.OwnerEmail, &entry.Amount, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan donation history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate donation history: %w", err)
	}
	return entries, nil
}

// compile-time interface check
var _ DonationRepository = (*PostgresDonationRepo)(nil)
