package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/petpals/internal/model"
)

// PostgresCampaignRepo はPostgreSQLを使用した寄付キャンペーンリポジトリ。
type PostgresCampaignRepo struct {
	db *sql.DB
}

// NewPostgresCampaignRepo はPostgresCampaignRepoを生成する。
func NewPostgresCampaignRepo(db *sql.DB) *PostgresCampaignRepo {
	return &PostgresCampaignRepo{db: db}
}

const campaignColumns = `id, owner_email, pet_name, image_url, max_amount, last_date,
	short_description, long_description, pause_status, user_can_donate, created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*model.DonationCampaign, error) {
	c := &model.DonationCampaign{}
	err := row.Scan(
		&c.ID, &c.OwnerEmail, &c.PetName, &c.ImageURL, &c.MaxAmount, &c.LastDate,
		&c.ShortDescription, &c.LongDescription, &c.PauseStatus, &c.UserCanDonate,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// FindByID は指定IDのキャンペーンを取得する。見つからない場合はnilを返す。
func (r *PostgresCampaignRepo) FindByID(ctx context.Context, id string) (*model.DonationCampaign, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM donation_campaigns WHERE id = $1`,
		id,
	)
	c, err := scanCampaign(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find campaign by ID: %w", err)
	}
	return c, nil
}

// ListPage はキャンペーンを作成日時の降順でページ取得し、総件数を併せて返す。
func (r *PostgresCampaignRepo) ListPage(ctx context.Context, offset, limit int) ([]*model.DonationCampaign, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM donation_campaigns`,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count campaigns: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+campaignColumns+` FROM donation_campaigns
		 ORDER BY created_at DESC OFFSET $1 LIMIT $2`,
		offset, limit,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns, err := collectCampaigns(rows)
	if err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

// ListByOwner はオーナーのキャンペーン一覧を作成日時の降順で返す。
func (r *PostgresCampaignRepo) ListByOwner(ctx context.Context, ownerEmail string) ([]*model.DonationCampaign, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+campaignColumns+` FROM donation_campaigns
		 WHERE owner_email = $1 ORDER BY created_at DESC`,
		ownerEmail,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns by owner: %w", err)
	}
	defer rows.Close()

	return collectCampaigns(rows)
}

// ListExcluding は指定ID以外のキャンペーン一覧を返す。
func (r *PostgresCampaignRepo) ListExcluding(ctx context.Context, excludeID string) ([]*model.DonationCampaign, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+campaignColumns+` FROM donation_campaigns
		 WHERE id <> $1 ORDER BY created_at DESC`,
		excludeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns excluding ID: %w", err)
	}
	defer rows.Close()

	return collectCampaigns(rows)
}

// Create はキャンペーンを作成する。
func (r *PostgresCampaignRepo) Create(ctx context.Context, c *model.DonationCampaign) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO donation_campaigns (id, owner_email, pet_name, image_url, max_amount,
		   last_date, short_description, long_description, pause_status, user_can_donate,
		   created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.OwnerEmail, c.PetName, c.ImageURL, c.MaxAmount, c.LastDate,
		c.ShortDescription, c.LongDescription, c.PauseStatus, c.UserCanDonate,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert campaign: %w", err)
	}
	return nil
}

// Update はキャンペーンの編集可能フィールドを上書き更新する。更新行数を返す。
// 残高（max_amount）はこのクエリの対象外。変更はUpdateBalanceのみが行う。
func (r *PostgresCampaignRepo) Update(ctx context.Context, c *model.DonationCampaign) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE donation_campaigns SET
		   pet_name = $1, image_url = $2, last_date = $3, short_description = $4,
		   long_description = $5, pause_status = $6, user_can_donate = $7,
		   updated_at = now()
		 WHERE id = $8`,
		c.PetName, c.ImageURL, c.LastDate, c.ShortDescription, c.LongDescription,
		c.PauseStatus, c.UserCanDonate, c.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update campaign: %w", err)
	}
	return result.RowsAffected()
}

// UpdatePause は一時停止フラグを更新する。更新行数を返す。
func (r *PostgresCampaignRepo) UpdatePause(ctx context.Context, id string, paused bool) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE donation_campaigns SET pause_status = $1, updated_at = now() WHERE id = $2`,
		paused, id,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update campaign pause status: %w", err)
	}
	return result.RowsAffected()
}

// UpdateBalance は残高の条件付き更新を行う。
// WHERE句でmax_amountの現在値を比較することで、読み取り時点から変更されていた場合は
// 更新が空振りしfalseが返る。呼び出し側（ledger）が読み直して再試行する。
func (r *PostgresCampaignRepo) UpdateBalance(ctx context.Context, id string, oldBalance, newBalance int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE donation_campaigns SET max_amount = $1, updated_at = now()
		 WHERE id = $2 AND max_amount = $3`,
		newBalance, id, oldBalance,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update campaign balance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected == 1, nil
}

// DeleteByID は指定IDのキャンペーンを削除する。削除行数を返す（0は冪等削除）。
func (r *PostgresCampaignRepo) DeleteByID(ctx context.Context, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM donation_campaigns WHERE id = $1`,
		id,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete campaign: %w", err)
	}
	return result.RowsAffected()
}

// collectCampaigns は検索結果の行をモデルのスライスへ変換する。
func collectCampaigns(rows *sql.Rows) ([]*model.DonationCampaign, error) {
	var campaigns []*model.DonationCampaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate campaigns: %w", err)
	}
	return campaigns, nil
}

// compile-time interface check
var _ CampaignRepository = (*PostgresCampaignRepo)(nil)
