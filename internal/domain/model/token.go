package model

import "time"

// 発行済みトークン1件分のセッションレコード。
// access / refresh の両方をここに保存する（IsRefreshTokenで区別）。
// 失効はblacklistedフラグで行い、行削除はTTL掃除に任せる（監査のため）。
type Token struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID int64  `gorm:"not null;index" json:"user_id"`

	//署名済みトークン文字列そのもの。全レコードで一意。
	Token string `gorm:"type:text;not null;uniqueIndex" json:"-"`

	IsRefreshToken bool `gorm:"not null;default:false" json:"is_refresh_token"`
	Blacklisted    bool `gorm:"not null;default:false" json:"blacklisted"`

	//CreatedAtはTTL掃除の基準（作成から7日で物理削除）。
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
	LastUsedAt time.Time `gorm:"not null" json:"last_used_at"`
}
