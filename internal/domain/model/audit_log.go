package model

import "time"

// ログイン、rotate、強制ログアウトなど。
type AuditAction string

const (
	//ログイン成功。
	AuditActionLogin AuditAction = "LOGIN"
	//refresh rotate成功。
	AuditActionRefresh AuditAction = "REFRESH"
	//管理者による全セッション失効。
	AuditActionForceLogout AuditAction = "FORCE_LOGOUT"
	//アカウント削除（退会）。
	AuditActionDeleteAccount AuditAction = "DELETE_ACCOUNT"
	//注文ステータスを更新した操作。
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
)

// 何に対する操作か
type AuditResourceType string

const (
	//ユーザーに対する操作。
	AuditResourceUser AuditResourceType = "user"

	//注文に対する操作。
	AuditResourceOrder AuditResourceType = "order"
)

// 監査ログ。「誰が」「何を」「どの対象に」「どう変えたか」を残す。
// セッションレコード側のblacklist履歴と合わせて追跡に使う。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作したユーザーのID。
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	//操作の種類（LOGIN / REFRESH / UPDATE_ORDER_STATUS など）。
	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	//対象の種類（user / order）。
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	//対象のID。
	ResourceID int64 `gorm:"not null;index" json:"resource_id"`

	//変更前後のスナップショット（JSON文字列）。
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
