package session

import (
	"context"
	"log"
	"time"

	"shop/internal/repository"
)

// セッションレコードのハードTTL。claimの期限とは独立に、
// 作成から7日経った行は種別に関係なく物理削除する。
const RecordTTL = 7 * 24 * time.Hour

// SweeperはTTLを過ぎたセッションレコードを定期削除する。
// MongoのTTLインデックス相当の処理をアプリ側で行う。
type Sweeper struct {
	tokens   repository.TokenRepository
	clock    Clock
	interval time.Duration
}

func NewSweeper(tokens repository.TokenRepository, clock Clock, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{tokens: tokens, clock: clock, interval: interval}
}

// Runはctxが閉じるまで定期的に掃除する。goroutineで起動する前提。
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	before := s.clock.Now().Add(-RecordTTL)

	deleted, err := s.tokens.DeleteExpired(ctx, before)
	if err != nil {
		log.Printf("token sweep failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("token sweep: deleted %d expired records", deleted)
	}
}
