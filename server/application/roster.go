package application

import (
	"slices"

	"bossraid/server/domain"
)

// Roster は参加順のセッション一覧です。先頭がホストになります。
// ホスト判定は毎回ここを参照し、接続ごとにキャッシュしません。
type Roster struct {
	ids []domain.SessionID
}

func NewRoster() *Roster {
	return &Roster{}
}

// Add は末尾に追加します。既に含まれていれば何もしません。
func (r *Roster) Add(id domain.SessionID) {
	if r.Index(id) >= 0 {
		return
	}
	r.ids = append(r.ids, id)
}

func (r *Roster) Remove(id domain.SessionID) {
	if i := r.Index(id); i >= 0 {
		r.ids = slices.Delete(r.ids, i, i+1)
	}
}

// Host は現在のホストを返します。空なら空文字です。
func (r *Roster) Host() domain.SessionID {
	if len(r.ids) == 0 {
		return ""
	}
	return r.ids[0]
}

func (r *Roster) IsHost(id domain.SessionID) bool {
	return !id.IsEmpty() && r.Host() == id
}

func (r *Roster) Index(id domain.SessionID) int {
	return slices.Index(r.ids, id)
}

func (r *Roster) IDs() []domain.SessionID {
	return slices.Clone(r.ids)
}

func (r *Roster) Len() int { return len(r.ids) }
