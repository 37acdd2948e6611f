package session

import "time"

// Session is the server-side login state. The cookie only carries an opaque
// reference to this row; the user is re-validated from the database on every
// request.
type Session struct {
	ID        string    `gorm:"primaryKey;size:64"`
	UserID    int64     `gorm:"column:user_id;index;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;index;not null"`
	Revoked   bool      `gorm:"column:revoked;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (Session) TableName() string {
	return "sessions"
}
