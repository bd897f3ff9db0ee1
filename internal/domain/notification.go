package domain

// Notification Model
type Notification struct {
	Base
	UserID  string `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Message string `gorm:"type:text;not null" json:"message"`
	Read    bool   `gorm:"not null;default:false" json:"read"`
}

// OwnerID implements Owned
func (n *Notification) OwnerID() string { return n.UserID }

// Models lists every persisted model, in migration order
func Models() []any {
	return []any{&User{}, &Transaction{}, &Budget{}, &Goal{}, &Category{}, &Notification{}}
}
