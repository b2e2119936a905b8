package entities

type User struct {
	ID        uint64 `json:"id" gorm:"primaryKey"`
	UserLogin string `json:"user_login" gorm:"type:varchar(60);not null;index:idx_users_login"`
	UserEmail string `json:"user_email" gorm:"type:varchar(100);index:idx_users_email"`
}

func (User) TableName() string {
	return "users"
}
