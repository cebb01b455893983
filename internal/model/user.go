package model

// User 注册用户
type User struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Email    string `json:"-" gorm:"type:varchar(100);uniqueIndex;not null"`
	Password string `json:"-" gorm:"type:varchar(100);not null"`
	Name     string `json:"name" gorm:"type:varchar(100);not null"`
	Posts    []Post `json:"posts,omitempty" gorm:"foreignKey:AuthorID"`
}

func (User) TableName() string { return "users" }
