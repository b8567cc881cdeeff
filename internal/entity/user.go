package entity

// User represents a platform member: a player, a coach or a club.
type User struct {
	Id        string  `json:"id" gorm:"column:id;primaryKey"`
	Role      string  `json:"role" gorm:"column:role"`
	Name      string  `json:"name" gorm:"column:name"`
	Avatar    string  `json:"avatar" gorm:"column:avatar"`
	Bio       string  `json:"bio" gorm:"column:bio"`
	Password  string  `json:"-" gorm:"column:password"`
	Extra     *string `json:"extra" gorm:"column:extra;type:json"`
	CreatedAt int64   `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt int64   `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName returns the table name for User
func (User) TableName() string {
	return "users"
}

// UserInfo represents public user info (without password)
type UserInfo struct {
	Id        string  `json:"id"`
	Role      string  `json:"role"`
	Name      string  `json:"name"`
	Avatar    string  `json:"avatar"`
	Bio       string  `json:"bio,omitempty"`
	Extra     *string `json:"extra,omitempty"`
	CreatedAt int64   `json:"created_at"`
}

// ToUserInfo converts User to UserInfo
func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		Id:        u.Id,
		Role:      u.Role,
		Name:      u.Name,
		Avatar:    u.Avatar,
		Bio:       u.Bio,
		Extra:     u.Extra,
		CreatedAt: u.CreatedAt,
	}
}
