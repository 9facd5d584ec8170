package model

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	UserID       string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name         string    `gorm:"not null;type:varchar(50)" json:"name"`
	Email        string    `gorm:"uniqueIndex;not null;type:varchar(255)" json:"email"`
	PasswordHash string    `gorm:"not null;type:varchar(255)" json:"-"`
	Phone        string    `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Role         Role      `gorm:"not null;type:varchar(10);default:user" json:"role"`
	Addresses    []Address `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"address"`
	BaseModel
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DefaultAddress 標記為預設的地址，沒有則取第一筆
func (u *User) DefaultAddress() (Address, bool) {
	for _, a := range u.Addresses {
		if a.IsDefault {
			return a, true
		}
	}
	if len(u.Addresses) > 0 {
		return u.Addresses[0], true
	}
	return Address{}, false
}

type Address struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	UserID    string `gorm:"not null;type:varchar(64);index" json:"-"`
	Street    string `gorm:"type:varchar(255)" json:"street"`
	City      string `gorm:"type:varchar(100)" json:"city"`
	State     string `gorm:"type:varchar(100)" json:"state"`
	Pincode   string `gorm:"type:varchar(20)" json:"pincode"`
	IsDefault bool   `gorm:"not null;default:false" json:"isDefault"`
}
