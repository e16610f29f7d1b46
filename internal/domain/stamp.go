package domain

// Stamp is a reaction kind. Read-through cache, bulk-refreshed on list
// fetch.
type Stamp struct {
	ID   ID     `json:"id" gorm:"primaryKey;type:uuid"`
	Name string `json:"name"`
}

func (Stamp) TableName() string {
	return "stamps"
}
