package domain

// User is a mirrored upstream account. Created on first authentication or
// first read-through; updated on re-read; never deleted by the core.
type User struct {
	ID          ID     `json:"id" gorm:"primaryKey;type:uuid"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName" gorm:"column:display_name"`
}

func (User) TableName() string {
	return "users"
}

// Token is the opaque upstream credential scoped to one user. Treated as a
// secret: both String and GoString redact the access token so it never
// leaks through logging or %v/%+v formatting.
type Token struct {
	UserID      ID
	AccessToken string
}

func (t Token) String() string {
	return "Token{user_id: " + t.UserID.String() + ", access_token: [REDACTED]}"
}

func (t Token) GoString() string {
	return t.String()
}

// TokenRecord is the persisted shape of a Token: a row keyed by user,
// not a value type passed around in-memory.
type TokenRecord struct {
	UserID      ID     `json:"userId" gorm:"column:user_id;primaryKey;type:uuid"`
	AccessToken string `json:"accessToken" gorm:"column:access_token"`
}

func (TokenRecord) TableName() string {
	return "user_tokens"
}

func (r TokenRecord) String() string {
	return Token{UserID: r.UserID, AccessToken: r.AccessToken}.String()
}
