package model

// Doctor is the authenticated actor. All other records are scoped to a doctor id.
type Doctor struct {
	ID           string `json:"id" dynamodbav:"id" db:"id"`
	Username     string `json:"username" dynamodbav:"username" db:"username"`
	Name         string `json:"name" dynamodbav:"name" db:"name"`
	PasswordHash string `json:"-" dynamodbav:"password_hash" db:"password_hash"`
}

func (d *Doctor) UserInfo() UserInfo {
	return UserInfo{ID: d.ID, Username: d.Username, Name: d.Name}
}
