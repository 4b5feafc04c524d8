package models

import "time"

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// Anonymous is the identity assigned to connections that present no
// credential or an invalid one. It fails every membership check.
var Anonymous = User{ID: 0, Username: "anonymous"}

func (u *User) IsAnonymous() bool {
	return u == nil || u.ID == 0
}

type Chat struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	IsGroup     bool      `json:"is_group"`
	InviteToken string    `json:"invite_token,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Message struct {
	ID        int       `json:"id"`
	ChatID    int       `json:"chat_id"`
	SenderID  int       `json:"sender_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	Media     string    `json:"media,omitempty"`
	Edited    bool      `json:"edited"`
	Deleted   bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Notification struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	SenderID  int       `json:"sender_id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
