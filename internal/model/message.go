package model

// Message is a simple user-to-user drop box entry delivered on next poll.
type Message struct {
	ID        string `db:"id" json:"id"`
	FromUser  string `db:"from_user" json:"from"`
	ToUser    string `db:"to_user" json:"to"`
	Content   string `db:"content" json:"content"`
	Timestamp int64  `db:"timestamp" json:"timestamp"`
}

// Broadcast is an admin announcement shown to every client.
type Broadcast struct {
	ID        string `db:"id" json:"id"`
	Content   string `db:"content" json:"content"`
	CreatedBy string `db:"created_by" json:"createdBy"`
	CreatedAt int64  `db:"created_at" json:"createdAt"`
}
