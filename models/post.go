package models

// ForumPost is a row of the Kunena messages table.
type ForumPost struct {
	ID      int64  `db:"id"`
	Thread  int64  `db:"thread"`
	Parent  int64  `db:"parent"` // 0 for the topic's first post
	CatID   int64  `db:"catid"`
	Name    string `db:"name"`   // denormalized author name, may be empty
	UserID  int64  `db:"userid"` // 0 for guests
	Subject string `db:"subject"`
	Time    int64  `db:"time"` // Unix timestamp
}

// IsTopic reports whether the post opens its thread.
func (p ForumPost) IsTopic() bool {
	return p.Parent == 0
}

// ForumUser is the subset of a Joomla user the notifier cares about.
type ForumUser struct {
	DisplayName string `db:"name"`
	LoginName   string `db:"username"`
}

// NotificationRecord is the normalized content of one Discord notification.
type NotificationRecord struct {
	Author  string
	Subject string
	Content string
	URL     string
}
