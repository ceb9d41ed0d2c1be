package archive

import "time"

// ChatSummary is one entry in a chat listing.
type ChatSummary struct {
	PeerID      int64     `json:"peer_id" yaml:"peer_id"`
	Name        string    `json:"name" yaml:"name"`
	Username    string    `json:"username,omitempty" yaml:"username,omitempty"`
	Phone       string    `json:"phone,omitempty" yaml:"phone,omitempty"`
	LastMessage time.Time `json:"last_message,omitempty" yaml:"last_message,omitempty"`
}

// MessageRecord is one message read from a single chat.
type MessageRecord struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Sender    string    `json:"sender" yaml:"sender"`
	Text      string    `json:"text" yaml:"text"`
	PeerID    int64     `json:"peer_id" yaml:"peer_id"`
	MessageID int32     `json:"message_id" yaml:"message_id"`
}

// SearchHit is one match from a cross-chat text search.
type SearchHit struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	ChatName  string    `json:"chat_name" yaml:"chat_name"`
	Sender    string    `json:"sender" yaml:"sender"`
	Text      string    `json:"text" yaml:"text"`
	PeerID    int64     `json:"peer_id" yaml:"peer_id"`
}

// ExportedMessage is the bulk-export row shape.
type ExportedMessage struct {
	PeerID     int64  `json:"peer_id" yaml:"peer_id"`
	PeerName   string `json:"peer_name" yaml:"peer_name"`
	MessageID  int32  `json:"message_id" yaml:"message_id"`
	Timestamp  int64  `json:"timestamp" yaml:"timestamp"`
	Text       string `json:"text" yaml:"text"`
	FromMe     bool   `json:"is_from_me" yaml:"is_from_me"`
	SenderName string `json:"sender_name,omitempty" yaml:"sender_name,omitempty"`
}

// Stats counts the two tables the reader consumes.
type Stats struct {
	Messages int64 `json:"messages" yaml:"messages"`
	Peers    int64 `json:"peers" yaml:"peers"`
}
