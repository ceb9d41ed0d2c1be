// Package archive reads the Telegram macOS App Store client's local message
// archive: it unwraps the database key, exports the SQLCipher store to a
// plaintext copy, and answers chat and message queries by decoding the
// Postbox blobs stored in it. The store is treated as read-only; each Store
// instance owns its own plaintext copy and peer cache.
package archive

import (
	"context"
	"database/sql"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/tgarchive/pkg/postbox"
)

// Postbox table names. t0 is a misc key/value table consumed by other tools;
// this reader only touches the peer and message tables.
const (
	peerTable    = "t2"
	messageTable = "t7"
)

// Store is the archive facade. The decrypt pipeline runs lazily on the first
// query and at most once per instance; resolved peers are cached for the
// instance's lifetime.
type Store struct {
	paths        Paths
	available    bool
	passphrase   string
	sqlcipherBin string

	db            *sql.DB
	plaintextPath string
	peers         map[int64]postbox.Peer
}

// Option configures a Store.
type Option func(*Store)

// WithContainerRoot overrides the Telegram group container location.
func WithContainerRoot(root string) Option {
	return func(s *Store) {
		s.paths, s.available = Locate(root)
	}
}

// WithPassphrase overrides the key-wrapping passphrase.
func WithPassphrase(passphrase string) Option {
	return func(s *Store) { s.passphrase = passphrase }
}

// WithSQLCipherBinary overrides the sqlcipher executable used for the
// plaintext export.
func WithSQLCipherBinary(bin string) Option {
	return func(s *Store) { s.sqlcipherBin = bin }
}

// NewStore locates the archive's source files but opens nothing; the first
// query triggers key derivation and decryption. Callers must Close the store
// to delete the plaintext copy.
func NewStore(opts ...Option) *Store {
	s := &Store{
		passphrase:   DefaultPassphrase,
		sqlcipherBin: DefaultSQLCipherBinary,
		peers:        map[int64]postbox.Peer{},
	}
	s.paths, s.available = Locate("")
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Available reports whether the source database and key file exist. It does
// not attempt decryption.
func (s *Store) Available() bool {
	return s.available
}

// ensureOpen runs the decrypt pipeline once: read and unwrap the key, export
// the plaintext copy, open it.
func (s *Store) ensureOpen(ctx context.Context) error {
	if s.db != nil {
		return nil
	}
	if !s.available {
		return ErrUnavailable
	}

	wrapped, err := os.ReadFile(s.paths.Key)
	if err != nil {
		return errors.Wrap(err, "read wrapped key file")
	}
	key, err := DeriveKey(wrapped, s.passphrase)
	if err != nil {
		return err
	}

	plaintextPath, err := exportPlaintext(ctx, s.sqlcipherBin, s.paths.Database, key)
	if err != nil {
		return err
	}

	db, err := sql.Open("sqlite3", plaintextPath)
	if err != nil {
		_ = os.Remove(plaintextPath)
		return errors.Wrap(err, "open plaintext store")
	}

	s.db = db
	s.plaintextPath = plaintextPath
	log.Debug().Str("path", plaintextPath).Msg("archive opened")
	return nil
}

// Close releases the store handle and deletes the plaintext copy. Idempotent.
func (s *Store) Close() error {
	var err error
	if s.db != nil {
		err = s.db.Close()
		s.db = nil
	}
	if s.plaintextPath != "" {
		if rmErr := os.Remove(s.plaintextPath); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
			err = errors.Wrap(rmErr, "remove plaintext copy")
		}
		s.plaintextPath = ""
	}
	return err
}

// getPeer resolves a peer id through the cache, falling back to a t2 lookup.
// Unknown and unparsable peers cache as all-empty rather than failing.
func (s *Store) getPeer(ctx context.Context, peerID int64) postbox.Peer {
	if p, ok := s.peers[peerID]; ok {
		return p
	}

	var blob []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM "+peerTable+" WHERE key = ? LIMIT 1", peerID,
	).Scan(&blob)

	var peer postbox.Peer
	if err == nil {
		peer = postbox.ParsePeer(blob)
	} else if !errors.Is(err, sql.ErrNoRows) {
		log.Warn().Err(err).Int64("peer_id", peerID).Msg("peer lookup failed")
	}
	s.peers[peerID] = peer
	return peer
}

// senderName resolves who wrote a message: the author peer's display name for
// incoming messages (falling back to the chat peer when no author id is
// recorded), "Me" otherwise.
func (s *Store) senderName(ctx context.Context, msg postbox.Message, chatPeerID int64) string {
	if !msg.Incoming {
		return "Me"
	}
	authorID := chatPeerID
	if msg.HasAuthor && msg.AuthorID != 0 {
		authorID = msg.AuthorID
	}
	return s.getPeer(ctx, authorID).DisplayName()
}

// RecentChats lists the peers with the newest messages, most recent first.
// It scans every message key and keeps the maximum timestamp per peer.
func (s *Store) RecentChats(ctx context.Context, limit int) ([]ChatSummary, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT key FROM "+messageTable)
	if err != nil {
		return nil, errors.Wrap(err, "scan message keys")
	}
	defer func() { _ = rows.Close() }()

	latest := map[int64]int32{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.Wrap(err, "scan message key")
		}
		key, err := postbox.ParseMessageKey(raw)
		if err != nil {
			continue
		}
		if ts, ok := latest[key.PeerID]; !ok || key.Timestamp > ts {
			latest[key.PeerID] = key.Timestamp
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate message keys")
	}

	peerIDs := make([]int64, 0, len(latest))
	for id := range latest {
		peerIDs = append(peerIDs, id)
	}
	sort.Slice(peerIDs, func(i, j int) bool {
		if latest[peerIDs[i]] != latest[peerIDs[j]] {
			return latest[peerIDs[i]] > latest[peerIDs[j]]
		}
		return peerIDs[i] < peerIDs[j]
	})
	if limit > 0 && len(peerIDs) > limit {
		peerIDs = peerIDs[:limit]
	}

	chats := make([]ChatSummary, 0, len(peerIDs))
	for _, id := range peerIDs {
		peer := s.getPeer(ctx, id)
		chats = append(chats, ChatSummary{
			PeerID:      id,
			Name:        peer.DisplayName(),
			Username:    peer.Username,
			Phone:       peer.Phone,
			LastMessage: time.Unix(int64(latest[id]), 0),
		})
	}
	return chats, nil
}

// FindChats matches peers by case-insensitive substring over display name,
// username and phone, or by digit-only phone comparison. Results come back in
// table scan order.
func (s *Store) FindChats(ctx context.Context, query string) ([]ChatSummary, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	queryDigits := digitsOnly(query)

	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM "+peerTable)
	if err != nil {
		return nil, errors.Wrap(err, "scan peers")
	}
	defer func() { _ = rows.Close() }()

	var results []ChatSummary
	for rows.Next() {
		var peerID int64
		var blob []byte
		if err := rows.Scan(&peerID, &blob); err != nil {
			return nil, errors.Wrap(err, "scan peer row")
		}
		peer := postbox.ParsePeer(blob)
		s.peers[peerID] = peer

		name := peer.DisplayName()
		searchable := strings.ToLower(name + " " + peer.Username + " " + peer.Phone)
		phoneDigits := digitsOnly(peer.Phone)
		if !strings.Contains(searchable, queryLower) &&
			(queryDigits == "" || !strings.Contains(phoneDigits, queryDigits)) {
			continue
		}
		results = append(results, ChatSummary{
			PeerID:   peerID,
			Name:     name,
			Username: peer.Username,
			Phone:    peer.Phone,
		})
	}
	return results, rows.Err()
}

// FindPeerByPhone returns the first peer whose phone digits contain the
// query's digits, or ErrNotFound.
func (s *Store) FindPeerByPhone(ctx context.Context, phone string) (int64, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return 0, err
	}

	digits := digitsOnly(phone)
	if digits == "" {
		return 0, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM "+peerTable)
	if err != nil {
		return 0, errors.Wrap(err, "scan peers")
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var peerID int64
		var blob []byte
		if err := rows.Scan(&peerID, &blob); err != nil {
			return 0, errors.Wrap(err, "scan peer row")
		}
		peer := postbox.ParsePeer(blob)
		s.peers[peerID] = peer
		if peerDigits := digitsOnly(peer.Phone); peerDigits != "" && strings.Contains(peerDigits, digits) {
			return peerID, nil
		}
	}
	if err := rows.Err(); err != nil {
		return 0, errors.Wrap(err, "iterate peers")
	}
	return 0, ErrNotFound
}

// ResolveIdentifier turns a peer id, phone number or name into a peer id.
// All-digit input above 100000 is taken as a peer id directly, without a
// table scan; anything containing a digit tries a phone lookup first.
func (s *Store) ResolveIdentifier(ctx context.Context, identifier string) (int64, error) {
	trimmed := strings.TrimSpace(identifier)

	if isAllDigits(trimmed) {
		if id, err := strconv.ParseInt(trimmed, 10, 64); err == nil && id > 100000 {
			return id, nil
		}
	}

	if strings.ContainsAny(trimmed, "0123456789") {
		if id, err := s.FindPeerByPhone(ctx, trimmed); err == nil {
			return id, nil
		} else if !errors.Is(err, ErrNotFound) {
			return 0, err
		}
	}

	matches, err := s.FindChats(ctx, trimmed)
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, ErrNotFound
	}
	return matches[0].PeerID, nil
}

// ReadMessages returns up to limit messages of one chat, newest first. The
// peer-id prefix of the big-endian key selects the chat; descending key order
// is descending (timestamp, id) order. Unparsable and empty-text records are
// dropped.
func (s *Store) ReadMessages(ctx context.Context, peerID int64, limit int) ([]MessageRecord, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value FROM "+messageTable+" WHERE substr(key, 1, 8) = ? ORDER BY key DESC LIMIT ?",
		postbox.KeyPrefix(peerID), limit)
	if err != nil {
		return nil, errors.Wrap(err, "scan chat messages")
	}
	defer func() { _ = rows.Close() }()

	var messages []MessageRecord
	for rows.Next() {
		var rawKey, blob []byte
		if err := rows.Scan(&rawKey, &blob); err != nil {
			return nil, errors.Wrap(err, "scan message row")
		}
		key, err := postbox.ParseMessageKey(rawKey)
		if err != nil {
			continue
		}
		msg, ok := postbox.ParseMessage(blob)
		if !ok || msg.Text == "" {
			continue
		}
		messages = append(messages, MessageRecord{
			Timestamp: time.Unix(int64(key.Timestamp), 0),
			Sender:    s.senderName(ctx, msg, key.PeerID),
			Text:      msg.Text,
			PeerID:    key.PeerID,
			MessageID: key.ID,
		})
	}
	return messages, rows.Err()
}

// SearchMessages scans all messages newest-first for a case-insensitive text
// substring and stops once limit matches are collected. A record that fails
// to parse is skipped, never fatal.
func (s *Store) SearchMessages(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)

	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value FROM "+messageTable+" ORDER BY key DESC")
	if err != nil {
		return nil, errors.Wrap(err, "scan messages")
	}
	defer func() { _ = rows.Close() }()

	var hits []SearchHit
	for rows.Next() {
		if limit > 0 && len(hits) >= limit {
			break
		}
		var rawKey, blob []byte
		if err := rows.Scan(&rawKey, &blob); err != nil {
			return nil, errors.Wrap(err, "scan message row")
		}
		msg, ok := postbox.ParseMessage(blob)
		if !ok || msg.Text == "" {
			continue
		}
		if !strings.Contains(strings.ToLower(msg.Text), queryLower) {
			continue
		}
		key, err := postbox.ParseMessageKey(rawKey)
		if err != nil {
			continue
		}
		hits = append(hits, SearchHit{
			Timestamp: time.Unix(int64(key.Timestamp), 0),
			ChatName:  s.getPeer(ctx, key.PeerID).DisplayName(),
			Sender:    s.senderName(ctx, msg, key.PeerID),
			Text:      msg.Text,
			PeerID:    key.PeerID,
		})
	}
	return hits, rows.Err()
}

// AllMessages returns every parsable message with a timestamp at or after
// since, oldest first. Intended for bulk export.
func (s *Store) AllMessages(ctx context.Context, since int64) ([]ExportedMessage, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value FROM "+messageTable+" ORDER BY key ASC")
	if err != nil {
		return nil, errors.Wrap(err, "scan messages")
	}
	defer func() { _ = rows.Close() }()

	var messages []ExportedMessage
	for rows.Next() {
		var rawKey, blob []byte
		if err := rows.Scan(&rawKey, &blob); err != nil {
			return nil, errors.Wrap(err, "scan message row")
		}
		key, err := postbox.ParseMessageKey(rawKey)
		if err != nil || int64(key.Timestamp) < since {
			continue
		}
		msg, ok := postbox.ParseMessage(blob)
		if !ok {
			continue
		}
		exported := ExportedMessage{
			PeerID:    key.PeerID,
			PeerName:  s.getPeer(ctx, key.PeerID).DisplayName(),
			MessageID: key.ID,
			Timestamp: int64(key.Timestamp),
			Text:      msg.Text,
			FromMe:    !msg.Incoming,
		}
		if msg.Incoming {
			exported.SenderName = s.senderName(ctx, msg, key.PeerID)
		}
		messages = append(messages, exported)
	}
	return messages, rows.Err()
}

// Stats counts messages and peers.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return Stats{}, err
	}

	var stats Stats
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+messageTable).Scan(&stats.Messages); err != nil {
		return Stats{}, errors.Wrap(err, "count messages")
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+peerTable).Scan(&stats.Peers); err != nil {
		return Stats{}, errors.Wrap(err, "count peers")
	}
	return stats, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
