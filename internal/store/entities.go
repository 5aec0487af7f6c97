package store

import (
	json "github.com/goccy/go-json"

	"github.com/dgraph-io/badger/v4"

	"github.com/ludwig-forum/ludwig/internal/ludwigerr"
)

// ModState mirrors a post or account's moderation state (§3).
type ModState int

const (
	ModStateVisible ModState = iota
	ModStateFlagged
	ModStateLocked
	ModStateRemoved
)

// NotificationType enumerates the reasons a Notification was created (§3).
type NotificationType int

const (
	NotificationReplyToThread NotificationType = iota
	NotificationReplyToComment
	NotificationMentionInThread
	NotificationMentionInComment
)

// FederationFields are the optional federation attributes shared by User
// and Board (§3). Left zero-valued for local-only entities.
type FederationFields struct {
	InstanceHostID uint64 `json:"instance_host_id,omitempty"`
	ActorURL       string `json:"actor_url,omitempty"`
	InboxURL       string `json:"inbox_url,omitempty"`
	PublicKey      string `json:"public_key,omitempty"`
}

// User is the core account record (§3).
type User struct {
	ID          uint64           `json:"id"`
	Name        string           `json:"name"`
	DisplayName string           `json:"display_name,omitempty"`
	AvatarURL   string           `json:"avatar_url,omitempty"`
	BannerURL   string           `json:"banner_url,omitempty"`
	Bio         string           `json:"bio,omitempty"`
	Bot         bool             `json:"bot,omitempty"`
	CreatedAt   int64            `json:"created_at"`
	Federation  FederationFields `json:"federation,omitempty"`
	DeletedAt   int64            `json:"deleted_at,omitempty"`
	ModState    ModState         `json:"mod_state,omitempty"`
	ModReason   string           `json:"mod_reason,omitempty"`
}

// LocalUser is the extension record for accounts hosted on this instance.
type LocalUser struct {
	UserID               uint64 `json:"user_id"`
	Email                string `json:"email"`
	PasswordHash         []byte `json:"password_hash"`
	PasswordSalt         []byte `json:"password_salt"`
	Approved             bool   `json:"approved,omitempty"`
	Admin                bool   `json:"admin,omitempty"`
	PreferenceBits       uint64 `json:"preference_bits,omitempty"`
	InviteID             uint64 `json:"invite_id,omitempty"`
}

// Board is the core board/community record (§3).
type Board struct {
	ID               uint64           `json:"id"`
	Name             string           `json:"name"`
	DisplayName      string           `json:"display_name,omitempty"`
	IconURL          string           `json:"icon_url,omitempty"`
	BannerURL        string           `json:"banner_url,omitempty"`
	Description      string           `json:"description,omitempty"`
	ContentWarning   string           `json:"content_warning,omitempty"`
	CreatedAt        int64            `json:"created_at"`
	RestrictedPosting bool            `json:"restricted_posting,omitempty"`
	CanUpvote        bool             `json:"can_upvote"`
	CanDownvote      bool             `json:"can_downvote"`
	ApproveSubscribe bool             `json:"approve_subscribe,omitempty"`
	Federation       FederationFields `json:"federation,omitempty"`
	ModState         ModState         `json:"mod_state,omitempty"`
	ModReason        string           `json:"mod_reason,omitempty"`
}

// LocalBoard is the extension record for boards hosted on this instance.
type LocalBoard struct {
	BoardID   uint64 `json:"board_id"`
	OwnerID   uint64 `json:"owner_id"`
	Private   bool   `json:"private,omitempty"`
	Federated bool   `json:"federated,omitempty"`
}

// Thread is a top-level post (§3).
type Thread struct {
	ID             uint64           `json:"id"`
	AuthorID       uint64           `json:"author_id"`
	BoardID        uint64           `json:"board_id"`
	Title          string           `json:"title"`
	CreatedAt      int64            `json:"created_at"`
	UpdatedAt      int64            `json:"updated_at,omitempty"`
	ContentURL     string           `json:"content_url,omitempty"`
	ContentText    string           `json:"content_text,omitempty"`
	ContentWarning string           `json:"content_warning,omitempty"`
	Federation     FederationFields `json:"federation,omitempty"`
	ModState       ModState         `json:"mod_state,omitempty"`
	ModReason      string           `json:"mod_reason,omitempty"`
	Salt           uint32           `json:"salt"`
	LinkCardURL    string           `json:"link_card_url,omitempty"`
}

// Comment is a threaded reply (§3).
type Comment struct {
	ID             uint64           `json:"id"`
	AuthorID       uint64           `json:"author_id"`
	ThreadID       uint64           `json:"thread_id"`
	ParentID       uint64           `json:"parent_id"`
	CreatedAt      int64            `json:"created_at"`
	UpdatedAt      int64            `json:"updated_at,omitempty"`
	Content        string           `json:"content"`
	ContentWarning string           `json:"content_warning,omitempty"`
	Federation     FederationFields `json:"federation,omitempty"`
	ModState       ModState         `json:"mod_state,omitempty"`
	ModReason      string           `json:"mod_reason,omitempty"`
	Salt           uint32           `json:"salt"`
}

// PostStats is the aggregated counters record shared by Thread and
// Comment (§3). The owning namespace is disambiguated by id space, since
// thread and comment ids are both allocated from the same monotonic
// counter and never collide.
type PostStats struct {
	PostID             uint64 `json:"post_id"`
	LatestComment      int64  `json:"latest_comment,omitempty"`
	LatestCommentNecro int64  `json:"latest_comment_necro,omitempty"`
	DescendantCount    uint64 `json:"descendant_count,omitempty"`
	ChildCount         uint64 `json:"child_count,omitempty"`
	Upvotes            uint64 `json:"upvotes,omitempty"`
	Downvotes          uint64 `json:"downvotes,omitempty"`
	Karma              int64  `json:"karma,omitempty"`
}

// UserStats is the aggregated per-user counters record (§3).
type UserStats struct {
	UserID        uint64 `json:"user_id"`
	ThreadCount   uint64 `json:"thread_count,omitempty"`
	CommentCount  uint64 `json:"comment_count,omitempty"`
	ThreadKarma   int64  `json:"thread_karma,omitempty"`
	CommentKarma  int64  `json:"comment_karma,omitempty"`
	LatestPostTime int64 `json:"latest_post_time,omitempty"`
	LatestPostID  uint64 `json:"latest_post_id,omitempty"`
}

// BoardStats is the aggregated per-board counters record (§3).
type BoardStats struct {
	BoardID         uint64 `json:"board_id"`
	ThreadCount     uint64 `json:"thread_count,omitempty"`
	CommentCount    uint64 `json:"comment_count,omitempty"`
	LatestPostTime  int64  `json:"latest_post_time,omitempty"`
	LatestPostID    uint64 `json:"latest_post_id,omitempty"`
	SubscriberCount uint64 `json:"subscriber_count,omitempty"`
}

// SiteStats is the singleton site-wide counters record (§3).
type SiteStats struct {
	UserCount    uint64 `json:"user_count,omitempty"`
	BoardCount   uint64 `json:"board_count,omitempty"`
	ThreadCount  uint64 `json:"thread_count,omitempty"`
	CommentCount uint64 `json:"comment_count,omitempty"`
}

// Session is a logged-in session (§3). Its id is cryptographically random
// rather than sequential, so it cannot be guessed from another session id.
type Session struct {
	ID        uint64 `json:"id"`
	UserID    uint64 `json:"user_id"`
	ClientIP  string `json:"client_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`
	Remember  bool   `json:"remember,omitempty"`
}

// Application is a pending registration application (§3).
type Application struct {
	ID        uint64 `json:"id"`
	UserID    uint64 `json:"user_id"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Text      string `json:"text,omitempty"`
}

// Invite is an invitation token (§3).
type Invite struct {
	ID         uint64 `json:"id"`
	FromUserID uint64 `json:"from_user_id"`
	CreatedAt  int64  `json:"created_at"`
	ExpiresAt  int64  `json:"expires_at"`
	AcceptedAt int64  `json:"accepted_at,omitempty"`
	ToUserID   uint64 `json:"to_user_id,omitempty"`
}

// Notification is a per-user notification record (§3).
type Notification struct {
	ID       uint64           `json:"id"`
	UserID   uint64           `json:"user_id"`
	CreatedAt int64           `json:"created_at"`
	ReadAt   int64            `json:"read_at,omitempty"`
	Type     NotificationType `json:"type"`
	SubjectID uint64          `json:"subject_id"`
}

// LinkCard is a cached preview of an external URL (§3), keyed by url.
type LinkCard struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// --- generic entity payload get/set/delete -------------------------------

// getEntity reads and unmarshals a typed record by id. A missing key
// returns ludwigerr.NotFound; a payload that fails to unmarshal is a
// ludwigerr.CorruptData error, never silently skipped (§4.2: "every read
// validates the payload").
func getEntity[T any](b base, n ns, id uint64, op string) (*T, error) {
	raw, err := b.getRaw(entityKey(n, id))
	if err == badger.ErrKeyNotFound {
		return nil, ludwigerr.New(ludwigerr.NotFound, op, "not found")
	}
	if err != nil {
		return nil, ludwigerr.Wrap(ludwigerr.StorageError, op, err)
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, ludwigerr.Wrap(ludwigerr.CorruptData, op, err)
	}
	return &v, nil
}

func setEntity[T any](w *WriteTxn, n ns, id uint64, v *T, op string) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return ludwigerr.Wrap(ludwigerr.InvalidArgument, op, err)
	}
	if err := w.setRaw(entityKey(n, id), raw); err != nil {
		return ludwigerr.Wrap(ludwigerr.StorageError, op, err)
	}
	return nil
}

func deleteEntity(w *WriteTxn, n ns, id uint64, op string) error {
	if err := w.deleteRaw(entityKey(n, id)); err != nil {
		return ludwigerr.Wrap(ludwigerr.StorageError, op, err)
	}
	return nil
}

// GetUser reads a User by id.
func (r *ReadTxn) GetUser(id uint64) (*User, error) {
	return getEntity[User](r.base, nsUser, id, "store.GetUser")
}

// GetLocalUser reads a LocalUser extension by its owning user id.
func (r *ReadTxn) GetLocalUser(id uint64) (*LocalUser, error) {
	return getEntity[LocalUser](r.base, nsLocalUser, id, "store.GetLocalUser")
}

// GetBoard reads a Board by id.
func (r *ReadTxn) GetBoard(id uint64) (*Board, error) {
	return getEntity[Board](r.base, nsBoard, id, "store.GetBoard")
}

// GetLocalBoard reads a LocalBoard extension by its owning board id.
func (r *ReadTxn) GetLocalBoard(id uint64) (*LocalBoard, error) {
	return getEntity[LocalBoard](r.base, nsLocalBoard, id, "store.GetLocalBoard")
}

// GetThread reads a Thread by id.
func (r *ReadTxn) GetThread(id uint64) (*Thread, error) {
	return getEntity[Thread](r.base, nsThread, id, "store.GetThread")
}

// GetComment reads a Comment by id.
func (r *ReadTxn) GetComment(id uint64) (*Comment, error) {
	return getEntity[Comment](r.base, nsComment, id, "store.GetComment")
}

// GetPostStats reads the PostStats for a thread or comment id.
func (r *ReadTxn) GetPostStats(postID uint64) (*PostStats, error) {
	return getEntity[PostStats](r.base, nsPostStats, postID, "store.GetPostStats")
}

// GetUserStats reads the UserStats for a user id.
func (r *ReadTxn) GetUserStats(userID uint64) (*UserStats, error) {
	return getEntity[UserStats](r.base, nsUserStats, userID, "store.GetUserStats")
}

// GetBoardStats reads the BoardStats for a board id.
func (r *ReadTxn) GetBoardStats(boardID uint64) (*BoardStats, error) {
	return getEntity[BoardStats](r.base, nsBoardStats, boardID, "store.GetBoardStats")
}

// GetSession reads a Session by id.
func (r *ReadTxn) GetSession(id uint64) (*Session, error) {
	return getEntity[Session](r.base, nsSession, id, "store.GetSession")
}

// GetNotification reads a Notification by id.
func (r *ReadTxn) GetNotification(id uint64) (*Notification, error) {
	return getEntity[Notification](r.base, nsNotification, id, "store.GetNotification")
}

// GetInvite reads an Invite by id.
func (r *ReadTxn) GetInvite(id uint64) (*Invite, error) {
	return getEntity[Invite](r.base, nsInvite, id, "store.GetInvite")
}

// GetApplication reads an Application by id.
func (r *ReadTxn) GetApplication(id uint64) (*Application, error) {
	return getEntity[Application](r.base, nsApplication, id, "store.GetApplication")
}

// GetLinkCard reads a LinkCard by its url's hashed key.
func (r *ReadTxn) GetLinkCard(url string) (*LinkCard, error) {
	raw, err := r.getRaw(nameKey(nsLinkCard, r.store.hashSeed, url))
	if err == badger.ErrKeyNotFound {
		return nil, ludwigerr.New(ludwigerr.NotFound, "store.GetLinkCard", "not found")
	}
	if err != nil {
		return nil, ludwigerr.Wrap(ludwigerr.StorageError, "store.GetLinkCard", err)
	}
	var v LinkCard
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, ludwigerr.Wrap(ludwigerr.CorruptData, "store.GetLinkCard", err)
	}
	return &v, nil
}

// putSiteStats and getSiteStats manage the singleton SiteStats record
// under the reserved "site_stats" settings key (§6).
var siteStatsKey = key(nsSettings, []byte("site_stats"))

func (r *ReadTxn) getSiteStats() (*SiteStats, error) {
	raw, err := r.getRaw(siteStatsKey)
	if err == badger.ErrKeyNotFound {
		return &SiteStats{}, nil
	}
	if err != nil {
		return nil, ludwigerr.Wrap(ludwigerr.StorageError, "store.getSiteStats", err)
	}
	var v SiteStats
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, ludwigerr.Wrap(ludwigerr.CorruptData, "store.getSiteStats", err)
	}
	return &v, nil
}

func (w *WriteTxn) putSiteStats(v *SiteStats) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return ludwigerr.Wrap(ludwigerr.InvalidArgument, "store.putSiteStats", err)
	}
	return w.setRaw(siteStatsKey, raw)
}

// GetSiteStats reads the singleton SiteStats record.
func (r *ReadTxn) GetSiteStats() (*SiteStats, error) { return r.getSiteStats() }
