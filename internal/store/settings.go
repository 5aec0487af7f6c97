package store

import (
	json "github.com/goccy/go-json"

	"github.com/dgraph-io/badger/v4"

	"github.com/ludwig-forum/ludwig/internal/ludwigerr"
)

// settingsKey is the reserved settings-table key holding the singleton
// Settings record (§6 "Reserved settings keys"). Internal bookkeeping keys
// that need their own raw encoding (next_id, hash_seed, site_stats) live
// under their own dedicated keys instead; Settings covers everything an
// admin can read or change.
var settingsKey = key(nsSettings, []byte("settings"))

// Settings is the site-wide configuration record, covering every
// admin-facing reserved settings key from §6 except the ones with their
// own dedicated storage (next_id, hash_seed, site_stats).
type Settings struct {
	BaseURL     string `json:"base_url"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url"`
	BannerURL   string `json:"banner_url"`

	PostMaxLength int    `json:"post_max_length"`
	HomePageType  string `json:"home_page_type"`

	VotesEnabled             bool `json:"votes_enabled"`
	DownvotesEnabled         bool `json:"downvotes_enabled"`
	CWsEnabled               bool `json:"cws_enabled"`
	BoardCreationAdminOnly   bool `json:"board_creation_admin_only"`
	RegistrationEnabled      bool `json:"registration_enabled"`
	RegistrationAppRequired  bool `json:"registration_application_required"`
	RegistrationInviteReqd   bool `json:"registration_invite_required"`
	InviteAdminOnly          bool `json:"invite_admin_only"`
	ApplicationQuestion      string `json:"application_question"`
	SetupDone                bool `json:"setup_done"`

	InfiniteScrollEnabled bool `json:"infinite_scroll_enabled"`
	JavascriptEnabled     bool `json:"javascript_enabled"`
	ColorAccent           string `json:"color_accent"`
	ColorAccentDim        string `json:"color_accent_dim"`
	ColorAccentHover      string `json:"color_accent_hover"`

	// Admins is the packed list of admin user ids (§6 "admins (packed id
	// array)").
	Admins []uint64 `json:"admins"`

	// JWTSecret, PublicKey, PrivateKey back instance auth tokens and
	// ActivityPub signing; out of this core's scope to generate or use,
	// but carried through so dump/restore round-trips them intact.
	JWTSecret  []byte `json:"jwt_secret,omitempty"`
	PublicKey  []byte `json:"public_key,omitempty"`
	PrivateKey []byte `json:"private_key,omitempty"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// defaultSettings match the conservative defaults a freshly bootstrapped
// instance ships with, mirroring the original implementation's first-run
// site_stats/settings bootstrap.
func defaultSettings(now int64) *Settings {
	return &Settings{
		PostMaxLength:       50_000,
		HomePageType:        "Local",
		VotesEnabled:        true,
		DownvotesEnabled:    true,
		CWsEnabled:          true,
		RegistrationEnabled: true,
		InfiniteScrollEnabled: true,
		JavascriptEnabled:   true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// GetSettings reads the singleton Settings record, synthesizing
// conservative defaults if the instance has not been bootstrapped yet.
func (r *ReadTxn) GetSettings() (*Settings, error) {
	raw, err := r.getRaw(settingsKey)
	if err == badger.ErrKeyNotFound {
		return defaultSettings(0), nil
	}
	if err != nil {
		return nil, ludwigerr.Wrap(ludwigerr.StorageError, "store.GetSettings", err)
	}
	var s Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, ludwigerr.Wrap(ludwigerr.CorruptData, "store.GetSettings", err)
	}
	return &s, nil
}

// PutSettings overwrites the singleton Settings record.
func (w *WriteTxn) PutSettings(s *Settings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return ludwigerr.Wrap(ludwigerr.InvalidArgument, "store.PutSettings", err)
	}
	return w.setRaw(settingsKey, raw)
}

// UpdateSettings loads the current Settings, applies fn, stamps
// updated_at, and writes the result back (load-mutate-write, same shape
// as the stats rollup helpers).
func (w *WriteTxn) UpdateSettings(now int64, fn func(*Settings)) (*Settings, error) {
	r := &ReadTxn{base: w.base}
	cur, err := r.GetSettings()
	if err != nil {
		return nil, err
	}
	fn(cur)
	cur.UpdatedAt = now
	if err := w.PutSettings(cur); err != nil {
		return nil, err
	}
	return cur, nil
}

// IsAdmin reports whether userID appears in the admins list.
func (s *Settings) IsAdmin(userID uint64) bool {
	for _, id := range s.Admins {
		if id == userID {
			return true
		}
	}
	return false
}
