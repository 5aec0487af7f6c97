package store

import (
	json "github.com/goccy/go-json"

	"github.com/dgraph-io/badger/v4"

	"github.com/ludwig-forum/ludwig/internal/ludwigerr"
)

// SetLinkCard upserts the cached preview for url, keyed by its hashed
// name-index key (SUPPLEMENTED FEATURES "Media/LinkCard reference
// counting", grounded on original_source/src/db.c++'s LinkCard_Url dbi).
func (w *WriteTxn) SetLinkCard(lc LinkCard) error {
	raw, err := json.Marshal(&lc)
	if err != nil {
		return ludwigerr.Wrap(ludwigerr.InvalidArgument, "store.SetLinkCard", err)
	}
	return w.setRaw(nameKey(nsLinkCard, w.store.hashSeed, lc.URL), raw)
}

// AttachLinkCardToThread records that threadID references url's link
// card, for refcounting, and stamps the thread's link_card_url field.
func (w *WriteTxn) AttachLinkCardToThread(threadID uint64, url string) error {
	t, err := getEntity[Thread](w.base, nsThread, threadID, "store.AttachLinkCardToThread")
	if err != nil {
		return err
	}
	if t.LinkCardURL == url {
		return nil
	}
	if t.LinkCardURL != "" {
		if err := w.decrefLinkCard(t.LinkCardURL); err != nil {
			return err
		}
	}
	t.LinkCardURL = url
	if err := setEntity(w, nsThread, threadID, t, "store.AttachLinkCardToThread"); err != nil {
		return err
	}
	return w.increfLinkCard(url)
}

func (w *WriteTxn) increfLinkCard(url string) error {
	k := nameKey(nsLinkCardRefcount, w.store.hashSeed, url)
	count := w.readRefcount(k)
	return w.setRaw(k, idBytes(count+1))
}

// decrefLinkCard drops a thread's reference to url's card and deletes the
// cached card once its refcount reaches zero (SUPPLEMENTED FEATURES: no
// garbage collection beyond what explicit delete paths prescribe, per
// spec.md §1 Non-goals).
func (w *WriteTxn) decrefLinkCard(url string) error {
	k := nameKey(nsLinkCardRefcount, w.store.hashSeed, url)
	count := w.readRefcount(k)
	if count <= 1 {
		if err := w.deleteRaw(k); err != nil {
			return err
		}
		return w.deleteRaw(nameKey(nsLinkCard, w.store.hashSeed, url))
	}
	return w.setRaw(k, idBytes(count-1))
}

func (w *WriteTxn) readRefcount(k []byte) uint64 {
	raw, err := w.getRaw(k)
	if err != nil {
		return 0
	}
	return decodeUint64(raw)
}

// GetLinkCardRefcount reports how many threads currently reference url's
// card, for tests and diagnostics.
func (r *ReadTxn) GetLinkCardRefcount(url string) uint64 {
	raw, err := r.getRaw(nameKey(nsLinkCardRefcount, r.store.hashSeed, url))
	if err == badger.ErrKeyNotFound || err != nil {
		return 0
	}
	return decodeUint64(raw)
}
