package store

import "encoding/binary"

// Badger has no notion of LMDB's MDB_DUPSORT dbis (the original Ludwig's
// per-Dbi duplicate-key multimaps, see SPEC_FULL "Per-dbi enum layout").
// Ludwig reproduces the same sorted-multimap semantics by concatenating
// the sort-key Cursor bytes with the big-endian entity id into a single
// Badger key; the id both disambiguates entries that share a sort key and
// acts as the documented "descending by id" tiebreaker (§4.5, §4.6).
//
// Every namespace below corresponds 1:1 to one secondary index or entity
// table named in §4.2/§4.3 and to the original implementation's Dbi enum.
type ns byte

const (
	nsSettings ns = iota

	nsUser
	nsUserName
	nsUserStats
	nsLocalUser
	nsLocalUserEmail
	nsOwnerUserBoard // subscribed boards, keyed (user, board)
	nsOwnerBoardUser // reverse: board subscribers, keyed (board, user)
	nsOwnerUserThread
	nsOwnerUserComment
	nsBookmarkUserPost // saved posts
	nsHiddenUserPost
	nsHiddenUserUser
	nsHiddenUserBoard

	nsUsersNew
	nsUsersNewPosts
	nsUsersMostPosts

	nsBoard
	nsBoardName
	nsBoardStats
	nsLocalBoard

	nsBoardsNew
	nsBoardsNewPosts
	nsBoardsMostPosts
	nsBoardsMostSubscribers
	nsThreadsByDomain

	nsThread
	nsComment
	nsPostStats // shared namespace for thread and comment stats, disambiguated by id space

	nsThreadsNew
	nsThreadsTop
	nsThreadsMostComments
	nsThreadsOfBoardNew
	nsThreadsOfBoardTop
	nsThreadsOfBoardMostComments
	nsThreadsOfUserNew
	nsThreadsOfUserTop

	nsCommentsNew
	nsCommentsTop
	nsCommentsMostComments
	nsCommentsOfBoardNew
	nsCommentsOfBoardTop
	nsCommentsOfBoardMostComments
	nsCommentsOfUserNew
	nsCommentsOfUserTop
	nsChildrenOfParent // ordered children for a given comment/thread parent
	nsChildrenNew
	nsChildrenTop

	nsVoteUserPost
	nsVotePostUser

	nsSession
	nsSessionByUser
	nsNotification
	nsNotificationByUser
	nsInvite
	nsApplication

	nsLinkCard
	nsLinkCardRefcount
	nsMediaContainsPost

	nsDumpCursor // internal bookkeeping for resumable dump/restore
)

// key builds a namespaced Badger key: one prefix byte followed by the
// caller-supplied suffix. A single byte is enough for the fixed, known-at
// -compile-time set of namespaces above.
func key(n ns, suffix []byte) []byte {
	b := make([]byte, 1+len(suffix))
	b[0] = byte(n)
	copy(b[1:], suffix)
	return b
}

func idBytes(id uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return b
}

// entityKey builds the primary-record key for a 64-bit id within a
// namespace, e.g. nsThread + id.
func entityKey(n ns, id uint64) []byte {
	return key(n, idBytes(id))
}

// indexKey builds a secondary-index key: the sort Cursor followed by the
// referenced entity id, giving a total order of (sort fields..., id) that
// Badger's own byte-lex key order then iterates correctly (§4.1, §4.3).
func indexKey(n ns, sortKey Cursor, id uint64) []byte {
	sb := sortKey.Bytes()
	b := make([]byte, 1+len(sb)+8)
	b[0] = byte(n)
	copy(b[1:], sb)
	binary.BigEndian.PutUint64(b[1+len(sb):], id)
	return b
}

// indexPrefix builds the scan prefix for every entry whose sort key
// begins with the given Cursor — used to bound per-board/per-user/per
// -parent range scans (§4.3: "threads_of_board_new keyed by
// (board_id, created_at)" iterates with prefix = board_id).
func indexPrefix(n ns, scope Cursor) []byte {
	return key(n, scope.Bytes())
}

// indexEntryID extracts the trailing 8-byte entity id from a full index
// key produced by indexKey: the id is always the key's last 8 bytes.
func indexEntryID(fullKey []byte) uint64 {
	return binary.BigEndian.Uint64(fullKey[len(fullKey)-8:])
}

// nameKey builds a hash-seeded fixed-width key for a name/email lookup
// namespace (SPEC_FULL "Hash-seeded name indexes").
func nameKey(n ns, seed uint64, name string) []byte {
	return key(n, idBytes(hashSeed64(seed, name)))
}
