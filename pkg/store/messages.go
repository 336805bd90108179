package store

import (
	"sort"

	"blog-ask-client/internal/dto"
)

// MergeMode selects how an incoming message page combines with the
// already-held messages of a session.
type MergeMode int

const (
	// MergeReplace discards existing messages and takes the incoming page.
	MergeReplace MergeMode = iota
	// MergeAppend combines existing then incoming.
	MergeAppend
	// MergePrepend combines incoming then existing.
	MergePrepend
)

// LoadState tracks one session's message set through its fetch lifecycle.
// Errors move a loading state back to StateLoaded with the error string
// attached; previously loaded data is never discarded by a failed fetch.
type LoadState int

const (
	StateUnloaded LoadState = iota
	StateLoading
	StateLoaded
	StateLoadingMore
)

// MessageSet holds the fetched history of one session, keyed by session id
// in the store so a superseded fetch can never bleed into another
// session's state.
type MessageSet struct {
	State      LoadState
	Messages   []dto.ChatSessionMessage
	NextCursor *string
	HasMore    bool
	Error      string
}

// mergeMessages reconciles overlapping, possibly out-of-order pages into a
// single consistent view:
//
//  1. build the combined sequence per mode,
//  2. reduce it into an insertion-ordered map keyed by message id where a
//     later entry overwrites an earlier one (last write wins),
//  3. sort the survivors ascending by created_at.
//
// The sort is stable, so messages sharing a created_at keep the reduce
// order deterministically. Merging the same page twice is idempotent.
func mergeMessages(existing, incoming []dto.ChatSessionMessage, mode MergeMode) []dto.ChatSessionMessage {
	var combined []dto.ChatSessionMessage
	switch mode {
	case MergeReplace:
		combined = incoming
	case MergeAppend:
		combined = append(append([]dto.ChatSessionMessage{}, existing...), incoming...)
	case MergePrepend:
		combined = append(append([]dto.ChatSessionMessage{}, incoming...), existing...)
	}

	index := make(map[int64]int, len(combined))
	merged := make([]dto.ChatSessionMessage, 0, len(combined))
	for _, msg := range combined {
		if at, seen := index[msg.ID]; seen {
			merged[at] = msg
			continue
		}
		index[msg.ID] = len(merged)
		merged = append(merged, msg)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.Before(merged[j].CreatedAt)
	})
	return merged
}
