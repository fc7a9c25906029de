package models

import "encoding/json"

// EntryKind is the type tag of a raw timeline record.
type EntryKind string

const (
	EntryPost      EntryKind = "post"
	EntryPhoto     EntryKind = "photo"
	EntryPhotoTag  EntryKind = "photo_tag"
	EntryWallPhoto EntryKind = "wall_photo"
	EntryFriend    EntryKind = "friend"
	EntryNote      EntryKind = "note"
)

// SpanKind is the type tag of a positional text annotation.
type SpanKind string

const (
	SpanLink    SpanKind = "link"
	SpanMention SpanKind = "mention"
	SpanHashtag SpanKind = "hashtag"
	SpanMedia   SpanKind = "media"
)

// AttachmentKind is the type tag of a structured non-text object
// attached to an entry.
type AttachmentKind string

const (
	AttachmentDoc         AttachmentKind = "doc"
	AttachmentNote        AttachmentKind = "note"
	AttachmentPage        AttachmentKind = "page"
	AttachmentPoll        AttachmentKind = "poll"
	AttachmentPostedPhoto AttachmentKind = "posted_photo"
	AttachmentPhoto       AttachmentKind = "photo"
	AttachmentGraffiti    AttachmentKind = "graffiti"
	AttachmentApp         AttachmentKind = "app"
	AttachmentVideo       AttachmentKind = "video"
	AttachmentLink        AttachmentKind = "link"
	AttachmentAudio       AttachmentKind = "audio"
)

// Span annotates the half-open byte range [Start, End) of an entry's text.
// Which of the payload fields are set depends on the kind.
type Span struct {
	Kind  SpanKind
	Start int
	End   int

	URL      string // link target
	Text     string // display text, defaults to the annotated slice
	UserID   int64  // mention target, negative for groups
	Name     string // mention display name
	ImageSrc string // media thumbnail
}

// Attachment is one structured object attached to an entry. The field set
// is the union over all attachment kinds; each kind reads its own subset.
type Attachment struct {
	Kind AttachmentKind

	OwnerID     int64
	ID          int64
	AppID       int64
	Src         string
	SrcBig      string
	URL         string
	Title       string
	Description string
	ImageSrc    string
	Image       string
	Performer   string
	Duration    int64
	Question    string
}

// Photo is one photo of a photo/photo_tag/wall_photo entry.
type Photo struct {
	OwnerID int64
	ID      int64
	Src     string
	SrcBig  string
}

// Friend references a newly added friend.
type Friend struct {
	UserID int64
}

// Note references a published note.
type Note struct {
	OwnerID int64
	ID      int64
	Title   string
}

// Entry is one raw timeline record, immutable for a transformation pass.
type Entry struct {
	SourceID int64
	Kind     EntryKind
	Date     int64
	PostID   int64

	Text        string
	Spans       []Span
	Attachments []Attachment
	HasGeo      bool

	// The provider reports how many objects an entry carries in total next
	// to a possibly truncated list of them.
	PhotoTotal  int
	Photos      []Photo
	FriendTotal int
	Friends     []Friend
	NoteTotal   int
	Notes       []Note

	CopyOwnerID *int64
	CopyPostID  *int64
	CopyText    string

	// Raw keeps the original wire record for failure diagnostics.
	Raw json.RawMessage
}

// UserInfo describes a feed author: a user (positive id) or a group
// (negative id).
type UserInfo struct {
	ID    int64
	Name  string
	Photo string
}

// Timeline is a validated raw provider response.
type Timeline struct {
	Entries []Entry
	Users   map[int64]UserInfo
}

// FeedItem is one fully rendered feed entry. Text is well-formed HTML with
// all user-supplied text escaped; Title and Author are HTML-safe strings.
type FeedItem struct {
	ID         string
	Time       int64
	Title      string
	URL        string
	Text       string
	Categories map[string]struct{}
	Author     string
}

// Feed is the assembled output, serialized once and discarded.
type Feed struct {
	Title       string
	URL         string
	Image       string
	Description string
	Items       []FeedItem
}
