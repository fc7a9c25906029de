package vk

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"vkrss/models"
)

const vkURL = "https://vk.com/"

// ParseTimeline validates the top-level structure of a raw newsfeed
// response and converts it into the shared timeline model. A response
// without the item list or the profile/group tables is rejected as a
// whole; a single malformed item is not. It is passed through as a bare
// entry so the feed builder can substitute a placeholder for it.
func ParseTimeline(raw json.RawMessage) (*models.Timeline, error) {
	var resp struct {
		Items    []json.RawMessage `json:"items"`
		Profiles []wireProfile     `json:"profiles"`
		Groups   []wireGroup       `json:"groups"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("malformed newsfeed response: %w", err)
	}
	if resp.Items == nil || resp.Profiles == nil || resp.Groups == nil {
		return nil, fmt.Errorf("newsfeed response is missing items, profiles or groups")
	}

	users := make(map[int64]models.UserInfo, len(resp.Profiles)+len(resp.Groups))
	for _, profile := range resp.Profiles {
		users[profile.UID] = models.UserInfo{
			ID:    profile.UID,
			Name:  profile.FirstName + " " + profile.LastName,
			Photo: profile.Photo,
		}
	}
	for _, group := range resp.Groups {
		users[-group.GID] = models.UserInfo{
			ID:    -group.GID,
			Name:  group.Name,
			Photo: group.Photo,
		}
	}

	entries := make([]models.Entry, 0, len(resp.Items))
	for _, rawItem := range resp.Items {
		var item wireItem
		if err := json.Unmarshal(rawItem, &item); err != nil {
			log.WithFields(log.Fields{
				"error": err,
				"item":  string(rawItem),
			}).Error("Failed to decode news feed item")
			entries = append(entries, models.Entry{Raw: rawItem})
			continue
		}
		entries = append(entries, item.toEntry(rawItem))
	}

	return &models.Timeline{Entries: entries, Users: users}, nil
}

type wireProfile struct {
	UID       int64  `json:"uid"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Photo     string `json:"photo"`
}

type wireGroup struct {
	GID   int64  `json:"gid"`
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

type wireItem struct {
	Type        string            `json:"type"`
	SourceID    int64             `json:"source_id"`
	Date        int64             `json:"date"`
	PostID      int64             `json:"post_id"`
	Text        string            `json:"text"`
	Attachments []wireAttachment  `json:"attachments"`
	Geo         json.RawMessage   `json:"geo"`
	Photos      []json.RawMessage `json:"photos"`
	PhotoTags   []json.RawMessage `json:"photo_tags"`
	Friends     []json.RawMessage `json:"friends"`
	Notes       []json.RawMessage `json:"notes"`
	CopyOwnerID *int64            `json:"copy_owner_id"`
	CopyPostID  *int64            `json:"copy_post_id"`
	CopyText    string            `json:"copy_text"`
}

type wirePhoto struct {
	OwnerID int64  `json:"owner_id"`
	PID     int64  `json:"pid"`
	Src     string `json:"src"`
	SrcBig  string `json:"src_big"`
}

type wireFriend struct {
	UID int64 `json:"uid"`
}

type wireNote struct {
	OwnerID int64  `json:"owner_id"`
	NID     int64  `json:"nid"`
	Title   string `json:"title"`
}

type wireAttachment struct {
	Type        string         `json:"type"`
	Photo       *wirePhotoInfo `json:"photo"`
	PostedPhoto *wirePhotoInfo `json:"posted_photo"`
	Graffiti    *wireGraffiti  `json:"graffiti"`
	App         *wireApp       `json:"app"`
	Link        *wireLinkInfo  `json:"link"`
	Audio       *wireAudio     `json:"audio"`
	Video       *wireVideo     `json:"video"`
	Doc         *wireTitled    `json:"doc"`
	Note        *wireTitled    `json:"note"`
	Page        *wireTitled    `json:"page"`
	Poll        *wirePoll      `json:"poll"`
}

type wirePhotoInfo struct {
	OwnerID int64  `json:"owner_id"`
	PID     int64  `json:"pid"`
	Src     string `json:"src"`
	SrcBig  string `json:"src_big"`
}

type wireGraffiti struct {
	GID    int64  `json:"gid"`
	Src    string `json:"src"`
	SrcBig string `json:"src_big"`
}

type wireApp struct {
	AppID  int64  `json:"app_id"`
	Src    string `json:"src"`
	SrcBig string `json:"src_big"`
}

type wireLinkInfo struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageSrc    string `json:"image_src"`
}

type wireAudio struct {
	Performer string `json:"performer"`
	Title     string `json:"title"`
	Duration  int64  `json:"duration"`
}

type wireVideo struct {
	OwnerID  int64  `json:"owner_id"`
	VID      int64  `json:"vid"`
	Title    string `json:"title"`
	Duration int64  `json:"duration"`
	Image    string `json:"image"`
}

type wireTitled struct {
	Title string `json:"title"`
}

type wirePoll struct {
	Question string `json:"question"`
}

func (item *wireItem) toEntry(raw json.RawMessage) models.Entry {
	text := normalizeText(item.Text)

	entry := models.Entry{
		SourceID:    item.SourceID,
		Kind:        models.EntryKind(item.Type),
		Date:        item.Date,
		PostID:      item.PostID,
		Text:        text,
		Spans:       extractSpans(text),
		HasGeo:      item.Geo != nil,
		CopyOwnerID: item.CopyOwnerID,
		CopyPostID:  item.CopyPostID,
		CopyText:    item.CopyText,
		Raw:         raw,
	}

	for _, att := range item.Attachments {
		if converted, ok := att.toAttachment(); ok {
			entry.Attachments = append(entry.Attachments, converted)
		}
	}

	photos := item.Photos
	if item.Type == string(models.EntryPhotoTag) {
		photos = item.PhotoTags
	}
	entry.PhotoTotal, entry.Photos = parsePhotos(photos)
	entry.FriendTotal, entry.Friends = parseFriends(item.Friends)
	entry.NoteTotal, entry.Notes = parseNotes(item.Notes)

	return entry
}

func (att *wireAttachment) toAttachment() (models.Attachment, bool) {
	converted := models.Attachment{Kind: models.AttachmentKind(att.Type)}

	switch {
	case att.Photo != nil:
		converted.OwnerID = att.Photo.OwnerID
		converted.ID = att.Photo.PID
		converted.Src = att.Photo.Src
		converted.SrcBig = att.Photo.SrcBig
	case att.PostedPhoto != nil:
		converted.OwnerID = att.PostedPhoto.OwnerID
		converted.ID = att.PostedPhoto.PID
		converted.Src = att.PostedPhoto.Src
		converted.SrcBig = att.PostedPhoto.SrcBig
	case att.Graffiti != nil:
		converted.ID = att.Graffiti.GID
		converted.Src = att.Graffiti.Src
		converted.SrcBig = att.Graffiti.SrcBig
	case att.App != nil:
		converted.AppID = att.App.AppID
		converted.Src = att.App.Src
		converted.SrcBig = att.App.SrcBig
	case att.Link != nil:
		converted.URL = att.Link.URL
		converted.Title = att.Link.Title
		converted.Description = att.Link.Description
		converted.ImageSrc = att.Link.ImageSrc
	case att.Audio != nil:
		converted.Performer = att.Audio.Performer
		converted.Title = att.Audio.Title
		converted.Duration = att.Audio.Duration
	case att.Video != nil:
		converted.OwnerID = att.Video.OwnerID
		converted.ID = att.Video.VID
		converted.Title = att.Video.Title
		converted.Duration = att.Video.Duration
		converted.Image = att.Video.Image
	case att.Doc != nil:
		converted.Title = att.Doc.Title
	case att.Note != nil:
		converted.Title = att.Note.Title
	case att.Page != nil:
		converted.Title = att.Page.Title
	case att.Poll != nil:
		converted.Question = att.Poll.Question
	default:
		// Keep the unknown kind tag: the renderer logs and skips it.
		if att.Type == "" {
			return converted, false
		}
	}

	return converted, true
}

// Counted lists come over the wire as [total, object, object, ...], where
// the total may exceed the number of shipped objects.

func parsePhotos(list []json.RawMessage) (int, []models.Photo) {
	total, rest := splitCounted(list)
	if rest == nil {
		return 0, nil
	}

	photos := make([]models.Photo, 0, len(rest))
	for _, raw := range rest {
		var photo wirePhoto
		if err := json.Unmarshal(raw, &photo); err != nil {
			continue
		}
		photos = append(photos, models.Photo{
			OwnerID: photo.OwnerID,
			ID:      photo.PID,
			Src:     photo.Src,
			SrcBig:  photo.SrcBig,
		})
	}
	return total, photos
}

func parseFriends(list []json.RawMessage) (int, []models.Friend) {
	total, rest := splitCounted(list)
	if rest == nil {
		return 0, nil
	}

	friends := make([]models.Friend, 0, len(rest))
	for _, raw := range rest {
		var friend wireFriend
		if err := json.Unmarshal(raw, &friend); err != nil {
			continue
		}
		friends = append(friends, models.Friend{UserID: friend.UID})
	}
	return total, friends
}

func parseNotes(list []json.RawMessage) (int, []models.Note) {
	total, rest := splitCounted(list)
	if rest == nil {
		return 0, nil
	}

	notes := make([]models.Note, 0, len(rest))
	for _, raw := range rest {
		var note wireNote
		if err := json.Unmarshal(raw, &note); err != nil {
			continue
		}
		notes = append(notes, models.Note{
			OwnerID: note.OwnerID,
			ID:      note.NID,
			Title:   note.Title,
		})
	}
	return total, notes
}

func splitCounted(list []json.RawMessage) (int, []json.RawMessage) {
	if len(list) == 0 {
		return 0, nil
	}

	total, err := strconv.Atoi(strings.TrimSpace(string(list[0])))
	if err != nil {
		return 0, nil
	}
	return total, list[1:]
}

var (
	brRE = regexp.MustCompile(`<br\s*/?>`)

	// [id123|Some Name] or [club123|Some Name] inline mention markup.
	userLinkRE = regexp.MustCompile(`\[(id|club)(\d+)\|([^\]]+)\]`)

	textURLRE       = regexp.MustCompile(`https?://[^\s']+`)
	domainOnlyURLRE = regexp.MustCompile(`(?:[a-z0-9](?:[-a-z0-9]*[a-z0-9])?\.)+[a-z0-9](?:[-a-z0-9]*[a-z0-9])?/[^\s']+`)

	hashtagRE = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
)

// normalizeText maps the provider's mixed newline conventions to plain
// newlines: literal line feeds are presentation noise, <br> tags are real
// line breaks.
func normalizeText(text string) string {
	return brRE.ReplaceAllString(strings.ReplaceAll(text, "\n", " "), "\n")
}

// extractSpans derives positional annotations from VK text markup. The
// provider does not ship entity offsets, so mentions, URLs and hashtags are
// recovered from the text itself. Candidates overlapping an already
// accepted span are dropped, leaving the span list pairwise disjoint.
func extractSpans(text string) []models.Span {
	var spans []models.Span

	overlaps := func(start, end int) bool {
		for _, span := range spans {
			if start < span.End && span.Start < end {
				return true
			}
		}
		return false
	}

	for _, match := range userLinkRE.FindAllStringSubmatchIndex(text, -1) {
		kind := text[match[2]:match[3]]
		id, err := strconv.ParseInt(text[match[4]:match[5]], 10, 64)
		if err != nil {
			continue
		}
		if kind == "club" {
			id = -id
		}
		spans = append(spans, models.Span{
			Kind:   models.SpanMention,
			Start:  match[0],
			End:    match[1],
			UserID: id,
			Name:   text[match[6]:match[7]],
			URL:    vkURL + kind + text[match[4]:match[5]],
		})
	}

	for _, match := range textURLRE.FindAllStringIndex(text, -1) {
		start, end := trimURLMatch(text, match[0], match[1])
		if overlaps(start, end) {
			continue
		}
		spans = append(spans, models.Span{
			Kind:  models.SpanLink,
			Start: start,
			End:   end,
			URL:   text[start:end],
		})
	}

	for _, match := range domainOnlyURLRE.FindAllStringIndex(text, -1) {
		start, end := trimURLMatch(text, match[0], match[1])
		if overlaps(start, end) {
			continue
		}
		spans = append(spans, models.Span{
			Kind:  models.SpanLink,
			Start: start,
			End:   end,
			URL:   "http://" + text[start:end],
		})
	}

	for _, match := range hashtagRE.FindAllStringIndex(text, -1) {
		if overlaps(match[0], match[1]) {
			continue
		}
		spans = append(spans, models.Span{
			Kind:  models.SpanHashtag,
			Start: match[0],
			End:   match[1],
		})
	}

	return spans
}

// trimURLMatch drops a trailing dot from a URL match: it is almost always
// sentence punctuation, not part of the address.
func trimURLMatch(text string, start int, end int) (int, int) {
	if end > start && text[end-1] == '.' {
		end--
	}
	return start, end
}
