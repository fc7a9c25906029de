package feed

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"vkrss/models"
)

const (
	categoryType       = "type/"
	categoryTypeRepost = categoryType + "repost"

	categorySourceUser  = "source/user/"
	categorySourceGroup = "source/group/"
)

// partialItem is what an entry-kind handler produces before the builder
// fills in identity, time, author and source categories.
type partialItem struct {
	title      string
	text       string
	url        string
	categories map[string]struct{}
}

// BuildItem transforms one entry into a feed item. It returns (nil, nil)
// for entries that are intentionally dropped from the feed, such as bare
// check-ins.
func BuildItem(entry models.Entry, users map[int64]models.UserInfo) (*models.FeedItem, error) {
	user, ok := users[entry.SourceID]
	if !ok {
		return nil, fmt.Errorf("unknown entry source id %d", entry.SourceID)
	}

	var partial *partialItem
	var err error

	switch entry.Kind {
	case models.EntryPost:
		partial, err = postItem(entry, user, users)
	case models.EntryPhoto, models.EntryPhotoTag, models.EntryWallPhoto:
		partial, err = photoItem(entry, user)
	case models.EntryFriend:
		partial, err = friendItem(entry, user, users)
	case models.EntryNote:
		partial, err = noteItem(entry, user)
	default:
		return nil, fmt.Errorf("unknown entry kind %q", entry.Kind)
	}
	if err != nil {
		return nil, err
	}
	if partial == nil {
		return nil, nil
	}

	categories := partial.categories
	if categories == nil {
		categories = make(map[string]struct{})
	}
	categories[categoryType+string(entry.Kind)] = struct{}{}
	categories[sourceCategory(entry.SourceID)] = struct{}{}

	return &models.FeedItem{
		ID:         ItemID(entry),
		Time:       entry.Date,
		Title:      partial.title,
		URL:        partial.url,
		Text:       partial.text,
		Categories: categories,
		Author:     escape(user.Name),
	}, nil
}

// SafeBuildItem is the per-entry isolation boundary: a failure to build one
// item is logged together with the raw entry payload and replaced by a
// fixed-text placeholder that keeps the entry's id and time, so that feed
// readers can still deduplicate it across refetches.
func SafeBuildItem(entry models.Entry, users map[int64]models.UserInfo) *models.FeedItem {
	item, err := BuildItem(entry, users)
	if err == nil {
		return item
	}

	log.WithFields(log.Fields{
		"error": err,
		"entry": string(entry.Raw),
	}).Error("Failed to process news feed item")

	return &models.FeedItem{
		ID:         ItemID(entry),
		Time:       entry.Date,
		Title:      "Внутренняя ошибка сервера",
		Text:       "При обработке новости произошла внутренняя ошибка сервера",
		Categories: make(map[string]struct{}),
	}
}

// ItemID composes the stable item identifier. It never depends on the
// entry's position in the response.
func ItemID(entry models.Entry) string {
	return profileName(entry.SourceID) + "/" + string(entry.Kind) + "/" +
		strconv.FormatInt(entry.Date, 10)
}

func postItem(entry models.Entry, user models.UserInfo, users map[int64]models.UserInfo) (*partialItem, error) {
	if entry.Text == "" && len(entry.Attachments) == 0 && entry.HasGeo {
		log.WithFields(log.Fields{
			"user": user.Name,
			"date": entry.Date,
		}).Debug("Skip check-in item")
		return nil, nil
	}

	mainHTML := ""
	if !attachmentTitleOnly(entry) {
		html, media := Annotate(entry.Text, entry.Spans)
		mainHTML = strings.ReplaceAll(html, "\n", "<br>") + media
	}

	topHTML, bottomHTML, categories := RenderAttachments(entry.Attachments)

	html := topHTML + mainHTML + bottomHTML

	if entry.CopyOwnerID != nil && entry.CopyPostID != nil {
		origin, ok := users[*entry.CopyOwnerID]
		if !ok {
			return nil, fmt.Errorf("unknown repost origin id %d", *entry.CopyOwnerID)
		}

		html = block(em(link(userURL(origin.ID), escape(origin.Name)))+" пишет:") + html

		if entry.CopyText != "" {
			html = quoteBlock(escape(entry.CopyText), html)
		}

		categories[categoryTypeRepost] = struct{}{}
	}

	html = imageBlock(userURL(user.ID), user.Photo, html)

	return &partialItem{
		title:      escape(user.Name + ": запись на стене"),
		text:       html,
		url:        vkURL + vkObjectID("wall", user.ID, entry.PostID),
		categories: categories,
	}, nil
}

// attachmentTitleOnly reports whether the entry's text merely repeats the
// title of its leading attachment, in which case the text is not rendered.
func attachmentTitleOnly(entry models.Entry) bool {
	return len(entry.Attachments) > 0 && entry.Text == entry.Attachments[0].Title
}

func photoItem(entry models.Entry, user models.UserInfo) (*partialItem, error) {
	var title string
	var photoURL func(photo models.Photo) string

	switch entry.Kind {
	case models.EntryPhoto:
		title = "новые фотографии"
		photoURL = func(photo models.Photo) string {
			return vkURL + "feed?" + url.Values{
				"section": {"photos"},
				"z": {fmt.Sprintf("photo%d_%d/feed1_%d_%d",
					photo.OwnerID, photo.ID, entry.SourceID, entry.Date)},
			}.Encode()
		}
	case models.EntryPhotoTag:
		title = "новые отметки на фотографиях"
		photoURL = func(photo models.Photo) string {
			return vkURL + "feed?" + url.Values{
				"z": {fmt.Sprintf("photo%d_%d/feed3_%d_%d",
					photo.OwnerID, photo.ID, entry.SourceID, entry.Date)},
			}.Encode()
		}
	case models.EntryWallPhoto:
		title = "новые фотографии на стене"
		photoURL = func(photo models.Photo) string {
			return vkURL + vkObjectID("photo", photo.OwnerID, photo.ID)
		}
	default:
		return nil, fmt.Errorf("not a photo entry kind %q", entry.Kind)
	}

	item := &partialItem{
		title: escape(user.Name + ": " + title),
	}

	for _, photo := range entry.Photos {
		photoLink := photoURL(photo)
		if item.url == "" {
			item.url = photoLink
		}
		item.text += block(link(photoLink, image(photo.SrcBig)))
	}

	if entry.PhotoTotal > len(entry.Photos) {
		item.text += block("[показаны не все фотографии]")
	}

	return item, nil
}

func friendItem(entry models.Entry, user models.UserInfo, users map[int64]models.UserInfo) (*partialItem, error) {
	html := ""

	for _, friend := range entry.Friends {
		info, ok := users[friend.UserID]
		if !ok {
			return nil, fmt.Errorf("unknown friend id %d", friend.UserID)
		}
		html += imageBlock(
			userURL(info.ID), info.Photo,
			link(userURL(info.ID), escape(info.Name)))
	}

	if entry.FriendTotal > len(entry.Friends) {
		html += block("[показаны не все новые друзья]")
	}

	return &partialItem{
		title: escape(user.Name + ": новые друзья"),
		text:  html,
		url:   fmt.Sprintf("%sfriends?id=%d&section=all", vkURL, user.ID),
	}, nil
}

func noteItem(entry models.Entry, user models.UserInfo) (*partialItem, error) {
	if len(entry.Notes) == 0 {
		return nil, fmt.Errorf("note entry with no notes")
	}

	html := ""
	for _, note := range entry.Notes {
		html += block(em("Заметка: " + vkLink(
			vkObjectID("note", note.OwnerID, note.ID), escape(note.Title))))
	}

	if entry.NoteTotal > len(entry.Notes) {
		html += block("[показаны не все заметки]")
	}

	return &partialItem{
		title: escape(user.Name + ": заметка"),
		text:  html,
		url:   vkURL + vkObjectID("note", entry.Notes[0].OwnerID, entry.Notes[0].ID),
	}, nil
}

// profileName returns the profile short name: id<N> for users, club<N> for
// groups (negative ids).
func profileName(userID int64) string {
	if userID < 0 {
		return "club" + strconv.FormatInt(-userID, 10)
	}
	return "id" + strconv.FormatInt(userID, 10)
}

func userURL(userID int64) string {
	return vkURL + profileName(userID)
}

func sourceCategory(userID int64) string {
	if userID < 0 {
		return categorySourceGroup + profileName(userID)
	}
	return categorySourceUser + profileName(userID)
}

func vkOwnerID(objType string, ownerID int64) string {
	return fmt.Sprintf("%s%d", objType, ownerID)
}

func vkObjectID(objType string, ownerID int64, objectID int64) string {
	return fmt.Sprintf("%s%d_%d", objType, ownerID, objectID)
}
