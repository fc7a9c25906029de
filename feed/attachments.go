package feed

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"vkrss/models"
)

// attachmentOrder is the fixed rendering priority. Kinds missing from the
// table sort after all known kinds, keeping their relative input order.
var attachmentOrder = []models.AttachmentKind{
	models.AttachmentDoc,
	models.AttachmentNote,
	models.AttachmentPage,
	models.AttachmentPoll,
	models.AttachmentPostedPhoto,
	models.AttachmentPhoto,
	models.AttachmentGraffiti,
	models.AttachmentApp,
	models.AttachmentVideo,
	models.AttachmentLink,
	models.AttachmentAudio,
}

// photoLikeKinds take part in the singular-media rule: when an entry has
// exactly one of these, it is rendered with the big image variant.
var photoLikeKinds = []models.AttachmentKind{
	models.AttachmentApp,
	models.AttachmentGraffiti,
	models.AttachmentPhoto,
	models.AttachmentPostedPhoto,
}

func attachmentRank(kind models.AttachmentKind) int {
	if i := lo.IndexOf(attachmentOrder, kind); i >= 0 {
		return i
	}
	return len(attachmentOrder)
}

// RenderAttachments renders the attachments of one entry in priority order
// and returns HTML to place before the entry text, HTML to place after it,
// and the category set contributed by the rendered attachments.
func RenderAttachments(attachments []models.Attachment) (string, string, map[string]struct{}) {
	sorted := make([]models.Attachment, len(attachments))
	copy(sorted, attachments)

	sort.SliceStable(sorted, func(i, j int) bool {
		return attachmentRank(sorted[i].Kind) < attachmentRank(sorted[j].Kind)
	})

	// Entry-scoped, not attachment-scoped.
	bigImage := lo.CountBy(sorted, func(attachment models.Attachment) bool {
		return lo.Contains(photoLikeKinds, attachment.Kind)
	}) == 1

	var top, bottom strings.Builder
	categories := make(map[string]struct{})

	for _, attachment := range sorted {
		addCategory := true

		switch attachment.Kind {
		case models.AttachmentApp:
			top.WriteString(block(
				vkLink(vkOwnerID("app", attachment.AppID),
					image(photoSrc(attachment, bigImage)))))

		case models.AttachmentGraffiti:
			top.WriteString(block(
				vkLink(vkOwnerID("graffiti", attachment.ID),
					image(photoSrc(attachment, bigImage)))))

		case models.AttachmentLink:
			top.WriteString(block(linkCard(attachment)))

		case models.AttachmentPhoto:
			top.WriteString(photo(attachment, bigImage))
			addCategory = false

		case models.AttachmentPostedPhoto:
			top.WriteString(photo(attachment, bigImage))

		case models.AttachmentAudio:
			bottom.WriteString(block(em(
				"Аудиозапись: " + vkLink(
					"search?"+url.Values{
						"c[q]":       {attachment.Performer + " - " + attachment.Title},
						"c[section]": {"audio"},
					}.Encode(),
					escape(fmt.Sprintf("%s - %s (%s)", attachment.Performer,
						attachment.Title, formatDuration(attachment.Duration)))))))

		case models.AttachmentVideo:
			top.WriteString(block(
				image(attachment.Image) +
					block(em(escape(fmt.Sprintf("%s (%s)",
						attachment.Title, formatDuration(attachment.Duration)))))))

		case models.AttachmentDoc:
			bottom.WriteString(block(em(escape("Документ: " + attachment.Title))))

		case models.AttachmentNote:
			bottom.WriteString(block(em(escape("Заметка: " + attachment.Title))))

		case models.AttachmentPage:
			bottom.WriteString(block(em(escape("Страница: " + attachment.Title))))

		case models.AttachmentPoll:
			bottom.WriteString(block(em(escape("Опрос: " + attachment.Question))))

		default:
			log.WithFields(log.Fields{
				"kind": attachment.Kind,
			}).Warn("Unknown attachment kind")
			addCategory = false
		}

		if addCategory {
			categories[categoryType+string(attachment.Kind)] = struct{}{}
		}
	}

	return top.String(), bottom.String(), categories
}

func linkCard(attachment models.Attachment) string {
	card := em("Ссылка: " + link(attachment.URL, escape(attachment.Title)))

	description := escape(attachment.Description)
	if description == "" {
		description = escape(attachment.Title)
	}

	if attachment.ImageSrc != "" {
		if description != "" {
			card += imageBlock(attachment.URL, attachment.ImageSrc, description)
		} else {
			card += block(link(attachment.URL, image(attachment.ImageSrc)))
		}
	} else if description != "" {
		card += block(description)
	}

	return card
}

func photo(attachment models.Attachment, bigImage bool) string {
	return block(
		vkLink(vkObjectID("photo", attachment.OwnerID, attachment.ID),
			image(photoSrc(attachment, bigImage))))
}

func photoSrc(attachment models.Attachment, bigImage bool) string {
	if bigImage {
		return attachment.SrcBig
	}
	return attachment.Src
}

// formatDuration renders an audio/video duration as HH:MM:SS, or MM:SS when
// there is no hour part.
func formatDuration(seconds int64) string {
	hours := seconds / 60 / 60
	minutes := seconds / 60 % 60
	seconds = seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
