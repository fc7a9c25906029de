package feed

import (
	"fmt"

	"vkrss/models"
)

const (
	feedTitle       = "ВКонтакте: Новости"
	feedImage       = vkURL + "press/Simple.png"
	feedDescription = "Новостная лента ВКонтакте"
)

// Assemble builds the feed from a validated timeline, keeping the provider
// order of the entries. Entries that fail to build are replaced by
// placeholder items; entries that signal a skip contribute nothing.
func Assemble(timeline *models.Timeline) (*models.Feed, error) {
	if timeline == nil || timeline.Entries == nil || timeline.Users == nil {
		return nil, fmt.Errorf("timeline is missing entries or the user table")
	}

	items := []models.FeedItem{}

	for _, entry := range timeline.Entries {
		item := SafeBuildItem(entry, timeline.Users)
		if item == nil {
			continue
		}
		items = append(items, *item)
	}

	return &models.Feed{
		Title:       feedTitle,
		URL:         vkURL,
		Image:       feedImage,
		Description: feedDescription,
		Items:       items,
	}, nil
}
