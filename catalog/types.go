package catalog

import (
	"strings"

	"github.com/bookmarkedapp/bookmarked-engine/domain"
	"github.com/bookmarkedapp/bookmarked-engine/internal/normalize"
)

// Raw API response types (internal)

type rawVolumeList struct {
	TotalItems int         `json:"totalItems"`
	Items      []rawVolume `json:"items"`
}

type rawVolume struct {
	ID         string        `json:"id"`
	VolumeInfo rawVolumeInfo `json:"volumeInfo"`
}

type rawVolumeInfo struct {
	Title               string          `json:"title"`
	Authors             []string        `json:"authors"`
	Categories          []string        `json:"categories"`
	Description         string          `json:"description"`
	ImageLinks          rawImageLinks   `json:"imageLinks"`
	AverageRating       float64         `json:"averageRating"`
	RatingsCount        int             `json:"ratingsCount"`
	PublishedDate       string          `json:"publishedDate"`
	PageCount           int             `json:"pageCount"`
	IndustryIdentifiers []rawIdentifier `json:"industryIdentifiers"`
	Language            string          `json:"language"`
}

type rawImageLinks struct {
	Thumbnail      string `json:"thumbnail"`
	SmallThumbnail string `json:"smallThumbnail"`
}

type rawIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

// toBook converts a raw volume to a domain record.
func (v *rawVolume) toBook() domain.Book {
	info := &v.VolumeInfo
	return domain.Book{
		ID:            v.ID,
		Source:        domain.SourceGoogle,
		Title:         info.Title,
		Authors:       info.Authors,
		Categories:    info.Categories,
		Description:   info.Description,
		CoverURL:      secureURL(info.coverURL()),
		AverageRating: info.AverageRating,
		RatingsCount:  info.RatingsCount,
		PublishedDate: info.PublishedDate,
		PageCount:     info.PageCount,
		ISBN:          info.isbn(),
		Language:      normalize.LanguageCode(info.Language),
	}
}

// coverURL picks the best available thumbnail.
func (info *rawVolumeInfo) coverURL() string {
	if info.ImageLinks.Thumbnail != "" {
		return info.ImageLinks.Thumbnail
	}
	return info.ImageLinks.SmallThumbnail
}

// isbn extracts the preferred identifier: ISBN-13 over ISBN-10.
func (info *rawVolumeInfo) isbn() string {
	var isbn10 string
	for _, id := range info.IndustryIdentifiers {
		switch id.Type {
		case "ISBN_13":
			return id.Identifier
		case "ISBN_10":
			if isbn10 == "" {
				isbn10 = id.Identifier
			}
		}
	}
	return isbn10
}

// secureURL upgrades plaintext thumbnail URLs before they are stored anywhere.
func secureURL(u string) string {
	if rest, ok := strings.CutPrefix(u, "http://"); ok {
		return "https://" + rest
	}
	return u
}
