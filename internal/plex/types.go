package plex

import (
	"fmt"
	"strings"
)

// mediaContainer is the root element of Plex library responses.
type mediaContainer struct {
	XMLName     struct{}    `xml:"MediaContainer"`
	Directories []Directory `xml:"Directory"`
	Videos      []Video     `xml:"Video"`
}

// Directory is one library section.
type Directory struct {
	Key   string `xml:"key,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

// Video is one item of a section listing. Episodes carry their show context
// in the grandparent attributes.
type Video struct {
	RatingKey             string `xml:"ratingKey,attr"`
	Type                  string `xml:"type,attr"`
	Title                 string `xml:"title,attr"`
	GrandparentTitle      string `xml:"grandparentTitle,attr"`
	ParentIndex           int    `xml:"parentIndex,attr"`
	Index                 int    `xml:"index,attr"`
	Year                  int    `xml:"year,attr"`
	Summary               string `xml:"summary,attr"`
	Duration              int64  `xml:"duration,attr"`
	AddedAt               int64  `xml:"addedAt,attr"`
	OriginallyAvailableAt string `xml:"originallyAvailableAt,attr"`
	Guids                 []Guid `xml:"Guid"`
	Genres                []Tag  `xml:"Genre"`
}

// Guid is an embedded external-identifier reference.
type Guid struct {
	ID string `xml:"id,attr"`
}

// Tag is a simple tagged attribute node (genres, labels).
type Tag struct {
	Tag string `xml:"tag,attr"`
}

// IsEpisode reports whether the video is a series episode.
func (v Video) IsEpisode() bool {
	return v.Type == "episode"
}

// DisplayTitle is the show title for episodes, the item title otherwise.
func (v Video) DisplayTitle() string {
	if v.IsEpisode() && v.GrandparentTitle != "" {
		return v.GrandparentTitle
	}
	return v.Title
}

// EpisodeCode formats the season/episode number as SxxEyy.
func (v Video) EpisodeCode() string {
	return fmt.Sprintf("S%02dE%02d", v.ParentIndex, v.Index)
}

// CatalogGuid extracts a catalog identifier from an embedded
// "themoviedb://<id>" Guid, or "" when none is present.
func (v Video) CatalogGuid() string {
	for _, guid := range v.Guids {
		if _, after, found := strings.Cut(guid.ID, "themoviedb://"); found {
			id, _, _ := strings.Cut(after, "?")
			return id
		}
	}
	return ""
}
