package filter

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var keywordsYAML []byte

var talkShowKeywords = loadKeywords()

type keywordFile struct {
	TalkShowKeywords []string `yaml:"talk_show_keywords"`
}

func loadKeywords() []string {
	var f keywordFile
	if err := yaml.Unmarshal(keywordsYAML, &f); err != nil {
		panic("filter: invalid embedded keywords.yaml: " + err.Error())
	}
	return f.TalkShowKeywords
}

// IsTalkShow reports whether a series title looks like a talk, variety or
// news format.
func IsTalkShow(title string) bool {
	if title == "" {
		return false
	}
	lower := strings.ToLower(title)
	for _, keyword := range talkShowKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
