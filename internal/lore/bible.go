// Package lore reads series bibles written in Markdown and condenses lore for generation prompts.
package lore

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/raphaelgruber/showrunner/internal/models"
)

// Bible is a parsed series bible.
//
// A bible is a Markdown file with optional YAML frontmatter:
//
//	---
//	title: The Lighthouse
//	genre: [mystery, drama]
//	seasons: 2
//	episodes: 6
//	---
//	# The Lighthouse
//	## Characters
//	- Mara (keeper): last of her line
//	## World
//	...
//
// The "Characters", "Visual Style" and "Script Style" sections fill the matching fields; every other
// section is lore.
type Bible struct {
	Meta     Frontmatter
	Title    string
	Sections []Section
	Lore     string
}

// Frontmatter holds the structured fields of a bible.
type Frontmatter struct {
	Title       string             `yaml:"title"`
	Tagline     string             `yaml:"tagline"`
	Genre       []string           `yaml:"genre"`
	Seasons     int                `yaml:"seasons"`
	Episodes    int                `yaml:"episodes"`
	VisualStyle string             `yaml:"visual_style"`
	ScriptStyle string             `yaml:"script_style"`
	Characters  []models.Character `yaml:"characters"`
}

// Section is a heading and the text under it.
type Section struct {
	Level   int    // 1-6 for h1-h6
	Heading string // The heading text
	Path    string // Full path like "## World > ### Harbor"
	Content string
}

var (
	headingRegex   = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	h1Regex        = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	characterRegex = regexp.MustCompile(`^[-*]\s+(?:\*\*)?([^*(:]+?)(?:\*\*)?\s*(?:\(([^)]*)\))?\s*(?::\s*(.*))?$`)
)

// Parse parses a series bible.
func Parse(content string) (*Bible, error) {
	b := &Bible{}

	remaining := strings.ReplaceAll(content, "\r\n", "\n")
	if strings.HasPrefix(remaining, "---\n") {
		endIdx := strings.Index(remaining[4:], "\n---")
		if endIdx >= 0 {
			if err := yaml.Unmarshal([]byte(remaining[4:4+endIdx]), &b.Meta); err != nil {
				return nil, fmt.Errorf("%w: bible frontmatter: %v", models.ErrValidation, err)
			}
			remaining = strings.TrimPrefix(remaining[4+endIdx+4:], "\n")
		}
	}

	b.Title = b.Meta.Title
	if b.Title == "" {
		if match := h1Regex.FindStringSubmatch(remaining); len(match) > 1 {
			b.Title = strings.TrimSpace(match[1])
		}
	}

	preamble, sections := parseSections(remaining)
	b.Sections = sections

	var lore []string
	if preamble != "" {
		lore = append(lore, preamble)
	}
	for _, s := range b.Sections {
		switch normalize(s.Heading) {
		case "characters", "main characters", "cast":
			b.Meta.Characters = append(b.Meta.Characters, parseCharacters(s.Content)...)
		case "visual style":
			if b.Meta.VisualStyle == "" {
				b.Meta.VisualStyle = s.Content
			}
		case "script style":
			if b.Meta.ScriptStyle == "" {
				b.Meta.ScriptStyle = s.Content
			}
		default:
			if s.Content == "" {
				continue
			}
			if s.Level == 1 && s.Heading == b.Title {
				lore = append(lore, s.Content)
				continue
			}
			lore = append(lore, strings.Repeat("#", s.Level)+" "+s.Heading+"\n\n"+s.Content)
		}
	}
	b.Lore = strings.TrimSpace(strings.Join(lore, "\n\n"))

	return b, nil
}

// Input converts the bible into series input. Zero counts are left for validation to report.
func (b *Bible) Input() models.CreateSeriesInput {
	return models.CreateSeriesInput{
		Title:             b.Title,
		Tagline:           b.Meta.Tagline,
		Genre:             b.Meta.Genre,
		PlannedSeasons:    b.Meta.Seasons,
		EpisodesPerSeason: b.Meta.Episodes,
		FullLore:          b.Lore,
		VisualStyle:       b.Meta.VisualStyle,
		ScriptStyle:       b.Meta.ScriptStyle,
		MainCharacters:    b.Meta.Characters,
	}
}

func normalize(heading string) string {
	return strings.ToLower(strings.Join(strings.Fields(heading), " "))
}

// parseCharacters reads "- Name (role): description" bullets.
func parseCharacters(content string) []models.Character {
	var chars []models.Character
	for _, line := range strings.Split(content, "\n") {
		match := characterRegex.FindStringSubmatch(strings.TrimSpace(line))
		if match == nil {
			continue
		}
		name := strings.TrimSpace(match[1])
		if name == "" {
			continue
		}
		chars = append(chars, models.Character{
			Name:        name,
			Role:        strings.TrimSpace(match[2]),
			Description: strings.TrimSpace(match[3]),
		})
	}
	return chars
}

// parseSections extracts sections from Markdown content. Text before the first heading is returned
// as the preamble.
func parseSections(content string) (string, []Section) {
	var sections []Section
	var preamble strings.Builder

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	var currentPath []string
	var currentLevels []int

	var current *Section
	var body strings.Builder

	flush := func() {
		if current != nil {
			current.Content = strings.TrimSpace(body.String())
			sections = append(sections, *current)
			body.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()

		match := headingRegex.FindStringSubmatch(line)
		if match == nil {
			if current != nil {
				body.WriteString(line)
				body.WriteString("\n")
			} else {
				preamble.WriteString(line)
				preamble.WriteString("\n")
			}
			continue
		}

		flush()

		level := len(match[1])
		heading := strings.TrimSpace(match[2])
		for len(currentLevels) > 0 && currentLevels[len(currentLevels)-1] >= level {
			currentPath = currentPath[:len(currentPath)-1]
			currentLevels = currentLevels[:len(currentLevels)-1]
		}
		currentPath = append(currentPath, match[1]+" "+heading)
		currentLevels = append(currentLevels, level)

		current = &Section{
			Level:   level,
			Heading: heading,
			Path:    strings.Join(currentPath, " > "),
		}
	}
	flush()

	return strings.TrimSpace(preamble.String()), sections
}
