// Package catalog holds the static reference data of the app: missions,
// badges, the level ladder and conversation topics.
package catalog

import (
	"embed"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"maeum-toegeun/backend/internal/models"
)

//go:embed data/*.yaml
var dataFS embed.FS

// JobRoles are the roles a profile may pick
var JobRoles = []string{"개발", "디자인", "마케팅", "영업", "인사", "기획", "관리", "기타"}

// Topic is a conversation starter scored by the topic recommender
type Topic struct {
	ID         string   `json:"id" yaml:"id"`
	Text       string   `json:"text" yaml:"text"`
	JobRoles   []string `json:"jobRoles" yaml:"jobRoles"`
	Emotions   []string `json:"emotions" yaml:"emotions"`
	Situations []string `json:"situations" yaml:"situations"`
	Priority   int      `json:"priority" yaml:"priority"`
}

// SamplePost is one seed post of the community board
type SamplePost struct {
	Title   string   `yaml:"title"`
	Content string   `yaml:"content"`
	Tags    []string `yaml:"tags"`
}

// CommunitySamples seeds an empty community board
type CommunitySamples struct {
	AuthorJobs   []string     `yaml:"authorJobs"`
	AuthorLevels []string     `yaml:"authorLevels"`
	Posts        []SamplePost `yaml:"posts"`
	Comments     []string     `yaml:"comments"`
}

// Catalog is immutable after Load
type Catalog struct {
	missions  []models.Mission
	badges    []models.Badge
	levels    []models.Level
	topics    []Topic
	community CommunitySamples

	missionIndex map[string]models.Mission
	badgeIndex   map[string]models.Badge
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the catalog parsed from the embedded data files
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Load()
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("catalog: embedded data is invalid: %v", defaultErr))
	}
	return defaultCatalog
}

// Load parses the embedded data files
func Load() (*Catalog, error) {
	c := &Catalog{}

	if err := decode("data/missions.yaml", &c.missions); err != nil {
		return nil, err
	}
	if err := decode("data/badges.yaml", &c.badges); err != nil {
		return nil, err
	}
	if err := decode("data/levels.yaml", &c.levels); err != nil {
		return nil, err
	}
	if err := decode("data/topics.yaml", &c.topics); err != nil {
		return nil, err
	}
	if err := decode("data/community.yaml", &c.community); err != nil {
		return nil, err
	}

	if len(c.levels) == 0 {
		return nil, fmt.Errorf("level ladder is empty")
	}
	sort.SliceStable(c.levels, func(i, j int) bool {
		return c.levels[i].RequiredPoints < c.levels[j].RequiredPoints
	})

	c.missionIndex = make(map[string]models.Mission, len(c.missions))
	for _, m := range c.missions {
		if _, dup := c.missionIndex[m.ID]; dup {
			return nil, fmt.Errorf("duplicate mission id %q", m.ID)
		}
		c.missionIndex[m.ID] = m
	}
	c.badgeIndex = make(map[string]models.Badge, len(c.badges))
	for _, b := range c.badges {
		if _, dup := c.badgeIndex[b.ID]; dup {
			return nil, fmt.Errorf("duplicate badge id %q", b.ID)
		}
		c.badgeIndex[b.ID] = b
	}

	return c, nil
}

func decode(name string, out interface{}) error {
	raw, err := dataFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// Missions returns a copy of the mission list
func (c *Catalog) Missions() []models.Mission {
	return append([]models.Mission(nil), c.missions...)
}

func (c *Catalog) MissionByID(id string) (models.Mission, bool) {
	m, ok := c.missionIndex[id]
	return m, ok
}

func (c *Catalog) MissionsByCategory(category models.MissionCategory) []models.Mission {
	var out []models.Mission
	for _, m := range c.missions {
		if m.Category == category {
			out = append(out, m)
		}
	}
	return out
}

func (c *Catalog) MissionsByDifficulty(difficulty models.MissionDifficulty) []models.Mission {
	var out []models.Mission
	for _, m := range c.missions {
		if m.Difficulty == difficulty {
			out = append(out, m)
		}
	}
	return out
}

// RandomMissions draws count distinct missions using rng
func (c *Catalog) RandomMissions(rng *rand.Rand, count int) []models.Mission {
	if count <= 0 {
		return nil
	}
	shuffled := c.Missions()
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if count > len(shuffled) {
		count = len(shuffled)
	}
	return shuffled[:count]
}

func (c *Catalog) Badges() []models.Badge {
	return append([]models.Badge(nil), c.badges...)
}

func (c *Catalog) BadgeByID(id string) (models.Badge, bool) {
	b, ok := c.badgeIndex[id]
	return b, ok
}

func (c *Catalog) BadgesByType(t models.BadgeType) []models.Badge {
	var out []models.Badge
	for _, b := range c.badges {
		if b.Type == t {
			out = append(out, b)
		}
	}
	return out
}

// Levels returns the ladder in ascending order
func (c *Catalog) Levels() []models.Level {
	return append([]models.Level(nil), c.levels...)
}

// LevelByPoints returns the highest level whose threshold is at most points.
// Negative points map to the first level.
func (c *Catalog) LevelByPoints(points int) models.Level {
	for i := len(c.levels) - 1; i >= 0; i-- {
		if points >= c.levels[i].RequiredPoints {
			return c.levels[i]
		}
	}
	return c.levels[0]
}

// NextLevel returns the level after the one points maps to. ok is false at
// the top of the ladder.
func (c *Catalog) NextLevel(points int) (next models.Level, pointsNeeded int, ok bool) {
	current := c.LevelByPoints(points)
	for i, l := range c.levels {
		if l.Level == current.Level && i+1 < len(c.levels) {
			next = c.levels[i+1]
			return next, next.RequiredPoints - points, true
		}
	}
	return models.Level{}, 0, false
}

// LevelInfo builds the level view for a point total
func (c *Catalog) LevelInfo(points int) models.LevelInfo {
	info := models.LevelInfo{
		Points:   points,
		Current:  c.LevelByPoints(points),
		Progress: 100,
	}
	if next, needed, ok := c.NextLevel(points); ok {
		info.Next = &next
		info.PointsToNextLevel = needed
		span := next.RequiredPoints - info.Current.RequiredPoints
		if span > 0 {
			info.Progress = (points - info.Current.RequiredPoints) * 100 / span
		}
	}
	return info
}

// Topics returns the conversation topics in catalog order
func (c *Catalog) Topics() []Topic {
	return append([]Topic(nil), c.topics...)
}

// Community returns the seed data of the community board
func (c *Catalog) Community() CommunitySamples {
	return c.community
}
