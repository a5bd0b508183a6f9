package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"maeum-toegeun/backend/internal/analysis"
	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/internal/predict"
	"maeum-toegeun/backend/internal/recommend"
	pkgws "maeum-toegeun/backend/pkg/ws"

	"github.com/gorilla/websocket"
)

type LevelsCmd struct {
	Points *int `help:"Show the level view for this many points." short:"p"`
}

func (c *LevelsCmd) Run(ctx *Context) error {
	if c.Points != nil {
		return writeJSON(ctx, ctx.Catalog.LevelInfo(*c.Points))
	}
	w := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LEVEL\tNAME\tPOINTS")
	for _, l := range ctx.Catalog.Levels() {
		fmt.Fprintf(w, "%d\t%s\t%d\n", l.Level, l.Name, l.RequiredPoints)
	}
	return w.Flush()
}

type TopicsCmd struct {
	Role       string   `help:"Job role, e.g. 개발." short:"r"`
	Emotions   []string `help:"Recent emotions, newest first." short:"e"`
	Situations []string `help:"Recent situations, newest first." short:"s"`
	Messages   []string `help:"Recent chat messages." short:"m"`
	Count      int      `help:"Number of topics." default:"3" short:"n"`
}

func (c *TopicsCmd) Run(ctx *Context) error {
	r := recommend.New(ctx.Catalog.Topics())
	scored := r.Recommend(recommend.Profile{
		JobRole:          c.Role,
		RecentEmotions:   c.Emotions,
		RecentSituations: c.Situations,
	}, c.Messages, c.Count)

	w := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tTOPIC")
	for _, s := range scored {
		fmt.Fprintf(w, "%d\t%s\n", s.Score, s.Text)
	}
	return w.Flush()
}

type PredictCmd struct {
	File   string `arg:"" help:"JSON array of emotion records." type:"existingfile"`
	Period string `help:"week or month." default:"week" enum:"week,month"`
	Date   string `help:"Show only this day (YYYY-MM-DD)."`
}

func (c *PredictCmd) Run(ctx *Context) error {
	records, err := readRecords(c.File)
	if err != nil {
		return err
	}
	period, err := predict.ParsePeriod(c.Period)
	if err != nil {
		return err
	}

	out := predict.Generate(records, period, time.Now())
	if c.Date == "" {
		return writeJSON(ctx, out)
	}
	day, err := time.ParseInLocation(predict.DateLayout, c.Date, time.Local)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", c.Date, err)
	}
	p, ok := predict.ForDate(day, out)
	if !ok {
		return fmt.Errorf("no prediction for %s", c.Date)
	}
	return writeJSON(ctx, p)
}

type StatsCmd struct {
	File  string `arg:"" help:"JSON array of emotion records." type:"existingfile"`
	Range string `help:"Report range (week, month, 3months, 6months, year, all); empty prints the 7-day dashboard stats."`
}

func (c *StatsCmd) Run(ctx *Context) error {
	records, err := readRecords(c.File)
	if err != nil {
		return err
	}
	if c.Range == "" {
		return writeJSON(ctx, analysis.Stats(records, time.Now()))
	}
	r, err := analysis.ParseRange(c.Range)
	if err != nil {
		return err
	}
	return writeJSON(ctx, analysis.Analyze(records, r, time.Now()))
}

type ChatCmd struct {
	Server  string        `help:"Server base URL." default:"http://localhost:8081" env:"MAEUM_SERVER"`
	Token   string        `help:"Bearer token; a new session is opened when empty." env:"MAEUM_TOKEN"`
	Timeout time.Duration `help:"Give up after this long." default:"60s"`
	Message string        `arg:"" help:"Message to send."`
}

func (c *ChatCmd) Run(ctx *Context) error {
	token := c.Token
	if token == "" {
		s, err := c.openSession()
		if err != nil {
			return err
		}
		token = s.Token
		fmt.Fprintf(os.Stderr, "session %s\n", s.UserID)
	}

	u, err := url.Parse(c.Server)
	if err != nil {
		return err
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/api/v1/chat/ws"
	u.RawQuery = url.Values{"token": {token}}.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	content, err := json.Marshal(models.ChatRequest{
		Messages: []models.ChatTurn{{Role: "user", Parts: c.Message}},
	})
	if err != nil {
		return err
	}
	if err := conn.WriteJSON(pkgws.Message{Type: pkgws.TypeChat, Content: content}); err != nil {
		return err
	}

	deadline := time.Now().Add(c.Timeout)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			return err
		}
		var msg pkgws.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		switch msg.Type {
		case pkgws.TypeFragment:
			var f pkgws.Fragment
			if err := json.Unmarshal(msg.Content, &f); err == nil {
				fmt.Fprint(ctx.Out, f.Text)
			}
		case pkgws.TypeError:
			var f pkgws.Failure
			_ = json.Unmarshal(msg.Content, &f)
			fmt.Fprintln(ctx.Out)
			return fmt.Errorf("server: %s", f.Message)
		case pkgws.TypeDone:
			fmt.Fprintln(ctx.Out)
			return nil
		}
	}
}

func (c *ChatCmd) openSession() (models.Session, error) {
	var s models.Session
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(strings.TrimRight(c.Server, "/")+"/api/v1/session", "application/json", bytes.NewReader(nil))
	if err != nil {
		return s, fmt.Errorf("open session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return s, fmt.Errorf("open session: status %d", resp.StatusCode)
	}
	return s, json.NewDecoder(resp.Body).Decode(&s)
}

func readRecords(path string) ([]models.EmotionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []models.EmotionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}

func writeJSON(ctx *Context, v any) error {
	enc := json.NewEncoder(ctx.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
