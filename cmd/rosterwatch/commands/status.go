package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"git.home.luguber.info/inful/rosterwatch/internal/roster"
	"git.home.luguber.info/inful/rosterwatch/internal/state"
)

// StatusCmd implements the 'status' command.
type StatusCmd struct {
	StateFile string `name:"state-file" help:"Read this state file instead of the one named in the configuration" type:"path"`
}

func (s *StatusCmd) Run(_ *Global, root *CLI) error {
	path := s.StateFile
	title := path
	if path == "" {
		cfg, err := root.loadConfig()
		if err != nil {
			return err
		}
		path = cfg.StateFile
		title = cfg.Group
	}

	records, err := state.NewFileStore(path).Load()
	if err != nil {
		return err
	}
	return renderStatus(os.Stdout, title, records, time.Now())
}

func renderStatus(w io.Writer, title string, records []roster.Record, now time.Time) error {
	rows := make([][]string, 0, len(records))
	seen := 0
	for _, r := range records {
		last, age := "never", "-"
		if r.LastEvent != nil {
			seen++
			last = r.LastEvent.UTC().Format(time.RFC3339)
			age = formatAge(now.Sub(*r.LastEvent))
		}
		rows = append(rows, []string{r.Name, last, age})
	}

	if _, err := fmt.Fprintln(w, boldStyle.Render(title)); err != nil {
		return err
	}
	if len(rows) > 0 {
		if _, err := fmt.Fprintln(w, renderTable([]string{"MEMBER", "LAST EVENT", "AGE"}, rows)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%d members, %d with recorded activity", len(records), seen)))
	return err
}

func formatAge(d time.Duration) string {
	switch {
	case d < 0:
		return "0s"
	case d < time.Minute:
		return d.Round(time.Second).String()
	case d < 48*time.Hour:
		return d.Round(time.Minute).String()
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
