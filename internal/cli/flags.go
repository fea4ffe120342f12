package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/llabusch93/reclaim-sdk/internal/config"
)

// Invocation ist ein geparster Aufruf.
type Invocation struct {
	Config  *config.Config
	Command string
	Args    []string
	Title   string // nur für search
}

type command struct {
	name  string
	args  []string
	usage string
}

var commands = []command{
	{"tasks", nil, "Alle offenen Tasks auflisten"},
	{"search", nil, "Tasks mit exakt diesem Titel (-title)"},
	{"show", []string{"ID"}, "Einen Task anzeigen"},
	{"create", []string{"TITLE", "HOURS"}, "Task anlegen"},
	{"done", []string{"ID"}, "Task abschließen"},
	{"undone", []string{"ID"}, "Task wieder öffnen"},
	{"start", []string{"ID"}, "Timer starten"},
	{"stop", []string{"ID"}, "Timer stoppen"},
	{"add-time", []string{"ID", "HOURS"}, "Zeit hinzufügen (15-Minuten-Schritte)"},
	{"log-work", []string{"ID", "MINUTES"}, "Gearbeitete Zeit erfassen"},
	{"prioritize", []string{"ID"}, "Task nach oben priorisieren"},
	{"reindex", nil, "Alle Tasks nach Fälligkeit sortieren"},
	{"hours", nil, "Zeitpläne (Time Schemes) auflisten"},
	{"move", []string{"EVENT_ID", "START", "END"}, "Event verschieben"},
	{"delete", []string{"ID"}, "Task löschen"},
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// ParseFlags parst os.Args. Bei -help wird das Programm beendet.
func ParseFlags() (*Invocation, error) {
	inv, err := Parse(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	return inv, err
}

// Parse liest Umgebung (.env), globale Flags und das Kommando aus args.
// Flags überschreiben Werte aus der Umgebung.
func Parse(args []string) (*Invocation, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("reclaim", flag.ContinueOnError)
	fs.Usage = func() { usage(fs) }

	fs.StringVar(&cfg.Token, "token", cfg.Token, "Reclaim API Token")
	fs.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "Reclaim API URL")
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "TOML Datei mit [reclaim_ai] token")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP Timeout")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "Ausgabeformat: yaml oder markdown")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Requests auf stderr loggen")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.Verbose {
		cfg.LogLevel = "DEBUG"
	}

	if err := cfg.Validate(); err != nil {
		fs.Usage()
		return nil, err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return nil, errors.New("kein Kommando angegeben")
	}

	cmd, ok := lookupCommand(rest[0])
	if !ok {
		fs.Usage()
		return nil, fmt.Errorf("unbekanntes Kommando %q", rest[0])
	}

	inv := &Invocation{Config: cfg, Command: cmd.name, Args: rest[1:]}

	if cmd.name == "search" {
		sub := flag.NewFlagSet("search", flag.ContinueOnError)
		sub.StringVar(&inv.Title, "title", "", "Exakter Titel")
		if err := sub.Parse(inv.Args); err != nil {
			return nil, err
		}
		if inv.Title == "" {
			return nil, errors.New("search erwartet -title")
		}
		inv.Args = sub.Args()
	}

	if len(inv.Args) != len(cmd.args) {
		return nil, fmt.Errorf("%s erwartet %d Argument(e): %s %s",
			cmd.name, len(cmd.args), cmd.name, strings.Join(cmd.args, " "))
	}

	return inv, nil
}

func usage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintf(out, `Reclaim CLI

VERWENDUNG:
  %s [OPTIONEN] <KOMMANDO> [ARGUMENTE]

Beispiele:
  # Offene Tasks als Markdown-Tabelle
  %s -format markdown tasks

  # Task mit 2,5 Stunden anlegen
  %s create "Bericht schreiben" 2.5

  # Event um eine Stunde verlängern
  %s move EVENT_ID 2024-03-01T10:00:00Z 2024-03-01T12:00:00Z

KOMMANDOS:
`, fs.Name(), fs.Name(), fs.Name(), fs.Name())
	for _, c := range commands {
		fmt.Fprintf(out, "  %-12s %-26s %s\n", c.name, strings.Join(c.args, " "), c.usage)
	}
	fmt.Fprintf(out, "\nCLI-OPTIONEN:\n")
	fs.PrintDefaults()
	fmt.Fprintf(out, `
Environment Variables:
  RECLAIM_TOKEN    Reclaim API Token
  RECLAIM_API_URL  API URL (Standard: %s)
  RECLAIM_CONFIG   Token-Datei (Standard: %s)
  RECLAIM_FORMAT   yaml oder markdown
`, config.DefaultAPIURL, config.DefaultConfigFile)
}
