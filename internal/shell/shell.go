// Package shell is the interactive numbered-menu front end for a country.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/talgya/civica/internal/engine"
	"github.com/talgya/civica/internal/entropy"
	"github.com/talgya/civica/internal/nation"
	"github.com/talgya/civica/internal/persistence"
)

// DefaultSavePath is offered when the player leaves the file name blank.
const DefaultSavePath = "nation_save.json"

const menu = `Choose an action:
1. View country status
2. Add city
3. Add law
4. Add event
5. Simulate one year
6. Save nation
7. Load nation
8. Quit
`

// Shell reads menu choices from in and writes prompts and results to out.
type Shell struct {
	in  *bufio.Scanner
	out io.Writer

	country  *engine.Country
	opts     []engine.Option
	src      entropy.Source
	savePath string
}

// Options tune a Shell.
type Options struct {
	SavePath string         // default save/load file
	Source   entropy.Source // draws random city features
	Country  []engine.Option
}

// New creates a shell driving country. Countries loaded from disk are
// rebuilt with opts.Country.
func New(in io.Reader, out io.Writer, country *engine.Country, opts Options) *Shell {
	if opts.SavePath == "" {
		opts.SavePath = DefaultSavePath
	}
	if opts.Source == nil {
		opts.Source = entropy.NewSeeded(0)
	}
	return &Shell{
		in:       bufio.NewScanner(in),
		out:      out,
		country:  country,
		opts:     opts.Country,
		src:      opts.Source,
		savePath: opts.SavePath,
	}
}

// Country returns the country currently being played.
func (s *Shell) Country() *engine.Country { return s.country }

// Run loops over the menu until the player quits, input ends, or ctx is
// cancelled.
func (s *Shell) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(s.out, menu)
		choice, ok := s.prompt("Enter choice (1-8): ")
		if !ok {
			return s.in.Err()
		}

		switch strings.TrimSpace(choice) {
		case "1":
			fmt.Fprint(s.out, RenderStatus(s.country.Snapshot()))
		case "2":
			s.addCity()
		case "3":
			s.addLaw()
		case "4":
			s.addEvent()
		case "5":
			s.simulate(ctx)
		case "6":
			s.save()
		case "7":
			s.load()
		case "8":
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(s.out, "Invalid choice, please try again.")
		}
	}
}

// prompt prints label and reads one line. ok is false at end of input.
func (s *Shell) prompt(label string) (string, bool) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		return "", false
	}
	return s.in.Text(), true
}

func (s *Shell) addCity() {
	name, _ := s.prompt("City name: ")
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Fprintln(s.out, "A city needs a name.")
		return
	}

	rawPop, _ := s.prompt(fmt.Sprintf("Population (default %d): ", nation.DefaultCityPopulation))
	pop, err := ParsePopulation(rawPop, nation.DefaultCityPopulation)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid population: %v\n", err)
		return
	}

	rawFeats, _ := s.prompt("Features (comma separated, or leave blank for random): ")
	features := ParseFeatures(rawFeats)
	if len(features) == 0 {
		features = nation.SampleFeatures(s.src)
	}

	city := s.country.AddCity(name, pop, features)
	fmt.Fprintf(s.out, "Added city: %s (Population: %d)\n", city.Name, city.Population)
}

func (s *Shell) addLaw() {
	title, _ := s.prompt("Law title: ")
	description, _ := s.prompt("Description: ")
	fmt.Fprintln(s.out, "Enter impact on cities (e.g., crime:-3,happiness:2): ")
	raw, _ := s.prompt("Impact: ")

	impact, err := ParseDeltas(raw)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid impact: %v\n", err)
		return
	}
	law := s.country.AddLaw(strings.TrimSpace(title), strings.TrimSpace(description), impact)
	fmt.Fprintf(s.out, "Enacted law: %s\n", law.Title)
}

func (s *Shell) addEvent() {
	description, _ := s.prompt("Event description: ")
	fmt.Fprintln(s.out, "Enter effect on resources (e.g., food:-100,money:200): ")
	raw, _ := s.prompt("Effect: ")

	effect, err := ParseDeltas(raw)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid effect: %v\n", err)
		return
	}
	ev := s.country.AddEvent(strings.TrimSpace(description), effect)
	fmt.Fprintf(s.out, "Event occurred: %s\n", ev.Description)
}

func (s *Shell) simulate(ctx context.Context) {
	fmt.Fprintf(s.out, "\nSimulating year %d...\n", s.country.Year())
	report := s.country.RunTick(ctx)

	for _, ev := range report.Events {
		if ev.Description == engine.StarvationDescription {
			fmt.Fprintf(s.out, "Starvation! Population decreased by %d\n", report.Starved)
			continue
		}
		fmt.Fprintf(s.out, "Event: %s\n", ev.Description)
	}
	fmt.Fprintf(s.out, "Year %d complete.\n", report.Year)
	fmt.Fprint(s.out, RenderStatus(s.country.Snapshot()))
}

func (s *Shell) save() {
	raw, _ := s.prompt(fmt.Sprintf("Save filename (default: %s): ", s.savePath))
	path := strings.TrimSpace(raw)
	if path == "" {
		path = s.savePath
	}

	if err := persistence.WriteDocument(path, s.country.Snapshot()); err != nil {
		slog.Error("save failed", "path", path, "error", err)
		fmt.Fprintf(s.out, "Could not save to %s: %v\n", path, err)
		return
	}
	fmt.Fprintf(s.out, "Saved nation to %s\n", path)
}

// load replaces the country only when the whole file decodes and validates.
func (s *Shell) load() {
	raw, _ := s.prompt(fmt.Sprintf("Load filename (default: %s): ", s.savePath))
	path := strings.TrimSpace(raw)
	if path == "" {
		path = s.savePath
	}

	snap, err := persistence.ReadDocument(path)
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		fmt.Fprintf(s.out, "No save found at %s\n", path)
		return
	case err != nil:
		slog.Error("load failed", "path", path, "error", err)
		fmt.Fprintf(s.out, "Could not load %s: %v\n", path, err)
		return
	}

	s.country = engine.FromSnapshot(snap, s.opts...)
	fmt.Fprintf(s.out, "Loaded nation from %s\n", path)
}
