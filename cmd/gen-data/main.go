package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/okian/seqprep/internal/synthetic"
)

// Default configuration constants.
const (
	defaultSubjects  = 100
	defaultMaxEvents = 20
	defaultSeed      = 1
)

func main() {
	var (
		subjects  = flag.Int("subjects", defaultSubjects, "Number of subjects to generate")
		maxEvents = flag.Int("max-events", defaultMaxEvents, "Maximum events per subject")
		seed      = flag.Int64("seed", defaultSeed, "Random seed")
		out       = flag.String("out", "testdata", "Output directory for the CSV files")
	)
	flag.Parse()

	cfg := &synthetic.Config{
		Subjects:            *subjects,
		MaxEventsPerSubject: *maxEvents,
		Seed:                *seed,
		OutDir:              *out,
	}

	files, err := synthetic.Generate(cfg)
	if err != nil {
		os.Stderr.WriteString("Generation failed: " + err.Error() + "\n")
		os.Exit(1)
	}

	summary, err := synthetic.Verify(files)
	if err != nil {
		os.Stderr.WriteString("Verification failed: " + err.Error() + "\n")
		os.Exit(1)
	}

	fmt.Println("wrote", files.Subjects)
	fmt.Println("wrote", files.Events)
	fmt.Println("wrote", files.Measurements)
	fmt.Printf("subjects=%d (without events: %d) events=%d measurements=%d\n",
		summary.Subjects, summary.SubjectsWithoutEvents, summary.Events, summary.Measurements)
	for et, n := range summary.EventTypeCounts {
		fmt.Printf("  %s: %d\n", et, n)
	}
}
