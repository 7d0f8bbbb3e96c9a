// Command graphgen generates a random social graph in the friendrec input
// format.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"

	"pkg.jsn.cam/friendrec/cmd/graphgen/generator"
)

var (
	UserCount     = flag.Int("users", 1000, "Number of users")
	Degree        = flag.Int("degree", 20, "Average number of friends per user")
	IsolatedRatio = flag.Float64("isolated", 0.01, "Fraction of users without friends")
	Seed          = flag.Uint64("seed", 1, "Random seed")
	OutputPath    = flag.String("output", "var/graph.tsv", "Output file path")
	Quiet         = flag.Bool("quiet", false, "Hide the progress bar")
)

func main() {
	flag.Parse()

	if err := generate(); err != nil {
		log.Fatalf("Failed to generate graph: %v", err)
	}
}

func generate() error {
	if *UserCount < 0 || *Degree < 0 {
		return fmt.Errorf("users and degree must not be negative")
	}

	g := &generator.SocialGraph{
		UserCount:     *UserCount,
		Degree:        *Degree,
		IsolatedRatio: *IsolatedRatio,
	}
	g.Init(rand.New(rand.NewPCG(*Seed, *Seed)))

	if err := os.MkdirAll(filepath.Dir(*OutputPath), 0755); err != nil {
		return err
	}
	file, err := os.Create(*OutputPath)
	if err != nil {
		return err
	}

	if err := writeGraph(file, g); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	log.Infof("Wrote %d users to %s (%s)", g.Users(), *OutputPath, g.Description())

	return nil
}

func writeGraph(out io.Writer, g *generator.SocialGraph) error {
	w := bufio.NewWriter(out)

	var bar *progressbar.ProgressBar
	if !*Quiet {
		bar = progressbar.Default(int64(g.Users()), "writing graph")
	}

	for i := range g.Users() {
		if err := g.WriteLine(w, i); err != nil {
			return err
		}
		if bar != nil {
			bar.Add(1)
		}
	}

	if err := w.Flush(); err != nil {
		return err
	}
	if bar != nil {
		bar.Finish()
	}

	return nil
}
