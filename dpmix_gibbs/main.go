package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dpmix/dpmix"
	"gonum.org/v1/gonum/mat"
)

func main() {
	traitArg := flag.String("m", "", "whitespace-separated data matrix, one point per row")
	genArg := flag.Int("gen", 2000, "number of Gibbs sweeps to run")
	printFreqArg := flag.Int("pr", 200, "frequency with which to log progress")
	sampFreqArg := flag.Int("samp", 20, "frequency with which to retain a state from the chain")
	alphaArg := flag.Float64("a", 1.0, "concentration parameter of the Dirichlet process")
	seedArg := flag.Uint64("seed", uint64(time.Now().UnixNano()), "chain RNG seed")
	simArg := flag.Int("sim", 0, "simulate this many points per synthetic 2-d cluster instead of reading a matrix")
	flag.Parse()

	var data [][]float64
	switch {
	case *traitArg != "":
		data = readMatrix(*traitArg)
	case *simArg > 0:
		data = simulate(*simArg, *seedArg)
	default:
		fmt.Println("Provide a data matrix with -m or a simulation size with -sim.")
		os.Exit(1)
	}
	fmt.Println("SUCCESSFULLY LOADED", len(data), "POINTS OF DIMENSION", len(data[0]))

	model, err := dpmix.NewMVNModelFromData(data)
	if err != nil {
		model = dpmix.NewMVNModelDim(len(data[0]))
	}
	chain, err := dpmix.NewGibbs(data, model, dpmix.GibbsConfig{
		Alpha:       *alphaArg,
		Sweeps:      *genArg,
		SampleEvery: *sampFreqArg,
		PrintEvery:  *printFreqArg,
		Seed:        *seedArg,
		Logger:      slog.New(slog.NewTextHandler(os.Stderr, nil)),
	})
	if err != nil {
		log.Fatal(err)
	}
	start := time.Now()
	snaps, err := chain.Run()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("COMPLETED", *genArg, "SWEEPS IN", time.Since(start))

	last := snaps[len(snaps)-1]
	names := model.ParameterNames()
	fmt.Println("FINAL STATE:", len(last.Counts), "CLUSTERS")
	for k, count := range last.Counts {
		std := last.Params[k].(*dpmix.MVNStandard)
		fmt.Printf("cluster %d\tsize %d\t%s %v\n", k+1, count, names[0],
			mat.Formatted(std.Mean.T(), mat.Squeeze()))
	}
}

//readMatrix reads one point per line, fields separated by whitespace.
func readMatrix(path string) [][]float64 {
	f, err := os.Open(path)
	if err != nil {
		fmt.Println("There was an error when reading in the file:", path, ". Are you sure that it exists?")
		os.Exit(1)
	}
	defer f.Close()
	var data [][]float64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var row []float64
		for _, field := range strings.Fields(line) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				log.Fatal(err)
			}
			row = append(row, v)
		}
		data = append(data, row)
	}
	if err := sc.Err(); err != nil {
		log.Fatal(err)
	}
	return data
}

//simulate draws n points around each of two well-separated 2-d centers.
func simulate(n int, seed uint64) [][]float64 {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	centers := [][]float64{{0, 0}, {8, 8}}
	var data [][]float64
	for _, c := range centers {
		for i := 0; i < n; i++ {
			data = append(data, []float64{
				c[0] + 0.5*rng.NormFloat64(),
				c[1] + 0.5*rng.NormFloat64(),
			})
		}
	}
	return data
}
