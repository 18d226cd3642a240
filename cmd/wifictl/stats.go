package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/netsimlab/wifisim/controller"
	"github.com/netsimlab/wifisim/datarecording"
)

var statsCmd = &cobra.Command{
	Use:   "stats [database file]",
	Short: "Summarize the rounds recorded during a run.",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		printStats(args[0])
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

type stationStats struct {
	rounds  int
	sumDL   float64
	sumUL   float64
	sumDist float64
	lastTx  float64
}

func printStats(dbFile string) {
	reader := datarecording.NewReader(dbFile)
	defer reader.Close()

	reader.MapTable("rounds", controller.RoundSample{})

	results, total, err := reader.Query(context.Background(), "rounds",
		datarecording.QueryParams{OrderBy: "Seq"})
	if err != nil {
		reader.Close()
		atexit.Fatalf("cannot read rounds: %v", err)
	}

	perStation := make(map[uint32]*stationStats)
	for _, r := range results {
		sample := r.(*controller.RoundSample)

		stats, ok := perStation[sample.StationID]
		if !ok {
			stats = &stationStats{}
			perStation[sample.StationID] = stats
		}

		stats.rounds++
		stats.sumDL += sample.DLThroughput
		stats.sumUL += sample.ULThroughput
		stats.sumDist += sample.Distance
		stats.lastTx = sample.TxPowerOut
	}

	fmt.Printf("%d rounds over %d stations\n", total, len(perStation))

	ids := make([]uint32, 0, len(perStation))
	for id := range perStation {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		stats := perStation[id]
		n := float64(stats.rounds)
		fmt.Printf(
			"station %d: rounds=%d meanDist=%.3fm meanDL=%.3fMbps "+
				"meanUL=%.3fMbps finalTx=%.2fdBm\n",
			id, stats.rounds, stats.sumDist/n,
			stats.sumDL/n, stats.sumUL/n, stats.lastTx)
	}
}
