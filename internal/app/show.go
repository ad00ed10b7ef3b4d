package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"
)

// Show prints recent persisted price samples.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show samples")
	}
	if closeStore != nil {
		defer closeStore()
	}

	samples, err := store.ListRecentSamples(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		fmt.Fprintln(os.Stdout, "no samples found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time\tOpen\tHigh\tLow\tClose\tVolume\tSession")

	for _, sample := range samples {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			sample.TS.In(time.Local).Format("2006-01-02 15:04:05"),
			formatDecimal(sample.Open, 0),
			formatDecimal(sample.High, 0),
			formatDecimal(sample.Low, 0),
			formatDecimal(sample.Close, 0),
			sample.Volume,
			sample.Session,
		)
	}

	writer.Flush()
	return nil
}

func fmt64(v int64) string {
	return strconv.FormatInt(v, 10)
}
