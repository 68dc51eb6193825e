package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"stockdash/m/internal/app"
	"stockdash/m/internal/forecast"
)

const exitMalformedInput = 2

func main() {
	cliApp := &cli.App{
		Name:  "forecast",
		Usage: "recompute Estimated Demand for every product from the sales ledger",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Value: "admin", Usage: "user recorded in the change history"},
			&cli.BoolFlag{Name: "json", Usage: "print the full result as JSON"},
		},
		Action: run,
	}
	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	a, err := app.Bootstrap(c.Context)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.Inventory.EstimateDemand(c.Context, c.String("user"))
	if errors.Is(err, forecast.ErrMalformedInput) {
		return cli.Exit(err.Error(), exitMalformedInput)
	}
	if err != nil {
		return err
	}

	if c.Bool("json") {
		encoder := json.NewEncoder(c.App.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}
	return printResult(c.App.Writer, result)
}

func printResult(w io.Writer, result forecast.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tProduct\tQuantity\tEstimated Demand")
	for _, item := range result.Items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\n", item.ID, item.Product, item.Quantity, item.EstimatedDemand)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(result.Diagnostics) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	for _, d := range result.Diagnostics {
		fmt.Fprintf(w, "[%s] %s\n", d.Severity, d.Message)
	}
	return nil
}
