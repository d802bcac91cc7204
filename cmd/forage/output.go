package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/bft-labs/forage/internal/domain"
)

// printer renders records either as an aligned table or as JSON lines.
type printer struct {
	out  io.Writer
	json bool
}

func (p printer) list(items []domain.Forageable) error {
	if p.json {
		return json.NewEncoder(p.out).Encode(items)
	}
	if len(items) == 0 {
		_, err := fmt.Fprintln(p.out, "no forageables yet")
		return err
	}
	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tADDRESS\tIN SEASON\tNOTES")
	for _, f := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", f.ID, f.Name, f.Address, seasonLabel(f.InSeason), f.Notes)
	}
	return tw.Flush()
}

func (p printer) one(f domain.Forageable) error {
	if p.json {
		return json.NewEncoder(p.out).Encode(f)
	}
	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", f.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", f.Name)
	fmt.Fprintf(tw, "Address:\t%s\n", f.Address)
	fmt.Fprintf(tw, "In season:\t%s\n", seasonLabel(f.InSeason))
	fmt.Fprintf(tw, "Notes:\t%s\n", f.Notes)
	return tw.Flush()
}

func seasonLabel(inSeason bool) string {
	if inSeason {
		return "yes"
	}
	return "no"
}
